// Package main initializes and starts the TaskKeeper API server,
// setting up configuration, logging, the database, repositories,
// services, handlers, and graceful shutdown.
package main

import (
	"cmp"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"github.com/atinyakov/TaskKeeper/internal/auth"
	"github.com/atinyakov/TaskKeeper/internal/config"
	"github.com/atinyakov/TaskKeeper/internal/db"
	"github.com/atinyakov/TaskKeeper/internal/logger"
	"github.com/atinyakov/TaskKeeper/internal/middleware"
	"github.com/atinyakov/TaskKeeper/internal/repository"
	"github.com/atinyakov/TaskKeeper/internal/server/handler/http"
	"github.com/atinyakov/TaskKeeper/internal/service"
	"go.uber.org/zap"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

const shutdownTimeout = 5 * time.Second

// store is the persistence backend: Postgres or the in-memory fallback.
type store interface {
	service.UserRepository
	service.TaskRepository
}

// pgStore joins the two Postgres repositories into one store.
type pgStore struct {
	*repository.PostgresUserRepository
	*repository.PostgresTaskRepository
}

func main() {
	os.Exit(realMain())
}

// realMain runs the server and returns the process exit code. Deferred
// cleanup, including the final log flush, runs before main exits.
func realMain() int {
	// Parse command-line, file, and environment configuration.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	zapLogger := log.Log

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return exitCode(zapLogger, run(ctx, options, zapLogger))
}

// exitCode logs a failed run at error level and maps it to an exit code.
func exitCode(zapLogger *zap.Logger, err error) int {
	if err != nil {
		zapLogger.Error("server stopped", zap.Error(err))
		return 1
	}
	zapLogger.Info("server stopped")
	return 0
}

func run(ctx context.Context, options *config.Options, zapLogger *zap.Logger) error {
	if options.JWTSecret == "" {
		return errors.New("JWT secret is required (-jwt-secret or JWT_SECRET)")
	}
	tokens, err := auth.NewTokenManager(options.JWTSecret, time.Duration(options.TokenTTL))
	if err != nil {
		return err
	}

	// Initialize the persistence backend.
	var (
		repo     store
		database *sql.DB
	)
	if options.DatabaseDSN == "" {
		zapLogger.Warn("no database DSN configured, using in-memory store")
		repo = repository.NewMemoryStore()
	} else {
		database, err = db.InitPostgres(options.DatabaseDSN)
		if err != nil {
			return fmt.Errorf("cannot init database: %w", err)
		}
		defer database.Close()
		repo = pgStore{
			PostgresUserRepository: repository.NewPostgresUserRepository(database),
			PostgresTaskRepository: repository.NewPostgresTaskRepository(database),
		}
	}

	// Make sure an administrator exists before serving requests.
	if _, err := service.SeedAdmin(ctx, repo, service.AdminSeed{
		Name:     options.AdminName,
		Email:    options.AdminEmail,
		Password: options.AdminPassword,
	}, zapLogger); err != nil {
		return err
	}

	// Initialize business-logic services and handlers.
	handlers := http.Handlers{
		Auth:   &http.AuthHandler{AuthService: service.NewAuthService(repo, tokens, options.AllowAdminSignup), Log: zapLogger},
		Users:  &http.UserHandler{UserService: service.NewUserService(repo, zapLogger), Log: zapLogger},
		Tasks:  &http.TaskHandler{TaskService: service.NewTaskService(repo), Log: zapLogger},
		Health: &http.HealthHandler{Log: zapLogger},
	}
	if database != nil {
		handlers.Health.DB = database
	}

	// Build the router with middleware and routes.
	router := http.NewRouter(handlers, middleware.BearerAuth(tokens, repo, zapLogger), zapLogger)

	server := &nethttp.Server{
		Addr:              options.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		var err error
		if options.TLSCert != "" && options.TLSKey != "" {
			zapLogger.Info("starting HTTPS server", zap.String("addr", options.Port))
			err = server.ListenAndServeTLS(options.TLSCert, options.TLSKey)
		} else {
			zapLogger.Info("starting HTTP server", zap.String("addr", options.Port))
			err = server.ListenAndServe()
		}
		if !errors.Is(err, nethttp.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zapLogger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
