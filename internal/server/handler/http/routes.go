package http

import (
	"net/http"

	"github.com/atinyakov/TaskKeeper/internal/middleware"
	"github.com/atinyakov/TaskKeeper/internal/policy"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// Handlers groups the endpoint handlers mounted by NewRouter.
type Handlers struct {
	Auth   *AuthHandler
	Users  *UserHandler
	Tasks  *TaskHandler
	Health *HealthHandler
}

// NewRouter constructs and returns an HTTP handler that serves the
// TaskKeeper API.
//
// Routes:
//
//	GET    /                   → Health.Root
//	GET    /api/healthz        → Health.Health
//	POST   /api/users          → Auth.Register
//	POST   /api/users/login    → Auth.Login
//	GET    /api/users          → Users.List        (admin)
//	GET    /api/users/profile  → Auth.Profile
//	PUT    /api/users/profile  → Auth.UpdateProfile
//	DELETE /api/users/{id}     → Users.Delete      (admin)
//	POST   /api/tasks          → Tasks.Create
//	GET    /api/tasks          → Tasks.ListOwn
//	GET    /api/tasks/all      → Tasks.ListAll     (admin)
//	GET    /api/tasks/{id}     → Tasks.Get
//	PUT    /api/tasks/{id}     → Tasks.Update
//	DELETE /api/tasks/{id}     → Tasks.Delete
//
// Middleware chain (applied in order):
//  1. RequestID                          - tags each request
//  2. WithRequestLogging(logger)         - logs completed requests
//  3. Recover(logger)                    - turns panics into 500
//  4. AllowContentType("application/json") - rejects non-JSON bodies
//
// authenticate guards every route except registration, login, and the
// liveness endpoints.
func NewRouter(h Handlers, authenticate func(http.Handler) http.Handler, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.WithRequestLogging(logger))
	r.Use(middleware.Recover(logger))
	r.Use(chiMiddleware.AllowContentType("application/json"))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusNotFound, "Not Found - "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/", h.Health.Root)

	r.Route("/api", func(r chi.Router) {
		r.Get("/healthz", h.Health.Health)

		r.Route("/users", func(r chi.Router) {
			// Public endpoints
			r.Post("/", h.Auth.Register)
			r.Post("/login", h.Auth.Login)

			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Get("/profile", h.Auth.Profile)
				r.Put("/profile", h.Auth.UpdateProfile)
				r.With(middleware.Allow(policy.List, policy.Users)).Get("/", h.Users.List)
				r.With(middleware.Allow(policy.Delete, policy.Users)).Delete("/{id}", h.Users.Delete)
			})
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/", h.Tasks.Create)
			r.Get("/", h.Tasks.ListOwn)
			r.With(middleware.Allow(policy.List, policy.Tasks)).Get("/all", h.Tasks.ListAll)
			r.Get("/{id}", h.Tasks.Get)
			r.Put("/{id}", h.Tasks.Update)
			r.Delete("/{id}", h.Tasks.Delete)
		})
	})

	return r
}
