package service

import (
	"context"
	"fmt"

	"github.com/atinyakov/TaskKeeper/internal/auth"
	"github.com/atinyakov/TaskKeeper/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AdminSeed describes the administrator created on first boot.
type AdminSeed struct {
	Name     string
	Email    string
	Password string
}

// AdminStore is the subset of UserRepository needed for seeding.
type AdminStore interface {
	CountAdmins(ctx context.Context) (int64, error)
	CreateUser(ctx context.Context, u *models.User) error
}

// SeedAdmin creates one administrator when none exists and reports whether
// it did. Running it again once an administrator exists is a no-op.
// Concurrent first boots of several processes are not coordinated.
func SeedAdmin(ctx context.Context, store AdminStore, seed AdminSeed, log *zap.Logger) (bool, error) {
	n, err := store.CountAdmins(ctx)
	if err != nil {
		return false, fmt.Errorf("count admins: %w", err)
	}
	if n > 0 {
		log.Debug("admin already present, skipping seed", zap.Int64("admins", n))
		return false, nil
	}

	if seed.Email == "" || seed.Password == "" {
		return false, fmt.Errorf("seed admin: email and password are required")
	}
	hash, err := auth.HashPassword(seed.Password)
	if err != nil {
		return false, err
	}
	u := &models.User{
		ID:           uuid.NewString(),
		Name:         seed.Name,
		Email:        models.NormalizeEmail(seed.Email),
		PasswordHash: hash,
		IsAdmin:      true,
	}
	if err := store.CreateUser(ctx, u); err != nil {
		return false, fmt.Errorf("seed admin: %w", err)
	}

	log.Info("admin user created", zap.String("email", u.Email), zap.String("user_id", u.ID))
	return true, nil
}
