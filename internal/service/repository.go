// Package service provides the business logic for accounts and tasks,
// delegating persistence to repository interfaces and access decisions to
// the policy package.
package service

import (
	"context"

	"github.com/atinyakov/TaskKeeper/internal/models"
)

// UserRepository defines the persistence operations on user records.
type UserRepository interface {
	// CreateUser stores a new user; a taken email yields apperr.ErrDuplicateEmail.
	CreateUser(ctx context.Context, u *models.User) error
	// GetUserByID returns apperr.ErrNotFound when id does not resolve.
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	// GetUserByEmail matches case-insensitively.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error
	CountAdmins(ctx context.Context) (int64, error)
	// DeleteUserWithTasks removes a non-admin user and its tasks atomically
	// and returns the number of tasks removed.
	DeleteUserWithTasks(ctx context.Context, id string) (int64, error)
}

// TaskRepository defines the persistence operations on tasks.
type TaskRepository interface {
	CreateTask(ctx context.Context, t *models.Task) error
	// GetTaskByID returns apperr.ErrNotFound when id does not resolve.
	GetTaskByID(ctx context.Context, id string) (*models.Task, error)
	ListTasksByOwner(ctx context.Context, userID string) ([]models.Task, error)
	ListAllTasks(ctx context.Context) ([]models.TaskWithOwner, error)
	UpdateTask(ctx context.Context, t *models.Task) error
	DeleteTask(ctx context.Context, id string) error
}

// TokenIssuer signs bearer tokens for authenticated users.
type TokenIssuer interface {
	Issue(u models.User) (string, error)
}
