package service

import (
	"context"
	"errors"

	"github.com/atinyakov/TaskKeeper/internal/apperr"
	"github.com/atinyakov/TaskKeeper/internal/models"
	"github.com/atinyakov/TaskKeeper/internal/policy"
	"go.uber.org/zap"
)

// UserService implements administrator operations on accounts.
type UserService struct {
	repo UserRepository
	log  *zap.Logger
}

// NewUserService constructs a UserService. A nil logger discards output.
func NewUserService(repo UserRepository, log *zap.Logger) *UserService {
	if log == nil {
		log = zap.NewNop()
	}
	return &UserService{repo: repo, log: log}
}

// ListUsers returns every account. Password hashes never leave the models
// package through JSON.
func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.repo.ListUsers(ctx)
}

// DeleteUser removes the target account together with all of its tasks and
// returns the number of tasks removed. Administrator accounts can never be
// deleted, whoever asks.
func (s *UserService) DeleteUser(ctx context.Context, sub policy.Subject, targetID string) (int64, error) {
	target, err := s.repo.GetUserByID(ctx, targetID)
	if err != nil {
		return 0, err
	}
	if policy.Decide(sub, policy.Delete, policy.UserResource(*target)) == policy.Deny {
		return 0, apperr.ErrUnauthorized
	}

	removed, err := s.repo.DeleteUserWithTasks(ctx, targetID)
	if err != nil {
		// The transaction rolled back: the user and their tasks are intact.
		s.log.Error("cascade delete failed",
			zap.String("user_id", targetID),
			zap.String("requested_by", sub.ID),
			zap.Error(err),
		)
		if errors.Is(err, apperr.ErrNotFound) {
			return 0, apperr.ErrNotFound
		}
		return 0, err
	}

	s.log.Info("user deleted",
		zap.String("user_id", targetID),
		zap.String("requested_by", sub.ID),
		zap.Int64("tasks_removed", removed),
	)
	return removed, nil
}
