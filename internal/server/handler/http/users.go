package http

import (
	"context"
	"net/http"

	"github.com/atinyakov/TaskKeeper/internal/models"
	"github.com/atinyakov/TaskKeeper/internal/policy"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserService defines the administrative user operations.
type UserService interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	DeleteUser(ctx context.Context, sub policy.Subject, targetID string) (int64, error)
}

// UserHandler serves the admin-only user endpoints.
type UserHandler struct {
	UserService UserService
	Log         *zap.Logger
}

// DeleteUserResponse reports a completed cascade delete.
type DeleteUserResponse struct {
	Message      string `json:"message"`
	TasksRemoved int64  `json:"tasksRemoved"`
}

// List handles GET /api/users.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.UserService.ListUsers(r.Context())
	if err != nil {
		writeError(w, r, h.Log, err, "user")
		return
	}
	if users == nil {
		users = []models.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

// Delete handles DELETE /api/users/{id}. The user's tasks are removed in the
// same transaction; admin accounts cannot be deleted.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sub, ok := subject(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "user")
	if !ok {
		return
	}

	n, err := h.UserService.DeleteUser(r.Context(), sub, id)
	if err != nil {
		writeError(w, r, h.Log, err, "user")
		return
	}
	writeJSON(w, http.StatusOK, DeleteUserResponse{Message: "User removed", TasksRemoved: n})
}

// pathID returns the {id} URL parameter. Values that are not UUIDs can never
// name a stored record, so they are answered with 404 directly.
func pathID(w http.ResponseWriter, r *http.Request, what string) (string, bool) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		writeMessage(w, http.StatusNotFound, what+" not found")
		return "", false
	}
	return id, true
}
