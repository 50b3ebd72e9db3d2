package http

import (
	"context"
	"net/http"

	"github.com/atinyakov/TaskKeeper/internal/models"
	"github.com/atinyakov/TaskKeeper/internal/policy"
	"github.com/atinyakov/TaskKeeper/internal/service"
	"go.uber.org/zap"
)

// TaskService defines the task operations required by TaskHandler. Every
// method applies the access policy for sub.
type TaskService interface {
	Create(ctx context.Context, sub policy.Subject, in service.NewTask) (*models.Task, error)
	Get(ctx context.Context, sub policy.Subject, id string) (*models.Task, error)
	ListOwn(ctx context.Context, sub policy.Subject) ([]models.Task, error)
	ListAll(ctx context.Context, sub policy.Subject) ([]models.TaskWithOwner, error)
	Update(ctx context.Context, sub policy.Subject, id string, upd service.TaskUpdate) (*models.Task, error)
	Delete(ctx context.Context, sub policy.Subject, id string) error
}

// TaskHandler serves the /api/tasks endpoints.
type TaskHandler struct {
	TaskService TaskService
	Log         *zap.Logger
}

// Create handles POST /api/tasks. The task is owned by the caller and
// starts in the pending state.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	sub, ok := subject(w, r)
	if !ok {
		return
	}
	var in service.NewTask
	if !decodeJSON(w, r, &in) {
		return
	}

	task, err := h.TaskService.Create(r.Context(), sub, in)
	if err != nil {
		writeError(w, r, h.Log, err, "task")
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

// ListOwn handles GET /api/tasks.
func (h *TaskHandler) ListOwn(w http.ResponseWriter, r *http.Request) {
	sub, ok := subject(w, r)
	if !ok {
		return
	}

	tasks, err := h.TaskService.ListOwn(r.Context(), sub)
	if err != nil {
		writeError(w, r, h.Log, err, "task")
		return
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

// ListAll handles GET /api/tasks/all (admin only).
func (h *TaskHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	sub, ok := subject(w, r)
	if !ok {
		return
	}

	tasks, err := h.TaskService.ListAll(r.Context(), sub)
	if err != nil {
		writeError(w, r, h.Log, err, "task")
		return
	}
	if tasks == nil {
		tasks = []models.TaskWithOwner{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

// Get handles GET /api/tasks/{id}.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	sub, ok := subject(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "task")
	if !ok {
		return
	}

	task, err := h.TaskService.Get(r.Context(), sub, id)
	if err != nil {
		writeError(w, r, h.Log, err, "task")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// Update handles PUT /api/tasks/{id}. Keys absent from the body keep their
// stored value; "dueDate": null clears the due date.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	sub, ok := subject(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "task")
	if !ok {
		return
	}
	var upd service.TaskUpdate
	if !decodeJSON(w, r, &upd) {
		return
	}

	task, err := h.TaskService.Update(r.Context(), sub, id, upd)
	if err != nil {
		writeError(w, r, h.Log, err, "task")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// Delete handles DELETE /api/tasks/{id}.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sub, ok := subject(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "task")
	if !ok {
		return
	}

	if err := h.TaskService.Delete(r.Context(), sub, id); err != nil {
		writeError(w, r, h.Log, err, "task")
		return
	}
	writeMessage(w, http.StatusOK, "Task removed")
}
