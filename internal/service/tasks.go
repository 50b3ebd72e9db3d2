package service

import (
	"context"
	"strings"

	"github.com/atinyakov/TaskKeeper/internal/apperr"
	"github.com/atinyakov/TaskKeeper/internal/models"
	"github.com/atinyakov/TaskKeeper/internal/policy"
	"github.com/google/uuid"
)

// NewTask is the payload for creating a task.
type NewTask struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Priority    models.Priority `json:"priority"`
	DueDate     *models.Date    `json:"dueDate"`
}

// TaskUpdate lists the fields a caller wants to change. Only fields whose
// key was present in the payload are applied.
type TaskUpdate struct {
	Title       models.Optional[string]          `json:"title"`
	Description models.Optional[string]          `json:"description"`
	Status      models.Optional[models.Status]   `json:"status"`
	Priority    models.Optional[models.Priority] `json:"priority"`
	DueDate     models.Optional[*models.Date]    `json:"dueDate"`
}

// TaskService implements task CRUD guarded by the access policy.
type TaskService struct {
	repo TaskRepository
}

// NewTaskService constructs a TaskService with the provided TaskRepository.
func NewTaskService(repo TaskRepository) *TaskService {
	return &TaskService{repo: repo}
}

// Create stores a new pending task owned by sub.
func (s *TaskService) Create(ctx context.Context, sub policy.Subject, in NewTask) (*models.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperr.Required("title")
	}
	if strings.TrimSpace(in.Description) == "" {
		return nil, apperr.Required("description")
	}
	priority := in.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !priority.Valid() {
		return nil, apperr.Invalid("priority", "must be one of low, medium, high")
	}

	t := &models.Task{
		ID:          uuid.NewString(),
		Owner:       sub.ID,
		Title:       title,
		Description: in.Description,
		Status:      models.StatusPending,
		Priority:    priority,
		DueDate:     in.DueDate.OrNil(),
	}
	if err := s.repo.CreateTask(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// load fetches a task and checks that sub may perform op on it.
// A missing task is reported before the policy is consulted.
func (s *TaskService) load(ctx context.Context, sub policy.Subject, op policy.Operation, id string) (*models.Task, error) {
	t, err := s.repo.GetTaskByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if policy.Decide(sub, op, policy.TaskResource(*t)) == policy.Deny {
		return nil, apperr.ErrUnauthorized
	}
	return t, nil
}

// Get returns a task its owner or an administrator may see.
func (s *TaskService) Get(ctx context.Context, sub policy.Subject, id string) (*models.Task, error) {
	return s.load(ctx, sub, policy.Read, id)
}

// ListOwn returns the caller's tasks in creation order.
func (s *TaskService) ListOwn(ctx context.Context, sub policy.Subject) ([]models.Task, error) {
	return s.repo.ListTasksByOwner(ctx, sub.ID)
}

// ListAll returns every task with its owner resolved. Administrators only.
func (s *TaskService) ListAll(ctx context.Context, sub policy.Subject) ([]models.TaskWithOwner, error) {
	if policy.Decide(sub, policy.List, policy.Tasks) == policy.Deny {
		return nil, apperr.ErrUnauthorized
	}
	return s.repo.ListAllTasks(ctx)
}

// Update applies upd to the task. Owner and ID never change.
func (s *TaskService) Update(ctx context.Context, sub policy.Subject, id string, upd TaskUpdate) (*models.Task, error) {
	t, err := s.load(ctx, sub, policy.Update, id)
	if err != nil {
		return nil, err
	}
	if err := upd.apply(t); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateTask(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (u TaskUpdate) apply(t *models.Task) error {
	if u.Title.Set {
		title := strings.TrimSpace(u.Title.Value)
		if title == "" {
			return apperr.Invalid("title", "must not be empty")
		}
		t.Title = title
	}
	if u.Description.Set {
		t.Description = u.Description.Value
	}
	if u.Status.Set {
		if !u.Status.Value.Valid() {
			return apperr.Invalid("status", "must be one of pending, in-progress, completed")
		}
		t.Status = u.Status.Value
	}
	if u.Priority.Set {
		if !u.Priority.Value.Valid() {
			return apperr.Invalid("priority", "must be one of low, medium, high")
		}
		t.Priority = u.Priority.Value
	}
	if u.DueDate.Set {
		t.DueDate = u.DueDate.Value.OrNil()
	}
	return nil
}

// Delete removes a task permanently.
func (s *TaskService) Delete(ctx context.Context, sub policy.Subject, id string) error {
	if _, err := s.load(ctx, sub, policy.Delete, id); err != nil {
		return err
	}
	return s.repo.DeleteTask(ctx, id)
}
