package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/atinyakov/TaskKeeper/internal/apperr"
	"github.com/atinyakov/TaskKeeper/internal/models"
)

// MemoryStore is an in-process user and task store with the same semantics
// as the Postgres repositories. It backs the server when no database DSN is
// configured and is handy in tests. Data is lost on restart.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]models.User
	tasks map[string]models.Task
	// seq preserves insertion order for listings.
	seq   map[string]int
	next  int
	clock func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: map[string]models.User{},
		tasks: map[string]models.Task{},
		seq:   map[string]int{},
		clock: func() time.Time { return time.Now().UTC() },
	}
}

func (m *MemoryStore) stamp(id string) time.Time {
	m.next++
	m.seq[id] = m.next
	return m.clock()
}

func (m *MemoryStore) emailTaken(email, except string) bool {
	for id, u := range m.users {
		if id != except && u.Email == models.NormalizeEmail(email) {
			return true
		}
	}
	return false
}

// CreateUser stores u and sets its timestamps.
func (m *MemoryStore) CreateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.emailTaken(u.Email, "") {
		return apperr.ErrDuplicateEmail
	}
	u.CreatedAt = m.stamp(u.ID)
	u.UpdatedAt = u.CreatedAt
	m.users[u.ID] = *u
	return nil
}

// GetUserByID returns a copy of the user with the given id.
func (m *MemoryStore) GetUserByID(_ context.Context, id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("get user %q: %w", id, apperr.ErrNotFound)
	}
	return &u, nil
}

// GetUserByEmail matches case-insensitively.
func (m *MemoryStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	email = models.NormalizeEmail(email)
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("get user by email: %w", apperr.ErrNotFound)
}

// ListUsers returns all users in creation order.
func (m *MemoryStore) ListUsers(context.Context) ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return m.seq[out[i].ID] < m.seq[out[j].ID] })
	return out, nil
}

// UpdateUser replaces the stored name, email, and password hash.
func (m *MemoryStore) UpdateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.users[u.ID]
	if !ok {
		return fmt.Errorf("update user %q: %w", u.ID, apperr.ErrNotFound)
	}
	if m.emailTaken(u.Email, u.ID) {
		return apperr.ErrDuplicateEmail
	}
	old.Name, old.Email, old.PasswordHash = u.Name, u.Email, u.PasswordHash
	old.UpdatedAt = m.clock()
	u.UpdatedAt = old.UpdatedAt
	m.users[u.ID] = old
	return nil
}

// CountAdmins returns the number of administrator accounts.
func (m *MemoryStore) CountAdmins(context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var n int64
	for _, u := range m.users {
		if u.IsAdmin {
			n++
		}
	}
	return n, nil
}

// DeleteUserWithTasks removes a non-admin user and every task it owns under
// one lock, so readers never observe tasks without their owner.
func (m *MemoryStore) DeleteUserWithTasks(_ context.Context, id string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok || u.IsAdmin {
		return 0, fmt.Errorf("delete user %q: %w", id, apperr.ErrNotFound)
	}
	var removed int64
	for tid, t := range m.tasks {
		if t.Owner == id {
			delete(m.tasks, tid)
			delete(m.seq, tid)
			removed++
		}
	}
	delete(m.users, id)
	delete(m.seq, id)
	return removed, nil
}

// CreateTask stores t. The owner must exist.
func (m *MemoryStore) CreateTask(_ context.Context, t *models.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[t.Owner]; !ok {
		return fmt.Errorf("create task: owner %q: %w", t.Owner, apperr.ErrNotFound)
	}
	t.CreatedAt = m.stamp(t.ID)
	t.UpdatedAt = t.CreatedAt
	m.tasks[t.ID] = *t
	return nil
}

// GetTaskByID returns a copy of the task with the given id.
func (m *MemoryStore) GetTaskByID(_ context.Context, id string) (*models.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, fmt.Errorf("get task %q: %w", id, apperr.ErrNotFound)
	}
	return &t, nil
}

func (m *MemoryStore) sortedTasks(keep func(models.Task) bool) []models.Task {
	out := []models.Task{}
	for _, t := range m.tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return m.seq[out[i].ID] < m.seq[out[j].ID] })
	return out
}

// ListTasksByOwner returns the user's tasks in creation order.
func (m *MemoryStore) ListTasksByOwner(_ context.Context, userID string) ([]models.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sortedTasks(func(t models.Task) bool { return t.Owner == userID }), nil
}

// ListAllTasks returns every task with its owner summary.
func (m *MemoryStore) ListAllTasks(context.Context) ([]models.TaskWithOwner, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tasks := m.sortedTasks(func(models.Task) bool { return true })
	out := make([]models.TaskWithOwner, 0, len(tasks))
	for _, t := range tasks {
		owner := m.users[t.Owner]
		out = append(out, models.TaskWithOwner{
			Task:      t,
			OwnerInfo: models.OwnerSummary{ID: owner.ID, Name: owner.Name},
		})
	}
	return out, nil
}

// UpdateTask replaces the mutable fields of a stored task. The owner is
// never changed.
func (m *MemoryStore) UpdateTask(_ context.Context, t *models.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.tasks[t.ID]
	if !ok {
		return fmt.Errorf("update task %q: %w", t.ID, apperr.ErrNotFound)
	}
	t.Owner = old.Owner
	t.CreatedAt = old.CreatedAt
	t.UpdatedAt = m.clock()
	m.tasks[t.ID] = *t
	return nil
}

// DeleteTask removes a task by id.
func (m *MemoryStore) DeleteTask(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[id]; !ok {
		return fmt.Errorf("delete task %q: %w", id, apperr.ErrNotFound)
	}
	delete(m.tasks, id)
	delete(m.seq, id)
	return nil
}
