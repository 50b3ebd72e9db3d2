package service_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/atinyakov/TaskKeeper/internal/apperr"
	"github.com/atinyakov/TaskKeeper/internal/models"
)

// memStore is an in-memory UserRepository and TaskRepository.
type memStore struct {
	mu    sync.Mutex
	users map[string]models.User
	tasks map[string]models.Task
	seq   int

	// deleteErr, when set, makes DeleteUserWithTasks fail without changes.
	deleteErr error
}

func newMemStore() *memStore {
	return &memStore{users: map[string]models.User{}, tasks: map[string]models.Task{}}
}

func (m *memStore) tick() time.Time {
	m.seq++
	return time.Date(2026, 1, 1, 0, 0, m.seq, 0, time.UTC)
}

func (m *memStore) CreateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return apperr.ErrDuplicateEmail
		}
	}
	u.CreatedAt = m.tick()
	u.UpdatedAt = u.CreatedAt
	m.users[u.ID] = *u
	return nil
}

func (m *memStore) GetUserByID(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return &u, nil
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == models.NormalizeEmail(email) {
			return &u, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (m *memStore) ListUsers(context.Context) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) UpdateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; !ok {
		return apperr.ErrNotFound
	}
	for id, existing := range m.users {
		if id != u.ID && existing.Email == u.Email {
			return apperr.ErrDuplicateEmail
		}
	}
	u.UpdatedAt = m.tick()
	m.users[u.ID] = *u
	return nil
}

func (m *memStore) CountAdmins(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, u := range m.users {
		if u.IsAdmin {
			n++
		}
	}
	return n, nil
}

func (m *memStore) DeleteUserWithTasks(_ context.Context, id string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return 0, m.deleteErr
	}
	u, ok := m.users[id]
	if !ok || u.IsAdmin {
		return 0, apperr.ErrNotFound
	}
	var removed int64
	for tid, t := range m.tasks {
		if t.Owner == id {
			delete(m.tasks, tid)
			removed++
		}
	}
	delete(m.users, id)
	return removed, nil
}

func (m *memStore) CreateTask(_ context.Context, t *models.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[t.Owner]; !ok {
		return apperr.ErrNotFound
	}
	t.CreatedAt = m.tick()
	t.UpdatedAt = t.CreatedAt
	m.tasks[t.ID] = *t
	return nil
}

func (m *memStore) GetTaskByID(_ context.Context, id string) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return &t, nil
}

func (m *memStore) sortedTasks(keep func(models.Task) bool) []models.Task {
	out := []models.Task{}
	for _, t := range m.tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (m *memStore) ListTasksByOwner(_ context.Context, userID string) ([]models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sortedTasks(func(t models.Task) bool { return t.Owner == userID }), nil
}

func (m *memStore) ListAllTasks(context.Context) ([]models.TaskWithOwner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.TaskWithOwner{}
	for _, t := range m.sortedTasks(func(models.Task) bool { return true }) {
		owner := m.users[t.Owner]
		out = append(out, models.TaskWithOwner{Task: t, OwnerInfo: models.OwnerSummary{ID: owner.ID, Name: owner.Name}})
	}
	return out, nil
}

func (m *memStore) UpdateTask(_ context.Context, t *models.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.tasks[t.ID]
	if !ok {
		return apperr.ErrNotFound
	}
	if old.Owner != t.Owner {
		return errors.New("owner changed")
	}
	t.UpdatedAt = m.tick()
	m.tasks[t.ID] = *t
	return nil
}

func (m *memStore) DeleteTask(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[id]; !ok {
		return apperr.ErrNotFound
	}
	delete(m.tasks, id)
	return nil
}

func (m *memStore) taskCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

// fakeTokens issues predictable tokens.
type fakeTokens struct {
	err error
}

func (f fakeTokens) Issue(u models.User) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "token-" + u.ID, nil
}
