package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/atinyakov/TaskKeeper/internal/apperr"
	"github.com/atinyakov/TaskKeeper/internal/models"
	"github.com/atinyakov/TaskKeeper/internal/policy"
	"github.com/atinyakov/TaskKeeper/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type taskFixture struct {
	store *memStore
	svc   *service.TaskService
	alice policy.Subject
	bob   policy.Subject
	admin policy.Subject
}

func newTaskFixture(t *testing.T) taskFixture {
	t.Helper()
	store := newMemStore()
	auth := service.NewAuthService(store, fakeTokens{}, true)
	return taskFixture{
		store: store,
		svc:   service.NewTaskService(store),
		alice: policy.SubjectOf(register(t, auth, "Alice", "alice@example.com", false)),
		bob:   policy.SubjectOf(register(t, auth, "Bob", "bob@example.com", false)),
		admin: policy.SubjectOf(register(t, auth, "Root", "root@example.com", true)),
	}
}

func (f taskFixture) create(t *testing.T, sub policy.Subject, title string) *models.Task {
	t.Helper()
	task, err := f.svc.Create(context.Background(), sub, service.NewTask{Title: title, Description: "d"})
	require.NoError(t, err)
	return task
}

func TestCreate_RoundTrip(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, f.alice, service.NewTask{
		Title: "Buy milk", Description: "2%", Priority: models.PriorityHigh,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	got, err := f.svc.Get(ctx, f.alice, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status)
	assert.Equal(t, "Buy milk", got.Title)
	assert.Equal(t, "2%", got.Description)
	assert.Equal(t, models.PriorityHigh, got.Priority)
	assert.Equal(t, f.alice.ID, got.Owner)
}

func TestCreate_Defaults(t *testing.T) {
	f := newTaskFixture(t)
	task := f.create(t, f.alice, "Walk dog")
	assert.Equal(t, models.PriorityMedium, task.Priority)
	assert.Equal(t, models.StatusPending, task.Status)
	assert.Nil(t, task.DueDate)
}

func TestCreate_Validation(t *testing.T) {
	f := newTaskFixture(t)
	cases := map[string]service.NewTask{
		"no title":       {Description: "d"},
		"blank title":    {Title: "   ", Description: "d"},
		"no description": {Title: "t"},
		"bad priority":   {Title: "t", Description: "d", Priority: "urgent"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), f.alice, in)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}
	assert.Zero(t, f.store.taskCount())
}

func TestGet_AccessRules(t *testing.T) {
	f := newTaskFixture(t)
	task := f.create(t, f.alice, "Secret plan")
	ctx := context.Background()

	_, err := f.svc.Get(ctx, f.bob, task.ID)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	got, err := f.svc.Get(ctx, f.admin, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.ID, got.ID)

	_, err = f.svc.Get(ctx, f.bob, "does-not-exist")
	assert.ErrorIs(t, err, apperr.ErrNotFound, "missing task reported before the policy runs")
}

func TestListOwnAndAll(t *testing.T) {
	f := newTaskFixture(t)
	f.create(t, f.alice, "a1")
	f.create(t, f.alice, "a2")
	f.create(t, f.bob, "b1")
	ctx := context.Background()

	own, err := f.svc.ListOwn(ctx, f.alice)
	require.NoError(t, err)
	require.Len(t, own, 2)
	assert.Equal(t, "a1", own[0].Title)
	assert.Equal(t, "a2", own[1].Title)

	all, err := f.svc.ListAll(ctx, f.admin)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, models.OwnerSummary{ID: f.bob.ID, Name: "Bob"}, all[2].OwnerInfo)

	_, err = f.svc.ListAll(ctx, f.alice)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestUpdate_PresentFieldsOnly(t *testing.T) {
	f := newTaskFixture(t)
	task := f.create(t, f.alice, "Write report")
	ctx := context.Background()

	due, err := models.ParseDate("2026-05-01")
	require.NoError(t, err)
	updated, err := f.svc.Update(ctx, f.alice, task.ID, service.TaskUpdate{
		Description: models.Some(""),
		Priority:    models.Some(models.PriorityLow),
		DueDate:     models.Some(&due),
	})
	require.NoError(t, err)
	assert.Equal(t, "Write report", updated.Title, "absent title untouched")
	assert.Equal(t, "", updated.Description, "present empty description clears it")
	assert.Equal(t, models.PriorityLow, updated.Priority)
	require.NotNil(t, updated.DueDate)
	assert.Equal(t, "2026-05-01", updated.DueDate.String())
	assert.Equal(t, f.alice.ID, updated.Owner)

	cleared, err := f.svc.Update(ctx, f.alice, task.ID, service.TaskUpdate{DueDate: models.Some[*models.Date](nil)})
	require.NoError(t, err)
	assert.Nil(t, cleared.DueDate)
}

func TestUpdate_StatusTransitionsAreIdempotent(t *testing.T) {
	f := newTaskFixture(t)
	task := f.create(t, f.alice, "Ship it")
	ctx := context.Background()

	for _, st := range []models.Status{models.StatusInProgress, models.StatusCompleted} {
		_, err := f.svc.Update(ctx, f.alice, task.ID, service.TaskUpdate{Status: models.Some(st)})
		require.NoError(t, err)
	}
	before, err := f.svc.Get(ctx, f.alice, task.ID)
	require.NoError(t, err)

	after, err := f.svc.Update(ctx, f.alice, task.ID, service.TaskUpdate{Status: models.Some(models.StatusCompleted)})
	require.NoError(t, err)

	assert.Equal(t, models.StatusCompleted, after.Status)
	assert.Equal(t, before.Title, after.Title)
	assert.Equal(t, before.Description, after.Description)
	assert.Equal(t, before.Priority, after.Priority)
	assert.Equal(t, before.DueDate, after.DueDate)
}

func TestUpdate_Rejections(t *testing.T) {
	f := newTaskFixture(t)
	task := f.create(t, f.alice, "Keep")
	ctx := context.Background()

	cases := []struct {
		name string
		sub  policy.Subject
		id   string
		upd  service.TaskUpdate
		want error
	}{
		{"other user", f.bob, task.ID, service.TaskUpdate{Title: models.Some("hijack")}, apperr.ErrUnauthorized},
		{"missing", f.alice, "nope", service.TaskUpdate{}, apperr.ErrNotFound},
		{"empty title", f.alice, task.ID, service.TaskUpdate{Title: models.Some("")}, apperr.ErrValidation},
		{"bad status", f.alice, task.ID, service.TaskUpdate{Status: models.Some[models.Status]("done")}, apperr.ErrValidation},
		{"null status", f.alice, task.ID, service.TaskUpdate{Status: models.Some[models.Status]("")}, apperr.ErrValidation},
		{"bad priority", f.alice, task.ID, service.TaskUpdate{Priority: models.Some[models.Priority]("asap")}, apperr.ErrValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Update(ctx, tc.sub, tc.id, tc.upd)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	got, err := f.svc.Get(ctx, f.alice, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Keep", got.Title)
}

func TestUpdate_AdminMayEditAnyTask(t *testing.T) {
	f := newTaskFixture(t)
	task := f.create(t, f.alice, "Draft")

	updated, err := f.svc.Update(context.Background(), f.admin, task.ID, service.TaskUpdate{Title: models.Some("Final")})
	require.NoError(t, err)
	assert.Equal(t, "Final", updated.Title)
	assert.Equal(t, f.alice.ID, updated.Owner, "owner never changes")
}

func TestDelete(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()
	mine := f.create(t, f.alice, "mine")
	other := f.create(t, f.bob, "bob's")

	assert.ErrorIs(t, f.svc.Delete(ctx, f.alice, other.ID), apperr.ErrUnauthorized)
	assert.ErrorIs(t, f.svc.Delete(ctx, f.alice, "missing"), apperr.ErrNotFound)
	require.NoError(t, f.svc.Delete(ctx, f.alice, mine.ID))
	require.NoError(t, f.svc.Delete(ctx, f.admin, other.ID))
	assert.Zero(t, f.store.taskCount())
}

type failingTaskRepo struct {
	service.TaskRepository
	err error
}

func (r failingTaskRepo) CreateTask(context.Context, *models.Task) error { return r.err }

func TestCreate_RepositoryError(t *testing.T) {
	wantErr := errors.New("db down")
	svc := service.NewTaskService(failingTaskRepo{err: wantErr})

	_, err := svc.Create(context.Background(), policy.Subject{ID: "u"}, service.NewTask{Title: "t", Description: "d"})
	if !errors.Is(err, wantErr) {
		t.Fatalf("Create error = %v; want %v", err, wantErr)
	}
}
