package repository

import (
	"context"
	"testing"

	"github.com/atinyakov/TaskKeeper/internal/apperr"
	"github.com/atinyakov/TaskKeeper/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedMemory(t *testing.T) *MemoryStore {
	t.Helper()
	m := NewMemoryStore()
	ctx := context.Background()
	for _, u := range []models.User{
		{ID: "alice", Name: "Alice", Email: "alice@example.com"},
		{ID: "bob", Name: "Bob", Email: "bob@example.com"},
		{ID: "root", Name: "Root", Email: "root@example.com", IsAdmin: true},
	} {
		require.NoError(t, m.CreateUser(ctx, &u))
	}
	return m
}

func TestMemoryStore_Users(t *testing.T) {
	m := seedMemory(t)
	ctx := context.Background()

	err := m.CreateUser(ctx, &models.User{ID: "dup", Email: "alice@example.com"})
	assert.ErrorIs(t, err, apperr.ErrDuplicateEmail)

	u, err := m.GetUserByEmail(ctx, "ALICE@example.com")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.ID)

	_, err = m.GetUserByID(ctx, "ghost")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	list, err := m.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "alice", list[0].ID)
	assert.Equal(t, "root", list[2].ID)

	u.Email = "bob@example.com"
	assert.ErrorIs(t, m.UpdateUser(ctx, u), apperr.ErrDuplicateEmail)

	n, err := m.CountAdmins(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestMemoryStore_DeleteUserWithTasks(t *testing.T) {
	m := seedMemory(t)
	ctx := context.Background()
	for _, tk := range []models.Task{
		{ID: "t1", Owner: "bob", Title: "a"},
		{ID: "t2", Owner: "bob", Title: "b"},
		{ID: "t3", Owner: "alice", Title: "c"},
	} {
		require.NoError(t, m.CreateTask(ctx, &tk))
	}

	removed, err := m.DeleteUserWithTasks(ctx, "bob")
	require.NoError(t, err)
	assert.EqualValues(t, 2, removed)

	all, err := m.ListAllTasks(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, models.OwnerSummary{ID: "alice", Name: "Alice"}, all[0].OwnerInfo)

	_, err = m.DeleteUserWithTasks(ctx, "root")
	assert.ErrorIs(t, err, apperr.ErrNotFound, "admins are never deleted")
	_, err = m.DeleteUserWithTasks(ctx, "bob")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestMemoryStore_Tasks(t *testing.T) {
	m := seedMemory(t)
	ctx := context.Background()

	err := m.CreateTask(ctx, &models.Task{ID: "orphan", Owner: "ghost"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	task := &models.Task{ID: "t1", Owner: "alice", Title: "first"}
	require.NoError(t, m.CreateTask(ctx, task))
	require.NoError(t, m.CreateTask(ctx, &models.Task{ID: "t2", Owner: "alice", Title: "second"}))

	own, err := m.ListTasksByOwner(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, own, 2)
	assert.Equal(t, "first", own[0].Title)

	task.Title = "renamed"
	task.Owner = "bob"
	require.NoError(t, m.UpdateTask(ctx, task))
	got, err := m.GetTaskByID(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Title)
	assert.Equal(t, "alice", got.Owner, "owner is immutable")

	require.NoError(t, m.DeleteTask(ctx, "t1"))
	assert.ErrorIs(t, m.DeleteTask(ctx, "t1"), apperr.ErrNotFound)
	_, err = m.GetTaskByID(ctx, "t1")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
