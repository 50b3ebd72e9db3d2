package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/TaskKeeper/internal/apperr"
	"github.com/atinyakov/TaskKeeper/internal/models"
)

const taskColumns = `id, user_id, title, description, status, priority, due_date, created_at, updated_at`

// PostgresTaskRepository implements task persistence against a PostgreSQL database.
type PostgresTaskRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresTaskRepository creates a new PostgresTaskRepository using the provided *sql.DB.
func NewPostgresTaskRepository(db *sql.DB) *PostgresTaskRepository {
	return &PostgresTaskRepository{DB: db}
}

func scanTask(row rowScanner, extra ...any) (*models.Task, error) {
	var (
		t   models.Task
		due sql.NullTime
	)
	dest := append([]any{
		&t.ID, &t.Owner, &t.Title, &t.Description, &t.Status, &t.Priority, &due, &t.CreatedAt, &t.UpdatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	if due.Valid {
		d := models.NewDate(due.Time)
		t.DueDate = &d
	}
	return &t, nil
}

func dueDateArg(d *models.Date) sql.NullTime {
	if d == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: d.Time, Valid: true}
}

// CreateTask inserts t and fills in its timestamps. An owner that does not
// exist yields apperr.ErrNotFound.
func (r *PostgresTaskRepository) CreateTask(ctx context.Context, t *models.Task) error {
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO tasks (id, user_id, title, description, status, priority, due_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`, t.ID, t.Owner, t.Title, t.Description, t.Status, t.Priority, dueDateArg(t.DueDate)).
		Scan(&t.CreatedAt, &t.UpdatedAt)
	if hasCode(err, foreignKeyViolation) {
		return fmt.Errorf("CreateTask: owner %s: %w", t.Owner, apperr.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("CreateTask: %w", err)
	}
	return nil
}

// GetTaskByID fetches a single task regardless of owner.
func (r *PostgresTaskRepository) GetTaskByID(ctx context.Context, id string) (*models.Task, error) {
	t, err := scanTask(r.DB.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GetTaskByID: %w", err)
	}
	return t, nil
}

// ListTasksByOwner returns the tasks owned by userID in creation order.
func (r *PostgresTaskRepository) ListTasksByOwner(ctx context.Context, userID string) ([]models.Task, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("ListTasksByOwner: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// ListAllTasks returns every task with its owner's id and name.
func (r *PostgresTaskRepository) ListAllTasks(ctx context.Context) ([]models.TaskWithOwner, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT t.id, t.user_id, t.title, t.description, t.status, t.priority, t.due_date,
		       t.created_at, t.updated_at, u.name
		FROM tasks t JOIN users u ON u.id = t.user_id
		ORDER BY t.created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("ListAllTasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.TaskWithOwner{}
	for rows.Next() {
		var ownerName string
		t, err := scanTask(rows, &ownerName)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		tasks = append(tasks, models.TaskWithOwner{
			Task:      *t,
			OwnerInfo: models.OwnerSummary{ID: t.Owner, Name: ownerName},
		})
	}
	return tasks, rows.Err()
}

// UpdateTask stores the mutable fields of t. Owner and ID are never written.
func (r *PostgresTaskRepository) UpdateTask(ctx context.Context, t *models.Task) error {
	err := r.DB.QueryRowContext(ctx, `
		UPDATE tasks
		SET title = $2, description = $3, status = $4, priority = $5, due_date = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`, t.ID, t.Title, t.Description, t.Status, t.Priority, dueDateArg(t.DueDate)).Scan(&t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("UpdateTask: %w", err)
	}
	return nil
}

// DeleteTask removes a task permanently.
func (r *PostgresTaskRepository) DeleteTask(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("DeleteTask: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("DeleteTask: %w", err)
	}
	if n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
