package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/TaskKeeper/internal/apperr"
	"github.com/atinyakov/TaskKeeper/internal/models"
)

const userColumns = `id, name, email, password_hash, is_admin, created_at, updated_at`

// PostgresUserRepository implements user persistence using a PostgreSQL database.
type PostgresUserRepository struct {
	// DB is the database handle for executing queries and transactions.
	DB *sql.DB
}

// NewPostgresUserRepository creates a new PostgresUserRepository with the given database connection.
// db must be a valid *sql.DB connected to a PostgreSQL instance.
func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{DB: db}
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.IsAdmin, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts u and fills in its timestamps.
// A taken email yields apperr.ErrDuplicateEmail.
func (r *PostgresUserRepository) CreateUser(ctx context.Context, u *models.User) error {
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO users (id, name, email, password_hash, is_admin)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`, u.ID, u.Name, u.Email, u.PasswordHash, u.IsAdmin).Scan(&u.CreatedAt, &u.UpdatedAt)
	if hasCode(err, uniqueViolation) {
		return apperr.ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("CreateUser: %w", err)
	}
	return nil
}

// GetUserByID fetches a single user. A missing user yields apperr.ErrNotFound.
func (r *PostgresUserRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GetUserByID: %w", err)
	}
	return u, nil
}

// GetUserByEmail fetches a user by case-insensitive email match.
func (r *PostgresUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GetUserByEmail: %w", err)
	}
	return u, nil
}

// ListUsers returns every user ordered by creation time.
func (r *PostgresUserRepository) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("ListUsers: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// UpdateUser stores the name, email and password hash of u.
func (r *PostgresUserRepository) UpdateUser(ctx context.Context, u *models.User) error {
	err := r.DB.QueryRowContext(ctx, `
		UPDATE users SET name = $2, email = $3, password_hash = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`, u.ID, u.Name, u.Email, u.PasswordHash).Scan(&u.UpdatedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return apperr.ErrNotFound
	case hasCode(err, uniqueViolation):
		return apperr.ErrDuplicateEmail
	case err != nil:
		return fmt.Errorf("UpdateUser: %w", err)
	}
	return nil
}

// CountAdmins returns the number of administrator accounts.
func (r *PostgresUserRepository) CountAdmins(ctx context.Context) (int64, error) {
	var n int64
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE is_admin = true`).Scan(&n); err != nil {
		return 0, fmt.Errorf("CountAdmins: %w", err)
	}
	return n, nil
}

// DeleteUserWithTasks removes a non-admin user and every task it owns in a
// single transaction and returns how many tasks were removed. Nothing is
// deleted if the user does not exist or is an administrator.
func (r *PostgresUserRepository) DeleteUserWithTasks(ctx context.Context, id string) (int64, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE user_id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("delete tasks: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete tasks: %w", err)
	}

	res, err = tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1 AND is_admin = false`, id)
	if err != nil {
		return 0, fmt.Errorf("delete user: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return 0, fmt.Errorf("delete user: %w", err)
	} else if n == 0 {
		return 0, apperr.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return removed, nil
}
