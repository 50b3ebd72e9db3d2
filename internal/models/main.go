// Package models defines the core data structures for users and tasks.
package models

import (
	"strings"
	"time"
)

// User represents an application account.
type User struct {
	// ID is the unique identifier for the user.
	ID string `json:"id"`
	// Name is the display name.
	Name string `json:"name"`
	// Email is the login address, stored lower-cased.
	Email string `json:"email"`
	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash []byte `json:"-"`
	// IsAdmin marks administrator accounts.
	IsAdmin   bool      `json:"isAdmin"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Task is a to-do item owned by exactly one user.
type Task struct {
	// ID is the unique identifier for the task.
	ID string `json:"id"`
	// Owner is the ID of the user the task belongs to. Immutable.
	Owner       string    `json:"user"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	Priority    Priority  `json:"priority"`
	DueDate     *Date     `json:"dueDate"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// OwnerSummary is the public view of a task owner.
type OwnerSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TaskWithOwner is a task whose "user" field is resolved to the owner summary.
type TaskWithOwner struct {
	Task
	OwnerInfo OwnerSummary `json:"user"`
}

// NormalizeEmail trims and lower-cases an email address so that lookups are
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
