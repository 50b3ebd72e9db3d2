// Package api is a small client for the TaskKeeper REST API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/atinyakov/TaskKeeper/internal/models"
)

// Session is what the server returns on register, login, and profile update.
type Session struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
	Token   string `json:"token,omitempty"`
}

// Error is a non-2xx response. Message is the server's "message" field, or
// the raw body when it is not JSON.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("server error (%d): %s", e.Status, e.Message)
}

// Client calls the API. Token, when set, is sent as a bearer token.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Token   string
}

// New returns a Client for baseURL with a 10 second timeout.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var msg struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(data, &msg) != nil || msg.Message == "" {
			msg.Message = strings.TrimSpace(string(data))
		}
		return &Error{Status: resp.StatusCode, Message: msg.Message}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("invalid response: %w", err)
	}
	return nil
}

// Register creates an account and stores the returned token in c.
func (c *Client) Register(ctx context.Context, name, email, password string, isAdmin bool) (*Session, error) {
	var s Session
	err := c.do(ctx, http.MethodPost, "/api/users", map[string]any{
		"name": name, "email": email, "password": password, "isAdmin": isAdmin,
	}, &s)
	if err != nil {
		return nil, err
	}
	c.Token = s.Token
	return &s, nil
}

// Login authenticates and stores the returned token in c.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	var s Session
	err := c.do(ctx, http.MethodPost, "/api/users/login", map[string]string{
		"email": email, "password": password,
	}, &s)
	if err != nil {
		return nil, err
	}
	c.Token = s.Token
	return &s, nil
}

// Profile returns the caller's account.
func (c *Client) Profile(ctx context.Context) (*Session, error) {
	var s Session
	if err := c.do(ctx, http.MethodGet, "/api/users/profile", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// UpdateProfile sends only the keys present in fields and stores the fresh
// token in c.
func (c *Client) UpdateProfile(ctx context.Context, fields map[string]any) (*Session, error) {
	var s Session
	if err := c.do(ctx, http.MethodPut, "/api/users/profile", fields, &s); err != nil {
		return nil, err
	}
	if s.Token != "" {
		c.Token = s.Token
	}
	return &s, nil
}

// ListUsers returns every account (admin only).
func (c *Client) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := c.do(ctx, http.MethodGet, "/api/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// DeleteUser removes a user and their tasks (admin only) and returns how
// many tasks were removed.
func (c *Client) DeleteUser(ctx context.Context, id string) (int64, error) {
	var res struct {
		TasksRemoved int64 `json:"tasksRemoved"`
	}
	if err := c.do(ctx, http.MethodDelete, "/api/users/"+id, nil, &res); err != nil {
		return 0, err
	}
	return res.TasksRemoved, nil
}

// CreateTask creates a task owned by the caller. fields holds title,
// description, and optionally priority and dueDate.
func (c *Client) CreateTask(ctx context.Context, fields map[string]any) (*models.Task, error) {
	var t models.Task
	if err := c.do(ctx, http.MethodPost, "/api/tasks", fields, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTasks returns the caller's tasks.
func (c *Client) ListTasks(ctx context.Context) ([]models.Task, error) {
	var tasks []models.Task
	if err := c.do(ctx, http.MethodGet, "/api/tasks", nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListAllTasks returns every task with its owner (admin only).
func (c *Client) ListAllTasks(ctx context.Context) ([]models.TaskWithOwner, error) {
	var tasks []models.TaskWithOwner
	if err := c.do(ctx, http.MethodGet, "/api/tasks/all", nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// GetTask fetches one task.
func (c *Client) GetTask(ctx context.Context, id string) (*models.Task, error) {
	var t models.Task
	if err := c.do(ctx, http.MethodGet, "/api/tasks/"+id, nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateTask sends only the keys present in fields. A nil "dueDate" value
// clears the due date.
func (c *Client) UpdateTask(ctx context.Context, id string, fields map[string]any) (*models.Task, error) {
	var t models.Task
	if err := c.do(ctx, http.MethodPut, "/api/tasks/"+id, fields, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// DeleteTask removes a task.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/tasks/"+id, nil, nil)
}
