// Package http provides the HTTP handlers and router of the TaskKeeper API.
package http

import (
	"context"
	"net/http"

	"github.com/atinyakov/TaskKeeper/internal/models"
	"github.com/atinyakov/TaskKeeper/internal/policy"
	"github.com/atinyakov/TaskKeeper/internal/service"
	"go.uber.org/zap"
)

// AuthService defines the account operations required by AuthHandler.
type AuthService interface {
	// Register creates an account and returns it with a bearer token.
	Register(ctx context.Context, in service.RegisterInput) (*service.Session, error)
	// Login checks credentials and returns a fresh token.
	Login(ctx context.Context, email, password string) (*service.Session, error)
	// Profile returns the caller's own account.
	Profile(ctx context.Context, sub policy.Subject) (*models.User, error)
	// UpdateProfile edits the caller's own account and returns a fresh token.
	UpdateProfile(ctx context.Context, sub policy.Subject, upd service.ProfileUpdate) (*service.Session, error)
}

// AuthHandler handles registration, login, and profile requests.
type AuthHandler struct {
	// AuthService performs the underlying account operations.
	AuthService AuthService
	// Log receives unexpected errors. May be nil.
	Log *zap.Logger
}

// RegisterRequest represents the JSON payload for user registration.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	IsAdmin  bool   `json:"isAdmin"`
}

// LoginRequest represents the JSON payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse is the public view of an account. Token is set only on
// responses that issue one.
type UserResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
	Token   string `json:"token,omitempty"`
}

func newUserResponse(u models.User, token string) UserResponse {
	return UserResponse{ID: u.ID, Name: u.Name, Email: u.Email, IsAdmin: u.IsAdmin, Token: token}
}

// Register handles POST /api/users. It responds 201 with the new account
// and its token, or 400 when a field is missing or the email is taken.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	s, err := h.AuthService.Register(r.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		IsAdmin:  req.IsAdmin,
	})
	if err != nil {
		writeError(w, r, h.Log, err, "user")
		return
	}
	writeJSON(w, http.StatusCreated, newUserResponse(s.User, s.Token))
}

// Login handles POST /api/users/login. Unknown emails and wrong passwords
// both yield 401 with the same message.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	s, err := h.AuthService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, h.Log, err, "user")
		return
	}
	writeJSON(w, http.StatusOK, newUserResponse(s.User, s.Token))
}

// Profile handles GET /api/users/profile.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	sub, ok := subject(w, r)
	if !ok {
		return
	}

	u, err := h.AuthService.Profile(r.Context(), sub)
	if err != nil {
		writeError(w, r, h.Log, err, "user")
		return
	}
	writeJSON(w, http.StatusOK, newUserResponse(*u, ""))
}

// UpdateProfile handles PUT /api/users/profile. Only keys present in the
// body are changed; the response carries a fresh token.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	sub, ok := subject(w, r)
	if !ok {
		return
	}
	var upd service.ProfileUpdate
	if !decodeJSON(w, r, &upd) {
		return
	}

	s, err := h.AuthService.UpdateProfile(r.Context(), sub, upd)
	if err != nil {
		writeError(w, r, h.Log, err, "user")
		return
	}
	writeJSON(w, http.StatusOK, newUserResponse(s.User, s.Token))
}
