package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/atinyakov/TaskKeeper/internal/apperr"
	"github.com/atinyakov/TaskKeeper/internal/auth"
	"github.com/atinyakov/TaskKeeper/internal/models"
	"github.com/atinyakov/TaskKeeper/internal/policy"
	"github.com/google/uuid"
)

// Session is the outcome of a successful registration, login, or profile
// update: the account and a fresh bearer token.
type Session struct {
	User  models.User
	Token string
}

// RegisterInput is the registration payload.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	// IsAdmin requests the administrator role.
	IsAdmin bool
}

// ProfileUpdate carries the fields a user may change on their own account.
type ProfileUpdate struct {
	Name     models.Optional[string] `json:"name"`
	Email    models.Optional[string] `json:"email"`
	Password models.Optional[string] `json:"password"`
}

// AuthService registers and authenticates users.
type AuthService struct {
	repo   UserRepository
	tokens TokenIssuer
	// allowAdminSignup honours RegisterInput.IsAdmin.
	allowAdminSignup bool
}

// NewAuthService constructs an AuthService.
func NewAuthService(repo UserRepository, tokens TokenIssuer, allowAdminSignup bool) *AuthService {
	return &AuthService{repo: repo, tokens: tokens, allowAdminSignup: allowAdminSignup}
}

func validateEmail(email string) error {
	if email == "" {
		return apperr.Required("email")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return apperr.Invalid("email", "is not a valid address")
	}
	return nil
}

// Register creates a new account and returns it with a token.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	name := strings.TrimSpace(in.Name)
	email := models.NormalizeEmail(in.Email)
	if name == "" {
		return nil, apperr.Required("name")
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if in.Password == "" {
		return nil, apperr.Required("password")
	}

	_, err := s.repo.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, apperr.ErrDuplicateEmail
	case !errors.Is(err, apperr.ErrNotFound):
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		IsAdmin:      in.IsAdmin && s.allowAdminSignup,
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return s.session(*u)
}

// Login checks email and password and returns a token on success.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.repo.GetUserByEmail(ctx, models.NormalizeEmail(email))
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	ok, err := auth.CheckPassword(u.PasswordHash, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.ErrInvalidCredentials
	}
	return s.session(*u)
}

// Profile returns the caller's own account.
func (s *AuthService) Profile(ctx context.Context, sub policy.Subject) (*models.User, error) {
	return s.repo.GetUserByID(ctx, sub.ID)
}

// UpdateProfile applies the present fields of upd to the caller's own
// account. There is no path for editing someone else's profile.
func (s *AuthService) UpdateProfile(ctx context.Context, sub policy.Subject, upd ProfileUpdate) (*Session, error) {
	u, err := s.repo.GetUserByID(ctx, sub.ID)
	if err != nil {
		return nil, err
	}

	if upd.Name.Set {
		name := strings.TrimSpace(upd.Name.Value)
		if name == "" {
			return nil, apperr.Invalid("name", "must not be empty")
		}
		u.Name = name
	}
	if upd.Email.Set {
		email := models.NormalizeEmail(upd.Email.Value)
		if err := validateEmail(email); err != nil {
			return nil, err
		}
		u.Email = email
	}
	// An empty password means "unchanged", matching what profile forms send.
	if upd.Password.Set && upd.Password.Value != "" {
		hash, err := auth.HashPassword(upd.Password.Value)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = hash
	}

	if err := s.repo.UpdateUser(ctx, u); err != nil {
		return nil, err
	}
	return s.session(*u)
}

func (s *AuthService) session(u models.User) (*Session, error) {
	token, err := s.tokens.Issue(u)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Session{User: u, Token: token}, nil
}
