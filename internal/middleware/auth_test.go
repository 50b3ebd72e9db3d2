package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/atinyakov/TaskKeeper/internal/apperr"
	"github.com/atinyakov/TaskKeeper/internal/auth"
	"github.com/atinyakov/TaskKeeper/internal/models"
	"github.com/atinyakov/TaskKeeper/internal/policy"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeVerifier struct{}

func (fakeVerifier) Verify(token string) (*auth.Claims, error) {
	if token == "bad" {
		return nil, auth.ErrInvalidToken
	}
	return &auth.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: token}}, nil
}

type fakeUsers struct {
	users map[string]models.User
	err   error
}

func (f fakeUsers) GetUserByID(_ context.Context, id string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return &u, nil
}

func TestBearerAuth(t *testing.T) {
	users := fakeUsers{users: map[string]models.User{
		"alice": {ID: "alice", Name: "Alice"},
	}}

	tests := []struct {
		name       string
		header     string
		users      fakeUsers
		wantStatus int
		wantUser   string
	}{
		{"no header", "", users, http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic abc", users, http.StatusUnauthorized, ""},
		{"empty token", "Bearer ", users, http.StatusUnauthorized, ""},
		{"invalid token", "Bearer bad", users, http.StatusUnauthorized, ""},
		{"deleted user", "Bearer ghost", users, http.StatusUnauthorized, ""},
		{"store failure", "Bearer alice", fakeUsers{err: errors.New("db down")}, http.StatusInternalServerError, ""},
		{"valid", "Bearer alice", users, http.StatusOK, "alice"},
		{"scheme is case-insensitive", "bearer alice", users, http.StatusOK, "alice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotUser string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if u, ok := GetUserFromContext(r.Context()); ok {
					gotUser = u.ID
				}
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			BearerAuth(fakeVerifier{}, tt.users, zap.NewNop())(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantUser, gotUser)
			if tt.wantStatus != http.StatusOK {
				assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
				assert.Contains(t, rec.Body.String(), `"message"`)
			}
		})
	}
}

func TestAllow(t *testing.T) {
	tests := []struct {
		name       string
		user       *models.User
		op         policy.Operation
		res        policy.Resource
		wantStatus int
	}{
		{"no user", nil, policy.List, policy.Users, http.StatusUnauthorized},
		{"regular user lists users", &models.User{ID: "a"}, policy.List, policy.Users, http.StatusUnauthorized},
		{"regular user lists all tasks", &models.User{ID: "a"}, policy.List, policy.Tasks, http.StatusUnauthorized},
		{"admin lists users", &models.User{ID: "r", IsAdmin: true}, policy.List, policy.Users, http.StatusOK},
		{"admin deletes users", &models.User{ID: "r", IsAdmin: true}, policy.Delete, policy.Users, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.user != nil {
				req = req.WithContext(WithUser(req.Context(), tt.user))
			}
			rec := httptest.NewRecorder()
			Allow(tt.op, tt.res)(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestGetUserFromContext_Empty(t *testing.T) {
	_, ok := GetUserFromContext(context.Background())
	assert.False(t, ok)

	_, ok = GetUserFromContext(WithUser(context.Background(), nil))
	assert.False(t, ok)
}
