package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/atinyakov/TaskKeeper/internal/apperr"
	"github.com/atinyakov/TaskKeeper/internal/auth"
	"github.com/atinyakov/TaskKeeper/internal/models"
	"github.com/atinyakov/TaskKeeper/internal/policy"
	"go.uber.org/zap"
)

type ctxKey string

const userKey ctxKey = "user"

// TokenVerifier validates bearer tokens.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// UserLookup resolves a token subject to the current user record.
type UserLookup interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// BearerAuth is a middleware that requires an "Authorization: Bearer <token>"
// header.
//
// The token subject is loaded from the user store on every request so that
// deleted accounts lose access immediately and the role flag is current.
// On success the user is stored in the request context.
func BearerAuth(tokens TokenVerifier, users UserLookup, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "not authorized, no token")
				return
			}
			claims, err := tokens.Verify(raw)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "not authorized, token failed")
				return
			}

			u, err := users.GetUserByID(r.Context(), claims.Subject)
			if errors.Is(err, apperr.ErrNotFound) {
				writeError(w, http.StatusUnauthorized, "not authorized, token failed")
				return
			}
			if err != nil {
				log.Error("resolve token subject", zap.String("user_id", claims.Subject), zap.Error(err))
				writeError(w, http.StatusInternalServerError, "internal server error")
				return
			}

			ctx := context.WithValue(r.Context(), userKey, u)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Allow gates a route with the access policy applied to a collection
// resource, e.g. Allow(policy.List, policy.Users) for the admin user list.
// It must run after BearerAuth.
func Allow(op policy.Operation, res policy.Resource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := GetUserFromContext(r.Context())
			if !ok || policy.Decide(policy.SubjectOf(*u), op, res) == policy.Deny {
				writeError(w, http.StatusUnauthorized, "not authorized as an admin")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetUserFromContext returns the authenticated user stored by BearerAuth.
func GetUserFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userKey).(*models.User)
	return u, ok && u != nil
}

// WithUser returns a copy of ctx carrying u, as BearerAuth does.
func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}
