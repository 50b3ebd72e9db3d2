package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/atinyakov/TaskKeeper/internal/apperr"
	"github.com/atinyakov/TaskKeeper/internal/middleware"
	"github.com/atinyakov/TaskKeeper/internal/policy"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageResponse{Message: msg})
}

// decodeJSON reads a JSON request body into dst. It reports false and writes
// a 400 response when the body is malformed.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// writeError maps err to a status code and a client-safe message. what names
// the resource for 404 responses, e.g. "task". Unexpected errors are logged
// and reported as a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error, what string) {
	var verr *apperr.ValidationError
	switch {
	case errors.As(err, &verr):
		writeMessage(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, apperr.ErrDuplicateEmail):
		writeMessage(w, http.StatusBadRequest, apperr.ErrDuplicateEmail.Error())
	case errors.Is(err, apperr.ErrInvalidCredentials):
		writeMessage(w, http.StatusUnauthorized, apperr.ErrInvalidCredentials.Error())
	case errors.Is(err, apperr.ErrUnauthorized):
		writeMessage(w, http.StatusUnauthorized, apperr.ErrUnauthorized.Error())
	case errors.Is(err, apperr.ErrNotFound):
		writeMessage(w, http.StatusNotFound, what+" not found")
	default:
		if log != nil {
			log.Error("request failed",
				zap.String("request_id", chiMiddleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Error(err),
			)
		}
		writeMessage(w, http.StatusInternalServerError, "internal server error")
	}
}

// subject returns the authenticated caller. It writes a 401 and reports false
// when the route was not wrapped in the authentication middleware.
func subject(w http.ResponseWriter, r *http.Request) (policy.Subject, bool) {
	u, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "not authorized, no token")
		return policy.Subject{}, false
	}
	return policy.SubjectOf(*u), true
}
