package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/social-network/internal/apperror"
	"github.com/sakif/social-network/internal/model"
)

// contextKey is unexported so no other package can read or shadow the
// values this package puts in a request context.
type contextKey string

const (
	userKey    contextKey = "user"
	sessionKey contextKey = "session"
)

// UserLoader is the slice of the user repository the guard needs.
type UserLoader interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// RequireAuth guards protected routes.
//
// The request passes only if the "sessionId" cookie carries a valid
// signature, names a live session bound to the same user, and that user
// still exists. The session and user are then stored in the request
// context. Otherwise the chain stops with 401, or 500 if the session store
// itself failed.
func RequireAuth(sessions *SessionManager, users UserLoader, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(CookieName)
			if err != nil || cookie.Value == "" {
				writeUnauthorized(w)
				return
			}

			session, err := sessions.Resolve(r.Context(), cookie.Value)
			if err != nil {
				if errors.Is(err, apperror.ErrAuth) {
					writeUnauthorized(w)
					return
				}
				logger.Error("resolving session", "error", err)
				writeJSONError(w, http.StatusInternalServerError, "internal_error", "an unexpected error occurred")
				return
			}

			user, err := users.GetUserByID(r.Context(), session.UserID)
			if err != nil {
				if errors.Is(err, apperror.ErrNotFound) || errors.Is(err, apperror.ErrValidation) {
					writeUnauthorized(w)
					return
				}
				logger.Error("loading session user", "error", err, "user_id", session.UserID)
				writeJSONError(w, http.StatusInternalServerError, "internal_error", "an unexpected error occurred")
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey, session)
			ctx = context.WithValue(ctx, userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithUser returns a context carrying user as the authenticated caller.
// RequireAuth uses the same key; handler tests use it to skip the cookie.
func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// WithSession is the session counterpart of WithUser.
func WithSession(ctx context.Context, session *model.Session) context.Context {
	return context.WithValue(ctx, sessionKey, session)
}

// UserFromContext returns the authenticated caller, if any.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(userKey).(*model.User)
	return u, ok && u != nil
}

// UserIDFromContext returns ("", false) for anonymous requests.
func UserIDFromContext(ctx context.Context) (string, bool) {
	u, ok := UserFromContext(ctx)
	if !ok {
		return "", false
	}
	return u.ID, true
}

func SessionFromContext(ctx context.Context) (*model.Session, bool) {
	s, ok := ctx.Value(sessionKey).(*model.Session)
	return s, ok && s != nil
}

func writeUnauthorized(w http.ResponseWriter) {
	writeJSONError(w, http.StatusUnauthorized, "unauthorized", "valid authentication required")
}

func writeJSONError(w http.ResponseWriter, status int, kind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": kind, "message": message})
}
