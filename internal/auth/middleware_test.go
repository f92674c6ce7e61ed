package auth

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/sakif/social-network/internal/apperror"
	"github.com/sakif/social-network/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUsers map[string]*model.User

func (f fakeUsers) GetUserByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, apperror.NotFound("user", id)
}

func guarded(t *testing.T, m *SessionManager, users fakeUsers) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return RequireAuth(m, users, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := UserFromContext(r.Context())
		require.True(t, ok, "user missing from context")
		_, ok = SessionFromContext(r.Context())
		require.True(t, ok, "session missing from context")
		w.Write([]byte(u.ID))
	}))
}

func TestRequireAuth(t *testing.T) {
	m, _ := newTestSessionManager(t)
	users := fakeUsers{"user-1": {ID: "user-1", Username: "alice"}}
	h := guarded(t, m, users)

	_, token, err := m.Start(context.Background(), "user-1")
	require.NoError(t, err)
	_, orphanToken, err := m.Start(context.Background(), "deleted-user")
	require.NoError(t, err)

	tests := []struct {
		name   string
		cookie *http.Cookie
		status int
	}{
		{"valid session", &http.Cookie{Name: CookieName, Value: token}, http.StatusOK},
		{"no cookie", nil, http.StatusUnauthorized},
		{"empty cookie", &http.Cookie{Name: CookieName, Value: ""}, http.StatusUnauthorized},
		{"forged cookie", &http.Cookie{Name: CookieName, Value: "forged"}, http.StatusUnauthorized},
		{"user no longer exists", &http.Cookie{Name: CookieName, Value: orphanToken}, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/users/profile", nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, "user-1", rec.Body.String())
			} else {
				assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
				assert.Contains(t, rec.Body.String(), `"unauthorized"`)
			}
		})
	}
}

func TestRequireAuth_StoreFailureIs500(t *testing.T) {
	m, store := newTestSessionManager(t)
	h := guarded(t, m, fakeUsers{})

	_, token, err := m.Start(context.Background(), "user-1")
	require.NoError(t, err)
	store.failGet = assert.AnError

	req := httptest.NewRequest(http.MethodGet, "/users/profile", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestUserIDFromContext_Anonymous(t *testing.T) {
	_, ok := UserIDFromContext(context.Background())
	assert.False(t, ok)

	id, ok := UserIDFromContext(WithUser(context.Background(), &model.User{ID: "u"}))
	assert.True(t, ok)
	assert.Equal(t, "u", id)
}

// =========================================================================
// COOKIE POLICY TESTS
// =========================================================================

func TestCookiePolicy(t *testing.T) {
	tests := []struct {
		name     string
		policy   CookiePolicy
		sameSite http.SameSite
	}{
		{"development", CookiePolicy{Secure: false}, http.SameSiteLaxMode},
		{"production", CookiePolicy{Secure: true}, http.SameSiteNoneMode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.policy.Set(rec, "tok", time.Now().Add(24*time.Hour))

			cookies := rec.Result().Cookies()
			require.Len(t, cookies, 1)
			c := cookies[0]
			assert.Equal(t, CookieName, c.Name)
			assert.Equal(t, "tok", c.Value)
			assert.True(t, c.HttpOnly)
			assert.Equal(t, tt.policy.Secure, c.Secure)
			assert.Equal(t, tt.sameSite, c.SameSite)
			assert.InDelta(t, 24*60*60, c.MaxAge, 5)

			rec = httptest.NewRecorder()
			tt.policy.Clear(rec)
			cleared := rec.Result().Cookies()
			require.Len(t, cleared, 1)
			assert.Equal(t, "", cleared[0].Value)
			assert.Less(t, cleared[0].MaxAge, 0)
		})
	}
}
