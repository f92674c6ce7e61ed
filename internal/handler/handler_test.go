package handler_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/social-network/internal/auth"
	"github.com/sakif/social-network/internal/handler"
	"github.com/sakif/social-network/internal/model"
	"github.com/sakif/social-network/internal/repository/sqlite"
	"github.com/sakif/social-network/internal/service"
)

// testEnv is the full handler stack over an in-memory database, routed the
// same way the server routes it.
type testEnv struct {
	db     *sqlite.DB
	router http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenService("handler-test-secret-0123456789")
	require.NoError(t, err)
	sessions := auth.NewSessionManager(db, tokens, time.Hour)

	authService := service.NewAuthService(db, sessions, auth.NewPasswordServiceForTest(bcrypt.MinCost), logger)
	users := handler.NewUserHandler(authService, service.NewUserService(db, logger),
		service.NewStatsService(db, logger), auth.CookiePolicy{}, logger)
	posts := handler.NewPostHandler(service.NewPostService(db, logger), logger)
	comments := handler.NewCommentHandler(service.NewCommentService(db, db, db, logger), logger)
	likes := handler.NewLikeHandler(service.NewLikeService(db, db, logger), logger)
	health := handler.NewHealthHandler(db, logger)

	r := chi.NewRouter()
	guard := auth.RequireAuth(sessions, db, logger)

	r.Get("/healthz", health.HandleHealth)
	r.Post("/users/register", users.HandleRegister)
	r.Post("/users/login", users.HandleLogin)
	r.Get("/users/statistics", users.HandleStatistics)
	r.Get("/users", users.HandleList)
	r.Get("/users/{id}", users.HandleGet)
	r.Get("/posts", posts.HandleList)
	r.Get("/posts/{id}", posts.HandleGet)
	r.Get("/comments/post/{postId}", comments.HandleListByPost)
	r.Get("/comments/{id}", comments.HandleGet)
	r.Get("/likes/post/{postId}", likes.HandleListByPost)

	r.Group(func(r chi.Router) {
		r.Use(guard)
		r.Post("/users/logout", users.HandleLogout)
		r.Get("/users/profile", users.HandleProfile)
		r.Get("/users/status", users.HandleStatus)
		r.Put("/users/{id}", users.HandleUpdate)
		r.Delete("/users/{id}", handler.NotImplemented)
		r.Post("/posts", posts.HandleCreate)
		r.Patch("/posts/{id}", posts.HandleUpdate)
		r.Put("/posts/{id}", posts.HandleUpdate)
		r.Delete("/posts/{id}", posts.HandleDelete)
		r.Post("/comments", comments.HandleCreate)
		r.Put("/comments/{id}", comments.HandleUpdate)
		r.Delete("/comments/{id}", comments.HandleDelete)
		r.Get("/likes/user/posts", likes.HandleLikedPosts)
		r.Post("/likes", likes.HandleLike)
		r.Delete("/likes", likes.HandleUnlike)
	})

	return &testEnv{db: db, router: r}
}

// do sends a request with an optional JSON body and session cookie.
func (e *testEnv) do(t *testing.T, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

// signup registers and logs in a user, returning it with its session cookie.
func (e *testEnv) signup(t *testing.T, username string) (*model.User, *http.Cookie) {
	t.Helper()
	creds := map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "password-" + username,
	}
	rr := e.do(t, http.MethodPost, "/users/register", creds, nil)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = e.do(t, http.MethodPost, "/users/login", map[string]string{
		"email": creds["email"], "password": creds["password"],
	}, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var res struct {
		User model.User `json:"user"`
	}
	decode(t, rr, &res)
	return &res.User, sessionCookie(t, rr)
}

func (e *testEnv) createPost(t *testing.T, cookie *http.Cookie, content string) *model.Post {
	t.Helper()
	rr := e.do(t, http.MethodPost, "/posts", map[string]string{"content": content}, cookie)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var res struct {
		Post model.Post `json:"post"`
	}
	decode(t, rr, &res)
	return &res.Post
}

func (e *testEnv) getPost(t *testing.T, id string) *model.Post {
	t.Helper()
	rr := e.do(t, http.MethodGet, "/posts/"+id, nil, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var post model.Post
	decode(t, rr, &post)
	return &post
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rr.Body).Decode(dst))
}

func sessionCookie(t *testing.T, rr *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rr.Result().Cookies() {
		if c.Name == auth.CookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", auth.CookieName)
	return nil
}

func errorKind(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body handler.ErrorResponse
	decode(t, rr, &body)
	return body.Error
}
