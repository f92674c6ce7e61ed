package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/sakif/social-network/internal/apperror"
	"github.com/sakif/social-network/internal/auth"
	"github.com/sakif/social-network/internal/model"
	"github.com/sakif/social-network/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

// fakeStore is an in-memory implementation of every repository interface.
// It keeps post counters in step with likes and comments the way the SQLite
// store does, so service tests can assert on them.
type fakeStore struct {
	mu       sync.Mutex
	seq      int
	users    map[string]*model.User
	posts    map[string]*model.Post
	comments map[string]*model.Comment
	likes    map[string]*model.Like // keyed by postID + "/" + userID
	sessions map[string]*model.Session

	// err, when set, is returned by every call to simulate a storage failure.
	err error
}

var (
	_ repository.UserRepository    = (*fakeStore)(nil)
	_ repository.PostRepository    = (*fakeStore)(nil)
	_ repository.CommentRepository = (*fakeStore)(nil)
	_ repository.LikeRepository    = (*fakeStore)(nil)
	_ repository.StatsRepository   = (*fakeStore)(nil)
	_ repository.SessionRepository = (*fakeStore)(nil)
)

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    map[string]*model.User{},
		posts:    map[string]*model.Post{},
		comments: map[string]*model.Comment{},
		likes:    map[string]*model.Like{},
		sessions: map[string]*model.Session{},
	}
}

// next returns a fresh ID and a timestamp that increases with every call,
// so "newest first" ordering is deterministic.
func (f *fakeStore) next(prefix string) (string, time.Time) {
	f.seq++
	return fmt.Sprintf("%s-%03d", prefix, f.seq), time.Date(2024, 1, 1, 0, 0, f.seq, 0, time.UTC)
}

func (f *fakeStore) summary(userID string) *model.UserSummary {
	u, ok := f.users[userID]
	if !ok {
		return nil
	}
	return &model.UserSummary{ID: u.ID, Username: u.Username, ProfilePicture: u.ProfilePicture}
}

func likeKey(postID, userID string) string { return postID + "/" + userID }

// --- users ---

func (f *fakeStore) CreateUser(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for _, u := range f.users {
		if u.Username == user.Username || u.Email == user.Email {
			return apperror.Conflict("username", "username or email already taken")
		}
	}
	user.ID, user.CreatedAt = f.next("user")
	user.UpdatedAt = user.CreatedAt
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeStore) GetUserByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	cp := *u
	return &cp, nil
}

func (f *fakeStore) findUser(match func(*model.User) bool) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperror.NotFound("user", "?")
}

func (f *fakeStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	return f.findUser(func(u *model.User) bool { return u.Email == email })
}

func (f *fakeStore) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	return f.findUser(func(u *model.User) bool { return u.Username == username })
}

func (f *fakeStore) ListUsers(_ context.Context) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	users := make([]model.User, 0, len(f.users))
	for _, u := range f.users {
		users = append(users, *u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })
	return users, nil
}

func (f *fakeStore) UpdateUser(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.users[user.ID]; !ok {
		return apperror.NotFound("user", user.ID)
	}
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

// --- posts ---

func (f *fakeStore) CreatePost(_ context.Context, post *model.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	post.ID, post.CreatedAt = f.next("post")
	post.UpdatedAt = post.CreatedAt
	cp := *post
	f.posts[post.ID] = &cp
	return nil
}

func (f *fakeStore) GetPostByID(_ context.Context, id string) (*model.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.posts[id]
	if !ok {
		return nil, apperror.NotFound("post", id)
	}
	cp := *p
	cp.Author = f.summary(p.AuthorID)
	return &cp, nil
}

func (f *fakeStore) ListPosts(_ context.Context) ([]model.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	posts := make([]model.Post, 0, len(f.posts))
	for _, p := range f.posts {
		cp := *p
		cp.Author = f.summary(p.AuthorID)
		posts = append(posts, cp)
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].CreatedAt.After(posts[j].CreatedAt) })
	return posts, nil
}

func (f *fakeStore) UpdatePost(_ context.Context, post *model.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	p, ok := f.posts[post.ID]
	if !ok {
		return apperror.NotFound("post", post.ID)
	}
	p.Content = post.Content
	return nil
}

func (f *fakeStore) DeletePost(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.posts[id]; !ok {
		return apperror.NotFound("post", id)
	}
	delete(f.posts, id)
	for cid, c := range f.comments {
		if c.PostID == id {
			delete(f.comments, cid)
		}
	}
	for k, l := range f.likes {
		if l.PostID == id {
			delete(f.likes, k)
		}
	}
	return nil
}

func (f *fakeStore) ReconcileCounters(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	var fixed int64
	for _, p := range f.posts {
		likes, comments := 0, 0
		for _, l := range f.likes {
			if l.PostID == p.ID {
				likes++
			}
		}
		for _, c := range f.comments {
			if c.PostID == p.ID {
				comments++
			}
		}
		if p.LikesCount != likes || p.CommentsCount != comments {
			p.LikesCount, p.CommentsCount = likes, comments
			fixed++
		}
	}
	return fixed, nil
}

// --- comments ---

func (f *fakeStore) CreateComment(_ context.Context, c *model.Comment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	p, ok := f.posts[c.PostID]
	if !ok {
		return apperror.NotFound("post", c.PostID)
	}
	c.ID, c.CreatedAt = f.next("comment")
	c.UpdatedAt = c.CreatedAt
	cp := *c
	f.comments[c.ID] = &cp
	p.CommentsCount++
	return nil
}

func (f *fakeStore) GetCommentByID(_ context.Context, id string) (*model.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.comments[id]
	if !ok {
		return nil, apperror.NotFound("comment", id)
	}
	cp := *c
	cp.Author = f.summary(c.AuthorID)
	return &cp, nil
}

func (f *fakeStore) ListCommentsByPost(_ context.Context, postID string) ([]model.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]model.Comment, 0)
	for _, c := range f.comments {
		if c.PostID == postID {
			cp := *c
			cp.Author = f.summary(c.AuthorID)
			out = append(out, cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeStore) UpdateComment(_ context.Context, c *model.Comment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	existing, ok := f.comments[c.ID]
	if !ok {
		return apperror.NotFound("comment", c.ID)
	}
	existing.Content = c.Content
	return nil
}

func (f *fakeStore) DeleteComment(_ context.Context, id string) (*model.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.comments[id]
	if !ok {
		return nil, apperror.NotFound("comment", id)
	}
	delete(f.comments, id)
	if p, ok := f.posts[c.PostID]; ok && p.CommentsCount > 0 {
		p.CommentsCount--
	}
	return c, nil
}

// --- likes ---

func (f *fakeStore) CreateLike(_ context.Context, l *model.Like) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	p, ok := f.posts[l.PostID]
	if !ok {
		return apperror.NotFound("post", l.PostID)
	}
	if _, dup := f.likes[likeKey(l.PostID, l.UserID)]; dup {
		return apperror.Conflict("postId", "post already liked")
	}
	l.ID, l.CreatedAt = f.next("like")
	cp := *l
	f.likes[likeKey(l.PostID, l.UserID)] = &cp
	p.LikesCount++
	return nil
}

func (f *fakeStore) GetLike(_ context.Context, postID, userID string) (*model.Like, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	l, ok := f.likes[likeKey(postID, userID)]
	if !ok {
		return nil, apperror.NotFound("like", postID)
	}
	cp := *l
	return &cp, nil
}

func (f *fakeStore) DeleteLike(_ context.Context, postID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.likes[likeKey(postID, userID)]; !ok {
		return apperror.NotFound("like", postID)
	}
	delete(f.likes, likeKey(postID, userID))
	if p, ok := f.posts[postID]; ok && p.LikesCount > 0 {
		p.LikesCount--
	}
	return nil
}

func (f *fakeStore) ListLikesByPost(_ context.Context, postID string) ([]model.Like, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]model.Like, 0)
	for _, l := range f.likes {
		if l.PostID == postID {
			cp := *l
			cp.User = f.summary(l.UserID)
			out = append(out, cp)
		}
	}
	return out, nil
}

func (f *fakeStore) ListLikedPosts(_ context.Context, userID string) ([]model.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var liked []*model.Like
	for _, l := range f.likes {
		if l.UserID == userID {
			liked = append(liked, l)
		}
	}
	sort.Slice(liked, func(i, j int) bool { return liked[i].CreatedAt.After(liked[j].CreatedAt) })

	out := make([]model.Post, 0, len(liked))
	for _, l := range liked {
		p, ok := f.posts[l.PostID]
		if !ok {
			continue
		}
		cp := *p
		cp.Author = f.summary(p.AuthorID)
		out = append(out, cp)
	}
	return out, nil
}

// --- stats ---

func (f *fakeStore) GetStatistics(_ context.Context) (*model.Statistics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &model.Statistics{TotalUsers: len(f.users)}, nil
}

// --- sessions ---

func (f *fakeStore) CreateSession(_ context.Context, s *model.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	cp := *s
	f.sessions[s.ID] = &cp
	return nil
}

func (f *fakeStore) GetSession(_ context.Context, id string) (*model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	s, ok := f.sessions[id]
	if !ok || s.Expired(time.Now()) {
		return nil, apperror.NotFound("session", id)
	}
	cp := *s
	return &cp, nil
}

func (f *fakeStore) DeleteSession(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	delete(f.sessions, id)
	return nil
}

func (f *fakeStore) DeleteExpiredSessions(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	var n int64
	for id, s := range f.sessions {
		if s.Expired(time.Now()) {
			delete(f.sessions, id)
			n++
		}
	}
	return n, nil
}

// --- helpers ---

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestSessions(t *testing.T, store repository.SessionRepository) *auth.SessionManager {
	t.Helper()
	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return auth.NewSessionManager(store, tokens, time.Hour)
}

func newTestAuthService(t *testing.T, store *fakeStore) *AuthService {
	t.Helper()
	return NewAuthService(store, newTestSessions(t, store),
		auth.NewPasswordServiceForTest(bcrypt.MinCost), testLogger())
}

// seedUser inserts a user directly, bypassing registration.
func seedUser(t *testing.T, store *fakeStore, username string) *model.User {
	t.Helper()
	u := &model.User{Username: username, Email: username + "@example.com", PasswordHash: "x"}
	if err := store.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("seeding user: %v", err)
	}
	return u
}

func seedPost(t *testing.T, store *fakeStore, author *model.User, content string) *model.Post {
	t.Helper()
	p := &model.Post{AuthorID: author.ID, Content: content}
	if err := store.CreatePost(context.Background(), p); err != nil {
		t.Fatalf("seeding post: %v", err)
	}
	return p
}

func postCounters(t *testing.T, store *fakeStore, id string) (likes, comments int) {
	t.Helper()
	p, err := store.GetPostByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetPostByID(%s): %v", id, err)
	}
	return p.LikesCount, p.CommentsCount
}
