package handler_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/social-network/internal/model"
)

func TestLike_Twice(t *testing.T) {
	env := newTestEnv(t)
	_, aliceCookie := env.signup(t, "alice")
	bob, bobCookie := env.signup(t, "bob")
	post := env.createPost(t, aliceCookie, "post")

	rr := env.do(t, http.MethodPost, "/likes", map[string]string{"postId": post.ID}, bobCookie)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var res struct {
		Like model.Like `json:"like"`
	}
	decode(t, rr, &res)
	assert.Equal(t, bob.ID, res.Like.UserID)

	rr = env.do(t, http.MethodPost, "/likes", map[string]string{"postId": post.ID}, bobCookie)
	assert.Equal(t, http.StatusConflict, rr.Code)

	assert.Equal(t, 1, env.getPost(t, post.ID).LikesCount)
}

func TestLike_Errors(t *testing.T) {
	env := newTestEnv(t)
	_, cookie := env.signup(t, "bob")

	rr := env.do(t, http.MethodPost, "/likes", map[string]string{}, cookie)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(t, http.MethodPost, "/likes", map[string]string{"postId": "9m4e2mr0ui3e8a215n4g"}, cookie)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestUnlike(t *testing.T) {
	env := newTestEnv(t)
	_, aliceCookie := env.signup(t, "alice")
	_, bobCookie := env.signup(t, "bob")
	post := env.createPost(t, aliceCookie, "post")

	rr := env.do(t, http.MethodDelete, "/likes", map[string]string{"postId": post.ID}, bobCookie)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Zero(t, env.getPost(t, post.ID).LikesCount)

	rr = env.do(t, http.MethodPost, "/likes", map[string]string{"postId": post.ID}, bobCookie)
	require.Equal(t, http.StatusCreated, rr.Code)
	rr = env.do(t, http.MethodDelete, "/likes", map[string]string{"postId": post.ID}, bobCookie)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Zero(t, env.getPost(t, post.ID).LikesCount)
}

func TestListLikesByPost(t *testing.T) {
	env := newTestEnv(t)
	_, aliceCookie := env.signup(t, "alice")
	_, bobCookie := env.signup(t, "bob")
	post := env.createPost(t, aliceCookie, "post")

	rr := env.do(t, http.MethodPost, "/likes", map[string]string{"postId": post.ID}, bobCookie)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = env.do(t, http.MethodGet, "/likes/post/"+post.ID, nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var likes []model.Like
	decode(t, rr, &likes)
	require.Len(t, likes, 1)
	require.NotNil(t, likes[0].User)
	assert.Equal(t, "bob", likes[0].User.Username)
}

func TestLikedPosts(t *testing.T) {
	env := newTestEnv(t)
	_, aliceCookie := env.signup(t, "alice")
	_, bobCookie := env.signup(t, "bob")
	kept := env.createPost(t, aliceCookie, "kept")
	gone := env.createPost(t, aliceCookie, "gone")

	rr := env.do(t, http.MethodGet, "/likes/user/posts", nil, bobCookie)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"posts":[]}`, rr.Body.String())

	for _, p := range []*model.Post{kept, gone} {
		rr = env.do(t, http.MethodPost, "/likes", map[string]string{"postId": p.ID}, bobCookie)
		require.Equal(t, http.StatusCreated, rr.Code)
	}
	rr = env.do(t, http.MethodDelete, "/posts/"+gone.ID, nil, aliceCookie)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(t, http.MethodGet, "/likes/user/posts", nil, bobCookie)
	require.Equal(t, http.StatusOK, rr.Code)
	var res struct {
		Posts []model.Post `json:"posts"`
	}
	decode(t, rr, &res)
	require.Len(t, res.Posts, 1)
	assert.Equal(t, kept.ID, res.Posts[0].ID)
	require.NotNil(t, res.Posts[0].Author)
	assert.Equal(t, "alice", res.Posts[0].Author.Username)
}
