package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sakif/social-network/internal/model"
	"github.com/sakif/social-network/internal/service"
)

// LikeHandler serves likes. Like and unlike always act as the caller, so
// the body only names the post.
type LikeHandler struct {
	likes  *service.LikeService
	logger *slog.Logger
}

func NewLikeHandler(likes *service.LikeService, logger *slog.Logger) *LikeHandler {
	return &LikeHandler{likes: likes, logger: logger}
}

type likeRequest struct {
	PostID string `json:"postId"`
}

type likeResponse struct {
	Message string      `json:"message"`
	Like    *model.Like `json:"like"`
}

type likedPostsResponse struct {
	Posts []model.Post `json:"posts"`
}

// HTTP: POST /likes (auth)
// REQUEST BODY: {"postId": "..."}
func (h *LikeHandler) HandleLike(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	var req likeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(h.logger, w, r, err)
		return
	}

	like, err := h.likes.Like(r.Context(), caller, req.PostID)
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, likeResponse{Message: "Post liked successfully", Like: like})
}

// HTTP: DELETE /likes (auth)
// REQUEST BODY: {"postId": "..."}
func (h *LikeHandler) HandleUnlike(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	var req likeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(h.logger, w, r, err)
		return
	}

	if err := h.likes.Unlike(r.Context(), caller, req.PostID); err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Post unliked successfully")
}

// HandleListByPost returns who liked a post.
//
// HTTP: GET /likes/post/{postId}
func (h *LikeHandler) HandleListByPost(w http.ResponseWriter, r *http.Request) {
	likes, err := h.likes.ListByPost(r.Context(), chi.URLParam(r, "postId"))
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, likes)
}

// HandleLikedPosts returns the posts the caller has liked, most recent
// like first.
//
// HTTP: GET /likes/user/posts (auth)
func (h *LikeHandler) HandleLikedPosts(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	posts, err := h.likes.LikedPosts(r.Context(), caller)
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	if posts == nil {
		posts = []model.Post{}
	}
	writeJSON(w, http.StatusOK, likedPostsResponse{Posts: posts})
}
