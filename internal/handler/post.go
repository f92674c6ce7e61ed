package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sakif/social-network/internal/model"
	"github.com/sakif/social-network/internal/service"
)

// PostHandler manages CRUD operations for posts.
type PostHandler struct {
	posts  *service.PostService
	logger *slog.Logger
}

func NewPostHandler(posts *service.PostService, logger *slog.Logger) *PostHandler {
	return &PostHandler{posts: posts, logger: logger}
}

type postRequest struct {
	Content string `json:"content"`
}

type postResponse struct {
	Message string      `json:"message"`
	Post    *model.Post `json:"post"`
}

// HandleCreate publishes a post as the caller.
//
// HTTP: POST /posts (auth)
// REQUEST BODY: {"content": "..."}
func (h *PostHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	var req postRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(h.logger, w, r, err)
		return
	}

	post, err := h.posts.Create(r.Context(), caller, req.Content)
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, postResponse{Message: "Post created successfully", Post: post})
}

// HandleList returns every post, newest first, with authors joined.
//
// HTTP: GET /posts
func (h *PostHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.List(r.Context())
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// HandleGet returns one post.
//
// HTTP: GET /posts/{id}
func (h *PostHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	post, err := h.posts.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// HandleUpdate replaces a post's content. Author only.
//
// HTTP: PATCH /posts/{id}, PUT /posts/{id} (auth)
// REQUEST BODY: {"content": "..."}
func (h *PostHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	var req postRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(h.logger, w, r, err)
		return
	}

	post, err := h.posts.Update(r.Context(), caller, chi.URLParam(r, "id"), req.Content)
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, postResponse{Message: "Post updated successfully", Post: post})
}

// HandleDelete removes a post along with its comments and likes. Author only.
//
// HTTP: DELETE /posts/{id} (auth)
func (h *PostHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	if err := h.posts.Delete(r.Context(), caller, chi.URLParam(r, "id")); err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Post deleted successfully")
}
