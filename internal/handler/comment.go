package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sakif/social-network/internal/model"
	"github.com/sakif/social-network/internal/service"
)

type CommentHandler struct {
	comments *service.CommentService
	logger   *slog.Logger
}

func NewCommentHandler(comments *service.CommentService, logger *slog.Logger) *CommentHandler {
	return &CommentHandler{comments: comments, logger: logger}
}

type createCommentRequest struct {
	PostID  string `json:"postId"`
	UserID  string `json:"userId"`
	Content string `json:"content"`
}

type updateCommentRequest struct {
	Content string `json:"content"`
}

type commentResponse struct {
	Message string         `json:"message"`
	Comment *model.Comment `json:"comment"`
}

// HandleCreate adds a comment.
//
// HTTP: POST /comments (auth)
// REQUEST BODY: {"postId": "...", "userId": "...", "content": "..."}
//
// userId must be the caller's own ID.
func (h *CommentHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	var req createCommentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(h.logger, w, r, err)
		return
	}

	comment, err := h.comments.Create(r.Context(), caller, req.PostID, req.UserID, req.Content)
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, commentResponse{Message: "Comment created successfully", Comment: comment})
}

// HandleListByPost returns a post's comments, newest first.
//
// HTTP: GET /comments/post/{postId}
func (h *CommentHandler) HandleListByPost(w http.ResponseWriter, r *http.Request) {
	comments, err := h.comments.ListByPost(r.Context(), chi.URLParam(r, "postId"))
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

// HTTP: GET /comments/{id}
func (h *CommentHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	comment, err := h.comments.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, comment)
}

// HTTP: PUT /comments/{id} (auth, author only)
func (h *CommentHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	var req updateCommentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(h.logger, w, r, err)
		return
	}

	comment, err := h.comments.Update(r.Context(), caller, chi.URLParam(r, "id"), req.Content)
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, commentResponse{Message: "Comment updated successfully", Comment: comment})
}

// HTTP: DELETE /comments/{id} (auth, author only)
func (h *CommentHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	if err := h.comments.Delete(r.Context(), caller, chi.URLParam(r, "id")); err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Comment deleted successfully")
}
