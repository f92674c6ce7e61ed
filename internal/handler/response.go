package handler

// RESPONSE HELPERS:
// These functions standardise how we send JSON responses and errors.
//
// CONSISTENT ERROR FORMAT:
// Every error response from the API has the same shape:
//   {"error": "not_found", "message": "post not found with id abc123"}
// plus "field" when a single input field is to blame:
//   {"error": "validation_error", "message": "content is required", "field": "content"}
//
// Successful mutations answer with a message and the affected entity:
//   {"message": "Post created successfully", "post": {...}}
// Reads answer with the entity or list itself.

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/social-network/internal/apperror"
	"github.com/sakif/social-network/internal/auth"
)

// maxBodyBytes caps request bodies. Posts top out at a few KB.
const maxBodyBytes = 1 << 20

// errNoSession is answered when a guarded route runs without a caller in
// its context.
var errNoSession = apperror.Unauthorized("authentication required")

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`           // Machine-readable error type (e.g., "not_found")
	Message string `json:"message"`         // Human-readable description
	Field   string `json:"field,omitempty"` // Offending input field, if any
}

// MessageResponse acknowledges a mutation that has nothing else to return.
type MessageResponse struct {
	Message string `json:"message"`
}

// writeJSON sends a JSON response with the given status code.
//
// HEADER ORDER MATTERS:
// Headers and status must be set before the body. Once Encode writes,
// later header changes are silently ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, MessageResponse{Message: message})
}

// writeError maps a domain error to the appropriate HTTP status code and sends it.
//
// ERROR MAPPING:
// The service layer returns errors wrapping apperror sentinels; this is the
// only place they become HTTP statuses.
//
//	ErrValidation → 400 validation_error
//	ErrAuth       → 401 unauthorized
//	ErrForbidden  → 403 forbidden
//	ErrNotFound   → 404 not_found
//	ErrConflict   → 409 conflict
//	anything else → 500 internal_error (details never leave the server)
//
// It returns the status it wrote.
func writeError(w http.ResponseWriter, err error) int {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
			errorType = "validation_error"
		case errors.Is(err, apperror.ErrAuth):
			status = http.StatusUnauthorized
			errorType = "unauthorized"
		case errors.Is(err, apperror.ErrForbidden):
			status = http.StatusForbidden
			errorType = "forbidden"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			errorType = "not_found"
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
			errorType = "conflict"
		}

		if status != http.StatusInternalServerError {
			writeJSON(w, status, ErrorResponse{
				Error:   errorType,
				Message: appErr.Message,
				Field:   appErr.Field,
			})
			return status
		}
	}

	// NEVER expose internal error details to the client: the raw message
	// might contain SQL, file paths or driver internals.
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
	return http.StatusInternalServerError
}

// respondError writes err and logs it. Internal errors are logged at Error
// with the real cause, since the client only sees a generic message.
// Client mistakes (bad input, missing resources) are logged at Debug.
func respondError(logger *slog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	status := writeError(w, err)

	attrs := []any{
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status", status),
		slog.String("error", err.Error()),
		slog.String("request_id", chimiddleware.GetReqID(r.Context())),
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", attrs...)
		return
	}
	logger.Debug("request rejected", attrs...)
}

// NotImplemented answers 501 for routes that are part of the API surface
// but have no behaviour yet.
func NotImplemented(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotImplemented, ErrorResponse{
		Error:   "not_implemented",
		Message: "this endpoint is not implemented",
	})
}

// decodeJSON reads a JSON request body into dst. An empty body and
// malformed JSON are both validation errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperror.ValidationFailed("body", "request body is missing")
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperror.ValidationFailed("body", "request body is too large")
		}
		return apperror.ValidationFailed("body", "request body is not valid JSON")
	}
	return nil
}

// callerID returns the authenticated user's ID. Routes that call it sit
// behind auth.RequireAuth, so a missing caller means a wiring mistake and
// is answered as 401.
func callerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, errNoSession)
		return "", false
	}
	return id, true
}
