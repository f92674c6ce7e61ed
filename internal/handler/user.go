package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sakif/social-network/internal/auth"
	"github.com/sakif/social-network/internal/model"
	"github.com/sakif/social-network/internal/service"
)

// UserHandler serves accounts, sessions and the leaderboard.
//
// HANDLER RESPONSIBILITIES:
//   - HandleRegister / HandleLogin / HandleLogout → account + session lifecycle
//   - HandleProfile / HandleStatus               → who am I, am I logged in
//   - HandleList / HandleGet / HandleUpdate      → public profiles, own-profile edits
//   - HandleStatistics                           → leaderboard
//
// The handler only translates HTTP to service calls and back. Validation,
// ownership and uniqueness live in the services.
type UserHandler struct {
	auth    *service.AuthService
	users   *service.UserService
	stats   *service.StatsService
	cookies auth.CookiePolicy
	logger  *slog.Logger
}

func NewUserHandler(
	authService *service.AuthService,
	users *service.UserService,
	stats *service.StatsService,
	cookies auth.CookiePolicy,
	logger *slog.Logger,
) *UserHandler {
	return &UserHandler{
		auth:    authService,
		users:   users,
		stats:   stats,
		cookies: cookies,
		logger:  logger,
	}
}

type registerRequest struct {
	Username       string  `json:"username"`
	Email          string  `json:"email"`
	Password       string  `json:"password"`
	ProfilePicture *string `json:"profilePicture"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type updateUserRequest struct {
	Username       *string `json:"username"`
	Email          *string `json:"email"`
	ProfilePicture *string `json:"profilePicture"`
}

type userResponse struct {
	Message string      `json:"message"`
	User    *model.User `json:"user"`
}

// HandleRegister creates an account.
//
// HTTP: POST /users/register
// REQUEST BODY: {"username": "...", "email": "...", "password": "...", "profilePicture": "..."}
func (h *UserHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(h.logger, w, r, err)
		return
	}

	user, err := h.auth.Register(r.Context(), service.RegisterInput{
		Username:       req.Username,
		Email:          req.Email,
		Password:       req.Password,
		ProfilePicture: req.ProfilePicture,
	})
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, userResponse{Message: "User registered successfully", User: user})
}

// HandleLogin verifies credentials, starts a server-side session and sets
// the session cookie.
//
// HTTP: POST /users/login
// REQUEST BODY: {"email": "...", "password": "..."}
func (h *UserHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(h.logger, w, r, err)
		return
	}

	res, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}

	h.cookies.Set(w, res.Token, res.ExpiresAt)
	writeJSON(w, http.StatusOK, userResponse{Message: "Logged in successfully", User: res.User})
}

// HandleLogout destroys the session and clears the cookie.
//
// HTTP: POST /users/logout (auth)
//
// If the store cannot destroy the session the client gets a 500 and keeps
// its cookie: telling it "logged out" would be a lie.
func (h *UserHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFromContext(r.Context())
	if !ok {
		writeError(w, errNoSession)
		return
	}
	if err := h.auth.Logout(r.Context(), session.ID); err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	h.cookies.Clear(w)
	writeMessage(w, http.StatusOK, "Logged out successfully")
}

// HandleProfile returns the caller's own record.
//
// HTTP: GET /users/profile (auth)
func (h *UserHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, errNoSession)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleStatus lets the frontend probe whether its cookie is still good.
// The guard has already done the work.
//
// HTTP: GET /users/status (auth)
func (h *UserHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, http.StatusOK, "User is logged in")
}

// HandleList returns every user.
//
// HTTP: GET /users
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// HandleGet returns one user.
//
// HTTP: GET /users/{id}
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleUpdate applies a partial profile update. Callers may only edit
// themselves.
//
// HTTP: PUT /users/{id} (auth)
// REQUEST BODY: any of {"username", "email", "profilePicture"}
func (h *UserHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	var req updateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(h.logger, w, r, err)
		return
	}

	user, err := h.users.Update(r.Context(), caller, chi.URLParam(r, "id"), model.UserUpdate{
		Username:       req.Username,
		Email:          req.Email,
		ProfilePicture: req.ProfilePicture,
	})
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse{Message: "User updated successfully", User: user})
}

// HandleStatistics returns the leaderboard.
//
// HTTP: GET /users/statistics
func (h *UserHandler) HandleStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.Statistics(r.Context())
	if err != nil {
		respondError(h.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
