package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/arefin/snippetbin/internal/apperror"
	"github.com/arefin/snippetbin/internal/auth"
	"github.com/arefin/snippetbin/internal/model"
	"github.com/arefin/snippetbin/internal/service"
)

// cookieTTL matches the token lifetime so the cookie and JWT expire together.
const cookieTTL = 24 * 60 * 60 // seconds

// AuthHandler manages login, logout, and the current-user endpoint.
type AuthHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(users *service.UserService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{users: users, logger: logger}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// HandleLogin verifies credentials and issues a token.
//
// HTTP: POST /auth/login
// Body: {"username": "alice", "password": "alicepassword"}
//
// The token is returned in the body (for API clients sending Authorization
// headers) and also set as an HttpOnly cookie (for browsers). Bad credentials
// yield 401 with no hint as to which part was wrong.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid login JSON", slog.String("error", err.Error()))
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	result, err := h.users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	// HttpOnly keeps the token out of reach of page scripts.
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    result.Token,
		Path:     "/",
		MaxAge:   cookieTTL,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, loginResponse{
		Token: result.Token,
		User:  result.User,
	})
}

// HandleLogout clears the token cookie. The JWT itself stays valid until it
// expires; without the cookie the browser can no longer send it.
//
// HTTP: POST /auth/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// HandleMe returns the authenticated caller's profile.
//
// HTTP: GET /auth/me (behind RequireAuth)
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		// RequireAuth should make this unreachable.
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		h.logger.Error("me: user lookup failed", slog.Int64("userID", userID))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}
