package handlers

import (
	"net/http"
	"time"

	appMiddleware "github.com/markdave123-py/Penpal/internal/api/middlewares"
	"github.com/markdave123-py/Penpal/internal/logger"
	"github.com/markdave123-py/Penpal/internal/services"
)

const tokenTTL = 24 * time.Hour

type AuthHandler struct {
	users    *services.UserService
	entries  *services.EntryStore
	sessions *services.SessionRegistry
	secret   string
	log      *logger.Logger
}

func NewAuthHandler(users *services.UserService, entries *services.EntryStore, sessions *services.SessionRegistry, secret string, log *logger.Logger) *AuthHandler {
	return &AuthHandler{users: users, entries: entries, sessions: sessions, secret: secret, log: log.With("handler", "auth")}
}

type signupRequest struct {
	FirstName string `json:"first_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type tokenResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	user, err := h.users.Register(r.Context(), req.FirstName, req.Email, req.Password)
	if err != nil {
		h.log.Debug("signup rejected", "email", req.Email, "error", err)
		writeServiceError(w, err)
		return
	}
	h.respondToken(w, http.StatusCreated, user.ID)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	user, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	h.respondToken(w, http.StatusOK, user.ID)
}

// Logout ends the live conversation and clears the user's local cache.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	h.sessions.End(id.UserID)
	if err := h.entries.ClearUser(r.Context(), id); err != nil {
		h.log.Error("cache teardown failed", "user_id", id.UserID, "error", err)
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) respondToken(w http.ResponseWriter, status int, userID string) {
	token, err := appMiddleware.IssueToken(h.secret, userID, tokenTTL)
	if err != nil {
		h.log.Error("token signing failed", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "could not issue token")
		return
	}
	writeJSON(w, status, tokenResponse{Token: token, UserID: userID})
}
