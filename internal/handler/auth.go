package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"reserva/internal/auth"
	"reserva/internal/middleware"
	"reserva/internal/model"
)

type AuthHandler struct {
	sessions *auth.SessionManager
	logger   *slog.Logger
}

func NewAuthHandler(sessions *auth.SessionManager, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{sessions: sessions, logger: logger}
}

type registerRequest struct {
	Name     string `json:"name"`
	NetID    string `json:"netid"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// sessionPayload is the only place tokens cross the wire.
type sessionPayload struct {
	SessionToken      string    `json:"session_token"`
	SessionExpiration time.Time `json:"session_expiration"`
	UpdateToken       string    `json:"update_token"`
}

func sessionOf(u *model.User) sessionPayload {
	return sessionPayload{
		SessionToken:      u.SessionToken,
		SessionExpiration: u.SessionExpiration,
		UpdateToken:       u.UpdateToken,
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.NetID = strings.TrimSpace(req.NetID)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" || req.NetID == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "name, netid, email, and password are required")
		return
	}

	user, err := h.sessions.Register(req.Name, req.NetID, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrEmailTaken) {
			writeError(w, http.StatusConflict, "a user with this email already exists")
			return
		}
		h.logger.Error("register", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to register user")
		return
	}

	writeData(w, http.StatusCreated, sessionOf(user))
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := h.sessions.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			// Same message for unknown email and wrong password
			writeError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		h.logger.Error("login", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to log in")
		return
	}

	writeData(w, http.StatusOK, sessionOf(user))
}

// Renew exchanges the bearer update token for a fresh session.
func (h *AuthHandler) Renew(w http.ResponseWriter, r *http.Request) {
	token, err := middleware.BearerToken(r.Header.Get("Authorization"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.sessions.Renew(token)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) {
			writeError(w, http.StatusUnauthorized, "invalid update token")
			return
		}
		h.logger.Error("renew session", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to renew session")
		return
	}

	writeData(w, http.StatusOK, sessionOf(user))
}

// Logout runs behind RequireAuth; the principal comes from the context.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid session token")
		return
	}

	if err := h.sessions.Logout(ac.UserID); err != nil {
		h.logger.Error("logout", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to log out")
		return
	}

	writeData(w, http.StatusOK, "logged out")
}
