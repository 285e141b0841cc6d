package auth

import (
	"net/http"

	"dreamstate-ticketing/internal/apperr"
	"dreamstate-ticketing/internal/utils"

	"github.com/go-chi/chi/v5"
)

type SessionHandler struct {
	Sessions *SessionManager
}

func NewSessionHandler(sessions *SessionManager) *SessionHandler {
	return &SessionHandler{Sessions: sessions}
}

// RegisterRoutes mounts login and logout under /session. Logout validates its own token.
func (h *SessionHandler) RegisterRoutes(r chi.Router) {
	r.Post("/session", h.Login)
	r.Delete("/session", h.Logout)
}

type loginRequest struct {
	Password string `json:"password"`
}

func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, "Invalid login request", err)
		return
	}
	session, err := h.Sessions.Login(r.Context(), req.Password)
	if err != nil {
		utils.WriteError(w, "Login failed", err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, "Admin session started", session)
}

func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token, err := ExtractTokenFromRequest(r)
	if err != nil {
		utils.WriteError(w, "Logout failed", apperr.Unauthorized(err.Error()))
		return
	}
	if err := h.Sessions.Logout(r.Context(), token); err != nil {
		utils.WriteError(w, "Logout failed", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Admin session ended", nil)
}
