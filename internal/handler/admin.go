package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/folioapp/folio/internal/config"
	"github.com/folioapp/folio/internal/model"
	"github.com/folioapp/folio/internal/server/middleware"
	"github.com/folioapp/folio/internal/service"
)

// AdminHandler serves the admin session endpoints.
type AdminHandler struct {
	store   *config.Store
	authSvc *service.AuthService
	logger  *slog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(store *config.Store, authSvc *service.AuthService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{store: store, authSvc: authSvc, logger: logger}
}

// loginRequest is the expected payload for the Login endpoint.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates the admin and returns a bearer token.
// POST /api/admin/login
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Please provide both email and password")
		return
	}

	res, err := h.authSvc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingCredentials):
			writeError(w, http.StatusBadRequest, "Please provide both email and password")
		case errors.Is(err, service.ErrInvalidCredentials):
			h.logger.Info("admin login rejected", "request_id", middleware.GetRequestID(r.Context()))
			writeError(w, http.StatusUnauthorized, "Invalid email or password")
		default:
			h.logger.Error("admin login failed", "error", err, "request_id", middleware.GetRequestID(r.Context()))
			writeError(w, http.StatusInternalServerError, "Login failed")
		}
		return
	}

	h.logger.Info("admin logged in", "admin_id", res.Admin.ID)
	writeJSON(w, http.StatusOK, model.LoginResponse{
		Success: true,
		Message: "Login successful",
		Token:   res.Token,
		Admin:   res.Admin,
	})
}

// Profile returns the authenticated admin.
// GET /api/admin/profile
func (h *AdminHandler) Profile(w http.ResponseWriter, r *http.Request) {
	current := middleware.GetAdmin(r.Context())
	if current == nil {
		writeError(w, http.StatusUnauthorized, middleware.MsgNotAuthorized)
		return
	}

	admin, err := h.store.GetAdmin(r.Context(), current.ID)
	if err != nil {
		writeStoreError(w, r, h.logger, err, "Admin not found")
		return
	}

	writeJSON(w, http.StatusOK, model.ProfileResponse{Success: true, Admin: admin.Public()})
}

// Logout acknowledges the end of a session. Tokens are stateless, so the
// client discards its copy and nothing changes server side.
// POST /api/admin/logout
func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if admin := middleware.GetAdmin(r.Context()); admin != nil {
		h.logger.Info("admin logged out", "admin_id", admin.ID)
	}
	writeMessage(w, "Logout successful")
}
