package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/folioapp/folio/internal/model"
)

// Pinger reports whether the backing database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SystemHandler serves the operational endpoints: health, API index and
// the JSON fallbacks for unknown routes.
type SystemHandler struct {
	db      Pinger
	version string
}

// NewSystemHandler creates a new SystemHandler.
func NewSystemHandler(db Pinger, version string) *SystemHandler {
	return &SystemHandler{db: db, version: version}
}

// Health reports process and database liveness. Returns 503 when the
// database cannot be reached.
// GET /api/health
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := model.HealthResponse{
		Status:    "OK",
		Message:   "Server is running",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Database:  "Connected",
	}
	status := http.StatusOK
	if err := h.db.Ping(ctx); err != nil {
		resp.Status = "DEGRADED"
		resp.Database = "Disconnected"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

// Index lists the API's entry points.
// GET /
func (h *SystemHandler) Index(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Portfolio API",
		"version": h.version,
		"status":  "running",
		"endpoints": map[string]string{
			"admin":        "/api/admin",
			"projects":     "/api/projects",
			"testimonials": "/api/testimonials",
			"contact":      "/api/contact",
			"chatbot":      "/api/chatbot",
			"health":       "/api/health",
			"openapi":      "/openapi.json",
		},
	})
}

// NotFound is the JSON 404 for unknown routes.
func (h *SystemHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, model.ErrorResponse{
		Success: false,
		Message: "Route not found",
		Path:    r.URL.Path,
	})
}

// MethodNotAllowed is the JSON 405 for known routes hit with the wrong verb.
func (h *SystemHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, model.ErrorResponse{
		Success: false,
		Message: "Method not allowed",
		Path:    r.URL.Path,
	})
}
