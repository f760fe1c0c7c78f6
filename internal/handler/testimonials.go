package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/folioapp/folio/internal/config"
	"github.com/folioapp/folio/internal/model"
)

// TestimonialHandler serves client testimonials.
type TestimonialHandler struct {
	store  *config.Store
	logger *slog.Logger
}

// NewTestimonialHandler creates a new TestimonialHandler.
func NewTestimonialHandler(store *config.Store, logger *slog.Logger) *TestimonialHandler {
	return &TestimonialHandler{store: store, logger: logger}
}

// List returns testimonials, featured first.
// GET /api/testimonials
func (h *TestimonialHandler) List(w http.ResponseWriter, r *http.Request) {
	testimonials, err := h.store.ListTestimonials(r.Context())
	if err != nil {
		writeStoreError(w, r, h.logger, err, "Testimonial not found")
		return
	}
	writeJSON(w, http.StatusOK, testimonials)
}

// Create adds a testimonial.
// POST /api/testimonials
func (h *TestimonialHandler) Create(w http.ResponseWriter, r *http.Request) {
	var t model.Testimonial
	if err := readJSON(w, r, &t); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	t.Normalize()
	if err := t.Validate(); err != nil {
		writeValidationError(w, err)
		return
	}

	if err := h.store.CreateTestimonial(r.Context(), &t); err != nil {
		writeStoreError(w, r, h.logger, err, "Testimonial not found")
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// Update merges the request body over the stored testimonial.
// PUT /api/testimonials/{id}
func (h *TestimonialHandler) Update(w http.ResponseWriter, r *http.Request) {
	current, err := h.store.GetTestimonial(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, r, h.logger, err, "Testimonial not found")
		return
	}

	t := *current
	if err := readJSON(w, r, &t); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	t.ID = current.ID
	t.CreatedAt = current.CreatedAt

	t.Normalize()
	if err := t.Validate(); err != nil {
		writeValidationError(w, err)
		return
	}

	if err := h.store.UpdateTestimonial(r.Context(), &t); err != nil {
		writeStoreError(w, r, h.logger, err, "Testimonial not found")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// Delete removes a testimonial.
// DELETE /api/testimonials/{id}
func (h *TestimonialHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteTestimonial(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeStoreError(w, r, h.logger, err, "Testimonial not found")
		return
	}
	writeMessage(w, "Testimonial removed")
}
