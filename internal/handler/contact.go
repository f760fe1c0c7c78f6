package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/folioapp/folio/internal/config"
	"github.com/folioapp/folio/internal/model"
)

// ContactNotifier is told about each new contact message.
// *notify.Notifier satisfies it.
type ContactNotifier interface {
	ContactReceived(ctx context.Context, c *model.ContactMessage)
}

// ContactHandler serves the contact form and the admin inbox.
type ContactHandler struct {
	store    *config.Store
	notifier ContactNotifier
	logger   *slog.Logger
}

// NewContactHandler creates a new ContactHandler. notifier may be nil.
func NewContactHandler(store *config.Store, notifier ContactNotifier, logger *slog.Logger) *ContactHandler {
	return &ContactHandler{store: store, notifier: notifier, logger: logger}
}

type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// Send stores a visitor's message and queues a notification to the owner.
// POST /api/contact
func (h *ContactHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	c := model.ContactMessage{
		Name:    req.Name,
		Email:   req.Email,
		Message: strings.TrimSpace(req.Message),
		Status:  model.StatusPending,
	}
	c.Normalize()
	if err := c.Validate(); err != nil {
		writeValidationError(w, err)
		return
	}

	if err := h.store.CreateContactMessage(r.Context(), &c); err != nil {
		writeStoreError(w, r, h.logger, err, "Message not found")
		return
	}
	h.logger.Info("contact message received", "contact_id", c.ID)

	if h.notifier != nil {
		h.notifier.ContactReceived(r.Context(), &c)
	}

	writeJSON(w, http.StatusCreated, model.ContactCreatedResponse{
		Success: true,
		Message: "Message sent",
		Contact: c,
	})
}

// List returns all contact messages, newest first. ?status= filters by
// triage status.
// GET /api/contact
// GET /api/contact/messages
func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	messages, err := h.store.ListContactMessages(r.Context())
	if err != nil {
		writeStoreError(w, r, h.logger, err, "Message not found")
		return
	}

	if status := queryString(r, "status"); status != "" {
		filtered := messages[:0]
		for _, m := range messages {
			if m.Status == status {
				filtered = append(filtered, m)
			}
		}
		messages = filtered
	}

	writeJSON(w, http.StatusOK, messages)
}

type statusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus marks a message pending, read or replied.
// PATCH /api/contact/{id}
func (h *ContactHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if !model.ValidStatus(req.Status) {
		writeError(w, http.StatusBadRequest, "Invalid status")
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.store.UpdateContactStatus(r.Context(), id, req.Status); err != nil {
		writeStoreError(w, r, h.logger, err, "Message not found")
		return
	}
	c, err := h.store.GetContactMessage(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, h.logger, err, "Message not found")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Delete removes a contact message.
// DELETE /api/contact/{id}
func (h *ContactHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteContactMessage(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeStoreError(w, r, h.logger, err, "Message not found")
		return
	}
	writeMessage(w, "Message deleted")
}
