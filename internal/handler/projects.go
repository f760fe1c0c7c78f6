package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/folioapp/folio/internal/config"
	"github.com/folioapp/folio/internal/model"
)

// ProjectHandler serves the portfolio's projects.
type ProjectHandler struct {
	store  *config.Store
	logger *slog.Logger
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(store *config.Store, logger *slog.Logger) *ProjectHandler {
	return &ProjectHandler{store: store, logger: logger}
}

// List returns all projects in display order. ?featured=true keeps only
// featured projects and ?category= filters by category.
// GET /api/projects
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	projects, err := h.store.ListProjects(r.Context())
	if err != nil {
		writeStoreError(w, r, h.logger, err, "Project not found")
		return
	}

	featured := queryBool(r, "featured")
	category := queryString(r, "category")
	if featured || category != "" {
		filtered := projects[:0]
		for _, p := range projects {
			if featured && !p.Featured {
				continue
			}
			if category != "" && p.Category != category {
				continue
			}
			filtered = append(filtered, p)
		}
		projects = filtered
	}

	writeJSON(w, http.StatusOK, projects)
}

// Get returns one project by ID or slug.
// GET /api/projects/{idOrSlug}
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.GetProject(r.Context(), chi.URLParam(r, "idOrSlug"))
	if err != nil {
		writeStoreError(w, r, h.logger, err, "Project not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Create adds a project.
// POST /api/projects
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var p model.Project
	if err := readJSON(w, r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	p.Normalize()
	if err := p.Validate(); err != nil {
		writeValidationError(w, err)
		return
	}

	if err := h.store.CreateProject(r.Context(), &p); err != nil {
		writeStoreError(w, r, h.logger, err, "Project not found")
		return
	}
	h.logger.Info("project created", "project_id", p.ID, "slug", p.Slug)
	writeJSON(w, http.StatusCreated, p)
}

// Update merges the request body over the stored project. Fields absent
// from the body keep their stored values.
// PUT /api/projects/{id}
func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	current, err := h.store.GetProject(r.Context(), id)
	if err != nil || current.ID != id {
		if err == nil {
			err = config.ErrNotFound
		}
		writeStoreError(w, r, h.logger, err, "Project not found")
		return
	}

	p := *current
	if err := readJSON(w, r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	p.ID = current.ID

	p.Normalize()
	if err := p.Validate(); err != nil {
		writeValidationError(w, err)
		return
	}

	if err := h.store.UpdateProject(r.Context(), &p); err != nil {
		writeStoreError(w, r, h.logger, err, "Project not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Delete removes a project.
// DELETE /api/projects/{id}
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.DeleteProject(r.Context(), id); err != nil {
		writeStoreError(w, r, h.logger, err, "Project not found")
		return
	}
	h.logger.Info("project deleted", "project_id", id)
	writeMessage(w, "Project deleted")
}
