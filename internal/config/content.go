package config

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gosimple/slug"

	"github.com/folioapp/folio/internal/model"
)

// ---------------------------------------------------------------------------
// Projects
// ---------------------------------------------------------------------------

// projectRow is the storage shape of a project. Technologies are kept as a
// JSON array so every dialect can share one schema.
type projectRow struct {
	ID               string    `db:"id"`
	Title            string    `db:"title"`
	Slug             string    `db:"slug"`
	Description      string    `db:"description"`
	ShortDescription string    `db:"short_description"`
	TechnologiesJSON string    `db:"technologies_json"`
	ImageURL         string    `db:"image_url"`
	LiveURL          string    `db:"live_url"`
	GithubURL        string    `db:"github_url"`
	Featured         bool      `db:"featured"`
	Category         string    `db:"category"`
	SortOrder        int       `db:"sort_order"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

func newProjectRow(p *model.Project) (projectRow, error) {
	techs := p.Technologies
	if techs == nil {
		techs = []string{}
	}
	data, err := json.Marshal(techs)
	if err != nil {
		return projectRow{}, fmt.Errorf("marshal technologies: %w", err)
	}
	return projectRow{
		ID:               p.ID,
		Title:            p.Title,
		Slug:             p.Slug,
		Description:      p.Description,
		ShortDescription: p.ShortDescription,
		TechnologiesJSON: string(data),
		ImageURL:         p.ImageURL,
		LiveURL:          p.LiveURL,
		GithubURL:        p.GithubURL,
		Featured:         p.Featured,
		Category:         p.Category,
		SortOrder:        p.Order,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}, nil
}

func (r projectRow) toModel() (model.Project, error) {
	p := model.Project{
		ID:               r.ID,
		Title:            r.Title,
		Slug:             r.Slug,
		Description:      r.Description,
		ShortDescription: r.ShortDescription,
		ImageURL:         r.ImageURL,
		LiveURL:          r.LiveURL,
		GithubURL:        r.GithubURL,
		Featured:         r.Featured,
		Category:         r.Category,
		Order:            r.SortOrder,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
	if err := json.Unmarshal([]byte(r.TechnologiesJSON), &p.Technologies); err != nil {
		return model.Project{}, fmt.Errorf("unmarshal technologies for project %s: %w", r.ID, err)
	}
	if p.Technologies == nil {
		p.Technologies = []string{}
	}
	return p, nil
}

// ListProjects returns all projects by display order, oldest first within
// the same order value.
func (s *Store) ListProjects(ctx context.Context) ([]model.Project, error) {
	var rows []projectRow
	if err := s.db.SelectContext(ctx, &rows,
		"SELECT * FROM projects ORDER BY sort_order ASC, created_at ASC, id ASC"); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	projects := make([]model.Project, 0, len(rows))
	for _, r := range rows {
		p, err := r.toModel()
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, nil
}

// GetProject returns a project by ID or, failing that, by slug.
func (s *Store) GetProject(ctx context.Context, idOrSlug string) (*model.Project, error) {
	var row projectRow
	err := s.db.GetContext(ctx, &row,
		s.db.Rebind("SELECT * FROM projects WHERE id = ? OR slug = ?"), idOrSlug, idOrSlug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get project: %w", err)
	}
	p, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProject inserts a project, deriving a unique slug from its title.
// ID, Slug, CreatedAt and UpdatedAt are populated on success.
func (s *Store) CreateProject(ctx context.Context, p *model.Project) error {
	now := s.now()
	p.ID = newID()
	p.CreatedAt = now
	p.UpdatedAt = now

	var err error
	if p.Slug, err = s.uniqueSlug(ctx, p.Title, p.ID); err != nil {
		return err
	}

	row, err := newProjectRow(p)
	if err != nil {
		return err
	}

	const q = `INSERT INTO projects
		(id, title, slug, description, short_description, technologies_json, image_url,
		 live_url, github_url, featured, category, sort_order, created_at, updated_at)
		VALUES
		(:id, :title, :slug, :description, :short_description, :technologies_json, :image_url,
		 :live_url, :github_url, :featured, :category, :sort_order, :created_at, :updated_at)`

	if _, err := s.db.NamedExecContext(ctx, q, row); err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

// UpdateProject overwrites a stored project. The slug is regenerated when
// the title differs from the stored one.
func (s *Store) UpdateProject(ctx context.Context, p *model.Project) error {
	current, err := s.GetProject(ctx, p.ID)
	if err != nil {
		return err
	}
	if current.ID != p.ID {
		return ErrNotFound
	}

	p.Slug = current.Slug
	if p.Title != current.Title {
		if p.Slug, err = s.uniqueSlug(ctx, p.Title, p.ID); err != nil {
			return err
		}
	}
	p.CreatedAt = current.CreatedAt
	p.UpdatedAt = s.now()

	row, err := newProjectRow(p)
	if err != nil {
		return err
	}

	const q = `UPDATE projects SET
		title = :title, slug = :slug, description = :description,
		short_description = :short_description, technologies_json = :technologies_json,
		image_url = :image_url, live_url = :live_url, github_url = :github_url,
		featured = :featured, category = :category, sort_order = :sort_order,
		updated_at = :updated_at
		WHERE id = :id`

	result, err := s.db.NamedExecContext(ctx, q, row)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("update project: %w", err)
	}
	return expectOneRow(result, "update project")
}

// DeleteProject removes a project by ID.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM projects WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return expectOneRow(result, "delete project")
}

// uniqueSlug slugifies title and, when another project already owns that
// slug, appends the tail of id.
func (s *Store) uniqueSlug(ctx context.Context, title, id string) (string, error) {
	base := slug.Make(title)
	if base == "" {
		base = "project"
	}

	var count int
	err := s.db.GetContext(ctx, &count,
		s.db.Rebind("SELECT COUNT(*) FROM projects WHERE slug = ? AND id <> ?"), base, id)
	if err != nil {
		return "", fmt.Errorf("check project slug: %w", err)
	}
	if count == 0 {
		return base, nil
	}
	return base + "-" + id[len(id)-8:], nil
}

// ---------------------------------------------------------------------------
// Testimonials
// ---------------------------------------------------------------------------

// ListTestimonials returns featured testimonials first, newest first.
func (s *Store) ListTestimonials(ctx context.Context) ([]model.Testimonial, error) {
	testimonials := []model.Testimonial{}
	if err := s.db.SelectContext(ctx, &testimonials,
		"SELECT * FROM testimonials ORDER BY featured DESC, created_at DESC, id DESC"); err != nil {
		return nil, fmt.Errorf("list testimonials: %w", err)
	}
	return testimonials, nil
}

// GetTestimonial returns a testimonial by ID.
func (s *Store) GetTestimonial(ctx context.Context, id string) (*model.Testimonial, error) {
	var t model.Testimonial
	if err := s.db.GetContext(ctx, &t, s.db.Rebind("SELECT * FROM testimonials WHERE id = ?"), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get testimonial: %w", err)
	}
	return &t, nil
}

// CreateTestimonial inserts a testimonial.
func (s *Store) CreateTestimonial(ctx context.Context, t *model.Testimonial) error {
	now := s.now()
	t.ID = newID()
	t.CreatedAt = now
	t.UpdatedAt = now

	const q = `INSERT INTO testimonials
		(id, name, role, company, content, avatar, rating, featured, created_at, updated_at)
		VALUES
		(:id, :name, :role, :company, :content, :avatar, :rating, :featured, :created_at, :updated_at)`

	if _, err := s.db.NamedExecContext(ctx, q, t); err != nil {
		return fmt.Errorf("insert testimonial: %w", err)
	}
	return nil
}

// UpdateTestimonial overwrites a stored testimonial.
func (s *Store) UpdateTestimonial(ctx context.Context, t *model.Testimonial) error {
	t.UpdatedAt = s.now()

	const q = `UPDATE testimonials SET
		name = :name, role = :role, company = :company, content = :content,
		avatar = :avatar, rating = :rating, featured = :featured, updated_at = :updated_at
		WHERE id = :id`

	result, err := s.db.NamedExecContext(ctx, q, t)
	if err != nil {
		return fmt.Errorf("update testimonial: %w", err)
	}
	return expectOneRow(result, "update testimonial")
}

// DeleteTestimonial removes a testimonial by ID.
func (s *Store) DeleteTestimonial(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM testimonials WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("delete testimonial: %w", err)
	}
	return expectOneRow(result, "delete testimonial")
}

// ---------------------------------------------------------------------------
// Contact messages
// ---------------------------------------------------------------------------

// CreateContactMessage stores a message from the contact form.
func (s *Store) CreateContactMessage(ctx context.Context, c *model.ContactMessage) error {
	now := s.now()
	c.ID = newID()
	if c.Status == "" {
		c.Status = model.StatusPending
	}
	c.CreatedAt = now
	c.UpdatedAt = now

	const q = `INSERT INTO contact_messages
		(id, name, email, message, status, created_at, updated_at)
		VALUES
		(:id, :name, :email, :message, :status, :created_at, :updated_at)`

	if _, err := s.db.NamedExecContext(ctx, q, c); err != nil {
		return fmt.Errorf("insert contact message: %w", err)
	}
	return nil
}

// ListContactMessages returns all contact messages, newest first.
func (s *Store) ListContactMessages(ctx context.Context) ([]model.ContactMessage, error) {
	messages := []model.ContactMessage{}
	if err := s.db.SelectContext(ctx, &messages,
		"SELECT * FROM contact_messages ORDER BY created_at DESC, id DESC"); err != nil {
		return nil, fmt.Errorf("list contact messages: %w", err)
	}
	return messages, nil
}

// GetContactMessage returns a contact message by ID.
func (s *Store) GetContactMessage(ctx context.Context, id string) (*model.ContactMessage, error) {
	var c model.ContactMessage
	if err := s.db.GetContext(ctx, &c, s.db.Rebind("SELECT * FROM contact_messages WHERE id = ?"), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get contact message: %w", err)
	}
	return &c, nil
}

// UpdateContactStatus sets the triage status of a contact message.
func (s *Store) UpdateContactStatus(ctx context.Context, id, status string) error {
	result, err := s.db.ExecContext(ctx,
		s.db.Rebind("UPDATE contact_messages SET status = ?, updated_at = ? WHERE id = ?"),
		status, s.now(), id)
	if err != nil {
		return fmt.Errorf("update contact status: %w", err)
	}
	return expectOneRow(result, "update contact status")
}

// DeleteContactMessage removes a contact message by ID.
func (s *Store) DeleteContactMessage(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM contact_messages WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("delete contact message: %w", err)
	}
	return expectOneRow(result, "delete contact message")
}
