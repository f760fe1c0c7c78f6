package model

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// Project categories.
const (
	CategoryWeb       = "web"
	CategoryMobile    = "mobile"
	CategoryFullStack = "full-stack"
	CategoryDesign    = "design"
	CategoryOther     = "other"
)

// DefaultProjectImage is used when a project is created without an image.
const DefaultProjectImage = "https://images.unsplash.com/photo-1551650975-87deedd944c3?auto=format&fit=crop&w=600&q=80"

// MaxShortDescription caps the teaser text shown on project cards.
const MaxShortDescription = 150

// MaxTitleLength keeps titles, and the slugs derived from them, inside
// the VARCHAR(255) columns.
const MaxTitleLength = 200

// Project is a portfolio entry shown in the projects section.
type Project struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Slug             string    `json:"slug"`
	Description      string    `json:"description"`
	ShortDescription string    `json:"shortDescription"`
	Technologies     []string  `json:"technologies"`
	ImageURL         string    `json:"imageUrl"`
	LiveURL          string    `json:"liveUrl,omitempty"`
	GithubURL        string    `json:"githubUrl,omitempty"`
	Featured         bool      `json:"featured"`
	Category         string    `json:"category"`
	Order            int       `json:"order"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Normalize trims free-text fields and fills in defaults for omitted ones.
func (p *Project) Normalize() {
	p.Title = strings.TrimSpace(p.Title)
	p.LiveURL = strings.TrimSpace(p.LiveURL)
	p.GithubURL = strings.TrimSpace(p.GithubURL)

	techs := make([]string, 0, len(p.Technologies))
	for _, t := range p.Technologies {
		if t = strings.TrimSpace(t); t != "" {
			techs = append(techs, t)
		}
	}
	p.Technologies = techs

	if p.ImageURL == "" {
		p.ImageURL = DefaultProjectImage
	}
	if p.Category == "" {
		p.Category = CategoryWeb
	}
}

// Validate checks the project's fields.
func (p Project) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Title, validation.Required, validation.Length(1, MaxTitleLength)),
		validation.Field(&p.Description, validation.Required),
		validation.Field(&p.ShortDescription,
			validation.Required,
			validation.Length(1, MaxShortDescription),
		),
		validation.Field(&p.ImageURL, is.URL),
		validation.Field(&p.LiveURL, is.URL),
		validation.Field(&p.GithubURL, is.URL),
		validation.Field(&p.Category, validation.In(
			CategoryWeb, CategoryMobile, CategoryFullStack, CategoryDesign, CategoryOther,
		)),
	)
}
