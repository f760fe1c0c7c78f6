package model

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// DefaultAvatar is used when a testimonial is created without an avatar.
const DefaultAvatar = "https://images.unsplash.com/photo-1535713875002-d1d0cf377fde?auto=format&fit=crop&w=200&q=80"

// Testimonial is a quote from a client or colleague.
type Testimonial struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Role      string    `json:"role" db:"role"`
	Company   string    `json:"company,omitempty" db:"company"`
	Content   string    `json:"content" db:"content"`
	Avatar    string    `json:"avatar" db:"avatar"`
	Rating    int       `json:"rating" db:"rating"`
	Featured  bool      `json:"featured" db:"featured"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Normalize trims free-text fields and fills in defaults.
func (t *Testimonial) Normalize() {
	t.Name = strings.TrimSpace(t.Name)
	t.Role = strings.TrimSpace(t.Role)
	t.Company = strings.TrimSpace(t.Company)
	if t.Avatar == "" {
		t.Avatar = DefaultAvatar
	}
	if t.Rating == 0 {
		t.Rating = 5
	}
}

// Validate checks the testimonial's fields.
func (t Testimonial) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.Name, validation.Required),
		validation.Field(&t.Role, validation.Required),
		validation.Field(&t.Content, validation.Required),
		validation.Field(&t.Avatar, is.URL),
		validation.Field(&t.Rating, validation.Min(1), validation.Max(5)),
	)
}
