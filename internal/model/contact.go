package model

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// Contact message statuses.
const (
	StatusPending = "pending"
	StatusRead    = "read"
	StatusReplied = "replied"
)

// ContactMessage is a message left through the public contact form.
type ContactMessage struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Message   string    `json:"message" db:"message"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Normalize trims the sender fields and lower-cases the address.
func (c *ContactMessage) Normalize() {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = NormalizeEmail(c.Email)
	if c.Status == "" {
		c.Status = StatusPending
	}
}

// Validate checks the message's fields.
func (c ContactMessage) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&c.Email, validation.Required, is.Email),
		validation.Field(&c.Message, validation.Required, validation.Length(1, 5000)),
		validation.Field(&c.Status, validation.In(StatusPending, StatusRead, StatusReplied)),
	)
}

// ValidStatus reports whether s is a known contact status.
func ValidStatus(s string) bool {
	return s == StatusPending || s == StatusRead || s == StatusReplied
}
