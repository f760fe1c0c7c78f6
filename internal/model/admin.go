package model

import (
	"strings"
	"time"
)

// Admin roles. Both grant the same access today; the distinction only
// records how the account was provisioned.
const (
	RoleAdmin      = "admin"
	RoleSuperAdmin = "superadmin"
)

// Admin is the single administrative account that manages portfolio
// content. Passwords are stored as bcrypt hashes.
type Admin struct {
	ID           string     `json:"id" db:"id"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"` // bcrypt hash, never expose
	Name         string     `json:"name" db:"name"`
	Role         string     `json:"role" db:"role"`
	LastLoginAt  *time.Time `json:"lastLogin,omitempty" db:"last_login_at"`
	CreatedAt    time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time  `json:"updatedAt" db:"updated_at"`
}

// Public returns a copy of the admin with the password hash cleared.
func (a Admin) Public() Admin {
	a.PasswordHash = ""
	return a
}

// ValidRole reports whether role is a known admin role.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleSuperAdmin
}

// NormalizeEmail trims and lower-cases an address so lookups are
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NameFromEmail derives a display name from the local part of an address.
func NameFromEmail(email string) string {
	local, _, _ := strings.Cut(NormalizeEmail(email), "@")
	if local == "" {
		return "Admin"
	}
	return local
}
