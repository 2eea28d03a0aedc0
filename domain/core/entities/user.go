package entities

import (
	"net/mail"
	"strings"
	"time"

	pkgerrors "eternals-backend/pkg/errors"

	"github.com/google/uuid"
)

// Role is a user's access level in the studio portal
type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
	RoleEditor     Role = "editor"
	RoleClient     Role = "client"
)

// ParseRole accepts any known role name; empty defaults to client
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleSuperAdmin, RoleAdmin, RoleEditor, RoleClient:
		return r, nil
	case "":
		return RoleClient, nil
	default:
		return "", pkgerrors.NewValidationError("unknown role: " + s)
	}
}

// IsAdmin reports whether the role may manage projects, invoices and testimonials
func (r Role) IsAdmin() bool {
	return r == RoleSuperAdmin || r == RoleAdmin
}

// CanEditContent reports whether the role may change site content
func (r Role) CanEditContent() bool {
	return r.IsAdmin() || r == RoleEditor
}

// User is a portal account. Accounts created through a third-party provider
// carry no password hash.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"is_active"`
	Company      string    `json:"company,omitempty"`
	AvatarURL    string    `json:"avatar_url,omitempty"`
	Provider     string    `json:"provider,omitempty"`
	ProviderID   string    `json:"-"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewUser creates an active user after checking the email and name
func NewUser(email, fullName string, role Role) (*User, error) {
	email = NormalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, pkgerrors.NewValidationError("invalid email address").WithDetail("email", email)
	}
	if strings.TrimSpace(fullName) == "" {
		return nil, pkgerrors.NewValidationError("full name cannot be empty")
	}
	if _, err := ParseRole(string(role)); err != nil {
		return nil, err
	}
	if role == "" {
		role = RoleClient
	}

	return &User{
		ID:        uuid.New().String(),
		Email:     email,
		FullName:  strings.TrimSpace(fullName),
		Role:      role,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// NormalizeEmail lower-cases and trims an address for lookups
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// HasPassword reports whether the user can log in with a password
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}
