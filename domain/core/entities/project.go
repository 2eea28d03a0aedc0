package entities

import (
	"strings"
	"time"

	pkgerrors "eternals-backend/pkg/errors"

	"github.com/google/uuid"
)

// ProjectStatus represents where a client project stands
type ProjectStatus string

const (
	ProjectPending    ProjectStatus = "pending"
	ProjectInProgress ProjectStatus = "in_progress"
	ProjectReview     ProjectStatus = "review"
	ProjectCompleted  ProjectStatus = "completed"
	ProjectLocked     ProjectStatus = "locked"
)

// Project is a piece of client work. A project is locked while it has an
// unpaid invoice.
type Project struct {
	ID              string        `json:"id"`
	Title           string        `json:"title"`
	Description     string        `json:"description"`
	ClientID        string        `json:"client_id"`
	AssignedAdminID string        `json:"assigned_admin_id,omitempty"`
	Status          ProjectStatus `json:"status"`
	InvoiceID       string        `json:"invoice_id,omitempty"`
	IsLocked        bool          `json:"is_locked"`
	DueDate         *time.Time    `json:"due_date,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
}

// NewProject creates a pending project for a client
func NewProject(title, description, clientID string, dueDate *time.Time) (*Project, error) {
	if strings.TrimSpace(title) == "" {
		return nil, pkgerrors.NewValidationError("project title cannot be empty")
	}
	if strings.TrimSpace(clientID) == "" {
		return nil, pkgerrors.NewValidationError("project client_id cannot be empty")
	}

	return &Project{
		ID:          uuid.New().String(),
		Title:       strings.TrimSpace(title),
		Description: description,
		ClientID:    clientID,
		Status:      ProjectPending,
		DueDate:     dueDate,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// LockForInvoice attaches an invoice and locks the project until it is paid
func (p *Project) LockForInvoice(invoiceID string) {
	p.InvoiceID = invoiceID
	p.IsLocked = true
	p.Status = ProjectLocked
}

// Unlock resumes work after payment
func (p *Project) Unlock() {
	p.IsLocked = false
	p.Status = ProjectInProgress
}

// VisibleTo reports whether a user may see the project. Clients only see
// their own; staff see everything.
func (p *Project) VisibleTo(user *User) bool {
	if user.Role == RoleClient {
		return p.ClientID == user.ID
	}
	return true
}
