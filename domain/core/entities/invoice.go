package entities

import (
	"strings"
	"time"

	"eternals-backend/domain/core/valueobjects"
	pkgerrors "eternals-backend/pkg/errors"

	"github.com/google/uuid"
)

// InvoiceStatus tracks payment of an invoice
type InvoiceStatus string

const (
	InvoicePending InvoiceStatus = "pending"
	InvoicePaid    InvoiceStatus = "paid"
	InvoiceOverdue InvoiceStatus = "overdue"
)

// Invoice bills a client for a project
type Invoice struct {
	ID          string             `json:"id"`
	ProjectID   string             `json:"project_id"`
	Amount      valueobjects.Money `json:"amount"`
	Description string             `json:"description"`
	Status      InvoiceStatus      `json:"status"`
	DueDate     *time.Time         `json:"due_date,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	PaidAt      *time.Time         `json:"paid_at,omitempty"`
}

// NewInvoice creates a pending invoice
func NewInvoice(projectID string, amount valueobjects.Money, description string, dueDate *time.Time) (*Invoice, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, pkgerrors.NewValidationError("invoice project_id cannot be empty")
	}
	if amount.IsZero() {
		return nil, pkgerrors.NewValidationError("invoice amount must be positive")
	}

	return &Invoice{
		ID:          uuid.New().String(),
		ProjectID:   projectID,
		Amount:      amount.Rounded(),
		Description: description,
		Status:      InvoicePending,
		DueDate:     dueDate,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// Pay marks the invoice paid. Paying twice is a conflict.
func (i *Invoice) Pay(at time.Time) error {
	if i.Status == InvoicePaid {
		return pkgerrors.NewConflictError("invoice already paid").WithDetail("invoice_id", i.ID)
	}
	i.Status = InvoicePaid
	i.PaidAt = &at
	return nil
}
