package entities

import (
	"strings"
	"time"

	pkgerrors "eternals-backend/pkg/errors"

	"github.com/google/uuid"
)

// Testimonial is client feedback shown on the home page once approved
type Testimonial struct {
	ID           string    `json:"id"`
	ClientName   string    `json:"client_name"`
	ClientRole   string    `json:"client_role"`
	ClientAvatar string    `json:"client_avatar"`
	Rating       int       `json:"rating"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	Highlights   []string  `json:"highlights"`
	IsFeatured   bool      `json:"is_featured"`
	Approved     bool      `json:"approved"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewTestimonial creates an unapproved testimonial. A zero rating defaults
// to five stars.
func NewTestimonial(clientName, title, content string, rating int) (*Testimonial, error) {
	if strings.TrimSpace(clientName) == "" {
		return nil, pkgerrors.NewValidationError("client name cannot be empty")
	}
	if strings.TrimSpace(title) == "" || strings.TrimSpace(content) == "" {
		return nil, pkgerrors.NewValidationError("testimonial title and content are required")
	}
	if rating == 0 {
		rating = 5
	}
	if rating < 1 || rating > 5 {
		return nil, pkgerrors.NewValidationError("rating must be between 1 and 5").WithDetail("rating", rating)
	}

	return &Testimonial{
		ID:         uuid.New().String(),
		ClientName: strings.TrimSpace(clientName),
		Rating:     rating,
		Title:      strings.TrimSpace(title),
		Content:    content,
		Highlights: []string{},
		CreatedAt:  time.Now().UTC(),
	}, nil
}

func (t *Testimonial) Approve() {
	t.Approved = true
}
