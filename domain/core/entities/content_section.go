package entities

import (
	"strings"
	"time"

	pkgerrors "eternals-backend/pkg/errors"

	"github.com/google/uuid"
)

// ContentSection is an editable block of site copy keyed by name
type ContentSection struct {
	ID          string                 `json:"id"`
	SectionName string                 `json:"section_name"`
	Page        string                 `json:"page"`
	Content     map[string]interface{} `json:"content"`
	UpdatedBy   string                 `json:"updated_by"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// NewContentSection creates a section on the home page unless page is given
func NewContentSection(name, page string, content map[string]interface{}, updatedBy string) (*ContentSection, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.NewValidationError("section name cannot be empty")
	}
	if page == "" {
		page = "home"
	}
	if content == nil {
		content = map[string]interface{}{}
	}
	return &ContentSection{
		ID:          uuid.New().String(),
		SectionName: name,
		Page:        page,
		Content:     content,
		UpdatedBy:   updatedBy,
		UpdatedAt:   time.Now().UTC(),
	}, nil
}
