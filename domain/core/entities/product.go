package entities

import (
	"strings"

	"eternals-backend/domain/core/valueobjects"
	pkgerrors "eternals-backend/pkg/errors"
)

// ProductSnapshot is the product data a cart line captures when the product
// is first added. It is never re-fetched from the catalog afterwards.
type ProductSnapshot struct {
	ID          string             `json:"id" yaml:"id"`
	Title       string             `json:"title" yaml:"title"`
	Description string             `json:"description,omitempty" yaml:"description"`
	Image       string             `json:"image,omitempty" yaml:"image"`
	Tags        []string           `json:"tags,omitempty" yaml:"tags"`
	Price       valueobjects.Money `json:"price" yaml:"price"`
}

// Validate checks the fields a cart relies on
func (p ProductSnapshot) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return pkgerrors.NewValidationError("product id cannot be empty")
	}
	if strings.TrimSpace(p.Title) == "" {
		return pkgerrors.NewValidationError("product title cannot be empty").WithDetail("product_id", p.ID)
	}
	return nil
}

// Clone returns a copy that shares no slices with p
func (p ProductSnapshot) Clone() ProductSnapshot {
	out := p
	if p.Tags != nil {
		out.Tags = append([]string(nil), p.Tags...)
	}
	return out
}
