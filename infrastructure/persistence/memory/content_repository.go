package memory

import (
	"context"
	"sort"
	"sync"

	"eternals-backend/domain/core/entities"
	pkgerrors "eternals-backend/pkg/errors"
)

// ContentRepository is an in-memory implementation of ports.ContentRepository
type ContentRepository struct {
	mu       sync.RWMutex
	sections map[string]entities.ContentSection
}

func NewContentRepository() *ContentRepository {
	return &ContentRepository{sections: make(map[string]entities.ContentSection)}
}

// Upsert replaces the section with the same name, keeping its original id
func (r *ContentRepository) Upsert(ctx context.Context, section *entities.ContentSection) error {
	if section == nil || section.SectionName == "" {
		return pkgerrors.NewValidationError("section name is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.sections[section.SectionName]; ok {
		section.ID = existing.ID
	}
	r.sections[section.SectionName] = *section
	return nil
}

func (r *ContentRepository) GetByName(ctx context.Context, name string) (*entities.ContentSection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sections[name]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("content section")
	}
	return &s, nil
}

// List returns sections ordered by name
func (r *ContentRepository) List(ctx context.Context) ([]*entities.ContentSection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*entities.ContentSection, 0, len(r.sections))
	for _, s := range r.sections {
		s := s
		out = append(out, &s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SectionName < out[j].SectionName })
	return out, nil
}

// TestimonialRepository is an in-memory implementation of ports.TestimonialRepository
type TestimonialRepository struct {
	mu           sync.RWMutex
	testimonials map[string]entities.Testimonial
}

func NewTestimonialRepository() *TestimonialRepository {
	return &TestimonialRepository{testimonials: make(map[string]entities.Testimonial)}
}

func (r *TestimonialRepository) Save(ctx context.Context, t *entities.Testimonial) error {
	if t == nil || t.ID == "" {
		return pkgerrors.NewValidationError("testimonial id is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *t
	cp.Highlights = append([]string(nil), t.Highlights...)
	r.testimonials[t.ID] = cp
	return nil
}

func (r *TestimonialRepository) GetByID(ctx context.Context, id string) (*entities.Testimonial, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.testimonials[id]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("testimonial")
	}
	return &t, nil
}

func (r *TestimonialRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.testimonials[id]; !ok {
		return pkgerrors.NewNotFoundError("testimonial")
	}
	delete(r.testimonials, id)
	return nil
}

// List returns testimonials newest first
func (r *TestimonialRepository) List(ctx context.Context, approvedOnly bool) ([]*entities.Testimonial, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*entities.Testimonial, 0, len(r.testimonials))
	for _, t := range r.testimonials {
		if approvedOnly && !t.Approved {
			continue
		}
		t := t
		out = append(out, &t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *TestimonialRepository) CountApproved(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, t := range r.testimonials {
		if t.Approved {
			n++
		}
	}
	return n, nil
}

// CounterStatsRepository keeps the single counter stats document
type CounterStatsRepository struct {
	mu    sync.RWMutex
	stats *entities.CounterStats
}

func NewCounterStatsRepository() *CounterStatsRepository {
	return &CounterStatsRepository{}
}

func (r *CounterStatsRepository) Get(ctx context.Context) (*entities.CounterStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.stats == nil {
		return nil, nil
	}
	cp := *r.stats
	return &cp, nil
}

func (r *CounterStatsRepository) Save(ctx context.Context, stats *entities.CounterStats) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *stats
	r.stats = &cp
	return nil
}
