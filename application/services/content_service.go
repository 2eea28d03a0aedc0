package services

import (
	"context"
	"strings"
	"time"

	"eternals-backend/application/ports"
	"eternals-backend/domain/core/entities"
	"eternals-backend/domain/events"
	"eternals-backend/pkg/auth"
	pkgerrors "eternals-backend/pkg/errors"

	"go.uber.org/zap"
)

// TestimonialInput carries a public testimonial submission
type TestimonialInput struct {
	ClientName   string
	ClientRole   string
	ClientAvatar string
	Rating       int
	Title        string
	Content      string
	Highlights   []string
}

// ContentService manages the public site: editable sections, testimonials
// and the home page counters.
type ContentService struct {
	sections     ports.ContentRepository
	testimonials ports.TestimonialRepository
	stats        ports.CounterStatsRepository
	publisher    ports.EventPublisher
	logger       *zap.Logger
}

// NewContentService creates a new content service
func NewContentService(
	sections ports.ContentRepository,
	testimonials ports.TestimonialRepository,
	stats ports.CounterStatsRepository,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *ContentService {
	return &ContentService{
		sections:     sections,
		testimonials: testimonials,
		stats:        stats,
		publisher:    publisher,
		logger:       logger,
	}
}

// ListSections returns every content section
func (s *ContentService) ListSections(ctx context.Context) ([]*entities.ContentSection, error) {
	return s.sections.List(ctx)
}

// GetSection returns one section by name
func (s *ContentService) GetSection(ctx context.Context, name string) (*entities.ContentSection, error) {
	return s.sections.GetByName(ctx, name)
}

// UpsertSection replaces or creates a section (admins and editors)
func (s *ContentService) UpsertSection(ctx context.Context, caller *auth.UserContext, name, page string, content map[string]interface{}) (*entities.ContentSection, error) {
	if caller == nil {
		return nil, pkgerrors.NewUnauthorizedError("authentication required")
	}
	if !entities.Role(caller.Role).CanEditContent() {
		return nil, pkgerrors.NewForbiddenError("not authorized to edit content")
	}

	section, err := entities.NewContentSection(name, page, content, caller.UserID)
	if err != nil {
		return nil, err
	}
	if err := s.sections.Upsert(ctx, section); err != nil {
		return nil, err
	}

	s.logger.Info("Content section updated",
		zap.String("section", section.SectionName),
		zap.String("updated_by", caller.UserID),
	)
	return s.sections.GetByName(ctx, section.SectionName)
}

// ListTestimonials returns approved testimonials, or all of them when
// includePending is set by an admin
func (s *ContentService) ListTestimonials(ctx context.Context, caller *auth.UserContext, includePending bool) ([]*entities.Testimonial, error) {
	if includePending {
		if err := requireAdmin(caller, "view pending testimonials"); err != nil {
			return nil, err
		}
	}
	return s.testimonials.List(ctx, !includePending)
}

// SubmitTestimonial stores a testimonial awaiting approval
func (s *ContentService) SubmitTestimonial(ctx context.Context, in TestimonialInput) (*entities.Testimonial, error) {
	t, err := entities.NewTestimonial(in.ClientName, in.Title, in.Content, in.Rating)
	if err != nil {
		return nil, err
	}
	t.ClientRole = strings.TrimSpace(in.ClientRole)
	t.ClientAvatar = in.ClientAvatar
	if len(in.Highlights) > 0 {
		t.Highlights = append([]string(nil), in.Highlights...)
	}

	if err := s.testimonials.Save(ctx, t); err != nil {
		return nil, err
	}
	s.publish(ctx, events.NewTestimonialSubmitted(t.ID, t.ClientName, t.CreatedAt))
	return t, nil
}

// ApproveTestimonial publishes a testimonial on the site (admin only)
func (s *ContentService) ApproveTestimonial(ctx context.Context, caller *auth.UserContext, id string) (*entities.Testimonial, error) {
	if err := requireAdmin(caller, "approve testimonials"); err != nil {
		return nil, err
	}

	t, err := s.testimonials.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Approve()
	if err := s.testimonials.Save(ctx, t); err != nil {
		return nil, err
	}

	s.logger.Info("Testimonial approved", zap.String("testimonial_id", t.ID), zap.String("approved_by", caller.UserID))
	s.publish(ctx, events.NewTestimonialApproved(t.ID, t.ClientName, time.Now().UTC()))
	return t, nil
}

// DeleteTestimonial removes a testimonial (admin only)
func (s *ContentService) DeleteTestimonial(ctx context.Context, caller *auth.UserContext, id string) error {
	if err := requireAdmin(caller, "delete testimonials"); err != nil {
		return err
	}
	return s.testimonials.Delete(ctx, id)
}

// CounterStats returns the home page counters synced with visible content
func (s *ContentService) CounterStats(ctx context.Context) (*entities.CounterStats, error) {
	return s.loadStats(ctx)
}

// UpdateCounterStats keeps the support text from the edit, re-syncs the
// counts and stamps the editor (admin only)
func (s *ContentService) UpdateCounterStats(ctx context.Context, caller *auth.UserContext, supportAvailable string) (*entities.CounterStats, error) {
	if err := requireAdmin(caller, "update counter stats"); err != nil {
		return nil, err
	}

	stats, err := s.loadStats(ctx)
	if err != nil {
		return nil, err
	}
	if support := strings.TrimSpace(supportAvailable); support != "" {
		stats.SupportAvailable = support
	}
	stats.LastUpdated = time.Now().UTC()
	stats.UpdatedBy = caller.Email

	if err := s.stats.Save(ctx, stats); err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *ContentService) loadStats(ctx context.Context) (*entities.CounterStats, error) {
	approved, err := s.testimonials.CountApproved(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to count testimonials")
	}

	stats, err := s.stats.Get(ctx)
	if err != nil {
		return nil, err
	}
	if stats == nil {
		stats = entities.NewCounterStats()
		stats.Sync(approved)
		if err := s.stats.Save(ctx, stats); err != nil {
			return nil, err
		}
		return stats, nil
	}

	stats.Sync(approved)
	return stats, nil
}

func (s *ContentService) publish(ctx context.Context, event events.DomainEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish content event",
			zap.String("event_type", event.GetEventType()),
			zap.Error(err),
		)
	}
}
