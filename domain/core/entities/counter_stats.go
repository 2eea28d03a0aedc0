package entities

import (
	"time"

	"github.com/google/uuid"
)

// Counts that mirror what the public site currently shows
const (
	PortfolioProjectCount = 13
	TeamMemberCount       = 6
	DefaultSupport        = "24/7"
)

// CounterStats backs the animated counters on the home page. The numeric
// counts are always re-synced with visible site content; only the support
// text and the audit fields are kept from edits.
type CounterStats struct {
	ID                string    `json:"id"`
	ProjectsCompleted int       `json:"projects_completed"`
	TestimonialsCount int       `json:"testimonials_count"`
	TeamMembers       int       `json:"team_members"`
	SupportAvailable  string    `json:"support_available"`
	LastUpdated       time.Time `json:"last_updated"`
	UpdatedBy         string    `json:"updated_by,omitempty"`
}

// NewCounterStats returns stats with the default support text
func NewCounterStats() *CounterStats {
	return &CounterStats{
		ID:                uuid.New().String(),
		ProjectsCompleted: PortfolioProjectCount,
		TestimonialsCount: 1,
		TeamMembers:       TeamMemberCount,
		SupportAvailable:  DefaultSupport,
		LastUpdated:       time.Now().UTC(),
	}
}

// Sync overwrites the counts with the visible site content. Fewer than one
// approved testimonial still counts as one.
func (s *CounterStats) Sync(approvedTestimonials int) {
	if approvedTestimonials < 1 {
		approvedTestimonials = 1
	}
	s.ProjectsCompleted = PortfolioProjectCount
	s.TeamMembers = TeamMemberCount
	s.TestimonialsCount = approvedTestimonials
	if s.SupportAvailable == "" {
		s.SupportAvailable = DefaultSupport
	}
}
