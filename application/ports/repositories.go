package ports

import (
	"context"

	"eternals-backend/domain/core/aggregates"
	"eternals-backend/domain/core/entities"
	"eternals-backend/domain/events"
)

// UserRepository defines the interface for user persistence
// This is a port in hexagonal architecture - the domain doesn't know about the implementation
type UserRepository interface {
	// Save persists a user (create or update)
	Save(ctx context.Context, user *entities.User) error

	// GetByID retrieves a user by its ID
	GetByID(ctx context.Context, id string) (*entities.User, error)

	// GetByEmail retrieves a user by normalized email
	GetByEmail(ctx context.Context, email string) (*entities.User, error)

	// GetByProvider retrieves a user linked to a third-party account
	GetByProvider(ctx context.Context, provider, providerID string) (*entities.User, error)

	// List returns every user ordered by creation time
	List(ctx context.Context) ([]*entities.User, error)
}

// ProjectRepository defines the interface for project persistence
type ProjectRepository interface {
	Save(ctx context.Context, project *entities.Project) error
	GetByID(ctx context.Context, id string) (*entities.Project, error)

	// GetByInvoiceID retrieves the project an invoice locked
	GetByInvoiceID(ctx context.Context, invoiceID string) (*entities.Project, error)

	// List returns all projects, or only the client's when clientID is set
	List(ctx context.Context, clientID string) ([]*entities.Project, error)
}

// InvoiceRepository defines the interface for invoice persistence
type InvoiceRepository interface {
	Save(ctx context.Context, invoice *entities.Invoice) error
	GetByID(ctx context.Context, id string) (*entities.Invoice, error)

	// List returns all invoices, or only those of the given projects when
	// projectIDs is non-nil
	List(ctx context.Context, projectIDs []string) ([]*entities.Invoice, error)
}

// MessageRepository defines the interface for project message persistence
type MessageRepository interface {
	Save(ctx context.Context, message *entities.Message) error
	ListByProject(ctx context.Context, projectID string) ([]*entities.Message, error)
}

// ContentRepository defines the interface for site content persistence
type ContentRepository interface {
	// Upsert replaces the section with the same name or inserts it
	Upsert(ctx context.Context, section *entities.ContentSection) error
	GetByName(ctx context.Context, name string) (*entities.ContentSection, error)
	List(ctx context.Context) ([]*entities.ContentSection, error)
}

// TestimonialRepository defines the interface for testimonial persistence
type TestimonialRepository interface {
	Save(ctx context.Context, testimonial *entities.Testimonial) error
	GetByID(ctx context.Context, id string) (*entities.Testimonial, error)
	Delete(ctx context.Context, id string) error

	// List returns testimonials newest first; approvedOnly hides pending ones
	List(ctx context.Context, approvedOnly bool) ([]*entities.Testimonial, error)
	CountApproved(ctx context.Context) (int, error)
}

// CounterStatsRepository holds the single counter stats document
type CounterStatsRepository interface {
	// Get returns the stored stats, or nil when none were saved yet
	Get(ctx context.Context) (*entities.CounterStats, error)
	Save(ctx context.Context, stats *entities.CounterStats) error
}

// CartStore holds one cart per shopping session
type CartStore interface {
	// GetOrCreate returns the session's cart, creating an empty one
	GetOrCreate(ctx context.Context, sessionID string) *aggregates.Cart

	// Get returns the session's cart if it exists and has not expired
	Get(ctx context.Context, sessionID string) (*aggregates.Cart, bool)

	// Delete tears down the session's cart
	Delete(ctx context.Context, sessionID string)

	// Len returns the number of live carts
	Len() int
}

// ProductCatalog supplies product snapshots to the cart
type ProductCatalog interface {
	List(ctx context.Context) ([]entities.ProductSnapshot, error)
	Get(ctx context.Context, productID string) (entities.ProductSnapshot, error)
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// Publish sends a single event
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch sends multiple events
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// EventBus defines the interface for publishing domain events
type EventBus interface {
	EventPublisher

	// Subscribe registers a handler for an event type; "*" receives every event
	Subscribe(eventType string, handler EventHandler)
}

// EventHandler processes a published event
type EventHandler func(ctx context.Context, event events.DomainEvent) error
