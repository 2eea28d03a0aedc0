package events

import (
	"time"
)

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

func newBase(aggregateID, eventType string, timestamp time.Time) BaseEvent {
	return BaseEvent{
		AggregateID: aggregateID,
		EventType:   eventType,
		Timestamp:   timestamp,
		Version:     1,
	}
}

// Event type names
const (
	TypeCartItemAdded       = "cart.item_added"
	TypeCartItemRemoved     = "cart.item_removed"
	TypeCartQuantityUpdated = "cart.quantity_updated"
	TypeCartCleared         = "cart.cleared"
	TypeCartExpired         = "cart.expired"

	TypeUserRegistered = "user.registered"
	TypeUserLoggedIn   = "user.logged_in"

	TypeInvoiceCreated = "invoice.created"
	TypeInvoicePaid    = "invoice.paid"

	TypeTestimonialSubmitted = "testimonial.submitted"
	TypeTestimonialApproved  = "testimonial.approved"
)

// Cart Events

// CartChanged is raised after any cart mutation. Quantity is the line's
// quantity after the change (zero when the line is gone).
type CartChanged struct {
	BaseEvent
	ProductID string `json:"product_id,omitempty"`
	Quantity  int    `json:"quantity"`
	ItemCount int    `json:"item_count"`
	Total     string `json:"total"`
}

// NewCartChanged creates a cart event of the given type
func NewCartChanged(eventType, cartID, productID string, quantity, itemCount int, total string, timestamp time.Time) CartChanged {
	return CartChanged{
		BaseEvent: newBase(cartID, eventType, timestamp),
		ProductID: productID,
		Quantity:  quantity,
		ItemCount: itemCount,
		Total:     total,
	}
}

// User Events

// UserAuthenticated is raised on registration and on every login
type UserAuthenticated struct {
	BaseEvent
	Email    string `json:"email"`
	Provider string `json:"provider"`
}

// NewUserRegistered creates a user.registered event
func NewUserRegistered(userID, email, provider string, timestamp time.Time) UserAuthenticated {
	return UserAuthenticated{
		BaseEvent: newBase(userID, TypeUserRegistered, timestamp),
		Email:     email,
		Provider:  provider,
	}
}

// NewUserLoggedIn creates a user.logged_in event
func NewUserLoggedIn(userID, email, provider string, timestamp time.Time) UserAuthenticated {
	return UserAuthenticated{
		BaseEvent: newBase(userID, TypeUserLoggedIn, timestamp),
		Email:     email,
		Provider:  provider,
	}
}

// Invoice Events

// InvoiceEvent is raised when an invoice is issued or paid
type InvoiceEvent struct {
	BaseEvent
	ProjectID string `json:"project_id"`
	Amount    string `json:"amount"`
}

// NewInvoiceCreated creates an invoice.created event
func NewInvoiceCreated(invoiceID, projectID, amount string, timestamp time.Time) InvoiceEvent {
	return InvoiceEvent{
		BaseEvent: newBase(invoiceID, TypeInvoiceCreated, timestamp),
		ProjectID: projectID,
		Amount:    amount,
	}
}

// NewInvoicePaid creates an invoice.paid event
func NewInvoicePaid(invoiceID, projectID, amount string, timestamp time.Time) InvoiceEvent {
	return InvoiceEvent{
		BaseEvent: newBase(invoiceID, TypeInvoicePaid, timestamp),
		ProjectID: projectID,
		Amount:    amount,
	}
}

// Testimonial Events

type TestimonialEvent struct {
	BaseEvent
	ClientName string `json:"client_name"`
}

func NewTestimonialSubmitted(id, clientName string, timestamp time.Time) TestimonialEvent {
	return TestimonialEvent{BaseEvent: newBase(id, TypeTestimonialSubmitted, timestamp), ClientName: clientName}
}

func NewTestimonialApproved(id, clientName string, timestamp time.Time) TestimonialEvent {
	return TestimonialEvent{BaseEvent: newBase(id, TypeTestimonialApproved, timestamp), ClientName: clientName}
}
