package services

import (
	"context"
	"time"

	"eternals-backend/application/ports"
	"eternals-backend/domain/core/aggregates"
	"eternals-backend/domain/core/entities"
	"eternals-backend/domain/core/valueobjects"
	"eternals-backend/domain/events"
	pkgerrors "eternals-backend/pkg/errors"
	"eternals-backend/pkg/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// CartView is what the storefront renders for a cart
type CartView struct {
	SessionID  string                `json:"session_id"`
	Lines      []aggregates.CartLine `json:"lines"`
	ItemCount  int                   `json:"item_count"`
	TotalPrice valueobjects.Money    `json:"total_price"`
}

func viewOf(sessionID string, cart *aggregates.Cart) CartView {
	if cart == nil {
		return CartView{SessionID: sessionID, Lines: []aggregates.CartLine{}, TotalPrice: valueobjects.Zero}
	}
	return CartView{
		SessionID:  sessionID,
		Lines:      cart.Lines(),
		ItemCount:  cart.ItemCount(),
		TotalPrice: cart.TotalPrice(),
	}
}

// CartService binds carts to shopping sessions and feeds them catalog
// snapshots. Validation happens here so the cart itself never sees bad input.
type CartService struct {
	store     ports.CartStore
	catalog   ports.ProductCatalog
	publisher ports.EventPublisher
	metrics   ports.Metrics
	tracer    *observability.Tracer
	logger    *zap.Logger
}

// NewCartService creates a new cart service
func NewCartService(
	store ports.CartStore,
	catalog ports.ProductCatalog,
	publisher ports.EventPublisher,
	metrics ports.Metrics,
	logger *zap.Logger,
) *CartService {
	if metrics == nil {
		metrics = ports.NoopMetrics{}
	}
	return &CartService{
		store:     store,
		catalog:   catalog,
		publisher: publisher,
		metrics:   metrics,
		tracer:    observability.NewTracer("cart-service"),
		logger:    logger,
	}
}

// Products lists the storefront catalog
func (s *CartService) Products(ctx context.Context) ([]entities.ProductSnapshot, error) {
	return s.catalog.List(ctx)
}

// View returns the session's cart without creating one
func (s *CartService) View(ctx context.Context, sessionID string) CartView {
	cart, _ := s.store.Get(ctx, sessionID)
	return viewOf(sessionID, cart)
}

// AddItem adds one unit of a catalog product to the session's cart
func (s *CartService) AddItem(ctx context.Context, sessionID, productID string) (CartView, error) {
	ctx, span := s.tracer.Start(ctx, "CartService.AddItem",
		attribute.String("cart.session", sessionID),
		attribute.String("cart.product_id", productID),
	)
	defer span.End()

	product, err := s.catalog.Get(ctx, productID)
	if err != nil {
		observability.RecordError(span, err)
		return CartView{}, err
	}

	cart := s.store.GetOrCreate(ctx, sessionID)
	cart.AddToCart(product)

	line, _ := cart.Line(productID)
	s.record(ctx, events.TypeCartItemAdded, cart, productID, line.Quantity)
	return viewOf(sessionID, cart), nil
}

// UpdateQuantity sets a line's quantity. Zero removes the line, unknown
// products are left alone and negative quantities are rejected.
func (s *CartService) UpdateQuantity(ctx context.Context, sessionID, productID string, quantity int) (CartView, error) {
	ctx, span := s.tracer.Start(ctx, "CartService.UpdateQuantity",
		attribute.String("cart.session", sessionID),
		attribute.String("cart.product_id", productID),
		attribute.Int("cart.quantity", quantity),
	)
	defer span.End()

	if quantity < 0 {
		err := pkgerrors.NewValidationError("quantity cannot be negative").WithDetail("quantity", quantity)
		observability.RecordError(span, err)
		return CartView{}, err
	}

	cart, ok := s.store.Get(ctx, sessionID)
	if !ok {
		return viewOf(sessionID, nil), nil
	}

	cart.UpdateQuantity(productID, quantity)
	if quantity == 0 {
		s.record(ctx, events.TypeCartItemRemoved, cart, productID, 0)
	} else if line, exists := cart.Line(productID); exists {
		s.record(ctx, events.TypeCartQuantityUpdated, cart, productID, line.Quantity)
	}
	return viewOf(sessionID, cart), nil
}

// RemoveItem deletes a line; removing an absent product is not an error
func (s *CartService) RemoveItem(ctx context.Context, sessionID, productID string) CartView {
	cart, ok := s.store.Get(ctx, sessionID)
	if !ok {
		return viewOf(sessionID, nil)
	}

	_, existed := cart.Line(productID)
	cart.RemoveFromCart(productID)
	if existed {
		s.record(ctx, events.TypeCartItemRemoved, cart, productID, 0)
	}
	return viewOf(sessionID, cart)
}

// Clear empties the session's cart
func (s *CartService) Clear(ctx context.Context, sessionID string) CartView {
	cart, ok := s.store.Get(ctx, sessionID)
	if !ok {
		return viewOf(sessionID, nil)
	}
	cart.ClearCart()
	s.record(ctx, events.TypeCartCleared, cart, "", 0)
	return viewOf(sessionID, cart)
}

// EndSession tears down the session's cart, e.g. on logout
func (s *CartService) EndSession(ctx context.Context, sessionID string) {
	s.store.Delete(ctx, sessionID)
	s.metrics.SetActiveCarts(s.store.Len())
	s.logger.Debug("Cart session ended", zap.String("session_id", sessionID))
}

// Expired is called by the store janitor for each evicted cart
func (s *CartService) Expired(sessionID string, cart *aggregates.Cart) {
	s.metrics.CartExpired()
	s.metrics.SetActiveCarts(s.store.Len())
	s.publish(context.Background(), events.NewCartChanged(
		events.TypeCartExpired, sessionID, "", 0, cart.ItemCount(), cart.TotalPrice().String(), time.Now().UTC(),
	))
}

func (s *CartService) record(ctx context.Context, eventType string, cart *aggregates.Cart, productID string, quantity int) {
	s.metrics.CartOperation(eventType)
	s.metrics.SetActiveCarts(s.store.Len())
	s.publish(ctx, events.NewCartChanged(
		eventType, cart.ID(), productID, quantity, cart.ItemCount(), cart.TotalPrice().String(), time.Now().UTC(),
	))
}

func (s *CartService) publish(ctx context.Context, event events.DomainEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish cart event",
			zap.String("event_type", event.GetEventType()),
			zap.Error(err),
		)
	}
}
