package memory

import (
	"context"
	"time"

	"eternals-backend/domain/core/aggregates"
)

// CartStore keeps one cart per shopping session and forgets carts that sit
// idle longer than the session TTL.
type CartStore struct {
	sessions *SessionStore[*aggregates.Cart]
}

// NewCartStore creates a cart store with the given idle TTL
func NewCartStore(ttl time.Duration) *CartStore {
	return &CartStore{sessions: NewSessionStore[*aggregates.Cart](ttl)}
}

// GetOrCreate returns the session's cart, creating an empty one
func (s *CartStore) GetOrCreate(ctx context.Context, sessionID string) *aggregates.Cart {
	cart, _ := s.sessions.GetOrCreate(sessionID, func() *aggregates.Cart {
		return aggregates.NewCart(sessionID)
	})
	return cart
}

// Get returns the session's cart if it is still live
func (s *CartStore) Get(ctx context.Context, sessionID string) (*aggregates.Cart, bool) {
	return s.sessions.Get(sessionID)
}

// Delete tears down the session's cart
func (s *CartStore) Delete(ctx context.Context, sessionID string) {
	s.sessions.Delete(sessionID)
}

// Len returns the number of carts held
func (s *CartStore) Len() int {
	return s.sessions.Len()
}

// OnExpire registers a callback for carts evicted by the janitor
func (s *CartStore) OnExpire(fn func(sessionID string, cart *aggregates.Cart)) {
	s.sessions.OnExpire(fn)
}

// Run evicts idle carts every interval until ctx is cancelled
func (s *CartStore) Run(ctx context.Context, interval time.Duration) error {
	return s.sessions.Run(ctx, interval)
}
