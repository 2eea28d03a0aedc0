package memory

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// OAuthStateStore remembers which provider each pending login state belongs
// to. States are single use and expire after ttl.
type OAuthStateStore struct {
	states *SessionStore[string]
}

// NewOAuthStateStore creates a state store
func NewOAuthStateStore(ttl time.Duration) *OAuthStateStore {
	return &OAuthStateStore{states: NewSessionStore[string](ttl)}
}

// Issue returns a fresh random state bound to provider
func (s *OAuthStateStore) Issue(provider string) string {
	state := uuid.NewString()
	s.states.Set(state, provider)
	return state
}

// Consume returns the provider for state and forgets it
func (s *OAuthStateStore) Consume(state string) (string, bool) {
	if state == "" {
		return "", false
	}
	provider, ok := s.states.Get(state)
	s.states.Delete(state)
	return provider, ok
}

// Run drops abandoned states every interval until ctx is cancelled
func (s *OAuthStateStore) Run(ctx context.Context, interval time.Duration) error {
	return s.states.Run(ctx, interval)
}
