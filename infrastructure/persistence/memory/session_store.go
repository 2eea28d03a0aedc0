// Package memory provides the in-process repositories and session stores.
// Nothing here survives a restart.
package memory

import (
	"context"
	"sync"
	"time"
)

// SessionStore keeps values keyed by session id with a sliding TTL. Every
// successful read or write pushes the expiry forward. Expired entries are
// invisible immediately and removed by Sweep.
type SessionStore[T any] struct {
	mu       sync.RWMutex
	items    map[string]sessionItem[T]
	ttl      time.Duration
	now      func() time.Time
	onExpire func(key string, value T)
}

type sessionItem[T any] struct {
	value     T
	expiresAt time.Time
}

// NewSessionStore creates a store whose entries live for ttl after last use
func NewSessionStore[T any](ttl time.Duration) *SessionStore[T] {
	return &SessionStore[T]{
		items: make(map[string]sessionItem[T]),
		ttl:   ttl,
		now:   time.Now,
	}
}

// OnExpire registers a callback invoked by Sweep for each evicted entry.
// It runs outside the store lock.
func (s *SessionStore[T]) OnExpire(fn func(key string, value T)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onExpire = fn
}

// Get retrieves a live value and refreshes its expiry
func (s *SessionStore[T]) Get(key string) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	item, exists := s.items[key]
	if !exists {
		return zero, false
	}
	now := s.now()
	if now.After(item.expiresAt) {
		return zero, false
	}

	item.expiresAt = now.Add(s.ttl)
	s.items[key] = item
	return item.value, true
}

// GetOrCreate returns the live value for key or stores the result of create
func (s *SessionStore[T]) GetOrCreate(key string, create func() T) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if item, exists := s.items[key]; exists && !now.After(item.expiresAt) {
		item.expiresAt = now.Add(s.ttl)
		s.items[key] = item
		return item.value, false
	}

	value := create()
	s.items[key] = sessionItem[T]{value: value, expiresAt: now.Add(s.ttl)}
	return value, true
}

// Set stores a value with a fresh expiry
func (s *SessionStore[T]) Set(key string, value T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[key] = sessionItem[T]{value: value, expiresAt: s.now().Add(s.ttl)}
}

// Delete removes a value and reports whether it was present
func (s *SessionStore[T]) Delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, exists := s.items[key]
	delete(s.items, key)
	return exists
}

// Len returns the number of stored entries, expired ones included until swept
func (s *SessionStore[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Sweep removes expired entries and returns how many were removed
func (s *SessionStore[T]) Sweep() int {
	type expired struct {
		key   string
		value T
	}

	s.mu.Lock()
	now := s.now()
	var removed []expired
	for key, item := range s.items {
		if now.After(item.expiresAt) {
			removed = append(removed, expired{key: key, value: item.value})
			delete(s.items, key)
		}
	}
	onExpire := s.onExpire
	s.mu.Unlock()

	if onExpire != nil {
		for _, e := range removed {
			onExpire(e.key, e.value)
		}
	}
	return len(removed)
}

// Run sweeps on every interval until ctx is cancelled
func (s *SessionStore[T]) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Sweep()
		}
	}
}
