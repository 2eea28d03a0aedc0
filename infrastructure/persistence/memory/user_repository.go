package memory

import (
	"context"
	"sort"
	"sync"

	"eternals-backend/domain/core/entities"
	pkgerrors "eternals-backend/pkg/errors"
)

// UserRepository is an in-memory implementation of ports.UserRepository
type UserRepository struct {
	mu      sync.RWMutex
	byID    map[string]entities.User
	byEmail map[string]string
}

// NewUserRepository creates an empty user repository
func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:    make(map[string]entities.User),
		byEmail: make(map[string]string),
	}
}

// Save creates or updates a user. Email addresses are unique.
func (r *UserRepository) Save(ctx context.Context, user *entities.User) error {
	if user == nil || user.ID == "" {
		return pkgerrors.NewValidationError("user id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	email := entities.NormalizeEmail(user.Email)
	if owner, taken := r.byEmail[email]; taken && owner != user.ID {
		return pkgerrors.NewConflictError("email already registered").WithDetail("email", email)
	}
	if old, exists := r.byID[user.ID]; exists {
		delete(r.byEmail, entities.NormalizeEmail(old.Email))
	}

	r.byID[user.ID] = *user
	r.byEmail[email] = user.ID
	return nil
}

// GetByID retrieves a user by its ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*entities.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("user")
	}
	return &u, nil
}

// GetByEmail retrieves a user by email, ignoring case
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[entities.NormalizeEmail(email)]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("user")
	}
	u := r.byID[id]
	return &u, nil
}

// GetByProvider retrieves the user linked to a third-party account
func (r *UserRepository) GetByProvider(ctx context.Context, provider, providerID string) (*entities.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.byID {
		if u.Provider == provider && u.ProviderID == providerID {
			return &u, nil
		}
	}
	return nil, pkgerrors.NewNotFoundError("user")
}

// List returns every user ordered by creation time
func (r *UserRepository) List(ctx context.Context) ([]*entities.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*entities.User, 0, len(r.byID))
	for _, u := range r.byID {
		u := u
		out = append(out, &u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
