// Package session mints and validates guest session identifiers. The id is a
// server-generated capability token: clients cannot choose their own value,
// so one shopper cannot collide with or hijack another's guest cart.
package session

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TTL matches the guest cart retention window: an id idle that long is gone.
const TTL = 30 * 24 * time.Hour

// Store keeps issued session ids with a sliding expiry.
type Store interface {
	Save(ctx context.Context, id string, ttl time.Duration) error
	// Touch reports whether the id is live and, if so, extends its expiry.
	Touch(ctx context.Context, id string, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, id string) error
}

type Service struct {
	store Store
	ttl   time.Duration
}

func New(store Store) *Service {
	return &Service{store: store, ttl: TTL}
}

// Issue mints a new guest session id.
func (s *Service) Issue(ctx context.Context) (string, error) {
	id := uuid.NewString()
	if err := s.store.Save(ctx, id, s.ttl); err != nil {
		return "", err
	}
	return id, nil
}

// Validate reports whether the id was issued by us and is still live,
// refreshing its expiry on use.
func (s *Service) Validate(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, nil
	}
	return s.store.Touch(ctx, id, s.ttl)
}

// Revoke drops the id, typically after its cart merged into a user cart.
func (s *Service) Revoke(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}
