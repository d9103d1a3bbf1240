package cart

import (
	"context"
	"time"

	"casekart/internal/domain"
)

// Repository persists carts keyed by a single owner (user or guest session).
// Line mutations are transactional read-modify-writes so concurrent requests
// against the same cart never lose updates.
type Repository interface {
	// GetByOwner returns the owner's cart with lines, or domain.ErrNotFound.
	GetByOwner(ctx context.Context, owner domain.CartOwner) (*domain.Cart, error)

	// AddLine merges quantity into an existing (product, color) line or
	// appends a new one, creating the cart on first use. The combined
	// quantity is validated against maxStock inside the transaction.
	AddLine(ctx context.Context, owner domain.CartOwner, line domain.CartLine, maxStock int) error

	// SetLineQuantity sets the line's quantity exactly. Returns
	// domain.ErrLineNotFound if no line matches, domain.ErrInsufficientStock
	// if quantity exceeds maxStock. Quantity must be positive.
	SetLineQuantity(ctx context.Context, owner domain.CartOwner, productID, color string, quantity, maxStock int) error

	// RemoveLine deletes the matching line. Missing cart or line is a no-op.
	RemoveLine(ctx context.Context, owner domain.CartOwner, productID, color string) error

	// Clear removes every line from the owner's cart. Idempotent.
	Clear(ctx context.Context, owner domain.CartOwner) error

	// Merge folds the guest cart's lines into the user's cart (summing
	// quantities per (product, color)) and deletes the guest cart, all in
	// one transaction. A missing or empty guest cart is a no-op.
	Merge(ctx context.Context, userID, sessionID string) error

	// PurgeExpiredGuest deletes guest carts idle since before the cutoff.
	PurgeExpiredGuest(ctx context.Context, cutoff time.Time) (int64, error)
}
