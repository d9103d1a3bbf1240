package order

import (
	"context"
	"time"

	"casekart/internal/domain"
)

// Stats are the admin dashboard aggregates.
type Stats struct {
	TotalOrders     int   `json:"totalOrders"`
	DeliveredOrders int   `json:"deliveredOrders"`
	PendingOrders   int   `json:"pendingOrders"`
	RevenuePaise    int64 `json:"revenuePaise"`
}

type Repository interface {
	// Create inserts the order and its items, decrementing product stock
	// conditionally in the same transaction. Returns
	// domain.ErrInsufficientStock if any product no longer covers its
	// quantity, domain.ErrAlreadyExists on an order-number collision.
	Create(ctx context.Context, o domain.Order) (*domain.Order, error)

	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	ListAll(ctx context.Context) ([]domain.Order, error)

	// MarkPaid sets the paid flag, timestamp and payment result. Calling it
	// on an already-paid order overwrites the result; the flag never clears.
	MarkPaid(ctx context.Context, id string, paidAt time.Time, result domain.PaymentResult) (*domain.Order, error)

	// MarkDelivered sets the delivered flag and timestamp; tracking info is
	// attached or updated when non-nil.
	MarkDelivered(ctx context.Context, id string, deliveredAt time.Time, tracking *domain.TrackingInfo) (*domain.Order, error)

	Stats(ctx context.Context) (*Stats, error)
}
