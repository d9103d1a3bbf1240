// Package events notifies downstream consumers of order lifecycle changes.
// Publishing is best-effort: callers log failures and carry on, the order
// record in postgres stays the source of truth.
package events

import (
	"context"

	"casekart/internal/domain"
)

const (
	OrderPlaced    = "order.placed"
	OrderPaid      = "order.paid"
	OrderDelivered = "order.delivered"
)

// OrderEvent is the payload written for every lifecycle transition.
type OrderEvent struct {
	Type        string `json:"type"`
	OrderID     string `json:"orderId"`
	OrderNumber string `json:"orderNumber"`
	UserID      string `json:"userId"`
	TotalPaise  int64  `json:"totalPaise"`
	IsPaid      bool   `json:"isPaid"`
	IsDelivered bool   `json:"isDelivered"`
}

type Publisher interface {
	PublishOrder(ctx context.Context, eventType string, o domain.Order) error
}

// Nop discards events; used when no brokers are configured.
type Nop struct{}

func (Nop) PublishOrder(context.Context, string, domain.Order) error { return nil }
