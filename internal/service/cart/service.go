package cart

import (
	"context"
	"errors"
	"time"

	"casekart/internal/domain"
	"casekart/internal/service/pricing"
)

// GuestRetention is how long an idle guest cart survives before purge.
const GuestRetention = 30 * 24 * time.Hour

type cartRepo interface {
	GetByOwner(ctx context.Context, owner domain.CartOwner) (*domain.Cart, error)
	AddLine(ctx context.Context, owner domain.CartOwner, line domain.CartLine, maxStock int) error
	SetLineQuantity(ctx context.Context, owner domain.CartOwner, productID, color string, quantity, maxStock int) error
	RemoveLine(ctx context.Context, owner domain.CartOwner, productID, color string) error
	Clear(ctx context.Context, owner domain.CartOwner) error
	Merge(ctx context.Context, userID, sessionID string) error
	PurgeExpiredGuest(ctx context.Context, cutoff time.Time) (int64, error)
}

type productRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

// Service is the cart engine: one mutable basket per user or guest session.
type Service struct {
	repo     cartRepo
	products productRepo
}

func New(repo cartRepo, products productRepo) *Service {
	return &Service{repo: repo, products: products}
}

// PricedCart is a cart plus the calculator's totals, ready for display.
type PricedCart struct {
	domain.Cart
	Totals pricing.Totals `json:"totals"`
}

// Get returns the owner's cart, or an empty cart if none exists yet. A
// missing cart is a valid state, never an error.
func (s *Service) Get(ctx context.Context, owner domain.CartOwner) (*PricedCart, error) {
	cart, err := s.repo.GetByOwner(ctx, owner)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return price(&domain.Cart{UserID: owner.UserID, SessionID: owner.SessionID}), nil
		}
		return nil, err
	}
	return price(cart), nil
}

// AddItem validates the product against the live catalog, then merges the
// quantity into the owner's cart. The line freezes the product's current
// effective price and display fields at this moment.
func (s *Service) AddItem(ctx context.Context, owner domain.CartOwner, productID string, quantity int, color string) (*PricedCart, error) {
	if quantity <= 0 {
		return nil, errors.New("quantity must be positive")
	}
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.CountInStock < quantity {
		return nil, domain.ErrInsufficientStock
	}
	if !product.ColorAvailable(color) {
		return nil, domain.ErrVariantUnavailable
	}

	line := domain.CartLine{
		ProductID:  product.ID,
		Name:       product.Name,
		Image:      product.MainImage(),
		Color:      color,
		PricePaise: product.EffectivePaise(),
		GSTRate:    product.GSTRate,
		Quantity:   quantity,
	}
	if err := s.repo.AddLine(ctx, owner, line, product.CountInStock); err != nil {
		return nil, err
	}
	return s.Get(ctx, owner)
}

// UpdateQuantity sets the line's quantity exactly. Zero or negative removes
// the line. A quantity above current stock is rejected, not clamped.
func (s *Service) UpdateQuantity(ctx context.Context, owner domain.CartOwner, productID string, quantity int, color string) (*PricedCart, error) {
	if quantity <= 0 {
		return s.RemoveItem(ctx, owner, productID, color)
	}
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetLineQuantity(ctx, owner, productID, color, quantity, product.CountInStock); err != nil {
		return nil, err
	}
	return s.Get(ctx, owner)
}

// RemoveItem deletes the matching line. Removing an absent line succeeds.
func (s *Service) RemoveItem(ctx context.Context, owner domain.CartOwner, productID, color string) (*PricedCart, error) {
	if err := s.repo.RemoveLine(ctx, owner, productID, color); err != nil {
		return nil, err
	}
	return s.Get(ctx, owner)
}

// Clear empties the cart. Idempotent.
func (s *Service) Clear(ctx context.Context, owner domain.CartOwner) error {
	return s.repo.Clear(ctx, owner)
}

// MergeGuestCart folds the guest session's cart into the user's cart and
// deletes the guest cart. An absent or empty guest cart is a silent no-op,
// so re-running a merge (after a retried login, say) is safe.
func (s *Service) MergeGuestCart(ctx context.Context, userID, sessionID string) (*PricedCart, error) {
	if err := s.repo.Merge(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	return s.Get(ctx, domain.OwnerForUser(userID))
}

// PurgeExpired deletes guest carts idle past the retention window.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	return s.repo.PurgeExpiredGuest(ctx, time.Now().Add(-GuestRetention))
}

func price(cart *domain.Cart) *PricedCart {
	lines := make([]pricing.Line, 0, len(cart.Lines))
	for _, l := range cart.Lines {
		lines = append(lines, pricing.Line{UnitPaise: l.PricePaise, Quantity: l.Quantity, GSTRate: l.GSTRate})
	}
	return &PricedCart{Cart: *cart, Totals: pricing.Compute(lines)}
}
