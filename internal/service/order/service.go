package order

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log"
	"math/big"
	"time"

	"casekart/internal/domain"
	"casekart/internal/events"
	orderrepo "casekart/internal/repository/order"
	"casekart/internal/service/pricing"
)

type orderRepo interface {
	Create(ctx context.Context, o domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	ListAll(ctx context.Context) ([]domain.Order, error)
	MarkPaid(ctx context.Context, id string, paidAt time.Time, result domain.PaymentResult) (*domain.Order, error)
	MarkDelivered(ctx context.Context, id string, deliveredAt time.Time, tracking *domain.TrackingInfo) (*domain.Order, error)
	Stats(ctx context.Context) (*orderrepo.Stats, error)
}

type productRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

// Service is the order engine: it freezes priced snapshots into immutable
// order records and advances their payment/delivery flags.
type Service struct {
	repo      orderRepo
	products  productRepo
	publisher events.Publisher
	logger    *log.Logger
	now       func() time.Time
}

func New(repo orderRepo, products productRepo, publisher events.Publisher, logger *log.Logger) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{
		repo:      repo,
		products:  products,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// ItemInput references what the shopper is buying; price and display fields
// are never taken from the client.
type ItemInput struct {
	ProductID string `json:"productId"`
	Color     string `json:"color,omitempty"`
	Quantity  int    `json:"qty"`
}

type PlaceInput struct {
	Items           []ItemInput
	ShippingAddress domain.Address
	PaymentMethod   string
}

// Place creates an order for the user. Every item is re-read from the live
// catalog: stock is re-checked, the current effective price is snapshotted,
// and totals come from the pricing calculator. Client-computed totals are
// never trusted. The caller's cart is untouched; clearing it after success
// is the checkout flow's job.
func (s *Service) Place(ctx context.Context, userID string, in PlaceInput) (*domain.Order, error) {
	if len(in.Items) == 0 {
		return nil, domain.ErrEmptyOrder
	}
	if !in.ShippingAddress.Complete() {
		return nil, domain.ErrInvalidAddress
	}
	if in.PaymentMethod == "" {
		return nil, errors.New("payment method required")
	}

	items := make([]domain.OrderItem, 0, len(in.Items))
	lines := make([]pricing.Line, 0, len(in.Items))
	for _, it := range in.Items {
		if it.Quantity <= 0 {
			return nil, fmt.Errorf("product %s: quantity must be positive", it.ProductID)
		}
		product, err := s.products.GetByID(ctx, it.ProductID)
		if err != nil {
			return nil, err
		}
		if product.CountInStock < it.Quantity {
			return nil, domain.ErrInsufficientStock
		}
		if !product.ColorAvailable(it.Color) {
			return nil, domain.ErrVariantUnavailable
		}
		items = append(items, domain.OrderItem{
			ProductID:  product.ID,
			Name:       product.Name,
			Image:      product.MainImage(),
			Color:      it.Color,
			PricePaise: product.EffectivePaise(),
			GSTRate:    product.GSTRate,
			Quantity:   it.Quantity,
		})
		lines = append(lines, pricing.Line{
			UnitPaise: product.EffectivePaise(),
			Quantity:  it.Quantity,
			GSTRate:   product.GSTRate,
		})
	}
	totals := pricing.Compute(lines)

	o := domain.Order{
		UserID:          userID,
		Items:           items,
		ShippingAddress: in.ShippingAddress,
		PaymentMethod:   in.PaymentMethod,
		ItemsPaise:      totals.ItemsPaise,
		TaxPaise:        totals.TaxPaise,
		ShippingPaise:   totals.ShippingPaise,
		TotalPaise:      totals.TotalPaise,
	}
	// Prepaid methods arrive here only after the processor captured the
	// money, so the order starts paid; cash on delivery starts unpaid.
	if in.PaymentMethod != domain.PaymentCOD {
		now := s.now().UTC()
		o.IsPaid = true
		o.PaidAt = &now
	}

	created, err := s.createWithFreshNumber(ctx, o)
	if err != nil {
		return nil, err
	}

	if err := s.publisher.PublishOrder(ctx, events.OrderPlaced, *created); err != nil {
		s.logger.Printf("order service: publish placed order=%s error=%v", created.ID, err)
	}
	return created, nil
}

// createWithFreshNumber retries on the slim chance two orders draw the same
// human-readable number.
func (s *Service) createWithFreshNumber(ctx context.Context, o domain.Order) (*domain.Order, error) {
	for i := 0; i < 5; i++ {
		number, err := newOrderNumber()
		if err != nil {
			return nil, err
		}
		o.OrderNumber = number
		created, err := s.repo.Create(ctx, o)
		if err == nil {
			return created, nil
		}
		if errors.Is(err, domain.ErrAlreadyExists) {
			continue
		}
		return nil, err
	}
	return nil, errors.New("order number collision")
}

// MarkPaid records the external processor's confirmation. Duplicate webhook
// deliveries simply overwrite the result and timestamp; the paid flag never
// goes back to false.
func (s *Service) MarkPaid(ctx context.Context, orderID string, result domain.PaymentResult) (*domain.Order, error) {
	updated, err := s.repo.MarkPaid(ctx, orderID, s.now().UTC(), result)
	if err != nil {
		return nil, err
	}
	if err := s.publisher.PublishOrder(ctx, events.OrderPaid, *updated); err != nil {
		s.logger.Printf("order service: publish paid order=%s error=%v", updated.ID, err)
	}
	return updated, nil
}

// MarkDelivered flags the order delivered, optionally attaching tracking
// info. Unpaid orders cannot be delivered unless they are cash on delivery,
// where the courier collects payment at the door.
func (s *Service) MarkDelivered(ctx context.Context, orderID string, tracking *domain.TrackingInfo) (*domain.Order, error) {
	existing, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !existing.IsPaid && existing.PaymentMethod != domain.PaymentCOD {
		return nil, domain.ErrOrderNotPaid
	}

	updated, err := s.repo.MarkDelivered(ctx, orderID, s.now().UTC(), tracking)
	if err != nil {
		return nil, err
	}
	if err := s.publisher.PublishOrder(ctx, events.OrderDelivered, *updated); err != nil {
		s.logger.Printf("order service: publish delivered order=%s error=%v", updated.ID, err)
	}
	return updated, nil
}

func (s *Service) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.repo.GetByID(ctx, orderID)
}

func (s *Service) ListForUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *Service) ListAll(ctx context.Context) ([]domain.Order, error) {
	return s.repo.ListAll(ctx)
}

func (s *Service) Stats(ctx context.Context) (*orderrepo.Stats, error) {
	return s.repo.Stats(ctx)
}

// newOrderNumber draws an ORD-nnnnnn support reference, distinct from the
// order's uuid primary key.
func newOrderNumber() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ORD-%06d", n.Int64()+100000), nil
}
