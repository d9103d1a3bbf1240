package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"casekart/internal/domain"
)

type stubRepo struct {
	cart            *domain.Cart
	getErr          error
	addErr          error
	setErr          error
	removeErr       error
	clearErr        error
	mergeErr        error
	lastAddOwner    domain.CartOwner
	lastAddLine     domain.CartLine
	lastAddMax      int
	lastSetProduct  string
	lastSetColor    string
	lastSetQty      int
	lastSetMax      int
	lastRemoveID    string
	lastRemoveColor string
	clearCalls      int
	mergeUserID     string
	mergeSessionID  string
	purgeCutoff     time.Time
}

func (s *stubRepo) GetByOwner(_ context.Context, _ domain.CartOwner) (*domain.Cart, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.cart, nil
}

func (s *stubRepo) AddLine(_ context.Context, owner domain.CartOwner, line domain.CartLine, maxStock int) error {
	s.lastAddOwner = owner
	s.lastAddLine = line
	s.lastAddMax = maxStock
	return s.addErr
}

func (s *stubRepo) SetLineQuantity(_ context.Context, _ domain.CartOwner, productID, color string, quantity, maxStock int) error {
	s.lastSetProduct = productID
	s.lastSetColor = color
	s.lastSetQty = quantity
	s.lastSetMax = maxStock
	return s.setErr
}

func (s *stubRepo) RemoveLine(_ context.Context, _ domain.CartOwner, productID, color string) error {
	s.lastRemoveID = productID
	s.lastRemoveColor = color
	return s.removeErr
}

func (s *stubRepo) Clear(_ context.Context, _ domain.CartOwner) error {
	s.clearCalls++
	return s.clearErr
}

func (s *stubRepo) Merge(_ context.Context, userID, sessionID string) error {
	s.mergeUserID = userID
	s.mergeSessionID = sessionID
	return s.mergeErr
}

func (s *stubRepo) PurgeExpiredGuest(_ context.Context, cutoff time.Time) (int64, error) {
	s.purgeCutoff = cutoff
	return 3, nil
}

type stubProductRepo struct {
	product *domain.Product
	err     error
}

func (s *stubProductRepo) GetByID(_ context.Context, _ string) (*domain.Product, error) {
	return s.product, s.err
}

func TestGetMissingCartIsEmptyNotError(t *testing.T) {
	svc := New(&stubRepo{getErr: domain.ErrNotFound}, &stubProductRepo{})
	got, err := svc.Get(context.Background(), domain.OwnerForSession("sess"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Lines) != 0 {
		t.Fatalf("expected empty cart, got %+v", got)
	}
	if got.Totals.TotalPaise != 0 {
		t.Fatalf("empty cart must price to zero, got %+v", got.Totals)
	}
}

func TestGetPricesCart(t *testing.T) {
	cart := &domain.Cart{
		ID:    "c1",
		Lines: []domain.CartLine{{ProductID: "p1", PricePaise: 99900, GSTRate: 18, Quantity: 2}},
	}
	svc := New(&stubRepo{cart: cart}, &stubProductRepo{})
	got, err := svc.Get(context.Background(), domain.OwnerForUser("u1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Totals.ItemsPaise != 199800 || got.Totals.TaxPaise != 35964 || got.Totals.ShippingPaise != 0 || got.Totals.TotalPaise != 235764 {
		t.Fatalf("unexpected totals: %+v", got.Totals)
	}
}

func TestAddItemValidatesQuantity(t *testing.T) {
	svc := New(&stubRepo{}, &stubProductRepo{})
	_, err := svc.AddItem(context.Background(), domain.OwnerForUser("u1"), "p1", 0, "")
	if err == nil || err.Error() != "quantity must be positive" {
		t.Fatalf("expected quantity error, got %v", err)
	}
}

func TestAddItemProductNotFound(t *testing.T) {
	svc := New(&stubRepo{}, &stubProductRepo{err: domain.ErrProductNotFound})
	_, err := svc.AddItem(context.Background(), domain.OwnerForUser("u1"), "missing", 1, "")
	if !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected product not found, got %v", err)
	}
}

func TestAddItemInsufficientStock(t *testing.T) {
	product := &domain.Product{ID: "p1", Name: "Case", PricePaise: 49900, CountInStock: 1}
	svc := New(&stubRepo{}, &stubProductRepo{product: product})
	_, err := svc.AddItem(context.Background(), domain.OwnerForUser("u1"), "p1", 2, "")
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
}

func TestAddItemVariantUnavailable(t *testing.T) {
	product := &domain.Product{
		ID: "p1", Name: "Case", PricePaise: 49900, CountInStock: 10,
		Colors: []domain.ProductColor{{Name: "navy", InStock: false}},
	}
	svc := New(&stubRepo{}, &stubProductRepo{product: product})

	_, err := svc.AddItem(context.Background(), domain.OwnerForUser("u1"), "p1", 1, "navy")
	if !errors.Is(err, domain.ErrVariantUnavailable) {
		t.Fatalf("expected variant unavailable for out-of-stock color, got %v", err)
	}
	_, err = svc.AddItem(context.Background(), domain.OwnerForUser("u1"), "p1", 1, "crimson")
	if !errors.Is(err, domain.ErrVariantUnavailable) {
		t.Fatalf("expected variant unavailable for unknown color, got %v", err)
	}
}

func TestAddItemFreezesDiscountPrice(t *testing.T) {
	product := &domain.Product{
		ID: "p1", Name: "Armor Flex", Images: []string{"/uploads/armor.jpg"},
		PricePaise: 99900, DiscountPaise: 79900, GSTRate: 18, CountInStock: 10,
	}
	repo := &stubRepo{cart: &domain.Cart{ID: "c1"}}
	svc := New(repo, &stubProductRepo{product: product})

	_, err := svc.AddItem(context.Background(), domain.OwnerForUser("u1"), "p1", 2, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.lastAddLine.PricePaise != 79900 {
		t.Fatalf("expected discount price frozen on line, got %d", repo.lastAddLine.PricePaise)
	}
	if repo.lastAddLine.Name != "Armor Flex" || repo.lastAddLine.Image != "/uploads/armor.jpg" {
		t.Fatalf("display fields not denormalized: %+v", repo.lastAddLine)
	}
	if repo.lastAddMax != 10 {
		t.Fatalf("expected stock ceiling 10, got %d", repo.lastAddMax)
	}
}

func TestAddItemRepoStockRejection(t *testing.T) {
	product := &domain.Product{ID: "p1", Name: "Case", PricePaise: 49900, CountInStock: 5}
	repo := &stubRepo{addErr: domain.ErrInsufficientStock}
	svc := New(repo, &stubProductRepo{product: product})
	_, err := svc.AddItem(context.Background(), domain.OwnerForUser("u1"), "p1", 3, "")
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected combined-quantity rejection, got %v", err)
	}
}

func TestUpdateQuantityZeroRemoves(t *testing.T) {
	repo := &stubRepo{cart: &domain.Cart{ID: "c1"}}
	svc := New(repo, &stubProductRepo{})
	_, err := svc.UpdateQuantity(context.Background(), domain.OwnerForUser("u1"), "p1", 0, "smoke")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.lastRemoveID != "p1" || repo.lastRemoveColor != "smoke" {
		t.Fatalf("expected removal, got %q/%q", repo.lastRemoveID, repo.lastRemoveColor)
	}
}

func TestUpdateQuantityLineNotFound(t *testing.T) {
	product := &domain.Product{ID: "p1", CountInStock: 10}
	repo := &stubRepo{setErr: domain.ErrLineNotFound}
	svc := New(repo, &stubProductRepo{product: product})
	_, err := svc.UpdateQuantity(context.Background(), domain.OwnerForUser("u1"), "p1", 2, "")
	if !errors.Is(err, domain.ErrLineNotFound) {
		t.Fatalf("expected line not found, got %v", err)
	}
}

func TestUpdateQuantityRejectsOverStock(t *testing.T) {
	product := &domain.Product{ID: "p1", CountInStock: 2}
	repo := &stubRepo{setErr: domain.ErrInsufficientStock}
	svc := New(repo, &stubProductRepo{product: product})
	_, err := svc.UpdateQuantity(context.Background(), domain.OwnerForUser("u1"), "p1", 5, "")
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	if repo.lastSetMax != 2 {
		t.Fatalf("expected stock ceiling 2, got %d", repo.lastSetMax)
	}
}

func TestRemoveItemIdempotent(t *testing.T) {
	// Repo treats a missing line as success; the service surfaces the
	// (unchanged) cart.
	repo := &stubRepo{cart: &domain.Cart{ID: "c1"}}
	svc := New(repo, &stubProductRepo{})
	got, err := svc.RemoveItem(context.Background(), domain.OwnerForUser("u1"), "ghost", "")
	if err != nil {
		t.Fatalf("expected idempotent removal, got %v", err)
	}
	if got.ID != "c1" {
		t.Fatalf("unexpected cart: %+v", got)
	}
}

func TestMergeGuestCart(t *testing.T) {
	merged := &domain.Cart{ID: "c1", Lines: []domain.CartLine{{ProductID: "p1", PricePaise: 100, Quantity: 3}}}
	repo := &stubRepo{cart: merged}
	svc := New(repo, &stubProductRepo{})
	got, err := svc.MergeGuestCart(context.Background(), "u1", "sess-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.mergeUserID != "u1" || repo.mergeSessionID != "sess-1" {
		t.Fatalf("merge called with %q/%q", repo.mergeUserID, repo.mergeSessionID)
	}
	if got.ID != "c1" {
		t.Fatalf("unexpected cart: %+v", got)
	}
}

func TestMergeGuestCartAbsentIsNoop(t *testing.T) {
	// Repo no-ops on a missing guest cart; merge must not error.
	repo := &stubRepo{getErr: domain.ErrNotFound}
	svc := New(repo, &stubProductRepo{})
	got, err := svc.MergeGuestCart(context.Background(), "u1", "sess-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Lines) != 0 {
		t.Fatalf("expected empty cart, got %+v", got)
	}
}

func TestPurgeExpiredUsesRetentionWindow(t *testing.T) {
	repo := &stubRepo{}
	svc := New(repo, &stubProductRepo{})
	n, err := svc.PurgeExpired(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected purge count 3, got %d", n)
	}
	want := time.Now().Add(-GuestRetention)
	if diff := repo.purgeCutoff.Sub(want); diff < -time.Minute || diff > time.Minute {
		t.Fatalf("cutoff %v not near %v", repo.purgeCutoff, want)
	}
}
