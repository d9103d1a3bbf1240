package cart

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"casekart/internal/domain"
	"casekart/internal/migrate"
	"github.com/jackc/pgx/v5/pgxpool"
)

func TestPostgres_AddAndGet(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()
	resetTables(ctx, t, pool)

	productID := insertProduct(ctx, t, pool, "Clear Shield Case", 49900, 5)
	repo := NewPostgres(pool)
	owner := domain.OwnerForSession("sess-1")

	line := domain.CartLine{ProductID: productID, Name: "Clear Shield Case", PricePaise: 49900, GSTRate: 18, Quantity: 2}
	if err := repo.AddLine(ctx, owner, line, 5); err != nil {
		t.Fatalf("AddLine: %v", err)
	}
	// Same product and color again merges into one line.
	if err := repo.AddLine(ctx, owner, line, 5); err != nil {
		t.Fatalf("AddLine again: %v", err)
	}

	cart, err := repo.GetByOwner(ctx, owner)
	if err != nil {
		t.Fatalf("GetByOwner: %v", err)
	}
	if len(cart.Lines) != 1 {
		t.Fatalf("expected one merged line, got %d", len(cart.Lines))
	}
	if cart.Lines[0].Quantity != 4 || cart.Lines[0].PricePaise != 49900 {
		t.Fatalf("unexpected line %+v", cart.Lines[0])
	}

	// A third add would push the combined quantity past stock.
	if err := repo.AddLine(ctx, owner, line, 5); !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
}

func TestPostgres_ColorsAreSeparateLines(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()
	resetTables(ctx, t, pool)

	productID := insertProduct(ctx, t, pool, "Armor Flex", 79900, 10)
	repo := NewPostgres(pool)
	owner := domain.OwnerForSession("sess-1")

	for _, color := range []string{"black", "navy"} {
		line := domain.CartLine{ProductID: productID, Name: "Armor Flex", Color: color, PricePaise: 79900, GSTRate: 18, Quantity: 1}
		if err := repo.AddLine(ctx, owner, line, 10); err != nil {
			t.Fatalf("AddLine %s: %v", color, err)
		}
	}

	cart, err := repo.GetByOwner(ctx, owner)
	if err != nil {
		t.Fatalf("GetByOwner: %v", err)
	}
	if len(cart.Lines) != 2 {
		t.Fatalf("expected two lines, got %d", len(cart.Lines))
	}
}

func TestPostgres_ConcurrentAddsKeepBothLines(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()
	resetTables(ctx, t, pool)

	caseID := insertProduct(ctx, t, pool, "Clear Shield Case", 49900, 10)
	glassID := insertProduct(ctx, t, pool, "Tempered Glass", 29900, 10)
	repo := NewPostgres(pool)
	owner := domain.OwnerForSession("sess-1")

	// Two adds for different products racing on the same cart: the carts-row
	// lock serializes them and neither addition may be lost.
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, p := range []struct {
		id    string
		name  string
		paise int64
	}{
		{caseID, "Clear Shield Case", 49900},
		{glassID, "Tempered Glass", 29900},
	} {
		wg.Add(1)
		go func(i int, productID, name string, paise int64) {
			defer wg.Done()
			errs[i] = repo.AddLine(ctx, owner, domain.CartLine{
				ProductID: productID, Name: name, PricePaise: paise, GSTRate: 18, Quantity: 1,
			}, 10)
		}(i, p.id, p.name, p.paise)
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			t.Fatalf("AddLine %d: %v", i, err)
		}
	}

	cart, err := repo.GetByOwner(ctx, owner)
	if err != nil {
		t.Fatalf("GetByOwner: %v", err)
	}
	if len(cart.Lines) != 2 {
		t.Fatalf("expected both lines to survive the race, got %d", len(cart.Lines))
	}
	if cart.Line(caseID, "") == nil || cart.Line(glassID, "") == nil {
		t.Fatalf("a concurrent addition was lost: %+v", cart.Lines)
	}
}

func TestPostgres_SetRemoveClear(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()
	resetTables(ctx, t, pool)

	productID := insertProduct(ctx, t, pool, "Tempered Glass", 29900, 10)
	repo := NewPostgres(pool)
	owner := domain.OwnerForSession("sess-1")

	line := domain.CartLine{ProductID: productID, Name: "Tempered Glass", PricePaise: 29900, GSTRate: 18, Quantity: 1}
	if err := repo.AddLine(ctx, owner, line, 10); err != nil {
		t.Fatalf("AddLine: %v", err)
	}

	if err := repo.SetLineQuantity(ctx, owner, productID, "", 3, 10); err != nil {
		t.Fatalf("SetLineQuantity: %v", err)
	}
	cart, err := repo.GetByOwner(ctx, owner)
	if err != nil {
		t.Fatalf("GetByOwner: %v", err)
	}
	if cart.Lines[0].Quantity != 3 {
		t.Fatalf("expected quantity 3, got %d", cart.Lines[0].Quantity)
	}

	if err := repo.SetLineQuantity(ctx, owner, productID, "", 99, 10); !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	if err := repo.SetLineQuantity(ctx, owner, productID, "navy", 1, 10); !errors.Is(err, domain.ErrLineNotFound) {
		t.Fatalf("expected line not found for wrong color, got %v", err)
	}

	// Removing a line that never existed succeeds.
	if err := repo.RemoveLine(ctx, owner, productID, "navy"); err != nil {
		t.Fatalf("RemoveLine absent: %v", err)
	}
	if err := repo.RemoveLine(ctx, owner, productID, ""); err != nil {
		t.Fatalf("RemoveLine: %v", err)
	}
	cart, err = repo.GetByOwner(ctx, owner)
	if err != nil {
		t.Fatalf("GetByOwner: %v", err)
	}
	if len(cart.Lines) != 0 {
		t.Fatalf("expected empty cart, got %d lines", len(cart.Lines))
	}

	if err := repo.Clear(ctx, owner); err != nil {
		t.Fatalf("Clear empty cart: %v", err)
	}
}

func TestPostgres_Merge(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()
	resetTables(ctx, t, pool)

	userID := insertUser(ctx, t, pool, "asha@casekart.test")
	caseID := insertProduct(ctx, t, pool, "Clear Shield Case", 49900, 10)
	glassID := insertProduct(ctx, t, pool, "Tempered Glass", 29900, 10)
	repo := NewPostgres(pool)

	guest := domain.OwnerForSession("sess-1")
	user := domain.OwnerForUser(userID)

	// Guest holds the case (qty 2) and the glass; user already holds the case.
	if err := repo.AddLine(ctx, guest, domain.CartLine{ProductID: caseID, Name: "Clear Shield Case", PricePaise: 49900, Quantity: 2}, 10); err != nil {
		t.Fatalf("guest AddLine: %v", err)
	}
	if err := repo.AddLine(ctx, guest, domain.CartLine{ProductID: glassID, Name: "Tempered Glass", PricePaise: 29900, Quantity: 1}, 10); err != nil {
		t.Fatalf("guest AddLine: %v", err)
	}
	if err := repo.AddLine(ctx, user, domain.CartLine{ProductID: caseID, Name: "Clear Shield Case", PricePaise: 49900, Quantity: 1}, 10); err != nil {
		t.Fatalf("user AddLine: %v", err)
	}

	if err := repo.Merge(ctx, userID, "sess-1"); err != nil {
		t.Fatalf("Merge: %v", err)
	}

	cart, err := repo.GetByOwner(ctx, user)
	if err != nil {
		t.Fatalf("GetByOwner user: %v", err)
	}
	if len(cart.Lines) != 2 {
		t.Fatalf("expected two lines after merge, got %d", len(cart.Lines))
	}
	if line := cart.Line(caseID, ""); line == nil || line.Quantity != 3 {
		t.Fatalf("expected summed quantity 3, got %+v", line)
	}

	if _, err := repo.GetByOwner(ctx, guest); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("guest cart must be gone after merge, got %v", err)
	}

	// Merging the now-absent guest cart is a no-op.
	if err := repo.Merge(ctx, userID, "sess-1"); err != nil {
		t.Fatalf("second Merge: %v", err)
	}
}

func TestPostgres_PurgeExpiredGuest(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()
	resetTables(ctx, t, pool)

	userID := insertUser(ctx, t, pool, "asha@casekart.test")
	productID := insertProduct(ctx, t, pool, "Clear Shield Case", 49900, 10)
	repo := NewPostgres(pool)

	line := domain.CartLine{ProductID: productID, Name: "Clear Shield Case", PricePaise: 49900, Quantity: 1}
	if err := repo.AddLine(ctx, domain.OwnerForSession("stale"), line, 10); err != nil {
		t.Fatalf("AddLine stale: %v", err)
	}
	if err := repo.AddLine(ctx, domain.OwnerForSession("fresh"), line, 10); err != nil {
		t.Fatalf("AddLine fresh: %v", err)
	}
	if err := repo.AddLine(ctx, domain.OwnerForUser(userID), line, 10); err != nil {
		t.Fatalf("AddLine user: %v", err)
	}
	if _, err := pool.Exec(ctx, `UPDATE carts SET updated_at = now() - interval '60 days' WHERE session_id = 'stale'`); err != nil {
		t.Fatalf("age cart: %v", err)
	}
	// An old user cart must survive any purge.
	if _, err := pool.Exec(ctx, `UPDATE carts SET updated_at = now() - interval '60 days' WHERE user_id = $1`, userID); err != nil {
		t.Fatalf("age user cart: %v", err)
	}

	n, err := repo.PurgeExpiredGuest(ctx, time.Now().Add(-30*24*time.Hour))
	if err != nil {
		t.Fatalf("PurgeExpiredGuest: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected one purged cart, got %d", n)
	}
	if _, err := repo.GetByOwner(ctx, domain.OwnerForSession("stale")); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("stale cart must be gone, got %v", err)
	}
	if _, err := repo.GetByOwner(ctx, domain.OwnerForSession("fresh")); err != nil {
		t.Fatalf("fresh cart must survive: %v", err)
	}
	if _, err := repo.GetByOwner(ctx, domain.OwnerForUser(userID)); err != nil {
		t.Fatalf("user cart must survive: %v", err)
	}
}

func testPool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return pool
}

func resetTables(ctx context.Context, t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	if _, err := pool.Exec(ctx, `TRUNCATE cart_lines, carts, order_items, orders, tokens, products, users RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}

func insertProduct(ctx context.Context, t *testing.T, pool *pgxpool.Pool, name string, pricePaise int64, stock int) string {
	t.Helper()
	var id string
	err := pool.QueryRow(ctx, `
INSERT INTO products (name, price_paise, count_in_stock)
VALUES ($1, $2, $3)
RETURNING id::text
`, name, pricePaise, stock).Scan(&id)
	if err != nil {
		t.Fatalf("insert product: %v", err)
	}
	return id
}

func insertUser(ctx context.Context, t *testing.T, pool *pgxpool.Pool, email string) string {
	t.Helper()
	var id string
	err := pool.QueryRow(ctx, `
INSERT INTO users (name, email, password_hash)
VALUES ('Test User', $1, 'x')
RETURNING id::text
`, email).Scan(&id)
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}
	return id
}
