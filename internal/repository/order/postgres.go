package order

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"casekart/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) Create(ctx context.Context, o domain.Order) (*domain.Order, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// Last stock check before commit: decrement only when enough remains.
	for _, item := range o.Items {
		cmd, err := tx.Exec(ctx, `
UPDATE products
SET count_in_stock = count_in_stock - $1
WHERE id = $2 AND count_in_stock >= $1
`, item.Quantity, item.ProductID)
		if err != nil {
			return nil, err
		}
		if cmd.RowsAffected() == 0 {
			r.logger.Printf("order repo: stock check failed product_id=%s qty=%d", item.ProductID, item.Quantity)
			return nil, domain.ErrInsufficientStock
		}
	}

	const insertOrder = `
INSERT INTO orders (order_number, user_id, street, city, state, pincode, payment_method,
                    items_paise, tax_paise, shipping_paise, total_paise, is_paid, paid_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
RETURNING id::text, created_at
`
	res := o
	err = tx.QueryRow(ctx, insertOrder,
		o.OrderNumber,
		o.UserID,
		o.ShippingAddress.Street,
		o.ShippingAddress.City,
		o.ShippingAddress.State,
		o.ShippingAddress.Pincode,
		o.PaymentMethod,
		o.ItemsPaise,
		o.TaxPaise,
		o.ShippingPaise,
		o.TotalPaise,
		o.IsPaid,
		o.PaidAt,
	).Scan(&res.ID, &res.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.Printf("order repo: insert number=%s error=%v", o.OrderNumber, err)
		return nil, err
	}

	res.Items = make([]domain.OrderItem, 0, len(o.Items))
	for _, item := range o.Items {
		it := item
		it.OrderID = res.ID
		err = tx.QueryRow(ctx, `
INSERT INTO order_items (order_id, product_id, name, image, color, price_paise, gst_rate, quantity)
VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8)
RETURNING id::text
`, res.ID, it.ProductID, it.Name, it.Image, it.Color, it.PricePaise, it.GSTRate, it.Quantity).Scan(&it.ID)
		if err != nil {
			return nil, err
		}
		res.Items = append(res.Items, it)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &res, nil
}

const orderColumns = `id::text, order_number, user_id::text, street, city, state, pincode, payment_method,
items_paise, tax_paise, shipping_paise, total_paise,
is_paid, paid_at, payment_result, is_delivered, delivered_at, tracking_number, tracking_url, created_at`

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	o, err := scanOrder(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if err := r.attachItems(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *postgresRepo) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, q, userID)
}

func (r *postgresRepo) ListAll(ctx context.Context) ([]domain.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC`
	return r.list(ctx, q)
}

func (r *postgresRepo) list(ctx context.Context, q string, args ...any) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range result {
		if err := r.attachItems(ctx, &result[i]); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (r *postgresRepo) MarkPaid(ctx context.Context, id string, paidAt time.Time, result domain.PaymentResult) (*domain.Order, error) {
	const q = `
UPDATE orders
SET is_paid = TRUE,
    paid_at = $2,
    payment_result = $3
WHERE id = $1
RETURNING id::text
`
	var updated string
	if err := r.pool.QueryRow(ctx, q, id, paidAt, result).Scan(&updated); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("order repo: mark paid id=%s error=%v", id, err)
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *postgresRepo) MarkDelivered(ctx context.Context, id string, deliveredAt time.Time, tracking *domain.TrackingInfo) (*domain.Order, error) {
	const q = `
UPDATE orders
SET is_delivered = TRUE,
    delivered_at = $2,
    tracking_number = COALESCE($3, tracking_number),
    tracking_url = COALESCE($4, tracking_url)
WHERE id = $1
RETURNING id::text
`
	var number, url *string
	if tracking != nil {
		number = &tracking.Number
		if tracking.URL != "" {
			url = &tracking.URL
		}
	}
	var updated string
	if err := r.pool.QueryRow(ctx, q, id, deliveredAt, number, url).Scan(&updated); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("order repo: mark delivered id=%s error=%v", id, err)
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *postgresRepo) Stats(ctx context.Context) (*Stats, error) {
	const q = `
SELECT COUNT(*),
       COUNT(*) FILTER (WHERE is_delivered),
       COALESCE(SUM(total_paise) FILTER (WHERE is_paid), 0)
FROM orders
`
	var s Stats
	if err := r.pool.QueryRow(ctx, q).Scan(&s.TotalOrders, &s.DeliveredOrders, &s.RevenuePaise); err != nil {
		r.logger.Printf("order repo: stats error=%v", err)
		return nil, err
	}
	s.PendingOrders = s.TotalOrders - s.DeliveredOrders
	return &s, nil
}

func (r *postgresRepo) attachItems(ctx context.Context, o *domain.Order) error {
	const q = `
SELECT id::text, order_id::text, product_id::text, name, COALESCE(image, ''), color, price_paise, gst_rate, quantity
FROM order_items
WHERE order_id = $1
ORDER BY created_at ASC, id ASC
`
	rows, err := r.pool.Query(ctx, q, o.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Name, &it.Image, &it.Color, &it.PricePaise, &it.GSTRate, &it.Quantity); err != nil {
			return err
		}
		o.Items = append(o.Items, it)
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var o domain.Order
	var result *domain.PaymentResult
	var trackingNumber, trackingURL *string
	if err := row.Scan(
		&o.ID,
		&o.OrderNumber,
		&o.UserID,
		&o.ShippingAddress.Street,
		&o.ShippingAddress.City,
		&o.ShippingAddress.State,
		&o.ShippingAddress.Pincode,
		&o.PaymentMethod,
		&o.ItemsPaise,
		&o.TaxPaise,
		&o.ShippingPaise,
		&o.TotalPaise,
		&o.IsPaid,
		&o.PaidAt,
		&result,
		&o.IsDelivered,
		&o.DeliveredAt,
		&trackingNumber,
		&trackingURL,
		&o.CreatedAt,
	); err != nil {
		return nil, err
	}
	o.PaymentResult = result
	if trackingNumber != nil {
		o.Tracking = &domain.TrackingInfo{Number: *trackingNumber}
		if trackingURL != nil {
			o.Tracking.URL = *trackingURL
		}
	}
	return &o, nil
}
