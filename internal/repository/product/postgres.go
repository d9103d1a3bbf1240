package product

import (
	"context"
	"errors"
	"io"
	"log"

	"casekart/internal/domain"
	"github.com/jackc/pgx/v5"
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

const productColumns = `id::text, name, COALESCE(description, ''), COALESCE(brand, ''), COALESCE(category, ''), COALESCE(phone_model, ''), images, price_paise, discount_paise, gst_rate, count_in_stock, colors, created_at`

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	q := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	p, err := scanProduct(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		r.logger.Printf("product repo: get id=%s error=%v", id, err)
		return nil, err
	}
	return p, nil
}

func (r *postgresRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&n); err != nil {
		r.logger.Printf("product repo: count error=%v", err)
		return 0, err
	}
	return n, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, p domain.Product) (*domain.Product, error) {
	const q = `
INSERT INTO products (id, name, description, brand, category, phone_model, images, price_paise, discount_paise, gst_rate, count_in_stock, colors)
VALUES (COALESCE(NULLIF($1, '')::uuid, gen_random_uuid()), $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), $7, $8, $9, $10, $11, $12)
ON CONFLICT (id) DO UPDATE SET
    name = EXCLUDED.name,
    description = EXCLUDED.description,
    brand = EXCLUDED.brand,
    category = EXCLUDED.category,
    phone_model = EXCLUDED.phone_model,
    images = EXCLUDED.images,
    price_paise = EXCLUDED.price_paise,
    discount_paise = EXCLUDED.discount_paise,
    gst_rate = EXCLUDED.gst_rate,
    count_in_stock = EXCLUDED.count_in_stock,
    colors = EXCLUDED.colors
RETURNING id::text, created_at
`
	res := p
	err := r.pool.QueryRow(ctx, q,
		p.ID,
		p.Name,
		p.Description,
		p.Brand,
		p.Category,
		p.PhoneModel,
		p.Images,
		p.PricePaise,
		p.DiscountPaise,
		p.GSTRate,
		p.CountInStock,
		colorsToJSON(p.Colors),
	).Scan(&res.ID, &res.CreatedAt)
	if err != nil {
		r.logger.Printf("product repo: upsert name=%q error=%v", p.Name, err)
		return nil, err
	}
	return &res, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var p domain.Product
	var colors []map[string]any
	if err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Brand,
		&p.Category,
		&p.PhoneModel,
		&p.Images,
		&p.PricePaise,
		&p.DiscountPaise,
		&p.GSTRate,
		&p.CountInStock,
		&colors,
		&p.CreatedAt,
	); err != nil {
		return nil, err
	}
	for _, c := range colors {
		pc := domain.ProductColor{}
		if v, ok := c["name"].(string); ok {
			pc.Name = v
		}
		if v, ok := c["inStock"].(bool); ok {
			pc.InStock = v
		}
		p.Colors = append(p.Colors, pc)
	}
	return &p, nil
}

func colorsToJSON(colors []domain.ProductColor) []map[string]any {
	out := make([]map[string]any, 0, len(colors))
	for _, c := range colors {
		out = append(out, map[string]any{"name": c.Name, "inStock": c.InStock})
	}
	return out
}
