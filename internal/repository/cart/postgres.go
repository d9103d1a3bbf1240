package cart

import (
	"context"
	"errors"
	"time"

	"casekart/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

// ownerFilter builds the WHERE fragment selecting a cart by its single owner
// key. Placeholder $1 carries the key value.
func ownerFilter(owner domain.CartOwner) (clause string, arg string) {
	if owner.UserID != nil {
		return "user_id = $1", *owner.UserID
	}
	return "session_id = $1", *owner.SessionID
}

func (r *postgresRepo) GetByOwner(ctx context.Context, owner domain.CartOwner) (*domain.Cart, error) {
	clause, arg := ownerFilter(owner)
	q := `
SELECT id::text, user_id::text, session_id, created_at, updated_at
FROM carts
WHERE ` + clause
	var cart domain.Cart
	err := r.pool.QueryRow(ctx, q, arg).Scan(&cart.ID, &cart.UserID, &cart.SessionID, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	const linesQuery = `
SELECT id::text, cart_id::text, product_id::text, name, COALESCE(image, ''), color, price_paise, gst_rate, quantity, created_at
FROM cart_lines
WHERE cart_id = $1
ORDER BY created_at ASC
`
	rows, err := r.pool.Query(ctx, linesQuery, cart.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.CartLine
		if err := rows.Scan(
			&line.ID,
			&line.CartID,
			&line.ProductID,
			&line.Name,
			&line.Image,
			&line.Color,
			&line.PricePaise,
			&line.GSTRate,
			&line.Quantity,
			&line.CreatedAt,
		); err != nil {
			return nil, err
		}
		cart.Lines = append(cart.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *postgresRepo) AddLine(ctx context.Context, owner domain.CartOwner, line domain.CartLine, maxStock int) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	cartID, err := ensureCart(ctx, tx, owner)
	if err != nil {
		return err
	}

	// Lock the matching line so a concurrent add against the same
	// (product, color) serializes instead of clobbering.
	var lineID string
	var existingQty int
	err = tx.QueryRow(ctx, `
SELECT id::text, quantity
FROM cart_lines
WHERE cart_id = $1 AND product_id = $2 AND color = $3
FOR UPDATE
`, cartID, line.ProductID, line.Color).Scan(&lineID, &existingQty)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	newQty := existingQty + line.Quantity
	if newQty > maxStock {
		return domain.ErrInsufficientStock
	}

	if lineID != "" {
		if _, err := tx.Exec(ctx, `
UPDATE cart_lines SET quantity = $1 WHERE id = $2
`, newQty, lineID); err != nil {
			return err
		}
	} else {
		if _, err := tx.Exec(ctx, `
INSERT INTO cart_lines (cart_id, product_id, name, image, color, price_paise, gst_rate, quantity)
VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8)
`, cartID, line.ProductID, line.Name, line.Image, line.Color, line.PricePaise, line.GSTRate, line.Quantity); err != nil {
			return err
		}
	}

	if err := touchCart(ctx, tx, cartID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *postgresRepo) SetLineQuantity(ctx context.Context, owner domain.CartOwner, productID, color string, quantity, maxStock int) error {
	if quantity > maxStock {
		return domain.ErrInsufficientStock
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	cartID, err := findCart(ctx, tx, owner)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrLineNotFound
		}
		return err
	}

	cmd, err := tx.Exec(ctx, `
UPDATE cart_lines
SET quantity = $1
WHERE cart_id = $2 AND product_id = $3 AND color = $4
`, quantity, cartID, productID, color)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrLineNotFound
	}

	if err := touchCart(ctx, tx, cartID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *postgresRepo) RemoveLine(ctx context.Context, owner domain.CartOwner, productID, color string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	cartID, err := findCart(ctx, tx, owner)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}

	if _, err := tx.Exec(ctx, `
DELETE FROM cart_lines
WHERE cart_id = $1 AND product_id = $2 AND color = $3
`, cartID, productID, color); err != nil {
		return err
	}

	if err := touchCart(ctx, tx, cartID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *postgresRepo) Clear(ctx context.Context, owner domain.CartOwner) error {
	clause, arg := ownerFilter(owner)
	q := `
DELETE FROM cart_lines
WHERE cart_id IN (SELECT id FROM carts WHERE ` + clause + `)`
	_, err := r.pool.Exec(ctx, q, arg)
	return err
}

func (r *postgresRepo) Merge(ctx context.Context, userID, sessionID string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var guestID string
	err = tx.QueryRow(ctx, `
SELECT id::text FROM carts WHERE session_id = $1 FOR UPDATE
`, sessionID).Scan(&guestID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// No guest cart: most sessions never had one.
			return nil
		}
		return err
	}

	userCartID, err := ensureCart(ctx, tx, domain.OwnerForUser(userID))
	if err != nil {
		return err
	}

	// Fold guest lines into the user cart, summing quantities on collision.
	// The guest line's frozen price wins only for lines the user cart did
	// not already have.
	if _, err := tx.Exec(ctx, `
INSERT INTO cart_lines (cart_id, product_id, name, image, color, price_paise, gst_rate, quantity)
SELECT $1, product_id, name, image, color, price_paise, gst_rate, quantity
FROM cart_lines
WHERE cart_id = $2
ON CONFLICT (cart_id, product_id, color) DO UPDATE
SET quantity = cart_lines.quantity + EXCLUDED.quantity
`, userCartID, guestID); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM carts WHERE id = $1`, guestID); err != nil {
		return err
	}

	if err := touchCart(ctx, tx, userCartID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *postgresRepo) PurgeExpiredGuest(ctx context.Context, cutoff time.Time) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `
DELETE FROM carts
WHERE session_id IS NOT NULL AND updated_at < $1
`, cutoff)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

// ensureCart finds the owner's cart or creates one, returning its id locked
// for the remainder of the transaction.
func ensureCart(ctx context.Context, tx pgx.Tx, owner domain.CartOwner) (string, error) {
	id, err := findCart(ctx, tx, owner)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return "", err
	}

	const q = `
INSERT INTO carts (user_id, session_id)
VALUES ($1, $2)
ON CONFLICT DO NOTHING
RETURNING id::text
`
	err = tx.QueryRow(ctx, q, owner.UserID, owner.SessionID).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}
	// Lost a create race; the winner's row exists now.
	return findCart(ctx, tx, owner)
}

func findCart(ctx context.Context, tx pgx.Tx, owner domain.CartOwner) (string, error) {
	clause, arg := ownerFilter(owner)
	q := `SELECT id::text FROM carts WHERE ` + clause + ` FOR UPDATE`
	var id string
	if err := tx.QueryRow(ctx, q, arg).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", err
	}
	return id, nil
}

func touchCart(ctx context.Context, tx pgx.Tx, cartID string) error {
	_, err := tx.Exec(ctx, `UPDATE carts SET updated_at = now() WHERE id = $1`, cartID)
	return err
}
