package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"buppha/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrCartItemNotFound = errors.New("cart item not found")
	// ErrStockExceeded means an add was refused because the resulting
	// quantity would exceed the product's stock.
	ErrStockExceeded = errors.New("cart quantity would exceed stock")
)

// CartRepository stores cart lines keyed by an opaque session id
type CartRepository interface {
	ListLines(ctx context.Context, sessionID string) ([]domain.CartLine, error)
	QuantityOf(ctx context.Context, sessionID string, productID uuid.UUID) (int, error)
	AddQuantity(ctx context.Context, sessionID string, productID uuid.UUID, quantity int) (*domain.CartItem, error)
	SetQuantity(ctx context.Context, sessionID string, itemID uuid.UUID, quantity int) error
	Delete(ctx context.Context, sessionID string, itemID uuid.UUID) error
	Clear(ctx context.Context, sessionID string) error
}

type cartRepository struct {
	db *sql.DB
}

// NewCartRepository creates a new instance of CartRepository
func NewCartRepository(db *sql.DB) CartRepository {
	return &cartRepository{db: db}
}

// ListLines returns the session's lines whose product is active, oldest first
func (r *cartRepository) ListLines(ctx context.Context, sessionID string) ([]domain.CartLine, error) {
	query := `
		SELECT ci.id, ci.session_id, ci.product_id, ci.quantity, ci.created_at, ` + productColumns + `
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.session_id = $1 AND p.is_active = TRUE
		ORDER BY ci.created_at ASC, ci.id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart lines: %w", err)
	}
	defer rows.Close()

	lines, err := scanCartLines(rows)
	if err != nil {
		return nil, err
	}
	return lines, nil
}

func scanCartLines(rows *sql.Rows) ([]domain.CartLine, error) {
	lines := []domain.CartLine{}
	for rows.Next() {
		var line domain.CartLine
		dest := append([]any{
			&line.ID,
			&line.SessionID,
			&line.ProductID,
			&line.Quantity,
			&line.CreatedAt,
		}, productDest(&line.Product)...)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan cart line: %w", err)
		}
		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart lines: %w", err)
	}

	return lines, nil
}

// QuantityOf returns the quantity already in the cart for a product, or 0
func (r *cartRepository) QuantityOf(ctx context.Context, sessionID string, productID uuid.UUID) (int, error) {
	var quantity int
	err := r.db.QueryRowContext(ctx,
		`SELECT quantity FROM cart_items WHERE session_id = $1 AND product_id = $2`,
		sessionID, productID,
	).Scan(&quantity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read cart quantity: %w", err)
	}
	return quantity, nil
}

// AddQuantity inserts a line or increments an existing one. The stock guard
// is evaluated inside the statement so concurrent adds cannot overshoot it;
// when it fails nothing is written and ErrStockExceeded is returned.
func (r *cartRepository) AddQuantity(ctx context.Context, sessionID string, productID uuid.UUID, quantity int) (*domain.CartItem, error) {
	query := `
		INSERT INTO cart_items (id, session_id, product_id, quantity, created_at)
		SELECT $1::uuid, $2::varchar, p.id, $4::integer, $5::timestamp
		FROM products p
		WHERE p.id = $3 AND p.is_active = TRUE AND p.stock >= $4
		ON CONFLICT (session_id, product_id) DO UPDATE
		SET quantity = cart_items.quantity + EXCLUDED.quantity
		WHERE cart_items.quantity + EXCLUDED.quantity <= (
			SELECT stock FROM products WHERE id = EXCLUDED.product_id
		)
		RETURNING id, session_id, product_id, quantity, created_at
	`

	item := &domain.CartItem{}
	err := r.db.QueryRowContext(ctx, query, uuid.New(), sessionID, productID, quantity, time.Now()).Scan(
		&item.ID,
		&item.SessionID,
		&item.ProductID,
		&item.Quantity,
		&item.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStockExceeded
		}
		return nil, fmt.Errorf("failed to add cart item: %w", err)
	}

	return item, nil
}

// SetQuantity overwrites a line's quantity without consulting stock
func (r *cartRepository) SetQuantity(ctx context.Context, sessionID string, itemID uuid.UUID, quantity int) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE cart_items SET quantity = $3 WHERE id = $1 AND session_id = $2`,
		itemID, sessionID, quantity,
	)
	if err != nil {
		return fmt.Errorf("failed to update cart item: %w", err)
	}

	return expectOneRow(result, ErrCartItemNotFound)
}

// Delete removes one line of the session
func (r *cartRepository) Delete(ctx context.Context, sessionID string, itemID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE id = $1 AND session_id = $2`,
		itemID, sessionID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete cart item: %w", err)
	}

	return expectOneRow(result, ErrCartItemNotFound)
}

// Clear removes every line of the session
func (r *cartRepository) Clear(ctx context.Context, sessionID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

func expectOneRow(result sql.Result, notFound error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return notFound
	}
	return nil
}
