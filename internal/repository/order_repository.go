package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"buppha/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrOrderNotFound = errors.New("order not found")
)

// OrderBuilder turns the locked cart lines into the order to persist. It runs
// inside the placement transaction; returning an error rolls everything back.
type OrderBuilder func(lines []domain.CartLine) (*domain.Order, error)

// OrderFilter narrows the admin order listing
type OrderFilter struct {
	Status domain.OrderStatus
	Limit  int
}

// OrderRepository defines the interface for order data access
type OrderRepository interface {
	PlaceOrder(ctx context.Context, sessionID string, build OrderBuilder) (*domain.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]*domain.Order, error)
	Update(ctx context.Context, id uuid.UUID, update domain.OrderUpdate) (*domain.Order, error)
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new instance of OrderRepository
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

// PlaceOrder converts a session's cart into an order in one transaction:
// lock the lines and their products in id order, let build price and check
// them, write the order and its snapshots, decrement stock, then remove the
// ordered lines from the cart.
func (r *orderRepository) PlaceOrder(ctx context.Context, sessionID string, build OrderBuilder) (*domain.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		// No-op once committed
		_ = tx.Rollback()
	}()

	lines, err := lockCartLines(ctx, tx, sessionID)
	if err != nil {
		return nil, err
	}

	order, err := build(lines)
	if err != nil {
		return nil, err
	}

	if err := insertOrder(ctx, tx, order); err != nil {
		return nil, err
	}

	for _, line := range lines {
		result, err := tx.ExecContext(ctx,
			`UPDATE products SET stock = stock - $2 WHERE id = $1 AND stock >= $2`,
			line.ProductID, line.Quantity,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to decrement stock: %w", err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return nil, &domain.InsufficientStockError{
				ProductID:   line.ProductID,
				ProductName: line.Product.Name,
				Requested:   line.Quantity,
				Available:   line.Product.Stock,
			}
		}
	}

	// Only the lines that were ordered, plus lines of inactive products.
	// Lines added while this transaction ran stay for the next checkout.
	ordered := make([]string, len(lines))
	for i, line := range lines {
		ordered[i] = line.ID.String()
	}
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM cart_items ci
		USING products p
		WHERE ci.session_id = $1 AND p.id = ci.product_id
		  AND (ci.id = ANY($2::uuid[]) OR p.is_active = FALSE)`,
		sessionID, ordered,
	); err != nil {
		return nil, fmt.Errorf("failed to clear cart: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit order: %w", err)
	}

	return order, nil
}

func lockCartLines(ctx context.Context, tx *sql.Tx, sessionID string) ([]domain.CartLine, error) {
	query := `
		SELECT ci.id, ci.session_id, ci.product_id, ci.quantity, ci.created_at, ` + productColumns + `
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.session_id = $1 AND p.is_active = TRUE
		ORDER BY p.id
		FOR UPDATE OF ci, p
	`

	rows, err := tx.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock cart lines: %w", err)
	}
	defer rows.Close()

	return scanCartLines(rows)
}

func insertOrder(ctx context.Context, tx *sql.Tx, order *domain.Order) error {
	query := `
		INSERT INTO orders (id, user_id, customer_name, customer_email, customer_phone, shipping_address,
			subtotal, shipping_fee, discount, total, status, payment_method, payment_status,
			tracking_number, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	_, err := tx.ExecContext(
		ctx,
		query,
		order.ID,
		order.UserID,
		order.CustomerName,
		order.CustomerEmail,
		order.CustomerPhone,
		order.ShippingAddress,
		order.Subtotal,
		order.ShippingFee,
		order.Discount,
		order.Total,
		order.Status,
		order.PaymentMethod,
		order.PaymentStatus,
		order.TrackingNumber,
		order.Notes,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (id, order_id, product_id, product_name, product_image, price, quantity, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	for i, item := range order.Items {
		_, err := tx.ExecContext(ctx, itemQuery,
			item.ID,
			order.ID,
			item.ProductID,
			item.ProductName,
			item.ProductImage,
			item.Price,
			item.Quantity,
			i,
		)
		if err != nil {
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	return nil
}

const orderColumns = `id, user_id, customer_name, customer_email, customer_phone, shipping_address,
	subtotal, shipping_fee, discount, total, status, payment_method, payment_status,
	tracking_number, notes, created_at, updated_at`

func scanOrder(row rowScanner) (*domain.Order, error) {
	order := &domain.Order{}
	err := row.Scan(
		&order.ID,
		&order.UserID,
		&order.CustomerName,
		&order.CustomerEmail,
		&order.CustomerPhone,
		&order.ShippingAddress,
		&order.Subtotal,
		&order.ShippingFee,
		&order.Discount,
		&order.Total,
		&order.Status,
		&order.PaymentMethod,
		&order.PaymentStatus,
		&order.TrackingNumber,
		&order.Notes,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	order.Items = []domain.OrderItem{}
	return order, nil
}

// FindByID retrieves an order with its line snapshots
func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order by ID: %w", err)
	}

	if err := attachItems(ctx, r.db, []*domain.Order{order}); err != nil {
		return nil, err
	}

	return order, nil
}

// List retrieves orders newest first, each with its line snapshots
func (r *orderRepository) List(ctx context.Context, filter OrderFilter) ([]*domain.Order, error) {
	return listOrders(ctx, r.db, filter)
}

func listOrders(ctx context.Context, db *sql.DB, filter OrderFilter) ([]*domain.Order, error) {
	args := []interface{}{}
	query := `SELECT ` + orderColumns + ` FROM orders`

	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" WHERE status = $%d", len(args))
	}
	query += " ORDER BY created_at DESC, id"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	if err := attachItems(ctx, db, orders); err != nil {
		return nil, err
	}

	return orders, nil
}

// attachItems loads the line snapshots of all orders in one query
func attachItems(ctx context.Context, db *sql.DB, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*domain.Order, len(orders))
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
		ids = append(ids, o.ID.String())
	}

	query := `
		SELECT id, order_id, product_id, product_name, product_image, price, quantity
		FROM order_items
		WHERE order_id = ANY($1::uuid[])
		ORDER BY order_id, position
	`

	rows, err := db.QueryContext(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("failed to list order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.OrderItem
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.ProductName,
			&item.ProductImage,
			&item.Price,
			&item.Quantity,
		)
		if err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		if o, ok := byID[item.OrderID]; ok {
			o.Items = append(o.Items, item)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating order items: %w", err)
	}

	return nil
}

// Update patches the fields present in update and returns the new state
func (r *orderRepository) Update(ctx context.Context, id uuid.UUID, update domain.OrderUpdate) (*domain.Order, error) {
	if update.Empty() {
		return r.FindByID(ctx, id)
	}

	sets := []string{}
	args := []interface{}{id}

	if update.Status != nil {
		args = append(args, *update.Status)
		sets = append(sets, fmt.Sprintf("status = $%d", len(args)))
	}
	if update.PaymentStatus != nil {
		args = append(args, *update.PaymentStatus)
		sets = append(sets, fmt.Sprintf("payment_status = $%d", len(args)))
	}
	if update.TrackingNumber != nil {
		args = append(args, *update.TrackingNumber)
		sets = append(sets, fmt.Sprintf("tracking_number = $%d", len(args)))
	}

	query := fmt.Sprintf(`UPDATE orders SET %s WHERE id = $1`, strings.Join(sets, ", "))

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	if err := expectOneRow(result, ErrOrderNotFound); err != nil {
		return nil, err
	}

	return r.FindByID(ctx, id)
}
