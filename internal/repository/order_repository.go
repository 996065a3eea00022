package repository

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront-service/internal/models"
)

type orderRepo struct {
	db *pgxpool.Pool
}

func NewOrderRepository(db *pgxpool.Pool) OrderRepository {
	return &orderRepo{db: db}
}

// NewOrderNumber builds the human-facing order label, ORD-<year>-<NNNN>.
// The 4-digit suffix is random, so the label can collide across orders;
// identity is the serial primary key, the label is display-only.
func NewOrderNumber(now time.Time) string {
	return fmt.Sprintf("ORD-%d-%04d", now.Year(), rand.Intn(10000))
}

// CreateOrder runs the whole order workflow in one transaction: lock and
// re-read each product, snapshot its price, verify and decrement stock,
// insert the order with its items and address, record stock movements.
// A failure at any point leaves no partial order behind.
func (r *orderRepo) CreateOrder(ctx context.Context, order *models.Order, address *models.ShippingAddress) error {
	if order == nil {
		return fmt.Errorf("%w: order cannot be nil", ErrInvalidInput)
	}
	if order.UserID <= 0 {
		return fmt.Errorf("%w: user ID must be positive", ErrInvalidInput)
	}
	if len(order.Items) == 0 {
		return fmt.Errorf("%w: order must contain at least one item", ErrInvalidInput)
	}
	if address == nil {
		return fmt.Errorf("%w: shipping address required", ErrInvalidInput)
	}
	for _, item := range order.Items {
		if item.ProductID <= 0 {
			return fmt.Errorf("%w: product ID must be positive", ErrInvalidInput)
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
		}
	}
	if order.Shipping.IsNegative() {
		return fmt.Errorf("%w: shipping cannot be negative", ErrInvalidInput)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var userID int
	err = tx.QueryRow(ctx, `SELECT user_id FROM users WHERE user_id = $1`, order.UserID).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: user %d", ErrNotFound, order.UserID)
		}
		return fmt.Errorf("failed to get user %d: %w", order.UserID, err)
	}

	// Lock each product row so the availability check and the decrement
	// below see the same stock value under concurrent orders.
	lockSQL := `
		SELECT name, price, stock
		FROM products
		WHERE product_id = $1
		FOR UPDATE
	`

	for i := range order.Items {
		item := &order.Items[i]

		var p models.Product
		err := tx.QueryRow(ctx, lockSQL, item.ProductID).Scan(&p.Name, &p.Price, &p.Stock)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: product %d", ErrNotFound, item.ProductID)
			}
			return fmt.Errorf("failed to get product %d: %w", item.ProductID, err)
		}

		if p.Stock < item.Quantity {
			return fmt.Errorf("%w: %s has %d in stock, %d requested",
				ErrInsufficientStock, p.Name, p.Stock, item.Quantity)
		}

		item.UnitPrice = p.Price
	}

	now := time.Now()
	order.Subtotal = models.Subtotal(order.Items)
	order.Total = order.Subtotal.Add(order.Shipping)
	order.Status = models.OrderStatusPending
	if order.OrderNumber == "" {
		order.OrderNumber = NewOrderNumber(now)
	}
	order.CreatedAt = now
	order.UpdatedAt = now

	insertOrder := `
		INSERT INTO orders (
			order_number,
			user_id,
			status,
			subtotal,
			shipping,
			total,
			payment_method,
			created_at,
			updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING order_id
	`

	err = tx.QueryRow(ctx, insertOrder,
		order.OrderNumber,
		order.UserID,
		order.Status,
		order.Subtotal,
		order.Shipping,
		order.Total,
		order.PaymentMethod,
		order.CreatedAt,
		order.UpdatedAt,
	).Scan(&order.ID)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	insertItem := `
		INSERT INTO order_items (order_id, product_id, quantity, unit_price)
		VALUES ($1, $2, $3, $4)
		RETURNING order_item_id
	`
	decrement := `
		UPDATE products
		SET stock = stock - $1,
			updated_at = $2
		WHERE product_id = $3 AND stock >= $1
	`
	insertMovement := `
		INSERT INTO stock_movements (product_id, order_id, movement_type, change, created_at)
		VALUES ($1, $2, 'order', $3, $4)
	`

	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID

		err := tx.QueryRow(ctx, insertItem,
			order.ID, item.ProductID, item.Quantity, item.UnitPrice,
		).Scan(&item.ID)
		if err != nil {
			return fmt.Errorf("failed to create order item: %w", err)
		}

		result, err := tx.Exec(ctx, decrement, item.Quantity, now, item.ProductID)
		if err != nil {
			return fmt.Errorf("failed to decrement stock for product %d: %w", item.ProductID, err)
		}
		if result.RowsAffected() == 0 {
			return fmt.Errorf("%w: product %d", ErrInsufficientStock, item.ProductID)
		}

		if _, err := tx.Exec(ctx, insertMovement, item.ProductID, order.ID, -item.Quantity, now); err != nil {
			return fmt.Errorf("failed to record stock movement: %w", err)
		}
	}

	insertAddress := `
		INSERT INTO shipping_addresses (
			order_id, name, address, city, state, postal_code, country, phone
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING address_id
	`

	address.OrderID = order.ID
	err = tx.QueryRow(ctx, insertAddress,
		order.ID,
		address.Name,
		address.Address,
		address.City,
		address.State,
		address.PostalCode,
		address.Country,
		address.Phone,
	).Scan(&address.ID)
	if err != nil {
		return fmt.Errorf("failed to create shipping address: %w", err)
	}
	order.Address = address

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (r *orderRepo) GetByID(ctx context.Context, id int) (*models.Order, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: order ID must be positive", ErrInvalidInput)
	}

	sql := `
		SELECT
			order_id,
			order_number,
			user_id,
			status,
			subtotal,
			shipping,
			total,
			payment_method,
			created_at,
			updated_at
		FROM orders
		WHERE order_id = $1
	`

	var order models.Order

	err := r.db.QueryRow(ctx, sql, id).Scan(
		&order.ID,
		&order.OrderNumber,
		&order.UserID,
		&order.Status,
		&order.Subtotal,
		&order.Shipping,
		&order.Total,
		&order.PaymentMethod,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get order %d: %w", id, err)
	}

	itemsSQL := `
		SELECT order_item_id, order_id, product_id, quantity, unit_price
		FROM order_items
		WHERE order_id = $1
		ORDER BY order_item_id
	`

	rows, err := r.db.Query(ctx, itemsSQL, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get order items for order %d: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.OrderItem
		err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.UnitPrice)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		order.Items = append(order.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to complete row iteration: %w", err)
	}

	addressSQL := `
		SELECT address_id, order_id, name, address, city, state, postal_code, country, phone
		FROM shipping_addresses
		WHERE order_id = $1
	`

	var addr models.ShippingAddress
	err = r.db.QueryRow(ctx, addressSQL, id).Scan(
		&addr.ID,
		&addr.OrderID,
		&addr.Name,
		&addr.Address,
		&addr.City,
		&addr.State,
		&addr.PostalCode,
		&addr.Country,
		&addr.Phone,
	)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to get shipping address for order %d: %w", id, err)
	}
	if err == nil {
		order.Address = &addr
	}

	return &order, nil
}

func (r *orderRepo) GetByUserID(ctx context.Context, userID int) ([]models.Order, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: user ID must be positive", ErrInvalidInput)
	}

	sql := `
		SELECT
			order_id,
			order_number,
			user_id,
			status,
			subtotal,
			shipping,
			total,
			payment_method,
			created_at,
			updated_at
		FROM orders
		WHERE user_id = $1
		ORDER BY order_id DESC
	`

	rows, err := r.db.Query(ctx, sql, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get orders for user %d: %w", userID, err)
	}
	defer rows.Close()

	var orders []models.Order

	for rows.Next() {
		var o models.Order
		err := rows.Scan(
			&o.ID,
			&o.OrderNumber,
			&o.UserID,
			&o.Status,
			&o.Subtotal,
			&o.Shipping,
			&o.Total,
			&o.PaymentMethod,
			&o.CreatedAt,
			&o.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan orders for user %d: %w", userID, err)
		}
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to complete row iteration: %w", err)
	}

	return orders, nil
}

func (r *orderRepo) UpdateStatus(ctx context.Context, id int, status models.OrderStatus) error {
	if id <= 0 {
		return fmt.Errorf("%w: order ID must be positive", ErrInvalidInput)
	}
	if !models.ValidOrderStatus(string(status)) {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	sql := `
		UPDATE orders
		SET status = $1,
			updated_at = $2
		WHERE order_id = $3
	`

	result, err := r.db.Exec(ctx, sql, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update status for order %d: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
