package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront-service/internal/models"
)

type movementRepo struct {
	db *pgxpool.Pool
}

func NewMovementRepository(db *pgxpool.Pool) MovementRepository {
	return &movementRepo{db: db}
}

func (r *movementRepo) GetByProductID(ctx context.Context, productID int) ([]models.StockMovement, error) {
	if productID <= 0 {
		return nil, fmt.Errorf("%w: product ID must be positive", ErrInvalidInput)
	}

	sql := `
		SELECT movement_id, product_id, order_id, movement_type, change, created_at
		FROM stock_movements
		WHERE product_id = $1
		ORDER BY movement_id
	`

	rows, err := r.db.Query(ctx, sql, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to get movements for product %d: %w", productID, err)
	}
	defer rows.Close()

	return scanMovements(rows)
}

func (r *movementRepo) GetByOrderID(ctx context.Context, orderID int) ([]models.StockMovement, error) {
	if orderID <= 0 {
		return nil, fmt.Errorf("%w: order ID must be positive", ErrInvalidInput)
	}

	sql := `
		SELECT movement_id, product_id, order_id, movement_type, change, created_at
		FROM stock_movements
		WHERE order_id = $1
		ORDER BY movement_id
	`

	rows, err := r.db.Query(ctx, sql, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get movements for order %d: %w", orderID, err)
	}
	defer rows.Close()

	return scanMovements(rows)
}

func scanMovements(rows pgx.Rows) ([]models.StockMovement, error) {
	var movements []models.StockMovement

	for rows.Next() {
		var m models.StockMovement
		err := rows.Scan(&m.ID, &m.ProductID, &m.OrderID, &m.MovementType, &m.Change, &m.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stock movement: %w", err)
		}
		movements = append(movements, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to complete row iteration: %w", err)
	}

	return movements, nil
}
