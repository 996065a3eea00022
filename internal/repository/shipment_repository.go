package repository

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront-service/internal/models"
)

type shipmentRepo struct {
	db *pgxpool.Pool
}

func NewShipmentRepository(db *pgxpool.Pool) ShipmentRepository {
	return &shipmentRepo{db: db}
}

// NewTrackingNumber builds TRK-<epoch millis>-<0..999> for shipments
// created without a carrier-supplied tracking number.
func NewTrackingNumber(now time.Time) string {
	return fmt.Sprintf("TRK-%d-%d", now.UnixMilli(), rand.Intn(1000))
}

// OrderStatusForShipment maps a shipment status to the order status it
// forces, case-insensitively. PREPARING and IN TRANSIT deliberately do not
// touch the order; only the three terminal-ish states propagate.
func OrderStatusForShipment(shipmentStatus string) (models.OrderStatus, bool) {
	switch strings.ToUpper(shipmentStatus) {
	case models.ShipmentStatusDelivered:
		return models.OrderStatusDelivered, true
	case models.ShipmentStatusShipped:
		return models.OrderStatusShipped, true
	case models.ShipmentStatusCancelled:
		return models.OrderStatusCancelled, true
	}
	return "", false
}

// Create inserts the shipment with status SHIPPED regardless of what the
// caller asked for, and forces the referenced order to SHIPPED in the same
// transaction.
func (r *shipmentRepo) Create(ctx context.Context, shipment *models.Shipment) error {
	if shipment == nil {
		return fmt.Errorf("%w: shipment cannot be nil", ErrInvalidInput)
	}
	if shipment.OrderID <= 0 {
		return fmt.Errorf("%w: order ID must be positive", ErrInvalidInput)
	}
	if shipment.Carrier == "" {
		return fmt.Errorf("%w: carrier required", ErrInvalidInput)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var orderID int
	err = tx.QueryRow(ctx, `SELECT order_id FROM orders WHERE order_id = $1`, shipment.OrderID).Scan(&orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: order %d", ErrNotFound, shipment.OrderID)
		}
		return fmt.Errorf("failed to get order %d: %w", shipment.OrderID, err)
	}

	now := time.Now()
	if shipment.TrackingNumber == "" {
		shipment.TrackingNumber = NewTrackingNumber(now)
	}
	shipment.Status = models.ShipmentStatusShipped
	shipment.CreatedAt = now
	shipment.UpdatedAt = now

	insert := `
		INSERT INTO shipments (
			order_id,
			tracking_number,
			carrier,
			status,
			estimated_delivery,
			created_at,
			updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING shipment_id
	`

	err = tx.QueryRow(ctx, insert,
		shipment.OrderID,
		shipment.TrackingNumber,
		shipment.Carrier,
		shipment.Status,
		shipment.EstimatedDelivery,
		shipment.CreatedAt,
		shipment.UpdatedAt,
	).Scan(&shipment.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: order %d already has a shipment", ErrDuplicate, shipment.OrderID)
		}
		return fmt.Errorf("failed to create shipment: %w", err)
	}

	update := `
		UPDATE orders
		SET status = $1,
			updated_at = $2
		WHERE order_id = $3
	`
	if _, err := tx.Exec(ctx, update, models.OrderStatusShipped, now, shipment.OrderID); err != nil {
		return fmt.Errorf("failed to update order %d status: %w", shipment.OrderID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (r *shipmentRepo) GetByID(ctx context.Context, id int) (*models.Shipment, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: shipment ID must be positive", ErrInvalidInput)
	}

	sql := `
		SELECT
			shipment_id,
			order_id,
			tracking_number,
			carrier,
			status,
			estimated_delivery,
			created_at,
			updated_at
		FROM shipments
		WHERE shipment_id = $1
	`

	var s models.Shipment

	err := r.db.QueryRow(ctx, sql, id).Scan(
		&s.ID,
		&s.OrderID,
		&s.TrackingNumber,
		&s.Carrier,
		&s.Status,
		&s.EstimatedDelivery,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get shipment %d: %w", id, err)
	}

	return &s, nil
}

func (r *shipmentRepo) GetAll(ctx context.Context) ([]models.Shipment, error) {
	sql := `
		SELECT
			shipment_id,
			order_id,
			tracking_number,
			carrier,
			status,
			estimated_delivery,
			created_at,
			updated_at
		FROM shipments
		ORDER BY shipment_id DESC
	`

	rows, err := r.db.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("failed to get all shipments: %w", err)
	}
	defer rows.Close()

	var shipments []models.Shipment

	for rows.Next() {
		var s models.Shipment
		err := rows.Scan(
			&s.ID,
			&s.OrderID,
			&s.TrackingNumber,
			&s.Carrier,
			&s.Status,
			&s.EstimatedDelivery,
			&s.CreatedAt,
			&s.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shipments: %w", err)
		}
		shipments = append(shipments, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to complete row iteration: %w", err)
	}

	return shipments, nil
}

// UpdateStatus stores the caller's status string verbatim, then propagates
// to the parent order when the status maps to one. Both writes share a
// transaction so the shipment and its order cannot drift apart.
func (r *shipmentRepo) UpdateStatus(ctx context.Context, id int, status string) (*models.Shipment, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: shipment ID must be positive", ErrInvalidInput)
	}
	if status == "" {
		return nil, fmt.Errorf("%w: status cannot be empty", ErrInvalidInput)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	update := `
		UPDATE shipments
		SET status = $1,
			updated_at = $2
		WHERE shipment_id = $3
		RETURNING
			shipment_id,
			order_id,
			tracking_number,
			carrier,
			status,
			estimated_delivery,
			created_at,
			updated_at
	`

	var s models.Shipment
	err = tx.QueryRow(ctx, update, status, time.Now(), id).Scan(
		&s.ID,
		&s.OrderID,
		&s.TrackingNumber,
		&s.Carrier,
		&s.Status,
		&s.EstimatedDelivery,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update shipment %d: %w", id, err)
	}

	if orderStatus, ok := OrderStatusForShipment(status); ok {
		orderUpdate := `
			UPDATE orders
			SET status = $1,
				updated_at = $2
			WHERE order_id = $3
		`
		if _, err := tx.Exec(ctx, orderUpdate, orderStatus, time.Now(), s.OrderID); err != nil {
			return nil, fmt.Errorf("failed to propagate status to order %d: %w", s.OrderID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &s, nil
}

// Delete removes the shipment row only. The parent order keeps whatever
// status it had; an order can end up SHIPPED with no shipment on record.
func (r *shipmentRepo) Delete(ctx context.Context, id int) error {
	if id <= 0 {
		return fmt.Errorf("%w: shipment ID must be positive", ErrInvalidInput)
	}

	result, err := r.db.Exec(ctx, `DELETE FROM shipments WHERE shipment_id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete shipment %d: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
