package repository

import (
	"context"
	"time"

	"storefront-service/internal/models"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByPhone(ctx context.Context, phone string) (*models.User, error)

	// SetOTP stores a one-time code and its expiry on the user row,
	// replacing any previous code.
	SetOTP(ctx context.Context, userID int, code string, expiresAt time.Time) error

	// ConsumeOTP validates the submitted code against the stored one and
	// clears it atomically. With markVerified it is the registration flow
	// (sets is_verified, fails ErrAlreadyVerified on a verified account);
	// without it is the OTP-login flow (refreshes last_login).
	ConsumeOTP(ctx context.Context, userID int, code string, markVerified bool) (*models.User, error)
}

type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, id int) (*models.Product, error)
	GetAll(ctx context.Context) ([]models.Product, error)
	GetByCategory(ctx context.Context, category string) ([]models.Product, error)
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id int) error

	// AdjustStock applies a signed stock change (admin restock or manual
	// correction) and records a stock movement. Fails ErrInsufficientStock
	// if the change would take stock below zero.
	AdjustStock(ctx context.Context, id int, change int, movementType string) error
}

type OrderRepository interface {
	// CreateOrder persists the order, its items, shipping address and the
	// stock decrements as one transaction. Item unit prices and the order
	// totals are snapshotted from the catalog inside the transaction.
	CreateOrder(ctx context.Context, order *models.Order, address *models.ShippingAddress) error
	GetByID(ctx context.Context, id int) (*models.Order, error)
	GetByUserID(ctx context.Context, userID int) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id int, status models.OrderStatus) error
}

type ShipmentRepository interface {
	// Create inserts the shipment and forces the referenced order to
	// SHIPPED in the same transaction.
	Create(ctx context.Context, shipment *models.Shipment) error
	GetByID(ctx context.Context, id int) (*models.Shipment, error)
	GetAll(ctx context.Context) ([]models.Shipment, error)

	// UpdateStatus stores the new status verbatim and propagates
	// DELIVERED/SHIPPED/CANCELLED to the parent order.
	UpdateStatus(ctx context.Context, id int, status string) (*models.Shipment, error)

	// Delete removes the shipment only; the parent order keeps its status.
	Delete(ctx context.Context, id int) error
}

type MovementRepository interface {
	GetByProductID(ctx context.Context, productID int) ([]models.StockMovement, error)
	GetByOrderID(ctx context.Context, orderID int) ([]models.StockMovement, error)
}
