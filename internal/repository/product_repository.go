package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront-service/internal/models"
)

const maxProductImages = 4

type productRepo struct {
	db *pgxpool.Pool
}

func NewProductRepository(db *pgxpool.Pool) ProductRepository {
	return &productRepo{db: db}
}

func validateProduct(p *models.Product) error {
	if p.Name == "" {
		return fmt.Errorf("%w: product name required", ErrInvalidInput)
	}
	if !p.Price.IsPositive() {
		return fmt.Errorf("%w: product price must be positive", ErrInvalidInput)
	}
	if p.Stock < 0 {
		return fmt.Errorf("%w: product stock cannot be negative", ErrInvalidInput)
	}
	if len(p.ImageURLs) > maxProductImages {
		return fmt.Errorf("%w: at most %d image urls", ErrInvalidInput, maxProductImages)
	}
	return nil
}

func (r *productRepo) Create(ctx context.Context, p *models.Product) error {
	if err := validateProduct(p); err != nil {
		return err
	}

	sql := `
		INSERT INTO products (
			name,
			price,
			description,
			stock,
			category,
			image_urls,
			created_at,
			updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING product_id
	`

	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.ImageURLs == nil {
		p.ImageURLs = []string{}
	}

	err := r.db.QueryRow(ctx, sql,
		p.Name,
		p.Price,
		p.Description,
		p.Stock,
		p.Category,
		p.ImageURLs,
		p.CreatedAt,
		p.UpdatedAt,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

func (r *productRepo) GetByID(ctx context.Context, id int) (*models.Product, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: product ID must be positive", ErrInvalidInput)
	}

	sql := `
		SELECT
			product_id,
			name,
			price,
			description,
			stock,
			category,
			image_urls,
			created_at,
			updated_at
		FROM products WHERE product_id = $1
	`

	var p models.Product

	err := r.db.QueryRow(ctx, sql, id).Scan(
		&p.ID,
		&p.Name,
		&p.Price,
		&p.Description,
		&p.Stock,
		&p.Category,
		&p.ImageURLs,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get product by id %d: %w", id, err)
	}

	return &p, nil
}

func (r *productRepo) GetAll(ctx context.Context) ([]models.Product, error) {
	sql := `
		SELECT
			product_id,
			name,
			price,
			description,
			stock,
			category,
			image_urls,
			created_at,
			updated_at
		FROM products
		ORDER BY product_id
	`

	rows, err := r.db.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("failed to get all products: %w", err)
	}
	defer rows.Close()

	return scanProducts(rows)
}

func (r *productRepo) GetByCategory(ctx context.Context, category string) ([]models.Product, error) {
	if category == "" {
		return nil, fmt.Errorf("%w: category required", ErrInvalidInput)
	}

	sql := `
		SELECT
			product_id,
			name,
			price,
			description,
			stock,
			category,
			image_urls,
			created_at,
			updated_at
		FROM products
		WHERE category = $1
		ORDER BY product_id
	`

	rows, err := r.db.Query(ctx, sql, category)
	if err != nil {
		return nil, fmt.Errorf("failed to get products by category: %w", err)
	}
	defer rows.Close()

	return scanProducts(rows)
}

func scanProducts(rows pgx.Rows) ([]models.Product, error) {
	var products []models.Product

	for rows.Next() {
		var p models.Product
		err := rows.Scan(
			&p.ID,
			&p.Name,
			&p.Price,
			&p.Description,
			&p.Stock,
			&p.Category,
			&p.ImageURLs,
			&p.CreatedAt,
			&p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan products: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to complete row iteration: %w", err)
	}

	return products, nil
}

func (r *productRepo) Update(ctx context.Context, p *models.Product) error {
	if err := validateProduct(p); err != nil {
		return err
	}
	if p.ID <= 0 {
		return fmt.Errorf("%w: product ID must be positive", ErrInvalidInput)
	}

	sql := `
		UPDATE products
		SET
			name = $1,
			price = $2,
			description = $3,
			stock = $4,
			category = $5,
			image_urls = $6,
			updated_at = $7
		WHERE product_id = $8
		RETURNING updated_at
	`

	err := r.db.QueryRow(ctx, sql,
		p.Name,
		p.Price,
		p.Description,
		p.Stock,
		p.Category,
		p.ImageURLs,
		time.Now(),
		p.ID,
	).Scan(&p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to update product %d: %w", p.ID, err)
	}

	return nil
}

func (r *productRepo) Delete(ctx context.Context, id int) error {
	if id <= 0 {
		return fmt.Errorf("%w: product ID must be positive", ErrInvalidInput)
	}

	sql := `DELETE FROM products WHERE product_id = $1`

	result, err := r.db.Exec(ctx, sql, id)
	if err != nil {
		return fmt.Errorf("failed to delete product %d: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// AdjustStock applies a signed stock change and records a stock movement in
// the same transaction. The UPDATE's stock guard keeps the change from
// taking stock below zero under concurrent writers.
func (r *productRepo) AdjustStock(ctx context.Context, id int, change int, movementType string) error {
	if id <= 0 {
		return fmt.Errorf("%w: product ID must be positive", ErrInvalidInput)
	}
	if change == 0 {
		return fmt.Errorf("%w: stock change cannot be zero", ErrInvalidInput)
	}
	if movementType == "" {
		return fmt.Errorf("%w: movement type required", ErrInvalidInput)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	update := `
		UPDATE products
		SET stock = stock + $1,
			updated_at = $2
		WHERE product_id = $3 AND stock + $1 >= 0
	`

	result, err := tx.Exec(ctx, update, change, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to adjust stock for product %d: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		// Either the product is missing or the change would go negative.
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM products WHERE product_id = $1)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check product %d: %w", id, err)
		}
		if !exists {
			return ErrNotFound
		}
		return fmt.Errorf("%w: product %d", ErrInsufficientStock, id)
	}

	movement := `
		INSERT INTO stock_movements (product_id, movement_type, change, created_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := tx.Exec(ctx, movement, id, movementType, change, time.Now()); err != nil {
		return fmt.Errorf("failed to record stock movement: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
