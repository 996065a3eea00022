package handlers_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-service/internal/models"
	"storefront-service/internal/repository"
)

func TestGetProductPublic(t *testing.T) {
	env := newTestEnv(t)

	env.products.GetByIDFunc = func(ctx context.Context, id int) (*models.Product, error) {
		require.Equal(t, 3, id)
		return &models.Product{ID: 3, Name: "Clay Teapot", Price: decimal.RequireFromString("349.50"), Stock: 12}, nil
	}

	w := env.do(t, http.MethodGet, "/products/3", nil, reqOpts{})

	require.Equal(t, http.StatusOK, w.Code)
	p := decodeBody[models.Product](t, w)
	assert.Equal(t, "Clay Teapot", p.Name)
	assert.True(t, p.Price.Equal(decimal.RequireFromString("349.50")))
}

func TestGetProductNotFound(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/products/99", nil, reqOpts{})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateProductRequiresAdmin(t *testing.T) {
	env := newTestEnv(t)

	called := false
	env.products.CreateFunc = func(ctx context.Context, product *models.Product) error {
		called = true
		return nil
	}

	body := map[string]any{"name": "Clay Teapot", "price": "349.50", "stock": 12}

	w := env.do(t, http.MethodPost, "/products/", body, reqOpts{})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	customer := env.token(t, 5, "c@x.com", models.RoleCustomer)
	w = env.do(t, http.MethodPost, "/products/", body, reqOpts{token: customer})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.False(t, called)

	admin := env.token(t, 1, "admin@x.com", models.RoleAdmin)
	w = env.do(t, http.MethodPost, "/products/", body, reqOpts{token: admin})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, called)
}

func TestCreateProductRejectsTooManyImages(t *testing.T) {
	env := newTestEnv(t)

	called := false
	env.products.CreateFunc = func(ctx context.Context, product *models.Product) error {
		called = true
		return nil
	}

	body := map[string]any{
		"name":  "Clay Teapot",
		"price": "349.50",
		"image_urls": []string{
			"https://img.example/1.jpg",
			"https://img.example/2.jpg",
			"https://img.example/3.jpg",
			"https://img.example/4.jpg",
			"https://img.example/5.jpg",
		},
	}

	admin := env.token(t, 1, "admin@x.com", models.RoleAdmin)
	w := env.do(t, http.MethodPost, "/products/", body, reqOpts{token: admin})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, called)
}

func TestAdjustStock(t *testing.T) {
	env := newTestEnv(t)

	env.products.AdjustStockFunc = func(ctx context.Context, id, change int, movementType string) error {
		assert.Equal(t, 3, id)
		assert.Equal(t, 50, change)
		assert.Equal(t, "restock", movementType)
		return nil
	}
	env.products.GetByIDFunc = func(ctx context.Context, id int) (*models.Product, error) {
		return &models.Product{ID: 3, Name: "Clay Teapot", Price: decimal.RequireFromString("349.50"), Stock: 62}, nil
	}

	admin := env.token(t, 1, "admin@x.com", models.RoleAdmin)
	w := env.do(t, http.MethodPut, "/products/3/stock", map[string]any{
		"change": 50, "reason": "restock",
	}, reqOpts{token: admin})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	p := decodeBody[models.Product](t, w)
	assert.Equal(t, 62, p.Stock)
}

func TestAdjustStockBelowZero(t *testing.T) {
	env := newTestEnv(t)

	env.products.AdjustStockFunc = func(ctx context.Context, id, change int, movementType string) error {
		return repository.ErrInsufficientStock
	}

	admin := env.token(t, 1, "admin@x.com", models.RoleAdmin)
	w := env.do(t, http.MethodPut, "/products/3/stock", map[string]any{
		"change": -100, "reason": "write-off",
	}, reqOpts{token: admin})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody[map[string]any](t, w)
	assert.Equal(t, "insufficient_stock", body["error"])
}

func TestProductMovements(t *testing.T) {
	env := newTestEnv(t)

	orderID := 9
	env.movements.GetByProductIDFunc = func(ctx context.Context, productID int) ([]models.StockMovement, error) {
		require.Equal(t, 3, productID)
		return []models.StockMovement{
			{ID: 1, ProductID: 3, MovementType: "restock", Change: 50, CreatedAt: time.Now()},
			{ID: 2, ProductID: 3, OrderID: &orderID, MovementType: "order", Change: -2, CreatedAt: time.Now()},
		}, nil
	}

	admin := env.token(t, 1, "admin@x.com", models.RoleAdmin)
	w := env.do(t, http.MethodGet, "/products/3/movements", nil, reqOpts{token: admin})

	require.Equal(t, http.StatusOK, w.Code)
	movements := decodeBody[[]models.StockMovement](t, w)
	require.Len(t, movements, 2)
	assert.Equal(t, -2, movements[1].Change)
	require.NotNil(t, movements[1].OrderID)
	assert.Equal(t, 9, *movements[1].OrderID)
}
