package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"storefront-service/internal/api"
	"storefront-service/internal/api/handlers"
	"storefront-service/internal/auth"
	"storefront-service/internal/models"
	"storefront-service/internal/repository"
)

type mockUserRepo struct {
	CreateFunc     func(ctx context.Context, user *models.User) error
	GetByIDFunc    func(ctx context.Context, id int) (*models.User, error)
	GetByEmailFunc func(ctx context.Context, email string) (*models.User, error)
	GetByPhoneFunc func(ctx context.Context, phone string) (*models.User, error)
	SetOTPFunc     func(ctx context.Context, userID int, code string, expiresAt time.Time) error
	ConsumeOTPFunc func(ctx context.Context, userID int, code string, markVerified bool) (*models.User, error)
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, repository.ErrNotFound
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, repository.ErrNotFound
}

func (m *mockUserRepo) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	if m.GetByPhoneFunc != nil {
		return m.GetByPhoneFunc(ctx, phone)
	}
	return nil, repository.ErrNotFound
}

func (m *mockUserRepo) SetOTP(ctx context.Context, userID int, code string, expiresAt time.Time) error {
	if m.SetOTPFunc != nil {
		return m.SetOTPFunc(ctx, userID, code, expiresAt)
	}
	return nil
}

func (m *mockUserRepo) ConsumeOTP(ctx context.Context, userID int, code string, markVerified bool) (*models.User, error) {
	if m.ConsumeOTPFunc != nil {
		return m.ConsumeOTPFunc(ctx, userID, code, markVerified)
	}
	return nil, repository.ErrOTPNotFound
}

type mockOrderRepo struct {
	CreateOrderFunc  func(ctx context.Context, order *models.Order, address *models.ShippingAddress) error
	GetByIDFunc      func(ctx context.Context, id int) (*models.Order, error)
	GetByUserIDFunc  func(ctx context.Context, userID int) ([]models.Order, error)
	UpdateStatusFunc func(ctx context.Context, id int, status models.OrderStatus) error
}

func (m *mockOrderRepo) CreateOrder(ctx context.Context, order *models.Order, address *models.ShippingAddress) error {
	if m.CreateOrderFunc != nil {
		return m.CreateOrderFunc(ctx, order, address)
	}
	return nil
}

func (m *mockOrderRepo) GetByID(ctx context.Context, id int) (*models.Order, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, repository.ErrNotFound
}

func (m *mockOrderRepo) GetByUserID(ctx context.Context, userID int) ([]models.Order, error) {
	if m.GetByUserIDFunc != nil {
		return m.GetByUserIDFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockOrderRepo) UpdateStatus(ctx context.Context, id int, status models.OrderStatus) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, status)
	}
	return nil
}

type mockShipmentRepo struct {
	CreateFunc       func(ctx context.Context, shipment *models.Shipment) error
	GetByIDFunc      func(ctx context.Context, id int) (*models.Shipment, error)
	GetAllFunc       func(ctx context.Context) ([]models.Shipment, error)
	UpdateStatusFunc func(ctx context.Context, id int, status string) (*models.Shipment, error)
	DeleteFunc       func(ctx context.Context, id int) error
}

func (m *mockShipmentRepo) Create(ctx context.Context, shipment *models.Shipment) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, shipment)
	}
	return nil
}

func (m *mockShipmentRepo) GetByID(ctx context.Context, id int) (*models.Shipment, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, repository.ErrNotFound
}

func (m *mockShipmentRepo) GetAll(ctx context.Context) ([]models.Shipment, error) {
	if m.GetAllFunc != nil {
		return m.GetAllFunc(ctx)
	}
	return nil, nil
}

func (m *mockShipmentRepo) UpdateStatus(ctx context.Context, id int, status string) (*models.Shipment, error) {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, status)
	}
	return nil, repository.ErrNotFound
}

func (m *mockShipmentRepo) Delete(ctx context.Context, id int) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

type mockProductRepo struct {
	CreateFunc        func(ctx context.Context, product *models.Product) error
	GetByIDFunc       func(ctx context.Context, id int) (*models.Product, error)
	GetAllFunc        func(ctx context.Context) ([]models.Product, error)
	GetByCategoryFunc func(ctx context.Context, category string) ([]models.Product, error)
	UpdateFunc        func(ctx context.Context, product *models.Product) error
	DeleteFunc        func(ctx context.Context, id int) error
	AdjustStockFunc   func(ctx context.Context, id int, change int, movementType string) error
}

func (m *mockProductRepo) Create(ctx context.Context, product *models.Product) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, product)
	}
	return nil
}

func (m *mockProductRepo) GetByID(ctx context.Context, id int) (*models.Product, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, repository.ErrNotFound
}

func (m *mockProductRepo) GetAll(ctx context.Context) ([]models.Product, error) {
	if m.GetAllFunc != nil {
		return m.GetAllFunc(ctx)
	}
	return nil, nil
}

func (m *mockProductRepo) GetByCategory(ctx context.Context, category string) ([]models.Product, error) {
	if m.GetByCategoryFunc != nil {
		return m.GetByCategoryFunc(ctx, category)
	}
	return nil, nil
}

func (m *mockProductRepo) Update(ctx context.Context, product *models.Product) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, product)
	}
	return nil
}

func (m *mockProductRepo) Delete(ctx context.Context, id int) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *mockProductRepo) AdjustStock(ctx context.Context, id int, change int, movementType string) error {
	if m.AdjustStockFunc != nil {
		return m.AdjustStockFunc(ctx, id, change, movementType)
	}
	return nil
}

type mockMovementRepo struct {
	GetByProductIDFunc func(ctx context.Context, productID int) ([]models.StockMovement, error)
	GetByOrderIDFunc   func(ctx context.Context, orderID int) ([]models.StockMovement, error)
}

func (m *mockMovementRepo) GetByProductID(ctx context.Context, productID int) ([]models.StockMovement, error) {
	if m.GetByProductIDFunc != nil {
		return m.GetByProductIDFunc(ctx, productID)
	}
	return nil, nil
}

func (m *mockMovementRepo) GetByOrderID(ctx context.Context, orderID int) ([]models.StockMovement, error) {
	if m.GetByOrderIDFunc != nil {
		return m.GetByOrderIDFunc(ctx, orderID)
	}
	return nil, nil
}

// testEnv wires mock repositories through the real router and middleware so
// tests exercise routing, auth extraction and error mapping end to end.
type testEnv struct {
	users     *mockUserRepo
	orders    *mockOrderRepo
	shipments *mockShipmentRepo
	products  *mockProductRepo
	movements *mockMovementRepo

	tokens   *auth.TokenIssuer
	adminKey string
	router   http.Handler
}

const testAdminKey = "test-admin-key"

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		users:     &mockUserRepo{},
		orders:    &mockOrderRepo{},
		shipments: &mockShipmentRepo{},
		products:  &mockProductRepo{},
		movements: &mockMovementRepo{},
		tokens:    auth.NewTokenIssuer("test-secret-test-secret-test-secret", time.Hour),
		adminKey:  testAdminKey,
	}
	env.buildRouter()
	return env
}

func (e *testEnv) buildRouter() {
	bootstrap := auth.BootstrapAdmin{Email: "boot@storefront.local", Password: "bootstrap-pw"}
	e.router = api.NewRouter(api.RouterDeps{
		Auth:        handlers.NewAuthHandler(e.users, e.tokens, bootstrap, true, false),
		Products:    handlers.NewProductHandler(e.products, e.movements),
		Orders:      handlers.NewOrderHandler(e.orders, nil),
		Shipments:   handlers.NewShipmentHandler(e.shipments),
		Tokens:      e.tokens,
		AdminAPIKey: e.adminKey,
	})
}

func (e *testEnv) token(t *testing.T, userID int, email string, role models.Role) string {
	t.Helper()
	token, err := e.tokens.Issue(userID, email, role)
	require.NoError(t, err)
	return token
}

type reqOpts struct {
	token    string
	adminKey string
}

func (e *testEnv) do(t *testing.T, method, path string, body any, opts reqOpts) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	r := httptest.NewRequest(method, path, &buf)
	r.Header.Set("Content-Type", "application/json")
	if opts.token != "" {
		r.Header.Set("Authorization", "Bearer "+opts.token)
	}
	if opts.adminKey != "" {
		r.Header.Set("X-Admin-Key", opts.adminKey)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, r)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), "body: %s", w.Body.String())
	return v
}
