package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"storefront-service/internal/api/middleware"
	"storefront-service/internal/models"
	"storefront-service/internal/repository"
)

// ProductInvalidator lets the order flow drop cached product entries after
// stock has been consumed. Nil when the cache is not wired.
type ProductInvalidator interface {
	InvalidateProduct(ctx context.Context, productID int, category string)
}

type OrderHandler struct {
	orders repository.OrderRepository
	cache  ProductInvalidator
}

func NewOrderHandler(orders repository.OrderRepository, cache ProductInvalidator) *OrderHandler {
	return &OrderHandler{orders: orders, cache: cache}
}

type OrderItemRequest struct {
	ProductID int `json:"product_id" validate:"required,gt=0"`
	Quantity  int `json:"quantity" validate:"required,gt=0"`
}

type AddressRequest struct {
	Name       string `json:"name" validate:"required"`
	Address    string `json:"address" validate:"required"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state" validate:"required"`
	PostalCode string `json:"postal_code" validate:"required"`
	Country    string `json:"country" validate:"required"`
	Phone      string `json:"phone"`
}

type CreateOrderRequest struct {
	Items           []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
	ShippingAddress AddressRequest     `json:"shipping_address" validate:"required"`
	PaymentMethod   string             `json:"payment_method"`
	Shipping        decimal.Decimal    `json:"shipping"`
}

func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "session token required", nil)
		return
	}

	var req CreateOrderRequest
	if ok := decodeJSON(w, r, &req); !ok {
		return
	}

	items := make([]models.OrderItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = models.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		}
	}

	order := &models.Order{
		UserID:        claims.UserID(),
		Items:         items,
		Shipping:      req.Shipping,
		PaymentMethod: req.PaymentMethod,
	}
	address := &models.ShippingAddress{
		Name:       req.ShippingAddress.Name,
		Address:    req.ShippingAddress.Address,
		City:       req.ShippingAddress.City,
		State:      req.ShippingAddress.State,
		PostalCode: req.ShippingAddress.PostalCode,
		Country:    req.ShippingAddress.Country,
		Phone:      req.ShippingAddress.Phone,
	}

	if err := h.orders.CreateOrder(r.Context(), order, address); err != nil {
		writeRepoError(w, err, "failed to create order")
		return
	}

	if h.cache != nil {
		for _, item := range order.Items {
			h.cache.InvalidateProduct(r.Context(), item.ProductID, "")
		}
	}

	w.Header().Set("Location", "/orders/"+strconv.Itoa(order.ID))
	writeJSON(w, http.StatusCreated, order)
}

func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "session token required", nil)
		return
	}

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_id", "invalid order id", nil)
		return
	}

	order, err := h.orders.GetByID(r.Context(), id)
	if err != nil {
		writeRepoError(w, err, "failed to get order")
		return
	}

	if order.UserID != claims.UserID() && claims.Role != models.RoleAdmin {
		writeError(w, http.StatusForbidden, "forbidden", "not your order", nil)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "session token required", nil)
		return
	}

	orders, err := h.orders.GetByUserID(r.Context(), claims.UserID())
	if err != nil {
		writeRepoError(w, err, "failed to list orders")
		return
	}

	writeJSON(w, http.StatusOK, orders)
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_id", "invalid order id", nil)
		return
	}

	var req UpdateOrderStatusRequest
	if ok := decodeJSON(w, r, &req); !ok {
		return
	}

	if err := h.orders.UpdateStatus(r.Context(), id, models.OrderStatus(req.Status)); err != nil {
		writeRepoError(w, err, "failed to update order status")
		return
	}

	order, err := h.orders.GetByID(r.Context(), id)
	if err != nil {
		writeRepoError(w, err, "failed to get order")
		return
	}

	writeJSON(w, http.StatusOK, order)
}
