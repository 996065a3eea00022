package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"storefront-service/internal/models"
	"storefront-service/internal/repository"
)

type ShipmentHandler struct {
	shipments repository.ShipmentRepository
}

func NewShipmentHandler(shipments repository.ShipmentRepository) *ShipmentHandler {
	return &ShipmentHandler{shipments: shipments}
}

type CreateShipmentRequest struct {
	OrderID           int        `json:"order_id" validate:"required,gt=0"`
	Carrier           string     `json:"carrier" validate:"required"`
	TrackingNumber    string     `json:"tracking_number"`
	EstimatedDelivery *time.Time `json:"estimated_delivery"`
}

// Create records a shipment for an existing order. The shipment is stored
// with status SHIPPED and the order is forced to SHIPPED, whatever the
// caller intended.
func (h *ShipmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateShipmentRequest
	if ok := decodeJSON(w, r, &req); !ok {
		return
	}

	shipment := &models.Shipment{
		OrderID:           req.OrderID,
		Carrier:           req.Carrier,
		TrackingNumber:    req.TrackingNumber,
		EstimatedDelivery: req.EstimatedDelivery,
	}

	if err := h.shipments.Create(r.Context(), shipment); err != nil {
		writeRepoError(w, err, "failed to create shipment")
		return
	}

	w.Header().Set("Location", "/shipments/"+strconv.Itoa(shipment.ID))
	writeJSON(w, http.StatusCreated, shipment)
}

func (h *ShipmentHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_id", "invalid shipment id", nil)
		return
	}

	shipment, err := h.shipments.GetByID(r.Context(), id)
	if err != nil {
		writeRepoError(w, err, "failed to get shipment")
		return
	}

	writeJSON(w, http.StatusOK, shipment)
}

func (h *ShipmentHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	shipments, err := h.shipments.GetAll(r.Context())
	if err != nil {
		writeRepoError(w, err, "failed to list shipments")
		return
	}

	writeJSON(w, http.StatusOK, shipments)
}

type UpdateShipmentStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func (h *ShipmentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_id", "invalid shipment id", nil)
		return
	}

	var req UpdateShipmentStatusRequest
	if ok := decodeJSON(w, r, &req); !ok {
		return
	}

	shipment, err := h.shipments.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		writeRepoError(w, err, "failed to update shipment status")
		return
	}

	writeJSON(w, http.StatusOK, shipment)
}

func (h *ShipmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_id", "invalid shipment id", nil)
		return
	}

	if err := h.shipments.Delete(r.Context(), id); err != nil {
		writeRepoError(w, err, "failed to delete shipment")
		return
	}

	writeJSON(w, http.StatusNoContent, nil)
}
