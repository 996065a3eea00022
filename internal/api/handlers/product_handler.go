package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"storefront-service/internal/models"
	"storefront-service/internal/repository"
)

type ProductHandler struct {
	repo      repository.ProductRepository
	movements repository.MovementRepository
}

func NewProductHandler(repo repository.ProductRepository, movements repository.MovementRepository) *ProductHandler {
	return &ProductHandler{repo: repo, movements: movements}
}

type ProductRequest struct {
	Name        string          `json:"name" validate:"required"`
	Price       decimal.Decimal `json:"price" validate:"required"`
	Description string          `json:"description"`
	Stock       int             `json:"stock" validate:"gte=0"`
	Category    string          `json:"category"`
	ImageURLs   []string        `json:"image_urls" validate:"max=4,dive,url"`
}

func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_id", "invalid product id", nil)
		return
	}

	product, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		writeRepoError(w, err, "failed to get product")
		return
	}

	writeJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	products, err := h.repo.GetAll(r.Context())
	if err != nil {
		writeRepoError(w, err, "failed to get products")
		return
	}

	writeJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) GetByCategory(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")
	if category == "" {
		writeError(w, http.StatusBadRequest, "invalid_input", "category is required", nil)
		return
	}

	products, err := h.repo.GetByCategory(r.Context(), category)
	if err != nil {
		writeRepoError(w, err, "failed to get products")
		return
	}

	writeJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if ok := decodeJSON(w, r, &req); !ok {
		return
	}

	p := models.Product{
		Name:        req.Name,
		Price:       req.Price,
		Description: req.Description,
		Stock:       req.Stock,
		Category:    req.Category,
		ImageURLs:   req.ImageURLs,
	}

	if err := h.repo.Create(r.Context(), &p); err != nil {
		writeRepoError(w, err, "failed to create product")
		return
	}

	w.Header().Set("Location", "/products/"+strconv.Itoa(p.ID))
	writeJSON(w, http.StatusCreated, p)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_id", "invalid product id", nil)
		return
	}

	var req ProductRequest
	if ok := decodeJSON(w, r, &req); !ok {
		return
	}

	p := models.Product{
		ID:          id,
		Name:        req.Name,
		Price:       req.Price,
		Description: req.Description,
		Stock:       req.Stock,
		Category:    req.Category,
		ImageURLs:   req.ImageURLs,
	}

	if err := h.repo.Update(r.Context(), &p); err != nil {
		writeRepoError(w, err, "failed to update product")
		return
	}

	writeJSON(w, http.StatusOK, p)
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_id", "invalid product id", nil)
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		writeRepoError(w, err, "failed to delete product")
		return
	}

	writeJSON(w, http.StatusNoContent, nil)
}

type AdjustStockRequest struct {
	Change int    `json:"change" validate:"required"`
	Reason string `json:"reason" validate:"required"`
}

// AdjustStock applies an admin stock correction (restock or write-off) and
// records a stock movement with the supplied reason.
func (h *ProductHandler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_id", "invalid product id", nil)
		return
	}

	var req AdjustStockRequest
	if ok := decodeJSON(w, r, &req); !ok {
		return
	}

	if err := h.repo.AdjustStock(r.Context(), id, req.Change, req.Reason); err != nil {
		writeRepoError(w, err, "failed to adjust stock")
		return
	}

	product, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		writeRepoError(w, err, "failed to get product")
		return
	}

	writeJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) Movements(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_id", "invalid product id", nil)
		return
	}

	movements, err := h.movements.GetByProductID(r.Context(), id)
	if err != nil {
		writeRepoError(w, err, "failed to get stock movements")
		return
	}

	writeJSON(w, http.StatusOK, movements)
}
