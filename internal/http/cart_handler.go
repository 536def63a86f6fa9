package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/avelis/shopfront/internal/cart"
	"github.com/avelis/shopfront/internal/domain"
	"github.com/avelis/shopfront/pkg/metrics"
)

type CartHandler struct {
	carts   *cart.Manager
	metrics *metrics.Metrics
}

func NewCartHandler(carts *cart.Manager, m *metrics.Metrics) *CartHandler {
	return &CartHandler{carts: carts, metrics: m}
}

type AddItemRequestDTO struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	sessionID := getSessionID(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "missing_session", "no session established")
		return
	}

	ledger := h.carts.Ledger(r.Context(), sessionID)
	respondJSON(w, http.StatusOK, ledger.Snapshot())
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	sessionID := getSessionID(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "missing_session", "no session established")
		return
	}

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be positive")
		return
	}
	if req.Quantity < 1 || req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}
	if req.UnitPrice.IsNegative() {
		respondError(w, http.StatusBadRequest, "invalid_unit_price", "unit_price must not be negative")
		return
	}

	ledger := h.carts.Ledger(r.Context(), sessionID)
	ledger.AddItem(r.Context(), domain.LineItem{
		ProductID: req.ProductID,
		Name:      req.Name,
		UnitPrice: req.UnitPrice,
		Quantity:  req.Quantity,
	})
	h.metrics.CountCartOp("add")

	respondJSON(w, http.StatusCreated, ledger.Snapshot())
}

// POST /api/v1/cart/items/{productID}/decrement
func (h *CartHandler) DecrementQuantity(w http.ResponseWriter, r *http.Request) {
	sessionID := getSessionID(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "missing_session", "no session established")
		return
	}

	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil || productID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product ID must be a positive integer")
		return
	}

	ledger := h.carts.Ledger(r.Context(), sessionID)
	ledger.DecrementQuantity(r.Context(), productID)
	h.metrics.CountCartOp("decrement")

	respondJSON(w, http.StatusOK, ledger.Snapshot())
}

// DELETE /api/v1/cart/items/{productID}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	sessionID := getSessionID(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "missing_session", "no session established")
		return
	}

	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil || productID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product ID must be a positive integer")
		return
	}

	ledger := h.carts.Ledger(r.Context(), sessionID)
	ledger.RemoveItem(r.Context(), productID)
	h.metrics.CountCartOp("remove")

	respondJSON(w, http.StatusOK, ledger.Snapshot())
}
