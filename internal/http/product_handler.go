package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/avelis/shopfront/internal/domain"
)

// Catalog is the backend subset serving product browsing.
type Catalog interface {
	ProductsByCategory(ctx context.Context, categoryID int64, page, size int) (*domain.ProductPage, error)
	SearchProducts(ctx context.Context, keyword string, page, size int) (*domain.ProductPage, error)
	Product(ctx context.Context, productID int64) (*domain.Product, error)
}

type ProductHandler struct {
	catalog Catalog
}

func NewProductHandler(catalog Catalog) *ProductHandler {
	return &ProductHandler{catalog: catalog}
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// GET /api/v1/products?categoryId=&keyword=&page=&size=
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 0)
	size := queryInt(r, "size", defaultPageSize)
	if size <= 0 || size > maxPageSize {
		size = defaultPageSize
	}

	if keyword := r.URL.Query().Get("keyword"); keyword != "" {
		products, err := h.catalog.SearchProducts(r.Context(), keyword, page, size)
		if err != nil {
			respondError(w, http.StatusBadGateway, "backend_unavailable", err.Error())
			return
		}
		respondJSON(w, http.StatusOK, products)
		return
	}

	categoryID, err := strconv.ParseInt(r.URL.Query().Get("categoryId"), 10, 64)
	if err != nil || categoryID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_category_id", "categoryId or keyword is required")
		return
	}

	products, err := h.catalog.ProductsByCategory(r.Context(), categoryID, page, size)
	if err != nil {
		respondError(w, http.StatusBadGateway, "backend_unavailable", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, products)
}

// GET /api/v1/products/{productID}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil || productID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product ID must be a positive integer")
		return
	}

	product, err := h.catalog.Product(r.Context(), productID)
	if err != nil {
		respondError(w, http.StatusBadGateway, "backend_unavailable", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, product)
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}
