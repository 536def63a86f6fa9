package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/avelis/shopfront/internal/refdata"
)

type RefDataHandler struct {
	refdata *refdata.Service
}

func NewRefDataHandler(svc *refdata.Service) *RefDataHandler {
	return &RefDataHandler{refdata: svc}
}

// GET /api/v1/countries
func (h *RefDataHandler) ListCountries(w http.ResponseWriter, r *http.Request) {
	countries, err := h.refdata.Countries(r.Context())
	if err != nil {
		respondError(w, http.StatusBadGateway, "backend_unavailable", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, countries)
}

// GET /api/v1/countries/{code}/states
func (h *RefDataHandler) ListStates(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		respondError(w, http.StatusBadRequest, "invalid_country_code", "country code is required")
		return
	}

	states, err := h.refdata.States(r.Context(), code)
	if err != nil {
		respondError(w, http.StatusBadGateway, "backend_unavailable", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, states)
}

// GET /api/v1/product-categories
func (h *RefDataHandler) ListProductCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.refdata.ProductCategories(r.Context())
	if err != nil {
		respondError(w, http.StatusBadGateway, "backend_unavailable", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, categories)
}
