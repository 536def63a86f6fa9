package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/avelis/shopfront/internal/cart"
	"github.com/avelis/shopfront/internal/domain"
)

// testSession injects a fixed session ID, standing in for SessionMiddleware.
func testSession(sessionID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), sessionKey, sessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func newCartRouter(t *testing.T) (http.Handler, *cart.Manager) {
	t.Helper()
	carts := cart.NewManager(cart.NewMemoryStore(), zap.NewNop())
	handler := NewCartHandler(carts, nil)

	r := chi.NewRouter()
	r.Use(testSession("session-1"))
	r.Get("/cart", handler.GetCart)
	r.Post("/cart/items", handler.AddItem)
	r.Post("/cart/items/{productID}/decrement", handler.DecrementQuantity)
	r.Delete("/cart/items/{productID}", handler.RemoveItem)
	return r, carts
}

func addItemBody(t *testing.T, productID int64, name, price string, qty int) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"product_id": productID,
		"name":       name,
		"unit_price": price,
		"quantity":   qty,
	})
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

func TestAddItem_Success(t *testing.T) {
	router, _ := newCartRouter(t)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("POST", "/cart/items", addItemBody(t, 1, "mug", "9.99", 2))
	router.ServeHTTP(recorder, request)

	require.Equal(t, http.StatusCreated, recorder.Code)

	var snapshot domain.CartSnapshot
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&snapshot))
	require.Len(t, snapshot.Items, 1)
	assert.Equal(t, 2, snapshot.TotalQuantity)
}

func TestAddItem_InvalidBody(t *testing.T) {
	router, _ := newCartRouter(t)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("POST", "/cart/items", bytes.NewBufferString("{not json"))
	router.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	var response ErrorResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	assert.Equal(t, "invalid_request", response.Code)
}

func TestAddItem_RejectsBadQuantity(t *testing.T) {
	router, _ := newCartRouter(t)

	for _, quantity := range []int{0, -1, 100} {
		recorder := httptest.NewRecorder()
		request := httptest.NewRequest("POST", "/cart/items", addItemBody(t, 1, "mug", "9.99", quantity))
		router.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusBadRequest, recorder.Code, "quantity %d", quantity)
	}
}

func TestDecrement_RemovesAtZero(t *testing.T) {
	router, _ := newCartRouter(t)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest("POST", "/cart/items", addItemBody(t, 1, "mug", "9.99", 1)))
	require.Equal(t, http.StatusCreated, recorder.Code)

	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest("POST", "/cart/items/1/decrement", nil))
	require.Equal(t, http.StatusOK, recorder.Code)

	var snapshot domain.CartSnapshot
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&snapshot))
	assert.Empty(t, snapshot.Items)
	assert.Equal(t, 0, snapshot.TotalQuantity)
}

func TestRemoveItem(t *testing.T) {
	router, _ := newCartRouter(t)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest("POST", "/cart/items", addItemBody(t, 1, "mug", "9.99", 3)))
	require.Equal(t, http.StatusCreated, recorder.Code)

	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest("DELETE", "/cart/items/1", nil))
	require.Equal(t, http.StatusOK, recorder.Code)

	var snapshot domain.CartSnapshot
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&snapshot))
	assert.Empty(t, snapshot.Items)
}

func TestDecrement_InvalidProductID(t *testing.T) {
	router, _ := newCartRouter(t)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest("POST", "/cart/items/abc/decrement", nil))

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestGetCart_MissingSession(t *testing.T) {
	carts := cart.NewManager(cart.NewMemoryStore(), zap.NewNop())
	handler := NewCartHandler(carts, nil)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("GET", "/cart", nil)
	// No session in context
	handler.GetCart(recorder, request)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}
