package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/avelis/shopfront/internal/cart"
	"github.com/avelis/shopfront/internal/domain"
	"github.com/avelis/shopfront/internal/refdata"
)

type stubSource struct{}

func (stubSource) Countries(context.Context) ([]domain.Country, error) {
	return []domain.Country{{Code: "US", Name: "United States"}}, nil
}

func (stubSource) States(_ context.Context, countryCode string) ([]domain.State, error) {
	if countryCode != "US" {
		return nil, nil
	}
	return []domain.State{{Code: "AL", Name: "Alabama"}, {Code: "NY", Name: "New York"}}, nil
}

func (stubSource) ProductCategories(context.Context) ([]domain.ProductCategory, error) {
	return nil, nil
}

type stubGateway struct {
	mu            sync.Mutex
	intentErr     error
	placeErr      error
	placeCalls    int
	intentCalls   int
	lastIntentReq domain.PaymentIntentRequest
}

func (g *stubGateway) CreatePaymentIntent(_ context.Context, req domain.PaymentIntentRequest) (*domain.PaymentIntentResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.intentCalls++
	g.lastIntentReq = req
	if g.intentErr != nil {
		return nil, g.intentErr
	}
	return &domain.PaymentIntentResponse{ClientSecret: "pi_secret"}, nil
}

func (g *stubGateway) PlaceOrder(context.Context, *domain.OrderSnapshot) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.placeCalls++
	if g.placeErr != nil {
		return "", g.placeErr
	}
	return "TRACK-99", nil
}

type stubProcessor struct {
	err error
}

func (p *stubProcessor) ConfirmCharge(context.Context, string, domain.BillingDetails) error {
	return p.err
}

type checkoutFixture struct {
	router    http.Handler
	handler   *CheckoutHandler
	carts     *cart.Manager
	gateway   *stubGateway
	processor *stubProcessor
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()
	carts := cart.NewManager(cart.NewMemoryStore(), zap.NewNop())
	gateway := &stubGateway{}
	processor := &stubProcessor{}
	handler := NewCheckoutHandler(
		carts,
		refdata.NewService(stubSource{}),
		gateway,
		processor,
		ContextIdentity{},
		zap.NewNop(),
		nil,
	)

	r := chi.NewRouter()
	r.Use(testSession("session-1"))
	r.Use(IdentityMiddleware)
	r.Post("/checkout", handler.Submit)
	return &checkoutFixture{router: r, handler: handler, carts: carts, gateway: gateway, processor: processor}
}

func (f *checkoutFixture) orchestratorCount() int {
	f.handler.mu.Lock()
	defer f.handler.mu.Unlock()
	return len(f.handler.orchestrators)
}

func (f *checkoutFixture) fillCart(t *testing.T) {
	t.Helper()
	ledger := f.carts.Ledger(context.Background(), "session-1")
	ledger.AddItem(context.Background(), domain.LineItem{
		ProductID: 1, Name: "mug", UnitPrice: decimal.RequireFromString("9.99"), Quantity: 2,
	})
}

func validCheckoutBody(t *testing.T) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"customer": map[string]string{
			"firstName": "Jane",
			"lastName":  "Doe",
			"email":     "jane.doe@example.com",
		},
		"shippingAddress": map[string]string{
			"street":      "12 Main St",
			"city":        "Albany",
			"state":       "New York",
			"countryCode": "US",
			"zipCode":     "12201",
		},
		"copyShippingToBilling": true,
		"card":                  map[string]any{"complete": true, "error": ""},
	})
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

func (f *checkoutFixture) submit(t *testing.T, body *bytes.Buffer) (*httptest.ResponseRecorder, CheckoutResponseDTO) {
	t.Helper()
	recorder := httptest.NewRecorder()
	f.router.ServeHTTP(recorder, httptest.NewRequest("POST", "/checkout", body))

	var resp CheckoutResponseDTO
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resp))
	return recorder, resp
}

func TestSubmit_Success(t *testing.T) {
	fixture := newCheckoutFixture(t)
	fixture.fillCart(t)

	recorder, resp := fixture.submit(t, validCheckoutBody(t))

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "SUCCESS", resp.Outcome)
	assert.Equal(t, "TRACK-99", resp.OrderTrackingNumber)

	ledger := fixture.carts.Ledger(context.Background(), "session-1")
	assert.Empty(t, ledger.Snapshot().Items)
	assert.Equal(t, 0, fixture.orchestratorCount(), "completed checkout releases its orchestrator")
}

func TestSubmit_PrefillsEmailFromIdentityHeaders(t *testing.T) {
	fixture := newCheckoutFixture(t)
	fixture.fillCart(t)

	body, err := json.Marshal(map[string]any{
		"customer": map[string]string{"firstName": "Jane", "lastName": "Doe"},
		"shippingAddress": map[string]string{
			"street": "12 Main St", "city": "Albany", "state": "New York",
			"countryCode": "US", "zipCode": "12201",
		},
		"copyShippingToBilling": true,
		"card":                  map[string]any{"complete": true},
	})
	require.NoError(t, err)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("POST", "/checkout", bytes.NewBuffer(body))
	request.Header.Set("X-Auth-Email", "jane@example.com")
	request.Header.Set("X-Auth-Name", "Jane Doe")
	fixture.router.ServeHTTP(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "jane@example.com", fixture.gateway.lastIntentReq.ReceiptEmail)
}

func TestSubmit_ValidationErrorListsFields(t *testing.T) {
	fixture := newCheckoutFixture(t)
	fixture.fillCart(t)

	body, err := json.Marshal(map[string]any{
		"customer":              map[string]string{"firstName": "", "lastName": "Doe", "email": "bad"},
		"shippingAddress":       map[string]string{"street": "12 Main St", "city": "Albany", "state": "New York", "countryCode": "US", "zipCode": "12201"},
		"copyShippingToBilling": true,
		"card":                  map[string]any{"complete": true},
	})
	require.NoError(t, err)

	recorder, resp := fixture.submit(t, bytes.NewBuffer(body))

	require.Equal(t, http.StatusUnprocessableEntity, recorder.Code)
	assert.Equal(t, "VALIDATION_ERROR", resp.Outcome)
	require.NotEmpty(t, resp.FieldErrors)

	fields := make([]string, 0, len(resp.FieldErrors))
	for _, fe := range resp.FieldErrors {
		fields = append(fields, fe.Field)
	}
	assert.Contains(t, fields, "customer.firstName")
	assert.Contains(t, fields, "customer.email")

	assert.Equal(t, 0, fixture.gateway.intentCalls)
}

func TestSubmit_EmptyCartIsValidationError(t *testing.T) {
	fixture := newCheckoutFixture(t)

	recorder, resp := fixture.submit(t, validCheckoutBody(t))

	require.Equal(t, http.StatusUnprocessableEntity, recorder.Code)
	assert.Equal(t, "VALIDATION_ERROR", resp.Outcome)
}

func TestSubmit_PaymentDeclined(t *testing.T) {
	fixture := newCheckoutFixture(t)
	fixture.fillCart(t)
	fixture.processor.err = errors.New("Your card was declined.")

	recorder, resp := fixture.submit(t, validCheckoutBody(t))

	require.Equal(t, http.StatusPaymentRequired, recorder.Code)
	assert.Equal(t, "PAYMENT_ERROR", resp.Outcome)
	assert.Equal(t, "Your card was declined.", resp.Message)
}

func TestSubmit_OrderSubmissionFailureReportsCharge(t *testing.T) {
	fixture := newCheckoutFixture(t)
	fixture.fillCart(t)
	fixture.gateway.placeErr = errors.New("backend unavailable")

	recorder, resp := fixture.submit(t, validCheckoutBody(t))

	require.Equal(t, http.StatusBadGateway, recorder.Code)
	assert.Equal(t, "ORDER_SUBMISSION_ERROR", resp.Outcome)
	assert.True(t, resp.ChargeSucceeded)
	assert.Equal(t, 1, fixture.orchestratorCount(), "paid attempt stays resident for replay")

	// Retrying the same session replays the order without a second charge.
	fixture.gateway.placeErr = nil
	recorder, resp = fixture.submit(t, validCheckoutBody(t))

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "SUCCESS", resp.Outcome)
	assert.Equal(t, 1, fixture.gateway.intentCalls)
	assert.Equal(t, 2, fixture.gateway.placeCalls)
	assert.Equal(t, 0, fixture.orchestratorCount())
}

func TestSubmit_InvalidJSON(t *testing.T) {
	fixture := newCheckoutFixture(t)

	recorder := httptest.NewRecorder()
	fixture.router.ServeHTTP(recorder, httptest.NewRequest("POST", "/checkout", bytes.NewBufferString("nope")))

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}
