package http

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/avelis/shopfront/internal/cart"
	"github.com/avelis/shopfront/internal/checkout"
	"github.com/avelis/shopfront/internal/domain"
	"github.com/avelis/shopfront/internal/refdata"
	"github.com/avelis/shopfront/pkg/metrics"
)

// CheckoutHandler keeps one orchestrator per session so the busy guard spans
// concurrent submits from the same shopper.
type CheckoutHandler struct {
	carts     *cart.Manager
	refdata   *refdata.Service
	gateway   checkout.OrderGateway
	processor checkout.PaymentProcessor
	identity  checkout.Identity
	log       *zap.Logger
	metrics   *metrics.Metrics

	mu            sync.Mutex
	orchestrators map[string]*checkout.Orchestrator
}

func NewCheckoutHandler(
	carts *cart.Manager,
	refdataSvc *refdata.Service,
	gateway checkout.OrderGateway,
	processor checkout.PaymentProcessor,
	identity checkout.Identity,
	log *zap.Logger,
	m *metrics.Metrics,
) *CheckoutHandler {
	return &CheckoutHandler{
		carts:         carts,
		refdata:       refdataSvc,
		gateway:       gateway,
		processor:     processor,
		identity:      identity,
		log:           log,
		metrics:       m,
		orchestrators: make(map[string]*checkout.Orchestrator),
	}
}

type AddressDTO struct {
	Street      string `json:"street"`
	City        string `json:"city"`
	StateName   string `json:"state"`
	CountryCode string `json:"countryCode"`
	ZipCode     string `json:"zipCode"`
}

type SubmitCheckoutRequestDTO struct {
	Customer struct {
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
		Email     string `json:"email"`
	} `json:"customer"`
	ShippingAddress       AddressDTO `json:"shippingAddress"`
	BillingAddress        AddressDTO `json:"billingAddress"`
	CopyShippingToBilling bool       `json:"copyShippingToBilling"`
	Card                  struct {
		Complete bool   `json:"complete"`
		Error    string `json:"error"`
	} `json:"card"`
}

type CheckoutResponseDTO struct {
	Outcome             string                `json:"outcome"`
	OrderTrackingNumber string                `json:"orderTrackingNumber,omitempty"`
	Message             string                `json:"message,omitempty"`
	ChargeSucceeded     bool                  `json:"chargeSucceeded,omitempty"`
	FieldErrors         []checkout.FieldError `json:"fieldErrors,omitempty"`
}

// POST /api/v1/checkout
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	sessionID := getSessionID(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "missing_session", "no session established")
		return
	}

	var req SubmitCheckoutRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	form, err := h.buildForm(r.Context(), &req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_address", err.Error())
		return
	}

	orchestrator := h.orchestrator(r.Context(), sessionID)
	outcome := orchestrator.Submit(r.Context(), form)

	// A completed checkout has no state worth keeping; failed attempts stay so
	// a paid-but-unrecorded order can be replayed.
	if outcome.Kind == domain.OutcomeSuccess {
		h.release(sessionID)
	}

	resp := CheckoutResponseDTO{
		Outcome:             string(outcome.Kind),
		OrderTrackingNumber: outcome.OrderTrackingNumber,
		Message:             outcome.Message,
		ChargeSucceeded:     outcome.ChargeSucceeded,
	}
	if outcome.Kind == domain.OutcomeValidationError {
		resp.FieldErrors = form.Validate()
	}

	respondJSON(w, statusForOutcome(outcome.Kind), resp)
}

func (h *CheckoutHandler) orchestrator(ctx context.Context, sessionID string) *checkout.Orchestrator {
	h.mu.Lock()
	defer h.mu.Unlock()

	if orchestrator, exists := h.orchestrators[sessionID]; exists {
		return orchestrator
	}

	ledger := h.carts.Ledger(ctx, sessionID)
	orchestrator := checkout.NewOrchestrator(ledger, h.gateway, h.processor, h.log, h.metrics)
	h.orchestrators[sessionID] = orchestrator
	return orchestrator
}

func (h *CheckoutHandler) release(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.orchestrators, sessionID)
}

// buildForm maps the request DTO onto the form model, resolving country codes
// through the reference-data service so region lists and display names match
// what the shopper saw.
func (h *CheckoutHandler) buildForm(ctx context.Context, req *SubmitCheckoutRequestDTO) (*checkout.Form, error) {
	form := checkout.NewForm(h.refdata)
	form.PrefillEmail(ctx, h.identity)

	form.FirstName.Value = req.Customer.FirstName
	form.LastName.Value = req.Customer.LastName
	if req.Customer.Email != "" {
		form.Email.Value = req.Customer.Email
	}
	form.SetCardState(req.Card.Complete, req.Card.Error)

	if err := h.fillAddress(ctx, form, checkout.SectionShipping, &req.ShippingAddress); err != nil {
		return nil, err
	}

	if req.CopyShippingToBilling {
		form.SetCopyToBilling(true)
		return form, nil
	}
	if err := h.fillAddress(ctx, form, checkout.SectionBilling, &req.BillingAddress); err != nil {
		return nil, err
	}
	return form, nil
}

func (h *CheckoutHandler) fillAddress(ctx context.Context, form *checkout.Form, section checkout.Section, dto *AddressDTO) error {
	addr := form.Address(section)
	addr.Street.Value = dto.Street
	addr.City.Value = dto.City
	addr.ZipCode.Value = dto.ZipCode

	if dto.CountryCode == "" {
		return nil
	}
	country, err := h.refdata.Country(ctx, dto.CountryCode)
	if err != nil {
		return err
	}
	if country == nil {
		return nil // leave country unset; validation reports it
	}
	if err := form.SelectCountry(ctx, section, *country); err != nil {
		return err
	}
	if dto.StateName != "" {
		form.SelectState(section, dto.StateName)
	}
	return nil
}

func statusForOutcome(kind domain.OutcomeKind) int {
	switch kind {
	case domain.OutcomeSuccess:
		return http.StatusOK
	case domain.OutcomeValidationError:
		return http.StatusUnprocessableEntity
	case domain.OutcomePaymentError:
		return http.StatusPaymentRequired
	case domain.OutcomeBusy:
		return http.StatusConflict
	case domain.OutcomePaymentIntentError, domain.OutcomeOrderSubmissionError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
