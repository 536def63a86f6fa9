package checkout

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/avelis/shopfront/internal/cart"
	"github.com/avelis/shopfront/internal/domain"
	"github.com/avelis/shopfront/pkg/metrics"
)

// Orchestrator drives one checkout attempt through the status machine:
// validate, create a payment intent, confirm the charge, submit the order,
// then reset the cart and form. The busy flag makes a re-entrant submit a
// no-op while an attempt is in flight.
//
// When the charge succeeds but the order submission fails, the paid snapshot
// is retained. The next submit replays only the order submission, with the
// same attempt ID, so the customer is never charged twice for one snapshot.
type Orchestrator struct {
	ledger    *cart.Ledger
	gateway   OrderGateway
	processor PaymentProcessor
	log       *zap.Logger
	metrics   *metrics.Metrics

	mu       sync.Mutex
	busy     bool
	status   domain.CheckoutStatus
	paid     *domain.OrderSnapshot
	onStatus func(domain.CheckoutStatus)
}

func NewOrchestrator(ledger *cart.Ledger, gateway OrderGateway, processor PaymentProcessor, log *zap.Logger, m *metrics.Metrics) *Orchestrator {
	return &Orchestrator{
		ledger:    ledger,
		gateway:   gateway,
		processor: processor,
		log:       log,
		metrics:   m,
		status:    domain.CheckoutStatusIdle,
	}
}

// OnStatus registers a status observer for live display. Must be set before
// the first Submit.
func (o *Orchestrator) OnStatus(fn func(domain.CheckoutStatus)) {
	o.onStatus = fn
}

func (o *Orchestrator) Status() domain.CheckoutStatus {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

// Submit runs one checkout attempt to a terminal outcome. The steps are
// strictly sequential; no remote call starts before the previous one has
// resolved.
func (o *Orchestrator) Submit(ctx context.Context, form *Form) domain.CheckoutOutcome {
	if !o.begin() {
		return domain.CheckoutOutcome{Kind: domain.OutcomeBusy, Message: "a checkout is already in progress"}
	}
	defer o.end()

	o.transition(domain.CheckoutStatusValidating)

	if errs := form.Validate(); len(errs) > 0 || !form.CardValid() {
		form.MarkAllTouched()
		o.transition(domain.CheckoutStatusFailed)
		o.log.Info("checkout blocked by validation",
			zap.Int("field_errors", len(errs)), zap.String("card_error", form.CardError()))
		return o.outcome(domain.CheckoutOutcome{
			Kind:    domain.OutcomeValidationError,
			Message: "checkout form is invalid",
		})
	}

	// A prior attempt was charged but never recorded: replay the order
	// submission with the same snapshot instead of charging again.
	if paid := o.paidAttempt(); paid != nil {
		o.log.Info("replaying paid attempt", zap.String("attempt_id", paid.AttemptID))
		return o.submitOrder(context.WithoutCancel(ctx), paid, form)
	}

	snapshot, err := o.buildSnapshot(form)
	if err != nil {
		o.transition(domain.CheckoutStatusFailed)
		return o.outcome(domain.CheckoutOutcome{
			Kind:    domain.OutcomeValidationError,
			Message: err.Error(),
		})
	}

	o.transition(domain.CheckoutStatusAwaitingPaymentIntent)
	intent, err := o.gateway.CreatePaymentIntent(ctx, domain.PaymentIntentRequest{
		Amount:       snapshot.AmountMinorUnits(),
		Currency:     "USD",
		ReceiptEmail: snapshot.Customer.Email,
	})
	if err != nil {
		o.transition(domain.CheckoutStatusFailed)
		o.log.Error("payment intent creation failed",
			zap.String("attempt_id", snapshot.AttemptID), zap.Error(err))
		return o.outcome(domain.CheckoutOutcome{
			Kind:    domain.OutcomePaymentIntentError,
			Message: err.Error(),
		})
	}

	// From here money may move. Detach from caller cancellation so a shopper
	// navigating away cannot strand a successful charge without an order.
	ctx = context.WithoutCancel(ctx)

	o.transition(domain.CheckoutStatusConfirmingPayment)
	if err := o.processor.ConfirmCharge(ctx, intent.ClientSecret, billingDetails(snapshot)); err != nil {
		o.transition(domain.CheckoutStatusFailed)
		o.log.Warn("card confirmation failed",
			zap.String("attempt_id", snapshot.AttemptID), zap.Error(err))
		return o.outcome(domain.CheckoutOutcome{
			Kind:    domain.OutcomePaymentError,
			Message: err.Error(),
		})
	}

	return o.submitOrder(ctx, snapshot, form)
}

func (o *Orchestrator) submitOrder(ctx context.Context, snapshot *domain.OrderSnapshot, form *Form) domain.CheckoutOutcome {
	o.transition(domain.CheckoutStatusSubmittingOrder)

	trackingNumber, err := o.gateway.PlaceOrder(ctx, snapshot)
	if err != nil {
		o.setPaidAttempt(snapshot)
		o.transition(domain.CheckoutStatusFailed)
		o.log.Error("order submission failed after successful charge",
			zap.String("attempt_id", snapshot.AttemptID), zap.Error(err))
		return o.outcome(domain.CheckoutOutcome{
			Kind: domain.OutcomeOrderSubmissionError,
			Message: fmt.Sprintf(
				"your card was charged but the order could not be recorded: %v; submitting again will retry the order without charging you twice", err),
			ChargeSucceeded: true,
		})
	}

	o.setPaidAttempt(nil)
	o.transition(domain.CheckoutStatusCompleted)
	o.ledger.Reset(ctx)
	form.Reset()
	o.log.Info("checkout completed",
		zap.String("attempt_id", snapshot.AttemptID),
		zap.String("tracking_number", trackingNumber))
	return o.outcome(domain.CheckoutOutcome{
		Kind:                domain.OutcomeSuccess,
		OrderTrackingNumber: trackingNumber,
	})
}

// buildSnapshot captures cart and form state into an immutable order record.
// State and country are resolved to their display names.
func (o *Orchestrator) buildSnapshot(form *Form) (*domain.OrderSnapshot, error) {
	cartState := o.ledger.Snapshot()
	if cartState.TotalQuantity == 0 {
		return nil, ErrEmptyCart
	}

	items := make([]domain.OrderItem, len(cartState.Items))
	for i, li := range cartState.Items {
		items[i] = domain.OrderItem{
			ProductID: li.ProductID,
			Name:      li.Name,
			UnitPrice: li.UnitPrice,
			Quantity:  li.Quantity,
		}
	}

	return &domain.OrderSnapshot{
		AttemptID: uuid.New().String(),
		Customer: domain.Customer{
			FirstName: form.FirstName.Value,
			LastName:  form.LastName.Value,
			Email:     form.Email.Value,
		},
		ShippingAddress: resolveAddress(&form.Shipping),
		BillingAddress:  resolveAddress(&form.Billing),
		TotalPrice:      cartState.TotalPrice,
		TotalQuantity:   cartState.TotalQuantity,
		Items:           items,
	}, nil
}

func resolveAddress(addr *AddressForm) domain.Address {
	out := domain.Address{
		Street:  addr.Street.Value,
		City:    addr.City.Value,
		ZipCode: addr.ZipCode.Value,
	}
	if addr.State != nil {
		out.State = addr.State.Name
	}
	if addr.Country != nil {
		out.Country = addr.Country.Name
	}
	return out
}

func billingDetails(snapshot *domain.OrderSnapshot) domain.BillingDetails {
	return domain.BillingDetails{
		Email:      snapshot.Customer.Email,
		Street:     snapshot.BillingAddress.Street,
		City:       snapshot.BillingAddress.City,
		State:      snapshot.BillingAddress.State,
		PostalCode: snapshot.BillingAddress.ZipCode,
	}
}

func (o *Orchestrator) begin() bool {
	o.mu.Lock()
	if o.busy {
		o.mu.Unlock()
		return false
	}
	o.busy = true
	reset := o.status.IsTerminal()
	if reset {
		o.status = domain.CheckoutStatusIdle
	}
	notify := o.onStatus
	o.mu.Unlock()

	if reset && notify != nil {
		notify(domain.CheckoutStatusIdle)
	}
	return true
}

func (o *Orchestrator) end() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.busy = false
}

// transition advances the status machine. The observer runs after the lock is
// released so it may call back into the orchestrator.
func (o *Orchestrator) transition(to domain.CheckoutStatus) {
	o.mu.Lock()
	if !domain.CanTransitionTo(o.status, to) {
		from := o.status
		o.mu.Unlock()
		o.log.Error("illegal checkout status transition",
			zap.Stringer("from", from), zap.Stringer("to", to))
		return
	}
	o.status = to
	notify := o.onStatus
	o.mu.Unlock()

	if notify != nil {
		notify(to)
	}
}

func (o *Orchestrator) paidAttempt() *domain.OrderSnapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.paid
}

func (o *Orchestrator) setPaidAttempt(snapshot *domain.OrderSnapshot) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.paid = snapshot
}

func (o *Orchestrator) outcome(out domain.CheckoutOutcome) domain.CheckoutOutcome {
	o.metrics.CountCheckoutOutcome(string(out.Kind))
	return out
}
