package checkout

import (
	"context"

	"github.com/avelis/shopfront/internal/domain"
)

// OrderGateway is the shop backend: it issues payment intents and records
// completed orders.
type OrderGateway interface {
	CreatePaymentIntent(ctx context.Context, req domain.PaymentIntentRequest) (*domain.PaymentIntentResponse, error)
	// PlaceOrder submits the snapshot and returns the order tracking number.
	// Implementations must treat snapshot.AttemptID as an idempotency key so
	// a replayed submission cannot create a second order.
	PlaceOrder(ctx context.Context, snapshot *domain.OrderSnapshot) (string, error)
}

// PaymentProcessor confirms a card charge against a client secret issued by
// the backend. The tokenized card itself lives inside the processor's widget;
// only its validity state crosses into this package.
type PaymentProcessor interface {
	ConfirmCharge(ctx context.Context, clientSecret string, details domain.BillingDetails) error
}

// Identity reports the authenticated shopper, used only to prefill the email
// field. An error means the field starts empty.
type Identity interface {
	AuthenticatedUser(ctx context.Context) (*domain.User, error)
}

// RegionSource loads the state list for a country when the form's country
// selection changes.
type RegionSource interface {
	States(ctx context.Context, countryCode string) ([]domain.State, error)
}
