package domain

import "github.com/shopspring/decimal"

type Customer struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

// Address holds the resolved display names for state and country, not the
// reference-data codes the form works with.
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Country string `json:"country"`
	ZipCode string `json:"zipCode"`
}

type OrderItem struct {
	ProductID int64           `json:"productId"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
}

// OrderSnapshot is the immutable record of one purchase attempt, captured at
// submit time. A retry never reuses a snapshot unless the charge for it has
// already succeeded; the AttemptID is the idempotency key for order placement.
type OrderSnapshot struct {
	AttemptID       string
	Customer        Customer
	ShippingAddress Address
	BillingAddress  Address
	TotalPrice      decimal.Decimal
	TotalQuantity   int
	Items           []OrderItem
}

// AmountMinorUnits is the payment-intent amount: round(totalPrice * 100).
func (s *OrderSnapshot) AmountMinorUnits() int64 {
	return s.TotalPrice.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

type PaymentIntentRequest struct {
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	ReceiptEmail string `json:"receiptEmail"`
}

type PaymentIntentResponse struct {
	ClientSecret string `json:"client_secret"`
}

// BillingDetails is what the payment processor receives alongside the card
// confirmation, derived from the order snapshot's billing address.
type BillingDetails struct {
	Email      string
	Street     string
	City       string
	State      string
	PostalCode string
}

// User is the authenticated shopper as reported by the identity provider.
type User struct {
	Name  string
	Email string
}
