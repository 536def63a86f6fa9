package domain

type CheckoutStatus string

const (
	CheckoutStatusIdle                  CheckoutStatus = "IDLE"
	CheckoutStatusValidating            CheckoutStatus = "VALIDATING"
	CheckoutStatusAwaitingPaymentIntent CheckoutStatus = "AWAITING_PAYMENT_INTENT"
	CheckoutStatusConfirmingPayment     CheckoutStatus = "CONFIRMING_PAYMENT"
	CheckoutStatusSubmittingOrder       CheckoutStatus = "SUBMITTING_ORDER"
	CheckoutStatusCompleted             CheckoutStatus = "COMPLETED"
	CheckoutStatusFailed                CheckoutStatus = "FAILED"
)

func (s CheckoutStatus) IsTerminal() bool {
	return s == CheckoutStatusCompleted || s == CheckoutStatusFailed
}

// String representation (for logging)
func (s CheckoutStatus) String() string {
	return string(s)
}

// transitions lists the legal next statuses for each status. Validating may
// jump straight to SubmittingOrder when replaying an order whose charge
// already succeeded. Terminal statuses only restart at Idle.
var transitions = map[CheckoutStatus][]CheckoutStatus{
	CheckoutStatusIdle:                  {CheckoutStatusValidating},
	CheckoutStatusValidating:            {CheckoutStatusAwaitingPaymentIntent, CheckoutStatusSubmittingOrder, CheckoutStatusFailed},
	CheckoutStatusAwaitingPaymentIntent: {CheckoutStatusConfirmingPayment, CheckoutStatusFailed},
	CheckoutStatusConfirmingPayment:     {CheckoutStatusSubmittingOrder, CheckoutStatusFailed},
	CheckoutStatusSubmittingOrder:       {CheckoutStatusCompleted, CheckoutStatusFailed},
	CheckoutStatusCompleted:             {CheckoutStatusIdle},
	CheckoutStatusFailed:                {CheckoutStatusIdle},
}

func CanTransitionTo(from, to CheckoutStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
