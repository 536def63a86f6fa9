package domain

type OutcomeKind string

const (
	OutcomeSuccess              OutcomeKind = "SUCCESS"
	OutcomeValidationError      OutcomeKind = "VALIDATION_ERROR"
	OutcomePaymentIntentError   OutcomeKind = "PAYMENT_INTENT_ERROR"
	OutcomePaymentError         OutcomeKind = "PAYMENT_ERROR"
	OutcomeOrderSubmissionError OutcomeKind = "ORDER_SUBMISSION_ERROR"
	OutcomeBusy                 OutcomeKind = "BUSY"
)

// CheckoutOutcome is the result of one submit attempt. ChargeSucceeded is
// only set for order-submission failures, where money has already moved and
// the caller must not present the attempt as undone.
type CheckoutOutcome struct {
	Kind                OutcomeKind
	OrderTrackingNumber string
	Message             string
	ChargeSucceeded     bool
}
