package checkout

import "github.com/nbenhadid/foodcart/internal/konnect"

// Status tracks the client-observed checkout progression for one submitted
// order, from submission through the payment poll to a terminal state.
type Status string

const (
	StatusSubmitting      Status = "SUBMITTING"
	StatusAwaitingPayment Status = "AWAITING_PAYMENT"
	StatusPolling         Status = "POLLING"
	StatusPaid            Status = "PAID"
	StatusFailed          Status = "FAILED"
	StatusCancelled       Status = "CANCELLED"
	StatusAbandoned       Status = "ABANDONED"
)

var validNext = map[Status]map[Status]bool{
	StatusSubmitting:      {StatusAwaitingPayment: true, StatusFailed: true},
	StatusAwaitingPayment: {StatusPolling: true, StatusPaid: true, StatusFailed: true, StatusCancelled: true},
	StatusPolling:         {StatusPaid: true, StatusFailed: true, StatusCancelled: true, StatusAbandoned: true},
	StatusPaid:            {},
	StatusFailed:          {},
	StatusCancelled:       {},
	StatusAbandoned:       {StatusPaid: true, StatusFailed: true, StatusCancelled: true},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

// Terminal reports whether the checkout outcome can no longer change.
// ABANDONED is not terminal: an out-of-band payment may still settle it.
func (s Status) Terminal() bool {
	return s == StatusPaid || s == StatusFailed || s == StatusCancelled
}

// PaymentStatus maps a finished checkout back onto the gateway's vocabulary,
// for status responses answered without a gateway round trip.
func (s Status) PaymentStatus() konnect.PaymentStatus {
	switch s {
	case StatusPaid:
		return konnect.StatusSucceeded
	case StatusFailed:
		return konnect.StatusFailed
	case StatusCancelled:
		return konnect.StatusCanceled
	default:
		return konnect.StatusPending
	}
}
