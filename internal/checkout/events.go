package checkout

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventOrderSubmitted    = "OrderSubmitted"
	EventPaymentSucceeded  = "PaymentSucceeded"
	EventPaymentFailed     = "PaymentFailed"
	EventCheckoutAbandoned = "CheckoutAbandoned"
)

// Envelope is the versioned wrapper around every checkout event.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order id
	Payload       json.RawMessage `json:"payload"`
}

type OrderSubmittedPayload struct {
	OrderID      string          `json:"order_id"`
	UserID       string          `json:"user_id"`
	RestaurantID string          `json:"restaurant_id"`
	ItemCount    int             `json:"item_count"`
	Total        decimal.Decimal `json:"total"`
	ServiceFee   decimal.Decimal `json:"service_fee"`
}

type PaymentSucceededPayload struct {
	OrderID    string `json:"order_id"`
	PaymentRef string `json:"payment_ref"`
}

type PaymentFailedPayload struct {
	OrderID    string `json:"order_id"`
	PaymentRef string `json:"payment_ref"`
	Reason     string `json:"reason"` // FAILED | CANCELED
}

type CheckoutAbandonedPayload struct {
	OrderID    string `json:"order_id"`
	PaymentRef string `json:"payment_ref"`
	Attempts   int    `json:"attempts"`
}
