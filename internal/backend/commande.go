package backend

import (
	"time"

	"github.com/nbenhadid/foodcart/internal/cart"
	"github.com/shopspring/decimal"
)

// Status is the backend-owned order lifecycle. The engine only displays it;
// transitions are decided server-side and never enforced here.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusAssigned  Status = "assigned" // delivery-role entry point
	StatusEnRoute   Status = "en-route"
	StatusArrived   Status = "arrived"
	StatusDelivered Status = "delivered"
)

var statusRank = map[Status]int{
	StatusPending:   0,
	StatusPreparing: 1,
	StatusReady:     2,
	StatusAssigned:  3,
	StatusEnRoute:   4,
	StatusArrived:   5,
	StatusDelivered: 6,
}

// Rank orders statuses along the delivery progression, for progress display.
// Unknown statuses rank before pending.
func (s Status) Rank() int {
	r, ok := statusRank[s]
	if !ok {
		return -1
	}
	return r
}

type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
	PaymentFailed PaymentStatus = "failed"
)

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// CreateCommandeRequest is the order payload: a snapshot of the restaurant
// group's lines at submission time plus the totals the cart displayed.
type CreateCommandeRequest struct {
	Plats       []cart.Line     `json:"plats"`
	Address     string          `json:"address"`
	Note        string          `json:"note,omitempty"`
	Coordinates *Coordinates    `json:"coordinates,omitempty"`
	Total       decimal.Decimal `json:"total"`
	ServiceFee  decimal.Decimal `json:"serviceFee"`
	Restaurant  string          `json:"restaurant"`
}

type Commande struct {
	ID            string          `json:"_id"`
	Restaurant    string          `json:"restaurant"`
	Total         decimal.Decimal `json:"total"`
	ServiceFee    decimal.Decimal `json:"serviceFee"`
	Status        Status          `json:"status"`
	PaymentStatus PaymentStatus   `json:"paymentStatus"`
	CreatedAt     time.Time       `json:"createdAt"`
}
