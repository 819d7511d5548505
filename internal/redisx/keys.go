package redisx

import "time"

const (
	// Per-user cart document: cart:{user_id} -> {"restaurant_groups": [...]}
	KeyCart = "cart:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"

	// Last gateway status seen for a payment: payment_status:{payment_ref}
	KeyPaymentStatus = "payment_status:%s"
)

var (
	TTLCart          = 30 * 24 * time.Hour
	TTLDedup         = 48 * time.Hour
	TTLPaymentStatus = 10 * time.Minute
)
