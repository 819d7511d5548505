package catalog

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidPercentage = errors.New("promotion percentage must be between 1 and 100")
	ErrInvalidPrice      = errors.New("price must not be negative")
)

// Promotion is a time-bounded percentage discount attached to a dish.
type Promotion struct {
	PlatID     string    `json:"plat"`
	Percentage int       `json:"pourcentage"`
	Start      time.Time `json:"dateDebut"`
	End        time.Time `json:"dateFin"`
	Message    string    `json:"message,omitempty"`
}

// ActiveAt reports whether the promotion window covers now.
// Both boundaries are inclusive.
func (p Promotion) ActiveAt(now time.Time) bool {
	return !now.Before(p.Start) && !now.After(p.End)
}

var hundred = decimal.NewFromInt(100)

// DiscountedPrice applies a percentage discount to base and rounds half-up
// to 2 decimals. Out-of-range input is rejected, never clamped.
func DiscountedPrice(base decimal.Decimal, percentage int) (decimal.Decimal, error) {
	if percentage < 1 || percentage > 100 {
		return decimal.Zero, ErrInvalidPercentage
	}
	if base.IsNegative() {
		return decimal.Zero, ErrInvalidPrice
	}
	factor := decimal.NewFromInt(int64(100 - percentage))
	return base.Mul(factor).Div(hundred).Round(2), nil
}

// ResolveEffectivePrice returns the price a dish sells for right now: the
// discounted price when an active promotion is supplied, the base price
// otherwise. Promotion windows are time-dependent, so callers must resolve
// at read time rather than cache the result.
func ResolveEffectivePrice(dish Dish, promo *Promotion, now time.Time) decimal.Decimal {
	if promo == nil || !promo.ActiveAt(now) {
		return dish.Price
	}
	price, err := DiscountedPrice(dish.Price, promo.Percentage)
	if err != nil {
		return dish.Price
	}
	return price
}
