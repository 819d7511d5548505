package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nbenhadid/foodcart/internal/catalog"
	"github.com/nbenhadid/foodcart/internal/redisx"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// Store owns cart persistence. Each user has one durable cart document in
// Redis; every mutation goes through the store so derived totals stay
// consistent. Within a single user the operations are read-modify-write with
// last-write-wins at the storage layer, which matches the single-user,
// single-session usage pattern.
type Store struct {
	rdb *redis.Client
	fee decimal.Decimal
	ttl time.Duration
}

func NewStore(rdb *redis.Client, serviceFee decimal.Decimal, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = redisx.TTLCart
	}
	return &Store{rdb: rdb, fee: serviceFee, ttl: ttl}
}

// ServiceFee is a single global policy, injected configuration rather than
// something computed from cart contents.
func (s *Store) ServiceFee() decimal.Decimal { return s.fee }

// Get loads the user's cart; a missing key is an empty cart, not an error.
func (s *Store) Get(ctx context.Context, userID string) (*Cart, error) {
	key := fmt.Sprintf(redisx.KeyCart, userID)
	raw, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return &Cart{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	var c Cart
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	return &c, nil
}

func (s *Store) save(ctx context.Context, userID string, c *Cart) error {
	key := fmt.Sprintf(redisx.KeyCart, userID)
	if c.IsEmpty() {
		if err := s.rdb.Del(ctx, key).Err(); err != nil {
			return fmt.Errorf("delete cart: %w", err)
		}
		return nil
	}
	b, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.rdb.Set(ctx, key, b, s.ttl).Err(); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

// AddItem resolves the dish's effective price right now (promotional when an
// active promotion is supplied) and creates or increments the matching line.
func (s *Store) AddItem(ctx context.Context, userID string, dish catalog.Dish, promo *catalog.Promotion, quantity int) (*Cart, error) {
	price := catalog.ResolveEffectivePrice(dish, promo, time.Now())
	line, err := NewLine(dish, price, quantity)
	if err != nil {
		return nil, err
	}
	c, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := c.Add(dish.Restaurant, line); err != nil {
		return nil, err
	}
	if err := s.save(ctx, userID, c); err != nil {
		return nil, err
	}
	return c, nil
}

// UpdateQuantity sets a line's quantity (zero or less removes it). Unknown
// ids are a silent no-op.
func (s *Store) UpdateQuantity(ctx context.Context, userID, restaurantID, itemID string, quantity int) (*Cart, error) {
	c, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	c.UpdateQuantity(restaurantID, itemID, quantity)
	if err := s.save(ctx, userID, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Store) RemoveItem(ctx context.Context, userID, restaurantID, itemID string) (*Cart, error) {
	c, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	c.Remove(restaurantID, itemID)
	if err := s.save(ctx, userID, c); err != nil {
		return nil, err
	}
	return c, nil
}

// ClearRestaurant drops one restaurant's group, leaving the rest of the cart
// intact. A cart can span several restaurants checked out independently.
func (s *Store) ClearRestaurant(ctx context.Context, userID, restaurantID string) (*Cart, error) {
	c, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	c.ClearRestaurant(restaurantID)
	if err := s.save(ctx, userID, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Clear drops the whole cart document (logout hook).
func (s *Store) Clear(ctx context.Context, userID string) error {
	key := fmt.Sprintf(redisx.KeyCart, userID)
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

// RestaurantTotal returns the group's subtotal, zero for an unknown id.
func (s *Store) RestaurantTotal(ctx context.Context, userID, restaurantID string) (decimal.Decimal, error) {
	c, err := s.Get(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	return c.RestaurantTotal(restaurantID), nil
}

// GrandTotal is always subtotal plus the service fee, the same policy the
// checkout payload uses; displayed and submitted totals must never diverge.
func (s *Store) GrandTotal(ctx context.Context, userID, restaurantID string) (decimal.Decimal, error) {
	total, err := s.RestaurantTotal(ctx, userID, restaurantID)
	if err != nil {
		return decimal.Zero, err
	}
	return total.Add(s.fee), nil
}

// TotalItemCount backs the global cart badge.
func (s *Store) TotalItemCount(ctx context.Context, userID string) (int, error) {
	c, err := s.Get(ctx, userID)
	if err != nil {
		return 0, err
	}
	return c.TotalItemCount(), nil
}
