package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/nbenhadid/foodcart/internal/backend"
	"github.com/nbenhadid/foodcart/internal/cart"
	kafkax "github.com/nbenhadid/foodcart/internal/kafka"
	"github.com/nbenhadid/foodcart/internal/konnect"
	"github.com/nbenhadid/foodcart/internal/redisx"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

var (
	ErrEmptyGroup  = errors.New("no cart group for restaurant")
	ErrPollTimeout = errors.New("payment status polling exhausted")
)

// OrderAPI is the slice of the backend the checkout flow needs.
type OrderAPI interface {
	CreateCommande(ctx context.Context, req backend.CreateCommandeRequest) (*backend.Commande, error)
	DeleteCommande(ctx context.Context, orderID string) error
	PaidCommande(ctx context.Context, orderID string) error
}

// PaymentGateway abstracts the Konnect client.
type PaymentGateway interface {
	InitiatePayment(ctx context.Context, req konnect.InitiatePaymentRequest) (*konnect.InitiatePaymentResponse, error)
	VerifyPaymentStatus(ctx context.Context, paymentRef string) (konnect.PaymentStatus, error)
}

// JournalStore records checkout progress locally.
type JournalStore interface {
	Record(ctx context.Context, e *JournalEntry) error
	SetPaymentRef(ctx context.Context, orderID, paymentRef string) error
	SetStatus(ctx context.Context, orderID string, status Status) error
}

// Publisher matches the kafka producer's Publish signature.
type Publisher interface {
	Publish(topic string, key, value []byte, headers ...kafkago.Header)
}

type Customer struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

type SubmitRequest struct {
	Address     string               `json:"address"`
	Note        string               `json:"note,omitempty"`
	Coordinates *backend.Coordinates `json:"coordinates,omitempty"`
	Customer    Customer             `json:"customer"`
}

type SubmitResult struct {
	OrderID    string          `json:"order_id"`
	Total      decimal.Decimal `json:"total"`
	ServiceFee decimal.Decimal `json:"service_fee"`
	GrandTotal decimal.Decimal `json:"grand_total"`
	PaymentURL string          `json:"payment_url"`
	PaymentRef string          `json:"payment_ref"`
}

// Service drives one restaurant group from cart snapshot to settled payment:
// create the commande on the backend, clear that group from the cart, open a
// Konnect payment, then poll the gateway until the payment settles or the
// attempt budget runs out.
type Service struct {
	Cart     *cart.Store
	Backend  OrderAPI
	Gateway  PaymentGateway
	Journal  JournalStore
	Producer Publisher

	// Redis caches settled payment statuses so repeated status reads stop
	// hitting the gateway. Optional; a nil client disables the cache.
	Redis *redis.Client

	ServiceName     string
	PollInterval    time.Duration
	MaxPollAttempts int
}

// Submit checks out one restaurant group. The group is cleared only after the
// backend returns a non-null order id, so a failed creation loses nothing.
// The submitted total is derived from the same getters the cart view reads;
// displayed and charged amounts cannot diverge.
func (s *Service) Submit(ctx context.Context, userID, restaurantID string, req SubmitRequest) (*SubmitResult, error) {
	c, err := s.Cart.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	g := c.Group(restaurantID)
	if g == nil {
		return nil, ErrEmptyGroup
	}

	total := g.Total()
	fee := s.Cart.ServiceFee()
	grand := total.Add(fee)

	cmd, err := s.Backend.CreateCommande(ctx, backend.CreateCommandeRequest{
		Plats:       g.Lines,
		Address:     req.Address,
		Note:        req.Note,
		Coordinates: req.Coordinates,
		Total:       grand,
		ServiceFee:  fee,
		Restaurant:  restaurantID,
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	itemCount := 0
	for _, l := range g.Lines {
		itemCount += l.Quantity
	}

	if err := s.Journal.Record(ctx, &JournalEntry{
		UserID:       userID,
		RestaurantID: restaurantID,
		OrderID:      cmd.ID,
		Total:        grand,
		ServiceFee:   fee,
		Status:       StatusSubmitting,
	}); err != nil {
		log.Printf("checkout: journal record order=%s: %v", cmd.ID, err)
	}

	if _, err := s.Cart.ClearRestaurant(ctx, userID, restaurantID); err != nil {
		// The order exists; a stale cart group is recoverable, failing the
		// checkout here is not.
		log.Printf("checkout: clear cart group user=%s restaurant=%s: %v", userID, restaurantID, err)
	}

	pay, err := s.Gateway.InitiatePayment(ctx, konnect.InitiatePaymentRequest{
		OrderID:   cmd.ID,
		Amount:    grand,
		FirstName: req.Customer.FirstName,
		LastName:  req.Customer.LastName,
		Email:     req.Customer.Email,
		Phone:     req.Customer.Phone,
		Address:   req.Address,
	})
	if err != nil {
		s.abort(ctx, cmd.ID, "", StatusFailed, "PAYMENT_INIT_FAILED")
		return nil, fmt.Errorf("initiate payment: %w", err)
	}

	if err := s.Journal.SetPaymentRef(ctx, cmd.ID, pay.PaymentRef); err != nil {
		log.Printf("checkout: journal payment ref order=%s: %v", cmd.ID, err)
	}

	s.publish(TopicOrderSubmitted, EventOrderSubmitted, cmd.ID, OrderSubmittedPayload{
		OrderID:      cmd.ID,
		UserID:       userID,
		RestaurantID: restaurantID,
		ItemCount:    itemCount,
		Total:        grand,
		ServiceFee:   fee,
	})

	return &SubmitResult{
		OrderID:    cmd.ID,
		Total:      total,
		ServiceFee: fee,
		GrandTotal: grand,
		PaymentURL: pay.PaymentURL,
		PaymentRef: pay.PaymentRef,
	}, nil
}

// AwaitPayment polls the gateway on a fixed interval until the payment
// settles, the context is cancelled, or MaxPollAttempts lookups have been
// spent. The bound exists so an abandoned payment cannot poll forever; an
// exhausted poll marks the journal row ABANDONED and leaves the commande for
// reconciliation, since the payment may still complete out-of-band.
func (s *Service) AwaitPayment(ctx context.Context, orderID, paymentRef string) (konnect.PaymentStatus, error) {
	if err := s.Journal.SetStatus(ctx, orderID, StatusPolling); err != nil {
		log.Printf("checkout: journal polling order=%s: %v", orderID, err)
	}

	ticker := time.NewTicker(s.PollInterval)
	defer ticker.Stop()

	for attempt := 1; attempt <= s.MaxPollAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}

		status, err := s.Gateway.VerifyPaymentStatus(ctx, paymentRef)
		if err != nil {
			// Transient lookup failures spend an attempt but never abort the
			// poll; the payment may still be settling.
			log.Printf("checkout: verify payment ref=%s attempt=%d: %v", paymentRef, attempt, err)
			continue
		}

		switch status {
		case konnect.StatusSucceeded:
			return status, s.settlePaid(ctx, orderID, paymentRef)
		case konnect.StatusFailed:
			s.abort(ctx, orderID, paymentRef, StatusFailed, "FAILED")
			return status, nil
		case konnect.StatusCanceled:
			s.abort(ctx, orderID, paymentRef, StatusCancelled, "CANCELED")
			return status, nil
		}
	}

	if err := s.Journal.SetStatus(ctx, orderID, StatusAbandoned); err != nil {
		log.Printf("checkout: journal abandoned order=%s: %v", orderID, err)
	}
	s.publish(TopicCheckoutAbandoned, EventCheckoutAbandoned, orderID, CheckoutAbandonedPayload{
		OrderID:    orderID,
		PaymentRef: paymentRef,
		Attempts:   s.MaxPollAttempts,
	})
	return konnect.StatusPending, ErrPollTimeout
}

// VerifyOnce is the one-shot status lookup behind the payment-status
// endpoint; it settles the order if the gateway reports a terminal state.
// A checkout that already finished settles nothing and skips the gateway:
// settlement must happen exactly once no matter how often the status is read.
func (s *Service) VerifyOnce(ctx context.Context, orderID, paymentRef string, current Status) (konnect.PaymentStatus, error) {
	if current.Terminal() {
		return current.PaymentStatus(), nil
	}
	if cached, ok := s.cachedStatus(ctx, paymentRef); ok && cached.Terminal() {
		return cached, nil
	}
	status, err := s.Gateway.VerifyPaymentStatus(ctx, paymentRef)
	if err != nil {
		return "", err
	}
	switch status {
	case konnect.StatusSucceeded:
		return status, s.settlePaid(ctx, orderID, paymentRef)
	case konnect.StatusFailed:
		s.abort(ctx, orderID, paymentRef, StatusFailed, "FAILED")
	case konnect.StatusCanceled:
		s.abort(ctx, orderID, paymentRef, StatusCancelled, "CANCELED")
	}
	return status, nil
}

// settlePaid finalizes a successful payment. The journal transition is
// claimed first: a rejected PAID transition means another poller already
// settled this order, so the backend call and the event are skipped.
func (s *Service) settlePaid(ctx context.Context, orderID, paymentRef string) error {
	if err := s.Journal.SetStatus(ctx, orderID, StatusPaid); err != nil {
		if errors.Is(err, ErrInvalidTransition) {
			return nil
		}
		log.Printf("checkout: journal paid order=%s: %v", orderID, err)
	}
	if err := s.Backend.PaidCommande(ctx, orderID); err != nil {
		return fmt.Errorf("confirm paid: %w", err)
	}
	s.publish(TopicPaymentSucceeded, EventPaymentSucceeded, orderID, PaymentSucceededPayload{
		OrderID:    orderID,
		PaymentRef: paymentRef,
	})
	s.cacheStatus(ctx, paymentRef, konnect.StatusSucceeded)
	return nil
}

// abort finalizes a failed or cancelled payment: claim the journal
// transition, delete the commande so no half-created unpaid order dangles,
// then publish the failure. A rejected transition means the order was
// already finalized and nothing runs twice.
func (s *Service) abort(ctx context.Context, orderID, paymentRef string, status Status, reason string) {
	if err := s.Journal.SetStatus(ctx, orderID, status); err != nil {
		if errors.Is(err, ErrInvalidTransition) {
			return
		}
		log.Printf("checkout: journal %s order=%s: %v", status, orderID, err)
	}
	if err := s.Backend.DeleteCommande(ctx, orderID); err != nil {
		log.Printf("checkout: delete order=%s: %v", orderID, err)
	}
	s.publish(TopicPaymentFailed, EventPaymentFailed, orderID, PaymentFailedPayload{
		OrderID:    orderID,
		PaymentRef: paymentRef,
		Reason:     reason,
	})
	if paymentRef != "" {
		s.cacheStatus(ctx, paymentRef, status.PaymentStatus())
	}
}

// cachedStatus reads a previously settled gateway status for a payment ref.
func (s *Service) cachedStatus(ctx context.Context, paymentRef string) (konnect.PaymentStatus, bool) {
	if s.Redis == nil || paymentRef == "" {
		return "", false
	}
	v, err := s.Redis.Get(ctx, fmt.Sprintf(redisx.KeyPaymentStatus, paymentRef)).Result()
	if err != nil {
		return "", false
	}
	return konnect.PaymentStatus(v), true
}

// cacheStatus records a settled status; written only after settlement side
// effects completed, so a cache hit always means nothing is left to do.
func (s *Service) cacheStatus(ctx context.Context, paymentRef string, status konnect.PaymentStatus) {
	if s.Redis == nil || paymentRef == "" {
		return
	}
	key := fmt.Sprintf(redisx.KeyPaymentStatus, paymentRef)
	if err := s.Redis.Set(ctx, key, string(status), redisx.TTLPaymentStatus).Err(); err != nil {
		log.Printf("checkout: cache payment status ref=%s: %v", paymentRef, err)
	}
}

func (s *Service) publish(topic, eventType, orderID string, payload any) {
	if s.Producer == nil {
		return
	}
	ev := Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.ServiceName,
		CorrelationID: orderID,
		Payload:       kafkax.MustMarshal(payload),
	}
	s.Producer.Publish(topic, PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
