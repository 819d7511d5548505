package notify

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/nbenhadid/foodcart/internal/checkout"
	kafkax "github.com/nbenhadid/foodcart/internal/kafka"
	"github.com/nbenhadid/foodcart/internal/redisx"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) (*Service, *miniredis.Miniredis) {
	t.Helper()
	m := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return &Service{Redis: rdb, ServiceName: "notifier-test"}, m
}

func envelopeMessage(t *testing.T, eventID, eventType string, payload any) kafkago.Message {
	t.Helper()
	env := checkout.Envelope{
		EventID:      eventID,
		EventType:    eventType,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Producer:     "test",
		Payload:      kafkax.MustMarshal(payload),
	}
	return kafkago.Message{Value: kafkax.MustMarshal(env)}
}

func TestHandleEventDeduplicates(t *testing.T) {
	svc, m := newService(t)
	msg := envelopeMessage(t, "ev-1", checkout.EventOrderSubmitted, checkout.OrderSubmittedPayload{
		OrderID:   "order-1",
		UserID:    "u1",
		ItemCount: 2,
		Total:     decimal.RequireFromString("22.00"),
	})

	require.NoError(t, svc.HandleEvent(context.Background(), msg))
	assert.True(t, m.Exists(fmt.Sprintf(redisx.KeyDedup, "notify", "ev-1")))

	// redelivery of the same event id is swallowed
	require.NoError(t, svc.HandleEvent(context.Background(), msg))
}

func TestHandleEventAllTypes(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	msgs := []kafkago.Message{
		envelopeMessage(t, "ev-paid", checkout.EventPaymentSucceeded,
			checkout.PaymentSucceededPayload{OrderID: "order-1", PaymentRef: "ref-1"}),
		envelopeMessage(t, "ev-fail", checkout.EventPaymentFailed,
			checkout.PaymentFailedPayload{OrderID: "order-2", PaymentRef: "ref-2", Reason: "FAILED"}),
		envelopeMessage(t, "ev-aband", checkout.EventCheckoutAbandoned,
			checkout.CheckoutAbandonedPayload{OrderID: "order-3", PaymentRef: "ref-3", Attempts: 60}),
		envelopeMessage(t, "ev-unknown", "SomethingNew", map[string]string{"k": "v"}),
	}
	for _, msg := range msgs {
		assert.NoError(t, svc.HandleEvent(ctx, msg))
	}
}

func TestHandleEventRejectsGarbage(t *testing.T) {
	svc, _ := newService(t)
	err := svc.HandleEvent(context.Background(), kafkago.Message{Value: []byte("not json")})
	assert.Error(t, err)
}
