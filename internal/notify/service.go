package notify

import (
	"context"
	"fmt"
	"log"

	"github.com/nbenhadid/foodcart/internal/checkout"
	kafkax "github.com/nbenhadid/foodcart/internal/kafka"
	"github.com/nbenhadid/foodcart/internal/redisx"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
)

// Service turns checkout events into user-facing notification lines. It is
// the stand-in for the app's toast layer: payment outcomes must surface as a
// distinct state, never conflated with plain network errors.
type Service struct {
	Redis       *redis.Client
	ServiceName string
}

// HandleEvent is mounted as the consumer handler for every checkout topic.
func (s *Service) HandleEvent(ctx context.Context, m kafkago.Message) error {
	var env checkout.Envelope
	if err := kafkax.UnmarshalEnvelope(m.Value, &env); err != nil {
		return err
	}

	// dedup by event id; redelivery is normal with manual commits
	dkey := fmt.Sprintf(redisx.KeyDedup, "notify", env.EventID)
	exists, _ := redisx.Exists(ctx, s.Redis, dkey)
	if exists {
		return nil
	}
	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()

	switch env.EventType {
	case checkout.EventOrderSubmitted:
		p, err := kafkax.UnwrapPayload[checkout.OrderSubmittedPayload](env.Payload)
		if err != nil {
			return err
		}
		log.Printf("[notify] order %s submitted: %d item(s), total %s (fee %s)",
			p.OrderID, p.ItemCount, p.Total, p.ServiceFee)

	case checkout.EventPaymentSucceeded:
		p, err := kafkax.UnwrapPayload[checkout.PaymentSucceededPayload](env.Payload)
		if err != nil {
			return err
		}
		log.Printf("[notify] payment confirmed for order %s (ref %s)", p.OrderID, p.PaymentRef)

	case checkout.EventPaymentFailed:
		p, err := kafkax.UnwrapPayload[checkout.PaymentFailedPayload](env.Payload)
		if err != nil {
			return err
		}
		log.Printf("[notify] payment %s for order %s (ref %s), order removed",
			p.Reason, p.OrderID, p.PaymentRef)

	case checkout.EventCheckoutAbandoned:
		p, err := kafkax.UnwrapPayload[checkout.CheckoutAbandonedPayload](env.Payload)
		if err != nil {
			return err
		}
		log.Printf("[notify] checkout for order %s abandoned after %d status checks (ref %s)",
			p.OrderID, p.Attempts, p.PaymentRef)

	default:
		// unknown event versions pass through silently
	}
	return nil
}
