package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/feastly/go-food-orders/internal/kafka"
	"github.com/feastly/go-food-orders/internal/orders"
	"github.com/feastly/go-food-orders/internal/redisx"
)

// Service consumes status-change events and fans them out to the customer's
// update channel. Installed as the kafka consumer handler in cmd/notifier.
type Service struct {
	Fanout      *Fanout
	Redis       *redis.Client
	ServiceName string
}

func (s *Service) HandleStatusChanged(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != orders.EventOrderStatusChanged {
		return nil // ignore
	}

	// dedup by event id; at-least-once delivery re-runs are fine to skip
	dkey := fmt.Sprintf(redisx.KeyDedup, s.ServiceName, env.EventID)
	exists, _ := redisx.Exists(ctx, s.Redis, dkey)
	if exists {
		return nil
	}
	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()

	p, err := kafkax.UnwrapPayload[orders.StatusChangedPayload](env.Payload)
	if err != nil {
		return err
	}

	// refresh the status read cache alongside the notification
	skey := fmt.Sprintf(redisx.KeyOrderStatus, p.OrderID)
	_ = s.Redis.Set(ctx, skey, fmt.Sprintf(`{"status":%q}`, p.NewStatus), redisx.TTLStatusCache).Err()

	return s.Fanout.Notify(ctx, p.CustomerID, p.OrderID, p.NewStatus)
}
