package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/feastly/go-food-orders/internal/orders"
	"github.com/feastly/go-food-orders/internal/redisx"
)

// ComposeMessage renders the customer-facing text for a status change.
func ComposeMessage(orderID string, status orders.Status) string {
	return fmt.Sprintf("Update for Order #%s: Your order is now %s!", orderID, status)
}

// Channel is the per-customer pub/sub topic carrying order updates.
func Channel(customerID string) string {
	return fmt.Sprintf(redisx.ChannelOrderUpdates, customerID)
}

// Publisher delivers one message to every subscriber of a channel.
type Publisher interface {
	Publish(ctx context.Context, channel, message string) error
}

// RedisPublisher fans a message out over redis pub/sub.
type RedisPublisher struct {
	Redis *redis.Client
}

func (p *RedisPublisher) Publish(ctx context.Context, channel, message string) error {
	return p.Redis.Publish(ctx, channel, message).Err()
}

type delivery struct {
	channel  string
	message  string
	attempts int
}

// Fanout delivers status-change notifications at-least-once. A failed
// delivery goes onto an internal retry queue drained with backoff by Start;
// it never blocks or fails the status transition that produced it.
type Fanout struct {
	Pub         Publisher
	MaxAttempts int
	Backoff     time.Duration
	retries     chan delivery
}

func NewFanout(pub Publisher) *Fanout {
	return &Fanout{
		Pub:         pub,
		MaxAttempts: 5,
		Backoff:     time.Second,
		retries:     make(chan delivery, 1024),
	}
}

// Start runs the out-of-band retry loop until ctx is cancelled.
func (f *Fanout) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case d := <-f.retries:
				select {
				case <-ctx.Done():
					return
				case <-time.After(f.Backoff * time.Duration(d.attempts)):
				}
				if err := f.Pub.Publish(ctx, d.channel, d.message); err != nil {
					f.requeue(d, err)
					continue
				}
				log.Info().Str("channel", d.channel).Int("attempt", d.attempts).Msg("notification delivered on retry")
			}
		}
	}()
}

// Notify composes and delivers the message for one status change. Delivery
// failure is absorbed: the message is queued for retry and nil is returned so
// the caller can commit the event.
func (f *Fanout) Notify(ctx context.Context, customerID, orderID string, status orders.Status) error {
	msg := ComposeMessage(orderID, status)
	ch := Channel(customerID)
	if err := f.Pub.Publish(ctx, ch, msg); err != nil {
		f.requeue(delivery{channel: ch, message: msg}, err)
	}
	return nil
}

func (f *Fanout) requeue(d delivery, cause error) {
	d.attempts++
	if d.attempts >= f.MaxAttempts {
		log.Error().Err(cause).Str("channel", d.channel).Int("attempts", d.attempts).
			Msg("notification dropped after max attempts")
		return
	}
	select {
	case f.retries <- d:
		log.Warn().Err(cause).Str("channel", d.channel).Int("attempt", d.attempts).
			Msg("notification delivery failed, queued for retry")
	default:
		log.Error().Err(cause).Str("channel", d.channel).Msg("notification retry queue full, dropping")
	}
}
