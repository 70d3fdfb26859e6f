package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/feastly/go-food-orders/internal/kafka"
	"github.com/feastly/go-food-orders/internal/orders"
	"github.com/feastly/go-food-orders/internal/payment"
)

// EventPublisher is what the coordinator needs from a kafka producer; tests
// swap in a recorder.
type EventPublisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

// Coordinator runs the submit -> authorize -> persist pipeline and owns all
// status changes. Events go out after the store commit and are never rolled
// back into it.
type Coordinator struct {
	Store          orders.Store
	Authorizer     payment.Authorizer
	PlacedProducer EventPublisher
	StatusProducer EventPublisher
	Policy         Policy
	ServiceName    string
}

// errNoChange flags an idempotent same-status request inside Update's mutate.
var errNoChange = errors.New("status unchanged")

// Submit authorizes payment for the draft and persists the resulting order
// with a fresh id. See SubmitWithID for the idempotent-retry variant.
func (c *Coordinator) Submit(ctx context.Context, draft orders.Draft, method string) (*orders.Order, error) {
	return c.SubmitWithID(ctx, uuid.NewString(), draft, method)
}

// SubmitWithID is Submit with a caller-chosen order id. Retrying a failed
// submission with the same id either completes it or returns the already
// persisted order; it never creates a second record.
func (c *Coordinator) SubmitWithID(ctx context.Context, orderID string, draft orders.Draft, method string) (*orders.Order, error) {
	if len(draft.Items) == 0 {
		return nil, orders.ErrEmptyCart
	}
	for _, it := range draft.Items {
		if it.Quantity < 1 {
			return nil, fmt.Errorf("item %s: quantity must be at least 1", it.ItemID)
		}
		if it.UnitPrice < 0 {
			return nil, fmt.Errorf("item %s: negative unit price", it.ItemID)
		}
		if it.RestaurantID != draft.RestaurantID {
			return nil, fmt.Errorf("item %s: order cannot span restaurants", it.ItemID)
		}
	}

	subtotal := draft.Subtotal()
	tax := orders.Tax(subtotal)
	total := subtotal + tax

	auth, err := c.Authorizer.Authorize(ctx, total, method)
	if err != nil {
		// declines and outages propagate untouched; nothing was persisted
		return nil, err
	}

	o := &orders.Order{
		ID:           orderID,
		CustomerID:   draft.CustomerID,
		RestaurantID: draft.RestaurantID,
		Items:        draft.Items,
		Subtotal:     subtotal,
		Tax:          tax,
		Total:        total,
		Status:       orders.StatusPlaced,
		PaymentTxnID: auth.TransactionID,
	}

	if err := c.Store.Create(ctx, o); err != nil {
		if errors.Is(err, orders.ErrDuplicateOrder) {
			// retry of an already-completed submission
			return c.Store.Get(ctx, orderID)
		}
		// money authorized, no order on record: surface the orphaned txn id
		return nil, &orders.PersistFailedError{OrderID: orderID, TransactionID: auth.TransactionID, Err: err}
	}

	c.publish(c.PlacedProducer, orders.EventOrderPlaced, o.ID, orders.OrderPlacedPayload{
		OrderID:      o.ID,
		CustomerID:   o.CustomerID,
		RestaurantID: o.RestaurantID,
		TotalCents:   o.Total,
		Status:       o.Status,
	})

	return o, nil
}

// RequestStatusChange validates and applies a status change under the store's
// per-order lock, so a stale writer can never leapfrog a newer status.
// Requesting the current status again succeeds as a no-op.
func (c *Coordinator) RequestStatusChange(ctx context.Context, orderID string, next orders.Status) (*orders.Order, error) {
	if !next.Valid() {
		return nil, &orders.TransitionError{To: next}
	}

	var old orders.Status
	updated, err := c.Store.Update(ctx, orderID, func(o *orders.Order) error {
		old = o.Status
		if o.Status == next {
			return errNoChange
		}
		if !c.Policy.allows(o.Status, next) {
			return &orders.TransitionError{From: o.Status, To: next}
		}
		o.Status = next
		return nil
	})
	if errors.Is(err, errNoChange) {
		return c.Store.Get(ctx, orderID)
	}
	if err != nil {
		return nil, err
	}

	c.publish(c.StatusProducer, orders.EventOrderStatusChanged, updated.ID, orders.StatusChangedPayload{
		OrderID:    updated.ID,
		CustomerID: updated.CustomerID,
		OldStatus:  old,
		NewStatus:  updated.Status,
	})

	return updated, nil
}

func (c *Coordinator) Get(ctx context.Context, orderID string) (*orders.Order, error) {
	return c.Store.Get(ctx, orderID)
}

func (c *Coordinator) ListByCustomer(ctx context.Context, customerID string) ([]orders.Order, error) {
	return c.Store.ListByCustomer(ctx, customerID)
}

// publish sends an event fire-and-forget. A lost event never undoes the
// store commit; the fanout side is at-least-once and dedups on event id.
func (c *Coordinator) publish(p EventPublisher, eventType, orderID string, payload any) {
	if p == nil {
		return
	}
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      c.ServiceName,
		CorrelationID: orderID,
		Payload:       kafkax.MustMarshal(payload),
	}
	p.Publish(orders.PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
	log.Debug().Str("event", eventType).Str("order_id", orderID).Msg("event published")
}
