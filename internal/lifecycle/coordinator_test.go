package lifecycle

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feastly/go-food-orders/internal/orders"
	"github.com/feastly/go-food-orders/internal/payment"
)

// recorder captures published envelopes in place of a kafka producer.
type recorder struct {
	mu     sync.Mutex
	events []orders.Envelope
}

func (r *recorder) Publish(key, value []byte, headers ...kafkago.Header) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var env orders.Envelope
	if err := json.Unmarshal(value, &env); err != nil {
		panic(err)
	}
	r.events = append(r.events, env)
}

func (r *recorder) all() []orders.Envelope {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]orders.Envelope(nil), r.events...)
}

func testDraft() orders.Draft {
	return orders.Draft{
		CustomerID:   "c1",
		RestaurantID: "r1",
		Items: []orders.LineItem{
			{ItemID: "p1", Name: "Margherita", UnitPrice: 1000, Quantity: 2, RestaurantID: "r1"},
		},
	}
}

func newTestCoordinator() (*Coordinator, *orders.MemStore, *payment.StubAuthorizer, *recorder, *recorder) {
	store := orders.NewMemStore()
	auth := payment.NewStubAuthorizer()
	placed := &recorder{}
	status := &recorder{}
	c := &Coordinator{
		Store:          store,
		Authorizer:     auth,
		PlacedProducer: placed,
		StatusProducer: status,
		Policy:         DefaultPolicy(),
		ServiceName:    "test",
	}
	return c, store, auth, placed, status
}

func TestSubmit_Success(t *testing.T) {
	c, store, _, placed, _ := newTestCoordinator()
	ctx := context.Background()

	o, err := c.Submit(ctx, testDraft(), "credit-card")
	require.NoError(t, err)
	assert.NotEmpty(t, o.ID)
	assert.Equal(t, int64(2000), o.Subtotal)
	assert.Equal(t, int64(160), o.Tax) // 8% of $20.00
	assert.Equal(t, int64(2160), o.Total)
	assert.Equal(t, orders.StatusPlaced, o.Status)
	assert.NotEmpty(t, o.PaymentTxnID)

	stored, err := store.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.PaymentTxnID, stored.PaymentTxnID)

	events := placed.all()
	require.Len(t, events, 1)
	assert.Equal(t, orders.EventOrderPlaced, events[0].EventType)
	assert.Equal(t, o.ID, events[0].CorrelationID)
}

func TestSubmit_EmptyDraft(t *testing.T) {
	c, _, _, placed, _ := newTestCoordinator()

	_, err := c.Submit(context.Background(), orders.Draft{CustomerID: "c1"}, "credit-card")
	assert.ErrorIs(t, err, orders.ErrEmptyCart)
	assert.Empty(t, placed.all())
}

func TestSubmit_InvalidQuantity(t *testing.T) {
	c, _, _, _, _ := newTestCoordinator()
	d := testDraft()
	d.Items[0].Quantity = 0

	_, err := c.Submit(context.Background(), d, "credit-card")
	assert.Error(t, err)
}

func TestSubmit_MixedRestaurants(t *testing.T) {
	c, _, _, _, _ := newTestCoordinator()
	d := testDraft()
	d.Items = append(d.Items, orders.LineItem{ItemID: "x", UnitPrice: 500, Quantity: 1, RestaurantID: "r2"})

	_, err := c.Submit(context.Background(), d, "credit-card")
	assert.Error(t, err)
}

func TestSubmit_Declined_NothingPersisted(t *testing.T) {
	c, store, auth, placed, _ := newTestCoordinator()
	auth.Decline("bad-card", "insufficient funds")
	ctx := context.Background()

	_, err := c.Submit(ctx, testDraft(), "bad-card")
	var declined *payment.DeclinedError
	require.ErrorAs(t, err, &declined)

	out, err := store.ListByCustomer(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Empty(t, placed.all())
}

func TestSubmit_Unavailable(t *testing.T) {
	c, _, auth, _, _ := newTestCoordinator()
	auth.SetUnavailable(true)

	_, err := c.Submit(context.Background(), testDraft(), "credit-card")
	assert.ErrorIs(t, err, payment.ErrPaymentUnavailable)
}

// failCreateStore makes the persistence step fail after payment succeeds.
type failCreateStore struct {
	*orders.MemStore
	err error
}

func (s *failCreateStore) Create(ctx context.Context, o *orders.Order) error { return s.err }

func TestSubmit_PersistFailureCarriesTransactionID(t *testing.T) {
	c, _, _, placed, _ := newTestCoordinator()
	c.Store = &failCreateStore{MemStore: orders.NewMemStore(), err: errors.New("store down")}

	_, err := c.Submit(context.Background(), testDraft(), "credit-card")
	var pf *orders.PersistFailedError
	require.ErrorAs(t, err, &pf)
	assert.NotEmpty(t, pf.TransactionID)
	assert.NotEmpty(t, pf.OrderID)
	assert.Empty(t, placed.all())
}

func TestSubmitWithID_DuplicateReturnsStoredOrder(t *testing.T) {
	c, _, auth, placed, _ := newTestCoordinator()
	ctx := context.Background()

	first, err := c.SubmitWithID(ctx, "order-1", testDraft(), "credit-card")
	require.NoError(t, err)

	// retry with the same id: one stored record, no double charge recorded
	second, err := c.SubmitWithID(ctx, "order-1", testDraft(), "credit-card")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.PaymentTxnID, second.PaymentTxnID)
	assert.Len(t, placed.all(), 1)
	assert.Len(t, auth.Calls(), 2) // authorization ran again; reconciliation is the gateway's job
}

func TestRequestStatusChange_ForwardSequence(t *testing.T) {
	c, _, _, _, status := newTestCoordinator()
	ctx := context.Background()

	o, err := c.Submit(ctx, testDraft(), "credit-card")
	require.NoError(t, err)

	o2, err := c.RequestStatusChange(ctx, o.ID, orders.StatusPreparing)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusPreparing, o2.Status)

	o3, err := c.RequestStatusChange(ctx, o.ID, orders.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusCompleted, o3.Status)

	events := status.all()
	require.Len(t, events, 2)
	p0, err := decodeStatusPayload(events[0])
	require.NoError(t, err)
	assert.Equal(t, orders.StatusPlaced, p0.OldStatus)
	assert.Equal(t, orders.StatusPreparing, p0.NewStatus)
	p1, err := decodeStatusPayload(events[1])
	require.NoError(t, err)
	assert.Equal(t, orders.StatusPreparing, p1.OldStatus)
	assert.Equal(t, orders.StatusCompleted, p1.NewStatus)
}

func decodeStatusPayload(env orders.Envelope) (orders.StatusChangedPayload, error) {
	var p orders.StatusChangedPayload
	err := json.Unmarshal(env.Payload, &p)
	return p, err
}

func TestRequestStatusChange_SameStatusIsNoOp(t *testing.T) {
	c, store, _, _, status := newTestCoordinator()
	ctx := context.Background()

	o, err := c.Submit(ctx, testDraft(), "credit-card")
	require.NoError(t, err)

	got, err := c.RequestStatusChange(ctx, o.ID, orders.StatusPlaced)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusPlaced, got.Status)
	assert.Empty(t, status.all(), "a no-op must not notify")

	stored, err := store.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Version, "a no-op must not rewrite the record")
}

func TestRequestStatusChange_CompletedRepeatIsNoOp(t *testing.T) {
	c, _, _, _, _ := newTestCoordinator()
	ctx := context.Background()

	o, err := c.Submit(ctx, testDraft(), "credit-card")
	require.NoError(t, err)
	_, err = c.RequestStatusChange(ctx, o.ID, orders.StatusCompleted)
	require.NoError(t, err)

	got, err := c.RequestStatusChange(ctx, o.ID, orders.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusCompleted, got.Status)
}

func TestRequestStatusChange_BackwardFails(t *testing.T) {
	c, _, _, _, _ := newTestCoordinator()
	ctx := context.Background()

	o, err := c.Submit(ctx, testDraft(), "credit-card")
	require.NoError(t, err)
	_, err = c.RequestStatusChange(ctx, o.ID, orders.StatusCompleted)
	require.NoError(t, err)

	_, err = c.RequestStatusChange(ctx, o.ID, orders.StatusPlaced)
	var te *orders.TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, orders.StatusCompleted, te.From)
	assert.Equal(t, orders.StatusPlaced, te.To)

	_, err = c.RequestStatusChange(ctx, o.ID, orders.StatusPreparing)
	assert.ErrorAs(t, err, &te)
}

func TestRequestStatusChange_SkipAheadPolicy(t *testing.T) {
	c, _, _, _, _ := newTestCoordinator()
	ctx := context.Background()

	o, err := c.Submit(ctx, testDraft(), "credit-card")
	require.NoError(t, err)

	// default policy allows PLACED -> COMPLETED in one hop
	got, err := c.RequestStatusChange(ctx, o.ID, orders.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusCompleted, got.Status)

	// stricter kitchens can turn it off
	c.Policy.AllowSkipAhead = false
	o2, err := c.Submit(ctx, testDraft(), "credit-card")
	require.NoError(t, err)
	_, err = c.RequestStatusChange(ctx, o2.ID, orders.StatusCompleted)
	var te *orders.TransitionError
	assert.ErrorAs(t, err, &te)
}

func TestRequestStatusChange_CancellationPolicy(t *testing.T) {
	c, _, _, _, _ := newTestCoordinator()
	ctx := context.Background()

	o, err := c.Submit(ctx, testDraft(), "credit-card")
	require.NoError(t, err)
	got, err := c.RequestStatusChange(ctx, o.ID, orders.StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusCancelled, got.Status)

	// cancellation restricted to PLACED only
	c.Policy.CancelFrom = []orders.Status{orders.StatusPlaced}
	o2, err := c.Submit(ctx, testDraft(), "credit-card")
	require.NoError(t, err)
	_, err = c.RequestStatusChange(ctx, o2.ID, orders.StatusPreparing)
	require.NoError(t, err)
	_, err = c.RequestStatusChange(ctx, o2.ID, orders.StatusCancelled)
	var te *orders.TransitionError
	assert.ErrorAs(t, err, &te)
}

func TestRequestStatusChange_UnknownStatus(t *testing.T) {
	c, _, _, _, _ := newTestCoordinator()
	ctx := context.Background()

	o, err := c.Submit(ctx, testDraft(), "credit-card")
	require.NoError(t, err)

	_, err = c.RequestStatusChange(ctx, o.ID, orders.Status("SHIPPED"))
	var te *orders.TransitionError
	assert.ErrorAs(t, err, &te)
}

func TestRequestStatusChange_NotFound(t *testing.T) {
	c, _, _, _, _ := newTestCoordinator()
	_, err := c.RequestStatusChange(context.Background(), "missing", orders.StatusPreparing)
	assert.ErrorIs(t, err, orders.ErrOrderNotFound)
}

func TestListByCustomer_MostRecentFirst(t *testing.T) {
	c, _, _, _, _ := newTestCoordinator()
	ctx := context.Background()

	first, err := c.Submit(ctx, testDraft(), "credit-card")
	require.NoError(t, err)
	second, err := c.Submit(ctx, testDraft(), "credit-card")
	require.NoError(t, err)

	out, err := c.ListByCustomer(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, out, 2)
	ids := []string{out[0].ID, out[1].ID}
	assert.Contains(t, ids, first.ID)
	assert.Contains(t, ids, second.ID)
	assert.False(t, out[0].CreatedAt.Before(out[1].CreatedAt))
}
