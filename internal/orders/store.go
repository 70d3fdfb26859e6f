package orders

import "context"

// Store owns every persisted Order. Callers mutate orders only through Update,
// never by writing back a copy they held across calls.
type Store interface {
	// Create persists a new order atomically. The id must be pre-assigned;
	// a colliding id yields ErrDuplicateOrder, which makes retrying a
	// submission with the same id safe.
	Create(ctx context.Context, o *Order) error

	Get(ctx context.Context, orderID string) (*Order, error)

	// ListByCustomer returns the customer's orders, most recent first,
	// tie-broken by order id for equal timestamps.
	ListByCustomer(ctx context.Context, customerID string) ([]Order, error)

	// Update applies mutate to the current stored record under a per-order
	// exclusion guarantee: no two Update calls on the same id interleave, so
	// read-modify-write logic inside mutate is race-free. On success the
	// record's UpdatedAt and Version are bumped and the result returned.
	Update(ctx context.Context, orderID string, mutate func(*Order) error) (*Order, error)
}
