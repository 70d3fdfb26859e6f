package lifecycle

import "github.com/feastly/go-food-orders/internal/orders"

// Policy configures the edges of the status graph that are deliberate policy
// choices rather than hard invariants: whether the kitchen may jump
// PLACED -> COMPLETED in one hop, and which states a cancellation may leave
// from. Backward moves are never allowed.
type Policy struct {
	AllowSkipAhead bool
	CancelFrom     []orders.Status
}

func DefaultPolicy() Policy {
	return Policy{
		AllowSkipAhead: true,
		CancelFrom:     []orders.Status{orders.StatusPlaced, orders.StatusPreparing},
	}
}

func (p Policy) allows(from, to orders.Status) bool {
	if !orders.CanTransition(from, to) {
		return false
	}
	if to == orders.StatusCancelled {
		for _, s := range p.CancelFrom {
			if s == from {
				return true
			}
		}
		return false
	}
	if !p.AllowSkipAhead && from == orders.StatusPlaced && to == orders.StatusCompleted {
		return false
	}
	return true
}
