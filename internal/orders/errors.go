package orders

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCart      = errors.New("cart has no items")
	ErrOrderNotFound  = errors.New("order not found")
	ErrDuplicateOrder = errors.New("order already exists")
)

// TransitionError reports a status change the graph does not allow.
type TransitionError struct {
	From, To Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("illegal status transition %s -> %s", e.From, e.To)
}

// PersistFailedError means payment was authorized but the order could not be
// stored. It carries the orphaned transaction id so the caller can reconcile,
// or retry the same submission with the same order id.
type PersistFailedError struct {
	OrderID       string
	TransactionID string
	Err           error
}

func (e *PersistFailedError) Error() string {
	return fmt.Sprintf("order %s not persisted after payment %s: %v", e.OrderID, e.TransactionID, e.Err)
}

func (e *PersistFailedError) Unwrap() error { return e.Err }
