package payment

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrInvalidAmount = errors.New("payment amount must be positive")

	// ErrPaymentUnavailable marks a transport failure (timeout, network,
	// gateway 5xx). It is retryable and must never be read as a decline.
	ErrPaymentUnavailable = errors.New("payment authorizer unavailable")
)

// DeclinedError is a business decline, reported to the customer verbatim.
type DeclinedError struct {
	Reason string
}

func (e *DeclinedError) Error() string {
	return fmt.Sprintf("payment declined: %s", e.Reason)
}

// Authorization is the yes/no outcome of the payment step. It is ephemeral;
// only the transaction id survives, embedded in the order.
type Authorization struct {
	Approved      bool   `json:"approved"`
	TransactionID string `json:"transaction_id,omitempty"`
	DeclineReason string `json:"decline_reason,omitempty"`
	AmountCents   int64  `json:"amount_cents"`
}

// Authorizer is the pluggable payment boundary. Implementations must respect
// ctx cancellation and return within a bounded time.
type Authorizer interface {
	Authorize(ctx context.Context, amountCents int64, method string) (Authorization, error)
}
