package payment

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// StubAuthorizer approves everything with a fresh transaction id. Tests and
// local runs flip individual methods to decline or the whole thing to fail.
type StubAuthorizer struct {
	mu          sync.Mutex
	declines    map[string]string // method -> reason
	unavailable bool
	calls       []Authorization
}

func NewStubAuthorizer() *StubAuthorizer {
	return &StubAuthorizer{declines: make(map[string]string)}
}

// Decline makes every authorize call with the given method fail as a
// business decline.
func (s *StubAuthorizer) Decline(method, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.declines[method] = reason
}

// SetUnavailable simulates a transport outage.
func (s *StubAuthorizer) SetUnavailable(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unavailable = v
}

// Calls returns every authorization handed out so far.
func (s *StubAuthorizer) Calls() []Authorization {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Authorization(nil), s.calls...)
}

func (s *StubAuthorizer) Authorize(ctx context.Context, amountCents int64, method string) (Authorization, error) {
	if amountCents <= 0 {
		return Authorization{}, ErrInvalidAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unavailable {
		return Authorization{}, ErrPaymentUnavailable
	}
	if reason, ok := s.declines[method]; ok {
		auth := Authorization{Approved: false, DeclineReason: reason, AmountCents: amountCents}
		s.calls = append(s.calls, auth)
		return auth, &DeclinedError{Reason: reason}
	}
	auth := Authorization{
		Approved:      true,
		TransactionID: uuid.NewString(),
		AmountCents:   amountCents,
	}
	s.calls = append(s.calls, auth)
	return auth, nil
}
