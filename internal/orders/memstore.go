package orders

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemStore is the in-memory Store used by tests and single-node runs.
type MemStore struct {
	mu    sync.Mutex
	byID  map[string]*Order
	nowFn func() time.Time
}

func NewMemStore() *MemStore {
	return &MemStore{byID: make(map[string]*Order), nowFn: time.Now}
}

// SetClock overrides the timestamp source; tests use it for ordering checks.
func (s *MemStore) SetClock(now func() time.Time) { s.nowFn = now }

func clone(o *Order) *Order {
	cp := *o
	cp.Items = append([]LineItem(nil), o.Items...)
	return &cp
}

func (s *MemStore) Create(ctx context.Context, o *Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if _, ok := s.byID[o.ID]; ok {
		return ErrDuplicateOrder
	}
	now := s.nowFn().UTC()
	o.CreatedAt = now
	o.UpdatedAt = now
	if o.Status == "" {
		o.Status = StatusPlaced
	}
	o.Version = 1
	s.byID[o.ID] = clone(o)
	return nil
}

func (s *MemStore) Get(ctx context.Context, orderID string) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.byID[orderID]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return clone(o), nil
}

func (s *MemStore) ListByCustomer(ctx context.Context, customerID string) ([]Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Order
	for _, o := range s.byID {
		if o.CustomerID == customerID {
			out = append(out, *clone(o))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemStore) Update(ctx context.Context, orderID string, mutate func(*Order) error) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.byID[orderID]
	if !ok {
		return nil, ErrOrderNotFound
	}
	next := clone(cur)
	if err := mutate(next); err != nil {
		return nil, err
	}
	next.UpdatedAt = s.nowFn().UTC()
	next.Version = cur.Version + 1
	s.byID[orderID] = next
	return clone(next), nil
}
