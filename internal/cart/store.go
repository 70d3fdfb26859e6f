package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/feastly/go-food-orders/internal/redisx"
)

// Store keeps carts server-side between requests, one JSON blob per customer
// with a rolling TTL. Redis is the only copy; a lost cart is re-buildable by
// the customer, so no durable backing is needed.
type Store struct {
	Redis *redis.Client
}

func (s *Store) Load(ctx context.Context, customerID string) (*Cart, error) {
	key := fmt.Sprintf(redisx.KeyCart, customerID)
	raw, err := s.Redis.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return &Cart{}, nil
	}
	if err != nil {
		return nil, err
	}
	var c Cart
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	return &c, nil
}

func (s *Store) Save(ctx context.Context, customerID string, c *Cart) error {
	key := fmt.Sprintf(redisx.KeyCart, customerID)
	b, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return s.Redis.Set(ctx, key, b, redisx.TTLCart).Err()
}

func (s *Store) Clear(ctx context.Context, customerID string) error {
	return s.Redis.Del(ctx, fmt.Sprintf(redisx.KeyCart, customerID)).Err()
}
