package gatewaywebhook

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vitacare/telecare-backend/pkg/redis"
)

// CallbackGuard deduplicates gateway callbacks by event id. The gateway
// redelivers callbacks until acknowledged, so every event must be marked
// before processing and released if processing fails.
type CallbackGuard struct {
	store    redis.IdempotencyStore
	ttl      time.Duration
	provider string
}

func NewCallbackGuard(store redis.IdempotencyStore, ttl time.Duration, provider string) (*CallbackGuard, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	if provider == "" {
		return nil, errors.New("provider is required")
	}
	return &CallbackGuard{
		store:    store,
		ttl:      ttl,
		provider: provider,
	}, nil
}

// CheckAndMark returns true when the event was already seen.
func (g *CallbackGuard) CheckAndMark(ctx context.Context, eventID string) (bool, error) {
	if eventID == "" {
		return false, errors.New("event id is required")
	}
	key := g.store.CallbackKey(g.provider, eventID)
	set, err := g.store.SetNX(ctx, key, "1", g.ttl)
	if err != nil {
		return false, fmt.Errorf("set callback key: %w", err)
	}
	return !set, nil
}

// Release removes the mark so a failed event can be redelivered.
func (g *CallbackGuard) Release(ctx context.Context, eventID string) error {
	if eventID == "" {
		return errors.New("event id is required")
	}
	key := g.store.CallbackKey(g.provider, eventID)
	return g.store.Del(ctx, key)
}
