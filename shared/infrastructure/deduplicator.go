package infrastructure

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/draftea/order-system/shared/events"
)

// Deduplicator remembers which keys were already processed
type Deduplicator interface {
	// Acquire returns false when key was seen within the retention window
	Acquire(ctx context.Context, key string) (bool, error)
	// Release forgets key so a redelivery is processed again
	Release(ctx context.Context, key string) error
}

// RedisDeduplicator stores processed keys with SETNX and a TTL
type RedisDeduplicator struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

func NewRedisDeduplicator(client redis.Cmdable, prefix string, ttl time.Duration) *RedisDeduplicator {
	return &RedisDeduplicator{client: client, prefix: prefix, ttl: ttl}
}

func (d *RedisDeduplicator) Acquire(ctx context.Context, key string) (bool, error) {
	ok, err := d.client.SetNX(ctx, d.prefix+key, time.Now().UTC().Format(time.RFC3339), d.ttl).Result()
	if err != nil {
		return false, errors.Wrap(err, "failed to acquire dedup key")
	}
	return ok, nil
}

func (d *RedisDeduplicator) Release(ctx context.Context, key string) error {
	return errors.Wrap(d.client.Del(ctx, d.prefix+key).Err(), "failed to release dedup key")
}

// MemoryDeduplicator keeps processed keys in process memory. Expired keys
// are swept at most once per ttl.
type MemoryDeduplicator struct {
	mu        sync.Mutex
	seen      map[string]time.Time
	ttl       time.Duration
	nextSweep time.Time
	now       func() time.Time
}

func NewMemoryDeduplicator(ttl time.Duration) *MemoryDeduplicator {
	return &MemoryDeduplicator{
		seen: make(map[string]time.Time),
		ttl:  ttl,
		now:  time.Now,
	}
}

func (d *MemoryDeduplicator) Acquire(_ context.Context, key string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if at, ok := d.seen[key]; ok && now.Sub(at) < d.ttl {
		return false, nil
	}

	if !now.Before(d.nextSweep) {
		d.sweep(now)
	}

	d.seen[key] = now
	return true, nil
}

func (d *MemoryDeduplicator) sweep(now time.Time) {
	for k, at := range d.seen {
		if now.Sub(at) >= d.ttl {
			delete(d.seen, k)
		}
	}
	d.nextSweep = now.Add(d.ttl)
}

func (d *MemoryDeduplicator) Release(_ context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.seen, key)
	return nil
}

// DedupHandler skips events whose id was already handled.
// When the deduplicator is unreachable the event is processed anyway.
type DedupHandler struct {
	next   events.EventHandler
	dedup  Deduplicator
	logger *zap.Logger
}

var _ events.EventHandler = (*DedupHandler)(nil)

func NewDedupHandler(next events.EventHandler, dedup Deduplicator, logger *zap.Logger) *DedupHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DedupHandler{next: next, dedup: dedup, logger: logger}
}

func (h *DedupHandler) Handle(ctx context.Context, event *events.Event) error {
	key := event.ID.String()

	first, err := h.dedup.Acquire(ctx, key)
	if err != nil {
		h.logger.Warn("dedup unavailable, handling event anyway", zap.String("event_id", key), zap.Error(err))
		return h.next.Handle(ctx, event)
	}

	if !first {
		h.logger.Debug("duplicate event skipped",
			zap.String("event_id", key),
			zap.String("event_type", event.Type.String()),
		)
		return nil
	}

	if err := h.next.Handle(ctx, event); err != nil {
		if rErr := h.dedup.Release(ctx, key); rErr != nil {
			h.logger.Warn("failed to release dedup key", zap.String("event_id", key), zap.Error(rErr))
		}
		return err
	}

	return nil
}
