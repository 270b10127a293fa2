package lookup

import (
	"context"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

var tracer = otel.Tracer("lib/lookup")

// Cache is a process-lifetime cache for expensive secondary lookups
// (staff profile resolution, subject translation tables). The value
// sets involved are small and stable, so there is no eviction.
//
// Concurrent Gets for the same absent key are coalesced: the producer
// runs at most once per key no matter how many callers are waiting on
// it.
type Cache[V any] struct {
	mu     sync.Mutex
	values map[string]V
	flight singleflight.Group
}

func NewCache[V any]() *Cache[V] {
	return &Cache[V]{values: map[string]V{}}
}

// Producer computes the value for a missing key.
type Producer[V any] func(ctx context.Context) (V, error)

// Get returns the cached value for key, producing it first if needed.
//
// A failing producer does not fail the caller: the fallback value is
// cached in its place, permanently, so a broken lookup degrades the
// enrichment once instead of re-running on every request.
func (c *Cache[V]) Get(ctx context.Context, key string, produce Producer[V], fallback V) V {
	c.mu.Lock()
	cached, hit := c.values[key]
	c.mu.Unlock()
	if hit {
		return cached
	}

	out, _, _ := c.flight.Do(key, func() (any, error) {
		// a previous flight may have stored the value between our miss
		// and winning the flight slot
		c.mu.Lock()
		cached, hit := c.values[key]
		c.mu.Unlock()
		if hit {
			return cached, nil
		}

		ctx, span := tracer.Start(ctx, "produce", trace.WithAttributes(
			attribute.String("key", key),
		))
		defer span.End()

		value, err := produce(ctx)
		if err != nil {
			span.RecordError(err)
			slog.WarnContext(ctx, "lookup producer failed, caching fallback", "key", key, "err", err)
			value = fallback
		}

		c.mu.Lock()
		c.values[key] = value
		c.mu.Unlock()
		return value, nil
	})
	return out.(V)
}

// Peek reports whether key is already cached, without producing.
func (c *Cache[V]) Peek(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	return v, ok
}

func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.values)
}
