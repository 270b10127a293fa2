package lookup

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	"univer-backend/lib/telemetry"

	"github.com/stretchr/testify/require"
)

func TestGetCoalescesConcurrentProducers(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:lookup")
	defer cleanup()

	cache := NewCache[string]()

	var calls atomic.Int64
	produce := func(ctx context.Context) (string, error) {
		calls.Add(1)
		time.Sleep(time.Millisecond * 50)
		return "resolved", nil
	}

	var wg sync.WaitGroup
	results := make([]string, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = cache.Get(context.Background(), "k", produce, "fallback")
		}(i)
	}
	wg.Wait()

	require.EqualValues(t, 1, calls.Load())
	for _, r := range results {
		require.Equal(t, "resolved", r)
	}

	// a second round must hit the cache, not the producer
	require.Equal(t, "resolved", cache.Get(context.Background(), "k", produce, "fallback"))
	require.EqualValues(t, 1, calls.Load())
}

func TestGetCachesFallbackOnFailure(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:lookup")
	defer cleanup()

	cache := NewCache[string]()

	var calls atomic.Int64
	failing := func(ctx context.Context) (string, error) {
		calls.Add(1)
		return "", fmt.Errorf("person search is down")
	}

	got := cache.Get(context.Background(), "Иванов И.П.", failing, "Иванов И.П.")
	require.Equal(t, "Иванов И.П.", got)
	require.EqualValues(t, 1, calls.Load())

	// the fallback is cached permanently, the failing producer is not
	// retried
	got = cache.Get(context.Background(), "Иванов И.П.", failing, "Иванов И.П.")
	require.Equal(t, "Иванов И.П.", got)
	require.EqualValues(t, 1, calls.Load())
}

func TestIndependentKeys(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:lookup")
	defer cleanup()

	cache := NewCache[int]()
	for i := 0; i < 3; i++ {
		i := i
		v := cache.Get(context.Background(), fmt.Sprintf("k%d", i), func(ctx context.Context) (int, error) {
			return i * 10, nil
		}, -1)
		require.Equal(t, i*10, v)
	}
	require.Equal(t, 3, cache.Len())
}
