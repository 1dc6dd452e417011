package scan

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestEachVisitsEveryIndexOnce(t *testing.T) {
	var mu sync.Mutex
	seen := make(map[uint64]int)

	err := Each(context.Background(), 100, Options{Concurrency: 4}, func(_ context.Context, i uint64) {
		mu.Lock()
		seen[i]++
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("Each returned error: %v", err)
	}
	if len(seen) != 100 {
		t.Fatalf("visited %d indices, want 100", len(seen))
	}
	for i, count := range seen {
		if count != 1 {
			t.Fatalf("index %d visited %d times", i, count)
		}
	}
}

func TestEachHonorsConcurrencyLimit(t *testing.T) {
	const limit = 3
	var inFlight, peak int64

	_ = Each(context.Background(), 50, Options{Concurrency: limit}, func(_ context.Context, _ uint64) {
		cur := atomic.AddInt64(&inFlight, 1)
		for {
			old := atomic.LoadInt64(&peak)
			if cur <= old || atomic.CompareAndSwapInt64(&peak, old, cur) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		atomic.AddInt64(&inFlight, -1)
	})

	if p := atomic.LoadInt64(&peak); p > limit {
		t.Fatalf("peak concurrency %d exceeds limit %d", p, limit)
	}
}

func TestEachTruncatesAtMax(t *testing.T) {
	var count int64
	_ = Each(context.Background(), 1000, Options{Max: 25}, func(_ context.Context, _ uint64) {
		atomic.AddInt64(&count, 1)
	})
	if count != 25 {
		t.Fatalf("scanned %d indices, want 25", count)
	}
}

func TestEachStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var count int64

	err := Each(ctx, 10000, Options{Concurrency: 2}, func(_ context.Context, i uint64) {
		if atomic.AddInt64(&count, 1) == 5 {
			cancel()
		}
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if c := atomic.LoadInt64(&count); c >= 10000 {
		t.Fatalf("scan did not stop early, visited %d", c)
	}
}

func TestEachZeroLength(t *testing.T) {
	called := false
	if err := Each(context.Background(), 0, Options{}, func(_ context.Context, _ uint64) {
		called = true
	}); err != nil {
		t.Fatalf("Each returned error: %v", err)
	}
	if called {
		t.Fatal("fn called for empty range")
	}
}
