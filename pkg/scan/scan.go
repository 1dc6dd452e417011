// Package scan provides the bounded, cancellable index scan used by the
// ownership and listing aggregators. Both walk densely numbered ledger
// entries (token ids, listing ids) where per-item ordering is irrelevant
// and per-item failures are the caller's business.
package scan

import (
	"context"
	"sync"
)

// DefaultConcurrency bounds in-flight reads when the caller does not
// set a limit, to avoid hammering the RPC endpoint.
const DefaultConcurrency = 8

// Options controls one scan.
type Options struct {
	// Concurrency is the maximum number of in-flight fn calls.
	// Zero means DefaultConcurrency.
	Concurrency int
	// Max truncates the scan to the first Max indices when non-zero.
	// Guards against unbounded latency on very large collections.
	Max uint64
}

// Each calls fn for every index in [0, n), at most opt.Concurrency at a
// time. fn is responsible for handling its own failures; Each only
// returns an error when ctx is cancelled before the scan completes.
func Each(ctx context.Context, n uint64, opt Options, fn func(ctx context.Context, i uint64)) error {
	if opt.Max > 0 && n > opt.Max {
		n = opt.Max
	}
	limit := opt.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup

	for i := uint64(0); i < n; i++ {
		select {
		case <-ctx.Done():
			wg.Wait()
			return ctx.Err()
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func(i uint64) {
			defer func() {
				<-sem
				wg.Done()
			}()
			fn(ctx, i)
		}(i)
	}

	wg.Wait()
	return ctx.Err()
}
