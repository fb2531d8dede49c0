// Package mirror implements the time/byte-bounded speed test and
// best-mirror selection of spec.md §4.5, grounded on original_source's
// crates/maa-installer/src/download/mirror.rs. Unlike the original's
// sequential loop, candidates are tested concurrently via
// golang.org/x/sync/errgroup (the pack's idiomatic bounded-fan-out
// primitive) since nothing about the selection rule depends on trial
// order except the final tie-break, which is restored afterward by
// re-walking the candidates in insertion order.
package mirror

import (
	"context"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// result is BytesOrTime from original_source's mirror.rs: either the
// elapsed time to finish (possibly hitting maxBytes) or the bytes read
// before maxTime elapsed.
type result struct {
	isTime  bool
	elapsed time.Duration
	bytes   int64
}

// better implements the total order of spec.md §4.5: any Time beats any
// Bytes; among Times, smaller elapsed wins; among Bytes, larger count
// wins.
func (a result) better(b result) bool {
	switch {
	case a.isTime && b.isTime:
		return a.elapsed < b.elapsed
	case !a.isTime && !b.isTime:
		return a.bytes > b.bytes
	default:
		return a.isTime
	}
}

const speedtestChunk = 8192

func speedtest(ctx context.Context, client *http.Client, url string, maxBytes int64, maxTime time.Duration) (result, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, maxTime)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return result{}, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return result{}, err
	}
	defer resp.Body.Close()

	var downloaded int64
	buf := make([]byte, speedtestChunk)
	for {
		n, rerr := resp.Body.Read(buf)
		downloaded += int64(n)
		if rerr == io.EOF {
			return result{isTime: true, elapsed: time.Since(start)}, nil
		}
		if rerr != nil {
			if ctx.Err() != nil {
				return result{isTime: false, bytes: downloaded}, nil
			}
			return result{}, rerr
		}
		if downloaded >= maxBytes {
			return result{isTime: true, elapsed: time.Since(start)}, nil
		}
		if time.Since(start) >= maxTime {
			return result{isTime: false, bytes: downloaded}, nil
		}
	}
}

// Options bounds a speed test: MaxTime is the per-URL budget, MaxBytes
// the soft ceiling that promotes a still-running trial to a Time
// result.
type Options struct {
	MaxTime  time.Duration
	MaxBytes int64
}

// Select runs a speed test against primary and every mirror concurrently
// and returns the URL with the best result. If MaxTime is zero or no
// mirrors are given, selection is skipped and primary is returned
// unconditionally (spec.md §4.5).
func Select(ctx context.Context, client *http.Client, log *zap.Logger, primary string, mirrors []string, opts Options) string {
	if opts.MaxTime == 0 || len(mirrors) == 0 {
		return primary
	}

	candidates := append([]string{primary}, mirrors...)
	results := make([]*result, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	for i, url := range candidates {
		i, url := i, url
		g.Go(func() error {
			r, err := speedtest(gctx, client, url, opts.MaxBytes, opts.MaxTime)
			if err != nil {
				log.Debug("mirror speed test failed, skipping", zap.String("url", url), zap.Error(err))
				return nil
			}
			results[i] = &r
			return nil
		})
	}
	// errgroup's Go never returns an error here: failed trials are
	// logged and left nil rather than propagated, matching the
	// "skip, don't abort" rule.
	_ = g.Wait()

	bestIdx := -1
	for i, r := range results {
		if r == nil {
			continue
		}
		if bestIdx == -1 || r.better(*results[bestIdx]) {
			bestIdx = i
		}
	}
	if bestIdx == -1 {
		return primary
	}
	return candidates[bestIdx]
}
