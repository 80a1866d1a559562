package parallel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultMinParallelSize is the tuple count below which Execute runs
// sequentially even when Parallel is set.
const DefaultMinParallelSize = 1024

// chunksPerWorker controls the derived chunk size: enough chunks to balance
// load without flooding the group.
const chunksPerWorker = 4

// pollEvery is the number of tuples ForEachTuple processes between context
// checks inside a chunk.
const pollEvery = 4096

// Range is the half-open tuple range [Begin, End).
type Range struct {
	Begin uint64
	End   uint64
}

// Len returns End - Begin.
func (r Range) Len() uint64 { return r.End - r.Begin }

func (r Range) String() string { return fmt.Sprintf("[%d, %d)", r.Begin, r.End) }

// Algorithm configures a chunked run. The zero value runs sequentially in
// derived chunks.
type Algorithm struct {
	// Parallel enables the worker group.
	Parallel bool
	// Workers bounds the number of concurrent chunks (0 = GOMAXPROCS).
	Workers int
	// ChunkSize is the number of tuples per chunk (0 = derived from N).
	ChunkSize uint64
	// MinParallelSize is the smallest N run in parallel (0 = DefaultMinParallelSize).
	MinParallelSize uint64
	// Progress, if set, is advanced after every completed chunk.
	Progress *ProgressReporter
	// ProgressInterval is the throttle callers use when they build a
	// ProgressReporter for a run (0 = DefaultProgressInterval).
	ProgressInterval time.Duration
	// Logger receives a debug record per run. Defaults to slog.Default().
	Logger *slog.Logger
}

// Stats describes a finished run.
type Stats struct {
	ChunksDispatched uint64
	ChunksCompleted  uint64
	TuplesProcessed  uint64
	Cancelled        bool
}

// ChunkFunc processes one range. Returning nil means the whole range was
// processed.
type ChunkFunc func(ctx context.Context, r Range) error

// partialFunc processes a prefix of one range and returns its length.
type partialFunc func(ctx context.Context, r Range) (uint64, error)

func (a Algorithm) workers() int {
	if a.Workers > 0 {
		return a.Workers
	}
	return runtime.GOMAXPROCS(0)
}

func (a Algorithm) minParallel() uint64 {
	if a.MinParallelSize > 0 {
		return a.MinParallelSize
	}
	return DefaultMinParallelSize
}

// runsParallel reports whether a run over n tuples uses the worker group.
func (a Algorithm) runsParallel(n uint64) bool {
	return a.Parallel && a.workers() > 1 && n >= a.minParallel()
}

func (a Algorithm) chunkSize(n uint64) uint64 {
	if a.ChunkSize > 0 {
		return a.ChunkSize
	}
	if !a.runsParallel(n) {
		return max(n, 1)
	}
	parts := uint64(a.workers() * chunksPerWorker)
	return max((n+parts-1)/parts, 1)
}

// Chunks splits [0, n) into contiguous ranges of at most size tuples.
func Chunks(n, size uint64) []Range {
	if n == 0 {
		return nil
	}
	size = max(size, 1)
	out := make([]Range, 0, (n+size-1)/size)
	for begin := uint64(0); begin < n; begin += size {
		out = append(out, Range{Begin: begin, End: min(begin+size, n)})
	}
	return out
}

// Execute runs fn over [0, n). The first chunk error stops the run and is
// returned. A cancelled context stops dispatch; a run that ends short of n
// tuples because of it is reported through Stats.Cancelled, not as an
// error, including when fn itself returns the context's error.
func (a Algorithm) Execute(ctx context.Context, n uint64, fn ChunkFunc) (Stats, error) {
	return a.execute(ctx, n, func(ctx context.Context, r Range) (uint64, error) {
		if err := fn(ctx, r); err != nil {
			return 0, err
		}
		return r.Len(), nil
	})
}

func (a Algorithm) execute(ctx context.Context, n uint64, fn partialFunc) (Stats, error) {
	var dispatched, completed, processed atomic.Uint64
	runChunk := func(ctx context.Context, r Range) error {
		done, err := fn(ctx, r)
		if done > 0 {
			processed.Add(done)
			if a.Progress != nil {
				a.Progress.Add(done)
			}
		}
		if err != nil {
			return fmt.Errorf("chunk %s: %w", r, err)
		}
		if done == r.Len() {
			completed.Add(1)
		}
		return nil
	}

	chunks := Chunks(n, a.chunkSize(n))
	parallel := a.runsParallel(n)
	var err error
	if parallel {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(a.workers())
		for _, r := range chunks {
			if gctx.Err() != nil {
				break
			}
			dispatched.Add(1)
			g.Go(func() error {
				if gctx.Err() != nil {
					return nil
				}
				return runChunk(gctx, r)
			})
		}
		err = g.Wait()
	} else {
		for _, r := range chunks {
			if ctx.Err() != nil {
				break
			}
			dispatched.Add(1)
			if err = runChunk(ctx, r); err != nil {
				break
			}
		}
	}

	if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		err = nil
	}
	stats := Stats{
		ChunksDispatched: dispatched.Load(),
		ChunksCompleted:  completed.Load(),
		TuplesProcessed:  processed.Load(),
	}
	stats.Cancelled = err == nil && stats.TuplesProcessed < n
	logger := a.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("parallel run",
		"tuples", n,
		"chunks", len(chunks),
		"parallel", parallel,
		"completed", stats.ChunksCompleted,
		"cancelled", stats.Cancelled,
	)
	return stats, err
}

// ForEachTuple calls fn for every tuple index in [0, n). Long chunks poll
// the context every few thousand tuples, so a cancelled run stops without
// finishing the chunk in hand. TuplesProcessed counts the calls made.
func (a Algorithm) ForEachTuple(ctx context.Context, n uint64, fn func(i uint64)) (Stats, error) {
	return a.execute(ctx, n, func(ctx context.Context, r Range) (uint64, error) {
		var done uint64
		for i := r.Begin; i < r.End; i++ {
			if done%pollEvery == 0 && done > 0 && ctx.Err() != nil {
				break
			}
			fn(i)
			done++
		}
		return done, nil
	})
}
