package parallel

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestChunks(t *testing.T) {
	assert.Nil(t, Chunks(0, 10))
	assert.Equal(t, []Range{{0, 4}, {4, 8}, {8, 10}}, Chunks(10, 4))
	assert.Equal(t, []Range{{0, 3}}, Chunks(3, 100))
	assert.Len(t, Chunks(5, 0), 5)
}

func TestChunks_CoverRangeExactly(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.Uint64Range(0, 5000).Draw(t, "n")
		size := rapid.Uint64Range(1, 700).Draw(t, "size")

		var next uint64
		for _, r := range Chunks(n, size) {
			if r.Begin != next || r.Len() == 0 || r.Len() > size {
				t.Fatalf("bad chunk %s after %d", r, next)
			}
			next = r.End
		}
		if next != n {
			t.Fatalf("covered [0, %d), want [0, %d)", next, n)
		}
	})
}

func TestExecute_VisitsEveryTupleOnce(t *testing.T) {
	for name, alg := range map[string]Algorithm{
		"sequential": {},
		"parallel":   {Parallel: true, Workers: 4, ChunkSize: 37, MinParallelSize: 1},
	} {
		t.Run(name, func(t *testing.T) {
			const n = 1000
			hits := make([]int32, n)
			stats, err := alg.ForEachTuple(context.Background(), n, func(i uint64) {
				atomic.AddInt32(&hits[i], 1)
			})
			require.NoError(t, err)
			assert.False(t, stats.Cancelled)
			assert.Equal(t, uint64(n), stats.TuplesProcessed)
			assert.Equal(t, stats.ChunksDispatched, stats.ChunksCompleted)
			for i, h := range hits {
				require.Equal(t, int32(1), h, "tuple %d", i)
			}
		})
	}
}

func TestExecute_SmallInputRunsSequentially(t *testing.T) {
	alg := Algorithm{Parallel: true, Workers: 8, MinParallelSize: 100}
	stats, err := alg.Execute(context.Background(), 50, func(_ context.Context, r Range) error {
		assert.Equal(t, Range{0, 50}, r)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), stats.ChunksDispatched)
}

func TestExecute_ChunkErrorStopsRun(t *testing.T) {
	boom := errors.New("boom")
	for name, alg := range map[string]Algorithm{
		"sequential": {ChunkSize: 10},
		"parallel":   {Parallel: true, Workers: 2, ChunkSize: 10, MinParallelSize: 1},
	} {
		t.Run(name, func(t *testing.T) {
			stats, err := alg.Execute(context.Background(), 1000, func(_ context.Context, r Range) error {
				if r.Begin == 20 {
					return boom
				}
				return nil
			})
			require.ErrorIs(t, err, boom)
			assert.Contains(t, err.Error(), "[20, 30)")
			assert.False(t, stats.Cancelled)
			assert.Less(t, stats.TuplesProcessed, uint64(1000))
		})
	}
}

func TestExecute_CancelAfterFirstChunk(t *testing.T) {
	const n = 10_000
	for name, alg := range map[string]Algorithm{
		"sequential": {ChunkSize: 100},
		"parallel":   {Parallel: true, Workers: 4, ChunkSize: 100, MinParallelSize: 1},
	} {
		t.Run(name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			var once sync.Once

			start := time.Now()
			stats, err := alg.ForEachTuple(ctx, n, func(i uint64) {
				if i%100 == 99 {
					once.Do(cancel)
				}
			})
			require.NoError(t, err)
			assert.True(t, stats.Cancelled)
			assert.Less(t, stats.TuplesProcessed, uint64(n))
			assert.Less(t, time.Since(start), DefaultProgressInterval)
		})
	}
}

func TestExecute_FnReturningContextErrorIsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	stats, err := Algorithm{ChunkSize: 10}.Execute(ctx, 100, func(ctx context.Context, r Range) error {
		if r.Begin == 10 {
			cancel()
			return ctx.Err()
		}
		return nil
	})
	require.NoError(t, err)
	assert.True(t, stats.Cancelled)
	assert.Equal(t, uint64(10), stats.TuplesProcessed)
}

func TestExecute_CancelDuringLastChunkIsNotCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p := NewProgressReporter(100, 0, nil)

	stats, err := Algorithm{ChunkSize: 10, Progress: p}.Execute(ctx, 100, func(_ context.Context, r Range) error {
		if r.Begin == 90 {
			cancel()
		}
		return nil
	})
	require.NoError(t, err)
	assert.False(t, stats.Cancelled)
	assert.Equal(t, uint64(100), stats.TuplesProcessed)
	assert.Equal(t, uint64(10), stats.ChunksCompleted)
	assert.Equal(t, Progress{Done: 100, Total: 100}, p.Current())
}

func TestForEachTuple_PartialChunkCountsOnlyCalls(t *testing.T) {
	const n = 3 * pollEvery
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p := NewProgressReporter(n, 0, nil)

	var calls atomic.Uint64
	stats, err := Algorithm{ChunkSize: n, Progress: p}.ForEachTuple(ctx, n, func(i uint64) {
		calls.Add(1)
		if i == pollEvery-1 {
			cancel()
		}
	})
	require.NoError(t, err)
	assert.True(t, stats.Cancelled)
	assert.Equal(t, uint64(1), stats.ChunksDispatched)
	assert.Zero(t, stats.ChunksCompleted)
	assert.Equal(t, uint64(pollEvery), stats.TuplesProcessed)
	assert.Equal(t, calls.Load(), stats.TuplesProcessed)
	assert.Equal(t, uint64(pollEvery), p.Current().Done)
}

func TestExecute_AlreadyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	stats, err := Algorithm{Parallel: true, MinParallelSize: 1}.Execute(ctx, 10_000, func(context.Context, Range) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.False(t, called)
	assert.True(t, stats.Cancelled)
	assert.Zero(t, stats.ChunksDispatched)

	stats, err = Algorithm{}.Execute(ctx, 0, func(context.Context, Range) error { return nil })
	require.NoError(t, err)
	assert.False(t, stats.Cancelled, "an empty run has nothing left to do")
}

func TestProgressReporter_Throttles(t *testing.T) {
	var reports []Progress
	p := NewProgressReporter(1000, time.Hour, func(pr Progress) { reports = append(reports, pr) })
	for range 100 {
		p.Add(10)
	}
	require.Len(t, reports, 1, "only the first report passes within the interval")
	assert.Equal(t, Progress{Done: 10, Total: 1000}, reports[0])
	assert.Equal(t, 100, p.Current().Percent())
}

func TestExecute_AdvancesProgress(t *testing.T) {
	var last atomic.Uint64
	p := NewProgressReporter(500, time.Nanosecond, func(pr Progress) { last.Store(pr.Done) })
	alg := Algorithm{ChunkSize: 100, Progress: p}

	_, err := alg.Execute(context.Background(), 500, func(context.Context, Range) error {
		time.Sleep(time.Millisecond)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(500), p.Current().Done)
	assert.NotZero(t, last.Load())
}

func TestProgress_Percent(t *testing.T) {
	assert.Equal(t, 100, Progress{}.Percent())
	assert.Equal(t, 25, Progress{Done: 1, Total: 4}.Percent())
}
