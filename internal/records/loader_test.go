package records

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"enrolytics/internal/cache"
)

// countingSource counts full source reads and can simulate slow I/O.
type countingSource struct {
	loads atomic.Int64
	delay time.Duration
	recs  []Record
}

func (s *countingSource) Load(ctx context.Context) ([]Record, error) {
	s.loads.Add(1)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return s.recs, nil
}

func testRecords() []Record {
	date, _ := ParseDate("15-03-2025")
	return []Record{{
		Date: date, State: "StateX", District: "DistY", Pincode: "110001",
		Age0to5: 5, Age5to17: 10, Age18Plus: 15, Total: 30,
	}}
}

func newTestLoader(source Source, opts ...LoaderOption) *Loader {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewLoader(source, cache.New(nil, logger), logger, opts...)
}

func TestLoaderLoadAll(t *testing.T) {
	ctx := context.Background()

	t.Run("loads from source and serves the snapshot", func(t *testing.T) {
		source := &countingSource{recs: testRecords()}
		loader := newTestLoader(source)

		recs, err := loader.LoadAll(ctx)
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, "StateX", recs[0].State)
	})

	t.Run("second call hits the cache, not the source", func(t *testing.T) {
		source := &countingSource{recs: testRecords()}
		loader := newTestLoader(source)

		_, err := loader.LoadAll(ctx)
		require.NoError(t, err)
		_, err = loader.LoadAll(ctx)
		require.NoError(t, err)

		assert.Equal(t, int64(1), source.loads.Load())
	})

	t.Run("invalidate forces a reload from source", func(t *testing.T) {
		source := &countingSource{recs: testRecords()}
		loader := newTestLoader(source)

		_, err := loader.LoadAll(ctx)
		require.NoError(t, err)

		loader.Invalidate(ctx)

		_, err = loader.LoadAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), source.loads.Load())
	})
}

func TestLoaderSingleFlight(t *testing.T) {
	ctx := context.Background()

	// Concurrent callers arriving while a slow load is in flight must share
	// that load instead of triggering duplicate source reads.
	source := &countingSource{recs: testRecords(), delay: 50 * time.Millisecond}
	loader := newTestLoader(source)

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = loader.LoadAll(ctx)
		}()
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "caller %d", i)
	}
	assert.Equal(t, int64(1), source.loads.Load(), "exactly one source read expected")
}
