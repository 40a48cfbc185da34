package cache

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

// The unit suite exercises the local fallback tier only (nil remote client);
// the remote tier is covered by the integration suite.
type CacheSuite struct {
	suite.Suite
	manager *Manager
}

func TestCacheSuite(t *testing.T) {
	suite.Run(t, new(CacheSuite))
}

func (s *CacheSuite) SetupTest() {
	s.manager = New(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func (s *CacheSuite) TestRoundTrip() {
	ctx := context.Background()

	s.Run("set then get returns the value before TTL", func() {
		s.manager.Set(ctx, "round:trip", payload{Name: "a", Count: 3}, time.Minute)

		var got payload
		s.True(s.manager.Get(ctx, "round:trip", &got))
		s.Equal(payload{Name: "a", Count: 3}, got)
	})

	s.Run("missing key is absent", func() {
		var got payload
		s.False(s.manager.Get(ctx, "never:set", &got))
	})

	s.Run("expired entry is absent", func() {
		s.manager.Set(ctx, "expiring", payload{Name: "b"}, time.Millisecond)
		time.Sleep(5 * time.Millisecond)

		var got payload
		s.False(s.manager.Get(ctx, "expiring", &got))
	})
}

func (s *CacheSuite) TestDelete() {
	ctx := context.Background()

	s.manager.Set(ctx, "doomed", payload{Name: "x"}, time.Minute)
	s.manager.Delete(ctx, "doomed")

	var got payload
	s.False(s.manager.Get(ctx, "doomed", &got))
}

func (s *CacheSuite) TestInvalidatePattern() {
	ctx := context.Background()

	s.manager.Set(ctx, "agg:v1:one", payload{Count: 1}, time.Minute)
	s.manager.Set(ctx, "agg:v1:two", payload{Count: 2}, time.Minute)
	s.manager.Set(ctx, "records:snapshot:v1", payload{Count: 3}, time.Minute)

	s.manager.InvalidatePattern(ctx, "agg:*")

	var got payload
	s.False(s.manager.Get(ctx, "agg:v1:one", &got))
	s.False(s.manager.Get(ctx, "agg:v1:two", &got))
	s.True(s.manager.Get(ctx, "records:snapshot:v1", &got), "non-matching keys must survive")
}

func (s *CacheSuite) TestSweepEvictsExpiredEntries() {
	ctx := context.Background()

	s.manager.Set(ctx, "stale", payload{Name: "old"}, time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	// Drive the set counter past the sweep interval; the stale entry must be
	// gone from the map itself, not just filtered on read.
	for i := 0; i < sweepEvery; i++ {
		s.manager.Set(ctx, "filler", payload{Count: i}, time.Minute)
	}

	s.manager.mu.Lock()
	_, ok := s.manager.local["stale"]
	s.manager.mu.Unlock()
	s.False(ok, "sweep should evict expired entries")
}

func (s *CacheSuite) TestCorruptEntryIsAMiss() {
	ctx := context.Background()

	s.manager.mu.Lock()
	s.manager.local["corrupt"] = localEntry{payload: []byte("{not json"), expiresAt: time.Now().Add(time.Minute)}
	s.manager.mu.Unlock()

	var got payload
	s.False(s.manager.Get(ctx, "corrupt", &got))
}
