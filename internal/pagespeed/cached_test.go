package pagespeed

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/godilite/lighthouse-monitor/internal/history"
)

type fakeCacher struct {
	entries map[string][]byte
	getErr  error
	setErr  error
	sets    int
}

func newFakeCacher() *fakeCacher {
	return &fakeCacher{entries: make(map[string][]byte)}
}

func (f *fakeCacher) Get(_ context.Context, key string, dest any) (bool, error) {
	if f.getErr != nil {
		return false, f.getErr
	}
	data, ok := f.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, dest)
}

func (f *fakeCacher) Set(_ context.Context, key string, value any, _ time.Duration) error {
	if f.setErr != nil {
		return f.setErr
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.entries[key] = data
	f.sets++
	return nil
}

type fakeAuditor struct {
	scores history.ScoreSet
	err    error
	calls  int
}

func (f *fakeAuditor) Audit(context.Context, string) (history.ScoreSet, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.scores, nil
}

func TestCachedAuditor(t *testing.T) {
	ctx := context.Background()
	scores := history.ScoreSet{"performance": 88, "seo": 100}

	t.Run("miss fetches and stores", func(t *testing.T) {
		next := &fakeAuditor{scores: scores}
		cache := newFakeCacher()
		cached := NewCachedAuditor(next, cache, "mobile", time.Hour, zap.NewNop())

		got, err := cached.Audit(ctx, "https://example.com")
		require.NoError(t, err)
		assert.Equal(t, scores, got)
		assert.Equal(t, 1, next.calls)
		assert.Equal(t, 1, cache.sets)
	})

	t.Run("hit skips the real audit", func(t *testing.T) {
		next := &fakeAuditor{scores: scores}
		cache := newFakeCacher()
		cached := NewCachedAuditor(next, cache, "mobile", time.Hour, zap.NewNop())

		_, err := cached.Audit(ctx, "https://example.com")
		require.NoError(t, err)

		got, err := cached.Audit(ctx, "https://example.com")
		require.NoError(t, err)
		assert.Equal(t, scores, got)
		assert.Equal(t, 1, next.calls, "second audit should come from cache")
	})

	t.Run("cache read failure degrades to direct fetch", func(t *testing.T) {
		next := &fakeAuditor{scores: scores}
		cache := newFakeCacher()
		cache.getErr = errors.New("connection refused")
		cached := NewCachedAuditor(next, cache, "mobile", time.Hour, zap.NewNop())

		got, err := cached.Audit(ctx, "https://example.com")
		require.NoError(t, err)
		assert.Equal(t, scores, got)
		assert.Equal(t, 1, next.calls)
	})

	t.Run("cache write failure does not fail the audit", func(t *testing.T) {
		next := &fakeAuditor{scores: scores}
		cache := newFakeCacher()
		cache.setErr = errors.New("connection refused")
		cached := NewCachedAuditor(next, cache, "mobile", time.Hour, zap.NewNop())

		got, err := cached.Audit(ctx, "https://example.com")
		require.NoError(t, err)
		assert.Equal(t, scores, got)
	})

	t.Run("audit failure is not cached", func(t *testing.T) {
		next := &fakeAuditor{err: &Error{URL: "https://example.com", Reason: "api status 500"}}
		cache := newFakeCacher()
		cached := NewCachedAuditor(next, cache, "mobile", time.Hour, zap.NewNop())

		_, err := cached.Audit(ctx, "https://example.com")
		require.Error(t, err)
		assert.Equal(t, 0, cache.sets)
	})

	t.Run("key prefix separates audit profiles", func(t *testing.T) {
		next := &fakeAuditor{scores: scores}
		cache := newFakeCacher()

		mobile := NewCachedAuditor(next, cache, "mobile", time.Hour, zap.NewNop())
		desktop := NewCachedAuditor(next, cache, "desktop", time.Hour, zap.NewNop())

		_, err := mobile.Audit(ctx, "https://example.com")
		require.NoError(t, err)
		_, err = desktop.Audit(ctx, "https://example.com")
		require.NoError(t, err)

		assert.Equal(t, 2, next.calls, "different profiles must not share entries")
	})
}
