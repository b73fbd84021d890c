package pagespeed

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/godilite/lighthouse-monitor/internal/history"
)

// Cacher is the slice of the cache client the decorator needs.
type Cacher interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

// CachedAuditor consults a cache before running a real audit. Cache failures
// degrade to a direct fetch; they never fail the run.
type CachedAuditor struct {
	next      Auditor
	cache     Cacher
	keyPrefix string
	ttl       time.Duration
	logger    *zap.Logger
}

// NewCachedAuditor wraps next with a read-through cache. keyPrefix should
// identify the audit profile (strategy, categories) so reconfigured runs do
// not read stale entries.
func NewCachedAuditor(next Auditor, cache Cacher, keyPrefix string, ttl time.Duration, logger *zap.Logger) *CachedAuditor {
	if next == nil {
		panic("next auditor must not be nil")
	}
	if cache == nil {
		panic("cache must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedAuditor{
		next:      next,
		cache:     cache,
		keyPrefix: keyPrefix,
		ttl:       ttl,
		logger:    logger.Named("pagespeed-cache"),
	}
}

func (c *CachedAuditor) Audit(ctx context.Context, target string) (history.ScoreSet, error) {
	key := c.key(target)

	var cached history.ScoreSet
	found, err := c.cache.Get(ctx, key, &cached)
	if err != nil {
		c.logger.Warn("cache read failed, fetching directly",
			zap.String("url", target),
			zap.Error(err))
	} else if found {
		c.logger.Debug("cache hit", zap.String("url", target))
		return cached, nil
	}

	scores, err := c.next.Audit(ctx, target)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, key, scores, c.ttl); err != nil {
		c.logger.Warn("cache write failed",
			zap.String("url", target),
			zap.Error(err))
	}

	return scores, nil
}

func (c *CachedAuditor) key(target string) string {
	return fmt.Sprintf("pagespeed:%s:%s", c.keyPrefix, target)
}
