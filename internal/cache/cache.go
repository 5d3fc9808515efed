package cache

import (
	"context"
	"sync"
	"time"

	"github.com/otadrift/otadrift/internal/bundle"
	"github.com/otadrift/otadrift/internal/logging"
	"github.com/otadrift/otadrift/internal/update"
)

// snapshot is one immutable bundle list for a platform/channel pair.
// Readers only ever see a complete snapshot; refreshes build a new one and
// swap it in, never mutate in place.
type snapshot struct {
	bundles   []*bundle.Bundle
	fetchedAt time.Time
}

// BundleCache is a read-through cache in front of a bundle store. It bounds
// every store read with a timeout and keeps serving the last good snapshot
// when a refresh fails, so a store blip degrades to slightly stale data
// instead of an outage. A cold cache with a failing store still surfaces the
// error: an outage must never be reported as "no bundles".
type BundleCache struct {
	source       update.BundleSource
	ttl          time.Duration
	storeTimeout time.Duration
	logger       *logging.Logger

	mu        sync.RWMutex
	snapshots map[string]*snapshot
}

func New(source update.BundleSource, ttl, storeTimeout time.Duration) *BundleCache {
	return &BundleCache{
		source:       source,
		ttl:          ttl,
		storeTimeout: storeTimeout,
		logger:       logging.GetGlobalLogger(),
		snapshots:    make(map[string]*snapshot),
	}
}

func cacheKey(platform bundle.Platform, channel string) string {
	return string(platform) + "/" + channel
}

// ListBundles implements update.BundleSource
func (c *BundleCache) ListBundles(ctx context.Context, platform bundle.Platform, channel string) ([]*bundle.Bundle, error) {
	key := cacheKey(platform, channel)

	c.mu.RLock()
	snap := c.snapshots[key]
	c.mu.RUnlock()

	if snap != nil && time.Since(snap.fetchedAt) < c.ttl {
		return snap.bundles, nil
	}

	fresh, err := c.fetch(ctx, platform, channel)
	if err != nil {
		if snap != nil {
			// Stale beats unavailable. The last good snapshot keeps
			// serving for as long as the outage lasts, however old it gets.
			c.logger.Warn("bundle refresh failed for %s, serving stale snapshot: %v", key, err)
			return snap.bundles, nil
		}
		return nil, err
	}

	c.mu.Lock()
	c.snapshots[key] = fresh
	c.mu.Unlock()

	return fresh.bundles, nil
}

// Invalidate drops every snapshot; the next read per key goes to the store.
// Called by the management service after any bundle write.
func (c *BundleCache) Invalidate() {
	c.mu.Lock()
	c.snapshots = make(map[string]*snapshot)
	c.mu.Unlock()
}

// RefreshAll re-fetches every cached platform/channel pair. Failed pairs
// keep their old snapshot.
func (c *BundleCache) RefreshAll(ctx context.Context) {
	c.mu.RLock()
	keys := make([]string, 0, len(c.snapshots))
	for key := range c.snapshots {
		keys = append(keys, key)
	}
	c.mu.RUnlock()

	for _, key := range keys {
		platform, channel, ok := splitKey(key)
		if !ok {
			continue
		}
		fresh, err := c.fetch(ctx, platform, channel)
		if err != nil {
			c.logger.Warn("background refresh failed for %s: %v", key, err)
			continue
		}
		c.mu.Lock()
		c.snapshots[key] = fresh
		c.mu.Unlock()
	}
}

func (c *BundleCache) fetch(ctx context.Context, platform bundle.Platform, channel string) (*snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, c.storeTimeout)
	defer cancel()

	bundles, err := c.source.ListBundles(ctx, platform, channel)
	if err != nil {
		return nil, err
	}
	return &snapshot{bundles: bundles, fetchedAt: time.Now()}, nil
}

func splitKey(key string) (bundle.Platform, string, bool) {
	for i := 0; i < len(key); i++ {
		if key[i] == '/' {
			return bundle.Platform(key[:i]), key[i+1:], true
		}
	}
	return "", "", false
}
