package tasks

import (
	"context"
	"time"

	"github.com/otadrift/otadrift/internal/cache"
	"github.com/otadrift/otadrift/internal/logging"
)

// CacheRefresh keeps warm bundle snapshots from going stale between client
// polls, so most update checks never wait on the store.
type CacheRefresh struct {
	cache    *cache.BundleCache
	interval time.Duration
	logger   *logging.Logger
	stop     chan struct{}
}

// NewCacheRefresh creates a new cache refresh task
func NewCacheRefresh(bundleCache *cache.BundleCache, interval time.Duration) *CacheRefresh {
	return &CacheRefresh{
		cache:    bundleCache,
		interval: interval,
		logger:   logging.GetGlobalLogger(),
		stop:     make(chan struct{}),
	}
}

// Start begins the refresh task in the background
func (cr *CacheRefresh) Start() {
	go cr.runPeriodically()
}

// Stop terminates the background task
func (cr *CacheRefresh) Stop() {
	close(cr.stop)
}

// runPeriodically refreshes the tracked snapshots at regular intervals
func (cr *CacheRefresh) runPeriodically() {
	ticker := time.NewTicker(cr.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cr.refresh()
		case <-cr.stop:
			return
		}
	}
}

// refresh performs the actual snapshot refresh. Failed pairs keep their old
// snapshot and the next tick tries again.
func (cr *CacheRefresh) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), cr.interval)
	defer cancel()

	cr.cache.RefreshAll(ctx)
	cr.logger.Debug("Background cache refresh completed")
}
