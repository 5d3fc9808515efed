package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otadrift/otadrift/internal/bundle"
	"github.com/otadrift/otadrift/internal/logging"
)

func TestMain(m *testing.M) {
	logging.InitLogger(&logging.Config{
		Level:      "info",
		File:       filepath.Join(os.TempDir(), "cache-test.log"),
		MaxSize:    1,
		MaxBackups: 1,
		MaxAge:     1,
	})
	os.Exit(m.Run())
}

type countingSource struct {
	mu      sync.Mutex
	calls   int
	bundles []*bundle.Bundle
	err     error
}

func (s *countingSource) ListBundles(ctx context.Context, platform bundle.Platform, channel string) ([]*bundle.Bundle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.bundles, nil
}

func (s *countingSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func someBundles() []*bundle.Bundle {
	return []*bundle.Bundle{{
		ID:       uuid.MustParse("01900000-0000-7000-8000-000000000001"),
		Platform: bundle.PlatformIOS,
		Channel:  "production",
	}}
}

func TestListBundles_CachesWithinTTL(t *testing.T) {
	source := &countingSource{bundles: someBundles()}
	c := New(source, time.Minute, time.Second)

	for i := 0; i < 5; i++ {
		got, err := c.ListBundles(context.Background(), bundle.PlatformIOS, "production")
		require.NoError(t, err)
		assert.Len(t, got, 1)
	}

	assert.Equal(t, 1, source.callCount(), "only the first read should hit the store")
}

func TestListBundles_SeparateKeysPerPlatformChannel(t *testing.T) {
	source := &countingSource{bundles: someBundles()}
	c := New(source, time.Minute, time.Second)

	_, err := c.ListBundles(context.Background(), bundle.PlatformIOS, "production")
	require.NoError(t, err)
	_, err = c.ListBundles(context.Background(), bundle.PlatformAndroid, "production")
	require.NoError(t, err)
	_, err = c.ListBundles(context.Background(), bundle.PlatformIOS, "staging")
	require.NoError(t, err)

	assert.Equal(t, 3, source.callCount())
}

func TestListBundles_ColdCacheFailureSurfaces(t *testing.T) {
	source := &countingSource{err: errors.New("connection refused")}
	c := New(source, time.Minute, time.Second)

	_, err := c.ListBundles(context.Background(), bundle.PlatformIOS, "production")
	assert.Error(t, err, "an outage must not look like an empty bundle set")
}

func TestListBundles_ServesStaleOnRefreshFailure(t *testing.T) {
	source := &countingSource{bundles: someBundles()}
	c := New(source, time.Nanosecond, time.Second) // expire immediately

	_, err := c.ListBundles(context.Background(), bundle.PlatformIOS, "production")
	require.NoError(t, err)

	source.mu.Lock()
	source.err = errors.New("connection refused")
	source.mu.Unlock()

	got, err := c.ListBundles(context.Background(), bundle.PlatformIOS, "production")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestInvalidate_ForcesRefetch(t *testing.T) {
	source := &countingSource{bundles: someBundles()}
	c := New(source, time.Minute, time.Second)

	_, err := c.ListBundles(context.Background(), bundle.PlatformIOS, "production")
	require.NoError(t, err)

	c.Invalidate()

	_, err = c.ListBundles(context.Background(), bundle.PlatformIOS, "production")
	require.NoError(t, err)
	assert.Equal(t, 2, source.callCount())
}

func TestRefreshAll_RefreshesKnownKeys(t *testing.T) {
	source := &countingSource{bundles: someBundles()}
	c := New(source, time.Minute, time.Second)

	_, err := c.ListBundles(context.Background(), bundle.PlatformIOS, "production")
	require.NoError(t, err)

	c.RefreshAll(context.Background())
	assert.Equal(t, 2, source.callCount())
}

func TestListBundles_ConcurrentReaders(t *testing.T) {
	source := &countingSource{bundles: someBundles()}
	c := New(source, time.Minute, time.Second)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				got, err := c.ListBundles(context.Background(), bundle.PlatformIOS, "production")
				assert.NoError(t, err)
				assert.Len(t, got, 1)
			}
		}()
	}
	wg.Wait()
}
