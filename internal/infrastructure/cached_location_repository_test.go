package infrastructure

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"campaignexport/internal/domain"
	"campaignexport/pkg/logger"
	"campaignexport/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingDirectory counts source loads and can hold them until release is closed.
type countingDirectory struct {
	domain.LocationStore
	lists     atomic.Int32
	targeting atomic.Int32
	release   chan struct{}
}

func (d *countingDirectory) ListLocations(ctx context.Context) ([]domain.Location, error) {
	d.lists.Add(1)
	if d.release != nil {
		<-d.release
	}
	return d.LocationStore.ListLocations(ctx)
}

func (d *countingDirectory) GetTargetingConfig(ctx context.Context, locationID string) (*domain.TargetingConfig, error) {
	d.targeting.Add(1)
	return d.LocationStore.GetTargetingConfig(ctx, locationID)
}

func newCountingDirectory(t *testing.T) *countingDirectory {
	t.Helper()
	store := NewMemoryLocationStore(logger.Discard())
	_, err := store.SaveLocation(context.Background(), domain.LocationRecord{
		ID:        "chi",
		Name:      ptr("Chicago"),
		Targeting: &domain.TargetingRecord{PrimaryLat: ptr(41.7), PrimaryLng: ptr(-87.6), RadiusMiles: ptr(3.0)},
	})
	require.NoError(t, err)
	return &countingDirectory{LocationStore: store}
}

func TestCachedRepositoryServesHits(t *testing.T) {
	ctx := context.Background()
	src := newCountingDirectory(t)
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	repo := NewCachedLocationRepository(src, CachePolicy{}, logger.Discard(), m)

	for range 3 {
		locations, err := repo.ListLocations(ctx)
		require.NoError(t, err)
		require.Len(t, locations, 1)

		config, err := repo.GetTargetingConfig(ctx, "chi")
		require.NoError(t, err)
		assert.Equal(t, 3.0, *config.RadiusMiles)
	}

	assert.Equal(t, int32(1), src.lists.Load())
	assert.Equal(t, int32(1), src.targeting.Load())
	assert.Equal(t, 4.0, testutil.ToFloat64(m.DirectoryCacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.DirectoryCacheLookups.WithLabelValues("miss")))
}

func TestCachedRepositoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewCachedLocationRepository(newCountingDirectory(t), CachePolicy{}, logger.Discard(),
		metrics.NewWithRegistry(prometheus.NewRegistry()))

	locations, err := repo.ListLocations(ctx)
	require.NoError(t, err)
	locations[0].Name = "changed"
	*locations[0].Targeting.RadiusMiles = 99

	again, err := repo.ListLocations(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Chicago", again[0].Name)
	assert.Equal(t, 3.0, *again[0].Targeting.RadiusMiles)
}

func TestCachedRepositoryTTL(t *testing.T) {
	ctx := context.Background()
	src := newCountingDirectory(t)
	repo := NewCachedLocationRepository(src, CachePolicy{TTL: time.Minute}, logger.Discard(),
		metrics.NewWithRegistry(prometheus.NewRegistry()))

	now := time.Date(2025, 6, 25, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	_, err := repo.ListLocations(ctx)
	require.NoError(t, err)
	now = now.Add(30 * time.Second)
	_, err = repo.ListLocations(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(1), src.lists.Load())

	now = now.Add(31 * time.Second)
	_, err = repo.ListLocations(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), src.lists.Load())
}

func TestCachedRepositoryInvalidate(t *testing.T) {
	ctx := context.Background()
	src := newCountingDirectory(t)
	repo := NewCachedLocationRepository(src, CachePolicy{}, logger.Discard(),
		metrics.NewWithRegistry(prometheus.NewRegistry()))

	_, err := repo.ListLocations(ctx)
	require.NoError(t, err)
	_, err = repo.GetTargetingConfig(ctx, "chi")
	require.NoError(t, err)

	_, err = src.SaveLocation(ctx, domain.LocationRecord{ID: "ofa", Name: ptr("O'Fallon")})
	require.NoError(t, err)

	locations, err := repo.ListLocations(ctx)
	require.NoError(t, err)
	assert.Len(t, locations, 1, "stale until invalidated")

	repo.Invalidate()

	locations, err = repo.ListLocations(ctx)
	require.NoError(t, err)
	assert.Len(t, locations, 2)
	_, err = repo.GetTargetingConfig(ctx, "chi")
	require.NoError(t, err)
	assert.Equal(t, int32(2), src.lists.Load())
	assert.Equal(t, int32(2), src.targeting.Load())
}

func TestCachedRepositorySharesConcurrentLoads(t *testing.T) {
	ctx := context.Background()
	src := newCountingDirectory(t)
	src.release = make(chan struct{})
	repo := NewCachedLocationRepository(src, CachePolicy{}, logger.Discard(),
		metrics.NewWithRegistry(prometheus.NewRegistry()))

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			locations, err := repo.ListLocations(ctx)
			assert.NoError(t, err)
			assert.Len(t, locations, 1)
		}()
	}

	require.Eventually(t, func() bool { return src.lists.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(src.release)
	wg.Wait()

	assert.Equal(t, int32(1), src.lists.Load())
}

func TestCachedRepositoryDoesNotCacheErrors(t *testing.T) {
	ctx := context.Background()
	src := newCountingDirectory(t)
	repo := NewCachedLocationRepository(src, CachePolicy{}, logger.Discard(),
		metrics.NewWithRegistry(prometheus.NewRegistry()))

	_, err := repo.GetTargetingConfig(ctx, "missing")
	assert.True(t, domain.IsLocationNotFound(err))
	_, err = repo.GetTargetingConfig(ctx, "missing")
	assert.True(t, domain.IsLocationNotFound(err))
	assert.Equal(t, int32(2), src.targeting.Load())
}
