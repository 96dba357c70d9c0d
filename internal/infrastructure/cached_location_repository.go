package infrastructure

import (
	"context"
	"sync"
	"time"

	"campaignexport/internal/domain"
	"campaignexport/pkg/logger"
	"campaignexport/pkg/metrics"

	"golang.org/x/sync/singleflight"
)

// CachePolicy controls how long directory reads are reused. A non-positive TTL keeps entries
// until Invalidate is called.
type CachePolicy struct {
	TTL time.Duration
}

func (p CachePolicy) fresh(loadedAt, now time.Time) bool {
	return p.TTL <= 0 || now.Sub(loadedAt) < p.TTL
}

type targetingEntry struct {
	config   *domain.TargetingConfig
	loadedAt time.Time
}

// CachedLocationRepository is a read-through cache over a location directory. Concurrent
// misses for the same key share one load.
type CachedLocationRepository struct {
	source  domain.LocationDirectory
	policy  CachePolicy
	logger  *logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	group singleflight.Group

	mutex      sync.RWMutex
	locations  []domain.Location
	listedAt   time.Time
	listed     bool
	targeting  map[string]targetingEntry
	generation uint64
}

func NewCachedLocationRepository(source domain.LocationDirectory, policy CachePolicy, logger *logger.Logger, metrics *metrics.Metrics) *CachedLocationRepository {
	return &CachedLocationRepository{
		source:    source,
		policy:    policy,
		logger:    logger,
		metrics:   metrics,
		now:       time.Now,
		targeting: make(map[string]targetingEntry),
	}
}

func (r *CachedLocationRepository) ListLocations(ctx context.Context) ([]domain.Location, error) {
	r.mutex.RLock()
	if r.listed && r.policy.fresh(r.listedAt, r.now()) {
		result := cloneLocations(r.locations)
		r.mutex.RUnlock()
		r.metrics.RecordDirectoryCache("hit")
		return result, nil
	}
	generation := r.generation
	r.mutex.RUnlock()

	r.metrics.RecordDirectoryCache("miss")
	v, err, _ := r.group.Do("locations", func() (any, error) {
		locations, err := r.source.ListLocations(ctx)
		if err != nil {
			return nil, err
		}

		r.mutex.Lock()
		if r.generation == generation {
			r.locations = cloneLocations(locations)
			r.listedAt = r.now()
			r.listed = true
		}
		r.mutex.Unlock()

		r.logger.WithContext(ctx).WithField("count", len(locations)).Debug("Loaded locations into cache")
		return locations, nil
	})
	if err != nil {
		return nil, err
	}
	return cloneLocations(v.([]domain.Location)), nil
}

func (r *CachedLocationRepository) GetTargetingConfig(ctx context.Context, locationID string) (*domain.TargetingConfig, error) {
	r.mutex.RLock()
	entry, ok := r.targeting[locationID]
	if ok && r.policy.fresh(entry.loadedAt, r.now()) {
		r.mutex.RUnlock()
		r.metrics.RecordDirectoryCache("hit")
		return entry.config.Clone(), nil
	}
	generation := r.generation
	r.mutex.RUnlock()

	r.metrics.RecordDirectoryCache("miss")
	v, err, _ := r.group.Do("targeting:"+locationID, func() (any, error) {
		config, err := r.source.GetTargetingConfig(ctx, locationID)
		if err != nil {
			return nil, err
		}

		r.mutex.Lock()
		if r.generation == generation {
			r.targeting[locationID] = targetingEntry{config: config.Clone(), loadedAt: r.now()}
		}
		r.mutex.Unlock()
		return config, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.TargetingConfig).Clone(), nil
}

// Invalidate drops every cached entry. Loads already in flight are not cached.
func (r *CachedLocationRepository) Invalidate() {
	r.mutex.Lock()
	r.locations = nil
	r.listed = false
	r.targeting = make(map[string]targetingEntry)
	r.generation++
	r.mutex.Unlock()

	r.logger.Info("Location cache invalidated")
}

func cloneLocations(locations []domain.Location) []domain.Location {
	result := make([]domain.Location, len(locations))
	for i, loc := range locations {
		result[i] = loc.Clone()
	}
	return result
}
