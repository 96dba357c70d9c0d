package usecase

import (
	"context"
	"errors"
	"fmt"

	"campaignexport/internal/domain"
	"campaignexport/pkg/logger"
)

// CacheInvalidator is implemented by caching directories.
type CacheInvalidator interface {
	Invalidate()
}

// ErrReadOnlyDirectory is returned by writes when no store is configured.
var ErrReadOnlyDirectory = errors.New("location directory is read-only")

// LocationService exposes the location directory to handlers. Reads go through directory
// (usually cached); writes go to store and then drop the cache.
type LocationService struct {
	directory domain.LocationDirectory
	store     domain.LocationStore
	cache     CacheInvalidator
	logger    *logger.Logger
}

// NewLocationService builds the service. store and cache may be nil.
func NewLocationService(directory domain.LocationDirectory, store domain.LocationStore, cache CacheInvalidator, logger *logger.Logger) *LocationService {
	return &LocationService{
		directory: directory,
		store:     store,
		cache:     cache,
		logger:    logger,
	}
}

func (s *LocationService) ListLocations(ctx context.Context) ([]domain.Location, error) {
	locations, err := s.directory.ListLocations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	return locations, nil
}

// GetTargeting returns the location's targeting config, or nil when it has none.
func (s *LocationService) GetTargeting(ctx context.Context, locationID string) (*domain.TargetingConfig, error) {
	config, err := s.directory.GetTargetingConfig(ctx, locationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get targeting config: %w", err)
	}
	return config, nil
}

func (s *LocationService) SaveLocation(ctx context.Context, record domain.LocationRecord) (domain.Location, error) {
	if s.store == nil {
		return domain.Location{}, ErrReadOnlyDirectory
	}

	loc, err := s.store.SaveLocation(ctx, record)
	if err != nil {
		return domain.Location{}, err
	}
	s.invalidate(ctx, "location saved", loc.ID)
	return loc, nil
}

func (s *LocationService) SaveTargeting(ctx context.Context, locationID string, record domain.TargetingRecord) (*domain.TargetingConfig, error) {
	if s.store == nil {
		return nil, ErrReadOnlyDirectory
	}

	config := record.Normalize(locationID)
	if err := s.store.SaveTargetingConfig(ctx, *config); err != nil {
		return nil, err
	}
	s.invalidate(ctx, "targeting saved", locationID)
	return config, nil
}

func (s *LocationService) DeleteLocation(ctx context.Context, locationID string) error {
	if s.store == nil {
		return ErrReadOnlyDirectory
	}

	if err := s.store.DeleteLocation(ctx, locationID); err != nil {
		return err
	}
	s.invalidate(ctx, "location deleted", locationID)
	return nil
}

// InvalidateCache drops cached directory reads. It reports false when the directory is not cached.
func (s *LocationService) InvalidateCache(ctx context.Context) bool {
	if s.cache == nil {
		return false
	}
	s.invalidate(ctx, "manual", "")
	return true
}

func (s *LocationService) invalidate(ctx context.Context, reason, locationID string) {
	if s.cache == nil {
		return
	}
	s.cache.Invalidate()
	s.logger.WithContext(ctx).WithFields(map[string]any{
		"reason":      reason,
		"location_id": locationID,
	}).Debug("Location cache dropped")
}
