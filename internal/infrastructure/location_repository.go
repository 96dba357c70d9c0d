package infrastructure

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"campaignexport/internal/domain"
	"campaignexport/pkg/logger"
)

// implements domain.LocationStore in memory
type MemoryLocationStore struct {
	data   map[string]domain.Location
	mutex  sync.RWMutex
	logger *logger.Logger
}

func NewMemoryLocationStore(logger *logger.Logger) *MemoryLocationStore {
	return &MemoryLocationStore{
		data:   make(map[string]domain.Location),
		logger: logger,
	}
}

func (r *MemoryLocationStore) ListLocations(ctx context.Context) ([]domain.Location, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]domain.Location, 0, len(r.data))
	for _, loc := range r.data {
		result = append(result, loc.Clone())
	}
	sortLocations(result)
	return result, nil
}

func (r *MemoryLocationStore) GetTargetingConfig(ctx context.Context, locationID string) (*domain.TargetingConfig, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	loc, ok := r.data[locationID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrLocationNotFound, locationID)
	}
	return loc.Targeting.Clone(), nil
}

func (r *MemoryLocationStore) SaveLocation(ctx context.Context, record domain.LocationRecord) (domain.Location, error) {
	loc, err := record.Normalize()
	if err != nil {
		return domain.Location{}, err
	}

	r.mutex.Lock()
	r.data[loc.ID] = loc.Clone()
	r.mutex.Unlock()

	r.logger.WithContext(ctx).WithField("location_id", loc.ID).Debug("Stored location in memory")
	return loc, nil
}

func (r *MemoryLocationStore) SaveTargetingConfig(ctx context.Context, config domain.TargetingConfig) error {
	if err := config.Validate(); err != nil {
		return err
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	loc, ok := r.data[config.LocationID]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrLocationNotFound, config.LocationID)
	}
	loc.Targeting = config.Clone()
	r.data[loc.ID] = loc
	return nil
}

func (r *MemoryLocationStore) DeleteLocation(ctx context.Context, locationID string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.data[locationID]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrLocationNotFound, locationID)
	}
	delete(r.data, locationID)
	return nil
}

func (r *MemoryLocationStore) Close() error {
	return nil
}

// directory listings are ordered by name, then id
func sortLocations(locations []domain.Location) {
	slices.SortFunc(locations, func(a, b domain.Location) int {
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
