package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"campaignexport/internal/domain"
	"campaignexport/pkg/logger"

	bolt "go.etcd.io/bbolt"
)

var bucketLocations = []byte("locations")

// BoltLocationStore keeps normalized locations, targeting included, as JSON values keyed by id.
type BoltLocationStore struct {
	db     *bolt.DB
	logger *logger.Logger
}

func OpenBoltLocationStore(path string, logger *logger.Logger) (*BoltLocationStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketLocations)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create location bucket: %w", err)
	}

	return &BoltLocationStore{db: db, logger: logger}, nil
}

func (s *BoltLocationStore) ListLocations(ctx context.Context) ([]domain.Location, error) {
	var locations []domain.Location

	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketLocations).ForEach(func(k, v []byte) error {
			var loc domain.Location
			if err := json.Unmarshal(v, &loc); err != nil {
				return fmt.Errorf("failed to unmarshal location %s: %w", k, err)
			}
			locations = append(locations, loc)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sortLocations(locations)
	return locations, nil
}

func (s *BoltLocationStore) GetTargetingConfig(ctx context.Context, locationID string) (*domain.TargetingConfig, error) {
	loc, err := s.get(locationID)
	if err != nil {
		return nil, err
	}
	return loc.Targeting, nil
}

func (s *BoltLocationStore) SaveLocation(ctx context.Context, record domain.LocationRecord) (domain.Location, error) {
	loc, err := record.Normalize()
	if err != nil {
		return domain.Location{}, err
	}

	if err := s.put(loc); err != nil {
		return domain.Location{}, err
	}

	s.logger.WithContext(ctx).WithField("location_id", loc.ID).Debug("Stored location in bolt")
	return loc, nil
}

func (s *BoltLocationStore) SaveTargetingConfig(ctx context.Context, config domain.TargetingConfig) error {
	if err := config.Validate(); err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketLocations)
		data := bucket.Get([]byte(config.LocationID))
		if data == nil {
			return fmt.Errorf("%w: %s", domain.ErrLocationNotFound, config.LocationID)
		}

		var loc domain.Location
		if err := json.Unmarshal(data, &loc); err != nil {
			return fmt.Errorf("failed to unmarshal location: %w", err)
		}
		loc.Targeting = &config

		updated, err := json.Marshal(loc)
		if err != nil {
			return fmt.Errorf("failed to marshal location: %w", err)
		}
		return bucket.Put([]byte(loc.ID), updated)
	})
}

func (s *BoltLocationStore) DeleteLocation(ctx context.Context, locationID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketLocations)
		if bucket.Get([]byte(locationID)) == nil {
			return fmt.Errorf("%w: %s", domain.ErrLocationNotFound, locationID)
		}
		return bucket.Delete([]byte(locationID))
	})
}

func (s *BoltLocationStore) Close() error {
	return s.db.Close()
}

func (s *BoltLocationStore) get(locationID string) (domain.Location, error) {
	var loc domain.Location
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketLocations).Get([]byte(locationID))
		if data == nil {
			return fmt.Errorf("%w: %s", domain.ErrLocationNotFound, locationID)
		}
		return json.Unmarshal(data, &loc)
	})
	return loc, err
}

func (s *BoltLocationStore) put(loc domain.Location) error {
	data, err := json.Marshal(loc)
	if err != nil {
		return fmt.Errorf("failed to marshal location: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketLocations).Put([]byte(loc.ID), data)
	})
}
