package infrastructure

import (
	"context"
	"fmt"
	"os"

	"campaignexport/internal/domain"

	"gopkg.in/yaml.v3"
)

// SeedFile is the YAML layout of a directory seed: a top-level "locations" list.
type SeedFile struct {
	Locations []domain.LocationRecord `yaml:"locations"`
}

// LoadSeedFile reads location records from a YAML file.
func LoadSeedFile(path string) ([]domain.LocationRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	return seed.Locations, nil
}

// Seed saves every record into store, stopping at the first invalid one.
func Seed(ctx context.Context, store domain.LocationStore, records []domain.LocationRecord) (int, error) {
	for i, rec := range records {
		if _, err := store.SaveLocation(ctx, rec); err != nil {
			return i, fmt.Errorf("seed record %d (%s): %w", i, rec.ID, err)
		}
	}
	return len(records), nil
}
