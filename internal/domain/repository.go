package domain

import (
	"context"
)

// read-only contract consumed from the location directory
type LocationDirectory interface {
	ListLocations(ctx context.Context) ([]Location, error)
	// returns nil, nil when the location has no targeting config
	GetTargetingConfig(ctx context.Context, locationID string) (*TargetingConfig, error)
}

// read/write contract implemented by directory storage adapters
type LocationStore interface {
	LocationDirectory
	SaveLocation(ctx context.Context, record LocationRecord) (Location, error)
	SaveTargetingConfig(ctx context.Context, config TargetingConfig) error
	DeleteLocation(ctx context.Context, locationID string) error
	Close() error
}

// interface for caching completed job artifacts
type ArtifactStore interface {
	Put(ctx context.Context, key string, artifact *Artifact) error
	// returns nil, nil on a miss
	Get(ctx context.Context, key string) (*Artifact, error)
	// deleting a missing key is not an error
	Delete(ctx context.Context, keys ...string) error
}

// interface for announcing terminal job states
type JobNotifier interface {
	Notify(ctx context.Context, snapshot JobSnapshot) error
}
