package infrastructure

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"campaignexport/internal/domain"
	"campaignexport/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

// exerciseLocationStore runs the same behaviour checks against every store implementation.
func exerciseLocationStore(t *testing.T, store domain.LocationStore) {
	ctx := context.Background()

	_, err := store.SaveLocation(ctx, domain.LocationRecord{
		ID: "ofa", Name: ptr("O'Fallon"), City: ptr("O'Fallon"), State: ptr("MO"),
		Lat: ptr(38.8106), Lng: ptr(-90.6998),
	})
	require.NoError(t, err)

	saved, err := store.SaveLocation(ctx, domain.LocationRecord{
		ID:   "chi",
		Name: ptr("Chicago"),
		Lat:  ptr(41.8781),
		Lng:  ptr(-87.6298),
		Targeting: &domain.TargetingRecord{
			PrimaryLat:     ptr(41.714),
			PrimaryLng:     ptr(-87.653),
			RadiusMiles:    ptr(8.0),
			CoordinateList: []domain.CoordinateRecord{{Lat: ptr(41.9), Lng: ptr(-87.7)}},
			LandingPageURL: ptr("https://example.com/chicago"),
		},
	})
	require.NoError(t, err)
	assert.True(t, saved.HasPoint)

	locations, err := store.ListLocations(ctx)
	require.NoError(t, err)
	require.Len(t, locations, 2)
	assert.Equal(t, "chi", locations[0].ID, "ordered by name")
	assert.Equal(t, "ofa", locations[1].ID)
	assert.Equal(t, "MO", locations[1].State)
	assert.Nil(t, locations[1].Targeting)

	config, err := store.GetTargetingConfig(ctx, "chi")
	require.NoError(t, err)
	require.NotNil(t, config)
	assert.True(t, config.IsActive)
	assert.Equal(t, 41.714, *config.PrimaryLat)
	assert.Equal(t, 8.0, *config.RadiusMiles)
	assert.Equal(t, []domain.Coordinate{{Lat: 41.9, Lng: -87.7, Radius: 1}}, config.CoordinateList)
	assert.Equal(t, "https://example.com/chicago", config.LandingPageURL)

	config, err = store.GetTargetingConfig(ctx, "ofa")
	require.NoError(t, err)
	assert.Nil(t, config)

	require.NoError(t, store.SaveTargetingConfig(ctx, domain.TargetingConfig{
		LocationID: "ofa", IsActive: false, Notes: "paused for remodel",
	}))
	config, err = store.GetTargetingConfig(ctx, "ofa")
	require.NoError(t, err)
	require.NotNil(t, config)
	assert.False(t, config.IsActive)
	assert.Equal(t, "paused for remodel", config.Notes)

	err = store.SaveTargetingConfig(ctx, domain.TargetingConfig{LocationID: "missing", IsActive: true})
	assert.True(t, domain.IsLocationNotFound(err))

	err = store.SaveTargetingConfig(ctx, domain.TargetingConfig{LocationID: "chi", PrimaryLat: ptr(1.0)})
	assert.True(t, domain.IsInputError(err))

	_, err = store.GetTargetingConfig(ctx, "missing")
	assert.True(t, domain.IsLocationNotFound(err))

	_, err = store.SaveLocation(ctx, domain.LocationRecord{ID: "bad", Lat: ptr(95.0), Lng: ptr(0.0)})
	assert.True(t, domain.IsInputError(err))

	require.NoError(t, store.DeleteLocation(ctx, "ofa"))
	assert.True(t, domain.IsLocationNotFound(store.DeleteLocation(ctx, "ofa")))

	locations, err = store.ListLocations(ctx)
	require.NoError(t, err)
	require.Len(t, locations, 1)
	assert.Equal(t, "chi", locations[0].ID)
}

func TestMemoryLocationStore(t *testing.T) {
	exerciseLocationStore(t, NewMemoryLocationStore(logger.Discard()))
}

func TestMemoryLocationStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryLocationStore(logger.Discard())
	_, err := store.SaveLocation(ctx, domain.LocationRecord{
		ID:        "chi",
		Targeting: &domain.TargetingRecord{CoordinateList: []domain.CoordinateRecord{{Lat: ptr(1.0), Lng: ptr(2.0)}}},
	})
	require.NoError(t, err)

	config, err := store.GetTargetingConfig(ctx, "chi")
	require.NoError(t, err)
	config.CoordinateList[0].Lat = 50

	again, err := store.GetTargetingConfig(ctx, "chi")
	require.NoError(t, err)
	assert.Equal(t, 1.0, again.CoordinateList[0].Lat)
}

func TestBoltLocationStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locations.db")

	store, err := OpenBoltLocationStore(path, logger.Discard())
	require.NoError(t, err)
	exerciseLocationStore(t, store)
	require.NoError(t, store.Close())

	reopened, err := OpenBoltLocationStore(path, logger.Discard())
	require.NoError(t, err)
	defer reopened.Close()

	locations, err := reopened.ListLocations(context.Background())
	require.NoError(t, err)
	require.Len(t, locations, 1)
	assert.Equal(t, "Chicago", locations[0].Name)
	require.NotNil(t, locations[0].Targeting)
	assert.Equal(t, 8.0, *locations[0].Targeting.RadiusMiles)
}

func TestPostgresLocationStore(t *testing.T) {
	url := os.Getenv("TEST_POSTGRES_URL")
	if url == "" {
		t.Skip("TEST_POSTGRES_URL not set")
	}
	ctx := context.Background()

	require.NoError(t, Migrate(url))
	pool, err := NewPostgresPool(ctx, url)
	require.NoError(t, err)

	_, err = pool.Exec(ctx, `TRUNCATE locations CASCADE`)
	require.NoError(t, err)

	store := NewPostgresLocationStore(pool, logger.Discard())
	defer store.Close()
	exerciseLocationStore(t, store)
}
