package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestTargetingConfigValidate(t *testing.T) {
	tests := []struct {
		name     string
		config   *TargetingConfig
		problems []string
	}{
		{name: "nil config", config: nil},
		{name: "empty config", config: &TargetingConfig{LocationID: "loc-1"}},
		{
			name: "full primary triple",
			config: &TargetingConfig{
				PrimaryLat:  ptr(41.714),
				PrimaryLng:  ptr(-87.653),
				RadiusMiles: ptr(8.0),
			},
		},
		{
			name:     "partial primary",
			config:   &TargetingConfig{PrimaryLat: ptr(41.7)},
			problems: []string{"primary_lat, primary_lng and radius_miles must be set together"},
		},
		{
			name: "out of range latitude and zero radius",
			config: &TargetingConfig{
				PrimaryLat:  ptr(91.0),
				PrimaryLng:  ptr(10.0),
				RadiusMiles: ptr(0.0),
			},
			problems: []string{
				"primary_lat 91 out of range [-90,90]",
				"radius_miles must be positive",
			},
		},
		{
			name: "bad coordinate entry",
			config: &TargetingConfig{
				CoordinateList: []Coordinate{{Lat: 10, Lng: 200, Radius: 1}},
			},
			problems: []string{"coordinate_list[0].lng 200 out of range"},
		},
		{
			name:     "relative landing page",
			config:   &TargetingConfig{LandingPageURL: "/locations/chicago"},
			problems: []string{"landing_page_url must be an absolute URL"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if len(tt.problems) == 0 {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.True(t, IsInputError(err))
			var inputErr *InputError
			require.ErrorAs(t, err, &inputErr)
			assert.Equal(t, tt.problems, inputErr.Problems)
		})
	}
}

func TestLocationRecordNormalize(t *testing.T) {
	rec := LocationRecord{
		ID:             "loc-1",
		Name:           ptr("Chicago"),
		Lat:            ptr(41.88),
		Lng:            ptr(-87.63),
		LandingPageURL: ptr("  https://example.com/chicago  "),
		Targeting: &TargetingRecord{
			CoordinateList: []CoordinateRecord{
				{Lat: ptr(41.9), Lng: ptr(-87.7)},
				{Lat: ptr(41.8), Lng: ptr(-87.6), Radius: ptr(3.5)},
			},
		},
	}

	loc, err := rec.Normalize()
	require.NoError(t, err)

	assert.Equal(t, "Chicago", loc.Name)
	assert.Empty(t, loc.City)
	assert.True(t, loc.HasPoint)
	assert.Equal(t, "https://example.com/chicago", loc.LandingPageURL)

	require.NotNil(t, loc.Targeting)
	assert.True(t, loc.Targeting.IsActive, "is_active defaults to true")
	assert.Equal(t, "loc-1", loc.Targeting.LocationID)
	assert.Equal(t, []Coordinate{
		{Lat: 41.9, Lng: -87.7, Radius: DefaultCoordinateRadius},
		{Lat: 41.8, Lng: -87.6, Radius: 3.5},
	}, loc.Targeting.CoordinateList)
}

func TestLocationRecordNormalizeRejects(t *testing.T) {
	_, err := LocationRecord{}.Normalize()
	assert.True(t, IsInputError(err))

	_, err = LocationRecord{ID: "x", Lat: ptr(100.0), Lng: ptr(0.0)}.Normalize()
	assert.True(t, IsInputError(err))

	_, err = LocationRecord{ID: "x", Targeting: &TargetingRecord{PrimaryLat: ptr(1.0)}}.Normalize()
	assert.True(t, IsInputError(err))
	assert.Contains(t, err.Error(), "location x targeting")
}

func TestLocationWithoutCoordinatesHasNoPoint(t *testing.T) {
	loc, err := LocationRecord{ID: "x", Lat: ptr(41.0)}.Normalize()
	require.NoError(t, err)
	assert.False(t, loc.HasPoint)
}

func TestActiveTargeting(t *testing.T) {
	loc := Location{ID: "a", Targeting: &TargetingConfig{IsActive: false}}
	assert.Nil(t, loc.ActiveTargeting())

	loc.Targeting.IsActive = true
	assert.Same(t, loc.Targeting, loc.ActiveTargeting())
}

func TestLocationCloneIsDeep(t *testing.T) {
	orig := Location{
		ID: "a",
		Targeting: &TargetingConfig{
			PrimaryLat:     ptr(1.0),
			CoordinateList: []Coordinate{{Lat: 1, Lng: 2, Radius: 3}},
		},
	}

	clone := orig.Clone()
	*clone.Targeting.PrimaryLat = 9
	clone.Targeting.CoordinateList[0].Lat = 9

	assert.Equal(t, 1.0, *orig.Targeting.PrimaryLat)
	assert.Equal(t, 1.0, orig.Targeting.CoordinateList[0].Lat)
}

func TestPlatformStatus(t *testing.T) {
	assert.Equal(t, "ACTIVE", AdStatusActive.PlatformStatus())
	assert.Equal(t, "ACTIVE", AdStatus("").PlatformStatus())
	assert.Equal(t, "PAUSED", AdStatusPaused.PlatformStatus())
	assert.Equal(t, "PAUSED", AdStatusDraft.PlatformStatus())
	assert.Equal(t, "ARCHIVED", AdStatusCompleted.PlatformStatus())
}

func TestCampaignDerivedFields(t *testing.T) {
	start := time.Date(2025, time.June, 25, 9, 0, 0, 0, time.UTC)
	c := CampaignConfig{StartDate: &start, Duration: 14, Budget: decimal.NewFromInt(50)}

	assert.Equal(t, "June", c.ResolvedMonth())
	assert.Equal(t, "25", c.ResolvedDay())
	require.NotNil(t, c.StopTime())
	assert.Equal(t, start.AddDate(0, 0, 14), *c.StopTime())

	end := start.AddDate(0, 1, 0)
	c.EndDate = &end
	c.Month, c.Day = "Jul", "1"
	assert.Equal(t, "Jul", c.ResolvedMonth())
	assert.Equal(t, "1", c.ResolvedDay())
	assert.Equal(t, &end, c.StopTime())

	assert.Nil(t, CampaignConfig{Duration: 3}.StopTime())
}

func TestDefaultReferenceTemplateIsCopied(t *testing.T) {
	a := DefaultReferenceTemplate()
	a.FlexibleInclusions[0].Interests[0].Name = "changed"
	a.AttributionSpec[0].WindowDays = 99

	b := DefaultReferenceTemplate()
	assert.Equal(t, "Fitness and wellness", b.FlexibleInclusions[0].Interests[0].Name)
	assert.Equal(t, 7, b.AttributionSpec[0].WindowDays)
}

func TestJobSnapshotProgress(t *testing.T) {
	assert.Zero(t, JobSnapshot{}.Progress())
	assert.Equal(t, 0.5, JobSnapshot{TotalRecords: 4, ProcessedRecords: 2}.Progress())
	assert.True(t, JobStatusFailed.IsTerminal())
	assert.False(t, JobStatusProcessing.IsTerminal())
}
