package domain

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
)

const DefaultCoordinateRadius = 1.0

// geographic point with an optional radius in miles
type Coordinate struct {
	Lat    float64 `json:"lat" yaml:"lat"`
	Lng    float64 `json:"lng" yaml:"lng"`
	Radius float64 `json:"radius" yaml:"radius"`
}

// per-location geo-targeting override
type TargetingConfig struct {
	LocationID     string       `json:"location_id"`
	PrimaryLat     *float64     `json:"primary_lat,omitempty"`
	PrimaryLng     *float64     `json:"primary_lng,omitempty"`
	RadiusMiles    *float64     `json:"radius_miles,omitempty"`
	CoordinateList []Coordinate `json:"coordinate_list"`
	LandingPageURL string       `json:"landing_page_url,omitempty"`
	Notes          string       `json:"notes,omitempty"`
	IsActive       bool         `json:"is_active"`
}

// HasPrimary reports whether the primary point and radius are all set.
func (t *TargetingConfig) HasPrimary() bool {
	return t != nil && t.PrimaryLat != nil && t.PrimaryLng != nil && t.RadiusMiles != nil
}

// Validate checks the all-or-nothing primary triple, coordinate bounds and the landing page URL.
func (t *TargetingConfig) Validate() error {
	if t == nil {
		return nil
	}

	var problems []string

	set := 0
	for _, v := range []*float64{t.PrimaryLat, t.PrimaryLng, t.RadiusMiles} {
		if v != nil {
			set++
		}
	}
	if set > 0 && set < 3 {
		problems = append(problems, "primary_lat, primary_lng and radius_miles must be set together")
	}
	if t.PrimaryLat != nil && !validLat(*t.PrimaryLat) {
		problems = append(problems, fmt.Sprintf("primary_lat %v out of range [-90,90]", *t.PrimaryLat))
	}
	if t.PrimaryLng != nil && !validLng(*t.PrimaryLng) {
		problems = append(problems, fmt.Sprintf("primary_lng %v out of range [-180,180]", *t.PrimaryLng))
	}
	if t.RadiusMiles != nil && *t.RadiusMiles <= 0 {
		problems = append(problems, "radius_miles must be positive")
	}

	for i, c := range t.CoordinateList {
		if !validLat(c.Lat) {
			problems = append(problems, fmt.Sprintf("coordinate_list[%d].lat %v out of range", i, c.Lat))
		}
		if !validLng(c.Lng) {
			problems = append(problems, fmt.Sprintf("coordinate_list[%d].lng %v out of range", i, c.Lng))
		}
		if c.Radius <= 0 {
			problems = append(problems, fmt.Sprintf("coordinate_list[%d].radius must be positive", i))
		}
	}

	if t.LandingPageURL != "" && !isAbsoluteURL(t.LandingPageURL) {
		problems = append(problems, "landing_page_url must be an absolute URL")
	}

	if len(problems) > 0 {
		return NewInputError(problems...)
	}
	return nil
}

// Clone returns a deep copy.
func (t *TargetingConfig) Clone() *TargetingConfig {
	if t == nil {
		return nil
	}
	c := *t
	c.PrimaryLat = cloneFloat(t.PrimaryLat)
	c.PrimaryLng = cloneFloat(t.PrimaryLng)
	c.RadiusMiles = cloneFloat(t.RadiusMiles)
	c.CoordinateList = slices.Clone(t.CoordinateList)
	return &c
}

// retail location as supplied by the directory
type Location struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	Address        string           `json:"address,omitempty"`
	City           string           `json:"city,omitempty"`
	State          string           `json:"state,omitempty"`
	PostalCode     string           `json:"postal_code,omitempty"`
	Lat            float64          `json:"lat"`
	Lng            float64          `json:"lng"`
	HasPoint       bool             `json:"has_point"`
	LandingPageURL string           `json:"landing_page_url,omitempty"`
	Targeting      *TargetingConfig `json:"targeting,omitempty"`
}

// ActiveTargeting returns the targeting config only when it is present and active.
func (l Location) ActiveTargeting() *TargetingConfig {
	if l.Targeting != nil && l.Targeting.IsActive {
		return l.Targeting
	}
	return nil
}

// Clone returns a copy that shares no targeting state with l.
func (l Location) Clone() Location {
	l.Targeting = l.Targeting.Clone()
	return l
}

// ValidatePoint checks the location's own coordinates.
func (l Location) ValidatePoint() error {
	if !l.HasPoint {
		return nil
	}
	if !validLat(l.Lat) || !validLng(l.Lng) {
		return NewInputError(fmt.Sprintf("location %s has out-of-range coordinates (%v, %v)", l.ID, l.Lat, l.Lng))
	}
	return nil
}

// CoordinateRecord is the optional-field shape of a coordinate entry.
type CoordinateRecord struct {
	Lat    *float64 `json:"lat" yaml:"lat"`
	Lng    *float64 `json:"lng" yaml:"lng"`
	Radius *float64 `json:"radius" yaml:"radius"`
}

// TargetingRecord is the optional-field shape of a targeting config.
type TargetingRecord struct {
	PrimaryLat     *float64           `json:"primary_lat" yaml:"primary_lat"`
	PrimaryLng     *float64           `json:"primary_lng" yaml:"primary_lng"`
	RadiusMiles    *float64           `json:"radius_miles" yaml:"radius_miles"`
	CoordinateList []CoordinateRecord `json:"coordinate_list" yaml:"coordinate_list"`
	LandingPageURL *string            `json:"landing_page_url" yaml:"landing_page_url"`
	Notes          *string            `json:"notes" yaml:"notes"`
	IsActive       *bool              `json:"is_active" yaml:"is_active"`
}

// LocationRecord is a location as it arrives from JSON, YAML or a database row,
// with every field optional.
type LocationRecord struct {
	ID             string           `json:"id" yaml:"id"`
	Name           *string          `json:"name" yaml:"name"`
	Address        *string          `json:"address" yaml:"address"`
	City           *string          `json:"city" yaml:"city"`
	State          *string          `json:"state" yaml:"state"`
	PostalCode     *string          `json:"postal_code" yaml:"postal_code"`
	Lat            *float64         `json:"lat" yaml:"lat"`
	Lng            *float64         `json:"lng" yaml:"lng"`
	LandingPageURL *string          `json:"landing_page_url" yaml:"landing_page_url"`
	Targeting      *TargetingRecord `json:"targeting" yaml:"targeting"`
}

// Normalize resolves defaults once at the directory boundary.
func (r LocationRecord) Normalize() (Location, error) {
	if strings.TrimSpace(r.ID) == "" {
		return Location{}, NewInputError("location id is required")
	}

	loc := Location{
		ID:             r.ID,
		Name:           deref(r.Name),
		Address:        deref(r.Address),
		City:           deref(r.City),
		State:          deref(r.State),
		PostalCode:     deref(r.PostalCode),
		LandingPageURL: strings.TrimSpace(deref(r.LandingPageURL)),
	}
	if r.Lat != nil && r.Lng != nil {
		loc.Lat, loc.Lng, loc.HasPoint = *r.Lat, *r.Lng, true
	}
	if err := loc.ValidatePoint(); err != nil {
		return Location{}, err
	}

	if r.Targeting != nil {
		tc := r.Targeting.Normalize(r.ID)
		if err := tc.Validate(); err != nil {
			return Location{}, fmt.Errorf("location %s targeting: %w", r.ID, err)
		}
		loc.Targeting = tc
	}

	return loc, nil
}

// Normalize converts the record into a TargetingConfig, defaulting coordinate radii to 1
// and is_active to true.
func (r TargetingRecord) Normalize(locationID string) *TargetingConfig {
	tc := &TargetingConfig{
		LocationID:     locationID,
		PrimaryLat:     r.PrimaryLat,
		PrimaryLng:     r.PrimaryLng,
		RadiusMiles:    r.RadiusMiles,
		CoordinateList: make([]Coordinate, 0, len(r.CoordinateList)),
		LandingPageURL: strings.TrimSpace(deref(r.LandingPageURL)),
		Notes:          deref(r.Notes),
		IsActive:       true,
	}
	if r.IsActive != nil {
		tc.IsActive = *r.IsActive
	}
	for _, c := range r.CoordinateList {
		coord := Coordinate{Radius: DefaultCoordinateRadius}
		if c.Lat != nil {
			coord.Lat = *c.Lat
		}
		if c.Lng != nil {
			coord.Lng = *c.Lng
		}
		if c.Radius != nil {
			coord.Radius = *c.Radius
		}
		tc.CoordinateList = append(tc.CoordinateList, coord)
	}
	return tc
}

func validLat(v float64) bool { return v >= -90 && v <= 90 }
func validLng(v float64) bool { return v >= -180 && v <= 180 }

func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && u.IsAbs() && u.Host != ""
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
