package usecase

import (
	"fmt"
	"iter"
	"strings"

	"campaignexport/internal/domain"

	"github.com/shopspring/decimal"
)

const fallbackLandingPage = "https://www.waxcenter.com/"

// Expansion is the validated cross-product of locations and ad variants.
type Expansion struct {
	locations []domain.Location
	variants  []domain.AdVariant
	campaign  domain.CampaignConfig
	template  domain.ReferenceTemplate
	parts     NameParts
}

// NewExpansion rejects an empty cross-product before any record is produced.
func NewExpansion(locations []domain.Location, variants []domain.AdVariant, campaign domain.CampaignConfig, tmpl domain.ReferenceTemplate) (*Expansion, error) {
	var problems []string
	if len(locations) == 0 {
		problems = append(problems, "at least one location must be selected")
	}
	if len(variants) == 0 {
		problems = append(problems, "at least one ad variant is required")
	}
	if len(problems) > 0 {
		return nil, domain.NewInputError(problems...)
	}

	return &Expansion{
		locations: locations,
		variants:  variants,
		campaign:  campaign,
		template:  tmpl,
		parts: NameParts{
			Prefix:    campaign.Prefix,
			Platform:  campaign.Platform,
			Month:     campaign.ResolvedMonth(),
			Day:       campaign.ResolvedDay(),
			Objective: campaign.Objective,
			TestType:  campaign.TestType,
		},
	}, nil
}

// Len is the number of records the expansion yields.
func (e *Expansion) Len() int {
	return len(e.locations) * len(e.variants)
}

// Records yields location-major, variant-minor. The sequence can be ranged over repeatedly.
func (e *Expansion) Records() iter.Seq2[int, domain.GeneratedRecord] {
	return func(yield func(int, domain.GeneratedRecord) bool) {
		i := 0
		for _, loc := range e.locations {
			names := ResolveNames(e.parts, loc.Name)
			targeting := FormatTargeting(loc, e.campaign.Radius)
			landing := ResolveLandingPage(loc, e.template)

			for _, variant := range e.variants {
				rec := domain.GeneratedRecord{
					LocationID:   loc.ID,
					VariantID:    variant.ID,
					AdStatus:     variant.Status.PlatformStatus(),
					Objective:    e.campaign.Objective,
					BidStrategy:  e.campaign.BidStrategy,
					CampaignName: names.Campaign,
					AdSetName:    names.AdSet,
					AdName:       names.Ad,
					Targeting:    targeting,
					LandingPage:  landing,
					Budget:       e.campaign.Budget,
					StartTime:    e.campaign.StartDate,
					StopTime:     e.campaign.StopTime(),
					Template:     e.template,
				}
				if !yield(i, rec) {
					return
				}
				i++
			}
		}
	}
}

// FormatTargeting renders "(lat, lng) +Rmi" from the active targeting config, else from the
// location's own point and the campaign default radius. Extra coordinates follow, "; "-separated.
func FormatTargeting(loc domain.Location, defaultRadius decimal.Decimal) string {
	var parts []string

	tc := loc.ActiveTargeting()
	switch {
	case tc.HasPrimary():
		parts = append(parts, formatPoint(*tc.PrimaryLat, *tc.PrimaryLng, decimal.NewFromFloat(*tc.RadiusMiles)))
	case loc.HasPoint:
		parts = append(parts, formatPoint(loc.Lat, loc.Lng, defaultRadius))
	}

	if tc != nil {
		for _, c := range tc.CoordinateList {
			parts = append(parts, formatPoint(c.Lat, c.Lng, decimal.NewFromFloat(c.Radius)))
		}
	}

	return strings.Join(parts, "; ")
}

func formatPoint(lat, lng float64, radius decimal.Decimal) string {
	return fmt.Sprintf("(%s, %s) +%smi", formatCoord(lat), formatCoord(lng), radius.String())
}

func formatCoord(v float64) string {
	s := fmt.Sprintf("%.3f", v)
	if s == "-0.000" {
		return "0.000"
	}
	return s
}

// ResolveLandingPage picks the first non-empty of: the location's own URL, the active targeting
// config's URL, the template URL with the location slug substituted, the template default, and
// a hardcoded fallback.
func ResolveLandingPage(loc domain.Location, tmpl domain.ReferenceTemplate) string {
	if loc.LandingPageURL != "" {
		return loc.LandingPageURL
	}
	if tc := loc.ActiveTargeting(); tc != nil && tc.LandingPageURL != "" {
		return tc.LandingPageURL
	}
	if tmpl.LandingPageTemplate != "" {
		if !strings.Contains(tmpl.LandingPageTemplate, "{slug}") {
			return tmpl.LandingPageTemplate
		}
		if slug := Slug(loc.Name); slug != "" {
			return strings.ReplaceAll(tmpl.LandingPageTemplate, "{slug}", slug)
		}
	}
	if tmpl.DefaultLandingPage != "" {
		return tmpl.DefaultLandingPage
	}
	return fallbackLandingPage
}
