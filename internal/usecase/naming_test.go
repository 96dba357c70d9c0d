package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var juneParts = NameParts{
	Prefix:    "EWC",
	Platform:  "Meta",
	Month:     "June",
	Day:       "25",
	Objective: "Engagement",
	TestType:  "LocalTest",
}

func TestResolveNames(t *testing.T) {
	tests := []struct {
		name     string
		parts    NameParts
		location string
		want     Names
	}{
		{
			name:     "all segments",
			parts:    juneParts,
			location: "Chicago",
			want: Names{
				Campaign: "EWC_Meta_June25_Engagement_LocalTest_Chicago",
				AdSet:    "EWC_Meta_June25_Engagement_LocalTest_Chicago_June",
				Ad:       "EWC_Meta_June25_Engagement_LocalTest_Chicago_June",
			},
		},
		{
			name:     "apostrophe kept, whitespace stripped",
			parts:    juneParts,
			location: " O'Fallon  Park\t",
			want: Names{
				Campaign: "EWC_Meta_June25_Engagement_LocalTest_O'FallonPark",
				AdSet:    "EWC_Meta_June25_Engagement_LocalTest_O'FallonPark_June",
				Ad:       "EWC_Meta_June25_Engagement_LocalTest_O'FallonPark_June",
			},
		},
		{
			name:     "optional segments omitted",
			parts:    NameParts{Prefix: "EWC", Platform: "Meta", Month: "July", Day: "4"},
			location: "St Louis",
			want: Names{
				Campaign: "EWC_Meta_July4_StLouis",
				AdSet:    "EWC_Meta_July4_StLouis_July",
				Ad:       "EWC_Meta_July4_StLouis_July",
			},
		},
		{
			name:     "empty location name",
			parts:    NameParts{Prefix: "EWC", Platform: "Meta", Month: "June", Day: "25"},
			location: "",
			want: Names{
				Campaign: "EWC_Meta_June25_",
				AdSet:    "EWC_Meta_June25__June",
				Ad:       "EWC_Meta_June25__June",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveNames(tt.parts, tt.location)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got.AdSet, got.Ad)
		})
	}
}

func TestResolveNamesIsDeterministic(t *testing.T) {
	assert.Equal(t, ResolveNames(juneParts, "Chicago"), ResolveNames(juneParts, "Chicago"))
}

func TestResolveNamesPtr(t *testing.T) {
	assert.Equal(t, ResolveNames(juneParts, ""), ResolveNamesPtr(juneParts, nil))

	name := "Chicago"
	assert.Equal(t, ResolveNames(juneParts, name), ResolveNamesPtr(juneParts, &name))
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "chicago", Slug("Chicago"))
	assert.Equal(t, "ofallon", Slug("O'Fallon"))
	assert.Equal(t, "chicago-the-loop", Slug("  Chicago -- The Loop! "))
	assert.Equal(t, "", Slug("---"))
}
