package domain

import "slices"

// Interest is one entry of an interest-targeting group.
type Interest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// InterestGroup is OR-ed internally, AND-ed with sibling groups.
type InterestGroup struct {
	Interests []Interest `json:"interests"`
}

// AttributionWindow is one entry of the attribution specification.
type AttributionWindow struct {
	EventType  string `json:"event_type"`
	WindowDays int    `json:"window_days"`
}

// ReferenceTemplate holds the fixed creative and technical values carried by every ad row.
type ReferenceTemplate struct {
	SpecialAdCategories        string
	SpecialAdCategoryCountry   string
	CampaignStatus             string
	BuyingType                 string
	AdSetRunStatus             string
	DestinationType            string
	UseAcceleratedDelivery     string
	BudgetSchedulingEnabled    string
	LinkObjectID               string
	ConversionTrackingPixels   string
	OptimizedEvent             string
	LocationTypes              string
	Gender                     string
	AgeMin                     int
	AgeMax                     int
	FlexibleInclusions         []InterestGroup
	AdvantageAudience          string
	TargetingOptimization      string
	Beneficiary                string
	Payer                      string
	PublisherPlatforms         string
	FacebookPositions          string
	InstagramPositions         string
	AudienceNetworkPositions   string
	MessengerPositions         string
	DevicePlatforms            string
	OptimizationGoal           string
	AttributionSpec            []AttributionWindow
	BillingEvent               string
	DynamicCreativeAdFormat    string
	Title                      string
	Body                       string
	DisplayLink                string
	LinkDescription            string
	OptimizeTextPerPerson      string
	CreativeType               string
	URLTags                    string
	CallToAction               string
	AdditionalTrackingSpecs    string
	VideoRetargeting           string
	Permalink                  string
	UsePageAsActor             string
	ImageHash                  string
	ImageCrops                 string
	VideoID                    string
	VideoThumbnailURL          string
	InstagramAccountID         string
	InstagramImageHash         string
	InstagramImageCrops        string
	InstagramImageURL          string
	DegreesOfFreedomType       string
	TextTransformations        string
	MultiAdvertiserAds         string
	BrandSafetyInventoryLevels string

	// LandingPageTemplate may contain {slug}, replaced with the location's slug.
	LandingPageTemplate string
	DefaultLandingPage  string
}

var referenceTemplate = ReferenceTemplate{
	SpecialAdCategories:      "None",
	CampaignStatus:           "ACTIVE",
	BuyingType:               "AUCTION",
	AdSetRunStatus:           "ACTIVE",
	DestinationType:          "WEBSITE",
	UseAcceleratedDelivery:   "No",
	BudgetSchedulingEnabled:  "No",
	LinkObjectID:             "o:104623861234567",
	ConversionTrackingPixels: "tp:1380457652345678",
	LocationTypes:            "home, recent",
	AgeMin:                   18,
	AgeMax:                   65,
	FlexibleInclusions: []InterestGroup{
		{Interests: []Interest{
			{ID: "6003384248805", Name: "Fitness and wellness"},
			{ID: "6003254590688", Name: "Beauty salons"},
			{ID: "6002991239659", Name: "Cosmetics"},
		}},
	},
	AdvantageAudience:        "0",
	TargetingOptimization:    "none",
	PublisherPlatforms:       "facebook, instagram",
	FacebookPositions:        "feed, marketplace, video_feeds, story",
	InstagramPositions:       "stream, story, explore, reels",
	DevicePlatforms:          "mobile, desktop",
	OptimizationGoal:         "POST_ENGAGEMENT",
	AttributionSpec: []AttributionWindow{
		{EventType: "CLICK_THROUGH", WindowDays: 7},
		{EventType: "VIEW_THROUGH", WindowDays: 1},
	},
	BillingEvent:               "IMPRESSIONS",
	Title:                      "Your first wax is on us",
	Body:                       "Smooth skin, zero guesswork. Book your complimentary wax at a center near you, \"no strings attached\".",
	DisplayLink:                "waxcenter.com",
	LinkDescription:            "Book online in seconds",
	OptimizeTextPerPerson:      "No",
	CreativeType:               "Link Page Post Ad",
	URLTags:                    "utm_source=facebook&utm_medium=paid_social&utm_campaign={{campaign.name}}&utm_content={{ad.name}}",
	CallToAction:               "BOOK_NOW",
	VideoRetargeting:           "No",
	UsePageAsActor:             "No",
	ImageHash:                  "a1f4c3e2b7d94f0e8c6b5a4d3e2f1a0b",
	ImageCrops:                 `{"100x100":[[0,0],[1080,1080]]}`,
	InstagramAccountID:         "x:17841400000000000",
	DegreesOfFreedomType:       "USER_ENROLLED_NON_DCO",
	MultiAdvertiserAds:         "No",
	BrandSafetyInventoryLevels: "FACEBOOK_STANDARD, AN_STANDARD",
	LandingPageTemplate:        "https://www.waxcenter.com/locations/{slug}",
	DefaultLandingPage:         "https://www.waxcenter.com/",
}

// DefaultReferenceTemplate returns a copy of the process-wide template; callers may not alter the original.
func DefaultReferenceTemplate() ReferenceTemplate {
	t := referenceTemplate
	t.FlexibleInclusions = make([]InterestGroup, len(referenceTemplate.FlexibleInclusions))
	for i, g := range referenceTemplate.FlexibleInclusions {
		t.FlexibleInclusions[i] = InterestGroup{Interests: slices.Clone(g.Interests)}
	}
	t.AttributionSpec = slices.Clone(referenceTemplate.AttributionSpec)
	return t
}
