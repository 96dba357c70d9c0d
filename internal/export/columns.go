package export

import (
	"strconv"
	"time"

	"campaignexport/internal/domain"
)

// DateLayout renders instants as MM/DD/YYYY hh:mm:ss am|pm. All instants are rendered in UTC.
const DateLayout = "01/02/2006 03:04:05 pm"

// Column is one position in the bulk import sheet. Exactly one of Value and JSON is set;
// JSON columns hold structured data that is embedded as a JSON string in a single cell.
type Column struct {
	Header string
	Value  func(r *domain.GeneratedRecord) string
	JSON   func(r *domain.GeneratedRecord) any
}

type rec = domain.GeneratedRecord

func empty(*rec) string { return "" }

func tmpl(f func(t *domain.ReferenceTemplate) string) func(*rec) string {
	return func(r *rec) string { return f(&r.Template) }
}

// The importer is position-based: order here is the wire format.
var columns = []Column{
	// campaign
	{Header: "Campaign ID", Value: empty},
	{Header: "Creation Package Config ID", Value: empty},
	{Header: "Campaign Name", Value: func(r *rec) string { return r.CampaignName }},
	{Header: "Special Ad Categories", Value: tmpl(func(t *domain.ReferenceTemplate) string { return t.SpecialAdCategories })},
	{Header: "Special Ad Category Country", Value: tmpl(func(t *domain.ReferenceTemplate) string { return t.SpecialAdCategoryCountry })},
	{Header: "Campaign Status", Value: tmpl(func(t *domain.ReferenceTemplate) string { return t.CampaignStatus })},
	{Header: "Campaign Objective", Value: func(r *rec) string { return r.Objective }},
	{Header: "Buying Type", Value: tmpl(func(t *domain.ReferenceTemplate) string { return t.BuyingType })},
	{Header: "Campaign Spend Limit", Value: empty},
	{Header: "Campaign Daily Budget", Value: func(r *rec) string { return r.Budget.String() }},
	{Header: "Campaign Lifetime Budget", Value: empty},
	{Header: "Campaign Bid Strategy", Value: func(r *rec) string { return r.BidStrategy }},
	{Header: "Campaign Start Time", Value: func(r *rec) string { return FormatTime(r.StartTime) }},
	{Header: "Campaign Stop Time", Value: func(r *rec) string { return FormatTime(r.StopTime) }},

	// ad set
	{Header: "Ad Set ID", Value: empty},
	{Header: "Ad Set Run Status", Value: tmpl(func(t *domain.ReferenceTemplate) string { return t.AdSetRunStatus })},
	{Header: "Ad Set Lifetime Impressions", Value: empty},
	{Header: "Ad Set Name", Value: func(r *rec) string { return r.AdSetName }},
	{Header: "Ad Set Time Start", Value: func(r *rec) string { return FormatTime(r.StartTime) }},
	{Header: "Ad Set Time Stop", Value: func(r *rec) string { return FormatTime(r.StopTime) }},
	{Header: "Ad Set Daily Budget", Value: empty},
	{Header: "Ad Set Lifetime Budget", Value: empty},
	{Header: "Destination Type", Value: tmpl(func(t *domain.ReferenceTemplate) string { return t.DestinationType })},
	{Header: "Use Accelerated Delivery", Value: tmpl(func(t *domain.ReferenceTemplate) string { return t.UseAcceleratedDelivery })},
	{Header: "Is Budget Scheduling Enabled For Time Period", Value: tmpl(func(t *domain.ReferenceTemplate) string { return t.BudgetSchedulingEnabled })},
	{Header: "Link Object ID", Value: tmpl(func(t *domain.ReferenceTemplate) string { return t.LinkObjectID })},
	{Header: "Optimized Conversion Tracking Pixels", Value: tmpl(func(t *domain.ReferenceTemplate) string { return t.ConversionTrackingPixels })},
	{Header: "Optimized Event", Value: tmpl(func(t *domain.ReferenceTemplate) string { return t.OptimizedEvent })},
	{Header: "Addresses", Value: func(r *rec) string { return r.Targeting }},
	{Header: "Location Types", Value: tmpl(func(t *domain.ReferenceTemplate) string { return t.LocationTypes })},
	{Header: "Gender", Value: tmpl(func(t *domain.ReferenceTemplate) string { return t.Gender })},
	{Header: "Age Min", Value: tmpl(func(t *domain.ReferenceTemplate) string { return intCell(t.AgeMin) })},
	{Header: "Age Max", Value: tmpl(func(t *domain.ReferenceTemplate) string { return intCell(t.AgeMax) })},
	{Header: "Flexible Inclusions", JSON: func(r *rec) any { return r.Template.FlexibleInclusions }},
	{Header: "Advantage Audience", Value: tmpl(func(t *domain.ReferenceTemplate) string { return t.AdvantageAudience })},
	{Header: "Targeting Optimization", Value: tmpl(func(t *domain.ReferenceTemplate) string { return t.TargetingOptimization })},
	{Header: "Beneficiary", Value: tmpl(func(t *domain.ReferenceTemplate) string { return t.Beneficiary })},
	{Header: "Payer", Value: tmpl(func(t *domain.ReferenceTemplate) string { return t.Payer })},
	{Header: "Publisher Platforms", Value: tmpl(func(t *domain.ReferenceTemplate) string { return t.PublisherPlatforms })},
	{Header: "Facebook Positions", Value: tmpl(func(t *domain.ReferenceTemplate) string { return t.FacebookPositions })},
	{Header: "Instagram Positions", Value: tmpl(func(t *domain.ReferenceTemplate) string { return t.InstagramPositions })},
	{Header: "Audience Network Positions", Value: tmpl(func(t *domain.ReferenceTemplate) string { return t.AudienceNetworkPositions })},
	{Header: "Messenger Positions", Value: tmpl(func(t *domain.ReferenceTemplate) string { return t.MessengerPositions })},
	{Header: "Device Platforms", Value: tmpl(func(t *domain.ReferenceTemplate) string { return t.DevicePlatforms })},
	{Header: "Optimization Goal", Value: tmpl(func(t *domain.ReferenceTemplate) string { return t.OptimizationGoal })},
	{Header: "Attribution Spec", JSON: func(r *rec) any { return r.Template.AttributionSpec }},
	{Header: "Billing Event", Value: tmpl(func(t *domain.ReferenceTemplate) string { return t.BillingEvent })},

	// ad
	{Header: "Ad ID", Value: empty},
	{Header: "Ad Status", Value: func(r *rec) string { return r.AdStatus }},
	{Header: "Preview Link", Value: empty},
	{Header: "Instagram Preview Link", Value: empty},
	{Header: "Ad Name", Value: func(r *rec) string { return r.AdName }},
	{Header: "Dynamic Creative Ad Format", Value: tmpl(func(t *domain.ReferenceTemplate) string { return t.DynamicCreativeAdFormat })},
	{Header: "Title", Value: tmpl(func(t *domain.ReferenceTemplate) string { return t.Title })},
	{Header: "Body", Value: tmpl(func(t *domain.ReferenceTemplate) string { return t.Body })},
	{Header: "Display Link", Value: tmpl(func(t *domain.ReferenceTemplate) string { return t.DisplayLink })},
	{Header: "Link Description", Value: tmpl(func(t *domain.ReferenceTemplate) string { return t.LinkDescription })},
	{Header: "Optimize text per person", Value: tmpl(func(t *domain.ReferenceTemplate) string { return t.OptimizeTextPerPerson })},
	{Header: "Conversion Tracking Pixels", Value: tmpl(func(t *domain.ReferenceTemplate) string { return t.ConversionTrackingPixels })},
	{Header: "Creative Type", Value: tmpl(func(t *domain.ReferenceTemplate) string { return t.CreativeType })},
	{Header: "URL Tags", Value: tmpl(func(t *domain.ReferenceTemplate) string { return t.URLTags })},
	{Header: "Link", Value: func(r *rec) string { return r.LandingPage }},
	{Header: "Call to Action", Value: tmpl(func(t *domain.ReferenceTemplate) string { return t.CallToAction })},
	{Header: "Additional Custom Tracking Specs", Value: tmpl(func(t *domain.ReferenceTemplate) string { return t.AdditionalTrackingSpecs })},
	{Header: "Video Retargeting", Value: tmpl(func(t *domain.ReferenceTemplate) string { return t.VideoRetargeting })},
	{Header: "Permalink", Value: tmpl(func(t *domain.ReferenceTemplate) string { return t.Permalink })},
	{Header: "Use Page as Actor", Value: tmpl(func(t *domain.ReferenceTemplate) string { return t.UsePageAsActor })},
	{Header: "Image Hash", Value: tmpl(func(t *domain.ReferenceTemplate) string { return t.ImageHash })},
	{Header: "Image Crops", Value: tmpl(func(t *domain.ReferenceTemplate) string { return t.ImageCrops })},
	{Header: "Video ID", Value: tmpl(func(t *domain.ReferenceTemplate) string { return t.VideoID })},
	{Header: "Video Thumbnail URL", Value: tmpl(func(t *domain.ReferenceTemplate) string { return t.VideoThumbnailURL })},
	{Header: "Instagram Account ID", Value: tmpl(func(t *domain.ReferenceTemplate) string { return t.InstagramAccountID })},
	{Header: "Instagram Platform Image Hash", Value: tmpl(func(t *domain.ReferenceTemplate) string { return t.InstagramImageHash })},
	{Header: "Instagram Platform Image Crops", Value: tmpl(func(t *domain.ReferenceTemplate) string { return t.InstagramImageCrops })},
	{Header: "Instagram Platform Image URL", Value: tmpl(func(t *domain.ReferenceTemplate) string { return t.InstagramImageURL })},
	{Header: "Degrees of Freedom Type", Value: tmpl(func(t *domain.ReferenceTemplate) string { return t.DegreesOfFreedomType })},
	{Header: "Text Transformations", Value: tmpl(func(t *domain.ReferenceTemplate) string { return t.TextTransformations })},
	{Header: "Multi-Advertiser Ads", Value: tmpl(func(t *domain.ReferenceTemplate) string { return t.MultiAdvertiserAds })},
	{Header: "Brand Safety Inventory Filtering Levels", Value: tmpl(func(t *domain.ReferenceTemplate) string { return t.BrandSafetyInventoryLevels })},
}

// Columns returns the header row in wire order.
func Columns() []string {
	headers := make([]string, len(columns))
	for i, c := range columns {
		headers[i] = c.Header
	}
	return headers
}

// ColumnIndex returns the position of a header, or -1.
func ColumnIndex(header string) int {
	for i, c := range columns {
		if c.Header == header {
			return i
		}
	}
	return -1
}

// FormatTime renders t in UTC; nil renders as an empty cell.
func FormatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(DateLayout)
}

func intCell(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}
