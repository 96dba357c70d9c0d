package domain

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

type AdStatus string

const (
	AdStatusActive    AdStatus = "active"
	AdStatusPaused    AdStatus = "paused"
	AdStatusDraft     AdStatus = "draft"
	AdStatusCompleted AdStatus = "completed"
)

// PlatformStatus maps the lifecycle status onto the importer's ad status vocabulary.
func (s AdStatus) PlatformStatus() string {
	switch s {
	case AdStatusPaused, AdStatusDraft:
		return "PAUSED"
	case AdStatusCompleted:
		return "ARCHIVED"
	default:
		return "ACTIVE"
	}
}

// one creative definition within a campaign
type AdVariant struct {
	ID            string     `json:"id" yaml:"id" validate:"required"`
	Name          string     `json:"name" yaml:"name" validate:"required"`
	TemplateID    string     `json:"template_id" yaml:"template_id"`
	Caption       string     `json:"caption" yaml:"caption"`
	ScheduledDate *time.Time `json:"scheduled_date,omitempty" yaml:"scheduled_date"`
	Status        AdStatus   `json:"status" yaml:"status" validate:"omitempty,oneof=active paused draft completed"`
}

// shared settings for one export run
type CampaignConfig struct {
	Prefix      string          `json:"prefix" yaml:"prefix" validate:"required"`
	Platform    string          `json:"platform" yaml:"platform" validate:"required"`
	Objective   string          `json:"objective" yaml:"objective"`
	TestType    string          `json:"test_type" yaml:"test_type"`
	Month       string          `json:"month" yaml:"month"`
	Day         string          `json:"day" yaml:"day" validate:"omitempty,numeric"`
	Duration    int             `json:"duration" yaml:"duration" validate:"gte=0"`
	Budget      decimal.Decimal `json:"budget" yaml:"budget" validate:"gt=0"`
	BidStrategy string          `json:"bid_strategy" yaml:"bid_strategy"`
	StartDate   *time.Time      `json:"start_date,omitempty" yaml:"start_date"`
	EndDate     *time.Time      `json:"end_date,omitempty" yaml:"end_date"`
	Radius      decimal.Decimal `json:"radius" yaml:"radius" validate:"gt=0"`
	AdVariants  []AdVariant     `json:"ad_variants" yaml:"ad_variants" validate:"min=1,dive"`
}

// ResolvedMonth returns the configured month, falling back to the start date's month name.
func (c CampaignConfig) ResolvedMonth() string {
	if c.Month != "" {
		return c.Month
	}
	if c.StartDate != nil {
		return c.StartDate.UTC().Month().String()
	}
	return ""
}

// ResolvedDay returns the configured day, falling back to the start date's day of month.
func (c CampaignConfig) ResolvedDay() string {
	if c.Day != "" {
		return c.Day
	}
	if c.StartDate != nil {
		return strconv.Itoa(c.StartDate.UTC().Day())
	}
	return ""
}

// StopTime is the end date, or start plus duration days when only a duration is given.
func (c CampaignConfig) StopTime() *time.Time {
	if c.EndDate != nil {
		return c.EndDate
	}
	if c.StartDate != nil && c.Duration > 0 {
		stop := c.StartDate.AddDate(0, 0, c.Duration)
		return &stop
	}
	return nil
}
