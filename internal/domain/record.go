package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// GeneratedRecord is one resolved (location x ad variant) row before serialization.
type GeneratedRecord struct {
	LocationID  string
	VariantID   string
	AdStatus    string
	Objective   string
	BidStrategy string

	CampaignName string
	AdSetName    string
	AdName       string

	Targeting   string
	LandingPage string

	Budget    decimal.Decimal
	StartTime *time.Time
	StopTime  *time.Time

	Template ReferenceTemplate
}
