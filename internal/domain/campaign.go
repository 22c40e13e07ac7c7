package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CampaignStatus enumerates the publishing states of a campaign.
type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "DRAFT"
	CampaignActive    CampaignStatus = "ACTIVE"
	CampaignCompleted CampaignStatus = "COMPLETED"
	CampaignCancelled CampaignStatus = "CANCELLED"
)

// Campaign represents a fundraising campaign. CurrentAmount is held in the
// canonical accounting currency and is mutated only by the reconciliation
// flow: additive on a COMPLETED settlement, subtractive on a refund.
type Campaign struct {
	ID            string
	Title         string
	Slug          string
	Description   string
	GoalAmount    decimal.Decimal
	CurrentAmount decimal.Decimal
	Currency      string
	Status        CampaignStatus
	Category      string
	Location      string
	StartDate     time.Time
	EndDate       time.Time
	Verified      bool
	VerifiedAt    *time.Time
	CreatedByID   string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// AcceptsDonations reports whether the campaign can receive a new donation at
// the given instant.
func (c Campaign) AcceptsDonations(now time.Time) bool {
	if c.Status != CampaignActive {
		return false
	}
	if now.Before(c.StartDate) {
		return false
	}
	if !c.EndDate.IsZero() && now.After(c.EndDate) {
		return false
	}
	return true
}
