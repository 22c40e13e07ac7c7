package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod enumerates the supported payment gateways.
type PaymentMethod string

const (
	PaymentMethodStripe   PaymentMethod = "stripe"
	PaymentMethodChapa    PaymentMethod = "chapa"
	PaymentMethodTelebirr PaymentMethod = "telebirr"
)

// Valid reports whether the method names a known gateway.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodStripe, PaymentMethodChapa, PaymentMethodTelebirr:
		return true
	}
	return false
}

// DonationStatus enumerates the lifecycle states of a donation.
type DonationStatus string

const (
	DonationPending   DonationStatus = "PENDING"
	DonationCompleted DonationStatus = "COMPLETED"
	DonationFailed    DonationStatus = "FAILED"
	DonationRefunded  DonationStatus = "REFUNDED"
)

// CanTransitionTo reports whether the status machine allows moving to next.
// PENDING -> {COMPLETED, FAILED}; COMPLETED -> REFUNDED. Everything else is
// rejected; donations are financial records and never move backwards.
func (s DonationStatus) CanTransitionTo(next DonationStatus) bool {
	switch s {
	case DonationPending:
		return next == DonationCompleted || next == DonationFailed
	case DonationCompleted:
		return next == DonationRefunded
	}
	return false
}

// Donation represents a supporter contribution record. Amount is kept in the
// provider-native currency; CanonicalAmount is the contribution in the
// platform's accounting currency, recorded at settlement time so a later
// refund subtracts exactly what was added.
type Donation struct {
	ID              string
	CampaignID      string
	Amount          decimal.Decimal
	Currency        string
	Method          PaymentMethod
	Status          DonationStatus
	DonorName       *string
	DonorEmail      *string
	Message         string
	Anonymous       bool
	CountryCode     *string
	ProviderRef     string
	ProviderEventID *string
	CanonicalAmount decimal.Decimal
	FailureReason   *string
	CreatedAt       time.Time
	CompletedAt     *time.Time
}
