package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// SettleOutcome reports what a settlement attempt did. Applied means the
// status transition happened in this call; AlreadySettled means the donation
// was already in the target status and the event was suppressed as a
// duplicate.
type SettleOutcome struct {
	Applied        bool
	AlreadySettled bool
	Donation       *Donation
}

// DonationLedger owns donation records and the campaign aggregates derived
// from them. The transition methods are transactional: the status guard, the
// campaign total mutation and the outbox writes commit together or not at all.
type DonationLedger interface {
	CreateDonation(ctx context.Context, donation *Donation) error
	SetProviderRef(ctx context.Context, donationID, providerRef string) error
	MarkDonationFailed(ctx context.Context, donationID, reason string) error
	GetDonation(ctx context.Context, donationID string) (*Donation, error)
	GetDonationByProviderRef(ctx context.Context, method PaymentMethod, providerRef string) (*Donation, error)
	ListRecentByCampaign(ctx context.Context, campaignID string, limit int) ([]Donation, error)

	// SettleCompleted transitions PENDING -> COMPLETED, adds contribution to
	// the campaign total and enqueues emails, all in one transaction. A
	// donation already COMPLETED yields AlreadySettled without any mutation.
	SettleCompleted(ctx context.Context, donationID, eventID string, contribution decimal.Decimal, emails []EmailMessage) (SettleOutcome, error)

	// SettleFailed transitions PENDING -> FAILED. No campaign mutation.
	SettleFailed(ctx context.Context, donationID, eventID, reason string) (SettleOutcome, error)

	// RefundDonation transitions COMPLETED -> REFUNDED and subtracts the
	// recorded canonical contribution from the campaign total.
	RefundDonation(ctx context.Context, donationID string, emails []EmailMessage) (*Donation, error)
}

// CampaignRepository defines access methods for campaigns.
type CampaignRepository interface {
	Create(ctx context.Context, campaign *Campaign) error
	GetByID(ctx context.Context, id string) (*Campaign, error)
	GetBySlug(ctx context.Context, slug string) (*Campaign, error)
	ListActive(ctx context.Context, limit int) ([]Campaign, error)
}

// UserRepository defines access methods for users.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
}

// SettingRepository handles key-value configuration records.
type SettingRepository interface {
	List(ctx context.Context) ([]Setting, error)
	Upsert(ctx context.Context, setting *Setting) error
}

// OutboxRepository handles queued notification messages.
type OutboxRepository interface {
	Enqueue(ctx context.Context, msg *EmailMessage) error
	ListPending(ctx context.Context, limit int) ([]EmailMessage, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string) error
}
