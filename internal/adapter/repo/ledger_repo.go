package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/sqlinline"
)

// LedgerRepositoryPG implements DonationLedger using PostgreSQL. Settlement
// and refund run inside a single transaction: the guarded status update, the
// campaign total mutation and the outbox rows commit together or not at all.
type LedgerRepositoryPG struct {
	runner infra.TxRunner
}

// NewLedgerRepository creates a new donation ledger repo.
func NewLedgerRepository(runner infra.TxRunner) *LedgerRepositoryPG {
	return &LedgerRepositoryPG{runner: runner}
}

// CreateDonation inserts a new donation record in PENDING state.
func (r *LedgerRepositoryPG) CreateDonation(ctx context.Context, donation *domain.Donation) error {
	var name, email, country string
	if donation.DonorName != nil {
		name = *donation.DonorName
	}
	if donation.DonorEmail != nil {
		email = *donation.DonorEmail
	}
	if donation.CountryCode != nil {
		country = *donation.CountryCode
	}
	_, err := r.runner.Exec(ctx, sqlinline.QInsertDonation,
		donation.ID, donation.CampaignID, donation.Amount, donation.Currency,
		string(donation.Method), string(donation.Status),
		name, email, donation.Message, donation.Anonymous, country)
	return err
}

// SetProviderRef records the gateway reference returned at checkout creation.
func (r *LedgerRepositoryPG) SetProviderRef(ctx context.Context, donationID, providerRef string) error {
	tag, err := r.runner.Exec(ctx, sqlinline.QSetDonationProviderRef, donationID, providerRef)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// MarkDonationFailed moves a PENDING donation to FAILED without touching the
// campaign total. Used when checkout creation fails before any money moved.
func (r *LedgerRepositoryPG) MarkDonationFailed(ctx context.Context, donationID, reason string) error {
	_, err := r.runner.Exec(ctx, sqlinline.QMarkDonationFailed, donationID, reason)
	return err
}

// GetDonation returns a donation by id.
func (r *LedgerRepositoryPG) GetDonation(ctx context.Context, donationID string) (*domain.Donation, error) {
	return scanDonation(r.runner.QueryRow(ctx, sqlinline.QGetDonation, donationID))
}

// GetDonationByProviderRef resolves a donation from a gateway reference. The
// lookup is scoped per method because references are only unique within one
// provider's namespace.
func (r *LedgerRepositoryPG) GetDonationByProviderRef(ctx context.Context, method domain.PaymentMethod, providerRef string) (*domain.Donation, error) {
	return scanDonation(r.runner.QueryRow(ctx, sqlinline.QGetDonationByProviderRef, string(method), providerRef))
}

// ListRecentByCampaign returns the most recently completed donations for a
// campaign.
func (r *LedgerRepositoryPG) ListRecentByCampaign(ctx context.Context, campaignID string, limit int) ([]domain.Donation, error) {
	rows, err := r.runner.Query(ctx, sqlinline.QListDonationsByCampaign, campaignID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Donation
	for rows.Next() {
		donation, err := scanDonation(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *donation)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// SettleCompleted transitions PENDING -> COMPLETED, adds contribution to the
// campaign total and enqueues emails. The guarded update is the idempotency
// key: a redelivered event matches zero rows, the current status is re-read
// and a donation already COMPLETED yields AlreadySettled with no mutation.
func (r *LedgerRepositoryPG) SettleCompleted(ctx context.Context, donationID, eventID string, contribution decimal.Decimal, emails []domain.EmailMessage) (domain.SettleOutcome, error) {
	var outcome domain.SettleOutcome
	err := r.runner.WithTx(ctx, func(exec infra.SQLExecutor) error {
		tag, err := exec.Exec(ctx, sqlinline.QSettleDonationCompleted, donationID, eventID, contribution)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return resolveMissedTransition(ctx, exec, donationID, domain.DonationCompleted, &outcome)
		}

		donation, err := scanDonation(exec.QueryRow(ctx, sqlinline.QGetDonation, donationID))
		if err != nil {
			return err
		}
		if _, err := exec.Exec(ctx, sqlinline.QIncrementCampaignTotal, donation.CampaignID, contribution); err != nil {
			return err
		}
		if err := enqueueEmails(ctx, exec, emails); err != nil {
			return err
		}
		outcome = domain.SettleOutcome{Applied: true, Donation: donation}
		return nil
	})
	return outcome, err
}

// SettleFailed transitions PENDING -> FAILED. The campaign total is untouched
// because a failed donation never contributed to it.
func (r *LedgerRepositoryPG) SettleFailed(ctx context.Context, donationID, eventID, reason string) (domain.SettleOutcome, error) {
	var outcome domain.SettleOutcome
	err := r.runner.WithTx(ctx, func(exec infra.SQLExecutor) error {
		tag, err := exec.Exec(ctx, sqlinline.QSettleDonationFailed, donationID, eventID, reason)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return resolveMissedTransition(ctx, exec, donationID, domain.DonationFailed, &outcome)
		}
		donation, err := scanDonation(exec.QueryRow(ctx, sqlinline.QGetDonation, donationID))
		if err != nil {
			return err
		}
		outcome = domain.SettleOutcome{Applied: true, Donation: donation}
		return nil
	})
	return outcome, err
}

// RefundDonation transitions COMPLETED -> REFUNDED and subtracts the recorded
// canonical contribution from the campaign total, so the campaign ends up
// exactly where it was before the donation settled.
func (r *LedgerRepositoryPG) RefundDonation(ctx context.Context, donationID string, emails []domain.EmailMessage) (*domain.Donation, error) {
	var refunded *domain.Donation
	err := r.runner.WithTx(ctx, func(exec infra.SQLExecutor) error {
		tag, err := exec.Exec(ctx, sqlinline.QRefundDonation, donationID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			var status string
			if err := exec.QueryRow(ctx, sqlinline.QGetDonationStatus, donationID).Scan(&status); err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return domain.ErrNotFound
				}
				return err
			}
			return fmt.Errorf("%w: cannot refund donation in status %s", domain.ErrInvalidTransition, status)
		}

		donation, err := scanDonation(exec.QueryRow(ctx, sqlinline.QGetDonation, donationID))
		if err != nil {
			return err
		}
		if _, err := exec.Exec(ctx, sqlinline.QDecrementCampaignTotal, donation.CampaignID, donation.CanonicalAmount); err != nil {
			return err
		}
		if err := enqueueEmails(ctx, exec, emails); err != nil {
			return err
		}
		refunded = donation
		return nil
	})
	return refunded, err
}

// resolveMissedTransition classifies a guarded update that matched no rows: a
// donation already in the target status is a duplicate delivery, anything
// else is an invalid transition.
func resolveMissedTransition(ctx context.Context, exec infra.SQLExecutor, donationID string, target domain.DonationStatus, outcome *domain.SettleOutcome) error {
	var status string
	if err := exec.QueryRow(ctx, sqlinline.QGetDonationStatus, donationID).Scan(&status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		return err
	}
	if domain.DonationStatus(status) == target {
		donation, err := scanDonation(exec.QueryRow(ctx, sqlinline.QGetDonation, donationID))
		if err != nil {
			return err
		}
		*outcome = domain.SettleOutcome{AlreadySettled: true, Donation: donation}
		return nil
	}
	return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, status, target)
}

func enqueueEmails(ctx context.Context, exec infra.SQLExecutor, emails []domain.EmailMessage) error {
	for _, msg := range emails {
		if _, err := exec.Exec(ctx, sqlinline.QEnqueueEmail,
			msg.ID, string(msg.Kind), msg.Recipients, msg.Subject, msg.Body); err != nil {
			return err
		}
	}
	return nil
}

func scanDonation(row pgx.Row) (*domain.Donation, error) {
	var donation domain.Donation
	var method, status string
	var providerRef *string
	err := row.Scan(&donation.ID, &donation.CampaignID, &donation.Amount, &donation.Currency,
		&method, &status, &donation.DonorName, &donation.DonorEmail, &donation.Message,
		&donation.Anonymous, &donation.CountryCode, &providerRef, &donation.ProviderEventID,
		&donation.CanonicalAmount, &donation.FailureReason, &donation.CreatedAt, &donation.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	donation.Method = domain.PaymentMethod(method)
	donation.Status = domain.DonationStatus(status)
	if providerRef != nil {
		donation.ProviderRef = *providerRef
	}
	return &donation, nil
}

var _ domain.DonationLedger = (*LedgerRepositoryPG)(nil)
