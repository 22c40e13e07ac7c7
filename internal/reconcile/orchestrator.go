// Package reconcile coordinates the donation lifecycle across the payment
// gateways, the currency normalizer and the donation ledger.
package reconcile

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"server/internal/currency"
	"server/internal/domain"
	"server/internal/infra/geoip"
	"server/internal/notify"
	"server/internal/providers/payment"
)

var (
	donationsInitiated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reconcile_donations_initiated_total",
		Help: "Checkout sessions created, by method.",
	}, []string{"method"})
	webhooksProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reconcile_webhooks_processed_total",
		Help: "Verified webhook events, by method and result.",
	}, []string{"method", "result"})
	settlementDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "reconcile_settlement_duration_seconds",
		Help:    "Time spent settling a verified webhook event.",
		Buckets: prometheus.DefBuckets,
	})
)

// InitiateRequest carries a donor's checkout intent.
type InitiateRequest struct {
	CampaignID string
	Amount     decimal.Decimal
	Currency   string
	Method     domain.PaymentMethod
	DonorName  string
	DonorEmail string
	Message    string
	Anonymous  bool
	RemoteIP   string
}

// InitiateResult is returned to the client so it can complete checkout.
type InitiateResult struct {
	DonationID   string
	ProviderRef  string
	CheckoutURL  string
	ClientSecret string
}

// WebhookResult reports what a verified webhook event did to the ledger.
type WebhookResult struct {
	DonationID string
	Outcome    payment.Outcome
	Applied    bool
	Duplicate  bool
}

// Orchestrator is the reconciliation engine. It creates PENDING donations,
// routes checkout to the right gateway adapter and applies verified webhook
// outcomes to the ledger exactly once.
type Orchestrator struct {
	ledger     domain.DonationLedger
	campaigns  domain.CampaignRepository
	outbox     domain.OutboxRepository
	registry   *payment.Registry
	normalizer *currency.Normalizer
	composer   *notify.Composer
	geo        geoip.CountryResolver
	maxAmount  decimal.Decimal
	logger     zerolog.Logger
}

// NewOrchestrator wires the reconciliation engine. geo may be nil; donor
// countries are then not recorded.
func NewOrchestrator(
	ledger domain.DonationLedger,
	campaigns domain.CampaignRepository,
	outbox domain.OutboxRepository,
	registry *payment.Registry,
	normalizer *currency.Normalizer,
	composer *notify.Composer,
	geo geoip.CountryResolver,
	maxAmount decimal.Decimal,
	logger zerolog.Logger,
) *Orchestrator {
	return &Orchestrator{
		ledger:     ledger,
		campaigns:  campaigns,
		outbox:     outbox,
		registry:   registry,
		normalizer: normalizer,
		composer:   composer,
		geo:        geo,
		maxAmount:  maxAmount,
		logger:     logger,
	}
}

// Initiate validates the request, records a PENDING donation and creates a
// checkout session at the gateway. A gateway failure marks the donation
// FAILED so no orphaned PENDING rows accumulate from broken checkouts.
func (o *Orchestrator) Initiate(ctx context.Context, req InitiateRequest) (*InitiateResult, error) {
	if !req.Method.Valid() {
		return nil, fmt.Errorf("unknown payment method %q: %w", req.Method, domain.ErrValidation)
	}
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("amount must be positive: %w", domain.ErrValidation)
	}
	if req.Amount.GreaterThan(o.maxAmount) {
		return nil, fmt.Errorf("amount exceeds maximum of %s: %w", o.maxAmount, domain.ErrValidation)
	}

	provider, ok := o.registry.ForMethod(req.Method)
	if !ok {
		return nil, fmt.Errorf("payment method %q not configured: %w", req.Method, domain.ErrValidation)
	}

	campaign, err := o.campaigns.GetByID(ctx, req.CampaignID)
	if err != nil {
		return nil, err
	}
	if !campaign.AcceptsDonations(time.Now()) {
		return nil, domain.ErrCampaignNotActive
	}

	donation := &domain.Donation{
		ID:         uuid.NewString(),
		CampaignID: campaign.ID,
		Amount:     req.Amount,
		Currency:   strings.ToUpper(strings.TrimSpace(req.Currency)),
		Method:     req.Method,
		Status:     domain.DonationPending,
		Message:    req.Message,
		Anonymous:  req.Anonymous,
	}
	if name := strings.TrimSpace(req.DonorName); name != "" {
		donation.DonorName = &name
	}
	if email := strings.TrimSpace(req.DonorEmail); email != "" {
		donation.DonorEmail = &email
	}
	if code := o.lookupCountry(req.RemoteIP); code != "" {
		donation.CountryCode = &code
	}

	if err := o.ledger.CreateDonation(ctx, donation); err != nil {
		return nil, err
	}

	intent, err := provider.CreatePayment(ctx, payment.CreateRequest{
		DonationID:    donation.ID,
		Amount:        donation.Amount,
		Currency:      donation.Currency,
		DonorName:     req.DonorName,
		DonorEmail:    req.DonorEmail,
		CampaignTitle: campaign.Title,
	})
	if err != nil {
		if markErr := o.ledger.MarkDonationFailed(ctx, donation.ID, err.Error()); markErr != nil {
			o.logger.Error().Err(markErr).Str("donation_id", donation.ID).Msg("mark failed after checkout error")
		}
		return nil, err
	}

	if err := o.ledger.SetProviderRef(ctx, donation.ID, intent.ProviderRef); err != nil {
		return nil, err
	}

	donationsInitiated.WithLabelValues(string(req.Method)).Inc()
	o.logger.Info().
		Str("donation_id", donation.ID).
		Str("method", string(req.Method)).
		Str("provider_ref", intent.ProviderRef).
		Msg("donation initiated")

	return &InitiateResult{
		DonationID:   donation.ID,
		ProviderRef:  intent.ProviderRef,
		CheckoutURL:  intent.CheckoutURL,
		ClientSecret: intent.ClientSecret,
	}, nil
}

// HandleWebhook verifies and applies one gateway webhook delivery. A failed
// signature check is an error; an unrecognized but validly signed event is a
// no-op; a duplicate delivery of a settled event is a logged no-op.
func (o *Orchestrator) HandleWebhook(ctx context.Context, method domain.PaymentMethod, rawBody []byte, signature string) (*WebhookResult, error) {
	provider, ok := o.registry.ForMethod(method)
	if !ok {
		return nil, fmt.Errorf("payment method %q not configured: %w", method, domain.ErrValidation)
	}

	event, err := provider.VerifyWebhook(rawBody, signature)
	if err != nil {
		webhooksProcessed.WithLabelValues(string(method), "rejected").Inc()
		return nil, err
	}
	if event.Outcome == payment.OutcomeIgnored {
		webhooksProcessed.WithLabelValues(string(method), "ignored").Inc()
		o.logger.Debug().Str("method", string(method)).Str("event_id", event.EventID).Msg("webhook event ignored")
		return &WebhookResult{Outcome: payment.OutcomeIgnored}, nil
	}

	donation, err := o.resolveDonation(ctx, method, event)
	if err != nil {
		o.alert(ctx, fmt.Sprintf("webhook %s: donation not resolvable", event.EventID), err)
		return nil, err
	}

	start := time.Now()
	result, err := o.settle(ctx, donation, event)
	if err != nil {
		webhooksProcessed.WithLabelValues(string(method), "error").Inc()
		o.alert(ctx, fmt.Sprintf("settlement failed for donation %s", donation.ID), err)
		return nil, err
	}
	settlementDuration.Observe(time.Since(start).Seconds())

	switch {
	case result.Duplicate:
		webhooksProcessed.WithLabelValues(string(method), "duplicate").Inc()
		o.logger.Info().Str("donation_id", donation.ID).Str("event_id", event.EventID).Msg("duplicate webhook suppressed")
	case result.Applied:
		webhooksProcessed.WithLabelValues(string(method), string(event.Outcome)).Inc()
		o.logger.Info().
			Str("donation_id", donation.ID).
			Str("event_id", event.EventID).
			Str("outcome", string(event.Outcome)).
			Msg("donation settled")
	}
	return result, nil
}

// Refund reverses a completed donation: the gateway refund first, then the
// ledger transition that subtracts the recorded canonical contribution.
func (o *Orchestrator) Refund(ctx context.Context, donationID string) (*domain.Donation, error) {
	donation, err := o.ledger.GetDonation(ctx, donationID)
	if err != nil {
		return nil, err
	}
	if donation.Status != domain.DonationCompleted {
		return nil, fmt.Errorf("%w: cannot refund donation in status %s", domain.ErrInvalidTransition, donation.Status)
	}

	provider, ok := o.registry.ForMethod(donation.Method)
	if !ok {
		return nil, fmt.Errorf("payment method %q not configured: %w", donation.Method, domain.ErrValidation)
	}
	if err := provider.Refund(ctx, donation.ProviderRef); err != nil {
		return nil, err
	}

	refunded, err := o.ledger.RefundDonation(ctx, donationID, o.composer.RefundEmails(donation))
	if err != nil {
		// Money already moved back at the gateway. This needs a human.
		o.alert(ctx, fmt.Sprintf("refund recorded at gateway but not in ledger for donation %s", donationID), err)
		return nil, err
	}

	o.logger.Info().Str("donation_id", donationID).Msg("donation refunded")
	return refunded, nil
}

func (o *Orchestrator) settle(ctx context.Context, donation *domain.Donation, event *payment.WebhookEvent) (*WebhookResult, error) {
	switch event.Outcome {
	case payment.OutcomeCompleted:
		contribution, err := o.normalizer.ToCanonical(donation.Amount, donation.Currency)
		if err != nil {
			return nil, err
		}
		campaign, err := o.campaigns.GetByID(ctx, donation.CampaignID)
		if err != nil {
			return nil, err
		}
		outcome, err := o.ledger.SettleCompleted(ctx, donation.ID, event.EventID, contribution,
			o.composer.CompletedEmails(donation, campaign))
		if err != nil {
			return nil, err
		}
		return &WebhookResult{
			DonationID: donation.ID,
			Outcome:    event.Outcome,
			Applied:    outcome.Applied,
			Duplicate:  outcome.AlreadySettled,
		}, nil

	case payment.OutcomeFailed:
		outcome, err := o.ledger.SettleFailed(ctx, donation.ID, event.EventID, event.Reason)
		if err != nil {
			return nil, err
		}
		return &WebhookResult{
			DonationID: donation.ID,
			Outcome:    event.Outcome,
			Applied:    outcome.Applied,
			Duplicate:  outcome.AlreadySettled,
		}, nil
	}
	return nil, fmt.Errorf("unexpected webhook outcome %q", event.Outcome)
}

func (o *Orchestrator) resolveDonation(ctx context.Context, method domain.PaymentMethod, event *payment.WebhookEvent) (*domain.Donation, error) {
	if event.DonationID != "" {
		return o.ledger.GetDonation(ctx, event.DonationID)
	}
	return o.ledger.GetDonationByProviderRef(ctx, method, event.ProviderRef)
}

func (o *Orchestrator) lookupCountry(ip string) string {
	if o.geo == nil || ip == "" {
		return ""
	}
	code, err := o.geo.CountryCode(ip)
	if err != nil {
		o.logger.Debug().Err(err).Str("ip", ip).Msg("country lookup failed")
		return ""
	}
	return code
}

// alert enqueues a developer alert. Best effort; an outbox failure here is
// logged and swallowed because the caller is already handling an error.
func (o *Orchestrator) alert(ctx context.Context, subject string, cause error) {
	msg := o.composer.DevAlert(subject, cause)
	if msg == nil {
		return
	}
	if err := o.outbox.Enqueue(ctx, msg); err != nil {
		o.logger.Error().Err(err).Str("subject", subject).Msg("dev alert enqueue failed")
	}
}
