// Package payment holds the gateway adapters. Each adapter translates the
// generic payment model into one vendor's HTTP API and normalizes that
// vendor's webhook payloads into a common event shape.
package payment

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"server/internal/domain"
)

// Outcome is the normalized terminal result carried by a webhook event.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
	// OutcomeIgnored marks event types the platform does not act on
	// (intermediate states, vendor-side noise). They verify fine but cause
	// no transition.
	OutcomeIgnored Outcome = "ignored"
)

// CreateRequest captures the inputs for creating a payment at a gateway.
type CreateRequest struct {
	DonationID    string
	Amount        decimal.Decimal
	Currency      string
	DonorName     string
	DonorEmail    string
	CampaignTitle string
}

// CheckoutIntent is the normalized result of a successful payment creation.
type CheckoutIntent struct {
	ProviderRef  string
	CheckoutURL  string
	ClientSecret string
	Status       string
}

// WebhookEvent is the normalized, signature-verified webhook payload.
type WebhookEvent struct {
	EventID     string
	ProviderRef string
	DonationID  string
	Outcome     Outcome
	Reason      string
}

// Provider is the capability interface every gateway adapter implements.
// VerifyWebhook must receive the raw, unparsed request body; re-serialized
// JSON breaks the signature check.
type Provider interface {
	Method() domain.PaymentMethod
	CreatePayment(ctx context.Context, req CreateRequest) (*CheckoutIntent, error)
	VerifyWebhook(rawBody []byte, signature string) (*WebhookEvent, error)
	Refund(ctx context.Context, providerRef string) error
}

// Policy is the static per-provider acceptance rule set. Out-of-policy
// requests are rejected before any network call is made.
type Policy struct {
	SupportedCurrencies []string
	MinimumAmounts      map[string]decimal.Decimal
}

// Check validates amount and currency against the policy.
func (p Policy) Check(amount decimal.Decimal, currencyCode string) error {
	code := strings.ToUpper(strings.TrimSpace(currencyCode))
	supported := false
	for _, c := range p.SupportedCurrencies {
		if strings.EqualFold(c, code) {
			supported = true
			break
		}
	}
	if !supported {
		return fmt.Errorf("currency %s: %w", code, domain.ErrUnsupportedCurrency)
	}
	if min, ok := p.MinimumAmounts[code]; ok && amount.LessThan(min) {
		return fmt.Errorf("minimum is %s %s: %w", min, code, domain.ErrBelowMinimum)
	}
	return nil
}

// GatewayError wraps a transport or vendor API failure.
type GatewayError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *GatewayError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s gateway error (status %d): %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s gateway error: %v", e.Provider, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// Registry selects an adapter by the donation's payment method.
type Registry struct {
	providers map[domain.PaymentMethod]Provider
}

// NewRegistry builds a registry from the given adapters.
func NewRegistry(providers ...Provider) *Registry {
	m := make(map[domain.PaymentMethod]Provider, len(providers))
	for _, p := range providers {
		m[p.Method()] = p
	}
	return &Registry{providers: m}
}

// ForMethod returns the adapter for the given method.
func (r *Registry) ForMethod(method domain.PaymentMethod) (Provider, bool) {
	p, ok := r.providers[method]
	return p, ok
}
