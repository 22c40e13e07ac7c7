package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"server/internal/domain"
	"server/internal/middleware"
	"server/internal/providers/payment"
	"server/internal/reconcile"
)

// Reconciler is the slice of the reconciliation engine the handlers need.
type Reconciler interface {
	Initiate(ctx context.Context, req reconcile.InitiateRequest) (*reconcile.InitiateResult, error)
	HandleWebhook(ctx context.Context, method domain.PaymentMethod, rawBody []byte, signature string) (*reconcile.WebhookResult, error)
	Refund(ctx context.Context, donationID string) (*domain.Donation, error)
}

// App carries the dependencies shared by all HTTP handlers.
type App struct {
	Logger     zerolog.Logger
	JWTSecret  string
	Env        string
	StartedAt  time.Time
	Reconciler Reconciler
	Ledger     domain.DonationLedger
	Campaigns  domain.CampaignRepository
	Users      domain.UserRepository
	Settings   domain.SettingRepository
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}

func (a *App) currentUserID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}

// domainError maps a domain sentinel to an HTTP error response. It returns
// false when the error is not a recognized domain condition.
func (a *App) domainError(w http.ResponseWriter, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", "resource not found")
	case errors.Is(err, domain.ErrValidation):
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, domain.ErrCampaignNotActive):
		a.error(w, http.StatusUnprocessableEntity, "campaign_not_active", "campaign is not accepting donations")
	case errors.Is(err, domain.ErrUnsupportedCurrency), errors.Is(err, domain.ErrBelowMinimum):
		a.error(w, http.StatusBadRequest, "payment_policy", err.Error())
	case errors.Is(err, domain.ErrInvalidTransition):
		a.error(w, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, domain.ErrInvalidSignature):
		a.error(w, http.StatusBadRequest, "invalid_signature", "webhook signature verification failed")
	case errors.Is(err, domain.ErrDuplicateEmail):
		a.error(w, http.StatusConflict, "duplicate_email", "email already registered")
	case errors.Is(err, domain.ErrDuplicateSlug):
		a.error(w, http.StatusConflict, "duplicate_slug", "campaign slug already taken")
	default:
		return false
	}
	return true
}

// gatewayError reports vendor-side failures as 502 so clients can tell a
// broken request apart from a broken gateway.
func (a *App) gatewayError(w http.ResponseWriter, err error) bool {
	var gwErr *payment.GatewayError
	if errors.As(err, &gwErr) {
		a.Logger.Error().Err(err).Str("provider", gwErr.Provider).Msg("gateway failure")
		a.error(w, http.StatusBadGateway, "gateway_error", "payment provider is unavailable")
		return true
	}
	return false
}

func decimalField(raw json.Number) (decimal.Decimal, error) {
	return decimal.NewFromString(raw.String())
}
