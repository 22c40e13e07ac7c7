package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"server/internal/domain"
	"server/internal/middleware"
	"server/internal/reconcile"
)

type donationCreateRequest struct {
	CampaignID string      `json:"campaign_id"`
	Amount     json.Number `json:"amount"`
	Currency   string      `json:"currency"`
	Method     string      `json:"payment_method"`
	DonorName  string      `json:"donor_name"`
	DonorEmail string      `json:"donor_email"`
	Message    string      `json:"message"`
	Anonymous  bool        `json:"anonymous"`
}

type donationCreateResponse struct {
	DonationID   string `json:"donation_id"`
	ProviderRef  string `json:"provider_ref"`
	CheckoutURL  string `json:"checkout_url,omitempty"`
	ClientSecret string `json:"client_secret,omitempty"`
}

// DonationsCreate starts a checkout: it records a PENDING donation and
// returns whatever the gateway needs the client to continue with.
func (a *App) DonationsCreate(w http.ResponseWriter, r *http.Request) {
	var req donationCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.CampaignID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "campaign_id required")
		return
	}
	amount, err := decimalField(req.Amount)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "amount must be a number")
		return
	}

	result, err := a.Reconciler.Initiate(r.Context(), reconcile.InitiateRequest{
		CampaignID: req.CampaignID,
		Amount:     amount,
		Currency:   req.Currency,
		Method:     domain.PaymentMethod(req.Method),
		DonorName:  req.DonorName,
		DonorEmail: req.DonorEmail,
		Message:    req.Message,
		Anonymous:  req.Anonymous,
		RemoteIP:   middleware.ClientIP(r),
	})
	if err != nil {
		if a.domainError(w, err) || a.gatewayError(w, err) {
			return
		}
		a.Logger.Error().Err(err).Msg("donation initiate failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to create donation")
		return
	}

	a.json(w, http.StatusCreated, donationCreateResponse{
		DonationID:   result.DonationID,
		ProviderRef:  result.ProviderRef,
		CheckoutURL:  result.CheckoutURL,
		ClientSecret: result.ClientSecret,
	})
}

type donationDTO struct {
	ID              string  `json:"id"`
	CampaignID      string  `json:"campaign_id"`
	Amount          string  `json:"amount"`
	Currency        string  `json:"currency"`
	Method          string  `json:"payment_method"`
	Status          string  `json:"status"`
	DonorName       *string `json:"donor_name,omitempty"`
	Message         string  `json:"message,omitempty"`
	Anonymous       bool    `json:"anonymous"`
	CanonicalAmount string  `json:"canonical_amount,omitempty"`
	CreatedAt       string  `json:"created_at"`
	CompletedAt     *string `json:"completed_at,omitempty"`
}

func donationToDTO(d *domain.Donation) donationDTO {
	dto := donationDTO{
		ID:         d.ID,
		CampaignID: d.CampaignID,
		Amount:     d.Amount.String(),
		Currency:   d.Currency,
		Method:     string(d.Method),
		Status:     string(d.Status),
		Message:    d.Message,
		Anonymous:  d.Anonymous,
		CreatedAt:  d.CreatedAt.Format(time.RFC3339),
	}
	if !d.Anonymous {
		dto.DonorName = d.DonorName
	}
	if d.Status == domain.DonationCompleted || d.Status == domain.DonationRefunded {
		dto.CanonicalAmount = d.CanonicalAmount.String()
	}
	if d.CompletedAt != nil {
		formatted := d.CompletedAt.Format(time.RFC3339)
		dto.CompletedAt = &formatted
	}
	return dto
}

// DonationsGet returns one donation. Donors use this to poll checkout status.
func (a *App) DonationsGet(w http.ResponseWriter, r *http.Request) {
	donation, err := a.Ledger.GetDonation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if a.domainError(w, err) {
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "failed to load donation")
		return
	}
	a.json(w, http.StatusOK, donationToDTO(donation))
}

// DonationsRefund reverses a completed donation. Admin only.
func (a *App) DonationsRefund(w http.ResponseWriter, r *http.Request) {
	donation, err := a.Reconciler.Refund(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if a.domainError(w, err) || a.gatewayError(w, err) {
			return
		}
		a.Logger.Error().Err(err).Msg("refund failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to refund donation")
		return
	}
	a.json(w, http.StatusOK, donationToDTO(donation))
}
