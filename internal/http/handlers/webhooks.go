package handlers

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"server/internal/domain"
)

// signatureHeaders maps each gateway to the header its webhook signature
// arrives in.
var signatureHeaders = map[domain.PaymentMethod]string{
	domain.PaymentMethodStripe:   "Stripe-Signature",
	domain.PaymentMethodChapa:    "Chapa-Signature",
	domain.PaymentMethodTelebirr: "X-Telebirr-Signature",
}

// Webhook receives gateway callbacks. The body is read raw and passed to
// verification untouched; parsing it first would break the signature check.
func (a *App) Webhook(w http.ResponseWriter, r *http.Request) {
	method := domain.PaymentMethod(chi.URLParam(r, "provider"))
	header, ok := signatureHeaders[method]
	if !ok {
		a.error(w, http.StatusNotFound, "not_found", "unknown payment provider")
		return
	}

	rawBody, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "unreadable body")
		return
	}

	result, err := a.Reconciler.HandleWebhook(r.Context(), method, rawBody, r.Header.Get(header))
	if err != nil {
		if a.domainError(w, err) {
			return
		}
		a.Logger.Error().Err(err).Str("provider", string(method)).Msg("webhook processing failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to process webhook")
		return
	}

	a.json(w, http.StatusOK, map[string]any{
		"received":  true,
		"outcome":   string(result.Outcome),
		"applied":   result.Applied,
		"duplicate": result.Duplicate,
	})
}
