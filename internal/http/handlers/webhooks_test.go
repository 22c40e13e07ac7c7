package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"server/internal/domain"
	"server/internal/providers/payment"
	"server/internal/reconcile"
)

func TestWebhookUnknownProvider(t *testing.T) {
	app := testApp()
	req := withURLParam(httptest.NewRequest(http.MethodPost, "/api/webhooks/paypal", nil), "provider", "paypal")
	rec := doRequest(app.Webhook, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestWebhookPassesRawBodyAndSignature(t *testing.T) {
	stub := &stubReconciler{webhookResult: &reconcile.WebhookResult{
		DonationID: "don-1",
		Outcome:    payment.OutcomeCompleted,
		Applied:    true,
	}}
	app := testApp()
	app.Reconciler = stub

	body := `{"type":"payment_intent.succeeded"}`
	req := withURLParam(httptest.NewRequest(http.MethodPost, "/api/webhooks/stripe", strings.NewReader(body)), "provider", "stripe")
	req.Header.Set("Stripe-Signature", "t=1,v1=abc")
	rec := doRequest(app.Webhook, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if string(stub.lastRawBody) != body {
		t.Fatalf("raw body = %q, want %q", stub.lastRawBody, body)
	}
	if stub.lastSignature != "t=1,v1=abc" {
		t.Fatalf("signature = %q", stub.lastSignature)
	}
	if stub.lastMethod != domain.PaymentMethodStripe {
		t.Fatalf("method = %q", stub.lastMethod)
	}
}

func TestWebhookInvalidSignatureReturns400(t *testing.T) {
	app := testApp()
	app.Reconciler = &stubReconciler{webhookErr: domain.ErrInvalidSignature}

	req := withURLParam(httptest.NewRequest(http.MethodPost, "/api/webhooks/chapa", strings.NewReader(`{}`)), "provider", "chapa")
	rec := doRequest(app.Webhook, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestWebhookDuplicateReportedInBody(t *testing.T) {
	app := testApp()
	app.Reconciler = &stubReconciler{webhookResult: &reconcile.WebhookResult{
		DonationID: "don-1",
		Outcome:    payment.OutcomeCompleted,
		Duplicate:  true,
	}}

	req := withURLParam(httptest.NewRequest(http.MethodPost, "/api/webhooks/telebirr", strings.NewReader(`{}`)), "provider", "telebirr")
	rec := doRequest(app.Webhook, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), `"duplicate":true`) {
		t.Fatalf("body = %s, want duplicate flag", rec.Body.String())
	}
}
