package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"server/internal/domain"
)

func stripePolicy() Policy {
	return Policy{
		SupportedCurrencies: []string{"USD", "EUR", "ETB"},
		MinimumAmounts: map[string]decimal.Decimal{
			"USD": decimal.NewFromFloat(0.50),
			"EUR": decimal.NewFromFloat(0.50),
			"ETB": decimal.NewFromInt(10),
		},
	}
}

func TestStripeCreatePayment(t *testing.T) {
	var gotPath, gotAuth, gotAmount string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		gotAmount = r.FormValue("amount")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"pi_123","client_secret":"pi_123_secret","status":"requires_payment_method"}`)
	}))
	defer srv.Close()

	client := NewStripeClient(StripeOptions{
		SecretKey: "sk_test",
		BaseURL:   srv.URL,
		Policy:    stripePolicy(),
		Logger:    zerolog.Nop(),
	})

	intent, err := client.CreatePayment(context.Background(), CreateRequest{
		DonationID: "don-1",
		Amount:     decimal.NewFromFloat(12.50),
		Currency:   "USD",
	})
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}
	if intent.ProviderRef != "pi_123" {
		t.Fatalf("provider ref = %q, want pi_123", intent.ProviderRef)
	}
	if intent.ClientSecret != "pi_123_secret" {
		t.Fatalf("client secret = %q", intent.ClientSecret)
	}
	if gotPath != "/payment_intents" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotAuth != "Bearer sk_test" {
		t.Fatalf("auth header = %q", gotAuth)
	}
	if gotAmount != "1250" {
		t.Fatalf("amount = %q, want minor units 1250", gotAmount)
	}
}

func TestStripeCreatePaymentBelowMinimumShortCircuits(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	client := NewStripeClient(StripeOptions{
		SecretKey: "sk_test",
		BaseURL:   srv.URL,
		Policy:    stripePolicy(),
		Logger:    zerolog.Nop(),
	})

	_, err := client.CreatePayment(context.Background(), CreateRequest{
		DonationID: "don-1",
		Amount:     decimal.NewFromFloat(0.10),
		Currency:   "USD",
	})
	if !errors.Is(err, domain.ErrBelowMinimum) {
		t.Fatalf("err = %v, want ErrBelowMinimum", err)
	}
	if calls != 0 {
		t.Fatalf("expected no network call, got %d", calls)
	}
}

func TestStripeCreatePaymentUnsupportedCurrencyShortCircuits(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	client := NewStripeClient(StripeOptions{
		SecretKey: "sk_test",
		BaseURL:   srv.URL,
		Policy:    stripePolicy(),
		Logger:    zerolog.Nop(),
	})

	_, err := client.CreatePayment(context.Background(), CreateRequest{
		DonationID: "don-1",
		Amount:     decimal.NewFromInt(100),
		Currency:   "GBP",
	})
	if !errors.Is(err, domain.ErrUnsupportedCurrency) {
		t.Fatalf("err = %v, want ErrUnsupportedCurrency", err)
	}
	if calls != 0 {
		t.Fatalf("expected no network call, got %d", calls)
	}
}

func TestStripeCreatePaymentRetriesGatewayFailures(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"pi_retry","client_secret":"cs","status":"requires_payment_method"}`)
	}))
	defer srv.Close()

	client := NewStripeClient(StripeOptions{
		SecretKey: "sk_test",
		BaseURL:   srv.URL,
		Policy:    stripePolicy(),
		Retries:   3,
		Logger:    zerolog.Nop(),
	})

	intent, err := client.CreatePayment(context.Background(), CreateRequest{
		DonationID: "don-1",
		Amount:     decimal.NewFromInt(100),
		Currency:   "ETB",
	})
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}
	if intent.ProviderRef != "pi_retry" {
		t.Fatalf("provider ref = %q", intent.ProviderRef)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}

func stripeSign(secret string, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	return "t=" + timestamp + ",v1=" + hex.EncodeToString(mac.Sum(nil))
}

func TestStripeVerifyWebhook(t *testing.T) {
	client := NewStripeClient(StripeOptions{
		SecretKey:     "sk_test",
		WebhookSecret: "whsec_test",
		Policy:        stripePolicy(),
		Logger:        zerolog.Nop(),
	})

	body := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"id":"pi_123","status":"succeeded","metadata":{"donation_id":"don-1"}}}}`)
	event, err := client.VerifyWebhook(body, stripeSign("whsec_test", "1700000000", body))
	if err != nil {
		t.Fatalf("verify webhook: %v", err)
	}
	if event.Outcome != OutcomeCompleted {
		t.Fatalf("outcome = %q, want completed", event.Outcome)
	}
	if event.DonationID != "don-1" || event.ProviderRef != "pi_123" || event.EventID != "evt_1" {
		t.Fatalf("unexpected event: %#v", event)
	}
}

func TestStripeVerifyWebhookRejectsBadSignature(t *testing.T) {
	client := NewStripeClient(StripeOptions{
		SecretKey:     "sk_test",
		WebhookSecret: "whsec_test",
		Policy:        stripePolicy(),
		Logger:        zerolog.Nop(),
	})

	body := []byte(`{"id":"evt_1","type":"payment_intent.succeeded"}`)
	_, err := client.VerifyWebhook(body, stripeSign("wrong-secret", "1700000000", body))
	if !errors.Is(err, domain.ErrInvalidSignature) {
		t.Fatalf("err = %v, want ErrInvalidSignature", err)
	}

	_, err = client.VerifyWebhook(body, "garbage")
	if !errors.Is(err, domain.ErrInvalidSignature) {
		t.Fatalf("err = %v, want ErrInvalidSignature for malformed header", err)
	}
}

func TestStripeVerifyWebhookIgnoresUnknownEvents(t *testing.T) {
	client := NewStripeClient(StripeOptions{
		WebhookSecret: "whsec_test",
		Logger:        zerolog.Nop(),
	})

	body := []byte(`{"id":"evt_2","type":"payment_intent.created","data":{"object":{"id":"pi_9"}}}`)
	event, err := client.VerifyWebhook(body, stripeSign("whsec_test", "1700000001", body))
	if err != nil {
		t.Fatalf("verify webhook: %v", err)
	}
	if event.Outcome != OutcomeIgnored {
		t.Fatalf("outcome = %q, want ignored", event.Outcome)
	}
}
