package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"server/internal/domain"
)

func telebirrTestClient(t *testing.T, handler http.HandlerFunc) (*TelebirrClient, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := NewTelebirrClient(TelebirrOptions{
		AppID:         "app-1",
		AppKey:        "key-1",
		ShortCode:     "500100",
		WebhookSecret: "whsec",
		BaseURL:       server.URL,
		Policy: Policy{
			SupportedCurrencies: []string{"ETB"},
			MinimumAmounts:      map[string]decimal.Decimal{"ETB": decimal.NewFromInt(5)},
		},
		Logger: zerolog.Nop(),
	})
	return client, server
}

func TestTelebirrCreatePaymentReturnsPayURL(t *testing.T) {
	client, _ := telebirrTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/payment/v1/orders" {
			t.Fatalf("path = %s", r.URL.Path)
		}
		if r.Header.Get("X-App-Key") != "key-1" {
			t.Fatalf("missing app key header")
		}
		w.Write([]byte(`{"code":0,"data":{"orderId":"tb-123","payUrl":"https://pay.telebirr/tb-123"}}`))
	})

	intent, err := client.CreatePayment(context.Background(), CreateRequest{
		DonationID: "don-1",
		Amount:     decimal.NewFromInt(50),
		Currency:   "ETB",
	})
	if err != nil {
		t.Fatalf("CreatePayment: %v", err)
	}
	if intent.ProviderRef != "tb-123" || intent.CheckoutURL != "https://pay.telebirr/tb-123" {
		t.Fatalf("unexpected intent: %+v", intent)
	}
}

func TestTelebirrCreatePaymentPolicyShortCircuits(t *testing.T) {
	calls := 0
	client, _ := telebirrTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
	})

	_, err := client.CreatePayment(context.Background(), CreateRequest{
		DonationID: "don-1",
		Amount:     decimal.NewFromInt(2),
		Currency:   "ETB",
	})
	if !errors.Is(err, domain.ErrBelowMinimum) {
		t.Fatalf("err = %v, want ErrBelowMinimum", err)
	}

	_, err = client.CreatePayment(context.Background(), CreateRequest{
		DonationID: "don-1",
		Amount:     decimal.NewFromInt(50),
		Currency:   "USD",
	})
	if !errors.Is(err, domain.ErrUnsupportedCurrency) {
		t.Fatalf("err = %v, want ErrUnsupportedCurrency", err)
	}
	if calls != 0 {
		t.Fatalf("gateway called %d times for out-of-policy requests", calls)
	}
}

func telebirrSign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestTelebirrVerifyWebhookOutcomes(t *testing.T) {
	client := NewTelebirrClient(TelebirrOptions{
		AppID: "a", AppKey: "k", WebhookSecret: "whsec", Logger: zerolog.Nop(),
	})

	tests := []struct {
		status string
		want   Outcome
	}{
		{"SUCCESS", OutcomeCompleted},
		{"COMPLETED", OutcomeCompleted},
		{"FAILED", OutcomeFailed},
		{"CANCELLED", OutcomeFailed},
		{"EXPIRED", OutcomeFailed},
		{"PROCESSING", OutcomeIgnored},
	}
	for _, tc := range tests {
		body := []byte(`{"notifyId":"n1","orderId":"tb-1","outTradeNo":"don-1","tradeStatus":"` + tc.status + `"}`)
		event, err := client.VerifyWebhook(body, telebirrSign("whsec", body))
		if err != nil {
			t.Fatalf("VerifyWebhook(%s): %v", tc.status, err)
		}
		if event.Outcome != tc.want {
			t.Fatalf("outcome for %s = %s, want %s", tc.status, event.Outcome, tc.want)
		}
		if event.DonationID != "don-1" {
			t.Fatalf("donation id = %q", event.DonationID)
		}
	}
}

func TestTelebirrVerifyWebhookRejectsBadSignature(t *testing.T) {
	client := NewTelebirrClient(TelebirrOptions{
		AppID: "a", AppKey: "k", WebhookSecret: "whsec", Logger: zerolog.Nop(),
	})
	body := []byte(`{"tradeStatus":"SUCCESS"}`)
	if _, err := client.VerifyWebhook(body, "deadbeef"); !errors.Is(err, domain.ErrInvalidSignature) {
		t.Fatalf("err = %v, want ErrInvalidSignature", err)
	}
}

func TestTelebirrRefund(t *testing.T) {
	client, _ := telebirrTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/payment/v1/refunds" {
			t.Fatalf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"code":0}`))
	})
	if err := client.Refund(context.Background(), "tb-1"); err != nil {
		t.Fatalf("Refund: %v", err)
	}
}
