package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"server/internal/domain"
)

func chapaPolicy() Policy {
	return Policy{
		SupportedCurrencies: []string{"ETB"},
		MinimumAmounts:      map[string]decimal.Decimal{"ETB": decimal.NewFromInt(10)},
	}
}

func TestChapaCreatePayment(t *testing.T) {
	var gotBody chapaInitRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transaction/initialize" {
			t.Fatalf("path = %q", r.URL.Path)
		}
		raw, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(raw, &gotBody); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"status":"success","message":"ok","data":{"checkout_url":"https://checkout.chapa.co/pay/abc"}}`)
	}))
	defer srv.Close()

	client := NewChapaClient(ChapaOptions{
		SecretKey:    "chsk_test",
		BaseURL:      srv.URL,
		CallbackBase: "https://donate.example.org",
		Policy:       chapaPolicy(),
		Logger:       zerolog.Nop(),
	})

	intent, err := client.CreatePayment(context.Background(), CreateRequest{
		DonationID: "don-7",
		Amount:     decimal.NewFromInt(500),
		Currency:   "ETB",
		DonorEmail: "donor@example.org",
	})
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}
	if intent.CheckoutURL != "https://checkout.chapa.co/pay/abc" {
		t.Fatalf("checkout url = %q", intent.CheckoutURL)
	}
	if intent.ProviderRef != "don-7" {
		t.Fatalf("provider ref = %q, want the tx_ref", intent.ProviderRef)
	}
	if gotBody.TxRef != "don-7" {
		t.Fatalf("tx_ref = %q", gotBody.TxRef)
	}
	if gotBody.CallbackURL != "https://donate.example.org/donation/success/don-7" {
		t.Fatalf("callback url = %q", gotBody.CallbackURL)
	}
}

func TestChapaCreatePaymentRejectsForeignCurrency(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { calls++ }))
	defer srv.Close()

	client := NewChapaClient(ChapaOptions{
		SecretKey: "chsk_test",
		BaseURL:   srv.URL,
		Policy:    chapaPolicy(),
		Logger:    zerolog.Nop(),
	})

	_, err := client.CreatePayment(context.Background(), CreateRequest{
		DonationID: "don-8",
		Amount:     decimal.NewFromInt(50),
		Currency:   "USD",
	})
	if !errors.Is(err, domain.ErrUnsupportedCurrency) {
		t.Fatalf("err = %v, want ErrUnsupportedCurrency", err)
	}
	if calls != 0 {
		t.Fatalf("expected no network call, got %d", calls)
	}
}

func TestChapaVerifyWebhook(t *testing.T) {
	client := NewChapaClient(ChapaOptions{
		WebhookSecret: "whsec_chapa",
		Logger:        zerolog.Nop(),
	})

	body := []byte(`{"event":"charge.success","tx_ref":"don-7","reference":"ch-ref-1","status":"success"}`)
	mac := hmac.New(sha256.New, []byte("whsec_chapa"))
	mac.Write(body)
	sig := hex.EncodeToString(mac.Sum(nil))

	event, err := client.VerifyWebhook(body, sig)
	if err != nil {
		t.Fatalf("verify webhook: %v", err)
	}
	if event.Outcome != OutcomeCompleted {
		t.Fatalf("outcome = %q", event.Outcome)
	}
	if event.DonationID != "don-7" || event.EventID != "ch-ref-1" {
		t.Fatalf("unexpected event: %#v", event)
	}

	if _, err := client.VerifyWebhook(body, "deadbeef"); !errors.Is(err, domain.ErrInvalidSignature) {
		t.Fatalf("err = %v, want ErrInvalidSignature", err)
	}
}
