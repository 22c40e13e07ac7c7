package infra

import (
	"testing"

	"github.com/shopspring/decimal"
)

func decimalFromString(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", s, err)
	}
	return d
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("EXCHANGE_RATES", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.CanonicalCurrency != "ETB" {
		t.Fatalf("CanonicalCurrency = %q, want ETB", cfg.CanonicalCurrency)
	}
	if rate, ok := cfg.ExchangeRates["USD_TO_ETB"]; !ok || !rate.Equal(decimalFromString(t, "55.0")) {
		t.Fatalf("USD_TO_ETB rate mismatch: %#v", cfg.ExchangeRates)
	}
	if len(cfg.Chapa.SupportedCurrencies) != 1 || cfg.Chapa.SupportedCurrencies[0] != "ETB" {
		t.Fatalf("Chapa currencies mismatch: %#v", cfg.Chapa.SupportedCurrencies)
	}
	if cfg.Telebirr.MinimumAmounts["ETB"].String() != "5" {
		t.Fatalf("Telebirr ETB minimum = %s, want 5", cfg.Telebirr.MinimumAmounts["ETB"])
	}
	if cfg.Stripe.Retries != 3 {
		t.Fatalf("Stripe retries = %d, want 3", cfg.Stripe.Retries)
	}
}

func TestLoadConfigRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "test-secret")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error when DATABASE_URL is missing")
	}
}

func TestLoadConfigRequiresJWTSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("JWT_SECRET", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error when JWT_SECRET is missing")
	}
}

func TestLoadConfigParsesRateOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("EXCHANGE_RATES", "USD_TO_ETB=57.5, gbp_to_etb=70, broken, NOPE=abc")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if !cfg.ExchangeRates["USD_TO_ETB"].Equal(decimalFromString(t, "57.5")) {
		t.Fatalf("USD_TO_ETB = %s", cfg.ExchangeRates["USD_TO_ETB"])
	}
	if !cfg.ExchangeRates["GBP_TO_ETB"].Equal(decimalFromString(t, "70")) {
		t.Fatalf("GBP_TO_ETB = %s", cfg.ExchangeRates["GBP_TO_ETB"])
	}
	if _, ok := cfg.ExchangeRates["NOPE"]; ok {
		t.Fatalf("malformed rate should be skipped")
	}
	if len(cfg.ExchangeRates) != 2 {
		t.Fatalf("rates = %#v", cfg.ExchangeRates)
	}
}
