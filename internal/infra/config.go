package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// GatewayConfig holds the static configuration for one payment provider.
type GatewayConfig struct {
	SecretKey           string
	WebhookSecret       string
	BaseURL             string
	AppID               string
	AppKey              string
	ShortCode           string
	Timeout             time.Duration
	Retries             int
	SupportedCurrencies []string
	MinimumAmounts      map[string]decimal.Decimal
}

// SMTPConfig holds mail delivery settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string
	DBMaxConns  int32
	JWTSecret   string
	FrontendURL string

	CORSAllowedOrigins []string
	RateLimitPerMin    int
	HTTPReadTimeout    time.Duration
	HTTPWriteTimeout   time.Duration
	HTTPIdleTimeout    time.Duration

	GeoIPDBPath string

	CanonicalCurrency string
	ExchangeRates     map[string]decimal.Decimal
	MaxDonationAmount decimal.Decimal

	Stripe   GatewayConfig
	Chapa    GatewayConfig
	Telebirr GatewayConfig

	SMTP               SMTPConfig
	AdminEmails        []string
	DeveloperEmail     string
	WorkerPollInterval time.Duration
	WorkerBatchSize    int
}

// LoadConfig loads configuration from environment variables and applies
// defaults where needed. Provider policy (supported currencies, minimums) is
// static configuration; only credentials and URLs come from the environment.
func LoadConfig() (*Config, error) {
	gatewayTimeout := time.Second * time.Duration(getEnvInt("GATEWAY_TIMEOUT_SECONDS", 30))
	gatewayRetries := getEnvInt("GATEWAY_RETRIES", 3)

	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBMaxConns:  int32(getEnvInt("DB_MAX_CONNS", 10)),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		CORSAllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		RateLimitPerMin:    getEnvInt("RATE_LIMIT_PER_MINUTE", 100),
		HTTPReadTimeout:    time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:   time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:    time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),

		GeoIPDBPath: os.Getenv("GEOIP_DB_PATH"),

		CanonicalCurrency: getEnv("DEFAULT_CURRENCY", "ETB"),
		ExchangeRates: parseRates(getEnv("EXCHANGE_RATES",
			"USD_TO_ETB=55.0,EUR_TO_ETB=60.0,ETB_TO_USD=0.018,ETB_TO_EUR=0.017")),
		MaxDonationAmount: decimal.NewFromInt(int64(getEnvInt("MAX_DONATION_AMOUNT", 1000000))),

		Stripe: GatewayConfig{
			SecretKey:           os.Getenv("STRIPE_SECRET_KEY"),
			WebhookSecret:       os.Getenv("STRIPE_WEBHOOK_SECRET"),
			BaseURL:             getEnv("STRIPE_BASE_URL", "https://api.stripe.com/v1"),
			Timeout:             gatewayTimeout,
			Retries:             gatewayRetries,
			SupportedCurrencies: []string{"USD", "EUR", "ETB"},
			MinimumAmounts: map[string]decimal.Decimal{
				"USD": decimal.NewFromFloat(0.50),
				"EUR": decimal.NewFromFloat(0.50),
				"ETB": decimal.NewFromInt(10),
			},
		},
		Chapa: GatewayConfig{
			SecretKey:           os.Getenv("CHAPA_SECRET_KEY"),
			WebhookSecret:       os.Getenv("CHAPA_WEBHOOK_SECRET"),
			BaseURL:             getEnv("CHAPA_BASE_URL", "https://api.chapa.co/v1"),
			Timeout:             gatewayTimeout,
			Retries:             gatewayRetries,
			SupportedCurrencies: []string{"ETB"},
			MinimumAmounts: map[string]decimal.Decimal{
				"ETB": decimal.NewFromInt(10),
			},
		},
		Telebirr: GatewayConfig{
			AppID:               os.Getenv("TELEBIRR_APP_ID"),
			AppKey:              os.Getenv("TELEBIRR_APP_KEY"),
			ShortCode:           os.Getenv("TELEBIRR_SHORT_CODE"),
			WebhookSecret:       os.Getenv("TELEBIRR_WEBHOOK_SECRET"),
			BaseURL:             getEnv("TELEBIRR_BASE_URL", "https://api.telebirr.com"),
			Timeout:             gatewayTimeout,
			Retries:             gatewayRetries,
			SupportedCurrencies: []string{"ETB"},
			MinimumAmounts: map[string]decimal.Decimal{
				"ETB": decimal.NewFromInt(5),
			},
		},

		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", "localhost"),
			Port:     getEnvInt("SMTP_PORT", 587),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     getEnv("FROM_EMAIL", "noreply@kuraagalaan.org"),
		},
		AdminEmails:        splitList(os.Getenv("ADMIN_EMAILS")),
		DeveloperEmail:     os.Getenv("DEVELOPER_EMAIL"),
		WorkerPollInterval: time.Second * time.Duration(getEnvInt("WORKER_POLL_INTERVAL_SECONDS", 5)),
		WorkerBatchSize:    getEnvInt("WORKER_BATCH_SIZE", 20),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// parseRates parses "USD_TO_ETB=55.0,EUR_TO_ETB=60.0". Malformed entries are
// skipped rather than failing startup; a missing pair surfaces later as an
// unsupported conversion.
func parseRates(raw string) map[string]decimal.Decimal {
	rates := make(map[string]decimal.Decimal)
	for _, part := range strings.Split(raw, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		rate, err := decimal.NewFromString(strings.TrimSpace(kv[1]))
		if err != nil {
			continue
		}
		rates[strings.ToUpper(strings.TrimSpace(kv[0]))] = rate
	}
	return rates
}
