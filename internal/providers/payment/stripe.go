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
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"server/internal/domain"
)

// ErrMissingSecretKey indicates an adapter configured without credentials.
var ErrMissingSecretKey = errors.New("payment: secret key is required")

// StripeOptions configures the Stripe adapter.
type StripeOptions struct {
	SecretKey     string
	WebhookSecret string
	BaseURL       string
	Policy        Policy
	Retries       int
	Timeout       time.Duration
	HTTPClient    *http.Client
	Logger        zerolog.Logger
}

// StripeClient performs HTTP calls against the Stripe payment intents API.
type StripeClient struct {
	secretKey     string
	webhookSecret string
	baseURL       string
	policy        Policy
	retries       int
	httpClient    *http.Client
	logger        zerolog.Logger
}

// NewStripeClient constructs a Stripe adapter with sane defaults.
func NewStripeClient(opts StripeOptions) *StripeClient {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.stripe.com/v1"
	}
	retries := opts.Retries
	if retries <= 0 {
		retries = 3
	}
	return &StripeClient{
		secretKey:     strings.TrimSpace(opts.SecretKey),
		webhookSecret: strings.TrimSpace(opts.WebhookSecret),
		baseURL:       baseURL,
		policy:        opts.Policy,
		retries:       retries,
		httpClient:    httpClient,
		logger:        opts.Logger,
	}
}

// Method identifies the gateway.
func (c *StripeClient) Method() domain.PaymentMethod {
	return domain.PaymentMethodStripe
}

type stripeIntentResponse struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
	Error        *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// CreatePayment creates a payment intent. Amounts are sent in minor units.
func (c *StripeClient) CreatePayment(ctx context.Context, req CreateRequest) (*CheckoutIntent, error) {
	if c.secretKey == "" {
		return nil, ErrMissingSecretKey
	}
	if err := c.policy.Check(req.Amount, req.Currency); err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("amount", req.Amount.Mul(decimal.NewFromInt(100)).Round(0).String())
	form.Set("currency", strings.ToLower(req.Currency))
	form.Set("metadata[donation_id]", req.DonationID)
	form.Set("automatic_payment_methods[enabled]", "true")
	description := "Donation"
	if req.CampaignTitle != "" {
		description = "Donation - " + req.CampaignTitle
	}
	form.Set("description", description)
	if req.DonorEmail != "" {
		form.Set("receipt_email", req.DonorEmail)
	}

	var intent *CheckoutIntent
	err := withRetry(ctx, c.retries, time.Second, func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/payment_intents", strings.NewReader(form.Encode()))
		if err != nil {
			return fmt.Errorf("stripe: build request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		httpReq.Header.Set("Authorization", "Bearer "+c.secretKey)

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return &GatewayError{Provider: "stripe", Err: err}
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return &GatewayError{Provider: "stripe", Err: err}
		}

		var decoded stripeIntentResponse
		if resp.StatusCode >= 300 {
			if err := json.Unmarshal(raw, &decoded); err == nil && decoded.Error != nil {
				return &GatewayError{Provider: "stripe", StatusCode: resp.StatusCode, Err: errors.New(decoded.Error.Message)}
			}
			return &GatewayError{Provider: "stripe", StatusCode: resp.StatusCode, Err: errors.New(strings.TrimSpace(string(raw)))}
		}
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return &GatewayError{Provider: "stripe", Err: fmt.Errorf("decode response: %w", err)}
		}
		intent = &CheckoutIntent{
			ProviderRef:  decoded.ID,
			ClientSecret: decoded.ClientSecret,
			Status:       decoded.Status,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info().
		Str("provider", "stripe").
		Str("donation_id", req.DonationID).
		Str("provider_ref", intent.ProviderRef).
		Msg("payment intent created")
	return intent, nil
}

type stripeEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID       string `json:"id"`
			Status   string `json:"status"`
			Metadata struct {
				DonationID string `json:"donation_id"`
			} `json:"metadata"`
			LastPaymentError *struct {
				Message string `json:"message"`
			} `json:"last_payment_error"`
		} `json:"object"`
	} `json:"data"`
}

// VerifyWebhook checks the Stripe-Signature header ("t=<ts>,v1=<hex>") against
// an HMAC-SHA256 of "<ts>.<rawBody>" and normalizes the event.
func (c *StripeClient) VerifyWebhook(rawBody []byte, signature string) (*WebhookEvent, error) {
	var timestamp, v1 string
	for _, part := range strings.Split(signature, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			timestamp = kv[1]
		case "v1":
			v1 = kv[1]
		}
	}
	if timestamp == "" || v1 == "" {
		return nil, fmt.Errorf("stripe: malformed signature header: %w", domain.ErrInvalidSignature)
	}

	mac := hmac.New(sha256.New, []byte(c.webhookSecret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(v1)) {
		return nil, fmt.Errorf("stripe: signature mismatch: %w", domain.ErrInvalidSignature)
	}

	var event stripeEvent
	if err := json.Unmarshal(rawBody, &event); err != nil {
		return nil, fmt.Errorf("stripe: decode event: %w", err)
	}

	out := &WebhookEvent{
		EventID:     event.ID,
		ProviderRef: event.Data.Object.ID,
		DonationID:  event.Data.Object.Metadata.DonationID,
	}
	switch event.Type {
	case "payment_intent.succeeded":
		out.Outcome = OutcomeCompleted
	case "payment_intent.payment_failed":
		out.Outcome = OutcomeFailed
		if event.Data.Object.LastPaymentError != nil {
			out.Reason = event.Data.Object.LastPaymentError.Message
		}
	default:
		out.Outcome = OutcomeIgnored
	}
	return out, nil
}

// Refund refunds the full payment intent.
func (c *StripeClient) Refund(ctx context.Context, providerRef string) error {
	if c.secretKey == "" {
		return ErrMissingSecretKey
	}
	form := url.Values{}
	form.Set("payment_intent", providerRef)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/refunds", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("stripe: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return &GatewayError{Provider: "stripe", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return &GatewayError{Provider: "stripe", StatusCode: resp.StatusCode, Err: errors.New(strings.TrimSpace(string(raw)))}
	}
	c.logger.Info().Str("provider", "stripe").Str("provider_ref", providerRef).Msg("refund created")
	return nil
}
