package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"server/internal/domain"
)

// ChapaOptions configures the Chapa adapter.
type ChapaOptions struct {
	SecretKey     string
	WebhookSecret string
	BaseURL       string
	CallbackBase  string
	Policy        Policy
	Retries       int
	Timeout       time.Duration
	HTTPClient    *http.Client
	Logger        zerolog.Logger
}

// ChapaClient performs HTTP calls against the Chapa transaction API.
type ChapaClient struct {
	secretKey     string
	webhookSecret string
	baseURL       string
	callbackBase  string
	policy        Policy
	retries       int
	httpClient    *http.Client
	logger        zerolog.Logger
}

// NewChapaClient constructs a Chapa adapter with sane defaults.
func NewChapaClient(opts ChapaOptions) *ChapaClient {
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
		baseURL = "https://api.chapa.co/v1"
	}
	retries := opts.Retries
	if retries <= 0 {
		retries = 3
	}
	return &ChapaClient{
		secretKey:     strings.TrimSpace(opts.SecretKey),
		webhookSecret: strings.TrimSpace(opts.WebhookSecret),
		baseURL:       baseURL,
		callbackBase:  strings.TrimRight(opts.CallbackBase, "/"),
		policy:        opts.Policy,
		retries:       retries,
		httpClient:    httpClient,
		logger:        opts.Logger,
	}
}

// Method identifies the gateway.
func (c *ChapaClient) Method() domain.PaymentMethod {
	return domain.PaymentMethodChapa
}

type chapaInitRequest struct {
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Email       string `json:"email,omitempty"`
	FirstName   string `json:"first_name,omitempty"`
	TxRef       string `json:"tx_ref"`
	CallbackURL string `json:"callback_url,omitempty"`
}

type chapaInitResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		CheckoutURL string `json:"checkout_url"`
	} `json:"data"`
}

// CreatePayment initializes a hosted checkout transaction. The donation id is
// used as tx_ref so the webhook can be matched back without extra state.
func (c *ChapaClient) CreatePayment(ctx context.Context, req CreateRequest) (*CheckoutIntent, error) {
	if c.secretKey == "" {
		return nil, ErrMissingSecretKey
	}
	if err := c.policy.Check(req.Amount, req.Currency); err != nil {
		return nil, err
	}

	payload := chapaInitRequest{
		Amount:    req.Amount.String(),
		Currency:  strings.ToUpper(req.Currency),
		Email:     req.DonorEmail,
		FirstName: req.DonorName,
		TxRef:     req.DonationID,
	}
	if c.callbackBase != "" {
		payload.CallbackURL = c.callbackBase + "/donation/success/" + req.DonationID
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("chapa: encode request: %w", err)
	}

	var intent *CheckoutIntent
	err = withRetry(ctx, c.retries, time.Second, func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transaction/initialize", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("chapa: build request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", "Bearer "+c.secretKey)

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return &GatewayError{Provider: "chapa", Err: err}
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return &GatewayError{Provider: "chapa", Err: err}
		}
		var decoded chapaInitResponse
		if resp.StatusCode >= 300 {
			if err := json.Unmarshal(raw, &decoded); err == nil && decoded.Message != "" {
				return &GatewayError{Provider: "chapa", StatusCode: resp.StatusCode, Err: errors.New(decoded.Message)}
			}
			return &GatewayError{Provider: "chapa", StatusCode: resp.StatusCode, Err: errors.New(strings.TrimSpace(string(raw)))}
		}
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return &GatewayError{Provider: "chapa", Err: fmt.Errorf("decode response: %w", err)}
		}
		if !strings.EqualFold(decoded.Status, "success") {
			return &GatewayError{Provider: "chapa", StatusCode: resp.StatusCode, Err: errors.New(decoded.Message)}
		}
		intent = &CheckoutIntent{
			ProviderRef: req.DonationID,
			CheckoutURL: decoded.Data.CheckoutURL,
			Status:      decoded.Status,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info().
		Str("provider", "chapa").
		Str("donation_id", req.DonationID).
		Msg("checkout transaction initialized")
	return intent, nil
}

type chapaEvent struct {
	Event     string `json:"event"`
	TxRef     string `json:"tx_ref"`
	Reference string `json:"reference"`
	Status    string `json:"status"`
}

// VerifyWebhook checks the Chapa-Signature header, a hex HMAC-SHA256 of the
// raw body, and normalizes the event.
func (c *ChapaClient) VerifyWebhook(rawBody []byte, signature string) (*WebhookEvent, error) {
	mac := hmac.New(sha256.New, []byte(c.webhookSecret))
	mac.Write(rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(strings.TrimSpace(signature))) {
		return nil, fmt.Errorf("chapa: signature mismatch: %w", domain.ErrInvalidSignature)
	}

	var event chapaEvent
	if err := json.Unmarshal(rawBody, &event); err != nil {
		return nil, fmt.Errorf("chapa: decode event: %w", err)
	}

	out := &WebhookEvent{
		EventID:     event.Reference,
		ProviderRef: event.TxRef,
		DonationID:  event.TxRef,
	}
	switch {
	case strings.EqualFold(event.Event, "charge.success") || strings.EqualFold(event.Status, "success"):
		out.Outcome = OutcomeCompleted
	case strings.EqualFold(event.Event, "charge.failed") || strings.EqualFold(event.Status, "failed"):
		out.Outcome = OutcomeFailed
		out.Reason = event.Status
	default:
		out.Outcome = OutcomeIgnored
	}
	return out, nil
}

// Refund requests a full refund for the transaction reference.
func (c *ChapaClient) Refund(ctx context.Context, providerRef string) error {
	if c.secretKey == "" {
		return ErrMissingSecretKey
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/refund/"+providerRef, nil)
	if err != nil {
		return fmt.Errorf("chapa: build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return &GatewayError{Provider: "chapa", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return &GatewayError{Provider: "chapa", StatusCode: resp.StatusCode, Err: errors.New(strings.TrimSpace(string(raw)))}
	}
	c.logger.Info().Str("provider", "chapa").Str("provider_ref", providerRef).Msg("refund created")
	return nil
}
