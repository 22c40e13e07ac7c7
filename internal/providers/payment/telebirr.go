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

// TelebirrOptions configures the Telebirr adapter.
type TelebirrOptions struct {
	AppID         string
	AppKey        string
	ShortCode     string
	WebhookSecret string
	BaseURL       string
	Policy        Policy
	Retries       int
	Timeout       time.Duration
	HTTPClient    *http.Client
	Logger        zerolog.Logger
}

// TelebirrClient performs HTTP calls against the Telebirr order API.
type TelebirrClient struct {
	appID         string
	appKey        string
	shortCode     string
	webhookSecret string
	baseURL       string
	policy        Policy
	retries       int
	httpClient    *http.Client
	logger        zerolog.Logger
}

// NewTelebirrClient constructs a Telebirr adapter with sane defaults.
func NewTelebirrClient(opts TelebirrOptions) *TelebirrClient {
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
		baseURL = "https://api.telebirr.com"
	}
	retries := opts.Retries
	if retries <= 0 {
		retries = 3
	}
	return &TelebirrClient{
		appID:         strings.TrimSpace(opts.AppID),
		appKey:        strings.TrimSpace(opts.AppKey),
		shortCode:     strings.TrimSpace(opts.ShortCode),
		webhookSecret: strings.TrimSpace(opts.WebhookSecret),
		baseURL:       baseURL,
		policy:        opts.Policy,
		retries:       retries,
		httpClient:    httpClient,
		logger:        opts.Logger,
	}
}

// Method identifies the gateway.
func (c *TelebirrClient) Method() domain.PaymentMethod {
	return domain.PaymentMethodTelebirr
}

type telebirrOrderRequest struct {
	AppID       string `json:"appId"`
	ShortCode   string `json:"shortCode"`
	OutTradeNo  string `json:"outTradeNo"`
	TotalAmount string `json:"totalAmount"`
	Currency    string `json:"currency"`
	Subject     string `json:"subject"`
}

type telebirrOrderResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		OrderID string `json:"orderId"`
		PayURL  string `json:"payUrl"`
	} `json:"data"`
}

// CreatePayment creates a Telebirr order and returns its pay URL.
func (c *TelebirrClient) CreatePayment(ctx context.Context, req CreateRequest) (*CheckoutIntent, error) {
	if c.appID == "" || c.appKey == "" {
		return nil, ErrMissingSecretKey
	}
	if err := c.policy.Check(req.Amount, req.Currency); err != nil {
		return nil, err
	}

	subject := "Donation"
	if req.CampaignTitle != "" {
		subject = "Donation - " + req.CampaignTitle
	}
	payload := telebirrOrderRequest{
		AppID:       c.appID,
		ShortCode:   c.shortCode,
		OutTradeNo:  req.DonationID,
		TotalAmount: req.Amount.String(),
		Currency:    strings.ToUpper(req.Currency),
		Subject:     subject,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("telebirr: encode request: %w", err)
	}

	var intent *CheckoutIntent
	err = withRetry(ctx, c.retries, time.Second, func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/payment/v1/orders", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("telebirr: build request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("X-App-Key", c.appKey)

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return &GatewayError{Provider: "telebirr", Err: err}
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return &GatewayError{Provider: "telebirr", Err: err}
		}
		var decoded telebirrOrderResponse
		if resp.StatusCode >= 300 {
			if err := json.Unmarshal(raw, &decoded); err == nil && decoded.Message != "" {
				return &GatewayError{Provider: "telebirr", StatusCode: resp.StatusCode, Err: errors.New(decoded.Message)}
			}
			return &GatewayError{Provider: "telebirr", StatusCode: resp.StatusCode, Err: errors.New(strings.TrimSpace(string(raw)))}
		}
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return &GatewayError{Provider: "telebirr", Err: fmt.Errorf("decode response: %w", err)}
		}
		if decoded.Data.OrderID == "" {
			return &GatewayError{Provider: "telebirr", StatusCode: resp.StatusCode, Err: errors.New("empty order id")}
		}
		intent = &CheckoutIntent{
			ProviderRef: decoded.Data.OrderID,
			CheckoutURL: decoded.Data.PayURL,
			Status:      "created",
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info().
		Str("provider", "telebirr").
		Str("donation_id", req.DonationID).
		Str("provider_ref", intent.ProviderRef).
		Msg("order created")
	return intent, nil
}

type telebirrNotification struct {
	NotifyID    string `json:"notifyId"`
	OrderID     string `json:"orderId"`
	OutTradeNo  string `json:"outTradeNo"`
	TradeStatus string `json:"tradeStatus"`
	Message     string `json:"message"`
}

// VerifyWebhook checks the hex HMAC-SHA256 signature of the raw notification
// body and normalizes the event.
func (c *TelebirrClient) VerifyWebhook(rawBody []byte, signature string) (*WebhookEvent, error) {
	mac := hmac.New(sha256.New, []byte(c.webhookSecret))
	mac.Write(rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(strings.TrimSpace(signature))) {
		return nil, fmt.Errorf("telebirr: signature mismatch: %w", domain.ErrInvalidSignature)
	}

	var event telebirrNotification
	if err := json.Unmarshal(rawBody, &event); err != nil {
		return nil, fmt.Errorf("telebirr: decode event: %w", err)
	}

	out := &WebhookEvent{
		EventID:     event.NotifyID,
		ProviderRef: event.OrderID,
		DonationID:  event.OutTradeNo,
	}
	switch strings.ToUpper(event.TradeStatus) {
	case "SUCCESS", "COMPLETED":
		out.Outcome = OutcomeCompleted
	case "FAILED", "CANCELLED", "EXPIRED":
		out.Outcome = OutcomeFailed
		out.Reason = event.Message
	default:
		out.Outcome = OutcomeIgnored
	}
	return out, nil
}

// Refund requests a full refund for the Telebirr order.
func (c *TelebirrClient) Refund(ctx context.Context, providerRef string) error {
	if c.appID == "" || c.appKey == "" {
		return ErrMissingSecretKey
	}
	body, err := json.Marshal(map[string]string{"appId": c.appID, "orderId": providerRef})
	if err != nil {
		return fmt.Errorf("telebirr: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/payment/v1/refunds", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telebirr: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-App-Key", c.appKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return &GatewayError{Provider: "telebirr", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return &GatewayError{Provider: "telebirr", StatusCode: resp.StatusCode, Err: errors.New(strings.TrimSpace(string(raw)))}
	}
	c.logger.Info().Str("provider", "telebirr").Str("provider_ref", providerRef).Msg("refund created")
	return nil
}
