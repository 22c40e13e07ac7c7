package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"server/internal/domain"
	"server/internal/reconcile"
)

type stubReconciler struct {
	initiateResult *reconcile.InitiateResult
	initiateErr    error
	webhookResult  *reconcile.WebhookResult
	webhookErr     error
	refundResult   *domain.Donation
	refundErr      error

	lastInitiate  *reconcile.InitiateRequest
	lastRawBody   []byte
	lastSignature string
	lastMethod    domain.PaymentMethod
}

func (s *stubReconciler) Initiate(_ context.Context, req reconcile.InitiateRequest) (*reconcile.InitiateResult, error) {
	s.lastInitiate = &req
	return s.initiateResult, s.initiateErr
}

func (s *stubReconciler) HandleWebhook(_ context.Context, method domain.PaymentMethod, rawBody []byte, signature string) (*reconcile.WebhookResult, error) {
	s.lastMethod = method
	s.lastRawBody = rawBody
	s.lastSignature = signature
	return s.webhookResult, s.webhookErr
}

func (s *stubReconciler) Refund(_ context.Context, _ string) (*domain.Donation, error) {
	return s.refundResult, s.refundErr
}

type stubLedger struct {
	donation *domain.Donation
	getErr   error
	recent   []domain.Donation
}

func (s *stubLedger) CreateDonation(context.Context, *domain.Donation) error      { return nil }
func (s *stubLedger) SetProviderRef(context.Context, string, string) error        { return nil }
func (s *stubLedger) MarkDonationFailed(context.Context, string, string) error    { return nil }
func (s *stubLedger) GetDonation(context.Context, string) (*domain.Donation, error) {
	return s.donation, s.getErr
}
func (s *stubLedger) GetDonationByProviderRef(context.Context, domain.PaymentMethod, string) (*domain.Donation, error) {
	return s.donation, s.getErr
}
func (s *stubLedger) ListRecentByCampaign(context.Context, string, int) ([]domain.Donation, error) {
	return s.recent, nil
}
func (s *stubLedger) SettleCompleted(context.Context, string, string, decimal.Decimal, []domain.EmailMessage) (domain.SettleOutcome, error) {
	return domain.SettleOutcome{}, nil
}
func (s *stubLedger) SettleFailed(context.Context, string, string, string) (domain.SettleOutcome, error) {
	return domain.SettleOutcome{}, nil
}
func (s *stubLedger) RefundDonation(context.Context, string, []domain.EmailMessage) (*domain.Donation, error) {
	return s.donation, s.getErr
}

type stubUsers struct {
	users     map[string]*domain.User
	createErr error
}

func (s *stubUsers) Create(_ context.Context, u *domain.User) error {
	if s.createErr != nil {
		return s.createErr
	}
	if s.users == nil {
		s.users = map[string]*domain.User{}
	}
	s.users[u.Email] = u
	return nil
}

func (s *stubUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *stubUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	if u, ok := s.users[email]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}

type stubCampaigns struct {
	campaign *domain.Campaign
	err      error
}

func (s *stubCampaigns) Create(context.Context, *domain.Campaign) error { return s.err }
func (s *stubCampaigns) GetByID(context.Context, string) (*domain.Campaign, error) {
	return s.campaign, s.err
}
func (s *stubCampaigns) GetBySlug(context.Context, string) (*domain.Campaign, error) {
	return s.campaign, s.err
}
func (s *stubCampaigns) ListActive(context.Context, int) ([]domain.Campaign, error) {
	if s.campaign == nil {
		return nil, s.err
	}
	return []domain.Campaign{*s.campaign}, s.err
}

func testApp() *App {
	return &App{
		Logger:    zerolog.Nop(),
		JWTSecret: "test-secret",
		Users:     &stubUsers{},
	}
}

func doRequest(h http.HandlerFunc, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h(rec, r)
	return rec
}
