package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"server/internal/domain"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Clean Water for Jimma", "clean-water-for-jimma"},
		{"  School  Books!  ", "school-books"},
		{"ALL CAPS", "all-caps"},
		{"trailing---", "trailing"},
	}
	for _, tc := range tests {
		if got := slugify(tc.in); got != tc.want {
			t.Fatalf("slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCampaignsCreateValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing title", `{"goal_amount": 1000}`},
		{"zero goal", `{"title": "X", "goal_amount": 0}`},
		{"end before start", `{"title": "X", "goal_amount": 10, "start_date": "2026-09-01T00:00:00Z", "end_date": "2026-08-01T00:00:00Z"}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			app := testApp()
			app.Campaigns = &stubCampaigns{}
			req := httptest.NewRequest(http.MethodPost, "/api/campaigns", strings.NewReader(tc.body))
			rec := doRequest(app.CampaignsCreate, req)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestCampaignsCreateGeneratesSlug(t *testing.T) {
	app := testApp()
	app.Campaigns = &stubCampaigns{}
	body := `{"title": "Clean Water for Jimma", "goal_amount": 50000, "currency": "etb"}`
	req := httptest.NewRequest(http.MethodPost, "/api/campaigns", strings.NewReader(body))
	rec := doRequest(app.CampaignsCreate, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusCreated, rec.Body.String())
	}
	var dto campaignDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &dto); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if dto.Slug != "clean-water-for-jimma" {
		t.Fatalf("slug = %q", dto.Slug)
	}
	if dto.Currency != "ETB" {
		t.Fatalf("currency = %q, want ETB", dto.Currency)
	}
	if dto.Status != string(domain.CampaignActive) {
		t.Fatalf("status = %q, want ACTIVE", dto.Status)
	}
}

func TestCampaignsGetBySlugFallback(t *testing.T) {
	app := testApp()
	app.Campaigns = &stubCampaigns{campaign: &domain.Campaign{
		ID:         "11111111-2222-3333-4444-555555555555",
		Title:      "Relief Fund",
		Slug:       "relief-fund",
		GoalAmount: decimal.NewFromInt(1000),
		Status:     domain.CampaignActive,
	}}

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/campaigns/relief-fund", nil), "id", "relief-fund")
	rec := doRequest(app.CampaignsGet, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), "relief-fund") {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestCampaignsGetNotFound(t *testing.T) {
	app := testApp()
	app.Campaigns = &stubCampaigns{err: domain.ErrNotFound}
	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/campaigns/missing", nil), "id", "missing")
	rec := doRequest(app.CampaignsGet, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}
