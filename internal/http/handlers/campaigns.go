package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"server/internal/domain"
)

type campaignCreateRequest struct {
	Title       string      `json:"title"`
	Slug        string      `json:"slug"`
	Description string      `json:"description"`
	GoalAmount  json.Number `json:"goal_amount"`
	Currency    string      `json:"currency"`
	Category    string      `json:"category"`
	Location    string      `json:"location"`
	StartDate   string      `json:"start_date"`
	EndDate     string      `json:"end_date"`
}

type campaignDTO struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Slug          string `json:"slug"`
	Description   string `json:"description"`
	GoalAmount    string `json:"goal_amount"`
	CurrentAmount string `json:"current_amount"`
	Currency      string `json:"currency"`
	Status        string `json:"status"`
	Category      string `json:"category,omitempty"`
	Location      string `json:"location,omitempty"`
	StartDate     string `json:"start_date,omitempty"`
	EndDate       string `json:"end_date,omitempty"`
	Verified      bool   `json:"verified"`
}

func campaignToDTO(c *domain.Campaign) campaignDTO {
	dto := campaignDTO{
		ID:            c.ID,
		Title:         c.Title,
		Slug:          c.Slug,
		Description:   c.Description,
		GoalAmount:    c.GoalAmount.String(),
		CurrentAmount: c.CurrentAmount.String(),
		Currency:      c.Currency,
		Status:        string(c.Status),
		Category:      c.Category,
		Location:      c.Location,
		Verified:      c.Verified,
	}
	if !c.StartDate.IsZero() {
		dto.StartDate = c.StartDate.Format(time.RFC3339)
	}
	if !c.EndDate.IsZero() {
		dto.EndDate = c.EndDate.Format(time.RFC3339)
	}
	return dto
}

// CampaignsCreate registers a new campaign in ACTIVE state. Admin only.
func (a *App) CampaignsCreate(w http.ResponseWriter, r *http.Request) {
	var req campaignCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "title required")
		return
	}
	goal, err := decimalField(req.GoalAmount)
	if err != nil || !goal.IsPositive() {
		a.error(w, http.StatusBadRequest, "bad_request", "goal_amount must be a positive number")
		return
	}

	slug := strings.TrimSpace(req.Slug)
	if slug == "" {
		slug = slugify(req.Title)
	}

	campaign := &domain.Campaign{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(req.Title),
		Slug:        slug,
		Description: req.Description,
		GoalAmount:  goal,
		Currency:    strings.ToUpper(strings.TrimSpace(req.Currency)),
		Status:      domain.CampaignActive,
		Category:    req.Category,
		Location:    req.Location,
		StartDate:   time.Now(),
		CreatedByID: a.currentUserID(r),
	}
	if req.StartDate != "" {
		if start, err := time.Parse(time.RFC3339, req.StartDate); err == nil {
			campaign.StartDate = start
		}
	}
	if req.EndDate != "" {
		end, err := time.Parse(time.RFC3339, req.EndDate)
		if err != nil || end.Before(campaign.StartDate) {
			a.error(w, http.StatusBadRequest, "bad_request", "end_date must be after start_date")
			return
		}
		campaign.EndDate = end
	}

	if err := a.Campaigns.Create(r.Context(), campaign); err != nil {
		if a.domainError(w, err) {
			return
		}
		a.Logger.Error().Err(err).Msg("campaign create failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to create campaign")
		return
	}
	a.json(w, http.StatusCreated, campaignToDTO(campaign))
}

// CampaignsList returns active campaigns.
func (a *App) CampaignsList(w http.ResponseWriter, r *http.Request) {
	limit := queryLimit(r, 20, 100)
	campaigns, err := a.Campaigns.ListActive(r.Context(), limit)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to load campaigns")
		return
	}
	items := make([]campaignDTO, 0, len(campaigns))
	for i := range campaigns {
		items = append(items, campaignToDTO(&campaigns[i]))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

// CampaignsGet returns one campaign by id, falling back to slug lookup so
// public share links work.
func (a *App) CampaignsGet(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "id")
	var campaign *domain.Campaign
	var err error
	if _, parseErr := uuid.Parse(key); parseErr == nil {
		campaign, err = a.Campaigns.GetByID(r.Context(), key)
	} else {
		campaign, err = a.Campaigns.GetBySlug(r.Context(), key)
	}
	if err != nil {
		if a.domainError(w, err) {
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "failed to load campaign")
		return
	}
	a.json(w, http.StatusOK, campaignToDTO(campaign))
}

// CampaignDonations lists the campaign's recent completed donations for the
// public supporters feed.
func (a *App) CampaignDonations(w http.ResponseWriter, r *http.Request) {
	campaign, err := a.Campaigns.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if a.domainError(w, err) {
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "failed to load campaign")
		return
	}

	limit := queryLimit(r, 20, 100)
	donations, err := a.Ledger.ListRecentByCampaign(r.Context(), campaign.ID, limit)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to load donations")
		return
	}
	items := make([]donationDTO, 0, len(donations))
	for i := range donations {
		items = append(items, donationToDTO(&donations[i]))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

func queryLimit(r *http.Request, fallback, max int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	if n > max {
		return max
	}
	return n
}

func slugify(title string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteByte('-')
			lastDash = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}
