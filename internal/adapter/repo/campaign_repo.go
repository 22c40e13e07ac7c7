package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/sqlinline"
)

// CampaignRepositoryPG implements CampaignRepository using PostgreSQL.
type CampaignRepositoryPG struct {
	runner infra.SQLExecutor
}

// NewCampaignRepository creates a new campaign repo.
func NewCampaignRepository(runner infra.SQLExecutor) *CampaignRepositoryPG {
	return &CampaignRepositoryPG{runner: runner}
}

// Create inserts a new campaign record.
func (r *CampaignRepositoryPG) Create(ctx context.Context, campaign *domain.Campaign) error {
	_, err := r.runner.Exec(ctx, sqlinline.QInsertCampaign,
		campaign.ID, campaign.Title, campaign.Slug, campaign.Description,
		campaign.GoalAmount, campaign.Currency, string(campaign.Status),
		campaign.Category, campaign.Location, campaign.StartDate, campaign.EndDate,
		campaign.Verified, campaign.CreatedByID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrDuplicateSlug
		}
		return err
	}
	return nil
}

// GetByID returns a campaign by id.
func (r *CampaignRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Campaign, error) {
	return scanCampaign(r.runner.QueryRow(ctx, sqlinline.QGetCampaignByID, id))
}

// GetBySlug returns a campaign by its url slug.
func (r *CampaignRepositoryPG) GetBySlug(ctx context.Context, slug string) (*domain.Campaign, error) {
	return scanCampaign(r.runner.QueryRow(ctx, sqlinline.QGetCampaignBySlug, slug))
}

// ListActive returns active campaigns, newest first.
func (r *CampaignRepositoryPG) ListActive(ctx context.Context, limit int) ([]domain.Campaign, error) {
	rows, err := r.runner.Query(ctx, sqlinline.QListActiveCampaigns, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Campaign
	for rows.Next() {
		campaign, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *campaign)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func scanCampaign(row pgx.Row) (*domain.Campaign, error) {
	var campaign domain.Campaign
	var status string
	err := row.Scan(&campaign.ID, &campaign.Title, &campaign.Slug, &campaign.Description,
		&campaign.GoalAmount, &campaign.CurrentAmount, &campaign.Currency, &status,
		&campaign.Category, &campaign.Location, &campaign.StartDate, &campaign.EndDate,
		&campaign.Verified, &campaign.VerifiedAt, &campaign.CreatedByID,
		&campaign.CreatedAt, &campaign.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	campaign.Status = domain.CampaignStatus(status)
	return &campaign, nil
}

var _ domain.CampaignRepository = (*CampaignRepositoryPG)(nil)
