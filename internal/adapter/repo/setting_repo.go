package repo

import (
	"context"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/sqlinline"
)

// SettingRepositoryPG implements SettingRepository using PostgreSQL.
type SettingRepositoryPG struct {
	runner infra.SQLExecutor
}

// NewSettingRepository creates a new setting repo.
func NewSettingRepository(runner infra.SQLExecutor) *SettingRepositoryPG {
	return &SettingRepositoryPG{runner: runner}
}

// List returns all settings grouped by category.
func (r *SettingRepositoryPG) List(ctx context.Context) ([]domain.Setting, error) {
	rows, err := r.runner.Query(ctx, sqlinline.QListSettings)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Setting
	for rows.Next() {
		var setting domain.Setting
		var kind string
		if err := rows.Scan(&setting.Key, &setting.Value, &kind, &setting.Category, &setting.UpdatedAt); err != nil {
			return nil, err
		}
		setting.Type = domain.SettingType(kind)
		items = append(items, setting)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Upsert inserts or overwrites a setting by key.
func (r *SettingRepositoryPG) Upsert(ctx context.Context, setting *domain.Setting) error {
	_, err := r.runner.Exec(ctx, sqlinline.QUpsertSetting,
		setting.Key, setting.Value, string(setting.Type), setting.Category)
	return err
}

var _ domain.SettingRepository = (*SettingRepositoryPG)(nil)
