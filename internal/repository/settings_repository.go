package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/hr-rewards-api/internal/models"
)

// SettingsRepository stores tenant-wide reward workflow flags.
type SettingsRepository struct {
	db *sqlx.DB
}

// NewSettingsRepository constructs a new repository.
func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns the tenant's settings. Tenants without a row default to
// requiring manager approval.
func (r *SettingsRepository) Get(ctx context.Context, tenantID string) (*models.RewardSettings, error) {
	query := "SELECT tenant_id, require_manager_approval, updated_at FROM reward_settings WHERE tenant_id = $1"
	var settings models.RewardSettings
	if err := r.db.GetContext(ctx, &settings, query, tenantID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.RewardSettings{TenantID: tenantID, RequireManagerApproval: true}, nil
		}
		return nil, fmt.Errorf("get reward settings: %w", err)
	}
	return &settings, nil
}

// Upsert writes the tenant's settings row.
func (r *SettingsRepository) Upsert(ctx context.Context, settings *models.RewardSettings) error {
	settings.UpdatedAt = time.Now().UTC()
	query := `INSERT INTO reward_settings (tenant_id, require_manager_approval, updated_at)
VALUES (:tenant_id, :require_manager_approval, :updated_at)
ON CONFLICT (tenant_id) DO UPDATE SET require_manager_approval = EXCLUDED.require_manager_approval, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, settings); err != nil {
		return fmt.Errorf("upsert reward settings: %w", err)
	}
	return nil
}
