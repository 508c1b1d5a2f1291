package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/hr-rewards-api/internal/models"
	appErrors "github.com/noah-isme/hr-rewards-api/pkg/errors"
)

type settingsRepo interface {
	Get(ctx context.Context, tenantID string) (*models.RewardSettings, error)
	Upsert(ctx context.Context, settings *models.RewardSettings) error
}

// SettingsService manages tenant-level reward workflow settings.
type SettingsService struct {
	settings settingsRepo
	logger   *zap.Logger
}

// NewSettingsService constructs the service.
func NewSettingsService(settings settingsRepo, logger *zap.Logger) *SettingsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsService{settings: settings, logger: logger}
}

// Get returns the tenant settings, defaulting to manager approval required.
func (s *SettingsService) Get(ctx context.Context, tenantID string) (*models.RewardSettings, error) {
	settings, err := s.settings.Get(ctx, tenantID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load reward settings")
	}
	return settings, nil
}

// Update stores the tenant settings.
func (s *SettingsService) Update(ctx context.Context, tenantID string, requireManagerApproval bool) (*models.RewardSettings, error) {
	settings := &models.RewardSettings{
		TenantID:               tenantID,
		RequireManagerApproval: requireManagerApproval,
	}
	if err := s.settings.Upsert(ctx, settings); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update reward settings")
	}
	s.logger.Info("reward settings updated",
		zap.String("tenant_id", tenantID),
		zap.Bool("require_manager_approval", requireManagerApproval))
	return settings, nil
}
