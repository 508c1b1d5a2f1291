package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/hr-rewards-api/internal/models"
	appErrors "github.com/noah-isme/hr-rewards-api/pkg/errors"
)

type rewardTypeRepo interface {
	List(ctx context.Context, filter models.RewardTypeFilter) ([]models.RewardType, int, error)
	FindByID(ctx context.Context, tenantID, id string) (*models.RewardType, error)
	Create(ctx context.Context, rewardType *models.RewardType) error
	Update(ctx context.Context, rewardType *models.RewardType) error
	SetActive(ctx context.Context, tenantID, id string, active bool) error
	Delete(ctx context.Context, tenantID, id string) error
}

type rewardRecordCounter interface {
	CountByRewardType(ctx context.Context, tenantID, rewardTypeID string) (int, error)
}

// CreateRewardTypeInput describes a new catalog entry.
type CreateRewardTypeInput struct {
	Name              string                       `json:"name" validate:"required,min=2,max=150"`
	Description       *string                      `json:"description,omitempty" validate:"omitempty,max=500"`
	Category          models.RewardCategory        `json:"category" validate:"required,reward_category"`
	CalculationMethod models.CalculationMethod     `json:"calculation_method" validate:"required,calculation_method"`
	Value             decimal.Decimal              `json:"value" validate:"required"`
	MaxCap            *decimal.Decimal             `json:"max_cap,omitempty"`
	Conditions        models.EligibilityConditions `json:"conditions"`
	TriggerType       models.TriggerType           `json:"trigger_type" validate:"required,trigger_type"`
	Frequency         models.RewardFrequency       `json:"frequency" validate:"required,reward_frequency"`
	Priority          int                          `json:"priority" validate:"min=0"`
	EffectiveFrom     *time.Time                   `json:"effective_from,omitempty"`
	EffectiveTo       *time.Time                   `json:"effective_to,omitempty"`
}

// UpdateRewardTypeInput edits an existing catalog entry. Nil fields are left
// unchanged.
type UpdateRewardTypeInput struct {
	Name              *string                       `json:"name,omitempty" validate:"omitempty,min=2,max=150"`
	Description       *string                       `json:"description,omitempty" validate:"omitempty,max=500"`
	Category          *models.RewardCategory        `json:"category,omitempty" validate:"omitempty,reward_category"`
	CalculationMethod *models.CalculationMethod     `json:"calculation_method,omitempty" validate:"omitempty,calculation_method"`
	Value             *decimal.Decimal              `json:"value,omitempty"`
	MaxCap            *decimal.Decimal              `json:"max_cap,omitempty"`
	Conditions        *models.EligibilityConditions `json:"conditions,omitempty"`
	TriggerType       *models.TriggerType           `json:"trigger_type,omitempty" validate:"omitempty,trigger_type"`
	Frequency         *models.RewardFrequency       `json:"frequency,omitempty" validate:"omitempty,reward_frequency"`
	Priority          *int                          `json:"priority,omitempty" validate:"omitempty,min=0"`
	EffectiveFrom     *time.Time                    `json:"effective_from,omitempty"`
	EffectiveTo       *time.Time                    `json:"effective_to,omitempty"`
}

// RewardTypeService manages the tenant reward catalog.
type RewardTypeService struct {
	rewardTypes rewardTypeRepo
	records     rewardRecordCounter
	validate    *validator.Validate
	logger      *zap.Logger
}

// NewRewardTypeService constructs the service.
func NewRewardTypeService(rewardTypes rewardTypeRepo, records rewardRecordCounter, validate *validator.Validate, logger *zap.Logger) *RewardTypeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	registerRewardValidators(validate)
	return &RewardTypeService{rewardTypes: rewardTypes, records: records, validate: validate, logger: logger}
}

// List returns catalog entries matching the filter.
func (s *RewardTypeService) List(ctx context.Context, filter models.RewardTypeFilter) ([]models.RewardType, *models.Pagination, error) {
	rewardTypes, total, err := s.rewardTypes.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reward types")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return rewardTypes, pagination, nil
}

// Get returns one catalog entry.
func (s *RewardTypeService) Get(ctx context.Context, tenantID, id string) (*models.RewardType, error) {
	rewardType, err := s.rewardTypes.FindByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "reward type not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load reward type")
	}
	return rewardType, nil
}

// Create adds a catalog entry after validating values and conditions.
func (s *RewardTypeService) Create(ctx context.Context, tenantID string, input CreateRewardTypeInput) (*models.RewardType, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if err := validateRewardTypeValues(input.CalculationMethod, input.Value, input.MaxCap); err != nil {
		return nil, err
	}
	if err := input.Conditions.Validate(); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if input.EffectiveFrom != nil && input.EffectiveTo != nil && input.EffectiveTo.Before(*input.EffectiveFrom) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "effective_to must not precede effective_from")
	}

	rewardType := &models.RewardType{
		ID:                uuid.NewString(),
		TenantID:          tenantID,
		Name:              input.Name,
		Description:       input.Description,
		Category:          input.Category,
		CalculationMethod: input.CalculationMethod,
		Value:             input.Value,
		MaxCap:            input.MaxCap,
		Conditions:        input.Conditions,
		TriggerType:       input.TriggerType,
		Frequency:         input.Frequency,
		Active:            true,
		Priority:          input.Priority,
		EffectiveFrom:     input.EffectiveFrom,
		EffectiveTo:       input.EffectiveTo,
	}
	if err := s.rewardTypes.Create(ctx, rewardType); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create reward type")
	}
	s.logger.Info("reward type created", zap.String("reward_type_id", rewardType.ID), zap.String("name", rewardType.Name))
	return rewardType, nil
}

// Update edits a catalog entry. Historical records keep their snapshots, so
// edits only affect future applications.
func (s *RewardTypeService) Update(ctx context.Context, tenantID, id string, input UpdateRewardTypeInput) (*models.RewardType, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	rewardType, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		rewardType.Name = *input.Name
	}
	if input.Description != nil {
		rewardType.Description = input.Description
	}
	if input.Category != nil {
		rewardType.Category = *input.Category
	}
	if input.CalculationMethod != nil {
		rewardType.CalculationMethod = *input.CalculationMethod
	}
	if input.Value != nil {
		rewardType.Value = *input.Value
	}
	if input.MaxCap != nil {
		rewardType.MaxCap = input.MaxCap
	}
	if input.Conditions != nil {
		if err := input.Conditions.Validate(); err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
		}
		rewardType.Conditions = *input.Conditions
	}
	if input.TriggerType != nil {
		rewardType.TriggerType = *input.TriggerType
	}
	if input.Frequency != nil {
		rewardType.Frequency = *input.Frequency
	}
	if input.Priority != nil {
		rewardType.Priority = *input.Priority
	}
	if input.EffectiveFrom != nil {
		rewardType.EffectiveFrom = input.EffectiveFrom
	}
	if input.EffectiveTo != nil {
		rewardType.EffectiveTo = input.EffectiveTo
	}

	if err := validateRewardTypeValues(rewardType.CalculationMethod, rewardType.Value, rewardType.MaxCap); err != nil {
		return nil, err
	}
	if rewardType.EffectiveFrom != nil && rewardType.EffectiveTo != nil && rewardType.EffectiveTo.Before(*rewardType.EffectiveFrom) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "effective_to must not precede effective_from")
	}

	if err := s.rewardTypes.Update(ctx, rewardType); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "reward type not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update reward type")
	}
	return rewardType, nil
}

// SetActive toggles a catalog entry without touching its history.
func (s *RewardTypeService) SetActive(ctx context.Context, tenantID, id string, active bool) error {
	if err := s.rewardTypes.SetActive(ctx, tenantID, id, active); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "reward type not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to toggle reward type")
	}
	return nil
}

// Delete removes a catalog entry that has never been applied. Entries with
// records must be deactivated instead, which keeps historical snapshots
// resolvable.
func (s *RewardTypeService) Delete(ctx context.Context, tenantID, id string) error {
	if _, err := s.Get(ctx, tenantID, id); err != nil {
		return err
	}
	count, err := s.records.CountByRewardType(ctx, tenantID, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count reward records")
	}
	if count > 0 {
		return appErrors.WithDetails(appErrors.ErrConflict,
			fmt.Sprintf("reward type has %d associated records; deactivate it instead", count),
			map[string]interface{}{"record_count": count})
	}
	if err := s.rewardTypes.Delete(ctx, tenantID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "reward type not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete reward type")
	}
	return nil
}

// SeedDefaults populates an empty catalog with a standard starter set. It is
// a no-op when the tenant already has entries.
func (s *RewardTypeService) SeedDefaults(ctx context.Context, tenantID string) (int, error) {
	_, total, err := s.rewardTypes.List(ctx, models.RewardTypeFilter{TenantID: tenantID, Page: 1, PageSize: 1})
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reward types")
	}
	if total > 0 {
		return 0, nil
	}

	seeded := 0
	for _, def := range defaultRewardTypes(tenantID) {
		rewardType := def
		if err := s.rewardTypes.Create(ctx, &rewardType); err != nil {
			return seeded, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to seed reward types")
		}
		seeded++
	}
	s.logger.Info("seeded default reward types", zap.String("tenant_id", tenantID), zap.Int("count", seeded))
	return seeded, nil
}

func validateRewardTypeValues(method models.CalculationMethod, value decimal.Decimal, maxCap *decimal.Decimal) error {
	if value.IsNegative() {
		return appErrors.Clone(appErrors.ErrValidation, "value must not be negative")
	}
	switch method {
	case models.MethodPercentageSalary, models.MethodPercentageSales, models.MethodPercentageProfit:
		if value.GreaterThan(oneHundred) {
			return appErrors.Clone(appErrors.ErrValidation, "percentage value must not exceed 100")
		}
	}
	if maxCap != nil && maxCap.IsNegative() {
		return appErrors.Clone(appErrors.ErrValidation, "max_cap must not be negative")
	}
	return nil
}

func defaultRewardTypes(tenantID string) []models.RewardType {
	intPtr := func(v int) *int { return &v }
	strPtr := func(v string) *string { return &v }

	punctualityBonus := decimal.NewFromInt(150)
	perfectAttendance := decimal.NewFromInt(200)
	employeeOfMonth := decimal.NewFromInt(500)
	performanceShare := decimal.NewFromInt(5)
	performanceCap := decimal.NewFromInt(1000)
	minScore := 4.0

	return []models.RewardType{
		{
			ID:                uuid.NewString(),
			TenantID:          tenantID,
			Name:              "Punctuality Bonus",
			Description:       strPtr("Monthly bonus for employees with no late arrivals"),
			Category:          models.CategoryPunctuality,
			CalculationMethod: models.MethodFixedAmount,
			Value:             punctualityBonus,
			Conditions: models.EligibilityConditions{
				Attendance: &models.AttendanceConditions{NoLateness: true},
			},
			TriggerType: models.TriggerManual,
			Frequency:   models.FrequencyMonthly,
			Active:      true,
		},
		{
			ID:                uuid.NewString(),
			TenantID:          tenantID,
			Name:              "Perfect Attendance Streak",
			Description:       strPtr("Automatic bonus after 20 consecutive days of presence"),
			Category:          models.CategoryAttendance,
			CalculationMethod: models.MethodFixedAmount,
			Value:             perfectAttendance,
			Conditions: models.EligibilityConditions{
				Attendance: &models.AttendanceConditions{MinStreak: intPtr(20)},
			},
			TriggerType: models.TriggerAutomatic,
			Frequency:   models.FrequencyMonthly,
			Active:      true,
		},
		{
			ID:                uuid.NewString(),
			TenantID:          tenantID,
			Name:              "Employee of the Month",
			Description:       strPtr("Recognition award selected by management"),
			Category:          models.CategoryEmployeeOfMonth,
			CalculationMethod: models.MethodFixedAmount,
			Value:             employeeOfMonth,
			TriggerType:       models.TriggerManual,
			Frequency:         models.FrequencyMonthly,
			Active:            true,
		},
		{
			ID:                uuid.NewString(),
			TenantID:          tenantID,
			Name:              "Performance Bonus",
			Description:       strPtr("Salary share for strong review scores"),
			Category:          models.CategoryPerformance,
			CalculationMethod: models.MethodPercentageSalary,
			Value:             performanceShare,
			MaxCap:            &performanceCap,
			Conditions: models.EligibilityConditions{
				Performance: &models.PerformanceConditions{MinPerformanceScore: &minScore},
			},
			TriggerType: models.TriggerManual,
			Frequency:   models.FrequencyQuarterly,
			Active:      true,
		},
	}
}
