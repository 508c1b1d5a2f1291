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

type rewardRecordRepo interface {
	List(ctx context.Context, filter models.RewardRecordFilter) ([]models.RewardRecord, int, error)
	FindByID(ctx context.Context, tenantID, id string) (*models.RewardRecord, error)
	Create(ctx context.Context, record *models.RewardRecord) error
	Update(ctx context.Context, record *models.RewardRecord) error
	Delete(ctx context.Context, tenantID, id string) error
}

type workflowRewardTypeReader interface {
	FindByID(ctx context.Context, tenantID, id string) (*models.RewardType, error)
}

type rewardSettingsReader interface {
	Get(ctx context.Context, tenantID string) (*models.RewardSettings, error)
}

type eligibilityEvaluator interface {
	Evaluate(ctx context.Context, tenantID, employeeID, rewardTypeID string, periodStart, periodEnd time.Time) (*models.EligibilityVerdict, error)
}

type rewardCalculator interface {
	Calculate(ctx context.Context, tenantID, employeeID string, rt *models.RewardType) (decimal.Decimal, models.JSONMap, error)
}

// ApplyRewardInput describes one reward application.
type ApplyRewardInput struct {
	EmployeeID           string    `json:"employee_id" validate:"required,uuid"`
	RewardTypeID         string    `json:"reward_type_id" validate:"required,uuid"`
	PeriodStart          time.Time `json:"period_start" validate:"required"`
	PeriodEnd            time.Time `json:"period_end" validate:"required"`
	Reason               *string   `json:"reason,omitempty"`
	SkipEligibilityCheck bool      `json:"skip_eligibility_check"`
}

// BulkApplyRewardInput applies one reward type to many employees.
type BulkApplyRewardInput struct {
	EmployeeIDs          []string  `json:"employee_ids" validate:"required,min=1,dive,uuid"`
	RewardTypeID         string    `json:"reward_type_id" validate:"required,uuid"`
	PeriodStart          time.Time `json:"period_start" validate:"required"`
	PeriodEnd            time.Time `json:"period_end" validate:"required"`
	Reason               *string   `json:"reason,omitempty"`
	SkipEligibilityCheck bool      `json:"skip_eligibility_check"`
}

// CreateManualRewardInput creates an ad-hoc record with no reward type template.
type CreateManualRewardInput struct {
	EmployeeID  string                `json:"employee_id" validate:"required,uuid"`
	RewardName  string                `json:"reward_name" validate:"required,min=2,max=150"`
	Category    models.RewardCategory `json:"category" validate:"required,reward_category"`
	Value       decimal.Decimal       `json:"value" validate:"required"`
	PeriodStart time.Time             `json:"period_start" validate:"required"`
	PeriodEnd   time.Time             `json:"period_end" validate:"required"`
	Reason      *string               `json:"reason,omitempty"`
}

// UpdateRewardInput edits a still-mutable record.
type UpdateRewardInput struct {
	CalculatedValue *decimal.Decimal `json:"calculated_value,omitempty"`
	PeriodStart     *time.Time       `json:"period_start,omitempty"`
	PeriodEnd       *time.Time       `json:"period_end,omitempty"`
	Reason          *string          `json:"reason,omitempty"`
}

// RewardService orchestrates the full reward lifecycle: eligibility gate,
// value calculation, record creation, and the approval state machine.
type RewardService struct {
	records     rewardRecordRepo
	rewardTypes workflowRewardTypeReader
	settings    rewardSettingsReader
	eligibility eligibilityEvaluator
	calculator  rewardCalculator
	metrics     *MetricsService
	validate    *validator.Validate
	logger      *zap.Logger
}

// NewRewardService constructs the service.
func NewRewardService(
	records rewardRecordRepo,
	rewardTypes workflowRewardTypeReader,
	settings rewardSettingsReader,
	eligibility eligibilityEvaluator,
	calculator rewardCalculator,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
) *RewardService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	registerRewardValidators(validate)
	return &RewardService{
		records:     records,
		rewardTypes: rewardTypes,
		settings:    settings,
		eligibility: eligibility,
		calculator:  calculator,
		metrics:     metrics,
		validate:    validate,
		logger:      logger,
	}
}

// Apply runs the application workflow for one employee. With
// SkipEligibilityCheck set, the eligibility gate is bypassed and the override
// is recorded in the evidence; no evaluation audit row is written in that case.
func (s *RewardService) Apply(ctx context.Context, tenantID, actorID string, input ApplyRewardInput) (*models.RewardRecord, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if input.PeriodEnd.Before(input.PeriodStart) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "period end must not precede period start")
	}

	rewardType, err := s.rewardTypes.FindByID(ctx, tenantID, input.RewardTypeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "reward type not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load reward type")
	}
	if !rewardType.Active {
		return nil, appErrors.Clone(appErrors.ErrBusinessRule, "reward type is inactive")
	}

	var evidence models.JSONMap
	if input.SkipEligibilityCheck {
		evidence = models.JSONMap{"skipped": true, "reason": "manual override"}
	} else {
		verdict, err := s.eligibility.Evaluate(ctx, tenantID, input.EmployeeID, input.RewardTypeID, input.PeriodStart, input.PeriodEnd)
		if err != nil {
			return nil, err
		}
		if !verdict.Eligible {
			return nil, appErrors.WithDetails(appErrors.ErrBusinessRule,
				fmt.Sprintf("employee is not eligible: %s", verdict.Reason),
				map[string]interface{}{"reason": verdict.Reason, "evidence": verdict.Evidence})
		}
		evidence = models.JSONMap{"eligible": true, "evidence": verdict.Evidence}
		if verdict.Reason != "" {
			evidence["reason"] = verdict.Reason
		}
	}

	value, breakdown, err := s.calculator.Calculate(ctx, tenantID, input.EmployeeID, rewardType)
	if err != nil {
		return nil, err
	}

	record := &models.RewardRecord{
		ID:                  uuid.NewString(),
		TenantID:            tenantID,
		EmployeeID:          input.EmployeeID,
		RewardTypeID:        &rewardType.ID,
		RewardName:          rewardType.Name,
		RewardCategory:      rewardType.Category,
		CalculatedValue:     value,
		Breakdown:           breakdown,
		PeriodStart:         input.PeriodStart,
		PeriodEnd:           input.PeriodEnd,
		AppliedMonth:        int(input.PeriodStart.Month()),
		AppliedYear:         input.PeriodStart.Year(),
		Reason:              input.Reason,
		EligibilityEvidence: evidence,
		Status:              models.StatusPending,
		TriggeredBy:         actorID,
	}

	if err := s.finalizeStatus(ctx, record, rewardType.TriggerType, actorID); err != nil {
		return nil, err
	}
	if err := s.records.Create(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create reward record")
	}

	s.metrics.RecordRewardApplied(string(record.Status), string(rewardType.TriggerType))
	s.logger.Info("reward applied",
		zap.String("record_id", record.ID),
		zap.String("employee_id", record.EmployeeID),
		zap.String("reward_type_id", rewardType.ID),
		zap.String("status", string(record.Status)))
	return record, nil
}

// ApplyBulk applies one reward type to many employees. Each employee is
// processed independently; failures are reported per employee and never stop
// the batch.
func (s *RewardService) ApplyBulk(ctx context.Context, tenantID, actorID string, input BulkApplyRewardInput) (*models.BulkApplyOutcome, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	outcome := &models.BulkApplyOutcome{
		Applied: make([]models.RewardRecord, 0, len(input.EmployeeIDs)),
		Failed:  make([]models.BulkApplyFailure, 0),
	}
	for _, employeeID := range input.EmployeeIDs {
		record, err := s.Apply(ctx, tenantID, actorID, ApplyRewardInput{
			EmployeeID:           employeeID,
			RewardTypeID:         input.RewardTypeID,
			PeriodStart:          input.PeriodStart,
			PeriodEnd:            input.PeriodEnd,
			Reason:               input.Reason,
			SkipEligibilityCheck: input.SkipEligibilityCheck,
		})
		if err != nil {
			outcome.Failed = append(outcome.Failed, models.BulkApplyFailure{
				EmployeeID: employeeID,
				Reason:     err.Error(),
			})
			continue
		}
		outcome.Applied = append(outcome.Applied, *record)
	}
	return outcome, nil
}

// CreateManual creates an ad-hoc reward record without a catalog template.
func (s *RewardService) CreateManual(ctx context.Context, tenantID, actorID string, input CreateManualRewardInput) (*models.RewardRecord, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if input.PeriodEnd.Before(input.PeriodStart) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "period end must not precede period start")
	}

	record := &models.RewardRecord{
		ID:                  uuid.NewString(),
		TenantID:            tenantID,
		EmployeeID:          input.EmployeeID,
		RewardName:          input.RewardName,
		RewardCategory:      input.Category,
		CalculatedValue:     input.Value.Round(2),
		Breakdown:           models.JSONMap{"method": "MANUAL", "amount": input.Value.Round(2).String()},
		PeriodStart:         input.PeriodStart,
		PeriodEnd:           input.PeriodEnd,
		AppliedMonth:        int(input.PeriodStart.Month()),
		AppliedYear:         input.PeriodStart.Year(),
		Reason:              input.Reason,
		EligibilityEvidence: models.JSONMap{"skipped": true, "reason": "manual record"},
		Status:              models.StatusPending,
		TriggeredBy:         actorID,
	}
	if err := s.finalizeStatus(ctx, record, models.TriggerManual, actorID); err != nil {
		return nil, err
	}
	if err := s.records.Create(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create reward record")
	}
	s.metrics.RecordRewardApplied(string(record.Status), string(models.TriggerManual))
	return record, nil
}

// Approve moves a pending record to APPROVED and locks it.
func (s *RewardService) Approve(ctx context.Context, tenantID, recordID, approverID string) (*models.RewardRecord, error) {
	record, err := s.findRecord(ctx, tenantID, recordID)
	if err != nil {
		return nil, err
	}
	if record.Status != models.StatusPending {
		return nil, appErrors.WithDetails(appErrors.ErrBusinessRule,
			fmt.Sprintf("cannot approve a record in status %s", record.Status),
			map[string]interface{}{"status": string(record.Status)})
	}

	now := time.Now()
	record.Status = models.StatusApproved
	record.ApprovedBy = &approverID
	record.ApprovedAt = &now
	record.IsLocked = true
	if err := s.records.Update(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update reward record")
	}
	s.logger.Info("reward approved", zap.String("record_id", record.ID), zap.String("approved_by", approverID))
	return record, nil
}

// Reject moves a pending record to REJECTED with a stored reason.
func (s *RewardService) Reject(ctx context.Context, tenantID, recordID, rejecterID, reason string) (*models.RewardRecord, error) {
	record, err := s.findRecord(ctx, tenantID, recordID)
	if err != nil {
		return nil, err
	}
	if record.Status != models.StatusPending {
		return nil, appErrors.WithDetails(appErrors.ErrBusinessRule,
			fmt.Sprintf("cannot reject a record in status %s", record.Status),
			map[string]interface{}{"status": string(record.Status)})
	}

	now := time.Now()
	record.Status = models.StatusRejected
	record.RejectedBy = &rejecterID
	record.RejectedAt = &now
	record.IsLocked = true
	if reason != "" {
		record.Reason = &reason
	}
	if err := s.records.Update(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update reward record")
	}
	s.logger.Info("reward rejected", zap.String("record_id", record.ID), zap.String("rejected_by", rejecterID))
	return record, nil
}

// Void cancels a pending or approved record. Records already exported to
// payroll can never be voided.
func (s *RewardService) Void(ctx context.Context, tenantID, recordID, voiderID, reason string) (*models.RewardRecord, error) {
	record, err := s.findRecord(ctx, tenantID, recordID)
	if err != nil {
		return nil, err
	}
	if record.IsIncludedInPayroll {
		return nil, appErrors.Clone(appErrors.ErrPayrollLocked, "record is included in a payroll run and cannot be voided")
	}
	if !record.Status.CanTransitionTo(models.StatusVoided) {
		return nil, appErrors.WithDetails(appErrors.ErrBusinessRule,
			fmt.Sprintf("cannot void a record in status %s", record.Status),
			map[string]interface{}{"status": string(record.Status)})
	}

	now := time.Now()
	record.Status = models.StatusVoided
	record.VoidedBy = &voiderID
	record.VoidedAt = &now
	record.IsLocked = true
	if reason != "" {
		record.Reason = &reason
	}
	if err := s.records.Update(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update reward record")
	}
	s.logger.Info("reward voided", zap.String("record_id", record.ID), zap.String("voided_by", voiderID))
	return record, nil
}

// Update edits the still-mutable fields of an unlocked pending record.
func (s *RewardService) Update(ctx context.Context, tenantID, recordID string, input UpdateRewardInput) (*models.RewardRecord, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	record, err := s.findRecord(ctx, tenantID, recordID)
	if err != nil {
		return nil, err
	}
	if record.IsLocked || record.Status != models.StatusPending {
		return nil, appErrors.Clone(appErrors.ErrLocked, "record is locked and can no longer be edited")
	}

	if input.CalculatedValue != nil {
		record.CalculatedValue = input.CalculatedValue.Round(2)
	}
	if input.PeriodStart != nil {
		record.PeriodStart = *input.PeriodStart
	}
	if input.PeriodEnd != nil {
		record.PeriodEnd = *input.PeriodEnd
	}
	if record.PeriodEnd.Before(record.PeriodStart) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "period end must not precede period start")
	}
	record.AppliedMonth = int(record.PeriodStart.Month())
	record.AppliedYear = record.PeriodStart.Year()
	if input.Reason != nil {
		record.Reason = input.Reason
	}

	if err := s.records.Update(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update reward record")
	}
	return record, nil
}

// Delete removes a pending record. Anything past PENDING should be voided
// instead so the audit trail survives.
func (s *RewardService) Delete(ctx context.Context, tenantID, recordID string) error {
	record, err := s.findRecord(ctx, tenantID, recordID)
	if err != nil {
		return err
	}
	if record.IsIncludedInPayroll {
		return appErrors.Clone(appErrors.ErrPayrollLocked, "record is included in a payroll run and cannot be deleted")
	}
	if record.IsLocked || record.Status != models.StatusPending {
		return appErrors.Clone(appErrors.ErrBusinessRule, "record has left PENDING; void it instead of deleting")
	}
	if err := s.records.Delete(ctx, tenantID, recordID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "reward record not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete reward record")
	}
	return nil
}

// Get returns one record.
func (s *RewardService) Get(ctx context.Context, tenantID, recordID string) (*models.RewardRecord, error) {
	return s.findRecord(ctx, tenantID, recordID)
}

// List returns records matching the filter together with pagination info.
func (s *RewardService) List(ctx context.Context, filter models.RewardRecordFilter) ([]models.RewardRecord, *models.Pagination, error) {
	records, total, err := s.records.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reward records")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return records, pagination, nil
}

// finalizeStatus decides whether a new record starts PENDING or auto-approves.
// Automatic triggers always auto-approve; manual ones do when the tenant has
// switched manager approval off.
func (s *RewardService) finalizeStatus(ctx context.Context, record *models.RewardRecord, trigger models.TriggerType, actorID string) error {
	settings, err := s.settings.Get(ctx, record.TenantID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load reward settings")
	}
	if trigger == models.TriggerAutomatic || !settings.RequireManagerApproval {
		now := time.Now()
		record.Status = models.StatusApproved
		record.ApprovedBy = &actorID
		record.ApprovedAt = &now
		record.IsLocked = true
	}
	return nil
}

func (s *RewardService) findRecord(ctx context.Context, tenantID, recordID string) (*models.RewardRecord, error) {
	record, err := s.records.FindByID(ctx, tenantID, recordID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "reward record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load reward record")
	}
	return record, nil
}
