package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/hr-rewards-api/internal/models"
	appErrors "github.com/noah-isme/hr-rewards-api/pkg/errors"
)

type recordRepoStub struct {
	records   map[string]*models.RewardRecord
	created   []*models.RewardRecord
	updated   []*models.RewardRecord
	deleted   []string
	createErr error
}

func (s *recordRepoStub) List(ctx context.Context, filter models.RewardRecordFilter) ([]models.RewardRecord, int, error) {
	out := make([]models.RewardRecord, 0, len(s.records))
	for _, record := range s.records {
		out = append(out, *record)
	}
	return out, len(out), nil
}

func (s *recordRepoStub) FindByID(ctx context.Context, tenantID, id string) (*models.RewardRecord, error) {
	if record, ok := s.records[id]; ok {
		copied := *record
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (s *recordRepoStub) Create(ctx context.Context, record *models.RewardRecord) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.created = append(s.created, record)
	if s.records == nil {
		s.records = map[string]*models.RewardRecord{}
	}
	s.records[record.ID] = record
	return nil
}

func (s *recordRepoStub) Update(ctx context.Context, record *models.RewardRecord) error {
	s.updated = append(s.updated, record)
	s.records[record.ID] = record
	return nil
}

func (s *recordRepoStub) Delete(ctx context.Context, tenantID, id string) error {
	if _, ok := s.records[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.records, id)
	s.deleted = append(s.deleted, id)
	return nil
}

type settingsReaderStub struct {
	requireApproval bool
	err             error
}

func (s settingsReaderStub) Get(ctx context.Context, tenantID string) (*models.RewardSettings, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.RewardSettings{TenantID: tenantID, RequireManagerApproval: s.requireApproval}, nil
}

type evaluatorStub struct {
	verdict *models.EligibilityVerdict
	err     error
	calls   int
}

func (s *evaluatorStub) Evaluate(ctx context.Context, tenantID, employeeID, rewardTypeID string, periodStart, periodEnd time.Time) (*models.EligibilityVerdict, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if s.verdict != nil {
		return s.verdict, nil
	}
	return &models.EligibilityVerdict{Eligible: true, Evidence: models.JSONMap{}}, nil
}

type calculatorStub struct {
	value decimal.Decimal
	err   error
}

func (s calculatorStub) Calculate(ctx context.Context, tenantID, employeeID string, rt *models.RewardType) (decimal.Decimal, models.JSONMap, error) {
	if s.err != nil {
		return decimal.Zero, nil, s.err
	}
	return s.value, models.JSONMap{"method": string(rt.CalculationMethod)}, nil
}

func fixedRewardType(id string, trigger models.TriggerType) *models.RewardType {
	return &models.RewardType{
		ID:                id,
		TenantID:          "t1",
		Name:              "Spot Bonus",
		Category:          models.CategoryOther,
		CalculationMethod: models.MethodFixedAmount,
		Value:             decimal.NewFromInt(500),
		TriggerType:       trigger,
		Frequency:         models.FrequencyMonthly,
		Active:            true,
	}
}

func newRewardFixture(rt *models.RewardType, requireApproval bool) (*RewardService, *recordRepoStub, *evaluatorStub) {
	records := &recordRepoStub{records: map[string]*models.RewardRecord{}}
	evaluator := &evaluatorStub{}
	svc := NewRewardService(
		records,
		rewardTypeReaderStub{rewardTypes: map[string]*models.RewardType{rt.ID: rt}},
		settingsReaderStub{requireApproval: requireApproval},
		evaluator,
		calculatorStub{value: rt.Value},
		nil,
		nil,
		nil,
	)
	return svc, records, evaluator
}

func applyInput(rewardTypeID string) ApplyRewardInput {
	return ApplyRewardInput{
		EmployeeID:   uuid.NewString(),
		RewardTypeID: rewardTypeID,
		PeriodStart:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:    time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
	}
}

func TestApplyAutomaticTriggerAutoApprovesAndLocks(t *testing.T) {
	rtID := uuid.NewString()
	rt := fixedRewardType(rtID, models.TriggerAutomatic)
	svc, records, _ := newRewardFixture(rt, true)

	record, err := svc.Apply(context.Background(), "t1", "manager-1", applyInput(rtID))
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, record.Status)
	assert.True(t, record.IsLocked)
	assert.True(t, record.CalculatedValue.Equal(decimal.NewFromInt(500)))
	require.NotNil(t, record.ApprovedBy)
	assert.Equal(t, "manager-1", *record.ApprovedBy)
	assert.Equal(t, 1, record.AppliedMonth)
	assert.Equal(t, 2024, record.AppliedYear)
	require.Len(t, records.created, 1)
}

func TestApplyManualTriggerWithApprovalRequiredStaysPending(t *testing.T) {
	rtID := uuid.NewString()
	rt := fixedRewardType(rtID, models.TriggerManual)
	svc, _, _ := newRewardFixture(rt, true)

	record, err := svc.Apply(context.Background(), "t1", "manager-1", applyInput(rtID))
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, record.Status)
	assert.False(t, record.IsLocked)
	assert.Nil(t, record.ApprovedBy)
}

func TestApplyManualTriggerWithApprovalDisabledAutoApproves(t *testing.T) {
	rtID := uuid.NewString()
	rt := fixedRewardType(rtID, models.TriggerManual)
	svc, _, _ := newRewardFixture(rt, false)

	record, err := svc.Apply(context.Background(), "t1", "manager-1", applyInput(rtID))
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, record.Status)
	assert.True(t, record.IsLocked)
}

func TestApplyIneligibleEmployeeCreatesNothing(t *testing.T) {
	rtID := uuid.NewString()
	rt := fixedRewardType(rtID, models.TriggerManual)
	svc, records, evaluator := newRewardFixture(rt, true)
	evaluator.verdict = &models.EligibilityVerdict{
		Eligible: false,
		Reason:   "3 absences recorded",
		Evidence: models.JSONMap{"absent": 3},
	}

	_, err := svc.Apply(context.Background(), "t1", "manager-1", applyInput(rtID))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrBusinessRule.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "3 absences recorded")
	assert.Equal(t, "3 absences recorded", appErr.Details["reason"])
	assert.Empty(t, records.created)
}

func TestApplySkipEligibilityRecordsOverride(t *testing.T) {
	rtID := uuid.NewString()
	rt := fixedRewardType(rtID, models.TriggerManual)
	svc, _, evaluator := newRewardFixture(rt, true)

	input := applyInput(rtID)
	input.SkipEligibilityCheck = true
	record, err := svc.Apply(context.Background(), "t1", "manager-1", input)
	require.NoError(t, err)
	assert.Equal(t, 0, evaluator.calls, "evaluator must not run when the check is skipped")
	assert.Equal(t, true, record.EligibilityEvidence["skipped"])
	assert.Equal(t, "manual override", record.EligibilityEvidence["reason"])
}

func TestApplyInactiveRewardType(t *testing.T) {
	rtID := uuid.NewString()
	rt := fixedRewardType(rtID, models.TriggerManual)
	rt.Active = false
	svc, _, _ := newRewardFixture(rt, true)

	_, err := svc.Apply(context.Background(), "t1", "manager-1", applyInput(rtID))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrBusinessRule.Code, appErrors.FromError(err).Code)
}

func TestApplyInvertedPeriodRejected(t *testing.T) {
	rtID := uuid.NewString()
	rt := fixedRewardType(rtID, models.TriggerManual)
	svc, _, _ := newRewardFixture(rt, true)

	input := applyInput(rtID)
	input.PeriodStart, input.PeriodEnd = input.PeriodEnd, input.PeriodStart
	_, err := svc.Apply(context.Background(), "t1", "manager-1", input)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestApplyBulkIsolatesFailures(t *testing.T) {
	rtID := uuid.NewString()
	rt := fixedRewardType(rtID, models.TriggerManual)
	svc, records, _ := newRewardFixture(rt, false)

	good := uuid.NewString()
	bad := uuid.NewString()
	calls := 0
	verdicts := map[int]*models.EligibilityVerdict{
		0: {Eligible: true, Evidence: models.JSONMap{}},
		1: {Eligible: false, Reason: "late arrivals recorded", Evidence: models.JSONMap{}},
	}
	svc.eligibility = evaluatorFunc(func(ctx context.Context, tenantID, employeeID, rewardTypeID string, periodStart, periodEnd time.Time) (*models.EligibilityVerdict, error) {
		verdict := verdicts[calls]
		calls++
		return verdict, nil
	})

	outcome, err := svc.ApplyBulk(context.Background(), "t1", "manager-1", BulkApplyRewardInput{
		EmployeeIDs:  []string{good, bad},
		RewardTypeID: rtID,
		PeriodStart:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:    time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Len(t, outcome.Applied, 1)
	require.Len(t, outcome.Failed, 1)
	assert.Equal(t, bad, outcome.Failed[0].EmployeeID)
	assert.Contains(t, outcome.Failed[0].Reason, "late arrivals")
	assert.Len(t, records.created, 1)
}

type evaluatorFunc func(ctx context.Context, tenantID, employeeID, rewardTypeID string, periodStart, periodEnd time.Time) (*models.EligibilityVerdict, error)

func (f evaluatorFunc) Evaluate(ctx context.Context, tenantID, employeeID, rewardTypeID string, periodStart, periodEnd time.Time) (*models.EligibilityVerdict, error) {
	return f(ctx, tenantID, employeeID, rewardTypeID, periodStart, periodEnd)
}

func seededRecord(status models.RewardStatus) *models.RewardRecord {
	return &models.RewardRecord{
		ID:              uuid.NewString(),
		TenantID:        "t1",
		EmployeeID:      uuid.NewString(),
		RewardName:      "Spot Bonus",
		RewardCategory:  models.CategoryOther,
		CalculatedValue: decimal.NewFromInt(500),
		Status:          status,
		IsLocked:        status != models.StatusPending,
	}
}

func newWorkflowFixture(record *models.RewardRecord) (*RewardService, *recordRepoStub) {
	records := &recordRepoStub{records: map[string]*models.RewardRecord{record.ID: record}}
	svc := NewRewardService(records, rewardTypeReaderStub{}, settingsReaderStub{requireApproval: true}, &evaluatorStub{}, calculatorStub{}, nil, nil, nil)
	return svc, records
}

func TestApprovePendingRecord(t *testing.T) {
	record := seededRecord(models.StatusPending)
	svc, _ := newWorkflowFixture(record)

	approved, err := svc.Approve(context.Background(), "t1", record.ID, "manager-2")
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, approved.Status)
	assert.True(t, approved.IsLocked)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, "manager-2", *approved.ApprovedBy)
	assert.NotNil(t, approved.ApprovedAt)
}

func TestApproveNonPendingRecordFails(t *testing.T) {
	for _, status := range []models.RewardStatus{models.StatusApproved, models.StatusRejected, models.StatusVoided, models.StatusApplied} {
		record := seededRecord(status)
		svc, _ := newWorkflowFixture(record)

		_, err := svc.Approve(context.Background(), "t1", record.ID, "manager-2")
		require.Error(t, err, "status %s", status)
		appErr := appErrors.FromError(err)
		assert.Equal(t, appErrors.ErrBusinessRule.Code, appErr.Code)
		assert.Equal(t, string(status), appErr.Details["status"])
	}
}

func TestRejectPendingRecordStoresReason(t *testing.T) {
	record := seededRecord(models.StatusPending)
	svc, _ := newWorkflowFixture(record)

	rejected, err := svc.Reject(context.Background(), "t1", record.ID, "manager-2", "target not met")
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, rejected.Status)
	assert.True(t, rejected.IsLocked)
	require.NotNil(t, rejected.Reason)
	assert.Equal(t, "target not met", *rejected.Reason)
}

func TestRejectApprovedRecordFails(t *testing.T) {
	record := seededRecord(models.StatusApproved)
	svc, _ := newWorkflowFixture(record)

	_, err := svc.Reject(context.Background(), "t1", record.ID, "manager-2", "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrBusinessRule.Code, appErrors.FromError(err).Code)
}

func TestVoidApprovedRecord(t *testing.T) {
	record := seededRecord(models.StatusApproved)
	svc, _ := newWorkflowFixture(record)

	voided, err := svc.Void(context.Background(), "t1", record.ID, "admin-1", "granted in error")
	require.NoError(t, err)
	assert.Equal(t, models.StatusVoided, voided.Status)
	require.NotNil(t, voided.VoidedBy)
	assert.Equal(t, "admin-1", *voided.VoidedBy)
}

func TestVoidPayrollIncludedRecordFails(t *testing.T) {
	record := seededRecord(models.StatusApproved)
	record.IsIncludedInPayroll = true
	svc, records := newWorkflowFixture(record)

	_, err := svc.Void(context.Background(), "t1", record.ID, "admin-1", "")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrPayrollLocked.Code, appErr.Code)
	assert.Empty(t, records.updated)
}

func TestVoidTerminalRecordFails(t *testing.T) {
	for _, status := range []models.RewardStatus{models.StatusRejected, models.StatusVoided, models.StatusApplied} {
		record := seededRecord(status)
		svc, _ := newWorkflowFixture(record)

		_, err := svc.Void(context.Background(), "t1", record.ID, "admin-1", "")
		require.Error(t, err, "status %s", status)
		assert.Equal(t, appErrors.ErrBusinessRule.Code, appErrors.FromError(err).Code)
	}
}

func TestUpdateLockedRecordFails(t *testing.T) {
	record := seededRecord(models.StatusApproved)
	svc, _ := newWorkflowFixture(record)

	newValue := decimal.NewFromInt(100)
	_, err := svc.Update(context.Background(), "t1", record.ID, UpdateRewardInput{CalculatedValue: &newValue})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrLocked.Code, appErrors.FromError(err).Code)
}

func TestDeleteNonPendingRecordFails(t *testing.T) {
	record := seededRecord(models.StatusApproved)
	svc, records := newWorkflowFixture(record)

	err := svc.Delete(context.Background(), "t1", record.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrBusinessRule.Code, appErrors.FromError(err).Code)
	assert.Empty(t, records.deleted)
}

func TestDeletePendingRecord(t *testing.T) {
	record := seededRecord(models.StatusPending)
	svc, records := newWorkflowFixture(record)

	err := svc.Delete(context.Background(), "t1", record.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{record.ID}, records.deleted)
}

func TestWorkflowRecordNotFound(t *testing.T) {
	svc, _ := newWorkflowFixture(seededRecord(models.StatusPending))

	_, err := svc.Approve(context.Background(), "t1", uuid.NewString(), "manager-2")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestApplySettingsFailurePropagates(t *testing.T) {
	rtID := uuid.NewString()
	rt := fixedRewardType(rtID, models.TriggerManual)
	records := &recordRepoStub{records: map[string]*models.RewardRecord{}}
	svc := NewRewardService(
		records,
		rewardTypeReaderStub{rewardTypes: map[string]*models.RewardType{rtID: rt}},
		settingsReaderStub{err: errors.New("connection refused")},
		&evaluatorStub{},
		calculatorStub{value: rt.Value},
		nil,
		nil,
		nil,
	)

	_, err := svc.Apply(context.Background(), "t1", "manager-1", applyInput(rtID))
	require.Error(t, err)
	assert.Empty(t, records.created)
}
