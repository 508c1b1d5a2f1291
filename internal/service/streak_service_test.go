package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/hr-rewards-api/internal/models"
	"github.com/noah-isme/hr-rewards-api/pkg/config"
	appErrors "github.com/noah-isme/hr-rewards-api/pkg/errors"
)

type streakAttendanceStub struct {
	rows map[string][]models.AttendanceRecord
	err  error
}

func (s streakAttendanceStub) ListRecent(ctx context.Context, tenantID, employeeID string, days int) ([]models.AttendanceRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.rows[employeeID], nil
}

type streakTypeListerStub struct {
	rewardTypes []models.RewardType
}

func (s streakTypeListerStub) ListAutomatic(ctx context.Context, tenantID string, category models.RewardCategory) ([]models.RewardType, error) {
	return s.rewardTypes, nil
}

type recordCheckerStub struct {
	exists bool
	calls  int
	since  time.Time
}

func (s *recordCheckerStub) ExistsInWindow(ctx context.Context, tenantID, employeeID, rewardTypeID string, since time.Time) (bool, error) {
	s.calls++
	s.since = since
	return s.exists, nil
}

type streakEmployeesStub struct {
	employees []models.Employee
}

func (s streakEmployeesStub) ListActiveWithNumber(ctx context.Context, tenantID string) ([]models.Employee, error) {
	return s.employees, nil
}

type rewardApplierStub struct {
	applied []ApplyRewardInput
	actors  []string
	err     error
}

func (s *rewardApplierStub) Apply(ctx context.Context, tenantID, actorID string, input ApplyRewardInput) (*models.RewardRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.applied = append(s.applied, input)
	s.actors = append(s.actors, actorID)
	return &models.RewardRecord{
		ID:         uuid.NewString(),
		TenantID:   tenantID,
		EmployeeID: input.EmployeeID,
		Status:     models.StatusApproved,
	}, nil
}

// attendanceRun builds count consecutive presence rows ending today, newest
// first, the order the repository returns them in.
func attendanceRun(employeeID string, count int) []models.AttendanceRecord {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	rows := make([]models.AttendanceRecord, 0, count)
	for i := 0; i < count; i++ {
		rows = append(rows, models.AttendanceRecord{
			ID:         uuid.NewString(),
			EmployeeID: employeeID,
			Date:       today.AddDate(0, 0, -i),
			Status:     models.AttendancePresent,
		})
	}
	return rows
}

func streakRewardType(minStreak int) models.RewardType {
	return models.RewardType{
		ID:                uuid.NewString(),
		TenantID:          "t1",
		Name:              "Perfect Attendance Streak",
		Category:          models.CategoryAttendance,
		CalculationMethod: models.MethodFixedAmount,
		Value:             decimal.NewFromInt(200),
		TriggerType:       models.TriggerAutomatic,
		Frequency:         models.FrequencyMonthly,
		Active:            true,
		Conditions: models.EligibilityConditions{
			Attendance: &models.AttendanceConditions{MinStreak: &minStreak},
		},
	}
}

func TestCurrentStreakConsecutiveDays(t *testing.T) {
	emp := uuid.NewString()
	svc := NewStreakService(
		streakAttendanceStub{rows: map[string][]models.AttendanceRecord{emp: attendanceRun(emp, 7)}},
		streakTypeListerStub{}, &recordCheckerStub{}, streakEmployeesStub{}, &rewardApplierStub{},
		nil, config.StreakConfig{}, nil,
	)

	streak, err := svc.CurrentStreak(context.Background(), "t1", emp)
	require.NoError(t, err)
	assert.Equal(t, 7, streak)
}

func TestCurrentStreakBreaksOnGap(t *testing.T) {
	emp := uuid.NewString()
	rows := attendanceRun(emp, 6)
	// Remove the fourth day so only three remain contiguous.
	rows = append(rows[:3], rows[4:]...)
	svc := NewStreakService(
		streakAttendanceStub{rows: map[string][]models.AttendanceRecord{emp: rows}},
		streakTypeListerStub{}, &recordCheckerStub{}, streakEmployeesStub{}, &rewardApplierStub{},
		nil, config.StreakConfig{}, nil,
	)

	streak, err := svc.CurrentStreak(context.Background(), "t1", emp)
	require.NoError(t, err)
	assert.Equal(t, 3, streak)
}

func TestCurrentStreakBreaksOnAbsence(t *testing.T) {
	emp := uuid.NewString()
	rows := attendanceRun(emp, 5)
	rows[2].Status = models.AttendanceAbsent
	svc := NewStreakService(
		streakAttendanceStub{rows: map[string][]models.AttendanceRecord{emp: rows}},
		streakTypeListerStub{}, &recordCheckerStub{}, streakEmployeesStub{}, &rewardApplierStub{},
		nil, config.StreakConfig{}, nil,
	)

	streak, err := svc.CurrentStreak(context.Background(), "t1", emp)
	require.NoError(t, err)
	assert.Equal(t, 2, streak)
}

func TestCurrentStreakLateStillCounts(t *testing.T) {
	emp := uuid.NewString()
	rows := attendanceRun(emp, 4)
	rows[1].Status = models.AttendanceLate
	svc := NewStreakService(
		streakAttendanceStub{rows: map[string][]models.AttendanceRecord{emp: rows}},
		streakTypeListerStub{}, &recordCheckerStub{}, streakEmployeesStub{}, &rewardApplierStub{},
		nil, config.StreakConfig{}, nil,
	)

	streak, err := svc.CurrentStreak(context.Background(), "t1", emp)
	require.NoError(t, err)
	assert.Equal(t, 4, streak)
}

func TestCheckAndApplyGrantsWhenThresholdMet(t *testing.T) {
	emp := uuid.NewString()
	checker := &recordCheckerStub{}
	applier := &rewardApplierStub{}
	svc := NewStreakService(
		streakAttendanceStub{rows: map[string][]models.AttendanceRecord{emp: attendanceRun(emp, 20)}},
		streakTypeListerStub{rewardTypes: []models.RewardType{streakRewardType(20)}},
		checker, streakEmployeesStub{}, applier,
		nil, config.StreakConfig{Enabled: true}, nil,
	)

	records, err := svc.CheckAndApply(context.Background(), "t1", emp)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Len(t, applier.applied, 1)
	assert.Equal(t, models.SystemActor, applier.actors[0])
	require.NotNil(t, applier.applied[0].Reason)
	assert.Equal(t, "attendance streak of 20 days", *applier.applied[0].Reason)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, -20), applier.applied[0].PeriodStart, time.Minute)
	assert.WithinDuration(t, time.Now(), applier.applied[0].PeriodEnd, time.Minute)
	// Default suppression window is 25 days back from now.
	assert.WithinDuration(t, time.Now().AddDate(0, 0, -25), checker.since, time.Minute)
}

func TestCheckAndApplyBelowThreshold(t *testing.T) {
	emp := uuid.NewString()
	applier := &rewardApplierStub{}
	svc := NewStreakService(
		streakAttendanceStub{rows: map[string][]models.AttendanceRecord{emp: attendanceRun(emp, 10)}},
		streakTypeListerStub{rewardTypes: []models.RewardType{streakRewardType(20)}},
		&recordCheckerStub{}, streakEmployeesStub{}, applier,
		nil, config.StreakConfig{Enabled: true}, nil,
	)

	records, err := svc.CheckAndApply(context.Background(), "t1", emp)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Empty(t, applier.applied)
}

func TestCheckAndApplySuppressedByRecentGrant(t *testing.T) {
	emp := uuid.NewString()
	applier := &rewardApplierStub{}
	svc := NewStreakService(
		streakAttendanceStub{rows: map[string][]models.AttendanceRecord{emp: attendanceRun(emp, 30)}},
		streakTypeListerStub{rewardTypes: []models.RewardType{streakRewardType(20)}},
		&recordCheckerStub{exists: true}, streakEmployeesStub{}, applier,
		nil, config.StreakConfig{Enabled: true}, nil,
	)

	records, err := svc.CheckAndApply(context.Background(), "t1", emp)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Empty(t, applier.applied, "a reward granted inside the window must not repeat")
}

func TestCheckAndApplyIsIdempotentAcrossRuns(t *testing.T) {
	emp := uuid.NewString()
	checker := &recordCheckerStub{}
	applier := &rewardApplierStub{}
	svc := NewStreakService(
		streakAttendanceStub{rows: map[string][]models.AttendanceRecord{emp: attendanceRun(emp, 25)}},
		streakTypeListerStub{rewardTypes: []models.RewardType{streakRewardType(20)}},
		checker, streakEmployeesStub{}, applier,
		nil, config.StreakConfig{Enabled: true}, nil,
	)

	first, err := svc.CheckAndApply(context.Background(), "t1", emp)
	require.NoError(t, err)
	require.Len(t, first, 1)

	// The first grant now sits inside the window.
	checker.exists = true
	second, err := svc.CheckAndApply(context.Background(), "t1", emp)
	require.NoError(t, err)
	assert.Empty(t, second)
	assert.Len(t, applier.applied, 1)
}

func TestCheckAndApplyApplierFailureSkipsType(t *testing.T) {
	emp := uuid.NewString()
	applier := &rewardApplierStub{err: errors.New("connection refused")}
	svc := NewStreakService(
		streakAttendanceStub{rows: map[string][]models.AttendanceRecord{emp: attendanceRun(emp, 25)}},
		streakTypeListerStub{rewardTypes: []models.RewardType{streakRewardType(20)}},
		&recordCheckerStub{}, streakEmployeesStub{}, applier,
		nil, config.StreakConfig{Enabled: true}, nil,
	)

	records, err := svc.CheckAndApply(context.Background(), "t1", emp)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestProcessAllEmployeesDisabled(t *testing.T) {
	svc := NewStreakService(
		streakAttendanceStub{}, streakTypeListerStub{}, &recordCheckerStub{},
		streakEmployeesStub{}, &rewardApplierStub{},
		nil, config.StreakConfig{Enabled: false}, nil,
	)

	_, err := svc.ProcessAllEmployees(context.Background(), "t1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrBusinessRule.Code, appErrors.FromError(err).Code)
}

func TestProcessAllEmployeesIsolatesFailures(t *testing.T) {
	healthy := uuid.NewString()
	broken := uuid.NewString()
	rows := map[string][]models.AttendanceRecord{healthy: attendanceRun(healthy, 25)}
	applier := &rewardApplierStub{}
	svc := NewStreakService(
		failingAttendanceStub{inner: streakAttendanceStub{rows: rows}, failFor: broken},
		streakTypeListerStub{rewardTypes: []models.RewardType{streakRewardType(20)}},
		&recordCheckerStub{}, streakEmployeesStub{employees: []models.Employee{{ID: healthy}, {ID: broken}}}, applier,
		nil, config.StreakConfig{Enabled: true}, nil,
	)

	summary, err := svc.ProcessAllEmployees(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, 2, summary.EmployeesChecked)
	assert.Equal(t, 1, summary.RewardsApplied)
	require.Len(t, summary.Failed, 1)
	assert.Equal(t, broken, summary.Failed[0].EmployeeID)
}

type failingAttendanceStub struct {
	inner   streakAttendanceStub
	failFor string
}

func (s failingAttendanceStub) ListRecent(ctx context.Context, tenantID, employeeID string, days int) ([]models.AttendanceRecord, error) {
	if employeeID == s.failFor {
		return nil, errors.New("connection refused")
	}
	return s.inner.ListRecent(ctx, tenantID, employeeID, days)
}
