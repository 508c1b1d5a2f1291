package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/hr-rewards-api/internal/models"
	"github.com/noah-isme/hr-rewards-api/pkg/config"
	appErrors "github.com/noah-isme/hr-rewards-api/pkg/errors"
)

type streakAttendanceReader interface {
	ListRecent(ctx context.Context, tenantID, employeeID string, days int) ([]models.AttendanceRecord, error)
}

type streakRewardTypeLister interface {
	ListAutomatic(ctx context.Context, tenantID string, category models.RewardCategory) ([]models.RewardType, error)
}

type streakRecordChecker interface {
	ExistsInWindow(ctx context.Context, tenantID, employeeID, rewardTypeID string, since time.Time) (bool, error)
}

type streakEmployeeLister interface {
	ListActiveWithNumber(ctx context.Context, tenantID string) ([]models.Employee, error)
}

type streakRewardApplier interface {
	Apply(ctx context.Context, tenantID, actorID string, input ApplyRewardInput) (*models.RewardRecord, error)
}

// StreakRunSummary reports one batch run of the streak trigger.
type StreakRunSummary struct {
	EmployeesChecked int                       `json:"employees_checked"`
	RewardsApplied   int                       `json:"rewards_applied"`
	Failed           []models.BulkApplyFailure `json:"failed"`
}

// StreakService detects consecutive-presence streaks and applies matching
// automatic attendance rewards through the regular workflow. A reward already
// granted within the suppression window is never granted again.
type StreakService struct {
	attendance  streakAttendanceReader
	rewardTypes streakRewardTypeLister
	records     streakRecordChecker
	employees   streakEmployeeLister
	rewards     streakRewardApplier
	metrics     *MetricsService
	cfg         config.StreakConfig
	logger      *zap.Logger
}

// NewStreakService constructs the service.
func NewStreakService(
	attendance streakAttendanceReader,
	rewardTypes streakRewardTypeLister,
	records streakRecordChecker,
	employees streakEmployeeLister,
	rewards streakRewardApplier,
	metrics *MetricsService,
	cfg config.StreakConfig,
	logger *zap.Logger,
) *StreakService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SuppressionWindowDays <= 0 {
		cfg.SuppressionWindowDays = 25
	}
	return &StreakService{
		attendance:  attendance,
		rewardTypes: rewardTypes,
		records:     records,
		employees:   employees,
		rewards:     rewards,
		metrics:     metrics,
		cfg:         cfg,
		logger:      logger,
	}
}

// CurrentStreak returns the employee's run of consecutive calendar days with
// presence, counted backwards from the most recent attendance record.
func (s *StreakService) CurrentStreak(ctx context.Context, tenantID, employeeID string) (int, error) {
	rows, err := s.attendance.ListRecent(ctx, tenantID, employeeID, 0)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance records")
	}

	streak := 0
	var prev time.Time
	for _, row := range rows {
		if !row.Status.CountsAsPresence() {
			break
		}
		day := row.Date.Truncate(24 * time.Hour)
		if streak == 0 {
			streak = 1
		} else {
			if prev.Sub(day) != 24*time.Hour {
				break
			}
			streak++
		}
		prev = day
	}
	return streak, nil
}

// CheckAndApply evaluates one employee's streak against every automatic
// attendance reward type and applies those whose threshold is met and that
// were not already granted inside the suppression window.
func (s *StreakService) CheckAndApply(ctx context.Context, tenantID, employeeID string) ([]models.RewardRecord, error) {
	streak, err := s.CurrentStreak(ctx, tenantID, employeeID)
	if err != nil {
		return nil, err
	}
	if streak == 0 {
		return nil, nil
	}

	rewardTypes, err := s.rewardTypes.ListAutomatic(ctx, tenantID, models.CategoryAttendance)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list automatic reward types")
	}

	now := time.Now()
	since := now.AddDate(0, 0, -s.cfg.SuppressionWindowDays)
	applied := make([]models.RewardRecord, 0)
	for _, rewardType := range rewardTypes {
		cond := rewardType.Conditions.Attendance
		if cond == nil || cond.MinStreak == nil || streak < *cond.MinStreak {
			continue
		}

		exists, err := s.records.ExistsInWindow(ctx, tenantID, employeeID, rewardType.ID, since)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check recent reward records")
		}
		if exists {
			s.logger.Debug("streak reward suppressed",
				zap.String("employee_id", employeeID),
				zap.String("reward_type_id", rewardType.ID),
				zap.Int("window_days", s.cfg.SuppressionWindowDays))
			continue
		}

		reason := fmt.Sprintf("attendance streak of %d days", streak)
		record, err := s.rewards.Apply(ctx, tenantID, models.SystemActor, ApplyRewardInput{
			EmployeeID:   employeeID,
			RewardTypeID: rewardType.ID,
			PeriodStart:  now.AddDate(0, 0, -streak),
			PeriodEnd:    now,
			Reason:       &reason,
		})
		if err != nil {
			s.logger.Warn("streak reward application failed",
				zap.String("employee_id", employeeID),
				zap.String("reward_type_id", rewardType.ID),
				zap.Error(err))
			continue
		}
		applied = append(applied, *record)
	}
	return applied, nil
}

// ProcessAllEmployees runs CheckAndApply across every active employee. One
// employee's failure never aborts the batch.
func (s *StreakService) ProcessAllEmployees(ctx context.Context, tenantID string) (*StreakRunSummary, error) {
	if !s.cfg.Enabled {
		return nil, appErrors.Clone(appErrors.ErrBusinessRule, "streak trigger is disabled")
	}

	employees, err := s.employees.ListActiveWithNumber(ctx, tenantID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list employees")
	}

	summary := &StreakRunSummary{Failed: make([]models.BulkApplyFailure, 0)}
	for _, employee := range employees {
		summary.EmployeesChecked++
		records, err := s.CheckAndApply(ctx, tenantID, employee.ID)
		if err != nil {
			summary.Failed = append(summary.Failed, models.BulkApplyFailure{
				EmployeeID: employee.ID,
				Reason:     err.Error(),
			})
			continue
		}
		summary.RewardsApplied += len(records)
	}

	s.metrics.RecordStreakRun(summary.RewardsApplied)
	s.logger.Info("streak batch completed",
		zap.String("tenant_id", tenantID),
		zap.Int("employees_checked", summary.EmployeesChecked),
		zap.Int("rewards_applied", summary.RewardsApplied),
		zap.Int("failed", len(summary.Failed)))
	return summary, nil
}
