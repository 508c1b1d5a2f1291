package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/hr-rewards-api/internal/models"
	appErrors "github.com/noah-isme/hr-rewards-api/pkg/errors"
)

type eligibilityRewardTypeReader interface {
	FindByID(ctx context.Context, tenantID, id string) (*models.RewardType, error)
}

type eligibilityEmployeeReader interface {
	FindByID(ctx context.Context, tenantID, id string) (*models.Employee, error)
	ListActiveWithNumber(ctx context.Context, tenantID string) ([]models.Employee, error)
}

type eligibilityAttendanceReader interface {
	ListByPeriod(ctx context.Context, tenantID, employeeID string, from, to time.Time) ([]models.AttendanceRecord, error)
}

type eligibilityPerformanceReader interface {
	ListContained(ctx context.Context, tenantID, employeeID string, from, to time.Time) ([]models.PerformanceReview, error)
}

type evaluationLogWriter interface {
	Insert(ctx context.Context, log *models.EligibilityEvaluationLog) error
}

// EligibilityService checks employees against a reward type's configured
// conditions and records every verdict in the evaluation audit log.
type EligibilityService struct {
	rewardTypes eligibilityRewardTypeReader
	employees   eligibilityEmployeeReader
	attendance  eligibilityAttendanceReader
	performance eligibilityPerformanceReader
	logs        evaluationLogWriter
	metrics     *MetricsService
	logger      *zap.Logger
}

// NewEligibilityService constructs the service.
func NewEligibilityService(
	rewardTypes eligibilityRewardTypeReader,
	employees eligibilityEmployeeReader,
	attendance eligibilityAttendanceReader,
	performance eligibilityPerformanceReader,
	logs evaluationLogWriter,
	metrics *MetricsService,
	logger *zap.Logger,
) *EligibilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EligibilityService{
		rewardTypes: rewardTypes,
		employees:   employees,
		attendance:  attendance,
		performance: performance,
		logs:        logs,
		metrics:     metrics,
		logger:      logger,
	}
}

// Evaluate runs all configured condition groups for one employee and one
// reward type over the given period. Failing checks accumulate into a single
// reason string; the verdict is persisted to the audit log either way.
func (s *EligibilityService) Evaluate(ctx context.Context, tenantID, employeeID, rewardTypeID string, periodStart, periodEnd time.Time) (*models.EligibilityVerdict, error) {
	if periodEnd.Before(periodStart) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "period end must not precede period start")
	}

	rewardType, err := s.rewardTypes.FindByID(ctx, tenantID, rewardTypeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "reward type not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load reward type")
	}

	verdict, err := s.evaluate(ctx, tenantID, employeeID, rewardType, periodStart, periodEnd)
	if err != nil {
		return nil, err
	}

	s.writeLog(ctx, tenantID, employeeID, rewardType, periodStart, periodEnd, verdict)
	s.metrics.RecordEvaluation(verdict.Eligible)
	return verdict, nil
}

// EvaluateAllActive evaluates every active employee against one reward type
// and returns only the eligible ones. A failure for one employee is logged
// and skipped; it never aborts the sweep.
func (s *EligibilityService) EvaluateAllActive(ctx context.Context, tenantID, rewardTypeID string, periodStart, periodEnd time.Time) ([]models.EmployeeVerdict, error) {
	employees, err := s.employees.ListActiveWithNumber(ctx, tenantID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list employees")
	}

	eligible := make([]models.EmployeeVerdict, 0)
	for _, employee := range employees {
		verdict, err := s.Evaluate(ctx, tenantID, employee.ID, rewardTypeID, periodStart, periodEnd)
		if err != nil {
			s.logger.Warn("eligibility evaluation failed for employee",
				zap.String("employee_id", employee.ID),
				zap.String("reward_type_id", rewardTypeID),
				zap.Error(err))
			continue
		}
		if verdict.Eligible {
			eligible = append(eligible, models.EmployeeVerdict{EmployeeID: employee.ID, Verdict: *verdict})
		}
	}
	return eligible, nil
}

func (s *EligibilityService) evaluate(ctx context.Context, tenantID, employeeID string, rewardType *models.RewardType, periodStart, periodEnd time.Time) (*models.EligibilityVerdict, error) {
	if !rewardType.Active {
		return &models.EligibilityVerdict{
			Eligible: false,
			Reason:   "reward type is inactive",
			Evidence: models.JSONMap{},
		}, nil
	}

	conditions := rewardType.Conditions
	if conditions.Invalid {
		return &models.EligibilityVerdict{
			Eligible: false,
			Reason:   "invalid conditions",
			Evidence: models.JSONMap{},
		}, nil
	}

	employee, err := s.employees.FindByID(ctx, tenantID, employeeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "employee not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load employee")
	}
	if !employee.Active {
		return &models.EligibilityVerdict{
			Eligible: false,
			Reason:   "employee is inactive",
			Evidence: models.JSONMap{},
		}, nil
	}

	if conditions.Empty() {
		return &models.EligibilityVerdict{Eligible: true, Evidence: models.JSONMap{}}, nil
	}

	var reasons []string
	evidence := models.JSONMap{}

	if conditions.MinServiceDays != nil {
		serviceDays := employee.ServiceDays(time.Now())
		evidence["service_days"] = serviceDays
		evidence["min_service_days"] = *conditions.MinServiceDays
		if serviceDays < *conditions.MinServiceDays {
			reasons = append(reasons, fmt.Sprintf("service days %d below required %d", serviceDays, *conditions.MinServiceDays))
		}
	}

	if conditions.Attendance != nil {
		attReasons, attEvidence, err := s.checkAttendance(ctx, tenantID, employeeID, conditions.Attendance, periodStart, periodEnd)
		if err != nil {
			return nil, err
		}
		reasons = append(reasons, attReasons...)
		evidence["attendance"] = attEvidence
	}

	if conditions.Performance != nil {
		perfReasons, perfEvidence, err := s.checkPerformance(ctx, tenantID, employeeID, conditions.Performance, periodStart, periodEnd)
		if err != nil {
			return nil, err
		}
		reasons = append(reasons, perfReasons...)
		evidence["performance"] = perfEvidence
	}

	verdict := &models.EligibilityVerdict{
		Eligible: len(reasons) == 0,
		Reason:   strings.Join(reasons, "; "),
		Evidence: evidence,
	}
	return verdict, nil
}

func (s *EligibilityService) checkAttendance(ctx context.Context, tenantID, employeeID string, cond *models.AttendanceConditions, periodStart, periodEnd time.Time) ([]string, models.JSONMap, error) {
	rows, err := s.attendance.ListByPeriod(ctx, tenantID, employeeID, periodStart, periodEnd)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance records")
	}
	summary := models.SummarizeAttendance(rows)

	var reasons []string
	if cond.NoLateness && summary.Late > 0 {
		reasons = append(reasons, fmt.Sprintf("%d late arrivals recorded", summary.Late))
	}
	if cond.NoAbsences && summary.Absent > 0 {
		reasons = append(reasons, fmt.Sprintf("%d absences recorded", summary.Absent))
	}
	if cond.MaxLateMinutes != nil && summary.TotalLateMinutes > *cond.MaxLateMinutes {
		reasons = append(reasons, fmt.Sprintf("total late minutes %d exceed limit %d", summary.TotalLateMinutes, *cond.MaxLateMinutes))
	}
	if cond.MinAttendanceRate != nil && summary.AttendanceRate < *cond.MinAttendanceRate {
		reasons = append(reasons, fmt.Sprintf("attendance rate %.1f%% below required %.1f%%", summary.AttendanceRate, *cond.MinAttendanceRate))
	}

	evidence := models.JSONMap{
		"total_days":         summary.Total,
		"present":            summary.Present,
		"late":               summary.Late,
		"absent":             summary.Absent,
		"total_late_minutes": summary.TotalLateMinutes,
		"attendance_rate":    summary.AttendanceRate,
	}
	return reasons, evidence, nil
}

func (s *EligibilityService) checkPerformance(ctx context.Context, tenantID, employeeID string, cond *models.PerformanceConditions, periodStart, periodEnd time.Time) ([]string, models.JSONMap, error) {
	reviews, err := s.performance.ListContained(ctx, tenantID, employeeID, periodStart, periodEnd)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load performance reviews")
	}
	if len(reviews) == 0 {
		return []string{"no performance reviews in period"}, models.JSONMap{"review_count": 0}, nil
	}

	var ratingSum, goalsSum float64
	for _, review := range reviews {
		ratingSum += review.OverallRating
		goalsSum += review.GoalsAchievement
	}
	avgRating := ratingSum / float64(len(reviews))
	avgGoals := goalsSum / float64(len(reviews))

	var reasons []string
	if cond.MinPerformanceScore != nil && avgRating < *cond.MinPerformanceScore {
		reasons = append(reasons, fmt.Sprintf("average performance score %.2f below required %.2f", avgRating, *cond.MinPerformanceScore))
	}
	if cond.MinGoalsAchievement != nil && avgGoals < *cond.MinGoalsAchievement {
		reasons = append(reasons, fmt.Sprintf("average goals achievement %.2f below required %.2f", avgGoals, *cond.MinGoalsAchievement))
	}

	evidence := models.JSONMap{
		"review_count":         len(reviews),
		"avg_rating":           avgRating,
		"avg_goals_achievement": avgGoals,
	}
	return reasons, evidence, nil
}

func (s *EligibilityService) writeLog(ctx context.Context, tenantID, employeeID string, rewardType *models.RewardType, periodStart, periodEnd time.Time, verdict *models.EligibilityVerdict) {
	entry := &models.EligibilityEvaluationLog{
		ID:                uuid.NewString(),
		TenantID:          tenantID,
		EmployeeID:        employeeID,
		RewardTypeID:      rewardType.ID,
		PeriodStart:       periodStart,
		PeriodEnd:         periodEnd,
		Eligible:          verdict.Eligible,
		Reason:            verdict.Reason,
		Evidence:          verdict.Evidence,
		ConditionsChecked: conditionsSnapshot(rewardType.Conditions),
		EvaluatedAt:       time.Now(),
	}
	if err := s.logs.Insert(ctx, entry); err != nil {
		s.logger.Warn("failed to write eligibility evaluation log",
			zap.String("employee_id", employeeID),
			zap.String("reward_type_id", rewardType.ID),
			zap.Error(err))
	}
}

func conditionsSnapshot(conditions models.EligibilityConditions) models.JSONMap {
	raw, err := json.Marshal(conditions)
	if err != nil {
		return models.JSONMap{}
	}
	snapshot := models.JSONMap{}
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return models.JSONMap{}
	}
	return snapshot
}
