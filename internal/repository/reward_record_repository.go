package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/hr-rewards-api/internal/models"
)

const rewardRecordColumns = `id, tenant_id, employee_id, reward_type_id, reward_name, reward_category, calculated_value, calculation_breakdown, period_start, period_end, applied_month, applied_year, reason, eligibility_evidence, status, is_locked, triggered_by, approved_by, approved_at, rejected_by, rejected_at, voided_by, voided_at, is_included_in_payroll, created_at, updated_at`

// RewardRecordRepository manages persistence for reward records.
type RewardRecordRepository struct {
	db *sqlx.DB
}

// NewRewardRecordRepository constructs a new repository.
func NewRewardRecordRepository(db *sqlx.DB) *RewardRecordRepository {
	return &RewardRecordRepository{db: db}
}

// List returns reward records per provided filter.
func (r *RewardRecordRepository) List(ctx context.Context, filter models.RewardRecordFilter) ([]models.RewardRecord, int, error) {
	base := "FROM reward_records"
	where := []string{"tenant_id = $1"}
	args := []interface{}{filter.TenantID}
	if filter.EmployeeID != "" {
		where = append(where, fmt.Sprintf("employee_id = $%d", len(args)+1))
		args = append(args, filter.EmployeeID)
	}
	if filter.RewardTypeID != "" {
		where = append(where, fmt.Sprintf("reward_type_id = $%d", len(args)+1))
		args = append(args, filter.RewardTypeID)
	}
	if filter.Category != nil {
		where = append(where, fmt.Sprintf("reward_category = $%d", len(args)+1))
		args = append(args, string(*filter.Category))
	}
	if filter.Status != nil {
		where = append(where, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, string(*filter.Status))
	}
	if filter.Month != nil {
		where = append(where, fmt.Sprintf("applied_month = $%d", len(args)+1))
		args = append(args, *filter.Month)
	}
	if filter.Year != nil {
		where = append(where, fmt.Sprintf("applied_year = $%d", len(args)+1))
		args = append(args, *filter.Year)
	}
	if filter.DateFrom != nil {
		where = append(where, fmt.Sprintf("period_start >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		where = append(where, fmt.Sprintf("period_end <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}
	if filter.Search != "" {
		where = append(where, fmt.Sprintf("(reward_name ILIKE $%d OR reason ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.IncludedInPayroll != nil {
		where = append(where, fmt.Sprintf("is_included_in_payroll = $%d", len(args)+1))
		args = append(args, *filter.IncludedInPayroll)
	}
	whereClause := strings.Join(where, " AND ")
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size
	query := fmt.Sprintf(`SELECT %s
%s WHERE %s ORDER BY period_start DESC, created_at DESC LIMIT %d OFFSET %d`, rewardRecordColumns, base, whereClause, size, offset)
	var records []models.RewardRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list reward records: %w", err)
	}
	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count reward records: %w", err)
	}
	return records, total, nil
}

// FindByID loads one record scoped by tenant.
func (r *RewardRecordRepository) FindByID(ctx context.Context, tenantID, id string) (*models.RewardRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM reward_records WHERE tenant_id = $1 AND id = $2", rewardRecordColumns)
	var record models.RewardRecord
	if err := r.db.GetContext(ctx, &record, query, tenantID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find reward record: %w", err)
	}
	return &record, nil
}

// Create inserts a new reward record.
func (r *RewardRecordRepository) Create(ctx context.Context, record *models.RewardRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	query := `INSERT INTO reward_records (id, tenant_id, employee_id, reward_type_id, reward_name, reward_category, calculated_value, calculation_breakdown, period_start, period_end, applied_month, applied_year, reason, eligibility_evidence, status, is_locked, triggered_by, approved_by, approved_at, rejected_by, rejected_at, voided_by, voided_at, is_included_in_payroll, created_at, updated_at)
VALUES (:id, :tenant_id, :employee_id, :reward_type_id, :reward_name, :reward_category, :calculated_value, :calculation_breakdown, :period_start, :period_end, :applied_month, :applied_year, :reason, :eligibility_evidence, :status, :is_locked, :triggered_by, :approved_by, :approved_at, :rejected_by, :rejected_at, :voided_by, :voided_at, :is_included_in_payroll, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("create reward record: %w", err)
	}
	return nil
}

// Update persists mutable fields and workflow state of an existing record.
func (r *RewardRecordRepository) Update(ctx context.Context, record *models.RewardRecord) error {
	record.UpdatedAt = time.Now().UTC()
	query := `UPDATE reward_records SET calculated_value = :calculated_value, calculation_breakdown = :calculation_breakdown, period_start = :period_start, period_end = :period_end, applied_month = :applied_month, applied_year = :applied_year, reason = :reason, status = :status, is_locked = :is_locked, approved_by = :approved_by, approved_at = :approved_at, rejected_by = :rejected_by, rejected_at = :rejected_at, voided_by = :voided_by, voided_at = :voided_at, is_included_in_payroll = :is_included_in_payroll, updated_at = :updated_at
WHERE tenant_id = :tenant_id AND id = :id`
	result, err := r.db.NamedExecContext(ctx, query, record)
	if err != nil {
		return fmt.Errorf("update reward record: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a record. Workflow preconditions are enforced by the service.
func (r *RewardRecordRepository) Delete(ctx context.Context, tenantID, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM reward_records WHERE tenant_id = $1 AND id = $2", tenantID, id)
	if err != nil {
		return fmt.Errorf("delete reward record: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountByRewardType returns how many records reference a reward type. The
// catalog refuses to delete templates with a non-zero count.
func (r *RewardRecordRepository) CountByRewardType(ctx context.Context, tenantID, rewardTypeID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM reward_records WHERE tenant_id = $1 AND reward_type_id = $2", tenantID, rewardTypeID); err != nil {
		return 0, fmt.Errorf("count records by reward type: %w", err)
	}
	return count, nil
}

// ExistsInWindow reports whether the employee already has a record of the
// reward type created on or after the cutoff. The streak trigger uses this
// as its duplicate-suppression check.
func (r *RewardRecordRepository) ExistsInWindow(ctx context.Context, tenantID, employeeID, rewardTypeID string, since time.Time) (bool, error) {
	var exists int
	err := r.db.GetContext(ctx, &exists,
		"SELECT 1 FROM reward_records WHERE tenant_id = $1 AND employee_id = $2 AND reward_type_id = $3 AND created_at >= $4 LIMIT 1",
		tenantID, employeeID, rewardTypeID, since)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check reward window: %w", err)
	}
	return true, nil
}

// ListForPeriod returns all records whose period overlaps the range. The
// reporting aggregator rolls these up in memory.
func (r *RewardRecordRepository) ListForPeriod(ctx context.Context, tenantID string, from, to time.Time) ([]models.RewardRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM reward_records
WHERE tenant_id = $1 AND period_start <= $3 AND period_end >= $2 ORDER BY period_start`, rewardRecordColumns)
	var records []models.RewardRecord
	if err := r.db.SelectContext(ctx, &records, query, tenantID, from, to); err != nil {
		return nil, fmt.Errorf("list records for period: %w", err)
	}
	return records, nil
}

// ListForMonth returns records keyed to a calendar month via the
// applied_year/applied_month snapshot columns.
func (r *RewardRecordRepository) ListForMonth(ctx context.Context, tenantID string, year, month int) ([]models.RewardRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM reward_records
WHERE tenant_id = $1 AND applied_year = $2 AND applied_month = $3 ORDER BY period_start`, rewardRecordColumns)
	var records []models.RewardRecord
	if err := r.db.SelectContext(ctx, &records, query, tenantID, year, month); err != nil {
		return nil, fmt.Errorf("list records for month: %w", err)
	}
	return records, nil
}

// ListByEmployee returns all of an employee's records, newest first.
func (r *RewardRecordRepository) ListByEmployee(ctx context.Context, tenantID, employeeID string) ([]models.RewardRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM reward_records WHERE tenant_id = $1 AND employee_id = $2 ORDER BY period_start DESC", rewardRecordColumns)
	var records []models.RewardRecord
	if err := r.db.SelectContext(ctx, &records, query, tenantID, employeeID); err != nil {
		return nil, fmt.Errorf("list records by employee: %w", err)
	}
	return records, nil
}
