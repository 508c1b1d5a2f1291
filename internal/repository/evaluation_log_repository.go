package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/hr-rewards-api/internal/models"
)

// EvaluationLogRepository persists the append-only eligibility audit trail.
// Rows are inserted and read, never updated or deleted.
type EvaluationLogRepository struct {
	db *sqlx.DB
}

// NewEvaluationLogRepository constructs a new repository.
func NewEvaluationLogRepository(db *sqlx.DB) *EvaluationLogRepository {
	return &EvaluationLogRepository{db: db}
}

// Insert appends one evaluation log row.
func (r *EvaluationLogRepository) Insert(ctx context.Context, log *models.EligibilityEvaluationLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.EvaluatedAt.IsZero() {
		log.EvaluatedAt = time.Now().UTC()
	}
	query := `INSERT INTO eligibility_evaluation_logs (id, tenant_id, employee_id, reward_type_id, period_start, period_end, eligible, reason, evidence, conditions_checked, evaluated_at)
VALUES (:id, :tenant_id, :employee_id, :reward_type_id, :period_start, :period_end, :eligible, :reason, :evidence, :conditions_checked, :evaluated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("insert evaluation log: %w", err)
	}
	return nil
}

// ListByEmployee returns the most recent evaluation attempts for an employee.
func (r *EvaluationLogRepository) ListByEmployee(ctx context.Context, tenantID, employeeID string, limit int) ([]models.EligibilityEvaluationLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query := fmt.Sprintf(`SELECT id, tenant_id, employee_id, reward_type_id, period_start, period_end, eligible, reason, evidence, conditions_checked, evaluated_at
FROM eligibility_evaluation_logs WHERE tenant_id = $1 AND employee_id = $2 ORDER BY evaluated_at DESC LIMIT %d`, limit)
	var logs []models.EligibilityEvaluationLog
	if err := r.db.SelectContext(ctx, &logs, query, tenantID, employeeID); err != nil {
		return nil, fmt.Errorf("list evaluation logs: %w", err)
	}
	return logs, nil
}
