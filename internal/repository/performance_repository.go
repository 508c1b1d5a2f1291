package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/hr-rewards-api/internal/models"
)

// PerformanceRepository is a read-only view over finalized reviews.
type PerformanceRepository struct {
	db *sqlx.DB
}

// NewPerformanceRepository constructs a new repository.
func NewPerformanceRepository(db *sqlx.DB) *PerformanceRepository {
	return &PerformanceRepository{db: db}
}

// ListContained returns reviews whose period falls entirely within [from, to].
func (r *PerformanceRepository) ListContained(ctx context.Context, tenantID, employeeID string, from, to time.Time) ([]models.PerformanceReview, error) {
	query := `SELECT id, tenant_id, employee_id, period_start, period_end, overall_rating, goals_achievement
FROM performance_reviews
WHERE tenant_id = $1 AND employee_id = $2 AND period_start >= $3 AND period_end <= $4 ORDER BY period_start`
	var reviews []models.PerformanceReview
	if err := r.db.SelectContext(ctx, &reviews, query, tenantID, employeeID, from, to); err != nil {
		return nil, fmt.Errorf("list performance reviews: %w", err)
	}
	return reviews, nil
}
