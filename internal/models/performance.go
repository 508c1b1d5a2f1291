package models

import "time"

// PerformanceReview is a finalized review row consumed read-only by the
// eligibility evaluator.
type PerformanceReview struct {
	ID               string    `db:"id" json:"id"`
	TenantID         string    `db:"tenant_id" json:"tenant_id"`
	EmployeeID       string    `db:"employee_id" json:"employee_id"`
	PeriodStart      time.Time `db:"period_start" json:"period_start"`
	PeriodEnd        time.Time `db:"period_end" json:"period_end"`
	OverallRating    float64   `db:"overall_rating" json:"overall_rating"`
	GoalsAchievement float64   `db:"goals_achievement" json:"goals_achievement"`
}
