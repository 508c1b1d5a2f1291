package models

import "time"

// EligibilityEvaluationLog is one append-only audit row per evaluation
// attempt. Rows are written for every verdict and never mutated.
type EligibilityEvaluationLog struct {
	ID                string    `db:"id" json:"id"`
	TenantID          string    `db:"tenant_id" json:"tenant_id"`
	EmployeeID        string    `db:"employee_id" json:"employee_id"`
	RewardTypeID      string    `db:"reward_type_id" json:"reward_type_id"`
	PeriodStart       time.Time `db:"period_start" json:"period_start"`
	PeriodEnd         time.Time `db:"period_end" json:"period_end"`
	Eligible          bool      `db:"eligible" json:"eligible"`
	Reason            string    `db:"reason" json:"reason"`
	Evidence          JSONMap   `db:"evidence" json:"evidence"`
	ConditionsChecked JSONMap   `db:"conditions_checked" json:"conditions_checked"`
	EvaluatedAt       time.Time `db:"evaluated_at" json:"evaluated_at"`
}

// EligibilityVerdict is the outcome of a single evaluation.
type EligibilityVerdict struct {
	Eligible bool    `json:"eligible"`
	Reason   string  `json:"reason,omitempty"`
	Evidence JSONMap `json:"evidence"`
}

// EmployeeVerdict pairs a verdict with its employee for batch evaluation.
type EmployeeVerdict struct {
	EmployeeID string             `json:"employee_id"`
	Verdict    EligibilityVerdict `json:"verdict"`
}
