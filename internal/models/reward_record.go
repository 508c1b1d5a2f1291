package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RewardStatus is the lifecycle state of a reward record. Transitions only
// move forward: PENDING → APPROVED|REJECTED, PENDING|APPROVED → VOIDED.
// APPLIED is set by the payroll export and is terminal.
type RewardStatus string

const (
	StatusPending  RewardStatus = "PENDING"
	StatusApproved RewardStatus = "APPROVED"
	StatusRejected RewardStatus = "REJECTED"
	StatusVoided   RewardStatus = "VOIDED"
	StatusApplied  RewardStatus = "APPLIED"
)

// Valid reports whether the status is a supported value.
func (s RewardStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusVoided, StatusApplied:
		return true
	default:
		return false
	}
}

// CanTransitionTo reports whether the state machine permits moving to next.
func (s RewardStatus) CanTransitionTo(next RewardStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusApproved || next == StatusRejected || next == StatusVoided
	case StatusApproved:
		return next == StatusVoided || next == StatusApplied
	default:
		return false
	}
}

// Terminal reports whether no further transition is allowed.
func (s RewardStatus) Terminal() bool {
	return s == StatusRejected || s == StatusVoided || s == StatusApplied
}

// SystemActor identifies automatically triggered records.
const SystemActor = "SYSTEM"

// RewardRecord is one concrete reward granted to an employee for a period.
// RewardName and RewardCategory are snapshots taken from the reward type at
// creation time so later template edits never alter historical records.
type RewardRecord struct {
	ID                  string          `db:"id" json:"id"`
	TenantID            string          `db:"tenant_id" json:"tenant_id"`
	EmployeeID          string          `db:"employee_id" json:"employee_id"`
	RewardTypeID        *string         `db:"reward_type_id" json:"reward_type_id,omitempty"`
	RewardName          string          `db:"reward_name" json:"reward_name"`
	RewardCategory      RewardCategory  `db:"reward_category" json:"reward_category"`
	CalculatedValue     decimal.Decimal `db:"calculated_value" json:"calculated_value"`
	Breakdown           JSONMap         `db:"calculation_breakdown" json:"calculation_breakdown"`
	PeriodStart         time.Time       `db:"period_start" json:"period_start"`
	PeriodEnd           time.Time       `db:"period_end" json:"period_end"`
	AppliedMonth        int             `db:"applied_month" json:"applied_month"`
	AppliedYear         int             `db:"applied_year" json:"applied_year"`
	Reason              *string         `db:"reason" json:"reason,omitempty"`
	EligibilityEvidence JSONMap         `db:"eligibility_evidence" json:"eligibility_evidence"`
	Status              RewardStatus    `db:"status" json:"status"`
	IsLocked            bool            `db:"is_locked" json:"is_locked"`
	TriggeredBy         string          `db:"triggered_by" json:"triggered_by"`
	ApprovedBy          *string         `db:"approved_by" json:"approved_by,omitempty"`
	ApprovedAt          *time.Time      `db:"approved_at" json:"approved_at,omitempty"`
	RejectedBy          *string         `db:"rejected_by" json:"rejected_by,omitempty"`
	RejectedAt          *time.Time      `db:"rejected_at" json:"rejected_at,omitempty"`
	VoidedBy            *string         `db:"voided_by" json:"voided_by,omitempty"`
	VoidedAt            *time.Time      `db:"voided_at" json:"voided_at,omitempty"`
	IsIncludedInPayroll bool            `db:"is_included_in_payroll" json:"is_included_in_payroll"`
	CreatedAt           time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time       `db:"updated_at" json:"updated_at"`
}

// CountsTowardCost reports whether the record contributes to monetary sums.
// Only approved and payroll-applied records ever do.
func (r RewardRecord) CountsTowardCost() bool {
	return r.Status == StatusApproved || r.Status == StatusApplied
}

// RewardRecordFilter scopes record listing queries.
type RewardRecordFilter struct {
	TenantID          string
	EmployeeID        string
	RewardTypeID      string
	Category          *RewardCategory
	Status            *RewardStatus
	Month             *int
	Year              *int
	DateFrom          *time.Time
	DateTo            *time.Time
	Search            string
	IncludedInPayroll *bool
	Page              int
	PageSize          int
}

// BulkApplyOutcome summarises an ApplyBulk run.
type BulkApplyOutcome struct {
	Applied []RewardRecord     `json:"applied"`
	Failed  []BulkApplyFailure `json:"failed"`
}

// BulkApplyFailure captures one employee's isolated failure.
type BulkApplyFailure struct {
	EmployeeID string `json:"employee_id"`
	Reason     string `json:"reason"`
}
