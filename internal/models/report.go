package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MonthlyRewardReport is the month-level rollup over reward records.
// Monetary sums only include APPROVED and APPLIED records.
type MonthlyRewardReport struct {
	Month         int                   `json:"month"`
	Year          int                   `json:"year"`
	TotalCount    int                   `json:"total_count"`
	ApprovedCount int                   `json:"approved_count"`
	PendingCount  int                   `json:"pending_count"`
	TotalValue    decimal.Decimal       `json:"total_value"`
	ByCategory    []CategoryBreakdown   `json:"by_category"`
	ByDepartment  []DepartmentBreakdown `json:"by_department"`
	KudosCount    int                   `json:"kudos_count"`
	GeneratedAt   time.Time             `json:"generated_at"`
}

// CategoryBreakdown aggregates records sharing a snapshot category.
type CategoryBreakdown struct {
	Category RewardCategory  `json:"category"`
	Count    int             `json:"count"`
	Value    decimal.Decimal `json:"value"`
}

// DepartmentBreakdown aggregates records by the employee's department.
type DepartmentBreakdown struct {
	Department string          `json:"department"`
	Count      int             `json:"count"`
	Value      decimal.Decimal `json:"value"`
}

// CostAnalysis is the date-range rollup of reward spend.
type CostAnalysis struct {
	From         time.Time        `json:"from"`
	To           time.Time        `json:"to"`
	TotalCost    decimal.Decimal  `json:"total_cost"`
	CostByReward []RewardCostRow  `json:"cost_by_reward"`
	MonthlyTrend []MonthlyCostRow `json:"monthly_trend"`
	GeneratedAt  time.Time        `json:"generated_at"`
}

// RewardCostRow aggregates spend per snapshot reward name.
type RewardCostRow struct {
	RewardName string          `json:"reward_name"`
	Count      int             `json:"count"`
	Cost       decimal.Decimal `json:"cost"`
}

// MonthlyCostRow is one YYYY-MM bucket of the trend series.
type MonthlyCostRow struct {
	Month string          `json:"month"`
	Cost  decimal.Decimal `json:"cost"`
}

// EmployeeRewardHistory lists an employee's records with lifetime totals.
type EmployeeRewardHistory struct {
	EmployeeID  string          `json:"employee_id"`
	Records     []RewardRecord  `json:"records"`
	TotalEarned decimal.Decimal `json:"total_earned"`
	KudosPoints int             `json:"kudos_points"`
}
