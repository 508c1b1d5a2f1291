package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// RewardCategory classifies a reward type.
type RewardCategory string

const (
	CategoryTargetAchievement RewardCategory = "TARGET_ACHIEVEMENT"
	CategoryPunctuality       RewardCategory = "PUNCTUALITY"
	CategoryNoAbsence         RewardCategory = "NO_ABSENCE"
	CategoryQuality           RewardCategory = "QUALITY"
	CategoryEmployeeOfMonth   RewardCategory = "EMPLOYEE_OF_MONTH"
	CategoryInitiative        RewardCategory = "INITIATIVE"
	CategoryProjectSuccess    RewardCategory = "PROJECT_SUCCESS"
	CategorySales             RewardCategory = "SALES"
	CategoryAdministrative    RewardCategory = "ADMINISTRATIVE"
	CategoryPerformance       RewardCategory = "PERFORMANCE"
	CategoryAttendance        RewardCategory = "ATTENDANCE"
	CategoryOther             RewardCategory = "OTHER"
)

// Valid reports whether the category is a supported value.
func (c RewardCategory) Valid() bool {
	switch c {
	case CategoryTargetAchievement, CategoryPunctuality, CategoryNoAbsence, CategoryQuality,
		CategoryEmployeeOfMonth, CategoryInitiative, CategoryProjectSuccess, CategorySales,
		CategoryAdministrative, CategoryPerformance, CategoryAttendance, CategoryOther:
		return true
	default:
		return false
	}
}

// CalculationMethod determines how a reward value is computed.
type CalculationMethod string

const (
	MethodFixedAmount      CalculationMethod = "FIXED_AMOUNT"
	MethodPercentageSalary CalculationMethod = "PERCENTAGE_SALARY"
	MethodPercentageSales  CalculationMethod = "PERCENTAGE_SALES"
	MethodPercentageProfit CalculationMethod = "PERCENTAGE_PROJECT_PROFIT"
	MethodPoints           CalculationMethod = "POINTS"
	MethodNonMonetary      CalculationMethod = "NON_MONETARY"
)

// Valid reports whether the method is a supported value.
func (m CalculationMethod) Valid() bool {
	switch m {
	case MethodFixedAmount, MethodPercentageSalary, MethodPercentageSales,
		MethodPercentageProfit, MethodPoints, MethodNonMonetary:
		return true
	default:
		return false
	}
}

// TriggerType controls whether a reward is applied manually or by the streak engine.
type TriggerType string

const (
	TriggerManual    TriggerType = "MANUAL"
	TriggerAutomatic TriggerType = "AUTOMATIC"
)

// Valid reports whether the trigger type is supported.
func (t TriggerType) Valid() bool {
	return t == TriggerManual || t == TriggerAutomatic
}

// RewardFrequency bounds how often a reward type may recur.
type RewardFrequency string

const (
	FrequencyMonthly   RewardFrequency = "MONTHLY"
	FrequencyQuarterly RewardFrequency = "QUARTERLY"
	FrequencyYearly    RewardFrequency = "YEARLY"
	FrequencyOneTime   RewardFrequency = "ONE_TIME"
)

// Valid reports whether the frequency is supported.
func (f RewardFrequency) Valid() bool {
	switch f {
	case FrequencyMonthly, FrequencyQuarterly, FrequencyYearly, FrequencyOneTime:
		return true
	default:
		return false
	}
}

// AttendanceConditions holds attendance-related eligibility thresholds.
type AttendanceConditions struct {
	NoLateness        bool     `json:"no_lateness,omitempty"`
	NoAbsences        bool     `json:"no_absences,omitempty"`
	MaxLateMinutes    *int     `json:"max_late_minutes,omitempty"`
	MinAttendanceRate *float64 `json:"min_attendance_rate,omitempty"`
	MinStreak         *int     `json:"min_streak,omitempty"`
}

// PerformanceConditions holds performance-review eligibility thresholds.
type PerformanceConditions struct {
	MinPerformanceScore *float64 `json:"min_performance_score,omitempty"`
	MinGoalsAchievement *float64 `json:"min_goals_achievement,omitempty"`
}

// EligibilityConditions is the structured rule set a reward type may require.
// It persists as JSONB. A row holding malformed JSON is loaded with Invalid
// set instead of failing the query; the evaluator then reports the employee
// ineligible with reason "invalid conditions".
type EligibilityConditions struct {
	MinServiceDays *int                   `json:"min_service_days,omitempty"`
	Attendance     *AttendanceConditions  `json:"attendance,omitempty"`
	Performance    *PerformanceConditions `json:"performance,omitempty"`

	Invalid bool `json:"-"`
}

// Empty reports whether no condition is configured at all.
func (c EligibilityConditions) Empty() bool {
	return c.MinServiceDays == nil && c.Attendance == nil && c.Performance == nil
}

// Validate rejects nonsensical thresholds at save time.
func (c EligibilityConditions) Validate() error {
	if c.Invalid {
		return fmt.Errorf("conditions document is malformed")
	}
	if c.MinServiceDays != nil && *c.MinServiceDays < 0 {
		return fmt.Errorf("min_service_days must not be negative")
	}
	if a := c.Attendance; a != nil {
		if a.MaxLateMinutes != nil && *a.MaxLateMinutes < 0 {
			return fmt.Errorf("max_late_minutes must not be negative")
		}
		if a.MinAttendanceRate != nil && (*a.MinAttendanceRate < 0 || *a.MinAttendanceRate > 100) {
			return fmt.Errorf("min_attendance_rate must be between 0 and 100")
		}
		if a.MinStreak != nil && *a.MinStreak < 1 {
			return fmt.Errorf("min_streak must be at least 1")
		}
	}
	if p := c.Performance; p != nil {
		if p.MinPerformanceScore != nil && *p.MinPerformanceScore < 0 {
			return fmt.Errorf("min_performance_score must not be negative")
		}
		if p.MinGoalsAchievement != nil && *p.MinGoalsAchievement < 0 {
			return fmt.Errorf("min_goals_achievement must not be negative")
		}
	}
	return nil
}

// Value implements driver.Valuer.
func (c EligibilityConditions) Value() (driver.Value, error) {
	return json.Marshal(c)
}

// Scan implements sql.Scanner.
func (c *EligibilityConditions) Scan(src interface{}) error {
	*c = EligibilityConditions{}
	if src == nil {
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported conditions column type %T", src)
	}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, c); err != nil {
		// Tolerate legacy malformed documents: loading must not fail the
		// whole query, evaluation downgrades them to ineligible.
		*c = EligibilityConditions{Invalid: true}
	}
	return nil
}

// RewardType is a reusable reward template owned by a tenant.
type RewardType struct {
	ID                string                `db:"id" json:"id"`
	TenantID          string                `db:"tenant_id" json:"tenant_id"`
	Name              string                `db:"name" json:"name"`
	Description       *string               `db:"description" json:"description,omitempty"`
	Category          RewardCategory        `db:"category" json:"category"`
	CalculationMethod CalculationMethod     `db:"calculation_method" json:"calculation_method"`
	Value             decimal.Decimal       `db:"value" json:"value"`
	MaxCap            *decimal.Decimal      `db:"max_cap" json:"max_cap,omitempty"`
	Conditions        EligibilityConditions `db:"conditions" json:"conditions"`
	TriggerType       TriggerType           `db:"trigger_type" json:"trigger_type"`
	Frequency         RewardFrequency       `db:"frequency" json:"frequency"`
	Active            bool                  `db:"active" json:"active"`
	Priority          int                   `db:"priority" json:"priority"`
	EffectiveFrom     *time.Time            `db:"effective_from" json:"effective_from,omitempty"`
	EffectiveTo       *time.Time            `db:"effective_to" json:"effective_to,omitempty"`
	CreatedAt         time.Time             `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time             `db:"updated_at" json:"updated_at"`
}

// RewardTypeFilter scopes catalog listing queries.
type RewardTypeFilter struct {
	TenantID    string
	Category    *RewardCategory
	TriggerType *TriggerType
	Active      *bool
	Search      string
	Page        int
	PageSize    int
}
