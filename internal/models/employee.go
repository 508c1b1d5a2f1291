package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Employee is the directory view consumed by the reward engine. The engine
// never writes employee rows.
type Employee struct {
	ID             string           `db:"id" json:"id"`
	TenantID       string           `db:"tenant_id" json:"tenant_id"`
	EmployeeNumber *string          `db:"employee_number" json:"employee_number,omitempty"`
	FullName       string           `db:"full_name" json:"full_name"`
	Department     *string          `db:"department" json:"department,omitempty"`
	HireDate       time.Time        `db:"hire_date" json:"hire_date"`
	BaseSalary     *decimal.Decimal `db:"base_salary" json:"base_salary,omitempty"`
	Active         bool             `db:"active" json:"active"`
}

// ServiceDays returns full days elapsed since hire as of the given instant.
func (e Employee) ServiceDays(now time.Time) int {
	return int(now.Sub(e.HireDate).Hours() / 24)
}
