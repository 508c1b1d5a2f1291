package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/hr-rewards-api/internal/models"
)

const employeeColumns = `id, tenant_id, employee_number, full_name, department, hire_date, base_salary, active`

// EmployeeRepository is a read-only view into the employee directory.
type EmployeeRepository struct {
	db *sqlx.DB
}

// NewEmployeeRepository constructs a new repository.
func NewEmployeeRepository(db *sqlx.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

// FindByID loads one employee scoped by tenant.
func (r *EmployeeRepository) FindByID(ctx context.Context, tenantID, id string) (*models.Employee, error) {
	query := fmt.Sprintf("SELECT %s FROM employees WHERE tenant_id = $1 AND id = $2", employeeColumns)
	var employee models.Employee
	if err := r.db.GetContext(ctx, &employee, query, tenantID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find employee: %w", err)
	}
	return &employee, nil
}

// ListActiveWithNumber returns active employees holding an assigned employee
// number. Batch evaluation and the streak trigger iterate this set.
func (r *EmployeeRepository) ListActiveWithNumber(ctx context.Context, tenantID string) ([]models.Employee, error) {
	query := fmt.Sprintf(`SELECT %s FROM employees
WHERE tenant_id = $1 AND active = TRUE AND employee_number IS NOT NULL ORDER BY employee_number`, employeeColumns)
	var employees []models.Employee
	if err := r.db.SelectContext(ctx, &employees, query, tenantID); err != nil {
		return nil, fmt.Errorf("list active employees: %w", err)
	}
	return employees, nil
}
