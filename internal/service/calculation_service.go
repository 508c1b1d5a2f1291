package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/hr-rewards-api/internal/models"
	appErrors "github.com/noah-isme/hr-rewards-api/pkg/errors"
)

type calcEmployeeReader interface {
	FindByID(ctx context.Context, tenantID, id string) (*models.Employee, error)
}

// CalculationService computes reward values according to a reward type's
// calculation method. Every result is rounded to two decimal places.
type CalculationService struct {
	employees calcEmployeeReader
	logger    *zap.Logger
}

// NewCalculationService constructs the service.
func NewCalculationService(employees calcEmployeeReader, logger *zap.Logger) *CalculationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalculationService{employees: employees, logger: logger}
}

var oneHundred = decimal.NewFromInt(100)

// Calculate returns the reward value and a serializable breakdown of how it
// was derived. A missing base salary is deliberately non-fatal: the value
// degrades to zero with an explanatory note so bulk operations keep moving.
func (s *CalculationService) Calculate(ctx context.Context, tenantID, employeeID string, rt *models.RewardType) (decimal.Decimal, models.JSONMap, error) {
	switch rt.CalculationMethod {
	case models.MethodFixedAmount:
		value := rt.Value.Round(2)
		return value, models.JSONMap{
			"method": string(models.MethodFixedAmount),
			"amount": value.String(),
		}, nil

	case models.MethodPercentageSalary:
		return s.calculateSalaryPercentage(ctx, tenantID, employeeID, rt)

	case models.MethodPoints:
		value := rt.Value.Round(2)
		return value, models.JSONMap{
			"method": string(models.MethodPoints),
			"points": value.String(),
		}, nil

	case models.MethodNonMonetary:
		breakdown := models.JSONMap{"method": string(models.MethodNonMonetary)}
		if rt.Description != nil {
			breakdown["description"] = *rt.Description
		} else {
			breakdown["description"] = rt.Name
		}
		return decimal.Zero, breakdown, nil

	case models.MethodPercentageSales, models.MethodPercentageProfit:
		// Sales and project-profit figures live in systems this engine does
		// not integrate with.
		return decimal.Zero, nil, appErrors.WithDetails(appErrors.ErrBusinessRule,
			fmt.Sprintf("unsupported calculation method %s", rt.CalculationMethod),
			map[string]interface{}{"calculation_method": string(rt.CalculationMethod)})

	default:
		return decimal.Zero, nil, appErrors.WithDetails(appErrors.ErrBusinessRule,
			fmt.Sprintf("unknown calculation method %s", rt.CalculationMethod),
			map[string]interface{}{"calculation_method": string(rt.CalculationMethod)})
	}
}

func (s *CalculationService) calculateSalaryPercentage(ctx context.Context, tenantID, employeeID string, rt *models.RewardType) (decimal.Decimal, models.JSONMap, error) {
	employee, err := s.employees.FindByID(ctx, tenantID, employeeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, nil, appErrors.Clone(appErrors.ErrNotFound, "employee not found")
		}
		return decimal.Zero, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load employee")
	}

	breakdown := models.JSONMap{
		"method":     string(models.MethodPercentageSalary),
		"percentage": rt.Value.String(),
	}

	if employee.BaseSalary == nil {
		breakdown["error"] = "base salary not defined"
		breakdown["amount"] = "0"
		s.logger.Warn("salary percentage reward degraded to zero",
			zap.String("employee_id", employeeID),
			zap.String("reward_type_id", rt.ID))
		return decimal.Zero, breakdown, nil
	}

	raw := employee.BaseSalary.Mul(rt.Value).Div(oneHundred)
	breakdown["base_salary"] = employee.BaseSalary.String()
	breakdown["raw_amount"] = raw.Round(2).String()

	value := raw
	if rt.MaxCap != nil && rt.MaxCap.IsPositive() && raw.GreaterThan(*rt.MaxCap) {
		value = *rt.MaxCap
		breakdown["is_capped"] = true
		breakdown["cap_value"] = rt.MaxCap.String()
	} else {
		breakdown["is_capped"] = false
	}

	value = value.Round(2)
	breakdown["amount"] = value.String()
	return value, breakdown, nil
}
