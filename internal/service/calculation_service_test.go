package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/hr-rewards-api/internal/models"
	appErrors "github.com/noah-isme/hr-rewards-api/pkg/errors"
)

type employeeReaderStub struct {
	employees map[string]*models.Employee
	err       error
}

func (s employeeReaderStub) FindByID(ctx context.Context, tenantID, id string) (*models.Employee, error) {
	if s.err != nil {
		return nil, s.err
	}
	if employee, ok := s.employees[id]; ok {
		return employee, nil
	}
	return nil, sql.ErrNoRows
}

func decimalPtr(v decimal.Decimal) *decimal.Decimal { return &v }

func TestCalculationServiceFixedAmount(t *testing.T) {
	svc := NewCalculationService(employeeReaderStub{}, nil)

	rt := &models.RewardType{
		CalculationMethod: models.MethodFixedAmount,
		Value:             decimal.NewFromInt(500),
	}

	value, breakdown, err := svc.Calculate(context.Background(), "t1", "e1", rt)
	require.NoError(t, err)
	assert.True(t, value.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, "FIXED_AMOUNT", breakdown["method"])
	assert.Equal(t, "500", breakdown["amount"])
}

func TestCalculationServicePercentageSalaryCapped(t *testing.T) {
	salary := decimal.NewFromInt(4000)
	svc := NewCalculationService(employeeReaderStub{
		employees: map[string]*models.Employee{
			"e1": {ID: "e1", BaseSalary: &salary},
		},
	}, nil)

	rt := &models.RewardType{
		CalculationMethod: models.MethodPercentageSalary,
		Value:             decimal.NewFromInt(10),
		MaxCap:            decimalPtr(decimal.NewFromInt(300)),
	}

	value, breakdown, err := svc.Calculate(context.Background(), "t1", "e1", rt)
	require.NoError(t, err)
	assert.True(t, value.Equal(decimal.NewFromInt(300)), "10%% of 4000 must cap at 300, got %s", value)
	assert.Equal(t, true, breakdown["is_capped"])
	assert.Equal(t, "300", breakdown["cap_value"])
	assert.Equal(t, "400", breakdown["raw_amount"])
}

func TestCalculationServicePercentageSalaryUncapped(t *testing.T) {
	salary := decimal.NewFromInt(2000)
	svc := NewCalculationService(employeeReaderStub{
		employees: map[string]*models.Employee{
			"e1": {ID: "e1", BaseSalary: &salary},
		},
	}, nil)

	rt := &models.RewardType{
		CalculationMethod: models.MethodPercentageSalary,
		Value:             decimal.NewFromInt(10),
		MaxCap:            decimalPtr(decimal.NewFromInt(300)),
	}

	value, breakdown, err := svc.Calculate(context.Background(), "t1", "e1", rt)
	require.NoError(t, err)
	assert.True(t, value.Equal(decimal.NewFromInt(200)))
	assert.Equal(t, false, breakdown["is_capped"])
}

func TestCalculationServiceMissingSalaryDegradesToZero(t *testing.T) {
	svc := NewCalculationService(employeeReaderStub{
		employees: map[string]*models.Employee{
			"e1": {ID: "e1"},
		},
	}, nil)

	rt := &models.RewardType{
		CalculationMethod: models.MethodPercentageSalary,
		Value:             decimal.NewFromInt(10),
	}

	value, breakdown, err := svc.Calculate(context.Background(), "t1", "e1", rt)
	require.NoError(t, err)
	assert.True(t, value.IsZero())
	assert.Equal(t, "base salary not defined", breakdown["error"])
}

func TestCalculationServiceNonMonetary(t *testing.T) {
	svc := NewCalculationService(employeeReaderStub{}, nil)

	rt := &models.RewardType{
		Name:              "Extra Day Off",
		CalculationMethod: models.MethodNonMonetary,
	}

	value, breakdown, err := svc.Calculate(context.Background(), "t1", "e1", rt)
	require.NoError(t, err)
	assert.True(t, value.IsZero())
	assert.Equal(t, "Extra Day Off", breakdown["description"])
}

func TestCalculationServiceUnsupportedMethods(t *testing.T) {
	svc := NewCalculationService(employeeReaderStub{}, nil)

	for _, method := range []models.CalculationMethod{models.MethodPercentageSales, models.MethodPercentageProfit, "MYSTERY"} {
		rt := &models.RewardType{CalculationMethod: method, Value: decimal.NewFromInt(5)}
		_, _, err := svc.Calculate(context.Background(), "t1", "e1", rt)
		require.Error(t, err)
		appErr := appErrors.FromError(err)
		assert.Equal(t, appErrors.ErrBusinessRule.Code, appErr.Code, "method %s", method)
	}
}
