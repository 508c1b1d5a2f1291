package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/hr-rewards-api/internal/middleware"
	"github.com/noah-isme/hr-rewards-api/internal/models"
	"github.com/noah-isme/hr-rewards-api/internal/service"
	appErrors "github.com/noah-isme/hr-rewards-api/pkg/errors"
)

type rewardServiceMock struct {
	applyResp    *models.RewardRecord
	applyErr     error
	approveResp  *models.RewardRecord
	approveErr   error
	listResp     []models.RewardRecord
	lastFilter   models.RewardRecordFilter
	lastInput    service.ApplyRewardInput
	applyCalled  bool
	listCalled   bool
	deleteCalled bool
}

func (m *rewardServiceMock) Apply(ctx context.Context, tenantID, actorID string, input service.ApplyRewardInput) (*models.RewardRecord, error) {
	m.applyCalled = true
	m.lastInput = input
	return m.applyResp, m.applyErr
}

func (m *rewardServiceMock) ApplyBulk(ctx context.Context, tenantID, actorID string, input service.BulkApplyRewardInput) (*models.BulkApplyOutcome, error) {
	return &models.BulkApplyOutcome{}, nil
}

func (m *rewardServiceMock) CreateManual(ctx context.Context, tenantID, actorID string, input service.CreateManualRewardInput) (*models.RewardRecord, error) {
	return m.applyResp, m.applyErr
}

func (m *rewardServiceMock) Approve(ctx context.Context, tenantID, recordID, approverID string) (*models.RewardRecord, error) {
	return m.approveResp, m.approveErr
}

func (m *rewardServiceMock) Reject(ctx context.Context, tenantID, recordID, rejecterID, reason string) (*models.RewardRecord, error) {
	return m.approveResp, m.approveErr
}

func (m *rewardServiceMock) Void(ctx context.Context, tenantID, recordID, voiderID, reason string) (*models.RewardRecord, error) {
	return m.approveResp, m.approveErr
}

func (m *rewardServiceMock) Update(ctx context.Context, tenantID, recordID string, input service.UpdateRewardInput) (*models.RewardRecord, error) {
	return m.approveResp, m.approveErr
}

func (m *rewardServiceMock) Delete(ctx context.Context, tenantID, recordID string) error {
	m.deleteCalled = true
	return nil
}

func (m *rewardServiceMock) Get(ctx context.Context, tenantID, recordID string) (*models.RewardRecord, error) {
	return m.approveResp, m.approveErr
}

func (m *rewardServiceMock) List(ctx context.Context, filter models.RewardRecordFilter) ([]models.RewardRecord, *models.Pagination, error) {
	m.listCalled = true
	m.lastFilter = filter
	return m.listResp, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: len(m.listResp)}, nil
}

func managerContext(t *testing.T, method, target string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var req *http.Request
	if body != nil {
		req, _ = http.NewRequest(method, target, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, _ = http.NewRequest(method, target, nil)
	}
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "manager-1", TenantID: "t1", Role: models.RoleManager})
	return c, w
}

func TestRewardHandlerListParsesFilters(t *testing.T) {
	mockSvc := &rewardServiceMock{listResp: []models.RewardRecord{{ID: "rec-1"}}}
	handler := NewRewardHandler(mockSvc)

	c, w := managerContext(t, http.MethodGet, "/rewards?status=APPROVED&month=1&year=2024&page=2&limit=10", nil)
	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, mockSvc.listCalled)
	assert.Equal(t, "t1", mockSvc.lastFilter.TenantID)
	require.NotNil(t, mockSvc.lastFilter.Status)
	assert.Equal(t, models.StatusApproved, *mockSvc.lastFilter.Status)
	require.NotNil(t, mockSvc.lastFilter.Month)
	assert.Equal(t, 1, *mockSvc.lastFilter.Month)
	assert.Equal(t, 2, mockSvc.lastFilter.Page)
	assert.Equal(t, 10, mockSvc.lastFilter.PageSize)
}

func TestRewardHandlerListRejectsUnknownStatus(t *testing.T) {
	mockSvc := &rewardServiceMock{}
	handler := NewRewardHandler(mockSvc)

	c, w := managerContext(t, http.MethodGet, "/rewards?status=MYSTERY", nil)
	handler.List(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, mockSvc.listCalled)
}

func TestRewardHandlerApply(t *testing.T) {
	mockSvc := &rewardServiceMock{applyResp: &models.RewardRecord{ID: "rec-1", Status: models.StatusApproved}}
	handler := NewRewardHandler(mockSvc)

	payload, _ := json.Marshal(service.ApplyRewardInput{
		EmployeeID:   uuid.NewString(),
		RewardTypeID: uuid.NewString(),
		PeriodStart:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:    time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
	})
	c, w := managerContext(t, http.MethodPost, "/rewards/apply", payload)
	handler.Apply(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, mockSvc.applyCalled)
	assert.False(t, mockSvc.lastInput.SkipEligibilityCheck)
}

func TestRewardHandlerApplyInvalidBody(t *testing.T) {
	mockSvc := &rewardServiceMock{}
	handler := NewRewardHandler(mockSvc)

	c, w := managerContext(t, http.MethodPost, "/rewards/apply", []byte(`{"employee_id":`))
	handler.Apply(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, mockSvc.applyCalled)
}

func TestRewardHandlerApplyBusinessRuleError(t *testing.T) {
	mockSvc := &rewardServiceMock{applyErr: appErrors.Clone(appErrors.ErrBusinessRule, "employee is not eligible")}
	handler := NewRewardHandler(mockSvc)

	payload, _ := json.Marshal(service.ApplyRewardInput{
		EmployeeID:   uuid.NewString(),
		RewardTypeID: uuid.NewString(),
		PeriodStart:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:    time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
	})
	c, w := managerContext(t, http.MethodPost, "/rewards/apply", payload)
	handler.Apply(c)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestRewardHandlerVoidPayrollConflict(t *testing.T) {
	mockSvc := &rewardServiceMock{approveErr: appErrors.Clone(appErrors.ErrPayrollLocked, "record is included in a payroll run and cannot be voided")}
	handler := NewRewardHandler(mockSvc)

	payload, _ := json.Marshal(reasonRequest{Reason: "granted in error"})
	c, w := managerContext(t, http.MethodPost, "/rewards/rec-1/void", payload)
	c.Params = gin.Params{{Key: "id", Value: "rec-1"}}
	handler.Void(c)

	require.Equal(t, http.StatusConflict, w.Code)
}

func TestRewardHandlerUnauthenticated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewRewardHandler(&rewardServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/rewards", nil)
	c.Request = req

	handler.List(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRewardHandlerDelete(t *testing.T) {
	mockSvc := &rewardServiceMock{}
	handler := NewRewardHandler(mockSvc)

	c, w := managerContext(t, http.MethodDelete, "/rewards/rec-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "rec-1"}}
	handler.Delete(c)
	c.Writer.WriteHeaderNow()

	require.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, mockSvc.deleteCalled)
}
