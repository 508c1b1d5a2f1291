package handler

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hr-rewards-api/internal/middleware"
	"github.com/noah-isme/hr-rewards-api/internal/models"
	"github.com/noah-isme/hr-rewards-api/internal/service"
	appErrors "github.com/noah-isme/hr-rewards-api/pkg/errors"
	"github.com/noah-isme/hr-rewards-api/pkg/response"
)

type reportingService interface {
	MonthlyReport(ctx context.Context, tenantID string, month, year int) (*models.MonthlyRewardReport, bool, error)
	CostAnalysis(ctx context.Context, tenantID string, from, to time.Time) (*models.CostAnalysis, bool, error)
	EmployeeHistory(ctx context.Context, tenantID, employeeID string) (*models.EmployeeRewardHistory, error)
	ExportMonthly(ctx context.Context, tenantID string, month, year int, format string) (*service.ReportExport, error)
	OpenExport(token string) (*os.File, string, error)
}

// ReportingHandler wires the reporting aggregates to HTTP endpoints.
type ReportingHandler struct {
	service reportingService
}

// NewReportingHandler constructs the handler.
func NewReportingHandler(service reportingService) *ReportingHandler {
	return &ReportingHandler{service: service}
}

// Monthly godoc
// @Summary Monthly reward report
// @Tags Reports
// @Produce json
// @Param month query int true "Month (1-12)"
// @Param year query int true "Year"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /reports/monthly [get]
func (h *ReportingHandler) Monthly(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	month, year, ok := monthYearParams(c)
	if !ok {
		return
	}
	report, cacheHit, err := h.service.MonthlyReport(c.Request.Context(), claims.TenantID, month, year)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, report, nil, middleware.ExtractMeta(c))
}

// CostAnalysis godoc
// @Summary Reward cost analysis over a date range
// @Tags Reports
// @Produce json
// @Param from query string true "Range start (YYYY-MM-DD)"
// @Param to query string true "Range end (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /reports/cost-analysis [get]
func (h *ReportingHandler) CostAnalysis(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	from, ok := parseDateParam(c, "from")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "from is required as YYYY-MM-DD"))
		return
	}
	to, ok := parseDateParam(c, "to")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "to is required as YYYY-MM-DD"))
		return
	}
	analysis, cacheHit, err := h.service.CostAnalysis(c.Request.Context(), claims.TenantID, from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, analysis, nil, middleware.ExtractMeta(c))
}

// EmployeeHistory godoc
// @Summary Reward history for one employee
// @Tags Reports
// @Produce json
// @Param id path string true "Employee ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /reports/employees/{id}/history [get]
func (h *ReportingHandler) EmployeeHistory(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	history, err := h.service.EmployeeHistory(c.Request.Context(), claims.TenantID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, history, nil)
}

// ExportMonthly godoc
// @Summary Export the monthly report as CSV or PDF
// @Tags Reports
// @Produce json
// @Param month query int true "Month (1-12)"
// @Param year query int true "Year"
// @Param format query string true "csv or pdf"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /reports/monthly/export [get]
func (h *ReportingHandler) ExportMonthly(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	month, year, ok := monthYearParams(c)
	if !ok {
		return
	}
	format := strings.ToLower(strings.TrimSpace(c.DefaultQuery("format", "csv")))
	export, err := h.service.ExportMonthly(c.Request.Context(), claims.TenantID, month, year, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, export, nil)
}

// Download godoc
// @Summary Download an exported report via signed token
// @Tags Reports
// @Produce octet-stream
// @Param token query string true "Signed download token"
// @Success 200
// @Router /reports/download [get]
func (h *ReportingHandler) Download(c *gin.Context) {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	file, filename, err := h.service.OpenExport(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Header("Content-Type", "application/octet-stream")
	c.File(file.Name())
}

func monthYearParams(c *gin.Context) (int, int, bool) {
	month, err := strconv.Atoi(c.Query("month"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "month is required"))
		return 0, 0, false
	}
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "year is required"))
		return 0, 0, false
	}
	return month, year, true
}
