package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hr-rewards-api/internal/models"
	"github.com/noah-isme/hr-rewards-api/internal/service"
	appErrors "github.com/noah-isme/hr-rewards-api/pkg/errors"
	"github.com/noah-isme/hr-rewards-api/pkg/response"
)

type rewardService interface {
	Apply(ctx context.Context, tenantID, actorID string, input service.ApplyRewardInput) (*models.RewardRecord, error)
	ApplyBulk(ctx context.Context, tenantID, actorID string, input service.BulkApplyRewardInput) (*models.BulkApplyOutcome, error)
	CreateManual(ctx context.Context, tenantID, actorID string, input service.CreateManualRewardInput) (*models.RewardRecord, error)
	Approve(ctx context.Context, tenantID, recordID, approverID string) (*models.RewardRecord, error)
	Reject(ctx context.Context, tenantID, recordID, rejecterID, reason string) (*models.RewardRecord, error)
	Void(ctx context.Context, tenantID, recordID, voiderID, reason string) (*models.RewardRecord, error)
	Update(ctx context.Context, tenantID, recordID string, input service.UpdateRewardInput) (*models.RewardRecord, error)
	Delete(ctx context.Context, tenantID, recordID string) error
	Get(ctx context.Context, tenantID, recordID string) (*models.RewardRecord, error)
	List(ctx context.Context, filter models.RewardRecordFilter) ([]models.RewardRecord, *models.Pagination, error)
}

// RewardHandler wires the reward lifecycle to HTTP endpoints.
type RewardHandler struct {
	service rewardService
}

// NewRewardHandler constructs the handler.
func NewRewardHandler(service rewardService) *RewardHandler {
	return &RewardHandler{service: service}
}

// List godoc
// @Summary List reward records
// @Tags Rewards
// @Produce json
// @Param employeeId query string false "Filter by employee"
// @Param rewardTypeId query string false "Filter by reward type"
// @Param category query string false "Filter by category"
// @Param status query string false "Filter by status"
// @Param month query int false "Filter by applied month"
// @Param year query int false "Filter by applied year"
// @Param search query string false "Search keyword"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /rewards [get]
func (h *RewardHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	filter := models.RewardRecordFilter{TenantID: claims.TenantID}
	filter.EmployeeID = strings.TrimSpace(c.Query("employeeId"))
	filter.RewardTypeID = strings.TrimSpace(c.Query("rewardTypeId"))
	if raw := strings.TrimSpace(c.Query("category")); raw != "" {
		category := models.RewardCategory(raw)
		filter.Category = &category
	}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status := models.RewardStatus(raw)
		if !status.Valid() {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid status filter"))
			return
		}
		filter.Status = &status
	}
	if raw := strings.TrimSpace(c.Query("month")); raw != "" {
		if month, err := strconv.Atoi(raw); err == nil {
			filter.Month = &month
		}
	}
	if raw := strings.TrimSpace(c.Query("year")); raw != "" {
		if year, err := strconv.Atoi(raw); err == nil {
			filter.Year = &year
		}
	}
	filter.Search = strings.TrimSpace(c.Query("search"))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = limit
	}

	records, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, pagination)
}

// Get godoc
// @Summary Get reward record by id
// @Tags Rewards
// @Produce json
// @Param id path string true "Record ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /rewards/{id} [get]
func (h *RewardHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	record, err := h.service.Get(c.Request.Context(), claims.TenantID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Apply godoc
// @Summary Apply a reward to one employee
// @Tags Rewards
// @Accept json
// @Produce json
// @Param payload body service.ApplyRewardInput true "Application payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /rewards/apply [post]
func (h *RewardHandler) Apply(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var input service.ApplyRewardInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.service.Apply(c.Request.Context(), claims.TenantID, claims.UserID, input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// ApplyBulk godoc
// @Summary Apply a reward to many employees
// @Tags Rewards
// @Accept json
// @Produce json
// @Param payload body service.BulkApplyRewardInput true "Bulk application payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /rewards/apply-bulk [post]
func (h *RewardHandler) ApplyBulk(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var input service.BulkApplyRewardInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	outcome, err := h.service.ApplyBulk(c.Request.Context(), claims.TenantID, claims.UserID, input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, outcome, nil)
}

// CreateManual godoc
// @Summary Create an ad-hoc reward record
// @Tags Rewards
// @Accept json
// @Produce json
// @Param payload body service.CreateManualRewardInput true "Manual record payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /rewards [post]
func (h *RewardHandler) CreateManual(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var input service.CreateManualRewardInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.service.CreateManual(c.Request.Context(), claims.TenantID, claims.UserID, input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// Approve godoc
// @Summary Approve a pending reward record
// @Tags Rewards
// @Produce json
// @Param id path string true "Record ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /rewards/{id}/approve [post]
func (h *RewardHandler) Approve(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	record, err := h.service.Approve(c.Request.Context(), claims.TenantID, c.Param("id"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

// Reject godoc
// @Summary Reject a pending reward record
// @Tags Rewards
// @Accept json
// @Produce json
// @Param id path string true "Record ID"
// @Param payload body reasonRequest true "Rejection reason"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /rewards/{id}/reject [post]
func (h *RewardHandler) Reject(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req reasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.service.Reject(c.Request.Context(), claims.TenantID, c.Param("id"), claims.UserID, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Void godoc
// @Summary Void a pending or approved reward record
// @Tags Rewards
// @Accept json
// @Produce json
// @Param id path string true "Record ID"
// @Param payload body reasonRequest true "Void reason"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /rewards/{id}/void [post]
func (h *RewardHandler) Void(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req reasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.service.Void(c.Request.Context(), claims.TenantID, c.Param("id"), claims.UserID, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Update godoc
// @Summary Update a pending reward record
// @Tags Rewards
// @Accept json
// @Produce json
// @Param id path string true "Record ID"
// @Param payload body service.UpdateRewardInput true "Update payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /rewards/{id} [put]
func (h *RewardHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var input service.UpdateRewardInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.service.Update(c.Request.Context(), claims.TenantID, c.Param("id"), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Delete godoc
// @Summary Delete a pending reward record
// @Tags Rewards
// @Produce json
// @Param id path string true "Record ID"
// @Success 204
// @Security BearerAuth
// @Router /rewards/{id} [delete]
func (h *RewardHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.Delete(c.Request.Context(), claims.TenantID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func parseDateParam(c *gin.Context, name string) (time.Time, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return time.Time{}, false
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}
