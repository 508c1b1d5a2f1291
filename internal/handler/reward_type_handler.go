package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hr-rewards-api/internal/models"
	"github.com/noah-isme/hr-rewards-api/internal/service"
	appErrors "github.com/noah-isme/hr-rewards-api/pkg/errors"
	"github.com/noah-isme/hr-rewards-api/pkg/response"
)

type rewardTypeService interface {
	List(ctx context.Context, filter models.RewardTypeFilter) ([]models.RewardType, *models.Pagination, error)
	Get(ctx context.Context, tenantID, id string) (*models.RewardType, error)
	Create(ctx context.Context, tenantID string, input service.CreateRewardTypeInput) (*models.RewardType, error)
	Update(ctx context.Context, tenantID, id string, input service.UpdateRewardTypeInput) (*models.RewardType, error)
	SetActive(ctx context.Context, tenantID, id string, active bool) error
	Delete(ctx context.Context, tenantID, id string) error
	SeedDefaults(ctx context.Context, tenantID string) (int, error)
}

// RewardTypeHandler wires the reward catalog to HTTP endpoints.
type RewardTypeHandler struct {
	service rewardTypeService
}

// NewRewardTypeHandler constructs the handler.
func NewRewardTypeHandler(service rewardTypeService) *RewardTypeHandler {
	return &RewardTypeHandler{service: service}
}

// List godoc
// @Summary List reward types
// @Tags RewardTypes
// @Produce json
// @Param category query string false "Filter by category"
// @Param trigger query string false "Filter by trigger type"
// @Param active query bool false "Filter by active flag"
// @Param search query string false "Search keyword"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /reward-types [get]
func (h *RewardTypeHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	filter := models.RewardTypeFilter{TenantID: claims.TenantID}
	if raw := strings.TrimSpace(c.Query("category")); raw != "" {
		category := models.RewardCategory(raw)
		filter.Category = &category
	}
	if raw := strings.TrimSpace(c.Query("trigger")); raw != "" {
		trigger := models.TriggerType(raw)
		filter.TriggerType = &trigger
	}
	if raw := strings.TrimSpace(c.Query("active")); raw != "" {
		if active, err := strconv.ParseBool(raw); err == nil {
			filter.Active = &active
		}
	}
	filter.Search = strings.TrimSpace(c.Query("search"))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = limit
	}

	rewardTypes, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rewardTypes, pagination)
}

// Get godoc
// @Summary Get reward type by id
// @Tags RewardTypes
// @Produce json
// @Param id path string true "Reward type ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /reward-types/{id} [get]
func (h *RewardTypeHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	rewardType, err := h.service.Get(c.Request.Context(), claims.TenantID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rewardType, nil)
}

// Create godoc
// @Summary Create reward type
// @Tags RewardTypes
// @Accept json
// @Produce json
// @Param payload body service.CreateRewardTypeInput true "Reward type payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /reward-types [post]
func (h *RewardTypeHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var input service.CreateRewardTypeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	rewardType, err := h.service.Create(c.Request.Context(), claims.TenantID, input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, rewardType)
}

// Update godoc
// @Summary Update reward type
// @Tags RewardTypes
// @Accept json
// @Produce json
// @Param id path string true "Reward type ID"
// @Param payload body service.UpdateRewardTypeInput true "Reward type payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /reward-types/{id} [put]
func (h *RewardTypeHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var input service.UpdateRewardTypeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	rewardType, err := h.service.Update(c.Request.Context(), claims.TenantID, c.Param("id"), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rewardType, nil)
}

type toggleRewardTypeRequest struct {
	Active bool `json:"active"`
}

// Toggle godoc
// @Summary Activate or deactivate a reward type
// @Tags RewardTypes
// @Accept json
// @Produce json
// @Param id path string true "Reward type ID"
// @Param payload body toggleRewardTypeRequest true "Toggle payload"
// @Success 204
// @Security BearerAuth
// @Router /reward-types/{id}/toggle [patch]
func (h *RewardTypeHandler) Toggle(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req toggleRewardTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.service.SetActive(c.Request.Context(), claims.TenantID, c.Param("id"), req.Active); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Delete godoc
// @Summary Delete reward type
// @Tags RewardTypes
// @Produce json
// @Param id path string true "Reward type ID"
// @Success 204
// @Security BearerAuth
// @Router /reward-types/{id} [delete]
func (h *RewardTypeHandler) Delete(c *gin.Context) {
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

// SeedDefaults godoc
// @Summary Seed the default reward catalog
// @Tags RewardTypes
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /reward-types/seed-defaults [post]
func (h *RewardTypeHandler) SeedDefaults(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	seeded, err := h.service.SeedDefaults(c.Request.Context(), claims.TenantID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"seeded": seeded}, nil)
}
