package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hr-rewards-api/internal/models"
	appErrors "github.com/noah-isme/hr-rewards-api/pkg/errors"
	"github.com/noah-isme/hr-rewards-api/pkg/response"
)

type settingsService interface {
	Get(ctx context.Context, tenantID string) (*models.RewardSettings, error)
	Update(ctx context.Context, tenantID string, requireManagerApproval bool) (*models.RewardSettings, error)
}

// SettingsHandler wires tenant reward settings to HTTP endpoints.
type SettingsHandler struct {
	service settingsService
}

// NewSettingsHandler constructs the handler.
func NewSettingsHandler(service settingsService) *SettingsHandler {
	return &SettingsHandler{service: service}
}

// Get godoc
// @Summary Get tenant reward settings
// @Tags Settings
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /settings/rewards [get]
func (h *SettingsHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	settings, err := h.service.Get(c.Request.Context(), claims.TenantID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings, nil)
}

type updateSettingsRequest struct {
	RequireManagerApproval bool `json:"require_manager_approval"`
}

// Update godoc
// @Summary Update tenant reward settings
// @Tags Settings
// @Accept json
// @Produce json
// @Param payload body updateSettingsRequest true "Settings payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /settings/rewards [put]
func (h *SettingsHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req updateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	settings, err := h.service.Update(c.Request.Context(), claims.TenantID, req.RequireManagerApproval)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings, nil)
}
