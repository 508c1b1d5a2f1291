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

type kudosService interface {
	Send(ctx context.Context, tenantID, senderID string, input service.SendKudosInput) (*models.Kudos, error)
	List(ctx context.Context, filter models.KudosFilter) ([]models.Kudos, *models.Pagination, error)
}

// KudosHandler wires peer recognition to HTTP endpoints.
type KudosHandler struct {
	service kudosService
}

// NewKudosHandler constructs the handler.
func NewKudosHandler(service kudosService) *KudosHandler {
	return &KudosHandler{service: service}
}

// Send godoc
// @Summary Send kudos to a colleague
// @Tags Kudos
// @Accept json
// @Produce json
// @Param payload body service.SendKudosInput true "Kudos payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /kudos [post]
func (h *KudosHandler) Send(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var input service.SendKudosInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	kudos, err := h.service.Send(c.Request.Context(), claims.TenantID, claims.UserID, input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, kudos)
}

// List godoc
// @Summary List kudos
// @Tags Kudos
// @Produce json
// @Param senderId query string false "Filter by sender"
// @Param receiverId query string false "Filter by receiver"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /kudos [get]
func (h *KudosHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	filter := models.KudosFilter{TenantID: claims.TenantID}
	filter.SenderID = strings.TrimSpace(c.Query("senderId"))
	filter.ReceiverID = strings.TrimSpace(c.Query("receiverId"))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = limit
	}

	kudos, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, kudos, pagination)
}
