package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/hr-rewards-api/internal/models"
	"github.com/noah-isme/hr-rewards-api/internal/service"
	appErrors "github.com/noah-isme/hr-rewards-api/pkg/errors"
	"github.com/noah-isme/hr-rewards-api/pkg/jobs"
	"github.com/noah-isme/hr-rewards-api/pkg/response"
)

// StreakBatchJobType names the queued streak batch job.
const StreakBatchJobType = "streak-batch"

type streakService interface {
	CurrentStreak(ctx context.Context, tenantID, employeeID string) (int, error)
	CheckAndApply(ctx context.Context, tenantID, employeeID string) ([]models.RewardRecord, error)
	ProcessAllEmployees(ctx context.Context, tenantID string) (*service.StreakRunSummary, error)
}

// StreakHandler exposes the streak trigger. The full batch runs on the job
// queue so the HTTP request returns immediately.
type StreakHandler struct {
	service streakService
	queue   *jobs.Queue
	logger  *zap.Logger
}

// NewStreakHandler constructs the handler.
func NewStreakHandler(service streakService, queue *jobs.Queue, logger *zap.Logger) *StreakHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StreakHandler{service: service, queue: queue, logger: logger}
}

// Check godoc
// @Summary Check one employee's streak and apply matching rewards
// @Tags Streaks
// @Produce json
// @Param id path string true "Employee ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /streaks/employees/{id}/check [post]
func (h *StreakHandler) Check(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	employeeID := c.Param("id")
	streak, err := h.service.CurrentStreak(c.Request.Context(), claims.TenantID, employeeID)
	if err != nil {
		response.Error(c, err)
		return
	}
	applied, err := h.service.CheckAndApply(c.Request.Context(), claims.TenantID, employeeID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"streak": streak, "applied": applied}, nil)
}

// Process godoc
// @Summary Run the streak trigger for all active employees
// @Tags Streaks
// @Produce json
// @Success 202 {object} response.Envelope
// @Security BearerAuth
// @Router /streaks/process [post]
func (h *StreakHandler) Process(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	tenantID := claims.TenantID

	if h.queue == nil {
		summary, err := h.service.ProcessAllEmployees(c.Request.Context(), tenantID)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, summary, nil)
		return
	}

	job := jobs.Job{ID: uuid.NewString(), Type: StreakBatchJobType, Payload: tenantID}
	if err := h.queue.Enqueue(job); err != nil {
		h.logger.Warn("failed to enqueue streak batch", zap.String("tenant_id", tenantID), zap.Error(err))
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue streak batch"))
		return
	}
	response.JSON(c, http.StatusAccepted, gin.H{"job_id": job.ID, "status": "queued"}, nil)
}
