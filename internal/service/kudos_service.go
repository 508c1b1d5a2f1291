package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/hr-rewards-api/internal/models"
	appErrors "github.com/noah-isme/hr-rewards-api/pkg/errors"
)

type kudosRepo interface {
	Create(ctx context.Context, kudos *models.Kudos) error
	List(ctx context.Context, filter models.KudosFilter) ([]models.Kudos, int, error)
}

type kudosEmployeeReader interface {
	FindByID(ctx context.Context, tenantID, id string) (*models.Employee, error)
}

// SendKudosInput describes one peer recognition.
type SendKudosInput struct {
	ReceiverID string `json:"receiver_id" validate:"required,uuid"`
	Reason     string `json:"reason" validate:"required,min=2,max=500"`
	Points     int    `json:"points" validate:"min=0,max=100"`
}

// KudosService manages peer-to-peer recognition.
type KudosService struct {
	kudos     kudosRepo
	employees kudosEmployeeReader
	validate  *validator.Validate
	logger    *zap.Logger
}

// NewKudosService constructs the service.
func NewKudosService(kudos kudosRepo, employees kudosEmployeeReader, validate *validator.Validate, logger *zap.Logger) *KudosService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KudosService{kudos: kudos, employees: employees, validate: validate, logger: logger}
}

// Send records one kudos from sender to receiver.
func (s *KudosService) Send(ctx context.Context, tenantID, senderID string, input SendKudosInput) (*models.Kudos, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if input.ReceiverID == senderID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cannot send kudos to yourself")
	}
	if _, err := s.employees.FindByID(ctx, tenantID, input.ReceiverID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "receiver not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load receiver")
	}

	kudos := &models.Kudos{
		ID:         uuid.NewString(),
		TenantID:   tenantID,
		SenderID:   senderID,
		ReceiverID: input.ReceiverID,
		Reason:     input.Reason,
		Points:     input.Points,
	}
	if err := s.kudos.Create(ctx, kudos); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create kudos")
	}
	s.logger.Info("kudos sent",
		zap.String("sender_id", senderID),
		zap.String("receiver_id", input.ReceiverID),
		zap.Int("points", input.Points))
	return kudos, nil
}

// List returns kudos matching the filter.
func (s *KudosService) List(ctx context.Context, filter models.KudosFilter) ([]models.Kudos, *models.Pagination, error) {
	kudos, total, err := s.kudos.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list kudos")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return kudos, pagination, nil
}
