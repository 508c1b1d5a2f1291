package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/hr-rewards-api/internal/models"
)

// KudosRepository manages persistence for peer recognition entries.
type KudosRepository struct {
	db *sqlx.DB
}

// NewKudosRepository constructs a new repository.
func NewKudosRepository(db *sqlx.DB) *KudosRepository {
	return &KudosRepository{db: db}
}

// Create inserts a new kudos entry.
func (r *KudosRepository) Create(ctx context.Context, kudos *models.Kudos) error {
	if kudos.ID == "" {
		kudos.ID = uuid.NewString()
	}
	if kudos.CreatedAt.IsZero() {
		kudos.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO kudos (id, tenant_id, sender_id, receiver_id, reason, points, created_at)
VALUES (:id, :tenant_id, :sender_id, :receiver_id, :reason, :points, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, kudos); err != nil {
		return fmt.Errorf("create kudos: %w", err)
	}
	return nil
}

// List returns kudos entries per provided filter.
func (r *KudosRepository) List(ctx context.Context, filter models.KudosFilter) ([]models.Kudos, int, error) {
	base := "FROM kudos"
	where := []string{"tenant_id = $1"}
	args := []interface{}{filter.TenantID}
	if filter.SenderID != "" {
		where = append(where, fmt.Sprintf("sender_id = $%d", len(args)+1))
		args = append(args, filter.SenderID)
	}
	if filter.ReceiverID != "" {
		where = append(where, fmt.Sprintf("receiver_id = $%d", len(args)+1))
		args = append(args, filter.ReceiverID)
	}
	whereClause := strings.Join(where, " AND ")
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size
	query := fmt.Sprintf(`SELECT id, tenant_id, sender_id, receiver_id, reason, points, created_at
%s WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`, base, whereClause, size, offset)
	var entries []models.Kudos
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list kudos: %w", err)
	}
	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count kudos: %w", err)
	}
	return entries, total, nil
}

// CountForMonth returns how many kudos were sent in a calendar month.
func (r *KudosRepository) CountForMonth(ctx context.Context, tenantID string, month, year int) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM kudos
WHERE tenant_id = $1 AND EXTRACT(MONTH FROM created_at) = $2 AND EXTRACT(YEAR FROM created_at) = $3`
	if err := r.db.GetContext(ctx, &count, query, tenantID, month, year); err != nil {
		return 0, fmt.Errorf("count kudos for month: %w", err)
	}
	return count, nil
}

// SumPointsByReceiver totals kudos points an employee has received.
func (r *KudosRepository) SumPointsByReceiver(ctx context.Context, tenantID, receiverID string) (int, error) {
	var total int
	query := "SELECT COALESCE(SUM(points), 0) FROM kudos WHERE tenant_id = $1 AND receiver_id = $2"
	if err := r.db.GetContext(ctx, &total, query, tenantID, receiverID); err != nil {
		return 0, fmt.Errorf("sum kudos points: %w", err)
	}
	return total, nil
}
