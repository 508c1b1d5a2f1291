package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/hr-rewards-api/internal/models"
)

const rewardTypeColumns = `id, tenant_id, name, description, category, calculation_method, value, max_cap, conditions, trigger_type, frequency, active, priority, effective_from, effective_to, created_at, updated_at`

// RewardTypeRepository manages persistence for reward type templates.
type RewardTypeRepository struct {
	db *sqlx.DB
}

// NewRewardTypeRepository constructs a new repository.
func NewRewardTypeRepository(db *sqlx.DB) *RewardTypeRepository {
	return &RewardTypeRepository{db: db}
}

// List returns reward types per provided filter.
func (r *RewardTypeRepository) List(ctx context.Context, filter models.RewardTypeFilter) ([]models.RewardType, int, error) {
	base := "FROM reward_types"
	where := []string{"tenant_id = $1"}
	args := []interface{}{filter.TenantID}
	if filter.Category != nil {
		where = append(where, fmt.Sprintf("category = $%d", len(args)+1))
		args = append(args, string(*filter.Category))
	}
	if filter.TriggerType != nil {
		where = append(where, fmt.Sprintf("trigger_type = $%d", len(args)+1))
		args = append(args, string(*filter.TriggerType))
	}
	if filter.Active != nil {
		where = append(where, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		where = append(where, fmt.Sprintf("name ILIKE $%d", len(args)+1))
		args = append(args, "%"+filter.Search+"%")
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
	query := fmt.Sprintf(`SELECT %s
%s WHERE %s ORDER BY priority DESC, created_at DESC LIMIT %d OFFSET %d`, rewardTypeColumns, base, whereClause, size, offset)
	var types []models.RewardType
	if err := r.db.SelectContext(ctx, &types, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list reward types: %w", err)
	}
	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count reward types: %w", err)
	}
	return types, total, nil
}

// FindByID loads one reward type scoped by tenant.
func (r *RewardTypeRepository) FindByID(ctx context.Context, tenantID, id string) (*models.RewardType, error) {
	query := fmt.Sprintf("SELECT %s FROM reward_types WHERE tenant_id = $1 AND id = $2", rewardTypeColumns)
	var rt models.RewardType
	if err := r.db.GetContext(ctx, &rt, query, tenantID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find reward type: %w", err)
	}
	return &rt, nil
}

// ListAutomatic returns active AUTOMATIC reward types for a category,
// ordered by priority. The streak trigger consumes this.
func (r *RewardTypeRepository) ListAutomatic(ctx context.Context, tenantID string, category models.RewardCategory) ([]models.RewardType, error) {
	query := fmt.Sprintf(`SELECT %s FROM reward_types
WHERE tenant_id = $1 AND category = $2 AND trigger_type = $3 AND active = TRUE
ORDER BY priority DESC`, rewardTypeColumns)
	var types []models.RewardType
	if err := r.db.SelectContext(ctx, &types, query, tenantID, string(category), string(models.TriggerAutomatic)); err != nil {
		return nil, fmt.Errorf("list automatic reward types: %w", err)
	}
	return types, nil
}

// Create inserts a new reward type.
func (r *RewardTypeRepository) Create(ctx context.Context, rt *models.RewardType) error {
	if rt.ID == "" {
		rt.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if rt.CreatedAt.IsZero() {
		rt.CreatedAt = now
	}
	rt.UpdatedAt = now
	query := `INSERT INTO reward_types (id, tenant_id, name, description, category, calculation_method, value, max_cap, conditions, trigger_type, frequency, active, priority, effective_from, effective_to, created_at, updated_at)
VALUES (:id, :tenant_id, :name, :description, :category, :calculation_method, :value, :max_cap, :conditions, :trigger_type, :frequency, :active, :priority, :effective_from, :effective_to, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, rt); err != nil {
		return fmt.Errorf("create reward type: %w", err)
	}
	return nil
}

// Update modifies an existing reward type.
func (r *RewardTypeRepository) Update(ctx context.Context, rt *models.RewardType) error {
	rt.UpdatedAt = time.Now().UTC()
	query := `UPDATE reward_types SET name = :name, description = :description, category = :category, calculation_method = :calculation_method, value = :value, max_cap = :max_cap, conditions = :conditions, trigger_type = :trigger_type, frequency = :frequency, active = :active, priority = :priority, effective_from = :effective_from, effective_to = :effective_to, updated_at = :updated_at
WHERE tenant_id = :tenant_id AND id = :id`
	result, err := r.db.NamedExecContext(ctx, query, rt)
	if err != nil {
		return fmt.Errorf("update reward type: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetActive toggles the active flag.
func (r *RewardTypeRepository) SetActive(ctx context.Context, tenantID, id string, active bool) error {
	result, err := r.db.ExecContext(ctx, "UPDATE reward_types SET active = $1, updated_at = $2 WHERE tenant_id = $3 AND id = $4",
		active, time.Now().UTC(), tenantID, id)
	if err != nil {
		return fmt.Errorf("toggle reward type: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a reward type. Callers must check the record count first.
func (r *RewardTypeRepository) Delete(ctx context.Context, tenantID, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM reward_types WHERE tenant_id = $1 AND id = $2", tenantID, id)
	if err != nil {
		return fmt.Errorf("delete reward type: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
