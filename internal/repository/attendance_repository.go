package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/hr-rewards-api/internal/models"
)

const attendanceColumns = `id, tenant_id, employee_id, date, status, late_minutes`

// AttendanceRepository is a read-only view over attendance rows.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs a new repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// ListByPeriod returns attendance rows within [from, to], oldest first.
func (r *AttendanceRepository) ListByPeriod(ctx context.Context, tenantID, employeeID string, from, to time.Time) ([]models.AttendanceRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM attendance_records
WHERE tenant_id = $1 AND employee_id = $2 AND date >= $3 AND date <= $4 ORDER BY date`, attendanceColumns)
	var rows []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &rows, query, tenantID, employeeID, from, to); err != nil {
		return nil, fmt.Errorf("list attendance by period: %w", err)
	}
	return rows, nil
}

// ListRecent returns the most recent attendance rows up to the given number
// of days back, newest first. The streak calculator walks this window.
func (r *AttendanceRepository) ListRecent(ctx context.Context, tenantID, employeeID string, days int) ([]models.AttendanceRecord, error) {
	if days <= 0 {
		days = 60
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	query := fmt.Sprintf(`SELECT %s FROM attendance_records
WHERE tenant_id = $1 AND employee_id = $2 AND date >= $3 ORDER BY date DESC`, attendanceColumns)
	var rows []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &rows, query, tenantID, employeeID, cutoff); err != nil {
		return nil, fmt.Errorf("list recent attendance: %w", err)
	}
	return rows, nil
}
