package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/hr-rewards-api/internal/models"
)

func newRewardTypeRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	cleanup := func() {
		_ = sqlxDB.Close()
		db.Close()
	}
	return sqlxDB, mock, cleanup
}

func rewardTypeRow(id string, conditions []byte) *sqlmock.Rows {
	now := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	return sqlmock.NewRows([]string{
		"id", "tenant_id", "name", "description", "category", "calculation_method",
		"value", "max_cap", "conditions", "trigger_type", "frequency", "active",
		"priority", "effective_from", "effective_to", "created_at", "updated_at",
	}).AddRow(
		id, "t1", "Perfect Attendance Streak", sql.NullString{}, "ATTENDANCE", "FIXED_AMOUNT",
		"200", sql.NullString{}, conditions, "AUTOMATIC", "MONTHLY", true,
		0, sql.NullTime{}, sql.NullTime{}, now, now,
	)
}

func TestRewardTypeRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRewardTypeRepoMock(t)
	defer cleanup()
	repo := NewRewardTypeRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM reward_types WHERE tenant_id = $1 AND id = $2")).
		WithArgs("t1", "rt-1").
		WillReturnRows(rewardTypeRow("rt-1", []byte(`{"attendance":{"min_streak":20}}`)))

	rt, err := repo.FindByID(context.Background(), "t1", "rt-1")
	require.NoError(t, err)
	assert.Equal(t, models.CategoryAttendance, rt.Category)
	assert.Equal(t, models.TriggerAutomatic, rt.TriggerType)
	require.NotNil(t, rt.Conditions.Attendance)
	require.NotNil(t, rt.Conditions.Attendance.MinStreak)
	assert.Equal(t, 20, *rt.Conditions.Attendance.MinStreak)
}

func TestRewardTypeRepositoryMalformedConditions(t *testing.T) {
	db, mock, cleanup := newRewardTypeRepoMock(t)
	defer cleanup()
	repo := NewRewardTypeRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM reward_types WHERE tenant_id = $1 AND id = $2")).
		WithArgs("t1", "rt-1").
		WillReturnRows(rewardTypeRow("rt-1", []byte(`{"attendance":`)))

	rt, err := repo.FindByID(context.Background(), "t1", "rt-1")
	require.NoError(t, err)
	assert.True(t, rt.Conditions.Invalid, "malformed conditions load flagged, not as an error")
}

func TestRewardTypeRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newRewardTypeRepoMock(t)
	defer cleanup()
	repo := NewRewardTypeRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM reward_types")).
		WithArgs("t1", "rt-99").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "t1", "rt-99")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestRewardTypeRepositoryListAutomatic(t *testing.T) {
	db, mock, cleanup := newRewardTypeRepoMock(t)
	defer cleanup()
	repo := NewRewardTypeRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("trigger_type = $3 AND active = TRUE")).
		WithArgs("t1", "ATTENDANCE", "AUTOMATIC").
		WillReturnRows(rewardTypeRow("rt-1", []byte(`{"attendance":{"min_streak":20}}`)))

	types, err := repo.ListAutomatic(context.Background(), "t1", models.CategoryAttendance)
	require.NoError(t, err)
	require.Len(t, types, 1)
	assert.Equal(t, "rt-1", types[0].ID)
}

func TestRewardTypeRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newRewardTypeRepoMock(t)
	defer cleanup()
	repo := NewRewardTypeRepository(db)

	active := true
	mock.ExpectQuery(regexp.QuoteMeta("tenant_id = $1 AND active = $2 AND name ILIKE $3")).
		WithArgs("t1", true, "%streak%").
		WillReturnRows(rewardTypeRow("rt-1", []byte(`{}`)))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM reward_types WHERE")).
		WithArgs("t1", true, "%streak%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	types, total, err := repo.List(context.Background(), models.RewardTypeFilter{
		TenantID: "t1",
		Active:   &active,
		Search:   "streak",
		Page:     1,
		PageSize: 50,
	})
	require.NoError(t, err)
	require.Len(t, types, 1)
	assert.Equal(t, 1, total)
}

func TestRewardTypeRepositorySetActiveMissing(t *testing.T) {
	db, mock, cleanup := newRewardTypeRepoMock(t)
	defer cleanup()
	repo := NewRewardTypeRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE reward_types SET active = $1")).
		WithArgs(false, sqlmock.AnyArg(), "t1", "rt-99").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetActive(context.Background(), "t1", "rt-99", false)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestRewardTypeRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newRewardTypeRepoMock(t)
	defer cleanup()
	repo := NewRewardTypeRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM reward_types WHERE tenant_id = $1 AND id = $2")).
		WithArgs("t1", "rt-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "t1", "rt-1"))
}
