package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/hr-rewards-api/internal/models"
	appErrors "github.com/noah-isme/hr-rewards-api/pkg/errors"
)

type rewardTypeRepoStub struct {
	rewardTypes map[string]*models.RewardType
	created     []*models.RewardType
	deleted     []string
	toggled     map[string]bool
}

func newRewardTypeRepoStub(rts ...*models.RewardType) *rewardTypeRepoStub {
	stub := &rewardTypeRepoStub{rewardTypes: map[string]*models.RewardType{}, toggled: map[string]bool{}}
	for _, rt := range rts {
		stub.rewardTypes[rt.ID] = rt
	}
	return stub
}

func (s *rewardTypeRepoStub) List(ctx context.Context, filter models.RewardTypeFilter) ([]models.RewardType, int, error) {
	out := make([]models.RewardType, 0, len(s.rewardTypes))
	for _, rt := range s.rewardTypes {
		out = append(out, *rt)
	}
	return out, len(out), nil
}

func (s *rewardTypeRepoStub) FindByID(ctx context.Context, tenantID, id string) (*models.RewardType, error) {
	if rt, ok := s.rewardTypes[id]; ok {
		copied := *rt
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (s *rewardTypeRepoStub) Create(ctx context.Context, rewardType *models.RewardType) error {
	s.created = append(s.created, rewardType)
	s.rewardTypes[rewardType.ID] = rewardType
	return nil
}

func (s *rewardTypeRepoStub) Update(ctx context.Context, rewardType *models.RewardType) error {
	if _, ok := s.rewardTypes[rewardType.ID]; !ok {
		return sql.ErrNoRows
	}
	s.rewardTypes[rewardType.ID] = rewardType
	return nil
}

func (s *rewardTypeRepoStub) SetActive(ctx context.Context, tenantID, id string, active bool) error {
	if _, ok := s.rewardTypes[id]; !ok {
		return sql.ErrNoRows
	}
	s.toggled[id] = active
	return nil
}

func (s *rewardTypeRepoStub) Delete(ctx context.Context, tenantID, id string) error {
	if _, ok := s.rewardTypes[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.rewardTypes, id)
	s.deleted = append(s.deleted, id)
	return nil
}

type recordCounterStub struct {
	count int
}

func (s recordCounterStub) CountByRewardType(ctx context.Context, tenantID, rewardTypeID string) (int, error) {
	return s.count, nil
}

func validCreateInput() CreateRewardTypeInput {
	return CreateRewardTypeInput{
		Name:              "Punctuality Bonus",
		Category:          models.CategoryPunctuality,
		CalculationMethod: models.MethodFixedAmount,
		Value:             decimal.NewFromInt(150),
		TriggerType:       models.TriggerManual,
		Frequency:         models.FrequencyMonthly,
	}
}

func TestCreateRewardType(t *testing.T) {
	repo := newRewardTypeRepoStub()
	svc := NewRewardTypeService(repo, recordCounterStub{}, nil, nil)

	rt, err := svc.Create(context.Background(), "t1", validCreateInput())
	require.NoError(t, err)
	assert.True(t, rt.Active)
	assert.Equal(t, "t1", rt.TenantID)
	require.Len(t, repo.created, 1)
}

func TestCreatePercentageOverHundredRejected(t *testing.T) {
	svc := NewRewardTypeService(newRewardTypeRepoStub(), recordCounterStub{}, nil, nil)

	input := validCreateInput()
	input.CalculationMethod = models.MethodPercentageSalary
	input.Value = decimal.NewFromInt(150)
	_, err := svc.Create(context.Background(), "t1", input)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "100")
}

func TestCreateNegativeValueRejected(t *testing.T) {
	svc := NewRewardTypeService(newRewardTypeRepoStub(), recordCounterStub{}, nil, nil)

	input := validCreateInput()
	input.Value = decimal.NewFromInt(-50)
	_, err := svc.Create(context.Background(), "t1", input)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCreateInvalidConditionsRejected(t *testing.T) {
	svc := NewRewardTypeService(newRewardTypeRepoStub(), recordCounterStub{}, nil, nil)

	zero := 0
	input := validCreateInput()
	input.Conditions = models.EligibilityConditions{
		Attendance: &models.AttendanceConditions{MinStreak: &zero},
	}
	_, err := svc.Create(context.Background(), "t1", input)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCreateUnknownCategoryRejected(t *testing.T) {
	svc := NewRewardTypeService(newRewardTypeRepoStub(), recordCounterStub{}, nil, nil)

	input := validCreateInput()
	input.Category = models.RewardCategory("MYSTERY")
	_, err := svc.Create(context.Background(), "t1", input)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUpdateRewardTypeValue(t *testing.T) {
	existing := fixedRewardType(uuid.NewString(), models.TriggerManual)
	repo := newRewardTypeRepoStub(existing)
	svc := NewRewardTypeService(repo, recordCounterStub{}, nil, nil)

	newValue := decimal.NewFromInt(250)
	updated, err := svc.Update(context.Background(), "t1", existing.ID, UpdateRewardTypeInput{Value: &newValue})
	require.NoError(t, err)
	assert.True(t, updated.Value.Equal(newValue))
	assert.Equal(t, existing.Name, updated.Name)
}

func TestUpdateInvertedEffectiveWindowRejected(t *testing.T) {
	existing := fixedRewardType(uuid.NewString(), models.TriggerManual)
	svc := NewRewardTypeService(newRewardTypeRepoStub(existing), recordCounterStub{}, nil, nil)

	from := existing.CreatedAt.AddDate(0, 1, 0)
	to := existing.CreatedAt
	_, err := svc.Update(context.Background(), "t1", existing.ID, UpdateRewardTypeInput{
		EffectiveFrom: &from,
		EffectiveTo:   &to,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSetActiveToggles(t *testing.T) {
	existing := fixedRewardType(uuid.NewString(), models.TriggerManual)
	repo := newRewardTypeRepoStub(existing)
	svc := NewRewardTypeService(repo, recordCounterStub{}, nil, nil)

	require.NoError(t, svc.SetActive(context.Background(), "t1", existing.ID, false))
	assert.Equal(t, false, repo.toggled[existing.ID])
}

func TestSetActiveUnknownID(t *testing.T) {
	svc := NewRewardTypeService(newRewardTypeRepoStub(), recordCounterStub{}, nil, nil)

	err := svc.SetActive(context.Background(), "t1", uuid.NewString(), false)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestDeleteRewardTypeWithRecordsConflicts(t *testing.T) {
	existing := fixedRewardType(uuid.NewString(), models.TriggerManual)
	repo := newRewardTypeRepoStub(existing)
	svc := NewRewardTypeService(repo, recordCounterStub{count: 12}, nil, nil)

	err := svc.Delete(context.Background(), "t1", existing.ID)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Equal(t, 12, appErr.Details["record_count"])
	assert.Empty(t, repo.deleted, "a referenced entry must survive")
}

func TestDeleteUnreferencedRewardType(t *testing.T) {
	existing := fixedRewardType(uuid.NewString(), models.TriggerManual)
	repo := newRewardTypeRepoStub(existing)
	svc := NewRewardTypeService(repo, recordCounterStub{}, nil, nil)

	require.NoError(t, svc.Delete(context.Background(), "t1", existing.ID))
	assert.Equal(t, []string{existing.ID}, repo.deleted)
}

func TestSeedDefaultsOnEmptyCatalog(t *testing.T) {
	repo := newRewardTypeRepoStub()
	svc := NewRewardTypeService(repo, recordCounterStub{}, nil, nil)

	seeded, err := svc.SeedDefaults(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, 4, seeded)
	names := make([]string, 0, len(repo.created))
	for _, rt := range repo.created {
		names = append(names, rt.Name)
	}
	assert.Contains(t, names, "Perfect Attendance Streak")
}

func TestSeedDefaultsSkipsPopulatedCatalog(t *testing.T) {
	existing := fixedRewardType(uuid.NewString(), models.TriggerManual)
	repo := newRewardTypeRepoStub(existing)
	svc := NewRewardTypeService(repo, recordCounterStub{}, nil, nil)

	seeded, err := svc.SeedDefaults(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, 0, seeded)
	assert.Empty(t, repo.created)
}
