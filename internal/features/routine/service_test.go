package routine

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/drbn-app/drbn-backend/internal/analysis"
	"github.com/drbn-app/drbn-backend/internal/features/checkin"
	"github.com/drbn-app/drbn-backend/internal/lock"
	"github.com/drbn-app/drbn-backend/internal/models"
)

type stubGenerator struct {
	plan *analysis.Plan
	err  error
}

func (g *stubGenerator) GeneratePlan(context.Context, analysis.PlanRequest) (*analysis.Plan, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.plan, nil
}

func (g *stubGenerator) QuickAnalysis(context.Context, analysis.QuickRequest) (map[string]interface{}, error) {
	return nil, errors.New("not implemented")
}

func (g *stubGenerator) AnalyzePhoto(context.Context, analysis.PhotoRequest) (string, error) {
	return "", errors.New("not implemented")
}

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Profile{},
		&checkin.CheckIn{}, &checkin.CheckInPhoto{}, &checkin.DerivedFeatures{},
		&Routine{}, &RoutineStep{}, &ProductRecommendation{},
	))
	return db
}

func seedProfile(t *testing.T, db *gorm.DB, userID uuid.UUID) {
	t.Helper()
	skinType := "oily"
	require.NoError(t, db.Create(&models.Profile{ID: userID, SkinType: &skinType, Concerns: []string{"acne"}}).Error)
}

func samplePlan() *analysis.Plan {
	return &analysis.Plan{
		OverallScore: 74,
		Summary:      "Focus on barrier repair.",
		Routine: analysis.PlanRoutine{
			Morning: []analysis.PlanStep{
				{
					StepOrder:    1,
					Category:     "cleanser",
					Title:        "Gentle cleanse",
					Instructions: "Massage for 30 seconds, rinse lukewarm.",
					Products: analysis.PlanProducts{
						Best:   &analysis.PlanProduct{ProductName: "Best Cleanser", Brand: "BrandA"},
						Budget: &analysis.PlanProduct{ProductName: "Budget Cleanser"},
					},
				},
				{StepOrder: 2, Category: "spf", Title: "Sunscreen", Instructions: "Two finger lengths."},
			},
			Evening: []analysis.PlanStep{
				{
					StepOrder:    1,
					Category:     "treatment",
					Title:        "Retinoid",
					Frequency:    "3x per week",
					Instructions: "Pea-sized amount.",
					Products: analysis.PlanProducts{
						Premium: &analysis.PlanProduct{ProductName: "Premium Retinal", KeyIngredients: []string{"retinal"}},
					},
				},
			},
		},
		Raw: []byte(`{"overall_score":74}`),
	}
}

func TestGenerateRequiresProfile(t *testing.T) {
	db := testDB(t)
	service := NewRoutineService(db, &stubGenerator{plan: samplePlan()}, lock.NewMemoryLocker())

	_, err := service.Generate(context.Background(), uuid.New(), GenerateRoutineRequest{})
	assert.ErrorIs(t, err, ErrProfileRequired)
}

func TestGenerateInstallsActiveRoutineWithSteps(t *testing.T) {
	db := testDB(t)
	service := NewRoutineService(db, &stubGenerator{plan: samplePlan()}, lock.NewMemoryLocker())
	userID := uuid.New()
	seedProfile(t, db, userID)

	routine, err := service.Generate(context.Background(), userID, GenerateRoutineRequest{})
	require.NoError(t, err)

	assert.Equal(t, 1, routine.Version)
	assert.True(t, routine.IsActive)
	assert.Equal(t, "Routine v1", routine.RoutineName)
	require.NotNil(t, routine.Summary)
	assert.Equal(t, "Focus on barrier repair.", *routine.Summary)
	require.Len(t, routine.Steps, 3)

	// Morning steps come before evening regardless of alphabetical order.
	assert.Equal(t, "morning", routine.Steps[0].TimeOfDay)
	assert.Equal(t, 1, routine.Steps[0].StepOrder)
	assert.Equal(t, "morning", routine.Steps[1].TimeOfDay)
	assert.Equal(t, "evening", routine.Steps[2].TimeOfDay)

	recs := routine.Steps[0].Recommendations
	require.Len(t, recs, 2)
	tiers := []string{recs[0].Tier, recs[1].Tier}
	assert.ElementsMatch(t, []string{"best", "budget"}, tiers)

	require.Len(t, routine.Steps[2].Recommendations, 1)
	assert.Equal(t, "premium", routine.Steps[2].Recommendations[0].Tier)
	assert.Equal(t, []string{"retinal"}, routine.Steps[2].Recommendations[0].KeyIngredients)
}

func TestVersionsIncreaseAndOnlyNewestIsActive(t *testing.T) {
	db := testDB(t)
	service := NewRoutineService(db, &stubGenerator{plan: samplePlan()}, lock.NewMemoryLocker())
	userID := uuid.New()
	seedProfile(t, db, userID)

	for i := 1; i <= 3; i++ {
		routine, err := service.Generate(context.Background(), userID, GenerateRoutineRequest{})
		require.NoError(t, err)
		assert.Equal(t, i, routine.Version)
	}

	var activeCount int64
	require.NoError(t, db.Model(&Routine{}).Where("user_id = ? AND is_active = ?", userID, true).Count(&activeCount).Error)
	assert.EqualValues(t, 1, activeCount)

	active, err := service.Active(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 3, active.Version)

	history, err := service.History(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, 3, history[0].Version)
	assert.Equal(t, 1, history[2].Version)
}

func TestFailedGenerationLeavesPreviousRoutineActive(t *testing.T) {
	db := testDB(t)
	gen := &stubGenerator{plan: samplePlan()}
	service := NewRoutineService(db, gen, lock.NewMemoryLocker())
	userID := uuid.New()
	seedProfile(t, db, userID)

	first, err := service.Generate(context.Background(), userID, GenerateRoutineRequest{})
	require.NoError(t, err)

	gen.err = analysis.ErrEmptyResponse
	_, err = service.Generate(context.Background(), userID, GenerateRoutineRequest{})
	require.ErrorIs(t, err, analysis.ErrEmptyResponse)

	active, err := service.Active(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, active.ID)
	assert.Equal(t, 1, active.Version)
}

func TestActivateRestoresOlderVersion(t *testing.T) {
	db := testDB(t)
	service := NewRoutineService(db, &stubGenerator{plan: samplePlan()}, lock.NewMemoryLocker())
	userID := uuid.New()
	seedProfile(t, db, userID)

	first, err := service.Generate(context.Background(), userID, GenerateRoutineRequest{})
	require.NoError(t, err)
	_, err = service.Generate(context.Background(), userID, GenerateRoutineRequest{})
	require.NoError(t, err)

	restored, err := service.Activate(context.Background(), userID, first.ID)
	require.NoError(t, err)
	assert.True(t, restored.IsActive)
	assert.Equal(t, 1, restored.Version)

	var activeCount int64
	require.NoError(t, db.Model(&Routine{}).Where("user_id = ? AND is_active = ?", userID, true).Count(&activeCount).Error)
	assert.EqualValues(t, 1, activeCount)

	// Someone else's routine cannot be activated.
	_, err = service.Activate(context.Background(), uuid.New(), first.ID)
	assert.ErrorIs(t, err, ErrRoutineNotFound)
}

func TestGenerateUsesLatestScoredCheckInAsContext(t *testing.T) {
	db := testDB(t)
	var captured analysis.PlanRequest
	gen := &capturingGenerator{plan: samplePlan(), captured: &captured}
	service := NewRoutineService(db, gen, lock.NewMemoryLocker())
	userID := uuid.New()
	seedProfile(t, db, userID)

	score := 61
	session := checkin.CheckIn{ID: uuid.New(), UserID: userID, OverallScore: &score}
	require.NoError(t, db.Create(&session).Error)

	_, err := service.Generate(context.Background(), userID, GenerateRoutineRequest{CheckInID: session.ID.String()})
	require.NoError(t, err)

	require.NotNil(t, captured.History)
	assert.Equal(t, 61, captured.History.PreviousScore)
	assert.Empty(t, captured.Photos.Front)
}

type capturingGenerator struct {
	plan     *analysis.Plan
	captured *analysis.PlanRequest
}

func (g *capturingGenerator) GeneratePlan(_ context.Context, req analysis.PlanRequest) (*analysis.Plan, error) {
	*g.captured = req
	return g.plan, nil
}

func (g *capturingGenerator) QuickAnalysis(context.Context, analysis.QuickRequest) (map[string]interface{}, error) {
	return nil, errors.New("not implemented")
}

func (g *capturingGenerator) AnalyzePhoto(context.Context, analysis.PhotoRequest) (string, error) {
	return "", errors.New("not implemented")
}
