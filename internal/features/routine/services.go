package routine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/drbn-app/drbn-backend/internal/analysis"
	"github.com/drbn-app/drbn-backend/internal/features/checkin"
	"github.com/drbn-app/drbn-backend/internal/lock"
	"github.com/drbn-app/drbn-backend/internal/models"
)

var (
	ErrProfileRequired = errors.New("profile must be completed before generating a routine")
	ErrNoActiveRoutine = errors.New("no active routine")
	ErrRoutineNotFound = errors.New("routine not found")
)

// stepOrderExpr keeps slots in display order rather than alphabetical.
const stepOrderExpr = "CASE time_of_day WHEN 'morning' THEN 1 WHEN 'midday' THEN 2 WHEN 'evening' THEN 3 ELSE 4 END, step_order"

// =============================================================================
// RoutineService
// =============================================================================

type RoutineService struct {
	db    *gorm.DB
	ai    analysis.Generator
	locks lock.Locker
}

func NewRoutineService(db *gorm.DB, ai analysis.Generator, locks lock.Locker) *RoutineService {
	return &RoutineService{db: db, ai: ai, locks: locks}
}

// Generate runs the AI once and installs the result as the new active
// routine. The user must have a profile; photos are never re-sent here, the
// latest scored check-in only contributes prompt context.
func (s *RoutineService) Generate(ctx context.Context, userID uuid.UUID, req GenerateRoutineRequest) (*Routine, error) {
	release, err := s.locks.Acquire(ctx, "generation:"+userID.String(), 2*time.Minute)
	if err != nil {
		return nil, err
	}
	defer release()

	var profile models.Profile
	if err := s.db.WithContext(ctx).First(&profile, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileRequired
		}
		return nil, err
	}

	var checkInID *uuid.UUID
	if req.CheckInID != "" {
		id, err := uuid.Parse(req.CheckInID)
		if err != nil {
			return nil, fmt.Errorf("invalid check_in_id: %w", err)
		}
		checkInID = &id
	}

	plan, err := s.ai.GeneratePlan(ctx, analysis.PlanRequest{
		Profile:  &profile,
		History:  s.historyContext(ctx, userID),
		Language: req.Language,
	})
	if err != nil {
		return nil, err
	}

	return s.CreateFromPlan(ctx, userID, plan, checkInID)
}

// CreateFromPlan persists a parsed plan as the next routine version. The
// version bump, the deactivation of the previous routine and the insert all
// happen in one transaction so a failure leaves the previous routine active.
func (s *RoutineService) CreateFromPlan(ctx context.Context, userID uuid.UUID, plan *analysis.Plan, checkInID *uuid.UUID) (*Routine, error) {
	var created *Routine
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var version int
		if err := tx.Model(&Routine{}).
			Where("user_id = ?", userID).
			Select("COALESCE(MAX(version), 0) + 1").
			Scan(&version).Error; err != nil {
			return err
		}

		if err := tx.Model(&Routine{}).
			Where("user_id = ? AND is_active = ?", userID, true).
			Update("is_active", false).Error; err != nil {
			return err
		}

		routine := &Routine{
			ID:          uuid.New(),
			UserID:      userID,
			Version:     version,
			IsActive:    true,
			RoutineName: fmt.Sprintf("Routine v%d", version),
			CheckInID:   checkInID,
			RawPlan:     []byte(plan.Raw),
		}
		if plan.Summary != "" {
			summary := plan.Summary
			routine.Summary = &summary
		}
		if err := tx.Create(routine).Error; err != nil {
			return err
		}

		for _, section := range plan.Routine.Sections() {
			for i, planStep := range section.Steps {
				order := planStep.StepOrder
				if order == 0 {
					order = i + 1
				}
				step := &RoutineStep{
					ID:           uuid.New(),
					RoutineID:    routine.ID,
					TimeOfDay:    section.TimeOfDay,
					StepOrder:    order,
					Category:     planStep.Category,
					Title:        planStep.Title,
					Instructions: planStep.Instructions,
				}
				if planStep.Timing != "" {
					timing := planStep.Timing
					step.Timing = &timing
				}
				if planStep.Frequency != "" {
					frequency := planStep.Frequency
					step.Frequency = &frequency
				}
				if err := tx.Create(step).Error; err != nil {
					return err
				}

				for _, tier := range planStep.Products.ByTier() {
					rec := &ProductRecommendation{
						ID:             uuid.New(),
						StepID:         step.ID,
						Tier:           tier.Tier,
						ProductName:    tier.Product.ProductName,
						KeyIngredients: tier.Product.KeyIngredients,
						Alternatives:   tier.Product.Alternatives,
						EstimatedPrice: tier.Product.EstimatedPrice,
					}
					if tier.Product.Brand != "" {
						brand := tier.Product.Brand
						rec.Brand = &brand
					}
					if tier.Product.WhyRecommended != "" {
						why := tier.Product.WhyRecommended
						rec.WhyRecommended = &why
					}
					if tier.Product.HowToUse != "" {
						how := tier.Product.HowToUse
						rec.HowToUse = &how
					}
					if tier.Product.Cautions != "" {
						cautions := tier.Product.Cautions
						rec.Cautions = &cautions
					}
					if err := tx.Create(rec).Error; err != nil {
						return err
					}
				}
				step.Recommendations = nil
				routine.Steps = append(routine.Steps, *step)
			}
		}

		created = routine
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.byID(ctx, userID, created.ID)
}

// Active returns the single active routine with steps and recommendations in
// display order.
func (s *RoutineService) Active(ctx context.Context, userID uuid.UUID) (*Routine, error) {
	var routine Routine
	err := s.preloaded(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		First(&routine).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoActiveRoutine
	}
	if err != nil {
		return nil, err
	}
	return &routine, nil
}

// History lists all routine versions, newest first, without step bodies.
func (s *RoutineService) History(ctx context.Context, userID uuid.UUID) ([]Routine, error) {
	var routines []Routine
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("version DESC").
		Find(&routines).Error
	return routines, err
}

// Activate makes an older version the active routine again.
func (s *RoutineService) Activate(ctx context.Context, userID, id uuid.UUID) (*Routine, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var routine Routine
		if err := tx.First(&routine, "id = ? AND user_id = ?", id, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRoutineNotFound
			}
			return err
		}
		if err := tx.Model(&Routine{}).
			Where("user_id = ? AND is_active = ?", userID, true).
			Update("is_active", false).Error; err != nil {
			return err
		}
		return tx.Model(&Routine{}).Where("id = ?", id).Update("is_active", true).Error
	})
	if err != nil {
		return nil, err
	}
	return s.byID(ctx, userID, id)
}

func (s *RoutineService) byID(ctx context.Context, userID, id uuid.UUID) (*Routine, error) {
	var routine Routine
	err := s.preloaded(ctx).First(&routine, "id = ? AND user_id = ?", id, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRoutineNotFound
	}
	if err != nil {
		return nil, err
	}
	return &routine, nil
}

func (s *RoutineService) preloaded(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order(stepOrderExpr)
		}).
		Preload("Steps.Recommendations", func(db *gorm.DB) *gorm.DB {
			return db.Order("tier")
		})
}

func (s *RoutineService) historyContext(ctx context.Context, userID uuid.UUID) *analysis.CheckInContext {
	var previous checkin.CheckIn
	err := s.db.WithContext(ctx).Preload("Features").
		Where("user_id = ? AND overall_score IS NOT NULL", userID).
		Order("session_date DESC").
		First(&previous).Error
	if err != nil {
		return nil
	}
	history := &analysis.CheckInContext{PreviousScore: *previous.OverallScore}
	if previous.Features != nil {
		history.PreviousConcerns = previous.Features.DetectedConcerns
	}
	return history
}
