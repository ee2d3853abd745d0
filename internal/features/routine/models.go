package routine

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Routine is one generated plan version. Exactly one routine per user is
// active at a time; versions only ever grow.
type Routine struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_routine_user_version" json:"user_id"`
	Version     int            `gorm:"not null;uniqueIndex:idx_routine_user_version" json:"version"`
	IsActive    bool           `gorm:"not null;default:false;index" json:"is_active"`
	RoutineName string         `gorm:"size:100;not null" json:"routine_name"`
	Summary     *string        `gorm:"type:text" json:"summary,omitempty"`
	CheckInID   *uuid.UUID     `gorm:"type:uuid" json:"check_in_id,omitempty"`
	RawPlan     datatypes.JSON `gorm:"type:jsonb" json:"-"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`

	Steps []RoutineStep `gorm:"foreignKey:RoutineID;constraint:OnDelete:CASCADE" json:"steps,omitempty"`
}

func (Routine) TableName() string {
	return "routines"
}

// RoutineStep is one step of a routine slot (morning, midday, evening,
// weekly), ordered within its slot.
type RoutineStep struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RoutineID    uuid.UUID `gorm:"type:uuid;not null;index" json:"routine_id"`
	TimeOfDay    string    `gorm:"size:20;not null" json:"time_of_day"`
	StepOrder    int       `gorm:"not null" json:"step_order"`
	Category     string    `gorm:"size:50" json:"category"`
	Title        string    `gorm:"size:255;not null" json:"title"`
	Instructions string    `gorm:"type:text" json:"instructions"`
	Timing       *string   `gorm:"size:100" json:"timing,omitempty"`
	Frequency    *string   `gorm:"size:100" json:"frequency,omitempty"`
	CreatedAt    time.Time `json:"created_at"`

	Recommendations []ProductRecommendation `gorm:"foreignKey:StepID;constraint:OnDelete:CASCADE" json:"recommendations,omitempty"`
}

func (RoutineStep) TableName() string {
	return "routine_steps"
}

// ProductRecommendation is one tiered product suggestion for a step, at most
// one per tier (best, budget, premium).
type ProductRecommendation struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	StepID         uuid.UUID `gorm:"type:uuid;not null;index" json:"step_id"`
	Tier           string    `gorm:"size:10;not null" json:"tier"`
	ProductName    string    `gorm:"size:255;not null" json:"product_name"`
	Brand          *string   `gorm:"size:255" json:"brand,omitempty"`
	KeyIngredients []string  `gorm:"type:jsonb;serializer:json" json:"key_ingredients"`
	WhyRecommended *string   `gorm:"type:text" json:"why_recommended,omitempty"`
	HowToUse       *string   `gorm:"type:text" json:"how_to_use,omitempty"`
	Cautions       *string   `gorm:"type:text" json:"cautions,omitempty"`
	Alternatives   []string  `gorm:"type:jsonb;serializer:json" json:"alternatives"`
	EstimatedPrice *float64  `json:"estimated_price,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func (ProductRecommendation) TableName() string {
	return "product_recommendations"
}

// =============================================================================
// Request / Response DTOs
// =============================================================================

type GenerateRoutineRequest struct {
	CheckInID string `json:"check_in_id"`
	Language  string `json:"language"`
}
