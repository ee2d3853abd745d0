package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile is the onboarding skin profile, one row per user (PK = user id).
// Read by every AI invocation.
type Profile struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name             *string   `gorm:"size:255" json:"name,omitempty"`
	Country          *string   `gorm:"size:100" json:"country,omitempty"`
	Climate          *string   `gorm:"size:20" json:"climate,omitempty"`
	SkinType         *string   `gorm:"size:50" json:"skin_type,omitempty"`
	Sensitivity      *string   `gorm:"size:10" json:"sensitivity,omitempty"`
	Concerns         []string  `gorm:"type:jsonb;serializer:json" json:"concerns"`
	ShavingFrequency *string   `gorm:"size:50" json:"shaving_frequency,omitempty"`
	AgeRange         *string   `gorm:"size:20" json:"age_range,omitempty"`
	BudgetTier       *string   `gorm:"size:20" json:"budget_tier,omitempty"`
	Allergies        []string  `gorm:"type:jsonb;serializer:json" json:"allergies"`
	Intolerances     []string  `gorm:"type:jsonb;serializer:json" json:"intolerances"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (Profile) TableName() string {
	return "profiles"
}
