package checkin

import (
	"time"

	"github.com/google/uuid"
)

// CheckIn is one photo session. Score and summary stay NULL when the AI
// analysis fails; the row and its photos survive regardless.
type CheckIn struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	SessionDate  time.Time `gorm:"not null" json:"session_date"`
	Notes        *string   `gorm:"type:text" json:"notes,omitempty"`
	OverallScore *int      `gorm:"type:integer;check:overall_score >= 0 AND overall_score <= 100" json:"overall_score"`
	AISummary    *string   `gorm:"type:text" json:"ai_summary,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Photos   []CheckInPhoto   `gorm:"foreignKey:CheckInID;constraint:OnDelete:CASCADE" json:"photos,omitempty"`
	Features *DerivedFeatures `gorm:"foreignKey:CheckInID;constraint:OnDelete:CASCADE" json:"derived_features,omitempty"`
}

func (CheckIn) TableName() string {
	return "check_ins"
}

// CheckInPhoto stores one angle of a session. The object itself lives in the
// bucket; only the key is persisted.
type CheckInPhoto struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CheckInID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_checkin_photo_angle" json:"check_in_id"`
	Angle      string    `gorm:"size:20;not null;uniqueIndex:idx_checkin_photo_angle" json:"angle"`
	StorageKey string    `gorm:"type:text;not null" json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}

func (CheckInPhoto) TableName() string {
	return "check_in_photos"
}

// DerivedFeatures holds the per-dimension scores extracted from a successful
// analysis, one row per check-in.
type DerivedFeatures struct {
	ID                  uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CheckInID           uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"check_in_id"`
	UnevenToneScore     *int      `gorm:"type:integer" json:"uneven_tone_score"`
	TextureScore        *int      `gorm:"type:integer" json:"texture_score"`
	OilinessScore       *int      `gorm:"type:integer" json:"oiliness_score"`
	BarrierComfortScore *int      `gorm:"type:integer" json:"barrier_comfort_score"`
	DetectedConcerns    []string  `gorm:"type:jsonb;serializer:json" json:"detected_concerns"`
	AINotes             *string   `gorm:"type:text" json:"ai_notes,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
}

func (DerivedFeatures) TableName() string {
	return "derived_features"
}

// =============================================================================
// Request / Response DTOs
// =============================================================================

type CreateCheckInRequest struct {
	SessionDate string            `json:"session_date"`
	Notes       string            `json:"notes"`
	Photos      map[string]string `json:"photos"`
	Language    string            `json:"language"`
}

type PhotoResponse struct {
	Angle string `json:"angle"`
	URL   string `json:"url"`
}

type CheckInResponse struct {
	ID           uuid.UUID        `json:"id"`
	SessionDate  time.Time        `json:"session_date"`
	Notes        *string          `json:"notes,omitempty"`
	OverallScore *int             `json:"overall_score"`
	AISummary    *string          `json:"ai_summary,omitempty"`
	Photos       []PhotoResponse  `json:"photos"`
	Features     *DerivedFeatures `json:"derived_features,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
}
