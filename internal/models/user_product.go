package models

import (
	"time"

	"github.com/google/uuid"
)

// UserProduct is an item on the user's product shelf / wishlist.
type UserProduct struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	ProductName      string    `gorm:"size:255;not null" json:"product_name"`
	Brand            *string   `gorm:"size:255" json:"brand,omitempty"`
	Category         *string   `gorm:"size:100" json:"category,omitempty"`
	KeyIngredients   []string  `gorm:"type:jsonb;serializer:json" json:"key_ingredients"`
	IsCurrentlyUsing bool      `gorm:"default:false" json:"is_currently_using"`
	Notes            *string   `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (UserProduct) TableName() string {
	return "user_products"
}
