package guest

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/drbn-app/drbn-backend/internal/models"
)

const (
	// TokenHeader carries the guest session token on every guest-mode request.
	TokenHeader = "X-Guest-Token"
	// TokenLocal is the fiber.Ctx locals key set by the guest middleware.
	TokenLocal = "guest_token"

	// SessionTTL is how long an untouched guest session survives.
	SessionTTL = 30 * 24 * time.Hour

	// MaxPlans caps stored guest plans; the oldest is evicted beyond this.
	MaxPlans = 5
)

var (
	ErrNoSession = errors.New("guest session not found")
	ErrNoProfile = errors.New("guest profile not found")
)

// Profile mirrors the onboarding answers collected before signup.
type Profile struct {
	SkinType           string `json:"skin_type"`
	MainConcern        string `json:"main_concern"`
	AgeRange           string `json:"age_range"`
	SunExposure        string `json:"sun_exposure"`
	Budget             string `json:"budget"`
	RoutineComplexity  string `json:"routine_complexity"`
	Country            string `json:"country"`
	Climate            string `json:"climate"`
	ApproachPreference string `json:"approach_preference"`
	CompletedAt        string `json:"completed_at"`
}

// Plan is a generated routine kept on the guest session until migration.
type Plan struct {
	ID           string          `json:"id"`
	CreatedAt    time.Time       `json:"created_at"`
	RoutineName  string          `json:"routine_name"`
	Routine      json.RawMessage `json:"routine"`
	Summary      string          `json:"summary"`
	OverallScore *int            `json:"overall_score"`
}

type WishlistItem struct {
	ProductName string    `json:"product_name"`
	Brand       string    `json:"brand,omitempty"`
	Category    string    `json:"category,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	AddedAt     time.Time `json:"added_at"`
}

// Store abstracts guest session persistence so handlers and the migration
// service do not care whether the backend is Redis or an in-process map.
type Store interface {
	CreateSession(ctx context.Context) (token string, err error)
	SessionExists(ctx context.Context, token string) (bool, error)

	GetProfile(ctx context.Context, token string) (*Profile, error)
	SaveProfile(ctx context.Context, token string, profile *Profile) error

	Plans(ctx context.Context, token string) ([]Plan, error)
	SavePlan(ctx context.Context, token string, plan Plan) error

	Wishlist(ctx context.Context, token string) ([]WishlistItem, error)
	SaveWishlist(ctx context.Context, token string, items []WishlistItem) error

	ClearAll(ctx context.Context, token string) error
}

// Token returns the session token the guest middleware stashed on the context.
func Token(c *fiber.Ctx) string {
	token, _ := c.Locals(TokenLocal).(string)
	return token
}

// AccountProfile converts a guest profile into the account-side model used
// after migration. The single onboarding concern becomes the first entry of
// the account's concerns list.
func (p *Profile) AccountProfile(userID uuid.UUID) *models.Profile {
	profile := &models.Profile{ID: userID}
	if p.SkinType != "" {
		profile.SkinType = strPtr(p.SkinType)
	}
	if p.MainConcern != "" {
		profile.Concerns = []string{p.MainConcern}
	}
	if p.AgeRange != "" {
		profile.AgeRange = strPtr(p.AgeRange)
	}
	if p.Budget != "" {
		profile.BudgetTier = strPtr(p.Budget)
	}
	if p.Country != "" {
		profile.Country = strPtr(p.Country)
	}
	if p.Climate != "" {
		profile.Climate = strPtr(p.Climate)
	}
	return profile
}

func strPtr(s string) *string { return &s }
