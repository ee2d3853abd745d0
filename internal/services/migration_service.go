package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/drbn-app/drbn-backend/internal/dto"
	"github.com/drbn-app/drbn-backend/internal/guest"
	"github.com/drbn-app/drbn-backend/internal/models"
)

var ErrNoGuestSession = errors.New("guest session not found")

// MigrationService moves guest-session data onto a freshly authenticated
// account. The copy happens first and the guest data is cleared only after
// every write succeeded, so a failed migration leaves the session intact.
type MigrationService struct {
	db    *gorm.DB
	store guest.Store
}

func NewMigrationService(db *gorm.DB, store guest.Store) *MigrationService {
	return &MigrationService{db: db, store: store}
}

func (s *MigrationService) Migrate(ctx context.Context, userID uuid.UUID, token string) (*dto.MigrationResult, error) {
	exists, err := s.store.SessionExists(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to check guest session: %w", err)
	}
	if !exists {
		return nil, ErrNoGuestSession
	}

	guestProfile, err := s.store.GetProfile(ctx, token)
	if err != nil && !errors.Is(err, guest.ErrNoProfile) {
		return nil, fmt.Errorf("failed to read guest profile: %w", err)
	}

	wishlist, err := s.store.Wishlist(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to read guest wishlist: %w", err)
	}

	result := &dto.MigrationResult{}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if guestProfile != nil {
			profile := guestProfile.AccountProfile(userID)
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				UpdateAll: true,
			}).Create(profile).Error; err != nil {
				return fmt.Errorf("failed to migrate profile: %w", err)
			}
			result.ProfileMigrated = true
		}

		for _, item := range wishlist {
			var count int64
			if err := tx.Model(&models.UserProduct{}).
				Where("user_id = ? AND product_name = ?", userID, item.ProductName).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				continue
			}
			product := models.UserProduct{
				ID:          uuid.New(),
				UserID:      userID,
				ProductName: item.ProductName,
			}
			if item.Brand != "" {
				brand := item.Brand
				product.Brand = &brand
			}
			if item.Category != "" {
				category := item.Category
				product.Category = &category
			}
			if item.Notes != "" {
				notes := item.Notes
				product.Notes = &notes
			}
			if err := tx.Create(&product).Error; err != nil {
				return fmt.Errorf("failed to migrate wishlist item: %w", err)
			}
			result.WishlistMigrated++
		}
		return nil
	})
	if err != nil {
		// Guest data stays untouched so the client can retry.
		return nil, err
	}

	if err := s.store.ClearAll(ctx, token); err != nil {
		slog.Warn("migrated guest data but failed to clear session", "error", err)
	}
	return result, nil
}
