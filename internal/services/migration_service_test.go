package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/drbn-app/drbn-backend/internal/guest"
	"github.com/drbn-app/drbn-backend/internal/models"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.RefreshToken{}, &models.Profile{}, &models.UserProduct{}))
	return db
}

func seedGuest(t *testing.T, store guest.Store) string {
	t.Helper()
	ctx := context.Background()
	token, err := store.CreateSession(ctx)
	require.NoError(t, err)
	require.NoError(t, store.SaveProfile(ctx, token, &guest.Profile{
		SkinType:    "oily",
		MainConcern: "acne",
		AgeRange:    "25-35",
		Budget:      "budget",
		Country:     "FR",
		Climate:     "temperate",
		CompletedAt: time.Now().UTC().Format(time.RFC3339),
	}))
	require.NoError(t, store.SaveWishlist(ctx, token, []guest.WishlistItem{
		{ProductName: "CeraVe Foaming Cleanser", Brand: "CeraVe", Category: "cleanser"},
		{ProductName: "Anthelios SPF50", Brand: "La Roche-Posay"},
	}))
	return token
}

func TestMigrateCopiesProfileAndWishlistThenClears(t *testing.T) {
	db := testDB(t)
	store := guest.NewMemoryStore()
	service := NewMigrationService(db, store)
	userID := uuid.New()
	token := seedGuest(t, store)

	result, err := service.Migrate(context.Background(), userID, token)
	require.NoError(t, err)
	assert.True(t, result.ProfileMigrated)
	assert.Equal(t, 2, result.WishlistMigrated)

	var profile models.Profile
	require.NoError(t, db.First(&profile, "id = ?", userID).Error)
	require.NotNil(t, profile.SkinType)
	assert.Equal(t, "oily", *profile.SkinType)
	assert.Equal(t, []string{"acne"}, profile.Concerns)
	require.NotNil(t, profile.AgeRange)
	assert.Equal(t, "25-35", *profile.AgeRange)
	require.NotNil(t, profile.BudgetTier)
	assert.Equal(t, "budget", *profile.BudgetTier)
	require.NotNil(t, profile.Country)
	assert.Equal(t, "FR", *profile.Country)
	require.NotNil(t, profile.Climate)
	assert.Equal(t, "temperate", *profile.Climate)

	var products []models.UserProduct
	require.NoError(t, db.Where("user_id = ?", userID).Find(&products).Error)
	assert.Len(t, products, 2)

	// The guest session is gone after a successful migration.
	exists, err := store.SessionExists(context.Background(), token)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMigrateIsIdempotentForWishlist(t *testing.T) {
	db := testDB(t)
	store := guest.NewMemoryStore()
	service := NewMigrationService(db, store)
	userID := uuid.New()

	existing := models.UserProduct{ID: uuid.New(), UserID: userID, ProductName: "CeraVe Foaming Cleanser"}
	require.NoError(t, db.Create(&existing).Error)

	token := seedGuest(t, store)
	result, err := service.Migrate(context.Background(), userID, token)
	require.NoError(t, err)
	assert.Equal(t, 1, result.WishlistMigrated)

	var count int64
	require.NoError(t, db.Model(&models.UserProduct{}).Where("user_id = ?", userID).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestMigrateUnknownSession(t *testing.T) {
	db := testDB(t)
	service := NewMigrationService(db, guest.NewMemoryStore())

	_, err := service.Migrate(context.Background(), uuid.New(), "missing-token")
	assert.ErrorIs(t, err, ErrNoGuestSession)
}

type failingStore struct {
	guest.Store
	cleared bool
}

func (f *failingStore) Wishlist(context.Context, string) ([]guest.WishlistItem, error) {
	return nil, errors.New("redis unavailable")
}

func (f *failingStore) ClearAll(ctx context.Context, token string) error {
	f.cleared = true
	return f.Store.ClearAll(ctx, token)
}

func TestMigrateFailureLeavesGuestDataIntact(t *testing.T) {
	db := testDB(t)
	inner := guest.NewMemoryStore()
	store := &failingStore{Store: inner}
	service := NewMigrationService(db, store)
	userID := uuid.New()
	token := seedGuest(t, inner)

	_, err := service.Migrate(context.Background(), userID, token)
	require.Error(t, err)
	assert.False(t, store.cleared)

	// Session and profile survive for a retry.
	exists, err := inner.SessionExists(context.Background(), token)
	require.NoError(t, err)
	assert.True(t, exists)
	_, err = inner.GetProfile(context.Background(), token)
	require.NoError(t, err)

	// Nothing was written to the account either.
	var count int64
	require.NoError(t, db.Model(&models.Profile{}).Where("id = ?", userID).Count(&count).Error)
	assert.Zero(t, count)
}
