package guest

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreSessionLifecycle(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	token, err := store.CreateSession(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	exists, err := store.SessionExists(ctx, token)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = store.SessionExists(ctx, "unknown-token")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemoryStoreProfileRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	token, err := store.CreateSession(ctx)
	require.NoError(t, err)

	_, err = store.GetProfile(ctx, token)
	assert.ErrorIs(t, err, ErrNoProfile)

	saved := &Profile{
		SkinType:    "oily",
		MainConcern: "acne",
		AgeRange:    "25-35",
		Budget:      "budget",
		Country:     "FR",
		Climate:     "temperate",
	}
	require.NoError(t, store.SaveProfile(ctx, token, saved))

	got, err := store.GetProfile(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, saved, got)
}

func TestMemoryStorePlanCapEvictsOldest(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	token, err := store.CreateSession(ctx)
	require.NoError(t, err)

	for i := 1; i <= MaxPlans+2; i++ {
		plan := Plan{
			ID:        fmt.Sprintf("guest_plan_%d", i),
			CreatedAt: time.Now().UTC(),
			Routine:   json.RawMessage(`{}`),
		}
		require.NoError(t, store.SavePlan(ctx, token, plan))
	}

	plans, err := store.Plans(ctx, token)
	require.NoError(t, err)
	require.Len(t, plans, MaxPlans)

	// Newest first; the two oldest plans were evicted.
	assert.Equal(t, fmt.Sprintf("guest_plan_%d", MaxPlans+2), plans[0].ID)
	assert.Equal(t, "guest_plan_3", plans[MaxPlans-1].ID)
}

func TestMemoryStoreClearAllRemovesEverything(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	token, err := store.CreateSession(ctx)
	require.NoError(t, err)
	require.NoError(t, store.SaveProfile(ctx, token, &Profile{SkinType: "dry"}))
	require.NoError(t, store.SaveWishlist(ctx, token, []WishlistItem{{ProductName: "CeraVe Cleanser"}}))

	require.NoError(t, store.ClearAll(ctx, token))

	exists, err := store.SessionExists(ctx, token)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = store.GetProfile(ctx, token)
	assert.ErrorIs(t, err, ErrNoProfile)
}

func TestAccountProfileMapping(t *testing.T) {
	userID := uuid.New()
	guestProfile := &Profile{
		SkinType:    "combination",
		MainConcern: "redness",
		AgeRange:    "35-45",
		Budget:      "premium",
		Country:     "CA",
		Climate:     "cold",
	}

	profile := guestProfile.AccountProfile(userID)
	require.Equal(t, userID, profile.ID)
	require.NotNil(t, profile.SkinType)
	assert.Equal(t, "combination", *profile.SkinType)
	assert.Equal(t, []string{"redness"}, profile.Concerns)
	require.NotNil(t, profile.AgeRange)
	assert.Equal(t, "35-45", *profile.AgeRange)
	require.NotNil(t, profile.BudgetTier)
	assert.Equal(t, "premium", *profile.BudgetTier)

	// Empty fields stay nil rather than becoming pointers to "".
	empty := (&Profile{}).AccountProfile(userID)
	assert.Nil(t, empty.SkinType)
	assert.Nil(t, empty.Concerns)
	assert.Nil(t, empty.BudgetTier)
}
