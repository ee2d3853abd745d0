package guest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

type redisStore struct {
	rdb *goredis.Client
}

// NewRedisStore returns a Store backed by Redis. Sessions and their data
// share a sliding 30-day TTL refreshed on every write.
func NewRedisStore(rdb *goredis.Client) Store {
	return &redisStore{rdb: rdb}
}

func sessionKey(token string) string  { return "dbn:guest:" + token }
func profileKey(token string) string  { return "dbn:guest:" + token + ":profile" }
func plansKey(token string) string    { return "dbn:guest:" + token + ":plans" }
func wishlistKey(token string) string { return "dbn:guest:" + token + ":wishlist" }

func (s *redisStore) CreateSession(ctx context.Context) (string, error) {
	token := uuid.NewString()
	if err := s.rdb.Set(ctx, sessionKey(token), time.Now().UTC().Format(time.RFC3339), SessionTTL).Err(); err != nil {
		return "", fmt.Errorf("failed to create guest session: %w", err)
	}
	return token, nil
}

func (s *redisStore) SessionExists(ctx context.Context, token string) (bool, error) {
	n, err := s.rdb.Exists(ctx, sessionKey(token)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *redisStore) GetProfile(ctx context.Context, token string) (*Profile, error) {
	raw, err := s.rdb.Get(ctx, profileKey(token)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrNoProfile
	}
	if err != nil {
		return nil, err
	}
	var profile Profile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return nil, fmt.Errorf("corrupt guest profile: %w", err)
	}
	return &profile, nil
}

func (s *redisStore) SaveProfile(ctx context.Context, token string, profile *Profile) error {
	raw, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	return s.setWithRefresh(ctx, token, profileKey(token), raw)
}

func (s *redisStore) Plans(ctx context.Context, token string) ([]Plan, error) {
	raw, err := s.rdb.Get(ctx, plansKey(token)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var plans []Plan
	if err := json.Unmarshal(raw, &plans); err != nil {
		return nil, fmt.Errorf("corrupt guest plans: %w", err)
	}
	return plans, nil
}

func (s *redisStore) SavePlan(ctx context.Context, token string, plan Plan) error {
	plans, err := s.Plans(ctx, token)
	if err != nil {
		return err
	}
	plans = append([]Plan{plan}, plans...)
	if len(plans) > MaxPlans {
		plans = plans[:MaxPlans]
	}
	raw, err := json.Marshal(plans)
	if err != nil {
		return err
	}
	return s.setWithRefresh(ctx, token, plansKey(token), raw)
}

func (s *redisStore) Wishlist(ctx context.Context, token string) ([]WishlistItem, error) {
	raw, err := s.rdb.Get(ctx, wishlistKey(token)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var items []WishlistItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("corrupt guest wishlist: %w", err)
	}
	return items, nil
}

func (s *redisStore) SaveWishlist(ctx context.Context, token string, items []WishlistItem) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return s.setWithRefresh(ctx, token, wishlistKey(token), raw)
}

func (s *redisStore) ClearAll(ctx context.Context, token string) error {
	return s.rdb.Del(ctx, sessionKey(token), profileKey(token), plansKey(token), wishlistKey(token)).Err()
}

func (s *redisStore) setWithRefresh(ctx context.Context, token, key string, raw []byte) error {
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, key, raw, SessionTTL)
	pipe.Expire(ctx, sessionKey(token), SessionTTL)
	_, err := pipe.Exec(ctx)
	return err
}
