package guest

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

type memorySession struct {
	profile  *Profile
	plans    []Plan
	wishlist []WishlistItem
}

// MemoryStore is a map-backed Store for tests.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*memorySession
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*memorySession)}
}

func (s *MemoryStore) CreateSession(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token := uuid.NewString()
	s.sessions[token] = &memorySession{}
	return token, nil
}

func (s *MemoryStore) SessionExists(_ context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[token]
	return ok, nil
}

func (s *MemoryStore) GetProfile(_ context.Context, token string) (*Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[token]
	if !ok || session.profile == nil {
		return nil, ErrNoProfile
	}
	copied := *session.profile
	return &copied, nil
}

func (s *MemoryStore) SaveProfile(_ context.Context, token string, profile *Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *profile
	s.session(token).profile = &copied
	return nil
}

func (s *MemoryStore) Plans(_ context.Context, token string) ([]Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[token]
	if !ok {
		return nil, nil
	}
	return append([]Plan(nil), session.plans...), nil
}

func (s *MemoryStore) SavePlan(_ context.Context, token string, plan Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session := s.session(token)
	session.plans = append([]Plan{plan}, session.plans...)
	if len(session.plans) > MaxPlans {
		session.plans = session.plans[:MaxPlans]
	}
	return nil
}

func (s *MemoryStore) Wishlist(_ context.Context, token string) ([]WishlistItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[token]
	if !ok {
		return nil, nil
	}
	return append([]WishlistItem(nil), session.wishlist...), nil
}

func (s *MemoryStore) SaveWishlist(_ context.Context, token string, items []WishlistItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session(token).wishlist = append([]WishlistItem(nil), items...)
	return nil
}

func (s *MemoryStore) ClearAll(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

func (s *MemoryStore) session(token string) *memorySession {
	session, ok := s.sessions[token]
	if !ok {
		session = &memorySession{}
		s.sessions[token] = session
	}
	return session
}
