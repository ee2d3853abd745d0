package lock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryEntry struct {
	token  string
	expiry time.Time
}

// MemoryLocker is a process-local Locker used in tests and single-node setups.
type MemoryLocker struct {
	mu    sync.Mutex
	locks map[string]memoryEntry
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{locks: make(map[string]memoryEntry)}
}

func (l *MemoryLocker) Acquire(_ context.Context, key string, ttl time.Duration) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if entry, ok := l.locks[key]; ok && entry.expiry.After(now) {
		return nil, ErrLocked
	}

	token := uuid.NewString()
	l.locks[key] = memoryEntry{token: token, expiry: now.Add(ttl)}

	release := func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if entry, ok := l.locks[key]; ok && entry.token == token {
			delete(l.locks, key)
		}
	}
	return release, nil
}
