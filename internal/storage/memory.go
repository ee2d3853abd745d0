package storage

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryBucket is an in-process Bucket used by tests.
type MemoryBucket struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func NewMemoryBucket() *MemoryBucket {
	return &MemoryBucket{objects: make(map[string][]byte)}
}

func (b *MemoryBucket) Upload(_ context.Context, key string, data []byte, _ string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = data
	return nil
}

func (b *MemoryBucket) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.objects[key]; !ok {
		return fmt.Errorf("object not found: %s", key)
	}
	delete(b.objects, key)
	return nil
}

func (b *MemoryBucket) SignedURL(key string, _ time.Duration) (string, error) {
	return "memory://" + key, nil
}

// Keys returns the stored object keys.
func (b *MemoryBucket) Keys() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	keys := make([]string, 0, len(b.objects))
	for k := range b.objects {
		keys = append(keys, k)
	}
	return keys
}

// Object returns a stored object's bytes.
func (b *MemoryBucket) Object(key string) ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.objects[key]
	return data, ok
}
