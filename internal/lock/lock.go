package lock

import (
	"context"
	"errors"
	"time"
)

// ErrLocked is returned when a generation is already in flight for the key.
var ErrLocked = errors.New("generation already in progress")

// Locker holds a per-user in-flight marker (token + expiry) so that at most
// one generation pipeline runs per user at a time. Release is safe to call
// once and only removes the marker the same acquisition created; the TTL
// bounds how long a crashed holder can block the user.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}
