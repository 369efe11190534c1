package session

import (
	"context"
	"time"

	"forceautomaton/api/internal/crm"
)

// Store caches CRM sessions by derived key. Implementations treat a missing
// or expired entry as a miss, not an error.
type Store interface {
	Get(ctx context.Context, key string) (crm.Session, bool, error)
	Put(ctx context.Context, key string, session crm.Session, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

var (
	_ Store = (*RedisStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
