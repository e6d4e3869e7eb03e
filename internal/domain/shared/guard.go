package shared

import (
	"context"
	"time"
)

// SyncGuard prevents two concurrent runs of the same unit of work. It is a
// mutual-exclusion guard, not a retry mechanism: a completed run releases
// its key and a later run of the same key proceeds normally.
type SyncGuard interface {
	// Acquire claims the key for the caller. Returns false when another
	// holder currently owns it. The TTL bounds how long a crashed holder
	// can block the key.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release frees the key so the next run may proceed.
	Release(ctx context.Context, key string) error

	Close() error
}
