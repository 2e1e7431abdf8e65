package cache

import (
	"context"
	"time"
)

// Cache is a small JSON read-through cache. A GetJSON miss is not an error;
// callers fall back to the source of truth and SetJSON the result.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (hit bool, err error)
	SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}
