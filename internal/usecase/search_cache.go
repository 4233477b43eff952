package usecase

import (
	"context"
	"time"
)

// SearchCache stores ranked pages. Implementations must treat an unavailable
// backend as a miss rather than an error where they can.
type SearchCache interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	SetIfNotExists(ctx context.Context, key string, value string, ttl time.Duration) (bool, error)
}
