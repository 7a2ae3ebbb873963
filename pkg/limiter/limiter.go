package limiter

import (
	"context"
	"errors"
)

// ErrLimitReached is returned when no slot became free within the wait window.
var ErrLimitReached = errors.New("concurrency limit reached")

// Limiter bounds the number of in-flight calls per key.
type Limiter interface {
	Acquire(ctx context.Context, key string) error
	Release(ctx context.Context, key string)
}
