package limiter

import (
	"context"
	"sync"
	"time"
)

// LocalLimiter is an in-process semaphore per key.
type LocalLimiter struct {
	mu            sync.Mutex
	maxConcurrent int
	maxWait       time.Duration
	semaphores    map[string]chan struct{}
}

// NewLocalLimiter creates a limiter allowing maxConcurrent calls per key.
func NewLocalLimiter(maxConcurrent int, maxWait time.Duration) *LocalLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &LocalLimiter{
		maxConcurrent: maxConcurrent,
		maxWait:       maxWait,
		semaphores:    make(map[string]chan struct{}),
	}
}

var _ Limiter = (*LocalLimiter)(nil)

func (l *LocalLimiter) semaphore(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	sem, ok := l.semaphores[key]
	if !ok {
		sem = make(chan struct{}, l.maxConcurrent)
		l.semaphores[key] = sem
	}
	return sem
}

// Acquire takes a slot, waiting at most maxWait.
func (l *LocalLimiter) Acquire(ctx context.Context, key string) error {
	sem := l.semaphore(key)

	select {
	case sem <- struct{}{}:
		return nil
	default:
	}

	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case sem <- struct{}{}:
		return nil
	case <-timer.C:
		return ErrLimitReached
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a slot.
func (l *LocalLimiter) Release(ctx context.Context, key string) {
	sem := l.semaphore(key)
	select {
	case <-sem:
	default:
	}
}

// InUse returns the number of slots held for key.
func (l *LocalLimiter) InUse(key string) int {
	return len(l.semaphore(key))
}
