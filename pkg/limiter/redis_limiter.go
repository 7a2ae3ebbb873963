package limiter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

const retryInterval = 100 * time.Millisecond

// acquireScript increments the counter only while it is below ARGV[1].
var acquireScript = redis.NewScript(`
local current = redis.call('GET', KEYS[1])
if current == false then
	current = 0
else
	current = tonumber(current)
end

if current >= tonumber(ARGV[1]) then
	return current + 1
end

local newCount = redis.call('INCR', KEYS[1])
redis.call('EXPIRE', KEYS[1], tonumber(ARGV[2]))
return newCount
`)

// releaseScript decrements the counter and drops the key once it reaches zero.
var releaseScript = redis.NewScript(`
local count = redis.call('DECR', KEYS[1])
if tonumber(count) <= 0 then
	redis.call('DEL', KEYS[1])
	return 0
end
redis.call('EXPIRE', KEYS[1], tonumber(ARGV[1]))
return count
`)

// RedisLimiter shares per-key slot counters between processes through Redis.
type RedisLimiter struct {
	client        *redis.Client
	maxConcurrent int
	keyPrefix     string
	ttl           time.Duration
	maxWait       time.Duration
}

// NewRedisLimiter creates a limiter. ttl bounds how long a leaked slot survives
// and maxWait how long Acquire polls for a free slot. A non-empty keyPrefix
// always ends with a ':' separator.
func NewRedisLimiter(client *redis.Client, maxConcurrent int, keyPrefix string, ttl, maxWait time.Duration) *RedisLimiter {
	if ttl < time.Second {
		ttl = time.Second
	}
	if keyPrefix != "" && !strings.HasSuffix(keyPrefix, ":") {
		keyPrefix += ":"
	}
	return &RedisLimiter{
		client:        client,
		maxConcurrent: maxConcurrent,
		keyPrefix:     keyPrefix,
		ttl:           ttl,
		maxWait:       maxWait,
	}
}

var _ Limiter = (*RedisLimiter)(nil)

// Acquire takes a slot for key, polling until maxWait elapses.
func (rl *RedisLimiter) Acquire(ctx context.Context, key string) error {
	deadline := time.Now().Add(rl.maxWait)

	for {
		ok, err := rl.tryAcquire(ctx, key)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}

		if !time.Now().Before(deadline) {
			logrus.WithFields(logrus.Fields{
				"key": key,
				"max": rl.maxConcurrent,
			}).Warn("concurrency slots exhausted")
			return ErrLimitReached
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryInterval):
		}
	}
}

func (rl *RedisLimiter) tryAcquire(ctx context.Context, key string) (bool, error) {
	result, err := acquireScript.Run(ctx, rl.client, []string{rl.keyPrefix + key}, rl.maxConcurrent, int(rl.ttl.Seconds())).Int64()
	if err != nil {
		return false, fmt.Errorf("run acquire script: %w", err)
	}

	newCount := int(result)
	if newCount > rl.maxConcurrent {
		return false, nil
	}

	logrus.WithFields(logrus.Fields{
		"key":   key,
		"slots": newCount,
		"max":   rl.maxConcurrent,
	}).Debug("concurrency slot acquired")
	return true, nil
}

// Release frees a slot previously taken for key.
func (rl *RedisLimiter) Release(ctx context.Context, key string) {
	// The caller's context may already be cancelled.
	if ctx.Err() != nil {
		ctx = context.Background()
	}

	result, err := releaseScript.Run(ctx, rl.client, []string{rl.keyPrefix + key}, int(rl.ttl.Seconds())).Int64()
	if err != nil {
		logrus.WithError(err).WithField("key", key).Error("release concurrency slot")
		return
	}

	logrus.WithFields(logrus.Fields{
		"key":       key,
		"remaining": result,
	}).Debug("concurrency slot released")
}

// GetCurrent returns the number of slots in use for key.
func (rl *RedisLimiter) GetCurrent(ctx context.Context, key string) (int, error) {
	current, err := rl.client.Get(ctx, rl.keyPrefix+key).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read current concurrency: %w", err)
	}
	return current, nil
}

// GetMaxConcurrent returns the per-key slot count.
func (rl *RedisLimiter) GetMaxConcurrent() int {
	return rl.maxConcurrent
}
