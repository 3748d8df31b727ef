package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Lua script for safe lock release (only owner can release)
var releaseLockScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// DrainLock guards a drain pass across daemon instances sharing the same
// queue, backing up the in-process single-flight guard. The TTL bounds how
// long a crashed holder can block the next pass.
type DrainLock struct {
	client *redis.Client
	key    string
	value  string
	ttl    time.Duration
}

// NewDrainLock creates a lock for the named queue.
func NewDrainLock(client *redis.Client, queueName string, ttl time.Duration) *DrainLock {
	return &DrainLock{
		client: client,
		key:    fmt.Sprintf("lock:drain:%s", queueName),
		value:  uuid.New().String(),
		ttl:    ttl,
	}
}

// Acquire attempts to take the lock. Returns false without error when
// another instance holds it.
func (l *DrainLock) Acquire(ctx context.Context) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key, l.value, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire drain lock: %w", err)
	}
	return ok, nil
}

// Release frees the lock if this instance still owns it.
func (l *DrainLock) Release(ctx context.Context) error {
	if err := releaseLockScript.Run(ctx, l.client, []string{l.key}, l.value).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("release drain lock: %w", err)
	}
	return nil
}
