package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	redisLockPrefix   = "gohire:lock:"
	defaultLockTTL    = 5 * time.Minute
	defaultRetryDelay = 200 * time.Millisecond
)

// releaseScript deletes the key only when it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisDistributedLockManager implements locks with SET NX and a per-acquisition token.
// The TTL bounds how long a crashed holder keeps the lock.
type RedisDistributedLockManager struct {
	client     redis.UniversalClient
	ttl        time.Duration
	retryDelay time.Duration

	mu     sync.Mutex
	tokens map[int]string
}

func NewRedisDistributedLockManager(client redis.UniversalClient, ttl time.Duration) *RedisDistributedLockManager {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisDistributedLockManager{
		client:     client,
		ttl:        ttl,
		retryDelay: defaultRetryDelay,
		tokens:     make(map[int]string),
	}
}

func (l *RedisDistributedLockManager) Acquire(ctx context.Context, lockID int) error {
	for {
		ok, err := l.TryAcquire(ctx, lockID)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("failed to acquire lock: %w", ctx.Err())
		case <-time.After(l.retryDelay):
		}
	}
}

func (l *RedisDistributedLockManager) TryAcquire(ctx context.Context, lockID int) (bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, redisKey(lockID), token, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !ok {
		return false, nil
	}

	l.mu.Lock()
	l.tokens[lockID] = token
	l.mu.Unlock()
	return true, nil
}

func (l *RedisDistributedLockManager) Release(ctx context.Context, lockID int) error {
	l.mu.Lock()
	token, ok := l.tokens[lockID]
	delete(l.tokens, lockID)
	l.mu.Unlock()

	if !ok {
		return fmt.Errorf("failed to release lock: lock %d is not held", lockID)
	}

	deleted, err := releaseScript.Run(ctx, l.client, []string{redisKey(lockID)}, token).Int()
	if err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	if deleted == 0 {
		return errors.New("failed to release lock: lock expired or taken over")
	}
	return nil
}

func redisKey(lockID int) string {
	return fmt.Sprintf("%s%d", redisLockPrefix, lockID)
}
