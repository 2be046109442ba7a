// Package redis provides a migration.Locker backed by Redis, so that migration
// runners on different hosts do not apply the same versions concurrently.
package redis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/burugo/fluent/migration"
)

// releaseScript deletes the lock only if this locker still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Options holds configuration for the Redis client.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// Locker implements migration.Locker with SET NX and an owner token.
type Locker struct {
	redisClient       *redis.Client
	createdInternally bool

	mu     sync.Mutex
	tokens map[string]string // key -> token of the lock this Locker holds
}

// Ensure Locker implements migration.Locker and io.Closer.
var (
	_ migration.Locker = (*Locker)(nil)
	_ io.Closer        = (*Locker)(nil)
)

// NewLocker returns a Redis-backed Locker. If redisCli is not nil it is used
// directly; otherwise a client is created from opts and pinged.
func NewLocker(redisCli *redis.Client, opts *Options) (*Locker, error) {
	var rdb *redis.Client
	var createdInternally bool

	if redisCli != nil {
		rdb = redisCli
	} else {
		if opts == nil {
			opts = &Options{}
		}
		rdb = redis.NewClient(&redis.Options{
			Addr:     opts.Addr,
			Password: opts.Password,
			DB:       opts.DB,
		})
		createdInternally = true

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("failed to ping redis: %w", err)
		}
	}

	log.Println("Redis migration locker initialized successfully.")
	return &Locker{redisClient: rdb, createdInternally: createdInternally, tokens: make(map[string]string)}, nil
}

// Acquire tries to take key with SET NX. A zero ttl never expires.
func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	token := uuid.NewString()
	acquired, err := l.redisClient.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis SetNX error for lock key '%s': %w", key, err)
	}
	if acquired {
		l.mu.Lock()
		l.tokens[key] = token
		l.mu.Unlock()
	}
	return acquired, nil
}

// Release frees key if this Locker still owns it. Releasing a lock that expired or
// was never held is not an error.
func (l *Locker) Release(ctx context.Context, key string) error {
	l.mu.Lock()
	token, ok := l.tokens[key]
	delete(l.tokens, key)
	l.mu.Unlock()
	if !ok {
		return nil
	}

	err := releaseScript.Run(ctx, l.redisClient, []string{key}, token).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redis release error for lock key '%s': %w", key, err)
	}
	return nil
}

// Close implements io.Closer. Only closes the client if NewLocker created it.
func (l *Locker) Close() error {
	if l.createdInternally && l.redisClient != nil {
		return l.redisClient.Close()
	}
	return nil
}
