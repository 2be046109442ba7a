package migration

import (
	"context"
	"sync"
	"time"
)

// Locker is a mutual-exclusion lock shared by migration runners.
type Locker interface {
	// Acquire takes key for ttl. It reports false, nil when someone else holds it.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// memoryLocker is a process-local Locker.
type memoryLocker struct {
	mu    sync.Mutex
	locks map[string]time.Time // key -> expiry, zero for no expiry
	now   func() time.Time
}

// NewMemoryLocker returns a Locker that only serializes runners within this process.
func NewMemoryLocker() Locker {
	return &memoryLocker{locks: make(map[string]time.Time), now: time.Now}
}

func (l *memoryLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if exp, held := l.locks[key]; held && (exp.IsZero() || now.Before(exp)) {
		return false, nil
	}
	var exp time.Time
	if ttl > 0 {
		exp = now.Add(ttl)
	}
	l.locks[key] = exp
	return true, nil
}

func (l *memoryLocker) Release(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.locks, key)
	return nil
}
