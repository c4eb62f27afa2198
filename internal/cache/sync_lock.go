package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	// ErrLockHeld is returned when another holder owns the lock.
	ErrLockHeld = errors.New("lock held by another process")
	// ErrLockLost is returned by Extend once the lease expired or was taken over.
	ErrLockLost = errors.New("lock lease lost")
)

const syncLockKey = "lock:orders:sync"

// SyncLock is a single-flight guard around the external order sync, shared by
// every API replica through Redis. The holder keeps the lease alive with
// Extend; a crashed holder frees the lock once ttl elapses.
type SyncLock struct {
	redis *RedisClient
	ttl   time.Duration

	mu    sync.Mutex
	token string
}

// NewSyncLock creates a SyncLock whose lease expires after ttl if never
// released or extended.
func NewSyncLock(redis *RedisClient, ttl time.Duration) *SyncLock {
	return &SyncLock{redis: redis, ttl: ttl}
}

// Acquire takes the lock or returns ErrLockHeld. The returned func releases it
// and is safe to call after the lease expired.
func (l *SyncLock) Acquire(ctx context.Context) (func(), error) {
	token := uuid.NewString()
	ok, err := l.redis.SetNX(ctx, syncLockKey, token, l.ttl)
	if err != nil {
		return nil, fmt.Errorf("acquire sync lock: %w", err)
	}
	if !ok {
		return nil, ErrLockHeld
	}
	l.setToken(token)

	release := func() {
		l.clearToken(token)
		// the caller's context may already be cancelled
		rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if _, err := l.redis.DeleteIfEquals(rctx, syncLockKey, token); err != nil {
			log.Warn().Err(err).Msg("failed to release sync lock")
		}
	}
	return release, nil
}

// Extend pushes the lease out by another ttl. It returns ErrLockLost when
// this process no longer holds the lock.
func (l *SyncLock) Extend(ctx context.Context) error {
	l.mu.Lock()
	token := l.token
	l.mu.Unlock()
	if token == "" {
		return ErrLockLost
	}

	ok, err := l.redis.ExpireIfEquals(ctx, syncLockKey, token, l.ttl)
	if err != nil {
		return fmt.Errorf("extend sync lock: %w", err)
	}
	if !ok {
		l.clearToken(token)
		return ErrLockLost
	}
	return nil
}

func (l *SyncLock) setToken(token string) {
	l.mu.Lock()
	l.token = token
	l.mu.Unlock()
}

func (l *SyncLock) clearToken(token string) {
	l.mu.Lock()
	if l.token == token {
		l.token = ""
	}
	l.mu.Unlock()
}
