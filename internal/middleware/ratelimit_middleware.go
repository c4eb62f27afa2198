package middleware

import (
	"sync"
	"time"
)

const (
	invalidAuthLimit  = 5
	invalidAuthWindow = time.Minute
)

// InvalidAuthRateLimiter throttles failed logins and invalid tokens per IP.
type InvalidAuthRateLimiter struct {
	mu       sync.Mutex
	attempts map[string]*attemptInfo
	limit    int
	window   time.Duration
	now      func() time.Time
	stop     chan struct{}
	once     sync.Once
}

type attemptInfo struct {
	count   int
	firstAt time.Time
}

// NewInvalidAuthRateLimiter allows 5 failures per IP per minute.
func NewInvalidAuthRateLimiter() *InvalidAuthRateLimiter {
	rl := &InvalidAuthRateLimiter{
		attempts: make(map[string]*attemptInfo),
		limit:    invalidAuthLimit,
		window:   invalidAuthWindow,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

// Allow records a failure for ip and reports whether it is still under the
// limit.
func (r *InvalidAuthRateLimiter) Allow(ip string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	info, exists := r.attempts[ip]
	if !exists || now.Sub(info.firstAt) > r.window {
		r.attempts[ip] = &attemptInfo{count: 1, firstAt: now}
		return true
	}

	if info.count >= r.limit {
		return false
	}
	info.count++
	return true
}

// Blocked reports whether ip already exhausted its attempts, without
// recording a new one.
func (r *InvalidAuthRateLimiter) Blocked(ip string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	info, ok := r.attempts[ip]
	return ok && r.now().Sub(info.firstAt) <= r.window && info.count >= r.limit
}

// Stop ends the cleanup goroutine.
func (r *InvalidAuthRateLimiter) Stop() {
	r.once.Do(func() { close(r.stop) })
}

func (r *InvalidAuthRateLimiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.mu.Lock()
			now := r.now()
			for ip, info := range r.attempts {
				if now.Sub(info.firstAt) > r.window {
					delete(r.attempts, ip)
				}
			}
			r.mu.Unlock()
		case <-r.stop:
			return
		}
	}
}
