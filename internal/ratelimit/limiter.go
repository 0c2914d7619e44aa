// internal/ratelimit/limiter.go
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Window is the length of one budget window.
const Window = time.Minute

// Limiter enforces a per-platform request budget. A denial must be surfaced
// to the caller immediately; implementations never queue or back off.
type Limiter interface {
	TryAcquire(ctx context.Context, platform string, budget int) bool
}

type windowState struct {
	start time.Time
	count int
}

// WindowLimiter keeps one rolling one-minute window per platform slug in memory.
type WindowLimiter struct {
	mu      sync.Mutex
	windows map[string]*windowState
	now     func() time.Time
}

func NewWindowLimiter() *WindowLimiter {
	return &WindowLimiter{
		windows: make(map[string]*windowState),
		now:     time.Now,
	}
}

// NewWindowLimiterWithClock is used by tests to control time.
func NewWindowLimiterWithClock(now func() time.Time) *WindowLimiter {
	l := NewWindowLimiter()
	l.now = now
	return l
}

func (l *WindowLimiter) TryAcquire(_ context.Context, platform string, budget int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[platform]
	if !ok {
		w = &windowState{start: now}
		l.windows[platform] = w
	}

	if now.Sub(w.start) >= Window {
		w.start = now
		w.count = 0
	}

	if w.count >= budget {
		return false
	}
	w.count++
	return true
}

// Remaining reports how many requests are left in the current window.
func (l *WindowLimiter) Remaining(platform string, budget int) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[platform]
	if !ok || l.now().Sub(w.start) >= Window {
		return budget
	}
	if left := budget - w.count; left > 0 {
		return left
	}
	return 0
}
