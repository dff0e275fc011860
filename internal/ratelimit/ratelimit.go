// Package ratelimit provides per-provider sliding-window throttling for
// outbound vendor calls. It is advisory backpressure: an over-budget call
// is delayed to the window boundary, never rejected.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

const window = time.Minute

// DefaultRequestsPerMinute applies when a provider has no configured budget.
const DefaultRequestsPerMinute = 60

// Limiter tracks one rolling one-minute request window per provider.
type Limiter struct {
	mu     sync.Mutex
	limits map[string]int
	calls  map[string][]time.Time
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error
}

// New creates a limiter.
func New() *Limiter {
	return &Limiter{
		limits: make(map[string]int),
		calls:  make(map[string][]time.Time),
		now:    time.Now,
		sleep:  sleepCtx,
	}
}

// SetLimit sets a provider's requests-per-minute budget. Non-positive
// values reset the provider to the default.
func (l *Limiter) SetLimit(providerID string, requestsPerMinute int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if requestsPerMinute <= 0 {
		delete(l.limits, providerID)
		return
	}
	l.limits[providerID] = requestsPerMinute
}

// Remove drops a provider's window and budget.
func (l *Limiter) Remove(providerID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.limits, providerID)
	delete(l.calls, providerID)
}

// Acquire blocks until the provider's window has capacity, then records the
// call. The call is recorded even if the subsequent vendor request times
// out, since the vendor received it. Cancellation of ctx aborts the wait.
func (l *Limiter) Acquire(ctx context.Context, providerID string) error {
	for {
		wait, ok := l.tryAcquire(providerID)
		if ok {
			return nil
		}
		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// tryAcquire records the call if the window has capacity; otherwise it
// returns how long until the oldest in-window call ages out.
func (l *Limiter) tryAcquire(providerID string) (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	limit, ok := l.limits[providerID]
	if !ok {
		limit = DefaultRequestsPerMinute
	}

	recent := l.calls[providerID][:0]
	for _, t := range l.calls[providerID] {
		if now.Sub(t) < window {
			recent = append(recent, t)
		}
	}
	l.calls[providerID] = recent

	if len(recent) < limit {
		l.calls[providerID] = append(recent, now)
		return 0, true
	}

	wait := window - now.Sub(recent[0])
	if wait <= 0 {
		// Oldest entry expired between the prune and here; admit.
		l.calls[providerID] = append(recent[1:], now)
		return 0, true
	}
	return wait, false
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
