package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeClock drives the limiter deterministically: sleeps advance the clock
// instead of blocking.
type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func newFakeLimiter() (*Limiter, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	l := New()
	l.now = func() time.Time { return clock.now }
	l.sleep = func(ctx context.Context, d time.Duration) error {
		clock.sleeps = append(clock.sleeps, d)
		clock.now = clock.now.Add(d)
		return nil
	}
	return l, clock
}

func TestAcquireUnderLimit(t *testing.T) {
	l, clock := newFakeLimiter()
	l.SetLimit("p1", 5)

	for i := 0; i < 5; i++ {
		if err := l.Acquire(context.Background(), "p1"); err != nil {
			t.Fatalf("Acquire() #%d error = %v", i+1, err)
		}
	}
	if len(clock.sleeps) != 0 {
		t.Errorf("under-limit calls slept %v times, want 0", len(clock.sleeps))
	}
}

func TestAcquireDelaysOverLimit(t *testing.T) {
	l, clock := newFakeLimiter()
	l.SetLimit("p1", 3)

	start := clock.now
	for i := 0; i < 3; i++ {
		if err := l.Acquire(context.Background(), "p1"); err != nil {
			t.Fatalf("Acquire() error = %v", err)
		}
		clock.now = clock.now.Add(time.Second)
	}

	// Fourth call lands 3s after the first; it must wait out the rest of
	// the window rather than being rejected.
	if err := l.Acquire(context.Background(), "p1"); err != nil {
		t.Fatalf("Acquire() over-limit error = %v", err)
	}
	if len(clock.sleeps) == 0 {
		t.Fatal("over-limit call did not sleep")
	}
	wantWait := time.Minute - clock.sleeps[0]
	if wantWait != 3*time.Second {
		t.Errorf("waited %v, want window minus 3s elapsed", clock.sleeps[0])
	}
	if elapsed := clock.now.Sub(start); elapsed < time.Minute {
		t.Errorf("admitted after %v, want at least one full window", elapsed)
	}
}

func TestAcquireWindowSlides(t *testing.T) {
	l, clock := newFakeLimiter()
	l.SetLimit("p1", 2)

	for i := 0; i < 2; i++ {
		if err := l.Acquire(context.Background(), "p1"); err != nil {
			t.Fatalf("Acquire() error = %v", err)
		}
	}

	// After the window passes, capacity is restored without sleeping.
	clock.now = clock.now.Add(61 * time.Second)
	if err := l.Acquire(context.Background(), "p1"); err != nil {
		t.Fatalf("Acquire() after window error = %v", err)
	}
	if len(clock.sleeps) != 0 {
		t.Errorf("slid-window call slept %v times, want 0", len(clock.sleeps))
	}
}

func TestAcquireContextCancelled(t *testing.T) {
	l, _ := newFakeLimiter()
	l.sleep = func(ctx context.Context, d time.Duration) error {
		return context.Canceled
	}
	l.SetLimit("p1", 1)

	if err := l.Acquire(context.Background(), "p1"); err != nil {
		t.Fatalf("first Acquire() error = %v", err)
	}
	err := l.Acquire(context.Background(), "p1")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Acquire() error = %v, want context.Canceled", err)
	}
}

func TestLimitsAreIndependent(t *testing.T) {
	l, clock := newFakeLimiter()
	l.SetLimit("p1", 1)
	l.SetLimit("p2", 1)

	if err := l.Acquire(context.Background(), "p1"); err != nil {
		t.Fatalf("Acquire(p1) error = %v", err)
	}
	if err := l.Acquire(context.Background(), "p2"); err != nil {
		t.Fatalf("Acquire(p2) error = %v", err)
	}
	if len(clock.sleeps) != 0 {
		t.Errorf("independent providers slept %v times, want 0", len(clock.sleeps))
	}
}

func TestRemoveResetsWindow(t *testing.T) {
	l, clock := newFakeLimiter()
	l.SetLimit("p1", 1)

	if err := l.Acquire(context.Background(), "p1"); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	l.Remove("p1")
	l.SetLimit("p1", 1)
	if err := l.Acquire(context.Background(), "p1"); err != nil {
		t.Fatalf("Acquire() after Remove error = %v", err)
	}
	if len(clock.sleeps) != 0 {
		t.Errorf("post-Remove call slept %v times, want 0", len(clock.sleeps))
	}
}
