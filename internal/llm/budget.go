package llm

import (
	"context"
	"sync"
	"time"
)

// Clock abstracts wall time so budget waits can be tested without sleeping.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is done.
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// budget tracks prompt tokens spent in the current window. In-flight calls
// hold a pending reservation of their estimate until they settle.
type budget struct {
	mu          sync.Mutex
	clock       Clock
	window      time.Duration
	limit       int
	used        int
	pending     int
	windowStart time.Time
}

func newBudget(limit int, window time.Duration, clock Clock) *budget {
	return &budget{
		clock:       clock,
		window:      window,
		limit:       limit,
		windowStart: clock.Now(),
	}
}

// reserve waits, at most once, for the current window to end when the
// estimate does not fit, then reserves the estimate. It returns how long it
// waited.
func (b *budget) reserve(ctx context.Context, estimate int) (time.Duration, error) {
	b.mu.Lock()
	now := b.clock.Now()
	if now.Sub(b.windowStart) >= b.window {
		b.resetLocked(now)
	}

	var waited time.Duration
	if b.used+b.pending+estimate > b.limit {
		start := b.windowStart
		wait := b.window - now.Sub(start)
		if wait < 0 {
			wait = 0
		}
		b.mu.Unlock()

		if err := b.clock.Sleep(ctx, wait); err != nil {
			return 0, err
		}
		waited = wait

		b.mu.Lock()
		// Another caller may already have opened a new window.
		if b.windowStart.Equal(start) {
			b.resetLocked(b.clock.Now())
		}
	}

	b.pending += estimate
	b.mu.Unlock()
	return waited, nil
}

// settle releases a reservation and counts the reported prompt tokens.
// A non-positive reported count leaves the usage counter unchanged.
func (b *budget) settle(estimate, reported int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending -= estimate
	if b.pending < 0 {
		b.pending = 0
	}
	if reported > 0 {
		b.used += reported
	}
}

// record counts tokens for calls that bypass reservation.
func (b *budget) record(reported int) {
	b.settle(0, reported)
}

func (b *budget) resetLocked(now time.Time) {
	b.used = 0
	b.windowStart = now
}

func (b *budget) snapshot() (used, pending int, windowStart time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.used, b.pending, b.windowStart
}
