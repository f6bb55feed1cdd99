package geckoterminal

import (
	"context"
	"sync"
	"time"
)

// Backoff tracks consecutive upstream failures shared by every request of a
// client. Each failure raises the counter (up to limit), each success lowers it
// by one, and requests wait min(ceiling, step*failures) before going out.
type Backoff struct {
	mu       sync.Mutex
	failures int
	limit    int
	step     time.Duration
	ceiling  time.Duration
}

func NewBackoff(step, ceiling time.Duration, limit int) *Backoff {
	if step <= 0 {
		step = 500 * time.Millisecond
	}
	if ceiling <= 0 {
		ceiling = 2500 * time.Millisecond
	}
	if limit <= 0 {
		limit = 6
	}
	return &Backoff{step: step, ceiling: ceiling, limit: limit}
}

// Delay is the wait applied before the next request.
func (b *Backoff) Delay() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return min(b.ceiling, b.step*time.Duration(b.failures))
}

func (b *Backoff) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}

func (b *Backoff) Failure() {
	b.mu.Lock()
	b.failures = min(b.limit, b.failures+1)
	b.mu.Unlock()
}

func (b *Backoff) Success() {
	b.mu.Lock()
	if b.failures > 0 {
		b.failures--
	}
	b.mu.Unlock()
}

// Wait sleeps for Delay or until ctx is done.
func (b *Backoff) Wait(ctx context.Context) error {
	delay := b.Delay()
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	select {
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
