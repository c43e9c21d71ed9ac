package shutdown

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrWaitTimeout indicates a bounded wait gave up before its condition held.
var ErrWaitTimeout = errors.New("wait timeout")

// DefaultPollInterval is used when WaitUntil receives a non-positive interval.
const DefaultPollInterval = 100 * time.Millisecond

// Timer is an armed grace-period timer racing an external completion signal.
// Disarm cancels the pending callback; once the callback has started running,
// Disarm waits for nothing and the callback proceeds.
type Timer struct {
	mu    sync.Mutex
	timer *time.Timer
	fired bool
}

// Arm schedules onElapsed to run after d. A nil callback or non-positive
// duration returns a timer that never fires.
func Arm(d time.Duration, onElapsed func()) *Timer {
	t := &Timer{}
	if onElapsed == nil || d <= 0 {
		return t
	}
	t.timer = time.AfterFunc(d, func() {
		t.mu.Lock()
		t.fired = true
		t.mu.Unlock()
		onElapsed()
	})
	return t
}

// Disarm cancels the timer if it has not fired yet.
func (t *Timer) Disarm() {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
	}
}

// Fired reports whether the callback ran.
func (t *Timer) Fired() bool {
	if t == nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fired
}

// WaitUntil polls cond at interval until it returns true, the timeout elapses,
// or the context is canceled. The returned timeout error names the unmet
// condition so stacked waits stay distinguishable.
func WaitUntil(ctx context.Context, what string, cond func() bool, timeout, interval time.Duration) error {
	if cond() {
		return nil
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return fmt.Errorf("%w: %s after %s", ErrWaitTimeout, what, timeout)
		case <-ticker.C:
			if cond() {
				return nil
			}
		}
	}
}
