package shutdown

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestWaitUntilReturnsImmediatelyWhenConditionHolds(t *testing.T) {
	calls := 0
	err := WaitUntil(context.Background(), "already done", func() bool {
		calls++
		return true
	}, time.Second, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("WaitUntil: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a single condition check, got %d", calls)
	}
}

func TestWaitUntilObservesLateCondition(t *testing.T) {
	var flag atomic.Bool
	time.AfterFunc(50*time.Millisecond, func() { flag.Store(true) })
	err := WaitUntil(context.Background(), "flag set", flag.Load, time.Second, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("WaitUntil: %v", err)
	}
}

func TestWaitUntilTimesOutWithNamedCondition(t *testing.T) {
	err := WaitUntil(context.Background(), "process exit", func() bool { return false }, 50*time.Millisecond, 10*time.Millisecond)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !errors.Is(err, ErrWaitTimeout) {
		t.Fatalf("expected ErrWaitTimeout, got %v", err)
	}
	if got := err.Error(); !strings.Contains(got, "process exit") {
		t.Fatalf("expected condition name in error, got %q", got)
	}
}

func TestWaitUntilHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)
	err := WaitUntil(ctx, "never", func() bool { return false }, time.Second, 10*time.Millisecond)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestDisarmPreventsCallback(t *testing.T) {
	var fired atomic.Bool
	timer := Arm(50*time.Millisecond, func() { fired.Store(true) })
	timer.Disarm()
	time.Sleep(100 * time.Millisecond)
	if fired.Load() {
		t.Fatal("expected disarmed timer not to fire")
	}
	if timer.Fired() {
		t.Fatal("Fired should report false after disarm")
	}
}

func TestArmedTimerFires(t *testing.T) {
	done := make(chan struct{})
	timer := Arm(10*time.Millisecond, func() { close(done) })
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected timer callback to run")
	}
	if !timer.Fired() {
		t.Fatal("Fired should report true after elapse")
	}
}

func TestArmWithoutCallbackNeverFires(t *testing.T) {
	timer := Arm(10*time.Millisecond, nil)
	time.Sleep(30 * time.Millisecond)
	if timer.Fired() {
		t.Fatal("nil callback timer must not fire")
	}
	timer.Disarm()
}
