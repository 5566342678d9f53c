package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestRetry_SucceedsFirstAttempt(t *testing.T) {
	var calls int
	err := Retry(context.Background(), "op", RetryPolicy{Attempts: 3, Delay: time.Millisecond}, func(context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestRetry_RecoversWithinPolicy(t *testing.T) {
	var calls int
	err := Retry(context.Background(), "op", RetryPolicy{Attempts: 5, Delay: time.Millisecond}, func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestRetry_Exhaustion(t *testing.T) {
	wrapped := errors.New("down")
	var calls int
	err := Retry(context.Background(), "op", RetryPolicy{Attempts: 4, Delay: time.Millisecond}, func(context.Context) error {
		calls++
		return wrapped
	})
	if err == nil {
		t.Fatalf("expected error after exhaustion")
	}
	if !errors.Is(err, wrapped) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
	if calls != 4 {
		t.Fatalf("expected 4 calls, got %d", calls)
	}
}

func TestRetry_ContextCancelCutsWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- Retry(ctx, "op", RetryPolicy{Attempts: 3, Delay: time.Hour}, func(context.Context) error {
			return errors.New("transient")
		})
	}()

	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("retry did not observe cancellation")
	}
}

func TestRuntime_SubmitReturnsImmediately(t *testing.T) {
	rt := NewRuntime()
	release := make(chan struct{})

	var finished atomic.Bool
	handle := rt.Go(context.Background(), "slow", func(context.Context) error {
		<-release
		finished.Store(true)
		return nil
	})

	if handle == "" {
		t.Fatalf("expected a handle")
	}
	if finished.Load() {
		t.Fatalf("submit must not wait for the task")
	}

	close(release)
	rt.Wait()

	if !finished.Load() {
		t.Fatalf("task did not run")
	}
}

func TestRuntime_TaskErrorDoesNotPropagate(t *testing.T) {
	rt := NewRuntime()

	rt.Go(context.Background(), "failing", func(context.Context) error {
		return errors.New("job error")
	})
	rt.Go(context.Background(), "panicking", func(context.Context) error {
		panic("job panic")
	})

	// Wait returning at all shows neither task took the process down.
	rt.Wait()
}

func TestRuntime_HandlesAreUnique(t *testing.T) {
	rt := NewRuntime()

	h1 := rt.Go(context.Background(), "a", func(context.Context) error { return nil })
	h2 := rt.Go(context.Background(), "b", func(context.Context) error { return nil })
	rt.Wait()

	if h1 == h2 {
		t.Fatalf("handles must be unique, both %s", h1)
	}
}
