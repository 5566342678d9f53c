package jobs

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RetryPolicy is a fixed-attempt, fixed-delay retry schedule, matching the
// semantics the crawl tasks expect from their scheduling runtime.
type RetryPolicy struct {
	Attempts int
	Delay    time.Duration
}

// Retry runs fn until it succeeds or the policy is exhausted, sleeping the
// fixed delay between attempts. Context cancellation cuts the wait short.
func Retry(ctx context.Context, name string, policy RetryPolicy, fn func(context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= policy.Attempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		if attempt < policy.Attempts {
			log.Printf("%s failed (attempt %d/%d): %v, retrying in %s",
				name, attempt, policy.Attempts, lastErr, policy.Delay)
			select {
			case <-time.After(policy.Delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", name, policy.Attempts, lastErr)
}

// Runtime runs submitted tasks on their own goroutines. It stands in for an
// external job scheduler: submission returns immediately with an opaque
// handle and the caller never blocks on completion.
type Runtime struct {
	wg sync.WaitGroup
}

func NewRuntime() *Runtime {
	return &Runtime{}
}

// Go schedules fn asynchronously and returns its handle. Task errors are
// logged, never propagated to the submitter.
func (r *Runtime) Go(ctx context.Context, name string, fn func(context.Context) error) string {
	handle := uuid.NewString()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("task %s (%s) panicked: %v", name, handle, rec)
			}
		}()

		if err := fn(ctx); err != nil {
			log.Printf("task %s (%s) failed: %v", name, handle, err)
		}
	}()

	return handle
}

// Wait blocks until every submitted task has finished. Used on shutdown and
// in tests; the crawl loop itself never calls it.
func (r *Runtime) Wait() {
	r.wg.Wait()
}
