// Package async runs the portal's simulated background work: delayed
// submissions, file transfers and self-hiding banners. Every delay is a
// Completion that can be cancelled, and every clock is injectable.
package async

import (
	"context"
	"sync"
	"time"

	"k8s.io/utils/clock"
)

// Scheduler creates Completions on a clock.
type Scheduler struct {
	clock clock.WithDelayedExecution
}

// NewScheduler returns a Scheduler using c. A nil clock means wall time.
func NewScheduler(c clock.WithDelayedExecution) *Scheduler {
	if c == nil {
		c = clock.RealClock{}
	}
	return &Scheduler{clock: c}
}

// Now reports the scheduler's current time.
func (s *Scheduler) Now() time.Time {
	return s.clock.Now()
}

// After runs fn once d has elapsed, unless ctx ends or the Completion is
// cancelled first. fn runs on its own goroutine so it may schedule further
// work on the same clock.
func (s *Scheduler) After(ctx context.Context, d time.Duration, fn func()) *Completion {
	c := &Completion{done: make(chan struct{})}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.timer = s.clock.AfterFunc(d, func() {
		go c.fire(fn)
	})
	c.stopWatch = context.AfterFunc(ctx, func() {
		c.cancel(context.Cause(ctx))
	})
	return c
}

// Completion is a pending delayed operation.
type Completion struct {
	mu        sync.Mutex
	timer     clock.Timer
	stopWatch func() bool
	settled   bool
	err       error
	done      chan struct{}
}

// Done is closed once the operation has run or been cancelled.
func (c *Completion) Done() <-chan struct{} {
	return c.done
}

// Err is nil if the operation ran, or the cancellation cause otherwise.
// It is only meaningful after Done is closed.
func (c *Completion) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Cancel prevents the operation from running. It returns false if the
// operation already ran or was already cancelled.
func (c *Completion) Cancel() bool {
	return c.cancel(context.Canceled)
}

// Wait blocks until the Completion settles or ctx ends.
func (c *Completion) Wait(ctx context.Context) error {
	select {
	case <-c.done:
		return c.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Completion) fire(fn func()) {
	if !c.settle(nil) {
		return
	}
	c.mu.Lock()
	stop := c.stopWatch
	c.mu.Unlock()
	stop()
	if fn != nil {
		fn()
	}
	close(c.done)
}

func (c *Completion) cancel(cause error) bool {
	if cause == nil {
		cause = context.Canceled
	}
	if !c.settle(cause) {
		return false
	}
	c.mu.Lock()
	timer, stop := c.timer, c.stopWatch
	c.mu.Unlock()
	timer.Stop()
	stop()
	close(c.done)
	return true
}

func (c *Completion) settle(err error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.settled {
		return false
	}
	c.settled = true
	c.err = err
	return true
}
