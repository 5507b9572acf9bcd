package async

import (
	"context"
	"time"
)

// DefaultSubmitDelay is the simulated processing time of a form submission.
const DefaultSubmitDelay = 2000 * time.Millisecond

// Submitter delays form submissions by a fixed amount.
type Submitter struct {
	sched *Scheduler
	delay time.Duration
}

// NewSubmitter returns a Submitter. A delay of zero means DefaultSubmitDelay.
func NewSubmitter(sched *Scheduler, delay time.Duration) *Submitter {
	if delay <= 0 {
		delay = DefaultSubmitDelay
	}
	return &Submitter{sched: sched, delay: delay}
}

// Delay reports the configured submission delay.
func (s *Submitter) Delay() time.Duration {
	return s.delay
}

// Submit runs onSuccess after the submission delay.
func (s *Submitter) Submit(ctx context.Context, onSuccess func()) *Completion {
	return s.sched.After(ctx, s.delay, onSuccess)
}
