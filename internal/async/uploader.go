package async

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"deployment-portal/backend/pkg/models"
)

// Default transfer simulation parameters.
const (
	DefaultUploadMin    = 1000 * time.Millisecond
	DefaultUploadJitter = 2000 * time.Millisecond
	DefaultFailureRate  = 0.1
)

// NoFailures is a FailureRate under which every transfer succeeds.
const NoFailures = -1.0

// Rand is the source of randomness for transfer simulation.
type Rand interface {
	Float64() float64
}

type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

// NewRand returns a goroutine-safe Rand seeded from the runtime.
func NewRand() Rand {
	return &lockedRand{r: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
}

// UploaderOptions tunes the transfer simulation.
type UploaderOptions struct {
	Min         time.Duration
	Jitter      time.Duration
	FailureRate float64
	Rand        Rand
}

// FileUploader pretends to transfer files. After a random delay each file
// either lands as uploaded or, with probability FailureRate, as an error.
// Failed files are not retried.
type FileUploader struct {
	sched *Scheduler
	opts  UploaderOptions
}

// NewFileUploader returns a FileUploader. Unset durations take the defaults.
// A zero FailureRate, or one above 1, means DefaultFailureRate; a negative
// rate disables failures.
func NewFileUploader(sched *Scheduler, opts UploaderOptions) *FileUploader {
	if opts.Min <= 0 {
		opts.Min = DefaultUploadMin
	}
	if opts.Jitter <= 0 {
		opts.Jitter = DefaultUploadJitter
	}
	if opts.FailureRate == 0 || opts.FailureRate > 1 {
		opts.FailureRate = DefaultFailureRate
	}
	if opts.Rand == nil {
		opts.Rand = NewRand()
	}
	return &FileUploader{sched: sched, opts: opts}
}

// Start marks f as uploading and schedules its outcome. done receives the
// file with its final status.
func (u *FileUploader) Start(ctx context.Context, f models.UploadedFile, done func(models.UploadedFile)) (models.UploadedFile, *Completion) {
	f.Status = models.FileUploading
	delay := u.opts.Min + time.Duration(u.opts.Rand.Float64()*float64(u.opts.Jitter))

	c := u.sched.After(ctx, delay, func() {
		result := f
		if u.opts.Rand.Float64() < u.opts.FailureRate {
			result.Status = models.FileError
		} else {
			result.Status = models.FileUploaded
		}
		if done != nil {
			done(result)
		}
	})
	return f, c
}
