package async

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	testingclock "k8s.io/utils/clock/testing"

	"deployment-portal/backend/pkg/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fixedRand returns its values in order, repeating the last one.
type fixedRand struct {
	vals []float64
	i    atomic.Int32
}

func (f *fixedRand) Float64() float64 {
	i := int(f.i.Add(1)) - 1
	if i >= len(f.vals) {
		i = len(f.vals) - 1
	}
	return f.vals[i]
}

func waitDone(t *testing.T, c *Completion) {
	t.Helper()
	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("completion did not settle")
	}
}

func TestScheduler_RunsAfterDelay(t *testing.T) {
	clk := testingclock.NewFakeClock(time.Now())
	s := NewScheduler(clk)

	var ran atomic.Bool
	c := s.After(context.Background(), 2*time.Second, func() { ran.Store(true) })

	clk.Step(1999 * time.Millisecond)
	assert.False(t, ran.Load())

	clk.Step(time.Millisecond)
	waitDone(t, c)
	assert.True(t, ran.Load())
	assert.NoError(t, c.Err())
	assert.False(t, c.Cancel(), "cancel after completion is a no-op")
}

func TestScheduler_Cancel(t *testing.T) {
	clk := testingclock.NewFakeClock(time.Now())
	s := NewScheduler(clk)

	var ran atomic.Bool
	c := s.After(context.Background(), time.Second, func() { ran.Store(true) })

	require.True(t, c.Cancel())
	waitDone(t, c)
	assert.ErrorIs(t, c.Err(), context.Canceled)
	assert.False(t, clk.HasWaiters(), "timer should be stopped")

	clk.Step(time.Hour)
	assert.False(t, ran.Load())
}

func TestScheduler_ContextCancellation(t *testing.T) {
	clk := testingclock.NewFakeClock(time.Now())
	s := NewScheduler(clk)

	cause := errors.New("page closed")
	ctx, cancel := context.WithCancelCause(context.Background())
	c := s.After(ctx, time.Second, func() { t.Error("should not run") })

	cancel(cause)
	waitDone(t, c)
	assert.ErrorIs(t, c.Err(), cause)
}

func TestScheduler_RealClock(t *testing.T) {
	s := NewScheduler(nil)
	done := make(chan struct{})
	c := s.After(context.Background(), 5*time.Millisecond, func() { close(done) })

	require.NoError(t, c.Wait(context.Background()))
	<-done
}

func TestBanner_HidesAfterExactly5000ms(t *testing.T) {
	clk := testingclock.NewFakeClock(time.Now())
	b := NewBanner(NewScheduler(clk), 0)

	assert.False(t, b.Visible())
	b.Show(Message{Title: "Upload Successful!"})
	assert.True(t, b.Visible())

	clk.Step(4999 * time.Millisecond)
	assert.True(t, b.Visible())

	clk.Step(time.Millisecond)
	assert.Eventually(t, func() bool { return !b.Visible() }, time.Second, time.Millisecond)

	msg, visible := b.Current()
	assert.False(t, visible)
	assert.Equal(t, "Upload Successful!", msg.Title)
}

func TestBanner_ShowRestartsTimer(t *testing.T) {
	clk := testingclock.NewFakeClock(time.Now())
	b := NewBanner(NewScheduler(clk), 0)

	b.Show(Message{Title: "first"})
	clk.Step(3 * time.Second)
	b.Show(Message{Title: "second"})

	clk.Step(3 * time.Second)
	assert.True(t, b.Visible(), "second Show owns a fresh 5s window")

	clk.Step(2 * time.Second)
	assert.Eventually(t, func() bool { return !b.Visible() }, time.Second, time.Millisecond)
}

func TestBanner_Dismiss(t *testing.T) {
	clk := testingclock.NewFakeClock(time.Now())
	b := NewBanner(NewScheduler(clk), 0)

	b.Show(Message{Title: "x"})
	b.Dismiss()
	assert.False(t, b.Visible())
	assert.False(t, clk.HasWaiters())
}

func TestFileUploader_Outcomes(t *testing.T) {
	tests := []struct {
		name  string
		draws []float64
		delay time.Duration
		want  models.FileStatus
	}{
		{"fast success", []float64{0, 0.5}, time.Second, models.FileUploaded},
		{"slow success", []float64{0.5, 0.1}, 2 * time.Second, models.FileUploaded},
		{"failure", []float64{1, 0.05}, 3 * time.Second, models.FileError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clk := testingclock.NewFakeClock(time.Now())
			u := NewFileUploader(NewScheduler(clk), UploaderOptions{Rand: &fixedRand{vals: tt.draws}, FailureRate: 0.1})

			results := make(chan models.UploadedFile, 1)
			pending, c := u.Start(context.Background(), models.UploadedFile{ID: "f1", Name: "release.zip"}, func(f models.UploadedFile) {
				results <- f
			})
			assert.Equal(t, models.FileUploading, pending.Status)

			clk.Step(tt.delay - time.Millisecond)
			select {
			case <-results:
				t.Fatal("finished early")
			default:
			}

			clk.Step(time.Millisecond)
			waitDone(t, c)
			got := <-results
			assert.Equal(t, tt.want, got.Status)
			assert.Equal(t, "release.zip", got.Name)
		})
	}
}

func TestFileUploader_DefaultFailureRate(t *testing.T) {
	tests := []struct {
		name string
		rate float64
		want models.FileStatus
	}{
		{"unset rate fails one in ten", 0, models.FileError},
		{"failures disabled", NoFailures, models.FileUploaded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clk := testingclock.NewFakeClock(time.Now())
			u := NewFileUploader(NewScheduler(clk), UploaderOptions{FailureRate: tt.rate, Rand: &fixedRand{vals: []float64{0, 0.05}}})

			results := make(chan models.UploadedFile, 1)
			_, c := u.Start(context.Background(), models.UploadedFile{ID: "f1"}, func(f models.UploadedFile) {
				results <- f
			})
			clk.Step(DefaultUploadMin)
			waitDone(t, c)
			assert.Equal(t, tt.want, (<-results).Status)
		})
	}
}

func TestSubmitter_FixedDelay(t *testing.T) {
	clk := testingclock.NewFakeClock(time.Now())
	s := NewSubmitter(NewScheduler(clk), 0)
	require.Equal(t, DefaultSubmitDelay, s.Delay())

	var ran atomic.Bool
	c := s.Submit(context.Background(), func() { ran.Store(true) })

	clk.Step(1999 * time.Millisecond)
	assert.False(t, ran.Load())

	clk.Step(time.Millisecond)
	waitDone(t, c)
	assert.True(t, ran.Load())
}
