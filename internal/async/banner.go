package async

import (
	"context"
	"sync"
	"time"
)

// BannerTTL is how long a success banner stays up.
const BannerTTL = 5000 * time.Millisecond

// Message is the content of a banner.
type Message struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Banner is a success message that hides itself after a fixed delay.
type Banner struct {
	sched *Scheduler
	ttl   time.Duration

	mu      sync.Mutex
	msg     Message
	visible bool
	hide    *Completion
}

// NewBanner returns a hidden banner. A ttl of zero means BannerTTL.
func NewBanner(sched *Scheduler, ttl time.Duration) *Banner {
	if ttl <= 0 {
		ttl = BannerTTL
	}
	return &Banner{sched: sched, ttl: ttl}
}

// Show displays msg and restarts the hide timer.
func (b *Banner) Show(msg Message) {
	b.mu.Lock()
	prev := b.hide
	b.msg = msg
	b.visible = true
	var hide *Completion
	hide = b.sched.After(context.Background(), b.ttl, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		// a later Show or Dismiss owns the banner now
		if b.hide != hide {
			return
		}
		b.visible = false
		b.hide = nil
	})
	b.hide = hide
	b.mu.Unlock()

	if prev != nil {
		prev.Cancel()
	}
}

// Dismiss hides the banner immediately.
func (b *Banner) Dismiss() {
	b.mu.Lock()
	prev := b.hide
	b.visible = false
	b.hide = nil
	b.mu.Unlock()

	if prev != nil {
		prev.Cancel()
	}
}

// Visible reports whether the banner is currently shown.
func (b *Banner) Visible() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.visible
}

// Current returns the message and whether it is visible.
func (b *Banner) Current() (Message, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.msg, b.visible
}
