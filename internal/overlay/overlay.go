// Package overlay tracks the transient "controls visible" state of the
// player surface: activity shows the overlay, a fixed idle interval hides
// it again. The overlay knows nothing about player readiness; the host
// gates rendering on that.
package overlay

import (
	"sync"
	"time"
)

// DefaultHideDelay is the idle interval after which the overlay hides.
const DefaultHideDelay = 3 * time.Second

// Overlay is the activity-driven visibility state. At most one idle timer
// is pending at any time.
type Overlay struct {
	mu       sync.Mutex
	visible  bool
	timer    *time.Timer
	delay    time.Duration
	onChange func(visible bool)
	closed   bool
}

// New creates an overlay with the given idle delay; delay <= 0 uses
// DefaultHideDelay. onChange, if non-nil, is invoked on every visibility
// flip (from the timer goroutine when the flip comes from the idle timer).
func New(delay time.Duration, onChange func(visible bool)) *Overlay {
	if delay <= 0 {
		delay = DefaultHideDelay
	}
	return &Overlay{delay: delay, onChange: onChange}
}

// Touch records activity: the overlay becomes visible and the idle timer
// restarts. Any previously pending timer is cancelled first, so there is
// never more than one.
func (o *Overlay) Touch() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}

	changed := !o.visible
	o.visible = true
	o.stopTimerLocked()
	o.timer = time.AfterFunc(o.delay, o.hide)
	cb := o.onChange
	o.mu.Unlock()

	if changed && cb != nil {
		cb(true)
	}
}

// Leave hides the overlay immediately and cancels the pending timer, so no
// delayed hide can fire after the pointer left.
func (o *Overlay) Leave() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}

	changed := o.visible
	o.visible = false
	o.stopTimerLocked()
	cb := o.onChange
	o.mu.Unlock()

	if changed && cb != nil {
		cb(false)
	}
}

// hide is the idle timer firing.
func (o *Overlay) hide() {
	o.mu.Lock()
	if o.closed || !o.visible {
		o.mu.Unlock()
		return
	}
	o.visible = false
	o.timer = nil
	cb := o.onChange
	o.mu.Unlock()

	if cb != nil {
		cb(false)
	}
}

// Visible reports the current visibility.
func (o *Overlay) Visible() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.visible
}

// Close cancels any pending timer without re-arming. Further Touch/Leave
// calls are no-ops.
func (o *Overlay) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
	o.stopTimerLocked()
}

func (o *Overlay) stopTimerLocked() {
	if o.timer != nil {
		o.timer.Stop()
		o.timer = nil
	}
}
