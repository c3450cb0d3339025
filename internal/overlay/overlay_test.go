package overlay

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestTouchShowsThenIdleHides(t *testing.T) {
	o := New(50*time.Millisecond, nil)
	defer o.Close()

	o.Touch()
	if !o.Visible() {
		t.Fatal("overlay not visible after activity")
	}

	// Still visible before the idle delay elapses.
	time.Sleep(20 * time.Millisecond)
	if !o.Visible() {
		t.Error("overlay hid before the idle delay")
	}

	// Hidden once the delay has passed.
	time.Sleep(100 * time.Millisecond)
	if o.Visible() {
		t.Error("overlay still visible after the idle delay")
	}
}

func TestActivityRestartsTimer(t *testing.T) {
	o := New(60*time.Millisecond, nil)
	defer o.Close()

	o.Touch()
	for i := 0; i < 4; i++ {
		time.Sleep(30 * time.Millisecond)
		o.Touch() // keep poking before the timer fires
	}
	if !o.Visible() {
		t.Error("continuous activity should keep the overlay visible")
	}

	time.Sleep(150 * time.Millisecond)
	if o.Visible() {
		t.Error("overlay should hide once activity stops")
	}
}

func TestLeaveHidesImmediately(t *testing.T) {
	var hides atomic.Int32
	o := New(50*time.Millisecond, func(visible bool) {
		if !visible {
			hides.Add(1)
		}
	})
	defer o.Close()

	o.Touch()
	o.Leave()
	if o.Visible() {
		t.Fatal("overlay visible after leave")
	}

	// The pending idle timer was cancelled: no second hide fires later.
	time.Sleep(100 * time.Millisecond)
	if got := hides.Load(); got != 1 {
		t.Errorf("hide notified %d times, want 1", got)
	}
}

func TestOnChangeNotifies(t *testing.T) {
	shown := make(chan bool, 4)
	o := New(30*time.Millisecond, func(visible bool) { shown <- visible })
	defer o.Close()

	o.Touch()
	select {
	case v := <-shown:
		if !v {
			t.Error("first notification should be visible=true")
		}
	case <-time.After(time.Second):
		t.Fatal("no show notification")
	}

	select {
	case v := <-shown:
		if v {
			t.Error("second notification should be visible=false")
		}
	case <-time.After(time.Second):
		t.Fatal("no hide notification from idle timer")
	}

	// Repeated activity while visible does not re-notify.
	o.Touch()
	<-shown // the show
	o.Touch()
	select {
	case <-shown:
		t.Error("redundant notification for already-visible overlay")
	case <-time.After(10 * time.Millisecond):
	}
}

func TestCloseCancelsTimer(t *testing.T) {
	var notified atomic.Int32
	o := New(30*time.Millisecond, func(bool) { notified.Add(1) })

	o.Touch()
	o.Close()

	before := notified.Load()
	time.Sleep(80 * time.Millisecond)
	if notified.Load() != before {
		t.Error("timer fired after Close")
	}

	o.Touch()
	if o.Visible() {
		t.Error("Touch after Close should be a no-op")
	}
}

func TestLeaveWithoutShow(t *testing.T) {
	o := New(0, nil)
	defer o.Close()

	// Leave on a hidden overlay is harmless.
	o.Leave()
	if o.Visible() {
		t.Error("overlay visible after bare leave")
	}

	if o.delay != DefaultHideDelay {
		t.Errorf("zero delay should fall back to %v, got %v", DefaultHideDelay, o.delay)
	}
}
