package player

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"urchin/internal/engine"
)

// fakeInstance is an in-memory engine.Instance that records calls and lets
// tests fire events by hand.
type fakeInstance struct {
	mu        sync.Mutex
	listeners map[string]func()

	destroyed  bool
	playCalls  int
	pauseCalls int
	lastSeek   float64

	volume   float64
	muted    bool
	time     float64
	duration float64
	channel  string
}

func newFakeInstance(channel string) *fakeInstance {
	return &fakeInstance{listeners: make(map[string]func()), channel: channel}
}

func (f *fakeInstance) AddListener(event string, fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listeners[event] = fn
}

func (f *fakeInstance) RemoveListener(event string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.listeners, event)
}

// fire delivers an event the way the engine would.
func (f *fakeInstance) fire(event string) {
	f.mu.Lock()
	fn := f.listeners[event]
	f.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (f *fakeInstance) Play()  { f.mu.Lock(); f.playCalls++; f.mu.Unlock() }
func (f *fakeInstance) Pause() { f.mu.Lock(); f.pauseCalls++; f.mu.Unlock() }

func (f *fakeInstance) Seek(seconds float64)  { f.mu.Lock(); f.lastSeek = seconds; f.mu.Unlock() }
func (f *fakeInstance) SetVolume(v float64)   { f.mu.Lock(); f.volume = v; f.mu.Unlock() }
func (f *fakeInstance) Volume() float64       { f.mu.Lock(); defer f.mu.Unlock(); return f.volume }
func (f *fakeInstance) SetMuted(muted bool)   { f.mu.Lock(); f.muted = muted; f.mu.Unlock() }
func (f *fakeInstance) Muted() bool           { f.mu.Lock(); defer f.mu.Unlock(); return f.muted }
func (f *fakeInstance) CurrentTime() float64  { f.mu.Lock(); defer f.mu.Unlock(); return f.time }
func (f *fakeInstance) Duration() float64     { f.mu.Lock(); defer f.mu.Unlock(); return f.duration }
func (f *fakeInstance) Channel() string       { f.mu.Lock(); defer f.mu.Unlock(); return f.channel }
func (f *fakeInstance) SetChannel(login string) {
	f.mu.Lock()
	f.channel = login
	f.mu.Unlock()
}
func (f *fakeInstance) SetVideo(id string, timestamp float64) {}

func (f *fakeInstance) Destroy() {
	f.mu.Lock()
	f.destroyed = true
	f.mu.Unlock()
}

func (f *fakeInstance) isDestroyed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.destroyed
}

// fakeEngine creates fakeInstances, optionally gated so tests can hold an
// instantiation in flight.
type fakeEngine struct {
	mu        sync.Mutex
	instances []*fakeInstance
	bindings  []string
	optsLog   []engine.Options
	failNext  bool
	gate      chan struct{}
}

func (e *fakeEngine) NewInstance(bindingID string, opts engine.Options) (engine.Instance, error) {
	if e.gate != nil {
		<-e.gate
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.failNext {
		e.failNext = false
		return nil, errors.New("malformed configuration")
	}

	inst := newFakeInstance(opts.Channel)
	e.instances = append(e.instances, inst)
	e.bindings = append(e.bindings, bindingID)
	e.optsLog = append(e.optsLog, opts)
	return inst, nil
}

func (e *fakeEngine) created() []*fakeInstance {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*fakeInstance(nil), e.instances...)
}

func newTestLoader(e *fakeEngine) *engine.Loader {
	return engine.NewLoader(func() (engine.Engine, error) { return e, nil })
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestLifecycleScenario(t *testing.T) {
	eng := &fakeEngine{}
	var readyCount, pauseCount atomic.Int32

	c := New(newTestLoader(eng), Config{
		Channel: "abc",
		OnReady: func() { readyCount.Add(1) },
		OnPause: func() { pauseCount.Add(1) },
	})
	defer c.Close()

	waitFor(t, "first instance", func() bool { return len(eng.created()) == 1 })
	inst := eng.created()[0]

	if c.IsReady() {
		t.Error("should not be ready before the ready event")
	}
	if !c.IsPaused() {
		t.Error("should report paused before the ready event")
	}

	inst.fire(engine.EventReady)
	if !c.IsReady() {
		t.Error("IsReady() = false after ready event")
	}
	if c.IsPaused() {
		t.Error("IsPaused() = true after ready event")
	}
	if readyCount.Load() != 1 {
		t.Errorf("OnReady invoked %d times, want 1", readyCount.Load())
	}

	// Host pauses; the engine confirms with a pause event.
	c.Pause()
	if inst.pauseCalls != 1 {
		t.Errorf("Pause delegated %d times, want 1", inst.pauseCalls)
	}
	inst.fire(engine.EventPause)
	if !c.IsPaused() {
		t.Error("IsPaused() = false after pause event")
	}
	if pauseCount.Load() != 1 {
		t.Errorf("OnPause invoked %d times, want 1", pauseCount.Load())
	}

	// Configuration change: prior instance destroyed, readiness resets,
	// a new instance targets the new channel.
	c.Apply(Config{Channel: "xyz"})

	waitFor(t, "second instance", func() bool { return len(eng.created()) == 2 })
	if !inst.isDestroyed() {
		t.Error("prior instance not destroyed on configuration change")
	}
	if c.State() != Loading {
		t.Errorf("state after Apply = %v, want Loading", c.State())
	}
	if eng.optsLog[1].Channel != "xyz" {
		t.Errorf("new instance targets %q, want xyz", eng.optsLog[1].Channel)
	}

	live := 0
	for _, in := range eng.created() {
		if !in.isDestroyed() {
			live++
		}
	}
	if live != 1 {
		t.Errorf("%d live instances after change, want 1", live)
	}

	if eng.bindings[0] == eng.bindings[1] {
		t.Error("binding id reused across instantiations")
	}
}

func TestFacadeDegradesWhileLoading(t *testing.T) {
	eng := &fakeEngine{gate: make(chan struct{})}
	c := New(newTestLoader(eng), Config{Channel: "abc"})
	defer c.Close()
	defer close(eng.gate)

	// No instance exists yet; every call must be a silent no-op or default.
	c.Play()
	c.Pause()
	c.TogglePlayPause()
	c.Seek(42)
	c.SetVolume(0.5)
	c.SetMuted(true)
	c.SetChannel("other")
	c.SetVideo("123456789", 10)

	if got := c.Volume(); got != 0 {
		t.Errorf("Volume() = %v, want 0", got)
	}
	if got := c.CurrentTime(); got != 0 {
		t.Errorf("CurrentTime() = %v, want 0", got)
	}
	if got := c.Duration(); got != 0 {
		t.Errorf("Duration() = %v, want 0", got)
	}
	if got := c.Channel(); got != "" {
		t.Errorf("Channel() = %q, want empty", got)
	}
	if c.Muted() {
		t.Error("Muted() = true, want false")
	}
	if !c.IsPaused() {
		t.Error("IsPaused() = false, want true while loading")
	}
	if c.IsReady() {
		t.Error("IsReady() = true while loading")
	}
}

func TestFacadeDelegatesWhenReady(t *testing.T) {
	eng := &fakeEngine{}
	c := New(newTestLoader(eng), Config{Channel: "abc"})
	defer c.Close()

	waitFor(t, "instance", func() bool { return len(eng.created()) == 1 })
	inst := eng.created()[0]
	inst.mu.Lock()
	inst.volume = 0.7
	inst.time = 33
	inst.duration = 120
	inst.muted = true
	inst.mu.Unlock()

	inst.fire(engine.EventReady)

	if got := c.Volume(); got != 0.7 {
		t.Errorf("Volume() = %v, want 0.7", got)
	}
	if got := c.CurrentTime(); got != 33 {
		t.Errorf("CurrentTime() = %v, want 33", got)
	}
	if got := c.Duration(); got != 120 {
		t.Errorf("Duration() = %v, want 120", got)
	}
	if got := c.Channel(); got != "abc" {
		t.Errorf("Channel() = %q, want abc", got)
	}
	if !c.Muted() {
		t.Error("Muted() = false, want true")
	}

	c.Seek(55)
	if inst.lastSeek != 55 {
		t.Errorf("Seek delegated %v, want 55", inst.lastSeek)
	}

	c.TogglePlayPause() // not paused, so this pauses
	if inst.pauseCalls != 1 {
		t.Errorf("toggle while playing: pauseCalls = %d, want 1", inst.pauseCalls)
	}
	inst.fire(engine.EventPause)
	c.TogglePlayPause() // paused now, so this plays
	if inst.playCalls != 1 {
		t.Errorf("toggle while paused: playCalls = %d, want 1", inst.playCalls)
	}
}

func TestEndedSetsPaused(t *testing.T) {
	eng := &fakeEngine{}
	var endedCount atomic.Int32
	c := New(newTestLoader(eng), Config{
		Video:   "123456789",
		OnEnded: func() { endedCount.Add(1) },
	})
	defer c.Close()

	waitFor(t, "instance", func() bool { return len(eng.created()) == 1 })
	inst := eng.created()[0]

	inst.fire(engine.EventReady)
	inst.fire(engine.EventEnded)

	if !c.IsPaused() {
		t.Error("IsPaused() = false after ended event")
	}
	if endedCount.Load() != 1 {
		t.Errorf("OnEnded invoked %d times, want 1", endedCount.Load())
	}
}

func TestSeekCallbackReportsTime(t *testing.T) {
	eng := &fakeEngine{}
	seekCh := make(chan float64, 1)
	c := New(newTestLoader(eng), Config{
		Channel: "abc",
		OnSeek:  func(s float64) { seekCh <- s },
	})
	defer c.Close()

	waitFor(t, "instance", func() bool { return len(eng.created()) == 1 })
	inst := eng.created()[0]
	inst.fire(engine.EventReady)

	inst.mu.Lock()
	inst.time = 77
	inst.mu.Unlock()
	inst.fire(engine.EventSeek)

	select {
	case got := <-seekCh:
		if got != 77 {
			t.Errorf("OnSeek(%v), want 77", got)
		}
	case <-time.After(time.Second):
		t.Fatal("OnSeek never invoked")
	}

	// Seek does not alter the paused flag.
	if c.IsPaused() {
		t.Error("seek event changed paused state")
	}
}

func TestLoadFailure(t *testing.T) {
	loader := engine.NewLoader(func() (engine.Engine, error) {
		return nil, errors.New("engine not found")
	})

	errCh := make(chan error, 1)
	c := New(loader, Config{Channel: "abc", OnError: func(err error) { errCh <- err }})
	defer c.Close()

	select {
	case <-errCh:
	case <-time.After(time.Second):
		t.Fatal("OnError never invoked")
	}

	if c.State() != Errored {
		t.Errorf("state = %v, want Errored", c.State())
	}
	if c.Err() == nil {
		t.Error("Err() = nil, want load failure")
	}

	// Facade still degrades silently.
	c.Play()
	if got := c.Duration(); got != 0 {
		t.Errorf("Duration() = %v, want 0", got)
	}
}

func TestInstantiationFailure(t *testing.T) {
	eng := &fakeEngine{failNext: true}
	c := New(newTestLoader(eng), Config{Channel: "abc"})
	defer c.Close()

	waitFor(t, "errored state", func() bool { return c.State() == Errored })

	if c.IsReady() {
		t.Error("IsReady() = true after instantiation failure")
	}

	// Errored is terminal until the next configuration change.
	time.Sleep(50 * time.Millisecond)
	if len(eng.created()) != 0 {
		t.Error("no instance should exist after a failed construction")
	}

	// A configuration change starts a fresh attempt.
	c.Apply(Config{Channel: "xyz"})
	waitFor(t, "fresh instance", func() bool { return len(eng.created()) == 1 })
	if c.State() == Errored {
		t.Error("Apply did not clear the errored state")
	}
}

func TestSupersededAttemptDiscarded(t *testing.T) {
	eng := &fakeEngine{gate: make(chan struct{})}
	c := New(newTestLoader(eng), Config{Channel: "abc"})
	defer c.Close()

	// Let the first attempt reach the gate, then supersede it.
	done := make(chan struct{})
	go func() {
		c.Apply(Config{Channel: "xyz"})
		close(done)
	}()
	time.Sleep(50 * time.Millisecond)

	eng.gate <- struct{}{}
	eng.gate <- struct{}{}
	<-done

	waitFor(t, "both instantiations", func() bool { return len(eng.created()) == 2 })
	waitFor(t, "exactly one live instance", func() bool {
		live := 0
		var liveChannel string
		for i, in := range eng.created() {
			if !in.isDestroyed() {
				live++
				liveChannel = eng.optsLog[i].Channel
			}
		}
		return live == 1 && liveChannel == "xyz"
	})
}

func TestCloseWhileLoading(t *testing.T) {
	eng := &fakeEngine{gate: make(chan struct{})}
	c := New(newTestLoader(eng), Config{Channel: "abc"})

	time.Sleep(20 * time.Millisecond)
	c.Close()
	eng.gate <- struct{}{}

	waitFor(t, "late instance destroyed", func() bool {
		created := eng.created()
		return len(created) == 1 && created[0].isDestroyed()
	})

	if c.IsReady() {
		t.Error("closed controller reports ready")
	}

	// Close is idempotent, even when no instance was ever adopted.
	c.Close()
}

func TestStaleEventsIgnored(t *testing.T) {
	eng := &fakeEngine{}
	var readyCount atomic.Int32
	c := New(newTestLoader(eng), Config{
		Channel: "abc",
		OnReady: func() { readyCount.Add(1) },
	})
	defer c.Close()

	waitFor(t, "first instance", func() bool { return len(eng.created()) == 1 })
	old := eng.created()[0]

	c.Apply(Config{Channel: "xyz"})
	waitFor(t, "second instance", func() bool { return len(eng.created()) == 2 })

	// A straggler event from the destroyed generation must not flip state.
	old.fire(engine.EventReady)
	if c.IsReady() {
		t.Error("stale ready event made the controller ready")
	}
	if readyCount.Load() != 0 {
		t.Error("stale ready event reached the host callback")
	}

	eng.created()[1].fire(engine.EventReady)
	if !c.IsReady() {
		t.Error("current generation's ready event ignored")
	}
	if readyCount.Load() != 1 {
		t.Errorf("OnReady invoked %d times, want 1", readyCount.Load())
	}
}
