// Package player owns the single live player instance: it (re)creates the
// instance when identity-affecting configuration changes, tears it down on
// close or before recreation, bridges engine events into local state and
// host callbacks, and exposes an imperative control surface that is safe to
// call regardless of readiness.
package player

import (
	"sync"

	"github.com/google/uuid"

	"urchin/internal/engine"
)

// Config is the identity-affecting configuration plus the host callbacks.
// Changing any identity field (channel/video/collection/dimensions) is an
// identity change and recreates the instance.
type Config struct {
	Channel    string
	Video      string
	Timestamp  float64 // start offset in seconds, VODs only
	Collection string
	Width      string
	Height     string
	Quality    string
	Volume     float64

	// Optional event callbacks. A nil callback is a silent no-op.
	OnReady func()
	OnPlay  func()
	OnPause func()
	OnEnded func()
	OnSeek  func(seconds float64)
	OnError func(err error)
}

// Controller is the player lifecycle controller. At most one live engine
// instance exists per controller at any time; creation and destruction
// never overlap.
type Controller struct {
	loader *engine.Loader

	mu         sync.Mutex
	cfg        Config
	readiness  Readiness
	paused     bool
	inst       engine.Instance
	generation uint64
	err        error
	closed     bool
}

// New creates a controller and starts the first instantiation attempt.
// Instantiation involves network and process startup; callers on a UI
// goroutine should construct from a background command.
func New(loader *engine.Loader, cfg Config) *Controller {
	c := &Controller{loader: loader, paused: true}
	c.Apply(cfg)
	return c
}

// Apply replaces the configuration and recreates the instance. Any live
// instance is destroyed first, unconditionally; readiness drops back to
// Loading and paused resets to true. If a previous attempt is still in
// flight, the most recent configuration wins: a superseded attempt's
// instance is destroyed on arrival, never adopted.
func (c *Controller) Apply(cfg Config) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	old := c.inst
	c.inst = nil
	c.cfg = cfg
	c.readiness = Loading
	c.paused = true
	c.err = nil
	c.generation++
	gen := c.generation

	// Fresh binding id per attempt so the engine never binds a stale target.
	bindingID := "urchin-player-" + uuid.NewString()
	c.mu.Unlock()

	if old != nil {
		old.Destroy()
	}

	c.loader.Ensure(
		func(e engine.Engine) { c.instantiate(e, gen, bindingID, cfg) },
		func(err error) { c.fail(gen, err) },
	)
}

// stale reports whether work tagged with gen has been superseded.
// Callers must hold c.mu.
func (c *Controller) stale(gen uint64) bool {
	return c.closed || c.generation != gen
}

func (c *Controller) instantiate(e engine.Engine, gen uint64, bindingID string, cfg Config) {
	inst, err := e.NewInstance(bindingID, engine.Options{
		Channel:    cfg.Channel,
		Video:      cfg.Video,
		Timestamp:  cfg.Timestamp,
		Collection: cfg.Collection,
		Width:      cfg.Width,
		Height:     cfg.Height,
		Quality:    cfg.Quality,
		Volume:     cfg.Volume,
	})

	c.mu.Lock()
	if c.stale(gen) {
		c.mu.Unlock()
		if inst != nil {
			inst.Destroy()
		}
		return
	}

	if err != nil {
		c.readiness = Errored
		c.err = err
		cb := c.cfg.OnError
		c.mu.Unlock()
		if cb != nil {
			cb(err)
		}
		return
	}

	c.inst = inst
	c.mu.Unlock()

	c.bridge(inst, gen)
}

func (c *Controller) fail(gen uint64, err error) {
	c.mu.Lock()
	if c.stale(gen) {
		c.mu.Unlock()
		return
	}
	c.readiness = Errored
	c.err = err
	cb := c.cfg.OnError
	c.mu.Unlock()

	if cb != nil {
		cb(err)
	}
}

// bridge wires engine events into local state and host callbacks. Events
// from a superseded generation are ignored.
func (c *Controller) bridge(inst engine.Instance, gen uint64) {
	inst.AddListener(engine.EventReady, func() {
		c.mu.Lock()
		if c.stale(gen) {
			c.mu.Unlock()
			return
		}
		// Readiness implies an initial non-paused state; the engine's own
		// play/pause events correct this if autoplay is refused.
		c.readiness = Ready
		c.paused = false
		cb := c.cfg.OnReady
		c.mu.Unlock()
		if cb != nil {
			cb()
		}
	})

	inst.AddListener(engine.EventPlay, func() {
		c.mu.Lock()
		if c.stale(gen) {
			c.mu.Unlock()
			return
		}
		c.paused = false
		cb := c.cfg.OnPlay
		c.mu.Unlock()
		if cb != nil {
			cb()
		}
	})

	inst.AddListener(engine.EventPause, func() {
		c.mu.Lock()
		if c.stale(gen) {
			c.mu.Unlock()
			return
		}
		c.paused = true
		cb := c.cfg.OnPause
		c.mu.Unlock()
		if cb != nil {
			cb()
		}
	})

	inst.AddListener(engine.EventEnded, func() {
		c.mu.Lock()
		if c.stale(gen) {
			c.mu.Unlock()
			return
		}
		c.paused = true
		cb := c.cfg.OnEnded
		c.mu.Unlock()
		if cb != nil {
			cb()
		}
	})

	inst.AddListener(engine.EventSeek, func() {
		c.mu.Lock()
		if c.stale(gen) {
			c.mu.Unlock()
			return
		}
		cb := c.cfg.OnSeek
		c.mu.Unlock()
		if cb != nil {
			cb(inst.CurrentTime())
		}
	})
}

// Close destroys the live instance, cancels any in-flight attempt and stops
// all delegation. Safe to call more than once.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	inst := c.inst
	c.inst = nil
	c.readiness = Loading
	c.paused = true
	c.mu.Unlock()

	if inst != nil {
		inst.Destroy()
	}
}

// State returns the current readiness.
func (c *Controller) State() Readiness {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.readiness
}

// Err returns the terminal error of the current attempt, if any.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// delegate returns the live instance when delegation is allowed: instance
// present AND readiness Ready, checked together under the lock. Every
// control method goes through this guard so a call at the wrong time
// degrades silently instead of panicking.
func (c *Controller) delegate() engine.Instance {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inst != nil && c.readiness == Ready {
		return c.inst
	}
	return nil
}

// IsReady reports whether the player is ready to be controlled.
func (c *Controller) IsReady() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.readiness == Ready
}

// IsPaused answers from local state, so it works even when not delegating.
func (c *Controller) IsPaused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}

func (c *Controller) Play() {
	if i := c.delegate(); i != nil {
		i.Play()
	}
}

func (c *Controller) Pause() {
	if i := c.delegate(); i != nil {
		i.Pause()
	}
}

func (c *Controller) TogglePlayPause() {
	c.mu.Lock()
	i := c.inst
	ok := i != nil && c.readiness == Ready
	paused := c.paused
	c.mu.Unlock()

	if !ok {
		return
	}
	if paused {
		i.Play()
	} else {
		i.Pause()
	}
}

func (c *Controller) Seek(seconds float64) {
	if i := c.delegate(); i != nil {
		i.Seek(seconds)
	}
}

func (c *Controller) SetVolume(v float64) {
	if i := c.delegate(); i != nil {
		i.SetVolume(v)
	}
}

func (c *Controller) Volume() float64 {
	if i := c.delegate(); i != nil {
		return i.Volume()
	}
	return 0
}

func (c *Controller) SetMuted(muted bool) {
	if i := c.delegate(); i != nil {
		i.SetMuted(muted)
	}
}

func (c *Controller) Muted() bool {
	if i := c.delegate(); i != nil {
		return i.Muted()
	}
	return false
}

func (c *Controller) CurrentTime() float64 {
	if i := c.delegate(); i != nil {
		return i.CurrentTime()
	}
	return 0
}

func (c *Controller) Duration() float64 {
	if i := c.delegate(); i != nil {
		return i.Duration()
	}
	return 0
}

func (c *Controller) Channel() string {
	if i := c.delegate(); i != nil {
		return i.Channel()
	}
	return ""
}

func (c *Controller) SetChannel(login string) {
	if i := c.delegate(); i != nil {
		i.SetChannel(login)
	}
}

func (c *Controller) SetVideo(id string, timestamp float64) {
	if i := c.delegate(); i != nil {
		i.SetVideo(id, timestamp)
	}
}
