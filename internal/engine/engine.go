// Package engine wraps the external player engine behind a small capability
// surface: a Loader that resolves the engine once per process, an Engine that
// constructs player instances, and an Instance interface the lifecycle
// controller can drive without knowing the engine is mpv.
package engine

// Event names emitted by a player instance.
const (
	EventReady = "ready"
	EventPlay  = "play"
	EventPause = "pause"
	EventEnded = "ended"
	EventSeek  = "seek"
)

// Options configure a new player instance. Exactly one of Channel, Video or
// Collection selects the content; Width/Height are CSS-like dimension values.
type Options struct {
	Channel    string
	Video      string
	Timestamp  float64 // start offset in seconds, VODs only
	Collection string
	Width      string
	Height     string
	Quality    string
	Volume     float64 // initial volume, 0.0..1.0
}

// Instance is one live embedded player. Mutators take effect asynchronously;
// accessors answer from the instance's last observed state. None of the
// methods return errors: a failed command leaves the current playback as-is.
type Instance interface {
	// AddListener registers fn for one of the Event* names. At most one
	// listener per event; registering again replaces the previous one.
	AddListener(event string, fn func())
	RemoveListener(event string)

	Play()
	Pause()
	Seek(seconds float64)
	SetVolume(v float64)
	Volume() float64
	SetMuted(muted bool)
	Muted() bool
	CurrentTime() float64
	Duration() float64
	Channel() string
	SetChannel(login string)
	SetVideo(id string, timestamp float64)

	// Destroy tears the instance down. Idempotent; listeners fire no more
	// events once Destroy returns.
	Destroy()
}

// Engine constructs player instances.
type Engine interface {
	// NewInstance creates a player bound to a fresh, unique binding id.
	// The id must not be reused across instances of the same widget.
	NewInstance(bindingID string, opts Options) (Instance, error)
}
