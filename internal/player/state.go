package player

// Readiness is the lifecycle state of the embedded player widget.
type Readiness int

const (
	// Loading covers everything between an attempt starting and the engine
	// signalling ready: binary resolution, content resolution, startup.
	Loading Readiness = iota

	// Ready means the instance finished its own startup and is safe to control.
	Ready

	// Errored is terminal for the current attempt; only a configuration
	// change starts a fresh one.
	Errored
)

func (r Readiness) String() string {
	switch r {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Errored:
		return "errored"
	default:
		return "unknown"
	}
}
