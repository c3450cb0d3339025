package engine

import (
	"fmt"
	"os/exec"
	"sync"

	"urchin/internal/provider"
)

// Loader resolves the player engine lazily, at most once per process.
//
// Ensure follows a check-then-resolve policy: if two callers race the very
// first resolution, both may run the resolver and one result is discarded.
// That mirrors the single-page, low-concurrency reality this targets and is
// a documented property, not a bug.
type Loader struct {
	mu      sync.Mutex
	engine  Engine
	resolve func() (Engine, error)
}

// NewLoader creates a loader around the given resolver.
func NewLoader(resolve func() (Engine, error)) *Loader {
	return &Loader{resolve: resolve}
}

// Ensure guarantees the engine is available. If it has already been
// resolved, onReady is invoked synchronously before Ensure returns.
// Otherwise resolution happens on a separate goroutine and exactly one of
// onReady/onFailure is invoked when it settles. A failed resolution is not
// cached; the next Ensure starts a fresh attempt.
func (l *Loader) Ensure(onReady func(Engine), onFailure func(error)) {
	l.mu.Lock()
	if l.engine != nil {
		e := l.engine
		l.mu.Unlock()
		onReady(e)
		return
	}
	l.mu.Unlock()

	go func() {
		e, err := l.resolve()
		if err != nil {
			onFailure(err)
			return
		}

		l.mu.Lock()
		if l.engine == nil {
			l.engine = e
		} else {
			// Lost the first-resolution race; adopt the cached engine.
			e = l.engine
		}
		l.mu.Unlock()

		onReady(e)
	}()
}

// ResolveMPV returns a resolver that locates the mpv binary and builds an
// MPV engine around it.
func ResolveMPV(binary string, p provider.Provider) func() (Engine, error) {
	return func() (Engine, error) {
		path, err := exec.LookPath(binary)
		if err != nil {
			return nil, fmt.Errorf("%s not found in PATH: %w", binary, err)
		}
		if err := exec.Command(path, "--version").Run(); err != nil {
			return nil, fmt.Errorf("probing %s: %w", binary, err)
		}
		return NewMPV(path, p), nil
	}
}
