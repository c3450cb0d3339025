// Package ui implements the terminal host for the embedded player widget.
// The model owns one player controller and one overlay; engine events and
// overlay flips reach the update loop through channels consumed by listen
// commands.
package ui

import (
	"fmt"
	"log"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"urchin/internal/config"
	"urchin/internal/engine"
	"urchin/internal/history"
	"urchin/internal/httputil"
	"urchin/internal/overlay"
	"urchin/internal/player"
	"urchin/internal/provider"
)

type phase int

const (
	phasePrompt   phase = iota // no content selected; ask for a channel
	phaseWatching              // a player controller is live
)

// Options select the initial content. All fields empty opens the prompt.
type Options struct {
	Channel    string
	Video      string
	Collection string
	Timestamp  float64
}

func (o Options) empty() bool {
	return o.Channel == "" && o.Video == "" && o.Collection == ""
}

// playerEvent carries a controller callback into the update loop.
type playerEvent struct {
	kind string // ready, play, pause, ended, seek, error
	err  error
}

// overlayEvent carries an overlay visibility flip into the update loop.
type overlayEvent bool

// tickMsg refreshes the time display while watching.
type tickMsg time.Time

// Model is the bubbletea model hosting the player widget.
type Model struct {
	cfg    *config.Config
	loader *engine.Loader
	store  *history.Store // nil when history is disabled

	phase   phase
	channel string // channel currently selected, for display and history

	input textinput.Model
	spin  spinner.Model

	ctrl *player.Controller
	ovl  *overlay.Overlay

	events    chan playerEvent
	ovlEvents chan overlayEvent

	width, height int
	inputErr      error
	quitting      bool
}

// New creates the host model. store may be nil.
func New(cfg *config.Config, loader *engine.Loader, store *history.Store, opts Options) *Model {
	ti := textinput.New()
	ti.Placeholder = "channel name"
	ti.CharLimit = 25
	ti.Focus()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(spinnerStyle))

	m := &Model{
		cfg:       cfg,
		loader:    loader,
		store:     store,
		input:     ti,
		spin:      sp,
		events:    make(chan playerEvent, 16),
		ovlEvents: make(chan overlayEvent, 16),
	}
	m.ovl = overlay.New(overlay.DefaultHideDelay, func(visible bool) {
		// Non-blocking: after the program exits nothing drains this
		// channel, and a late idle-timer fire must not park its
		// goroutine.
		select {
		case m.ovlEvents <- overlayEvent(visible):
		default:
		}
	})

	if opts.empty() {
		m.phase = phasePrompt
	} else {
		m.startWatching(opts)
	}

	return m
}

// post delivers a controller event without blocking; with a full buffer
// or an exited program the event is dropped, never a parked goroutine.
// Dropped events are safe: the view reads current state off the
// controller, not off the event stream.
func (m *Model) post(ev playerEvent) {
	select {
	case m.events <- ev:
	default:
	}
}

// playerConfig builds the controller configuration for the given content.
func (m *Model) playerConfig(opts Options) player.Config {
	send := func(kind string) func() {
		return func() { m.post(playerEvent{kind: kind}) }
	}
	return player.Config{
		Channel:    opts.Channel,
		Video:      opts.Video,
		Timestamp:  opts.Timestamp,
		Collection: opts.Collection,
		Width:      m.cfg.Width,
		Height:     m.cfg.Height,
		Quality:    m.cfg.Quality,
		Volume:     m.cfg.Volume,
		OnReady:    send("ready"),
		OnPlay:     send("play"),
		OnPause:    send("pause"),
		OnEnded:    send("ended"),
		OnSeek:     func(float64) { m.post(playerEvent{kind: "seek"}) },
		OnError:    func(err error) { m.post(playerEvent{kind: "error", err: err}) },
	}
}

// startWatching creates or reconfigures the controller for opts.
// Controller construction never blocks: the first engine resolution and
// instantiation happen off this goroutine.
func (m *Model) startWatching(opts Options) {
	m.channel = opts.Channel
	m.phase = phaseWatching

	cfg := m.playerConfig(opts)
	if m.ctrl == nil {
		m.ctrl = player.New(m.loader, cfg)
	} else {
		go m.ctrl.Apply(cfg)
	}
}

// Shutdown tears down the controller and overlay. Called by the runner
// after the program exits, and on quit keys before tea.Quit.
func (m *Model) Shutdown() {
	if m.ctrl != nil {
		m.ctrl.Close()
	}
	m.ovl.Close()
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, textinput.Blink, m.listenPlayer(), m.listenOverlay(), m.tick())
}

func (m *Model) listenPlayer() tea.Cmd {
	return func() tea.Msg { return <-m.events }
}

func (m *Model) listenOverlay() tea.Cmd {
	return func() tea.Msg { return <-m.ovlEvents }
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		// Any pointer activity over the widget shows the overlay.
		if m.phase == phaseWatching {
			m.ovl.Touch()
		}
		return m, nil

	case tea.BlurMsg:
		// Focus left the widget: hide immediately, no delayed hide races.
		m.ovl.Leave()
		return m, nil

	case playerEvent:
		return m.handlePlayerEvent(msg)

	case overlayEvent:
		// State already applied by the overlay; consuming the message
		// just triggers a re-render.
		return m, m.listenOverlay()

	case tickMsg:
		return m, m.tick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	if m.phase == phasePrompt {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) handlePlayerEvent(ev playerEvent) (tea.Model, tea.Cmd) {
	switch ev.kind {
	case "ready":
		if m.store != nil && m.channel != "" {
			if err := m.store.Touch(m.channel, m.channel); err != nil {
				log.Printf("recording history: %v", err)
			}
		}
	case "error":
		log.Printf("player error: %v", ev.err)
	}
	return m, m.listenPlayer()
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		m.quitting = true
		m.Shutdown()
		return m, tea.Quit
	}

	if m.phase == phasePrompt {
		return m.handlePromptKey(msg)
	}
	return m.handleWatchKey(key)
}

func (m *Model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		m.quitting = true
		m.Shutdown()
		return m, tea.Quit

	case "enter":
		login := m.input.Value()
		if err := httputil.ValidateChannel(login); err != nil {
			m.inputErr = err
			return m, nil
		}
		m.inputErr = nil
		m.input.Reset()
		m.startWatching(Options{Channel: login})
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleWatchKey(key string) (tea.Model, tea.Cmd) {
	// Keystrokes count as activity. While the overlay is hidden a key only
	// reveals it; while visible, keys are diverted to the overlay controls
	// instead of reaching the player surface.
	divert := m.ovl.Visible()
	m.ovl.Touch()

	if key == "q" {
		m.quitting = true
		m.Shutdown()
		return m, tea.Quit
	}

	if !divert || !m.ctrl.IsReady() {
		return m, nil
	}

	switch key {
	case " ":
		m.ctrl.TogglePlayPause()
	case "m":
		m.ctrl.SetMuted(!m.ctrl.Muted())
	case "left":
		m.ctrl.Seek(m.ctrl.CurrentTime() - 10)
	case "right":
		m.ctrl.Seek(m.ctrl.CurrentTime() + 10)
	case "up":
		m.ctrl.SetVolume(m.ctrl.Volume() + 0.05)
	case "down":
		m.ctrl.SetVolume(m.ctrl.Volume() - 0.05)
	case "esc":
		m.ovl.Leave()
	case "c":
		// Back to the prompt to switch channels; the controller keeps
		// its last instance until a new channel is applied.
		m.phase = phasePrompt
		m.input.Focus()
	}

	return m, nil
}

// Run opens the TUI host and blocks until it exits.
func Run(cfg *config.Config, opts Options) error {
	prov := provider.NewTwitch(cfg.Base)
	loader := engine.NewLoader(engine.ResolveMPV(cfg.Engine, prov))

	var store *history.Store
	if cfg.History {
		path, err := config.HistoryPath()
		if err == nil {
			store, err = history.Open(path)
		}
		if err != nil {
			log.Printf("history disabled: %v", err)
			store = nil
		}
	}
	if store != nil {
		defer store.Close()
	}

	m := New(cfg, loader, store, opts)
	defer m.Shutdown()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithReportFocus())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running ui: %w", err)
	}
	return nil
}
