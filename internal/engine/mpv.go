package engine

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"urchin/internal/media"
	"urchin/internal/provider"
)

// MPV implements Engine around the mpv binary, driving each instance over
// its JSON IPC protocol on a per-instance unix socket.
type MPV struct {
	path     string
	provider provider.Provider
}

// NewMPV creates an MPV engine using the binary at path.
func NewMPV(path string, p provider.Provider) *MPV {
	return &MPV{path: path, provider: p}
}

// NewInstance resolves the content selected by opts, launches one mpv
// process bound to a socket named after bindingID and returns its handle.
func (m *MPV) NewInstance(bindingID string, opts Options) (Instance, error) {
	stream, err := m.resolveContent(opts)
	if err != nil {
		return nil, err
	}

	// Randomized temp dir keeps the socket path unguessable.
	socketDir, err := os.MkdirTemp("", "urchin-mpv-*")
	if err != nil {
		return nil, fmt.Errorf("creating socket dir: %w", err)
	}
	socketPath := filepath.Join(socketDir, bindingID+".sock")

	args := buildMPVArgs(stream, socketPath, opts)

	cmd := exec.Command(m.path, args...)
	if err := cmd.Start(); err != nil {
		os.RemoveAll(socketDir)
		return nil, fmt.Errorf("starting mpv: %w", err)
	}

	conn, err := dialSocket(socketPath)
	if err != nil {
		cmd.Process.Kill()
		go cmd.Wait()
		os.RemoveAll(socketDir)
		return nil, fmt.Errorf("connecting to mpv IPC: %w", err)
	}

	inst := &mpvInstance{
		cmd:       cmd,
		conn:      conn,
		socketDir: socketDir,
		provider:  m.provider,
		quality:   opts.Quality,
		listeners: make(map[string]func()),
		paused:    true,
		volume:    opts.Volume,
		channel:   opts.Channel,
		video:     opts.Video,
	}

	inst.observeProperties()
	go inst.eventLoop()

	return inst, nil
}

// resolveContent maps the options' content selector to a playable stream.
func (m *MPV) resolveContent(opts Options) (*media.Stream, error) {
	switch {
	case opts.Channel != "":
		return m.provider.ResolveChannel(opts.Channel, opts.Quality)
	case opts.Video != "":
		return m.provider.ResolveVideo(opts.Video, opts.Quality)
	case opts.Collection != "":
		return m.provider.ResolveCollection(opts.Collection, opts.Quality)
	default:
		return nil, fmt.Errorf("no channel, video or collection selected")
	}
}

// buildMPVArgs assembles the mpv argument slice. Explicit args only, no
// shell interpretation.
func buildMPVArgs(stream *media.Stream, socketPath string, opts Options) []string {
	args := []string{
		stream.URL,
		"--input-ipc-server=" + socketPath,
		"--force-media-title=" + stream.Title,
		"--really-quiet",
		fmt.Sprintf("--volume=%.0f", opts.Volume*100),
	}

	if opts.Width != "" && opts.Height != "" {
		args = append(args, "--autofit="+opts.Width+"x"+opts.Height)
	}

	if opts.Timestamp > 0 && stream.Kind != media.Live {
		args = append(args, fmt.Sprintf("--start=+%.0f", opts.Timestamp))
	}

	return args
}

// dialSocket waits for the IPC socket to appear and connects to it.
func dialSocket(socketPath string) (net.Conn, error) {
	for i := 0; i < 50; i++ {
		if _, err := os.Stat(socketPath); err == nil {
			break
		}
		time.Sleep(100 * time.Millisecond)
	}
	return net.Dial("unix", socketPath)
}

// Property observation ids.
const (
	obsPause = 1 + iota
	obsTimePos
	obsDuration
	obsVolume
	obsMute
)

type mpvInstance struct {
	mu        sync.Mutex
	cmd       *exec.Cmd
	conn      net.Conn
	socketDir string
	provider  provider.Provider
	quality   string

	listeners map[string]func()

	// Last observed playback state.
	loaded   bool
	paused   bool
	timePos  float64
	duration float64
	volume   float64 // 0.0..1.0
	muted    bool
	channel  string
	video    string

	closed bool
}

func (i *mpvInstance) observeProperties() {
	i.command("observe_property", obsPause, "pause")
	i.command("observe_property", obsTimePos, "time-pos")
	i.command("observe_property", obsDuration, "duration")
	i.command("observe_property", obsVolume, "volume")
	i.command("observe_property", obsMute, "mute")
}

// command sends a JSON IPC command. Failed writes are dropped; a dead
// connection surfaces as the event loop ending.
func (i *mpvInstance) command(args ...interface{}) {
	payload := map[string]interface{}{"command": args}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	data = append(data, '\n')

	i.mu.Lock()
	conn := i.conn
	closed := i.closed
	i.mu.Unlock()

	if closed || conn == nil {
		return
	}
	conn.Write(data)
}

// ipcMessage is the subset of mpv's IPC output we care about.
type ipcMessage struct {
	Event string      `json:"event"`
	Name  string      `json:"name"`
	Data  interface{} `json:"data"`
}

// eventLoop reads IPC messages until the connection dies.
func (i *mpvInstance) eventLoop() {
	scanner := bufio.NewScanner(i.conn)

	for scanner.Scan() {
		var msg ipcMessage
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			continue
		}

		switch msg.Event {
		case "file-loaded":
			i.mu.Lock()
			i.loaded = true
			i.mu.Unlock()
			i.fire(EventReady)

		case "end-file":
			i.mu.Lock()
			i.paused = true
			loaded := i.loaded
			i.mu.Unlock()
			if loaded {
				i.fire(EventEnded)
			}

		case "seek":
			i.mu.Lock()
			loaded := i.loaded
			i.mu.Unlock()
			if loaded {
				i.fire(EventSeek)
			}

		case "property-change":
			i.handleProperty(msg)
		}
	}
}

// handleProperty updates the observed-state cache and translates pause
// edges into play/pause events. Edges before file-loaded are the initial
// observe echo and update the cache silently.
func (i *mpvInstance) handleProperty(msg ipcMessage) {
	i.mu.Lock()
	loaded := i.loaded
	var event string

	switch msg.Name {
	case "pause":
		if v, ok := msg.Data.(bool); ok {
			if loaded && v != i.paused {
				if v {
					event = EventPause
				} else {
					event = EventPlay
				}
			}
			i.paused = v
		}
	case "time-pos":
		if v, ok := msg.Data.(float64); ok {
			i.timePos = v
		}
	case "duration":
		if v, ok := msg.Data.(float64); ok {
			i.duration = v
		}
	case "volume":
		if v, ok := msg.Data.(float64); ok {
			i.volume = v / 100
		}
	case "mute":
		if v, ok := msg.Data.(bool); ok {
			i.muted = v
		}
	}
	i.mu.Unlock()

	if event != "" {
		i.fire(event)
	}
}

// fire invokes the listener for event, if any, without holding the lock.
func (i *mpvInstance) fire(event string) {
	i.mu.Lock()
	fn := i.listeners[event]
	closed := i.closed
	i.mu.Unlock()

	if fn != nil && !closed {
		fn()
	}
}

// AddListener registers fn for event, replacing any previous listener.
// A ready listener registered after the stream already loaded fires
// immediately, so a late subscriber cannot miss readiness.
func (i *mpvInstance) AddListener(event string, fn func()) {
	i.mu.Lock()
	i.listeners[event] = fn
	replay := event == EventReady && i.loaded && !i.closed
	i.mu.Unlock()

	if replay {
		fn()
	}
}

func (i *mpvInstance) RemoveListener(event string) {
	i.mu.Lock()
	delete(i.listeners, event)
	i.mu.Unlock()
}

func (i *mpvInstance) Play() {
	i.command("set_property", "pause", false)
}

func (i *mpvInstance) Pause() {
	i.command("set_property", "pause", true)
}

func (i *mpvInstance) Seek(seconds float64) {
	i.command("seek", seconds, "absolute")
}

func (i *mpvInstance) SetVolume(v float64) {
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	i.command("set_property", "volume", v*100)
}

func (i *mpvInstance) Volume() float64 {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.volume
}

func (i *mpvInstance) SetMuted(muted bool) {
	i.command("set_property", "mute", muted)
}

func (i *mpvInstance) Muted() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.muted
}

func (i *mpvInstance) CurrentTime() float64 {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.timePos
}

func (i *mpvInstance) Duration() float64 {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.duration
}

func (i *mpvInstance) Channel() string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.channel
}

// SetChannel switches playback to another live channel. Resolution happens
// off the caller's goroutine; on failure the current content keeps playing.
func (i *mpvInstance) SetChannel(login string) {
	go func() {
		stream, err := i.provider.ResolveChannel(login, i.quality)
		if err != nil {
			return
		}

		i.mu.Lock()
		i.channel = login
		i.video = ""
		i.loaded = false
		i.mu.Unlock()

		i.command("loadfile", stream.URL, "replace")
	}()
}

// SetVideo switches playback to a VOD, optionally at a start offset.
func (i *mpvInstance) SetVideo(id string, timestamp float64) {
	go func() {
		stream, err := i.provider.ResolveVideo(id, i.quality)
		if err != nil {
			return
		}

		i.mu.Lock()
		i.channel = ""
		i.video = id
		i.loaded = false
		i.mu.Unlock()

		if timestamp > 0 {
			i.command("loadfile", stream.URL, "replace", fmt.Sprintf("start=+%.0f", timestamp))
		} else {
			i.command("loadfile", stream.URL, "replace")
		}
	}()
}

// Destroy quits mpv and releases the socket. Safe to call more than once.
func (i *mpvInstance) Destroy() {
	i.mu.Lock()
	if i.closed {
		i.mu.Unlock()
		return
	}
	i.closed = true
	conn := i.conn
	i.mu.Unlock()

	if conn != nil {
		conn.Write([]byte(`{"command":["quit"]}` + "\n"))
		conn.Close()
	}

	done := make(chan struct{})
	go func() {
		i.cmd.Wait()
		close(done)
	}()
	go func() {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			i.cmd.Process.Kill()
			<-done
		}
		os.RemoveAll(i.socketDir)
	}()
}
