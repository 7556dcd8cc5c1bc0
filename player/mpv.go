package player

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/tilawa-cli/tilawa/log"
	"github.com/tilawa-cli/tilawa/where"
)

const (
	socketWaitRetries = 20
	socketWaitDelay   = 150 * time.Millisecond
	quitGrace         = 3 * time.Second
	eventBuffer       = 64
)

// ErrProcessExited is reported when mpv goes away while a stream is bound.
var ErrProcessExited = errors.New("mpv exited unexpectedly")

// baseArgs start an audio-only idle instance that waits for loadfile over IPC.
var baseArgs = []string{
	"--idle=yes",
	"--no-video",
	"--no-terminal",
	"--really-quiet",
	"--force-window=no",
	"--keep-open=no",
}

// Option configures an MPV instance.
type Option func(*MPV)

// WithArgs appends extra command line flags to every spawned process.
func WithArgs(args ...string) Option {
	return func(m *MPV) {
		m.args = append(m.args, args...)
	}
}

// MPV is a Resource backed by a long-lived mpv process.
// The process is spawned lazily on the first Load and reused afterwards.
type MPV struct {
	binary string
	args   []string

	mu         sync.Mutex
	socketPath string
	cmd        *exec.Cmd
	exited     chan struct{}
	listener   *EventListener
	closing    bool

	// loads counts loadfile requests and started the one mpv last reported starting.
	// Stream events are dropped while they differ, since they describe the previous entry.
	loads   uint64
	started uint64

	events chan Event
	done   chan struct{}
	once   sync.Once
}

// NewMPV creates an idle resource. Nothing is spawned until Load.
func NewMPV(binary string, opts ...Option) *MPV {
	if binary == "" {
		binary = "mpv"
	}

	m := &MPV{
		binary: binary,
		events: make(chan Event, eventBuffer),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Available reports whether the configured binary can be found.
func (m *MPV) Available() bool {
	_, err := exec.LookPath(m.binary)
	return err == nil
}

// Load replaces the bound stream with locator and starts it unpaused.
func (m *MPV) Load(ctx context.Context, locator, title string) error {
	target, err := sanitizeMediaTarget(locator)
	if err != nil {
		return fmt.Errorf("invalid media target: %w", err)
	}

	if err := m.ensureStarted(ctx); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	m.loads++
	m.mu.Unlock()
	m.drain()

	if _, err := m.sendCommand("set_property", "force-media-title", sanitizeTitle(title)); err != nil {
		log.Warnf("mpv: set title: %v", err)
	}

	if _, err := m.sendCommand("loadfile", target, "replace"); err != nil {
		return fmt.Errorf("loadfile: %w", err)
	}

	_, err = m.sendCommand("set_property", "pause", false)
	return err
}

// SetPaused pauses or resumes the bound stream.
func (m *MPV) SetPaused(paused bool) error {
	if !m.running() {
		return nil
	}
	_, err := m.sendCommand("set_property", "pause", paused)
	return err
}

// Seek moves playback to the given absolute position in seconds.
func (m *MPV) Seek(seconds float64) error {
	if !m.running() {
		return nil
	}
	_, err := m.sendCommand("seek", seconds, "absolute")
	return err
}

// SetVolume maps a [0, 1] level onto mpv's 0-100 volume scale.
func (m *MPV) SetVolume(volume float64) error {
	if !m.running() {
		return nil
	}
	_, err := m.sendCommand("set_property", "volume", volume*100)
	return err
}

// Unload stops the bound stream and leaves mpv idle.
func (m *MPV) Unload() error {
	if !m.running() {
		return nil
	}
	_, err := m.sendCommand("stop")
	return err
}

// Events delivers stream events from the running process.
func (m *MPV) Events() <-chan Event {
	return m.events
}

// Socket returns the IPC socket path, empty before the first Load.
func (m *MPV) Socket() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.socketPath
}

// Close quits mpv, falling back to a kill, and removes the socket.
func (m *MPV) Close() error {
	m.once.Do(func() { close(m.done) })

	m.mu.Lock()
	m.closing = true
	cmd, exited, listener, socket := m.cmd, m.exited, m.listener, m.socketPath
	m.mu.Unlock()

	if cmd == nil {
		return nil
	}

	if listener != nil {
		listener.Stop()
	}

	_, _ = m.sendCommand("quit")

	select {
	case <-exited:
	case <-time.After(quitGrace):
		log.Warnf("mpv did not quit within %s, killing", quitGrace)
		_ = killProcess(cmd)
	}

	_ = os.Remove(socket)
	return nil
}

func (m *MPV) running() bool {
	m.mu.Lock()
	exited := m.exited
	m.mu.Unlock()

	if exited == nil {
		return false
	}

	select {
	case <-exited:
		return false
	default:
		return true
	}
}

// ensureStarted spawns mpv idle and attaches the event listener before any stream is
// loaded, so file-loaded can not fire unobserved.
func (m *MPV) ensureStarted(ctx context.Context) error {
	if m.running() {
		return nil
	}

	m.mu.Lock()
	if m.closing {
		m.mu.Unlock()
		return errors.New("mpv: resource closed")
	}
	m.mu.Unlock()

	socket, err := newSocketPath()
	if err != nil {
		return err
	}

	args := lo.Flatten([][]string{baseArgs, m.args})
	args = append(args, "--input-ipc-server="+socket)

	cmd := exec.Command(m.binary, args...)
	cmd.SysProcAttr = sysProcAttr()
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.Stdin = nil

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start mpv: %w", err)
	}

	exited := make(chan struct{})
	go m.reap(cmd, exited)

	if err := waitForSocket(ctx, socket, exited); err != nil {
		select {
		case <-exited:
		default:
			log.Warnf("killing mpv: socket never became ready")
			_ = killProcess(cmd)
		}
		return fmt.Errorf("mpv socket not ready: %w", err)
	}

	listener := NewEventListener(socket, m.emit)
	if err := listener.Start(); err != nil {
		_ = killProcess(cmd)
		return err
	}

	m.mu.Lock()
	m.socketPath = socket
	m.cmd = cmd
	m.exited = exited
	m.listener = listener
	m.loads, m.started = 0, 0
	m.mu.Unlock()

	log.Infof("mpv started with socket %s", socket)
	return nil
}

// reap waits for the process and reports an unexpected exit as a stream failure.
func (m *MPV) reap(cmd *exec.Cmd, exited chan struct{}) {
	err := cmd.Wait()
	close(exited)

	m.mu.Lock()
	closing := m.closing
	listener := m.listener
	socket := m.socketPath
	if m.exited == exited {
		m.listener = nil
	}
	m.mu.Unlock()

	if closing {
		return
	}

	if listener != nil {
		listener.Stop()
	}
	_ = os.Remove(socket)

	log.Warnf("mpv exited: %v", err)
	m.emit(Event{Kind: EventFailed, Err: ErrProcessExited})
}

// emit forwards an event without ever blocking on progress updates.
func (m *MPV) emit(ev Event) {
	m.mu.Lock()
	if ev.Kind == eventStarted {
		m.started = m.loads
		m.mu.Unlock()
		return
	}
	stale := m.started != m.loads && !errors.Is(ev.Err, ErrProcessExited)
	m.mu.Unlock()

	if stale {
		log.Debugf("mpv: dropping %s event of a replaced stream", ev.Kind)
		return
	}

	switch ev.Kind {
	case EventPosition, EventDuration:
		select {
		case m.events <- ev:
		default:
		}
	default:
		select {
		case m.events <- ev:
		case <-m.done:
		}
	}
}

// drain discards events queued for the stream about to be replaced.
func (m *MPV) drain() {
	for {
		select {
		case <-m.events:
		default:
			return
		}
	}
}

func newSocketPath() (string, error) {
	randomBytes := make([]byte, 4)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("generate socket name: %w", err)
	}
	return filepath.Join(where.Temp(), fmt.Sprintf("mpv-%x.sock", randomBytes)), nil
}

// waitForSocket polls until the IPC socket accepts connections.
func waitForSocket(ctx context.Context, socket string, exited <-chan struct{}) error {
	for i := 0; i < socketWaitRetries; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-exited:
			return errors.New("mpv exited before socket was ready")
		case <-time.After(socketWaitDelay):
		}

		conn, err := net.Dial("unix", socket)
		if err == nil {
			conn.Close()
			return nil
		}
	}
	return fmt.Errorf("socket %s not ready after %d attempts", socket, socketWaitRetries)
}

// sanitizeMediaTarget keeps provider-supplied locators from being read as mpv flags.
func sanitizeMediaTarget(link string) (string, error) {
	l := strings.TrimSpace(link)
	if l == "" {
		return "", errors.New("empty URL")
	}

	if strings.ContainsAny(l, "\x00\n\r") {
		return "", errors.New("invalid control characters in URL")
	}

	if strings.HasPrefix(l, "-") {
		return "", errors.New("url must not start with '-' (looks like a flag)")
	}

	if strings.Contains(l, "://") {
		u, err := url.Parse(l)
		if err != nil {
			return "", fmt.Errorf("invalid URL: %w", err)
		}
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return l, nil
		case "file":
			return filepath.Clean(u.Path), nil
		default:
			return "", fmt.Errorf("unsupported URL scheme: %s", u.Scheme)
		}
	}

	return filepath.Clean(l), nil
}

func sanitizeTitle(title string) string {
	t := strings.NewReplacer("\n", " ", "\r", " ", "\t", " ", "\x00", "").Replace(title)
	return strings.TrimSpace(t)
}
