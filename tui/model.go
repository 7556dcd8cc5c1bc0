package tui

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/tilawa-cli/tilawa/log"
	"github.com/tilawa-cli/tilawa/playback"
	"github.com/tilawa-cli/tilawa/style"
	"github.com/tilawa-cli/tilawa/util"
)

const (
	defaultSeekStep = 10
	volumeStep      = 0.05
)

type (
	snapshotMsg playback.Snapshot
	closedMsg   struct{}
	errMsg      struct{ err error }
)

// model is the player screen. It never mutates the session itself: every key press
// becomes a coordinator command and the screen re-renders from the snapshot that follows.
type model struct {
	controller Controller
	updates    <-chan playback.Snapshot
	snapshot   playback.Snapshot

	keymap    *keymap
	spinnerC  spinner.Model
	progressC progress.Model
	helpC     help.Model

	expanded bool
	seekStep float64
	lastErr  error

	width, height int
}

func newModel(controller Controller, updates <-chan playback.Snapshot, options *Options) *model {
	seekStep := options.SeekStep
	if seekStep <= 0 {
		seekStep = defaultSeekStep
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = style.New().Foreground(style.AccentColor)

	m := &model{
		controller: controller,
		updates:    updates,
		snapshot:   controller.Snapshot(),
		keymap:     newKeymap(),
		spinnerC:   s,
		progressC:  progress.New(progress.WithGradient(string(style.Mauve), string(style.Lavender)), progress.WithoutPercentage()),
		helpC:      help.New(),
		expanded:   options.Expanded,
		seekStep:   seekStep,
	}
	m.keymap.setState(m.snapshot.State)
	if width, height, err := util.TerminalSize(); err == nil {
		m.resize(width, height)
	}
	return m
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(m.waitForSnapshot(), m.spinnerC.Tick)
}

func (m *model) waitForSnapshot() tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-m.updates
		if !ok {
			return closedMsg{}
		}
		return snapshotMsg(snap)
	}
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil
	case snapshotMsg:
		m.snapshot = playback.Snapshot(msg)
		m.keymap.setState(m.snapshot.State)
		return m, m.waitForSnapshot()
	case closedMsg:
		return m, tea.Quit
	case errMsg:
		m.lastErr = msg.err
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinnerC, cmd = m.spinnerC.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var err error

	switch {
	case key.Matches(msg, m.keymap.forceQuit, m.keymap.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keymap.showHelp):
		m.helpC.ShowAll = !m.helpC.ShowAll
	case key.Matches(msg, m.keymap.expand):
		m.expanded = !m.expanded
	case key.Matches(msg, m.keymap.playPause):
		err = m.controller.TogglePause()
	case key.Matches(msg, m.keymap.seekForward):
		err = m.controller.SeekBy(m.seekStep)
	case key.Matches(msg, m.keymap.seekBackward):
		err = m.controller.SeekBy(-m.seekStep)
	case key.Matches(msg, m.keymap.volumeUp):
		err = m.controller.SetVolume(m.snapshot.Volume + volumeStep)
	case key.Matches(msg, m.keymap.volumeDown):
		err = m.controller.SetVolume(m.snapshot.Volume - volumeStep)
	case key.Matches(msg, m.keymap.stop):
		err = m.controller.Stop()
	case key.Matches(msg, m.keymap.hide):
		err = m.controller.Hide()
	case key.Matches(msg, m.keymap.replay):
		return m, m.replay()
	}

	if err != nil {
		log.Warnf("tui: %v", err)
		m.lastErr = err
	}
	return m, nil
}

// replay blocks until the new cascade settles, so it runs off the update loop.
func (m *model) replay() tea.Cmd {
	if m.snapshot.State != playback.Stopped && m.snapshot.State != playback.Failed {
		return nil
	}

	return func() tea.Msg {
		// cascade and runtime failures arrive as a Failed snapshot
		_, err := m.controller.Replay(context.Background())
		if errors.Is(err, playback.ErrClosed) || errors.Is(err, playback.ErrNothingToReplay) {
			return errMsg{err}
		}
		return nil
	}
}

func (m *model) resize(width, height int) {
	x, _ := paddingStyle.GetFrameSize()
	m.width = width - x
	m.height = height
	m.progressC.Width = max(m.width-16, 10)
	m.helpC.Width = m.width
}
