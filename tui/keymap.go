package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/tilawa-cli/tilawa/color"
	"github.com/tilawa-cli/tilawa/playback"
	"github.com/tilawa-cli/tilawa/style"
)

// keymap holds the bindings of the player screen. Help adapts to the session state.
type keymap struct {
	state playback.State

	playPause, seekForward, seekBackward,
	volumeUp, volumeDown,
	stop, replay, hide, expand,
	showHelp, quit, forceQuit key.Binding
}

func newKeymap() *keymap {
	return &keymap{
		playPause: key.NewBinding(
			key.WithKeys(" ", "space", "p"),
			key.WithHelp(style.Fg(color.Orange)("space"), style.Fg(color.Orange)("pause/resume")),
		),
		seekForward: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→", "forward"),
		),
		seekBackward: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←", "back"),
		),
		volumeUp: key.NewBinding(
			key.WithKeys("+", "=", "up", "k"),
			key.WithHelp("+", "volume up"),
		),
		volumeDown: key.NewBinding(
			key.WithKeys("-", "down", "j"),
			key.WithHelp("-", "volume down"),
		),
		stop: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "stop"),
		),
		replay: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "play again"),
		),
		hide: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "hide"),
		),
		expand: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "expand/collapse"),
		),
		showHelp: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		forceQuit: key.NewBinding(
			key.WithKeys("ctrl+c", "ctrl+d"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}
}

func (k *keymap) setState(s playback.State) {
	k.state = s
}

func (k *keymap) help() ([]key.Binding, []key.Binding) {
	h := func(bindings ...key.Binding) []key.Binding {
		return bindings
	}

	switch k.state {
	case playback.Playing, playback.Paused:
		return h(k.playPause, k.seekBackward, k.seekForward, k.showHelp, k.quit),
			h(k.playPause, k.seekBackward, k.seekForward, k.volumeUp, k.volumeDown, k.stop, k.hide, k.expand, k.quit)
	case playback.Stopped, playback.Failed:
		return h(k.replay, k.quit), h(k.replay, k.expand, k.quit)
	case playback.Resolving:
		return h(k.stop, k.quit), h(k.stop, k.expand, k.quit)
	default:
		return h(k.quit), h(k.quit)
	}
}

func (k *keymap) ShortHelp() []key.Binding {
	short, _ := k.help()
	return short
}

func (k *keymap) FullHelp() [][]key.Binding {
	_, full := k.help()
	return [][]key.Binding{full}
}
