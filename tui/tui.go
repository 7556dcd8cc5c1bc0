// Package tui renders the playback session in the terminal and forwards key presses
// to the coordinator.
package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/tilawa-cli/tilawa/playback"
)

// Controller is the part of the coordinator the player screen drives.
type Controller interface {
	TogglePause() error
	SeekBy(delta float64) error
	SetVolume(volume float64) error
	Stop() error
	Hide() error
	Replay(ctx context.Context) (playback.Snapshot, error)
	Snapshot() playback.Snapshot
	Subscribe() (<-chan playback.Snapshot, func())
}

// Options configures the player screen.
type Options struct {
	// Expanded starts with the full layout instead of the single status line.
	Expanded bool
	// SeekStep is how many seconds the arrow keys move.
	SeekStep float64
	// AltScreen takes over the whole terminal.
	AltScreen bool
}

// Run shows the session until the user quits. Quitting does not stop playback; the
// caller decides what happens to the session afterwards.
func Run(ctx context.Context, controller Controller, options *Options) error {
	updates, cancel := controller.Subscribe()
	defer cancel()

	programOptions := []tea.ProgramOption{tea.WithContext(ctx)}
	if options.AltScreen {
		programOptions = append(programOptions, tea.WithAltScreen())
	}

	_, err := tea.NewProgram(newModel(controller, updates, options), programOptions...).Run()
	return err
}
