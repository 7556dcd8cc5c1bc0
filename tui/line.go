package tui

import (
	"context"
	"fmt"
	"io"

	"github.com/tilawa-cli/tilawa/icon"
	"github.com/tilawa-cli/tilawa/playback"
	"github.com/tilawa-cli/tilawa/util"
)

// Follow is the compact line observer used without a terminal UI. It prints one line
// per state change, never per position update, and returns the last snapshot once the
// session has ended, failed or stopped, or when ctx is done.
func Follow(ctx context.Context, w io.Writer, updates <-chan playback.Snapshot) playback.Snapshot {
	var (
		last    playback.Snapshot
		printed = playback.State(-1)
		started bool
	)

	for {
		select {
		case <-ctx.Done():
			return last
		case snap, ok := <-updates:
			if !ok {
				return last
			}
			last = snap

			if snap.State != printed && (started || snap.State != playback.Idle) {
				printed = snap.State
				fmt.Fprintln(w, describe(snap))
			}

			switch snap.State {
			case playback.Idle:
				if started {
					return last
				}
			case playback.Stopped, playback.Failed:
				return last
			default:
				started = true
			}
		}
	}
}

func describe(snap playback.Snapshot) string {
	title := "nothing"
	if t, ok := snap.Track.Get(); ok {
		title = t.String()
	}

	switch snap.State {
	case playback.Resolving:
		return fmt.Sprintf("%s Resolving %s", stateIcon(snap.State), title)
	case playback.Playing:
		return fmt.Sprintf("%s Playing %s from %s", stateIcon(snap.State), title, snap.Source)
	case playback.Paused:
		return fmt.Sprintf("%s Paused %s at %s", stateIcon(snap.State), title, util.FormatSeconds(snap.Position))
	case playback.Stopped:
		return fmt.Sprintf("%s Finished %s", stateIcon(snap.State), title)
	case playback.Failed:
		return fmt.Sprintf("%s %s: %s", icon.Get(icon.Fail), title, snap.Message())
	default:
		return fmt.Sprintf("%s Idle", stateIcon(snap.State))
	}
}
