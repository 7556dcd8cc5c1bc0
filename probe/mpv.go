package probe

import (
	"context"
	"errors"
	"fmt"

	"github.com/tilawa-cli/tilawa/cascade"
	"github.com/tilawa-cli/tilawa/player"
)

// silentArgs keep a probing mpv from making any sound.
var silentArgs = []string{"--ao=null", "--mute=yes"}

// MPV confirms a locator by asking a throwaway, muted mpv to open it.
// This is the most faithful check: the locator is ready exactly when mpv can decode it.
type MPV struct {
	Binary string
}

// NewMPV returns a prober spawning binary.
func NewMPV(binary string) *MPV {
	return &MPV{Binary: binary}
}

// Probe implements cascade.Prober. The spawned process is closed before returning,
// including when ctx expires.
func (p *MPV) Probe(ctx context.Context, locator string) error {
	return probeResource(ctx, player.NewMPV(p.Binary, player.WithArgs(silentArgs...)), locator)
}

func probeResource(ctx context.Context, res player.Resource, locator string) error {
	defer res.Close()

	if err := res.Load(ctx, locator, locator); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", cascade.ErrFetch, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-res.Events():
			switch ev.Kind {
			case player.EventLoaded:
				return nil
			case player.EventFailed:
				if errors.Is(ev.Err, player.ErrUnrecognizedFormat) {
					return fmt.Errorf("%w: %v", cascade.ErrDecode, ev.Err)
				}
				return fmt.Errorf("%w: %v", cascade.ErrFetch, ev.Err)
			}
		}
	}
}
