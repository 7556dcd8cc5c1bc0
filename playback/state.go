package playback

import (
	"errors"
	"fmt"
	"time"

	"github.com/samber/mo"
	"github.com/tilawa-cli/tilawa/cascade"
	"github.com/tilawa-cli/tilawa/track"
)

// State is the lifecycle phase of the session.
type State int

const (
	Idle State = iota
	Resolving
	Playing
	Paused
	// Stopped means the stream ended on its own. The track is kept for replay.
	Stopped
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Resolving:
		return "resolving"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Stopped:
		return "stopped"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// bound reports whether a stream is loaded into the resource.
func (s State) bound() bool {
	return s == Playing || s == Paused
}

// Resolution summarises the cascade for observers.
type Resolution int

const (
	ResolutionIdle Resolution = iota
	ResolutionResolving
	ResolutionReady
	ResolutionExhausted
)

func (r Resolution) String() string {
	switch r {
	case ResolutionIdle:
		return "idle"
	case ResolutionResolving:
		return "resolving"
	case ResolutionReady:
		return "ready"
	case ResolutionExhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("resolution(%d)", int(r))
	}
}

func (r Resolution) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Snapshot is an immutable copy of the session taken after a change.
type Snapshot struct {
	State State
	Track mo.Option[track.Track]
	// Locator is the resolved mirror, empty until the cascade succeeds.
	Locator string
	// Source is the label of the mirror host that won the cascade.
	Source     string
	Position   float64
	Duration   float64
	Volume     float64
	Visible    bool
	Resolution Resolution
	// Attempts made by the cascade of the current play so far.
	Attempts []cascade.Attempt
	// Err is why the session is Failed.
	Err error
	// Generation increments with every play intent and stop.
	Generation uint64
	At         time.Time
}

// View is the read model pushed to observers.
type View struct {
	Visible    bool       `json:"visible"`
	IsPlaying  bool       `json:"is_playing"`
	Position   float64    `json:"position"`
	Duration   float64    `json:"duration"`
	Volume     float64    `json:"volume"`
	TrackTitle string     `json:"track_title"`
	Provider   string     `json:"provider"`
	Resolution Resolution `json:"resolution"`
}

// View projects the snapshot into what an observer renders.
func (s Snapshot) View() View {
	v := View{
		Visible:    s.Visible,
		IsPlaying:  s.State == Playing,
		Position:   s.Position,
		Duration:   s.Duration,
		Volume:     s.Volume,
		Resolution: s.Resolution,
	}

	if t, ok := s.Track.Get(); ok {
		v.TrackTitle = t.String()
		v.Provider = t.Provider
	}
	return v
}

// Message is a one-line human description of the failure, empty unless Failed.
func (s Snapshot) Message() string {
	if s.State != Failed || s.Err == nil {
		return ""
	}

	var exhausted *cascade.ExhaustedError
	if errors.As(s.Err, &exhausted) {
		return cascade.ErrExhausted.Error()
	}
	return s.Err.Error()
}
