// Package player implements the playback resource: one decoder/output unit that renders
// a single audio stream at a time. The production backend is mpv driven over JSON-IPC.
package player

import (
	"context"
	"fmt"
)

// Resource is the playback unit the coordinator binds resolved locators to.
//
// Only one stream is bound at a time: Load replaces whatever was loaded before and
// Unload releases it while keeping the resource reusable.
type Resource interface {
	// Load binds locator and starts playback.
	Load(ctx context.Context, locator, title string) error
	SetPaused(paused bool) error
	// Seek moves the playback cursor to an absolute position in seconds.
	Seek(seconds float64) error
	// SetVolume sets the output level as a fraction in [0, 1].
	SetVolume(volume float64) error
	Unload() error
	// Events delivers resource-generated events for the bound stream.
	Events() <-chan Event
	Close() error
}

// EventKind classifies a resource event.
type EventKind int

const (
	// EventLoaded fires once the stream is open and ready to play.
	EventLoaded EventKind = iota
	EventPosition
	EventDuration
	// EventEnded fires when the stream reaches its natural end.
	EventEnded
	// EventFailed fires when a bound stream cannot continue.
	EventFailed
)

func (k EventKind) String() string {
	switch k {
	case EventLoaded:
		return "loaded"
	case EventPosition:
		return "position"
	case EventDuration:
		return "duration"
	case EventEnded:
		return "ended"
	case EventFailed:
		return "failed"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event is emitted by a Resource.
type Event struct {
	Kind EventKind
	// Value carries seconds for EventPosition and EventDuration.
	Value float64
	// Err is set for EventFailed.
	Err error
}
