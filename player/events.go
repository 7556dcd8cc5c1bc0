package player

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/tilawa-cli/tilawa/log"
)

// observed lists the mpv properties forwarded as events, keyed by observer id.
var observed = []struct {
	id   int
	name string
}{
	{1, "time-pos"},
	{2, "duration"},
}

// eventStarted marks mpv opening the entry of the latest loadfile. It stays inside the package.
const eventStarted EventKind = -1

// rawEvent is the subset of an mpv event line that is translated into Event.
type rawEvent struct {
	Event     string      `json:"event"`
	Name      string      `json:"name"`
	Data      interface{} `json:"data"`
	Reason    string      `json:"reason"`
	FileError string      `json:"file_error"`
}

// EventListener holds one persistent IPC connection and turns what mpv broadcasts on it into Events.
type EventListener struct {
	socketPath string
	handler    func(Event)

	mu        sync.Mutex
	conn      net.Conn
	stopCh    chan struct{}
	listening bool
}

// NewEventListener creates a listener that reports to handler.
func NewEventListener(socketPath string, handler func(Event)) *EventListener {
	return &EventListener{
		socketPath: socketPath,
		handler:    handler,
	}
}

// Start connects and registers property observers.
// mpv scopes observe_property to the connection that issued it, so both happen on the same conn.
func (el *EventListener) Start() error {
	el.mu.Lock()
	defer el.mu.Unlock()

	if el.listening {
		return nil
	}

	conn, err := net.Dial("unix", el.socketPath)
	if err != nil {
		return fmt.Errorf("event listener connect: %w", err)
	}

	for _, prop := range observed {
		if err := writeCommand(conn, requestIDs.Add(1), []interface{}{"observe_property", prop.id, prop.name}); err != nil {
			conn.Close()
			return fmt.Errorf("observe %s: %w", prop.name, err)
		}
	}

	el.conn = conn
	el.stopCh = make(chan struct{})
	el.listening = true
	go el.readLoop(conn, el.stopCh)

	log.Debugf("mpv event listener attached to %s", el.socketPath)
	return nil
}

// Stop closes the connection, which also ends the read loop.
func (el *EventListener) Stop() {
	el.mu.Lock()
	defer el.mu.Unlock()

	if !el.listening {
		return
	}

	close(el.stopCh)
	_ = el.conn.Close()
	el.listening = false
}

func (el *EventListener) readLoop(conn net.Conn, stop <-chan struct{}) {
	reader := bufio.NewReader(conn)
	for {
		line, err := reader.ReadBytes('\n')
		if len(line) > 0 {
			if ev, ok := translate(line); ok && el.handler != nil {
				el.handler(ev)
			}
		}
		if err != nil {
			select {
			case <-stop:
			default:
				log.Warnf("mpv event listener read error: %v", err)
			}
			return
		}
	}
}

// translate maps one mpv JSON line to an Event. Command replies and events nobody
// consumes are dropped.
func translate(line []byte) (Event, bool) {
	var raw rawEvent
	if err := json.Unmarshal(line, &raw); err != nil || raw.Event == "" {
		return Event{}, false
	}

	switch raw.Event {
	case "start-file":
		return Event{Kind: eventStarted}, true
	case "file-loaded":
		return Event{Kind: EventLoaded}, true
	case "property-change":
		seconds, ok := raw.Data.(float64)
		if !ok {
			return Event{}, false
		}
		switch raw.Name {
		case "time-pos":
			return Event{Kind: EventPosition, Value: seconds}, true
		case "duration":
			return Event{Kind: EventDuration, Value: seconds}, true
		}
	case "end-file":
		switch raw.Reason {
		case "eof":
			return Event{Kind: EventEnded}, true
		case "error":
			cause := raw.FileError
			if cause == "" {
				cause = "playback error"
			}
			return Event{Kind: EventFailed, Err: &StreamError{Cause: cause}}, true
		}
	}

	return Event{}, false
}

// StreamError is mpv's reason for abandoning a stream.
type StreamError struct {
	Cause string
}

func (e *StreamError) Error() string {
	return "mpv: " + e.Cause
}

// ErrUnrecognizedFormat matches stream errors caused by undecodable content.
var ErrUnrecognizedFormat = errors.New("unrecognized file format")

// Is reports decode failures as ErrUnrecognizedFormat.
func (e *StreamError) Is(target error) bool {
	if target != ErrUnrecognizedFormat {
		return false
	}
	switch e.Cause {
	case "unrecognized file format", "no audio or video data played", "audio output initialization failed":
		return true
	}
	return false
}
