// Package playback owns the single playback session.
//
// A Coordinator is the only writer of session state. Every command, cascade result and
// resource event is applied by one goroutine, in arrival order, and each change is
// published to subscribers as an immutable Snapshot.
package playback

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samber/mo"
	"github.com/sirupsen/logrus"
	"github.com/tilawa-cli/tilawa/candidate"
	"github.com/tilawa-cli/tilawa/cascade"
	"github.com/tilawa-cli/tilawa/log"
	"github.com/tilawa-cli/tilawa/player"
	"github.com/tilawa-cli/tilawa/track"
	"github.com/tilawa-cli/tilawa/util"
)

var (
	// ErrSuperseded is returned to a Play caller whose intent was replaced by a newer
	// play or a stop before it settled.
	ErrSuperseded = errors.New("play superseded")
	// ErrResourceRuntime wraps failures of the resource after a locator was resolved.
	ErrResourceRuntime = errors.New("playback failed")
	// ErrClosed is returned once the coordinator has been closed.
	ErrClosed = errors.New("coordinator closed")
	// ErrNothingToReplay is returned by Replay when no ended or failed track is retained.
	ErrNothingToReplay = errors.New("nothing to replay")
)

// Options configures a Coordinator.
type Options struct {
	// ProbeTimeout bounds each candidate probe. Zero means cascade.DefaultTimeout.
	ProbeTimeout time.Duration
	// Volume is the initial level in [0, 1].
	Volume float64
	// Candidates controls how PlayRequest expands templates.
	Candidates candidate.Options
}

type outcome struct {
	snapshot Snapshot
	err      error
}

type waiter struct {
	generation uint64
	result     chan outcome
}

// Coordinator serialises every mutation of the session.
type Coordinator struct {
	resource player.Resource
	prober   cascade.Prober
	opts     Options

	inbox   chan func()
	quit    chan struct{}
	stopped chan struct{}
	once    sync.Once
	latest  atomic.Pointer[Snapshot]

	// owned by run
	snap        Snapshot
	candidates  []track.Candidate
	cancel      context.CancelFunc
	cascadeDone chan struct{}
	waiters     []waiter
	subscribers map[int]chan Snapshot
	nextSub     int
}

// New starts a coordinator driving resource. It must be closed with Close.
func New(resource player.Resource, prober cascade.Prober, opts Options) *Coordinator {
	c := &Coordinator{
		resource:    resource,
		prober:      prober,
		opts:        opts,
		inbox:       make(chan func()),
		quit:        make(chan struct{}),
		stopped:     make(chan struct{}),
		subscribers: make(map[int]chan Snapshot),
	}

	c.snap = Snapshot{
		State:      Idle,
		Volume:     util.Clamp(opts.Volume, 0, 1),
		Resolution: ResolutionIdle,
		At:         time.Now(),
	}
	c.latest.Store(&c.snap)

	go c.run()
	return c
}

func (c *Coordinator) run() {
	defer close(c.stopped)

	for {
		select {
		case cmd := <-c.inbox:
			cmd()
		case ev := <-c.resource.Events():
			c.handleEvent(ev)
		case <-c.quit:
			c.shutdown()
			return
		}
	}
}

// do runs fn on the session goroutine and waits for it.
func (c *Coordinator) do(fn func()) error {
	ack := make(chan struct{})
	select {
	case c.inbox <- func() { fn(); close(ack) }:
	case <-c.stopped:
		return ErrClosed
	}
	<-ack
	return nil
}

// post hands fn to the session goroutine without waiting for it to run.
func (c *Coordinator) post(fn func()) {
	select {
	case c.inbox <- fn:
	case <-c.stopped:
	}
}

// Snapshot returns the latest published snapshot.
func (c *Coordinator) Snapshot() Snapshot {
	return *c.latest.Load()
}

// Play supersedes whatever is current and plays t from the first candidate that probes
// healthy. It blocks until this play settles: the Playing snapshot on success, a Failed
// snapshot with *cascade.ExhaustedError or ErrResourceRuntime, or ErrSuperseded.
// Cancelling ctx only stops waiting; the play itself continues.
func (c *Coordinator) Play(ctx context.Context, t track.Track, candidates []track.Candidate) (Snapshot, error) {
	var w waiter
	if err := c.do(func() { w = c.begin(t, candidates) }); err != nil {
		return c.Snapshot(), err
	}
	return c.wait(ctx, w)
}

// PlayRequest expands req into candidates and plays it.
func (c *Coordinator) PlayRequest(ctx context.Context, req track.Request) (Snapshot, error) {
	if err := req.Validate(); err != nil {
		return c.Snapshot(), err
	}
	return c.Play(ctx, req.Track(), candidate.BuildWith(req, c.opts.Candidates))
}

// Replay plays the retained track again after it ended or failed.
func (c *Coordinator) Replay(ctx context.Context) (Snapshot, error) {
	var (
		w  waiter
		ok bool
	)

	err := c.do(func() {
		t, present := c.snap.Track.Get()
		if !present || (c.snap.State != Stopped && c.snap.State != Failed) {
			return
		}
		w, ok = c.begin(t, c.candidates), true
	})
	if err != nil {
		return c.Snapshot(), err
	}
	if !ok {
		return c.Snapshot(), ErrNothingToReplay
	}
	return c.wait(ctx, w)
}

func (c *Coordinator) wait(ctx context.Context, w waiter) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return c.Snapshot(), err
	}

	select {
	case out := <-w.result:
		return out.snapshot, out.err
	case <-ctx.Done():
		return c.Snapshot(), ctx.Err()
	}
}

// Pause pauses a playing stream. Any other state is left untouched.
func (c *Coordinator) Pause() error {
	return c.do(func() {
		if c.snap.State != Playing {
			log.Debugf("pause ignored in state %s", c.snap.State)
			return
		}
		if err := c.resource.SetPaused(true); err != nil {
			log.Warnf("pause: %v", err)
			return
		}
		c.snap.State = Paused
		c.publish()
	})
}

// Resume continues a paused stream. Any other state is left untouched.
func (c *Coordinator) Resume() error {
	return c.do(func() {
		if c.snap.State != Paused {
			log.Debugf("resume ignored in state %s", c.snap.State)
			return
		}
		if err := c.resource.SetPaused(false); err != nil {
			log.Warnf("resume: %v", err)
			return
		}
		c.snap.State = Playing
		c.publish()
	})
}

// TogglePause pauses when playing and resumes when paused.
func (c *Coordinator) TogglePause() error {
	if c.Snapshot().State == Paused {
		return c.Resume()
	}
	return c.Pause()
}

// Stop returns to Idle from any state, cancelling resolution and releasing the resource.
func (c *Coordinator) Stop() error {
	return c.do(func() {
		c.supersede()
		c.candidates = nil
		c.snap = Snapshot{
			State:      Idle,
			Volume:     c.snap.Volume,
			Resolution: ResolutionIdle,
			Generation: c.snap.Generation,
		}
		c.publish()
	})
}

// Seek moves to seconds, clamped to the known duration. Without a bound stream it does nothing.
func (c *Coordinator) Seek(seconds float64) error {
	return c.do(func() {
		if !c.snap.State.bound() {
			log.Debugf("seek ignored in state %s", c.snap.State)
			return
		}

		target := c.clampPosition(seconds)
		if err := c.resource.Seek(target); err != nil {
			log.Warnf("seek: %v", err)
			return
		}
		c.snap.Position = target
		c.publish()
	})
}

// SeekBy seeks relative to the current position.
func (c *Coordinator) SeekBy(delta float64) error {
	return c.Seek(c.Snapshot().Position + delta)
}

// SetVolume sets the level, clamped to [0, 1]. It persists across plays.
func (c *Coordinator) SetVolume(volume float64) error {
	return c.do(func() {
		c.snap.Volume = util.Clamp(volume, 0, 1)
		if c.snap.State.bound() {
			if err := c.resource.SetVolume(c.snap.Volume); err != nil {
				log.Warnf("volume: %v", err)
			}
		}
		c.publish()
	})
}

// Hide marks the session invisible without stopping it.
func (c *Coordinator) Hide() error {
	return c.do(func() {
		if !c.snap.Visible {
			return
		}
		c.snap.Visible = false
		c.publish()
	})
}

// Subscribe returns a channel carrying the current snapshot followed by every change.
// Delivery is latest-wins: a slow reader skips intermediate snapshots but the last one
// it receives is always current. cancel closes the channel.
func (c *Coordinator) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)
	var id int

	err := c.do(func() {
		id = c.nextSub
		c.nextSub++
		c.subscribers[id] = ch
		ch <- c.snap
	})
	if err != nil {
		close(ch)
		return ch, func() {}
	}

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			c.post(func() {
				if sub, ok := c.subscribers[id]; ok {
					delete(c.subscribers, id)
					close(sub)
				}
			})
		})
	}
	return ch, cancel
}

// Close stops the session and releases the resource.
func (c *Coordinator) Close() error {
	c.once.Do(func() { close(c.quit) })
	<-c.stopped
	return c.resource.Close()
}

// begin supersedes the current session and starts a cascade for t.
func (c *Coordinator) begin(t track.Track, candidates []track.Candidate) waiter {
	previous := c.supersede()

	c.candidates = candidates
	c.snap = Snapshot{
		State:      Resolving,
		Track:      mo.Some(t),
		Volume:     c.snap.Volume,
		Visible:    true,
		Resolution: ResolutionResolving,
		Generation: c.snap.Generation,
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	c.cancel = cancel
	c.cascadeDone = done

	generation := c.snap.Generation
	w := waiter{generation: generation, result: make(chan outcome, 1)}
	c.waiters = append(c.waiters, w)

	log.WithFields(logrus.Fields{
		"track":      t.String(),
		"candidates": len(candidates),
		"generation": generation,
	}).Info("play requested")

	go c.resolve(ctx, done, previous, generation, t, candidates)

	c.publish()
	return w
}

// supersede ends the current generation: waiters are released, the cascade is cancelled
// and a bound stream is unloaded. It returns the done channel of the cancelled cascade.
func (c *Coordinator) supersede() <-chan struct{} {
	c.snap.Generation++
	c.settle(Snapshot{}, ErrSuperseded, true)

	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}

	if c.snap.State.bound() {
		if err := c.resource.Unload(); err != nil {
			log.Warnf("unload: %v", err)
		}
	}

	previous := c.cascadeDone
	c.cascadeDone = nil
	return previous
}

// resolve runs the cascade off the session goroutine. It starts probing only after the
// previous cascade has returned, so two cascades never probe at once.
func (c *Coordinator) resolve(ctx context.Context, done chan struct{}, previous <-chan struct{}, generation uint64, t track.Track, candidates []track.Candidate) {
	defer close(done)

	if previous != nil {
		select {
		case <-previous:
		case <-ctx.Done():
			return
		}
	}

	res, err := cascade.Resolve(ctx, candidates, c.prober, cascade.Options{
		Timeout: c.opts.ProbeTimeout,
		OnAttempt: func(a cascade.Attempt) {
			c.post(func() { c.recordAttempt(generation, a) })
		},
	})

	if errors.Is(err, context.Canceled) {
		return
	}

	c.post(func() { c.finishResolve(ctx, generation, t, res, err) })
}

func (c *Coordinator) recordAttempt(generation uint64, a cascade.Attempt) {
	if generation != c.snap.Generation {
		return
	}
	c.snap.Attempts = append(c.snap.Attempts, a)
	c.publish()
}

func (c *Coordinator) finishResolve(ctx context.Context, generation uint64, t track.Track, res *cascade.Resolution, err error) {
	if generation != c.snap.Generation || c.snap.State != Resolving {
		log.Debugf("dropping stale cascade result for generation %d", generation)
		return
	}

	if err != nil {
		var exhausted *cascade.ExhaustedError
		if errors.As(err, &exhausted) {
			c.snap.Attempts = exhausted.Attempts
			c.snap.Resolution = ResolutionExhausted
		}
		c.fail(err)
		return
	}

	c.snap.Attempts = res.Attempts

	if err := c.resource.Load(ctx, res.Locator(), t.String()); err != nil {
		// loadfile may have gone through before the error, and Failed is never unloaded later
		if err := c.resource.Unload(); err != nil {
			log.Warnf("unload: %v", err)
		}
		c.snap.Resolution = ResolutionIdle
		c.fail(fmt.Errorf("%w: %v", ErrResourceRuntime, err))
		return
	}

	c.snap.Resolution = ResolutionReady
	c.snap.Locator = res.Locator()
	c.snap.Source = res.Candidate.Provider

	if err := c.resource.SetVolume(c.snap.Volume); err != nil {
		log.Warnf("volume: %v", err)
	}

	c.snap.State = Playing
	log.WithFields(logrus.Fields{
		"track":   t.String(),
		"locator": res.Locator(),
	}).Info("playing")

	c.publish()
	c.settle(c.snap, nil, false)
}

func (c *Coordinator) fail(err error) {
	c.snap.State = Failed
	c.snap.Err = err
	log.Warnf("play failed: %v", err)

	c.publish()
	c.settle(c.snap, err, false)
}

// settle releases Play callers. With stale set it releases those of older generations,
// otherwise those of the current one.
func (c *Coordinator) settle(snap Snapshot, err error, stale bool) {
	remaining := c.waiters[:0]
	for _, w := range c.waiters {
		current := w.generation == c.snap.Generation
		if current == stale {
			remaining = append(remaining, w)
			continue
		}

		if stale {
			snap = c.snap
		}
		w.result <- outcome{snapshot: snap, err: err}
	}
	c.waiters = remaining
}

func (c *Coordinator) handleEvent(ev player.Event) {
	if !c.snap.State.bound() {
		return
	}

	switch ev.Kind {
	case player.EventPosition:
		c.snap.Position = c.clampPosition(ev.Value)
	case player.EventDuration:
		if ev.Value <= 0 {
			return
		}
		c.snap.Duration = ev.Value
		c.snap.Position = c.clampPosition(c.snap.Position)
	case player.EventEnded:
		c.snap.State = Stopped
		log.Infof("%s ended", c.snap.Track.OrEmpty())
	case player.EventFailed:
		c.snap.State = Failed
		c.snap.Err = fmt.Errorf("%w: %v", ErrResourceRuntime, ev.Err)
		log.Warnf("stream failed: %v", ev.Err)
	default:
		return
	}

	c.publish()
}

func (c *Coordinator) clampPosition(seconds float64) float64 {
	if seconds < 0 {
		return 0
	}
	if c.snap.Duration > 0 {
		return util.Clamp(seconds, 0, c.snap.Duration)
	}
	return seconds
}

func (c *Coordinator) publish() {
	c.snap.At = time.Now()
	snap := c.snap
	c.latest.Store(&snap)

	for _, ch := range c.subscribers {
		select {
		case ch <- snap:
			continue
		default:
		}

		// drop the stale snapshot the reader has not taken yet
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

func (c *Coordinator) shutdown() {
	if c.cancel != nil {
		c.cancel()
	}
	if c.snap.State.bound() {
		_ = c.resource.Unload()
	}

	for _, w := range c.waiters {
		w.result <- outcome{snapshot: c.snap, err: ErrClosed}
	}
	c.waiters = nil

	for id, ch := range c.subscribers {
		close(ch)
		delete(c.subscribers, id)
	}
}
