package playback

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/tilawa-cli/tilawa/cascade"
	"github.com/tilawa-cli/tilawa/player"
	"github.com/tilawa-cli/tilawa/track"
)

// fakeResource records what the coordinator asked of it. Tests inject events through emit.
type fakeResource struct {
	mu      sync.Mutex
	loaded  []string
	loadErr error
	paused  bool
	seeks   []float64
	volume  float64
	unloads int
	closed  bool
	events  chan player.Event
	// calls keeps loads and unloads in the order they happened
	calls []string
}

func newFakeResource() *fakeResource {
	return &fakeResource{volume: -1, events: make(chan player.Event)}
}

func (f *fakeResource) Load(_ context.Context, locator, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return f.loadErr
	}
	f.loaded = append(f.loaded, locator)
	f.calls = append(f.calls, "load "+locator)
	f.paused = false
	return nil
}

func (f *fakeResource) SetPaused(paused bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paused = paused
	return nil
}

func (f *fakeResource) Seek(seconds float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seeks = append(f.seeks, seconds)
	return nil
}

func (f *fakeResource) SetVolume(volume float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.volume = volume
	return nil
}

func (f *fakeResource) Unload() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unloads++
	f.calls = append(f.calls, "unload")
	return nil
}

func (f *fakeResource) Events() <-chan player.Event {
	return f.events
}

func (f *fakeResource) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeResource) emit(ev player.Event) {
	f.events <- ev
}

func (f *fakeResource) history() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeResource) state() (loaded []string, paused bool, seeks []float64, volume float64, unloads int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.loaded...), f.paused, append([]float64(nil), f.seeks...), f.volume, f.unloads
}

// scriptedProber answers by locator: "good" succeeds, "bad" fails, "broken" is
// undecodable and "slow" blocks until its context ends.
func scriptedProber() cascade.Prober {
	return cascade.ProberFunc(func(ctx context.Context, locator string) error {
		switch locator {
		case "https://good/001.mp3", "https://good/002.mp3":
			return nil
		case "https://broken/001.mp3":
			return cascade.ErrDecode
		case "https://slow/001.mp3":
			<-ctx.Done()
			return ctx.Err()
		default:
			return cascade.ErrFetch
		}
	})
}

// probeLog records when each probe starts and returns.
type probeLog struct {
	mu      sync.Mutex
	entries []string
}

func (l *probeLog) add(entry string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
}

func (l *probeLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.entries...)
}

func (l *probeLog) has(entry string) bool {
	for _, e := range l.list() {
		if e == entry {
			return true
		}
	}
	return false
}

func recorded(l *probeLog, inner cascade.Prober) cascade.Prober {
	return cascade.ProberFunc(func(ctx context.Context, locator string) error {
		l.add("probe " + locator)
		err := inner.Probe(ctx, locator)
		l.add("done " + locator)
		return err
	})
}

func candidates(locators ...string) []track.Candidate {
	out := make([]track.Candidate, len(locators))
	for i, l := range locators {
		out[i] = track.Candidate{Locator: l, Provider: "mirror", Rank: i}
	}
	return out
}

var (
	fatiha = track.Track{ID: "1", Title: "Al-Fatiha", Provider: "Alafasy"}
	baqara = track.Track{ID: "2", Title: "Al-Baqara", Provider: "Alafasy"}
)

func eventually(c *Coordinator, cond func(Snapshot) bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond(c.Snapshot()) {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

func TestCoordinator(t *testing.T) {
	Convey("Given a coordinator over a fake resource", t, func() {
		res := newFakeResource()
		c := New(res, scriptedProber(), Options{ProbeTimeout: time.Second, Volume: 0.8})
		defer c.Close()
		ctx := context.Background()

		Convey("It should start idle and hidden", func() {
			snap := c.Snapshot()
			So(snap.State, ShouldEqual, Idle)
			So(snap.Track.IsAbsent(), ShouldBeTrue)
			So(snap.View(), ShouldResemble, View{Volume: 0.8, Resolution: ResolutionIdle})
		})

		Convey("Playing a track with a healthy fallback", func() {
			snap, err := c.Play(ctx, fatiha, candidates("https://bad/001.mp3", "https://broken/001.mp3", "https://good/001.mp3"))

			Convey("Should bind the first healthy mirror", func() {
				So(err, ShouldBeNil)
				So(snap.State, ShouldEqual, Playing)
				So(snap.Locator, ShouldEqual, "https://good/001.mp3")
				So(snap.Resolution, ShouldEqual, ResolutionReady)
				So(snap.Attempts, ShouldHaveLength, 3)
				So(snap.Attempts[0].Outcome, ShouldEqual, cascade.FetchError)
				So(snap.Attempts[1].Outcome, ShouldEqual, cascade.DecodeError)

				loaded, _, _, volume, _ := res.state()
				So(loaded, ShouldResemble, []string{"https://good/001.mp3"})
				So(volume, ShouldEqual, 0.8)
			})

			Convey("Should project the observer view", func() {
				So(snap.View(), ShouldResemble, View{
					Visible:    true,
					IsPlaying:  true,
					Volume:     0.8,
					TrackTitle: "Al-Fatiha",
					Provider:   "Alafasy",
					Resolution: ResolutionReady,
				})
			})

			Convey("Pause and Resume should toggle the resource", func() {
				So(c.Pause(), ShouldBeNil)
				So(c.Snapshot().State, ShouldEqual, Paused)
				_, paused, _, _, _ := res.state()
				So(paused, ShouldBeTrue)

				So(c.Pause(), ShouldBeNil)
				So(c.Snapshot().State, ShouldEqual, Paused)

				So(c.Resume(), ShouldBeNil)
				So(c.Snapshot().State, ShouldEqual, Playing)
				_, paused, _, _, _ = res.state()
				So(paused, ShouldBeFalse)
			})

			Convey("Seek should clamp to the known duration", func() {
				res.emit(player.Event{Kind: player.EventDuration, Value: 100})
				So(eventually(c, func(s Snapshot) bool { return s.Duration == 100 }), ShouldBeTrue)

				So(c.Seek(150), ShouldBeNil)
				So(c.Snapshot().Position, ShouldEqual, 100)
				So(c.Seek(-5), ShouldBeNil)
				So(c.Snapshot().Position, ShouldEqual, 0)

				_, _, seeks, _, _ := res.state()
				So(seeks, ShouldResemble, []float64{100, 0})
			})

			Convey("Seek should not clamp above while the duration is unknown", func() {
				So(c.Seek(4000), ShouldBeNil)
				So(c.Snapshot().Position, ShouldEqual, 4000)
			})

			Convey("Position events should be clamped", func() {
				res.emit(player.Event{Kind: player.EventDuration, Value: 60})
				res.emit(player.Event{Kind: player.EventPosition, Value: 75})
				So(eventually(c, func(s Snapshot) bool { return s.Position == 60 }), ShouldBeTrue)
			})

			Convey("A natural end should stop and keep the track", func() {
				res.emit(player.Event{Kind: player.EventEnded})
				So(eventually(c, func(s Snapshot) bool { return s.State == Stopped }), ShouldBeTrue)
				So(c.Snapshot().Track.MustGet(), ShouldResemble, fatiha)

				Convey("Replay should play it again", func() {
					snap, err := c.Replay(ctx)
					So(err, ShouldBeNil)
					So(snap.State, ShouldEqual, Playing)
					loaded, _, _, _, _ := res.state()
					So(loaded, ShouldHaveLength, 2)
				})
			})

			Convey("A runtime error should fail the session", func() {
				res.emit(player.Event{Kind: player.EventFailed, Err: errors.New("connection reset")})
				So(eventually(c, func(s Snapshot) bool { return s.State == Failed }), ShouldBeTrue)
				So(errors.Is(c.Snapshot().Err, ErrResourceRuntime), ShouldBeTrue)
				So(c.Snapshot().Message(), ShouldContainSubstring, "connection reset")
			})

			Convey("Stop should return to idle and release the resource", func() {
				So(c.Stop(), ShouldBeNil)
				snap := c.Snapshot()
				So(snap.State, ShouldEqual, Idle)
				So(snap.Track.IsAbsent(), ShouldBeTrue)
				So(snap.Position, ShouldEqual, 0)
				So(snap.Visible, ShouldBeFalse)

				_, _, _, _, unloads := res.state()
				So(unloads, ShouldEqual, 1)

				Convey("And a new play should work afterwards", func() {
					snap, err := c.Play(ctx, baqara, candidates("https://good/002.mp3"))
					So(err, ShouldBeNil)
					So(snap.State, ShouldEqual, Playing)
					So(snap.Track.MustGet(), ShouldResemble, baqara)
				})
			})

			Convey("Hide should keep playing", func() {
				So(c.Hide(), ShouldBeNil)
				So(c.Snapshot().Visible, ShouldBeFalse)
				So(c.Snapshot().State, ShouldEqual, Playing)
			})
		})

		Convey("Playing a track with no healthy mirror", func() {
			snap, err := c.Play(ctx, fatiha, candidates("https://bad/001.mp3", "https://broken/001.mp3"))

			Convey("Should fail with the exhausted summary", func() {
				So(errors.Is(err, cascade.ErrExhausted), ShouldBeTrue)
				So(snap.State, ShouldEqual, Failed)
				So(snap.Resolution, ShouldEqual, ResolutionExhausted)
				So(snap.Attempts, ShouldHaveLength, 2)
				So(snap.Message(), ShouldEqual, "no working source found for this track")

				loaded, _, _, _, _ := res.state()
				So(loaded, ShouldBeEmpty)
			})
		})

		Convey("Playing a track without candidates should fail immediately", func() {
			snap, err := c.Play(ctx, fatiha, nil)
			So(errors.Is(err, cascade.ErrExhausted), ShouldBeTrue)
			So(snap.Attempts, ShouldBeEmpty)
		})

		Convey("A resource that cannot load should fail the play", func() {
			res.mu.Lock()
			res.loadErr = errors.New("set pause: ipc timeout")
			res.mu.Unlock()

			snap, err := c.Play(ctx, fatiha, candidates("https://good/001.mp3"))
			So(errors.Is(err, ErrResourceRuntime), ShouldBeTrue)
			So(snap.State, ShouldEqual, Failed)

			Convey("Should not report the mirror as ready", func() {
				So(snap.Resolution, ShouldNotEqual, ResolutionReady)
				So(snap.Locator, ShouldBeEmpty)
				So(snap.View().Resolution, ShouldEqual, ResolutionIdle)
				So(snap.Attempts, ShouldHaveLength, 1)
			})

			Convey("Should release whatever the failed bind left loaded", func() {
				_, _, _, _, unloads := res.state()
				So(unloads, ShouldEqual, 1)

				So(c.Stop(), ShouldBeNil)
				_, _, _, _, unloads = res.state()
				So(unloads, ShouldEqual, 1)
			})
		})

		Convey("A newer play should supersede one still resolving", func() {
			first := make(chan error, 1)
			go func() {
				_, err := c.Play(ctx, fatiha, candidates("https://slow/001.mp3"))
				first <- err
			}()
			So(eventually(c, func(s Snapshot) bool { return s.State == Resolving }), ShouldBeTrue)

			snap, err := c.Play(ctx, baqara, candidates("https://good/002.mp3"))
			So(err, ShouldBeNil)
			So(snap.Track.MustGet(), ShouldResemble, baqara)
			So(<-first, ShouldEqual, ErrSuperseded)

			loaded, _, _, _, _ := res.state()
			So(loaded, ShouldResemble, []string{"https://good/002.mp3"})
		})

		Convey("Stop should supersede a resolving play", func() {
			first := make(chan error, 1)
			go func() {
				_, err := c.Play(ctx, fatiha, candidates("https://slow/001.mp3"))
				first <- err
			}()
			So(eventually(c, func(s Snapshot) bool { return s.State == Resolving }), ShouldBeTrue)

			So(c.Stop(), ShouldBeNil)
			So(<-first, ShouldEqual, ErrSuperseded)
			So(c.Snapshot().State, ShouldEqual, Idle)
		})

		Convey("A cancelled caller should stop waiting but not the play", func() {
			waitCtx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := c.Play(waitCtx, fatiha, candidates("https://good/001.mp3"))
			So(err, ShouldEqual, context.Canceled)
			So(eventually(c, func(s Snapshot) bool { return s.State == Playing }), ShouldBeTrue)
		})

		Convey("Commands without a bound stream should be no-ops", func() {
			So(c.Pause(), ShouldBeNil)
			So(c.Resume(), ShouldBeNil)
			So(c.Seek(30), ShouldBeNil)
			So(c.Snapshot().State, ShouldEqual, Idle)

			_, _, seeks, _, _ := res.state()
			So(seeks, ShouldBeEmpty)

			_, err := c.Replay(ctx)
			So(err, ShouldEqual, ErrNothingToReplay)
		})

		Convey("Volume should clamp and persist across plays", func() {
			So(c.SetVolume(1.7), ShouldBeNil)
			So(c.Snapshot().Volume, ShouldEqual, 1)

			_, _, _, volume, _ := res.state()
			So(volume, ShouldEqual, -1)

			_, err := c.Play(ctx, fatiha, candidates("https://good/001.mp3"))
			So(err, ShouldBeNil)
			_, _, _, volume, _ = res.state()
			So(volume, ShouldEqual, 1)

			So(c.SetVolume(-0.3), ShouldBeNil)
			_, _, _, volume, _ = res.state()
			So(volume, ShouldEqual, 0)

			So(c.Stop(), ShouldBeNil)
			_, err = c.Play(ctx, baqara, candidates("https://good/002.mp3"))
			So(err, ShouldBeNil)
			So(c.Snapshot().Volume, ShouldEqual, 0)
		})

		Convey("Subscribers should see the latest snapshot", func() {
			updates, cancel := c.Subscribe()
			So((<-updates).State, ShouldEqual, Idle)

			_, err := c.Play(ctx, fatiha, candidates("https://good/001.mp3"))
			So(err, ShouldBeNil)

			var last Snapshot
			timeout := time.After(2 * time.Second)
			for last.State != Playing {
				select {
				case last = <-updates:
				case <-timeout:
					t.Fatal("no playing snapshot delivered")
				}
			}
			So(last.Locator, ShouldEqual, "https://good/001.mp3")

			cancel()
			So(eventually(c, func(Snapshot) bool {
				select {
				case _, ok := <-updates:
					return !ok
				default:
					return false
				}
			}), ShouldBeTrue)
		})
	})

	Convey("Given a closed coordinator", t, func() {
		res := newFakeResource()
		c := New(res, scriptedProber(), Options{})
		So(c.Close(), ShouldBeNil)

		Convey("Commands should report it and the resource should be released", func() {
			_, err := c.Play(context.Background(), fatiha, candidates("https://good/001.mp3"))
			So(err, ShouldEqual, ErrClosed)
			So(c.Stop(), ShouldEqual, ErrClosed)
			So(res.closed, ShouldBeTrue)
		})
	})
}

func TestCoordinatorSupersede(t *testing.T) {
	Convey("Given a coordinator that records every probe", t, func() {
		res := newFakeResource()
		probes := &probeLog{}
		c := New(res, recorded(probes, scriptedProber()), Options{ProbeTimeout: time.Second})
		defer c.Close()
		ctx := context.Background()

		_, err := c.Play(ctx, fatiha, candidates("https://good/001.mp3"))
		So(err, ShouldBeNil)

		replace := func() {
			snap, err := c.Play(ctx, baqara, candidates("https://good/002.mp3"))
			So(err, ShouldBeNil)
			So(snap.State, ShouldEqual, Playing)

			Convey("The old stream should be unloaded before the new one is loaded", func() {
				So(res.history(), ShouldResemble, []string{
					"load https://good/001.mp3",
					"unload",
					"load https://good/002.mp3",
				})
			})

			Convey("Nothing after the replacement should describe the old track", func() {
				updates, cancel := c.Subscribe()
				defer cancel()

				timeout := time.After(100 * time.Millisecond)
				for done := false; !done; {
					select {
					case s := <-updates:
						So(s.Track.MustGet(), ShouldResemble, baqara)
						So(s.Generation, ShouldEqual, snap.Generation)
						So(s.Attempts, ShouldHaveLength, 1)
						So(s.Attempts[0].Locator, ShouldEqual, "https://good/002.mp3")
					case <-timeout:
						done = true
					}
				}
			})
		}

		Convey("Playing another track over a playing one", func() {
			replace()
		})

		Convey("Playing another track over a paused one", func() {
			So(c.Pause(), ShouldBeNil)
			So(c.Snapshot().State, ShouldEqual, Paused)
			replace()
		})
	})

	Convey("Given a play whose first mirror is still being probed", t, func() {
		res := newFakeResource()
		probes := &probeLog{}
		c := New(res, recorded(probes, scriptedProber()), Options{ProbeTimeout: time.Second})
		defer c.Close()
		ctx := context.Background()

		first := make(chan error, 1)
		go func() {
			_, err := c.Play(ctx, fatiha, candidates("https://slow/001.mp3", "https://good/001.mp3"))
			first <- err
		}()
		So(eventually(c, func(Snapshot) bool { return probes.has("probe https://slow/001.mp3") }), ShouldBeTrue)

		Convey("A newer play should stop it before its remaining mirrors are tried", func() {
			snap, err := c.Play(ctx, baqara, candidates("https://good/002.mp3"))
			So(err, ShouldBeNil)
			So(<-first, ShouldEqual, ErrSuperseded)
			So(snap.Attempts, ShouldHaveLength, 1)

			time.Sleep(50 * time.Millisecond)
			So(probes.has("probe https://good/001.mp3"), ShouldBeFalse)
			So(c.Snapshot().Attempts, ShouldHaveLength, 1)

			loaded, _, _, _, _ := res.state()
			So(loaded, ShouldResemble, []string{"https://good/002.mp3"})
		})
	})

	Convey("Given a prober that is slow to honour cancellation", t, func() {
		res := newFakeResource()
		probes := &probeLog{}
		release := make(chan struct{})
		stubborn := cascade.ProberFunc(func(ctx context.Context, locator string) error {
			if locator == "https://stubborn/001.mp3" {
				<-release
				return ctx.Err()
			}
			return scriptedProber().Probe(ctx, locator)
		})
		c := New(res, recorded(probes, stubborn), Options{ProbeTimeout: time.Minute})
		defer c.Close()
		ctx := context.Background()

		go func() {
			_, _ = c.Play(ctx, fatiha, candidates("https://stubborn/001.mp3"))
		}()
		So(eventually(c, func(Snapshot) bool { return probes.has("probe https://stubborn/001.mp3") }), ShouldBeTrue)

		Convey("The next play should not probe until the previous cascade has returned", func() {
			second := make(chan error, 1)
			go func() {
				_, err := c.Play(ctx, baqara, candidates("https://good/002.mp3"))
				second <- err
			}()
			So(eventually(c, func(s Snapshot) bool {
				current, ok := s.Track.Get()
				return ok && current.ID == baqara.ID
			}), ShouldBeTrue)

			time.Sleep(50 * time.Millisecond)
			So(probes.has("probe https://good/002.mp3"), ShouldBeFalse)
			So(c.Snapshot().State, ShouldEqual, Resolving)

			close(release)
			So(<-second, ShouldBeNil)
			So(probes.list(), ShouldResemble, []string{
				"probe https://stubborn/001.mp3",
				"done https://stubborn/001.mp3",
				"probe https://good/002.mp3",
				"done https://good/002.mp3",
			})
		})
	})
}
