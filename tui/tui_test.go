package tui

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/samber/mo"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
	"github.com/tilawa-cli/tilawa/cascade"
	"github.com/tilawa-cli/tilawa/key"
	"github.com/tilawa-cli/tilawa/playback"
	"github.com/tilawa-cli/tilawa/track"
)

type fakeController struct {
	snapshot playback.Snapshot
	calls    []string
	volume   float64
	seek     float64
}

func (f *fakeController) TogglePause() error {
	f.calls = append(f.calls, "toggle")
	return nil
}

func (f *fakeController) SeekBy(delta float64) error {
	f.calls = append(f.calls, "seek")
	f.seek = delta
	return nil
}

func (f *fakeController) SetVolume(volume float64) error {
	f.calls = append(f.calls, "volume")
	f.volume = volume
	return nil
}

func (f *fakeController) Stop() error {
	f.calls = append(f.calls, "stop")
	return nil
}

func (f *fakeController) Hide() error {
	f.calls = append(f.calls, "hide")
	return nil
}

func (f *fakeController) Replay(context.Context) (playback.Snapshot, error) {
	f.calls = append(f.calls, "replay")
	return f.snapshot, nil
}

func (f *fakeController) Snapshot() playback.Snapshot {
	return f.snapshot
}

func (f *fakeController) Subscribe() (<-chan playback.Snapshot, func()) {
	ch := make(chan playback.Snapshot)
	return ch, func() {}
}

var playing = playback.Snapshot{
	State:      playback.Playing,
	Track:      mo.Some(track.Track{ID: "36", Title: "Ya-Sin (Husary)", Provider: "Mahmoud Khalil Al-Husary"}),
	Locator:    "https://server13.mp3quran.net/husr/036.mp3",
	Source:     "mp3quran.net",
	Position:   65,
	Duration:   600,
	Volume:     0.5,
	Visible:    true,
	Resolution: playback.ResolutionReady,
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel(t *testing.T) {
	viper.Set(key.IconsVariant, "plain")

	Convey("Given the player screen over a playing session", t, func() {
		controller := &fakeController{snapshot: playing}
		m := newModel(controller, nil, &Options{SeekStep: 15})

		Convey("Space should toggle pause", func() {
			m.Update(tea.KeyMsg{Type: tea.KeySpace})
			So(controller.calls, ShouldResemble, []string{"toggle"})
		})

		Convey("Arrows should seek by the configured step", func() {
			m.Update(tea.KeyMsg{Type: tea.KeyRight})
			So(controller.seek, ShouldEqual, 15)
			m.Update(tea.KeyMsg{Type: tea.KeyLeft})
			So(controller.seek, ShouldEqual, -15)
		})

		Convey("Volume keys should step from the current level", func() {
			m.Update(runes("+"))
			So(controller.volume, ShouldAlmostEqual, 0.55)
			m.Update(runes("-"))
			So(controller.volume, ShouldAlmostEqual, 0.45)
		})

		Convey("s should stop and x should hide", func() {
			m.Update(runes("s"))
			m.Update(runes("x"))
			So(controller.calls, ShouldResemble, []string{"stop", "hide"})
		})

		Convey("q should quit without stopping", func() {
			_, cmd := m.Update(runes("q"))
			So(cmd, ShouldNotBeNil)
			So(cmd(), ShouldResemble, tea.Quit())
			So(controller.calls, ShouldBeEmpty)
		})

		Convey("Replay should only be offered once the track is over", func() {
			_, cmd := m.Update(runes("r"))
			So(cmd, ShouldBeNil)

			m.Update(snapshotMsg(playback.Snapshot{State: playback.Stopped, Track: playing.Track, Visible: true}))
			_, cmd = m.Update(runes("r"))
			So(cmd, ShouldNotBeNil)
			cmd()
			So(controller.calls, ShouldResemble, []string{"replay"})
		})

		Convey("The compact view should be a single status line", func() {
			view := m.View()
			So(view, ShouldContainSubstring, "Ya-Sin (Husary)")
			So(view, ShouldContainSubstring, "1:05 / 10:00")
			So(view, ShouldContainSubstring, "50%")
		})

		Convey("The expanded view should show the mirror", func() {
			m.Update(runes("e"))
			view := m.View()
			So(view, ShouldContainSubstring, "PLAYING")
			So(view, ShouldContainSubstring, "mp3quran.net")
			So(view, ShouldContainSubstring, "Mahmoud Khalil Al-Husary")
		})

		Convey("A hidden session should collapse to its status", func() {
			hidden := playing
			hidden.Visible = false
			m.Update(snapshotMsg(hidden))
			view := m.View()
			So(view, ShouldContainSubstring, "Ya-Sin (Husary)")
			So(strings.Count(view, "\n"), ShouldEqual, 0)
		})

		Convey("A failed session should explain why", func() {
			m.Update(snapshotMsg(playback.Snapshot{
				State:      playback.Failed,
				Track:      playing.Track,
				Visible:    true,
				Resolution: playback.ResolutionExhausted,
				Err:        &cascade.ExhaustedError{},
			}))
			So(m.View(), ShouldContainSubstring, "no working source found for this track")
		})
	})
}

func TestFollow(t *testing.T) {
	viper.Set(key.IconsVariant, "plain")

	Convey("Given a stream of snapshots", t, func() {
		updates := make(chan playback.Snapshot, 8)
		fatiha := mo.Some(track.Track{ID: "1", Title: "Al-Fatiha"})

		updates <- playback.Snapshot{State: playback.Idle}
		updates <- playback.Snapshot{State: playback.Resolving, Track: fatiha}
		updates <- playback.Snapshot{State: playback.Playing, Track: fatiha, Source: "mp3quran.net"}
		updates <- playback.Snapshot{State: playback.Playing, Track: fatiha, Source: "mp3quran.net", Position: 3}
		updates <- playback.Snapshot{State: playback.Stopped, Track: fatiha}

		var out bytes.Buffer
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		last := Follow(ctx, &out, updates)

		Convey("It should print one line per state and return at the end", func() {
			So(last.State, ShouldEqual, playback.Stopped)
			lines := strings.Split(strings.TrimSpace(out.String()), "\n")
			So(lines, ShouldHaveLength, 3)
			So(lines[0], ShouldContainSubstring, "Resolving Al-Fatiha")
			So(lines[1], ShouldContainSubstring, "Playing Al-Fatiha from mp3quran.net")
			So(lines[2], ShouldContainSubstring, "Finished Al-Fatiha")
		})
	})
}
