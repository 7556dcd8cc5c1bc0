package history

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/tilawa-cli/tilawa/filesystem"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestHistory(t *testing.T) {
	Convey("Given an empty history", t, func() {
		So(Clear(), ShouldBeNil)

		Convey("Last should be absent", func() {
			So(Last().IsAbsent(), ShouldBeTrue)
		})

		Convey("When two plays are saved", func() {
			older := &SavedPlay{
				ProviderID: "alafasy",
				Surah:      18,
				Title:      "Al-Kahf (Mishary Rashid Alafasy)",
				Locator:    "https://server8.mp3quran.net/afs/018.mp3",
				Position:   120,
				PlayedAt:   time.Now().Add(-time.Hour),
			}
			newer := &SavedPlay{
				ProviderID: "husary",
				Surah:      36,
				Title:      "Ya-Sin (Mahmoud Khalil Al-Husary)",
				Position:   30,
			}
			So(Save(older), ShouldBeNil)
			So(Save(newer), ShouldBeNil)

			Convey("Last should be the most recent one", func() {
				last, ok := Last().Get()
				So(ok, ShouldBeTrue)
				So(last.ProviderID, ShouldEqual, "husary")
				So(last.PlayedAt.IsZero(), ShouldBeFalse)
			})

			Convey("Saving the same surah again should replace it", func() {
				again := *older
				again.Position = 400
				again.PlayedAt = time.Now()
				So(Save(&again), ShouldBeNil)

				saved, err := Get()
				So(err, ShouldBeNil)
				So(saved, ShouldHaveLength, 2)
				So(Last().MustGet().Position, ShouldEqual, 400)
			})

			Convey("Remove should delete it", func() {
				So(Remove(newer), ShouldBeNil)
				So(Last().MustGet().ProviderID, ShouldEqual, "alafasy")
			})
		})
	})
}

func TestFinished(t *testing.T) {
	Convey("Finished", t, func() {
		So((&SavedPlay{Position: 299.5, Duration: 300}).Finished(), ShouldBeTrue)
		So((&SavedPlay{Position: 100, Duration: 300}).Finished(), ShouldBeFalse)
		So((&SavedPlay{Position: 100}).Finished(), ShouldBeFalse)
	})
}
