package inline

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/tilawa-cli/tilawa/cascade"
	"github.com/tilawa-cli/tilawa/filesystem"
	"github.com/tilawa-cli/tilawa/provider"
	"github.com/tilawa-cli/tilawa/track"
)

func init() {
	filesystem.SetMemMapFs()
}

var reciter = &provider.Provider{
	ID:     "test",
	Name:   "Test Reciter",
	Family: "test_reciter",
	Templates: []track.Template{
		{Pattern: "https://primary.example/{id3}.mp3", Provider: "primary"},
		{Pattern: "https://backup.example/{family}/{id3}.mp3", Provider: "backup"},
	},
	NoMirrors: true,
}

// primaryDown fails the primary mirror for every surah and the backup for surah 2.
var primaryDown = cascade.ProberFunc(func(_ context.Context, locator string) error {
	switch {
	case strings.HasPrefix(locator, "https://primary.example/"):
		return cascade.ErrFetch
	case strings.HasSuffix(locator, "/002.mp3"):
		return cascade.ErrDecode
	default:
		return nil
	}
})

func TestWriteJsonResponse(t *testing.T) {
	Convey("writeJson", t, func() {
		Convey("Should produce valid JSON for an empty result", func() {
			var buf bytes.Buffer
			err := writeJson(&buf, "Test Reciter", nil)
			So(err, ShouldBeNil)

			var output Output
			err = json.Unmarshal(buf.Bytes(), &output)
			So(err, ShouldBeNil)
			So(output.Provider, ShouldEqual, "Test Reciter")
			So(output.Result, ShouldHaveLength, 0)
			So(buf.String(), ShouldContainSubstring, `"result":[]`)
		})
	})
}

func TestRun(t *testing.T) {
	Convey("Given a reciter whose primary mirror is down", t, func() {
		var buf bytes.Buffer
		options := &Options{
			Out:      &buf,
			Provider: reciter,
			Surahs:   []int{1, 2},
			Prober:   primaryDown,
		}

		Convey("Text mode should print the working locator or the failure", func() {
			So(Run(context.Background(), options), ShouldBeNil)
			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			So(lines, ShouldHaveLength, 2)
			So(lines[0], ShouldEqual, "https://backup.example/test_reciter/001.mp3")
			So(lines[1], ShouldStartWith, "# Al-Baqara (Test Reciter): no working source")
		})

		Convey("JSON mode should report every attempt", func() {
			options.Json = true
			So(Run(context.Background(), options), ShouldBeNil)

			var output struct {
				Result []struct {
					Surah    int    `json:"surah"`
					Locator  string `json:"locator"`
					Error    string `json:"error"`
					Attempts []struct {
						Outcome string `json:"outcome"`
						Reason  string `json:"reason"`
					} `json:"attempts"`
				} `json:"result"`
			}
			So(json.Unmarshal(buf.Bytes(), &output), ShouldBeNil)
			So(output.Result, ShouldHaveLength, 2)

			first := output.Result[0]
			So(first.Locator, ShouldEqual, "https://backup.example/test_reciter/001.mp3")
			So(first.Attempts, ShouldHaveLength, 2)
			So(first.Attempts[0].Outcome, ShouldEqual, "fetch_error")
			So(first.Attempts[0].Reason, ShouldNotBeEmpty)
			So(first.Attempts[1].Outcome, ShouldEqual, "success")

			second := output.Result[1]
			So(second.Locator, ShouldBeEmpty)
			So(second.Error, ShouldEqual, cascade.ErrExhausted.Error())
			So(second.Attempts[1].Outcome, ShouldEqual, "decode_error")
		})

		Convey("Candidates only should skip probing", func() {
			options.CandidatesOnly = true
			options.Prober = nil
			options.Surahs = []int{114}
			So(Run(context.Background(), options), ShouldBeNil)
			So(buf.String(), ShouldEqual, "https://primary.example/114.mp3\nhttps://backup.example/test_reciter/114.mp3\n")
		})

		Convey("A cancelled context should abort the run", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			So(Run(ctx, options), ShouldEqual, context.Canceled)
		})
	})
}

func TestParseSurahs(t *testing.T) {
	Convey("ParseSurahs", t, func() {
		Convey("Should expand keywords", func() {
			So(must(ParseSurahs("first")), ShouldResemble, []int{1})
			So(must(ParseSurahs("last")), ShouldResemble, []int{114})
			So(must(ParseSurahs("all")), ShouldHaveLength, 114)
		})

		Convey("Should expand ranges and lists without duplicates", func() {
			So(must(ParseSurahs("112-114")), ShouldResemble, []int{112, 113, 114})
			So(must(ParseSurahs("1, 18,36,18")), ShouldResemble, []int{1, 18, 36})
		})

		Convey("Should reject invalid selectors", func() {
			for _, bad := range []string{"0", "115", "5-3", "x", "1,,2", "100-200"} {
				_, err := ParseSurahs(bad)
				So(err, ShouldNotBeNil)
			}
		})
	})
}

func must(surahs []int, err error) []int {
	So(err, ShouldBeNil)
	return surahs
}
