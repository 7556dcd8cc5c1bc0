package inline

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/tilawa-cli/tilawa/candidate"
	"github.com/tilawa-cli/tilawa/cascade"
	"github.com/tilawa-cli/tilawa/provider"
)

// Options configures a resolve run.
type Options struct {
	Out      io.Writer
	Provider *provider.Provider
	Surahs   []int
	Json     bool
	// CandidatesOnly skips probing and reports the expanded candidate list.
	CandidatesOnly bool
	Prober         cascade.Prober
	Timeout        time.Duration
	Candidates     candidate.Options
}

// ParseSurahs parses a surah selector:
//
//	all      every surah
//	first    Al-Fatiha
//	last     An-Nas
//	7        a single surah
//	78-114   an inclusive range
//	1,18,36  a list of any of the above
func ParseSurahs(description string) ([]int, error) {
	var selected []int
	for _, part := range strings.Split(description, ",") {
		surahs, err := parseSurahPart(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		selected = append(selected, surahs...)
	}
	return lo.Uniq(selected), nil
}

func parseSurahPart(part string) ([]int, error) {
	switch part {
	case "all":
		return lo.RangeFrom(1, provider.SurahCount), nil
	case "first":
		return []int{1}, nil
	case "last":
		return []int{provider.SurahCount}, nil
	case "":
		return nil, fmt.Errorf("empty surah selector")
	}

	if from, to, ok := strings.Cut(part, "-"); ok {
		start, err1 := strconv.Atoi(from)
		end, err2 := strconv.Atoi(to)
		if err1 != nil || err2 != nil || start > end {
			return nil, fmt.Errorf("invalid surah range: %s", part)
		}
		if err := checkSurah(start); err != nil {
			return nil, err
		}
		if err := checkSurah(end); err != nil {
			return nil, err
		}
		return lo.RangeFrom(start, end-start+1), nil
	}

	n, err := strconv.Atoi(part)
	if err != nil {
		return nil, fmt.Errorf("invalid surah selector: %s", part)
	}
	if err := checkSurah(n); err != nil {
		return nil, err
	}
	return []int{n}, nil
}

func checkSurah(n int) error {
	if n < 1 || n > provider.SurahCount {
		return fmt.Errorf("surah must be between 1 and %d, got %d", provider.SurahCount, n)
	}
	return nil
}
