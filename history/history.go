// Package history remembers what was played so that it can be continued later.
package history

import (
	"fmt"
	"time"

	"github.com/metafates/gache"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/tilawa-cli/tilawa/filesystem"
	"github.com/tilawa-cli/tilawa/where"
)

// SavedPlay is one recitation as it was last heard.
type SavedPlay struct {
	ProviderID   string    `json:"provider_id"`
	ProviderName string    `json:"provider_name"`
	Surah        int       `json:"surah"`
	Title        string    `json:"title"`
	Locator      string    `json:"locator"`
	Position     float64   `json:"position"`
	Duration     float64   `json:"duration"`
	PlayedAt     time.Time `json:"played_at"`
}

func (s *SavedPlay) key() string {
	return fmt.Sprintf("%s (%d)", s.ProviderID, s.Surah)
}

func (s *SavedPlay) String() string {
	return s.Title
}

// Finished reports whether the recitation was heard to the end.
func (s *SavedPlay) Finished() bool {
	return s.Duration > 0 && s.Position >= s.Duration-1
}

var cacher = gache.New[map[string]*SavedPlay](
	&gache.Options{
		Path:       where.History(),
		FileSystem: &filesystem.GacheFs{},
	},
)

// Get returns every saved play keyed by provider and surah.
func Get() (map[string]*SavedPlay, error) {
	cached, expired, err := cacher.Get()
	if err != nil {
		return nil, err
	}
	if expired || cached == nil {
		return make(map[string]*SavedPlay), nil
	}
	return cached, nil
}

// Save records play, replacing an earlier record of the same surah by the same reciter.
func Save(play *SavedPlay) error {
	saved, err := Get()
	if err != nil {
		return err
	}

	if play.PlayedAt.IsZero() {
		play.PlayedAt = time.Now()
	}
	saved[play.key()] = play

	return cacher.Set(saved)
}

// Last returns the most recently played recitation.
func Last() mo.Option[*SavedPlay] {
	saved, err := Get()
	if err != nil || len(saved) == 0 {
		return mo.None[*SavedPlay]()
	}

	return mo.Some(lo.MaxBy(lo.Values(saved), func(a, b *SavedPlay) bool {
		return a.PlayedAt.After(b.PlayedAt)
	}))
}

// Remove deletes a record.
func Remove(play *SavedPlay) error {
	saved, err := Get()
	if err != nil {
		return err
	}

	delete(saved, play.key())
	return cacher.Set(saved)
}

// Clear forgets everything.
func Clear() error {
	return cacher.Set(make(map[string]*SavedPlay))
}
