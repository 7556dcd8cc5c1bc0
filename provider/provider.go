// Package provider manages built-in and custom reciters and turns a reciter and surah
// into a play request.
package provider

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/tilawa-cli/tilawa/track"
)

// Provider is a reciter together with the mirrors known to host their recordings.
type Provider struct {
	// ID is the short handle used on the command line.
	ID   string `toml:"id" json:"id"`
	Name string `toml:"name" json:"name"`
	// Family is the reciter's directory slug, substituted for {family} in shared mirrors.
	Family    string           `toml:"family" json:"family"`
	Templates []track.Template `toml:"templates" json:"templates"`
	// NoMirrors excludes the shared mirrors, for reciters they do not carry.
	NoMirrors bool `toml:"no_mirrors" json:"no_mirrors,omitempty"`
	IsCustom  bool `toml:"-" json:"custom"`
}

func (p *Provider) String() string {
	return p.Name
}

// Request builds the play intent for surah. Own templates come first, shared mirrors last.
func (p *Provider) Request(surah int) (track.Request, error) {
	name, ok := SurahName(surah)
	if !ok {
		return track.Request{}, fmt.Errorf("surah must be between 1 and %d, got %d", SurahCount, surah)
	}

	templates := lo.Map(p.Templates, func(t track.Template, _ int) track.Template {
		if t.Family == "" {
			t.Family = p.Family
		}
		return t
	})
	if !p.NoMirrors {
		templates = append(templates, Mirrors...)
	}

	return track.Request{
		ID:        fmt.Sprint(surah),
		Title:     fmt.Sprintf("%s (%s)", name, p.Name),
		Provider:  p.Name,
		Family:    p.Family,
		Templates: templates,
	}, nil
}

// All returns built-in providers followed by custom ones. A custom provider with the
// id of a built-in replaces it.
func All() []*Provider {
	customs, err := Customs()
	if err != nil {
		customs = nil
	}

	overridden := lo.SliceToMap(customs, func(p *Provider) (string, bool) {
		return p.ID, true
	})

	builtins := lo.Reject(Builtins(), func(p *Provider, _ int) bool {
		return overridden[p.ID]
	})
	return append(builtins, customs...)
}

// Get finds a provider by id.
func Get(id string) (*Provider, bool) {
	return lo.Find(All(), func(p *Provider) bool {
		return p.ID == id
	})
}
