// Package track defines what is being played, independently of where it is fetched from.
package track

import (
	"errors"
	"fmt"
)

// Track identifies a recitation. It is immutable once a play intent is issued.
type Track struct {
	// ID of the recitation within its provider, usually the surah number.
	ID string `json:"id" jsonschema:"description=Track identifier within the provider, usually the surah number."`
	// Title shown by observers.
	Title string `json:"title" jsonschema:"description=Human readable title."`
	// Provider is the display label of the reciter or collection.
	Provider string `json:"provider" jsonschema:"description=Display label of the reciter."`
}

func (t Track) String() string {
	if t.Title != "" {
		return t.Title
	}
	return fmt.Sprintf("%s #%s", t.Provider, t.ID)
}

// Template is a locator pattern for one mirror.
//
// Supported placeholders are {id}, {id3} (numeric ids zero-padded to three digits)
// and {family}.
type Template struct {
	Pattern  string `json:"pattern" toml:"pattern"`
	Provider string `json:"provider,omitempty" toml:"provider"`
	// Family groups mirrors that host the same reciter. Empty means "same as the request".
	Family string `json:"family,omitempty" toml:"family"`
}

// Request is a play intent: the track identity plus its ordered candidate templates.
type Request struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Provider  string     `json:"provider"`
	Family    string     `json:"family"`
	Templates []Template `json:"templates"`
}

var (
	ErrEmptyID       = errors.New("track id is empty")
	ErrEmptyProvider = errors.New("provider is empty")
)

// Validate reports whether the request names a provider/track-id pair.
func (r Request) Validate() error {
	if r.ID == "" {
		return ErrEmptyID
	}
	if r.Provider == "" {
		return ErrEmptyProvider
	}
	return nil
}

// Track projects the identity part of the request.
func (r Request) Track() Track {
	return Track{
		ID:       r.ID,
		Title:    r.Title,
		Provider: r.Provider,
	}
}

// Candidate is one concrete locator hypothesized to serve the requested track.
type Candidate struct {
	Locator  string `json:"locator" jsonschema:"description=Fetchable URL of the mirror."`
	Provider string `json:"provider" jsonschema:"description=Label of the mirror host."`
	// Rank is the zero-based preference order; lower is preferred.
	Rank int `json:"rank" jsonschema:"description=Preference order, lower is preferred."`
}

func (c Candidate) String() string {
	return c.Locator
}
