// Package candidate turns a play request into the ordered list of mirrors to probe.
//
// Building is pure: the same request always yields the same candidates in the same
// order, and nothing here touches the network.
package candidate

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/tilawa-cli/tilawa/track"
)

// Options adjusts how templates are filtered.
type Options struct {
	// AllowCrossFamily keeps templates whose family differs from the request's.
	// Off by default: a fallback mirror for another reciter would play the wrong voice.
	AllowCrossFamily bool
}

var (
	leftover    = regexp.MustCompile(`(?i)\{[a-z0-9_]+\}`)
	slashes     = regexp.MustCompile(`/{2,}`)
	defaultPort = map[string]string{"http": "80", "https": "443"}
)

// Build expands req with the default options.
func Build(req track.Request) []track.Candidate {
	return BuildWith(req, Options{})
}

// BuildWith expands every template of req in order, drops the unusable ones and
// collapses locators that normalize to the same URL, keeping the first occurrence.
// An invalid request yields no candidates.
func BuildWith(req track.Request, opts Options) []track.Candidate {
	if req.Validate() != nil {
		return nil
	}

	expanded := lo.FilterMap(req.Templates, func(tpl track.Template, _ int) (track.Candidate, bool) {
		if !opts.AllowCrossFamily && !sameFamily(req, tpl) {
			return track.Candidate{}, false
		}

		locator, ok := expand(tpl.Pattern, req)
		if !ok {
			return track.Candidate{}, false
		}

		return track.Candidate{
			Locator:  locator,
			Provider: lo.Ternary(tpl.Provider != "", tpl.Provider, req.Provider),
		}, true
	})

	unique := lo.UniqBy(expanded, func(c track.Candidate) string {
		return c.Locator
	})

	return lo.Map(unique, func(c track.Candidate, i int) track.Candidate {
		c.Rank = i
		return c
	})
}

func sameFamily(req track.Request, tpl track.Template) bool {
	return tpl.Family == "" || req.Family == "" || strings.EqualFold(tpl.Family, req.Family)
}

// expand substitutes placeholders and returns the normalized locator.
// Templates with unknown placeholders or without a usable scheme and host are rejected.
func expand(pattern string, req track.Request) (string, bool) {
	replacer := strings.NewReplacer(
		"{id}", url.PathEscape(req.ID),
		"{id3}", url.PathEscape(pad3(req.ID)),
		"{family}", url.PathEscape(req.Family),
	)

	raw := strings.TrimSpace(replacer.Replace(pattern))
	if raw == "" || leftover.MatchString(raw) {
		return "", false
	}
	if req.Family == "" && strings.Contains(pattern, "{family}") {
		return "", false
	}

	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return "", false
	}
	if u.Host == "" && u.Scheme != "file" {
		return "", false
	}

	return Normalize(raw), true
}

func pad3(id string) string {
	n, err := strconv.Atoi(id)
	if err != nil || n < 0 {
		return id
	}
	return fmt.Sprintf("%03d", n)
}

// Normalize canonicalizes a locator so equivalent spellings compare equal.
// Unparseable input is returned trimmed.
func Normalize(locator string) string {
	locator = strings.TrimSpace(locator)
	u, err := url.Parse(locator)
	if err != nil {
		return locator
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if port, ok := defaultPort[u.Scheme]; ok && u.Port() == port {
		u.Host = strings.TrimSuffix(u.Host, ":"+port)
	}

	u.Path = slashes.ReplaceAllString(u.Path, "/")
	if u.RawPath != "" {
		u.RawPath = slashes.ReplaceAllString(u.RawPath, "/")
	}
	u.ForceQuery = false
	u.Fragment = ""
	u.RawFragment = ""

	return u.String()
}
