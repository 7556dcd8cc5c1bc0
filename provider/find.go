package provider

import (
	"strings"

	levenshtein "github.com/ka-weihe/fast-levenshtein"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/samber/lo"
	"golang.org/x/exp/slices"
)

// Find returns the providers matching query, closest first. An exact id match is
// returned alone.
func Find(query string) []*Provider {
	query = strings.ToLower(strings.TrimSpace(query))
	all := All()

	if exact, ok := lo.Find(all, func(p *Provider) bool { return p.ID == query }); ok {
		return []*Provider{exact}
	}

	matches := lo.Filter(all, func(p *Provider, _ int) bool {
		return fuzzy.MatchFold(query, p.ID) || fuzzy.MatchFold(query, p.Name)
	})

	slices.SortStableFunc(matches, func(a, b *Provider) int {
		return distance(query, a) - distance(query, b)
	})
	return matches
}

// Closest returns the provider whose id or name is nearest to query, for
// "did you mean" hints.
func Closest(query string) (*Provider, bool) {
	all := All()
	if len(all) == 0 {
		return nil, false
	}

	query = strings.ToLower(query)
	return lo.MinBy(all, func(a, b *Provider) bool {
		return distance(query, a) < distance(query, b)
	}), true
}

func distance(query string, p *Provider) int {
	return min(
		levenshtein.Distance(query, p.ID),
		levenshtein.Distance(query, strings.ToLower(p.Name)),
	)
}
