package archive

import (
	"github.com/sahilm/fuzzy"
)

// Match is an entry that matched a fuzzy query.
type Match struct {
	Entry
	// MatchedIndexes holds the byte offsets in RelPath that matched.
	MatchedIndexes []int
	Score          int
}

type entrySource []Entry

func (s entrySource) String(i int) string { return s[i].RelPath }
func (s entrySource) Len() int            { return len(s) }

// FilterMatches fuzzy matches query against the relative paths of entries and
// returns the matches best first. An empty query matches every entry in its
// original order.
func FilterMatches(entries []Entry, query string) []Match {
	if query == "" {
		out := make([]Match, len(entries))
		for i, e := range entries {
			out[i] = Match{Entry: e}
		}
		return out
	}
	found := fuzzy.FindFrom(query, entrySource(entries))
	out := make([]Match, len(found))
	for i, m := range found {
		out[i] = Match{
			Entry:          entries[m.Index],
			MatchedIndexes: m.MatchedIndexes,
			Score:          m.Score,
		}
	}
	return out
}

// Filter is [FilterMatches] without match details.
func Filter(entries []Entry, query string) []Entry {
	matches := FilterMatches(entries, query)
	out := make([]Entry, len(matches))
	for i, m := range matches {
		out[i] = m.Entry
	}
	return out
}
