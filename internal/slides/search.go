package slides

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

// Match is a slide found by Search
type Match struct {
	Index int
	Score int
}

// Search fuzzy-matches query against each slide's id, title and subtitle and
// returns matches best first. An empty query matches nothing.
func (r *Registry) Search(query string) []Match {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}

	haystack := make([]string, len(r.slides))
	for i, s := range r.slides {
		haystack[i] = strings.ToLower(s.ID + " " + s.Title + " " + s.Subtitle)
	}

	found := fuzzy.Find(query, haystack)
	out := make([]Match, len(found))
	for i, m := range found {
		out[i] = Match{Index: m.Index, Score: m.Score}
	}
	return out
}
