// Package filter narrows registry records by free text and categorical facets.
package filter

import (
	"net/url"
	"strings"
)

// All is the facet value that disables a facet.
const All = "all"

// Record is anything the registries can filter.
type Record interface {
	// SearchFields returns the fields free-text search looks at.
	SearchFields() []string
	// Facet returns the record's value for a named facet, or "".
	Facet(name string) string
}

// Query holds the active criteria. The zero Query matches everything.
type Query struct {
	Search string            `json:"search,omitempty"`
	Facets map[string]string `json:"facets,omitempty"`
}

// NewQuery builds a Query from a search term and facet name/value pairs.
func NewQuery(search string, facets ...string) Query {
	q := Query{Search: search}
	for i := 0; i+1 < len(facets); i += 2 {
		q = q.With(facets[i], facets[i+1])
	}
	return q
}

// ParseQuery reads the search term and the named facets from URL query
// parameters. Facets absent from values are left unset.
func ParseQuery(values url.Values, facets ...string) Query {
	q := Query{Search: values.Get("search")}
	for _, name := range facets {
		if v := values.Get(name); v != "" {
			q = q.With(name, v)
		}
	}
	return q
}

// With returns a copy of q with facet name set to value.
func (q Query) With(name, value string) Query {
	out := Query{Search: q.Search, Facets: make(map[string]string, len(q.Facets)+1)}
	for k, v := range q.Facets {
		out.Facets[k] = v
	}
	out.Facets[name] = value
	return out
}

// Active reports whether any criterion would exclude a record.
func (q Query) Active() bool {
	if strings.TrimSpace(q.Search) != "" {
		return true
	}
	for _, v := range q.Facets {
		if isActive(v) {
			return true
		}
	}
	return false
}

// Facet returns the value selected for name, or All.
func (q Query) Facet(name string) string {
	if v := q.Facets[name]; isActive(v) {
		return v
	}
	return All
}

func isActive(v string) bool {
	return v != "" && v != All
}

// Match reports whether r satisfies every active criterion of q.
func Match[T Record](r T, q Query) bool {
	if term := strings.ToLower(strings.TrimSpace(q.Search)); term != "" {
		found := false
		for _, field := range r.SearchFields() {
			if strings.Contains(strings.ToLower(field), term) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	for name, want := range q.Facets {
		if isActive(want) && r.Facet(name) != want {
			return false
		}
	}
	return true
}

// Apply returns the records matching q in their original order. With no
// active criteria the input slice is returned as is.
func Apply[T Record](records []T, q Query) []T {
	if !q.Active() {
		return records
	}
	out := make([]T, 0, len(records))
	for _, r := range records {
		if Match(r, q) {
			out = append(out, r)
		}
	}
	return out
}

// CountBy tallies records by their value for facet.
func CountBy[T Record](records []T, facet string) map[string]int {
	counts := make(map[string]int)
	for _, r := range records {
		counts[r.Facet(facet)]++
	}
	return counts
}

// CountWhere counts records satisfying pred.
func CountWhere[T any](records []T, pred func(T) bool) int {
	n := 0
	for _, r := range records {
		if pred(r) {
			n++
		}
	}
	return n
}
