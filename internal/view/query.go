package view

import (
	"cmp"
	"slices"
	"strings"
	"time"
)

// Compare orders two records for a sort field.
type Compare[T any] func(a, b T) int

func ByString[T any](key func(T) string) Compare[T] {
	return func(a, b T) int {
		return strings.Compare(strings.ToLower(key(a)), strings.ToLower(key(b)))
	}
}

func ByNumber[T any](key func(T) float64) Compare[T] {
	return func(a, b T) int { return cmp.Compare(key(a), key(b)) }
}

func ByTime[T any](key func(T) time.Time) Compare[T] {
	return func(a, b T) int { return key(a).Compare(key(b)) }
}

// Query is the search, facet and sort state of a view.
type Query struct {
	Search   string
	Facets   map[string]string
	SortBy   string
	SortDesc bool
}

func (q Query) clone() Query {
	facets := make(map[string]string, len(q.Facets))
	for k, v := range q.Facets {
		facets[k] = v
	}
	q.Facets = facets
	return q
}

// apply filters recs by search and facets, then stable-sorts them.
func apply[T any](recs []T, q Query, search []func(T) string, facets map[string]func(T) string, sorts map[string]Compare[T]) []T {
	term := strings.ToLower(strings.TrimSpace(q.Search))

	out := make([]T, 0, len(recs))
	for _, r := range recs {
		if term != "" && !matchesSearch(r, term, search) {
			continue
		}
		if !matchesFacets(r, q.Facets, facets) {
			continue
		}
		out = append(out, r)
	}

	if c, ok := sorts[q.SortBy]; ok {
		if q.SortDesc {
			slices.SortStableFunc(out, func(a, b T) int { return c(b, a) })
		} else {
			slices.SortStableFunc(out, c)
		}
	}
	return out
}

func matchesSearch[T any](r T, term string, fields []func(T) string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f(r)), term) {
			return true
		}
	}
	return false
}

func matchesFacets[T any](r T, active map[string]string, facets map[string]func(T) string) bool {
	for name, want := range active {
		get, ok := facets[name]
		if !ok {
			continue
		}
		if get(r) != want {
			return false
		}
	}
	return true
}
