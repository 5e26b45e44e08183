package catalogview

import (
	"sort"
	"sync"

	"cinelog/internal/catalog"
)

// Source provides consistent catalog snapshots.
type Source interface {
	Snapshot() ([]catalog.Entry, uint64)
	Revision() uint64
}

// Engine serves projections of a catalog, caching each query's result until
// the catalog revision changes.
type Engine struct {
	source Source

	mu       sync.Mutex
	loaded   bool
	revision uint64
	entries  []catalog.Entry
	results  map[Query][]catalog.Entry
}

// NewEngine constructs an Engine over source.
func NewEngine(source Source) *Engine {
	return &Engine{source: source, results: make(map[Query][]catalog.Entry)}
}

// Project returns the entries matching q in q's order.
func (e *Engine) Project(q Query) []catalog.Entry {
	q = q.normalized()

	e.mu.Lock()
	defer e.mu.Unlock()
	e.refresh()

	result, ok := e.results[q]
	if !ok {
		result = Project(e.entries, q)
		e.results[q] = result
	}
	out := make([]catalog.Entry, len(result))
	for i, entry := range result {
		out[i] = entry.Clone()
	}
	return out
}

// Genres returns AllGenres followed by the sorted distinct genres present in
// the catalog.
func (e *Engine) Genres() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.refresh()

	seen := make(map[string]struct{})
	for _, entry := range e.entries {
		for _, genre := range entry.Genres {
			seen[genre] = struct{}{}
		}
	}
	genres := make([]string, 0, len(seen))
	for genre := range seen {
		genres = append(genres, genre)
	}
	sort.Strings(genres)
	return append([]string{AllGenres}, genres...)
}

// CachedQueries reports how many projections are cached for the current
// revision.
func (e *Engine) CachedQueries() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.results)
}

// refresh reloads the snapshot when the catalog has changed. Callers hold e.mu.
func (e *Engine) refresh() {
	if e.loaded && e.source.Revision() == e.revision {
		return
	}
	e.entries, e.revision = e.source.Snapshot()
	e.loaded = true
	clear(e.results)
}
