// Package rank orders history records by fuzzy relevance to a query.
package rank

import (
	"container/heap"
	"iter"

	"github.com/runger/histlaunch/internal/fuzzy"
	"github.com/runger/histlaunch/internal/history"
)

// DefaultLimit is the number of results returned when no limit is given.
const DefaultLimit = 8

// Hit is one ranked record.
type Hit struct {
	Index  int // position in the store
	Record history.Record
	Score  fuzzy.Result
}

// View is the ranked, truncated result of one query. A hit's position in the
// view is its result id, which is distinct from its store index.
type View struct {
	query string
	hits  []Hit
}

// Query returns the match text the view was ranked for.
func (v *View) Query() string {
	if v == nil {
		return ""
	}
	return v.query
}

// Len returns the number of hits.
func (v *View) Len() int {
	if v == nil {
		return 0
	}
	return len(v.hits)
}

// Hit returns the hit with the given result id.
func (v *View) Hit(id uint32) (Hit, bool) {
	if v == nil || uint64(id) >= uint64(len(v.hits)) {
		return Hit{}, false
	}
	return v.hits[id], true
}

// All iterates hits in rank order, keyed by result id.
func (v *View) All() iter.Seq2[uint32, Hit] {
	return func(yield func(uint32, Hit) bool) {
		if v == nil {
			return
		}
		for i, h := range v.hits {
			if !yield(uint32(i), h) { //nolint:gosec // G115: views are bounded by the result limit
				return
			}
		}
	}
}

// Engine ranks a store against queries.
type Engine struct {
	// IncludeUnmatched appends records that do not match, in store order,
	// after all matched records when there is room left in the view.
	IncludeUnmatched bool
}

// NewEngine creates an Engine.
func NewEngine(includeUnmatched bool) *Engine {
	return &Engine{IncludeUnmatched: includeUnmatched}
}

// Rank scores every record title against query and returns the best limit
// hits, highest score first. Equal scores keep store order. A limit <= 0
// uses DefaultLimit.
func (e *Engine) Rank(store *history.Store, query string, limit int) *View {
	limit = normalizeLimit(limit)
	pattern := fuzzy.Compile(query)

	// The view never holds more than the store, whatever the limit.
	capacity := min(limit, store.Len())
	top := make(hitHeap, 0, capacity)
	var unmatched []int

	for i, rec := range store.All() {
		res := pattern.Score(rec.Title)
		if !res.Matched {
			if e.IncludeUnmatched && len(unmatched) < capacity {
				unmatched = append(unmatched, i)
			}
			continue
		}

		h := Hit{Index: i, Record: rec, Score: res}
		if len(top) < limit {
			heap.Push(&top, h)
			continue
		}
		if better(h, top[0]) {
			top[0] = h
			heap.Fix(&top, 0)
		}
	}

	hits := make([]Hit, len(top))
	for i := len(hits) - 1; i >= 0; i-- {
		hits[i] = heap.Pop(&top).(Hit) //nolint:forcetypeassert // hitHeap only holds Hit
	}

	for _, i := range unmatched {
		if len(hits) >= limit {
			break
		}
		rec, _ := store.At(i)
		hits = append(hits, Hit{Index: i, Record: rec, Score: fuzzy.NoMatch})
	}

	return &View{query: query, hits: hits}
}

// normalizeLimit returns a valid limit, defaulting to DefaultLimit.
func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}

// better reports whether a ranks above b: higher score first, then lower
// store index.
func better(a, b Hit) bool {
	if a.Score.Score != b.Score.Score {
		return a.Score.Score > b.Score.Score
	}
	return a.Index < b.Index
}

// hitHeap is a min-heap with the worst-ranked hit at the root.
type hitHeap []Hit

func (h hitHeap) Len() int           { return len(h) }
func (h hitHeap) Less(i, j int) bool { return better(h[j], h[i]) }
func (h hitHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *hitHeap) Push(x any) {
	*h = append(*h, x.(Hit)) //nolint:forcetypeassert // only Hit is pushed
}

func (h *hitHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
