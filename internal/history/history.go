// Package history holds the browsing-history records the launcher searches
// and loads them from a browser's history database.
package history

import "iter"

// Entry is one (title, target) pair delivered by a Snapshotter, in
// most-recent-first order.
type Entry struct {
	Title  string
	Target string
}

// Record is an immutable history record. ID is its index in the Store.
type Record struct {
	ID     uint32
	Title  string
	Target string
}

// Store is an ordered, read-only collection of records. Indices are stable
// for the lifetime of the Store and follow load order; the Store never
// re-sorts. It is safe for concurrent use.
type Store struct {
	records []Record
}

// NewStore builds a Store from entries, assigning IDs in order.
func NewStore(entries []Entry) *Store {
	records := make([]Record, len(entries))
	for i, e := range entries {
		records[i] = Record{
			ID:     uint32(i), //nolint:gosec // G115: record counts fit in uint32
			Title:  e.Title,
			Target: e.Target,
		}
	}
	return &Store{records: records}
}

// EmptyStore returns a Store with no records.
func EmptyStore() *Store {
	return &Store{}
}

// Len returns the number of records.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.records)
}

// At returns the record at index i.
func (s *Store) At(i int) (Record, bool) {
	if s == nil || i < 0 || i >= len(s.records) {
		return Record{}, false
	}
	return s.records[i], true
}

// All iterates records in store order.
func (s *Store) All() iter.Seq2[int, Record] {
	return func(yield func(int, Record) bool) {
		if s == nil {
			return
		}
		for i, r := range s.records {
			if !yield(i, r) {
				return
			}
		}
	}
}
