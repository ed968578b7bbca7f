package history

import (
	"context"
	"fmt"
)

// LoadError reports why a snapshot could not be loaded. Load returns it
// alongside an empty store.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load history from %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Load builds a Store from src. It always returns a usable Store: when the
// snapshot fails the Store is empty and the error is a *LoadError, which
// callers should report and otherwise ignore.
func Load(ctx context.Context, src Snapshotter) (*Store, error) {
	entries, err := src.Snapshot(ctx)
	if err != nil {
		return EmptyStore(), &LoadError{Source: describe(src), Err: err}
	}
	return NewStore(cleanEntries(entries)), nil
}

// cleanEntries sanitizes titles and targets. Entries without a target are
// dropped; untitled entries use their target as the title.
func cleanEntries(entries []Entry) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		target := CleanText(e.Target)
		if target == "" {
			continue
		}
		title := CleanText(e.Title)
		if title == "" {
			title = target
		}
		out = append(out, Entry{Title: title, Target: target})
	}
	return out
}

func describe(src Snapshotter) string {
	if s, ok := src.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", src)
}
