package sqlitechain

import (
	"encoding/json"
	"fmt"
)

// Writer appends per-event collections of one branch to a chain file.
// Entries are numbered from 0 in write order.
type Writer[T any] struct {
	f      *File
	branch string
	next   int
}

// NewWriter registers branch in f, or continues an existing branch after its
// last entry. f must be writable (Create or OpenAppend). itemType is recorded for inspection only.
func NewWriter[T any](f *File, branch, itemType string) (*Writer[T], error) {
	if branch == "" {
		return nil, fmt.Errorf("branch name must not be empty")
	}
	if f.readOnly {
		return nil, fmt.Errorf("%w: %s", ErrReadOnly, f.path)
	}
	_, err := f.db.Exec(`INSERT INTO branches (branch, item_type) VALUES (?, ?)
		ON CONFLICT(branch) DO NOTHING`, branch, itemType)
	if err != nil {
		return nil, fmt.Errorf("failed to register branch %q: %w", branch, err)
	}

	n, err := f.Entries(branch)
	if err != nil {
		return nil, err
	}
	return &Writer[T]{f: f, branch: branch, next: n}, nil
}

// Write stores items as the next entry and returns its number. A nil or
// empty collection is a valid, empty event.
func (w *Writer[T]) Write(items []T) (int, error) {
	if items == nil {
		items = []T{}
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return 0, fmt.Errorf("failed to encode entry %d of %q: %w", w.next, w.branch, err)
	}

	_, err = w.f.db.Exec(`INSERT INTO entries (branch, entry, nitems, payload) VALUES (?, ?, ?, ?)`,
		w.branch, w.next, len(items), string(payload))
	if err != nil {
		return 0, fmt.Errorf("failed to write entry %d of %q: %w", w.next, w.branch, err)
	}

	entry := w.next
	w.next++
	return entry, nil
}

// Entries returns the number of entries in the branch, including those
// written before this Writer was created.
func (w *Writer[T]) Entries() int { return w.next }
