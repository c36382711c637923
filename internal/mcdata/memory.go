package mcdata

import (
	"errors"
	"fmt"
	"slices"
)

var errChainClosed = errors.New("mcdata: chain is closed")

// MemoryChain is a Chain over collections held in memory. It counts decodes,
// which makes it the reference backend for cache behaviour.
type MemoryChain[T any] struct {
	events  [][]T
	friends []Chain[T]
	decodes int
	closed  bool
}

// NewMemoryChain returns a chain with one entry per element of events.
func NewMemoryChain[T any](events ...[]T) *MemoryChain[T] {
	return &MemoryChain[T]{events: events}
}

func (m *MemoryChain[T]) Entries() int { return len(m.events) }

// Decode returns a copy of entry, so the caller owns the result.
func (m *MemoryChain[T]) Decode(entry int) ([]T, error) {
	if m.closed {
		return nil, errChainClosed
	}
	if entry < 0 || entry >= len(m.events) {
		return nil, fmt.Errorf("mcdata: entry %d out of range [0, %d)", entry, len(m.events))
	}
	m.decodes++
	return slices.Clone(m.events[entry]), nil
}

func (m *MemoryChain[T]) AddFriend(friend Chain[T]) error {
	if friend == nil {
		return errors.New("mcdata: nil friend chain")
	}
	if f, ok := friend.(*MemoryChain[T]); ok && f == m {
		return errors.New("mcdata: chain cannot befriend itself")
	}
	m.friends = append(m.friends, friend)
	return nil
}

func (m *MemoryChain[T]) FriendEntries(entry int) ([][]T, error) {
	out := make([][]T, len(m.friends))
	for i, f := range m.friends {
		if entry < 0 || entry >= f.Entries() {
			continue
		}
		items, err := f.Decode(entry)
		if err != nil {
			return nil, fmt.Errorf("mcdata: friend %d: %w", i, err)
		}
		out[i] = items
	}
	return out, nil
}

func (m *MemoryChain[T]) Close() error {
	if m.closed {
		return errChainClosed
	}
	m.closed = true
	return nil
}

// Decodes returns how many entries have been decoded.
func (m *MemoryChain[T]) Decodes() int { return m.decodes }

// Friends returns the chains joined with AddFriend.
func (m *MemoryChain[T]) Friends() []Chain[T] { return m.friends }

// Closed reports whether Close was called.
func (m *MemoryChain[T]) Closed() bool { return m.closed }

// MemoryOpener serves in-memory files: each file name maps to its entries.
// Opened chains are kept so callers can inspect them.
type MemoryOpener[T any] struct {
	Files  map[string][][]T
	Opened []*MemoryChain[T]
}

func (o *MemoryOpener[T]) Open(branch string, files []string) (Chain[T], error) {
	var events [][]T
	for _, f := range files {
		entries, ok := o.Files[f]
		if !ok {
			return nil, fmt.Errorf("mcdata: no file %q for branch %q", f, branch)
		}
		events = append(events, entries...)
	}
	ch := NewMemoryChain(events...)
	o.Opened = append(o.Opened, ch)
	return ch, nil
}

// MemoryIOManager is an IOManager over a fixed set of branches.
type MemoryIOManager[T any] map[string]Slice[T]

func (m MemoryIOManager[T]) Object(branch string) (Collection[T], bool) {
	s, ok := m[branch]
	if !ok {
		return nil, false
	}
	return s, true
}
