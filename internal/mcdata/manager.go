package mcdata

import (
	"errors"
	"fmt"

	"github.com/cbm-experiment/cbmcore/internal/monitoring"
)

type branchCache interface {
	Branch() string
	FinishEvent()
	Done() error
}

// Manager owns the caches of all MC branches of a job and drives their
// per-event lifecycle. Every branch is opened over the same slots.
type Manager struct {
	slots    [][]string
	legacy   bool
	io       any
	branches map[string]branchCache
	order    []string
	done     bool
}

// NewManager returns a multi-file manager reading every branch from slots.
func NewManager(slots [][]string) *Manager {
	return &Manager{slots: slots, branches: make(map[string]branchCache)}
}

// NewLegacyManager returns a manager whose branches are resolved through io,
// which must implement IOManager[T] for every item type T requested.
func NewLegacyManager(io any) *Manager {
	return &Manager{legacy: true, io: io, branches: make(map[string]branchCache)}
}

// Legacy reports whether branches are served from an IOManager.
func (m *Manager) Legacy() bool { return m.legacy }

// InitBranch opens branch name, or returns the cache opened by an earlier
// call. opener is ignored by legacy managers.
func InitBranch[T any](m *Manager, name string, opener ChainOpener[T]) (*Cache[T], error) {
	if m.done {
		return nil, ErrDone
	}
	if existing, ok := m.branches[name]; ok {
		c, ok := existing.(*Cache[T])
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrTypeMismatch, name)
		}
		return c, nil
	}

	var (
		c   *Cache[T]
		err error
	)
	if m.legacy {
		io, ok := m.io.(IOManager[T])
		if !ok {
			monitoring.Named("mcdata").Error().Str("branch", name).
				Msg("legacy manager has no I/O manager for this item type")
			return nil, ErrNoIOManager
		}
		c, err = NewLegacyCache(name, io)
	} else {
		c, err = NewCache(name, opener, m.slots)
	}
	if err != nil {
		return nil, err
	}

	m.branches[name] = c
	m.order = append(m.order, name)
	return c, nil
}

// InitObject opens a one-object-per-event branch.
func InitObject[T any](m *Manager, name string, opener ChainOpener[T]) (*ObjectCache[T], error) {
	c, err := InitBranch(m, name, opener)
	if err != nil {
		return nil, err
	}
	return NewObjectCache(c), nil
}

// Branches returns the opened branch names in opening order.
func (m *Manager) Branches() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// FinishEvent releases the decoded events of every branch.
func (m *Manager) FinishEvent() {
	for _, name := range m.order {
		m.branches[name].FinishEvent()
	}
}

// Done closes every branch. The manager cannot open branches afterwards.
func (m *Manager) Done() error {
	if m.done {
		return nil
	}
	m.done = true
	var errs []error
	for _, name := range m.order {
		if err := m.branches[name].Done(); err != nil {
			errs = append(errs, fmt.Errorf("branch %q: %w", name, err))
		}
	}
	return errors.Join(errs...)
}
