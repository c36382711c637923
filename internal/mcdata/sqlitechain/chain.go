package sqlitechain

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/cbm-experiment/cbmcore/internal/mcdata"
	"github.com/cbm-experiment/cbmcore/internal/monitoring"
)

// Chain reads one branch across an ordered list of chain files, numbering
// entries continuously from the first file to the last.
type Chain[T any] struct {
	branch  string
	files   []*File
	offsets []int // offsets[i] is the first entry of files[i]; len(files)+1 elements
	friends []*Chain[T]
}

var (
	_ mcdata.Chain[int]        = (*Chain[int])(nil)
	_ mcdata.FriendReader[int] = (*Chain[int])(nil)
)

// OpenChain opens every path and concatenates branch across them. The branch
// must be registered in every file.
func OpenChain[T any](branch string, paths []string) (*Chain[T], error) {
	c := &Chain[T]{branch: branch, offsets: []int{0}}
	for _, p := range paths {
		f, err := Open(p)
		if err != nil {
			c.Close()
			return nil, err
		}
		c.files = append(c.files, f)

		ok, err := f.HasBranch(branch)
		if err == nil && !ok {
			err = fmt.Errorf("%w: %q in %s", mcdata.ErrBranchNotFound, branch, p)
		}
		if err != nil {
			c.Close()
			return nil, err
		}

		n, err := f.Entries(branch)
		if err != nil {
			c.Close()
			return nil, err
		}
		c.offsets = append(c.offsets, c.offsets[len(c.offsets)-1]+n)
	}

	monitoring.Named("sqlitechain").Debug().
		Str("branch", branch).Int("files", len(paths)).Int("entries", c.Entries()).
		Msg("opened chain")
	return c, nil
}

func (c *Chain[T]) Entries() int {
	return c.offsets[len(c.offsets)-1]
}

// Decode reads entry and returns a freshly decoded collection.
func (c *Chain[T]) Decode(entry int) ([]T, error) {
	if entry < 0 || entry >= c.Entries() {
		return nil, fmt.Errorf("entry %d out of range [0, %d)", entry, c.Entries())
	}
	if len(c.files) == 0 {
		return nil, errors.New("chain is closed")
	}

	// First file whose range ends after entry.
	i := sort.SearchInts(c.offsets[1:], entry+1)
	local := entry - c.offsets[i]

	var payload string
	err := c.files[i].db.QueryRow(`SELECT payload FROM entries WHERE branch = ? AND entry = ?`,
		c.branch, local).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("entry %d of %q missing in %s", local, c.branch, c.files[i].path)
		}
		return nil, fmt.Errorf("failed to read entry %d of %q: %w", local, c.branch, err)
	}

	var items []T
	if err := json.Unmarshal([]byte(payload), &items); err != nil {
		return nil, fmt.Errorf("failed to decode entry %d of %q: %w", local, c.branch, err)
	}
	return items, nil
}

// AddFriend joins another chain read in lock step with this one. Both
// chains must come from this package.
func (c *Chain[T]) AddFriend(friend mcdata.Chain[T]) error {
	f, ok := friend.(*Chain[T])
	if !ok || f == nil {
		return fmt.Errorf("friend chain must be a sqlite chain, got %T", friend)
	}
	if f == c {
		return errors.New("chain cannot befriend itself")
	}
	if f.Entries() != c.Entries() {
		monitoring.Named("sqlitechain").Warn().
			Str("branch", c.branch).Int("entries", c.Entries()).Int("friendEntries", f.Entries()).
			Msg("friend chain has a different number of entries")
	}
	c.friends = append(c.friends, f)
	return nil
}

// Friends returns the chains joined with AddFriend.
func (c *Chain[T]) Friends() []*Chain[T] { return c.friends }

// FriendEntries returns entry of every friend chain, in AddFriend order.
// Friends shorter than entry contribute a nil collection.
func (c *Chain[T]) FriendEntries(entry int) ([][]T, error) {
	out := make([][]T, len(c.friends))
	for i, f := range c.friends {
		if entry < 0 || entry >= f.Entries() {
			continue
		}
		items, err := f.Decode(entry)
		if err != nil {
			return nil, fmt.Errorf("friend %d: %w", i, err)
		}
		out[i] = items
	}
	return out, nil
}

// Close closes every file of the chain. Friends are closed by their owners.
func (c *Chain[T]) Close() error {
	var errs []error
	for _, f := range c.files {
		if err := f.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	c.files = nil
	return errors.Join(errs...)
}

// Opener opens sqlite chains for an mcdata cache.
type Opener[T any] struct{}

func (Opener[T]) Open(branch string, files []string) (mcdata.Chain[T], error) {
	c, err := OpenChain[T](branch, files)
	if err != nil {
		return nil, err
	}
	return c, nil
}
