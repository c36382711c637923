package mcdata

import "errors"

// NotFound is returned by Size when the slot or event does not exist.
const NotFound = -1

var (
	ErrNoIOManager    = errors.New("mcdata: no I/O manager")
	ErrBranchNotFound = errors.New("mcdata: branch not found")
	ErrInvalidSlot    = errors.New("mcdata: invalid file slot")
	ErrLegacyMode     = errors.New("mcdata: operation not available in legacy mode")
	ErrDone           = errors.New("mcdata: cache is done")
	ErrTypeMismatch   = errors.New("mcdata: branch registered with a different item type")
)

// Chain is an ordered sequence of per-event collections read from one or
// more files, indexed by entry number.
type Chain[T any] interface {
	// Entries returns the number of entries in the chain.
	Entries() int

	// Decode reads entry and returns a collection owned by the caller.
	Decode(entry int) ([]T, error)

	// AddFriend joins friend to this chain by entry number.
	AddFriend(friend Chain[T]) error

	// Close releases the underlying files.
	Close() error
}

// FriendReader is implemented by chains that can read the entry of every
// friend joined with AddFriend. Friends shorter than entry contribute a nil
// collection.
type FriendReader[T any] interface {
	FriendEntries(entry int) ([][]T, error)
}

// ChainOpener opens the chain of one slot: the named branch across files,
// concatenated in order.
type ChainOpener[T any] interface {
	Open(branch string, files []string) (Chain[T], error)
}

// Collection is a live, read-only view of the objects registered for a
// branch in the current event.
type Collection[T any] interface {
	Len() int
	At(i int) T
}

// IOManager resolves the collection currently registered for a branch. It
// replaces the ambient framework singleton of legacy jobs.
type IOManager[T any] interface {
	Object(branch string) (Collection[T], bool)
}

// Slice adapts a plain slice to Collection.
type Slice[T any] []T

func (s Slice[T]) Len() int { return len(s) }
func (s Slice[T]) At(i int) T { return s[i] }
