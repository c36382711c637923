package mcdata

import (
	"errors"
	"fmt"

	"github.com/cbm-experiment/cbmcore/internal/cbm"
	"github.com/cbm-experiment/cbmcore/internal/monitoring"
)

// Mode is the access mode a Cache was constructed in.
type Mode int

const (
	ModeMulti  Mode = iota // per-slot chains with an event cache
	ModeLegacy             // single collection owned by an IOManager
	ModeDone               // released by Done
)

func (m Mode) String() string {
	switch m {
	case ModeMulti:
		return "multi"
	case ModeLegacy:
		return "legacy"
	case ModeDone:
		return "done"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Cache serves per-event collections of one branch. In multi mode slot i is
// read from chains[i] and every event decoded since the last FinishEvent
// stays resident; in legacy mode the live collection of an IOManager is
// served for every (file, event).
type Cache[T any] struct {
	branch string
	mode   Mode

	chains  []Chain[T]      // nil entry for an empty slot
	entries []int           // entries per slot, 0 for an empty slot
	events  []map[int][]T   // per slot: event -> decoded collection
	friends []map[int][][]T // per slot: event -> friend collections
	legacy  Collection[T]
}

// NewCache opens the branch in every slot through opener. An empty file list
// leaves the slot empty: lookups in it report not found. On error every
// chain opened so far is closed.
func NewCache[T any](branch string, opener ChainOpener[T], slots [][]string) (*Cache[T], error) {
	if opener == nil {
		return nil, errors.New("mcdata: nil chain opener")
	}
	c := &Cache[T]{
		branch:  branch,
		mode:    ModeMulti,
		chains:  make([]Chain[T], len(slots)),
		entries: make([]int, len(slots)),
		events:  make([]map[int][]T, len(slots)),
		friends: make([]map[int][][]T, len(slots)),
	}

	for i, files := range slots {
		c.events[i] = make(map[int][]T)
		c.friends[i] = make(map[int][][]T)
		if len(files) == 0 {
			continue
		}
		ch, err := opener.Open(branch, files)
		if err != nil {
			c.closeChains()
			return nil, fmt.Errorf("mcdata: open branch %q in slot %d: %w", branch, i, err)
		}
		c.chains[i] = ch
		c.entries[i] = ch.Entries()
	}

	monitoring.Named("mcdata").Info().
		Str("branch", branch).Int("slots", len(slots)).Ints("entries", c.entries).
		Msg("cache opened")
	return c, nil
}

// NewLegacyCache resolves branch once through io and serves that collection.
func NewLegacyCache[T any](branch string, io IOManager[T]) (*Cache[T], error) {
	log := monitoring.Named("mcdata")
	if io == nil {
		log.Error().Str("branch", branch).Msg("legacy cache: no I/O manager")
		return nil, ErrNoIOManager
	}
	coll, ok := io.Object(branch)
	if !ok || coll == nil {
		log.Error().Str("branch", branch).Msg("legacy cache: branch not found")
		return nil, fmt.Errorf("%w: %q", ErrBranchNotFound, branch)
	}
	return &Cache[T]{branch: branch, mode: ModeLegacy, legacy: coll}, nil
}

// Branch returns the branch name served by the cache.
func (c *Cache[T]) Branch() string { return c.branch }

// Mode returns the current access mode.
func (c *Cache[T]) Mode() Mode { return c.mode }

// Slots returns the number of input slots; 0 in legacy mode and after Done.
func (c *Cache[T]) Slots() int { return len(c.chains) }

// Entries returns the number of events in slot file, 0 for an empty or
// invalid slot.
func (c *Cache[T]) Entries(file int) int {
	if file < 0 || file >= len(c.entries) {
		return 0
	}
	return c.entries[file]
}

// Resident returns the number of decoded events currently held, counting
// friend reads of an event as one.
func (c *Cache[T]) Resident() int {
	n := 0
	for _, m := range c.events {
		n += len(m)
	}
	for _, m := range c.friends {
		n += len(m)
	}
	return n
}

// AddFriend joins the chain of slot friend to the chain of slot file, so
// both are read in lock step by entry number. Friends reads of slot file
// cached in the current event are dropped.
func (c *Cache[T]) AddFriend(file, friend int) error {
	log := monitoring.Named("mcdata")
	switch c.mode {
	case ModeLegacy:
		log.Error().Str("branch", c.branch).Msg("friend chains are not supported in legacy mode")
		return ErrLegacyMode
	case ModeDone:
		return ErrDone
	}
	if !c.validChain(file) || !c.validChain(friend) || file == friend {
		log.Error().Str("branch", c.branch).Int("file", file).Int("friend", friend).
			Msg("cannot add friend chain")
		return fmt.Errorf("%w: file %d, friend %d", ErrInvalidSlot, file, friend)
	}
	if err := c.chains[file].AddFriend(c.chains[friend]); err != nil {
		return fmt.Errorf("mcdata: add friend %d to slot %d: %w", friend, file, err)
	}
	residentEvents.WithLabelValues(c.branch).Sub(float64(len(c.friends[file])))
	clear(c.friends[file])
	return nil
}

// Friends returns event of every chain joined to slot file with AddFriend,
// in join order. A friend without that event contributes nil. The result is
// cached until FinishEvent and owned by the cache. The boolean is false if
// the slot or event is out of range or the chain cannot read its friends.
func (c *Cache[T]) Friends(file, event int) ([][]T, bool) {
	if c.mode != ModeMulti || !c.validChain(file) || event < 0 || event >= c.entries[file] {
		lookupTotal.WithLabelValues(c.branch, "not_found").Inc()
		return nil, false
	}
	if got, ok := c.friends[file][event]; ok {
		lookupTotal.WithLabelValues(c.branch, "hit").Inc()
		return got, true
	}

	log := monitoring.Named("mcdata")
	fr, ok := c.chains[file].(FriendReader[T])
	if !ok {
		lookupTotal.WithLabelValues(c.branch, "error").Inc()
		log.Error().Str("branch", c.branch).Int("file", file).
			Msgf("chain %T cannot read friends", c.chains[file])
		return nil, false
	}
	got, err := fr.FriendEntries(event)
	if err != nil {
		lookupTotal.WithLabelValues(c.branch, "error").Inc()
		log.Error().Err(err).
			Str("branch", c.branch).Int("file", file).Int("event", event).
			Msg("cannot read friend entries")
		return nil, false
	}
	for _, coll := range got {
		if coll != nil {
			decodeTotal.WithLabelValues(c.branch).Inc()
		}
	}
	lookupTotal.WithLabelValues(c.branch, "miss").Inc()

	c.friends[file][event] = got
	residentEvents.WithLabelValues(c.branch).Inc()
	return got, true
}

func (c *Cache[T]) validChain(file int) bool {
	return file >= 0 && file < len(c.chains) && c.chains[file] != nil
}

// Get returns object index of event in slot file. The boolean is false if
// any coordinate is out of range or the entry cannot be read.
func (c *Cache[T]) Get(file, event, index int) (T, bool) {
	var zero T
	if index < 0 {
		return zero, false
	}
	if c.mode == ModeLegacy {
		if index >= c.legacy.Len() {
			return zero, false
		}
		return c.legacy.At(index), true
	}
	coll, ok := c.collection(file, event)
	if !ok || index >= len(coll) {
		return zero, false
	}
	return coll[index], true
}

// GetLink resolves a persisted reference.
func (c *Cache[T]) GetLink(l cbm.Link) (T, bool) {
	return c.Get(l.File, l.Entry, l.Index)
}

// Size returns the number of objects in event of slot file, or NotFound.
// In multi mode the event is decoded and cached exactly as Get would.
func (c *Cache[T]) Size(file, event int) int {
	if c.mode == ModeLegacy {
		return c.legacy.Len()
	}
	coll, ok := c.collection(file, event)
	if !ok {
		return NotFound
	}
	return len(coll)
}

// Collection returns the whole decoded collection of an event. The slice is
// owned by the cache and valid until the next FinishEvent; callers must not
// modify it. Not available in legacy mode.
func (c *Cache[T]) Collection(file, event int) ([]T, bool) {
	if c.mode != ModeMulti {
		return nil, false
	}
	return c.collection(file, event)
}

func (c *Cache[T]) collection(file, event int) ([]T, bool) {
	if c.mode != ModeMulti || !c.validChain(file) || event < 0 || event >= c.entries[file] {
		lookupTotal.WithLabelValues(c.branch, "not_found").Inc()
		return nil, false
	}
	if coll, ok := c.events[file][event]; ok {
		lookupTotal.WithLabelValues(c.branch, "hit").Inc()
		return coll, true
	}

	coll, err := c.chains[file].Decode(event)
	if err != nil {
		lookupTotal.WithLabelValues(c.branch, "error").Inc()
		monitoring.Named("mcdata").Error().Err(err).
			Str("branch", c.branch).Int("file", file).Int("event", event).
			Msg("cannot decode entry")
		return nil, false
	}
	decodeTotal.WithLabelValues(c.branch).Inc()
	lookupTotal.WithLabelValues(c.branch, "miss").Inc()

	if coll == nil {
		coll = []T{}
	}
	c.events[file][event] = coll
	residentEvents.WithLabelValues(c.branch).Inc()
	return coll, true
}

// FinishEvent drops every decoded event and friend read. It is a no-op in
// legacy mode.
func (c *Cache[T]) FinishEvent() {
	if c.mode != ModeMulti {
		return
	}
	residentEvents.WithLabelValues(c.branch).Sub(float64(c.Resident()))
	for _, m := range c.events {
		clear(m)
	}
	for _, m := range c.friends {
		clear(m)
	}
}

// Done drops the cache and closes every chain. Lookups afterwards report not
// found. It is a no-op in legacy mode.
func (c *Cache[T]) Done() error {
	if c.mode != ModeMulti {
		return nil
	}
	c.FinishEvent()
	err := c.closeChains()
	c.chains, c.entries, c.events, c.friends = nil, nil, nil, nil
	c.mode = ModeDone
	return err
}

func (c *Cache[T]) closeChains() error {
	var errs []error
	for i, ch := range c.chains {
		if ch == nil {
			continue
		}
		if err := ch.Close(); err != nil {
			errs = append(errs, fmt.Errorf("slot %d: %w", i, err))
		}
		c.chains[i] = nil
	}
	return errors.Join(errs...)
}
