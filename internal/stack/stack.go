package stack

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/cbm-experiment/cbmcore/internal/cbm"
	"github.com/cbm-experiment/cbmcore/internal/monitoring"
)

// ErrIndexNotMapped reports a track reference that is not an index of the
// current event.
var ErrIndexNotMapped = errors.New("stack: track index not mapped")

// Index map values for references that do not point to a stored track.
const (
	NoMother     = -1
	DroppedTrack = -2
)

// Track is a particle as pushed by the transport engine.
type Track struct {
	PDG      int32
	Process  cbm.Process
	MotherID int // -1 for primaries

	Px, Py, Pz float64 // GeV
	E          float64 // GeV
	Mass       float64 // GeV

	X, Y, Z float64 // production vertex [cm]
	T       float64 // production time [ns]

	Weight float64
}

// Ekin returns the kinetic energy.
func (t *Track) Ekin() float64 { return t.E - t.Mass }

// MCTrack is a stored track. MotherID refers to the stored track array once
// UpdateTrackIndex has run.
type MCTrack struct {
	PDG      int32       `json:"pdg"`
	Process  cbm.Process `json:"process"`
	MotherID int         `json:"mother"`

	Px     float64 `json:"px"`
	Py     float64 `json:"py"`
	Pz     float64 `json:"pz"`
	E      float64 `json:"e"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Z      float64 `json:"z"`
	T      float64 `json:"t"`
	Weight float64 `json:"weight"`

	Points [cbm.NofSystems]int `json:"points"`
}

// NofPoints returns the number of points the track left in system.
func (t *MCTrack) NofPoints(system cbm.ModuleID) int {
	if !system.IsSystem() {
		return 0
	}
	return t.Points[system]
}

// MCPoint is the part of a detector MC point that refers to a track.
type MCPoint struct {
	TrackID int          `json:"track"`
	System  cbm.ModuleID `json:"system"`
}

// TrackWriter persists the stored tracks of one event.
type TrackWriter interface {
	Write(tracks []MCTrack) (int, error)
}

// Stack collects the particles of one event, applies the Filter and keeps
// the mapping from transport indices to stored indices.
type Stack struct {
	filter *Filter
	run    uuid.UUID
	event  int

	tracks   []Track
	points   PointCounts
	stored   []MCTrack
	indexMap map[int]int
	filled   bool
	remapped bool
}

// NewStack returns an empty stack using filter, or NewFilter if nil.
func NewStack(filter *Filter) *Stack {
	if filter == nil {
		filter = NewFilter()
	}
	return &Stack{
		filter:   filter,
		run:      uuid.New(),
		points:   make(PointCounts),
		indexMap: make(map[int]int),
	}
}

// Run returns the identifier shared by all events of this stack.
func (s *Stack) Run() uuid.UUID { return s.run }

// Event returns the number of the current event, counted from 0.
func (s *Stack) Event() int { return s.event }

// Filter returns the filter applied by FillTrackArray.
func (s *Stack) Filter() *Filter { return s.filter }

// PushTrack appends a particle and returns its transport index.
func (s *Stack) PushTrack(t Track) int {
	s.tracks = append(s.tracks, t)
	return len(s.tracks) - 1
}

// AddPoint records one MC point of track in system.
func (s *Stack) AddPoint(system cbm.ModuleID, track int) {
	s.points[PointKey{Track: track, System: system}]++
}

// NofTracks returns the number of pushed particles.
func (s *Stack) NofTracks() int { return len(s.tracks) }

// Particles returns the filter view of every pushed particle.
func (s *Stack) Particles() []Particle {
	out := make([]Particle, len(s.tracks))
	for i := range s.tracks {
		t := &s.tracks[i]
		out[i] = Particle{
			PDG:      t.PDG,
			Process:  t.Process,
			MotherID: t.MotherID,
			Ekin:     t.Ekin(),
			Weight:   t.Weight,
		}
	}
	return out
}

// FillTrackArray selects the particles to store, copies them into MCTracks
// and builds the index map. Mother ids still refer to transport indices
// until UpdateTrackIndex is called. The returned slice is valid until the
// next FillTrackArray or Reset.
func (s *Stack) FillTrackArray() []MCTrack {
	keep := s.filter.Select(s.Particles(), s.points)

	s.stored = s.stored[:0]
	clear(s.indexMap)
	s.indexMap[NoMother] = NoMother

	for i, ok := range keep {
		if !ok {
			s.indexMap[i] = DroppedTrack
			continue
		}
		t := &s.tracks[i]
		mc := MCTrack{
			PDG:      t.PDG,
			Process:  t.Process,
			MotherID: t.MotherID,
			Px:       t.Px,
			Py:       t.Py,
			Pz:       t.Pz,
			E:        t.E,
			X:        t.X,
			Y:        t.Y,
			Z:        t.Z,
			T:        t.T,
			Weight:   t.Weight,
		}
		for _, sys := range cbm.Systems() {
			mc.Points[sys] = s.points[PointKey{Track: i, System: sys}]
		}
		s.indexMap[i] = len(s.stored)
		s.stored = append(s.stored, mc)
	}
	s.filled = true
	s.remapped = false

	monitoring.Named("stack").Info().
		Stringer("run", s.run).Int("event", s.event).
		Int("particles", len(s.tracks)).Int("stored", len(s.stored)).
		Msg("filled track array")
	return s.stored
}

// StoredIndex returns the stored index of transport index i: NoMother for
// -1, DroppedTrack for a particle that was not stored.
func (s *Stack) StoredIndex(i int) (int, error) {
	idx, ok := s.indexMap[i]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrIndexNotMapped, i)
	}
	return idx, nil
}

// UpdateTrackIndex rewrites the track ids of points to stored indices and,
// on the first call after FillTrackArray, the mother ids of the stored
// tracks. References to dropped tracks become DroppedTrack. Every reference
// is resolved before anything is written, so an unmapped one leaves the
// stored tracks and the points unchanged.
func (s *Stack) UpdateTrackIndex(points []*MCPoint) error {
	if !s.filled {
		return errors.New("stack: UpdateTrackIndex before FillTrackArray")
	}

	var mothers []int
	if !s.remapped {
		mothers = make([]int, len(s.stored))
		for i := range s.stored {
			idx, err := s.StoredIndex(s.stored[i].MotherID)
			if err != nil {
				return fmt.Errorf("mother of stored track %d: %w", i, err)
			}
			mothers[i] = idx
		}
	}

	tracks := make([]int, len(points))
	for i, p := range points {
		if p == nil {
			continue
		}
		idx, err := s.StoredIndex(p.TrackID)
		if err != nil {
			return fmt.Errorf("point %d in %s: %w", i, p.System, err)
		}
		tracks[i] = idx
	}

	if !s.remapped {
		for i, m := range mothers {
			s.stored[i].MotherID = m
		}
		s.remapped = true
	}
	for i, p := range points {
		if p != nil {
			p.TrackID = tracks[i]
		}
	}
	return nil
}

// WriteEvent hands the stored tracks to w and returns the entry written.
func (s *Stack) WriteEvent(w TrackWriter) (int, error) {
	if !s.filled {
		return 0, errors.New("stack: WriteEvent before FillTrackArray")
	}
	entry, err := w.Write(s.stored)
	if err != nil {
		return 0, fmt.Errorf("stack: write event %d: %w", s.event, err)
	}
	return entry, nil
}

// Reset clears the event and advances the event counter.
func (s *Stack) Reset() {
	s.tracks = s.tracks[:0]
	clear(s.points)
	s.stored = s.stored[:0]
	clear(s.indexMap)
	s.filled = false
	s.remapped = false
	s.event++
}
