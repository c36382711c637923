package ca

import (
	"fmt"
	"math"
	"strings"

	"github.com/cbm-experiment/cbmcore/internal/monitoring"
)

// acceptVerbose selects, at compile time, whether Accept explains rejected
// records in the log or only returns the verdict.
const acceptVerbose = true

// HitRecord is the detector-independent form of one hit assembled while
// reading a time slice. It is filled once, checked with Accept and then
// either stored or dropped.
type HitRecord struct {
	X, Y, Z float64 // position [cm]
	T       float64 // time [ns]

	Dx2, Dy2, Dxy float64 // position covariance [cm²]
	Dt2           float64 // time variance [ns²]

	RangeX, RangeY, RangeT float64 // acceptance half-widths

	DataStream int64 // detector id << 60 | hardware address
	PointID    int   // index of the matched MC point, -1 if none
	ExtID      int   // index of the hit in the external container
	StaID      int   // active tracking station index
	StripF     int   // front strip (hit key)
	StripB     int   // back strip (hit key)
	Det        DetectorID
}

// Accept reports whether all position, time and covariance fields are
// finite.
func (h *HitRecord) Accept() bool {
	if acceptVerbose {
		return h.acceptExplained()
	}
	return h.acceptFast()
}

func (h *HitRecord) acceptFast() bool {
	return isFinite(h.X) && isFinite(h.Y) && isFinite(h.Z) && isFinite(h.T) &&
		isFinite(h.Dx2) && isFinite(h.Dy2) && isFinite(h.Dt2) && isFinite(h.Dxy)
}

func (h *HitRecord) acceptExplained() bool {
	fields := [...]struct {
		name  string
		value float64
	}{
		{"x", h.X}, {"y", h.Y}, {"z", h.Z}, {"t", h.T},
		{"dx2", h.Dx2}, {"dy2", h.Dy2}, {"dt2", h.Dt2}, {"dxy", h.Dxy},
	}

	var bad []string
	for _, f := range fields {
		if !isFinite(f.value) {
			bad = append(bad, fmt.Sprintf("%s = %v", f.name, f.value))
		}
	}
	if len(bad) == 0 {
		return true
	}

	monitoring.Named("ca").Warn().
		Stringer("det", h.Det).Int64("stream", h.DataStream).Int("extId", h.ExtID).
		Msgf("hit record rejected: %s", strings.Join(bad, ", "))
	return false
}

// StreamDetector returns the detector encoded in the record's data stream.
func (h *HitRecord) StreamDetector() DetectorID {
	return StreamDetector(h.DataStream)
}

// String renders every field on one line in a fixed order.
func (h *HitRecord) String() string {
	return fmt.Sprintf("det: %d, addr: %d, extId: %d, staId: %d, pointId: %d, stripF: %d, stripB: %d, "+
		"x: %g, y: %g, z: %g, t: %g, dx2: %g, dy2: %g, dt2: %g, dxy: %g, rangeX: %g, rangeY: %g, rangeT: %g",
		int(h.Det), h.DataStream, h.ExtID, h.StaID, h.PointID, h.StripF, h.StripB,
		h.X, h.Y, h.Z, h.T, h.Dx2, h.Dy2, h.Dt2, h.Dxy, h.RangeX, h.RangeY, h.RangeT)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// HitStore collects the accepted records of one time slice and tracks the
// number of hit keys (strips) they reference.
type HitStore struct {
	hits       []HitRecord
	nofHitKeys int
	rejected   int
}

// Add stores h if it passes Accept and reports whether it was stored.
func (s *HitStore) Add(h HitRecord) bool {
	if !h.Accept() {
		s.rejected++
		return false
	}
	if h.StripF >= s.nofHitKeys {
		s.nofHitKeys = h.StripF + 1
	}
	if h.StripB >= s.nofHitKeys {
		s.nofHitKeys = h.StripB + 1
	}
	s.hits = append(s.hits, h)
	return true
}

// Hits returns the stored records in insertion order.
func (s *HitStore) Hits() []HitRecord { return s.hits }

// Len returns the number of stored records.
func (s *HitStore) Len() int { return len(s.hits) }

// NofHitKeys returns one past the largest strip index stored.
func (s *HitStore) NofHitKeys() int { return s.nofHitKeys }

// Rejected returns how many records failed Accept.
func (s *HitStore) Rejected() int { return s.rejected }

// Reset empties the store for the next time slice, keeping capacity.
func (s *HitStore) Reset() {
	s.hits = s.hits[:0]
	s.nofHitKeys = 0
	s.rejected = 0
}
