// Package stack decides which transported particles are persisted and
// rewrites track references for the persisted subset.
package stack

import (
	"github.com/cbm-experiment/cbmcore/internal/cbm"
	"github.com/cbm-experiment/cbmcore/internal/config"
)

// ekinCutEnabled is the smallest floor that activates the kinetic energy veto.
const ekinCutEnabled = 1e-9

// defaultMinNofPoints is the point threshold for systems not configured
// otherwise; the PSD calorimeter defaults to psdMinNofPoints.
const (
	defaultMinNofPoints = 1
	psdMinNofPoints     = 5
)

// Particle is the view of a transported particle the filter decides on.
type Particle struct {
	PDG      int32       `json:"pdg"`
	Process  cbm.Process `json:"process"`
	MotherID int         `json:"mother"` // -1 for none
	Ekin     float64     `json:"ekin"`   // GeV
	Weight   float64     `json:"weight,omitempty"`
}

// PointKey identifies the points a particle left in one detector system.
type PointKey struct {
	Track  int
	System cbm.ModuleID
}

// PointCounts holds the number of MC points per particle and system.
// Missing keys count as zero.
type PointCounts map[PointKey]int

// Filter selects the particles of an event to be stored. The zero value is
// not usable; construct with NewFilter.
type Filter struct {
	storeAllPrimaries bool
	storeAllMothers   bool
	storeAllDecays    bool
	minNofPoints      [cbm.NofSystems]int
	minEkin           float64

	store []bool
}

// NewFilter returns a filter with the default policy: primaries and mothers
// are stored, decays are not, one point in any system suffices (five in the
// PSD) and there is no energy floor.
func NewFilter() *Filter {
	f := &Filter{
		storeAllPrimaries: true,
		storeAllMothers:   true,
	}
	for i := range f.minNofPoints {
		f.minNofPoints[i] = defaultMinNofPoints
	}
	f.minNofPoints[cbm.Psd] = psdMinNofPoints
	return f
}

// FilterFromConfig returns a default filter overridden by cfg.
func FilterFromConfig(cfg *config.TransportConfig) *Filter {
	f := NewFilter()
	f.SetStoreAllPrimaries(cfg.GetStoreAllPrimaries())
	f.SetStoreAllMothers(cfg.GetStoreAllMothers())
	f.SetStoreAllDecays(cfg.GetStoreAllDecays())
	f.SetMinEkin(cfg.GetMinEkin())
	for _, sys := range cbm.Systems() {
		if n, ok := cfg.GetMinNofPoints(sys); ok {
			f.SetMinNofPoints(sys, n)
		}
	}
	return f
}

func (f *Filter) SetStoreAllPrimaries(v bool) { f.storeAllPrimaries = v }
func (f *Filter) SetStoreAllMothers(v bool) { f.storeAllMothers = v }
func (f *Filter) SetStoreAllDecays(v bool) { f.storeAllDecays = v }
func (f *Filter) SetMinEkin(e float64) { f.minEkin = e }

// SetMinNofPoints sets the point threshold of a detector system. Modules
// that are not detector systems are ignored.
func (f *Filter) SetMinNofPoints(system cbm.ModuleID, n int) {
	if !system.IsSystem() {
		return
	}
	f.minNofPoints[system] = n
}

// MinNofPoints returns the point threshold of system, 0 for modules that are
// not detector systems.
func (f *Filter) MinNofPoints(system cbm.ModuleID) int {
	if !system.IsSystem() {
		return 0
	}
	return f.minNofPoints[system]
}

// Select returns one keep flag per particle. The slice is owned by the
// filter and overwritten by the next call.
func (f *Filter) Select(particles []Particle, points PointCounts) []bool {
	n := len(particles)
	if cap(f.store) < n {
		f.store = make([]bool, n)
	}
	f.store = f.store[:n]
	clear(f.store)

	// Primaries, point thresholds and the energy veto.
	for i, p := range particles {
		if f.storeAllPrimaries && p.Process == cbm.ProcessPrimary {
			f.store[i] = true
			continue
		}
		for _, sys := range cbm.Systems() {
			if points[PointKey{Track: i, System: sys}] >= f.minNofPoints[sys] {
				f.store[i] = true
				break
			}
		}
		if f.minEkin > ekinCutEnabled && p.Ekin < f.minEkin {
			f.store[i] = false
		}
	}

	// Particles reached from a primary through decays only.
	if f.storeAllDecays {
		for i := range particles {
			if !f.store[i] && f.decayOfPrimary(particles, i) {
				f.store[i] = true
			}
		}
	}

	// Ancestors of everything kept.
	if f.storeAllMothers {
		for i := range particles {
			if !f.store[i] {
				continue
			}
			mother := particles[i].MotherID
			for steps := 0; mother >= 0 && mother < n && steps < n; steps++ {
				f.store[mother] = true
				mother = particles[mother].MotherID
			}
		}
	}

	return f.store
}

// decayOfPrimary reports whether particle i and all its ancestors below the
// root were produced in decays and the root is a primary.
func (f *Filter) decayOfPrimary(particles []Particle, i int) bool {
	n := len(particles)
	cur := i
	for steps := 0; steps <= n; steps++ {
		p := particles[cur]
		if p.Process == cbm.ProcessPrimary {
			return cur != i
		}
		if p.Process != cbm.ProcessDecay {
			return false
		}
		if p.MotherID < 0 || p.MotherID >= n {
			return false
		}
		cur = p.MotherID
	}
	return false
}
