package stack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbm-experiment/cbmcore/internal/cbm"
	"github.com/cbm-experiment/cbmcore/internal/config"
)

func primary() Particle { return Particle{PDG: 2212, Process: cbm.ProcessPrimary, MotherID: -1, Ekin: 10} }

func daughter(mother int, process cbm.Process) Particle {
	return Particle{PDG: 211, Process: process, MotherID: mother, Ekin: 1}
}

func TestNewFilterDefaults(t *testing.T) {
	f := NewFilter()

	for _, sys := range cbm.Systems() {
		want := 1
		if sys == cbm.Psd {
			want = 5
		}
		assert.Equal(t, want, f.MinNofPoints(sys), sys.String())
	}
	assert.Equal(t, 0, f.MinNofPoints(cbm.Magnet))
}

func TestSelectPrimaryKeptUnconditionally(t *testing.T) {
	f := NewFilter()
	f.SetMinEkin(100)

	keep := f.Select([]Particle{primary()}, nil)
	assert.Equal(t, []bool{true}, keep)

	f.SetStoreAllPrimaries(false)
	keep = f.Select([]Particle{primary()}, nil)
	assert.Equal(t, []bool{false}, keep, "without the flag primaries need points")
}

func TestSelectEnergyVeto(t *testing.T) {
	f := NewFilter()
	f.SetMinEkin(0.5)

	p := daughter(-1, cbm.ProcessHadronic)
	p.Ekin = 0.2
	points := PointCounts{{Track: 0, System: cbm.Sts}: 3}

	assert.Equal(t, []bool{false}, f.Select([]Particle{p}, points))

	p.Ekin = 0.7
	assert.Equal(t, []bool{true}, f.Select([]Particle{p}, points))

	f.SetMinEkin(1e-12)
	p.Ekin = 0
	assert.Equal(t, []bool{true}, f.Select([]Particle{p}, points), "floor below 1e-9 disables the veto")
}

func TestSelectPointThresholds(t *testing.T) {
	f := NewFilter()
	f.SetStoreAllMothers(false)

	particles := []Particle{
		daughter(-1, cbm.ProcessHadronic),
		daughter(-1, cbm.ProcessHadronic),
		daughter(-1, cbm.ProcessHadronic),
		daughter(-1, cbm.ProcessHadronic),
	}
	points := PointCounts{
		{Track: 0, System: cbm.Psd}:    4,
		{Track: 1, System: cbm.Psd}:    5,
		{Track: 2, System: cbm.Magnet}: 10,
		{Track: 3, System: cbm.Ref}:    1,
	}
	assert.Equal(t, []bool{false, true, false, false}, f.Select(particles, points))

	f.SetMinNofPoints(cbm.Psd, 4)
	f.SetMinNofPoints(cbm.Magnet, 1)
	assert.Equal(t, []bool{true, true, false, false}, f.Select(particles, points))
}

func TestSelectAncestorClosure(t *testing.T) {
	f := NewFilter()
	particles := []Particle{
		primary(),
		daughter(0, cbm.ProcessDecay),
		daughter(1, cbm.ProcessDecay),
	}
	f.SetStoreAllPrimaries(false)
	points := PointCounts{{Track: 2, System: cbm.Sts}: 1}

	assert.Equal(t, []bool{true, true, true}, f.Select(particles, points))

	f.SetStoreAllMothers(false)
	assert.Equal(t, []bool{false, false, true}, f.Select(particles, points))
}

func TestSelectEndToEnd(t *testing.T) {
	f := NewFilter()
	f.SetMinNofPoints(cbm.Sts, 2)

	particles := []Particle{
		primary(),
		daughter(0, cbm.ProcessDecay),
		daughter(0, cbm.ProcessHadronic),
	}
	points := PointCounts{{Track: 2, System: cbm.Sts}: 3}

	assert.Equal(t, []bool{true, false, true}, f.Select(particles, points))
}

func TestSelectDecayChains(t *testing.T) {
	particles := []Particle{
		primary(),                                // 0
		daughter(0, cbm.ProcessDecay),            // 1: decay of primary
		daughter(1, cbm.ProcessDecay),            // 2: decay of decay of primary
		daughter(0, cbm.ProcessHadronic),         // 3
		daughter(3, cbm.ProcessDecay),            // 4: decay of a hadronic secondary
		daughter(-1, cbm.ProcessDecay),           // 5: no mother
		daughter(17, cbm.ProcessDecay),           // 6: mother out of range
		{Process: cbm.ProcessDecay, MotherID: 7}, // 7: own mother
	}

	f := NewFilter()
	f.SetStoreAllDecays(true)
	f.SetStoreAllMothers(false)

	want := []bool{true, true, true, false, false, false, false, false}
	assert.Equal(t, want, f.Select(particles, nil))

	f.SetStoreAllDecays(false)
	assert.Equal(t, []bool{true, false, false, false, false, false, false, false}, f.Select(particles, nil))
}

func TestSelectMotherCycleTerminates(t *testing.T) {
	particles := []Particle{
		{Process: cbm.ProcessHadronic, MotherID: 1},
		{Process: cbm.ProcessHadronic, MotherID: 0},
		{Process: cbm.ProcessHadronic, MotherID: -1},
	}
	points := PointCounts{{Track: 0, System: cbm.Tof}: 1}

	keep := NewFilter().Select(particles, points)
	assert.Equal(t, []bool{true, true, false}, keep)
}

func TestSelectReusesBuffer(t *testing.T) {
	f := NewFilter()
	first := f.Select([]Particle{primary(), primary()}, nil)
	require.Equal(t, []bool{true, true}, first)

	second := f.Select([]Particle{daughter(-1, cbm.ProcessHadronic)}, nil)
	assert.Equal(t, []bool{false}, second)
	assert.False(t, first[0], "earlier result is overwritten")

	assert.Empty(t, f.Select(nil, nil))
}

func TestFilterFromConfig(t *testing.T) {
	cfg := config.MustLoadDefaultConfig()
	f := FilterFromConfig(cfg)
	assert.Equal(t, 5, f.MinNofPoints(cbm.Psd))
	assert.Equal(t, 1, f.MinNofPoints(cbm.Sts))

	cfg = &config.TransportConfig{StackFilter: &config.StackFilterConfig{
		MinNofPoints: map[cbm.ModuleID]int{cbm.Sts: 4},
	}}
	f = FilterFromConfig(cfg)
	assert.Equal(t, 4, f.MinNofPoints(cbm.Sts))
	assert.Equal(t, 5, f.MinNofPoints(cbm.Psd))

	particles := []Particle{primary()}
	assert.Equal(t, []bool{true}, f.Select(particles, nil))
}
