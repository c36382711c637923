package ca

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbm-experiment/cbmcore/internal/config"
	"github.com/cbm-experiment/cbmcore/internal/testutil"
)

func seededConfig(seed uint64) *config.TransportConfig {
	return &config.TransportConfig{Random: &config.RandomConfig{Seed: &seed}}
}

func stsResolution() StripResolution {
	return StripResolution{PhiU: 7.5 * math.Pi / 180, PhiV: -7.5 * math.Pi / 180, SigmaU: 0.0017, SigmaV: 0.0017, SigmaT: 5}
}

func mcHit() MCHit {
	return MCHit{X: 1.2, Y: -3.4, Z: 30, T: 1000, Det: DetSts, Address: 0x10008002, Station: 2, PointID: 11, StripF: 4, StripB: 5}
}

func TestNewRandomFromConfig(t *testing.T) {
	assert.Equal(t, uint64(99), NewRandomFromConfig(seededConfig(99)).Seed())
	assert.NotZero(t, NewRandomFromConfig(config.EmptyTransportConfig()).Seed())
}

func TestSmearerDeterministic(t *testing.T) {
	a := NewSmearer(seededConfig(2024), stsResolution())
	b := NewSmearer(seededConfig(2024), stsResolution())
	assert.Equal(t, uint64(2024), a.Seed())

	for i := 0; i < 20; i++ {
		ha, err := a.Smear(mcHit())
		require.NoError(t, err)
		hb, err := b.Smear(mcHit())
		require.NoError(t, err)
		assert.Equal(t, ha, hb)
		assert.Equal(t, i, ha.ExtID)
	}
}

func TestSmearerBoundsAndCovariance(t *testing.T) {
	res := stsResolution()
	s := NewSmearer(seededConfig(7), res)
	uv := s.Converter()
	trueU, trueV := uv.ConvertXYtoUV(mcHit().X, mcHit().Y)

	var store HitStore
	for i := 0; i < 500; i++ {
		h, err := s.Smear(mcHit())
		require.NoError(t, err)

		u, v := uv.ConvertXYtoUV(h.X, h.Y)
		assert.LessOrEqual(t, math.Abs(u-trueU), defaultNofSigmas*res.SigmaU+1e-12)
		assert.LessOrEqual(t, math.Abs(v-trueV), defaultNofSigmas*res.SigmaV+1e-12)
		assert.LessOrEqual(t, math.Abs(h.T-1000), defaultNofSigmas*res.SigmaT)
		require.True(t, store.Add(h))
	}
	assert.Equal(t, 500, store.Len())
	assert.Equal(t, 6, store.NofHitKeys())

	h := store.Hits()[0]
	du2, duv, dv2 := uv.ConvertCovMatrixXYtoUV(h.Dx2, h.Dxy, h.Dy2)
	testutil.AssertFloatNear(t, du2, res.SigmaU*res.SigmaU, 1e-15)
	testutil.AssertFloatNear(t, duv, 0, 1e-15)
	testutil.AssertFloatNear(t, dv2, res.SigmaV*res.SigmaV, 1e-15)
	testutil.AssertFloatNear(t, h.RangeT, defaultNofSigmas*res.SigmaT, 1e-12)
	testutil.AssertFloatNear(t, h.RangeX, defaultNofSigmas*math.Sqrt(h.Dx2), 1e-15)

	assert.Equal(t, DetSts, h.StreamDetector())
	assert.Equal(t, uint32(0x10008002), StreamAddress(h.DataStream))
	assert.Equal(t, 2, h.StaID)
	assert.Equal(t, 11, h.PointID)
}

func TestSmearerUsesConfiguredMinDeterminant(t *testing.T) {
	testutil.CaptureLogs(t)

	// |det| = sin(0.002) ~ 2e-3: kept by the default threshold.
	res := StripResolution{PhiU: 0.3, PhiV: 0.302, SigmaU: 0.01, SigmaV: 0.01, SigmaT: 1}
	_, phiV := NewSmearer(seededConfig(1), res).Converter().Angles()
	assert.Equal(t, 0.302, phiV)

	cfg := seededConfig(1)
	minDet := 1e-2
	cfg.UV = &config.UVConfig{MinDeterminant: &minDet}
	_, phiV = NewSmearer(cfg, res).Converter().Angles()
	testutil.AssertFloatNear(t, phiV, 0.3+degenerateShift, 1e-15)
}

func TestSmearerInvalidResolution(t *testing.T) {
	testutil.CaptureLogs(t)

	res := stsResolution()
	res.SigmaT = 0
	_, err := NewSmearer(seededConfig(3), res).Smear(mcHit())
	assert.ErrorIs(t, err, ErrInvalidParameter)
}
