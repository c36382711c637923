package ca

import (
	"fmt"
	"math"

	"github.com/cbm-experiment/cbmcore/internal/config"
	"github.com/cbm-experiment/cbmcore/internal/monitoring"
)

// defaultNofSigmas bounds smearing and sets the acceptance ranges of
// produced hits.
const defaultNofSigmas = 3.5

// StripResolution describes a strip station: the two strip angles and the
// single-hit resolution along each strip axis and in time.
type StripResolution struct {
	PhiU   float64 `json:"phi_u"`   // rad
	PhiV   float64 `json:"phi_v"`   // rad
	SigmaU float64 `json:"sigma_u"` // cm
	SigmaV float64 `json:"sigma_v"` // cm
	SigmaT float64 `json:"sigma_t"` // ns
}

// MCHit is the true position of an MC point on a station.
type MCHit struct {
	X       float64    `json:"x"`
	Y       float64    `json:"y"`
	Z       float64    `json:"z"`
	T       float64    `json:"t"`
	Det     DetectorID `json:"det"`
	Address uint32     `json:"address"`
	Station int        `json:"station"`
	PointID int        `json:"point_id"`
	StripF  int        `json:"strip_f"`
	StripB  int        `json:"strip_b"`
}

// NewRandomFromConfig returns a generator seeded with random.seed.
func NewRandomFromConfig(cfg *config.TransportConfig) *Random {
	return NewRandom(cfg.GetSeed())
}

// UvOptionsFromConfig returns the converter options set in cfg.
func UvOptionsFromConfig(cfg *config.TransportConfig) []UvOption {
	return []UvOption{WithMinDeterminant(cfg.GetMinDeterminant())}
}

// Smearer turns true MC positions into hit records with the resolution of
// a strip station: u and v are smeared independently in the strip frame
// and the result is converted back to x and y.
type Smearer struct {
	rnd     *Random
	uv      *UvConverter
	res     StripResolution
	nSigmas float64
	next    int
}

// NewSmearer builds a Smearer whose generator and strip frame follow cfg.
func NewSmearer(cfg *config.TransportConfig, res StripResolution) *Smearer {
	s := &Smearer{
		rnd:     NewRandomFromConfig(cfg),
		uv:      NewUvConverter(res.PhiU, res.PhiV, UvOptionsFromConfig(cfg)...),
		res:     res,
		nSigmas: defaultNofSigmas,
	}
	monitoring.Named("ca").Debug().Uint64("seed", s.rnd.Seed()).Stringer("uv", s.uv).
		Msg("smearer ready")
	return s
}

// Seed returns the resolved generator seed, for reproducing a run.
func (s *Smearer) Seed() uint64 { return s.rnd.Seed() }

// Converter returns the strip frame in use, after any degeneracy correction.
func (s *Smearer) Converter() *UvConverter { return s.uv }

// Smear draws one hit record for h. ExtID numbers the records in call order.
func (s *Smearer) Smear(h MCHit) (HitRecord, error) {
	u, v := s.uv.ConvertXYtoUV(h.X, h.Y)

	su, err := s.rnd.BoundedGaus(u, s.res.SigmaU, s.nSigmas)
	if err != nil {
		return HitRecord{}, fmt.Errorf("smear u: %w", err)
	}
	sv, err := s.rnd.BoundedGaus(v, s.res.SigmaV, s.nSigmas)
	if err != nil {
		return HitRecord{}, fmt.Errorf("smear v: %w", err)
	}
	st, err := s.rnd.BoundedGaus(h.T, s.res.SigmaT, s.nSigmas)
	if err != nil {
		return HitRecord{}, fmt.Errorf("smear t: %w", err)
	}

	x, y := s.uv.ConvertUVtoXY(su, sv)
	dx2, dxy, dy2 := s.uv.ConvertCovMatrixUVtoXY(s.res.SigmaU*s.res.SigmaU, 0, s.res.SigmaV*s.res.SigmaV)
	dt2 := s.res.SigmaT * s.res.SigmaT

	rec := HitRecord{
		X: x, Y: y, Z: h.Z, T: st,
		Dx2: dx2, Dy2: dy2, Dxy: dxy, Dt2: dt2,
		RangeX:     s.nSigmas * math.Sqrt(dx2),
		RangeY:     s.nSigmas * math.Sqrt(dy2),
		RangeT:     s.nSigmas * s.res.SigmaT,
		DataStream: DataStream(h.Det, h.Address),
		PointID:    h.PointID,
		ExtID:      s.next,
		StaID:      h.Station,
		StripF:     h.StripF,
		StripB:     h.StripB,
		Det:        h.Det,
	}
	s.next++
	return rec, nil
}
