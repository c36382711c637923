package ca

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/cbm-experiment/cbmcore/internal/monitoring"
)

// ErrInvalidParameter reports a sampling call whose width parameters are not
// finite and positive. It marks a caller setup error, not a runtime condition.
var ErrInvalidParameter = errors.New("ca: invalid sampling parameter")

// pcgStream is the fixed PCG increment; only the seed selects the sequence.
const pcgStream = 0xda3e39cb94b95bdb

// Random draws reproducible floating-point samples from one 64-bit generator.
// A nonzero seed fully determines the output sequence. It is not safe for
// concurrent use.
type Random struct {
	seed uint64
	src  *rand.PCG
}

// NewRandom returns a generator initialised with SetSeed(seed).
func NewRandom(seed uint64) *Random {
	r := &Random{}
	r.SetSeed(seed)
	return r
}

// SetSeed (re)initialises the generator. A zero seed is replaced by one drawn
// from the runtime entropy source; the resolved value is kept and reported
// by Seed.
func (r *Random) SetSeed(seed uint64) {
	for seed == 0 {
		seed = rand.Uint64()
	}
	r.seed = seed
	r.src = rand.NewPCG(seed, pcgStream)
}

// Seed returns the active, already resolved seed.
func (r *Random) Seed() uint64 {
	return r.seed
}

// BoundedGaus draws from N(mean, sigma²), resampling until the value lies
// within nSigmas·sigma of mean. The loop is unbounded: callers must keep
// nSigmas large enough that rejection stays rare.
func (r *Random) BoundedGaus(mean, sigma, nSigmas float64) (float64, error) {
	if err := checkFinite("mean", mean); err != nil {
		return 0, err
	}
	if err := checkPositive("sigma", sigma); err != nil {
		return 0, err
	}
	if err := checkPositive("nSigmas", nSigmas); err != nil {
		return 0, err
	}

	dist := distuv.Normal{Mu: mean, Sigma: sigma, Src: r.src}
	limit := nSigmas * sigma
	for {
		x := dist.Rand()
		if math.Abs(x-mean) <= limit {
			return x, nil
		}
	}
}

// Uniform draws from the uniform distribution with the given mean and
// standard deviation, i.e. on [mean - sigma·√3, mean + sigma·√3].
func (r *Random) Uniform(mean, sigma float64) (float64, error) {
	if err := checkFinite("mean", mean); err != nil {
		return 0, err
	}
	if err := checkPositive("sigma", sigma); err != nil {
		return 0, err
	}

	half := sigma * math.Sqrt(3)
	dist := distuv.Uniform{Min: mean - half, Max: mean + half, Src: r.src}
	return dist.Rand(), nil
}

func checkPositive(name string, v float64) error {
	if v > 0 && !math.IsInf(v, 0) {
		return nil
	}
	return invalidParameter(name, v)
}

func checkFinite(name string, v float64) error {
	if !math.IsNaN(v) && !math.IsInf(v, 0) {
		return nil
	}
	return invalidParameter(name, v)
}

func invalidParameter(name string, v float64) error {
	monitoring.Named("ca").Error().Str("param", name).Float64("value", v).
		Msg("random: sampling precondition violated")
	return fmt.Errorf("%w: %s = %g", ErrInvalidParameter, name, v)
}
