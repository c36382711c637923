package ca

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/cbm-experiment/cbmcore/internal/config"
	"github.com/cbm-experiment/cbmcore/internal/monitoring"
)

const (
	// degenerateShift is the replacement separation of the V axis when the
	// requested axes are indistinguishable.
	degenerateShift = 10. * math.Pi / 180.

	// decorrelationTolerance bounds the residual U/V covariance accepted after
	// constructing a decorrelated frame.
	decorrelationTolerance = 1e-8
)

// UvOption customises UvConverter construction.
type UvOption func(*uvOptions)

type uvOptions struct {
	minDeterminant float64
}

// WithMinDeterminant sets the |det| below which two frame angles are treated
// as the same direction.
func WithMinDeterminant(d float64) UvOption {
	return func(o *uvOptions) {
		if d > 0 {
			o.minDeterminant = d
		}
	}
}

// UvConverter maps between the Cartesian (x, y) frame and a skewed (u, v)
// strip frame whose axes point along phiU and phiV:
//
//	u = cos(phiU)·x + sin(phiU)·y
//	v = cos(phiV)·x + sin(phiV)·y
//
// The inverse coefficients are derived at construction, so both maps are
// exact inverses up to rounding. A UvConverter is immutable.
type UvConverter struct {
	phiU, phiV float64

	cosU, sinU float64 // u row of XY→UV
	cosV, sinV float64 // v row of XY→UV
	cosX, sinX float64 // x row of UV→XY
	cosY, sinY float64 // y row of UV→XY

	xyToUV *mat.Dense
	uvToXY *mat.Dense
}

// NewUvConverter builds the transform for the two strip angles (radians).
// If the axes are nearly parallel an error is logged and phiV is replaced by
// phiU + 10°, so the returned converter is always invertible.
func NewUvConverter(phiU, phiV float64, opts ...UvOption) *UvConverter {
	o := uvOptions{minDeterminant: config.DefaultMinDeterminant}
	for _, opt := range opts {
		opt(&o)
	}
	c := &UvConverter{}
	c.setAngles(phiU, phiV, o.minDeterminant)
	return c
}

// NewUvConverterFromCov builds the transform for phiU and the V axis that
// decorrelates u and v for the XY covariance (dx2, dxy, dy2).
func NewUvConverterFromCov(phiU, dx2, dxy, dy2 float64, opts ...UvOption) *UvConverter {
	cosU, sinU := math.Cos(phiU), math.Sin(phiU)

	// duv = cosV·a + sinV·b vanishes for (cosV, sinV) ∝ (b, -a).
	a := cosU*dx2 + sinU*dxy
	b := cosU*dxy + sinU*dy2
	phiV := math.Atan2(-a, b)

	c := NewUvConverter(phiU, phiV, opts...)

	if _, duv, _ := c.ConvertCovMatrixXYtoUV(dx2, dxy, dy2); math.Abs(duv) > decorrelationTolerance {
		monitoring.Named("ca").Error().
			Float64("phiU", c.phiU).Float64("phiV", c.phiV).Float64("duv", duv).
			Msg("uv converter: u/v covariance is not decorrelated")
	}
	return c
}

func (c *UvConverter) setAngles(phiU, phiV, minDeterminant float64) {
	forward := frameMatrix(phiU, phiV)
	if det := mat.Det(forward); math.Abs(det) < minDeterminant {
		corrected := phiU + degenerateShift
		monitoring.Named("ca").Error().
			Float64("phiU", phiU).Float64("phiV", phiV).Float64("det", det).
			Float64("phiVCorrected", corrected).
			Msg("uv converter: U and V axes are degenerate, shifting V axis")
		phiV = corrected
		forward = frameMatrix(phiU, phiV)
	}

	inverse := mat.NewDense(2, 2, nil)
	if err := inverse.Inverse(forward); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			panic(fmt.Sprintf("ca: inverting uv frame (phiU=%g, phiV=%g): %v", phiU, phiV, err))
		}
		monitoring.Named("ca").Debug().Float64("condition", float64(cond)).
			Msg("uv converter: frame matrix is ill-conditioned")
	}

	c.phiU, c.phiV = phiU, phiV
	c.cosU, c.sinU = forward.At(0, 0), forward.At(0, 1)
	c.cosV, c.sinV = forward.At(1, 0), forward.At(1, 1)
	c.cosX, c.sinX = inverse.At(0, 0), inverse.At(0, 1)
	c.cosY, c.sinY = inverse.At(1, 0), inverse.At(1, 1)
	c.xyToUV = forward
	c.uvToXY = inverse
}

func frameMatrix(phiU, phiV float64) *mat.Dense {
	return mat.NewDense(2, 2, []float64{
		math.Cos(phiU), math.Sin(phiU),
		math.Cos(phiV), math.Sin(phiV),
	})
}

// Angles returns the effective strip angles, after any degeneracy correction.
func (c *UvConverter) Angles() (phiU, phiV float64) {
	return c.phiU, c.phiV
}

// ConvertXYtoUV maps a point into the strip frame.
func (c *UvConverter) ConvertXYtoUV(x, y float64) (u, v float64) {
	return c.cosU*x + c.sinU*y, c.cosV*x + c.sinV*y
}

// ConvertUVtoXY maps a strip frame point back to Cartesian coordinates.
func (c *UvConverter) ConvertUVtoXY(u, v float64) (x, y float64) {
	return c.cosX*u + c.sinX*v, c.cosY*u + c.sinY*v
}

// ConvertCovMatrixXYtoUV propagates an XY covariance into the strip frame.
func (c *UvConverter) ConvertCovMatrixXYtoUV(dx2, dxy, dy2 float64) (du2, duv, dv2 float64) {
	return propagateCov(c.xyToUV, dx2, dxy, dy2)
}

// ConvertCovMatrixUVtoXY propagates a strip frame covariance into XY.
func (c *UvConverter) ConvertCovMatrixUVtoXY(du2, duv, dv2 float64) (dx2, dxy, dy2 float64) {
	return propagateCov(c.uvToXY, du2, duv, dv2)
}

// propagateCov returns the independent terms of J·C·Jᵀ for the symmetric
// C = [[c00, c01], [c01, c11]].
func propagateCov(j *mat.Dense, c00, c01, c11 float64) (float64, float64, float64) {
	cov := mat.NewSymDense(2, []float64{c00, c01, c01, c11})
	var out mat.Dense
	out.Product(j, cov, j.T())
	return out.At(0, 0), out.At(0, 1), out.At(1, 1)
}

func (c *UvConverter) String() string {
	return fmt.Sprintf("UvConverter{phiU: %.6g rad, phiV: %.6g rad, u: (%.6g, %.6g), v: (%.6g, %.6g), x: (%.6g, %.6g), y: (%.6g, %.6g)}",
		c.phiU, c.phiV, c.cosU, c.sinU, c.cosV, c.sinV, c.cosX, c.sinX, c.cosY, c.sinY)
}
