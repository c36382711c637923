package ca

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomSeed(t *testing.T) {
	t.Parallel()

	r := NewRandom(42)
	assert.Equal(t, uint64(42), r.Seed())

	r.SetSeed(0)
	assert.NotZero(t, r.Seed(), "zero seed must be replaced by an entropy seed")

	r.SetSeed(7)
	assert.Equal(t, uint64(7), r.Seed())
}

func TestRandomDeterminism(t *testing.T) {
	t.Parallel()

	draw := func(r *Random) []float64 {
		var out []float64
		for i := 0; i < 200; i++ {
			g, err := r.BoundedGaus(1.5, 0.3, 3)
			require.NoError(t, err)
			u, err := r.Uniform(-2, 0.5)
			require.NoError(t, err)
			out = append(out, g, u)
		}
		return out
	}

	a := draw(NewRandom(12345))
	b := draw(NewRandom(12345))
	require.Len(t, b, len(a))
	for i := range a {
		if math.Float64bits(a[i]) != math.Float64bits(b[i]) {
			t.Fatalf("sample %d differs: %v vs %v", i, a[i], b[i])
		}
	}

	c := draw(NewRandom(54321))
	assert.NotEqual(t, a, c)
}

func TestRandomReseedRestartsSequence(t *testing.T) {
	t.Parallel()

	r := NewRandom(99)
	first, err := r.Uniform(0, 1)
	require.NoError(t, err)

	r.SetSeed(99)
	again, err := r.Uniform(0, 1)
	require.NoError(t, err)
	assert.Equal(t, first, again)
}

func TestBoundedGausBounds(t *testing.T) {
	t.Parallel()

	cases := []struct {
		mean, sigma, nSigmas float64
	}{
		{0, 1, 3},
		{10, 0.01, 1},
		{-5, 2, 0.5},
		{1e3, 50, 0.1},
	}
	r := NewRandom(2024)
	for _, c := range cases {
		limit := c.nSigmas * c.sigma
		for i := 0; i < 2000; i++ {
			x, err := r.BoundedGaus(c.mean, c.sigma, c.nSigmas)
			require.NoError(t, err)
			if math.Abs(x-c.mean) > limit {
				t.Fatalf("BoundedGaus(%g, %g, %g) = %g outside ±%g", c.mean, c.sigma, c.nSigmas, x, limit)
			}
		}
	}
}

func TestUniformBounds(t *testing.T) {
	t.Parallel()

	r := NewRandom(3)
	mean, sigma := 4.0, 0.2
	lo, hi := mean-sigma*math.Sqrt(3), mean+sigma*math.Sqrt(3)

	var sum, sum2 float64
	const n = 20000
	for i := 0; i < n; i++ {
		x, err := r.Uniform(mean, sigma)
		require.NoError(t, err)
		if x < lo || x > hi {
			t.Fatalf("Uniform(%g, %g) = %g outside [%g, %g]", mean, sigma, x, lo, hi)
		}
		sum += x
		sum2 += x * x
	}
	m := sum / n
	sd := math.Sqrt(sum2/n - m*m)
	assert.InDelta(t, mean, m, 0.01)
	assert.InDelta(t, sigma, sd, 0.01)
}

func TestRandomPreconditions(t *testing.T) {
	t.Parallel()

	r := NewRandom(1)
	nan, inf := math.NaN(), math.Inf(1)

	gaus := []struct {
		name                 string
		mean, sigma, nSigmas float64
	}{
		{"zero sigma", 0, 0, 3},
		{"negative sigma", 0, -1, 3},
		{"nan sigma", 0, nan, 3},
		{"inf sigma", 0, inf, 3},
		{"zero nSigmas", 0, 1, 0},
		{"negative nSigmas", 0, 1, -2},
		{"inf nSigmas", 0, 1, inf},
		{"nan mean", nan, 1, 3},
	}
	for _, c := range gaus {
		t.Run("BoundedGaus "+c.name, func(t *testing.T) {
			_, err := r.BoundedGaus(c.mean, c.sigma, c.nSigmas)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidParameter))
		})
	}

	for _, sigma := range []float64{0, -0.5, nan, inf} {
		_, err := r.Uniform(0, sigma)
		assert.ErrorIs(t, err, ErrInvalidParameter)
	}
}
