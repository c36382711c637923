package testutil

import (
	"errors"
	"testing"

	"github.com/cbm-experiment/cbmcore/internal/monitoring"
	"github.com/stretchr/testify/assert"
)

func TestAssertNoError(t *testing.T) {
	t.Parallel()

	// Verify nil error doesn't cause issues
	AssertNoError(t, nil)
}

func TestAssertError(t *testing.T) {
	t.Parallel()

	AssertError(t, errors.New("boom"))
}

func TestAssertFloatNear(t *testing.T) {
	t.Parallel()

	AssertFloatNear(t, 1.0, 1.0+1e-12, 1e-9)
	AssertFloatNear(t, -3.5, -3.5, 0)
}

func TestCaptureLogs(t *testing.T) {
	buf := CaptureLogs(t)

	monitoring.Named("testutil").Debug().Str("key", "value").Msg("captured")

	out := buf.String()
	assert.Contains(t, out, `"message":"captured"`)
	assert.Contains(t, out, `"key":"value"`)
}
