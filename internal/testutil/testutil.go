// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers to reduce code duplication
// across test files and improve test maintainability.
package testutil

import (
	"bytes"
	"math"
	"sync"
	"testing"

	"github.com/cbm-experiment/cbmcore/internal/monitoring"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t testing.TB, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// AssertFloatNear fails the test if got and want differ by more than tol.
func AssertFloatNear(t testing.TB, got, want, tol float64) {
	t.Helper()
	if math.IsNaN(got) || math.Abs(got-want) > tol {
		t.Errorf("got %.12g, want %.12g (tol %g)", got, want, tol)
	}
}

// LogBuffer is a goroutine-safe sink for captured log output.
type LogBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *LogBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// String returns everything written so far.
func (b *LogBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// CaptureLogs routes the root logger into a buffer at debug level as JSON
// lines and restores the default logger when the test finishes. Tests that
// use it must not run in parallel with other log-capturing tests.
func CaptureLogs(t testing.TB) *LogBuffer {
	t.Helper()
	buf := &LogBuffer{}
	monitoring.Init(monitoring.Options{Level: "debug", Format: "json", Writer: buf})
	t.Cleanup(func() {
		monitoring.Init(monitoring.Options{Level: "info"})
	})
	return buf
}
