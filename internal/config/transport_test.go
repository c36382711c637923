package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cbm-experiment/cbmcore/internal/cbm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestEmptyTransportConfigDefaults(t *testing.T) {
	cfg := EmptyTransportConfig()

	assert.True(t, cfg.GetStoreAllPrimaries())
	assert.True(t, cfg.GetStoreAllMothers())
	assert.False(t, cfg.GetStoreAllDecays())
	assert.Equal(t, 0.0, cfg.GetMinEkin())
	assert.Equal(t, uint64(0), cfg.GetSeed())
	assert.Equal(t, DefaultMinDeterminant, cfg.GetMinDeterminant())
	assert.Equal(t, "info", cfg.GetLogLevel())
	assert.Equal(t, "console", cfg.GetLogFormat())
	assert.Nil(t, cfg.GetBranches())
	assert.Nil(t, cfg.GetSlots())

	_, ok := cfg.GetMinNofPoints(cbm.Sts)
	assert.False(t, ok)
	assert.NoError(t, cfg.Validate())
}

func TestMustLoadDefaultConfig(t *testing.T) {
	cfg := MustLoadDefaultConfig()

	assert.True(t, cfg.GetStoreAllPrimaries())
	assert.True(t, cfg.GetStoreAllMothers())
	assert.False(t, cfg.GetStoreAllDecays())
	n, ok := cfg.GetMinNofPoints(cbm.Psd)
	require.True(t, ok)
	assert.Equal(t, 5, n)
	assert.Equal(t, 1e-4, cfg.GetMinDeterminant())
}

func TestLoadTransportConfig(t *testing.T) {
	path := writeConfig(t, "job.json", `{
  "stack_filter": {
    "store_all_primaries": false,
    "store_all_decays": true,
    "min_nof_points": {"sts": 4, "TOF": 2},
    "min_ekin": 0.05
  },
  "random": {"seed": 12345},
  "mcdata": {
    "branches": ["MCTrack", "StsPoint"],
    "slots": [["sig_0.db", "sig_1.db"], [], ["bg_0.db"]]
  },
  "log": {"level": "debug", "format": "json"}
}`)

	cfg, err := LoadTransportConfig(path)
	require.NoError(t, err)

	assert.False(t, cfg.GetStoreAllPrimaries())
	assert.True(t, cfg.GetStoreAllMothers(), "unset field keeps default")
	assert.True(t, cfg.GetStoreAllDecays())
	assert.Equal(t, 0.05, cfg.GetMinEkin())
	assert.Equal(t, uint64(12345), cfg.GetSeed())

	n, ok := cfg.GetMinNofPoints(cbm.Sts)
	require.True(t, ok)
	assert.Equal(t, 4, n)
	n, ok = cfg.GetMinNofPoints(cbm.Tof)
	require.True(t, ok)
	assert.Equal(t, 2, n)

	assert.Equal(t, []string{"MCTrack", "StsPoint"}, cfg.GetBranches())
	require.Len(t, cfg.GetSlots(), 3)
	assert.Empty(t, cfg.GetSlots()[1])
	assert.Equal(t, "debug", cfg.GetLogLevel())
	assert.Equal(t, "json", cfg.GetLogFormat())
}

func TestLoadTransportConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		body    string
		wantErr string
	}{
		{"wrong extension", "job.yaml", `{}`, ".json extension"},
		{"bad json", "job.json", `{"stack_filter": `, "failed to parse"},
		{"unknown system", "job.json", `{"stack_filter": {"min_nof_points": {"nope": 1}}}`, "failed to parse"},
		{"passive module", "job.json", `{"stack_filter": {"min_nof_points": {"magnet": 1}}}`, "not a detector system"},
		{"negative points", "job.json", `{"stack_filter": {"min_nof_points": {"sts": -1}}}`, "non-negative"},
		{"negative ekin", "job.json", `{"stack_filter": {"min_ekin": -0.1}}`, "min_ekin"},
		{"zero determinant", "job.json", `{"uv": {"min_determinant": 0}}`, "min_determinant"},
		{"empty branch", "job.json", `{"mcdata": {"branches": [""]}}`, "branches[0]"},
		{"empty file", "job.json", `{"mcdata": {"slots": [["a.db", ""]]}}`, "slots[0][1]"},
		{"bad format", "job.json", `{"log": {"format": "xml"}}`, "log.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.file, tt.body)
			_, err := LoadTransportConfig(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadTransportConfigMissingFile(t *testing.T) {
	_, err := LoadTransportConfig(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to stat")
}

func TestLoadTransportConfigTooLarge(t *testing.T) {
	body := `{"mcdata": {"branches": ["` + strings.Repeat("x", 1024*1024) + `"]}}`
	path := writeConfig(t, "big.json", body)

	_, err := LoadTransportConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")
}

func TestValidateDirect(t *testing.T) {
	cfg := &TransportConfig{
		StackFilter: &StackFilterConfig{
			StoreAllPrimaries: ptrBool(true),
			MinEkin:           ptrFloat64(0.1),
		},
		Random: &RandomConfig{Seed: ptrUint64(7)},
		UV:     &UVConfig{MinDeterminant: ptrFloat64(1e-6)},
	}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, uint64(7), cfg.GetSeed())
	assert.Equal(t, 1e-6, cfg.GetMinDeterminant())
}
