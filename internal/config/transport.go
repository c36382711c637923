package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/cbm-experiment/cbmcore/internal/cbm"
)

// DefaultConfigPath is the path to the canonical transport defaults file.
const DefaultConfigPath = "config/transport.defaults.json"

// Defaults applied by the Get* accessors when a field is unset.
const (
	DefaultMinDeterminant = 1e-4
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "console"
)

// TransportConfig is the root configuration of a simulation/reconstruction
// job. Every field is optional; unset fields fall back to the defaults
// returned by the Get* accessors, so partial files are safe.
type TransportConfig struct {
	StackFilter *StackFilterConfig `json:"stack_filter,omitempty"`
	Random      *RandomConfig      `json:"random,omitempty"`
	UV          *UVConfig          `json:"uv,omitempty"`
	MCData      *MCDataConfig      `json:"mcdata,omitempty"`
	Log         *LogConfig         `json:"log,omitempty"`
}

// StackFilterConfig mirrors the stack filter options.
type StackFilterConfig struct {
	StoreAllPrimaries *bool                `json:"store_all_primaries,omitempty"`
	StoreAllMothers   *bool                `json:"store_all_mothers,omitempty"`
	StoreAllDecays    *bool                `json:"store_all_decays,omitempty"`
	MinNofPoints      map[cbm.ModuleID]int `json:"min_nof_points,omitempty"`
	MinEkin           *float64             `json:"min_ekin,omitempty"` // GeV, 0 disables the cut
}

// RandomConfig seeds the sampling generator. Seed 0 draws from entropy.
type RandomConfig struct {
	Seed *uint64 `json:"seed,omitempty"`
}

// UVConfig tunes the strip frame converter.
type UVConfig struct {
	MinDeterminant *float64 `json:"min_determinant,omitempty"`
}

// MCDataConfig lists the MC branches to open and, per input slot, the chain
// files to read.
type MCDataConfig struct {
	Branches []string   `json:"branches,omitempty"`
	Slots    [][]string `json:"slots,omitempty"`
}

// LogConfig selects the root logger level and format.
type LogConfig struct {
	Level  *string `json:"level,omitempty"`
	Format *string `json:"format,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrUint64(v uint64) *uint64    { return &v }

// EmptyTransportConfig returns a TransportConfig with all fields unset.
func EmptyTransportConfig() *TransportConfig {
	return &TransportConfig{}
}

// LoadTransportConfig loads a TransportConfig from a JSON file.
// The file must have a .json extension and be at most 1MB.
func LoadTransportConfig(path string) (*TransportConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTransportConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath,
// searching the current directory and its parents. Panics if the file cannot
// be loaded, intended for test setup.
func MustLoadDefaultConfig() *TransportConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,       // from internal/config/
		"../../../" + DefaultConfigPath,    // from internal/mcdata/sqlitechain/
		"../../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadTransportConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *TransportConfig) Validate() error {
	if sf := c.StackFilter; sf != nil {
		for system, n := range sf.MinNofPoints {
			if !system.IsSystem() {
				return fmt.Errorf("min_nof_points: %s is not a detector system", system)
			}
			if n < 0 {
				return fmt.Errorf("min_nof_points for %s must be non-negative, got %d", system, n)
			}
		}
		if sf.MinEkin != nil {
			if math.IsNaN(*sf.MinEkin) || math.IsInf(*sf.MinEkin, 0) || *sf.MinEkin < 0 {
				return fmt.Errorf("min_ekin must be a finite non-negative number, got %g", *sf.MinEkin)
			}
		}
	}

	if c.UV != nil && c.UV.MinDeterminant != nil {
		if d := *c.UV.MinDeterminant; !(d > 0) || math.IsInf(d, 0) {
			return fmt.Errorf("uv.min_determinant must be positive, got %g", d)
		}
	}

	if md := c.MCData; md != nil {
		for i, b := range md.Branches {
			if b == "" {
				return fmt.Errorf("mcdata.branches[%d] is empty", i)
			}
		}
		for i, slot := range md.Slots {
			for j, f := range slot {
				if f == "" {
					return fmt.Errorf("mcdata.slots[%d][%d] is empty", i, j)
				}
			}
		}
	}

	if c.Log != nil && c.Log.Format != nil {
		switch *c.Log.Format {
		case "console", "json":
		default:
			return fmt.Errorf("log.format must be console or json, got %q", *c.Log.Format)
		}
	}

	return nil
}

// GetStoreAllPrimaries returns stack_filter.store_all_primaries or the default.
func (c *TransportConfig) GetStoreAllPrimaries() bool {
	if c.StackFilter == nil || c.StackFilter.StoreAllPrimaries == nil {
		return true // default
	}
	return *c.StackFilter.StoreAllPrimaries
}

// GetStoreAllMothers returns stack_filter.store_all_mothers or the default.
func (c *TransportConfig) GetStoreAllMothers() bool {
	if c.StackFilter == nil || c.StackFilter.StoreAllMothers == nil {
		return true // default
	}
	return *c.StackFilter.StoreAllMothers
}

// GetStoreAllDecays returns stack_filter.store_all_decays or the default.
func (c *TransportConfig) GetStoreAllDecays() bool {
	if c.StackFilter == nil || c.StackFilter.StoreAllDecays == nil {
		return false // default
	}
	return *c.StackFilter.StoreAllDecays
}

// GetMinNofPoints returns the configured point threshold for a system and
// whether one was set. Unset systems keep the filter's built-in default.
func (c *TransportConfig) GetMinNofPoints(system cbm.ModuleID) (int, bool) {
	if c.StackFilter == nil {
		return 0, false
	}
	n, ok := c.StackFilter.MinNofPoints[system]
	return n, ok
}

// GetMinEkin returns stack_filter.min_ekin or the default (0, disabled).
func (c *TransportConfig) GetMinEkin() float64 {
	if c.StackFilter == nil || c.StackFilter.MinEkin == nil {
		return 0 // default
	}
	return *c.StackFilter.MinEkin
}

// GetSeed returns random.seed or the default (0, entropy).
func (c *TransportConfig) GetSeed() uint64 {
	if c.Random == nil || c.Random.Seed == nil {
		return 0 // default
	}
	return *c.Random.Seed
}

// GetMinDeterminant returns uv.min_determinant or the default.
func (c *TransportConfig) GetMinDeterminant() float64 {
	if c.UV == nil || c.UV.MinDeterminant == nil {
		return DefaultMinDeterminant
	}
	return *c.UV.MinDeterminant
}

// GetBranches returns the configured MC branch names.
func (c *TransportConfig) GetBranches() []string {
	if c.MCData == nil {
		return nil
	}
	return c.MCData.Branches
}

// GetSlots returns the configured per-slot chain file lists.
func (c *TransportConfig) GetSlots() [][]string {
	if c.MCData == nil {
		return nil
	}
	return c.MCData.Slots
}

// GetLogLevel returns log.level or the default.
func (c *TransportConfig) GetLogLevel() string {
	if c.Log == nil || c.Log.Level == nil || *c.Log.Level == "" {
		return DefaultLogLevel
	}
	return *c.Log.Level
}

// GetLogFormat returns log.format or the default.
func (c *TransportConfig) GetLogFormat() string {
	if c.Log == nil || c.Log.Format == nil || *c.Log.Format == "" {
		return DefaultLogFormat
	}
	return *c.Log.Format
}
