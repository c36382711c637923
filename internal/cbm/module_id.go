package cbm

import (
	"fmt"
	"strings"
)

// ModuleID identifies a detector system or passive module.
type ModuleID int

// Detector systems come first and are contiguous, followed by the passive
// modules. NotExist marks an invalid id.
const (
	Ref ModuleID = iota
	Mvd
	Sts
	Rich
	Much
	Trd
	Tof
	Ecal
	Psd
	Hodo
	Dummy
	Bmon
	Trd2d
	Fsd
	Magnet
	Target
	Pipe
	Shield
	Platform
	Cave

	NotExist ModuleID = -1
)

// NofSystems is the number of detector systems, Ref included.
const NofSystems = int(Fsd) + 1

var moduleNames = [...]string{
	Ref:      "ref",
	Mvd:      "mvd",
	Sts:      "sts",
	Rich:     "rich",
	Much:     "much",
	Trd:      "trd",
	Tof:      "tof",
	Ecal:     "ecal",
	Psd:      "psd",
	Hodo:     "hodo",
	Dummy:    "dummy",
	Bmon:     "bmon",
	Trd2d:    "trd2d",
	Fsd:      "fsd",
	Magnet:   "magnet",
	Target:   "target",
	Pipe:     "pipe",
	Shield:   "shield",
	Platform: "platform",
	Cave:     "cave",
}

// Systems returns the detector systems that can record MC points, in
// enumeration order. The reference plane is not a detector and is excluded.
func Systems() []ModuleID {
	out := make([]ModuleID, 0, NofSystems-1)
	for m := Mvd; m <= Fsd; m++ {
		out = append(out, m)
	}
	return out
}

// IsSystem reports whether m is a detector system (Ref included).
func (m ModuleID) IsSystem() bool {
	return m >= Ref && m <= Fsd
}

// IsValid reports whether m is a declared module.
func (m ModuleID) IsValid() bool {
	return m >= Ref && m <= Cave
}

func (m ModuleID) String() string {
	if !m.IsValid() {
		return fmt.Sprintf("module(%d)", int(m))
	}
	return moduleNames[m]
}

// ParseModuleID converts a case-insensitive module name to its id.
func ParseModuleID(s string) (ModuleID, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range moduleNames {
		if n == name {
			return ModuleID(i), nil
		}
	}
	return NotExist, fmt.Errorf("unknown module %q", s)
}

// MarshalText encodes the module by name so it can key JSON objects.
func (m ModuleID) MarshalText() ([]byte, error) {
	if !m.IsValid() {
		return nil, fmt.Errorf("cannot marshal invalid module id %d", int(m))
	}
	return []byte(moduleNames[m]), nil
}

// UnmarshalText decodes a module name.
func (m *ModuleID) UnmarshalText(text []byte) error {
	id, err := ParseModuleID(string(text))
	if err != nil {
		return err
	}
	*m = id
	return nil
}
