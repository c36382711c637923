package cbm

import (
	"fmt"
	"strings"
)

// Process is the production mechanism of a simulated particle as reported by
// the transport engine.
type Process int

const (
	ProcessUnknown Process = iota
	ProcessPrimary
	ProcessDecay
	ProcessHadronic
	ProcessPairProduction
	ProcessCompton
	ProcessPhotoelectric
	ProcessDeltaRay
	ProcessAnnihilation
	ProcessBremsstrahlung
)

func (p Process) String() string {
	switch p {
	case ProcessUnknown:
		return "unknown"
	case ProcessPrimary:
		return "primary"
	case ProcessDecay:
		return "decay"
	case ProcessHadronic:
		return "hadronic"
	case ProcessPairProduction:
		return "pair-production"
	case ProcessCompton:
		return "compton"
	case ProcessPhotoelectric:
		return "photoelectric"
	case ProcessDeltaRay:
		return "delta-ray"
	case ProcessAnnihilation:
		return "annihilation"
	case ProcessBremsstrahlung:
		return "bremsstrahlung"
	}
	return fmt.Sprintf("process(%d)", int(p))
}

// ParseProcess converts a process name as printed by String.
func ParseProcess(s string) (Process, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for p := ProcessUnknown; p <= ProcessBremsstrahlung; p++ {
		if p.String() == name {
			return p, nil
		}
	}
	return ProcessUnknown, fmt.Errorf("unknown process %q", s)
}

func (p Process) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Process) UnmarshalText(text []byte) error {
	v, err := ParseProcess(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}
