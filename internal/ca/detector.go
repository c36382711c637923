package ca

import "fmt"

// DetectorID enumerates the detectors that feed hits into CA tracking.
type DetectorID int

const (
	DetMvd DetectorID = iota
	DetSts
	DetMuch
	DetTrd
	DetTof

	NofDetectors = int(DetTof) + 1
)

func (d DetectorID) String() string {
	switch d {
	case DetMvd:
		return "MVD"
	case DetSts:
		return "STS"
	case DetMuch:
		return "MuCh"
	case DetTrd:
		return "TRD"
	case DetTof:
		return "TOF"
	}
	return fmt.Sprintf("det(%d)", int(d))
}

// dataStreamShift places the detector id in the top bits of a data stream.
const dataStreamShift = 60

// DataStream packs a detector id and a hardware address into the 64-bit
// stream identifier carried by a HitRecord.
func DataStream(det DetectorID, address uint32) int64 {
	return int64(det)<<dataStreamShift | int64(address)
}

// StreamDetector recovers the detector id from a data stream.
func StreamDetector(stream int64) DetectorID {
	return DetectorID(stream >> dataStreamShift)
}

// StreamAddress recovers the hardware address from a data stream.
func StreamAddress(stream int64) uint32 {
	return uint32(stream & (1<<32 - 1))
}
