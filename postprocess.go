package ensemble

import (
	"math"

	"github.com/samber/lo"
)

// Post-processing operates on an already-decoded canonical Ensemble (spec
// §4.7): heading correction, ship-speed removal, and the handful of derived
// per-ensemble quantities that downstream consumers otherwise recompute
// from scratch on every read.

// ApplyHeadingOffset adds magnetic declination and instrument mounting
// alignment to the ensemble's heading. Both corrections are purely additive;
// callers are responsible for wrapping the result into [0, 360) themselves
// if that matters downstream (spec §4.7.1: "no wraparound is performed by
// this step").
func ApplyHeadingOffset(ens *Ensemble, magneticDeclination, alignment float32) {
	if ens.Ancillary == nil {
		return
	}
	ens.Ancillary.Heading += magneticDeclination + alignment
	if ens.BottomTrack != nil {
		ens.BottomTrack.Heading += magneticDeclination + alignment
	}
}

// ShipVelocity is an over-ground velocity triple in the Earth frame.
type ShipVelocity struct {
	East, North, Vertical float32
}

// RemoveShipSpeed subtracts the platform's own over-ground motion from the
// ensemble's Earth velocity matrix, trying sources in priority order (spec
// §4.7.2): bottom track first, then GPS VTG, then the caller-supplied
// previous good fix. It reports false and leaves the ensemble unmodified if
// none of useBT, useGPS or prevGood yields a usable source.
//
// Bottom track alone uses addition rather than subtraction: the BT
// velocity's sign convention relative to water velocity is inverted,
// the only such exception among the three sources.
func RemoveShipSpeed(
	ens *Ensemble,
	prevGood ShipVelocity, havePrevGood bool,
	useBT bool,
	useGPS bool, gpsSpeed, gpsHeading, gpsHeadingOffset float32, gpsValid bool,
	allow3BeamSolution bool,
) (ShipVelocity, bool) {
	if ens.EarthVelocity == nil {
		return ShipVelocity{}, false
	}

	if useBT && ens.BottomTrack != nil && bottomTrackVelocityUsable(ens.BottomTrack, allow3BeamSolution) {
		sv := ShipVelocity{
			East:     ens.BottomTrack.VelocityEarth[0],
			North:    ens.BottomTrack.VelocityEarth[1],
			Vertical: ens.BottomTrack.VelocityEarth[2],
		}
		addShipVelocity(ens.EarthVelocity, sv)
		return sv, true
	}

	if useGPS && gpsValid {
		heading := (gpsHeading + gpsHeadingOffset) * float32(math.Pi) / 180.0
		sv := ShipVelocity{
			East:     gpsSpeed * float32(math.Sin(float64(heading))),
			North:    gpsSpeed * float32(math.Cos(float64(heading))),
			Vertical: bottomTrackVerticalFallback(ens.BottomTrack),
		}
		subtractShipVelocity(ens.EarthVelocity, sv)
		return sv, true
	}

	if havePrevGood {
		subtractShipVelocity(ens.EarthVelocity, prevGood)
		return prevGood, true
	}

	return ShipVelocity{}, false
}

// bottomTrackVerticalFallback returns bt's Earth-frame vertical velocity
// component when bt is present and that component is a valid reading
// (spec §4.7.2 step 2: "Vertical falls back to bottom-track vertical if
// available, else 0"), otherwise 0.
func bottomTrackVerticalFallback(bt *BottomTrack) float32 {
	if bt == nil || len(bt.VelocityEarth) < 3 {
		return 0
	}
	if bt.VelocityEarth[2] == BadVelocity {
		return 0
	}
	return bt.VelocityEarth[2]
}

func bottomTrackVelocityUsable(bt *BottomTrack, allow3BeamSolution bool) bool {
	if len(bt.VelocityEarth) < 3 {
		return false
	}
	if bt.Status&StatusBtHdwrTimeout != 0 {
		return false
	}
	if bt.Status&StatusBtWt3Beam != 0 && !allow3BeamSolution {
		return false
	}
	for _, v := range bt.VelocityEarth[:3] {
		if v == BadVelocity {
			return false
		}
	}
	// Q (the fourth, error-velocity component) must also read good when
	// present, independent of the 3-beam-solution status bit: a fix can
	// carry a bad Q without that bit being set.
	if len(bt.VelocityEarth) >= 4 && bt.VelocityEarth[3] == BadVelocity {
		return false
	}
	return true
}

func addShipVelocity(m *Matrix, sv ShipVelocity) {
	applyShipVelocity(m, sv, 1)
}

func subtractShipVelocity(m *Matrix, sv ShipVelocity) {
	applyShipVelocity(m, sv, -1)
}

// applyShipVelocity corrects beam index 0 (East), 1 (North) and 2 (Vertical)
// of every cell by sign*sv; beam index 3 (Error velocity) is untouched.
func applyShipVelocity(m *Matrix, sv ShipVelocity, sign float32) {
	components := [3]float32{sv.East, sv.North, sv.Vertical}
	for c := 0; c < m.NCells; c++ {
		for b := 0; b < m.NBeams && b < 3; b++ {
			v := m.At(c, b)
			if v == BadVelocity {
				continue
			}
			m.Set(c, b, v+sign*components[b])
		}
	}
}

// Magnitude returns the horizontal current speed from East/North
// components.
func Magnitude(east, north float32) float32 {
	return float32(math.Hypot(float64(east), float64(north)))
}

// DirectionOrder selects the argument order atan2 is evaluated with,
// since different downstream consumers of this module disagree on whether
// "direction" means bearing-from-north or standard mathematical angle.
type DirectionOrder int

const (
	// DirectionNorthEast computes atan2(East, North): 0 deg = true north,
	// increasing clockwise. This is the oceanographic convention.
	DirectionNorthEast DirectionOrder = iota
	// DirectionEastNorth computes atan2(North, East): 0 deg = east,
	// increasing counter-clockwise. This is the mathematical convention.
	DirectionEastNorth
)

// Direction returns the current direction in degrees, normalised to
// [0, 360).
func Direction(east, north float32, order DirectionOrder) float32 {
	var rad float64
	switch order {
	case DirectionNorthEast:
		rad = math.Atan2(float64(east), float64(north))
	default:
		rad = math.Atan2(float64(north), float64(east))
	}
	deg := rad * 180.0 / math.Pi
	if deg < 0 {
		deg += 360.0
	}
	return float32(deg)
}

// AverageRange averages the per-beam bottom-track ranges, excluding any
// beam reading BAD_RANGE. It returns BAD_RANGE itself if fewer than two
// beams are good (spec §4.7.3).
func AverageRange(rangePerBeam []float32) float32 {
	good := lo.Filter(rangePerBeam, func(v float32, _ int) bool { return v != BadRange })
	if len(good) < 2 {
		return BadRange
	}
	var sum float32
	for _, v := range good {
		sum += v
	}
	return sum / float32(len(good))
}

// RangeBin converts an average range into a depth-cell index using the
// ensemble's bin size, returning -1 when the range is BAD_RANGE or binSize
// is non-positive.
func RangeBin(avgRange, binSize float32) int {
	if avgRange == BadRange || binSize <= 0 {
		return -1
	}
	return int(roundHalfAwayFromZero(float64(avgRange / binSize)))
}
