package ensemble

// NMEA ingestion (spec §4.5/§6). RTI instruments emit a proprietary
// "$PRTI" NMEA sentence family alongside the binary ensemble that carries a
// bottom-track-like fix: four velocity components and a single depth
// reading. Sentence tokenising itself is out of scope for this module (an
// external NMEA parser's job); FromNMEA takes already-split numeric fields
// and builds the canonical dataset that fix would have occupied inside a
// decoded ensemble.

// NMEAKind distinguishes the coordinate frame a $PRTI sentence's velocity
// fields are expressed in.
type NMEAKind int

const (
	// NMEAKindInstrument is the $PRTI01 sentence: X/Y/Z/Q in the
	// instrument frame.
	NMEAKindInstrument NMEAKind = iota
	// NMEAKindEarth is the $PRTI02 sentence: East/North/Vertical/Error in
	// the earth frame.
	NMEAKindEarth
)

// BadDVL is the sentinel a $PRTI velocity field carries when the bottom
// fix is invalid, in the sentence's native mm/s units.
const BadDVL float32 = -32768

// NMEAFields holds one $PRTI sentence's numeric payload, already split out
// of the ASCII sentence by the caller.
type NMEAFields struct {
	X, Y, Z, Q              float32 // mm/s, sentinel BadDVL
	Depth                   float32 // m
	SystemStatus            uint32
	WaterTempCentiDeg       int32 // hundredths of a degree C
	FirstPingTimeHundredths int32 // hundredths of a second
}

// FromNMEA builds a canonical Ensemble carrying only a BottomTrack dataset
// (velocity, range, status, water temperature and first-ping time) from a
// $PRTI sentence; no Ancillary dataset is attached. The result has B=4 (DVL
// bottom-track fixes are always four-component) and N=0 (no profile data).
func FromNMEA(kind NMEAKind, fields NMEAFields) (Ensemble, error) {
	ens := NewEnsemble(0, 4)

	vel := make([]float32, 4)
	for i, raw := range [4]float32{fields.X, fields.Y, fields.Z, fields.Q} {
		if raw == BadDVL {
			vel[i] = BadVelocity
		} else {
			vel[i] = raw / 1000.0
		}
	}

	rng := [4]float32{fields.Depth, fields.Depth, fields.Depth, fields.Depth}

	bt := BottomTrack{
		Range:         rng[:],
		Status:        fields.SystemStatus,
		WaterTemp:     float32(fields.WaterTempCentiDeg) / 100.0,
		FirstPingTime: float32(fields.FirstPingTimeHundredths) / 100.0,
	}
	switch kind {
	case NMEAKindInstrument:
		bt.VelocityInstrument = vel
	case NMEAKindEarth:
		bt.VelocityEarth = vel
	}
	ens.BottomTrack = &bt

	return ens, nil
}
