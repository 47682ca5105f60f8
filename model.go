package ensemble

import "time"

// Value-kind tags used on the wire for an RTI dataset's base header
// (spec §4.3.2). PD0 has no equivalent on-wire tag; its data types are
// fixed-format and the value kind is implied by the type ID.
type ValueKind int32

const (
	ValueKindF32 ValueKind = 10
	ValueKindI32 ValueKind = 20
)

// BAD_VELOCITY is the canonical sentinel for a missing/invalid velocity
// component, used consistently across Beam, Instrument, Earth and Ship
// velocity datasets and bottom-track velocity vectors (spec §3).
const BadVelocity float32 = 88.888

// BAD_RANGE is the canonical sentinel for a missing/invalid range value.
const BadRange float32 = 0.0

// Status bitmask flags (spec §3). The remaining bits of the 32-bit mask are
// reserved and not interpreted by this module.
const (
	StatusBtWt3Beam     uint32 = 0x0001
	StatusBtBt3Beam     uint32 = 0x0002
	StatusBtHold        uint32 = 0x0004
	StatusBtSearching   uint32 = 0x0008
	StatusBtHdwrTimeout uint32 = 0x8000
)

// CoordXform identifies the velocity reference frame a dataset's vectors
// are expressed in. PD0 stores it explicitly in Fixed Leader
// (CoordinateTransform); RTI implies it via which dataset name-tag is
// present (BeamVelocity vs InstrumentVelocity vs EarthVelocity).
type CoordXform int

const (
	XformBeam CoordXform = iota
	XformInstrument
	XformEarth
	XformShip
)

// Matrix is an N (depth cell) x B (beam) row-major array of per-cell,
// per-beam measurements. Row i holds all beams for depth cell i.
type Matrix struct {
	NCells int
	NBeams int
	Data   []float32
}

// NewMatrix allocates a zero-valued N x B matrix.
func NewMatrix(nCells, nBeams int) Matrix {
	return Matrix{NCells: nCells, NBeams: nBeams, Data: make([]float32, nCells*nBeams)}
}

// At returns the value for depth cell c, beam b.
func (m Matrix) At(c, b int) float32 {
	return m.Data[c*m.NBeams+b]
}

// Set stores the value for depth cell c, beam b.
func (m *Matrix) Set(c, b int, v float32) {
	m.Data[c*m.NBeams+b] = v
}

// EnsembleMeta is the per-ensemble identity and sizing dataset.
// RTI name-tag E000008.
type EnsembleMeta struct {
	EnsembleNumber uint32
	Year           int
	Month          int
	Day            int
	Hour           int
	Minute         int
	Second         int
	HSec           int // hundredths of a second
	NumBeams       int
	NumCells       int
}

// Timestamp reconstructs the wall-clock time of the ensemble as a
// time.Time in UTC, to the nearest 10ms (the HSec field's resolution).
func (m EnsembleMeta) Timestamp() time.Time {
	ns := m.HSec * 10 * int(time.Millisecond)
	return time.Date(m.Year, time.Month(m.Month), m.Day, m.Hour, m.Minute, m.Second, ns, time.UTC)
}

// Ancillary carries environmental and platform-attitude scalars.
// RTI name-tag E000009.
type Ancillary struct {
	FirstBinRange   float32 // m
	LastBinRange    float32 // m
	BinSize         float32 // m
	FirstPingTime   float32 // s since boot
	LastPingTime    float32 // s since boot
	Heading         float32 // degrees
	Pitch           float32 // degrees
	Roll            float32 // degrees
	WaterTemp       float32 // degC
	SystemTemp      float32 // degC
	Salinity        float32 // ppt
	Pressure        float32 // Pa
	TransducerDepth float32 // m
	SpeedOfSound    float32 // m/s
	RawMagField     [3]float32
	RawAccel        [3]float32
	RawTilt         [3]float32
}

// GoodPingCounts is the triple of good-ping-count matrices (Beam,
// Instrument, Earth), values in [0, PingsPerEnsemble].
type GoodPingCounts struct {
	Beam       Matrix
	Instrument Matrix
	Earth      Matrix
}

// BottomTrack carries the per-beam bottom-detection scalars and the three
// velocity/good-count vector families, plus the environmental duplicates
// the instrument stamps alongside a BT ping.
type BottomTrack struct {
	Range       []float32 // per-beam, m
	SNR         []float32
	Amplitude   []float32
	Correlation []float32

	VelocityBeam       []float32
	VelocityInstrument []float32
	VelocityEarth      []float32
	VelocityShip       []float32

	GoodBeam       []int32
	GoodInstrument []int32
	GoodEarth      []int32

	Heading         float32
	Pitch           float32
	Roll            float32
	WaterTemp       float32
	SystemTemp      float32
	Salinity        float32
	Pressure        float32
	TransducerDepth float32
	SpeedOfSound    float32

	Status          uint32
	FirstPingTime   float32
	LastPingTime    float32
	ActualPingCount int32
}

// SystemSetup carries fixed instrument configuration scalars.
// RTI name-tag E000014.
type SystemSetup struct {
	BinSize        float32
	Blank          float32
	WPPingCount    int32
	BTPingCount    int32
	LagSamples     int32
	CodeRepeats    int32
	TransmitCycles int32
}

// NMEABlock carries the opaque NMEA payload (spec §4.5/§6); no fields are
// parsed out of it here. NMEA sentence parsing is an external collaborator.
type NMEABlock struct {
	Raw []byte
}

// WaterMass is a B-element velocity vector with the depth-layer metadata
// describing where in the water column the water-mass ping reflects off.
type WaterMass struct {
	Velocity   []float32
	DepthLayer float32 // m, nominal layer depth
	Near       float32
	Far        float32
}

// Ensemble is the canonical, value-typed aggregate of every dataset kind
// decoded from (or destined for) a single RTI or PD0 frame. At most one
// instance of each dataset kind is present; nil/zero-value fields mean
// "not present" except where noted.
type Ensemble struct {
	Meta      EnsembleMeta
	Ancillary *Ancillary

	Amplitude   *Matrix
	Correlation *Matrix

	BeamVelocity       *Matrix
	InstrumentVelocity *Matrix
	EarthVelocity      *Matrix
	ShipVelocity       *Matrix

	GoodPings *GoodPingCounts

	BottomTrack *BottomTrack
	SystemSetup *SystemSetup
	NMEA        *NMEABlock

	EarthWaterMass      *WaterMass
	InstrumentWaterMass *WaterMass
}

// NewEnsemble allocates an empty canonical ensemble sized for N depth cells
// and B beams (spec §4.5 "empty-with-(N,B)" constructor). No datasets are
// populated; callers attach the datasets they need.
func NewEnsemble(nCells, nBeams int) Ensemble {
	return Ensemble{Meta: EnsembleMeta{NumBeams: nBeams, NumCells: nCells}}
}

// CheckInvariants validates the structural invariants spec §3 requires of
// a canonical ensemble: B in {1,4}, and every per-beam/per-cell matrix
// dimensioned exactly N x B.
func (e *Ensemble) CheckInvariants() error {
	b := e.Meta.NumBeams
	n := e.Meta.NumCells
	if b != 1 && b != 4 {
		return decodeErr(0, "", ErrInvariant)
	}
	check := func(m *Matrix, name string) error {
		if m == nil {
			return nil
		}
		if m.NCells != n || m.NBeams != b || len(m.Data) != n*b {
			return decodeErr(0, name, ErrInvariant)
		}
		return nil
	}
	if err := check(e.Amplitude, "Amplitude"); err != nil {
		return err
	}
	if err := check(e.Correlation, "Correlation"); err != nil {
		return err
	}
	if err := check(e.BeamVelocity, "BeamVelocity"); err != nil {
		return err
	}
	if err := check(e.InstrumentVelocity, "InstrumentVelocity"); err != nil {
		return err
	}
	if err := check(e.EarthVelocity, "EarthVelocity"); err != nil {
		return err
	}
	if err := check(e.ShipVelocity, "ShipVelocity"); err != nil {
		return err
	}
	if e.GoodPings != nil {
		if err := check(&e.GoodPings.Beam, "GoodPings.Beam"); err != nil {
			return err
		}
		if err := check(&e.GoodPings.Instrument, "GoodPings.Instrument"); err != nil {
			return err
		}
		if err := check(&e.GoodPings.Earth, "GoodPings.Earth"); err != nil {
			return err
		}
	}
	if e.BottomTrack != nil {
		if len(e.BottomTrack.Range) != b {
			return decodeErr(0, "BottomTrack.Range", ErrInvariant)
		}
	}
	return nil
}
