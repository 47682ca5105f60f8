package ensemble

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePD0Ensemble() Ensemble {
	ens := NewEnsemble(2, 4)
	ens.Meta.EnsembleNumber = 7
	ens.Meta.Year, ens.Meta.Month, ens.Meta.Day = 2023, 3, 10
	ens.Meta.Hour, ens.Meta.Minute, ens.Meta.Second, ens.Meta.HSec = 1, 2, 3, 40

	ens.Ancillary = &Ancillary{
		FirstBinRange: 2.0, BinSize: 1.0,
		Heading: 10.0, Pitch: 1.0, Roll: -1.0,
		Salinity: 35, WaterTemp: 15.0, Pressure: 200000,
		TransducerDepth: 5.0, SpeedOfSound: 1500,
	}
	ens.SystemSetup = &SystemSetup{WPPingCount: 10}

	earth := NewMatrix(2, 4)
	for c := 0; c < 2; c++ {
		for b := 0; b < 4; b++ {
			earth.Set(c, b, float32(c+b)*0.1)
		}
	}
	ens.EarthVelocity = &earth

	corr := NewMatrix(2, 4)
	for i := range corr.Data {
		corr.Data[i] = 0.5
	}
	ens.Correlation = &corr

	amp := NewMatrix(2, 4)
	for i := range amp.Data {
		amp.Data[i] = float32(i) * 10
	}
	ens.Amplitude = &amp

	ens.GoodPings = &GoodPingCounts{Earth: NewMatrix(2, 4)}
	for i := range ens.GoodPings.Earth.Data {
		ens.GoodPings.Earth.Data[i] = 5
	}

	return ens
}

func TestPD0RoundTripEarthFrame(t *testing.T) {
	ens := samplePD0Ensemble()
	frame := EncodePD0(ens, XformEarth)

	assert.Equal(t, byte(pd0SyncByte), frame[0])
	assert.Equal(t, byte(pd0SyncByte), frame[1])

	decoded, err := DecodePD0(frame)
	require.NoError(t, err)

	assert.Equal(t, ens.Meta.EnsembleNumber, decoded.Meta.EnsembleNumber)
	assert.Equal(t, ens.Meta.Year, decoded.Meta.Year)
	assert.Equal(t, ens.Meta.NumCells, decoded.Meta.NumCells)
	assert.Equal(t, ens.Meta.NumBeams, decoded.Meta.NumBeams)

	require.NotNil(t, decoded.EarthVelocity)
	for i := range ens.EarthVelocity.Data {
		assert.InDelta(t, ens.EarthVelocity.Data[i], decoded.EarthVelocity.Data[i], 0.001)
	}

	require.NotNil(t, decoded.Correlation)
	for i := range ens.Correlation.Data {
		assert.InDelta(t, ens.Correlation.Data[i], decoded.Correlation.Data[i], 0.01)
	}
}

// Echo Intensity is deliberately lossy: reads scale by 0.45 dB/count, writes
// by 0.5 dB/count, so round-tripping a value through encode then decode
// changes it by a fixed 0.45/0.5 ratio rather than reproducing it exactly.
func TestPD0EchoIntensityAsymmetry(t *testing.T) {
	ens := samplePD0Ensemble()
	frame := EncodePD0(ens, XformEarth)
	decoded, err := DecodePD0(frame)
	require.NoError(t, err)

	for i := range ens.Amplitude.Data {
		want := ens.Amplitude.Data[i] * 0.45 / 0.5
		assert.InDelta(t, want, decoded.Amplitude.Data[i], 0.5)
	}
}

func TestPD0InstrumentZSignFlipRoundTrip(t *testing.T) {
	ens := samplePD0Ensemble()
	ens.EarthVelocity = nil
	inst := NewMatrix(2, 4)
	for c := 0; c < 2; c++ {
		for b := 0; b < 4; b++ {
			inst.Set(c, b, float32(c+b)*0.1)
		}
	}
	ens.InstrumentVelocity = &inst

	// Canonical Z travels negated in PD0 beam slot 2 and is negated back on
	// decode; only Z (canonical beam 2) is checked here.
	frame := EncodePD0(ens, XformInstrument)
	decoded, err := DecodePD0(frame)
	require.NoError(t, err)

	require.NotNil(t, decoded.InstrumentVelocity)
	for c := 0; c < 2; c++ {
		assert.InDelta(t, inst.At(c, 2), decoded.InstrumentVelocity.At(c, 2), 0.001)
	}
}

func TestPD0BadChecksumDetected(t *testing.T) {
	frame := EncodePD0(samplePD0Ensemble(), XformEarth)
	frame[len(frame)-1] ^= 0xFF
	_, err := DecodePD0(frame)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBadChecksum))
}

func TestPD0TruncatedFrame(t *testing.T) {
	frame := EncodePD0(samplePD0Ensemble(), XformEarth)
	_, err := DecodePD0(frame[:len(frame)-5])
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTruncated))
}

func TestPD0NotAFrame(t *testing.T) {
	_, err := DecodePD0([]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotPD0Frame))
}

func TestPD0BeamPermutationLaw(t *testing.T) {
	pd0Order := [4]float32{100, 200, -50, 0}
	canon := permToCanonical(pd0Order)
	// perm[pd0Beam] = canonicalBeam, so canon[perm[p]] == pd0Order[p].
	for p := 0; p < 4; p++ {
		assert.Equal(t, pd0Order[p], canon[pd0BeamPermutation[p]])
	}
	back := permToPD0(canon)
	assert.Equal(t, pd0Order, back)
}

func TestPD0PercentGoodSentinel(t *testing.T) {
	n, bm := 1, 4
	body := []byte{0xFF, 50, 50, 50}
	ens := &Ensemble{}
	err := decodePD0PercentGood(ens, body, n, bm, 100, XformBeam)
	require.NoError(t, err)
	// The 0xFF byte on PD0 beam 0 lands in canonical beam 3; check that the
	// sentinel maps to a count of 0 somewhere in the decoded row.
	found := false
	for _, v := range ens.GoodPings.Beam.Data {
		if v == 0 {
			found = true
		}
	}
	assert.True(t, found)
}
