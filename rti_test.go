package ensemble

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRTIEnsemble() Ensemble {
	ens := NewEnsemble(3, 4)
	ens.Meta.EnsembleNumber = 42
	ens.Meta.Year, ens.Meta.Month, ens.Meta.Day = 2024, 6, 15
	ens.Meta.Hour, ens.Meta.Minute, ens.Meta.Second, ens.Meta.HSec = 10, 20, 30, 5

	ens.Ancillary = &Ancillary{
		FirstBinRange: 1.0, LastBinRange: 3.0, BinSize: 1.0,
		Heading: 45.5, Pitch: 1.2, Roll: -0.5,
		WaterTemp: 12.3, Salinity: 35, Pressure: 101325,
	}

	vel := NewMatrix(3, 4)
	for c := 0; c < 3; c++ {
		for b := 0; b < 4; b++ {
			vel.Set(c, b, float32(c*4+b)*0.01)
		}
	}
	ens.EarthVelocity = &vel

	amp := NewMatrix(3, 4)
	for i := range amp.Data {
		amp.Data[i] = float32(i)
	}
	ens.Amplitude = &amp

	ens.GoodPings = &GoodPingCounts{Earth: NewMatrix(3, 4)}
	for i := range ens.GoodPings.Earth.Data {
		ens.GoodPings.Earth.Data[i] = float32(i)
	}

	four := []float32{0, 0, 0, 0}
	fourI := []int32{0, 0, 0, 0}
	ens.BottomTrack = &BottomTrack{
		Range:              []float32{10, 10, 10, 10},
		SNR:                four,
		Amplitude:          four,
		Correlation:        four,
		VelocityBeam:       four,
		VelocityInstrument: four,
		VelocityEarth:      []float32{0.1, 0.2, 0.05, 0},
		VelocityShip:       four,
		GoodBeam:           fourI,
		GoodInstrument:     fourI,
		GoodEarth:          fourI,
		Status:             0,
	}

	return ens
}

func TestRTIRoundTrip(t *testing.T) {
	ens := sampleRTIEnsemble()
	frame := EncodeRTI(ens)

	require.True(t, isRTIHeader(frame))
	decoded, err := DecodeRTI(frame)
	require.NoError(t, err)

	assert.Equal(t, ens.Meta, decoded.Meta)
	assert.Equal(t, ens.Ancillary, decoded.Ancillary)
	assert.Equal(t, ens.EarthVelocity.Data, decoded.EarthVelocity.Data)
	assert.Equal(t, ens.Amplitude.Data, decoded.Amplitude.Data)
	assert.Equal(t, ens.GoodPings.Earth.Data, decoded.GoodPings.Earth.Data)
	assert.Equal(t, ens.BottomTrack.Range, decoded.BottomTrack.Range)
}

func TestRTIBadChecksumDetected(t *testing.T) {
	frame := EncodeRTI(sampleRTIEnsemble())
	frame[len(frame)-1] ^= 0xFF

	_, err := DecodeRTI(frame)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBadChecksum))
}

func TestRTITruncatedFrame(t *testing.T) {
	frame := EncodeRTI(sampleRTIEnsemble())
	_, err := DecodeRTI(frame[:len(frame)-10])
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTruncated))
}

func TestRTINotAFrame(t *testing.T) {
	_, err := DecodeRTI([]byte("not an rti frame at all, definitely"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotRTIFrame))
}

func TestRTIOnlyEmitsNonNilDatasets(t *testing.T) {
	ens := NewEnsemble(2, 4)
	ens.Meta.EnsembleNumber = 1
	frame := EncodeRTI(ens)
	decoded, err := DecodeRTI(frame)
	require.NoError(t, err)
	assert.Nil(t, decoded.Ancillary)
	assert.Nil(t, decoded.EarthVelocity)
	assert.Nil(t, decoded.BottomTrack)
}
