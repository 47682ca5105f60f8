package ensemble

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromNMEAInstrument(t *testing.T) {
	fields := NMEAFields{
		X: 100, Y: 200, Z: BadDVL, Q: 0,
		Depth:                   12.5,
		SystemStatus:            0x01,
		WaterTempCentiDeg:       1500,
		FirstPingTimeHundredths: 250,
	}
	ens, err := FromNMEA(NMEAKindInstrument, fields)
	require.NoError(t, err)

	require.NotNil(t, ens.BottomTrack)
	assert.Equal(t, 4, ens.Meta.NumBeams)
	assert.Equal(t, 0, ens.Meta.NumCells)
	assert.InDelta(t, 0.1, ens.BottomTrack.VelocityInstrument[0], 0.0001)
	assert.InDelta(t, 0.2, ens.BottomTrack.VelocityInstrument[1], 0.0001)
	assert.Equal(t, BadVelocity, ens.BottomTrack.VelocityInstrument[2])
	assert.Equal(t, []float32{12.5, 12.5, 12.5, 12.5}, ens.BottomTrack.Range)
	assert.InDelta(t, 15.0, ens.BottomTrack.WaterTemp, 0.0001)
	assert.InDelta(t, 2.5, ens.BottomTrack.FirstPingTime, 0.0001)
	assert.Nil(t, ens.BottomTrack.VelocityEarth)
}

func TestFromNMEAEarth(t *testing.T) {
	fields := NMEAFields{X: 50, Y: 50, Z: 0, Q: 0, Depth: 5}
	ens, err := FromNMEA(NMEAKindEarth, fields)
	require.NoError(t, err)
	require.NotNil(t, ens.BottomTrack.VelocityEarth)
	assert.Nil(t, ens.BottomTrack.VelocityInstrument)
	assert.InDelta(t, 0.05, ens.BottomTrack.VelocityEarth[0], 0.0001)
}
