package ensemble

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLittleEndianRoundTrip(t *testing.T) {
	b := make([]byte, 4)
	putU32LE(b, 0xDEADBEEF)
	assert.Equal(t, uint32(0xDEADBEEF), u32LE(b))

	b2 := make([]byte, 2)
	putI16LE(b2, -1234)
	assert.Equal(t, int16(-1234), i16LE(b2))

	b4 := make([]byte, 4)
	putF32LE(b4, 3.5)
	assert.Equal(t, float32(3.5), f32LE(b4))
}

func TestChecksum16(t *testing.T) {
	assert.Equal(t, uint16(0), checksum16(nil))
	assert.Equal(t, uint16(3), checksum16([]byte{1, 2}))
	// wraps at 2^16
	big := make([]byte, 65536)
	for i := range big {
		big[i] = 1
	}
	assert.Equal(t, uint16(0), checksum16(big))
}

func TestChecksum32FlipDetection(t *testing.T) {
	payload := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	sum := checksum32(payload)
	flipped := append([]byte(nil), payload...)
	flipped[3] ^= 0x01
	assert.NotEqual(t, sum, checksum32(flipped))
}

func TestFixedPointRoundTrip(t *testing.T) {
	assert.InDelta(t, 1.23, qCmToM(mToQCm(1.23)), 0.001)
	assert.InDelta(t, -0.5, qMmpsToMps(mpsToQMmps(-0.5)), 0.0001)
	assert.InDelta(t, 12.34, qCdegToDeg(degToQCdeg(12.34)), 0.01)
	assert.InDelta(t, 5.6, qTenthToF32(f32ToQTenth(5.6)), 0.1)
}

func TestRoundHalfAwayFromZero(t *testing.T) {
	assert.Equal(t, int64(1), roundHalfAwayFromZero(0.5))
	assert.Equal(t, int64(-1), roundHalfAwayFromZero(-0.5))
	assert.Equal(t, int64(2), roundHalfAwayFromZero(1.5))
}
