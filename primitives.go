package ensemble

import (
	"encoding/binary"
	"math"
)

// Every multi-byte integer and float on the wire, for both RTI and PD0,
// is little-endian (spec §4.1). These helpers centralise that so nothing
// downstream reaches for binary.BigEndian by habit.

// u16LE decodes a little-endian uint16 from the first two bytes of b.
func u16LE(b []byte) uint16 {
	return binary.LittleEndian.Uint16(b)
}

// i16LE decodes a little-endian int16 from the first two bytes of b.
func i16LE(b []byte) int16 {
	return int16(binary.LittleEndian.Uint16(b))
}

// u32LE decodes a little-endian uint32 from the first four bytes of b.
func u32LE(b []byte) uint32 {
	return binary.LittleEndian.Uint32(b)
}

// i32LE decodes a little-endian int32 from the first four bytes of b.
func i32LE(b []byte) int32 {
	return int32(binary.LittleEndian.Uint32(b))
}

// f32LE decodes a little-endian IEEE-754 float32 from the first four bytes of b.
func f32LE(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

func putU16LE(b []byte, v uint16) { binary.LittleEndian.PutUint16(b, v) }
func putI16LE(b []byte, v int16)  { binary.LittleEndian.PutUint16(b, uint16(v)) }
func putU32LE(b []byte, v uint32) { binary.LittleEndian.PutUint32(b, v) }
func putI32LE(b []byte, v int32)  { binary.LittleEndian.PutUint32(b, uint32(v)) }
func putF32LE(b []byte, v float32) {
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))
}

// checksum16 is the additive checksum used by the PD0 frame trailer: the
// sum of every byte in the argument, reduced modulo 2^16. No seed value,
// no complement.
func checksum16(b []byte) uint16 {
	var sum uint32
	for _, v := range b {
		sum += uint32(v)
	}
	return uint16(sum & 0xFFFF)
}

// checksum32 is the additive checksum used by the RTI payload trailer: the
// sum of every payload byte (never the header), reduced modulo 2^32.
func checksum32(b []byte) uint32 {
	var sum uint32
	for _, v := range b {
		sum += uint32(v)
	}
	return sum
}

// Fixed-point scaling helpers (spec §4.1). Named after the wire unit they
// convert from, mirroring the SCALE_n naming the teacher uses for its own
// fixed-point conventions in decode.go.
func qCmToM(raw int32) float32      { return float32(raw) / 100.0 }
func qMmpsToMps(raw int16) float32  { return float32(raw) / 1000.0 }
func qCdegToDeg(raw int16) float32  { return float32(raw) / 100.0 }
func qTenthToF32(raw int16) float32 { return float32(raw) / 10.0 }

func mToQCm(v float32) int32      { return int32(roundHalfAwayFromZero(float64(v) * 100.0)) }
func mpsToQMmps(v float32) int16  { return int16(roundHalfAwayFromZero(float64(v) * 1000.0)) }
func degToQCdeg(v float32) int16  { return int16(roundHalfAwayFromZero(float64(v) * 100.0)) }
func f32ToQTenth(v float32) int16 { return int16(roundHalfAwayFromZero(float64(v) * 10.0)) }

func roundHalfAwayFromZero(v float64) int64 {
	if v >= 0 {
		return int64(v + 0.5)
	}
	return int64(v - 0.5)
}
