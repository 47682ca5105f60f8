package ensemble

// Frame scanner (spec §4.2). Two independent sync patterns are scanned for
// since the two wire formats use different framing markers: PD0 frames
// start with two 0x7F bytes; RTI frames start with sixteen 0x80 bytes. The
// scanner does not validate length or checksum, it only delivers candidate
// start offsets; validation is the codec's job.

const (
	pd0SyncByte = 0x7F
	rtiSyncByte = 0x80
)

// ScanPD0 returns the byte offsets of every position in stream at which the
// two-byte PD0 sync pattern (0x7F, 0x7F) occurs. Complexity is O(len(stream))
// with constant extra memory beyond the returned slice.
func ScanPD0(stream []byte) []int64 {
	var offsets []int64
	for i := 0; i+1 < len(stream); i++ {
		if stream[i] == pd0SyncByte && stream[i+1] == pd0SyncByte {
			offsets = append(offsets, int64(i))
		}
	}
	return offsets
}

// ScanRTI returns the byte offsets of every position in stream at which the
// sixteen-byte RTI sync marker (0x80 repeated sixteen times) begins.
func ScanRTI(stream []byte) []int64 {
	var offsets []int64
	for i := 0; i+rtiHeaderSyncLen <= len(stream); i++ {
		if isRTISync(stream[i : i+rtiHeaderSyncLen]) {
			offsets = append(offsets, int64(i))
		}
	}
	return offsets
}

func isRTISync(b []byte) bool {
	for _, v := range b {
		if v != rtiSyncByte {
			return false
		}
	}
	return true
}
