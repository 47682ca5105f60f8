package ensemble

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScanPD0FindsSyncUnderNoise(t *testing.T) {
	stream := make([]byte, 0)
	stream = append(stream, []byte{0x01, 0x02, 0x03}...)
	stream = append(stream, pd0SyncByte, pd0SyncByte)
	stream = append(stream, []byte{0xAB, 0xCD}...)
	stream = append(stream, pd0SyncByte, pd0SyncByte)

	offsets := ScanPD0(stream)
	assert.Equal(t, []int64{3, 7}, offsets)
}

func TestScanRTIFindsSyncUnderNoise(t *testing.T) {
	stream := make([]byte, 0)
	stream = append(stream, []byte{0x00, 0x00}...)
	sync := make([]byte, rtiHeaderSyncLen)
	for i := range sync {
		sync[i] = rtiSyncByte
	}
	stream = append(stream, sync...)
	stream = append(stream, []byte{0xFF}...)

	offsets := ScanRTI(stream)
	assert.Equal(t, []int64{2}, offsets)
}

func TestScanRTIIgnoresPartialSync(t *testing.T) {
	stream := make([]byte, rtiHeaderSyncLen-1)
	for i := range stream {
		stream[i] = rtiSyncByte
	}
	assert.Empty(t, ScanRTI(stream))
}
