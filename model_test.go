package ensemble

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatrixAtSet(t *testing.T) {
	m := NewMatrix(2, 4)
	m.Set(1, 2, 3.5)
	assert.Equal(t, float32(3.5), m.At(1, 2))
	assert.Equal(t, float32(0), m.At(0, 0))
}

func TestCheckInvariantsRejectsBadBeamCount(t *testing.T) {
	e := NewEnsemble(5, 3)
	err := e.CheckInvariants()
	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvariant))
}

func TestCheckInvariantsRejectsMismatchedMatrix(t *testing.T) {
	e := NewEnsemble(5, 4)
	bad := NewMatrix(3, 4)
	e.Amplitude = &bad
	err := e.CheckInvariants()
	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvariant))
}

func TestCheckInvariantsRejectsBottomTrackBeamMismatch(t *testing.T) {
	e := NewEnsemble(5, 4)
	e.BottomTrack = &BottomTrack{Range: []float32{1, 2, 3}}
	err := e.CheckInvariants()
	assert.Error(t, err)
}

func TestCheckInvariantsAcceptsWellFormed(t *testing.T) {
	e := NewEnsemble(5, 4)
	m := NewMatrix(5, 4)
	e.Amplitude = &m
	e.BottomTrack = &BottomTrack{Range: []float32{1, 2, 3, 4}}
	assert.NoError(t, e.CheckInvariants())
}

func TestEnsembleMetaTimestamp(t *testing.T) {
	meta := EnsembleMeta{Year: 2024, Month: 6, Day: 15, Hour: 10, Minute: 30, Second: 5, HSec: 50}
	ts := meta.Timestamp()
	assert.Equal(t, 2024, ts.Year())
	assert.Equal(t, 10, ts.Hour())
	assert.Equal(t, 500*1000000, ts.Nanosecond())
}
