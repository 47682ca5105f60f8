package ensemble

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ensembleWithNumber(n uint32, year, month, day, hour, minute, second int) Ensemble {
	e := NewEnsemble(1, 4)
	e.Meta.EnsembleNumber = n
	e.Meta.Year, e.Meta.Month, e.Meta.Day = year, month, day
	e.Meta.Hour, e.Meta.Minute, e.Meta.Second = hour, minute, second
	return e
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil, 3)
	assert.Equal(t, 3, s.TotalFrames)
	assert.Equal(t, 0, s.DecodedFrames)
	assert.Equal(t, 3, s.SkippedFrames)
}

func TestSummarizeDuplicatesAndNonMonotonic(t *testing.T) {
	ensembles := []Ensemble{
		ensembleWithNumber(1, 2024, 1, 1, 0, 0, 0),
		ensembleWithNumber(2, 2024, 1, 1, 0, 0, 1),
		ensembleWithNumber(2, 2024, 1, 1, 0, 0, 2),
		ensembleWithNumber(1, 2024, 1, 1, 0, 0, 3),
		ensembleWithNumber(5, 2024, 1, 1, 0, 0, 4),
	}
	s := Summarize(ensembles, 2)
	assert.Equal(t, 7, s.TotalFrames)
	assert.Equal(t, 5, s.DecodedFrames)
	assert.Equal(t, 2, s.SkippedFrames)
	assert.ElementsMatch(t, []uint32{1, 2}, s.DuplicateNumbers)
	assert.Equal(t, 2, s.NonMonotonicCount) // ensemble 2 repeats, then 1 drops back
	assert.True(t, s.JulianEnd > s.JulianStart)
}

func TestJulianDayMonotonic(t *testing.T) {
	a := ensembleWithNumber(1, 2024, 1, 1, 0, 0, 0).Meta.Timestamp()
	b := ensembleWithNumber(1, 2024, 1, 2, 0, 0, 0).Meta.Timestamp()
	assert.True(t, julianDay(b) > julianDay(a))
	assert.InDelta(t, 1.0, julianDay(b)-julianDay(a), 0.001)
}
