package ensemble

import (
	"time"

	"github.com/samber/lo"
	"github.com/soniakeys/meeus/v3/julian"
)

// File-level scanning and QA (spec §7). A Summary is what a scanner builds
// up while walking every frame in a capture: decoded and skipped frame
// counts, ensemble numbering health, and the deployment's Julian-day span.

// Summary aggregates per-ensemble statistics across one captured file.
type Summary struct {
	TotalFrames       int
	DecodedFrames     int
	SkippedFrames     int
	EnsembleNumbers   []uint32
	DuplicateNumbers  []uint32
	NonMonotonicCount int
	JulianStart       float64
	JulianEnd         float64
}

// Summarize builds a Summary from a sequence of successfully decoded
// ensembles, in the order they were read from the file. skipped counts
// frames the scanner encountered but could not decode (bad checksum,
// truncation, unrecognised tag), logged-and-skipped per the scanner's
// policy rather than aborting the whole file (spec §7).
func Summarize(ensembles []Ensemble, skipped int) Summary {
	s := Summary{
		TotalFrames:   len(ensembles) + skipped,
		DecodedFrames: len(ensembles),
		SkippedFrames: skipped,
	}
	if len(ensembles) == 0 {
		return s
	}

	s.EnsembleNumbers = lo.Map(ensembles, func(e Ensemble, _ int) uint32 { return e.Meta.EnsembleNumber })
	s.DuplicateNumbers = lo.FindDuplicates(s.EnsembleNumbers)

	prev := s.EnsembleNumbers[0]
	for _, n := range s.EnsembleNumbers[1:] {
		if n <= prev {
			s.NonMonotonicCount++
		}
		prev = n
	}

	first := ensembles[0].Meta.Timestamp()
	last := ensembles[len(ensembles)-1].Meta.Timestamp()
	s.JulianStart = julianDay(first)
	s.JulianEnd = julianDay(last)

	return s
}

// julianDay converts a wall-clock timestamp to a Julian day number, the
// same calendar math the teacher uses for day-of-year handling
// (decode/params.go), applied here to report a deployment's span.
func julianDay(t time.Time) float64 {
	dayFrac := float64(t.Day()) +
		(float64(t.Hour())*3600+float64(t.Minute())*60+float64(t.Second())+float64(t.Nanosecond())/1e9)/86400.0
	return julian.CalendarGregorianToJD(t.Year(), int(t.Month()), dayFrac)
}
