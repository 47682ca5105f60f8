package ensemble

import (
	"errors"
	"fmt"
)

// Sentinel errors returned (possibly wrapped in a DecodeError) by the RTI
// and PD0 codecs. Callers should use errors.Is against these, not against
// a *DecodeError directly.
var (
	ErrTruncated           = errors.New("truncated: insufficient bytes for declared length")
	ErrBadChecksum         = errors.New("checksum mismatch")
	ErrUnknownDataset      = errors.New("unrecognised RTI dataset name-tag")
	ErrUnknownDataType     = errors.New("unrecognised PD0 data type id")
	ErrInconsistentOffsets = errors.New("PD0 offset table is non-monotonic or out of range")
	ErrDimensionMismatch   = errors.New("dataset element-count x multiplier inconsistent with payload size")
	ErrBadValueKind        = errors.New("value-kind outside {10, 20}")
	ErrNotRTIFrame         = errors.New("candidate frame is not a well-formed RTI frame")
	ErrNotPD0Frame         = errors.New("candidate frame is not a well-formed PD0 frame")
	ErrShipSpeedNoSource   = errors.New("no usable source for ship-speed removal")
	ErrInvariant           = errors.New("canonical ensemble violates an invariant")
)

// DecodeError is returned by the decoders for failures that need to carry
// the byte offset at which they were observed (spec §7: "a decoder returns
// the first hard error and the offset at which it occurred"). It wraps one
// of the sentinel errors above so callers can still do
// errors.Is(err, ErrBadChecksum).
type DecodeError struct {
	Offset int64
	Tag    string // dataset name-tag or data-type id, when known; empty otherwise
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Tag == "" {
		return fmt.Sprintf("offset %d: %v", e.Offset, e.Err)
	}
	return fmt.Sprintf("offset %d (%s): %v", e.Offset, e.Tag, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func decodeErr(offset int64, tag string, err error) *DecodeError {
	return &DecodeError{Offset: offset, Tag: tag, Err: err}
}
