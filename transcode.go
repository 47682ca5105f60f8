package ensemble

// Cross-format transcoding composes the two codecs through the canonical
// model (spec §5). There is no direct RTI<->PD0 byte transform; every
// conversion goes decode -> Ensemble -> encode, so the two codecs stay the
// only place wire-format knowledge lives.

// TranscodeRTIToPD0 decodes an RTI frame and re-encodes it as PD0, emitting
// velocity in coordXform's coordinate frame.
func TranscodeRTIToPD0(b []byte, coordXform CoordXform) ([]byte, error) {
	ens, err := DecodeRTI(b)
	if err != nil {
		return nil, err
	}
	return EncodePD0(ens, coordXform), nil
}

// TranscodePD0ToRTI decodes a PD0 frame and re-encodes it as RTI. RTI
// datasets are tagged by coordinate frame rather than parameterised by one,
// so the frame present in the source PD0 ensemble is carried straight
// through.
func TranscodePD0ToRTI(b []byte) ([]byte, error) {
	ens, err := DecodePD0(b)
	if err != nil {
		return nil, err
	}
	return EncodeRTI(ens), nil
}

// Transcode converts any recognised ensemble frame into the opposite wire
// format, auto-detecting the source format from its sync marker. coordXform
// is only consulted when the source is RTI (an RTI->PD0 conversion); it is
// ignored converting PD0->RTI, since PD0 already commits to one frame.
func Transcode(b []byte, coordXform CoordXform) ([]byte, error) {
	switch {
	case isRTIHeader(b):
		return TranscodeRTIToPD0(b, coordXform)
	case len(b) >= 2 && b[0] == pd0SyncByte && b[1] == pd0SyncByte:
		return TranscodePD0ToRTI(b)
	default:
		return nil, decodeErr(0, "", ErrNotRTIFrame)
	}
}
