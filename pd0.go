package ensemble

// PD0 ensemble framing and data types (spec §4.4). PD0 is a header plus an
// offset table pointing at a sequence of tagged, fixed- or variable-length
// data types, followed by a trailing 2-byte checksum.

const (
	pd0HeaderFixedLen = 6 // HeaderID, DataSourceID, byte count(2), spare, n-data-types
	pd0ChecksumLen    = 2

	pd0IDFixedLeader    = 0x0000 // bytes 0x00,0x00
	pd0IDVariableLeader = 0x0080 // bytes 0x80,0x00
	pd0IDVelocity       = 0x0100 // bytes 0x00,0x01
	pd0IDCorrelation    = 0x0200 // bytes 0x00,0x02
	pd0IDEchoIntensity  = 0x0300 // bytes 0x00,0x03
	pd0IDPercentGood    = 0x0400 // bytes 0x00,0x04
	pd0IDBottomTrack    = 0x0600 // bytes 0x00,0x06

	pd0FixedLeaderLen    = 59
	pd0VariableLeaderLen = 65
	pd0BottomTrackLen    = 81
)

// pd0BeamPermutation is the fixed bidirectional remap between PD0 beam
// slots and canonical beam order (spec §4.4.4). perm[pd0Beam] = canonicalBeam.
// The spec states the Range field uses "its own mapping" of {3,2,0,1},
// which is numerically identical to this table; both are applied with the
// same array.
var pd0BeamPermutation = [4]int{3, 2, 0, 1}

// pd0BeamPermutationInv[canonicalBeam] = pd0Beam, the inverse of
// pd0BeamPermutation, used when decoding PD0 into canonical order.
var pd0BeamPermutationInv = invertPermutation(pd0BeamPermutation)

func invertPermutation(p [4]int) [4]int {
	var inv [4]int
	for pd0Beam, canonBeam := range p {
		inv[canonBeam] = pd0Beam
	}
	return inv
}

// permToCanonical fills a 4-element canonical-order slice from a 4-element
// PD0-order slice using pd0BeamPermutationInv.
func permToCanonical(pd0 [4]float32) [4]float32 {
	var out [4]float32
	for c := 0; c < 4; c++ {
		out[c] = pd0[pd0BeamPermutationInv[c]]
	}
	return out
}

// permToPD0 is the inverse of permToCanonical.
func permToPD0(canon [4]float32) [4]float32 {
	var out [4]float32
	for p := 0; p < 4; p++ {
		out[p] = canon[pd0BeamPermutation[p]]
	}
	return out
}

// pd0DataType is one decoded [ID + body] pair located via the offset table.
type pd0DataType struct {
	id     uint16
	offset int
	body   []byte
}

// DecodePD0 decodes a single framed PD0 ensemble.
func DecodePD0(b []byte) (Ensemble, error) {
	if len(b) < pd0HeaderFixedLen {
		return Ensemble{}, decodeErr(0, "", ErrTruncated)
	}
	if b[0] != pd0SyncByte || b[1] != pd0SyncByte {
		return Ensemble{}, decodeErr(0, "", ErrNotPD0Frame)
	}
	byteCount := int(u16LE(b[2:4]))
	nTypes := int(b[5])

	// Open Question (a), spec §9: ensSize and payloadSize are treated as
	// identical, both equal to byteCount+2 (the trailing checksum bytes).
	total := byteCount + pd0ChecksumLen
	if len(b) < total {
		return Ensemble{}, decodeErr(int64(len(b)), "", ErrTruncated)
	}
	if byteCount < pd0HeaderFixedLen+2*nTypes {
		return Ensemble{}, decodeErr(int64(byteCount), "", ErrInconsistentOffsets)
	}

	offsetTableEnd := pd0HeaderFixedLen + 2*nTypes
	if len(b) < offsetTableEnd {
		return Ensemble{}, decodeErr(int64(len(b)), "", ErrTruncated)
	}
	offsets := make([]int, nTypes)
	for i := 0; i < nTypes; i++ {
		off := int(u16LE(b[pd0HeaderFixedLen+2*i : pd0HeaderFixedLen+2*i+2]))
		offsets[i] = off
	}
	for i, off := range offsets {
		if off < offsetTableEnd || off >= byteCount {
			return Ensemble{}, decodeErr(int64(off), "", ErrInconsistentOffsets)
		}
		if i > 0 && off <= offsets[i-1] {
			return Ensemble{}, decodeErr(int64(off), "", ErrInconsistentOffsets)
		}
	}

	storedChecksum := u16LE(b[byteCount:total])
	if checksum16(b[:byteCount]) != storedChecksum {
		return Ensemble{}, decodeErr(int64(byteCount), "", ErrBadChecksum)
	}

	types := make([]pd0DataType, nTypes)
	for i, off := range offsets {
		end := byteCount
		if i+1 < nTypes {
			end = offsets[i+1]
		}
		if off+2 > len(b) || end > len(b) || end < off+2 {
			return Ensemble{}, decodeErr(int64(off), "", ErrTruncated)
		}
		id := u16LE(b[off : off+2])
		types[i] = pd0DataType{id: id, offset: off, body: b[off+2 : end]}
	}

	return assemblePD0(types)
}

func assemblePD0(types []pd0DataType) (Ensemble, error) {
	var fl pd0FixedLeader
	var vl pd0VariableLeader
	haveFixed, haveVariable := false, false

	for _, t := range types {
		switch t.id {
		case pd0IDFixedLeader:
			var err error
			fl, err = decodePD0FixedLeader(t.body)
			if err != nil {
				return Ensemble{}, decodeErr(int64(t.offset), "FixedLeader", err)
			}
			haveFixed = true
		case pd0IDVariableLeader:
			var err error
			vl, err = decodePD0VariableLeader(t.body)
			if err != nil {
				return Ensemble{}, decodeErr(int64(t.offset), "VariableLeader", err)
			}
			haveVariable = true
		}
	}
	if !haveFixed {
		return Ensemble{}, decodeErr(0, "FixedLeader", ErrTruncated)
	}

	n := fl.NumberOfCells
	bm := fl.NumberOfBeams
	ens := NewEnsemble(n, bm)
	ens.Ancillary = &Ancillary{BinSize: qCmToM(int32(fl.DepthCellLength))}

	if haveVariable {
		ens.Meta.EnsembleNumber = uint32(vl.EnsembleNumber)
		ens.Meta.Year = vl.Year
		ens.Meta.Month = vl.Month
		ens.Meta.Day = vl.Day
		ens.Meta.Hour = vl.Hour
		ens.Meta.Minute = vl.Minute
		ens.Meta.Second = vl.Second
		ens.Meta.HSec = vl.Hundredths
		ens.Ancillary.Heading = vl.Heading
		ens.Ancillary.Pitch = vl.Pitch
		ens.Ancillary.Roll = vl.Roll
		ens.Ancillary.Salinity = vl.Salinity
		ens.Ancillary.WaterTemp = vl.Temperature
		ens.Ancillary.Pressure = vl.Pressure
		ens.Ancillary.TransducerDepth = vl.DepthOfTransducer
		ens.Ancillary.SpeedOfSound = vl.SpeedOfSound
	}
	ens.Meta.NumBeams = bm
	ens.Meta.NumCells = n
	ens.Ancillary.FirstBinRange = qCmToM(int32(fl.Bin1Distance))
	ens.Ancillary.LastBinRange = ens.Ancillary.FirstBinRange + float32(n-1)*ens.Ancillary.BinSize

	xform := fl.coordXform()

	for _, t := range types {
		var err error
		switch t.id {
		case pd0IDFixedLeader, pd0IDVariableLeader:
			// already handled above
		case pd0IDVelocity:
			err = decodePD0Velocity(&ens, t.body, n, bm, xform)
		case pd0IDCorrelation:
			err = decodePD0Correlation(&ens, t.body, n, bm)
		case pd0IDEchoIntensity:
			err = decodePD0EchoIntensity(&ens, t.body, n, bm)
		case pd0IDPercentGood:
			err = decodePD0PercentGood(&ens, t.body, n, bm, fl.PingsPerEnsemble, xform)
		case pd0IDBottomTrack:
			err = decodePD0BottomTrack(&ens, t.body)
		default:
			err = decodeErr(int64(t.offset), "", ErrUnknownDataType)
		}
		if err != nil {
			if _, ok := err.(*DecodeError); ok {
				return Ensemble{}, err
			}
			return Ensemble{}, decodeErr(int64(t.offset), "", err)
		}
	}

	return ens, nil
}

// pd0FixedLeader mirrors the Fixed Leader data type (spec §4.4.2), using
// the byte layout this module settled on absent a citable manual in the
// retrieval pack (see DESIGN.md).
type pd0FixedLeader struct {
	NumberOfBeams       int
	NumberOfCells       int
	PingsPerEnsemble    int
	DepthCellLength     uint16
	BlankAfterTransmit  uint16
	CoordinateTransform byte
	HeadingAlignment    int16
	HeadingBias         int16
	Bin1Distance        uint16
	XmitPulseLength     uint16
}

func (fl pd0FixedLeader) coordXform() CoordXform {
	switch (fl.CoordinateTransform >> 3) & 0x3 {
	case 0:
		return XformBeam
	case 1:
		return XformInstrument
	case 2:
		return XformEarth
	default:
		return XformShip
	}
}

func decodePD0FixedLeader(b []byte) (pd0FixedLeader, error) {
	if len(b) != pd0FixedLeaderLen-2 {
		return pd0FixedLeader{}, ErrDimensionMismatch
	}
	return pd0FixedLeader{
		NumberOfBeams:       int(b[6]),
		NumberOfCells:       int(b[7]),
		PingsPerEnsemble:    int(u16LE(b[8:10])),
		DepthCellLength:     u16LE(b[10:12]),
		BlankAfterTransmit:  u16LE(b[12:14]),
		CoordinateTransform: b[23],
		HeadingAlignment:    i16LE(b[24:26]),
		HeadingBias:         i16LE(b[26:28]),
		Bin1Distance:        u16LE(b[30:32]),
		XmitPulseLength:     u16LE(b[32:34]),
	}, nil
}

func encodePD0FixedLeader(ens Ensemble, xform CoordXform) []byte {
	b := make([]byte, pd0FixedLeaderLen-2)
	b[6] = byte(ens.Meta.NumBeams)
	b[7] = byte(ens.Meta.NumCells)
	pings := 0
	if ens.SystemSetup != nil {
		pings = int(ens.SystemSetup.WPPingCount)
	}
	putU16LE(b[8:10], uint16(pings))
	var binSize, blank float32
	if ens.Ancillary != nil {
		binSize = ens.Ancillary.BinSize
	}
	if ens.SystemSetup != nil {
		blank = ens.SystemSetup.Blank
	}
	putU16LE(b[10:12], uint16(mToQCm(binSize)))
	putU16LE(b[12:14], uint16(mToQCm(blank)))
	b[23] = coordXformByte(xform)
	putU16LE(b[30:32], uint16(firstBinRangeCm(ens)))
	return b
}

func coordXformByte(x CoordXform) byte {
	var v byte
	switch x {
	case XformBeam:
		v = 0
	case XformInstrument:
		v = 1
	case XformEarth:
		v = 2
	case XformShip:
		v = 3
	}
	return v << 3
}

func firstBinRangeCm(ens Ensemble) int32 {
	if ens.Ancillary == nil {
		return 0
	}
	return mToQCm(ens.Ancillary.FirstBinRange)
}

// pd0VariableLeader mirrors the Variable Leader data type (spec §4.4.2/§4.4.3).
type pd0VariableLeader struct {
	EnsembleNumber                                     uint16
	Year, Month, Day, Hour, Minute, Second, Hundredths int
	SpeedOfSound                                       float32
	DepthOfTransducer                                  float32
	Heading, Pitch, Roll                               float32
	Salinity                                           float32
	Temperature                                        float32
	Pressure                                           float32
}

func decodePD0VariableLeader(b []byte) (pd0VariableLeader, error) {
	if len(b) != pd0VariableLeaderLen-2 {
		return pd0VariableLeader{}, ErrDimensionMismatch
	}
	vl := pd0VariableLeader{
		EnsembleNumber:    u16LE(b[0:2]),
		Year:              2000 + int(b[2]),
		Month:             int(b[3]),
		Day:               int(b[4]),
		Hour:              int(b[5]),
		Minute:            int(b[6]),
		Second:            int(b[7]),
		Hundredths:        int(b[8]),
		SpeedOfSound:      float32(u16LE(b[12:14])),
		DepthOfTransducer: qTenthToF32(int16(u16LE(b[14:16]))),
		Heading:           qCdegToDeg(int16(u16LE(b[16:18]))),
		Pitch:             qCdegToDeg(i16LE(b[18:20])),
		Roll:              qCdegToDeg(i16LE(b[20:22])),
		Salinity:          float32(u16LE(b[22:24])),
		Temperature:       qCdegToDeg(i16LE(b[24:26])),
		Pressure:          float32(u32LE(b[46:50])) * 10000,
	}
	return vl, nil
}

func encodePD0VariableLeader(ens Ensemble) []byte {
	b := make([]byte, pd0VariableLeaderLen-2)
	putU16LE(b[0:2], uint16(ens.Meta.EnsembleNumber))
	b[2] = byte(ens.Meta.Year - 2000)
	b[3] = byte(ens.Meta.Month)
	b[4] = byte(ens.Meta.Day)
	b[5] = byte(ens.Meta.Hour)
	b[6] = byte(ens.Meta.Minute)
	b[7] = byte(ens.Meta.Second)
	b[8] = byte(ens.Meta.HSec)
	if ens.Ancillary != nil {
		a := ens.Ancillary
		putU16LE(b[12:14], uint16(a.SpeedOfSound))
		putU16LE(b[14:16], uint16(f32ToQTenth(a.TransducerDepth)))
		putU16LE(b[16:18], uint16(degToQCdeg(a.Heading)))
		putI16LE(b[18:20], degToQCdeg(a.Pitch))
		putI16LE(b[20:22], degToQCdeg(a.Roll))
		putU16LE(b[22:24], uint16(a.Salinity))
		putI16LE(b[24:26], degToQCdeg(a.WaterTemp))
		putU32LE(b[46:50], uint32(a.Pressure/10000))
	}
	return b
}

func decodePD0Velocity(ens *Ensemble, body []byte, n, bm int, xform CoordXform) error {
	if len(body) != 8*n {
		return ErrDimensionMismatch
	}
	m := NewMatrix(n, bm)
	for c := 0; c < n; c++ {
		var raw [4]float32
		for p := 0; p < 4; p++ {
			off := c*8 + p*2
			v := i16LE(body[off : off+2])
			if v == -32768 {
				raw[p] = BadVelocity
			} else {
				raw[p] = qMmpsToMps(v)
			}
		}
		canon := permToCanonical(raw)
		if xform == XformInstrument {
			canon = instrumentZFix(canon, raw)
		}
		for b := 0; b < bm && b < 4; b++ {
			m.Set(c, b, canon[b])
		}
	}
	switch xform {
	case XformBeam:
		ens.BeamVelocity = &m
	case XformInstrument:
		ens.InstrumentVelocity = &m
	case XformEarth:
		ens.EarthVelocity = &m
	case XformShip:
		ens.ShipVelocity = &m
	}
	return nil
}

// instrumentZFix applies the one documented sign-change exception in the
// beam permutation (spec §4.4.4): in the Instrument frame, the canonical Z
// component is sourced directly from raw PD0 beam index 2 (unpermuted) and
// negated, rather than through the regular permutation. PD0 beam index 1
// is unused by this override and treated as vendor-redundant.
func instrumentZFix(canon, raw [4]float32) [4]float32 {
	if raw[2] == BadVelocity {
		canon[2] = BadVelocity
	} else {
		canon[2] = -raw[2]
	}
	return canon
}

func decodePD0Correlation(ens *Ensemble, body []byte, n, bm int) error {
	if len(body) != 4*n {
		return ErrDimensionMismatch
	}
	m := NewMatrix(n, bm)
	for c := 0; c < n; c++ {
		var raw [4]float32
		for p := 0; p < 4; p++ {
			raw[p] = float32(body[c*4+p]) / 255.0
		}
		canon := permToCanonical(raw)
		for b := 0; b < bm && b < 4; b++ {
			m.Set(c, b, canon[b])
		}
	}
	ens.Correlation = &m
	return nil
}

func decodePD0EchoIntensity(ens *Ensemble, body []byte, n, bm int) error {
	if len(body) != 4*n {
		return ErrDimensionMismatch
	}
	m := NewMatrix(n, bm)
	for c := 0; c < n; c++ {
		var raw [4]float32
		for p := 0; p < 4; p++ {
			// §4.4.3: reads use the vendor-documented 0.45 dB/count scale;
			// writes (see encodePD0EchoIntensity) use 0.5 dB/count. This
			// asymmetry is deliberate (spec §9 Open Question b) and makes
			// the round-trip on this one field lossy by design.
			raw[p] = float32(body[c*4+p]) * 0.45
		}
		canon := permToCanonical(raw)
		for b := 0; b < bm && b < 4; b++ {
			m.Set(c, b, canon[b])
		}
	}
	ens.Amplitude = &m
	return nil
}

func decodePD0PercentGood(ens *Ensemble, body []byte, n, bm, pingsPerEnsemble int, xform CoordXform) error {
	if len(body) != 4*n {
		return ErrDimensionMismatch
	}
	m := NewMatrix(n, bm)
	for c := 0; c < n; c++ {
		var raw [4]float32
		for p := 0; p < 4; p++ {
			pg := body[c*4+p]
			if pg == 0xFF {
				raw[p] = 0
			} else {
				raw[p] = (float32(pg) / 100.0) * float32(pingsPerEnsemble)
			}
		}
		canon := permToCanonical(raw)
		for b := 0; b < bm && b < 4; b++ {
			m.Set(c, b, canon[b])
		}
	}
	if ens.GoodPings == nil {
		ens.GoodPings = &GoodPingCounts{}
	}
	// PD0's single Percent Good data type shares its coordinate frame with
	// whichever velocity data type is present in the same ensemble; Ship
	// frame has no dedicated slot in GoodPingCounts and is folded into Earth.
	switch xform {
	case XformBeam:
		ens.GoodPings.Beam = m
	case XformInstrument:
		ens.GoodPings.Instrument = m
	default:
		ens.GoodPings.Earth = m
	}
	return nil
}

func decodePD0BottomTrack(ens *Ensemble, body []byte) error {
	if len(body) != pd0BottomTrackLen-2 {
		return ErrDimensionMismatch
	}
	bt := BottomTrack{}
	var rawRange, rawVel [4]float32
	for p := 0; p < 4; p++ {
		rawRange[p] = qCmToM(int32(u16LE(body[14+p*2 : 16+p*2])))
	}
	for p := 0; p < 4; p++ {
		v := i16LE(body[22+p*2 : 24+p*2])
		if v == -32768 {
			rawVel[p] = BadVelocity
		} else {
			rawVel[p] = qMmpsToMps(v)
		}
	}
	rangeCanon := permToCanonical(rawRange)
	velCanon := permToCanonical(rawVel)
	bt.Range = rangeCanon[:]
	bt.VelocityEarth = velCanon[:]

	var corr, amp, pg [4]float32
	for p := 0; p < 4; p++ {
		corr[p] = float32(body[30+p]) / 255.0
		amp[p] = float32(body[34+p]) * 0.45
		pg[p] = float32(body[38+p])
	}
	corrC := permToCanonical(corr)
	ampC := permToCanonical(amp)
	pgC := permToCanonical(pg)
	bt.Correlation = corrC[:]
	bt.Amplitude = ampC[:]
	bt.GoodEarth = f32ToI32Slice(pgC[:])

	// PD0 bottom track carries no SNR, Beam/Instrument/Ship velocity or
	// Beam/Instrument good counts; fill them at full beam count (velocities
	// as BadVelocity) so the dataset re-encodes to RTI with a consistent
	// element count.
	bt.SNR = make([]float32, 4)
	bt.VelocityBeam = []float32{BadVelocity, BadVelocity, BadVelocity, BadVelocity}
	bt.VelocityInstrument = []float32{BadVelocity, BadVelocity, BadVelocity, BadVelocity}
	bt.VelocityShip = []float32{BadVelocity, BadVelocity, BadVelocity, BadVelocity}
	bt.GoodBeam = make([]int32, 4)
	bt.GoodInstrument = make([]int32, 4)

	bt.Heading = qCdegToDeg(i16LE(body[42:44]))
	bt.Pitch = qCdegToDeg(i16LE(body[44:46]))
	bt.Roll = qCdegToDeg(i16LE(body[46:48]))
	bt.Salinity = float32(u16LE(body[48:50]))
	bt.WaterTemp = qCdegToDeg(i16LE(body[50:52]))
	bt.Pressure = float32(u32LE(body[52:56])) * 10000
	bt.TransducerDepth = qTenthToF32(int16(u16LE(body[56:58])))
	bt.SpeedOfSound = float32(u16LE(body[58:60]))
	bt.Status = u32LE(body[60:64])
	bt.FirstPingTime = float32(u32LE(body[64:68])) / 100.0
	bt.LastPingTime = float32(u32LE(body[68:72])) / 100.0
	bt.ActualPingCount = int32(u16LE(body[72:74]))

	ens.BottomTrack = &bt
	return nil
}

// EncodePD0 serialises a canonical ensemble into a PD0 frame using xform
// as the velocity coordinate frame to emit (spec §4.4.5: "the coordinate
// transform is an encode-time parameter because PD0 velocity storage is
// type-erased over coordinate frame").
func EncodePD0(ens Ensemble, xform CoordXform) []byte {
	n := ens.Meta.NumCells

	fixedBody := encodePD0FixedLeader(ens, xform)
	variableBody := encodePD0VariableLeader(ens)

	type dt struct {
		id   uint16
		body []byte
	}
	var dts []dt
	dts = append(dts, dt{pd0IDFixedLeader, fixedBody})
	dts = append(dts, dt{pd0IDVariableLeader, variableBody})

	if vel := pd0VelocityFor(ens, xform); vel != nil {
		dts = append(dts, dt{pd0IDVelocity, encodePD0Velocity(*vel, n, xform)})
	}
	if ens.Correlation != nil {
		dts = append(dts, dt{pd0IDCorrelation, encodePD0Correlation(*ens.Correlation, n)})
	}
	if ens.Amplitude != nil {
		dts = append(dts, dt{pd0IDEchoIntensity, encodePD0EchoIntensity(*ens.Amplitude, n)})
	}
	if ens.GoodPings != nil {
		pings := 1
		if ens.SystemSetup != nil && ens.SystemSetup.WPPingCount > 0 {
			pings = int(ens.SystemSetup.WPPingCount)
		}
		var pg Matrix
		switch xform {
		case XformBeam:
			pg = ens.GoodPings.Beam
		case XformInstrument:
			pg = ens.GoodPings.Instrument
		default:
			pg = ens.GoodPings.Earth
		}
		dts = append(dts, dt{pd0IDPercentGood, encodePD0PercentGood(pg, n, pings)})
	}
	if ens.BottomTrack != nil {
		dts = append(dts, dt{pd0IDBottomTrack, encodePD0BottomTrack(ens.BottomTrack)})
	}

	nTypes := len(dts)
	offsetTableEnd := pd0HeaderFixedLen + 2*nTypes
	offsets := make([]int, nTypes)
	cursor := offsetTableEnd
	for i, d := range dts {
		offsets[i] = cursor
		cursor += 2 + len(d.body)
	}
	byteCount := cursor

	out := make([]byte, byteCount+pd0ChecksumLen)
	out[0] = pd0SyncByte
	out[1] = pd0SyncByte
	putU16LE(out[2:4], uint16(byteCount))
	out[4] = 0
	out[5] = byte(nTypes)
	for i, off := range offsets {
		putU16LE(out[pd0HeaderFixedLen+2*i:pd0HeaderFixedLen+2*i+2], uint16(off))
	}
	for i, d := range dts {
		off := offsets[i]
		putU16LE(out[off:off+2], d.id)
		copy(out[off+2:], d.body)
	}
	putU16LE(out[byteCount:], checksum16(out[:byteCount]))
	return out
}

func pd0VelocityFor(ens Ensemble, xform CoordXform) *Matrix {
	switch xform {
	case XformBeam:
		return ens.BeamVelocity
	case XformInstrument:
		return ens.InstrumentVelocity
	case XformEarth:
		return ens.EarthVelocity
	case XformShip:
		return ens.ShipVelocity
	}
	return nil
}

func encodePD0Velocity(m Matrix, n int, xform CoordXform) []byte {
	out := make([]byte, 8*n)
	for c := 0; c < n; c++ {
		var canon [4]float32
		for b := 0; b < m.NBeams && b < 4; b++ {
			canon[b] = m.At(c, b)
		}
		var raw [4]float32
		if xform == XformInstrument {
			raw = instrumentZFixEncode(canon)
		} else {
			raw = permToPD0(canon)
		}
		for p := 0; p < 4; p++ {
			off := c*8 + p*2
			if raw[p] == BadVelocity {
				putI16LE(out[off:off+2], -32768)
			} else {
				putI16LE(out[off:off+2], mpsToQMmps(raw[p]))
			}
		}
	}
	return out
}

// instrumentZFixEncode is the encode-time inverse of instrumentZFix.
// PD0 beam slot 2 carries the negated Z value, which instrumentZFix reads
// back as the same canonical Z; canonical beam 0, which the regular
// permutation would place in that slot, is not written. PD0 beam slot 1,
// unused by decode, is filled with the un-negated Z value (see DESIGN.md:
// this one PD0 byte is not bit-exact round-trippable from an arbitrary
// source file, only from output this module itself produced).
func instrumentZFixEncode(canon [4]float32) [4]float32 {
	raw := permToPD0(canon)
	if canon[2] == BadVelocity {
		raw[2] = BadVelocity
		raw[1] = BadVelocity
	} else {
		raw[2] = -canon[2]
		raw[1] = canon[2]
	}
	return raw
}

func encodePD0Correlation(m Matrix, n int) []byte {
	out := make([]byte, 4*n)
	for c := 0; c < n; c++ {
		var canon [4]float32
		for b := 0; b < m.NBeams && b < 4; b++ {
			canon[b] = m.At(c, b)
		}
		raw := permToPD0(canon)
		for p := 0; p < 4; p++ {
			out[c*4+p] = clampByte(roundHalfAwayFromZero(float64(raw[p]) * 255.0))
		}
	}
	return out
}

func encodePD0EchoIntensity(m Matrix, n int) []byte {
	out := make([]byte, 4*n)
	for c := 0; c < n; c++ {
		var canon [4]float32
		for b := 0; b < m.NBeams && b < 4; b++ {
			canon[b] = m.At(c, b)
		}
		raw := permToPD0(canon)
		for p := 0; p < 4; p++ {
			out[c*4+p] = clampByte(roundHalfAwayFromZero(float64(raw[p]) * 2.0))
		}
	}
	return out
}

func encodePD0PercentGood(m Matrix, n, pingsPerEnsemble int) []byte {
	out := make([]byte, 4*n)
	for c := 0; c < n; c++ {
		var canon [4]float32
		for b := 0; b < m.NBeams && b < 4; b++ {
			canon[b] = m.At(c, b)
		}
		raw := permToPD0(canon)
		for p := 0; p < 4; p++ {
			pct := raw[p] / float32(pingsPerEnsemble) * 100.0
			out[c*4+p] = clampByte(roundHalfAwayFromZero(float64(pct)))
		}
	}
	return out
}

func clampByte(v int64) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}

func encodePD0BottomTrack(bt *BottomTrack) []byte {
	out := make([]byte, pd0BottomTrackLen-2)

	rangeRaw := permToPD0(arr4(bt.Range))
	velRaw := permToPD0(arr4(bt.VelocityEarth))
	corrRaw := permToPD0(arr4(bt.Correlation))
	ampRaw := permToPD0(arr4(bt.Amplitude))
	pgRaw := permToPD0(f32arr4(bt.GoodEarth))

	for p := 0; p < 4; p++ {
		putU16LE(out[14+p*2:16+p*2], uint16(mToQCm(rangeRaw[p])))
		if velRaw[p] == BadVelocity {
			putI16LE(out[22+p*2:24+p*2], -32768)
		} else {
			putI16LE(out[22+p*2:24+p*2], mpsToQMmps(velRaw[p]))
		}
		out[30+p] = clampByte(roundHalfAwayFromZero(float64(corrRaw[p]) * 255.0))
		out[34+p] = clampByte(roundHalfAwayFromZero(float64(ampRaw[p]) * 2.0))
		out[38+p] = clampByte(roundHalfAwayFromZero(float64(pgRaw[p])))
	}

	putI16LE(out[42:44], degToQCdeg(bt.Heading))
	putI16LE(out[44:46], degToQCdeg(bt.Pitch))
	putI16LE(out[46:48], degToQCdeg(bt.Roll))
	putU16LE(out[48:50], uint16(bt.Salinity))
	putI16LE(out[50:52], degToQCdeg(bt.WaterTemp))
	putU32LE(out[52:56], uint32(bt.Pressure/10000))
	putU16LE(out[56:58], uint16(f32ToQTenth(bt.TransducerDepth)))
	putU16LE(out[58:60], uint16(bt.SpeedOfSound))
	putU32LE(out[60:64], bt.Status)
	putU32LE(out[64:68], uint32(bt.FirstPingTime*100.0))
	putU32LE(out[68:72], uint32(bt.LastPingTime*100.0))
	putU16LE(out[72:74], uint16(bt.ActualPingCount))

	return out
}

func arr4(v []float32) [4]float32 {
	var out [4]float32
	for i := 0; i < 4 && i < len(v); i++ {
		out[i] = v[i]
	}
	return out
}

func f32arr4(v []int32) [4]float32 {
	var out [4]float32
	for i := 0; i < 4 && i < len(v); i++ {
		out[i] = float32(v[i])
	}
	return out
}
