package ensemble

import (
	"fmt"
)

// RTI ensemble framing (spec §4.3.1). The header is 32 bytes: a sixteen-byte
// 0x80 sentinel, the ensemble number, the payload size, then a ones'
// complement of each as an integrity check. The trailer is a 4-byte
// additive checksum over the payload bytes only (never the header).
const (
	rtiHeaderSyncLen = 16
	rtiHeaderLen     = 32
	rtiChecksumLen   = 4
	rtiDatasetHdrLen = 20 // kind, count, multiplier, imag, name-length (5 x i32)
	rtiNameLen       = 8
)

// RTI dataset name-tags (spec §4.3.2). Tags listed explicitly in the spec
// (E000001-E000011, E000014) are preserved verbatim; the gaps (E000012,
// E000013, E000015, E000016) are this module's own numbering for the
// dataset kinds the spec's canonical model requires but whose example tag
// table didn't enumerate (good-instrument counts, ship velocity, and the
// two water-mass datasets).
const (
	tagBeamVelocity        = "E000001"
	tagInstrumentVelocity  = "E000002"
	tagEarthVelocity       = "E000003"
	tagAmplitude           = "E000004"
	tagCorrelation         = "E000005"
	tagGoodBeam            = "E000006"
	tagGoodEarth           = "E000007"
	tagEnsembleMeta        = "E000008"
	tagAncillary           = "E000009"
	tagBottomTrack         = "E000010"
	tagNMEA                = "E000011"
	tagGoodInstrument      = "E000012"
	tagShipVelocity        = "E000013"
	tagSystemSetup         = "E000014"
	tagEarthWaterMass      = "E000015"
	tagInstrumentWaterMass = "E000016"
)

// rtiDatasetOrder is the deterministic dataset emission order (spec
// §4.3.3: "lexicographic by name-tag"). Since every tag is the fixed-width
// form Ennnnnn, lexicographic order is numeric order.
var rtiDatasetOrder = []string{
	tagBeamVelocity,
	tagInstrumentVelocity,
	tagEarthVelocity,
	tagAmplitude,
	tagCorrelation,
	tagGoodBeam,
	tagGoodEarth,
	tagEnsembleMeta,
	tagAncillary,
	tagBottomTrack,
	tagNMEA,
	tagGoodInstrument,
	tagShipVelocity,
	tagSystemSetup,
	tagEarthWaterMass,
	tagInstrumentWaterMass,
}

// rtiDataset is a single decoded base-header + payload pair, prior to being
// folded into the canonical Ensemble.
type rtiDataset struct {
	tag     string
	kind    ValueKind
	count   int32
	mult    int32
	payload []byte
}

func isRTIHeader(b []byte) bool {
	if len(b) < rtiHeaderLen {
		return false
	}
	return isRTISync(b[:rtiHeaderSyncLen])
}

// DecodeRTI decodes a single framed RTI ensemble (header + payload +
// checksum). b must contain at least the full frame; trailing bytes beyond
// the frame are ignored and not consumed.
func DecodeRTI(b []byte) (Ensemble, error) {
	if len(b) < rtiHeaderLen {
		return Ensemble{}, decodeErr(0, "", ErrTruncated)
	}
	if !isRTISync(b[:rtiHeaderSyncLen]) {
		return Ensemble{}, decodeErr(0, "", ErrNotRTIFrame)
	}

	ensembleNum := u32LE(b[16:20])
	payloadSize := u32LE(b[20:24])
	ensembleNumInv := u32LE(b[24:28])
	payloadSizeInv := u32LE(b[28:32])
	if ensembleNumInv != ^ensembleNum || payloadSizeInv != ^payloadSize {
		return Ensemble{}, decodeErr(0, "", ErrNotRTIFrame)
	}

	total := rtiHeaderLen + int(payloadSize) + rtiChecksumLen
	if len(b) < total {
		return Ensemble{}, decodeErr(int64(len(b)), "", ErrTruncated)
	}

	payload := b[rtiHeaderLen : rtiHeaderLen+int(payloadSize)]
	storedChecksum := u32LE(b[rtiHeaderLen+int(payloadSize) : total])
	if checksum32(payload) != storedChecksum {
		return Ensemble{}, decodeErr(rtiHeaderLen, "", ErrBadChecksum)
	}

	datasets, err := decodeRTIDatasets(payload)
	if err != nil {
		return Ensemble{}, err
	}

	ens := Ensemble{}
	ens.Meta.EnsembleNumber = ensembleNum

	// EnsembleMeta carries N (depth cells) and B (beams), which every
	// matrix-shaped dataset needs in order to reshape its flat payload;
	// decode it first regardless of its position in the wire order.
	for _, ds := range datasets {
		if ds.tag == tagEnsembleMeta {
			if err := applyRTIDataset(&ens, ds); err != nil {
				return Ensemble{}, err
			}
			break
		}
	}
	for _, ds := range datasets {
		if ds.tag == tagEnsembleMeta {
			continue
		}
		if err := applyRTIDataset(&ens, ds); err != nil {
			return Ensemble{}, err
		}
	}
	return ens, nil
}

// decodeRTIDatasets splits the payload into its sequence of base-header +
// body datasets.
func decodeRTIDatasets(payload []byte) ([]rtiDataset, error) {
	var out []rtiDataset
	off := 0
	for off < len(payload) {
		if off+rtiDatasetHdrLen > len(payload) {
			return nil, decodeErr(int64(off), "", ErrTruncated)
		}
		kind := ValueKind(i32LE(payload[off : off+4]))
		count := i32LE(payload[off+4 : off+8])
		mult := i32LE(payload[off+8 : off+12])
		// imag field at off+12:off+16 is reserved, always 0.
		nameLen := int(i32LE(payload[off+16 : off+20]))
		off += rtiDatasetHdrLen

		if off+nameLen > len(payload) {
			return nil, decodeErr(int64(off), "", ErrTruncated)
		}
		tag := trimNameTag(payload[off : off+nameLen])
		off += nameLen

		if kind != ValueKindF32 && kind != ValueKindI32 {
			return nil, decodeErr(int64(off), tag, ErrBadValueKind)
		}

		bodyLen, isRaw := rtiDatasetBodyLen(tag, count, mult)
		if off+bodyLen > len(payload) {
			return nil, decodeErr(int64(off), tag, ErrTruncated)
		}
		_ = isRaw
		body := payload[off : off+bodyLen]
		off += bodyLen

		out = append(out, rtiDataset{tag: tag, kind: kind, count: count, mult: mult, payload: body})
	}
	return out, nil
}

// rtiDatasetBodyLen computes how many payload bytes follow a dataset's base
// header, given its declared count/multiplier. NMEA is the one dataset
// whose body is raw bytes rather than a homogeneous array of 4-byte
// elements (spec §4.5: "opaque byte payload"); everything else is
// count*mult*sizeof(kind), and every kind this module emits is 4 bytes wide.
func rtiDatasetBodyLen(tag string, count, mult int32) (int, bool) {
	if tag == tagNMEA {
		return int(count) * 4, true
	}
	return int(count) * int(mult) * 4, false
}

func trimNameTag(b []byte) string {
	n := len(b)
	for n > 0 && b[n-1] == 0 {
		n--
	}
	return string(b[:n])
}

// applyRTIDataset decodes one dataset body into its canonical field(s) and
// attaches it to ens.
func applyRTIDataset(ens *Ensemble, ds rtiDataset) error {
	n, bm := ens.Meta.NumCells, ens.Meta.NumBeams

	switch ds.tag {
	case tagEnsembleMeta:
		vals := decodeI32Array(ds.payload)
		if len(vals) != 10 {
			return decodeErr(0, ds.tag, ErrDimensionMismatch)
		}
		ens.Meta = EnsembleMeta{
			EnsembleNumber: uint32(vals[0]),
			Year:           int(vals[1]),
			Month:          int(vals[2]),
			Day:            int(vals[3]),
			Hour:           int(vals[4]),
			Minute:         int(vals[5]),
			Second:         int(vals[6]),
			HSec:           int(vals[7]),
			NumBeams:       int(vals[8]),
			NumCells:       int(vals[9]),
		}
		return nil
	case tagAncillary:
		f := decodeF32Array(ds.payload)
		if len(f) != 23 {
			return decodeErr(0, ds.tag, ErrDimensionMismatch)
		}
		ens.Ancillary = &Ancillary{
			FirstBinRange: f[0], LastBinRange: f[1], BinSize: f[2],
			FirstPingTime: f[3], LastPingTime: f[4],
			Heading: f[5], Pitch: f[6], Roll: f[7],
			WaterTemp: f[8], SystemTemp: f[9], Salinity: f[10],
			Pressure: f[11], TransducerDepth: f[12], SpeedOfSound: f[13],
			RawMagField: [3]float32{f[14], f[15], f[16]},
			RawAccel:    [3]float32{f[17], f[18], f[19]},
			RawTilt:     [3]float32{f[20], f[21], f[22]},
		}
		return nil
	case tagAmplitude:
		m, err := decodeMatrix(ds.payload, n, bm)
		if err != nil {
			return decodeErr(0, ds.tag, err)
		}
		ens.Amplitude = &m
		return nil
	case tagCorrelation:
		m, err := decodeMatrix(ds.payload, n, bm)
		if err != nil {
			return decodeErr(0, ds.tag, err)
		}
		ens.Correlation = &m
		return nil
	case tagBeamVelocity:
		m, err := decodeMatrix(ds.payload, n, bm)
		if err != nil {
			return decodeErr(0, ds.tag, err)
		}
		ens.BeamVelocity = &m
		return nil
	case tagInstrumentVelocity:
		m, err := decodeMatrix(ds.payload, n, bm)
		if err != nil {
			return decodeErr(0, ds.tag, err)
		}
		ens.InstrumentVelocity = &m
		return nil
	case tagEarthVelocity:
		m, err := decodeMatrix(ds.payload, n, bm)
		if err != nil {
			return decodeErr(0, ds.tag, err)
		}
		ens.EarthVelocity = &m
		return nil
	case tagShipVelocity:
		m, err := decodeMatrix(ds.payload, n, bm)
		if err != nil {
			return decodeErr(0, ds.tag, err)
		}
		ens.ShipVelocity = &m
		return nil
	case tagGoodBeam, tagGoodInstrument, tagGoodEarth:
		m, err := decodeMatrix(ds.payload, n, bm)
		if err != nil {
			return decodeErr(0, ds.tag, err)
		}
		if ens.GoodPings == nil {
			ens.GoodPings = &GoodPingCounts{}
		}
		switch ds.tag {
		case tagGoodBeam:
			ens.GoodPings.Beam = m
		case tagGoodInstrument:
			ens.GoodPings.Instrument = m
		case tagGoodEarth:
			ens.GoodPings.Earth = m
		}
		return nil
	case tagBottomTrack:
		bt, err := decodeBottomTrack(ds.payload, bm)
		if err != nil {
			return decodeErr(0, ds.tag, err)
		}
		ens.BottomTrack = &bt
		return nil
	case tagSystemSetup:
		f := decodeF32Array(ds.payload)
		if len(f) != 7 {
			return decodeErr(0, ds.tag, ErrDimensionMismatch)
		}
		ens.SystemSetup = &SystemSetup{
			BinSize: f[0], Blank: f[1],
			WPPingCount: int32(f[2]), BTPingCount: int32(f[3]),
			LagSamples: int32(f[4]), CodeRepeats: int32(f[5]), TransmitCycles: int32(f[6]),
		}
		return nil
	case tagNMEA:
		ens.NMEA = &NMEABlock{Raw: trimTrailingNUL(ds.payload)}
		return nil
	case tagEarthWaterMass:
		wm, err := decodeWaterMass(ds.payload, bm)
		if err != nil {
			return decodeErr(0, ds.tag, err)
		}
		ens.EarthWaterMass = &wm
		return nil
	case tagInstrumentWaterMass:
		wm, err := decodeWaterMass(ds.payload, bm)
		if err != nil {
			return decodeErr(0, ds.tag, err)
		}
		ens.InstrumentWaterMass = &wm
		return nil
	default:
		return decodeErr(0, ds.tag, ErrUnknownDataset)
	}
}

func decodeI32Array(b []byte) []int32 {
	out := make([]int32, len(b)/4)
	for i := range out {
		out[i] = i32LE(b[i*4 : i*4+4])
	}
	return out
}

func decodeF32Array(b []byte) []float32 {
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = f32LE(b[i*4 : i*4+4])
	}
	return out
}

func decodeMatrix(b []byte, n, bm int) (Matrix, error) {
	if len(b) != n*bm*4 {
		return Matrix{}, ErrDimensionMismatch
	}
	m := NewMatrix(n, bm)
	f := decodeF32Array(b)
	copy(m.Data, f)
	return m, nil
}

func decodeBottomTrack(b []byte, bm int) (BottomTrack, error) {
	f := decodeF32Array(b)
	want := 11*bm + 13
	if len(f) != want {
		return BottomTrack{}, ErrDimensionMismatch
	}
	bt := BottomTrack{}
	i := 0
	take := func(nv int) []float32 {
		v := f[i : i+nv]
		i += nv
		return v
	}
	bt.Range = append([]float32(nil), take(bm)...)
	bt.SNR = append([]float32(nil), take(bm)...)
	bt.Amplitude = append([]float32(nil), take(bm)...)
	bt.Correlation = append([]float32(nil), take(bm)...)
	bt.VelocityBeam = append([]float32(nil), take(bm)...)
	bt.VelocityInstrument = append([]float32(nil), take(bm)...)
	bt.VelocityEarth = append([]float32(nil), take(bm)...)
	bt.VelocityShip = append([]float32(nil), take(bm)...)

	goodBeam := take(bm)
	goodInst := take(bm)
	goodEarth := take(bm)
	bt.GoodBeam = f32ToI32Slice(goodBeam)
	bt.GoodInstrument = f32ToI32Slice(goodInst)
	bt.GoodEarth = f32ToI32Slice(goodEarth)

	scalars := take(13)
	bt.Heading = scalars[0]
	bt.Pitch = scalars[1]
	bt.Roll = scalars[2]
	bt.WaterTemp = scalars[3]
	bt.SystemTemp = scalars[4]
	bt.Salinity = scalars[5]
	bt.Pressure = scalars[6]
	bt.TransducerDepth = scalars[7]
	bt.SpeedOfSound = scalars[8]
	bt.FirstPingTime = scalars[9]
	bt.LastPingTime = scalars[10]
	bt.Status = uint32(scalars[11])
	bt.ActualPingCount = int32(scalars[12])
	return bt, nil
}

func f32ToI32Slice(f []float32) []int32 {
	out := make([]int32, len(f))
	for i, v := range f {
		out[i] = int32(v)
	}
	return out
}

func decodeWaterMass(b []byte, bm int) (WaterMass, error) {
	f := decodeF32Array(b)
	if len(f) != bm+3 {
		return WaterMass{}, ErrDimensionMismatch
	}
	return WaterMass{
		Velocity:   append([]float32(nil), f[:bm]...),
		DepthLayer: f[bm],
		Near:       f[bm+1],
		Far:        f[bm+2],
	}, nil
}

func trimTrailingNUL(b []byte) []byte {
	n := len(b)
	for n > 0 && b[n-1] == 0 {
		n--
	}
	out := make([]byte, n)
	copy(out, b[:n])
	return out
}

// EncodeRTI serialises a canonical ensemble to an RTI frame. The dataset
// set emitted is exactly the set of non-nil fields on ens; order is
// deterministic (spec §4.3.3).
func EncodeRTI(ens Ensemble) []byte {
	payload := encodeRTIPayload(ens)

	out := make([]byte, rtiHeaderLen+len(payload)+rtiChecksumLen)
	for i := 0; i < rtiHeaderSyncLen; i++ {
		out[i] = rtiSyncByte
	}
	putU32LE(out[16:20], ens.Meta.EnsembleNumber)
	putU32LE(out[20:24], uint32(len(payload)))
	putU32LE(out[24:28], ^ens.Meta.EnsembleNumber)
	putU32LE(out[28:32], ^uint32(len(payload)))
	copy(out[rtiHeaderLen:], payload)
	putU32LE(out[rtiHeaderLen+len(payload):], checksum32(payload))
	return out
}

func encodeRTIPayload(ens Ensemble) []byte {
	var payload []byte
	emit := func(tag string, kind ValueKind, count, mult int32, body []byte) {
		hdr := make([]byte, rtiDatasetHdrLen+rtiNameLen)
		putI32LE(hdr[0:4], int32(kind))
		putI32LE(hdr[4:8], count)
		putI32LE(hdr[8:12], mult)
		putI32LE(hdr[12:16], 0)
		putI32LE(hdr[16:20], rtiNameLen)
		copy(hdr[20:], tag)
		payload = append(payload, hdr...)
		payload = append(payload, body...)
	}

	n, bm := ens.Meta.NumCells, ens.Meta.NumBeams

	for _, tag := range rtiDatasetOrder {
		switch tag {
		case tagEnsembleMeta:
			vals := []int32{
				int32(ens.Meta.EnsembleNumber), int32(ens.Meta.Year), int32(ens.Meta.Month), int32(ens.Meta.Day),
				int32(ens.Meta.Hour), int32(ens.Meta.Minute), int32(ens.Meta.Second), int32(ens.Meta.HSec),
				int32(ens.Meta.NumBeams), int32(ens.Meta.NumCells),
			}
			emit(tag, ValueKindI32, int32(len(vals)), 1, encodeI32Array(vals))
		case tagAncillary:
			if ens.Ancillary == nil {
				continue
			}
			a := ens.Ancillary
			f := []float32{
				a.FirstBinRange, a.LastBinRange, a.BinSize, a.FirstPingTime, a.LastPingTime,
				a.Heading, a.Pitch, a.Roll, a.WaterTemp, a.SystemTemp, a.Salinity,
				a.Pressure, a.TransducerDepth, a.SpeedOfSound,
				a.RawMagField[0], a.RawMagField[1], a.RawMagField[2],
				a.RawAccel[0], a.RawAccel[1], a.RawAccel[2],
				a.RawTilt[0], a.RawTilt[1], a.RawTilt[2],
			}
			emit(tag, ValueKindF32, int32(len(f)), 1, encodeF32Array(f))
		case tagAmplitude:
			if ens.Amplitude == nil {
				continue
			}
			emit(tag, ValueKindF32, int32(n), int32(bm), encodeF32Array(ens.Amplitude.Data))
		case tagCorrelation:
			if ens.Correlation == nil {
				continue
			}
			emit(tag, ValueKindF32, int32(n), int32(bm), encodeF32Array(ens.Correlation.Data))
		case tagBeamVelocity:
			if ens.BeamVelocity == nil {
				continue
			}
			emit(tag, ValueKindF32, int32(n), int32(bm), encodeF32Array(ens.BeamVelocity.Data))
		case tagInstrumentVelocity:
			if ens.InstrumentVelocity == nil {
				continue
			}
			emit(tag, ValueKindF32, int32(n), int32(bm), encodeF32Array(ens.InstrumentVelocity.Data))
		case tagEarthVelocity:
			if ens.EarthVelocity == nil {
				continue
			}
			emit(tag, ValueKindF32, int32(n), int32(bm), encodeF32Array(ens.EarthVelocity.Data))
		case tagShipVelocity:
			if ens.ShipVelocity == nil {
				continue
			}
			emit(tag, ValueKindF32, int32(n), int32(bm), encodeF32Array(ens.ShipVelocity.Data))
		case tagGoodBeam:
			if ens.GoodPings == nil {
				continue
			}
			emit(tag, ValueKindF32, int32(n), int32(bm), encodeF32Array(ens.GoodPings.Beam.Data))
		case tagGoodInstrument:
			if ens.GoodPings == nil {
				continue
			}
			emit(tag, ValueKindF32, int32(n), int32(bm), encodeF32Array(ens.GoodPings.Instrument.Data))
		case tagGoodEarth:
			if ens.GoodPings == nil {
				continue
			}
			emit(tag, ValueKindF32, int32(n), int32(bm), encodeF32Array(ens.GoodPings.Earth.Data))
		case tagBottomTrack:
			if ens.BottomTrack == nil {
				continue
			}
			body, count := encodeBottomTrack(ens.BottomTrack, bm)
			emit(tag, ValueKindF32, int32(count), 1, body)
		case tagSystemSetup:
			if ens.SystemSetup == nil {
				continue
			}
			s := ens.SystemSetup
			f := []float32{s.BinSize, s.Blank, float32(s.WPPingCount), float32(s.BTPingCount),
				float32(s.LagSamples), float32(s.CodeRepeats), float32(s.TransmitCycles)}
			emit(tag, ValueKindF32, int32(len(f)), 1, encodeF32Array(f))
		case tagNMEA:
			if ens.NMEA == nil {
				continue
			}
			body := padToWord(ens.NMEA.Raw)
			emit(tag, ValueKindI32, int32(len(body)/4), 1, body)
		case tagEarthWaterMass:
			if ens.EarthWaterMass == nil {
				continue
			}
			body, count := encodeWaterMass(ens.EarthWaterMass)
			emit(tag, ValueKindF32, int32(count), 1, body)
		case tagInstrumentWaterMass:
			if ens.InstrumentWaterMass == nil {
				continue
			}
			body, count := encodeWaterMass(ens.InstrumentWaterMass)
			emit(tag, ValueKindF32, int32(count), 1, body)
		}
	}
	return payload
}

func encodeI32Array(v []int32) []byte {
	out := make([]byte, len(v)*4)
	for i, x := range v {
		putI32LE(out[i*4:i*4+4], x)
	}
	return out
}

func encodeF32Array(v []float32) []byte {
	out := make([]byte, len(v)*4)
	for i, x := range v {
		putF32LE(out[i*4:i*4+4], x)
	}
	return out
}

func encodeBottomTrack(bt *BottomTrack, bm int) ([]byte, int) {
	var f []float32
	f = append(f, bt.Range...)
	f = append(f, bt.SNR...)
	f = append(f, bt.Amplitude...)
	f = append(f, bt.Correlation...)
	f = append(f, bt.VelocityBeam...)
	f = append(f, bt.VelocityInstrument...)
	f = append(f, bt.VelocityEarth...)
	f = append(f, bt.VelocityShip...)
	f = append(f, i32ToF32Slice(bt.GoodBeam)...)
	f = append(f, i32ToF32Slice(bt.GoodInstrument)...)
	f = append(f, i32ToF32Slice(bt.GoodEarth)...)
	f = append(f, bt.Heading, bt.Pitch, bt.Roll, bt.WaterTemp, bt.SystemTemp, bt.Salinity,
		bt.Pressure, bt.TransducerDepth, bt.SpeedOfSound, bt.FirstPingTime, bt.LastPingTime,
		float32(bt.Status), float32(bt.ActualPingCount))
	return encodeF32Array(f), len(f)
}

func i32ToF32Slice(v []int32) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}

func encodeWaterMass(wm *WaterMass) ([]byte, int) {
	f := append([]float32(nil), wm.Velocity...)
	f = append(f, wm.DepthLayer, wm.Near, wm.Far)
	return encodeF32Array(f), len(f)
}

func padToWord(b []byte) []byte {
	n := len(b)
	pad := (4 - n%4) % 4
	out := make([]byte, n+pad)
	copy(out, b)
	return out
}

func (k ValueKind) String() string {
	switch k {
	case ValueKindF32:
		return "f32"
	case ValueKindI32:
		return "i32"
	default:
		return fmt.Sprintf("ValueKind(%d)", int32(k))
	}
}
