package lasbin

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
)

// GlobalEncoding is the 16-bit bitfield at offset 6 of the public header.
//
// Bit layout:
//
//	0: GPSTimeIsStandard (else GPS week time)
//	1: WaveformDataInternal
//	2: WaveformDataExternal (mutually exclusive with bit 1)
//	3: ReturnNumbersSynthetic
//	4: CRSIsWKT (else GeoTIFF)
type GlobalEncoding struct {
	GPSTimeIsStandard      bool
	WaveformDataInternal   bool
	WaveformDataExternal   bool
	ReturnNumbersSynthetic bool
	CRSIsWKT               bool
}

// pack encodes the flags into the 16-bit wire value. Exclusivity of the two
// waveform flags is enforced by SetWaveformInternal/SetWaveformExternal;
// pack mirrors whichever the struct currently holds.
func (g GlobalEncoding) pack() uint16 {
	var v uint16
	if g.GPSTimeIsStandard {
		v |= 1 << 0
	}
	if g.WaveformDataInternal {
		v |= 1 << 1
	}
	if g.WaveformDataExternal {
		v |= 1 << 2
	}
	if g.ReturnNumbersSynthetic {
		v |= 1 << 3
	}
	if g.CRSIsWKT {
		v |= 1 << 4
	}
	return v
}

func unpackGlobalEncoding(v uint16) GlobalEncoding {
	return GlobalEncoding{
		GPSTimeIsStandard:      v&(1<<0) != 0,
		WaveformDataInternal:   v&(1<<1) != 0,
		WaveformDataExternal:   v&(1<<2) != 0,
		ReturnNumbersSynthetic: v&(1<<3) != 0,
		CRSIsWKT:               v&(1<<4) != 0,
	}
}

// SetWaveformInternal sets the internal waveform flag and clears external.
// The two flags are mutually exclusive; the most recently set one wins.
func (g *GlobalEncoding) SetWaveformInternal(v bool) {
	g.WaveformDataInternal = v
	if v {
		g.WaveformDataExternal = false
	}
}

// SetWaveformExternal sets the external waveform flag and clears internal.
func (g *GlobalEncoding) SetWaveformExternal(v bool) {
	g.WaveformDataExternal = v
	if v {
		g.WaveformDataInternal = false
	}
}

// VLR is a Variable Length Record: a 54-byte header followed by its payload.
type VLR struct {
	Reserved                uint16
	UserID                  string // 16 bytes, zero-trimmed
	RecordID                uint16
	RecordLengthAfterHeader uint16
	Description             string // 32 bytes, zero-trimmed
	Data                    []byte
}

// EVLR is an Extended Variable Length Record (LAS 1.4): a 60-byte header
// followed by its payload, located after the point data.
type EVLR struct {
	Reserved                uint16
	UserID                  string // 16 bytes, zero-trimmed
	RecordID                uint16
	RecordLengthAfterHeader uint64
	Description             string // 32 bytes, zero-trimmed
	Data                    []byte
}

const (
	headerSize10to12 = 227
	headerSize13     = 235
	headerSize14     = 375

	evlrHeaderSize = 60
)

// Header is the LAS public header record. The fixed prelude is 227 bytes
// for versions 1.0-1.2, 235 for 1.3 and 375 for 1.4.
type Header struct {
	FileSourceID   uint16
	GlobalEncoding GlobalEncoding

	ProjectID1 uint32
	ProjectID2 uint16
	ProjectID3 uint16
	ProjectID4 [8]byte

	VersionMajor, VersionMinor byte

	SystemIdentifier   string // 32 bytes, zero-padded on write, zero-trimmed on read
	GeneratingSoftware string // 32 bytes, zero-padded on write, zero-trimmed on read

	FileCreationDayOfYear uint16
	FileCreationYear      uint16

	PublicHeaderSize uint16
	PointDataOffset  uint32

	NumberOfVLRs uint32

	PointDataFormat       byte
	PointDataRecordLength uint16

	LegacyPointCount         uint32
	LegacyPointCountByReturn [5]uint32

	XScaleFactor, YScaleFactor, ZScaleFactor float64
	XOffset, YOffset, ZOffset                float64
	MaxX, MinX, MaxY, MinY, MaxZ, MinZ       float64

	// Present when VersionMinor >= 3.
	WavePacketRecordOffset uint64

	// Present when VersionMinor >= 4.
	StartOfFirstExtendedVLR uint64
	NumberOfExtendedVLRs    uint32
	PointCount              uint64
	PointCountByReturn      [15]uint64

	// VLRs occupying the region between PublicHeaderSize and PointDataOffset.
	// Parsed structurally when well-formed; the region must round-trip even
	// when it is not (see OpaqueTail).
	VLRs []VLR
	// OpaqueTail holds any bytes in [PublicHeaderSize, PointDataOffset) that
	// were not consumed as well-formed VLRs. The writer copies them through
	// verbatim so re-encoding reproduces the original file byte for byte.
	OpaqueTail []byte
}

// CreationDate is the (year, dayOfYear) file creation stamp. Years or days
// before 1 leave Valid false.
type CreationDate struct {
	Year, DayOfYear int
	Valid           bool
}

// CreationDate returns the decoded file creation date, or a zero-valid date
// if year or day-of-year are non-positive.
func (h *Header) CreationDate() CreationDate {
	if h.FileCreationYear == 0 || h.FileCreationDayOfYear == 0 {
		return CreationDate{}
	}
	return CreationDate{Year: int(h.FileCreationYear), DayOfYear: int(h.FileCreationDayOfYear), Valid: true}
}

// LegacyPointCountEffective returns the legacy counters as a 1.4 writer must
// emit them: zero if PointDataFormat > 5 or any count overflows uint32.
func (h *Header) LegacyPointCountEffective() (uint32, [5]uint32) {
	if h.PointDataFormat > 5 || h.PointCount > math.MaxUint32 {
		return 0, [5]uint32{}
	}
	for _, c := range h.PointCountByReturn {
		if c > math.MaxUint32 {
			return 0, [5]uint32{}
		}
	}
	return h.LegacyPointCount, h.LegacyPointCountByReturn
}

func fixedString(b []byte) string {
	return string(bytes.TrimRight(b, "\x00 "))
}

func putFixedString(dst []byte, s string) {
	n := copy(dst, s)
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
}

// DecodeHeader reads and validates the LAS public header from r.
func DecodeHeader(r io.Reader) (*Header, error) {
	var sig [4]byte
	if _, err := io.ReadFull(r, sig[:]); err != nil {
		return nil, &ErrHeaderInvalid{Reason: "truncated before signature: " + err.Error()}
	}
	if string(sig[:]) != "LASF" {
		return nil, &ErrHeaderInvalid{Reason: "missing LASF signature"}
	}

	h := &Header{}
	buf := make([]byte, 2)

	readU16 := func() (uint16, error) {
		if _, err := io.ReadFull(r, buf); err != nil {
			return 0, err
		}
		return binary.LittleEndian.Uint16(buf), nil
	}
	buf4 := make([]byte, 4)
	readU32 := func() (uint32, error) {
		if _, err := io.ReadFull(r, buf4); err != nil {
			return 0, err
		}
		return binary.LittleEndian.Uint32(buf4), nil
	}
	buf8 := make([]byte, 8)
	readU64 := func() (uint64, error) {
		if _, err := io.ReadFull(r, buf8); err != nil {
			return 0, err
		}
		return binary.LittleEndian.Uint64(buf8), nil
	}
	readF64 := func() (float64, error) {
		v, err := readU64()
		if err != nil {
			return 0, err
		}
		return math.Float64frombits(v), nil
	}

	var err error
	if h.FileSourceID, err = readU16(); err != nil {
		return nil, &ErrHeaderInvalid{Reason: err.Error()}
	}
	ge, err := readU16()
	if err != nil {
		return nil, &ErrHeaderInvalid{Reason: err.Error()}
	}
	h.GlobalEncoding = unpackGlobalEncoding(ge)

	if h.ProjectID1, err = readU32(); err != nil {
		return nil, &ErrHeaderInvalid{Reason: err.Error()}
	}
	if h.ProjectID2, err = readU16(); err != nil {
		return nil, &ErrHeaderInvalid{Reason: err.Error()}
	}
	if h.ProjectID3, err = readU16(); err != nil {
		return nil, &ErrHeaderInvalid{Reason: err.Error()}
	}
	if _, err = io.ReadFull(r, h.ProjectID4[:]); err != nil {
		return nil, &ErrHeaderInvalid{Reason: err.Error()}
	}

	var ver [2]byte
	if _, err = io.ReadFull(r, ver[:]); err != nil {
		return nil, &ErrHeaderInvalid{Reason: err.Error()}
	}
	h.VersionMajor, h.VersionMinor = ver[0], ver[1]
	if h.VersionMajor != 1 || h.VersionMinor > 4 {
		return nil, &ErrUnsupportedFormat{Reason: "unsupported version"}
	}

	sysID := make([]byte, 32)
	if _, err = io.ReadFull(r, sysID); err != nil {
		return nil, &ErrHeaderInvalid{Reason: err.Error()}
	}
	h.SystemIdentifier = fixedString(sysID)

	genSW := make([]byte, 32)
	if _, err = io.ReadFull(r, genSW); err != nil {
		return nil, &ErrHeaderInvalid{Reason: err.Error()}
	}
	h.GeneratingSoftware = fixedString(genSW)

	if h.FileCreationDayOfYear, err = readU16(); err != nil {
		return nil, &ErrHeaderInvalid{Reason: err.Error()}
	}
	if h.FileCreationYear, err = readU16(); err != nil {
		return nil, &ErrHeaderInvalid{Reason: err.Error()}
	}
	if h.PublicHeaderSize, err = readU16(); err != nil {
		return nil, &ErrHeaderInvalid{Reason: err.Error()}
	}
	if h.PointDataOffset, err = readU32(); err != nil {
		return nil, &ErrHeaderInvalid{Reason: err.Error()}
	}
	if h.NumberOfVLRs, err = readU32(); err != nil {
		return nil, &ErrHeaderInvalid{Reason: err.Error()}
	}

	var pdf [1]byte
	if _, err = io.ReadFull(r, pdf[:]); err != nil {
		return nil, &ErrHeaderInvalid{Reason: err.Error()}
	}
	h.PointDataFormat = pdf[0]
	if h.PointDataFormat > 10 {
		return nil, &ErrUnsupportedFormat{Reason: "point data format > 10"}
	}
	if h.PointDataFormat >= 6 && h.VersionMinor < 4 {
		return nil, &ErrUnsupportedFormat{Reason: "formats 6-10 require version 1.4"}
	}

	if h.PointDataRecordLength, err = readU16(); err != nil {
		return nil, &ErrHeaderInvalid{Reason: err.Error()}
	}
	if h.LegacyPointCount, err = readU32(); err != nil {
		return nil, &ErrHeaderInvalid{Reason: err.Error()}
	}
	for i := range h.LegacyPointCountByReturn {
		if h.LegacyPointCountByReturn[i], err = readU32(); err != nil {
			return nil, &ErrHeaderInvalid{Reason: err.Error()}
		}
	}

	for _, f := range []*float64{
		&h.XScaleFactor, &h.YScaleFactor, &h.ZScaleFactor,
		&h.XOffset, &h.YOffset, &h.ZOffset,
		&h.MaxX, &h.MinX, &h.MaxY, &h.MinY, &h.MaxZ, &h.MinZ,
	} {
		if *f, err = readF64(); err != nil {
			return nil, &ErrHeaderInvalid{Reason: err.Error()}
		}
	}

	if h.VersionMinor >= 3 {
		if h.WavePacketRecordOffset, err = readU64(); err != nil {
			return nil, &ErrHeaderInvalid{Reason: err.Error()}
		}
	}

	if h.VersionMinor >= 4 {
		if h.StartOfFirstExtendedVLR, err = readU64(); err != nil {
			return nil, &ErrHeaderInvalid{Reason: err.Error()}
		}
		if h.NumberOfExtendedVLRs, err = readU32(); err != nil {
			return nil, &ErrHeaderInvalid{Reason: err.Error()}
		}

		var legacyCount uint64
		if h.LegacyPointCount != 0 {
			legacyCount = uint64(h.LegacyPointCount)
		}
		extCount, err := readU64()
		if err != nil {
			return nil, &ErrHeaderInvalid{Reason: err.Error()}
		}

		switch {
		case legacyCount != 0 && extCount != 0:
			if legacyCount != extCount {
				return nil, &ErrHeaderInvalid{Reason: "legacy and extended point counts disagree"}
			}
			h.PointCount = extCount
		case extCount != 0:
			h.PointCount = extCount
		default:
			h.PointCount = legacyCount
		}

		for i := range h.PointCountByReturn {
			if h.PointCountByReturn[i], err = readU64(); err != nil {
				return nil, &ErrHeaderInvalid{Reason: err.Error()}
			}
		}
	} else {
		h.PointCount = uint64(h.LegacyPointCount)
	}

	// Headers may declare a size beyond the canonical prelude; the extra
	// bytes are padding.
	if canonical := HeaderSizeForVersion(h.VersionMajor, h.VersionMinor); h.PublicHeaderSize > canonical {
		pad := make([]byte, h.PublicHeaderSize-canonical)
		if _, err := io.ReadFull(r, pad); err != nil {
			return nil, &ErrHeaderInvalid{Reason: "truncated header padding: " + err.Error()}
		}
	}

	// Region between the fixed prelude and PointDataOffset: VLRs (if
	// well-formed) followed by opaque bytes.
	if err := readVLRRegion(r, h); err != nil {
		return nil, err
	}

	return h, nil
}

// readVLRRegion reads [current position, PointDataOffset) as a sequence of
// 54-byte VLR headers + payload. If parsing fails partway through (the
// region is short, or a declared payload runs past PointDataOffset), the
// remaining bytes of the region are preserved verbatim in OpaqueTail rather
// than erroring: only round-trip fidelity is required for this region, not
// that it be well-formed VLR data.
func readVLRRegion(r io.Reader, h *Header) error {
	region := int64(h.PointDataOffset) - int64(h.PublicHeaderSize)
	if region < 0 {
		return &ErrHeaderInvalid{Reason: "PointDataOffset precedes PublicHeaderSize"}
	}
	if region == 0 {
		return nil
	}

	raw := make([]byte, region)
	if _, err := io.ReadFull(r, raw); err != nil {
		return &ErrHeaderInvalid{Reason: "truncated VLR/opaque region: " + err.Error()}
	}

	offset := 0
	for i := uint32(0); i < h.NumberOfVLRs; i++ {
		if offset+54 > len(raw) {
			break
		}
		v := VLR{
			Reserved:                binary.LittleEndian.Uint16(raw[offset : offset+2]),
			UserID:                  fixedString(raw[offset+2 : offset+18]),
			RecordID:                binary.LittleEndian.Uint16(raw[offset+18 : offset+20]),
			RecordLengthAfterHeader: binary.LittleEndian.Uint16(raw[offset+20 : offset+22]),
			Description:             fixedString(raw[offset+22 : offset+54]),
		}
		payloadEnd := offset + 54 + int(v.RecordLengthAfterHeader)
		if payloadEnd > len(raw) {
			break
		}
		v.Data = append([]byte(nil), raw[offset+54:payloadEnd]...)
		h.VLRs = append(h.VLRs, v)
		offset = payloadEnd
	}

	h.OpaqueTail = append([]byte(nil), raw[offset:]...)
	return nil
}

// EncodeHeader writes the public header, including the preserved VLR/opaque
// region and the derived GlobalEncoding bitfield.
func EncodeHeader(w io.Writer, h *Header) error {
	if _, err := w.Write([]byte("LASF")); err != nil {
		return err
	}

	buf := make([]byte, 8)
	writeU16 := func(v uint16) error {
		binary.LittleEndian.PutUint16(buf[:2], v)
		_, err := w.Write(buf[:2])
		return err
	}
	writeU32 := func(v uint32) error {
		binary.LittleEndian.PutUint32(buf[:4], v)
		_, err := w.Write(buf[:4])
		return err
	}
	writeU64 := func(v uint64) error {
		binary.LittleEndian.PutUint64(buf[:8], v)
		_, err := w.Write(buf[:8])
		return err
	}
	writeF64 := func(v float64) error {
		return writeU64(math.Float64bits(v))
	}

	if err := writeU16(h.FileSourceID); err != nil {
		return err
	}
	if err := writeU16(h.GlobalEncoding.pack()); err != nil {
		return err
	}
	if err := writeU32(h.ProjectID1); err != nil {
		return err
	}
	if err := writeU16(h.ProjectID2); err != nil {
		return err
	}
	if err := writeU16(h.ProjectID3); err != nil {
		return err
	}
	if _, err := w.Write(h.ProjectID4[:]); err != nil {
		return err
	}
	if _, err := w.Write([]byte{h.VersionMajor, h.VersionMinor}); err != nil {
		return err
	}

	sysID := make([]byte, 32)
	putFixedString(sysID, h.SystemIdentifier)
	if _, err := w.Write(sysID); err != nil {
		return err
	}
	genSW := make([]byte, 32)
	putFixedString(genSW, h.GeneratingSoftware)
	if _, err := w.Write(genSW); err != nil {
		return err
	}

	if err := writeU16(h.FileCreationDayOfYear); err != nil {
		return err
	}
	if err := writeU16(h.FileCreationYear); err != nil {
		return err
	}
	if err := writeU16(h.PublicHeaderSize); err != nil {
		return err
	}
	if err := writeU32(h.PointDataOffset); err != nil {
		return err
	}
	if err := writeU32(h.NumberOfVLRs); err != nil {
		return err
	}
	if _, err := w.Write([]byte{h.PointDataFormat}); err != nil {
		return err
	}
	if err := writeU16(h.PointDataRecordLength); err != nil {
		return err
	}
	if err := writeU32(h.LegacyPointCount); err != nil {
		return err
	}
	for _, c := range h.LegacyPointCountByReturn {
		if err := writeU32(c); err != nil {
			return err
		}
	}
	for _, f := range []float64{
		h.XScaleFactor, h.YScaleFactor, h.ZScaleFactor,
		h.XOffset, h.YOffset, h.ZOffset,
		h.MaxX, h.MinX, h.MaxY, h.MinY, h.MaxZ, h.MinZ,
	} {
		if err := writeF64(f); err != nil {
			return err
		}
	}

	if h.VersionMinor >= 3 {
		if err := writeU64(h.WavePacketRecordOffset); err != nil {
			return err
		}
	}
	if h.VersionMinor >= 4 {
		if err := writeU64(h.StartOfFirstExtendedVLR); err != nil {
			return err
		}
		if err := writeU32(h.NumberOfExtendedVLRs); err != nil {
			return err
		}
		if err := writeU64(h.PointCount); err != nil {
			return err
		}
		for _, c := range h.PointCountByReturn {
			if err := writeU64(c); err != nil {
				return err
			}
		}
	}

	if canonical := HeaderSizeForVersion(h.VersionMajor, h.VersionMinor); h.PublicHeaderSize > canonical {
		if _, err := w.Write(make([]byte, h.PublicHeaderSize-canonical)); err != nil {
			return err
		}
	}

	return writeVLRRegion(w, h)
}

// writeVLRRegion writes h.VLRs followed by h.OpaqueTail, reproducing the
// exact byte region a decode would have read, including files the writer
// never parsed itself.
func writeVLRRegion(w io.Writer, h *Header) error {
	for _, v := range h.VLRs {
		hdr := make([]byte, 54)
		binary.LittleEndian.PutUint16(hdr[0:2], v.Reserved)
		putFixedString(hdr[2:18], v.UserID)
		binary.LittleEndian.PutUint16(hdr[18:20], v.RecordID)
		binary.LittleEndian.PutUint16(hdr[20:22], uint16(len(v.Data)))
		putFixedString(hdr[22:54], v.Description)
		if _, err := w.Write(hdr); err != nil {
			return err
		}
		if _, err := w.Write(v.Data); err != nil {
			return err
		}
	}
	if len(h.OpaqueTail) > 0 {
		if _, err := w.Write(h.OpaqueTail); err != nil {
			return err
		}
	}
	return nil
}

// DecodeExtendedVLRs seeks to the header's extended-VLR region and reads
// the declared number of EVLRs. Returns nil for pre-1.4 files and for 1.4
// files declaring none.
func DecodeExtendedVLRs(r io.ReadSeeker, h *Header) ([]EVLR, error) {
	if h.VersionMinor < 4 || h.NumberOfExtendedVLRs == 0 {
		return nil, nil
	}
	if _, err := r.Seek(int64(h.StartOfFirstExtendedVLR), io.SeekStart); err != nil {
		return nil, &ErrHeaderInvalid{Reason: "seek to extended VLRs: " + err.Error()}
	}

	evlrs := make([]EVLR, 0, h.NumberOfExtendedVLRs)
	hdr := make([]byte, evlrHeaderSize)
	for i := uint32(0); i < h.NumberOfExtendedVLRs; i++ {
		if _, err := io.ReadFull(r, hdr); err != nil {
			return nil, &ErrHeaderInvalid{Reason: "truncated extended VLR header: " + err.Error()}
		}
		e := EVLR{
			Reserved:                binary.LittleEndian.Uint16(hdr[0:2]),
			UserID:                  fixedString(hdr[2:18]),
			RecordID:                binary.LittleEndian.Uint16(hdr[18:20]),
			RecordLengthAfterHeader: binary.LittleEndian.Uint64(hdr[20:28]),
			Description:             fixedString(hdr[28:60]),
		}
		e.Data = make([]byte, e.RecordLengthAfterHeader)
		if _, err := io.ReadFull(r, e.Data); err != nil {
			return nil, &ErrHeaderInvalid{Reason: "truncated extended VLR payload: " + err.Error()}
		}
		evlrs = append(evlrs, e)
	}
	return evlrs, nil
}

// EncodeExtendedVLRs writes evlrs at the current stream position and
// returns the total number of bytes written.
func EncodeExtendedVLRs(w io.Writer, evlrs []EVLR) (int64, error) {
	var written int64
	hdr := make([]byte, evlrHeaderSize)
	for _, e := range evlrs {
		binary.LittleEndian.PutUint16(hdr[0:2], e.Reserved)
		putFixedString(hdr[2:18], e.UserID)
		binary.LittleEndian.PutUint16(hdr[18:20], e.RecordID)
		binary.LittleEndian.PutUint64(hdr[20:28], uint64(len(e.Data)))
		putFixedString(hdr[28:60], e.Description)
		if _, err := w.Write(hdr); err != nil {
			return written, err
		}
		written += evlrHeaderSize
		if _, err := w.Write(e.Data); err != nil {
			return written, err
		}
		written += int64(len(e.Data))
	}
	return written, nil
}

// HeaderSizeForVersion returns the canonical fixed-prelude size for a
// version.
func HeaderSizeForVersion(major, minor byte) uint16 {
	switch {
	case major == 1 && minor >= 4:
		return headerSize14
	case major == 1 && minor == 3:
		return headerSize13
	default:
		return headerSize10to12
	}
}
