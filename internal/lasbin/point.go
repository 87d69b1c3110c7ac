package lasbin

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/openchart/geoio/pkg/geom"
)

// WavePacket is the 29-byte wave-packet block carried by point formats
// 4, 5, 9 and 10.
type WavePacket struct {
	DescriptorIndex byte
	DataOffset      uint64
	Size            uint32
	ReturnLocation  float32
	Xt, Yt, Zt      float32
}

// Point is the common-plus-extensions record decoded from a single
// point-data entry. Has* flags record which extension blocks the source
// format carried.
type Point struct {
	Coordinate geom.Coordinate

	Intensity uint16

	ReturnNumber          byte
	TotalReturnNumber     byte
	ScanDirectionPositive bool
	FlightLineEdge        bool

	Classification byte
	Synthetic      bool
	KeyPoint       bool
	Withheld       bool

	// Overlap and ScannerChannel are only meaningful for formats >= 6.
	Overlap        bool
	ScannerChannel byte

	ScanAngle int16 // formats < 6 carry an i8 widened into this field
	UserData  byte

	PointSourceID uint16

	HasGPSTime bool
	GPSTime    float64

	HasRGB           bool
	Red, Green, Blue uint16

	HasNIR bool
	NIR    uint16

	HasWavePacket bool
	WavePacket    WavePacket
}

// IsScanDirectionNegative is the complement of ScanDirectionPositive; both
// read the same backing bit.
func (p *Point) IsScanDirectionNegative() bool { return !p.ScanDirectionPositive }

func hasGPSTime(format byte) bool {
	switch format {
	case 1, 3, 4, 5, 6, 7, 8, 9, 10:
		return true
	default:
		return false
	}
}

func hasRGB(format byte) bool {
	switch format {
	case 2, 3, 5, 7, 8, 10:
		return true
	default:
		return false
	}
}

func hasNIR(format byte) bool {
	return format == 8 || format == 10
}

func hasWavePacket(format byte) bool {
	switch format {
	case 4, 5, 9, 10:
		return true
	default:
		return false
	}
}

// PointRecordLength returns the minimal byte length of format's fields,
// excluding any reserved padding PointDataRecordLength might add.
func PointRecordLength(format byte) (int, error) {
	if format > 10 {
		return 0, &ErrUnsupportedFormat{Reason: fmt.Sprintf("format %d out of range", format)}
	}
	size := 14 // x,y,z(i32*3=12)+intensity(2)
	if format < 6 {
		size += 1 + 1 + 1 + 1 + 2 // flags1, flags2, scanAngle(i8), userData, pointSourceId
	} else {
		size += 1 + 1 + 1 + 1 + 2 + 2 // flags1, flags2, classification, userData, scanAngle(i16), pointSourceId
	}
	if hasGPSTime(format) {
		size += 8
	}
	if hasRGB(format) {
		size += 6
	}
	if hasNIR(format) {
		size += 2
	}
	if hasWavePacket(format) {
		size += 29
	}
	return size, nil
}

// DecodePoint reads one point-data record at the current reader position.
// scale/offset come from the header; pointDataLength is the header's
// declared record stride, used to compute and skip trailing padding.
func DecodePoint(r io.Reader, format byte, scaleX, scaleY, scaleZ, offX, offY, offZ float64, pointDataLength int) (*Point, error) {
	if format > 10 {
		return nil, &ErrUnsupportedFormat{Reason: fmt.Sprintf("format %d out of range", format)}
	}

	var raw [4]byte
	readI32 := func() (int32, error) {
		if _, err := io.ReadFull(r, raw[:]); err != nil {
			return 0, err
		}
		return int32(binary.LittleEndian.Uint32(raw[:])), nil
	}
	var raw2 [2]byte
	readU16 := func() (uint16, error) {
		if _, err := io.ReadFull(r, raw2[:]); err != nil {
			return 0, err
		}
		return binary.LittleEndian.Uint16(raw2[:]), nil
	}

	consumed := 0

	xr, err := readI32()
	if err != nil {
		return nil, err
	}
	yr, err := readI32()
	if err != nil {
		return nil, err
	}
	zr, err := readI32()
	if err != nil {
		return nil, err
	}
	consumed += 12

	p := &Point{
		Coordinate: geom.Coordinate{
			X: float64(xr)*scaleX + offX,
			Y: float64(yr)*scaleY + offY,
			Z: float64(zr)*scaleZ + offZ,
		},
	}

	if p.Intensity, err = readU16(); err != nil {
		return nil, err
	}
	consumed += 2

	var b1, b2 [1]byte
	if _, err := io.ReadFull(r, b1[:]); err != nil {
		return nil, err
	}
	consumed++

	if format < 6 {
		beta1 := b1[0]
		p.ReturnNumber = beta1 & 0b111
		p.TotalReturnNumber = (beta1 >> 3) & 0b111
		p.ScanDirectionPositive = beta1&(1<<6) != 0
		p.FlightLineEdge = beta1&(1<<7) != 0

		if _, err := io.ReadFull(r, b2[:]); err != nil {
			return nil, err
		}
		consumed++
		beta2 := b2[0]
		p.Classification = beta2 & 0b11111
		p.Synthetic = beta2&(1<<5) != 0
		p.KeyPoint = beta2&(1<<6) != 0
		p.Withheld = beta2&(1<<7) != 0

		var angle [1]byte
		if _, err := io.ReadFull(r, angle[:]); err != nil {
			return nil, err
		}
		consumed++
		p.ScanAngle = int16(int8(angle[0]))

		var userData [1]byte
		if _, err := io.ReadFull(r, userData[:]); err != nil {
			return nil, err
		}
		consumed++
		p.UserData = userData[0]
	} else {
		beta1 := b1[0]
		p.ReturnNumber = beta1 & 0b1111
		p.TotalReturnNumber = (beta1 >> 4) & 0b1111

		if _, err := io.ReadFull(r, b2[:]); err != nil {
			return nil, err
		}
		consumed++
		beta2 := b2[0]
		p.Synthetic = beta2&(1<<0) != 0
		p.KeyPoint = beta2&(1<<1) != 0
		p.Withheld = beta2&(1<<2) != 0
		p.Overlap = beta2&(1<<3) != 0
		p.ScannerChannel = (beta2 >> 4) & 0b11
		p.ScanDirectionPositive = beta2&(1<<6) != 0
		p.FlightLineEdge = beta2&(1<<7) != 0

		var cls [1]byte
		if _, err := io.ReadFull(r, cls[:]); err != nil {
			return nil, err
		}
		consumed++
		p.Classification = cls[0]

		var userData [1]byte
		if _, err := io.ReadFull(r, userData[:]); err != nil {
			return nil, err
		}
		consumed++
		p.UserData = userData[0]

		angle16, err := readU16()
		if err != nil {
			return nil, err
		}
		consumed += 2
		p.ScanAngle = int16(angle16)
	}

	if p.PointSourceID, err = readU16(); err != nil {
		return nil, err
	}
	consumed += 2

	if hasGPSTime(format) {
		var gb [8]byte
		if _, err := io.ReadFull(r, gb[:]); err != nil {
			return nil, err
		}
		consumed += 8
		p.HasGPSTime = true
		p.GPSTime = math.Float64frombits(binary.LittleEndian.Uint64(gb[:]))
	}

	if hasRGB(format) {
		p.HasRGB = true
		if p.Red, err = readU16(); err != nil {
			return nil, err
		}
		if p.Green, err = readU16(); err != nil {
			return nil, err
		}
		if p.Blue, err = readU16(); err != nil {
			return nil, err
		}
		consumed += 6
	}

	if hasNIR(format) {
		p.HasNIR = true
		if p.NIR, err = readU16(); err != nil {
			return nil, err
		}
		consumed += 2
	}

	if hasWavePacket(format) {
		p.HasWavePacket = true
		wp, n, err := decodeWavePacket(r)
		if err != nil {
			return nil, err
		}
		p.WavePacket = wp
		consumed += n
	}

	if pointDataLength > consumed {
		pad := make([]byte, pointDataLength-consumed)
		if _, err := io.ReadFull(r, pad); err != nil {
			return nil, err
		}
	}

	return p, nil
}

func decodeWavePacket(r io.Reader) (WavePacket, int, error) {
	var wp WavePacket
	var b [29]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return wp, 0, err
	}
	wp.DescriptorIndex = b[0]
	wp.DataOffset = binary.LittleEndian.Uint64(b[1:9])
	wp.Size = binary.LittleEndian.Uint32(b[9:13])
	wp.ReturnLocation = math.Float32frombits(binary.LittleEndian.Uint32(b[13:17]))
	wp.Xt = math.Float32frombits(binary.LittleEndian.Uint32(b[17:21]))
	wp.Yt = math.Float32frombits(binary.LittleEndian.Uint32(b[21:25]))
	wp.Zt = math.Float32frombits(binary.LittleEndian.Uint32(b[25:29]))
	return wp, 29, nil
}

func encodeWavePacket(w io.Writer, wp WavePacket) error {
	var b [29]byte
	b[0] = wp.DescriptorIndex
	binary.LittleEndian.PutUint64(b[1:9], wp.DataOffset)
	binary.LittleEndian.PutUint32(b[9:13], wp.Size)
	binary.LittleEndian.PutUint32(b[13:17], math.Float32bits(wp.ReturnLocation))
	binary.LittleEndian.PutUint32(b[17:21], math.Float32bits(wp.Xt))
	binary.LittleEndian.PutUint32(b[21:25], math.Float32bits(wp.Yt))
	binary.LittleEndian.PutUint32(b[25:29], math.Float32bits(wp.Zt))
	_, err := w.Write(b[:])
	return err
}

// EncodePoint is the exact inverse of DecodePoint. Scaled coordinates that
// do not fit in an int32 fail with ErrScaleOverflow rather than wrapping.
func EncodePoint(w io.Writer, p *Point, format byte, scaleX, scaleY, scaleZ, offX, offY, offZ float64, pointDataLength int) error {
	if format > 10 {
		return &ErrUnsupportedFormat{Reason: fmt.Sprintf("format %d out of range", format)}
	}

	xr, err := scaledInt32("x", p.Coordinate.X, offX, scaleX)
	if err != nil {
		return err
	}
	yr, err := scaledInt32("y", p.Coordinate.Y, offY, scaleY)
	if err != nil {
		return err
	}
	zr, err := scaledInt32("z", p.Coordinate.Z, offZ, scaleZ)
	if err != nil {
		return err
	}

	var buf4 [4]byte
	writeI32 := func(v int32) error {
		binary.LittleEndian.PutUint32(buf4[:], uint32(v))
		_, err := w.Write(buf4[:])
		return err
	}
	var buf2 [2]byte
	writeU16 := func(v uint16) error {
		binary.LittleEndian.PutUint16(buf2[:], v)
		_, err := w.Write(buf2[:])
		return err
	}

	consumed := 0
	if err := writeI32(xr); err != nil {
		return err
	}
	if err := writeI32(yr); err != nil {
		return err
	}
	if err := writeI32(zr); err != nil {
		return err
	}
	consumed += 12

	if err := writeU16(p.Intensity); err != nil {
		return err
	}
	consumed += 2

	if format < 6 {
		var beta1 byte
		beta1 = p.ReturnNumber & 0b111
		beta1 |= (p.TotalReturnNumber & 0b111) << 3
		if p.ScanDirectionPositive {
			beta1 |= 1 << 6
		}
		if p.FlightLineEdge {
			beta1 |= 1 << 7
		}
		if _, err := w.Write([]byte{beta1}); err != nil {
			return err
		}
		consumed++

		var beta2 byte
		beta2 = p.Classification & 0b11111
		if p.Synthetic {
			beta2 |= 1 << 5
		}
		if p.KeyPoint {
			beta2 |= 1 << 6
		}
		if p.Withheld {
			beta2 |= 1 << 7
		}
		if _, err := w.Write([]byte{beta2}); err != nil {
			return err
		}
		consumed++

		if _, err := w.Write([]byte{byte(int8(p.ScanAngle))}); err != nil {
			return err
		}
		consumed++
		if _, err := w.Write([]byte{p.UserData}); err != nil {
			return err
		}
		consumed++
	} else {
		var beta1 byte
		beta1 = p.ReturnNumber & 0b1111
		beta1 |= (p.TotalReturnNumber & 0b1111) << 4
		if _, err := w.Write([]byte{beta1}); err != nil {
			return err
		}
		consumed++

		var beta2 byte
		if p.Synthetic {
			beta2 |= 1 << 0
		}
		if p.KeyPoint {
			beta2 |= 1 << 1
		}
		if p.Withheld {
			beta2 |= 1 << 2
		}
		if p.Overlap {
			beta2 |= 1 << 3
		}
		beta2 |= (p.ScannerChannel & 0b11) << 4
		if p.ScanDirectionPositive {
			beta2 |= 1 << 6
		}
		if p.FlightLineEdge {
			beta2 |= 1 << 7
		}
		if _, err := w.Write([]byte{beta2}); err != nil {
			return err
		}
		consumed++

		if _, err := w.Write([]byte{p.Classification}); err != nil {
			return err
		}
		consumed++
		if _, err := w.Write([]byte{p.UserData}); err != nil {
			return err
		}
		consumed++

		if err := writeU16(uint16(p.ScanAngle)); err != nil {
			return err
		}
		consumed += 2
	}

	if err := writeU16(p.PointSourceID); err != nil {
		return err
	}
	consumed += 2

	if hasGPSTime(format) {
		var b8 [8]byte
		binary.LittleEndian.PutUint64(b8[:], math.Float64bits(p.GPSTime))
		if _, err := w.Write(b8[:]); err != nil {
			return err
		}
		consumed += 8
	}

	if hasRGB(format) {
		if err := writeU16(p.Red); err != nil {
			return err
		}
		if err := writeU16(p.Green); err != nil {
			return err
		}
		if err := writeU16(p.Blue); err != nil {
			return err
		}
		consumed += 6
	}

	if hasNIR(format) {
		if err := writeU16(p.NIR); err != nil {
			return err
		}
		consumed += 2
	}

	if hasWavePacket(format) {
		if err := encodeWavePacket(w, p.WavePacket); err != nil {
			return err
		}
		consumed += 29
	}

	if pointDataLength > consumed {
		pad := make([]byte, pointDataLength-consumed)
		if _, err := w.Write(pad); err != nil {
			return err
		}
	}

	return nil
}

func scaledInt32(axis string, value, offset, scale float64) (int32, error) {
	raw := (value - offset) / scale
	if raw > math.MaxInt32 || raw < math.MinInt32 || math.IsNaN(raw) {
		return 0, &ErrScaleOverflow{Axis: axis, Value: value}
	}
	return int32(math.Round(raw)), nil
}
