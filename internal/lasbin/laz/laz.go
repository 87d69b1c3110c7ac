//go:build laszip

// Package laz adapts the liblaszip C library into the lasbin point-record
// types, letting the rest of the module treat a compressed LAZ stream the
// same way it treats a plain LAS one. It is only compiled with the
// "laszip" build tag since it links against the native library via cgo.
package laz

/*
#cgo CFLAGS: -I/usr/local/include
#cgo LDFLAGS: -llaszip -lstdc++
#include <laszip/laszip_api.h>
#include <stdlib.h>
*/
import "C"

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"unsafe"

	"github.com/openchart/geoio/internal/lasbin"
	"github.com/openchart/geoio/pkg/geom"
)

// Reader decodes a compressed .laz stream point by point through liblaszip,
// surfacing lasbin.Header and lasbin.Point exactly as DecodeHeader/
// DecodePoint would for an uncompressed stream.
type Reader struct {
	pointer C.laszip_POINTER
	header  *C.laszip_header
	point   *C.laszip_point

	isOpen bool
	read   uint64

	decoded *lasbin.Header
}

// Open creates a LASzip reader and opens filename for reading. LASzip
// requires a filesystem path; it cannot read from an arbitrary io.Reader.
func Open(filename string) (*Reader, error) {
	r := &Reader{}
	if result := C.laszip_create(&r.pointer); result != 0 {
		return nil, r.wrapError("laszip_create", result)
	}

	cName := C.CString(filename)
	defer C.free(unsafe.Pointer(cName))

	var isCompressed C.laszip_BOOL
	if result := C.laszip_open_reader(r.pointer, cName, &isCompressed); result != 0 {
		err := r.wrapError("laszip_open_reader", result)
		C.laszip_destroy(r.pointer)
		return nil, err
	}

	if result := C.laszip_get_header_pointer(r.pointer, &r.header); result != 0 {
		return nil, r.wrapError("laszip_get_header_pointer", result)
	}
	if result := C.laszip_get_point_pointer(r.pointer, &r.point); result != 0 {
		return nil, r.wrapError("laszip_get_point_pointer", result)
	}

	r.isOpen = true
	r.decoded = r.decodeHeader()
	return r, nil
}

// Header returns the public header decoded from the LASzip header struct,
// in the same shape DecodeHeader would produce for an uncompressed file.
func (r *Reader) Header() *lasbin.Header { return r.decoded }

func (r *Reader) decodeHeader() *lasbin.Header {
	h := &lasbin.Header{
		FileSourceID:          uint16(r.header.file_source_ID),
		VersionMajor:          byte(r.header.version_major),
		VersionMinor:          byte(r.header.version_minor),
		PublicHeaderSize:      uint16(r.header.header_size),
		PointDataOffset:       uint32(r.header.offset_to_point_data),
		NumberOfVLRs:          uint32(r.header.number_of_variable_length_records),
		PointDataFormat:       byte(r.header.point_data_format),
		PointDataRecordLength: uint16(r.header.point_data_record_length),
		LegacyPointCount:      uint32(r.header.number_of_point_records),
		XScaleFactor:          float64(r.header.x_scale_factor),
		YScaleFactor:          float64(r.header.y_scale_factor),
		ZScaleFactor:          float64(r.header.z_scale_factor),
		XOffset:               float64(r.header.x_offset),
		YOffset:               float64(r.header.y_offset),
		ZOffset:               float64(r.header.z_offset),
		MaxX:                  float64(r.header.max_x),
		MinX:                  float64(r.header.min_x),
		MaxY:                  float64(r.header.max_y),
		MinY:                  float64(r.header.min_y),
		MaxZ:                  float64(r.header.max_z),
		MinZ:                  float64(r.header.min_z),
		FileCreationDayOfYear: uint16(r.header.file_creation_day),
		FileCreationYear:      uint16(r.header.file_creation_year),
	}
	h.PointCount = uint64(h.LegacyPointCount)
	for i := 0; i < 5; i++ {
		h.LegacyPointCountByReturn[i] = uint32(r.header.number_of_points_by_return[i])
	}
	return h
}

// ReadPoint decodes the next point via liblaszip and maps it onto
// lasbin.Point, using the same bitfield semantics DecodePoint applies to an
// uncompressed record so callers cannot tell the two codecs apart.
func (r *Reader) ReadPoint() (*lasbin.Point, error) {
	if !r.isOpen {
		return nil, errors.New("laz: read on closed reader")
	}
	if r.read >= r.decoded.PointCount {
		return nil, errors.New("laz: read past end of stream")
	}

	if result := C.laszip_read_point(r.pointer); result != 0 {
		return nil, r.wrapError("laszip_read_point", result)
	}

	var coords [3]C.double
	if result := C.laszip_get_coordinates(r.pointer, &coords[0]); result != 0 {
		return nil, r.wrapError("laszip_get_coordinates", result)
	}

	format := r.decoded.PointDataFormat
	p := &lasbin.Point{
		Coordinate: geom.Coordinate{
			X: float64(coords[0]),
			Y: float64(coords[1]),
			Z: float64(coords[2]),
		},
		Intensity:     uint16(r.point.intensity),
		UserData:      byte(r.point.user_data),
		PointSourceID: uint16(r.point.point_source_ID),
	}

	if format < 6 {
		p.ReturnNumber = byte(r.point.return_number)
		p.TotalReturnNumber = byte(r.point.number_of_returns_of_given_pulse)
		p.ScanDirectionPositive = r.point.scan_direction_flag != 0
		p.FlightLineEdge = r.point.edge_of_flight_line != 0
		p.Classification = byte(r.point.classification) & 0b11111
		p.Synthetic = r.point.classification&0x20 != 0
		p.KeyPoint = r.point.classification&0x40 != 0
		p.Withheld = r.point.classification&0x80 != 0
		p.ScanAngle = int16(r.point.scan_angle_rank)
	} else {
		p.ReturnNumber = byte(r.point.extended_return_number)
		p.TotalReturnNumber = byte(r.point.extended_number_of_returns)
		p.Classification = byte(r.point.extended_classification)
		p.Synthetic = r.point.extended_classification_flags&0x1 != 0
		p.KeyPoint = r.point.extended_classification_flags&0x2 != 0
		p.Withheld = r.point.extended_classification_flags&0x4 != 0
		p.Overlap = r.point.extended_classification_flags&0x8 != 0
		p.ScannerChannel = byte(r.point.extended_scanner_channel)
		p.ScanDirectionPositive = r.point.scan_direction_flag != 0
		p.FlightLineEdge = r.point.edge_of_flight_line != 0
		p.ScanAngle = int16(r.point.extended_scan_angle)
	}

	if hasGPSTime(format) {
		p.HasGPSTime = true
		p.GPSTime = float64(r.point.gps_time)
	}
	if hasRGB(format) {
		p.HasRGB = true
		p.Red = uint16(r.point.rgb[0])
		p.Green = uint16(r.point.rgb[1])
		p.Blue = uint16(r.point.rgb[2])
	}
	if hasNIR(format) {
		p.HasNIR = true
		p.NIR = uint16(r.point.rgb[3])
	}
	if hasWavePacket(format) {
		p.HasWavePacket = true
		p.WavePacket = decodeWavePacket(&r.point.wave_packet)
	}

	r.read++
	return p, nil
}

// decodeWavePacket reads the 29-byte wave-packet block liblaszip stores
// inline on laszip_point, using the same field offsets as lasbin.Point's
// decodeWavePacket so the cgo and pure-Go codecs agree byte for byte.
func decodeWavePacket(raw *[29]C.laszip_U8) lasbin.WavePacket {
	var b [29]byte
	for i := range b {
		b[i] = byte(raw[i])
	}

	return lasbin.WavePacket{
		DescriptorIndex: b[0],
		DataOffset:      binary.LittleEndian.Uint64(b[1:9]),
		Size:            binary.LittleEndian.Uint32(b[9:13]),
		ReturnLocation:  math.Float32frombits(binary.LittleEndian.Uint32(b[13:17])),
		Xt:              math.Float32frombits(binary.LittleEndian.Uint32(b[17:21])),
		Yt:              math.Float32frombits(binary.LittleEndian.Uint32(b[21:25])),
		Zt:              math.Float32frombits(binary.LittleEndian.Uint32(b[25:29])),
	}
}

func hasWavePacket(format byte) bool {
	switch format {
	case 4, 5, 9, 10:
		return true
	default:
		return false
	}
}

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

func hasNIR(format byte) bool { return format == 8 || format == 10 }

// Close releases the LASzip reader.
func (r *Reader) Close() error {
	if !r.isOpen {
		return nil
	}
	if result := C.laszip_close_reader(r.pointer); result != 0 {
		return r.wrapError("laszip_close_reader", result)
	}
	if result := C.laszip_destroy(r.pointer); result != 0 {
		return r.wrapError("laszip_destroy", result)
	}
	r.isOpen = false
	return nil
}

func (r *Reader) wrapError(op string, code C.laszip_I32) error {
	var cErr *C.char
	C.laszip_get_error(r.pointer, &cErr)
	if cErr != nil {
		return fmt.Errorf("laz: %s: %s", op, C.GoString(cErr))
	}
	return fmt.Errorf("laz: %s failed with code %d", op, int(code))
}
