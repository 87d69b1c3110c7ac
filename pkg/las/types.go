package las

import "github.com/openchart/geoio/internal/lasbin"

// Header and Point re-export the internal/lasbin record types so callers of
// this package never need to (and, being outside the module's internal
// visibility boundary, cannot) import internal/lasbin directly.
type Header = lasbin.Header
type Point = lasbin.Point
type VLR = lasbin.VLR
type EVLR = lasbin.EVLR
type WavePacket = lasbin.WavePacket
type GlobalEncoding = lasbin.GlobalEncoding

// HeaderSizeForVersion returns the canonical fixed-prelude size (227/235/375
// bytes) for the given LAS version.
func HeaderSizeForVersion(major, minor byte) uint16 {
	return lasbin.HeaderSizeForVersion(major, minor)
}

// PointRecordLength returns the minimal byte length of a point-data record
// for the given format.
func PointRecordLength(format byte) (int, error) {
	return lasbin.PointRecordLength(format)
}
