// Package geom provides the geometry data model consumed by the LAS/LAZ
// codec, the TopoJSON topology builder, and the WKT converter.
package geom

import "math"

// Coordinate is an ordered (x, y, z) triple of finite doubles.
//
// The zero value is NOT the undefined coordinate; use Undefined() to build
// the NaN sentinel.
type Coordinate struct {
	X, Y, Z float64
}

// Undefined returns the sentinel coordinate: NaN in all three components.
func Undefined() Coordinate {
	return Coordinate{X: math.NaN(), Y: math.NaN(), Z: math.NaN()}
}

// IsUndefined reports whether c is the NaN sentinel (any NaN component
// qualifies, since a well-formed coordinate never carries a NaN alone).
func (c Coordinate) IsUndefined() bool {
	return math.IsNaN(c.X) || math.IsNaN(c.Y) || math.IsNaN(c.Z)
}

// Equal reports bitwise equality on the three components. NaN != NaN under
// this definition, matching IEEE-754 semantics rather than a "same sentinel"
// check; use IsUndefined for that.
func (c Coordinate) Equal(o Coordinate) bool {
	return c.X == o.X && c.Y == o.Y && c.Z == o.Z
}

// Equal2D compares only X and Y, ignoring Z. Used by code that deliberately
// works in 2D (the TopoJSON reader's ring-closure check).
func (c Coordinate) Equal2D(o Coordinate) bool {
	return c.X == o.X && c.Y == o.Y
}

// Distance returns the Euclidean distance between c and o. If either
// coordinate is undefined, the result is NaN.
func (c Coordinate) Distance(o Coordinate) float64 {
	dx, dy, dz := c.X-o.X, c.Y-o.Y, c.Z-o.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
