// Package lasbin implements the binary LAS public-header and
// point-data-record codec shared by the plain and LASzip-backed readers.
package lasbin

import "fmt"

// ErrHeaderInvalid indicates a missing "LASF" signature or a truncated
// public header.
type ErrHeaderInvalid struct {
	Reason string
}

func (e *ErrHeaderInvalid) Error() string {
	return fmt.Sprintf("invalid LAS header: %s", e.Reason)
}

// ErrUnsupportedFormat indicates a point-data format outside {0..10} or a
// version outside {1.0..1.4}, or a format requiring a newer version than the
// header declares.
type ErrUnsupportedFormat struct {
	Reason string
}

func (e *ErrUnsupportedFormat) Error() string {
	return fmt.Sprintf("unsupported LAS format: %s", e.Reason)
}

// ErrScaleOverflow indicates a coordinate whose scaled integer representation
// does not fit in an int32 on encode.
type ErrScaleOverflow struct {
	Axis  string
	Value float64
}

func (e *ErrScaleOverflow) Error() string {
	return fmt.Sprintf("scaled %s coordinate %g overflows int32 range", e.Axis, e.Value)
}
