// Package wkt implements a bidirectional Well-Known Text converter for 2D,
// 3D, M and ZM geometries.
package wkt

import "fmt"

// ErrMalformedText indicates WKT input that does not match the grammar.
type ErrMalformedText struct {
	Reason string
}

func (e *ErrMalformedText) Error() string {
	return fmt.Sprintf("malformed WKT: %s", e.Reason)
}

// ErrUnsupportedGeometry indicates a geometry variant the writer cannot
// express in WKT.
type ErrUnsupportedGeometry struct {
	Kind string
}

func (e *ErrUnsupportedGeometry) Error() string {
	return fmt.Sprintf("unsupported geometry for WKT: %s", e.Kind)
}
