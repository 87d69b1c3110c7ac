package wkt

// Dimension selects how many ordinates ToWellKnownText emits per position.
type Dimension int

const (
	Dim2D Dimension = iota
	Dim3D
)
