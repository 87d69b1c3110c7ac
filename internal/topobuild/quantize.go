package topobuild

import (
	"math"

	"github.com/openchart/geoio/pkg/geom"
)

func isPositivePowerOf10(n int64) bool {
	if n <= 1 {
		return false
	}
	for n%10 == 0 {
		n /= 10
	}
	return n == 1
}

// Envelope computes the bounding box across every coordinate reachable from
// geoms, recursing into GeometryCollections.
func Envelope(geoms []geom.Geometry) (minX, maxX, minY, maxY float64, err error) {
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	found := false

	var visit func(g geom.Geometry) error
	visitCoord := func(c geom.Coordinate) {
		found = true
		if c.X < minX {
			minX = c.X
		}
		if c.X > maxX {
			maxX = c.X
		}
		if c.Y < minY {
			minY = c.Y
		}
		if c.Y > maxY {
			maxY = c.Y
		}
	}
	visit = func(g geom.Geometry) error {
		switch v := g.(type) {
		case geom.Point:
			visitCoord(v.Coordinate)
		case geom.MultiPoint:
			for _, c := range v.Points {
				visitCoord(c)
			}
		case geom.LineString:
			for _, c := range v.Coordinates {
				visitCoord(c)
			}
		case geom.MultiLineString:
			for _, l := range v.Lines {
				for _, c := range l.Coordinates {
					visitCoord(c)
				}
			}
		case geom.Polygon:
			for _, c := range v.Shell {
				visitCoord(c)
			}
			for _, h := range v.Holes {
				for _, c := range h {
					visitCoord(c)
				}
			}
		case geom.MultiPolygon:
			for _, p := range v.Polygons {
				for _, c := range p.Shell {
					visitCoord(c)
				}
				for _, h := range p.Holes {
					for _, c := range h {
						visitCoord(c)
					}
				}
			}
		case geom.GeometryCollection:
			for _, inner := range v.Geometries {
				if err := visit(inner); err != nil {
					return err
				}
			}
		default:
			return &ErrUnsupportedGeometry{Kind: "unknown"}
		}
		return nil
	}

	for _, g := range geoms {
		if err := visit(g); err != nil {
			return 0, 0, 0, 0, err
		}
	}
	if !found {
		return 0, 0, 0, 0, nil
	}
	return minX, maxX, minY, maxY, nil
}

// BuildQuantization derives the forward transform from the envelope and the
// two quantization factors: q1 sets the integer grid over each axis span
// and q0/q1 rescales it to the output resolution. Axes with zero span get
// unit scale.
func BuildQuantization(minX, maxX, minY, maxY float64, q0, q1 int64) (Quantization, error) {
	if !isPositivePowerOf10(q0) || !isPositivePowerOf10(q1) {
		return Quantization{}, &ErrInvalidQuantization{Reason: "quantization factors must be powers of 10 greater than 1"}
	}

	spanX := maxX - minX
	spanY := maxY - minY
	ratio := float64(q0) / float64(q1)

	scaleX := 1.0
	if spanX != 0 {
		scaleX = (float64(q1) - 1) / spanX * ratio
	}
	scaleY := 1.0
	if spanY != 0 {
		scaleY = (float64(q1) - 1) / spanY * ratio
	}

	return Quantization{
		ScaleX:     scaleX,
		ScaleY:     scaleY,
		TranslateX: -minX,
		TranslateY: -minY,
	}, nil
}
