package topobuild

import "github.com/openchart/geoio/pkg/geom"

// QuantizePositions applies q to a coordinate sequence; exported for callers
// that need quantized coordinates outside the extract stage (e.g. arc-ref
// resolution against the original, uncut line/ring).
func QuantizePositions(q Quantization, coords []geom.Coordinate) []QCoord {
	return quantizeRing(q, coords)
}

func quantizeRing(q Quantization, coords []geom.Coordinate) []QCoord {
	out := make([]QCoord, len(coords))
	for i, c := range coords {
		x, y := q.Apply(c.X, c.Y)
		out[i] = QCoord{X: x, Y: y, Z: c.Z}
	}
	return out
}

// Extract walks geoms and returns the lines (from LineString/MultiLineString
// members) followed by the rings (from Polygon shells and holes).
// GeometryCollections recurse; Point/MultiPoint contribute nothing.
func Extract(q Quantization, geoms []geom.Geometry) ([]Extracted, error) {
	var lines, rings []Extracted

	var visit func(g geom.Geometry) error
	visit = func(g geom.Geometry) error {
		switch v := g.(type) {
		case geom.Point, geom.MultiPoint:
			// contribute nothing
		case geom.LineString:
			lines = append(lines, Extracted{Coords: quantizeRing(q, v.Coordinates), IsRing: false})
		case geom.MultiLineString:
			for _, l := range v.Lines {
				lines = append(lines, Extracted{Coords: quantizeRing(q, l.Coordinates), IsRing: false})
			}
		case geom.Polygon:
			rings = append(rings, Extracted{Coords: quantizeRing(q, v.Shell), IsRing: true})
			for _, h := range v.Holes {
				rings = append(rings, Extracted{Coords: quantizeRing(q, h), IsRing: true})
			}
		case geom.MultiPolygon:
			for _, p := range v.Polygons {
				rings = append(rings, Extracted{Coords: quantizeRing(q, p.Shell), IsRing: true})
				for _, h := range p.Holes {
					rings = append(rings, Extracted{Coords: quantizeRing(q, h), IsRing: true})
				}
			}
		case geom.GeometryCollection:
			for _, inner := range v.Geometries {
				if err := visit(inner); err != nil {
					return err
				}
			}
		default:
			return &ErrUnsupportedGeometry{Kind: g.GeometryType().String()}
		}
		return nil
	}

	for _, g := range geoms {
		if err := visit(g); err != nil {
			return nil, err
		}
	}

	return append(lines, rings...), nil
}
