package wkt

import (
	"strconv"
	"strings"

	"github.com/openchart/geoio/pkg/geom"
)

// ToWellKnownText encodes g as WKT at the requested dimension. 3D geometries
// requested at Dim2D are projected by dropping Z; 2D geometries requested at
// Dim3D emit z = 0.
func ToWellKnownText(g geom.Geometry, dim Dimension) (string, error) {
	var b strings.Builder
	if err := encode(&b, g, dim); err != nil {
		return "", err
	}
	return b.String(), nil
}

func encode(b *strings.Builder, g geom.Geometry, dim Dimension) error {
	switch v := g.(type) {
	case geom.Point:
		b.WriteString("POINT")
		writeDimSuffix(b, dim)
		b.WriteByte(' ')
		b.WriteByte('(')
		writePosition(b, v.Coordinate, dim)
		b.WriteByte(')')
		return nil

	case geom.MultiPoint:
		b.WriteString("MULTIPOINT")
		writeDimSuffix(b, dim)
		if len(v.Points) == 0 {
			b.WriteString(" EMPTY")
			return nil
		}
		b.WriteString(" (")
		for i, c := range v.Points {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteByte('(')
			writePosition(b, c, dim)
			b.WriteByte(')')
		}
		b.WriteByte(')')
		return nil

	case geom.LineString:
		b.WriteString("LINESTRING")
		writeDimSuffix(b, dim)
		if len(v.Coordinates) == 0 {
			b.WriteString(" EMPTY")
			return nil
		}
		b.WriteByte(' ')
		writeCoordList(b, v.Coordinates, dim)
		return nil

	case geom.MultiLineString:
		b.WriteString("MULTILINESTRING")
		writeDimSuffix(b, dim)
		if len(v.Lines) == 0 {
			b.WriteString(" EMPTY")
			return nil
		}
		b.WriteString(" (")
		for i, l := range v.Lines {
			if i > 0 {
				b.WriteString(", ")
			}
			writeCoordList(b, l.Coordinates, dim)
		}
		b.WriteByte(')')
		return nil

	case geom.Polygon:
		b.WriteString("POLYGON")
		writeDimSuffix(b, dim)
		if len(v.Shell) == 0 {
			b.WriteString(" EMPTY")
			return nil
		}
		b.WriteByte(' ')
		writePolygonBody(b, v.Shell, v.Holes, dim)
		return nil

	case geom.MultiPolygon:
		b.WriteString("MULTIPOLYGON")
		writeDimSuffix(b, dim)
		if len(v.Polygons) == 0 {
			b.WriteString(" EMPTY")
			return nil
		}
		b.WriteString(" (")
		for i, p := range v.Polygons {
			if i > 0 {
				b.WriteString(", ")
			}
			writePolygonBody(b, p.Shell, p.Holes, dim)
		}
		b.WriteByte(')')
		return nil

	case geom.GeometryCollection:
		b.WriteString("GEOMETRYCOLLECTION")
		if len(v.Geometries) == 0 {
			b.WriteString(" EMPTY")
			return nil
		}
		b.WriteString(" (")
		for i, inner := range v.Geometries {
			if i > 0 {
				b.WriteString(", ")
			}
			if err := encode(b, inner, dim); err != nil {
				return err
			}
		}
		b.WriteByte(')')
		return nil

	default:
		return &ErrUnsupportedGeometry{Kind: g.GeometryType().String()}
	}
}

func writeDimSuffix(b *strings.Builder, dim Dimension) {
	if dim == Dim3D {
		b.WriteString(" Z")
	}
}

func writePosition(b *strings.Builder, c geom.Coordinate, dim Dimension) {
	b.WriteString(formatNumber(c.X))
	b.WriteByte(' ')
	b.WriteString(formatNumber(c.Y))
	if dim == Dim3D {
		b.WriteByte(' ')
		b.WriteString(formatNumber(c.Z))
	}
}

func writeCoordList(b *strings.Builder, coords []geom.Coordinate, dim Dimension) {
	b.WriteByte('(')
	for i, c := range coords {
		if i > 0 {
			b.WriteString(", ")
		}
		writePosition(b, c, dim)
	}
	b.WriteByte(')')
}

func writePolygonBody(b *strings.Builder, shell []geom.Coordinate, holes [][]geom.Coordinate, dim Dimension) {
	b.WriteByte('(')
	writeCoordList(b, shell, dim)
	for _, h := range holes {
		b.WriteString(", ")
		writeCoordList(b, h, dim)
	}
	b.WriteByte(')')
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
