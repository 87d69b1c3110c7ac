package topojson

import (
	"encoding/json"
	"math"

	"github.com/openchart/geoio/pkg/geom"
)

// Read parses a TopoJSON document and reconstructs its named geometries.
// An object's properties.crs, when present, is surfaced as the geometry's
// reference-system handle; its id is copied into metadata under "OBJECTID".
func Read(data []byte, factory geom.Factory) (map[string]geom.Geometry, error) {
	var doc Topology
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &ErrMalformedText{Reason: err.Error()}
	}
	if doc.Type != "Topology" {
		return nil, &ErrMalformedText{Reason: "top-level type is not \"Topology\""}
	}
	if doc.Objects == nil {
		return nil, &ErrMalformedText{Reason: "missing objects"}
	}
	if doc.Arcs == nil {
		return nil, &ErrMalformedText{Reason: "missing arcs"}
	}

	arcsAbsolute, tolerance, err := decodeArcs(doc)
	if err != nil {
		return nil, err
	}

	out := make(map[string]geom.Geometry, len(doc.Objects))
	for name, obj := range doc.Objects {
		g, err := readObject(obj, arcsAbsolute, doc.Transform, tolerance, factory)
		if err != nil {
			return nil, err
		}
		out[name] = g
	}
	return out, nil
}

// crsHandle is the reference-system identifier carried in properties.crs.
type crsHandle string

func (c crsHandle) ID() string { return string(c) }

// applyTransform maps a position from the topology's quantized space back
// to absolute coordinates. Point/MultiPoint positions are stored in
// quantized space when a transform is present; arcs are handled separately
// by decodeArcs because they are also delta-encoded.
func applyTransform(tf *Transform, c geom.Coordinate) geom.Coordinate {
	if tf == nil {
		return c
	}
	c.X = c.X*tf.Scale[0] + tf.Translate[0]
	c.Y = c.Y*tf.Scale[1] + tf.Translate[1]
	return c
}

func decodeArcs(doc Topology) ([][]geom.Coordinate, float64, error) {
	arcsAbsolute := make([][]geom.Coordinate, len(doc.Arcs))

	if doc.Transform == nil {
		for i, arc := range doc.Arcs {
			coords := make([]geom.Coordinate, len(arc))
			for j, pos := range arc {
				coords[j] = positionToCoordinate(pos)
			}
			arcsAbsolute[i] = coords
		}
		return arcsAbsolute, 1e-9, nil
	}

	scale := doc.Transform.Scale
	translate := doc.Transform.Translate

	for i, arc := range doc.Arcs {
		coords := make([]geom.Coordinate, len(arc))
		var cursorX, cursorY float64
		for j, pos := range arc {
			if len(pos) < 2 {
				return nil, 0, &ErrMalformedText{Reason: "arc position with fewer than 2 ordinates"}
			}
			if pos[0] != math.Trunc(pos[0]) || pos[1] != math.Trunc(pos[1]) {
				return nil, 0, &ErrMalformedText{Reason: "transformed arc position is not integer delta-encoded"}
			}
			cursorX += pos[0]
			cursorY += pos[1]
			c := geom.Coordinate{
				X: cursorX*scale[0] + translate[0],
				Y: cursorY*scale[1] + translate[1],
			}
			if len(pos) >= 3 {
				c.Z = pos[2]
			}
			coords[j] = c
		}
		arcsAbsolute[i] = coords
	}

	tolerance := scale[0]
	if scale[1] > tolerance {
		tolerance = scale[1]
	}
	return arcsAbsolute, tolerance, nil
}

func positionToCoordinate(pos Position) geom.Coordinate {
	c := geom.Coordinate{}
	if len(pos) >= 1 {
		c.X = pos[0]
	}
	if len(pos) >= 2 {
		c.Y = pos[1]
	}
	if len(pos) >= 3 {
		c.Z = pos[2]
	}
	return c
}

func resolveRef(ref int, arcsAbsolute [][]geom.Coordinate) ([]geom.Coordinate, error) {
	idx := ref
	reversed := false
	if ref < 0 {
		idx = -ref - 1
		reversed = true
	}
	if idx < 0 || idx >= len(arcsAbsolute) {
		return nil, &ErrMalformedText{Reason: "arc reference out of range"}
	}
	src := arcsAbsolute[idx]
	if !reversed {
		return src, nil
	}
	out := make([]geom.Coordinate, len(src))
	for i, c := range src {
		out[len(src)-1-i] = c
	}
	return out, nil
}

func closeEnough(a, b geom.Coordinate, tolerance float64) bool {
	dx, dy := a.X-b.X, a.Y-b.Y
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	return dx < tolerance && dy < tolerance
}

func concatenateRefs(refs []int, arcsAbsolute [][]geom.Coordinate, tolerance float64) ([]geom.Coordinate, error) {
	var out []geom.Coordinate
	for i, ref := range refs {
		seg, err := resolveRef(ref, arcsAbsolute)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			out = append(out, seg...)
			continue
		}
		if len(out) == 0 || len(seg) == 0 {
			out = append(out, seg...)
			continue
		}
		if !closeEnough(out[len(out)-1], seg[0], tolerance) {
			return nil, &ErrMalformedText{Reason: "consecutive arcs do not chain"}
		}
		out = append(out, seg[1:]...)
	}
	return out, nil
}

func concatenateRing(refs []int, arcsAbsolute [][]geom.Coordinate, tolerance float64) ([]geom.Coordinate, error) {
	coords, err := concatenateRefs(refs, arcsAbsolute, tolerance)
	if err != nil {
		return nil, err
	}
	if len(coords) == 0 {
		return coords, nil
	}
	first, last := coords[0], coords[len(coords)-1]
	if first.Equal2D(last) {
		return coords, nil
	}
	if closeEnough(first, last, tolerance) {
		coords[len(coords)-1] = first
		return coords, nil
	}
	return nil, &ErrUnclosedRing{Reason: "first and last ring positions differ beyond tolerance"}
}

func readObject(obj *GeometryObject, arcsAbsolute [][]geom.Coordinate, tf *Transform, tolerance float64, factory geom.Factory) (geom.Geometry, error) {
	meta := obj.Properties
	if obj.ID != nil {
		if meta == nil {
			meta = map[string]any{}
		}
		meta["OBJECTID"] = obj.ID
	}
	var opts []geom.Option
	if meta != nil {
		opts = append(opts, geom.WithMetadata(meta))
	}
	if crs, ok := meta["crs"].(string); ok {
		opts = append(opts, geom.WithReferenceSystem(crsHandle(crs)))
	}

	switch obj.Type {
	case "Point":
		pos, ok := toFloat64Slice(obj.Coordinates)
		if !ok {
			return nil, &ErrMalformedText{Reason: "Point coordinates malformed"}
		}
		return factory.CreatePoint(applyTransform(tf, positionToCoordinate(Position(pos))), opts...), nil

	case "MultiPoint":
		positions, ok := toPositionSlice(obj.Coordinates)
		if !ok {
			return nil, &ErrMalformedText{Reason: "MultiPoint coordinates malformed"}
		}
		coords := make([]geom.Coordinate, len(positions))
		for i, p := range positions {
			coords[i] = applyTransform(tf, positionToCoordinate(Position(p)))
		}
		return factory.CreateMultiPoint(coords, opts...), nil

	case "LineString":
		refs, ok := toIntRefs(obj.Arcs)
		if !ok {
			return nil, &ErrMalformedText{Reason: "LineString arcs malformed"}
		}
		coords, err := concatenateRefs(refs, arcsAbsolute, tolerance)
		if err != nil {
			return nil, err
		}
		return factory.CreateLineString(coords, opts...), nil

	case "MultiLineString":
		refsList, ok := toIntRefsSlice(obj.Arcs)
		if !ok {
			return nil, &ErrMalformedText{Reason: "MultiLineString arcs malformed"}
		}
		lines := make([]geom.LineString, len(refsList))
		for i, refs := range refsList {
			coords, err := concatenateRefs(refs, arcsAbsolute, tolerance)
			if err != nil {
				return nil, err
			}
			lines[i] = factory.CreateLineString(coords)
		}
		return factory.CreateMultiLineString(lines, opts...), nil

	case "Polygon":
		ringRefs, ok := toIntRefsSlice(obj.Arcs)
		if !ok {
			return nil, &ErrMalformedText{Reason: "Polygon arcs malformed"}
		}
		if len(ringRefs) == 0 {
			return nil, &ErrMalformedText{Reason: "Polygon has no rings"}
		}
		shell, err := concatenateRing(ringRefs[0], arcsAbsolute, tolerance)
		if err != nil {
			return nil, err
		}
		holes := make([][]geom.Coordinate, 0, len(ringRefs)-1)
		for _, refs := range ringRefs[1:] {
			hole, err := concatenateRing(refs, arcsAbsolute, tolerance)
			if err != nil {
				return nil, err
			}
			holes = append(holes, hole)
		}
		return factory.CreatePolygon(shell, holes, opts...), nil

	case "MultiPolygon":
		polyRefs, ok := toIntRefsSliceSlice(obj.Arcs)
		if !ok {
			return nil, &ErrMalformedText{Reason: "MultiPolygon arcs malformed"}
		}
		polys := make([]geom.Polygon, len(polyRefs))
		for i, ringRefs := range polyRefs {
			if len(ringRefs) == 0 {
				return nil, &ErrMalformedText{Reason: "MultiPolygon member has no rings"}
			}
			shell, err := concatenateRing(ringRefs[0], arcsAbsolute, tolerance)
			if err != nil {
				return nil, err
			}
			holes := make([][]geom.Coordinate, 0, len(ringRefs)-1)
			for _, refs := range ringRefs[1:] {
				hole, err := concatenateRing(refs, arcsAbsolute, tolerance)
				if err != nil {
					return nil, err
				}
				holes = append(holes, hole)
			}
			polys[i] = factory.CreatePolygon(shell, holes)
		}
		return factory.CreateMultiPolygon(polys, opts...), nil

	case "GeometryCollection":
		geoms := make([]geom.Geometry, len(obj.Geometries))
		for i, sub := range obj.Geometries {
			g, err := readObject(sub, arcsAbsolute, tf, tolerance, factory)
			if err != nil {
				return nil, err
			}
			geoms[i] = g
		}
		return factory.CreateGeometryCollection(geoms, opts...), nil

	default:
		return nil, &ErrMalformedText{Reason: "unknown geometry type " + obj.Type}
	}
}
