package topojson

import (
	"sort"

	"github.com/openchart/geoio/internal/topobuild"
	"github.com/openchart/geoio/pkg/geom"
)

// BuildOptions configures Build. Q0 and Q1 are the output and grid
// quantization factors; both must be powers of 10 greater than 1.
type BuildOptions struct {
	Q0, Q1 int64
	// PreserveZ forces 3D positions in the output even when every input Z
	// is zero. By default Z is only emitted when some arc coordinate
	// carries a nonzero Z; Point and MultiPoint coordinates are not
	// consulted for that decision.
	PreserveZ bool
}

// DefaultBuildOptions returns the conventional TopoJSON quantization of
// 1e4 on both axes.
func DefaultBuildOptions() BuildOptions {
	return BuildOptions{Q0: 1e4, Q1: 1e4}
}

// Build runs the full topology pipeline over a named set of geometries and
// returns the resulting TopoJSON document.
func Build(objects map[string]geom.Geometry, opts BuildOptions) (*Topology, error) {
	ordered := make([]string, 0, len(objects))
	for name := range objects {
		ordered = append(ordered, name)
	}
	// Map iteration order is randomized; sort names so extract/join/cut/
	// dedup always see the same geometry order, keeping the produced arc
	// list, delta encoding, and arc-index references bit-identical across
	// runs.
	sort.Strings(ordered)

	geoms := make([]geom.Geometry, len(ordered))
	for i, name := range ordered {
		geoms[i] = objects[name]
	}

	minX, maxX, minY, maxY, err := topobuild.Envelope(geoms)
	if err != nil {
		return nil, err
	}

	q, err := topobuild.BuildQuantization(minX, maxX, minY, maxY, opts.Q0, opts.Q1)
	if err != nil {
		return nil, err
	}

	extracted, err := topobuild.Extract(q, geoms)
	if err != nil {
		return nil, err
	}

	junctions := topobuild.Join(extracted)
	pieces := topobuild.Cut(extracted, junctions)
	arcs, _ := topobuild.Dedup(pieces)

	includeZ := opts.PreserveZ
	if !includeZ {
		for _, a := range arcs {
			for _, c := range a.Coords {
				if c.Z != 0 {
					includeZ = true
					break
				}
			}
			if includeZ {
				break
			}
		}
	}

	objectsOut := make(map[string]*GeometryObject, len(ordered))
	for i, name := range ordered {
		obj, err := buildObject(geoms[i], q, &arcs, junctions, includeZ)
		if err != nil {
			return nil, err
		}
		objectsOut[name] = obj
	}

	delta := topobuild.DeltaEncode(arcs)
	arcsOut := make([][]Position, len(delta))
	for i, arc := range delta {
		arcsOut[i] = make([]Position, len(arc))
		for j, c := range arc {
			if includeZ {
				arcsOut[i][j] = Position{float64(c.X), float64(c.Y), c.Z}
			} else {
				arcsOut[i][j] = Position{float64(c.X), float64(c.Y)}
			}
		}
	}

	scale, translate := q.Invert()

	return &Topology{
		Type:    "Topology",
		Objects: objectsOut,
		Arcs:    arcsOut,
		Transform: &Transform{
			Scale:     scale,
			Translate: translate,
		},
		BBox: []float64{minX, minY, maxX, maxY},
	}, nil
}

func buildObject(g geom.Geometry, q topobuild.Quantization, arcs *[]topobuild.Arc, junctions topobuild.Junctions, includeZ bool) (*GeometryObject, error) {
	obj := &GeometryObject{
		Type:       g.GeometryType().String(),
		Properties: g.Metadata(),
	}

	switch v := g.(type) {
	case geom.Point:
		obj.Coordinates = position(q, v.Coordinate, includeZ)
	case geom.MultiPoint:
		coords := make([]Position, len(v.Points))
		for i, c := range v.Points {
			coords[i] = position(q, c, includeZ)
		}
		obj.Coordinates = coords
	case geom.LineString:
		obj.Arcs = resolveLine(q, v.Coordinates, arcs)
	case geom.MultiLineString:
		refs := make([][]int, len(v.Lines))
		for i, l := range v.Lines {
			refs[i] = resolveLine(q, l.Coordinates, arcs)
		}
		obj.Arcs = refs
	case geom.Polygon:
		obj.Arcs = resolvePolygon(q, v.Shell, v.Holes, arcs, junctions)
	case geom.MultiPolygon:
		refs := make([][][]int, len(v.Polygons))
		for i, p := range v.Polygons {
			refs[i] = resolvePolygon(q, p.Shell, p.Holes, arcs, junctions)
		}
		obj.Arcs = refs
	case geom.GeometryCollection:
		geoms := make([]*GeometryObject, len(v.Geometries))
		for i, inner := range v.Geometries {
			sub, err := buildObject(inner, q, arcs, junctions, includeZ)
			if err != nil {
				return nil, err
			}
			geoms[i] = sub
		}
		obj.Type = "GeometryCollection"
		obj.Geometries = geoms
		return obj, nil
	default:
		return nil, &topobuild.ErrUnsupportedGeometry{Kind: g.GeometryType().String()}
	}

	if id, ok := obj.Properties["OBJECTID"]; ok {
		obj.ID = id
	}

	return obj, nil
}

func position(q topobuild.Quantization, c geom.Coordinate, includeZ bool) Position {
	x, y := q.Apply(c.X, c.Y)
	if includeZ {
		return Position{float64(x), float64(y), c.Z}
	}
	return Position{float64(x), float64(y)}
}

func resolveLine(q topobuild.Quantization, coords []geom.Coordinate, arcs *[]topobuild.Arc) []int {
	qc := topobuild.QuantizePositions(q, coords)
	return topobuild.ResolveArcRefs(qc, arcs)
}

func resolveRing(q topobuild.Quantization, coords []geom.Coordinate, arcs *[]topobuild.Arc, junctions topobuild.Junctions) []int {
	qc := topobuild.QuantizePositions(q, coords)
	return topobuild.ResolveRingArcRefs(qc, arcs, junctions)
}

func resolvePolygon(q topobuild.Quantization, shell []geom.Coordinate, holes [][]geom.Coordinate, arcs *[]topobuild.Arc, junctions topobuild.Junctions) [][]int {
	refs := make([][]int, 0, 1+len(holes))
	refs = append(refs, resolveRing(q, shell, arcs, junctions))
	for _, h := range holes {
		refs = append(refs, resolveRing(q, h, arcs, junctions))
	}
	return refs
}
