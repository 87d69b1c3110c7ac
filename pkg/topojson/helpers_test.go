package topojson

import (
	"testing"

	"github.com/openchart/geoio/internal/topobuild"
	"github.com/openchart/geoio/pkg/geom"
)

// gridCoords returns coords as Read reconstructs them after Build(objects,
// opts): each position snapped to the topology's quantization grid and
// mapped back through the document transform.
func gridCoords(t *testing.T, objects map[string]geom.Geometry, opts BuildOptions, coords []geom.Coordinate) []geom.Coordinate {
	t.Helper()
	geoms := make([]geom.Geometry, 0, len(objects))
	for _, g := range objects {
		geoms = append(geoms, g)
	}
	minX, maxX, minY, maxY, err := topobuild.Envelope(geoms)
	if err != nil {
		t.Fatalf("Envelope: %v", err)
	}
	q, err := topobuild.BuildQuantization(minX, maxX, minY, maxY, opts.Q0, opts.Q1)
	if err != nil {
		t.Fatalf("BuildQuantization: %v", err)
	}
	scale, translate := q.Invert()
	out := make([]geom.Coordinate, len(coords))
	for i, c := range topobuild.QuantizePositions(q, coords) {
		out[i] = geom.Coordinate{X: float64(c.X)*scale[0] + translate[0], Y: float64(c.Y)*scale[1] + translate[1]}
	}
	return out
}

func mustMarshal(t *testing.T, topo *Topology) []byte {
	t.Helper()
	b, err := Marshal(topo)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	return b
}

func assertLineStringCoordEqual(t *testing.T, got, want geom.LineString, tolerance float64) {
	t.Helper()
	if len(got.Coordinates) != len(want.Coordinates) {
		t.Fatalf("coordinate count = %d, want %d", len(got.Coordinates), len(want.Coordinates))
	}
	for i := range want.Coordinates {
		if !approxEqual2D(got.Coordinates[i], want.Coordinates[i], tolerance) {
			t.Errorf("coord[%d] = %v, want %v", i, got.Coordinates[i], want.Coordinates[i])
		}
	}
}

func approxEqual2D(a, b geom.Coordinate, tolerance float64) bool {
	dx, dy := a.X-b.X, a.Y-b.Y
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	return dx <= tolerance && dy <= tolerance
}

// assertPolygonCoordSetEqual checks the shell's coordinate set matches
// cyclically, tolerating the rotation a topology rebuild may introduce.
func assertPolygonCoordSetEqual(t *testing.T, got, want geom.Polygon) {
	t.Helper()
	if len(got.Shell) != len(want.Shell) {
		t.Fatalf("shell length = %d, want %d", len(got.Shell), len(want.Shell))
	}
	n := len(want.Shell) - 1
	if n <= 0 {
		return
	}
	for offset := 0; offset < n; offset++ {
		match := true
		for k := 0; k < n; k++ {
			if !approxEqual2D(got.Shell[k], want.Shell[(offset+k)%n], 1e-6) {
				match = false
				break
			}
		}
		if match {
			return
		}
	}
	t.Errorf("shell %v is not a rotation of %v", got.Shell, want.Shell)
}
