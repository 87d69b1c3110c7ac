package geom

// Option configures the optional metadata/reference-system parameters that
// every Factory constructor accepts.
type Option func(*base)

// WithMetadata attaches a metadata mapping to the geometry being built.
func WithMetadata(m map[string]any) Option {
	return func(b *base) { b.meta = m }
}

// WithReferenceSystem attaches a reference-system handle to the geometry
// being built.
func WithReferenceSystem(ref ReferenceSystem) Option {
	return func(b *base) { b.ref = ref }
}

func applyOptions(opts []Option) base {
	var b base
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// Factory is the geometry-construction contract external callers (LAS
// readers, the TopoJSON reader, the WKT converter) are injected with at
// construction time. There is deliberately no process-wide factory
// singleton.
type Factory interface {
	CreatePoint(c Coordinate, opts ...Option) Point
	CreateMultiPoint(points []Coordinate, opts ...Option) MultiPoint
	CreateLineString(coords []Coordinate, opts ...Option) LineString
	CreateMultiLineString(lines []LineString, opts ...Option) MultiLineString
	CreatePolygon(shell []Coordinate, holes [][]Coordinate, opts ...Option) Polygon
	CreateMultiPolygon(polygons []Polygon, opts ...Option) MultiPolygon
	CreateGeometryCollection(geoms []Geometry, opts ...Option) GeometryCollection
}

// DefaultFactory is the Factory implementation used when a caller does not
// supply one of its own.
type DefaultFactory struct{}

// NewDefaultFactory returns the stock Factory implementation.
func NewDefaultFactory() Factory { return DefaultFactory{} }

func (DefaultFactory) CreatePoint(c Coordinate, opts ...Option) Point {
	return Point{base: applyOptions(opts), Coordinate: c}
}

func (DefaultFactory) CreateMultiPoint(points []Coordinate, opts ...Option) MultiPoint {
	return MultiPoint{base: applyOptions(opts), Points: points}
}

func (DefaultFactory) CreateLineString(coords []Coordinate, opts ...Option) LineString {
	return LineString{base: applyOptions(opts), Coordinates: coords}
}

func (DefaultFactory) CreateMultiLineString(lines []LineString, opts ...Option) MultiLineString {
	return MultiLineString{base: applyOptions(opts), Lines: lines}
}

func (DefaultFactory) CreatePolygon(shell []Coordinate, holes [][]Coordinate, opts ...Option) Polygon {
	return Polygon{base: applyOptions(opts), Shell: shell, Holes: holes}
}

func (DefaultFactory) CreateMultiPolygon(polygons []Polygon, opts ...Option) MultiPolygon {
	return MultiPolygon{base: applyOptions(opts), Polygons: polygons}
}

func (DefaultFactory) CreateGeometryCollection(geoms []Geometry, opts ...Option) GeometryCollection {
	return GeometryCollection{base: applyOptions(opts), Geometries: geoms}
}
