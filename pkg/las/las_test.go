package las

import (
	"bytes"
	"io"
	"testing"

	"github.com/openchart/geoio/internal/lasbin"
	"github.com/openchart/geoio/pkg/geom"
)

// memWriteSeeker is a minimal in-memory io.WriteSeeker, since bytes.Buffer
// does not implement Seek and Writer needs to rewrite the header at Close.
type memWriteSeeker struct {
	buf []byte
	pos int
}

func (m *memWriteSeeker) Write(p []byte) (int, error) {
	end := m.pos + len(p)
	if end > len(m.buf) {
		grown := make([]byte, end)
		copy(grown, m.buf)
		m.buf = grown
	}
	copy(m.buf[m.pos:end], p)
	m.pos = end
	return len(p), nil
}

func (m *memWriteSeeker) Seek(offset int64, whence int) (int64, error) {
	var base int
	switch whence {
	case io.SeekStart:
		base = 0
	case io.SeekCurrent:
		base = m.pos
	case io.SeekEnd:
		base = len(m.buf)
	}
	m.pos = base + int(offset)
	return int64(m.pos), nil
}

func testHeader(format byte) *lasbin.Header {
	h := &lasbin.Header{
		VersionMajor:          1,
		VersionMinor:          2,
		PublicHeaderSize:      lasbin.HeaderSizeForVersion(1, 2),
		PointDataOffset:       uint32(lasbin.HeaderSizeForVersion(1, 2)),
		PointDataFormat:       format,
		XScaleFactor:          0.01,
		YScaleFactor:          0.01,
		ZScaleFactor:          0.01,
		SystemIdentifier:      "geoio",
		GeneratingSoftware:    "geoio test",
	}
	rl, _ := lasbin.PointRecordLength(format)
	h.PointDataRecordLength = uint16(rl)
	return h
}

func TestWriterReaderRoundTrip(t *testing.T) {
	mem := &memWriteSeeker{}
	wr, err := NewWriter(mem, testHeader(1))
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}

	points := []*lasbin.Point{
		{Coordinate: geom.Coordinate{X: 1, Y: 2, Z: 3}, ReturnNumber: 1, TotalReturnNumber: 1, HasGPSTime: true, GPSTime: 100},
		{Coordinate: geom.Coordinate{X: 4, Y: 5, Z: 6}, ReturnNumber: 1, TotalReturnNumber: 2, HasGPSTime: true, GPSTime: 200},
	}
	for _, p := range points {
		if err := wr.WritePoint(p); err != nil {
			t.Fatalf("WritePoint: %v", err)
		}
	}
	if err := wr.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	rd, err := Open(bytes.NewReader(mem.buf))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if rd.Header().PointCount != 2 {
		t.Fatalf("PointCount = %d, want 2", rd.Header().PointCount)
	}

	for i, want := range points {
		got, err := rd.ReadPoint()
		if err != nil {
			t.Fatalf("ReadPoint(%d): %v", i, err)
		}
		if got.Coordinate.X != want.Coordinate.X || got.Coordinate.Y != want.Coordinate.Y {
			t.Errorf("point %d coordinate = %v, want %v", i, got.Coordinate, want.Coordinate)
		}
		if got.GPSTime != want.GPSTime {
			t.Errorf("point %d GPSTime = %v, want %v", i, got.GPSTime, want.GPSTime)
		}
	}

	if _, err := rd.ReadPoint(); err == nil {
		t.Fatal("expected ErrEndOfStream after last point")
	} else if _, ok := err.(*ErrEndOfStream); !ok {
		t.Errorf("got %T, want *ErrEndOfStream", err)
	}
}

func TestReaderSeek(t *testing.T) {
	mem := &memWriteSeeker{}
	wr, err := NewWriter(mem, testHeader(0))
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	for i := 0; i < 5; i++ {
		if err := wr.WritePoint(&lasbin.Point{Coordinate: geom.Coordinate{X: float64(i)}}); err != nil {
			t.Fatalf("WritePoint: %v", err)
		}
	}
	if err := wr.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	rd, err := Open(bytes.NewReader(mem.buf))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := rd.Seek(3); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	p, err := rd.ReadPoint()
	if err != nil {
		t.Fatalf("ReadPoint: %v", err)
	}
	if p.Coordinate.X != 3 {
		t.Errorf("Coordinate.X = %v, want 3", p.Coordinate.X)
	}
}

func TestOpenPropagatesHeaderInvalid(t *testing.T) {
	_, err := Open(bytes.NewReader([]byte("XXXX not a las file")))
	if err == nil {
		t.Fatal("expected error for bad signature")
	}
	if _, ok := err.(*ErrHeaderInvalid); !ok {
		t.Fatalf("got %T, want *ErrHeaderInvalid", err)
	}
}

func TestWritePointPropagatesScaleOverflow(t *testing.T) {
	mem := &memWriteSeeker{}
	wr, err := NewWriter(mem, testHeader(0))
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	err = wr.WritePoint(&lasbin.Point{Coordinate: geom.Coordinate{X: 1e20}})
	if err == nil {
		t.Fatal("expected ErrScaleOverflow")
	}
	if _, ok := err.(*ErrScaleOverflow); !ok {
		t.Fatalf("got %T, want *ErrScaleOverflow", err)
	}
}

func TestReaderDisposeContract(t *testing.T) {
	mem := &memWriteSeeker{}
	wr, err := NewWriter(mem, testHeader(0))
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if err := wr.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	rd, err := Open(bytes.NewReader(mem.buf))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := rd.Dispose(); err != nil {
		t.Fatalf("Dispose: %v", err)
	}
	if _, err := rd.ReadPoint(); err == nil {
		t.Fatal("expected ErrContract after Dispose")
	}
	if err := rd.Dispose(); err == nil {
		t.Fatal("expected ErrContract on double Dispose")
	}
}

func TestExtendedVLRRoundTrip(t *testing.T) {
	h := &lasbin.Header{
		VersionMajor:       1,
		VersionMinor:       4,
		PublicHeaderSize:   lasbin.HeaderSizeForVersion(1, 4),
		PointDataOffset:    uint32(lasbin.HeaderSizeForVersion(1, 4)),
		PointDataFormat:    6,
		XScaleFactor:       0.01,
		YScaleFactor:       0.01,
		ZScaleFactor:       0.01,
		SystemIdentifier:   "geoio",
		GeneratingSoftware: "geoio test",
	}
	rl, _ := lasbin.PointRecordLength(6)
	h.PointDataRecordLength = uint16(rl)

	mem := &memWriteSeeker{}
	wr, err := NewWriter(mem, h)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	wr.SetExtendedVLRs([]lasbin.EVLR{
		{UserID: "geoio", RecordID: 7, Description: "payload", Data: []byte("hello evlr")},
	})
	if err := wr.WritePoint(&lasbin.Point{Coordinate: geom.Coordinate{X: 1, Y: 2, Z: 3}, ReturnNumber: 1, TotalReturnNumber: 1}); err != nil {
		t.Fatalf("WritePoint: %v", err)
	}
	if err := wr.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	rd, err := Open(bytes.NewReader(mem.buf))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	evlrs, err := rd.ExtendedVLRs()
	if err != nil {
		t.Fatalf("ExtendedVLRs: %v", err)
	}
	if len(evlrs) != 1 {
		t.Fatalf("got %d EVLRs, want 1", len(evlrs))
	}
	if evlrs[0].UserID != "geoio" || string(evlrs[0].Data) != "hello evlr" {
		t.Errorf("EVLR = %+v", evlrs[0])
	}

	// The stream position was restored; the point is still readable.
	p, err := rd.ReadPoint()
	if err != nil {
		t.Fatalf("ReadPoint after ExtendedVLRs: %v", err)
	}
	if p.Coordinate.X != 1 {
		t.Errorf("Coordinate.X = %v, want 1", p.Coordinate.X)
	}
}

func TestWriterTracksBoundsAndCounts(t *testing.T) {
	mem := &memWriteSeeker{}
	wr, err := NewWriter(mem, testHeader(0))
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	coords := []geom.Coordinate{{X: -5, Y: 10, Z: 1}, {X: 5, Y: -10, Z: 9}}
	for _, c := range coords {
		if err := wr.WritePoint(&lasbin.Point{Coordinate: c, ReturnNumber: 1, TotalReturnNumber: 1}); err != nil {
			t.Fatalf("WritePoint: %v", err)
		}
	}
	if err := wr.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	rd, err := Open(bytes.NewReader(mem.buf))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	h := rd.Header()
	if h.MinX != -5 || h.MaxX != 5 {
		t.Errorf("MinX/MaxX = %v/%v, want -5/5", h.MinX, h.MaxX)
	}
	if h.MinY != -10 || h.MaxY != 10 {
		t.Errorf("MinY/MaxY = %v/%v, want -10/10", h.MinY, h.MaxY)
	}
	if h.LegacyPointCount != 2 {
		t.Errorf("LegacyPointCount = %d, want 2", h.LegacyPointCount)
	}
}
