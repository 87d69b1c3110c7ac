package las

import (
	"io"
	"math"

	"github.com/openchart/geoio/internal/lasbin"
)

// Writer streams point-data records into a LAS byte stream in order.
// The public header is written twice: once as a placeholder
// when the Writer opens (so PointDataOffset is already correct for the
// first WritePoint call), and once finalized — point counts and the
// bounding box, both only knowable after every point has been seen — when
// Close is called.
type Writer struct {
	w      io.WriteSeeker
	header *lasbin.Header

	state           streamState
	pointDataLength int
	writeCount      uint64

	haveBounds       bool
	minX, minY, minZ float64
	maxX, maxY, maxZ float64
	countByReturn    [15]uint64

	evlrs []lasbin.EVLR
}

// SetExtendedVLRs queues extended variable length records to be written
// after the point data when Close runs. Only meaningful for 1.4 files;
// ignored for earlier versions.
func (wr *Writer) SetExtendedVLRs(evlrs []lasbin.EVLR) {
	wr.evlrs = evlrs
}

// NewWriter writes header's public header record to w and positions the
// writer at header.PointDataOffset for the first point. header.PointCount
// and the Max/Min bounds are overwritten by Close with values accumulated
// from WritePoint calls; callers need only set the version, format, and
// scale/offset fields correctly before calling NewWriter. A zero
// PublicHeaderSize is set to the version's canonical size, and a zero
// PointDataOffset to the header size plus the VLR region (VLRs and
// OpaqueTail).
func NewWriter(w io.WriteSeeker, header *lasbin.Header) (*Writer, error) {
	if header.PublicHeaderSize == 0 {
		header.PublicHeaderSize = lasbin.HeaderSizeForVersion(header.VersionMajor, header.VersionMinor)
	}
	if header.PointDataOffset == 0 {
		offset := uint32(header.PublicHeaderSize) + uint32(len(header.OpaqueTail))
		for _, v := range header.VLRs {
			offset += 54 + uint32(len(v.Data))
		}
		header.PointDataOffset = offset
	}

	if err := lasbin.EncodeHeader(w, header); err != nil {
		return nil, err
	}

	pdl := int(header.PointDataRecordLength)
	if minLen, err := lasbin.PointRecordLength(header.PointDataFormat); err == nil && pdl < minLen {
		pdl = minLen
	}

	if _, err := w.Seek(int64(header.PointDataOffset), io.SeekStart); err != nil {
		return nil, &ErrStreamOpen{Reason: err.Error()}
	}

	return &Writer{
		w:               w,
		header:          header,
		state:           stateOpened,
		pointDataLength: pdl,
	}, nil
}

// WritePoint encodes p as the next point-data record.
func (wr *Writer) WritePoint(p *lasbin.Point) error {
	if wr.state == stateDisposed || wr.state == stateEndOfStream {
		return &ErrContract{Reason: "WritePoint after Close"}
	}

	if err := lasbin.EncodePoint(wr.w, p, wr.header.PointDataFormat,
		wr.header.XScaleFactor, wr.header.YScaleFactor, wr.header.ZScaleFactor,
		wr.header.XOffset, wr.header.YOffset, wr.header.ZOffset,
		wr.pointDataLength); err != nil {
		return err
	}

	wr.state = stateStreaming
	wr.accumulateBounds(p)
	if int(p.ReturnNumber) >= 1 && int(p.ReturnNumber) <= len(wr.countByReturn) {
		wr.countByReturn[p.ReturnNumber-1]++
	}
	wr.writeCount++
	return nil
}

func (wr *Writer) accumulateBounds(p *lasbin.Point) {
	x, y, z := p.Coordinate.X, p.Coordinate.Y, p.Coordinate.Z
	if !wr.haveBounds {
		wr.minX, wr.maxX = x, x
		wr.minY, wr.maxY = y, y
		wr.minZ, wr.maxZ = z, z
		wr.haveBounds = true
		return
	}
	wr.minX, wr.maxX = math.Min(wr.minX, x), math.Max(wr.maxX, x)
	wr.minY, wr.maxY = math.Min(wr.minY, y), math.Max(wr.maxY, y)
	wr.minZ, wr.maxZ = math.Min(wr.minZ, z), math.Max(wr.maxZ, z)
}

// Close finalizes point counts and bounding box in the header, rewrites
// the header in place, and disposes the writer.
func (wr *Writer) Close() error {
	if wr.state == stateDisposed {
		return &ErrContract{Reason: "double Close"}
	}

	wr.header.PointCount = wr.writeCount
	wr.header.PointCountByReturn = wr.countByReturn
	if wr.header.PointDataFormat <= 5 && wr.writeCount <= math.MaxUint32 {
		wr.header.LegacyPointCount = uint32(wr.writeCount)
		for i := 0; i < 5 && i < len(wr.countByReturn); i++ {
			wr.header.LegacyPointCountByReturn[i] = uint32(wr.countByReturn[i])
		}
	}
	if wr.haveBounds {
		wr.header.MinX, wr.header.MaxX = wr.minX, wr.maxX
		wr.header.MinY, wr.header.MaxY = wr.minY, wr.maxY
		wr.header.MinZ, wr.header.MaxZ = wr.minZ, wr.maxZ
	}

	if len(wr.evlrs) > 0 && wr.header.VersionMinor >= 4 {
		// The stream is positioned just past the last point record.
		start := uint64(wr.header.PointDataOffset) + wr.writeCount*uint64(wr.pointDataLength)
		if _, err := lasbin.EncodeExtendedVLRs(wr.w, wr.evlrs); err != nil {
			wr.state = stateDisposed
			return err
		}
		wr.header.StartOfFirstExtendedVLR = start
		wr.header.NumberOfExtendedVLRs = uint32(len(wr.evlrs))
	}

	if _, err := wr.w.Seek(0, io.SeekStart); err != nil {
		wr.state = stateDisposed
		return err
	}
	if err := lasbin.EncodeHeader(wr.w, wr.header); err != nil {
		wr.state = stateDisposed
		return err
	}

	wr.state = stateEndOfStream
	if closer, ok := wr.w.(io.Closer); ok {
		err := closer.Close()
		wr.state = stateDisposed
		return err
	}
	wr.state = stateDisposed
	return nil
}
