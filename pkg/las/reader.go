package las

import (
	"io"

	"github.com/openchart/geoio/internal/lasbin"
)

// pointSource abstracts where point-data records actually come from, so
// Reader's state machine and contract checks are identical whether points
// are decoded from a plain byte stream (streamSource) or from liblaszip
// via the laszip build tag (see laz_enabled.go).
type pointSource interface {
	readPoint() (*lasbin.Point, error)
	seek(index int) error
	extendedVLRs(h *lasbin.Header) ([]lasbin.EVLR, error)
	close() error
}

// Reader streams point-data records out of a LAS or LAZ source in order.
// A Reader moves through four states: opened (header
// decoded, no points read yet), streaming (at least one ReadPoint call in
// flight), end-of-stream (every declared point has been read), and
// disposed. Reads after end-of-stream fail with ErrEndOfStream; operations
// after disposal fail with ErrContract.
type Reader struct {
	src    pointSource
	header *lasbin.Header

	state     streamState
	readCount uint64
}

// streamSource reads point-data records from a plain (uncompressed) LAS
// byte stream.
type streamSource struct {
	r               io.ReadSeeker
	header          *lasbin.Header
	pointDataLength int
}

func (s *streamSource) readPoint() (*lasbin.Point, error) {
	return lasbin.DecodePoint(s.r, s.header.PointDataFormat,
		s.header.XScaleFactor, s.header.YScaleFactor, s.header.ZScaleFactor,
		s.header.XOffset, s.header.YOffset, s.header.ZOffset,
		s.pointDataLength)
}

func (s *streamSource) seek(index int) error {
	offset := int64(s.header.PointDataOffset) + int64(index)*int64(s.pointDataLength)
	_, err := s.r.Seek(offset, io.SeekStart)
	return err
}

// extendedVLRs reads the 1.4 EVLR block located after the point data,
// restoring the stream position so sequential point reads continue
// unaffected.
func (s *streamSource) extendedVLRs(h *lasbin.Header) ([]lasbin.EVLR, error) {
	pos, err := s.r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}
	evlrs, err := lasbin.DecodeExtendedVLRs(s.r, h)
	if _, seekErr := s.r.Seek(pos, io.SeekStart); err == nil && seekErr != nil {
		err = seekErr
	}
	return evlrs, err
}

func (s *streamSource) close() error {
	if closer, ok := s.r.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Open decodes the public header from r and positions the reader at the
// start of the point-data region. r must support Seek so Seek(index) and
// header re-reads can reposition without re-scanning from byte zero.
func Open(r io.ReadSeeker) (*Reader, error) {
	header, err := lasbin.DecodeHeader(r)
	if err != nil {
		// Header/content errors propagate as themselves; only I/O failures
		// below become ErrStreamOpen.
		return nil, err
	}

	pdl := int(header.PointDataRecordLength)
	if minLen, err := lasbin.PointRecordLength(header.PointDataFormat); err == nil && pdl < minLen {
		pdl = minLen
	}

	if _, err := r.Seek(int64(header.PointDataOffset), io.SeekStart); err != nil {
		return nil, &ErrStreamOpen{Reason: err.Error()}
	}

	return newReader(&streamSource{r: r, header: header, pointDataLength: pdl}, header), nil
}

func newReader(src pointSource, header *lasbin.Header) *Reader {
	return &Reader{src: src, header: header, state: stateOpened}
}

// Header returns the decoded public header record.
func (rd *Reader) Header() *lasbin.Header { return rd.header }

// ReadPoint decodes the next point-data record. It returns *ErrEndOfStream
// once readPointCount equals the header's declared point count, and
// *ErrContract if the reader has been disposed.
func (rd *Reader) ReadPoint() (*lasbin.Point, error) {
	if rd.state == stateDisposed {
		return nil, &ErrContract{Reason: "ReadPoint after Dispose"}
	}
	if rd.endOfStream() {
		rd.state = stateEndOfStream
		return nil, &ErrEndOfStream{}
	}

	p, err := rd.src.readPoint()
	if err != nil {
		return nil, err
	}

	rd.state = stateStreaming
	rd.readCount++
	return p, nil
}

func (rd *Reader) endOfStream() bool {
	return rd.readCount >= rd.header.PointCount
}

// Seek repositions the reader at the point with the given zero-based
// index. The next
// ReadPoint call returns that point. Not every source supports random
// access; a LASzip-backed reader returns *ErrContract.
func (rd *Reader) Seek(index int) error {
	if rd.state == stateDisposed {
		return &ErrContract{Reason: "Seek after Dispose"}
	}
	if index < 0 || uint64(index) > rd.header.PointCount {
		return &ErrContract{Reason: "seek index out of range"}
	}

	if err := rd.src.seek(index); err != nil {
		return err
	}

	rd.readCount = uint64(index)
	if rd.endOfStream() {
		rd.state = stateEndOfStream
	} else {
		rd.state = stateStreaming
	}
	return nil
}

// ExtendedVLRs reads the extended variable length records a 1.4 file
// stores after its point data. Pre-1.4 files and files declaring none
// return nil.
func (rd *Reader) ExtendedVLRs() ([]lasbin.EVLR, error) {
	if rd.state == stateDisposed {
		return nil, &ErrContract{Reason: "ExtendedVLRs after Dispose"}
	}
	return rd.src.extendedVLRs(rd.header)
}

// Dispose releases the reader. A second call returns *ErrContract.
func (rd *Reader) Dispose() error {
	if rd.state == stateDisposed {
		return &ErrContract{Reason: "double Dispose"}
	}
	rd.state = stateDisposed
	return rd.src.close()
}
