//go:build laszip

package las

import (
	"github.com/openchart/geoio/internal/lasbin"
	lazadapter "github.com/openchart/geoio/internal/lasbin/laz"
)

// lazSource reads point-data records through liblaszip. LASzip only
// supports sequential decoding, so seek is unsupported.
type lazSource struct {
	r *lazadapter.Reader
}

func (s *lazSource) readPoint() (*lasbin.Point, error) { return s.r.ReadPoint() }

func (s *lazSource) seek(index int) error {
	return &ErrContract{Reason: "Seek is not supported on a LASzip-backed reader"}
}

func (s *lazSource) extendedVLRs(h *lasbin.Header) ([]lasbin.EVLR, error) {
	// liblaszip does not expose the raw post-point-data byte region.
	return nil, nil
}

func (s *lazSource) close() error { return s.r.Close() }

// OpenLAZ opens a compressed .laz file through liblaszip and streams its
// points with the same Reader contract as Open.
func OpenLAZ(filename string) (*Reader, error) {
	r, err := lazadapter.Open(filename)
	if err != nil {
		return nil, &ErrStreamOpen{Reason: err.Error()}
	}
	if r.Header() == nil {
		return nil, &ErrStreamOpen{Reason: "laz: missing header"}
	}
	return newReader(&lazSource{r: r}, r.Header()), nil
}
