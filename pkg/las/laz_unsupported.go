//go:build !laszip

package las

// OpenLAZ requires the module to be built with the "laszip" build tag,
// which links the liblaszip cgo adapter (internal/lasbin/laz). Without it,
// compressed .laz streams cannot be decoded.
func OpenLAZ(filename string) (*Reader, error) {
	return nil, &ErrUnsupportedFormat{Reason: "LAZ support requires building with -tags laszip"}
}
