// Package las implements the sequential LAS/LAZ point stream reader and
// writer: state machine, positioning, and end-of-stream semantics layered
// over the internal/lasbin binary codec.
package las

import (
	"fmt"

	"github.com/openchart/geoio/internal/lasbin"
)

// Header and point codec failures surface as themselves so callers can
// distinguish a malformed file from an I/O refusal; only the latter is
// reported as ErrStreamOpen.
type ErrHeaderInvalid = lasbin.ErrHeaderInvalid
type ErrUnsupportedFormat = lasbin.ErrUnsupportedFormat
type ErrScaleOverflow = lasbin.ErrScaleOverflow

// ErrStreamOpen indicates the underlying byte stream refused to open.
type ErrStreamOpen struct {
	Reason string
}

func (e *ErrStreamOpen) Error() string {
	return fmt.Sprintf("stream open failed: %s", e.Reason)
}

// ErrEndOfStream indicates a read past the last point record.
type ErrEndOfStream struct{}

func (e *ErrEndOfStream) Error() string { return "read past end of stream" }

// ErrContract indicates caller misuse: a double-dispose, or an operation
// issued after the reader/writer has been disposed or has reached
// end-of-stream.
type ErrContract struct {
	Reason string
}

func (e *ErrContract) Error() string {
	return fmt.Sprintf("contract violation: %s", e.Reason)
}
