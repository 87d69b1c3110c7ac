//go:build !laszip

package las

import "testing"

func TestOpenLAZWithoutTagReturnsUnsupportedFormat(t *testing.T) {
	_, err := OpenLAZ("ignored.laz")
	if err == nil {
		t.Fatal("expected error without laszip build tag")
	}
	if _, ok := err.(*ErrUnsupportedFormat); !ok {
		t.Fatalf("got %T, want *ErrUnsupportedFormat", err)
	}
}
