package lasbin

import (
	"bytes"
	"testing"
)

func minimalHeader(versionMinor byte, format byte) *Header {
	h := &Header{
		VersionMajor:          1,
		VersionMinor:          versionMinor,
		PublicHeaderSize:      HeaderSizeForVersion(1, versionMinor),
		PointDataOffset:       uint32(HeaderSizeForVersion(1, versionMinor)),
		PointDataFormat:       format,
		PointDataRecordLength: 20,
		XScaleFactor:          0.01,
		YScaleFactor:          0.01,
		ZScaleFactor:          0.01,
		SystemIdentifier:      "geoio",
		GeneratingSoftware:    "geoio test",
	}
	return h
}

func TestHeaderRoundTrip(t *testing.T) {
	tests := []struct {
		name         string
		versionMinor byte
		format       byte
	}{
		{"1.2 format 0", 2, 0},
		{"1.3 format 1", 3, 1},
		{"1.4 format 6", 4, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := minimalHeader(tt.versionMinor, tt.format)
			h.PointCount = 42
			h.LegacyPointCount = 42

			var buf bytes.Buffer
			if err := EncodeHeader(&buf, h); err != nil {
				t.Fatalf("EncodeHeader: %v", err)
			}

			got, err := DecodeHeader(&buf)
			if err != nil {
				t.Fatalf("DecodeHeader: %v", err)
			}

			if got.VersionMinor != tt.versionMinor {
				t.Errorf("VersionMinor = %d, want %d", got.VersionMinor, tt.versionMinor)
			}
			if got.PointDataFormat != tt.format {
				t.Errorf("PointDataFormat = %d, want %d", got.PointDataFormat, tt.format)
			}
			if got.SystemIdentifier != "geoio" {
				t.Errorf("SystemIdentifier = %q, want %q", got.SystemIdentifier, "geoio")
			}
			if got.PointCount != 42 {
				t.Errorf("PointCount = %d, want 42", got.PointCount)
			}
		})
	}
}

func TestDecodeHeaderRejectsBadSignature(t *testing.T) {
	buf := bytes.NewBufferString("XXXX")
	if _, err := DecodeHeader(buf); err == nil {
		t.Fatal("expected error for bad signature")
	}
}

func TestDecodeHeaderRejectsFormatBeyondVersion(t *testing.T) {
	h := minimalHeader(2, 6) // format 6 requires 1.4
	var buf bytes.Buffer
	if err := EncodeHeader(&buf, h); err != nil {
		t.Fatalf("EncodeHeader: %v", err)
	}
	if _, err := DecodeHeader(&buf); err == nil {
		t.Fatal("expected ErrUnsupportedFormat for format 6 under version 1.2")
	}
}

func TestPointCountMismatchIsRejected(t *testing.T) {
	h := minimalHeader(4, 0)
	h.LegacyPointCount = 10
	h.PointCount = 20 // disagrees with legacy

	var buf bytes.Buffer
	if err := EncodeHeader(&buf, h); err != nil {
		t.Fatalf("EncodeHeader: %v", err)
	}
	if _, err := DecodeHeader(&buf); err == nil {
		t.Fatal("expected ErrHeaderInvalid when legacy and extended point counts disagree")
	}
}

func TestVLRRoundTrip(t *testing.T) {
	h := minimalHeader(2, 0)
	h.VLRs = []VLR{
		{UserID: "LASF_Projection", RecordID: 2112, Description: "WKT", Data: []byte("GEOGCS[...]")},
	}
	h.PublicHeaderSize = HeaderSizeForVersion(1, 2)
	h.NumberOfVLRs = 1
	h.PointDataOffset = uint32(h.PublicHeaderSize) + 54 + uint32(len(h.VLRs[0].Data))

	var buf bytes.Buffer
	if err := EncodeHeader(&buf, h); err != nil {
		t.Fatalf("EncodeHeader: %v", err)
	}

	got, err := DecodeHeader(&buf)
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	if len(got.VLRs) != 1 {
		t.Fatalf("got %d VLRs, want 1", len(got.VLRs))
	}
	if got.VLRs[0].UserID != "LASF_Projection" {
		t.Errorf("UserID = %q", got.VLRs[0].UserID)
	}
	if string(got.VLRs[0].Data) != "GEOGCS[...]" {
		t.Errorf("Data = %q", got.VLRs[0].Data)
	}
}

func TestGlobalEncodingWaveformTieBreak(t *testing.T) {
	var g GlobalEncoding
	g.SetWaveformInternal(true)
	g.SetWaveformExternal(true)
	if g.WaveformDataInternal {
		t.Error("setting external should clear internal")
	}
	if !g.WaveformDataExternal {
		t.Error("external should remain set")
	}
}

func TestLegacyPointCountZeroedAboveFormat5(t *testing.T) {
	h := minimalHeader(2, 6)
	h.LegacyPointCount = 5
	count, perReturn := h.LegacyPointCountEffective()
	if count != 0 {
		t.Errorf("LegacyPointCountEffective count = %d, want 0 for format > 5", count)
	}
	_ = perReturn
}
