package lasbin

import (
	"bytes"
	"testing"

	"github.com/openchart/geoio/pkg/geom"
)

func TestPointRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		format byte
	}{
		{"format 0 base", 0},
		{"format 1 gps", 1},
		{"format 3 gps+rgb", 3},
		{"format 5 gps+rgb+wave", 5},
		{"format 6 extended base", 6},
		{"format 8 gps+rgb+nir", 8},
		{"format 10 everything", 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			length, err := PointRecordLength(tt.format)
			if err != nil {
				t.Fatalf("PointRecordLength: %v", err)
			}

			p := &Point{
				Coordinate:            geom.Coordinate{X: 100.5, Y: -50.25, Z: 12.25},
				Intensity:             255,
				ReturnNumber:          2,
				TotalReturnNumber:     3,
				ScanDirectionPositive: true,
				Classification:        9,
				ScanAngle:             -12,
				UserData:              7,
				PointSourceID:         42,
				GPSTime:               123456.789,
				Red:                   1000,
				Green:                 2000,
				Blue:                  3000,
				NIR:                   500,
				WavePacket: WavePacket{
					DescriptorIndex: 1,
					DataOffset:      99,
					Size:            29,
					ReturnLocation:  0.5,
					Xt:              1, Yt: 2, Zt: 3,
				},
			}

			var buf bytes.Buffer
			if err := EncodePoint(&buf, p, tt.format, 0.01, 0.01, 0.01, 0, 0, 0, length); err != nil {
				t.Fatalf("EncodePoint: %v", err)
			}

			got, err := DecodePoint(&buf, tt.format, 0.01, 0.01, 0.01, 0, 0, 0, length)
			if err != nil {
				t.Fatalf("DecodePoint: %v", err)
			}

			if !got.Coordinate.Equal(p.Coordinate) {
				t.Errorf("Coordinate = %v, want %v", got.Coordinate, p.Coordinate)
			}
			if got.Intensity != p.Intensity {
				t.Errorf("Intensity = %d, want %d", got.Intensity, p.Intensity)
			}
			if got.ScanAngle != p.ScanAngle {
				t.Errorf("ScanAngle = %d, want %d", got.ScanAngle, p.ScanAngle)
			}
			if got.IsScanDirectionNegative() == p.ScanDirectionPositive {
				t.Error("IsScanDirectionNegative should be the complement of ScanDirectionPositive")
			}

			if hasGPSTime(tt.format) && got.GPSTime != p.GPSTime {
				t.Errorf("GPSTime = %v, want %v", got.GPSTime, p.GPSTime)
			}
			if hasRGB(tt.format) && (got.Red != p.Red || got.Green != p.Green || got.Blue != p.Blue) {
				t.Errorf("RGB = %d,%d,%d want %d,%d,%d", got.Red, got.Green, got.Blue, p.Red, p.Green, p.Blue)
			}
			if hasNIR(tt.format) && got.NIR != p.NIR {
				t.Errorf("NIR = %d, want %d", got.NIR, p.NIR)
			}
			if hasWavePacket(tt.format) && got.WavePacket != p.WavePacket {
				t.Errorf("WavePacket = %+v, want %+v", got.WavePacket, p.WavePacket)
			}
		})
	}
}

func TestPointBitfieldExtractionFormatBelow6(t *testing.T) {
	// beta1 = 0b01_010_011: flightLineEdge(bit7)=0, scanDirectionPositive(bit6)=1,
	// totalReturnNumber(bits 3-5)=010=2, returnNumber(bits 0-2)=011=3
	beta1 := byte(0b01010011)
	record := make([]byte, 20)
	record[14] = beta1 // flags byte follows x,y,z (12 bytes) and intensity (2)
	p, err := DecodePoint(bytes.NewReader(record), 0, 1, 1, 1, 0, 0, 0, 20)
	if err != nil {
		t.Fatalf("DecodePoint: %v", err)
	}
	returnNumber := p.ReturnNumber
	totalReturnNumber := p.TotalReturnNumber
	if returnNumber != 3 {
		t.Errorf("returnNumber = %d, want 3", returnNumber)
	}
	if totalReturnNumber != 2 {
		t.Errorf("totalReturnNumber = %d, want 2", totalReturnNumber)
	}
	// A classic extraction mistake masks without shifting:
	// beta1 & 0b00111000 == 16, not 2. Guard against regressing to it.
	buggy := beta1 & 0b00111000
	if totalReturnNumber == buggy {
		t.Fatal("totalReturnNumber extraction must right-shift before masking")
	}
}

func TestEncodePointScaleOverflow(t *testing.T) {
	p := &Point{Coordinate: geom.Coordinate{X: 1e20, Y: 0, Z: 0}}
	var buf bytes.Buffer
	err := EncodePoint(&buf, p, 0, 0.01, 0.01, 0.01, 0, 0, 0, 20)
	if err == nil {
		t.Fatal("expected ErrScaleOverflow")
	}
	if _, ok := err.(*ErrScaleOverflow); !ok {
		t.Fatalf("expected *ErrScaleOverflow, got %T", err)
	}
}

func TestPointTrailingPaddingSkipped(t *testing.T) {
	length, err := PointRecordLength(0)
	if err != nil {
		t.Fatalf("PointRecordLength: %v", err)
	}
	padded := length + 5

	p := &Point{Coordinate: geom.Coordinate{X: 1, Y: 2, Z: 3}}
	var buf bytes.Buffer
	if err := EncodePoint(&buf, p, 0, 1, 1, 1, 0, 0, 0, padded); err != nil {
		t.Fatalf("EncodePoint: %v", err)
	}
	if buf.Len() != padded {
		t.Fatalf("encoded length = %d, want %d", buf.Len(), padded)
	}

	if _, err := DecodePoint(&buf, 0, 1, 1, 1, 0, 0, 0, padded); err != nil {
		t.Fatalf("DecodePoint: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected padding fully consumed, %d bytes remain", buf.Len())
	}
}
