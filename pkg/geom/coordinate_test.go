package geom

import (
	"math"
	"testing"
)

func TestCoordinateUndefined(t *testing.T) {
	u := Undefined()
	if !u.IsUndefined() {
		t.Fatal("Undefined() should report IsUndefined")
	}
	if u.Equal(u) {
		t.Fatal("NaN coordinate must not equal itself under bitwise Equal")
	}
}

func TestCoordinateDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b Coordinate
		want float64
	}{
		{"same point", Coordinate{1, 2, 3}, Coordinate{1, 2, 3}, 0},
		{"unit x", Coordinate{0, 0, 0}, Coordinate{1, 0, 0}, 1},
		{"3-4-5 in xy", Coordinate{0, 0, 0}, Coordinate{3, 4, 0}, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.a.Distance(tt.b)
			if got != tt.want {
				t.Errorf("Distance(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestCoordinateDistanceUndefinedPropagatesNaN(t *testing.T) {
	d := Undefined().Distance(Coordinate{0, 0, 0})
	if !math.IsNaN(d) {
		t.Fatalf("Distance involving Undefined() must be NaN, got %v", d)
	}
}

func TestCoordinateEqual2D(t *testing.T) {
	a := Coordinate{1, 2, 3}
	b := Coordinate{1, 2, 99}
	if !a.Equal2D(b) {
		t.Fatal("Equal2D should ignore Z")
	}
	if a.Equal(b) {
		t.Fatal("Equal must not ignore Z")
	}
}
