package common

import (
	"math"
	"testing"
)

func TestWrapAngleRadians(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{name: "zero", in: 0, want: 0},
		{name: "positive", in: 1, want: 1},
		{name: "full turn", in: 2 * math.Pi, want: 0},
		{name: "negative", in: -math.Pi / 2, want: 3 * math.Pi / 2},
		{name: "several turns", in: 5*math.Pi + 0.5, want: math.Pi + 0.5},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := WrapAngleRadians(tc.in)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Fatalf("WrapAngleRadians(%v) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestPixelMeterRoundTrip(t *testing.T) {
	for _, px := range []float64{0, 1, 6, 255.5} {
		if got := M2P(P2M(px)); math.Abs(got-px) > 1e-9 {
			t.Fatalf("M2P(P2M(%v)) = %v", px, got)
		}
	}
	if P2M(6) != 1 {
		t.Fatalf("P2M(6) = %v, want 1", P2M(6))
	}
}
