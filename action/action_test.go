package action

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/milk9111/physbench/geometry"
)

func TestBallMapper(t *testing.T) {
	m, err := ByName("ball")
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name   string
		action []float64
		ok     bool
		x, y   float64
		r      float64
	}{
		{name: "center small", action: []float64{0.5, 0.5, 0}, ok: true, x: 127, y: 127, r: 2},
		{name: "center large", action: []float64{0.5, 0.5, 1}, ok: true, x: 127, y: 127, r: 32},
		{name: "corner", action: []float64{0, 0, 0}, ok: false},
		{name: "out of box", action: []float64{0.5, 1.2, 0}, ok: false},
		{name: "wrong dimension", action: []float64{0.5, 0.5}, ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, ok := m.ToUserInput(tt.action)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if !ok {
				if len(in.Balls) != 0 {
					t.Fatalf("invalid action returned input %+v", in)
				}
				return
			}
			b := in.Balls[0]
			if b.Position.X != tt.x || b.Position.Y != tt.y || b.Radius != tt.r {
				t.Fatalf("ball = %+v", b)
			}
		})
	}
}

func TestTwoBallsSeparation(t *testing.T) {
	m, _ := ByName("two_balls")
	if _, ok := m.ToUserInput([]float64{0.5, 0.5, 0.1, 0.5, 0.52, 0.1}); ok {
		t.Fatal("overlapping balls accepted")
	}
	in, ok := m.ToUserInput([]float64{0.2, 0.5, 0.1, 0.8, 0.5, 0.1})
	if !ok || len(in.Balls) != 2 {
		t.Fatalf("separated balls rejected: %+v", in)
	}
}

func TestRampIsConvex(t *testing.T) {
	m, _ := ByName("ramp")
	rng := rand.New(rand.NewPCG(1, 2))
	for range 50 {
		a := Sample(m, rng, true)
		in, ok := m.ToUserInput(a)
		if !ok || len(in.Polygons) != 1 {
			t.Fatalf("sampled action %v invalid", a)
		}
		verts := in.Polygons[0].Vertices
		if len(verts) < 3 {
			t.Fatalf("ramp has %d vertices", len(verts))
		}
		area := 0.0
		for i := range verts {
			j := (i + 1) % len(verts)
			area += geometry.Cross(geometry.V(verts[i]), geometry.V(verts[j]))
		}
		if area <= 0 {
			t.Fatalf("ramp %v is not counter-clockwise", verts)
		}
	}
}

func TestSampleValid(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 7))
	for _, name := range Names() {
		m, _ := ByName(name)
		a := Sample(m, rng, true)
		if len(a) != len(m.Dimensions()) {
			t.Fatalf("%s: sample dimension %d", name, len(a))
		}
		in, ok := m.ToUserInput(a)
		if !ok {
			t.Fatalf("%s: sampled invalid action", name)
		}
		for _, b := range in.Balls {
			if b.Radius != math.Trunc(b.Radius) || b.Position.X != math.Trunc(b.Position.X) {
				t.Fatalf("%s: ball not quantized: %+v", name, b)
			}
		}
	}
}

func TestByNameUnknown(t *testing.T) {
	if _, err := ByName("cannon"); !errors.Is(err, ErrUnknownMapper) {
		t.Fatalf("err = %v", err)
	}
}
