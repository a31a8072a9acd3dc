package relation

import (
	"errors"
	"testing"

	"github.com/milk9111/physbench/physics"
	"github.com/milk9111/physbench/scene"
	"github.com/milk9111/physbench/task"
)

func worldFor(t *testing.T, bodies ...scene.Body) *physics.World {
	t.Helper()
	w, err := physics.FromScene(&scene.Scene{Bodies: bodies, Width: 256, Height: 256}, physics.DefaultParams())
	if err != nil {
		t.Fatalf("FromScene: %v", err)
	}
	return w
}

func pairFor(t *testing.T, w *physics.World) Pair {
	t.Helper()
	p, err := Resolve(&task.Task{Scene: scene.Scene{}, BodyID1: 0, BodyID2: 1}, w)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	return p
}

func TestDirectionalRelationships(t *testing.T) {
	base := scene.BuildBox(100, 100, 20, 20, 0, false)
	tests := []struct {
		name  string
		body1 scene.Body
		holds []task.SpatialRelationship
		fails []task.SpatialRelationship
	}{
		{
			name:  "resting on top",
			body1: scene.BuildBox(100, 121, 20, 20, 0, false),
			holds: []task.SpatialRelationship{task.Above},
			fails: []task.SpatialRelationship{task.Below, task.LeftOf, task.RightOf},
		},
		{
			name:  "below",
			body1: scene.BuildBox(100, 50, 20, 20, 0, false),
			holds: []task.SpatialRelationship{task.Below},
			fails: []task.SpatialRelationship{task.Above, task.LeftOf, task.RightOf},
		},
		{
			name:  "left",
			body1: scene.BuildCircle(80, 110, 5, false),
			holds: []task.SpatialRelationship{task.LeftOf},
			fails: []task.SpatialRelationship{task.Above, task.Below, task.RightOf},
		},
		{
			name:  "right and above",
			body1: scene.BuildCircle(140, 140, 5, false),
			holds: []task.SpatialRelationship{task.RightOf, task.Above},
			fails: []task.SpatialRelationship{task.LeftOf, task.Below},
		},
		{
			name:  "overlapping",
			body1: scene.BuildBox(110, 110, 20, 20, 0, false),
			fails: []task.SpatialRelationship{task.Above, task.Below, task.LeftOf, task.RightOf},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := pairFor(t, worldFor(t, tc.body1, base))
			for _, r := range tc.holds {
				if !IsSatisfied(p, r, nil) {
					t.Fatalf("%v should hold", r)
				}
			}
			for _, r := range tc.fails {
				if IsSatisfied(p, r, nil) {
					t.Fatalf("%v should not hold", r)
				}
			}
		})
	}
}

func TestNoneIsNeverSatisfied(t *testing.T) {
	p := pairFor(t, worldFor(t, scene.BuildCircle(10, 10, 2, false), scene.BuildCircle(50, 50, 2, false)))
	if IsSatisfied(p, task.None, nil) {
		t.Fatalf("NONE must be false")
	}
}

func TestInside(t *testing.T) {
	jarVerts := []scene.Vector{{X: 0, Y: 0}, {X: 40, Y: 0}, {X: 40, Y: 30}, {X: 0, Y: 30}}
	jar := scene.BuildPolygon(100, 0, jarVerts, 0, false)
	phantom := scene.PolygonShape(jarVerts...)
	scaled, err := physics.ShapeToMeters(phantom)
	if err != nil {
		t.Fatalf("ShapeToMeters: %v", err)
	}
	tests := []struct {
		name string
		body scene.Body
		want bool
	}{
		{name: "ball well inside", body: scene.BuildCircle(120, 15, 5, false), want: true},
		{name: "ball crossing lid", body: scene.BuildCircle(120, 27, 5, false), want: false},
		{name: "ball outside", body: scene.BuildCircle(160, 15, 5, false), want: false},
		{name: "box inside", body: scene.BuildBox(110, 5, 10, 10, 0, false), want: true},
		{name: "box on wall", body: scene.BuildBox(100, 5, 10, 10, 0, false), want: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := pairFor(t, worldFor(t, tc.body, jar))
			if got := IsSatisfied(p, task.Inside, &scaled); got != tc.want {
				t.Fatalf("INSIDE = %v, want %v", got, tc.want)
			}
			if got := IsSatisfied(p, task.NotInside, &scaled); got == tc.want {
				t.Fatalf("NOT_INSIDE = %v, want %v", got, !tc.want)
			}
		})
	}
}

func TestCheckTaskValidity(t *testing.T) {
	tk := &task.Task{Relationships: []task.SpatialRelationship{task.Touching, task.NotInside}}
	if err := CheckTaskValidity(tk); !errors.Is(err, ErrMissingPhantomShape) {
		t.Fatalf("err = %v, want ErrMissingPhantomShape", err)
	}
	tk.Relationships = []task.SpatialRelationship{task.Touching}
	if err := CheckTaskValidity(tk); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMissingBodies(t *testing.T) {
	w := worldFor(t, scene.BuildCircle(10, 10, 2, false))
	tk := &task.Task{BodyID1: 0, BodyID2: 4, Relationships: []task.SpatialRelationship{task.Touching}}
	if _, err := IsTaskInSolvedState(tk, w); !errors.Is(err, ErrBodyNotFound) {
		t.Fatalf("err = %v, want ErrBodyNotFound", err)
	}
}

func TestTwoBallTouchingUsesDistance(t *testing.T) {
	tests := []struct {
		name string
		gap  float64
		rels []task.SpatialRelationship
		want bool
	}{
		{name: "within threshold", gap: 0.05, rels: []task.SpatialRelationship{task.Touching}, want: true},
		{name: "beyond threshold", gap: 0.5, rels: []task.SpatialRelationship{task.Touching}, want: false},
		{name: "brief touching uses contacts", gap: 0.05, rels: []task.SpatialRelationship{task.TouchingBriefly}, want: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b1 := scene.BuildCircle(100, 100, 10, false)
			b2 := scene.BuildCircle(120+tc.gap, 100, 10, false)
			tk := &task.Task{
				Scene:         scene.Scene{Bodies: []scene.Body{b1, b2}},
				BodyID1:       0,
				BodyID2:       1,
				Relationships: tc.rels,
			}
			w := worldFor(t, b1, b2)
			got, err := IsTaskInSolvedState(tk, w)
			if err != nil {
				t.Fatalf("IsTaskInSolvedState: %v", err)
			}
			if got != tc.want {
				t.Fatalf("solved = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestAllRelationshipsMustHold(t *testing.T) {
	b1 := scene.BuildCircle(200, 200, 5, false)
	b2 := scene.BuildBox(100, 100, 20, 20, 0, false)
	w := worldFor(t, b1, b2)
	tk := &task.Task{
		Scene:         scene.Scene{Bodies: []scene.Body{b1, b2}},
		BodyID1:       0,
		BodyID2:       1,
		Relationships: []task.SpatialRelationship{task.Above, task.RightOf},
	}
	if ok, _ := IsTaskInSolvedState(tk, w); !ok {
		t.Fatalf("ABOVE and RIGHT_OF should both hold")
	}
	tk.Relationships = append(tk.Relationships, task.LeftOf)
	if ok, _ := IsTaskInSolvedState(tk, w); ok {
		t.Fatalf("LEFT_OF cannot hold together with RIGHT_OF")
	}
}
