package cache

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/milk9111/physbench/physics"
	"github.com/milk9111/physbench/scene"
	"github.com/milk9111/physbench/task"
)

func openTemp(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "db", "cache.sqlite"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestPutGet(t *testing.T) {
	ctx := context.Background()
	c := openTemp(t)
	sim := &task.TaskSimulation{
		SceneList:       []scene.Scene{{Width: 8, Height: 8, Bodies: []scene.Body{scene.BuildCircle(1, 2, 3, true)}}},
		SolvedStateList: []bool{true},
		IsSolution:      true,
		StepsSimulated:  180,
	}
	if _, err := c.Get(ctx, "00000:000", "a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("empty cache err = %v", err)
	}
	if err := c.Put(ctx, "00000:000", "a", sim); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := c.Get(ctx, "00000:000", "a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.IsSolution || got.StepsSimulated != 180 || len(got.SceneList) != 1 || got.SceneList[0].Bodies[0].Position.Y != 2 {
		t.Fatalf("got %+v", got)
	}

	sim.IsSolution = false
	if err := c.Put(ctx, "00000:000", "a", sim); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if err := c.Put(ctx, "00000:000", "b", &task.TaskSimulation{IsSolution: true}); err != nil {
		t.Fatal(err)
	}
	solved, total, err := c.SolvedCount(ctx, "00000:000")
	if err != nil || solved != 1 || total != 2 {
		t.Fatalf("SolvedCount = %d/%d, %v", solved, total, err)
	}
}

func TestActionKey(t *testing.T) {
	ball := func(y float64) *scene.UserInput {
		return &scene.UserInput{Balls: []scene.CircleWithPosition{{Position: scene.Vector{X: 10, Y: y}, Radius: 3}}}
	}
	base := Action{Input: ball(20), MaxSteps: 1000, Stride: 1, Margin: 8, Params: physics.DefaultParams()}
	key := func(t *testing.T, a Action) string {
		t.Helper()
		k, err := ActionKey(a)
		if err != nil {
			t.Fatalf("ActionKey: %v", err)
		}
		return k
	}
	want := key(t, base)

	tests := []struct {
		name   string
		modify func(a *Action)
		same   bool
	}{
		{"identical", func(a *Action) { a.Input = ball(20) }, true},
		{"margin ignored without keep space", func(a *Action) { a.Margin = 2 }, true},
		{"input", func(a *Action) { a.Input = ball(21) }, false},
		{"steps", func(a *Action) { a.MaxSteps = 500 }, false},
		{"stride", func(a *Action) { a.Stride = 2 }, false},
		{"keep space", func(a *Action) { a.KeepSpace = true }, false},
		{"gravity", func(a *Action) { a.Params.Gravity = -5 }, false},
		{"iterations", func(a *Action) { a.Params.Iterations = 10 }, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a := base
			tc.modify(&a)
			if got := key(t, a); (got == want) != tc.same {
				t.Fatalf("key %q vs %q, want same=%v", got, want, tc.same)
			}
		})
	}

	ks := base
	ks.KeepSpace = true
	wider := ks
	wider.Margin = 2
	if key(t, ks) == key(t, wider) {
		t.Fatal("margin ignored with keep space")
	}
}
