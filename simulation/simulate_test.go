package simulation

import (
	"bytes"
	"errors"
	"testing"

	"github.com/milk9111/physbench/relation"
	"github.com/milk9111/physbench/scene"
	"github.com/milk9111/physbench/task"
)

// staticAboveTask holds from the very first step and never changes.
func staticAboveTask() *task.Task {
	return &task.Task{
		TaskID: "static-above",
		Scene: scene.Scene{
			Bodies: []scene.Body{
				scene.BuildBox(80, 100, 40, 20, 0, false),
				scene.BuildCircle(100, 200, 5, false),
			},
			Width:  256,
			Height: 256,
		},
		BodyID1:       1,
		BodyID2:       0,
		Relationships: []task.SpatialRelationship{task.Above},
	}
}

// fallingBallTask drops a ball onto a floor.
func fallingBallTask(rel task.SpatialRelationship) *task.Task {
	return &task.Task{
		TaskID: "falling-ball",
		Scene: scene.Scene{
			Bodies: []scene.Body{
				scene.BuildBox(0, 0, 256, 10, 0, false),
				scene.BuildCircle(60, 40, 6, true),
			},
			Width:  256,
			Height: 256,
		},
		BodyID1:       1,
		BodyID2:       0,
		Relationships: []task.SpatialRelationship{rel},
	}
}

func TestSolutionThreshold(t *testing.T) {
	tests := []struct {
		name      string
		maxSteps  int
		wantSolve bool
		wantSteps int32
	}{
		{name: "179 steps", maxSteps: 179, wantSolve: false, wantSteps: 179},
		{name: "180 steps", maxSteps: 180, wantSolve: true, wantSteps: 180},
		{name: "stops early", maxSteps: 1000, wantSolve: true, wantSteps: 180},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sim, err := SimulateTask(staticAboveTask(), tc.maxSteps, 1)
			if err != nil {
				t.Fatalf("SimulateTask: %v", err)
			}
			if sim.IsSolution != tc.wantSolve {
				t.Fatalf("IsSolution = %v, want %v", sim.IsSolution, tc.wantSolve)
			}
			if sim.StepsSimulated != tc.wantSteps {
				t.Fatalf("StepsSimulated = %d, want %d", sim.StepsSimulated, tc.wantSteps)
			}
			if len(sim.SceneList) != int(tc.wantSteps) || len(sim.SolvedStateList) != int(tc.wantSteps) {
				t.Fatalf("recorded %d scenes, %d states", len(sim.SceneList), len(sim.SolvedStateList))
			}
		})
	}
}

func TestStride(t *testing.T) {
	sim, err := SimulateTask(staticAboveTask(), 10, 3)
	if err != nil {
		t.Fatalf("SimulateTask: %v", err)
	}
	if len(sim.SceneList) != 4 || len(sim.SolvedStateList) != 4 {
		t.Fatalf("got %d scenes and %d states, want 4 each", len(sim.SceneList), len(sim.SolvedStateList))
	}
	sim, err = SimulateTask(staticAboveTask(), 10, 0)
	if err != nil {
		t.Fatalf("SimulateTask: %v", err)
	}
	if len(sim.SceneList) != 0 || len(sim.SolvedStateList) != 0 || sim.StepsSimulated != 10 {
		t.Fatalf("stride 0 should record nothing: %+v", sim)
	}
}

func TestTouchingBrieflySolvesOnFirstContact(t *testing.T) {
	sim, err := SimulateTask(fallingBallTask(task.TouchingBriefly), 300, 1)
	if err != nil {
		t.Fatalf("SimulateTask: %v", err)
	}
	if !sim.IsSolution {
		t.Fatalf("ball never touched the floor")
	}
	if sim.StepsSimulated >= 300 {
		t.Fatalf("run did not stop early: %d", sim.StepsSimulated)
	}
	trues := 0
	for _, s := range sim.SolvedStateList {
		if s {
			trues++
		}
	}
	if trues != 1 || !sim.SolvedStateList[len(sim.SolvedStateList)-1] {
		t.Fatalf("expected a single solved step at the end, got %v", sim.SolvedStateList)
	}
}

func TestNotTouchingNeverMet(t *testing.T) {
	tk := staticAboveTask()
	tk.Relationships = []task.SpatialRelationship{task.NotTouching}
	sim, err := SimulateTask(tk, 50, 1)
	if err != nil {
		t.Fatalf("SimulateTask: %v", err)
	}
	if !sim.IsSolution || sim.StepsSimulated != 50 {
		t.Fatalf("apart pair should be solved after the full run: solved=%v steps=%d", sim.IsSolution, sim.StepsSimulated)
	}
}

func TestNotTouchingWhileResting(t *testing.T) {
	sim, err := SimulateTask(fallingBallTask(task.NotTouching), 400, 10)
	if err != nil {
		t.Fatalf("SimulateTask: %v", err)
	}
	if sim.IsSolution {
		t.Fatalf("resting ball should not satisfy NOT_TOUCHING")
	}
}

func TestDeterminism(t *testing.T) {
	encode := func() []byte {
		sim, err := SimulateTask(fallingBallTask(task.Touching), 400, 7)
		if err != nil {
			t.Fatalf("SimulateTask: %v", err)
		}
		b, err := sim.MarshalMsg(nil)
		if err != nil {
			t.Fatalf("MarshalMsg: %v", err)
		}
		return b
	}
	if !bytes.Equal(encode(), encode()) {
		t.Fatalf("two identical runs produced different results")
	}
}

func TestSimulateSceneRecordsEveryStep(t *testing.T) {
	tk := fallingBallTask(task.Touching)
	scenes, err := SimulateScene(&tk.Scene, 5)
	if err != nil {
		t.Fatalf("SimulateScene: %v", err)
	}
	if len(scenes) != 5 {
		t.Fatalf("got %d scenes", len(scenes))
	}
	if scenes[4].Bodies[1].Position.Y >= tk.Scene.Bodies[1].Position.Y {
		t.Fatalf("ball did not move")
	}
	if tk.Scene.Bodies[1].Position.Y != 40 {
		t.Fatalf("input scene was modified")
	}
}

func TestMissingPhantomFailsBeforeStepping(t *testing.T) {
	tk := staticAboveTask()
	tk.Relationships = []task.SpatialRelationship{task.Inside}
	if _, err := SimulateTask(tk, 10, 1); !errors.Is(err, relation.ErrMissingPhantomShape) {
		t.Fatalf("err = %v, want ErrMissingPhantomShape", err)
	}
}
