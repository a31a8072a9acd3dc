// Package simulation steps a physics world built from a scene and records
// sampled scenes and the per-step solved state of a task.
package simulation

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/milk9111/physbench/common"
	"github.com/milk9111/physbench/physics"
	"github.com/milk9111/physbench/relation"
	"github.com/milk9111/physbench/scene"
	"github.com/milk9111/physbench/task"
)

// Request bounds a run. Scenes are sampled on steps where step%Stride == 0;
// a Stride of 0 records nothing.
type Request struct {
	MaxSteps int
	Stride   int
}

// Simulator runs simulations with fixed physics parameters. A Simulator is
// safe for concurrent use; every run owns its world.
type Simulator struct {
	params physics.Params
	logger *log.Logger
}

func New(params physics.Params, logger *log.Logger) *Simulator {
	return &Simulator{params: params, logger: common.OrDiscard(logger).WithPrefix("simulation")}
}

// Default uses the built-in physics parameters and discards logs.
var Default = New(physics.DefaultParams(), nil)

func (s *Simulator) Params() physics.Params { return s.params }

// Simulate steps sc for up to req.MaxSteps steps. When t is non-nil the
// task's relationships are evaluated after every step and the run stops
// early once the task is solved.
func (s *Simulator) Simulate(sc *scene.Scene, t *task.Task, req Request) (*task.TaskSimulation, error) {
	world, err := physics.FromScene(sc, s.params)
	if err != nil {
		return nil, fmt.Errorf("simulation: %w", err)
	}

	var (
		checker *relation.Checker
		tracker *solvedTracker
	)
	if t != nil {
		checker, err = relation.NewChecker(t, world)
		if err != nil {
			return nil, fmt.Errorf("simulation: task %q: %w", t.TaskID, err)
		}
		tracker = newSolvedTracker(t.Relationships, checker.Solved())
	}

	var (
		scenes []scene.Scene
		states []bool
		solved bool
		steps  int
	)
	for step := 0; step < req.MaxSteps; step++ {
		world.Step()
		steps = step + 1
		if req.Stride > 0 && step%req.Stride == 0 {
			snap, err := world.ToScene(sc)
			if err != nil {
				return nil, fmt.Errorf("simulation: step %d: %w", step, err)
			}
			scenes = append(scenes, *snap)
		}
		if t == nil {
			states = append(states, false)
			continue
		}
		ok := checker.Solved()
		states = append(states, ok)
		if tracker.observe(ok) {
			solved = true
			break
		}
	}
	if tracker != nil && tracker.settledWithoutLooking(len(states)) {
		solved = true
	}

	out := &task.TaskSimulation{
		SceneList:      scenes,
		StepsSimulated: int32(steps),
	}
	if t != nil {
		out.SolvedStateList = restride(states, req.Stride)
		out.IsSolution = solved
		s.logger.Debug("simulated task", "task", t.TaskID, "steps", steps, "solved", solved)
	}
	return out, nil
}

func restride(states []bool, stride int) []bool {
	if stride <= 0 {
		return []bool{}
	}
	out := make([]bool, 0, (len(states)+stride-1)/stride)
	for i := 0; i < len(states); i += stride {
		out = append(out, states[i])
	}
	return out
}

// SimulateTask simulates the task's own scene.
func (s *Simulator) SimulateTask(t *task.Task, maxSteps, stride int) (*task.TaskSimulation, error) {
	return s.Simulate(&t.Scene, t, Request{MaxSteps: maxSteps, Stride: stride})
}

// SimulateScene replays a scene for steps steps and returns every scene.
func (s *Simulator) SimulateScene(sc *scene.Scene, steps int) ([]scene.Scene, error) {
	sim, err := s.Simulate(sc, nil, Request{MaxSteps: steps, Stride: 1})
	if err != nil {
		return nil, err
	}
	return sim.SceneList, nil
}

func SimulateTask(t *task.Task, maxSteps, stride int) (*task.TaskSimulation, error) {
	return Default.SimulateTask(t, maxSteps, stride)
}

func SimulateScene(sc *scene.Scene, steps int) ([]scene.Scene, error) {
	return Default.SimulateScene(sc, steps)
}
