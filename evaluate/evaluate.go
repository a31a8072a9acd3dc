// Package evaluate places user input into a task, simulates it and packs the
// sampled scenes as images and object features in one call.
package evaluate

import (
	"fmt"
	"time"

	"github.com/milk9111/physbench/common"
	"github.com/milk9111/physbench/render"
	"github.com/milk9111/physbench/scene"
	"github.com/milk9111/physbench/simulation"
	"github.com/milk9111/physbench/task"
	"github.com/milk9111/physbench/userinput"
)

type Options struct {
	KeepSpace    bool
	Margin       float64
	Steps        int
	Stride       int
	NeedImages   bool
	NeedFeatures bool
}

type Result struct {
	Solved        bool
	HadOcclusions bool
	// Images holds width*height color bytes per sampled scene.
	Images []byte
	// Features holds NumObjects*ObjectFeatureSize floats per sampled scene.
	Features       []float32
	NumObjects     int
	NumScenes      int
	SimulationTime time.Duration
	PackTime       time.Duration
}

type Evaluator struct {
	sim *simulation.Simulator
}

func New(sim *simulation.Simulator) *Evaluator {
	if sim == nil {
		sim = simulation.Default
	}
	return &Evaluator{sim: sim}
}

// Evaluate never modifies t. Occluding input is dropped before simulating
// and reported through HadOcclusions.
func (e *Evaluator) Evaluate(t *task.Task, in *scene.UserInput, opts Options) (*Result, error) {
	start := time.Now()
	tk := t.Clone()
	merge := userinput.Options{KeepSpace: opts.KeepSpace, Margin: opts.Margin}
	if err := userinput.AddToScene(&tk.Scene, in, merge); err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}
	sim, err := e.sim.SimulateTask(tk, opts.Steps, opts.Stride)
	if err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}
	res := &Result{
		Solved:         sim.IsSolution,
		HadOcclusions:  HadOcclusions(sim),
		NumScenes:      len(sim.SceneList),
		SimulationTime: time.Since(start),
	}
	if len(sim.SceneList) > 0 {
		res.NumObjects = render.NumObjects(&sim.SceneList[0])
	}

	packStart := time.Now()
	if opts.NeedImages {
		size := int(tk.Scene.Width) * int(tk.Scene.Height)
		res.Images = make([]byte, size*len(sim.SceneList))
		for i := range sim.SceneList {
			render.RenderTo(&sim.SceneList[i], res.Images[i*size:(i+1)*size])
		}
	}
	if opts.NeedFeatures {
		row := res.NumObjects * common.ObjectFeatureSize
		res.Features = make([]float32, 0, row*len(sim.SceneList))
		for i := range sim.SceneList {
			res.Features = append(res.Features, render.Featurize(&sim.SceneList[i])...)
		}
	}
	res.PackTime = time.Since(packStart)
	return res, nil
}

// HadOcclusions reports the merge status recorded in the first sampled scene.
func HadOcclusions(sim *task.TaskSimulation) bool {
	if len(sim.SceneList) == 0 {
		return false
	}
	return sim.SceneList[0].UserInputStatus == scene.UserInputHadOcclusions
}
