package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"image/png"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/milk9111/physbench/action"
	"github.com/milk9111/physbench/batch"
	"github.com/milk9111/physbench/creator"
	"github.com/milk9111/physbench/evaluate"
	"github.com/milk9111/physbench/render"
	"github.com/milk9111/physbench/scene"
	"github.com/milk9111/physbench/task"
	"github.com/milk9111/physbench/taskio"
	"github.com/milk9111/physbench/userinput"
)

// errUsage marks bad command lines. They exit with exitUsage, apart from
// the batch failure codes.
var errUsage = errors.New("usage")

func parseFlags(fs *flag.FlagSet, args []string) error {
	err := fs.Parse(args)
	if err == nil || errors.Is(err, flag.ErrHelp) {
		return err
	}
	return fmt.Errorf("%w: %w", errUsage, err)
}

func writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func loadTask(dir string, id int, path string) (*task.Task, error) {
	if path != "" {
		return taskio.LoadPath(path)
	}
	if id < 0 {
		return nil, fmt.Errorf("%w: either -id or -task is required", errUsage)
	}
	return taskio.LoadByID(dir, int32(id))
}

func readInput(path string) (*scene.UserInput, error) {
	in := new(scene.UserInput)
	if path == "" {
		return in, nil
	}
	if strings.HasSuffix(path, ".json") {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, in); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		return in, nil
	}
	points, err := userinput.ReadPointsFile(path)
	if err != nil {
		return nil, err
	}
	b := userinput.Build(points, nil, nil)
	return &b, nil
}

func runSimulate(e *env, args []string) error {
	fs := flag.NewFlagSet("simulate", flag.ContinueOnError)
	dir := fs.String("tasks", "", "task directory (empty uses the embedded samples)")
	id := fs.Int("id", -1, "task id")
	path := fs.String("task", "", "task file, instead of -id")
	input := fs.String("input", "", "user input JSON or x,y points file")
	keepSpace := fs.Bool("keep-space", false, "require clearance around scene bodies")
	steps := fs.Int("steps", e.engine.Simulation.MaxSteps, "maximum steps")
	stride := fs.Int("stride", e.engine.Simulation.Stride, "scene sampling stride")
	scenes := fs.Bool("scenes", false, "print sampled scenes")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	t, err := loadTask(*dir, *id, *path)
	if err != nil {
		return err
	}
	in, err := readInput(*input)
	if err != nil {
		return err
	}
	t = t.Clone()
	opts := userinput.Options{KeepSpace: *keepSpace, Margin: e.engine.UserInput.KeepSpaceMargin}
	if err := userinput.AddToScene(&t.Scene, in, opts); err != nil {
		return err
	}
	sim, err := e.sim.SimulateTask(t, *steps, *stride)
	if err != nil {
		return err
	}
	if !*scenes {
		sim.SceneList = nil
	}
	return writeJSON(sim)
}

func parseIDs(s, dir string) ([]int32, error) {
	if s == "" || s == "all" {
		return taskio.ListIDs(dir)
	}
	var ids []int32
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.ParseInt(strings.TrimSpace(part), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("bad id %q: %w", part, err)
		}
		ids = append(ids, int32(n))
	}
	return ids, nil
}

func runBatch(e *env, args []string) error {
	fs := flag.NewFlagSet("batch", flag.ContinueOnError)
	dir := fs.String("tasks", "", "task directory (empty uses the embedded samples)")
	idList := fs.String("ids", "all", "comma separated task ids, or all")
	workers := fs.Int("workers", 0, "worker count; 0 simulates sequentially")
	modeName := fs.String("mode", "in-process", "worker mode: in-process or process")
	steps := fs.Int("steps", e.engine.Simulation.MaxSteps, "maximum steps")
	stride := fs.Int("stride", e.engine.Simulation.Stride, "scene sampling stride")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	mode, err := batch.ParseMode(*modeName)
	if err != nil {
		return err
	}
	ids, err := parseIDs(*idList, *dir)
	if err != nil {
		return err
	}
	tasks := make([]*task.Task, len(ids))
	for i, id := range ids {
		if tasks[i], err = taskio.LoadByID(*dir, id); err != nil {
			return err
		}
	}

	d := &batch.Dispatcher{Mode: mode, Workers: *workers, Simulator: e.sim, Logger: e.logger}
	sims, err := d.SimulateBatch(e.ctx, tasks, *steps, *stride)
	if err != nil {
		return err
	}
	type row struct {
		ID             int32 `json:"id"`
		IsSolution     bool  `json:"is_solution"`
		StepsSimulated int32 `json:"steps_simulated"`
		Scenes         int   `json:"scenes"`
	}
	rows := make([]row, len(sims))
	for i, sim := range sims {
		rows[i] = row{ID: ids[i], IsSolution: sim.IsSolution, StepsSimulated: sim.StepsSimulated, Scenes: len(sim.SceneList)}
	}
	return writeJSON(rows)
}

func runList(e *env, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	dir := fs.String("tasks", "", "task directory (empty uses the embedded samples)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	ids, err := taskio.ListIDs(*dir)
	if err != nil {
		return err
	}
	for _, id := range ids {
		t, err := taskio.LoadByID(*dir, id)
		if err != nil {
			e.logger.Warn("skipping task", "id", id, "err", err)
			continue
		}
		fmt.Printf("%05d\t%s\t%s\n", id, t.TaskID, t.Description)
	}
	return nil
}

func runRender(e *env, args []string) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	dir := fs.String("tasks", "", "task directory (empty uses the embedded samples)")
	id := fs.Int("id", -1, "task id")
	path := fs.String("task", "", "task file, instead of -id")
	input := fs.String("input", "", "user input JSON or x,y points file")
	out := fs.String("o", "", "PNG output path; empty prints text")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	t, err := loadTask(*dir, *id, *path)
	if err != nil {
		return err
	}
	in, err := readInput(*input)
	if err != nil {
		return err
	}
	sc := t.Scene.Clone()
	if err := userinput.AddToScene(sc, in, userinput.Options{AllowOcclusions: true}); err != nil {
		return err
	}
	img := render.Render(sc)

	if *out == "" {
		cols := 80
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
			cols = w
		}
		for _, line := range render.ASCII(img, cols) {
			fmt.Println(line)
		}
		return nil
	}
	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := png.Encode(f, render.ToPaletted(img)); err != nil {
		return err
	}
	e.logger.Info("wrote image", "path", *out)
	return nil
}

func runCreate(e *env, args []string) error {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	script := fs.String("script", "", "tengo script path")
	name := fs.String("name", "", "embedded script name")
	out := fs.String("o", "", "output task file (.json or .bin); empty prints JSON")
	id := fs.String("id", "", "task id (defaults to the script name)")
	list := fs.Bool("list", false, "list embedded scripts")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *list {
		for _, n := range creator.Names() {
			fmt.Println(n)
		}
		return nil
	}

	var (
		t   *task.Task
		err error
	)
	switch {
	case *script != "":
		src, rerr := os.ReadFile(*script)
		if rerr != nil {
			return rerr
		}
		taskID := *id
		if taskID == "" {
			taskID = strings.TrimSuffix(*script, ".tengo")
		}
		t, err = creator.Build(taskID, src)
	case *name != "":
		t, err = creator.BuildEmbedded(*name)
	default:
		return fmt.Errorf("%w: -script or -name is required", errUsage)
	}
	if err != nil {
		return err
	}
	if *out == "" {
		return writeJSON(t)
	}
	if err := taskio.Save(*out, t); err != nil {
		return err
	}
	e.logger.Info("wrote task", "path", *out, "task", t.TaskID)
	return nil
}

func parseAction(s string) ([]float64, error) {
	var a []float64
	for _, part := range strings.Split(s, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("bad action component %q: %w", part, err)
		}
		a = append(a, v)
	}
	return a, nil
}

func runEvaluate(e *env, args []string) error {
	fs := flag.NewFlagSet("evaluate", flag.ContinueOnError)
	dir := fs.String("tasks", "", "task directory (empty uses the embedded samples)")
	id := fs.Int("id", -1, "task id")
	path := fs.String("task", "", "task file, instead of -id")
	mapperName := fs.String("mapper", "ball", "action mapper: "+strings.Join(action.Names(), ", "))
	actionStr := fs.String("action", "", "comma separated action in [0,1]; empty samples one")
	seed := fs.Uint64("seed", 1, "seed for sampled actions")
	steps := fs.Int("steps", e.engine.Simulation.MaxSteps, "maximum steps")
	stride := fs.Int("stride", e.engine.Simulation.Stride, "scene sampling stride")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	t, err := loadTask(*dir, *id, *path)
	if err != nil {
		return err
	}
	m, err := action.ByName(*mapperName)
	if err != nil {
		return err
	}
	var a []float64
	if *actionStr == "" {
		a = action.Sample(m, rand.New(rand.NewPCG(*seed, *seed)), true)
	} else if a, err = parseAction(*actionStr); err != nil {
		return err
	}
	in, ok := m.ToUserInput(a)
	if !ok {
		return fmt.Errorf("action %v is not valid for mapper %s", a, m.Name())
	}

	res, err := evaluate.New(e.sim).Evaluate(t, &in, evaluate.Options{
		KeepSpace: m.KeepSpaceAroundBodies(),
		Margin:    e.engine.UserInput.KeepSpaceMargin,
		Steps:     *steps,
		Stride:    *stride,
	})
	if err != nil {
		return err
	}
	return writeJSON(map[string]any{
		"action":         a,
		"user_input":     in,
		"solved":         res.Solved,
		"had_occlusions": res.HadOcclusions,
		"num_scenes":     res.NumScenes,
		"num_objects":    res.NumObjects,
		"simulation_ms":  res.SimulationTime.Milliseconds(),
	})
}
