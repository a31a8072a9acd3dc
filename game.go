package main

import (
	"encoding/json"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/milk9111/physbench/common"
	"github.com/milk9111/physbench/render"
	"github.com/milk9111/physbench/scene"
	"github.com/milk9111/physbench/simulation"
	"github.com/milk9111/physbench/task"
	"github.com/milk9111/physbench/taskio"
	"github.com/milk9111/physbench/userinput"
)

const statusHeight = 32

var background = color.RGBA{0x20, 0x20, 0x24, 0xff}

type viewerOptions struct {
	tasksDir  string
	id        int32
	taskPath  string
	inputPath string
	maxSteps  int
	margin    float64
	scale     int
}

// Game plays back a simulated task one recorded scene per tick.
type Game struct {
	opts   viewerOptions
	sim    *simulation.Simulator
	logger *log.Logger

	task       *task.Task
	frames     []*ebiten.Image
	solved     []bool
	isSolution bool

	cursor      float64
	speed       float64
	targetSpeed float64
	paused      bool

	watcher *taskio.Watcher
	status  string
}

func NewGame(opts viewerOptions, sim *simulation.Simulator, logger *log.Logger) (*Game, error) {
	if opts.scale <= 0 {
		opts.scale = 1
	}
	g := &Game{opts: opts, sim: sim, logger: logger, speed: 1, targetSpeed: 1}
	if err := g.load(); err != nil {
		return nil, err
	}
	if opts.taskPath != "" {
		// Editors often replace files, so watch the directory.
		w, err := taskio.NewWatcher(filepath.Dir(opts.taskPath))
		if err != nil {
			logger.Warn("hot reload disabled", "err", err)
		} else {
			g.watcher = w
		}
	}
	return g, nil
}

func (g *Game) Close() {
	if g.watcher != nil {
		_ = g.watcher.Close()
	}
}

func (g *Game) loadTask() (*task.Task, error) {
	if g.opts.taskPath != "" {
		return taskio.LoadPath(g.opts.taskPath)
	}
	return taskio.LoadByID(g.opts.tasksDir, g.opts.id)
}

func (g *Game) loadInput() (*scene.UserInput, error) {
	in := new(scene.UserInput)
	if g.opts.inputPath == "" {
		return in, nil
	}
	if strings.HasSuffix(g.opts.inputPath, ".json") {
		data, err := os.ReadFile(g.opts.inputPath)
		if err != nil {
			return nil, err
		}
		return in, json.Unmarshal(data, in)
	}
	points, err := userinput.ReadPointsFile(g.opts.inputPath)
	if err != nil {
		return nil, err
	}
	b := userinput.Build(points, nil, nil)
	return &b, nil
}

func (g *Game) load() error {
	t, err := g.loadTask()
	if err != nil {
		return err
	}
	in, err := g.loadInput()
	if err != nil {
		return err
	}
	t = t.Clone()
	if err := userinput.AddToScene(&t.Scene, in, userinput.Options{Margin: g.opts.margin}); err != nil {
		return err
	}
	res, err := g.sim.SimulateTask(t, g.opts.maxSteps, 1)
	if err != nil {
		return err
	}

	frames := make([]*ebiten.Image, len(res.SceneList))
	for i := range res.SceneList {
		img := render.ToPaletted(render.Render(&res.SceneList[i]))
		frames[i] = ebiten.NewImageFromImage(img)
	}
	for _, f := range g.frames {
		f.Deallocate()
	}
	g.task = t
	g.frames = frames
	g.solved = res.SolvedStateList
	g.isSolution = res.IsSolution
	g.cursor = 0
	g.logger.Info("loaded task", "task", t.TaskID, "scenes", len(frames), "solution", res.IsSolution,
		"input", t.Scene.UserInputStatus)
	return nil
}

func (g *Game) pollReload() {
	if g.watcher == nil {
		return
	}
	for {
		select {
		case path, ok := <-g.watcher.Events:
			if !ok {
				g.watcher = nil
				return
			}
			if filepath.Clean(path) != filepath.Clean(g.opts.taskPath) {
				continue
			}
			if err := g.load(); err != nil {
				g.status = "reload failed: " + err.Error()
				g.logger.Error("reload", "path", path, "err", err)
			} else {
				g.status = "reloaded"
			}
		case err, ok := <-g.watcher.Errors:
			if !ok {
				g.watcher = nil
				return
			}
			g.logger.Warn("watch", "err", err)
		default:
			return
		}
	}
}

func (g *Game) Update() error {
	g.pollReload()

	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeySpace):
		g.paused = !g.paused
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		g.cursor = 0
	case inpututil.IsKeyJustPressed(ebiten.KeyUp):
		g.targetSpeed = math.Min(g.targetSpeed*2, 16)
	case inpututil.IsKeyJustPressed(ebiten.KeyDown):
		g.targetSpeed = math.Max(g.targetSpeed/2, 0.125)
	case inpututil.IsKeyJustPressed(ebiten.KeyRight):
		g.paused = true
		g.cursor = math.Floor(g.cursor) + 1
	case inpututil.IsKeyJustPressed(ebiten.KeyLeft):
		g.paused = true
		g.cursor = math.Max(math.Ceil(g.cursor)-1, 0)
	}
	g.speed = float64(common.Lerp(float32(g.speed), float32(g.targetSpeed), 0.2))

	if !g.paused {
		g.cursor += g.speed
	}
	if last := float64(len(g.frames) - 1); g.cursor > last {
		g.cursor = math.Max(last, 0)
	}
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(background)
	if len(g.frames) == 0 {
		return
	}
	i := int(g.cursor)
	frac := g.cursor - float64(i)

	s := float64(g.opts.scale)
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(s, s)
	op.GeoM.Translate(0, statusHeight)
	screen.DrawImage(g.frames[i], op)
	if frac > 0 && i+1 < len(g.frames) {
		op.ColorScale.ScaleAlpha(common.Lerp(0, 1, float32(frac)))
		screen.DrawImage(g.frames[i+1], op)
	}

	solved := i < len(g.solved) && g.solved[i]
	msg := fmt.Sprintf("%s  scene %d/%d  solved %v  solution %v  x%.2f",
		g.task.TaskID, i+1, len(g.frames), solved, g.isSolution, g.targetSpeed)
	if g.paused {
		msg += "  [paused]"
	}
	if g.status != "" {
		msg += "\n" + g.status
	}
	ebitenutil.DebugPrint(screen, msg)
}

func (g *Game) windowSize() (int, int) {
	return int(g.task.Scene.Width) * g.opts.scale, int(g.task.Scene.Height)*g.opts.scale + statusHeight
}

func (g *Game) LayoutF(outsideWidth, outsideHeight float64) (float64, float64) {
	w, h := g.windowSize()
	return float64(w), float64(h)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	panic("shouldn't use Layout")
}
