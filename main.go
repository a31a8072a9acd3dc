package main

import (
	"flag"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/milk9111/physbench/common"
	"github.com/milk9111/physbench/config"
	"github.com/milk9111/physbench/simulation"
)

func main() {
	tasksDir := flag.String("tasks", "", "task directory (empty uses the embedded samples)")
	id := flag.Int("id", 0, "task id")
	taskPath := flag.String("task", "", "task file, instead of -id; reloaded when it changes")
	inputPath := flag.String("input", "", "user input JSON or x,y points file")
	configPath := flag.String("config", "", "engine config YAML")
	scale := flag.Int("scale", 3, "window pixels per scene pixel")
	flag.Parse()

	logger := common.NewLogger(os.Stderr, config.GetEnv("PHYSBENCH_LOG_LEVEL", "info"))
	engine, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("load config", "err", err)
	}

	game, err := NewGame(viewerOptions{
		tasksDir:  *tasksDir,
		id:        int32(*id),
		taskPath:  *taskPath,
		inputPath: *inputPath,
		maxSteps:  engine.Simulation.MaxSteps,
		margin:    engine.UserInput.KeepSpaceMargin,
		scale:     *scale,
	}, simulation.New(engine.Params(), logger), logger)
	if err != nil {
		logger.Fatal("load task", "err", err)
	}
	defer game.Close()

	w, h := game.windowSize()
	ebiten.SetWindowSize(w, h)
	ebiten.SetWindowTitle("physbench")
	ebiten.SetTPS(common.FPS)

	if err := ebiten.RunGame(game); err != nil {
		logger.Fatal("run viewer", "err", err)
	}
}
