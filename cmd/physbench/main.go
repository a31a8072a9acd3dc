package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/charmbracelet/log"

	"github.com/milk9111/physbench/batch"
	"github.com/milk9111/physbench/common"
	"github.com/milk9111/physbench/config"
	"github.com/milk9111/physbench/simulation"
)

// exitUsage is sysexits EX_USAGE.
const exitUsage = 64

// exitCode maps a command error to the process status.
func exitCode(err error) int {
	if errors.Is(err, errUsage) {
		return exitUsage
	}
	return batch.ExitCode(err)
}

type command struct {
	name  string
	usage string
	run   func(env *env, args []string) error
}

// env is shared by every subcommand.
type env struct {
	ctx    context.Context
	logger *log.Logger
	engine config.Engine
	sim    *simulation.Simulator
}

var commands = []command{
	{"simulate", "simulate one task, optionally with user input", runSimulate},
	{"batch", "simulate many tasks across workers", runBatch},
	{"list", "list task ids in a directory", runList},
	{"render", "render a task as PNG or text", runRender},
	{"create", "build a task from a tengo script", runCreate},
	{"evaluate", "place an action into a task and simulate it", runEvaluate},
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: physbench [-config file] [-log level] <command> [flags]\n\ncommands:\n")
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %-10s %s\n", c.name, c.usage)
	}
}

func main() {
	batch.MaybeRunWorker()

	configPath := flag.String("config", "", "engine config YAML overlaid on the defaults")
	level := flag.String("log", config.GetEnv("PHYSBENCH_LOG_LEVEL", "info"), "log level")
	flag.Usage = usage
	flag.CommandLine.Init("physbench", flag.ContinueOnError)
	if err := flag.CommandLine.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(exitUsage)
	}

	logger := common.NewLogger(os.Stderr, *level)
	if flag.NArg() == 0 {
		usage()
		os.Exit(exitUsage)
	}

	engine, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("load config", "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	e := &env{
		ctx:    ctx,
		logger: logger,
		engine: engine,
		sim:    simulation.New(engine.Params(), logger),
	}

	name, args := flag.Arg(0), flag.Args()[1:]
	for _, c := range commands {
		if c.name != name {
			continue
		}
		err := c.run(e, args)
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		if err != nil {
			logger.Error(name+" failed", "err", err)
			os.Exit(exitCode(err))
		}
		return
	}
	logger.Error("unknown command", "command", name)
	usage()
	os.Exit(exitUsage)
}
