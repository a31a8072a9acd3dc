package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/milk9111/physbench/cache"
	"github.com/milk9111/physbench/common"
	"github.com/milk9111/physbench/config"
	"github.com/milk9111/physbench/server"
	"github.com/milk9111/physbench/simulation"
)

func main() {
	svc := config.LoadService()
	configPath := flag.String("config", "", "engine config YAML overlaid on the defaults")
	addr := flag.String("addr", svc.Addr, "listen address")
	cachePath := flag.String("cache", svc.CachePath, "sqlite cache path; empty disables caching")
	tasksDir := flag.String("tasks", svc.TasksDir, "task directory; empty serves the embedded samples")
	accessLog := flag.Bool("access-log", true, "log every request")
	flag.Parse()

	logger := common.NewLogger(os.Stderr, svc.LogLevel)

	engine, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("load config", "err", err)
	}

	var c *cache.Cache
	if *cachePath != "" {
		c, err = cache.Open(*cachePath)
		if err != nil {
			logger.Fatal("open cache", "path", *cachePath, "err", err)
		}
		defer c.Close()
		logger.Info("simulation cache ready", "path", *cachePath, "run", c.RunID())
	}

	s := server.New(server.Options{
		Simulator:       simulation.New(engine.Params(), logger),
		TasksDir:        *tasksDir,
		Cache:           c,
		KeepSpaceMargin: engine.UserInput.KeepSpaceMargin,
		Logger:          logger,
		AccessLog:       *accessLog,
	})

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		logger.Info("shutting down")
		if err := s.Shutdown(); err != nil {
			logger.Error("shutdown", "err", err)
		}
	}()

	if err := s.Listen(*addr); err != nil {
		logger.Fatal("listen", "err", err)
	}
}
