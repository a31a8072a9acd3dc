// Package server exposes simulation, evaluation and rendering over HTTP.
package server

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/google/uuid"

	"github.com/milk9111/physbench/cache"
	"github.com/milk9111/physbench/common"
	"github.com/milk9111/physbench/evaluate"
	"github.com/milk9111/physbench/simulation"
)

const RequestIDHeader = "X-Request-ID"

type Options struct {
	Simulator *simulation.Simulator
	// TasksDir is where tasks are looked up by id. Empty serves the
	// embedded samples.
	TasksDir string
	// Cache is optional.
	Cache *cache.Cache
	// KeepSpaceMargin is the clearance used when a request asks to keep
	// space around bodies.
	KeepSpaceMargin float64
	Logger          *log.Logger
	AccessLog       bool
}

type Server struct {
	app      *fiber.App
	sim      *simulation.Simulator
	eval     *evaluate.Evaluator
	tasksDir string
	cache    *cache.Cache
	margin   float64
	logger   *log.Logger
}

func New(opts Options) *Server {
	sim := opts.Simulator
	if sim == nil {
		sim = simulation.Default
	}
	s := &Server{
		sim:      sim,
		eval:     evaluate.New(sim),
		tasksDir: opts.TasksDir,
		cache:    opts.Cache,
		margin:   opts.KeepSpaceMargin,
		logger:   common.OrDiscard(opts.Logger).WithPrefix("server"),
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		AppName:      "physbench",
	})
	app.Use(recover.New())
	app.Use(requestID)
	if opts.AccessLog {
		app.Use(logger.New(logger.Config{
			Format:     "[${time}] ${status} - ${latency} ${method} ${path} | ${respHeader:" + RequestIDHeader + "}\n",
			TimeFormat: "15:04:05",
			TimeZone:   "Local",
		}))
	}

	app.Get("/health/live", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "alive"})
	})

	api := app.Group("/api/v1")
	api.Get("/tasks", s.listTasks)
	api.Get("/tasks/:id", s.getTask)
	api.Post("/simulate", s.simulate)
	api.Post("/evaluate", s.evaluate)
	api.Post("/occlusions", s.occlusions)
	api.Post("/render", s.render)

	s.app = app
	return s
}

func (s *Server) App() *fiber.App { return s.app }

func (s *Server) Listen(addr string) error {
	s.logger.Info("listening", "addr", addr, "tasks", s.tasksDir)
	return s.app.Listen(addr)
}

func (s *Server) Shutdown() error { return s.app.Shutdown() }

// requestID keeps a caller-supplied id or assigns a new one, and echoes it
// back in the response.
func requestID(c fiber.Ctx) error {
	id := c.Get(RequestIDHeader)
	if id == "" {
		id = uuid.NewString()
	}
	c.Set(RequestIDHeader, id)
	c.Locals(RequestIDHeader, id)
	return c.Next()
}

func reqID(c fiber.Ctx) string {
	id, _ := c.Locals(RequestIDHeader).(string)
	return id
}
