// Package batch simulates many tasks across workers. Every task gets a
// fixed-size result region sized from its scene's encoding, so workers can
// write results without coordinating with each other.
package batch

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/milk9111/physbench/common"
	"github.com/milk9111/physbench/simulation"
	"github.com/milk9111/physbench/task"
)

var (
	ErrSpawnFailed  = errors.New("batch: failed to start worker")
	ErrSizeMismatch = errors.New("batch: simulated scene size differs from its slot")
	ErrWorkerFailed = errors.New("batch: worker failed")
)

type Mode int

const (
	// ModeInProcess runs workers as goroutines sharing one buffer.
	ModeInProcess Mode = iota
	// ModeProcess re-executes the current binary once per worker and shares
	// results through a memory-mapped file.
	ModeProcess
)

func (m Mode) String() string {
	switch m {
	case ModeInProcess:
		return "in-process"
	case ModeProcess:
		return "process"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "in-process", "goroutine":
		return ModeInProcess, nil
	case "process":
		return ModeProcess, nil
	}
	return 0, fmt.Errorf("batch: unknown mode %q", s)
}

type simulateFunc func(t *task.Task, maxSteps, stride int) (*task.TaskSimulation, error)

// Dispatcher runs batches. Workers <= 0 simulates sequentially in the
// caller's goroutine.
type Dispatcher struct {
	Mode      Mode
	Workers   int
	Simulator *simulation.Simulator
	Logger    *log.Logger

	simulate simulateFunc
}

func (d *Dispatcher) simulator() *simulation.Simulator {
	if d.Simulator != nil {
		return d.Simulator
	}
	return simulation.Default
}

func (d *Dispatcher) simulateFn() simulateFunc {
	if d.simulate != nil {
		return d.simulate
	}
	return d.simulator().SimulateTask
}

// SimulateBatch returns one simulation per task, in task order. Any worker
// failure aborts the whole batch.
func (d *Dispatcher) SimulateBatch(ctx context.Context, tasks []*task.Task, maxSteps, stride int) ([]*task.TaskSimulation, error) {
	logger := common.OrDiscard(d.Logger).WithPrefix("batch")
	if d.Workers <= 0 {
		return d.sequential(ctx, tasks, maxSteps, stride)
	}

	layouts := make([]Layout, len(tasks))
	for i, t := range tasks {
		layouts[i] = LayoutFor(t, maxSteps)
	}
	logger.Info("dispatching batch", "tasks", len(tasks), "workers", d.Workers, "mode", d.Mode, "bytes", totalSize(layouts))

	var (
		buf     []byte
		release func() error
		err     error
	)
	switch d.Mode {
	case ModeInProcess:
		buf = make([]byte, totalSize(layouts))
		err = d.runGoroutines(ctx, tasks, layouts, buf, maxSteps, stride)
	case ModeProcess:
		buf, release, err = d.runProcesses(ctx, tasks, layouts, maxSteps, stride)
		if release != nil {
			defer release()
		}
	default:
		return nil, fmt.Errorf("batch: unknown mode %v", d.Mode)
	}
	if err != nil {
		logger.Error("batch aborted", "err", err)
		return nil, err
	}

	out := make([]*task.TaskSimulation, len(tasks))
	for i, region := range regions(buf, layouts) {
		out[i], err = layouts[i].Read(region)
		if err != nil {
			return nil, fmt.Errorf("batch: task %d: %w", i, err)
		}
	}
	return out, nil
}

func (d *Dispatcher) sequential(ctx context.Context, tasks []*task.Task, maxSteps, stride int) ([]*task.TaskSimulation, error) {
	simulate := d.simulateFn()
	out := make([]*task.TaskSimulation, len(tasks))
	for i, t := range tasks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sim, err := simulate(t, maxSteps, stride)
		if err != nil {
			return nil, fmt.Errorf("batch: task %d: %w", i, err)
		}
		out[i] = sim
	}
	return out, nil
}

// runGoroutines gives rank r every task whose index is r modulo Workers.
func (d *Dispatcher) runGoroutines(ctx context.Context, tasks []*task.Task, layouts []Layout, buf []byte, maxSteps, stride int) error {
	simulate := d.simulateFn()
	regs := regions(buf, layouts)
	g, ctx := errgroup.WithContext(ctx)
	for rank := range d.Workers {
		g.Go(func() error {
			return runRank(ctx, rank, d.Workers, tasks, layouts, regs, simulate, maxSteps, stride)
		})
	}
	return g.Wait()
}

func runRank(ctx context.Context, rank, workers int, tasks []*task.Task, layouts []Layout, regs [][]byte, simulate simulateFunc, maxSteps, stride int) error {
	for i := rank; i < len(tasks); i += workers {
		if err := ctx.Err(); err != nil {
			return err
		}
		sim, err := simulate(tasks[i], maxSteps, stride)
		if err != nil {
			return fmt.Errorf("%w: rank %d task %d: %w", ErrWorkerFailed, rank, i, err)
		}
		if err := layouts[i].Write(regs[i], sim); err != nil {
			return fmt.Errorf("rank %d task %d: %w", rank, i, err)
		}
	}
	return nil
}

// ExitCode maps a batch error onto the process exit status used by the CLI.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrSpawnFailed):
		return 2
	case errors.Is(err, ErrSizeMismatch):
		return 3
	case errors.Is(err, ErrWorkerFailed):
		return 5
	}
	return 1
}
