//go:build !unix

package batch

import (
	"context"
	"errors"

	"github.com/milk9111/physbench/task"
)

var errNoProcessMode = errors.New("batch: process mode needs a unix host")

func (d *Dispatcher) runProcesses(context.Context, []*task.Task, []Layout, int, int) ([]byte, func() error, error) {
	return nil, nil, errNoProcessMode
}

func runWorker(int, string) error { return errNoProcessMode }
