//go:build unix

package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"golang.org/x/sys/unix"

	"github.com/milk9111/physbench/common"
	"github.com/milk9111/physbench/task"
)

func (d *Dispatcher) runProcesses(ctx context.Context, tasks []*task.Task, layouts []Layout, maxSteps, stride int) ([]byte, func() error, error) {
	logger := common.OrDiscard(d.Logger).WithPrefix("batch")
	dir, err := os.MkdirTemp("", "physbench-batch-")
	if err != nil {
		return nil, nil, fmt.Errorf("batch: %w", err)
	}
	cleanup := func() error { return os.RemoveAll(dir) }

	j := &job{MaxSteps: maxSteps, Stride: stride, Workers: d.Workers, Params: d.simulator().Params(), Tasks: tasks}
	if err := writeJob(dir, j); err != nil {
		cleanup()
		return nil, nil, err
	}
	size := totalSize(layouts)
	if err := createRegionFile(filepath.Join(dir, resultsFile), size); err != nil {
		cleanup()
		return nil, nil, err
	}

	exe, err := os.Executable()
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("%w: %w", ErrSpawnFailed, err)
	}
	cmds := make([]*exec.Cmd, 0, d.Workers)
	for rank := range d.Workers {
		cmd := exec.CommandContext(ctx, exe)
		cmd.Env = append(os.Environ(), envRank+"="+strconv.Itoa(rank), envDir+"="+dir)
		cmd.Stdout = os.Stderr
		cmd.Stderr = os.Stderr
		if err := cmd.Start(); err != nil {
			for _, c := range cmds {
				c.Process.Kill()
				c.Wait()
			}
			cleanup()
			return nil, nil, fmt.Errorf("%w: rank %d: %w", ErrSpawnFailed, rank, err)
		}
		logger.Debug("started worker", "rank", rank, "pid", cmd.Process.Pid)
		cmds = append(cmds, cmd)
	}

	var firstErr error
	for rank, cmd := range cmds {
		err := cmd.Wait()
		if err == nil || firstErr != nil {
			continue
		}
		var exit *exec.ExitError
		if errors.As(err, &exit) && exit.ExitCode() == ExitCode(ErrSizeMismatch) {
			firstErr = fmt.Errorf("rank %d: %w", rank, ErrSizeMismatch)
		} else {
			firstErr = fmt.Errorf("%w: rank %d: %w", ErrWorkerFailed, rank, err)
		}
	}
	if firstErr != nil {
		cleanup()
		return nil, nil, firstErr
	}

	buf, unmap, err := mapRegion(filepath.Join(dir, resultsFile), size)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return buf, func() error {
		return errors.Join(unmap(), cleanup())
	}, nil
}

func createRegionFile(path string, size int) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("batch: create region: %w", err)
	}
	defer f.Close()
	if err := f.Truncate(int64(size)); err != nil {
		return fmt.Errorf("batch: size region: %w", err)
	}
	return nil
}

// mapRegion maps the results file shared by all workers.
func mapRegion(path string, size int) ([]byte, func() error, error) {
	if size == 0 {
		return nil, func() error { return nil }, nil
	}
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("batch: open region: %w", err)
	}
	defer f.Close()
	buf, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, fmt.Errorf("batch: mmap region: %w", err)
	}
	return buf, func() error { return unix.Munmap(buf) }, nil
}

func runWorker(rank int, dir string) error {
	j, err := readJob(dir)
	if err != nil {
		return err
	}
	layouts := make([]Layout, len(j.Tasks))
	for i, t := range j.Tasks {
		layouts[i] = LayoutFor(t, j.MaxSteps)
	}
	buf, unmap, err := mapRegion(filepath.Join(dir, resultsFile), totalSize(layouts))
	if err != nil {
		return err
	}
	defer unmap()
	return runRank(context.Background(), rank, j.Workers, j.Tasks, layouts, regions(buf, layouts), workerSimulate(j), j.MaxSteps, j.Stride)
}
