package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/tinylib/msgp/msgp"

	"github.com/milk9111/physbench/common"
	"github.com/milk9111/physbench/physics"
	"github.com/milk9111/physbench/scene"
	"github.com/milk9111/physbench/simulation"
	"github.com/milk9111/physbench/task"
)

const (
	envRank = "PHYSBENCH_BATCH_RANK"
	envDir  = "PHYSBENCH_BATCH_DIR"

	jobFile     = "job.msgp"
	resultsFile = "results.bin"
)

// job is everything a worker process needs to rebuild the parent's layouts.
type job struct {
	MaxSteps int
	Stride   int
	Workers  int
	Params   physics.Params
	Tasks    []*task.Task
}

func (j *job) MarshalMsg(b []byte) ([]byte, error) {
	o := msgp.AppendMapHeader(b, 5)
	o = msgp.AppendString(o, "max_steps")
	o = msgp.AppendInt(o, j.MaxSteps)
	o = msgp.AppendString(o, "stride")
	o = msgp.AppendInt(o, j.Stride)
	o = msgp.AppendString(o, "workers")
	o = msgp.AppendInt(o, j.Workers)
	o = msgp.AppendString(o, "params")
	o = appendParams(o, j.Params)
	o = msgp.AppendString(o, "tasks")
	o = msgp.AppendArrayHeader(o, uint32(len(j.Tasks)))
	for _, t := range j.Tasks {
		var err error
		if o, err = t.MarshalMsg(o); err != nil {
			return b, err
		}
	}
	return o, nil
}

func (j *job) UnmarshalMsg(b []byte) ([]byte, error) {
	return scene.ReadFields(b, func(key string, b []byte) ([]byte, error) {
		var err error
		switch key {
		case "max_steps":
			j.MaxSteps, b, err = msgp.ReadIntBytes(b)
		case "stride":
			j.Stride, b, err = msgp.ReadIntBytes(b)
		case "workers":
			j.Workers, b, err = msgp.ReadIntBytes(b)
		case "params":
			b, err = readParams(b, &j.Params)
		case "tasks":
			var n uint32
			n, b, err = msgp.ReadArrayHeaderBytes(b)
			if err != nil {
				return b, err
			}
			j.Tasks = make([]*task.Task, n)
			for i := range j.Tasks {
				j.Tasks[i] = new(task.Task)
				if b, err = j.Tasks[i].UnmarshalMsg(b); err != nil {
					return b, err
				}
			}
		default:
			b, err = msgp.Skip(b)
		}
		return b, err
	})
}

func appendParams(o []byte, p physics.Params) []byte {
	o = msgp.AppendMapHeader(o, 7)
	o = msgp.AppendString(o, "gravity")
	o = msgp.AppendFloat64(o, p.Gravity)
	o = msgp.AppendString(o, "density")
	o = msgp.AppendFloat64(o, p.Density)
	o = msgp.AppendString(o, "friction")
	o = msgp.AppendFloat64(o, p.Friction)
	o = msgp.AppendString(o, "restitution")
	o = msgp.AppendFloat64(o, p.Restitution)
	o = msgp.AppendString(o, "angular_damping")
	o = msgp.AppendFloat64(o, p.AngularDamping)
	o = msgp.AppendString(o, "linear_damping")
	o = msgp.AppendFloat64(o, p.LinearDamping)
	o = msgp.AppendString(o, "iterations")
	o = msgp.AppendInt(o, p.Iterations)
	return o
}

func readParams(b []byte, p *physics.Params) ([]byte, error) {
	return scene.ReadFields(b, func(key string, b []byte) ([]byte, error) {
		var err error
		switch key {
		case "gravity":
			p.Gravity, b, err = msgp.ReadFloat64Bytes(b)
		case "density":
			p.Density, b, err = msgp.ReadFloat64Bytes(b)
		case "friction":
			p.Friction, b, err = msgp.ReadFloat64Bytes(b)
		case "restitution":
			p.Restitution, b, err = msgp.ReadFloat64Bytes(b)
		case "angular_damping":
			p.AngularDamping, b, err = msgp.ReadFloat64Bytes(b)
		case "linear_damping":
			p.LinearDamping, b, err = msgp.ReadFloat64Bytes(b)
		case "iterations":
			p.Iterations, b, err = msgp.ReadIntBytes(b)
		default:
			b, err = msgp.Skip(b)
		}
		return b, err
	})
}

func writeJob(dir string, j *job) error {
	b, err := j.MarshalMsg(nil)
	if err != nil {
		return fmt.Errorf("batch: encode job: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, jobFile), b, 0o600); err != nil {
		return fmt.Errorf("batch: write job: %w", err)
	}
	return nil
}

func readJob(dir string) (*job, error) {
	b, err := os.ReadFile(filepath.Join(dir, jobFile))
	if err != nil {
		return nil, fmt.Errorf("batch: read job: %w", err)
	}
	j := new(job)
	if _, err := j.UnmarshalMsg(b); err != nil {
		return nil, fmt.Errorf("batch: decode job: %w", err)
	}
	return j, nil
}

// MaybeRunWorker turns the current process into a batch worker when it was
// started by a process-mode Dispatcher. It never returns in that case.
// Binaries that use ModeProcess must call it first thing in main.
func MaybeRunWorker() bool {
	rankStr, ok := os.LookupEnv(envRank)
	if !ok {
		return false
	}
	logger := common.NewLogger(os.Stderr, os.Getenv("PHYSBENCH_LOG_LEVEL")).WithPrefix("batch worker")
	rank, err := strconv.Atoi(rankStr)
	if err != nil {
		logger.Error("bad worker rank", "rank", rankStr)
		os.Exit(1)
	}
	err = runWorker(rank, os.Getenv(envDir))
	if err != nil {
		logger.Error("batch worker failed", "rank", rank, "err", err)
	}
	os.Exit(ExitCode(err))
	return true
}

func workerSimulate(j *job) simulateFunc {
	return simulation.New(j.Params, nil).SimulateTask
}
