// Package cache stores simulation outcomes in SQLite, keyed by task and
// action, so repeated evaluations of the same input are not re-simulated.
package cache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/tinylib/msgp/msgp"

	"github.com/milk9111/physbench/physics"
	"github.com/milk9111/physbench/scene"
	"github.com/milk9111/physbench/task"
)

var ErrNotFound = errors.New("cache: entry not found")

const schema = `
CREATE TABLE IF NOT EXISTS simulations (
    task_key        TEXT NOT NULL,
    action_key      TEXT NOT NULL,
    run_id          TEXT NOT NULL,
    is_solution     INTEGER NOT NULL,
    steps_simulated INTEGER NOT NULL,
    simulation      BLOB NOT NULL,
    created_at      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (task_key, action_key)
);
`

type Cache struct {
	db    *sql.DB
	runID uuid.UUID
}

// Open creates the database file and its parent directory when missing.
// Every Cache gets a fresh run id that is stamped on the rows it writes.
func Open(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("cache: mkdir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?mode=rwc&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("cache: open: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: apply schema: %w", err)
	}
	return &Cache{db: db, runID: uuid.New()}, nil
}

func (c *Cache) Close() error { return c.db.Close() }

func (c *Cache) RunID() uuid.UUID { return c.runID }

// Action is everything besides the task that changes a simulation outcome.
type Action struct {
	Input     *scene.UserInput
	MaxSteps  int
	Stride    int
	KeepSpace bool
	// Margin only counts when KeepSpace is set.
	Margin float64
	Params physics.Params
}

// ActionKey hashes the msgp encoding of a. Equal keys mean equal outcomes
// for the same task.
func ActionKey(a Action) (string, error) {
	in := a.Input
	if in == nil {
		in = &scene.UserInput{}
	}
	b, err := in.MarshalMsg(nil)
	if err != nil {
		return "", fmt.Errorf("cache: encode input: %w", err)
	}
	b = msgp.AppendInt(b, a.MaxSteps)
	b = msgp.AppendInt(b, a.Stride)
	b = msgp.AppendBool(b, a.KeepSpace)
	margin := 0.0
	if a.KeepSpace {
		margin = a.Margin
	}
	b = msgp.AppendFloat64(b, margin)
	p := a.Params
	for _, f := range []float64{p.Gravity, p.Density, p.Friction, p.Restitution, p.AngularDamping, p.LinearDamping} {
		b = msgp.AppendFloat64(b, f)
	}
	b = msgp.AppendInt(b, p.Iterations)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

func (c *Cache) Get(ctx context.Context, taskKey, actionKey string) (*task.TaskSimulation, error) {
	row := c.db.QueryRowContext(ctx, `
        SELECT simulation FROM simulations
        WHERE task_key = ? AND action_key = ?
    `, taskKey, actionKey)
	var blob []byte
	if err := row.Scan(&blob); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s %s", ErrNotFound, taskKey, actionKey)
		}
		return nil, fmt.Errorf("cache: get: %w", err)
	}
	sim := new(task.TaskSimulation)
	if _, err := sim.UnmarshalMsg(blob); err != nil {
		return nil, fmt.Errorf("cache: decode: %w", err)
	}
	return sim, nil
}

// Put inserts or replaces the entry for the key pair.
func (c *Cache) Put(ctx context.Context, taskKey, actionKey string, sim *task.TaskSimulation) error {
	blob, err := sim.MarshalMsg(nil)
	if err != nil {
		return fmt.Errorf("cache: encode: %w", err)
	}
	_, err = c.db.ExecContext(ctx, `
        INSERT OR REPLACE INTO simulations (task_key, action_key, run_id, is_solution, steps_simulated, simulation)
        VALUES (?, ?, ?, ?, ?, ?)
    `, taskKey, actionKey, c.runID.String(), sim.IsSolution, sim.StepsSimulated, blob)
	if err != nil {
		return fmt.Errorf("cache: put: %w", err)
	}
	return nil
}

// SolvedCount returns how many cached actions solve the task.
func (c *Cache) SolvedCount(ctx context.Context, taskKey string) (solved, total int, err error) {
	row := c.db.QueryRowContext(ctx, `
        SELECT COALESCE(SUM(is_solution), 0), COUNT(*) FROM simulations WHERE task_key = ?
    `, taskKey)
	if err := row.Scan(&solved, &total); err != nil {
		return 0, 0, fmt.Errorf("cache: count: %w", err)
	}
	return solved, total, nil
}
