// Package task describes a benchmark task: a scene, the two goal bodies and
// the spatial relationships they must reach.
package task

import (
	"errors"
	"fmt"
	"strings"

	"github.com/milk9111/physbench/scene"
)

type SpatialRelationship int32

const (
	None SpatialRelationship = iota
	Above
	Below
	LeftOf
	RightOf
	Touching
	Inside
	NotTouching
	NotInside
	TouchingBriefly
)

var relationshipNames = []string{
	"NONE", "ABOVE", "BELOW", "LEFT_OF", "RIGHT_OF",
	"TOUCHING", "INSIDE", "NOT_TOUCHING", "NOT_INSIDE", "TOUCHING_BRIEFLY",
}

func (r SpatialRelationship) String() string {
	if r < 0 || int(r) >= len(relationshipNames) {
		return fmt.Sprintf("SpatialRelationship(%d)", int32(r))
	}
	return relationshipNames[r]
}

func (r SpatialRelationship) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *SpatialRelationship) UnmarshalText(b []byte) error {
	v, err := ParseRelationship(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

func ParseRelationship(s string) (SpatialRelationship, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for i, n := range relationshipNames {
		if n == s {
			return SpatialRelationship(i), nil
		}
	}
	return None, fmt.Errorf("task: unknown spatial relationship %q", s)
}

// NeedsPhantom reports whether checking r requires a phantom shape.
func (r SpatialRelationship) NeedsPhantom() bool {
	return r == Inside || r == NotInside
}

var (
	ErrMissingPhantomShape = errors.New("task: INSIDE/NOT_INSIDE requires a phantom shape")
	ErrBodyOutOfRange      = errors.New("task: body id out of range")
)

type Task struct {
	TaskID        string                `json:"task_id"`
	Scene         scene.Scene           `json:"scene"`
	BodyID1       int32                 `json:"body_id1"`
	BodyID2       int32                 `json:"body_id2"`
	Relationships []SpatialRelationship `json:"relationships"`
	PhantomShape  *scene.Shape          `json:"phantom_shape,omitempty"`
	Description   string                `json:"description,omitempty"`
	Tier          string                `json:"tier,omitempty"`
}

// Validate checks the preconditions a simulation relies on: both goal
// bodies exist and a phantom shape is present when a relationship needs one.
func (t *Task) Validate() error {
	n := int32(len(t.Scene.Bodies))
	if t.BodyID1 < 0 || t.BodyID1 >= n {
		return fmt.Errorf("%w: body_id1=%d with %d bodies", ErrBodyOutOfRange, t.BodyID1, n)
	}
	if t.BodyID2 < 0 || t.BodyID2 >= n {
		return fmt.Errorf("%w: body_id2=%d with %d bodies", ErrBodyOutOfRange, t.BodyID2, n)
	}
	for _, r := range t.Relationships {
		if r.NeedsPhantom() && t.PhantomShape == nil {
			return fmt.Errorf("%w: task %q", ErrMissingPhantomShape, t.TaskID)
		}
	}
	return nil
}

// Clone returns a deep copy, including the scene.
func (t *Task) Clone() *Task {
	out := *t
	out.Scene = *t.Scene.Clone()
	out.Relationships = append([]SpatialRelationship(nil), t.Relationships...)
	if t.PhantomShape != nil {
		sh := t.PhantomShape.Clone()
		out.PhantomShape = &sh
	}
	return &out
}

// TaskSimulation is the recorded outcome of simulating a task.
type TaskSimulation struct {
	SceneList       []scene.Scene `json:"scene_list"`
	SolvedStateList []bool        `json:"solved_state_list"`
	IsSolution      bool          `json:"is_solution"`
	StepsSimulated  int32         `json:"steps_simulated"`
}
