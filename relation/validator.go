// Package relation decides whether two bodies of a live physics world stand
// in a declared spatial relationship.
package relation

import (
	"errors"
	"fmt"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/physbench/common"
	"github.com/milk9111/physbench/geometry"
	"github.com/milk9111/physbench/physics"
	"github.com/milk9111/physbench/scene"
	"github.com/milk9111/physbench/task"
)

var ErrBodyNotFound = errors.New("relation: task body ids not present in the world")

// ErrMissingPhantomShape is returned for INSIDE/NOT_INSIDE without a phantom.
var ErrMissingPhantomShape = task.ErrMissingPhantomShape

// Pair is the two goal bodies of a task, resolved in a world.
type Pair struct {
	World *physics.World
	Body1 *physics.BodyInfo
	Body2 *physics.BodyInfo
}

// IsSatisfied checks one relationship. phantom must already be in meters.
func IsSatisfied(p Pair, rel task.SpatialRelationship, phantom *scene.Shape) bool {
	switch rel {
	case task.Touching, task.TouchingBriefly:
		return isTouching(p)
	case task.NotTouching:
		return !isTouching(p)
	case task.Inside:
		return isInside(p.Body1, p.Body2, phantom)
	case task.NotInside:
		return !isInside(p.Body1, p.Body2, phantom)
	case task.Above, task.Below, task.LeftOf, task.RightOf:
		return directional(p.Body1.AABB(), p.Body2.AABB(), rel)
	}
	return false
}

func isTouching(p Pair) bool {
	if p.Body2.Tag.Role == physics.RoleUser || p.Body1.Tag.Role == physics.RoleUser {
		return false
	}
	return p.World.Touching(p.Body1.Tag.Index, p.Body2.Tag.Index)
}

func directional(a, b cp.BB, rel task.SpatialRelationship) bool {
	switch rel {
	case task.Above:
		return a.B >= b.T
	case task.Below:
		return a.T < b.B
	case task.LeftOf:
		return a.R < b.L
	case task.RightOf:
		return a.L > b.R
	}
	return false
}

// isInside places the phantom polygon at base's pose and checks that body is
// entirely within it. Only the first shape of a circle body is considered.
func isInside(body, base *physics.BodyInfo, phantom *scene.Shape) bool {
	if phantom == nil || phantom.Polygon == nil {
		return false
	}
	container := geometry.Absolute(geometry.Vs(phantom.Polygon.Vertices), base.Position(), base.Angle())
	pos, angle := body.Position(), body.Angle()
	for _, sh := range body.Shapes {
		if sh.Circle != nil {
			return circleInside(container, pos, sh.Circle.Radius)
		}
		if sh.Polygon == nil {
			continue
		}
		for _, v := range geometry.Absolute(geometry.Vs(sh.Polygon.Vertices), pos, angle) {
			if !geometry.IsInsidePolygon(container, v) {
				return false
			}
		}
	}
	return true
}

func circleInside(container []cp.Vector, center cp.Vector, radius float64) bool {
	if !geometry.IsInsidePolygon(container, center) {
		return false
	}
	n := len(container)
	for i := range container {
		if geometry.SegmentIntersectsCircle(container[i], container[(i+1)%n], center, radius) {
			return false
		}
	}
	return true
}

// CheckTaskValidity rejects tasks whose relationships cannot be evaluated.
func CheckTaskValidity(t *task.Task) error {
	for _, r := range t.Relationships {
		if r.NeedsPhantom() && t.PhantomShape == nil {
			return fmt.Errorf("%w: task %q", ErrMissingPhantomShape, t.TaskID)
		}
	}
	return nil
}

// Resolve finds the GENERAL bodies named by the task.
func Resolve(t *task.Task, w *physics.World) (Pair, error) {
	b1, ok1 := w.Body(physics.RoleGeneral, int(t.BodyID1))
	b2, ok2 := w.Body(physics.RoleGeneral, int(t.BodyID2))
	if !ok1 || !ok2 {
		return Pair{}, fmt.Errorf("%w: %d, %d", ErrBodyNotFound, t.BodyID1, t.BodyID2)
	}
	return Pair{World: w, Body1: b1, Body2: b2}, nil
}

// Checker evaluates a task against a world step after step. It caches the
// scaled phantom shape and the resolved body pair.
type Checker struct {
	task    *task.Task
	pair    Pair
	phantom *scene.Shape
	twoBall bool
}

func NewChecker(t *task.Task, w *physics.World) (*Checker, error) {
	if err := CheckTaskValidity(t); err != nil {
		return nil, err
	}
	pair, err := Resolve(t, w)
	if err != nil {
		return nil, err
	}
	c := &Checker{task: t, pair: pair}
	if t.PhantomShape != nil && t.PhantomShape.Polygon != nil {
		scaled, err := physics.ShapeToMeters(*t.PhantomShape)
		if err != nil {
			return nil, err
		}
		c.phantom = &scaled
	}
	if int(t.BodyID1) < len(t.Scene.Bodies) && int(t.BodyID2) < len(t.Scene.Bodies) {
		c.twoBall = isTwoBallTouchingCase(t.Scene.Bodies[t.BodyID1], t.Scene.Bodies[t.BodyID2], t.Relationships) &&
			singleCircle(pair.Body1) && singleCircle(pair.Body2)
	}
	return c, nil
}

// Solved reports whether every relationship holds in the current state.
func (c *Checker) Solved() bool {
	if c.twoBall {
		r1 := c.pair.Body1.Shapes[0].Circle.Radius
		r2 := c.pair.Body2.Shapes[0].Circle.Radius
		d := c.pair.Body1.Position().Distance(c.pair.Body2.Position())
		return d < r1+r2+common.P2M(common.BallTouchingThresholdPx)
	}
	for _, r := range c.task.Relationships {
		if !IsSatisfied(c.pair, r, c.phantom) {
			return false
		}
	}
	return true
}

// IsTaskInSolvedState is the one-shot form of Checker.Solved.
func IsTaskInSolvedState(t *task.Task, w *physics.World) (bool, error) {
	c, err := NewChecker(t, w)
	if err != nil {
		return false, err
	}
	return c.Solved(), nil
}

func singleCircle(b *physics.BodyInfo) bool {
	return len(b.Shapes) == 1 && b.Shapes[0].Circle != nil
}

func isTwoBallTouchingCase(b1, b2 scene.Body, rels []task.SpatialRelationship) bool {
	if len(b1.Shapes) != 1 || len(b2.Shapes) != 1 || len(rels) != 1 {
		return false
	}
	return b1.Shapes[0].Circle != nil && b2.Shapes[0].Circle != nil && rels[0] == task.Touching
}
