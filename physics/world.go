// Package physics bridges pixel-space scenes and a Chipmunk space. Every
// body created here carries a (role, index) tag kept in a side table so the
// simulation can be written back into the scene it came from.
package physics

import (
	"errors"
	"fmt"
	"math"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/physbench/common"
	"github.com/milk9111/physbench/geometry"
	"github.com/milk9111/physbench/scene"
)

var (
	ErrUnknownShape = errors.New("physics: shape has neither polygon nor circle")
	ErrUntaggedBody = errors.New("physics: body without tag")
	ErrInvalidTag   = errors.New("physics: tag does not match scene")
)

type Role int32

const (
	RoleGeneral Role = iota
	RoleUser
	RoleBoundingBox
)

func (r Role) String() string {
	switch r {
	case RoleGeneral:
		return "GENERAL"
	case RoleUser:
		return "USER"
	case RoleBoundingBox:
		return "BOUNDING_BOX"
	}
	return fmt.Sprintf("Role(%d)", int32(r))
}

// Tag identifies where a physics body came from: the index into the scene
// list selected by Role.
type Tag struct {
	Role  Role
	Index int
}

// Params are the material and solver settings applied to every body.
type Params struct {
	Gravity        float64
	Density        float64
	Friction       float64
	Restitution    float64
	AngularDamping float64
	LinearDamping  float64
	Iterations     int
}

func DefaultParams() Params {
	return Params{
		Gravity:        common.Gravity,
		Density:        common.Density,
		Friction:       common.Friction,
		Restitution:    common.Restitution,
		AngularDamping: common.AngularDamping,
		LinearDamping:  common.LinearDamping,
		Iterations:     common.SolverIterations,
	}
}

const (
	collisionTypeGeneral cp.CollisionType = iota + 1
	collisionTypeUser
	collisionTypeBoundary
)

// BodyInfo is the side-table entry for one physics body. Shapes are kept in
// meters, relative to the body origin.
type BodyInfo struct {
	Tag    Tag
	Body   *cp.Body
	Shapes []scene.Shape
}

func (bi *BodyInfo) Position() cp.Vector { return bi.Body.Position() }

func (bi *BodyInfo) Angle() float64 { return bi.Body.Angle() }

// AABB is the tight absolute bounding box of the body's shapes.
func (bi *BodyInfo) AABB() cp.BB {
	pos, angle := bi.Position(), bi.Angle()
	bb := cp.BB{L: math.Inf(1), B: math.Inf(1), R: math.Inf(-1), T: math.Inf(-1)}
	for _, sh := range bi.Shapes {
		var sb cp.BB
		switch {
		case sh.Polygon != nil:
			sb = geometry.BoundingBox(geometry.Absolute(geometry.Vs(sh.Polygon.Vertices), pos, angle))
		case sh.Circle != nil:
			r := sh.Circle.Radius
			sb = cp.BB{L: pos.X - r, B: pos.Y - r, R: pos.X + r, T: pos.Y + r}
		default:
			continue
		}
		bb = bb.Merge(sb)
	}
	return bb
}

// World owns one Chipmunk space built from a scene. It is not safe for
// concurrent use.
type World struct {
	space  *cp.Space
	params Params

	bodies []*BodyInfo
	byBody map[*cp.Body]*BodyInfo

	general []*BodyInfo
	user    []*BodyInfo

	touching map[[2]int]struct{}
	steps    int
}

type Option func(*buildOptions)

type buildOptions struct {
	boundingBoxes bool
}

// WithBoundingBoxes surrounds the scene with four static walls just outside
// its edges.
func WithBoundingBoxes() Option {
	return func(o *buildOptions) { o.boundingBoxes = true }
}

// FromScene builds a physics world from a scene. Scene bodies are tagged
// GENERAL and user input bodies USER, each with its list index.
func FromScene(sc *scene.Scene, params Params, opts ...Option) (*World, error) {
	var bo buildOptions
	for _, opt := range opts {
		opt(&bo)
	}

	space := cp.NewSpace()
	space.Iterations = uint(params.Iterations)
	space.SetGravity(cp.Vector{X: 0, Y: params.Gravity})

	w := &World{
		space:    space,
		params:   params,
		byBody:   make(map[*cp.Body]*BodyInfo),
		touching: make(map[[2]int]struct{}),
	}
	w.setupHandlers()

	if err := w.addBodies(sc.Bodies, RoleGeneral); err != nil {
		return nil, err
	}
	if err := w.addBodies(sc.UserInputBodies, RoleUser); err != nil {
		return nil, err
	}
	if bo.boundingBoxes {
		if err := w.addBodies(boundingBoxes(float64(sc.Width), float64(sc.Height)), RoleBoundingBox); err != nil {
			return nil, err
		}
	}
	return w, nil
}

func boundingBoxes(width, height float64) []scene.Body {
	t := common.BoundingBoxThicknessPx
	return []scene.Body{
		buildStaticBox(0, 0, width, -t),
		buildStaticBox(0, height, width, t),
		buildStaticBox(0, 0, -t, height),
		buildStaticBox(width, 0, t, height),
	}
}

// buildStaticBox centers a box on its rectangle. Negative sizes extend the
// box left or down from (x, y).
func buildStaticBox(x, y, width, height float64) scene.Body {
	hw, hh := math.Abs(width)/2, math.Abs(height)/2
	return scene.Body{
		Position: scene.Vector{X: x + width/2, Y: y + height/2},
		Shapes: []scene.Shape{scene.PolygonShape(
			scene.Vector{X: -hw, Y: -hh},
			scene.Vector{X: hw, Y: -hh},
			scene.Vector{X: hw, Y: hh},
			scene.Vector{X: -hw, Y: hh},
		)},
		BodyType: scene.BodyTypeStatic,
	}
}

func (w *World) addBodies(bodies []scene.Body, role Role) error {
	for i := range bodies {
		if err := w.addBody(&bodies[i], Tag{Role: role, Index: i}); err != nil {
			return fmt.Errorf("physics: %s body %d: %w", role, i, err)
		}
	}
	return nil
}

func (w *World) addBody(sb *scene.Body, tag Tag) error {
	dynamic := sb.Dynamic()

	var body *cp.Body
	if dynamic {
		body = cp.NewBody(0, 0)
	} else {
		body = cp.NewStaticBody()
	}
	body.SetPosition(cp.Vector{X: common.P2M(sb.Position.X), Y: common.P2M(sb.Position.Y)})
	body.SetAngle(sb.Angle)
	w.space.AddBody(body)

	info := &BodyInfo{Tag: tag, Body: body, Shapes: make([]scene.Shape, 0, len(sb.Shapes))}
	for _, sh := range sb.Shapes {
		meters, err := shapeToMeters(sh)
		if err != nil {
			return err
		}
		shape := w.newShape(body, meters)
		if dynamic {
			shape.SetDensity(w.params.Density)
		}
		shape.SetFriction(w.params.Friction)
		shape.SetElasticity(w.params.Restitution)
		shape.SetCollisionType(collisionTypeFor(tag.Role))
		w.space.AddShape(shape)
		info.Shapes = append(info.Shapes, meters)
	}

	if dynamic {
		if len(sb.Shapes) == 0 {
			body.SetMass(1)
			body.SetMoment(math.Inf(1))
		}
		w.applyDamping(body)
	}

	w.bodies = append(w.bodies, info)
	w.byBody[body] = info
	switch tag.Role {
	case RoleGeneral:
		w.general = append(w.general, info)
	case RoleUser:
		w.user = append(w.user, info)
	}
	return nil
}

func (w *World) newShape(body *cp.Body, sh scene.Shape) *cp.Shape {
	if sh.Circle != nil {
		return cp.NewCircle(body, sh.Circle.Radius, cp.Vector{})
	}
	verts := geometry.Vs(sh.Polygon.Vertices)
	if signedArea(verts) < 0 {
		for i, j := 0, len(verts)-1; i < j; i, j = i+1, j-1 {
			verts[i], verts[j] = verts[j], verts[i]
		}
	}
	return cp.NewPolyShapeRaw(body, len(verts), verts, 0)
}

// applyDamping scales velocities by 1/(1+dt*damping) after integration.
func (w *World) applyDamping(body *cp.Body) {
	angular, linear := w.params.AngularDamping, w.params.LinearDamping
	if angular == 0 && linear == 0 {
		return
	}
	body.SetVelocityUpdateFunc(func(b *cp.Body, gravity cp.Vector, damping float64, dt float64) {
		cp.BodyUpdateVelocity(b, gravity, damping, dt)
		if angular > 0 {
			b.SetAngularVelocity(b.AngularVelocity() / (1 + dt*angular))
		}
		if linear > 0 {
			b.SetVelocityVector(b.Velocity().Mult(1 / (1 + dt*linear)))
		}
	})
}

func shapeToMeters(sh scene.Shape) (scene.Shape, error) {
	switch {
	case sh.Polygon != nil:
		verts := make([]scene.Vector, len(sh.Polygon.Vertices))
		for i, v := range sh.Polygon.Vertices {
			verts[i] = scene.Vector{X: common.P2M(v.X), Y: common.P2M(v.Y)}
		}
		return scene.PolygonShape(verts...), nil
	case sh.Circle != nil:
		return scene.CircleShape(common.P2M(sh.Circle.Radius)), nil
	}
	return scene.Shape{}, ErrUnknownShape
}

// ShapeToMeters scales a pixel shape into engine units.
func ShapeToMeters(sh scene.Shape) (scene.Shape, error) {
	return shapeToMeters(sh)
}

func signedArea(verts []cp.Vector) float64 {
	var a float64
	for i := range verts {
		a += geometry.Cross(verts[i], verts[(i+1)%len(verts)])
	}
	return a / 2
}

func collisionTypeFor(role Role) cp.CollisionType {
	switch role {
	case RoleUser:
		return collisionTypeUser
	case RoleBoundingBox:
		return collisionTypeBoundary
	}
	return collisionTypeGeneral
}

// Step advances the world by one fixed time step.
func (w *World) Step() {
	clear(w.touching)
	w.space.Step(common.TimeStep)
	w.steps++
}

// Steps is the number of steps taken so far.
func (w *World) Steps() int { return w.steps }

// Space returns the underlying Chipmunk space.
func (w *World) Space() *cp.Space { return w.space }

// Bodies returns every tagged body in creation order.
func (w *World) Bodies() []*BodyInfo { return w.bodies }

// Lookup returns the side-table entry of a Chipmunk body.
func (w *World) Lookup(body *cp.Body) (*BodyInfo, error) {
	info, ok := w.byBody[body]
	if !ok {
		return nil, ErrUntaggedBody
	}
	return info, nil
}

// Body finds the body created from index in the list selected by role.
func (w *World) Body(role Role, index int) (*BodyInfo, bool) {
	var list []*BodyInfo
	switch role {
	case RoleGeneral:
		list = w.general
	case RoleUser:
		list = w.user
	default:
		for _, b := range w.bodies {
			if b.Tag.Role == role && b.Tag.Index == index {
				return b, true
			}
		}
		return nil, false
	}
	if index < 0 || index >= len(list) {
		return nil, false
	}
	return list[index], true
}

// ToScene copies the live position and angle of every GENERAL and USER body
// into a copy of original. Bounding boxes are skipped. Every body in the
// space must carry a tag.
func (w *World) ToScene(original *scene.Scene) (*scene.Scene, error) {
	out := original.Clone()
	var err error
	w.space.EachBody(func(body *cp.Body) {
		if err != nil {
			return
		}
		info, lerr := w.Lookup(body)
		if lerr != nil {
			err = lerr
			return
		}
		err = writeBack(out, info)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func writeBack(out *scene.Scene, info *BodyInfo) error {
	var list []scene.Body
	switch info.Tag.Role {
	case RoleBoundingBox:
		return nil
	case RoleGeneral:
		list = out.Bodies
	case RoleUser:
		list = out.UserInputBodies
	default:
		return fmt.Errorf("%w: role %s", ErrInvalidTag, info.Tag.Role)
	}
	if info.Tag.Index < 0 || info.Tag.Index >= len(list) {
		return fmt.Errorf("%w: %s index %d of %d", ErrInvalidTag, info.Tag.Role, info.Tag.Index, len(list))
	}
	pos := info.Position()
	b := &list[info.Tag.Index]
	b.Position = scene.Vector{X: common.M2P(pos.X), Y: common.M2P(pos.Y)}
	b.Angle = info.Angle()
	return nil
}
