// Package action maps points of a continuous unit box onto user input, so
// agents can search a fixed-size action space per tier.
package action

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/milk9111/physbench/scene"
)

const (
	SceneWidth  = 256
	SceneHeight = 256
)

var ErrUnknownMapper = errors.New("action: unknown mapper")

type DimensionType int

const (
	DimensionPosition DimensionType = iota
	DimensionSize
	DimensionAngle
)

type Mapper interface {
	Name() string
	Dimensions() []DimensionType
	OcclusionsAllowed() bool
	KeepSpaceAroundBodies() bool
	// ToUserInput converts an action to quantized user input. Invalid
	// actions return empty input and false.
	ToUserInput(action []float64) (scene.UserInput, bool)
}

var mappers = map[string]func() Mapper{
	"ball":      func() Mapper { return ballMapper{} },
	"two_balls": func() Mapper { return twoBallsMapper{} },
	"ramp":      func() Mapper { return rampMapper{} },
}

func ByName(name string) (Mapper, error) {
	ctor, ok := mappers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMapper, name)
	}
	return ctor(), nil
}

func Names() []string {
	names := make([]string, 0, len(mappers))
	for name := range mappers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Sample draws uniform actions until one is valid, or returns the first one
// when validOnly is false.
func Sample(m Mapper, rng *rand.Rand, validOnly bool) []float64 {
	dim := len(m.Dimensions())
	for {
		a := make([]float64, dim)
		for i := range a {
			a[i] = rng.Float64()
		}
		if !validOnly {
			return a
		}
		if _, ok := m.ToUserInput(a); ok {
			return a
		}
	}
}

func inUnitBox(action []float64, dim int) bool {
	if len(action) != dim {
		return false
	}
	for _, x := range action {
		if x < 0 || x > 1 {
			return false
		}
	}
	return true
}

func scale(x, low, high float64) float64 {
	return x*(high-low) + low
}

const (
	minBallRadius = 2
	maxBallRadius = max(SceneWidth, SceneHeight) / 8
	minRampSide   = 4
	maxRampSide   = max(SceneWidth, SceneHeight) / 4
)

func scaleBall(a []float64) scene.CircleWithPosition {
	return scene.CircleWithPosition{
		Position: scene.Vector{
			X: scale(a[0], 0, SceneWidth-1),
			Y: scale(a[1], 0, SceneHeight-1),
		},
		Radius: scale(a[2], minBallRadius, maxBallRadius),
	}
}

func pointInside(x, y float64) bool {
	return x >= 0 && x < SceneWidth && y >= 0 && y < SceneHeight
}

func insideScene(in *scene.UserInput) bool {
	for i := 0; i+1 < len(in.FlattenedPoints); i += 2 {
		if !pointInside(float64(in.FlattenedPoints[i]), float64(in.FlattenedPoints[i+1])) {
			return false
		}
	}
	for _, p := range in.Polygons {
		for _, v := range p.Vertices {
			if !pointInside(v.X, v.Y) {
				return false
			}
		}
	}
	for _, b := range in.Balls {
		if b.Position.X < b.Radius || b.Position.X > SceneWidth-b.Radius {
			return false
		}
		if b.Position.Y < b.Radius || b.Position.Y > SceneHeight-b.Radius {
			return false
		}
	}
	return true
}

// quantize snaps input onto the integer grid: radii and polygon vertices are
// rounded half to even, ball centers are truncated.
func quantize(in *scene.UserInput) {
	for i := range in.Polygons {
		for j := range in.Polygons[i].Vertices {
			v := &in.Polygons[i].Vertices[j]
			v.X = math.RoundToEven(v.X)
			v.Y = math.RoundToEven(v.Y)
		}
	}
	for i := range in.Balls {
		b := &in.Balls[i]
		b.Radius = math.RoundToEven(b.Radius)
		b.Position.X = math.Trunc(b.Position.X)
		b.Position.Y = math.Trunc(b.Position.Y)
	}
}

type ballMapper struct{}

func (ballMapper) Name() string { return "ball" }

func (ballMapper) Dimensions() []DimensionType {
	return []DimensionType{DimensionPosition, DimensionPosition, DimensionSize}
}

func (ballMapper) OcclusionsAllowed() bool     { return false }
func (ballMapper) KeepSpaceAroundBodies() bool { return false }

func (m ballMapper) ToUserInput(a []float64) (scene.UserInput, bool) {
	if !inUnitBox(a, 3) {
		return scene.UserInput{}, false
	}
	in := scene.UserInput{Balls: []scene.CircleWithPosition{scaleBall(a)}}
	if !insideScene(&in) {
		return scene.UserInput{}, false
	}
	quantize(&in)
	return in, true
}

// twoBallsMapper takes x1, y1, r1, x2, y2, r2. The balls must be at least one
// pixel apart.
type twoBallsMapper struct{}

func (twoBallsMapper) Name() string { return "two_balls" }

func (twoBallsMapper) Dimensions() []DimensionType {
	return []DimensionType{
		DimensionPosition, DimensionPosition, DimensionSize,
		DimensionPosition, DimensionPosition, DimensionSize,
	}
}

func (twoBallsMapper) OcclusionsAllowed() bool     { return false }
func (twoBallsMapper) KeepSpaceAroundBodies() bool { return false }

func (twoBallsMapper) ToUserInput(a []float64) (scene.UserInput, bool) {
	if !inUnitBox(a, 6) {
		return scene.UserInput{}, false
	}
	b1, b2 := scaleBall(a[:3]), scaleBall(a[3:])
	in := scene.UserInput{Balls: []scene.CircleWithPosition{b1, b2}}
	if !insideScene(&in) {
		return scene.UserInput{}, false
	}
	dist := math.Hypot(b1.Position.X-b2.Position.X, b1.Position.Y-b2.Position.Y)
	if dist < b1.Radius+b2.Radius+1 {
		return scene.UserInput{}, false
	}
	quantize(&in)
	return in, true
}

// rampMapper takes x, y, width, left height, right height and angle and
// builds a triangle or a trapezoid anchored at its lower-right corner.
type rampMapper struct{}

func (rampMapper) Name() string { return "ramp" }

func (rampMapper) Dimensions() []DimensionType {
	return []DimensionType{
		DimensionPosition, DimensionPosition,
		DimensionSize, DimensionSize, DimensionSize,
		DimensionAngle,
	}
}

func (rampMapper) OcclusionsAllowed() bool     { return false }
func (rampMapper) KeepSpaceAroundBodies() bool { return false }

func (rampMapper) ToUserInput(a []float64) (scene.UserInput, bool) {
	if !inUnitBox(a, 6) {
		return scene.UserInput{}, false
	}
	x := scale(a[0], 0, SceneWidth-1)
	y := scale(a[1], 0, SceneHeight-1)
	width := scale(a[2], minRampSide, maxRampSide)
	left := scale(a[3], 0, maxRampSide)
	right := max(scale(a[4], 0, maxRampSide), minRampSide)
	angle := scale(a[5], 0, 2*math.Pi)

	local := []scene.Vector{{X: 0, Y: 0}, {X: 0, Y: right}, {X: -width, Y: left}, {X: -width, Y: 0}}
	if left < 1 {
		local = []scene.Vector{{X: 0, Y: 0}, {X: 0, Y: right}, {X: -width, Y: 0}}
	}
	// Row vectors times [[cos, -sin], [sin, cos]].
	cos, sin := math.Cos(angle), math.Sin(angle)
	poly := scene.AbsoluteConvexPolygon{Vertices: make([]scene.Vector, len(local))}
	for i, p := range local {
		poly.Vertices[i] = scene.Vector{
			X: p.X*cos + p.Y*sin + x,
			Y: -p.X*sin + p.Y*cos + y,
		}
	}
	in := scene.UserInput{Polygons: []scene.AbsoluteConvexPolygon{poly}}
	if !insideScene(&in) {
		return scene.UserInput{}, false
	}
	quantize(&in)
	return in, true
}
