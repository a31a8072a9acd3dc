// Package scene holds the pixel-space description of a physics scene: the
// bodies of a level, the solver-placed user input, and the rendered image.
package scene

import (
	"fmt"
	"strings"
)

// Vector is a 2-D point or offset in pixels.
type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type IntVector struct {
	X int32 `json:"x"`
	Y int32 `json:"y"`
}

// Polygon vertices are relative to the owning body's position.
type Polygon struct {
	Vertices []Vector `json:"vertices"`
}

// Circle is centered on the owning body's position.
type Circle struct {
	Radius float64 `json:"radius"`
}

// Shape is exactly one of Polygon or Circle. A shape with neither set is
// rejected by the physics bridge and skipped by the renderer.
type Shape struct {
	Polygon *Polygon `json:"polygon,omitempty"`
	Circle  *Circle  `json:"circle,omitempty"`
}

func PolygonShape(vertices ...Vector) Shape {
	return Shape{Polygon: &Polygon{Vertices: vertices}}
}

func CircleShape(radius float64) Shape {
	return Shape{Circle: &Circle{Radius: radius}}
}

type BodyType int32

const (
	BodyTypeStatic  BodyType = 1
	BodyTypeDynamic BodyType = 2
)

type ShapeType int32

const (
	ShapeUndefined ShapeType = iota
	ShapeBall
	ShapeBar
	ShapeJar
	ShapeStandingSticks
)

type Color int32

const (
	ColorWhite Color = iota
	ColorRed
	ColorGreen
	ColorBlue
	ColorPurple
	ColorGray
	ColorBlack
)

type UserInputStatus int32

const (
	UserInputUndefined UserInputStatus = iota
	UserInputNoOcclusions
	UserInputHadOcclusions
)

type Body struct {
	Position  Vector    `json:"position"`
	Angle     float64   `json:"angle"`
	Shapes    []Shape   `json:"shapes"`
	BodyType  BodyType  `json:"body_type"`
	Color     Color     `json:"color"`
	Diameter  float64   `json:"diameter"`
	ShapeType ShapeType `json:"shape_type"`
}

func (b Body) Dynamic() bool { return b.BodyType == BodyTypeDynamic }

type Scene struct {
	Bodies          []Body          `json:"bodies"`
	UserInputBodies []Body          `json:"user_input_bodies,omitempty"`
	Width           int32           `json:"width"`
	Height          int32           `json:"height"`
	UserInputStatus UserInputStatus `json:"user_input_status"`
}

// Clone returns a deep copy of the scene.
func (s *Scene) Clone() *Scene {
	if s == nil {
		return nil
	}
	out := *s
	out.Bodies = cloneBodies(s.Bodies)
	out.UserInputBodies = cloneBodies(s.UserInputBodies)
	return &out
}

func cloneBodies(in []Body) []Body {
	if in == nil {
		return nil
	}
	out := make([]Body, len(in))
	for i, b := range in {
		out[i] = b
		out[i].Shapes = make([]Shape, len(b.Shapes))
		for j, sh := range b.Shapes {
			out[i].Shapes[j] = sh.Clone()
		}
	}
	return out
}

func (s Shape) Clone() Shape {
	var out Shape
	if s.Polygon != nil {
		out.Polygon = &Polygon{Vertices: append([]Vector(nil), s.Polygon.Vertices...)}
	}
	if s.Circle != nil {
		c := *s.Circle
		out.Circle = &c
	}
	return out
}

type CircleWithPosition struct {
	Position Vector  `json:"position"`
	Radius   float64 `json:"radius"`
}

// AbsoluteConvexPolygon vertices are in scene pixel coordinates.
type AbsoluteConvexPolygon struct {
	Vertices []Vector `json:"vertices"`
}

// UserInput is what a solver contributes to a scene. FlattenedPoints holds
// x0, y0, x1, y1, ... pixel coordinates.
type UserInput struct {
	FlattenedPoints []int32                 `json:"flattened_point_list,omitempty"`
	Polygons        []AbsoluteConvexPolygon `json:"polygons,omitempty"`
	Balls           []CircleWithPosition    `json:"balls,omitempty"`
}

// Image is a color-indexed raster. Values is row-major with row 0 at the
// bottom of the scene.
type Image struct {
	Width  int32   `json:"width"`
	Height int32   `json:"height"`
	Values []int32 `json:"values"`
}

var colorNames = []string{"WHITE", "RED", "GREEN", "BLUE", "PURPLE", "GRAY", "BLACK"}

func (c Color) String() string {
	if c < 0 || int(c) >= len(colorNames) {
		return fmt.Sprintf("Color(%d)", int32(c))
	}
	return colorNames[c]
}

func (c Color) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Color) UnmarshalText(b []byte) error {
	i, err := lookupName(colorNames, string(b))
	if err != nil {
		return fmt.Errorf("scene: color: %w", err)
	}
	*c = Color(i)
	return nil
}

var shapeTypeNames = []string{"UNDEFINED", "BALL", "BAR", "JAR", "STANDINGSTICKS"}

func (s ShapeType) String() string {
	if s < 0 || int(s) >= len(shapeTypeNames) {
		return fmt.Sprintf("ShapeType(%d)", int32(s))
	}
	return shapeTypeNames[s]
}

func (s ShapeType) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *ShapeType) UnmarshalText(b []byte) error {
	i, err := lookupName(shapeTypeNames, string(b))
	if err != nil {
		return fmt.Errorf("scene: shape type: %w", err)
	}
	*s = ShapeType(i)
	return nil
}

func (t BodyType) String() string {
	switch t {
	case BodyTypeStatic:
		return "STATIC"
	case BodyTypeDynamic:
		return "DYNAMIC"
	}
	return fmt.Sprintf("BodyType(%d)", int32(t))
}

func (t BodyType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *BodyType) UnmarshalText(b []byte) error {
	switch strings.ToUpper(strings.TrimSpace(string(b))) {
	case "STATIC":
		*t = BodyTypeStatic
	case "DYNAMIC":
		*t = BodyTypeDynamic
	default:
		return fmt.Errorf("scene: body type: unknown name %q", string(b))
	}
	return nil
}

var userInputStatusNames = []string{"UNDEFINED", "NO_OCCLUSIONS", "HAD_OCCLUSIONS"}

func (s UserInputStatus) String() string {
	if s < 0 || int(s) >= len(userInputStatusNames) {
		return fmt.Sprintf("UserInputStatus(%d)", int32(s))
	}
	return userInputStatusNames[s]
}

func (s UserInputStatus) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *UserInputStatus) UnmarshalText(b []byte) error {
	i, err := lookupName(userInputStatusNames, string(b))
	if err != nil {
		return fmt.Errorf("scene: user input status: %w", err)
	}
	*s = UserInputStatus(i)
	return nil
}

func lookupName(names []string, s string) (int, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for i, n := range names {
		if n == s {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown name %q", s)
}
