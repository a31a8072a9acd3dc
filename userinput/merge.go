// Package userinput merges solver-placed balls, polygons and points into a
// scene, rejecting candidates that overlap existing bodies.
package userinput

import (
	"errors"
	"fmt"

	"github.com/milk9111/physbench/geometry"
	"github.com/milk9111/physbench/scene"
	"github.com/milk9111/physbench/task"
)

var ErrOddPointList = errors.New("userinput: flattened point list must have an even number of elements")

type Options struct {
	KeepSpace       bool
	AllowOcclusions bool
	// Margin is the clearance in pixels required around scene bodies when
	// KeepSpace is set.
	Margin float64
}

func (o Options) clearance() float64 {
	if o.KeepSpace {
		return o.Margin
	}
	return 0
}

// Merge converts user input into bodies. Balls are checked against the scene,
// polygons against the scene and the accepted balls, and points only against
// the canvas. good is false when anything was dropped or occluded.
func Merge(in *scene.UserInput, sceneBodies []scene.Body, opts Options, height, width int32) (bodies []scene.Body, good bool, err error) {
	if len(in.FlattenedPoints)%2 != 0 {
		return nil, false, fmt.Errorf("%w: got %d", ErrOddPointList, len(in.FlattenedPoints))
	}
	good = true
	margin := opts.clearance()

	for _, ball := range in.Balls {
		occluded := false
		for i := range sceneBodies {
			if ballOccludesBody(ball, &sceneBodies[i], margin) {
				occluded = true
				good = false
				break
			}
		}
		if !occluded || opts.AllowOcclusions {
			bodies = append(bodies, scene.BallToBody(ball))
		}
	}

	numBalls := len(bodies)
	for _, poly := range in.Polygons {
		verts := geometry.Vs(poly.Vertices)
		if !geometry.IsConvexPositive(verts) {
			good = false
			continue
		}
		occluded := false
		for i := 0; i < len(sceneBodies)+numBalls; i++ {
			var other *scene.Body
			if i < len(sceneBodies) {
				other = &sceneBodies[i]
			} else {
				other = &bodies[i-len(sceneBodies)]
			}
			if polygonOccludesBody(poly, other, margin) {
				occluded = true
				good = false
				break
			}
		}
		if !occluded || opts.AllowOcclusions {
			bodies = append(bodies, scene.AbsolutePolygonToBody(poly))
		}
	}

	points := pointsFromFlat(in.FlattenedPoints)
	if len(points) > 0 && len(filterOutsideCanvas(points, height, width)) != len(points) {
		good = false
	}
	return bodies, good, nil
}

// AddToScene merges the input into sc, replacing its user input bodies and
// setting its user input status.
func AddToScene(sc *scene.Scene, in *scene.UserInput, opts Options) error {
	bodies, good, err := Merge(in, sc.Bodies, opts, sc.Height, sc.Width)
	if err != nil {
		return err
	}
	sc.UserInputBodies = bodies
	if good {
		sc.UserInputStatus = scene.UserInputNoOcclusions
	} else {
		sc.UserInputStatus = scene.UserInputHadOcclusions
	}
	return nil
}

// HasOcclusions reports whether placing the input into the task's scene
// would drop or clip any of it. The task is not modified.
func HasOcclusions(t *task.Task, in *scene.UserInput, opts Options) (bool, error) {
	opts.AllowOcclusions = false
	sc := t.Scene.Clone()
	if err := AddToScene(sc, in, opts); err != nil {
		return false, err
	}
	return sc.UserInputStatus == scene.UserInputHadOcclusions, nil
}

func pointsFromFlat(flat []int32) []scene.IntVector {
	points := make([]scene.IntVector, len(flat)/2)
	for i := range points {
		points[i] = scene.IntVector{X: flat[2*i], Y: flat[2*i+1]}
	}
	return points
}

func filterOutsideCanvas(points []scene.IntVector, height, width int32) []scene.IntVector {
	var good []scene.IntVector
	for _, p := range points {
		if p.X >= 0 && p.X < width && p.Y >= 0 && p.Y < height {
			good = append(good, p)
		}
	}
	return good
}

// Build assembles user input from flat arrays: points as (x, y) pairs,
// rectangles as four (x, y) vertices each, balls as (x, y, r) triples.
// Trailing values that do not fill a whole record are ignored.
func Build(points [][2]int32, rectangles []float64, balls []float64) scene.UserInput {
	var in scene.UserInput
	for _, p := range points {
		in.FlattenedPoints = append(in.FlattenedPoints, p[0], p[1])
	}
	for i := 0; i+8 <= len(rectangles); i += 8 {
		var poly scene.AbsoluteConvexPolygon
		for j := 0; j < 8; j += 2 {
			poly.Vertices = append(poly.Vertices, scene.Vector{X: rectangles[i+j], Y: rectangles[i+j+1]})
		}
		in.Polygons = append(in.Polygons, poly)
	}
	for i := 0; i+3 <= len(balls); i += 3 {
		in.Balls = append(in.Balls, scene.CircleWithPosition{
			Position: scene.Vector{X: balls[i], Y: balls[i+1]},
			Radius:   balls[i+2],
		})
	}
	return in
}
