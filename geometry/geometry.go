// Package geometry holds the planar predicates shared by the validator, the
// occlusion checks and the renderer. All functions are pure and work in
// whatever unit the caller uses, pixels or meters.
package geometry

import (
	"math"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/physbench/scene"
)

const (
	ZeroLengthEdgeEps = 1e-4
	InsidenessEps     = 1e-5
)

// V converts a scene vector to a cp vector.
func V(v scene.Vector) cp.Vector {
	return cp.Vector(v)
}

// Vs converts a vertex list.
func Vs(vs []scene.Vector) []cp.Vector {
	out := make([]cp.Vector, len(vs))
	for i, v := range vs {
		out[i] = cp.Vector(v)
	}
	return out
}

func Rotate(p cp.Vector, angle float64) cp.Vector {
	c, s := math.Cos(angle), math.Sin(angle)
	return cp.Vector{X: p.X*c - p.Y*s, Y: p.X*s + p.Y*c}
}

// Translate rotates p by angle and then shifts it.
func Translate(p, shift cp.Vector, angle float64) cp.Vector {
	return Rotate(p, angle).Add(shift)
}

// ReverseTranslate undoes Translate: shift back, then rotate by -angle.
func ReverseTranslate(p, shift cp.Vector, angle float64) cp.Vector {
	return Rotate(p.Sub(shift), -angle)
}

// Absolute maps body-relative vertices into the parent frame.
func Absolute(verts []cp.Vector, position cp.Vector, angle float64) []cp.Vector {
	out := make([]cp.Vector, len(verts))
	for i, v := range verts {
		out[i] = Translate(v, position, angle)
	}
	return out
}

func Inner(a, b cp.Vector) float64 {
	return a.X*b.X + a.Y*b.Y
}

func Cross(a, b cp.Vector) float64 {
	return a.X*b.Y - a.Y*b.X
}

func SquareDistance(a, b cp.Vector) float64 {
	dx, dy := a.X-b.X, a.Y-b.Y
	return dx*dx + dy*dy
}

// IsConvexPositive reports whether consecutive edges of the polygon always
// turn strictly counter-clockwise.
func IsConvexPositive(points []cp.Vector) bool {
	n := len(points)
	if n < 3 {
		return false
	}
	for i := range points {
		p1, p2, p3 := points[i], points[(i+1)%n], points[(i+2)%n]
		if Cross(p2.Sub(p1), p3.Sub(p2)) <= 0 {
			return false
		}
	}
	return true
}

func SquareDistanceToSegment(left, right, p cp.Vector) float64 {
	lr := right.Sub(left)
	proj := Inner(lr, p.Sub(left))
	edgeSq := SquareDistance(left, right)
	switch {
	case proj < 0 || edgeSq < ZeroLengthEdgeEps:
		return SquareDistance(left, p)
	case proj > edgeSq:
		return SquareDistance(right, p)
	}
	num := lr.Y*p.X - lr.X*p.Y + right.X*left.Y - right.Y*left.X
	return num * num / edgeSq
}

// SquareDistanceToPolygon is the squared distance to the closest edge,
// including the closing edge.
func SquareDistanceToPolygon(polygon []cp.Vector, p cp.Vector) float64 {
	n := len(polygon)
	if n == 0 {
		return math.Inf(1)
	}
	best := SquareDistanceToSegment(polygon[n-1], polygon[0], p)
	for i := 0; i+1 < n; i++ {
		best = math.Min(best, SquareDistanceToSegment(polygon[i], polygon[i+1], p))
	}
	return best
}

// IsInsidePolygon is strict: points on the boundary are outside.
func IsInsidePolygon(polygon []cp.Vector, p cp.Vector) bool {
	n := len(polygon)
	if n == 0 {
		return false
	}
	for i := range polygon {
		j := i - 1
		if i == 0 {
			j = n - 1
		}
		if Cross(polygon[i].Sub(polygon[j]), p.Sub(polygon[j])) <= 0 {
			return false
		}
	}
	return true
}

func DoesBallOccludePolygon(polygon []cp.Vector, center cp.Vector, radius float64) bool {
	if IsInsidePolygon(polygon, center) {
		return true
	}
	return math.Sqrt(SquareDistanceToPolygon(polygon, center))+InsidenessEps < radius
}

func IsPointInsideCircle(p, center cp.Vector, radius float64) bool {
	return math.Sqrt(SquareDistance(p, center))+InsidenessEps < radius
}

// DistancePointToLine is the distance from p to the infinite line through a
// and b.
func DistancePointToLine(p, a, b cp.Vector) float64 {
	d := b.Sub(a)
	length := d.Length()
	if length == 0 {
		return p.Distance(a)
	}
	return math.Abs(Cross(d, p.Sub(a))) / length
}

// SegmentIntersectsCircle reports whether segment ab has a point no farther
// than radius from center.
func SegmentIntersectsCircle(a, b, center cp.Vector, radius float64) bool {
	return SquareDistanceToSegment(a, b, center) <= radius*radius
}

// PolygonsOverlap runs a separating axis test on two convex polygons.
// Polygons that only share an edge or a vertex do not overlap.
func PolygonsOverlap(a, b []cp.Vector) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	return !hasSeparatingAxis(a, b) && !hasSeparatingAxis(b, a)
}

func hasSeparatingAxis(poly, other []cp.Vector) bool {
	n := len(poly)
	for i := range poly {
		edge := poly[(i+1)%n].Sub(poly[i])
		if edge.LengthSq() < ZeroLengthEdgeEps*ZeroLengthEdgeEps {
			continue
		}
		axis := cp.Vector{X: -edge.Y, Y: edge.X}
		minA, maxA := project(poly, axis)
		minB, maxB := project(other, axis)
		if maxA <= minB+InsidenessEps || maxB <= minA+InsidenessEps {
			return true
		}
	}
	return false
}

func project(poly []cp.Vector, axis cp.Vector) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range poly {
		d := Inner(v, axis)
		lo = math.Min(lo, d)
		hi = math.Max(hi, d)
	}
	return lo, hi
}

// BoundingBox of a vertex list.
func BoundingBox(points []cp.Vector) cp.BB {
	bb := cp.BB{L: math.Inf(1), B: math.Inf(1), R: math.Inf(-1), T: math.Inf(-1)}
	for _, p := range points {
		bb.L = math.Min(bb.L, p.X)
		bb.B = math.Min(bb.B, p.Y)
		bb.R = math.Max(bb.R, p.X)
		bb.T = math.Max(bb.T, p.Y)
	}
	return bb
}
