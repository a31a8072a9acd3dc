package userinput

import (
	"github.com/jakecoffman/cp"
	"github.com/milk9111/physbench/geometry"
	"github.com/milk9111/physbench/scene"
)

func ballOccludesBody(ball scene.CircleWithPosition, body *scene.Body, margin float64) bool {
	center := geometry.V(ball.Position)
	pos := geometry.V(body.Position)
	radius := ball.Radius + margin
	for _, sh := range body.Shapes {
		switch {
		case sh.Polygon != nil:
			rel := geometry.ReverseTranslate(center, pos, body.Angle)
			if geometry.DoesBallOccludePolygon(geometry.Vs(sh.Polygon.Vertices), rel, radius) {
				return true
			}
		case sh.Circle != nil:
			if geometry.IsPointInsideCircle(center, pos, radius+sh.Circle.Radius) {
				return true
			}
		}
	}
	return false
}

func polygonOccludesBody(poly scene.AbsoluteConvexPolygon, body *scene.Body, margin float64) bool {
	verts := geometry.Vs(poly.Vertices)
	pos := geometry.V(body.Position)
	for _, sh := range body.Shapes {
		switch {
		case sh.Polygon != nil:
			other := geometry.Absolute(geometry.Vs(sh.Polygon.Vertices), pos, body.Angle)
			if margin > 0 {
				other = inflate(other, margin)
			}
			if geometry.PolygonsOverlap(verts, other) {
				return true
			}
		case sh.Circle != nil:
			if geometry.DoesBallOccludePolygon(verts, pos, sh.Circle.Radius+margin) {
				return true
			}
		}
	}
	return false
}

// inflate pushes every vertex of a convex polygon away from its centroid by
// margin.
func inflate(poly []cp.Vector, margin float64) []cp.Vector {
	var c cp.Vector
	for _, v := range poly {
		c = c.Add(v)
	}
	c = c.Mult(1 / float64(len(poly)))
	out := make([]cp.Vector, len(poly))
	for i, v := range poly {
		d := v.Sub(c)
		if l := d.Length(); l > 0 {
			d = d.Mult((l + margin) / l)
		}
		out[i] = c.Add(d)
	}
	return out
}
