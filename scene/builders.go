package scene

// BuildBox returns a single-polygon body whose position is the box's
// lower-left corner before rotation.
func BuildBox(x, y, width, height, angle float64, dynamic bool) Body {
	verts := []Vector{
		{X: 0, Y: 0},
		{X: width, Y: 0},
		{X: width, Y: height},
		{X: 0, Y: height},
	}
	return BuildPolygon(x, y, verts, angle, dynamic)
}

func BuildCircle(x, y, radius float64, dynamic bool) Body {
	return Body{
		Position:  Vector{X: x, Y: y},
		Shapes:    []Shape{CircleShape(radius)},
		BodyType:  bodyType(dynamic),
		Color:     ColorRed,
		Diameter:  2 * radius,
		ShapeType: ShapeBall,
	}
}

func BuildPolygon(x, y float64, vertices []Vector, angle float64, dynamic bool) Body {
	return Body{
		Position:  Vector{X: x, Y: y},
		Angle:     angle,
		Shapes:    []Shape{PolygonShape(vertices...)},
		BodyType:  bodyType(dynamic),
		Color:     ColorRed,
		ShapeType: ShapeUndefined,
	}
}

// AbsolutePolygonToBody turns a user polygon into a dynamic body centered on
// the mean of its vertices.
func AbsolutePolygonToBody(poly AbsoluteConvexPolygon) Body {
	var c Vector
	for _, v := range poly.Vertices {
		c.X += v.X
		c.Y += v.Y
	}
	if n := float64(len(poly.Vertices)); n > 0 {
		c.X /= n
		c.Y /= n
	}
	rel := make([]Vector, len(poly.Vertices))
	for i, v := range poly.Vertices {
		rel[i] = Vector{X: v.X - c.X, Y: v.Y - c.Y}
	}
	body := BuildPolygon(c.X, c.Y, rel, 0, true)
	body.Color = ColorRed
	return body
}

// BallToBody turns a user ball into a dynamic body.
func BallToBody(ball CircleWithPosition) Body {
	return BuildCircle(ball.Position.X, ball.Position.Y, ball.Radius, true)
}

func bodyType(dynamic bool) BodyType {
	if dynamic {
		return BodyTypeDynamic
	}
	return BodyTypeStatic
}
