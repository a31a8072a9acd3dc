package scene

import (
	"github.com/tinylib/msgp/msgp"
)

// Records are encoded as msgpack maps. Floats are always written as float64,
// so the encoded length of a record depends only on its structure: slice
// lengths, which shape variant is set, and the integer fields. A simulation
// never changes any of those, which is what lets the batch dispatcher give
// every step of a task a fixed-size slot.

var (
	_ msgp.Marshaler   = (*Scene)(nil)
	_ msgp.Unmarshaler = (*Scene)(nil)
	_ msgp.Sizer       = (*Scene)(nil)
)

// ReadFields walks a msgpack map, handing each value to field. Unknown keys
// must be skipped by the callback with msgp.Skip.
func ReadFields(b []byte, field func(key string, b []byte) ([]byte, error)) ([]byte, error) {
	n, b, err := msgp.ReadMapHeaderBytes(b)
	if err != nil {
		return b, err
	}
	for i := uint32(0); i < n; i++ {
		var key []byte
		key, b, err = msgp.ReadMapKeyZC(b)
		if err != nil {
			return b, err
		}
		b, err = field(string(key), b)
		if err != nil {
			return b, msgp.WrapError(err, string(key))
		}
	}
	return b, nil
}

func appendVectors(b []byte, vs []Vector) []byte {
	b = msgp.AppendArrayHeader(b, uint32(len(vs)))
	for i := range vs {
		b, _ = vs[i].MarshalMsg(b)
	}
	return b
}

func readVectors(b []byte) ([]Vector, []byte, error) {
	n, b, err := msgp.ReadArrayHeaderBytes(b)
	if err != nil {
		return nil, b, err
	}
	vs := make([]Vector, n)
	for i := range vs {
		if b, err = vs[i].UnmarshalMsg(b); err != nil {
			return nil, b, msgp.WrapError(err, i)
		}
	}
	return vs, b, nil
}

func (z *Vector) MarshalMsg(b []byte) ([]byte, error) {
	o := msgp.Require(b, z.Msgsize())
	o = msgp.AppendMapHeader(o, 2)
	o = msgp.AppendString(o, "x")
	o = msgp.AppendFloat64(o, z.X)
	o = msgp.AppendString(o, "y")
	o = msgp.AppendFloat64(o, z.Y)
	return o, nil
}

func (z *Vector) UnmarshalMsg(b []byte) ([]byte, error) {
	return ReadFields(b, func(key string, b []byte) (o []byte, err error) {
		switch key {
		case "x":
			z.X, o, err = msgp.ReadFloat64Bytes(b)
		case "y":
			z.Y, o, err = msgp.ReadFloat64Bytes(b)
		default:
			o, err = msgp.Skip(b)
		}
		return o, err
	})
}

func (z *Vector) Msgsize() int {
	return 1 + 2*(2+msgp.Float64Size)
}

func (z *IntVector) MarshalMsg(b []byte) ([]byte, error) {
	o := msgp.Require(b, z.Msgsize())
	o = msgp.AppendMapHeader(o, 2)
	o = msgp.AppendString(o, "x")
	o = msgp.AppendInt32(o, z.X)
	o = msgp.AppendString(o, "y")
	o = msgp.AppendInt32(o, z.Y)
	return o, nil
}

func (z *IntVector) UnmarshalMsg(b []byte) ([]byte, error) {
	return ReadFields(b, func(key string, b []byte) (o []byte, err error) {
		switch key {
		case "x":
			z.X, o, err = msgp.ReadInt32Bytes(b)
		case "y":
			z.Y, o, err = msgp.ReadInt32Bytes(b)
		default:
			o, err = msgp.Skip(b)
		}
		return o, err
	})
}

func (z *IntVector) Msgsize() int {
	return 1 + 2*(2+msgp.Int32Size)
}

func (z *Shape) MarshalMsg(b []byte) ([]byte, error) {
	o := msgp.Require(b, z.Msgsize())
	switch {
	case z.Polygon != nil:
		o = msgp.AppendMapHeader(o, 1)
		o = msgp.AppendString(o, "polygon")
		o = appendVectors(o, z.Polygon.Vertices)
	case z.Circle != nil:
		o = msgp.AppendMapHeader(o, 1)
		o = msgp.AppendString(o, "circle")
		o = msgp.AppendFloat64(o, z.Circle.Radius)
	default:
		o = msgp.AppendMapHeader(o, 0)
	}
	return o, nil
}

func (z *Shape) UnmarshalMsg(b []byte) ([]byte, error) {
	z.Polygon, z.Circle = nil, nil
	return ReadFields(b, func(key string, b []byte) (o []byte, err error) {
		switch key {
		case "polygon":
			var verts []Vector
			verts, o, err = readVectors(b)
			z.Polygon = &Polygon{Vertices: verts}
		case "circle":
			var r float64
			r, o, err = msgp.ReadFloat64Bytes(b)
			z.Circle = &Circle{Radius: r}
		default:
			o, err = msgp.Skip(b)
		}
		return o, err
	})
}

func (z *Shape) Msgsize() int {
	s := 1 + msgp.StringPrefixSize + len("polygon")
	if z.Polygon != nil {
		s += msgp.ArrayHeaderSize + len(z.Polygon.Vertices)*(&Vector{}).Msgsize()
	} else {
		s += msgp.Float64Size
	}
	return s
}

func (z *Body) MarshalMsg(b []byte) ([]byte, error) {
	o := msgp.Require(b, z.Msgsize())
	o = msgp.AppendMapHeader(o, 7)
	o = msgp.AppendString(o, "position")
	o, _ = z.Position.MarshalMsg(o)
	o = msgp.AppendString(o, "angle")
	o = msgp.AppendFloat64(o, z.Angle)
	o = msgp.AppendString(o, "shapes")
	o = msgp.AppendArrayHeader(o, uint32(len(z.Shapes)))
	for i := range z.Shapes {
		o, _ = z.Shapes[i].MarshalMsg(o)
	}
	o = msgp.AppendString(o, "body_type")
	o = msgp.AppendInt32(o, int32(z.BodyType))
	o = msgp.AppendString(o, "color")
	o = msgp.AppendInt32(o, int32(z.Color))
	o = msgp.AppendString(o, "diameter")
	o = msgp.AppendFloat64(o, z.Diameter)
	o = msgp.AppendString(o, "shape_type")
	o = msgp.AppendInt32(o, int32(z.ShapeType))
	return o, nil
}

func (z *Body) UnmarshalMsg(b []byte) ([]byte, error) {
	return ReadFields(b, func(key string, b []byte) (o []byte, err error) {
		var i int32
		switch key {
		case "position":
			o, err = z.Position.UnmarshalMsg(b)
		case "angle":
			z.Angle, o, err = msgp.ReadFloat64Bytes(b)
		case "shapes":
			var n uint32
			n, o, err = msgp.ReadArrayHeaderBytes(b)
			if err != nil {
				return o, err
			}
			z.Shapes = make([]Shape, n)
			for j := range z.Shapes {
				if o, err = z.Shapes[j].UnmarshalMsg(o); err != nil {
					return o, msgp.WrapError(err, j)
				}
			}
		case "body_type":
			i, o, err = msgp.ReadInt32Bytes(b)
			z.BodyType = BodyType(i)
		case "color":
			i, o, err = msgp.ReadInt32Bytes(b)
			z.Color = Color(i)
		case "diameter":
			z.Diameter, o, err = msgp.ReadFloat64Bytes(b)
		case "shape_type":
			i, o, err = msgp.ReadInt32Bytes(b)
			z.ShapeType = ShapeType(i)
		default:
			o, err = msgp.Skip(b)
		}
		return o, err
	})
}

func (z *Body) Msgsize() int {
	s := 1 + 7*(msgp.StringPrefixSize+len("shape_type")) + (&Vector{}).Msgsize() + 2*msgp.Float64Size + 3*msgp.Int32Size
	s += msgp.ArrayHeaderSize
	for i := range z.Shapes {
		s += z.Shapes[i].Msgsize()
	}
	return s
}

func appendBodies(b []byte, bodies []Body) []byte {
	b = msgp.AppendArrayHeader(b, uint32(len(bodies)))
	for i := range bodies {
		b, _ = bodies[i].MarshalMsg(b)
	}
	return b
}

func readBodies(b []byte) ([]Body, []byte, error) {
	n, b, err := msgp.ReadArrayHeaderBytes(b)
	if err != nil {
		return nil, b, err
	}
	if n == 0 {
		return nil, b, nil
	}
	bodies := make([]Body, n)
	for i := range bodies {
		if b, err = bodies[i].UnmarshalMsg(b); err != nil {
			return nil, b, msgp.WrapError(err, i)
		}
	}
	return bodies, b, nil
}

func (z *Scene) MarshalMsg(b []byte) ([]byte, error) {
	o := msgp.Require(b, z.Msgsize())
	o = msgp.AppendMapHeader(o, 5)
	o = msgp.AppendString(o, "bodies")
	o = appendBodies(o, z.Bodies)
	o = msgp.AppendString(o, "user_input_bodies")
	o = appendBodies(o, z.UserInputBodies)
	o = msgp.AppendString(o, "width")
	o = msgp.AppendInt32(o, z.Width)
	o = msgp.AppendString(o, "height")
	o = msgp.AppendInt32(o, z.Height)
	o = msgp.AppendString(o, "user_input_status")
	o = msgp.AppendInt32(o, int32(z.UserInputStatus))
	return o, nil
}

func (z *Scene) UnmarshalMsg(b []byte) ([]byte, error) {
	return ReadFields(b, func(key string, b []byte) (o []byte, err error) {
		switch key {
		case "bodies":
			z.Bodies, o, err = readBodies(b)
		case "user_input_bodies":
			z.UserInputBodies, o, err = readBodies(b)
		case "width":
			z.Width, o, err = msgp.ReadInt32Bytes(b)
		case "height":
			z.Height, o, err = msgp.ReadInt32Bytes(b)
		case "user_input_status":
			var i int32
			i, o, err = msgp.ReadInt32Bytes(b)
			z.UserInputStatus = UserInputStatus(i)
		default:
			o, err = msgp.Skip(b)
		}
		return o, err
	})
}

// Msgsize is an upper bound on the encoded length, sized for the longest
// field name. EncodedSize is exact.
func (z *Scene) Msgsize() int {
	s := 1 + 5*(msgp.StringPrefixSize+len("user_input_bodies")) + 2*msgp.ArrayHeaderSize + 3*msgp.Int32Size
	for i := range z.Bodies {
		s += z.Bodies[i].Msgsize()
	}
	for i := range z.UserInputBodies {
		s += z.UserInputBodies[i].Msgsize()
	}
	return s
}

func (z *CircleWithPosition) MarshalMsg(b []byte) ([]byte, error) {
	o := msgp.Require(b, z.Msgsize())
	o = msgp.AppendMapHeader(o, 2)
	o = msgp.AppendString(o, "position")
	o, _ = z.Position.MarshalMsg(o)
	o = msgp.AppendString(o, "radius")
	o = msgp.AppendFloat64(o, z.Radius)
	return o, nil
}

func (z *CircleWithPosition) UnmarshalMsg(b []byte) ([]byte, error) {
	return ReadFields(b, func(key string, b []byte) (o []byte, err error) {
		switch key {
		case "position":
			o, err = z.Position.UnmarshalMsg(b)
		case "radius":
			z.Radius, o, err = msgp.ReadFloat64Bytes(b)
		default:
			o, err = msgp.Skip(b)
		}
		return o, err
	})
}

func (z *CircleWithPosition) Msgsize() int {
	return 1 + 2*(msgp.StringPrefixSize+len("position")) + (&Vector{}).Msgsize() + msgp.Float64Size
}

func (z *UserInput) MarshalMsg(b []byte) ([]byte, error) {
	o := msgp.Require(b, z.Msgsize())
	o = msgp.AppendMapHeader(o, 3)
	o = msgp.AppendString(o, "flattened_point_list")
	o = msgp.AppendArrayHeader(o, uint32(len(z.FlattenedPoints)))
	for _, p := range z.FlattenedPoints {
		o = msgp.AppendInt32(o, p)
	}
	o = msgp.AppendString(o, "polygons")
	o = msgp.AppendArrayHeader(o, uint32(len(z.Polygons)))
	for i := range z.Polygons {
		o = appendVectors(o, z.Polygons[i].Vertices)
	}
	o = msgp.AppendString(o, "balls")
	o = msgp.AppendArrayHeader(o, uint32(len(z.Balls)))
	for i := range z.Balls {
		o, _ = z.Balls[i].MarshalMsg(o)
	}
	return o, nil
}

func (z *UserInput) UnmarshalMsg(b []byte) ([]byte, error) {
	return ReadFields(b, func(key string, b []byte) (o []byte, err error) {
		var n uint32
		switch key {
		case "flattened_point_list":
			if n, o, err = msgp.ReadArrayHeaderBytes(b); err != nil {
				return o, err
			}
			z.FlattenedPoints = make([]int32, n)
			for i := range z.FlattenedPoints {
				if z.FlattenedPoints[i], o, err = msgp.ReadInt32Bytes(o); err != nil {
					return o, err
				}
			}
		case "polygons":
			if n, o, err = msgp.ReadArrayHeaderBytes(b); err != nil {
				return o, err
			}
			z.Polygons = make([]AbsoluteConvexPolygon, n)
			for i := range z.Polygons {
				if z.Polygons[i].Vertices, o, err = readVectors(o); err != nil {
					return o, err
				}
			}
		case "balls":
			if n, o, err = msgp.ReadArrayHeaderBytes(b); err != nil {
				return o, err
			}
			z.Balls = make([]CircleWithPosition, n)
			for i := range z.Balls {
				if o, err = z.Balls[i].UnmarshalMsg(o); err != nil {
					return o, err
				}
			}
		default:
			o, err = msgp.Skip(b)
		}
		return o, err
	})
}

func (z *UserInput) Msgsize() int {
	s := 1 + 3*(msgp.StringPrefixSize+len("flattened_point_list")) + 3*msgp.ArrayHeaderSize
	s += len(z.FlattenedPoints) * msgp.Int32Size
	for i := range z.Polygons {
		s += msgp.ArrayHeaderSize + len(z.Polygons[i].Vertices)*(&Vector{}).Msgsize()
	}
	s += len(z.Balls) * (&CircleWithPosition{}).Msgsize()
	return s
}

// EncodedSize is the exact number of bytes MarshalMsg writes for s.
func EncodedSize(s *Scene) int {
	b, _ := s.MarshalMsg(nil)
	return len(b)
}
