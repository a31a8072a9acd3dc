// Package render rasterizes scenes into color-indexed images and flattens
// them into per-object feature rows.
package render

import (
	"image"
	"image/draw"
	"math"

	"golang.org/x/image/vector"

	"github.com/milk9111/physbench/common"
	"github.com/milk9111/physbench/geometry"
	"github.com/milk9111/physbench/scene"
)

// kappa places cubic control points for a quarter circle.
const kappa = 0.5522847498

type canvas struct {
	width, height int
	ras           *vector.Rasterizer
	mask          *image.Alpha
}

func newCanvas(width, height int) *canvas {
	ras := vector.NewRasterizer(width, height)
	ras.DrawOp = draw.Src
	return &canvas{
		width:  width,
		height: height,
		ras:    ras,
		mask:   image.NewAlpha(image.Rect(0, 0, width, height)),
	}
}

// fill paints every pixel whose center is covered by the current path.
func (c *canvas) fill(set func(i int)) {
	clear(c.mask.Pix)
	c.ras.Draw(c.mask, c.mask.Bounds(), image.Opaque, image.Point{})
	for i, a := range c.mask.Pix {
		if a >= 0x80 {
			set(i)
		}
	}
	c.ras.Reset(c.width, c.height)
}

func (c *canvas) polygon(verts []scene.Vector, position scene.Vector, angle float64) bool {
	if len(verts) < 3 {
		return false
	}
	abs := geometry.Absolute(geometry.Vs(verts), geometry.V(position), angle)
	c.ras.MoveTo(float32(abs[0].X), float32(abs[0].Y))
	for _, v := range abs[1:] {
		c.ras.LineTo(float32(v.X), float32(v.Y))
	}
	c.ras.ClosePath()
	return true
}

func (c *canvas) circle(center scene.Vector, radius float64) bool {
	if radius <= 0 {
		return false
	}
	cx, cy, r := float32(center.X), float32(center.Y), float32(radius)
	k := float32(kappa) * r
	c.ras.MoveTo(cx+r, cy)
	c.ras.CubeTo(cx+r, cy+k, cx+k, cy+r, cx, cy+r)
	c.ras.CubeTo(cx-k, cy+r, cx-r, cy+k, cx-r, cy)
	c.ras.CubeTo(cx-r, cy-k, cx-k, cy-r, cx, cy-r)
	c.ras.CubeTo(cx+k, cy-r, cx+r, cy-k, cx+r, cy)
	c.ras.ClosePath()
	return true
}

func allBodies(sc *scene.Scene) []scene.Body {
	bodies := make([]scene.Body, 0, len(sc.Bodies)+len(sc.UserInputBodies))
	bodies = append(bodies, sc.Bodies...)
	return append(bodies, sc.UserInputBodies...)
}

// paint draws bodies in order, later bodies over earlier ones. Row 0 of the
// output is the bottom of the scene.
func paint(bodies []scene.Body, width, height int, set func(i int, color scene.Color)) {
	if width <= 0 || height <= 0 {
		return
	}
	c := newCanvas(width, height)
	for _, b := range bodies {
		if b.Color == scene.ColorWhite {
			continue
		}
		color := b.Color
		for _, sh := range b.Shapes {
			var ok bool
			switch {
			case sh.Polygon != nil:
				ok = c.polygon(sh.Polygon.Vertices, b.Position, b.Angle)
			case sh.Circle != nil:
				ok = c.circle(b.Position, sh.Circle.Radius)
			}
			if ok {
				c.fill(func(i int) { set(i, color) })
			}
		}
	}
}

func Render(sc *scene.Scene) scene.Image {
	w, h := int(sc.Width), int(sc.Height)
	img := scene.Image{Width: sc.Width, Height: sc.Height, Values: make([]int32, max(w*h, 0))}
	paint(allBodies(sc), w, h, func(i int, color scene.Color) {
		img.Values[i] = int32(color)
	})
	return img
}

// RenderTo writes width*height color bytes into buf, which must be at least
// that long.
func RenderTo(sc *scene.Scene, buf []byte) {
	w, h := int(sc.Width), int(sc.Height)
	clear(buf[:w*h])
	paint(allBodies(sc), w, h, func(i int, color scene.Color) {
		buf[i] = byte(color)
	})
}

// Featurize returns ObjectFeatureSize floats for every body with a defined
// shape type, scene bodies first.
func Featurize(sc *scene.Scene) []float32 {
	var out []float32
	for _, b := range allBodies(sc) {
		if b.ShapeType == scene.ShapeUndefined {
			continue
		}
		out = append(out, FeaturizeBody(b, sc.Height, sc.Width)...)
	}
	return out
}

// NumObjects counts the bodies Featurize emits a row for.
func NumObjects(sc *scene.Scene) int {
	n := 0
	for _, b := range allBodies(sc) {
		if b.ShapeType != scene.ShapeUndefined {
			n++
		}
	}
	return n
}

func FeaturizeBody(b scene.Body, height, width int32) []float32 {
	row := make([]float32, 0, common.ObjectFeatureSize)
	row = append(row,
		float32(b.Position.X)/float32(width),
		float32(b.Position.Y)/float32(height),
		float32(common.WrapAngleRadians(b.Angle)/(2*math.Pi)),
		float32(b.Diameter)/float32(width),
	)
	for i := range common.NumShapes {
		row = append(row, oneHot(i == int(b.ShapeType)-1))
	}
	for i := range common.NumColors {
		row = append(row, oneHot(i == int(b.Color)-1))
	}
	return row
}

func oneHot(ok bool) float32 {
	if ok {
		return 1
	}
	return 0
}
