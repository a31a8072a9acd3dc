package render

import (
	"image"
	"image/color"

	"golang.org/x/image/colornames"

	"github.com/milk9111/physbench/scene"
)

// Palette is indexed by scene.Color.
var Palette = color.Palette{
	colornames.White,
	colornames.Crimson,
	colornames.Forestgreen,
	colornames.Royalblue,
	colornames.Mediumpurple,
	colornames.Gray,
	colornames.Black,
}

// ToPaletted converts a rendered scene into an image with the top of the
// scene at row 0, suitable for PNG export.
func ToPaletted(img scene.Image) *image.Paletted {
	w, h := int(img.Width), int(img.Height)
	out := image.NewPaletted(image.Rect(0, 0, w, h), Palette)
	for y := range h {
		src := img.Values[y*w : (y+1)*w]
		dst := out.Pix[(h-1-y)*out.Stride:]
		for x, v := range src {
			if v < 0 || int(v) >= len(Palette) {
				v = 0
			}
			dst[x] = uint8(v)
		}
	}
	return out
}

// ASCII draws a rendered scene as text at most cols characters wide, top row
// first. Rows are sampled twice as sparsely as columns.
func ASCII(img scene.Image, cols int) []string {
	const glyphs = " #*o+.@"
	w, h := int(img.Width), int(img.Height)
	if cols <= 0 || w == 0 || h == 0 {
		return nil
	}
	step := max(1, (w+cols-1)/cols)
	var lines []string
	for y := h - 1; y >= 0; y -= 2 * step {
		line := make([]byte, 0, w/step+1)
		for x := 0; x < w; x += step {
			v := img.Values[y*w+x]
			if v < 0 || int(v) >= len(glyphs) {
				v = 0
			}
			line = append(line, glyphs[v])
		}
		lines = append(lines, string(line))
	}
	return lines
}
