package render

import (
	"image"
	"image/draw"

	"github.com/swdee/go-samtrace"
	"golang.org/x/image/vector"
)

// Rasterize fills the outline into a width x height mask using the nonzero
// winding of its loops.  Since holes wind opposite to outer boundaries this
// matches an evenodd fill for traced paths.  A pixel is foreground when at
// least half of it is covered.
func Rasterize(path samtrace.VectorPath, width, height int) samtrace.RasterMask {

	mask := samtrace.RasterMask{
		Width:  width,
		Height: height,
		Data:   make([]float32, width*height),
	}

	if width <= 0 || height <= 0 || path.Empty() {
		return mask
	}

	r := vector.NewRasterizer(width, height)

	for _, loop := range path.Loops {
		if len(loop) < 3 {
			continue
		}

		r.MoveTo(float32(loop[0].X), float32(loop[0].Y))

		for _, pt := range loop[1:] {
			r.LineTo(float32(pt.X), float32(pt.Y))
		}

		r.ClosePath()
	}

	dst := image.NewAlpha(image.Rect(0, 0, width, height))
	r.Draw(dst, dst.Bounds(), image.Opaque, image.Point{})

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if dst.Pix[y*dst.Stride+x] >= 128 {
				mask.Data[y*width+x] = 1
			}
		}
	}

	return mask
}

// Overlay composites the rasterized outline onto an RGBA image of the same
// size using the palette color for index i at the given opacity (0-255).
func Overlay(dst *image.RGBA, path samtrace.VectorPath, i int, opacity uint8) {

	b := dst.Bounds()
	m := Rasterize(path, b.Dx(), b.Dy())

	clr := OutlineColor(i)
	clr.A = opacity
	clr.R = uint8(uint16(clr.R) * uint16(opacity) / 255)
	clr.G = uint8(uint16(clr.G) * uint16(opacity) / 255)
	clr.B = uint8(uint16(clr.B) * uint16(opacity) / 255)

	src := image.NewUniform(clr)
	cover := image.NewAlpha(image.Rect(0, 0, b.Dx(), b.Dy()))

	for idx, v := range m.Data {
		if v > 0 {
			cover.Pix[idx] = 255
		}
	}

	draw.DrawMask(dst, b, src, image.Point{}, cover, image.Point{}, draw.Over)
}
