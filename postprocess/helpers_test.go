package postprocess

import (
	"math/rand"

	"github.com/swdee/go-samtrace"
)

// maskFromRows builds a mask from rows of '#' (foreground) and '.'
func maskFromRows(rows ...string) samtrace.RasterMask {

	h := len(rows)
	w := 0

	if h > 0 {
		w = len(rows[0])
	}

	data := make([]float32, w*h)

	for y, row := range rows {
		for x := 0; x < w; x++ {
			if row[x] == '#' {
				data[y*w+x] = 1
			}
		}
	}

	return samtrace.RasterMask{Width: w, Height: h, Data: data}
}

// boxMask returns a w by h mask with foreground in [x0,x1) x [y0,y1)
func boxMask(w, h, x0, y0, x1, y1 int) samtrace.RasterMask {

	data := make([]float32, w*h)

	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			data[y*w+x] = 1
		}
	}

	return samtrace.RasterMask{Width: w, Height: h, Data: data}
}

// randomMask returns a mask with roughly density foreground, values are
// model style logits either side of zero
func randomMask(rng *rand.Rand, w, h int, density float64) samtrace.RasterMask {

	data := make([]float32, w*h)

	for i := range data {
		if rng.Float64() < density {
			data[i] = rng.Float32()*10 + 0.01
		} else {
			data[i] = -rng.Float32() * 10
		}
	}

	return samtrace.RasterMask{Width: w, Height: h, Data: data}
}
