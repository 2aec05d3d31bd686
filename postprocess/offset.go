package postprocess

import (
	"math"

	clipper "github.com/ctessum/go.clipper"
	"github.com/swdee/go-samtrace"
)

// offsetPrecision is the fixed point scale used to hand float coordinates to
// clipper, giving 1/1000th of a display unit resolution
const offsetPrecision = 1000.0

// Offset grows (delta > 0) or shrinks (delta < 0) the outline by delta
// display units using round joins.  Holes shrink as their outer boundary
// grows.  A zero delta or empty path is returned unchanged.
func Offset(path samtrace.VectorPath, delta float64) samtrace.VectorPath {

	if delta == 0 || path.Empty() {
		return path
	}

	co := clipper.NewClipperOffset()

	for _, loop := range path.Loops {
		if len(loop) < 3 {
			continue
		}

		var cpath clipper.Path

		for _, pt := range loop {
			cpath = append(cpath, &clipper.IntPoint{
				X: clipper.CInt(math.Round(pt.X * offsetPrecision)),
				Y: clipper.CInt(math.Round(pt.Y * offsetPrecision)),
			})
		}

		co.AddPath(cpath, clipper.JtRound, clipper.EtClosedPolygon)
	}

	solution := co.Execute(delta * offsetPrecision)

	out := samtrace.VectorPath{
		Loops: make([]samtrace.Loop, 0, len(solution)),
	}

	for _, sol := range solution {
		if len(sol) < 3 {
			continue
		}

		loop := make(samtrace.Loop, len(sol))

		for i, pt := range sol {
			loop[i] = samtrace.Point{
				X: float64(pt.X) / offsetPrecision,
				Y: float64(pt.Y) / offsetPrecision,
			}
		}

		out.Loops = append(out.Loops, loop)
	}

	return out
}
