package render

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	svg "github.com/ajstarks/svgo"
	"github.com/swdee/go-samtrace"
)

// SVGPath returns the path data ("d" attribute) for the outline, one
// "M ... Z" subpath per loop.  The path must be filled with the evenodd
// rule for holes to show.
func SVGPath(path samtrace.VectorPath) string {

	var sb strings.Builder

	for i, loop := range path.Loops {
		if len(loop) == 0 {
			continue
		}

		if i > 0 {
			sb.WriteByte(' ')
		}

		for j, pt := range loop {
			if j == 0 {
				sb.WriteString("M")
			} else {
				sb.WriteString(" L")
			}

			sb.WriteString(formatCoord(pt.X))
			sb.WriteByte(' ')
			sb.WriteString(formatCoord(pt.Y))
		}

		sb.WriteString(" Z")
	}

	return sb.String()
}

// formatCoord writes a coordinate with at most 3 decimal places and no
// trailing zeros
func formatCoord(v float64) string {

	s := strconv.FormatFloat(v, 'f', 3, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")

	if s == "-0" {
		return "0"
	}

	return s
}

// SVGDocument returns a standalone SVG document of the given size with one
// path element per outline, stacked in slice order so the first path is the
// bottom layer.  Colors are taken from the outline palette in turn.
func SVGDocument(paths []samtrace.VectorPath, size samtrace.Size) string {

	var sb strings.Builder

	canvas := svg.New(&sb)
	canvas.Startview(size.Width, size.Height, 0, 0, size.Width, size.Height)

	for i, p := range paths {
		if p.Empty() {
			continue
		}

		clr := hexColor(OutlineColor(i))

		canvas.Path(SVGPath(p),
			fmt.Sprintf(`fill="%s" fill-opacity="0.4" fill-rule="evenodd" stroke="%s" stroke-width="1"`, clr, clr))
	}

	canvas.End()

	return sb.String()
}

// hexColor formats an RGB color as #rrggbb
func hexColor(c color.RGBA) string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}
