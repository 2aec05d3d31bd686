package postprocess

import (
	"fmt"
	"math/bits"

	"github.com/swdee/go-samtrace"
)

// Connectivity defines which foreground pixels belong to the same region
type Connectivity int

const (
	// FourConnected joins pixels sharing an edge, pixels touching only at a
	// corner are traced as separate loops
	FourConnected Connectivity = iota
	// EightConnected also joins pixels touching at a corner
	EightConnected
)

// TracerParams defines the struct containing the contour tracer parameters
type TracerParams struct {
	Connectivity Connectivity
}

// TracerDefaultParams returns an instance of TracerParams for four connected
// tracing
func TracerDefaultParams() TracerParams {
	return TracerParams{
		Connectivity: FourConnected,
	}
}

// Tracer converts raster masks into vector outlines by following the grid
// edges between foreground and background pixels
type Tracer struct {
	Params TracerParams
}

// NewTracer returns an instance of the contour tracer
func NewTracer(p TracerParams) *Tracer {
	return &Tracer{
		Params: p,
	}
}

// edge directions in image space, y axis pointing down.  Turning right is
// the next direction clockwise
const (
	dirEast = iota
	dirSouth
	dirWest
	dirNorth
)

var (
	dirDX = [4]int{1, 0, -1, 0}
	dirDY = [4]int{0, 1, 0, -1}
)

// Trace returns the outline of the foreground of mask scaled from mask pixel
// space to the target size.
//
// Every boundary edge is walked with foreground on the right hand side, so
// outer boundaries have positive signed area and holes negative.  Only
// vertices where the direction changes are emitted.  Loops begin at their
// top-most, left-most vertex and are ordered by that vertex in row major
// order, making the output deterministic.
func (t *Tracer) Trace(mask samtrace.RasterMask, target samtrace.Size) (samtrace.VectorPath, error) {

	if err := mask.Validate(); err != nil {
		return samtrace.VectorPath{}, err
	}

	if target.Width <= 0 || target.Height <= 0 {
		return samtrace.VectorPath{}, fmt.Errorf("%w: invalid target size %dx%d",
			samtrace.ErrDimensionMismatch, target.Width, target.Height)
	}

	path := samtrace.VectorPath{
		Loops: make([]samtrace.Loop, 0),
	}

	if mask.Width == 0 || mask.Height == 0 {
		return path, nil
	}

	g := t.buildEdges(mask)
	sx := float64(target.Width)
	sy := float64(target.Height)

	for v := range g.edges {
		for {
			free := g.edges[v] &^ g.used[v]

			if free == 0 {
				break
			}

			dir := bits.TrailingZeros8(free)
			vertices := g.follow(v, dir)

			loop := make(samtrace.Loop, len(vertices))

			for i, vi := range vertices {
				x := vi % g.stride
				y := vi / g.stride

				// multiply first so whole pixel positions scale exactly
				loop[i] = samtrace.Point{
					X: float64(x) * sx / float64(mask.Width),
					Y: float64(y) * sy / float64(mask.Height),
				}
			}

			path.Loops = append(path.Loops, loop)
		}
	}

	return path, nil
}

// edgeGrid holds the directed boundary edges leaving each grid vertex as a
// bit set of directions
type edgeGrid struct {
	// stride is the number of vertices per row, mask width plus one
	stride int
	edges  []uint8
	used   []uint8
	// turns is the order in which turns are tried at a vertex, relative to
	// the incoming direction
	turns [3]int
}

// buildEdges collects the boundary edges of every foreground pixel
func (t *Tracer) buildEdges(mask samtrace.RasterMask) *edgeGrid {

	stride := mask.Width + 1
	n := stride * (mask.Height + 1)

	g := &edgeGrid{
		stride: stride,
		edges:  make([]uint8, n),
		used:   make([]uint8, n),
	}

	if t.Params.Connectivity == EightConnected {
		// left, straight, right
		g.turns = [3]int{3, 0, 1}
	} else {
		// right, straight, left
		g.turns = [3]int{1, 0, 3}
	}

	for y := 0; y < mask.Height; y++ {
		for x := 0; x < mask.Width; x++ {

			if !mask.Foreground(x, y) {
				continue
			}

			v := y*stride + x

			if !mask.Foreground(x, y-1) {
				g.edges[v] |= 1 << dirEast
			}

			if !mask.Foreground(x+1, y) {
				g.edges[v+1] |= 1 << dirSouth
			}

			if !mask.Foreground(x, y+1) {
				g.edges[v+stride+1] |= 1 << dirWest
			}

			if !mask.Foreground(x-1, y) {
				g.edges[v+stride] |= 1 << dirNorth
			}
		}
	}

	return g
}

// next returns the direction to leave vertex v after arriving heading dir,
// or -1 if no boundary edge leaves v
func (g *edgeGrid) next(v, dir int) int {

	for _, turn := range g.turns {
		d := (dir + turn) % 4

		if g.edges[v]&(1<<d) != 0 {
			return d
		}
	}

	return -1
}

// follow walks the boundary cycle starting with the edge leaving start in
// direction dir and returns the vertex indices of its corners
func (g *edgeGrid) follow(start, dir int) []int {

	corners := []int{start}
	v := start
	d := dir

	for {
		g.used[v] |= 1 << d
		nv := v + dirDX[d] + dirDY[d]*g.stride
		nd := g.next(nv, d)

		if nd < 0 {
			// unreachable for a consistent edge set, every vertex entered
			// has an edge leaving it
			break
		}

		if nv == start && nd == dir {
			// start is only a corner if the loop arrives on a different
			// heading than it leaves
			if d == dir {
				corners = corners[1:]
			}
			break
		}

		if nd != d {
			corners = append(corners, nv)
		}

		v = nv
		d = nd
	}

	return corners
}
