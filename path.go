package samtrace

import "gonum.org/v1/gonum/floats"

// Point is a vertex in display space
type Point struct {
	X, Y float64
}

// Loop is a closed polygon, the last point connects back to the first which
// is not repeated
type Loop []Point

// VectorPath is the traced outline of a mask.  Loops are filled with the
// even-odd rule, holes run in the opposite direction to outer boundaries.
// A path with no loops is an empty mask.
type VectorPath struct {
	Loops []Loop
}

// Empty reports if the path has no loops
func (p VectorPath) Empty() bool {
	return len(p.Loops) == 0
}

// NumVertices returns the total number of vertices over all loops
func (p VectorPath) NumVertices() int {

	n := 0

	for _, l := range p.Loops {
		n += len(l)
	}

	return n
}

// SignedArea returns the shoelace area of the loop.  With y pointing down, as
// in image space, outer boundaries from the tracer are positive and holes
// are negative.
func (l Loop) SignedArea() float64 {

	n := len(l)

	if n < 3 {
		return 0
	}

	terms := make([]float64, n)

	for i := 0; i < n; i++ {
		a := l[i]
		b := l[(i+1)%n]
		terms[i] = a.X*b.Y - b.X*a.Y
	}

	return floats.Sum(terms) / 2
}

// Area returns the sum of signed loop areas which for a traced mask is the
// foreground area in display units
func (p VectorPath) Area() float64 {

	areas := make([]float64, len(p.Loops))

	for i, l := range p.Loops {
		areas[i] = l.SignedArea()
	}

	return floats.Sum(areas)
}
