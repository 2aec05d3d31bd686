package samtrace

import "errors"

var (
	// ErrMalformedEncoding is returned when an encoded mask can not be
	// decompressed or its run length token stream can not be parsed
	ErrMalformedEncoding = errors.New("malformed encoding")

	// ErrDimensionMismatch is returned when declared dimensions disagree
	// with the length of a buffer
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrEmptyCandidateSet signals that every candidate mask was filtered
	// out.  It is not a failure of the pipeline, there is simply nothing
	// to render for the click
	ErrEmptyCandidateSet = errors.New("empty candidate set")

	// ErrInvalidCandidateCount is returned when the ranker is given other
	// than exactly three candidate masks
	ErrInvalidCandidateCount = errors.New("invalid candidate count")
)
