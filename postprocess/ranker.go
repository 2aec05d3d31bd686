package postprocess

import (
	"fmt"

	"github.com/swdee/go-samtrace"
	"gonum.org/v1/gonum/floats"
)

// CandidateCount is the number of mask proposals of a multi mask model run
const CandidateCount = 3

// KeepFunc decides which candidates survive deduplication.  It receives the
// uncertain IoU and overlap IoU scores of the candidates in ranking order and
// must return one flag per candidate.  It is only used to filter, the
// ranking order is never changed by it.
type KeepFunc func(uncertainIoUs, overlapIoUs []float64) []bool

// KeepParams defines the thresholds of the default keep policy
type KeepParams struct {
	// MinUncertainIoU is the lowest self consistency score a candidate can
	// have to be kept
	MinUncertainIoU float64
	// MaxOverlapIoU is the overlap score at or above which a candidate is
	// treated as a duplicate
	MaxOverlapIoU float64
}

// KeepDefaultParams returns an instance of KeepParams with
// - Min Uncertain IoU: 0.8
// - Max Overlap IoU: 0.9
func KeepDefaultParams() KeepParams {
	return KeepParams{
		MinUncertainIoU: 0.8,
		MaxOverlapIoU:   0.9,
	}
}

// ThresholdKeep returns a KeepFunc which keeps candidates that are confident
// enough and do not duplicate their reference mask
func ThresholdKeep(p KeepParams) KeepFunc {
	return func(uncertainIoUs, overlapIoUs []float64) []bool {

		keep := make([]bool, len(uncertainIoUs))

		for i := range keep {
			keep[i] = uncertainIoUs[i] >= p.MinUncertainIoU &&
				(i >= len(overlapIoUs) || overlapIoUs[i] < p.MaxOverlapIoU)
		}

		return keep
	}
}

// KeepAll is a KeepFunc that filters nothing
func KeepAll(uncertainIoUs, overlapIoUs []float64) []bool {

	keep := make([]bool, len(uncertainIoUs))

	for i := range keep {
		keep[i] = true
	}

	return keep
}

// RankedMaskSet is the result of ranking the candidates of one multi mask
// model run
type RankedMaskSet struct {
	// Order is the permutation of candidate indices applied in lockstep to
	// the masks and their scores, ascending by area
	Order []int
	// Candidates are the reordered candidates that survived filtering, in
	// the order they were traced
	Candidates []samtrace.Candidate
	// Paths are the traced outlines in bottom to top stacking order, the
	// reverse of Candidates
	Paths []samtrace.VectorPath
	// UncertainIoUs are the scores of Paths, index aligned with it
	UncertainIoUs []float64
	// Best is the index into Paths of the candidate with the highest
	// uncertain IoU, or -1 when no candidate survived
	Best int
}

// Empty reports if every candidate was filtered out
func (r RankedMaskSet) Empty() bool {
	return len(r.Paths) == 0
}

// BestPath returns the outline to display when the candidate layers are
// collapsed.  ErrEmptyCandidateSet is returned when there is none, which
// callers should treat as nothing to render rather than a failure.
func (r RankedMaskSet) BestPath() (samtrace.VectorPath, error) {

	if r.Best < 0 || r.Best >= len(r.Paths) {
		return samtrace.VectorPath{}, samtrace.ErrEmptyCandidateSet
	}

	return r.Paths[r.Best], nil
}

// Ranker orders, deduplicates and traces the candidate masks of a multi
// mask model run
type Ranker struct {
	tracer *Tracer
	keep   KeepFunc
}

// NewRanker returns an instance of the Ranker.  A nil keep policy uses
// ThresholdKeep with default parameters.
func NewRanker(tracer *Tracer, keep KeepFunc) *Ranker {

	if tracer == nil {
		tracer = NewTracer(TracerDefaultParams())
	}

	if keep == nil {
		keep = ThresholdKeep(KeepDefaultParams())
	}

	return &Ranker{
		tracer: tracer,
		keep:   keep,
	}
}

// Rank orders the three candidates by ascending area, filters them with the
// keep policy and traces the survivors.  The traced paths are returned
// reversed for bottom to top stacking together with the index of the path
// with the highest uncertain IoU.
//
// Candidates are reversed twice, once after the area sort and again after
// tracing.  The second reversal applies to the filtered subset so the two do
// not cancel.
func (r *Ranker) Rank(candidates []samtrace.Candidate,
	target samtrace.Size) (RankedMaskSet, error) {

	if len(candidates) != CandidateCount {
		return RankedMaskSet{}, fmt.Errorf("%w: expected %d candidates, got %d",
			samtrace.ErrInvalidCandidateCount, CandidateCount, len(candidates))
	}

	areas := make([]float64, len(candidates))

	for i, c := range candidates {
		areas[i] = c.Area
	}

	order := argsortDescending(areas)
	order = reversed(order)

	// masks and scores travel together as one struct so a single
	// permutation reorders all of them
	sorted := permute(candidates, order)

	uncertain := make([]float64, len(sorted))
	overlap := make([]float64, len(sorted))

	for i, c := range sorted {
		uncertain[i] = c.UncertainIoU
		overlap[i] = c.OverlapIoU
	}

	keep := r.keep(uncertain, overlap)

	if len(keep) != len(sorted) {
		return RankedMaskSet{}, fmt.Errorf("%w: keep policy returned %d flags for %d candidates",
			samtrace.ErrDimensionMismatch, len(keep), len(sorted))
	}

	kept := filter(sorted, keep)
	keptUncertain := filter(uncertain, keep)
	keptOrder := filter(order, keep)

	paths := make([]samtrace.VectorPath, len(kept))

	for i, c := range kept {
		path, err := r.tracer.Trace(c.Mask, target)

		if err != nil {
			return RankedMaskSet{}, fmt.Errorf("error tracing candidate %d: %w", keptOrder[i], err)
		}

		paths[i] = path
	}

	res := RankedMaskSet{
		Order:         order,
		Candidates:    kept,
		Paths:         reversed(paths),
		UncertainIoUs: reversed(keptUncertain),
		Best:          -1,
	}

	if len(res.UncertainIoUs) > 0 {
		// MaxIdx returns the first index on ties
		res.Best = floats.MaxIdx(res.UncertainIoUs)
	}

	return res, nil
}
