package postprocess

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swdee/go-samtrace"
)

var rankTarget = samtrace.Size{Width: 8, Height: 8}

// candidatesWithAreas returns candidates whose masks are squares of a size
// unique to each, so a traced path identifies its candidate
func candidatesWithAreas(areas ...float64) []samtrace.Candidate {

	cands := make([]samtrace.Candidate, len(areas))

	for i, a := range areas {
		cands[i] = samtrace.Candidate{
			Mask:         boxMask(8, 8, 0, 0, i+1, i+1),
			Area:         a,
			UncertainIoU: 0.9 + float64(i)/100,
			OverlapIoU:   0.1 + float64(i)/100,
		}
	}

	return cands
}

// traceOf traces a candidate mask with the default tracer
func traceOf(t *testing.T, c samtrace.Candidate) samtrace.VectorPath {

	path, err := NewTracer(TracerDefaultParams()).Trace(c.Mask, rankTarget)
	require.NoError(t, err)

	return path
}

func TestRankAscendingAreaOrder(t *testing.T) {

	cands := candidatesWithAreas(100, 500, 250)

	res, err := NewRanker(nil, KeepAll).Rank(cands, rankTarget)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 2, 1}, res.Order)

	areas := make([]float64, len(res.Candidates))

	for i, c := range res.Candidates {
		areas[i] = c.Area
	}

	assert.Equal(t, []float64{100, 250, 500}, areas)
}

func TestRankEqualAreasStable(t *testing.T) {

	cands := candidatesWithAreas(5, 5, 5)

	res, err := NewRanker(nil, KeepAll).Rank(cands, rankTarget)
	require.NoError(t, err)

	// stable descending sort keeps 0,1,2 which is then reversed
	assert.Equal(t, []int{2, 1, 0}, res.Order)
}

func TestRankLockstep(t *testing.T) {

	rng := rand.New(rand.NewSource(11))

	for i := 0; i < 50; i++ {
		cands := candidatesWithAreas(
			float64(rng.Intn(5)), float64(rng.Intn(5)), float64(rng.Intn(5)))

		for j := range cands {
			cands[j].UncertainIoU = rng.Float64()
			cands[j].OverlapIoU = rng.Float64()
		}

		var gotUncertain, gotOverlap []float64

		keep := func(u, o []float64) []bool {
			gotUncertain = append([]float64{}, u...)
			gotOverlap = append([]float64{}, o...)
			return KeepAll(u, o)
		}

		res, err := NewRanker(nil, keep).Rank(cands, rankTarget)
		require.NoError(t, err)

		for k, idx := range res.Order {
			assert.Equal(t, cands[idx].UncertainIoU, gotUncertain[k])
			assert.Equal(t, cands[idx].OverlapIoU, gotOverlap[k])
			assert.True(t, cands[idx].Mask.Equal(res.Candidates[k].Mask))
		}
	}
}

func TestRankFilterAndReverse(t *testing.T) {

	cands := candidatesWithAreas(100, 500, 250)
	cands[0].UncertainIoU = 0.7
	cands[1].UncertainIoU = 0.95
	cands[2].UncertainIoU = 0.8

	keep := func(u, o []float64) []bool {
		return []bool{true, false, true}
	}

	res, err := NewRanker(nil, keep).Rank(cands, rankTarget)
	require.NoError(t, err)

	// reordered: area 100 (cand 0), 250 (cand 2), 500 (cand 1); middle
	// one dropped
	require.Len(t, res.Candidates, 2)
	assert.Equal(t, float64(100), res.Candidates[0].Area)
	assert.Equal(t, float64(500), res.Candidates[1].Area)

	// paths are reversed for bottom to top stacking
	require.Len(t, res.Paths, 2)
	assert.Equal(t, traceOf(t, cands[1]), res.Paths[0])
	assert.Equal(t, traceOf(t, cands[0]), res.Paths[1])
	assert.Equal(t, []float64{0.95, 0.7}, res.UncertainIoUs)

	assert.Equal(t, 0, res.Best)

	best, err := res.BestPath()
	require.NoError(t, err)
	assert.Equal(t, traceOf(t, cands[1]), best)
}

func TestRankBestTiesPickFirst(t *testing.T) {

	cands := candidatesWithAreas(1, 2, 3)

	for i := range cands {
		cands[i].UncertainIoU = 0.9
	}

	res, err := NewRanker(nil, KeepAll).Rank(cands, rankTarget)
	require.NoError(t, err)

	assert.Equal(t, 0, res.Best)

	// first path after reversal is the largest area candidate
	assert.Equal(t, traceOf(t, cands[2]), res.Paths[0])
}

func TestRankAllFiltered(t *testing.T) {

	cands := candidatesWithAreas(10, 20, 30)

	keep := func(u, o []float64) []bool {
		return []bool{false, false, false}
	}

	res, err := NewRanker(nil, keep).Rank(cands, rankTarget)
	require.NoError(t, err)

	assert.True(t, res.Empty())
	assert.Equal(t, -1, res.Best)

	_, err = res.BestPath()
	assert.ErrorIs(t, err, samtrace.ErrEmptyCandidateSet)
}

func TestRankFilterMonotonic(t *testing.T) {

	rng := rand.New(rand.NewSource(5))

	for i := 0; i < 50; i++ {
		flags := []bool{rng.Intn(2) == 0, rng.Intn(2) == 0, rng.Intn(2) == 0}
		trues := 0

		for _, f := range flags {
			if f {
				trues++
			}
		}

		keep := func(u, o []float64) []bool {
			return flags
		}

		res, err := NewRanker(nil, keep).Rank(candidatesWithAreas(3, 1, 2), rankTarget)
		require.NoError(t, err)

		assert.LessOrEqual(t, len(res.Paths), CandidateCount)
		assert.Equal(t, trues, len(res.Paths))
		assert.Equal(t, len(res.Paths), len(res.UncertainIoUs))
	}
}

func TestRankErrors(t *testing.T) {

	_, err := NewRanker(nil, KeepAll).Rank(candidatesWithAreas(1, 2), rankTarget)
	assert.ErrorIs(t, err, samtrace.ErrInvalidCandidateCount)

	_, err = NewRanker(nil, KeepAll).Rank(candidatesWithAreas(1, 2, 3, 4), rankTarget)
	assert.ErrorIs(t, err, samtrace.ErrInvalidCandidateCount)

	short := func(u, o []float64) []bool {
		return []bool{true}
	}

	_, err = NewRanker(nil, short).Rank(candidatesWithAreas(1, 2, 3), rankTarget)
	assert.ErrorIs(t, err, samtrace.ErrDimensionMismatch)
}

func TestThresholdKeep(t *testing.T) {

	keep := ThresholdKeep(KeepDefaultParams())

	got := keep(
		[]float64{0.95, 0.79, 0.85, 0.8},
		[]float64{0.2, 0.1, 0.9, 0.89},
	)

	assert.Equal(t, []bool{true, false, false, true}, got)
}
