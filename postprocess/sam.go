package postprocess

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/swdee/go-samtrace"
)

// MultiMaskChannels is the channel count of a multi mask model output, the
// default mask in channel 0 followed by the three candidates
const MultiMaskChannels = CandidateCount + 1

// SAM defines the struct for Segment Anything style interactive mask post
// processing
type SAM struct {
	// Params are the post processing configuration parameters
	Params SAMParams
	tracer *Tracer
	ranker *Ranker
	rle    *RLE
}

// SAMParams defines the struct containing the SAM parameters to use for post
// processing operations
type SAMParams struct {
	// Tracer configures contour tracing of all masks
	Tracer TracerParams
	// Keep is the candidate deduplication policy for multi mask results,
	// nil uses ThresholdKeep with default parameters
	Keep KeepFunc
	// RLE configures decoding of all objects encoded masks
	RLE RLEParams
	// OutlineOffset grows (or when negative shrinks) every traced outline
	// by this many display units.  Zero leaves outlines on the pixel
	// boundary
	OutlineOffset float64
}

// SAMDefaultParams returns an instance of SAMParams configured with
// - Four connected tracing
// - Threshold keep policy, Min Uncertain IoU 0.8, Max Overlap IoU 0.9
// - LZ-string compressed decimal run lengths
// - No outline offset
func SAMDefaultParams() SAMParams {
	return SAMParams{
		Tracer:        TracerDefaultParams(),
		Keep:          ThresholdKeep(KeepDefaultParams()),
		RLE:           RLEDefaultParams(),
		OutlineOffset: 0,
	}
}

// NewSAM returns an instance of the SAM post processor
func NewSAM(p SAMParams) *SAM {

	tracer := NewTracer(p.Tracer)

	return &SAM{
		Params: p,
		tracer: tracer,
		ranker: NewRanker(tracer, p.Keep),
		rle:    NewRLE(p.RLE),
	}
}

// SingleMask traces the output of a single mask model run, a height by width
// mask, scaled to the target size
func (s *SAM) SingleMask(data []float32, height, width int,
	target samtrace.Size) (samtrace.VectorPath, error) {

	mask, err := samtrace.NewRasterMask(width, height, data)

	if err != nil {
		return samtrace.VectorPath{}, err
	}

	path, err := s.tracer.Trace(mask, target)

	if err != nil {
		return samtrace.VectorPath{}, err
	}

	return Offset(path, s.Params.OutlineOffset), nil
}

// MultiMaskOutput holds the tensors of a multi mask model run
type MultiMaskOutput struct {
	// Masks is the mask tensor shaped [Channels, Height, Width]
	Masks []float32
	// MasksF16 holds the mask tensor as half precision bit patterns for
	// models with float16 outputs, used instead of Masks when set
	MasksF16 []uint16
	Channels int
	Height   int
	Width    int
	// Areas are the foreground areas per channel
	Areas []float32
	// UncertainIoUs are the self consistency scores per channel
	UncertainIoUs []float32
	// IoUs are the overlap scores of the candidates, one fewer than the
	// channel count as channel 0 has none
	IoUs []float32
}

// MultiMask ranks the three candidate masks in channels 1 to 3 of the model
// output and traces the survivors.  The default mask in channel 0 takes no
// part in ranking.
func (s *SAM) MultiMask(out MultiMaskOutput,
	target samtrace.Size) (RankedMaskSet, error) {

	if out.Channels != MultiMaskChannels {
		return RankedMaskSet{}, fmt.Errorf("%w: multi mask output has %d channels, expected %d",
			samtrace.ErrDimensionMismatch, out.Channels, MultiMaskChannels)
	}

	if len(out.Areas) < MultiMaskChannels || len(out.UncertainIoUs) < MultiMaskChannels ||
		len(out.IoUs) < CandidateCount {

		return RankedMaskSet{}, fmt.Errorf("%w: score arrays areas=%d uncertain_ious=%d ious=%d too short",
			samtrace.ErrDimensionMismatch, len(out.Areas), len(out.UncertainIoUs), len(out.IoUs))
	}

	var masks []samtrace.RasterMask
	var err error

	if out.MasksF16 != nil {
		masks, err = samtrace.ExtractChannelsF16(out.MasksF16, out.Height, out.Width, out.Channels)
	} else {
		masks, err = samtrace.ExtractChannels(out.Masks, out.Height, out.Width, out.Channels)
	}

	if err != nil {
		return RankedMaskSet{}, err
	}

	candidates := make([]samtrace.Candidate, CandidateCount)

	for i := range candidates {
		candidates[i] = samtrace.Candidate{
			Mask:         masks[i+1],
			Area:         float64(out.Areas[i+1]),
			UncertainIoU: float64(out.UncertainIoUs[i+1]),
			OverlapIoU:   float64(out.IoUs[i]),
		}
	}

	res, err := s.ranker.Rank(candidates, target)

	if err != nil {
		return RankedMaskSet{}, err
	}

	for i := range res.Paths {
		res.Paths[i] = Offset(res.Paths[i], s.Params.OutlineOffset)
	}

	return res, nil
}

// ObjectOutline is the traced outline of one all objects mask
type ObjectOutline struct {
	Path samtrace.VectorPath
	// PointCoord is the prompt point the model segmented the object from
	PointCoord []float64
}

// AllObjects decodes and traces every mask of an all objects result.  Any
// decode failure aborts the whole call.
func (s *SAM) AllObjects(masks []samtrace.EncodedMask, imageHeight int,
	target samtrace.Size) ([]ObjectOutline, error) {

	outlines := make([]ObjectOutline, len(masks))

	for i, em := range masks {
		outline, err := s.traceObject(i, em, imageHeight, target)

		if err != nil {
			return nil, err
		}

		outlines[i] = outline
	}

	return outlines, nil
}

// traceObject decodes and traces the all objects mask at index i
func (s *SAM) traceObject(i int, em samtrace.EncodedMask, imageHeight int,
	target samtrace.Size) (ObjectOutline, error) {

	mask, err := s.rle.Decode(em.Counts, imageHeight)

	if err != nil {
		return ObjectOutline{}, fmt.Errorf("error decoding object %d: %w", i, err)
	}

	path, err := s.tracer.Trace(mask, target)

	if err != nil {
		return ObjectOutline{}, fmt.Errorf("error tracing object %d: %w", i, err)
	}

	return ObjectOutline{
		Path:       Offset(path, s.Params.OutlineOffset),
		PointCoord: em.PointCoord,
	}, nil
}

// AllObjectsPayload is the JSON document returned by the all objects
// endpoint
type AllObjectsPayload struct {
	Masks       []samtrace.EncodedMask `json:"allJSON"`
	ImageHeight int                    `json:"image_height"`
}

// ParseAllObjects reads an all objects JSON payload
func ParseAllObjects(r io.Reader) (AllObjectsPayload, error) {

	var p AllObjectsPayload

	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return AllObjectsPayload{}, fmt.Errorf("error parsing all objects payload: %w", err)
	}

	return p, nil
}
