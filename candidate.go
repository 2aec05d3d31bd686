package samtrace

// Candidate is one mask proposal of a multi mask model run together with the
// scores the model produced for it.  Scores are taken as given, none are
// recomputed from the mask.
type Candidate struct {
	Mask RasterMask
	// Area is the foreground pixel count reported by the model
	Area float64
	// UncertainIoU is the model's self consistency estimate for the mask
	UncertainIoU float64
	// OverlapIoU is the model's overlap score of the mask against its
	// reference
	OverlapIoU float64
}

// EncodedMask is a compressed run length encoded mask as delivered by the
// all objects endpoint, plus the metadata that accompanies it
type EncodedMask struct {
	Counts       string    `json:"encodedMask"`
	BBox         []float64 `json:"bbox,omitempty"`
	Score        float64   `json:"score"`
	PointCoord   []float64 `json:"point_coord,omitempty"`
	UncertainIoU float64   `json:"uncertain_iou"`
	Area         float64   `json:"area"`
}
