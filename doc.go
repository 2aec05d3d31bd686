/*
go-samtrace provides the mask post processing stage for interactive
segmentation models in the style of Segment Anything.  Given the raster output
of a model run for a user click it turns candidate masks into closed vector
outlines that can be overlaid on the source image.

The root package holds the shared data model (RasterMask, VectorPath) and the
channel extractor that slices multi channel model output into masks.  The
postprocess subpackage contains the run length decoder, contour tracer and
candidate ranker, tied together by the SAM post processor.

All functions are synchronous and keep no shared mutable state so they are
safe to call from multiple goroutines on disjoint inputs.

See example code and usage in the example subdirectory.
*/
package samtrace
