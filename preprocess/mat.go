package preprocess

import (
	"fmt"

	"github.com/swdee/go-samtrace"
	"gocv.io/x/gocv"
)

// MaskFromMat converts a single channel 8 bit or 32 bit float Mat into a
// RasterMask.  Pixels with a value above threshold become foreground (1),
// the rest background (0), so an 8 bit mask image saved with 0/255 values
// is read with a threshold of 127 and model logits with 0.
func MaskFromMat(m gocv.Mat, threshold float32) (samtrace.RasterMask, error) {

	if m.Empty() {
		return samtrace.RasterMask{}, fmt.Errorf("%w: empty Mat", samtrace.ErrDimensionMismatch)
	}

	if m.Channels() != 1 {
		return samtrace.RasterMask{}, fmt.Errorf("%w: Mat has %d channels, expected 1",
			samtrace.ErrDimensionMismatch, m.Channels())
	}

	width := m.Cols()
	height := m.Rows()
	data := make([]float32, width*height)

	switch m.Type() {
	case gocv.MatTypeCV8U:
		// copying the bytes out once is far faster than per pixel access
		// over CGO
		buf := m.ToBytes()

		for i, v := range buf {
			if float32(v) > threshold {
				data[i] = 1
			}
		}

	case gocv.MatTypeCV32F:
		if !m.IsContinuous() {
			return samtrace.RasterMask{}, fmt.Errorf("float Mat must be continuous")
		}

		buf, err := m.DataPtrFloat32()

		if err != nil {
			return samtrace.RasterMask{}, fmt.Errorf("error getting data pointer for Mat: %w", err)
		}

		for i, v := range buf {
			if v > threshold {
				data[i] = 1
			}
		}

	default:
		return samtrace.RasterMask{}, fmt.Errorf("unsupported Mat type %v", m.Type())
	}

	return samtrace.NewRasterMask(width, height, data)
}

// MatFromMask returns an 8 bit single channel Mat with foreground pixels set
// to 255.  The caller must Close the returned Mat.
func MatFromMask(mask samtrace.RasterMask) (gocv.Mat, error) {

	if err := mask.Validate(); err != nil {
		return gocv.NewMat(), err
	}

	buf := make([]byte, len(mask.Data))

	for i, v := range mask.Data {
		if v > 0 {
			buf[i] = 255
		}
	}

	m, err := gocv.NewMatFromBytes(mask.Height, mask.Width, gocv.MatTypeCV8U, buf)

	if err != nil {
		return gocv.NewMat(), fmt.Errorf("error creating mask Mat: %w", err)
	}

	return m, nil
}
