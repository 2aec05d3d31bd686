package samtrace

import "fmt"

// RasterMask is a row major grid of mask values.  A pixel is foreground when
// its value is strictly greater than zero.
type RasterMask struct {
	Width  int
	Height int
	// Data holds Width*Height values in row major order.  Masks returned
	// by the extractor share their backing array with the model output so
	// must be treated as read only
	Data []float32
}

// Size is a width and height pair, typically the target display dimensions
// traced outlines are scaled to
type Size struct {
	Width  int
	Height int
}

// NewRasterMask returns a RasterMask over data after checking that the
// dimensions agree with the buffer length
func NewRasterMask(width, height int, data []float32) (RasterMask, error) {

	m := RasterMask{
		Width:  width,
		Height: height,
		Data:   data,
	}

	if err := m.Validate(); err != nil {
		return RasterMask{}, err
	}

	return m, nil
}

// Validate checks the mask dimensions against its data length
func (m RasterMask) Validate() error {

	if m.Width < 0 || m.Height < 0 {
		return fmt.Errorf("%w: negative mask size %dx%d",
			ErrDimensionMismatch, m.Width, m.Height)
	}

	if len(m.Data) != m.Width*m.Height {
		return fmt.Errorf("%w: mask %dx%d needs %d values, got %d",
			ErrDimensionMismatch, m.Width, m.Height, m.Width*m.Height, len(m.Data))
	}

	return nil
}

// At returns the value of the pixel at x, y
func (m RasterMask) At(x, y int) float32 {
	return m.Data[y*m.Width+x]
}

// Foreground reports if the pixel at x, y is foreground.  Coordinates
// outside of the mask are background.
func (m RasterMask) Foreground(x, y int) bool {

	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return false
	}

	return m.Data[y*m.Width+x] > 0
}

// ForegroundCount returns the number of foreground pixels
func (m RasterMask) ForegroundCount() int {

	count := 0

	for _, v := range m.Data {
		if v > 0 {
			count++
		}
	}

	return count
}

// Equal reports if both masks have the same dimensions and foreground
// pixels.  Values are compared after thresholding at zero.
func (m RasterMask) Equal(o RasterMask) bool {

	if m.Width != o.Width || m.Height != o.Height || len(m.Data) != len(o.Data) {
		return false
	}

	for i := range m.Data {
		if (m.Data[i] > 0) != (o.Data[i] > 0) {
			return false
		}
	}

	return true
}
