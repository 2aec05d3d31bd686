package samtrace

import (
	"fmt"
)

// Batch defines a struct used for stacking a batch of RasterMasks together
// into a single channel major tensor, the layout ExtractChannels reads
type Batch struct {
	data []float32
	// size of the batch
	size int
	// width is the mask width
	width int
	// height is the mask height
	height int
	// maskCnt is a counter for how many masks have been added with Add()
	maskCnt int
	// maskSize stores a masks size made up from its elements
	maskSize int
}

// NewBatch creates a batch able to hold batchSize masks of the given height
// and width
func NewBatch(batchSize, height, width int) *Batch {

	if batchSize < 0 || height < 0 || width < 0 {
		batchSize, height, width = 0, 0, 0
	}

	return &Batch{
		data:     make([]float32, batchSize*height*width),
		size:     batchSize,
		height:   height,
		width:    width,
		maskCnt:  0,
		maskSize: height * width,
	}
}

// Add a mask to the batch
func (b *Batch) Add(mask RasterMask) error {

	// check if batch is full
	if b.maskCnt >= b.size {
		return fmt.Errorf("batch full")
	}

	if err := b.addAt(b.maskCnt, mask); err != nil {
		return err
	}

	b.maskCnt++
	return nil
}

// AddAt adds a mask to the batch at the specific channel index
func (b *Batch) AddAt(idx int, mask RasterMask) error {

	if idx < 0 || idx >= b.size {
		return fmt.Errorf("index %d out of range [0-%d)", idx, b.size)
	}

	return b.addAt(idx, mask)
}

// addAt copies the mask values into the channel at idx
func (b *Batch) addAt(idx int, mask RasterMask) error {

	if err := mask.Validate(); err != nil {
		return err
	}

	if mask.Height != b.height || mask.Width != b.width {
		return fmt.Errorf("%w: mask %dx%d does not match batch shape %dx%d",
			ErrDimensionMismatch, mask.Width, mask.Height, b.width, b.height)
	}

	offset := idx * b.maskSize
	copy(b.data[offset:offset+b.maskSize], mask.Data)

	return nil
}

// Len returns the number of masks added with Add()
func (b *Batch) Len() int {
	return b.maskCnt
}

// Data returns the stacked tensor of shape [size, height, width].  Channels
// not yet added hold zeros or values from before the last Clear()
func (b *Batch) Data() []float32 {
	return b.data
}

// Masks splits the batch back into channel views sharing the batch memory
func (b *Batch) Masks() ([]RasterMask, error) {
	return ExtractChannels(b.data, b.height, b.width, b.size)
}

// Clear the batch so it can be reused again
func (b *Batch) Clear() {
	// just reset the counter, the data is overwritten as masks are added
	b.maskCnt = 0
}
