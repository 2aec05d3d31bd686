package samtrace

import "fmt"

// ExtractChannels slices a tensor shaped [channelCount, channelHeight,
// channelWidth] in row major, channel major layout into one RasterMask per
// channel.  The masks share memory with data, no values are copied.
//
// Channel 0 of a multi mask model is the default mask, channels 1..N are the
// per click candidates consumed by the ranker.
func ExtractChannels(data []float32, channelHeight, channelWidth,
	channelCount int) ([]RasterMask, error) {

	if channelHeight <= 0 || channelWidth <= 0 || channelCount <= 0 {
		return nil, fmt.Errorf("%w: invalid tensor shape [%d, %d, %d]",
			ErrDimensionMismatch, channelCount, channelHeight, channelWidth)
	}

	size := channelHeight * channelWidth

	if len(data) != channelCount*size {
		return nil, fmt.Errorf("%w: tensor shape [%d, %d, %d] needs %d values, got %d",
			ErrDimensionMismatch, channelCount, channelHeight, channelWidth,
			channelCount*size, len(data))
	}

	masks := make([]RasterMask, channelCount)

	for c := 0; c < channelCount; c++ {
		start := c * size
		end := start + size

		masks[c] = RasterMask{
			Width:  channelWidth,
			Height: channelHeight,
			// clip capacity so an append on one channel can never write
			// into the next
			Data: data[start:end:end],
		}
	}

	return masks, nil
}

// ExtractChannelsF16 is ExtractChannels for model outputs delivered as IEEE
// half precision floats.  The buffer is converted to float32 once before
// slicing.
func ExtractChannelsF16(data []uint16, channelHeight, channelWidth,
	channelCount int) ([]RasterMask, error) {

	if channelHeight > 0 && channelWidth > 0 && channelCount > 0 &&
		len(data) != channelCount*channelHeight*channelWidth {

		return nil, fmt.Errorf("%w: tensor shape [%d, %d, %d] needs %d values, got %d",
			ErrDimensionMismatch, channelCount, channelHeight, channelWidth,
			channelCount*channelHeight*channelWidth, len(data))
	}

	return ExtractChannels(convertFloat16BufferToFloat32(data),
		channelHeight, channelWidth, channelCount)
}
