package samtrace

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
)

// LoadTensor reads a raw tensor dump of little endian float32 values from the
// given file, as written by numpy's tofile() on a float32 array.
func LoadTensor(file string) ([]float32, error) {

	// open the file
	f, err := os.Open(file)

	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}

	defer f.Close()

	return ReadTensor(f)
}

// ReadTensor reads little endian float32 values until EOF
func ReadTensor(r io.Reader) ([]float32, error) {

	buf, err := io.ReadAll(r)

	if err != nil {
		return nil, fmt.Errorf("error reading tensor: %w", err)
	}

	if len(buf)%4 != 0 {
		return nil, fmt.Errorf("%w: tensor byte length %d is not a multiple of 4",
			ErrDimensionMismatch, len(buf))
	}

	data := make([]float32, len(buf)/4)

	for i := range data {
		data[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}

	return data, nil
}

// LoadTensorF16 reads a raw tensor dump of little endian IEEE half precision
// values from the given file, as written by numpy's tofile() on a float16
// array.  Values are returned as bit patterns for ExtractChannelsF16.
func LoadTensorF16(file string) ([]uint16, error) {

	f, err := os.Open(file)

	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}

	defer f.Close()

	return ReadTensorF16(f)
}

// ReadTensorF16 reads little endian float16 bit patterns until EOF
func ReadTensorF16(r io.Reader) ([]uint16, error) {

	buf, err := io.ReadAll(r)

	if err != nil {
		return nil, fmt.Errorf("error reading tensor: %w", err)
	}

	if len(buf)%2 != 0 {
		return nil, fmt.Errorf("%w: tensor byte length %d is not a multiple of 2",
			ErrDimensionMismatch, len(buf))
	}

	data := make([]uint16, len(buf)/2)

	for i := range data {
		data[i] = binary.LittleEndian.Uint16(buf[i*2:])
	}

	return data, nil
}
