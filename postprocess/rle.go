package postprocess

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/swdee/go-samtrace"
	"github.com/swdee/go-samtrace/lzstring"
)

// CountsFormat selects how decompressed run lengths are written
type CountsFormat int

const (
	// CountsDecimal is a list of decimal integers separated by commas
	// and/or whitespace
	CountsDecimal CountsFormat = iota
	// CountsCOCO is the compressed counts string of the COCO mask API,
	// 5 bits per character with continuation and sign bits
	CountsCOCO
)

// Decompressor undoes the text compression applied to an encoded mask
type Decompressor interface {
	Decompress(encoded string) (string, error)
}

// DecompressorFunc adapts a function to the Decompressor interface
type DecompressorFunc func(encoded string) (string, error)

// Decompress calls f(encoded)
func (f DecompressorFunc) Decompress(encoded string) (string, error) {
	return f(encoded)
}

var (
	// LZStringDecompressor decodes LZ-string EncodedURIComponent text, as
	// sent by the all objects endpoint
	LZStringDecompressor = DecompressorFunc(lzstring.DecompressFromEncodedURIComponent)

	// NoDecompression passes the encoded string through unchanged
	NoDecompression = DecompressorFunc(func(encoded string) (string, error) {
		return encoded, nil
	})
)

// MaxMaskPixels is the default limit on the pixel count of a decoded mask,
// 8192 x 8192
const MaxMaskPixels = 1 << 26

// RLEParams defines the struct containing the RLE decoder parameters
type RLEParams struct {
	// Decompress is applied to the encoded string before the run lengths
	// are parsed.  Nil means no decompression
	Decompress Decompressor
	// Counts is the format of the decompressed run lengths
	Counts CountsFormat
	// MaxPixels limits the total run length of a mask.  Zero uses
	// MaxMaskPixels
	MaxPixels int
}

// RLEDefaultParams returns an instance of RLEParams for masks sent as
// LZ-string compressed decimal run lengths
func RLEDefaultParams() RLEParams {
	return RLEParams{
		Decompress: LZStringDecompressor,
		Counts:     CountsDecimal,
		MaxPixels:  MaxMaskPixels,
	}
}

// RLE decodes run length encoded masks
type RLE struct {
	Params RLEParams
}

// NewRLE returns an instance of the RLE decoder
func NewRLE(p RLEParams) *RLE {
	return &RLE{
		Params: p,
	}
}

// Decode decompresses and decodes encoded into a RasterMask of the given
// height.  The width is the total run length divided by height.
func (r *RLE) Decode(encoded string, height int) (samtrace.RasterMask, error) {

	text := encoded

	if r.Params.Decompress != nil {
		var err error
		text, err = r.Params.Decompress.Decompress(encoded)

		if err != nil {
			return samtrace.RasterMask{}, fmt.Errorf("error decompressing mask: %w", err)
		}
	}

	var counts []int
	var err error

	switch r.Params.Counts {
	case CountsCOCO:
		counts, err = ParseCOCOCounts(text)
	default:
		counts, err = ParseDecimalCounts(text)
	}

	if err != nil {
		return samtrace.RasterMask{}, err
	}

	maxPixels := r.Params.MaxPixels

	if maxPixels <= 0 {
		maxPixels = MaxMaskPixels
	}

	return decodeCounts(counts, height, maxPixels)
}

// DecodeCounts lays out alternating background and foreground runs,
// starting with background, row major across a mask of the given height.
// Masks over MaxMaskPixels are rejected with ErrDimensionMismatch
func DecodeCounts(counts []int, height int) (samtrace.RasterMask, error) {
	return decodeCounts(counts, height, MaxMaskPixels)
}

func decodeCounts(counts []int, height, maxPixels int) (samtrace.RasterMask, error) {

	if height <= 0 {
		return samtrace.RasterMask{}, fmt.Errorf("%w: mask height %d",
			samtrace.ErrDimensionMismatch, height)
	}

	total := 0

	for _, n := range counts {
		if n < 0 {
			return samtrace.RasterMask{}, fmt.Errorf("%w: negative run length %d",
				samtrace.ErrMalformedEncoding, n)
		}

		// compared before adding so the sum can not overflow
		if n > maxPixels-total {
			return samtrace.RasterMask{}, fmt.Errorf("%w: total run length exceeds %d pixels",
				samtrace.ErrDimensionMismatch, maxPixels)
		}

		total += n
	}

	if total == 0 || total%height != 0 {
		return samtrace.RasterMask{}, fmt.Errorf("%w: total run length %d does not divide into height %d",
			samtrace.ErrDimensionMismatch, total, height)
	}

	data := make([]float32, total)
	pos := 0

	for i, n := range counts {
		// odd runs are foreground
		if i%2 == 1 {
			for j := pos; j < pos+n; j++ {
				data[j] = 1
			}
		}

		pos += n
	}

	return samtrace.NewRasterMask(total/height, height, data)
}

// EncodeCounts returns the run lengths of mask in row major order, starting
// with a possibly empty background run
func EncodeCounts(mask samtrace.RasterMask) []int {

	counts := make([]int, 0)
	fg := false
	run := 0

	for _, v := range mask.Data {
		if (v > 0) != fg {
			counts = append(counts, run)
			fg = !fg
			run = 0
		}
		run++
	}

	return append(counts, run)
}

// ParseDecimalCounts parses a list of non negative decimal run lengths
func ParseDecimalCounts(text string) ([]int, error) {

	tokens := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})

	if len(tokens) == 0 {
		return nil, fmt.Errorf("%w: no run lengths", samtrace.ErrMalformedEncoding)
	}

	counts := make([]int, len(tokens))

	for i, tok := range tokens {
		n, err := strconv.Atoi(tok)

		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: invalid run length %q at token %d",
				samtrace.ErrMalformedEncoding, tok, i)
		}

		counts[i] = n
	}

	return counts, nil
}

// FormatDecimalCounts writes run lengths as comma separated decimals
func FormatDecimalCounts(counts []int) string {

	parts := make([]string, len(counts))

	for i, n := range counts {
		parts[i] = strconv.Itoa(n)
	}

	return strings.Join(parts, ",")
}

// ParseCOCOCounts parses a COCO compressed counts string.  Each value is
// stored in 5 bit groups offset by 48 with 0x20 as the continuation bit and
// 0x10 as the sign bit of the last group.  From the fourth value on, values
// are deltas against the value two places before.
func ParseCOCOCounts(text string) ([]int, error) {

	if text == "" {
		return nil, fmt.Errorf("%w: no run lengths", samtrace.ErrMalformedEncoding)
	}

	counts := make([]int, 0, len(text)/2)
	p := 0

	for p < len(text) {
		x := 0
		k := 0
		more := true

		for more {
			if p >= len(text) || k > 12 {
				return nil, fmt.Errorf("%w: truncated counts value at offset %d",
					samtrace.ErrMalformedEncoding, p)
			}

			c := int(text[p]) - 48

			if c < 0 || c > 63 {
				return nil, fmt.Errorf("%w: invalid counts character %q at offset %d",
					samtrace.ErrMalformedEncoding, text[p], p)
			}

			x |= (c & 0x1f) << (5 * k)
			more = c&0x20 != 0
			p++
			k++

			if !more && c&0x10 != 0 {
				x |= -1 << (5 * k)
			}
		}

		if m := len(counts); m > 2 {
			x += counts[m-2]
		}

		if x < 0 {
			return nil, fmt.Errorf("%w: negative run length %d",
				samtrace.ErrMalformedEncoding, x)
		}

		counts = append(counts, x)
	}

	return counts, nil
}

// FormatCOCOCounts writes run lengths as a COCO compressed counts string
func FormatCOCOCounts(counts []int) string {

	var sb strings.Builder

	for i, n := range counts {
		x := n

		if i > 2 {
			x -= counts[i-2]
		}

		more := true

		for more {
			c := x & 0x1f
			x >>= 5

			if c&0x10 != 0 {
				more = x != -1
			} else {
				more = x != 0
			}

			if more {
				c |= 0x20
			}

			sb.WriteByte(byte(c + 48))
		}
	}

	return sb.String()
}
