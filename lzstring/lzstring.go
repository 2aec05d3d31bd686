// Package lzstring implements the URI safe variant of the LZ-string
// compression format, used by web clients to ship run length encoded masks
// as compact text.
package lzstring

import (
	"fmt"
	"unicode/utf16"

	"github.com/swdee/go-samtrace"
)

// keyStrURISafe is the 64 character alphabet of EncodedURIComponent output
const keyStrURISafe = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+-$"

// uriSafeIndex maps an alphabet byte back to its 6 bit value, -1 if the byte
// is not part of the alphabet
var uriSafeIndex [256]int8

func init() {
	for i := range uriSafeIndex {
		uriSafeIndex[i] = -1
	}

	for i := 0; i < len(keyStrURISafe); i++ {
		uriSafeIndex[keyStrURISafe[i]] = int8(i)
	}
}

// DecompressFromEncodedURIComponent decodes a string produced by
// CompressToEncodedURIComponent or by the LZ-string javascript library
func DecompressFromEncodedURIComponent(input string) (string, error) {

	if input == "" {
		return "", fmt.Errorf("%w: empty lz-string input", samtrace.ErrMalformedEncoding)
	}

	units, err := decompress(input)

	if err != nil {
		return "", err
	}

	return string(utf16.Decode(units)), nil
}

// CompressToEncodedURIComponent compresses input to the URI safe alphabet
func CompressToEncodedURIComponent(input string) string {
	return compress(utf16.Encode([]rune(input)))
}

// bitReader pulls bits from the 6 bit characters of the input, least
// significant bit of each value first
type bitReader struct {
	input    string
	val      int
	position int
	index    int
	err      error
}

const resetValue = 32

func newBitReader(input string) *bitReader {
	r := &bitReader{
		input:    input,
		position: resetValue,
		index:    1,
	}

	r.val = r.charValue(0)

	return r
}

// charValue returns the alphabet value of the character at i.  Reading past
// the end yields zero bits, the caller detects truncation by index.
func (r *bitReader) charValue(i int) int {

	if i >= len(r.input) {
		return 0
	}

	c := r.input[i]

	// '+' is commonly turned into a space when passed through a URL
	if c == ' ' {
		c = '+'
	}

	v := uriSafeIndex[c]

	if v < 0 {
		if r.err == nil {
			r.err = fmt.Errorf("%w: invalid lz-string character %q at offset %d",
				samtrace.ErrMalformedEncoding, c, i)
		}
		return 0
	}

	return int(v)
}

func (r *bitReader) readBits(n int) int {

	bits := 0
	maxpower := 1 << n
	power := 1

	for power != maxpower {
		resb := r.val & r.position
		r.position >>= 1

		if r.position == 0 {
			r.position = resetValue
			r.val = r.charValue(r.index)
			r.index++
		}

		if resb > 0 {
			bits |= power
		}

		power <<= 1
	}

	return bits
}

// decompress returns the UTF-16 code units encoded in input
func decompress(input string) ([]uint16, error) {

	r := newBitReader(input)

	// entries 0-2 are reserved for the literal and end of stream markers
	dictionary := make([][]uint16, 3, 256)
	enlargeIn := 4
	numBits := 3

	var c []uint16

	switch r.readBits(2) {
	case 0:
		c = []uint16{uint16(r.readBits(8))}
	case 1:
		c = []uint16{uint16(r.readBits(16))}
	case 2:
		return []uint16{}, r.err
	default:
		return nil, fmt.Errorf("%w: invalid lz-string header", samtrace.ErrMalformedEncoding)
	}

	if r.err != nil {
		return nil, r.err
	}

	dictionary = append(dictionary, c)
	w := c
	result := append([]uint16{}, c...)

	for {
		if r.index > len(input) {
			return nil, fmt.Errorf("%w: truncated lz-string stream", samtrace.ErrMalformedEncoding)
		}

		code := r.readBits(numBits)

		switch code {
		case 0:
			dictionary = append(dictionary, []uint16{uint16(r.readBits(8))})
			code = len(dictionary) - 1
			enlargeIn--
		case 1:
			dictionary = append(dictionary, []uint16{uint16(r.readBits(16))})
			code = len(dictionary) - 1
			enlargeIn--
		case 2:
			return result, r.err
		}

		if r.err != nil {
			return nil, r.err
		}

		if enlargeIn == 0 {
			enlargeIn = 1 << numBits
			numBits++
		}

		var entry []uint16

		if code >= 3 && code < len(dictionary) {
			entry = dictionary[code]

		} else if code == len(dictionary) {
			entry = make([]uint16, len(w)+1)
			copy(entry, w)
			entry[len(w)] = w[0]

		} else {
			return nil, fmt.Errorf("%w: lz-string dictionary reference %d out of range",
				samtrace.ErrMalformedEncoding, code)
		}

		result = append(result, entry...)

		// add w+entry[0] to the dictionary
		next := make([]uint16, len(w)+1)
		copy(next, w)
		next[len(w)] = entry[0]
		dictionary = append(dictionary, next)
		enlargeIn--

		w = entry

		if enlargeIn == 0 {
			enlargeIn = 1 << numBits
			numBits++
		}
	}
}

// bitWriter packs bits into 6 bit alphabet characters
type bitWriter struct {
	out      []byte
	val      int
	position int
}

const bitsPerChar = 6

func (b *bitWriter) writeBit(bit int) {

	b.val = (b.val << 1) | bit

	if b.position == bitsPerChar-1 {
		b.position = 0
		b.out = append(b.out, keyStrURISafe[b.val])
		b.val = 0

	} else {
		b.position++
	}
}

// writeBits writes the low n bits of value, least significant first
func (b *bitWriter) writeBits(value, n int) {
	for i := 0; i < n; i++ {
		b.writeBit(value & 1)
		value >>= 1
	}
}

// flush pads the last character with zero bits
func (b *bitWriter) flush() {
	for {
		b.val <<= 1

		if b.position == bitsPerChar-1 {
			b.out = append(b.out, keyStrURISafe[b.val])
			return
		}

		b.position++
	}
}

// unitKey encodes a code unit as a two byte map key, sequences of units are
// concatenated keys
func unitKey(u uint16) string {
	return string([]byte{byte(u >> 8), byte(u)})
}

// firstUnit returns the first code unit of a key
func firstUnit(key string) int {
	return int(key[0])<<8 | int(key[1])
}

func compress(units []uint16) string {

	dictionary := make(map[string]int)
	toCreate := make(map[string]bool)
	enlargeIn := 2
	dictSize := 3
	numBits := 2
	bw := &bitWriter{}
	w := ""

	grow := func() {
		enlargeIn--

		if enlargeIn == 0 {
			enlargeIn = 1 << numBits
			numBits++
		}
	}

	// emit writes the code for w
	emit := func() {
		if toCreate[w] {
			first := firstUnit(w)

			if first < 256 {
				bw.writeBits(0, numBits)
				bw.writeBits(first, 8)
			} else {
				bw.writeBits(1, numBits)
				bw.writeBits(first, 16)
			}

			grow()
			delete(toCreate, w)

		} else {
			bw.writeBits(dictionary[w], numBits)
		}

		grow()
	}

	for _, u := range units {
		c := unitKey(u)

		if _, ok := dictionary[c]; !ok {
			dictionary[c] = dictSize
			dictSize++
			toCreate[c] = true
		}

		wc := w + c

		if _, ok := dictionary[wc]; ok {
			w = wc
			continue
		}

		emit()

		dictionary[wc] = dictSize
		dictSize++
		w = c
	}

	if w != "" {
		emit()
	}

	// end of stream marker
	bw.writeBits(2, numBits)
	bw.flush()

	return string(bw.out)
}
