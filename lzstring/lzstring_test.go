package lzstring

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swdee/go-samtrace"
)

func TestRoundTrip(t *testing.T) {

	tests := []struct {
		name  string
		input string
	}{
		{"single char", "a"},
		{"run lengths", "2,3,5"},
		{"long counts", strings.Repeat("120,4,37,19,", 200)},
		{"repeated char", strings.Repeat("0", 1000)},
		{"wide chars", "mask ✓ 面具 🎭"},
		{"empty", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			enc := CompressToEncodedURIComponent(tc.input)

			for i := 0; i < len(enc); i++ {
				require.GreaterOrEqual(t, uriSafeIndex[enc[i]], int8(0),
					"output character %q is not URI safe", enc[i])
			}

			dec, err := DecompressFromEncodedURIComponent(enc)
			require.NoError(t, err)
			assert.Equal(t, tc.input, dec)
		})
	}
}

// jsVectors are outputs of LZString.compressToEncodedURIComponent from the
// JavaScript lz-string library
var jsVectors = []struct {
	name    string
	plain   string
	encoded string
}{
	{"run lengths", "2,3,5", "EwGgzCCsQ"},
	{"repeating runs", "0,4,12,4,12,4,12,4,1000", "AwGgLCCMBM5bEZ0sVQ"},
	{"long counts",
		"1,38,75,11,48,85,21,58,95,31,68,4,41,78,14,51,88,24,61,98,34,71,7,44,81,17,54,91,27,64,101,37,74,10,47,84,20,57,94,30",
		"IwGgzAHCDsCsLFAFiheAmUsoE55lADYokQlRophTZQIp1TDQcoxToKzSJRhoQsUjlDoBhUsAAMoMAOiSpZARFLolsATlJgpQA"},
	{"hello world", "Hello, world!", "BIUwNmD2A0AEDukBOYAmBCIA"},
}

func TestDecompressJSVectors(t *testing.T) {

	for _, tc := range jsVectors {
		t.Run(tc.name, func(t *testing.T) {
			dec, err := DecompressFromEncodedURIComponent(tc.encoded)
			require.NoError(t, err)
			assert.Equal(t, tc.plain, dec)
		})
	}
}

func TestCompressMatchesJSVectors(t *testing.T) {

	for _, tc := range jsVectors {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.encoded, CompressToEncodedURIComponent(tc.plain))
		})
	}
}

func TestDecompressSpaceAsPlus(t *testing.T) {

	input := strings.Repeat("7,11,13,", 50)
	enc := CompressToEncodedURIComponent(input)

	dec, err := DecompressFromEncodedURIComponent(strings.ReplaceAll(enc, "+", " "))
	require.NoError(t, err)
	assert.Equal(t, input, dec)
}

func TestDecompressErrors(t *testing.T) {

	tests := []struct {
		name  string
		input string
	}{
		{"empty input", ""},
		{"invalid character", "A*BC"},
		{"invalid header", "w"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecompressFromEncodedURIComponent(tc.input)
			assert.ErrorIs(t, err, samtrace.ErrMalformedEncoding)
		})
	}
}
