package postprocess

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/swdee/go-samtrace"
)

// loopOf builds a loop from x, y pairs
func loopOf(xy ...float64) samtrace.Loop {

	loop := make(samtrace.Loop, 0, len(xy)/2)

	for i := 0; i+1 < len(xy); i += 2 {
		loop = append(loop, samtrace.Point{X: xy[i], Y: xy[i+1]})
	}

	return loop
}

func TestTraceShapes(t *testing.T) {

	tests := []struct {
		name   string
		mask   samtrace.RasterMask
		conn   Connectivity
		target samtrace.Size
		want   []samtrace.Loop
	}{
		{
			name:   "single pixel",
			mask:   maskFromRows("...", ".#.", "..."),
			target: samtrace.Size{Width: 3, Height: 3},
			want:   []samtrace.Loop{loopOf(1, 1, 2, 1, 2, 2, 1, 2)},
		},
		{
			name:   "single pixel scaled",
			mask:   maskFromRows("#"),
			target: samtrace.Size{Width: 10, Height: 20},
			want:   []samtrace.Loop{loopOf(0, 0, 10, 0, 10, 20, 0, 20)},
		},
		{
			name:   "collinear runs collapse",
			mask:   maskFromRows("###", "#.."),
			target: samtrace.Size{Width: 3, Height: 2},
			want:   []samtrace.Loop{loopOf(0, 0, 3, 0, 3, 1, 1, 1, 1, 2, 0, 2)},
		},
		{
			name:   "ring with hole",
			mask:   maskFromRows("###", "#.#", "###"),
			target: samtrace.Size{Width: 3, Height: 3},
			want: []samtrace.Loop{
				loopOf(0, 0, 3, 0, 3, 3, 0, 3),
				loopOf(1, 1, 1, 2, 2, 2, 2, 1),
			},
		},
		{
			name:   "diagonal pixels four connected",
			mask:   maskFromRows("#.", ".#"),
			conn:   FourConnected,
			target: samtrace.Size{Width: 2, Height: 2},
			want: []samtrace.Loop{
				loopOf(0, 0, 1, 0, 1, 1, 0, 1),
				loopOf(1, 1, 2, 1, 2, 2, 1, 2),
			},
		},
		{
			name:   "diagonal pixels eight connected",
			mask:   maskFromRows("#.", ".#"),
			conn:   EightConnected,
			target: samtrace.Size{Width: 2, Height: 2},
			want: []samtrace.Loop{
				loopOf(0, 0, 1, 0, 1, 1, 2, 1, 2, 2, 1, 2, 1, 1, 0, 1),
			},
		},
		{
			name:   "separate regions in row major order",
			mask:   maskFromRows("..#", "...", "#.."),
			target: samtrace.Size{Width: 3, Height: 3},
			want: []samtrace.Loop{
				loopOf(2, 0, 3, 0, 3, 1, 2, 1),
				loopOf(0, 2, 1, 2, 1, 3, 0, 3),
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tracer := NewTracer(TracerParams{Connectivity: tc.conn})

			path, err := tracer.Trace(tc.mask, tc.target)

			if err != nil {
				t.Fatalf("Trace returned an error: %v", err)
			}

			if diff := cmp.Diff(tc.want, path.Loops); diff != "" {
				t.Errorf("Trace loops mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTraceAllBackground(t *testing.T) {

	mask := samtrace.RasterMask{
		Width:  4,
		Height: 2,
		Data:   []float32{0, -1, -0.5, 0, -3, 0, 0, -100},
	}

	path, err := NewTracer(TracerDefaultParams()).Trace(mask, samtrace.Size{Width: 40, Height: 20})

	if err != nil {
		t.Fatalf("Trace returned an error: %v", err)
	}

	if !path.Empty() {
		t.Errorf("Expected empty path, got %d loops", len(path.Loops))
	}
}

func TestTraceThresholdAtZero(t *testing.T) {

	mask := samtrace.RasterMask{
		Width:  3,
		Height: 1,
		Data:   []float32{0, 0.001, -0.001},
	}

	path, err := NewTracer(TracerDefaultParams()).Trace(mask, samtrace.Size{Width: 3, Height: 1})

	if err != nil {
		t.Fatalf("Trace returned an error: %v", err)
	}

	want := []samtrace.Loop{loopOf(1, 0, 2, 0, 2, 1, 1, 1)}

	if diff := cmp.Diff(want, path.Loops); diff != "" {
		t.Errorf("Trace loops mismatch (-want +got):\n%s", diff)
	}
}

func TestTraceDeterministic(t *testing.T) {

	rng := rand.New(rand.NewSource(42))

	for _, conn := range []Connectivity{FourConnected, EightConnected} {
		tracer := NewTracer(TracerParams{Connectivity: conn})

		for i := 0; i < 10; i++ {
			mask := randomMask(rng, 32, 24, 0.5)
			target := samtrace.Size{Width: 640, Height: 480}

			first, err := tracer.Trace(mask, target)

			if err != nil {
				t.Fatalf("Trace returned an error: %v", err)
			}

			second, _ := tracer.Trace(mask, target)

			if diff := cmp.Diff(first, second); diff != "" {
				t.Errorf("Trace is not deterministic (-first +second):\n%s", diff)
			}
		}
	}
}

func TestTraceAreaMatchesForeground(t *testing.T) {

	rng := rand.New(rand.NewSource(3))

	tests := []struct {
		name   string
		conn   Connectivity
		scaleX float64
		scaleY float64
	}{
		{"four connected unscaled", FourConnected, 1, 1},
		{"eight connected unscaled", EightConnected, 1, 1},
		{"four connected scaled", FourConnected, 2.5, 4},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tracer := NewTracer(TracerParams{Connectivity: tc.conn})

			for i := 0; i < 25; i++ {
				w := 1 + rng.Intn(30)
				h := 1 + rng.Intn(30)
				mask := randomMask(rng, w, h, rng.Float64())
				target := samtrace.Size{
					Width:  int(float64(w) * tc.scaleX),
					Height: int(float64(h) * tc.scaleY),
				}

				path, err := tracer.Trace(mask, target)

				if err != nil {
					t.Fatalf("Trace returned an error: %v", err)
				}

				sx := float64(target.Width) / float64(w)
				sy := float64(target.Height) / float64(h)
				want := float64(mask.ForegroundCount()) * sx * sy

				if math.Abs(path.Area()-want) > 1e-6 {
					t.Errorf("Mask %dx%d: expected area %f, got %f", w, h, want, path.Area())
				}
			}
		})
	}
}

func TestTraceErrors(t *testing.T) {

	tracer := NewTracer(TracerDefaultParams())

	bad := samtrace.RasterMask{Width: 3, Height: 3, Data: make([]float32, 8)}

	if _, err := tracer.Trace(bad, samtrace.Size{Width: 3, Height: 3}); !errors.Is(err, samtrace.ErrDimensionMismatch) {
		t.Errorf("Expected ErrDimensionMismatch for short mask data, got %v", err)
	}

	good := maskFromRows("#")

	if _, err := tracer.Trace(good, samtrace.Size{Width: 0, Height: 3}); !errors.Is(err, samtrace.ErrDimensionMismatch) {
		t.Errorf("Expected ErrDimensionMismatch for zero target width, got %v", err)
	}
}
