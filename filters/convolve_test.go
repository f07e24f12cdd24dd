package filters

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/scanprep/pix"
)

func TestKernelValidation(t *testing.T) {
	tests := []struct {
		name    string
		weights []float64
		divisor float64
		want    error
	}{
		{"empty", nil, 1, pix.ErrInvalidKernel},
		{"even", []float64{1, 1, 1, 1}, 1, pix.ErrInvalidKernel},
		{"not square", []float64{1, 1, 1}, 1, pix.ErrInvalidKernel},
		{"zero divisor", []float64{0, 0, 0, 0, 1, 0, 0, 0, 0}, 0, pix.ErrInvalidParameter},
		{"nan divisor", []float64{1}, math.NaN(), pix.ErrInvalidParameter},
		{"ok 1x1", []float64{2}, 2, nil},
		{"ok 5x5", make([]float64, 25), 1, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewKernel(tc.weights, tc.divisor)
			if tc.want == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			} else if !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
	if err := (Kernel{Side: 2, Weights: []float64{1, 1, 1, 1}, Divisor: 1}).Validate(); !errors.Is(err, pix.ErrInvalidKernel) {
		t.Errorf("even side: got %v", err)
	}
}

func TestSharpenSinglePixel(t *testing.T) {
	// All eight neighbors lie outside the image and contribute zero.
	src := &pix.Buffer{Width: 1, Height: 1, Pix: []byte{10, 20, 30, 77}}
	dst, err := ApplySharpen(src)
	if err != nil {
		t.Fatal(err)
	}
	assertPixel(t, dst, 0, 0, [4]uint8{50, 100, 150, 77})

	src = &pix.Buffer{Width: 1, Height: 1, Pix: []byte{100, 0, 255, 1}}
	dst, err = ApplySharpen(src)
	if err != nil {
		t.Fatal(err)
	}
	assertPixel(t, dst, 0, 0, [4]uint8{255, 0, 255, 1})
}

func TestSharpenZeroFill(t *testing.T) {
	dst, err := ApplySharpen(uniform(3, 3, 50, 50, 50, 255))
	if err != nil {
		t.Fatal(err)
	}
	assertPixel(t, dst, 1, 1, [4]uint8{50, 50, 50, 255})    // interior, unchanged
	assertPixel(t, dst, 0, 0, [4]uint8{150, 150, 150, 255}) // two neighbors missing
	assertPixel(t, dst, 1, 0, [4]uint8{100, 100, 100, 255}) // one neighbor missing
}

func TestBoxKernelDivisor(t *testing.T) {
	box := make([]float64, 9)
	for i := range box {
		box[i] = 1
	}
	k, err := NewKernel(box, 9)
	if err != nil {
		t.Fatal(err)
	}
	dst, err := Convolve(uniform(3, 3, 90, 90, 90, 200), k)
	if err != nil {
		t.Fatal(err)
	}
	assertPixel(t, dst, 1, 1, [4]uint8{90, 90, 90, 200})
	assertPixel(t, dst, 0, 0, [4]uint8{40, 40, 40, 200})
	assertPixel(t, dst, 2, 1, [4]uint8{60, 60, 60, 200})
}

func TestEdgeDetectionGradient(t *testing.T) {
	src := &pix.Buffer{Width: 3, Height: 1, Pix: []byte{
		10, 10, 10, 255,
		20, 20, 20, 255,
		30, 30, 30, 255,
	}}
	dst, err := ApplyEdgeDetection(src, EdgeGradient)
	if err != nil {
		t.Fatal(err)
	}
	assertPixel(t, dst, 0, 0, [4]uint8{40, 40, 40, 255})
	assertPixel(t, dst, 1, 0, [4]uint8{40, 40, 40, 255})
	assertPixel(t, dst, 2, 0, [4]uint8{0, 0, 0, 255})
}

func TestEdgeDetectionLaplacian(t *testing.T) {
	// The laplacian family kernel has a zero middle row and only responds
	// to vertical change.
	src := &pix.Buffer{Width: 1, Height: 3, Pix: []byte{
		10, 10, 10, 255,
		20, 20, 20, 255,
		30, 30, 30, 255,
	}}
	dst, err := ApplyEdgeDetection(src, EdgeLaplacian)
	if err != nil {
		t.Fatal(err)
	}
	assertPixel(t, dst, 0, 0, [4]uint8{20, 20, 20, 255})
	assertPixel(t, dst, 0, 1, [4]uint8{20, 20, 20, 255})
	assertPixel(t, dst, 0, 2, [4]uint8{0, 0, 0, 255})

	horizontal := &pix.Buffer{Width: 3, Height: 1, Pix: src.Pix}
	dst, err = ApplyEdgeDetection(horizontal, EdgeLaplacian)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range dst.Pix {
		if i%4 != 3 && v != 0 {
			t.Fatalf("byte %d: got %d, want 0", i, v)
		}
	}
}

func TestEdgeKernels(t *testing.T) {
	x, y, err := EdgeKernels(EdgeGradient)
	if err != nil {
		t.Fatal(err)
	}
	if x.Weights[2] != 1 || y.Weights[7] != 2 {
		t.Errorf("unexpected gradient kernels %v %v", x.Weights, y.Weights)
	}
	f, err := NewEdgeDetection(EdgeGradient)
	if err != nil {
		t.Fatal(err)
	}
	// Only the horizontal kernel is applied.
	if got := f.Kernel().Weights; got[1] != 0 || got[3] != -2 {
		t.Errorf("edge filter kernel %v is not the horizontal gradient", got)
	}
	if err := pix.FindControl(f.Controls(), "Kernel").ChangeValue(EdgeLaplacian); err != nil {
		t.Fatal(err)
	}
	if got := f.Kernel().Weights; got[1] != -1 {
		t.Errorf("control did not switch kernel: %v", got)
	}
	if _, err := NewEdgeDetection(EdgeKind(5)); !errors.Is(err, pix.ErrInvalidParameter) {
		t.Errorf("unknown kind: got %v", err)
	}
	for name, want := range map[string]EdgeKind{"sobel": EdgeGradient, "gradient": EdgeGradient, "laplacian": EdgeLaplacian} {
		got, err := ParseEdgeKind(name)
		if err != nil || got != want {
			t.Errorf("ParseEdgeKind(%q) = %v, %v", name, got, err)
		}
	}
}

// referenceConvolve is a direct single-threaded transcription of the
// zero-fill convolution used to check the banded implementation.
func referenceConvolve(src *pix.Buffer, k Kernel) *pix.Buffer {
	dst := &pix.Buffer{Width: src.Width, Height: src.Height, Pix: make([]byte, len(src.Pix))}
	half := k.Half()
	for y := 0; y < src.Height; y++ {
		for x := 0; x < src.Width; x++ {
			var sum [3]float64
			for ky := -half; ky <= half; ky++ {
				for kx := -half; kx <= half; kx++ {
					sx, sy := x+kx, y+ky
					if sx < 0 || sy < 0 || sx >= src.Width || sy >= src.Height {
						continue
					}
					w := k.Weights[(ky+half)*k.Side+kx+half]
					r, g, b, _ := src.At(sx, sy)
					sum[0] += float64(r) * w
					sum[1] += float64(g) * w
					sum[2] += float64(b) * w
				}
			}
			_, _, _, a := src.At(x, y)
			dst.Set(x, y, clampRound(sum[0]/k.Divisor), clampRound(sum[1]/k.Divisor), clampRound(sum[2]/k.Divisor), a)
		}
	}
	return dst
}

func TestConvolveMatchesReference(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	src := randomSquares(rng, 97, 131, 40, 3, 30)
	k5 := make([]float64, 25)
	for i := range k5 {
		k5[i] = float64(rng.Intn(7) - 3)
	}
	kernels := map[string]Kernel{
		"sharpen":   sharpenKernel,
		"gradient":  gradientX,
		"laplacian": laplacianKernel,
		"random5x5": mustKernel(3, k5...),
	}
	for name, k := range kernels {
		t.Run(name, func(t *testing.T) {
			got, err := Convolve(src, k)
			if err != nil {
				t.Fatal(err)
			}
			if want := referenceConvolve(src, k); !got.Equal(want) {
				t.Error("banded convolution differs from reference")
			}
		})
	}
}

func TestConvolutionRejectsInPlace(t *testing.T) {
	buf := uniform(4, 4, 1, 2, 3, 4)
	if _, err := NewSharpen().Process(nil, buf, nil); err == nil {
		t.Error("expected in-place error")
	}
}

func TestGaussianBlur(t *testing.T) {
	src := uniform(40, 40, 100, 150, 200, 255)
	dst, err := ApplyBlur(src, 1)
	if err != nil {
		t.Fatal(err)
	}
	assertPixel(t, dst, 20, 20, [4]uint8{100, 150, 200, 255})
	if r, _, _, _ := dst.At(0, 0); r >= 100 {
		t.Errorf("corner should darken under zero-fill, got %d", r)
	}

	same, err := ApplyBlur(src, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !same.Equal(src) {
		t.Error("radius 0 should copy the image")
	}

	for _, r := range []float64{-1, math.NaN(), math.Inf(1)} {
		if _, err := NewGaussianBlur(r); !errors.Is(err, pix.ErrInvalidParameter) {
			t.Errorf("radius %v: got %v", r, err)
		}
	}
	f, err := NewGaussianBlur(1)
	if err != nil {
		t.Fatal(err)
	}
	if err := pix.FindControl(f.Controls(), "Radius").ChangeValue(math.NaN()); !errors.Is(err, pix.ErrInvalidParameter) {
		t.Errorf("NaN radius through control: got %v", err)
	}
}

func TestGaussianBlurTinyRadius(t *testing.T) {
	src := uniform(3, 3, 200, 200, 200, 255)
	for _, r := range []float64{1e-200, 1e-300, math.SmallestNonzeroFloat64, 1e-100} {
		w := gaussianWeights(r, 2)
		for _, v := range w {
			if math.IsNaN(v) {
				t.Fatalf("radius %v: NaN weights %v", r, w)
			}
		}
		dst, err := ApplyBlur(src, r)
		if err != nil {
			t.Fatalf("radius %v: %v", r, err)
		}
		if !dst.Equal(src) {
			t.Errorf("radius %v: got center %v, want identity", r, dst.Pix[16:20])
		}
	}
}

func TestGaussianBlurLargeRadius(t *testing.T) {
	src := uniform(40, 30, 100, 150, 200, 255)
	for _, r := range []float64{150, 1e7} {
		dst, err := ApplyBlur(src, r)
		if err != nil {
			t.Fatalf("radius %v: %v", r, err)
		}
		if dst.Width != 40 || dst.Height != 30 {
			t.Fatalf("radius %v: got %dx%d", r, dst.Width, dst.Height)
		}
		// Most of the kernel mass falls outside the image.
		if cr, _, _, a := dst.At(20, 15); cr >= 100 || a != 255 {
			t.Errorf("radius %v: center red %d alpha %d", r, cr, a)
		}
	}
	// Truncating the returned taps to the image must not change normalization.
	full := gaussianWeights(5, 100)
	cut := gaussianWeights(5, 3)
	if len(cut) != 7 || math.Abs(cut[3]-full[15]) > 1e-15 {
		t.Errorf("truncated weights %v do not match full kernel center %v", cut, full[15])
	}
}

func TestBlurSmoothsCheckerboard(t *testing.T) {
	src := uniform(32, 32, 0, 0, 0, 255)
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			if (x+y)%2 == 0 {
				src.Set(x, y, 255, 255, 255, 255)
			}
		}
	}
	dst, err := RemoveNoise(src)
	if err != nil {
		t.Fatal(err)
	}
	for y := 10; y < 22; y++ {
		for x := 10; x < 22; x++ {
			if r, _, _, _ := dst.At(x, y); r < 110 || r > 145 {
				t.Fatalf("pixel (%d,%d) = %d, want near 127", x, y, r)
			}
		}
	}
	if err := saveBufferAsPNG(dst, "testdata/denoise_checkerboard.png"); err != nil {
		t.Logf("failed to save output: %v", err)
	}
}
