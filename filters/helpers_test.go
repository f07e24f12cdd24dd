package filters

import (
	"image/png"
	"math/rand"
	"os"
	"testing"

	"github.com/scanprep/pix"
)

// randomSquares creates an RGBA buffer with random colored squares on a
// black background. Alpha varies per square so alpha handling is exercised.
func randomSquares(rng *rand.Rand, width, height, numSquares, minSize, maxSize int) *pix.Buffer {
	buf := &pix.Buffer{Width: width, Height: height, Pix: make([]byte, width*height*4)}

	// Fill with black (alpha=255)
	for i := 3; i < len(buf.Pix); i += 4 {
		buf.Pix[i] = 255
	}

	for i := 0; i < numSquares; i++ {
		size := minSize + rng.Intn(maxSize-minSize+1)
		x := rng.Intn(width)
		y := rng.Intn(height)

		// Random color (avoid very dark so squares are visible)
		r := uint8(64 + rng.Intn(192))
		g := uint8(64 + rng.Intn(192))
		b := uint8(64 + rng.Intn(192))
		a := uint8(128 + rng.Intn(128))

		fillRect(buf, x, y, size, size, r, g, b, a)
	}
	return buf
}

func fillRect(buf *pix.Buffer, x, y, w, h int, r, g, b, a uint8) {
	for dy := 0; dy < h; dy++ {
		for dx := 0; dx < w; dx++ {
			px, py := x+dx, y+dy
			if px >= 0 && px < buf.Width && py >= 0 && py < buf.Height {
				buf.Set(px, py, r, g, b, a)
			}
		}
	}
}

// uniform returns a buffer with every pixel set to (r,g,b,a).
func uniform(width, height int, r, g, b, a uint8) *pix.Buffer {
	buf := &pix.Buffer{Width: width, Height: height, Pix: make([]byte, width*height*4)}
	fillRect(buf, 0, 0, width, height, r, g, b, a)
	return buf
}

func saveBufferAsPNG(buf *pix.Buffer, path string) error {
	if err := os.MkdirAll("testdata", 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, buf.NRGBA())
}

func mustApply(t *testing.T, f pix.Filter, src *pix.Buffer) *pix.Buffer {
	t.Helper()
	dst, err := Apply(f, src)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	return dst
}

func assertPixel(t *testing.T, buf *pix.Buffer, x, y int, want [4]uint8) {
	t.Helper()
	r, g, b, a := buf.At(x, y)
	if got := [4]uint8{r, g, b, a}; got != want {
		t.Errorf("pixel (%d,%d): got %v, want %v", x, y, got, want)
	}
}
