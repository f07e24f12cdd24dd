package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/scanprep/pix"
	"github.com/scanprep/pix/filters"
)

func testPage(width, height int) *pix.Buffer {
	buf := &pix.Buffer{Width: width, Height: height, Pix: make([]byte, width*height*4)}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := uint8(170 + x/2) // uneven lighting
			if y%10 >= 4 && y%10 <= 6 && x > 3 && x < width-3 {
				v = 30 // text line
			}
			buf.Set(x, y, v, v, v, 255)
		}
	}
	return buf
}

const receiptRecipe = `
name: receipt
steps:
  - op: grayscale
  - op: contrast
    contrast: 40
  - op: blur
    radius: 0.8
  - op: resize
    width: 20
    height: 10
    resample: lanczos
`

func TestParseRecipe(t *testing.T) {
	r, err := ParseRecipe([]byte(receiptRecipe))
	if err != nil {
		t.Fatal(err)
	}
	if r.Name != "receipt" || len(r.Steps) != 4 {
		t.Fatalf("got %+v", r)
	}
	if r.Steps[1].Contrast != 40 || r.Steps[3].Resample != "lanczos" {
		t.Errorf("step params not decoded: %+v", r.Steps)
	}

	tests := []struct {
		name string
		yaml string
	}{
		{"empty", ""},
		{"no steps", "name: x\nsteps: []\n"},
		{"unknown field", "steps:\n  - op: blur\n    sigma: 2\n"},
		{"unknown op", "steps:\n  - op: warp\n"},
		{"singular contrast", "steps:\n  - op: contrast\n    contrast: 259\n"},
		{"bad resize", "steps:\n  - op: resize\n    width: 0\n    height: 4\n"},
		{"bad edge", "steps:\n  - op: edges\n    edge: canny\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseRecipe([]byte(tc.yaml))
			if !errors.Is(err, pix.ErrInvalidParameter) {
				t.Errorf("got %v, want ErrInvalidParameter", err)
			}
		})
	}
}

func TestLoadRecipe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "receipt.yaml")
	if err := os.WriteFile(path, []byte(receiptRecipe), 0644); err != nil {
		t.Fatal(err)
	}
	r, err := LoadRecipe(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Steps) != 4 {
		t.Errorf("got %d steps", len(r.Steps))
	}
	if _, err := LoadRecipe(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file: got %v", err)
	}
}

func TestPresetRoundTrip(t *testing.T) {
	preset := OCRPreset()
	data, err := preset.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	got, err := ParseRecipe(data)
	if err != nil {
		t.Fatalf("ParseRecipe(%s): %v", data, err)
	}
	if got.Name != preset.Name || len(got.Steps) != len(preset.Steps) {
		t.Fatalf("got %+v", got)
	}
	for i := range got.Steps {
		if got.Steps[i] != preset.Steps[i] {
			t.Errorf("step %d: got %+v, want %+v", i, got.Steps[i], preset.Steps[i])
		}
	}
}

func TestRunOCRPreset(t *testing.T) {
	var logs bytes.Buffer
	r := New(WithLogger(zerolog.New(&logs).Level(zerolog.DebugLevel)))
	src := testPage(60, 40)
	orig := src.Clone()
	out, err := r.Run(context.Background(), src, OCRPreset())
	if err != nil {
		t.Fatal(err)
	}
	if !src.Equal(orig) {
		t.Error("source modified")
	}
	if out.Width != 60 || out.Height != 40 {
		t.Fatalf("got %dx%d", out.Width, out.Height)
	}
	var white int
	for i := 0; i < len(out.Pix); i += 4 {
		r, g, b := out.Pix[i], out.Pix[i+1], out.Pix[i+2]
		if r != g || g != b || (r != 0 && r != 255) {
			t.Fatalf("byte %d: not binary gray %d %d %d", i, r, g, b)
		}
		if r == 255 {
			white++
		}
	}
	// Inverted output: text is white on black.
	if white == 0 || white > len(out.Pix)/8 {
		t.Errorf("unexpected white pixel count %d", white)
	}

	if n := strings.Count(logs.String(), `"message":"step done"`); n != 4 {
		t.Errorf("logged %d step events, want 4:\n%s", n, logs.String())
	}
	if !strings.Contains(logs.String(), `"message":"recipe applied"`) || !strings.Contains(logs.String(), `"backend":"cpu"`) {
		t.Errorf("missing summary log:\n%s", logs.String())
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().Run(ctx, testPage(8, 8), OCRPreset())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

func TestRunInvalid(t *testing.T) {
	r := New()
	bad := &pix.Buffer{Width: 2, Height: 2, Pix: make([]byte, 15)}
	if _, err := r.Run(context.Background(), bad, OCRPreset()); !errors.Is(err, pix.ErrDimensionMismatch) {
		t.Errorf("bad buffer: got %v", err)
	}
	if _, err := r.Run(context.Background(), testPage(4, 4), &Recipe{}); !errors.Is(err, pix.ErrInvalidParameter) {
		t.Errorf("empty recipe: got %v", err)
	}
}

func TestApply(t *testing.T) {
	src := testPage(4, 4)
	out, err := Apply(src, Params{Op: OpResize, Width: 2, Height: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Pix) != 2*2*4 {
		t.Errorf("got %d bytes", len(out.Pix))
	}
	if _, err := Apply(src, Params{Op: OpBinarize, Threshold: 300}); !errors.Is(err, pix.ErrInvalidParameter) {
		t.Errorf("bad threshold: got %v", err)
	}
	for _, op := range Ops {
		p := Params{Op: op, Delta: 10, Threshold: 128, Radius: 1, Width: 3, Height: 3, BlockSize: 3, Size: 2}
		if _, err := Apply(src, p); err != nil {
			t.Errorf("%s: %v", op, err)
		}
	}
}

func TestApplyFilters(t *testing.T) {
	src := testPage(10, 10)
	same, err := ApplyFilters(src)
	if err != nil {
		t.Fatal(err)
	}
	if same == src || !same.Equal(src) {
		t.Error("no filters should return an equal copy")
	}

	contrast, err := filters.NewContrast(30)
	if err != nil {
		t.Fatal(err)
	}
	got, err := ApplyFilters(src, filters.NewGrayscale(filters.GrayscaleAverage), contrast, filters.NewInvert())
	if err != nil {
		t.Fatal(err)
	}
	want, err := New().Run(context.Background(), src, &Recipe{Steps: []Params{
		{Op: OpGrayscale}, {Op: OpContrast, Contrast: 30}, {Op: OpInvert},
	}})
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(want) {
		t.Error("ApplyFilters and Run disagree")
	}
}
