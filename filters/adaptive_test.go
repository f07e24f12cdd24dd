package filters

import (
	"errors"
	"testing"

	"github.com/scanprep/pix"
)

func TestAdaptiveThresholdUniform(t *testing.T) {
	src := uniform(20, 20, 90, 90, 90, 200)
	dst, err := AdaptiveThreshold(src, 15, 10, false)
	if err != nil {
		t.Fatal(err)
	}
	assertPixel(t, dst, 0, 0, [4]uint8{255, 255, 255, 200})
	assertPixel(t, dst, 19, 10, [4]uint8{255, 255, 255, 200})

	inv, err := AdaptiveThreshold(src, 15, 10, true)
	if err != nil {
		t.Fatal(err)
	}
	assertPixel(t, inv, 5, 5, [4]uint8{0, 0, 0, 200})
}

func TestAdaptiveThresholdText(t *testing.T) {
	// A dark stroke on a page with a lighting gradient.
	src := uniform(40, 21, 0, 0, 0, 255)
	for x := 0; x < 40; x++ {
		v := uint8(120 + 3*x)
		fillRect(src, x, 0, 1, 21, v, v, v, 255)
	}
	fillRect(src, 5, 10, 30, 1, 20, 20, 20, 255)
	dst, err := AdaptiveThreshold(src, 7, 5, true)
	if err != nil {
		t.Fatal(err)
	}
	for x := 5; x < 35; x++ {
		assertPixel(t, dst, x, 10, [4]uint8{255, 255, 255, 255})
	}
	assertPixel(t, dst, 2, 2, [4]uint8{0, 0, 0, 255})
	assertPixel(t, dst, 37, 18, [4]uint8{0, 0, 0, 255})
}

func TestAdaptiveThresholdBlockSize(t *testing.T) {
	for _, bs := range []int{0, 1, 4, 16} {
		if _, err := NewAdaptiveThreshold(bs, 0, false); !errors.Is(err, pix.ErrInvalidParameter) {
			t.Errorf("block size %d: got %v", bs, err)
		}
	}
}

func TestAdaptiveThresholdLargeBlock(t *testing.T) {
	for _, bs := range []int{3, 31, 33, 51, 101} {
		w := blockWeights(bs)
		if len(w) != bs {
			t.Errorf("block size %d: got %d taps", bs, len(w))
		}
		if w[0] <= 0 || w[0] != w[bs-1] {
			t.Errorf("block size %d: outer taps %v %v", bs, w[0], w[bs-1])
		}
	}
	if _, err := AdaptiveThreshold(uniform(8, 8, 40, 40, 40, 255), 51, 5, false); err != nil {
		t.Fatal(err)
	}
}

func TestMorphologyOpen(t *testing.T) {
	src := uniform(12, 12, 0, 0, 0, 255)
	src.Set(1, 1, 255, 255, 255, 255) // speck
	fillRect(src, 5, 5, 3, 3, 255, 255, 255, 255)
	dst, err := Morphology(src, MorphOpen, 2)
	if err != nil {
		t.Fatal(err)
	}
	assertPixel(t, dst, 1, 1, [4]uint8{0, 0, 0, 255})
	for y := 5; y < 8; y++ {
		for x := 5; x < 8; x++ {
			assertPixel(t, dst, x, y, [4]uint8{255, 255, 255, 255})
		}
	}
	assertPixel(t, dst, 8, 8, [4]uint8{0, 0, 0, 255})
	assertPixel(t, dst, 4, 5, [4]uint8{0, 0, 0, 255})

	again, err := Morphology(dst, MorphOpen, 2)
	if err != nil {
		t.Fatal(err)
	}
	if !again.Equal(dst) {
		t.Error("opening should be idempotent")
	}
}

func TestMorphologyOps(t *testing.T) {
	src := uniform(7, 7, 255, 255, 255, 255)
	src.Set(3, 3, 0, 0, 0, 255)
	closed, err := Morphology(src, MorphClose, 3)
	if err != nil {
		t.Fatal(err)
	}
	assertPixel(t, closed, 3, 3, [4]uint8{255, 255, 255, 255})

	eroded, err := Morphology(src, MorphErode, 3)
	if err != nil {
		t.Fatal(err)
	}
	assertPixel(t, eroded, 2, 2, [4]uint8{0, 0, 0, 255})
	assertPixel(t, eroded, 4, 4, [4]uint8{0, 0, 0, 255})
	assertPixel(t, eroded, 0, 0, [4]uint8{255, 255, 255, 255})
	assertPixel(t, eroded, 5, 3, [4]uint8{255, 255, 255, 255})

	dilated, err := Morphology(eroded, MorphDilate, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !dilated.Equal(eroded) {
		t.Error("size 1 dilation should be the identity")
	}

	if _, err := NewMorphology(MorphOpen, 0); !errors.Is(err, pix.ErrInvalidParameter) {
		t.Errorf("size 0: got %v", err)
	}
	if _, err := ParseMorphOp("tophat"); !errors.Is(err, pix.ErrInvalidParameter) {
		t.Errorf("unknown op: got %v", err)
	}
}
