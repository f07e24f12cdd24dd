// Package pipeline selects and chains preprocessing filters from plain
// parameter values, such as those read from a YAML recipe or CLI flags.
package pipeline

import (
	"fmt"

	"github.com/scanprep/pix"
	"github.com/scanprep/pix/filters"
)

// Op names a single preprocessing operation.
type Op string

const (
	OpBrightness        Op = "brightness"
	OpContrast          Op = "contrast"
	OpGrayscale         Op = "grayscale"
	OpBinarize          Op = "binarize"
	OpInvert            Op = "invert"
	OpSharpen           Op = "sharpen"
	OpEdges             Op = "edges"
	OpBlur              Op = "blur"
	OpDenoise           Op = "denoise"
	OpFlipHorizontal    Op = "flip-horizontal"
	OpFlipVertical      Op = "flip-vertical"
	OpResize            Op = "resize"
	OpAdaptiveThreshold Op = "adaptive-threshold"
	OpMorphology        Op = "morphology"
)

// Ops lists every supported operation.
var Ops = []Op{
	OpBrightness, OpContrast, OpGrayscale, OpBinarize, OpInvert,
	OpSharpen, OpEdges, OpBlur, OpDenoise,
	OpFlipHorizontal, OpFlipVertical, OpResize,
	OpAdaptiveThreshold, OpMorphology,
}

// Params selects one operation and carries its scalar parameters.
// Fields not used by Op are ignored.
type Params struct {
	Op        Op      `yaml:"op"`
	Delta     int     `yaml:"delta,omitempty"`      // brightness
	Contrast  int     `yaml:"contrast,omitempty"`   // contrast
	Threshold int     `yaml:"threshold,omitempty"`  // binarize
	Radius    float64 `yaml:"radius,omitempty"`     // blur
	Width     int     `yaml:"width,omitempty"`      // resize
	Height    int     `yaml:"height,omitempty"`     // resize
	Resample  string  `yaml:"resample,omitempty"`   // resize
	Edge      string  `yaml:"edge,omitempty"`       // edges
	BlockSize int     `yaml:"block_size,omitempty"` // adaptive-threshold
	Offset    float64 `yaml:"offset,omitempty"`     // adaptive-threshold
	Invert    bool    `yaml:"invert,omitempty"`     // adaptive-threshold
	Morph     string  `yaml:"morph,omitempty"`      // morphology
	Size      int     `yaml:"size,omitempty"`       // morphology
}

// Filter builds the filter selected by p. Invalid parameters are reported
// here, before any pixel memory is allocated.
func (p Params) Filter() (pix.Filter, error) {
	switch p.Op {
	case OpBrightness:
		return filters.NewBrightness(p.Delta), nil
	case OpContrast:
		return filters.NewContrast(p.Contrast)
	case OpGrayscale:
		return filters.NewGrayscale(filters.GrayscaleAverage), nil
	case OpBinarize:
		return filters.NewBinarize(p.Threshold)
	case OpInvert:
		return filters.NewInvert(), nil
	case OpSharpen:
		return filters.NewSharpen(), nil
	case OpEdges:
		kind, err := filters.ParseEdgeKind(p.Edge)
		if err != nil {
			return nil, err
		}
		return filters.NewEdgeDetection(kind)
	case OpBlur:
		return filters.NewGaussianBlur(p.Radius)
	case OpDenoise:
		return filters.NewDenoise(), nil
	case OpFlipHorizontal:
		return filters.NewFlip(filters.FlipHorizontal)
	case OpFlipVertical:
		return filters.NewFlip(filters.FlipVertical)
	case OpResize:
		mode, err := filters.ParseResampleMode(p.Resample)
		if err != nil {
			return nil, err
		}
		return filters.NewResize(p.Width, p.Height, mode)
	case OpAdaptiveThreshold:
		return filters.NewAdaptiveThreshold(p.BlockSize, p.Offset, p.Invert)
	case OpMorphology:
		op, err := filters.ParseMorphOp(p.Morph)
		if err != nil {
			return nil, err
		}
		return filters.NewMorphology(op, p.Size)
	}
	return nil, fmt.Errorf("%w: unknown operation %q", pix.ErrInvalidParameter, p.Op)
}

// Apply runs the single operation selected by p over src and returns a new buffer.
func Apply(src *pix.Buffer, p Params) (*pix.Buffer, error) {
	f, err := p.Filter()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.Op, err)
	}
	dst, err := filters.Apply(f, src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.Op, err)
	}
	return dst, nil
}
