package filters

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/scanprep/pix"
)

// FlipDirection selects the mirror axis of a [FlipFilter].
type FlipDirection int

const (
	FlipHorizontal FlipDirection = iota // horizontal
	FlipVertical                        // vertical
)

func (d FlipDirection) String() string {
	switch d {
	case FlipHorizontal:
		return "horizontal"
	case FlipVertical:
		return "vertical"
	}
	return "unknown"
}

// FlipFilter mirrors an image. Pixel values are copied unchanged.
type FlipFilter struct {
	dir   FlipDirection
	ctrls []pix.Control
}

// NewFlip creates a filter mirroring along dir.
func NewFlip(dir FlipDirection) (*FlipFilter, error) {
	if dir != FlipHorizontal && dir != FlipVertical {
		return nil, fmt.Errorf("%w: unknown flip direction %d", pix.ErrInvalidParameter, int(dir))
	}
	f := &FlipFilter{dir: dir}
	f.ctrls = []pix.Control{
		&pix.ControlEnum[FlipDirection]{
			Name:        "Direction",
			Description: "Mirror axis",
			Value:       dir,
			ValidValues: []FlipDirection{FlipHorizontal, FlipVertical},
			OnChange: func(d FlipDirection) error {
				f.dir = d
				return nil
			},
		},
	}
	return f, nil
}

// ShapeIO implements [pix.Filter].
func (f *FlipFilter) ShapeIO() (output, input pix.Shape) {
	return pix.ShapeRGBA8888, pix.ShapeRGBA8888
}

// Controls implements [pix.Filter].
func (f *FlipFilter) Controls() []pix.Control { return f.ctrls }

// Process implements [pix.Filter]. In-place processing and ROI are not supported.
func (f *FlipFilter) Process(dst []byte, src pix.Image, roi *image.Rectangle) (pix.Dims, error) {
	dir := f.dir
	dst, srcBuf, dims, err := validateNeighborhoodArgs(dst, src, roi)
	if err != nil {
		return pix.Dims{}, err
	}
	width, height, stride := dims.Width, dims.Height, dims.Stride
	parallelRows(height, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			out := dst[y*stride : (y+1)*stride]
			if dir == FlipVertical {
				sy := height - 1 - y
				copy(out, srcBuf[sy*stride:(sy+1)*stride])
				continue
			}
			in := srcBuf[y*stride : (y+1)*stride]
			for x := 0; x < width; x++ {
				sx := (width - 1 - x) * 4
				copy(out[x*4:x*4+4], in[sx:sx+4])
			}
		}
	})
	return dims, nil
}

// FlipHorizontally returns a copy of src mirrored left to right.
func FlipHorizontally(src *pix.Buffer) (*pix.Buffer, error) {
	return Apply(&FlipFilter{dir: FlipHorizontal}, src)
}

// FlipVertically returns a copy of src mirrored top to bottom.
func FlipVertically(src *pix.Buffer) (*pix.Buffer, error) {
	return Apply(&FlipFilter{dir: FlipVertical}, src)
}

// ResampleMode selects the interpolation used by [ResizeFilter].
type ResampleMode int

const (
	ResampleLinear     ResampleMode = iota // linear
	ResampleNearest                        // nearest
	ResampleCatmullRom                     // catmull-rom
	ResampleLanczos                        // lanczos
)

func (m ResampleMode) String() string {
	switch m {
	case ResampleLinear:
		return "linear"
	case ResampleNearest:
		return "nearest"
	case ResampleCatmullRom:
		return "catmull-rom"
	case ResampleLanczos:
		return "lanczos"
	}
	return "unknown"
}

// ParseResampleMode parses a resampling mode name. The empty string selects linear.
func ParseResampleMode(s string) (ResampleMode, error) {
	for _, m := range []ResampleMode{ResampleLinear, ResampleNearest, ResampleCatmullRom, ResampleLanczos} {
		if s == m.String() {
			return m, nil
		}
	}
	if s == "" {
		return ResampleLinear, nil
	}
	return 0, fmt.Errorf("%w: unknown resample mode %q", pix.ErrInvalidParameter, s)
}

func (m ResampleMode) filter() imaging.ResampleFilter {
	switch m {
	case ResampleNearest:
		return imaging.NearestNeighbor
	case ResampleCatmullRom:
		return imaging.CatmullRom
	case ResampleLanczos:
		return imaging.Lanczos
	}
	return imaging.Linear
}

// ResizeFilter resamples an image to a fixed output size.
type ResizeFilter struct {
	width, height int
	mode          ResampleMode
	ctrls         []pix.Control
}

var _ pix.Sizer = (*ResizeFilter)(nil)

// NewResize creates a filter producing width x height images.
func NewResize(width, height int, mode ResampleMode) (*ResizeFilter, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: resize target %dx%d must be positive", pix.ErrInvalidParameter, width, height)
	}
	if mode < ResampleLinear || mode > ResampleLanczos {
		return nil, fmt.Errorf("%w: unknown resample mode %d", pix.ErrInvalidParameter, int(mode))
	}
	f := &ResizeFilter{width: width, height: height, mode: mode}
	f.ctrls = []pix.Control{
		&pix.ControlEnum[ResampleMode]{
			Name:        "Resampling",
			Description: "Interpolation used when resizing",
			Value:       mode,
			ValidValues: []ResampleMode{ResampleLinear, ResampleNearest, ResampleCatmullRom, ResampleLanczos},
			OnChange: func(m ResampleMode) error {
				f.mode = m
				return nil
			},
		},
	}
	return f, nil
}

// OutputSize implements [pix.Sizer].
func (f *ResizeFilter) OutputSize(_, _ int) (width, height int) {
	return f.width, f.height
}

// ShapeIO implements [pix.Filter].
func (f *ResizeFilter) ShapeIO() (output, input pix.Shape) {
	return pix.ShapeRGBA8888, pix.ShapeRGBA8888
}

// Controls implements [pix.Filter].
func (f *ResizeFilter) Controls() []pix.Control { return f.ctrls }

// Process implements [pix.Filter]. In-place processing and ROI are not supported.
func (f *ResizeFilter) Process(dst []byte, src pix.Image, roi *image.Rectangle) (pix.Dims, error) {
	if dst == nil {
		return pix.Dims{}, errInPlace
	} else if roi != nil {
		return pix.Dims{}, errROIUnsupported
	}
	srcDims := src.Dims()
	if srcDims.Shape != pix.ShapeRGBA8888 {
		return pix.Dims{}, errShapeMismatch
	}
	dstDims := pix.Dims{Width: f.width, Height: f.height, Stride: f.width * 4, Shape: pix.ShapeRGBA8888}
	dst, srcDims, err := pix.ValidateProcessArgs(dst, dstDims, src, nil)
	if err != nil {
		return pix.Dims{}, err
	}
	srcBuf, err := pix.ReadAll(src)
	if err != nil {
		return pix.Dims{}, err
	}
	in := &image.NRGBA{
		Pix:    srcBuf,
		Stride: srcDims.Stride,
		Rect:   image.Rect(0, 0, srcDims.Width, srcDims.Height),
	}
	out := imaging.Resize(in, f.width, f.height, f.mode.filter())
	for y := 0; y < f.height; y++ {
		copy(dst[y*dstDims.Stride:(y+1)*dstDims.Stride], out.Pix[y*out.Stride:])
	}
	return dstDims, nil
}

// Resize returns src resampled to width x height.
func Resize(src *pix.Buffer, width, height int, mode ResampleMode) (*pix.Buffer, error) {
	f, err := NewResize(width, height, mode)
	if err != nil {
		return nil, err
	}
	return Apply(f, src)
}
