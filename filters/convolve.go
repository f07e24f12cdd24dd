package filters

import (
	"image"

	"github.com/scanprep/pix"
)

// ConvolutionFilter applies a square kernel to the neighborhood of every
// pixel. Neighbors outside the image contribute zero to the weighted sum.
// Color channels are convolved independently, alpha is copied from the
// center pixel.
type ConvolutionFilter struct {
	kernel Kernel
	ctrls  []pix.Control
}

// NewConvolution creates a filter for an arbitrary odd-sided kernel.
func NewConvolution(k Kernel) (*ConvolutionFilter, error) {
	if err := k.Validate(); err != nil {
		return nil, err
	}
	return &ConvolutionFilter{kernel: k}, nil
}

// NewSharpen creates the 3x3 sharpening filter.
func NewSharpen() *ConvolutionFilter {
	return &ConvolutionFilter{kernel: sharpenKernel}
}

// NewEdgeDetection creates an edge detection filter for kind.
// Only the horizontal kernel of the family is applied.
func NewEdgeDetection(kind EdgeKind) (*ConvolutionFilter, error) {
	kx, _, err := EdgeKernels(kind)
	if err != nil {
		return nil, err
	}
	f := &ConvolutionFilter{kernel: kx}
	f.ctrls = []pix.Control{
		&pix.ControlEnum[EdgeKind]{
			Name:        "Kernel",
			Description: "Edge detection kernel family",
			Value:       kind,
			ValidValues: []EdgeKind{EdgeGradient, EdgeLaplacian},
			OnChange: func(k EdgeKind) error {
				kx, _, err := EdgeKernels(k)
				if err == nil {
					f.kernel = kx
				}
				return err
			},
		},
	}
	return f, nil
}

// Kernel returns the kernel currently applied by the filter.
func (f *ConvolutionFilter) Kernel() Kernel { return f.kernel }

// ShapeIO implements [pix.Filter].
func (f *ConvolutionFilter) ShapeIO() (output, input pix.Shape) {
	return pix.ShapeRGBA8888, pix.ShapeRGBA8888
}

// Controls implements [pix.Filter].
func (f *ConvolutionFilter) Controls() []pix.Control { return f.ctrls }

// Process implements [pix.Filter]. In-place processing and ROI are not supported.
func (f *ConvolutionFilter) Process(dst []byte, src pix.Image, roi *image.Rectangle) (pix.Dims, error) {
	k := f.kernel
	dst, srcBuf, dims, err := validateNeighborhoodArgs(dst, src, roi)
	if err != nil {
		return pix.Dims{}, err
	}
	if err := k.Validate(); err != nil {
		return pix.Dims{}, err
	}
	parallelRows(dims.Height, func(y0, y1 int) {
		convolveRows(dst, srcBuf, dims, k, y0, y1)
	})
	return dims, nil
}

// validateNeighborhoodArgs performs the argument checks shared by filters
// reading neighboring pixels: a distinct destination, no ROI and RGBA input.
// The returned dims describe both source and destination.
func validateNeighborhoodArgs(dst []byte, src pix.Image, roi *image.Rectangle) (_, srcBuf []byte, dims pix.Dims, err error) {
	if dst == nil {
		return nil, nil, pix.Dims{}, errInPlace
	} else if roi != nil {
		return nil, nil, pix.Dims{}, errROIUnsupported
	}
	srcDims := src.Dims()
	if srcDims.Shape != pix.ShapeRGBA8888 {
		return nil, nil, pix.Dims{}, errShapeMismatch
	}
	dims = pix.Dims{Width: srcDims.Width, Height: srcDims.Height, Stride: srcDims.Width * 4, Shape: pix.ShapeRGBA8888}
	dst, srcDims, err = pix.ValidateProcessArgs(dst, dims, src, nil)
	if err != nil {
		return nil, nil, pix.Dims{}, err
	}
	srcBuf, err = pix.ReadAll(src)
	if err != nil {
		return nil, nil, pix.Dims{}, err
	}
	if srcDims.Stride != dims.Stride {
		srcBuf = packRows(srcBuf, srcDims)
	}
	return dst, srcBuf, dims, nil
}

// packRows copies padded rows into a tightly packed buffer.
func packRows(buf []byte, d pix.Dims) []byte {
	row := d.SizeRow()
	packed := make([]byte, row*d.Height)
	for y := 0; y < d.Height; y++ {
		copy(packed[y*row:(y+1)*row], buf[y*d.Stride:])
	}
	return packed
}

func convolveRows(dst, src []byte, d pix.Dims, k Kernel, y0, y1 int) {
	width, height, stride := d.Width, d.Height, d.Stride
	half := k.Half()
	for y := y0; y < y1; y++ {
		for x := 0; x < width; x++ {
			var r, g, b float64
			for ky := -half; ky <= half; ky++ {
				sy := y + ky
				if sy < 0 || sy >= height {
					continue
				}
				row := src[sy*stride : (sy+1)*stride]
				weights := k.Weights[(ky+half)*k.Side : (ky+half+1)*k.Side]
				for kx := -half; kx <= half; kx++ {
					sx := x + kx
					w := weights[kx+half]
					if sx < 0 || sx >= width || w == 0 {
						continue
					}
					p := row[sx*4 : sx*4+3]
					r += float64(p[0]) * w
					g += float64(p[1]) * w
					b += float64(p[2]) * w
				}
			}
			o := y*stride + x*4
			dst[o] = clampRound(r / k.Divisor)
			dst[o+1] = clampRound(g / k.Divisor)
			dst[o+2] = clampRound(b / k.Divisor)
			dst[o+3] = src[o+3]
		}
	}
}

// Convolve returns a new buffer with k applied to src.
func Convolve(src *pix.Buffer, k Kernel) (*pix.Buffer, error) {
	f, err := NewConvolution(k)
	if err != nil {
		return nil, err
	}
	return Apply(f, src)
}

// ApplySharpen returns a sharpened copy of src.
func ApplySharpen(src *pix.Buffer) (*pix.Buffer, error) {
	return Apply(NewSharpen(), src)
}

// ApplyEdgeDetection returns a new buffer holding the horizontal edge response of src.
func ApplyEdgeDetection(src *pix.Buffer, kind EdgeKind) (*pix.Buffer, error) {
	f, err := NewEdgeDetection(kind)
	if err != nil {
		return nil, err
	}
	return Apply(f, src)
}
