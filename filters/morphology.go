package filters

import (
	"fmt"
	"image"

	"github.com/scanprep/pix"
)

// MorphOp is a morphological operation with a square structuring element.
type MorphOp int

const (
	MorphOpen   MorphOp = iota // open
	MorphClose                 // close
	MorphErode                 // erode
	MorphDilate                // dilate
)

func (op MorphOp) String() string {
	switch op {
	case MorphOpen:
		return "open"
	case MorphClose:
		return "close"
	case MorphErode:
		return "erode"
	case MorphDilate:
		return "dilate"
	}
	return "unknown"
}

// ParseMorphOp parses a morphological operation name. The empty string selects open.
func ParseMorphOp(s string) (MorphOp, error) {
	for _, op := range []MorphOp{MorphOpen, MorphClose, MorphErode, MorphDilate} {
		if s == op.String() {
			return op, nil
		}
	}
	if s == "" {
		return MorphOpen, nil
	}
	return 0, fmt.Errorf("%w: unknown morphological operation %q", pix.ErrInvalidParameter, s)
}

// MorphologyFilter applies erosion (channel minimum) and dilation (channel
// maximum) over a size x size window. Samples outside the image are ignored.
// Opening removes specks smaller than the window, closing fills small holes.
type MorphologyFilter struct {
	op   MorphOp
	size int
}

// NewMorphology creates a morphological filter. size must be at least 1.
func NewMorphology(op MorphOp, size int) (*MorphologyFilter, error) {
	if op < MorphOpen || op > MorphDilate {
		return nil, fmt.Errorf("%w: unknown morphological operation %d", pix.ErrInvalidParameter, int(op))
	} else if size < 1 {
		return nil, fmt.Errorf("%w: structuring element size %d", pix.ErrInvalidParameter, size)
	}
	return &MorphologyFilter{op: op, size: size}, nil
}

// ShapeIO implements [pix.Filter].
func (f *MorphologyFilter) ShapeIO() (output, input pix.Shape) {
	return pix.ShapeRGBA8888, pix.ShapeRGBA8888
}

// Controls implements [pix.Filter].
func (f *MorphologyFilter) Controls() []pix.Control { return nil }

// Process implements [pix.Filter]. In-place processing and ROI are not supported.
func (f *MorphologyFilter) Process(dst []byte, src pix.Image, roi *image.Rectangle) (pix.Dims, error) {
	dst, srcBuf, dims, err := validateNeighborhoodArgs(dst, src, roi)
	if err != nil {
		return pix.Dims{}, err
	}
	// Window offsets of the anchor-centered element. Dilation uses the
	// reflected element so that open and close are idempotent for even sizes.
	lo, hi := -(f.size / 2), (f.size-1)/2
	erode := func(out, in []byte) { rankFilter(out, in, dims, lo, hi, false) }
	dilate := func(out, in []byte) { rankFilter(out, in, dims, -hi, -lo, true) }
	switch f.op {
	case MorphErode:
		erode(dst, srcBuf)
	case MorphDilate:
		dilate(dst, srcBuf)
	case MorphOpen, MorphClose:
		first, second := erode, dilate
		if f.op == MorphClose {
			first, second = dilate, erode
		}
		tmp := make([]byte, len(dst))
		first(tmp, srcBuf)
		second(dst, tmp)
	}
	return dims, nil
}

// rankFilter writes the per-channel minimum (or maximum) over the window
// [lo,hi]x[lo,hi] of each pixel. Rectangular elements are separable so it
// runs a horizontal and then a vertical pass.
func rankFilter(dst, src []byte, d pix.Dims, lo, hi int, isMax bool) {
	width, height, stride := d.Width, d.Height, d.Stride
	pick := func(a, b byte) byte {
		if isMax {
			return max(a, b)
		}
		return min(a, b)
	}
	tmp := make([]byte, len(dst))
	parallelRows(height, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < width; x++ {
				o := y*stride + x*4
				r, g, b := src[o], src[o+1], src[o+2]
				for dx := lo; dx <= hi; dx++ {
					sx := x + dx
					if dx == 0 || sx < 0 || sx >= width {
						continue
					}
					p := src[y*stride+sx*4:]
					r, g, b = pick(r, p[0]), pick(g, p[1]), pick(b, p[2])
				}
				tmp[o], tmp[o+1], tmp[o+2], tmp[o+3] = r, g, b, src[o+3]
			}
		}
	})
	parallelRows(height, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < width; x++ {
				o := y*stride + x*4
				r, g, b := tmp[o], tmp[o+1], tmp[o+2]
				for dy := lo; dy <= hi; dy++ {
					sy := y + dy
					if dy == 0 || sy < 0 || sy >= height {
						continue
					}
					p := tmp[sy*stride+x*4:]
					r, g, b = pick(r, p[0]), pick(g, p[1]), pick(b, p[2])
				}
				dst[o], dst[o+1], dst[o+2], dst[o+3] = r, g, b, tmp[o+3]
			}
		}
	})
}

// Morphology returns a copy of src processed by op, see [NewMorphology].
func Morphology(src *pix.Buffer, op MorphOp, size int) (*pix.Buffer, error) {
	f, err := NewMorphology(op, size)
	if err != nil {
		return nil, err
	}
	return Apply(f, src)
}
