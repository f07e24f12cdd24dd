package filters

import (
	"fmt"

	"github.com/scanprep/pix"
)

// Apply runs f over src and returns the result in a newly allocated buffer.
// src is never modified. On error no buffer is returned.
func Apply(f pix.Filter, src *pix.Buffer) (*pix.Buffer, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	out, in := f.ShapeIO()
	if in != pix.ShapeRGBA8888 || out != pix.ShapeRGBA8888 {
		return nil, fmt.Errorf("%w: filter maps %s to %s, want rgba8888", errShapeMismatch, in, out)
	}
	width, height := src.Width, src.Height
	if s, ok := f.(pix.Sizer); ok {
		width, height = s.OutputSize(width, height)
	}
	dst, err := pix.NewBuffer(width, height)
	if err != nil {
		return nil, err
	}
	dims, err := f.Process(dst.Pix, src, nil)
	if err != nil {
		return nil, err
	}
	if dims.Width != width || dims.Height != height {
		return nil, fmt.Errorf("%w: filter produced %dx%d, expected %dx%d", pix.ErrDimensionMismatch, dims.Width, dims.Height, width, height)
	}
	return dst, nil
}
