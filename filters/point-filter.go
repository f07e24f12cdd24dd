package filters

import (
	"errors"
	"image"

	"github.com/scanprep/pix"
)

var (
	errShapeMismatch  = errors.New("pixel shape mismatch")
	errInPlace        = errors.New("filter reads neighboring pixels and does not support in-place processing")
	errROIUnsupported = errors.New("filter does not support ROI")
)

// PointFunc processes a contiguous row of pixels.
// dst and src contain rowWidth pixels worth of bytes.
// The function should iterate through pixels: for i := 0; i < len(src); i += bytesPerPixel { ... }
type PointFunc func(dst, src []byte)

// PointFilter applies a per-pixel transformation using a callback function.
// It handles the iteration, buffering, and ROI logic common to all per-pixel filters.
// The callback is invoked once per row with contiguous pixel data.
// Rows are processed concurrently so Fn must not keep state between calls.
type PointFilter struct {
	In    pix.Shape
	Out   pix.Shape
	Fn    PointFunc
	Ctrls []pix.Control // User-defined controls for this filter.
}

// ShapeIO implements [pix.Filter].
func (f *PointFilter) ShapeIO() (output, input pix.Shape) {
	return f.Out, f.In
}

// Controls implements [pix.Filter].
func (f *PointFilter) Controls() []pix.Control {
	return f.Ctrls
}

// Process implements [pix.Filter].
func (f *PointFilter) Process(dst []byte, src pix.Image, roi *image.Rectangle) (pix.Dims, error) {
	if f.Fn == nil {
		return pix.Dims{}, errNilPointFunc
	}

	outShape, inShape := f.ShapeIO()
	srcDims := src.Dims()
	if srcDims.Shape != inShape {
		return pix.Dims{}, errShapeMismatch
	}

	inBytesPerPixel := inShape.BytesPerPixel()
	outBytesPerPixel := outShape.BytesPerPixel()

	// Calculate output dimensions based on ROI or full image.
	var outWidth, outHeight int
	if roi != nil {
		outWidth, outHeight = roi.Dx(), roi.Dy()
	} else {
		outWidth, outHeight = srcDims.Width, srcDims.Height
	}
	outStride := outWidth * outBytesPerPixel

	dstDims := pix.Dims{
		Width:  outWidth,
		Height: outHeight,
		Stride: outStride,
		Shape:  outShape,
	}

	dst, _, err := pix.ValidateProcessArgs(dst, dstDims, src, roi)
	if err != nil {
		return pix.Dims{}, err
	}
	srcBuf, err := pix.ReadAll(src)
	if err != nil {
		return pix.Dims{}, err
	}

	// Determine source region to process.
	startX, startY := 0, 0
	endX := srcDims.Width
	if roi != nil {
		startX, startY = roi.Min.X, roi.Min.Y
		endX = roi.Max.X
	}
	srcStart := startX * inBytesPerPixel
	srcEnd := endX * inBytesPerPixel

	parallelRows(outHeight, func(y0, y1 int) {
		for dstY := y0; dstY < y1; dstY++ {
			srcRow := srcBuf[(startY+dstY)*srcDims.Stride:]
			dstRowStart := dstY * outStride
			f.Fn(dst[dstRowStart:dstRowStart+outStride], srcRow[srcStart:srcEnd])
		}
	})

	return dstDims, nil
}

var errNilPointFunc = errorString("nil PointFunc")

type errorString string

func (e errorString) Error() string { return string(e) }
