package pix

import (
	"errors"
	"fmt"
	"image"
	"io"
)

// Image is a low-level, whole-buffer image access abstraction of raw memory.
// It does not do bounds abstraction. As made implicit by Dims signature, row spacing must be homogenous in images.
type Image interface {
	// Dims returns information on in-memory image structure.
	// Row spacing must be homogenous in entire image separated by stride bytes.
	Dims() Dims
	// ReadAt reads from the image buffer of pixels, which may be in-memory or elsewhere (disk, network).
	//
	// Users should always try casting [Image] to [ImageBuffered]
	// to see if they can work with the image in-memory which is more efficient.
	io.ReaderAt
}

type ImageBuffered interface {
	Image
	// Buffer returns the raw underlying buffer for images stored in memory.
	// Buffer returns the entire buffer or nil to signal buffer is currently not in memory.
	Buffer() []byte
}

// Filter is the common contract of every preprocessing operation.
//
// Filters never modify src. Neighborhood and geometric filters
// always write to a separate destination and reject in-place calls.
type Filter interface {
	// ShapeIO returns expected output and input [Shape] of the filter.
	// output shape MUST match Process [Dims.Shape] output.
	ShapeIO() (output, input Shape)
	// Process processes an input image and writes the result to
	// destination buffer and returns the dimensions of the resulting image.
	//
	// If destination buffer is nil Filter will assert [ImageBuffered.Buffer] non-nilness
	// and use the buffer as the destination data. In-place does not support ROI.
	// Use [ValidateProcessArgs] to acquire dst buffer and validate arguments.
	Process(dstOrNilForInPlace []byte, src Image, roi *image.Rectangle) (Dims, error)
	// Controls returns the actual controls of the filter.
	// Controls should remain valid even after calling [Control.ChangeValue]
	// and their [Control.ActualValue] return the updated value.
	Controls() []Control
}

// Sizer is implemented by filters whose output dimensions differ from
// their input, such as resampling filters.
type Sizer interface {
	OutputSize(srcWidth, srcHeight int) (width, height int)
}

type Shape int

const (
	shapeUndefined Shape = iota // undefined
	ShapeRGBA8888               // rgba8888
	ShapeRGB888                 // rgb888
	ShapeGray8                  // gray8
)

func (sh Shape) String() string {
	switch sh {
	case ShapeRGBA8888:
		return "rgba8888"
	case ShapeRGB888:
		return "rgb888"
	case ShapeGray8:
		return "gray8"
	}
	return "undefined"
}

func (sh Shape) BitsPerPixel() (bits int) {
	switch sh {
	default:
		bits = -1
	case ShapeRGBA8888:
		bits = 32
	case ShapeRGB888:
		bits = 24
	case ShapeGray8:
		bits = 8
	}
	return bits
}

// BytesPerPixel returns the whole number of bytes a pixel of the shape occupies.
func (sh Shape) BytesPerPixel() int {
	return (sh.BitsPerPixel() + 7) / 8
}

type Dims struct {
	Width  int
	Height int
	Stride int
	Shape  Shape
}

func (d Dims) Validate() error {
	pixbits := d.Shape.BitsPerPixel()
	if d.Height <= 0 || d.Width <= 0 {
		return fmt.Errorf("%w: empty image %dx%d", ErrDimensionMismatch, d.Width, d.Height)
	} else if pixbits < 1 {
		return errors.New("bad pixel shape")
	} else if (d.Width*pixbits+7)/8 > d.Stride {
		return fmt.Errorf("%w: stride smaller than pixel row size", ErrDimensionMismatch)
	}
	return nil
}

func (d Dims) NumPixels() int64 {
	return int64(d.Height) * int64(d.Width)
}

// Size returns the readable section size of raw image in bytes.
func (d Dims) Size() int64 {
	if d.Height == 0 || d.Width == 0 {
		return 0
	}
	return int64(d.Height-1)*int64(d.Stride) + int64(d.SizeRow())
}

func (d Dims) SizeRow() int {
	return (d.Width*d.Shape.BitsPerPixel() + 7) / 8
}

// ImageRow returns the bytes of a single row of img. If img is buffered
// the returned slice aliases the image memory, otherwise dst is filled.
func ImageRow(dst []byte, img Image, row int) (resultSized []byte, err error) {
	d := img.Dims()
	err = d.Validate()
	if err != nil {
		return nil, err
	}
	rowLenBytes := d.SizeRow()
	if len(dst) < rowLenBytes {
		// Checked before trying ImageBuffered so callers always size dst for the ReadAt path.
		return nil, io.ErrShortBuffer
	} else if row < 0 || row >= d.Height {
		return nil, errors.New("row out of bounds")
	}
	off := int64(row) * int64(d.Stride)
	if buffered, ok := img.(ImageBuffered); ok {
		buf := buffered.Buffer()
		if buf != nil {
			return buf[off : off+int64(rowLenBytes)], nil
		}
	}
	resultSized = dst[:rowLenBytes]
	n, err := img.ReadAt(resultSized, off)
	if n != rowLenBytes {
		return nil, io.ErrShortWrite
	}
	return resultSized, nil
}

// ReadAll returns the whole pixel memory of img. Buffered images are
// returned without copying; other images are read into a new slice.
func ReadAll(img Image) ([]byte, error) {
	d := img.Dims()
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if buffered, ok := img.(ImageBuffered); ok {
		if buf := buffered.Buffer(); buf != nil {
			if int64(len(buf)) < d.Size() {
				return nil, fmt.Errorf("%w: buffer holds %d bytes, dims need %d", ErrDimensionMismatch, len(buf), d.Size())
			}
			return buf, nil
		}
	}
	buf := make([]byte, d.Size())
	n, err := img.ReadAt(buf, 0)
	if n != len(buf) {
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return buf, nil
}

// ValidateProcessArgs gets correct write destination buffer and
// provides basic guarantees of inputs to Filter such as:
//   - Source [Dims.Validate] early validation. Always returned as called.
//   - Valid ROI argument.
//   - Valid input image for buffered in-place operations. In-place rejects non-nil ROI.
//   - shape match for in-place operations.
//   - For users who know the output stride and height offers checking of dst buffer size.
//     Use dstDims.Stride=0 to omit this check.
//
// dstDims.Shape must be set to support in-place operations. Other fields are optional but provide buffer size checks.
// srcDims is always returned as called by src.Dims.
func ValidateProcessArgs(dst []byte, dstShape Dims, src Image, roi *image.Rectangle) (_ []byte, srcDims Dims, err error) {
	srcDims = src.Dims()
	if err = srcDims.Validate(); err != nil {
		return nil, srcDims, err
	}
	var requiredMinDstSize int64
	if roi != nil {
		if roi.Max.X < 0 || roi.Min.X < 0 || roi.Min.Y < 0 || roi.Max.Y < 0 {
			return nil, srcDims, fmt.Errorf("%w: negative ROI", ErrInvalidParameter)
		} else if roi.Max.X > srcDims.Width || roi.Max.Y > srcDims.Height {
			return nil, srcDims, fmt.Errorf("%w: ROI exceeds image bounds", ErrInvalidParameter)
		} else if roi.Empty() {
			return nil, srcDims, fmt.Errorf("%w: empty ROI", ErrInvalidParameter)
		}
		requiredMinDstSize = int64(dstShape.Stride) * int64(roi.Dy())
	} else {
		requiredMinDstSize = int64(dstShape.Stride) * int64(dstShape.Height)
	}
	if dst == nil {
		if roi != nil {
			return nil, srcDims, errors.New("in-place operation does not support ROI")
		}
		if dstShape.Shape != srcDims.Shape {
			return nil, srcDims, errors.New("src must match filter output shape for in-place op")
		}
		buffered, ok := src.(ImageBuffered)
		if !ok {
			return nil, srcDims, errors.New("src does not implement ImageBuffered for in-place op")
		}
		buf := buffered.Buffer()
		if buf == nil {
			return nil, srcDims, errors.New("src returned nil buffer on in-place op")
		} else if len(buf) < int(srcDims.Size()) {
			return nil, srcDims, fmt.Errorf("%w: src ImageBuffered returned a buffer too small to represent complete image", ErrDimensionMismatch)
		}
		dst = buf
	}
	if int64(len(dst)) < requiredMinDstSize {
		return dst, srcDims, fmt.Errorf("%w: destination buffer not large enough to store output", ErrDimensionMismatch)
	}
	return dst, srcDims, nil
}
