package pix

import (
	"fmt"
	"image"
	"io"
	"math"

	"github.com/disintegration/imaging"
)

// Buffer is an in-memory RGBA raster: Width*Height pixels of four bytes
// each (R, G, B, A) in row-major order with a stride of Width*4.
// Alpha is straight, not premultiplied.
//
// Filters treat a Buffer passed as source as read-only.
type Buffer struct {
	Width  int
	Height int
	Pix    []byte
}

var _ ImageBuffered = (*Buffer)(nil)

// NewBuffer allocates a zeroed width x height buffer.
func NewBuffer(width, height int) (*Buffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: buffer size %dx%d", ErrInvalidParameter, width, height)
	} else if tooLarge(width, height) {
		return nil, fmt.Errorf("%w: buffer size %dx%d overflows", ErrInvalidParameter, width, height)
	}
	return &Buffer{Width: width, Height: height, Pix: make([]byte, width*height*4)}, nil
}

// NewBufferFrom wraps pix without copying after checking its length
// against width and height.
func NewBufferFrom(width, height int, pix []byte) (*Buffer, error) {
	b := &Buffer{Width: width, Height: height, Pix: pix}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// FromImage converts any decoded image into a new Buffer.
func FromImage(img image.Image) *Buffer {
	nrgba := imaging.Clone(img)
	b := nrgba.Bounds()
	return &Buffer{Width: b.Dx(), Height: b.Dy(), Pix: nrgba.Pix}
}

// Validate checks the buffer invariant len(Pix) == Width*Height*4.
func (b *Buffer) Validate() error {
	if b.Width <= 0 || b.Height <= 0 {
		return fmt.Errorf("%w: empty buffer %dx%d", ErrDimensionMismatch, b.Width, b.Height)
	} else if tooLarge(b.Width, b.Height) {
		return fmt.Errorf("%w: %dx%d pixel count overflows", ErrDimensionMismatch, b.Width, b.Height)
	}
	if want := b.Width * b.Height * 4; len(b.Pix) != want {
		return fmt.Errorf("%w: %dx%d needs %d bytes, got %d", ErrDimensionMismatch, b.Width, b.Height, want, len(b.Pix))
	}
	return nil
}

// tooLarge reports whether width*height*4 overflows int.
func tooLarge(width, height int) bool {
	return width > math.MaxInt/4/height
}

// Dims implements [Image].
func (b *Buffer) Dims() Dims {
	return Dims{Width: b.Width, Height: b.Height, Stride: b.Width * 4, Shape: ShapeRGBA8888}
}

// Buffer implements [ImageBuffered].
func (b *Buffer) Buffer() []byte { return b.Pix }

// ReadAt implements [io.ReaderAt].
func (b *Buffer) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("negative offset %d", off)
	} else if off >= int64(len(b.Pix)) {
		return 0, io.EOF
	}
	n := copy(p, b.Pix[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// At returns the channels of pixel (x,y). It panics if out of bounds.
func (b *Buffer) At(x, y int) (r, g, bl, a uint8) {
	i := (y*b.Width + x) * 4
	p := b.Pix[i : i+4 : i+4]
	return p[0], p[1], p[2], p[3]
}

// Set writes the channels of pixel (x,y). It panics if out of bounds.
func (b *Buffer) Set(x, y int, r, g, bl, a uint8) {
	i := (y*b.Width + x) * 4
	p := b.Pix[i : i+4 : i+4]
	p[0], p[1], p[2], p[3] = r, g, bl, a
}

// Clone returns a deep copy of b.
func (b *Buffer) Clone() *Buffer {
	pix := make([]byte, len(b.Pix))
	copy(pix, b.Pix)
	return &Buffer{Width: b.Width, Height: b.Height, Pix: pix}
}

// Equal reports whether both buffers have the same size and pixels.
func (b *Buffer) Equal(other *Buffer) bool {
	if b.Width != other.Width || b.Height != other.Height || len(b.Pix) != len(other.Pix) {
		return false
	}
	for i := range b.Pix {
		if b.Pix[i] != other.Pix[i] {
			return false
		}
	}
	return true
}

// NRGBA returns a view of b as a standard library image sharing the same
// memory, ready to be handed to an encoder.
func (b *Buffer) NRGBA() *image.NRGBA {
	return &image.NRGBA{
		Pix:    b.Pix,
		Stride: b.Width * 4,
		Rect:   image.Rect(0, 0, b.Width, b.Height),
	}
}
