package pix

import "errors"

// Errors returned by filters and buffers. They are usually wrapped with
// context, test for them with [errors.Is].
var (
	// ErrInvalidParameter is returned when a filter parameter lies outside
	// its domain, e.g. a singular contrast value or a non-positive resize target.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrInvalidKernel is returned for empty or even-sided convolution kernels.
	ErrInvalidKernel = errors.New("invalid kernel")
	// ErrDimensionMismatch is returned when declared width and height
	// disagree with the length of the pixel data.
	ErrDimensionMismatch = errors.New("dimension mismatch")
)
