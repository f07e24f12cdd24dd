package filters

import (
	"fmt"

	"github.com/scanprep/pix"
)

// NewBrightness creates a filter adding delta to the R, G and B channels,
// clamping the result to [0,255]. Alpha is untouched.
func NewBrightness(delta int) *PointFilter {
	var lut [256]uint8
	setLUT := func(d int) {
		for c := range lut {
			lut[c] = clampInt(c + d)
		}
	}
	setLUT(delta)
	return &PointFilter{
		In:  pix.ShapeRGBA8888,
		Out: pix.ShapeRGBA8888,
		Fn:  lutFunc(&lut),
		Ctrls: []pix.Control{
			&pix.ControlOrdered[int]{
				Name:        "Brightness",
				Description: "Offset added to every color channel",
				Value:       delta,
				Min:         -255,
				Max:         255,
				Step:        1,
				OnChange: func(d int) error {
					setLUT(d)
					return nil
				},
			},
		},
	}
}

// ContrastFactor returns the contrast scaling factor for value.
// It fails for the singular values 259 (zero denominator) and -255 (zero factor).
func ContrastFactor(value int) (float64, error) {
	if value == 259 || value == -255 {
		return 0, fmt.Errorf("%w: contrast value %d is singular", pix.ErrInvalidParameter, value)
	}
	return 259 * float64(value+255) / (255 * float64(259-value)), nil
}

// NewContrast creates a filter scaling the R, G and B channels around 128
// by [ContrastFactor] of value.
func NewContrast(value int) (*PointFilter, error) {
	var lut [256]uint8
	setLUT := func(v int) error {
		factor, err := ContrastFactor(v)
		if err != nil {
			return err
		}
		for c := range lut {
			lut[c] = clampRound(factor*float64(c-128) + 128)
		}
		return nil
	}
	if err := setLUT(value); err != nil {
		return nil, err
	}
	return &PointFilter{
		In:  pix.ShapeRGBA8888,
		Out: pix.ShapeRGBA8888,
		Fn:  lutFunc(&lut),
		Ctrls: []pix.Control{
			&pix.ControlOrdered[int]{
				Name:        "Contrast",
				Description: "Contrast adjustment, negative values flatten the image",
				Value:       value,
				Min:         -255,
				Max:         255,
				Step:        1,
				Exclude:     []int{-255},
				OnChange:    setLUT,
			},
		},
	}, nil
}

func lutFunc(lut *[256]uint8) PointFunc {
	return func(dst, src []byte) {
		for i := 0; i < len(src); i += 4 {
			dst[i] = lut[src[i]]
			dst[i+1] = lut[src[i+1]]
			dst[i+2] = lut[src[i+2]]
			dst[i+3] = src[i+3]
		}
	}
}

// NewBinarize creates a filter setting R, G and B to 255 when the channel
// average is greater than or equal to threshold, and to 0 otherwise.
func NewBinarize(threshold int) (*PointFilter, error) {
	if threshold < 0 || threshold > 255 {
		return nil, fmt.Errorf("%w: binarization threshold %d outside 0..255", pix.ErrInvalidParameter, threshold)
	}
	// Compare sums against 3*threshold to keep the average exact.
	limit := 3 * threshold
	return &PointFilter{
		In:  pix.ShapeRGBA8888,
		Out: pix.ShapeRGBA8888,
		Fn: func(dst, src []byte) {
			for i := 0; i < len(src); i += 4 {
				var v uint8
				if int(src[i])+int(src[i+1])+int(src[i+2]) >= limit {
					v = 255
				}
				dst[i], dst[i+1], dst[i+2], dst[i+3] = v, v, v, src[i+3]
			}
		},
		Ctrls: []pix.Control{
			&pix.ControlOrdered[int]{
				Name:        "Threshold",
				Description: "Average intensity at and above which a pixel becomes white",
				Value:       threshold,
				Min:         0,
				Max:         255,
				Step:        1,
				OnChange: func(t int) error {
					limit = 3 * t
					return nil
				},
			},
		},
	}, nil
}

// NewInvert creates a filter that inverts RGB values, keeping alpha.
func NewInvert() *PointFilter {
	return &PointFilter{
		In:  pix.ShapeRGBA8888,
		Out: pix.ShapeRGBA8888,
		Fn: func(dst, src []byte) {
			for i := 0; i < len(src); i += 4 {
				dst[i] = 255 - src[i]
				dst[i+1] = 255 - src[i+1]
				dst[i+2] = 255 - src[i+2]
				dst[i+3] = src[i+3]
			}
		},
	}
}

// NewCurves creates a tone curve filter mapping every color channel
// through the piecewise linear curve defined by points.
// Inputs left of the first point or right of the last are held constant.
func NewCurves(points []pix.CurvePoint) (*PointFilter, error) {
	if err := pix.ValidateCurve(points); err != nil {
		return nil, err
	}
	var lut [256]uint8
	setLUT := func(pts []pix.CurvePoint) error {
		for c := range lut {
			lut[c] = clampRound(255 * curveAt(pts, float64(c)/255))
		}
		return nil
	}
	setLUT(points)
	return &PointFilter{
		In:  pix.ShapeRGBA8888,
		Out: pix.ShapeRGBA8888,
		Fn:  lutFunc(&lut),
		Ctrls: []pix.Control{
			&pix.ControlCurve{
				Name:        "Curve",
				Description: "Tone curve applied to R, G and B",
				Points:      points,
				OnChange:    setLUT,
			},
		},
	}, nil
}

func curveAt(pts []pix.CurvePoint, x float64) float64 {
	first, last := pts[0], pts[len(pts)-1]
	if x <= float64(first.X) {
		return float64(first.Y)
	} else if x >= float64(last.X) {
		return float64(last.Y)
	}
	for i := 1; i < len(pts); i++ {
		a, b := pts[i-1], pts[i]
		if x <= float64(b.X) {
			t := (x - float64(a.X)) / float64(b.X-a.X)
			return float64(a.Y) + t*float64(b.Y-a.Y)
		}
	}
	return float64(last.Y)
}

// AdjustBrightness returns a new buffer with delta added to every color channel.
func AdjustBrightness(src *pix.Buffer, delta int) (*pix.Buffer, error) {
	return Apply(NewBrightness(delta), src)
}

// AdjustContrast returns a new buffer with contrast adjusted by value.
// Singular values fail with [pix.ErrInvalidParameter] before any allocation.
func AdjustContrast(src *pix.Buffer, value int) (*pix.Buffer, error) {
	f, err := NewContrast(value)
	if err != nil {
		return nil, err
	}
	return Apply(f, src)
}

// ApplyBinarization returns a new black and white buffer, see [NewBinarize].
func ApplyBinarization(src *pix.Buffer, threshold int) (*pix.Buffer, error) {
	f, err := NewBinarize(threshold)
	if err != nil {
		return nil, err
	}
	return Apply(f, src)
}
