package filters

import (
	"fmt"
	"image"
	"math"

	"github.com/scanprep/pix"
)

// DenoiseRadius is the fixed blur radius used by [NewDenoise].
const DenoiseRadius = 2

// SeparableFilter smooths an image with a normalized Gaussian applied as a
// horizontal pass followed by a vertical pass. Boundary and clamping
// policy match [ConvolutionFilter]: samples outside the image contribute
// zero and results are rounded and clamped to [0,255].
type SeparableFilter struct {
	radius float64
	ctrls  []pix.Control
}

// NewGaussianBlur creates a blur whose Gaussian standard deviation is radius
// pixels. A zero radius copies the image unchanged.
func NewGaussianBlur(radius float64) (*SeparableFilter, error) {
	if err := validateRadius(radius); err != nil {
		return nil, err
	}
	f := &SeparableFilter{radius: radius}
	f.ctrls = []pix.Control{
		&pix.ControlOrdered[float64]{
			Name:        "Radius",
			Description: "Blur standard deviation in pixels",
			Value:       radius,
			Min:         0,
			Max:         math.MaxFloat64,
			Step:        0.5,
			OnChange: func(r float64) error {
				if err := validateRadius(r); err != nil {
					return err
				}
				f.radius = r
				return nil
			},
		},
	}
	return f, nil
}

// NewDenoise creates the small fixed-radius blur used to remove scan noise.
func NewDenoise() *SeparableFilter {
	return &SeparableFilter{radius: DenoiseRadius}
}

func validateRadius(radius float64) error {
	if math.IsNaN(radius) || math.IsInf(radius, 0) || radius < 0 {
		return fmt.Errorf("%w: blur radius %v must be finite and non-negative", pix.ErrInvalidParameter, radius)
	}
	return nil
}

// maxExactTaps bounds the half-width over which the normalization sum is
// accumulated tap by tap. Wider kernels use the Gaussian integral.
const maxExactTaps = 1 << 20

// gaussianWeights returns the normalized 1-D Gaussian of standard deviation
// sigma truncated at ceil(3*sigma). Only taps within limit of the center are
// returned since farther samples always fall outside the image; the
// normalization still accounts for the whole truncated kernel.
// A sigma so small that the kernel degenerates yields the identity.
func gaussianWeights(sigma float64, limit int) []float64 {
	twoVar := 2 * sigma * sigma
	if twoVar == 0 || math.Ceil(3*sigma) < 1 {
		return []float64{1}
	}
	fullHalf := math.Ceil(3 * sigma)
	half := max(int(min(fullHalf, float64(limit))), 0)
	w := gaussianTaps(twoVar, half)
	var norm float64
	switch {
	case fullHalf <= float64(half):
		for _, v := range w {
			norm += v
		}
	case fullHalf <= maxExactTaps:
		norm = 1
		for d := 1; d <= int(fullHalf); d++ {
			norm += 2 * math.Exp(-float64(d*d)/twoVar)
		}
	default:
		norm = sigma * math.Sqrt(2*math.Pi) * math.Erf((fullHalf+0.5)/(sigma*math.Sqrt2))
	}
	for i := range w {
		w[i] /= norm
	}
	return w
}

// gaussianTaps returns the unnormalized samples exp(-d²/twoVar) for d in [-half,half].
func gaussianTaps(twoVar float64, half int) []float64 {
	w := make([]float64, 2*half+1)
	for i := range w {
		d := float64(i - half)
		w[i] = math.Exp(-d * d / twoVar)
	}
	return w
}

// Radius returns the blur standard deviation.
func (f *SeparableFilter) Radius() float64 { return f.radius }

// ShapeIO implements [pix.Filter].
func (f *SeparableFilter) ShapeIO() (output, input pix.Shape) {
	return pix.ShapeRGBA8888, pix.ShapeRGBA8888
}

// Controls implements [pix.Filter].
func (f *SeparableFilter) Controls() []pix.Control { return f.ctrls }

// Process implements [pix.Filter]. In-place processing and ROI are not supported.
func (f *SeparableFilter) Process(dst []byte, src pix.Image, roi *image.Rectangle) (pix.Dims, error) {
	dst, srcBuf, dims, err := validateNeighborhoodArgs(dst, src, roi)
	if err != nil {
		return pix.Dims{}, err
	}
	width, height := dims.Width, dims.Height
	weights := gaussianWeights(f.radius, max(width, height)-1)
	half := len(weights) / 2
	// Horizontal pass result, three channels per pixel.
	tmp := make([]float32, width*height*3)
	parallelRows(height, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			row := srcBuf[y*dims.Stride : (y+1)*dims.Stride]
			for x := 0; x < width; x++ {
				var r, g, b float64
				for i, w := range weights {
					sx := x + i - half
					if sx < 0 || sx >= width {
						continue
					}
					p := row[sx*4 : sx*4+3]
					r += float64(p[0]) * w
					g += float64(p[1]) * w
					b += float64(p[2]) * w
				}
				t := (y*width + x) * 3
				tmp[t], tmp[t+1], tmp[t+2] = float32(r), float32(g), float32(b)
			}
		}
	})
	parallelRows(height, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < width; x++ {
				var r, g, b float64
				for i, w := range weights {
					sy := y + i - half
					if sy < 0 || sy >= height {
						continue
					}
					t := (sy*width + x) * 3
					r += float64(tmp[t]) * w
					g += float64(tmp[t+1]) * w
					b += float64(tmp[t+2]) * w
				}
				o := y*dims.Stride + x*4
				dst[o] = clampRound(r)
				dst[o+1] = clampRound(g)
				dst[o+2] = clampRound(b)
				dst[o+3] = srcBuf[o+3]
			}
		}
	})
	return dims, nil
}

// ApplyBlur returns a Gaussian blurred copy of src.
func ApplyBlur(src *pix.Buffer, radius float64) (*pix.Buffer, error) {
	f, err := NewGaussianBlur(radius)
	if err != nil {
		return nil, err
	}
	return Apply(f, src)
}

// RemoveNoise returns a copy of src smoothed with [DenoiseRadius].
func RemoveNoise(src *pix.Buffer) (*pix.Buffer, error) {
	return Apply(NewDenoise(), src)
}
