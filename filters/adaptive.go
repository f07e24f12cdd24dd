package filters

import (
	"fmt"
	"image"

	"github.com/scanprep/pix"
)

// AdaptiveThresholdFilter binarizes each pixel against a Gaussian weighted
// mean of its neighborhood, which copes with uneven lighting on photographed
// pages far better than a global threshold.
type AdaptiveThresholdFilter struct {
	blockSize int
	offset    float64
	invert    bool
	weights   []float64
}

// NewAdaptiveThreshold creates an adaptive threshold over blockSize x blockSize
// neighborhoods. A pixel is white when its gray value exceeds the local mean
// minus offset; invert swaps black and white. blockSize must be odd and at least 3.
func NewAdaptiveThreshold(blockSize int, offset float64, invert bool) (*AdaptiveThresholdFilter, error) {
	if blockSize < 3 || blockSize%2 == 0 {
		return nil, fmt.Errorf("%w: adaptive threshold block size %d must be odd and >= 3", pix.ErrInvalidParameter, blockSize)
	}
	return &AdaptiveThresholdFilter{
		blockSize: blockSize,
		offset:    offset,
		invert:    invert,
		weights:   blockWeights(blockSize),
	}, nil
}

// blockWeights returns Gaussian weights spanning exactly blockSize samples
// with the sigma OpenCV derives from an aperture size. They are left
// unnormalized since [weightedMean] normalizes over in-bounds samples.
func blockWeights(blockSize int) []float64 {
	sigma := 0.3*(float64(blockSize-1)*0.5-1) + 0.8
	return gaussianTaps(2*sigma*sigma, blockSize/2)
}

// ShapeIO implements [pix.Filter].
func (f *AdaptiveThresholdFilter) ShapeIO() (output, input pix.Shape) {
	return pix.ShapeRGBA8888, pix.ShapeRGBA8888
}

// Controls implements [pix.Filter].
func (f *AdaptiveThresholdFilter) Controls() []pix.Control { return nil }

// Process implements [pix.Filter]. In-place processing and ROI are not supported.
func (f *AdaptiveThresholdFilter) Process(dst []byte, src pix.Image, roi *image.Rectangle) (pix.Dims, error) {
	dst, srcBuf, dims, err := validateNeighborhoodArgs(dst, src, roi)
	if err != nil {
		return pix.Dims{}, err
	}
	width, height := dims.Width, dims.Height
	gray := make([]float32, width*height)
	for i := range gray {
		p := srcBuf[i*4 : i*4+3]
		gray[i] = (float32(p[0]) + float32(p[1]) + float32(p[2])) / 3
	}
	mean := weightedMean(gray, width, height, f.weights)
	hi, lo := uint8(255), uint8(0)
	if f.invert {
		hi, lo = lo, hi
	}
	parallelRows(height, func(y0, y1 int) {
		for i := y0 * width; i < y1*width; i++ {
			v := lo
			if float64(gray[i]) > float64(mean[i])-f.offset {
				v = hi
			}
			o := i * 4
			dst[o], dst[o+1], dst[o+2], dst[o+3] = v, v, v, srcBuf[o+3]
		}
	})
	return dims, nil
}

// weightedMean smooths a single channel plane with a separable kernel.
// Weights are renormalized over the in-bounds samples so the mean near the
// border is not darkened.
func weightedMean(plane []float32, width, height int, weights []float64) []float32 {
	half := len(weights) / 2
	tmp := make([]float32, len(plane))
	out := make([]float32, len(plane))
	parallelRows(height, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < width; x++ {
				var sum, norm float64
				for i, w := range weights {
					sx := x + i - half
					if sx < 0 || sx >= width {
						continue
					}
					sum += float64(plane[y*width+sx]) * w
					norm += w
				}
				tmp[y*width+x] = float32(sum / norm)
			}
		}
	})
	parallelRows(height, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < width; x++ {
				var sum, norm float64
				for i, w := range weights {
					sy := y + i - half
					if sy < 0 || sy >= height {
						continue
					}
					sum += float64(tmp[sy*width+x]) * w
					norm += w
				}
				out[y*width+x] = float32(sum / norm)
			}
		}
	})
	return out
}

// AdaptiveThreshold returns a black and white copy of src, see [NewAdaptiveThreshold].
func AdaptiveThreshold(src *pix.Buffer, blockSize int, offset float64, invert bool) (*pix.Buffer, error) {
	f, err := NewAdaptiveThreshold(blockSize, offset, invert)
	if err != nil {
		return nil, err
	}
	return Apply(f, src)
}
