package filters

import (
	"fmt"
	"math"

	"github.com/scanprep/pix"
)

// Kernel is a square convolution matrix of Side*Side weights in row-major
// order. The weighted sum of a neighborhood is divided by Divisor.
type Kernel struct {
	Side    int
	Weights []float64
	Divisor float64
}

// NewKernel builds a kernel from a square number of weights.
// Side length must be odd and divisor non-zero.
func NewKernel(weights []float64, divisor float64) (Kernel, error) {
	side := int(math.Sqrt(float64(len(weights))))
	k := Kernel{Side: side, Weights: weights, Divisor: divisor}
	if side*side != len(weights) {
		return Kernel{}, fmt.Errorf("%w: %d weights do not form a square", pix.ErrInvalidKernel, len(weights))
	}
	if err := k.Validate(); err != nil {
		return Kernel{}, err
	}
	return k, nil
}

func mustKernel(divisor float64, weights ...float64) Kernel {
	k, err := NewKernel(weights, divisor)
	if err != nil {
		panic(err)
	}
	return k
}

// Validate checks side length and divisor.
func (k Kernel) Validate() error {
	switch {
	case k.Side <= 0 || len(k.Weights) == 0:
		return fmt.Errorf("%w: empty kernel", pix.ErrInvalidKernel)
	case k.Side%2 == 0:
		return fmt.Errorf("%w: side length %d is even", pix.ErrInvalidKernel, k.Side)
	case len(k.Weights) != k.Side*k.Side:
		return fmt.Errorf("%w: %d weights for side %d", pix.ErrInvalidKernel, len(k.Weights), k.Side)
	case k.Divisor == 0 || math.IsNaN(k.Divisor) || math.IsInf(k.Divisor, 0):
		return fmt.Errorf("%w: kernel divisor %v", pix.ErrInvalidParameter, k.Divisor)
	}
	for _, w := range k.Weights {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("%w: non-finite weight", pix.ErrInvalidKernel)
		}
	}
	return nil
}

// Half returns the neighborhood radius.
func (k Kernel) Half() int { return k.Side / 2 }

// EdgeKind selects the edge detection kernel family.
type EdgeKind int

const (
	EdgeGradient  EdgeKind = iota // gradient
	EdgeLaplacian                 // laplacian
)

func (e EdgeKind) String() string {
	switch e {
	case EdgeGradient:
		return "gradient"
	case EdgeLaplacian:
		return "laplacian"
	}
	return "unknown"
}

// ParseEdgeKind parses an edge kernel family name. "sobel" is accepted as
// an alias of gradient, the empty string selects gradient.
func ParseEdgeKind(s string) (EdgeKind, error) {
	switch s {
	case "", "gradient", "sobel":
		return EdgeGradient, nil
	case "laplacian":
		return EdgeLaplacian, nil
	}
	return 0, fmt.Errorf("%w: unknown edge kernel %q", pix.ErrInvalidParameter, s)
}

var (
	sharpenKernel = mustKernel(1,
		0, -1, 0,
		-1, 5, -1,
		0, -1, 0)
	gradientX = mustKernel(1,
		-1, 0, 1,
		-2, 0, 2,
		-1, 0, 1)
	gradientY = mustKernel(1,
		-1, -2, -1,
		0, 0, 0,
		1, 2, 1)
	laplacianKernel = mustKernel(1,
		-1, -1, -1,
		0, 0, 0,
		1, 1, 1)
)

// EdgeKernels returns the horizontal and vertical kernels of an edge family.
// Edge detection only applies the horizontal kernel.
func EdgeKernels(kind EdgeKind) (x, y Kernel, err error) {
	switch kind {
	case EdgeGradient:
		return gradientX, gradientY, nil
	case EdgeLaplacian:
		return laplacianKernel, laplacianKernel, nil
	}
	return Kernel{}, Kernel{}, fmt.Errorf("%w: unknown edge kind %d", pix.ErrInvalidParameter, int(kind))
}
