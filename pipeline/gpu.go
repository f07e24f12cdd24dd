package pipeline

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/scanprep/pix"
	"github.com/scanprep/pix/filters"
)

type gpuFilter interface {
	Process(*pix.Buffer) (*pix.Buffer, error)
	Cleanup()
}

type gpuBackend struct {
	device *wgpu.Device
	queue  *wgpu.Queue
}

// filter returns the GPU implementation of step, or nil when the
// operation has no GPU implementation.
func (g *gpuBackend) filter(step Params) (gpuFilter, error) {
	switch step.Op {
	case OpBrightness:
		return filters.NewBrightnessGPU(g.device, g.queue, step.Delta)
	case OpContrast:
		return filters.NewContrastGPU(g.device, g.queue, step.Contrast)
	case OpBinarize:
		return filters.NewBinarizeGPU(g.device, g.queue, step.Threshold)
	case OpGrayscale:
		return filters.NewGrayscaleGPU(g.device, g.queue, filters.GrayscaleAverage)
	case OpInvert:
		return filters.NewInvertGPU(g.device, g.queue)
	}
	return nil, nil
}
