package filters

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/scanprep/pix"
)

const brightnessTransform = `
fn transform(c: vec4<f32>) -> vec4<f32> {
    return vec4<f32>(c.rgb + vec3<f32>(u.param0 / 255.0), c.a);
}
`

// contrastTransform receives the precomputed contrast factor in param0.
const contrastTransform = `
fn transform(c: vec4<f32>) -> vec4<f32> {
    let mid = vec3<f32>(128.0 / 255.0);
    return vec4<f32>(u.param0 * (c.rgb - mid) + mid, c.a);
}
`

// binarizeTransform compares channel sums against 3*threshold (param0).
// The small bias absorbs unorm rounding for sums exactly at the threshold.
const binarizeTransform = `
fn transform(c: vec4<f32>) -> vec4<f32> {
    let sum = (c.r + c.g + c.b) * 255.0 + 0.001;
    let v = select(0.0, 1.0, sum >= 3.0 * u.param0);
    return vec4<f32>(v, v, v, c.a);
}
`

// BrightnessFilterGPU is the GPU counterpart of [NewBrightness].
type BrightnessFilterGPU struct {
	PointFilterGPU
	ctrls []pix.Control
}

// NewBrightnessGPU creates a GPU-accelerated brightness filter.
func NewBrightnessGPU(device *wgpu.Device, queue *wgpu.Queue, delta int) (*BrightnessFilterGPU, error) {
	f := &BrightnessFilterGPU{}
	if err := f.Init(device, queue, brightnessTransform); err != nil {
		return nil, err
	}
	f.SetParam(0, float32(delta))
	f.ctrls = []pix.Control{
		&pix.ControlOrdered[int]{
			Name:        "Brightness",
			Description: "Offset added to every color channel",
			Value:       delta,
			Min:         -255,
			Max:         255,
			Step:        1,
			OnChange: func(d int) error {
				f.SetParam(0, float32(d))
				return nil
			},
		},
	}
	return f, nil
}

// Controls returns the filter's adjustable parameters.
func (f *BrightnessFilterGPU) Controls() []pix.Control { return f.ctrls }

// ContrastFilterGPU is the GPU counterpart of [NewContrast].
type ContrastFilterGPU struct {
	PointFilterGPU
	ctrls []pix.Control
}

// NewContrastGPU creates a GPU-accelerated contrast filter. Singular values
// fail with [pix.ErrInvalidParameter] before any GPU resource is created.
func NewContrastGPU(device *wgpu.Device, queue *wgpu.Queue, value int) (*ContrastFilterGPU, error) {
	factor, err := ContrastFactor(value)
	if err != nil {
		return nil, err
	}
	f := &ContrastFilterGPU{}
	if err := f.Init(device, queue, contrastTransform); err != nil {
		return nil, err
	}
	f.SetParam(0, float32(factor))
	f.ctrls = []pix.Control{
		&pix.ControlOrdered[int]{
			Name:        "Contrast",
			Description: "Contrast adjustment, negative values flatten the image",
			Value:       value,
			Min:         -255,
			Max:         255,
			Step:        1,
			Exclude:     []int{-255},
			OnChange: func(v int) error {
				factor, err := ContrastFactor(v)
				if err != nil {
					return err
				}
				f.SetParam(0, float32(factor))
				return nil
			},
		},
	}
	return f, nil
}

// Controls returns the filter's adjustable parameters.
func (f *ContrastFilterGPU) Controls() []pix.Control { return f.ctrls }

// BinarizeFilterGPU is the GPU counterpart of [NewBinarize].
type BinarizeFilterGPU struct {
	PointFilterGPU
	ctrls []pix.Control
}

// NewBinarizeGPU creates a GPU-accelerated global threshold filter.
func NewBinarizeGPU(device *wgpu.Device, queue *wgpu.Queue, threshold int) (*BinarizeFilterGPU, error) {
	if threshold < 0 || threshold > 255 {
		return nil, fmt.Errorf("%w: binarization threshold %d outside 0..255", pix.ErrInvalidParameter, threshold)
	}
	f := &BinarizeFilterGPU{}
	if err := f.Init(device, queue, binarizeTransform); err != nil {
		return nil, err
	}
	f.SetParam(0, float32(threshold))
	f.ctrls = []pix.Control{
		&pix.ControlOrdered[int]{
			Name:        "Threshold",
			Description: "Average intensity at and above which a pixel becomes white",
			Value:       threshold,
			Min:         0,
			Max:         255,
			Step:        1,
			OnChange: func(t int) error {
				f.SetParam(0, float32(t))
				return nil
			},
		},
	}
	return f, nil
}

// Controls returns the filter's adjustable parameters.
func (f *BinarizeFilterGPU) Controls() []pix.Control { return f.ctrls }
