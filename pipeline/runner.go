package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/rs/zerolog"
	"github.com/scanprep/pix"
	"github.com/scanprep/pix/filters"
)

// Runner applies recipes to buffers. The zero value is not usable, create
// runners with [New].
type Runner struct {
	log zerolog.Logger
	gpu *gpuBackend
}

// Option configures a [Runner].
type Option func(*Runner)

// WithLogger sets the logger receiving per-step events.
func WithLogger(log zerolog.Logger) Option {
	return func(r *Runner) { r.log = log }
}

// WithGPU runs point operations on the given WebGPU device.
// Neighborhood and geometric operations always run on the CPU.
func WithGPU(device *wgpu.Device, queue *wgpu.Queue) Option {
	return func(r *Runner) {
		if device != nil && queue != nil {
			r.gpu = &gpuBackend{device: device, queue: queue}
		}
	}
}

// New returns a Runner. Without options it logs nothing and uses the CPU only.
func New(opts ...Option) *Runner {
	r := &Runner{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run applies every step of recipe in order, feeding each output into the
// next step. src is not modified. The context is checked between steps;
// a step that has started always runs to completion.
func (r *Runner) Run(ctx context.Context, src *pix.Buffer, recipe *Recipe) (*pix.Buffer, error) {
	if err := recipe.Validate(); err != nil {
		return nil, err
	}
	if err := src.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()
	buf := src
	for i, step := range recipe.Steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		stepStart := time.Now()
		out, backend, err := r.runStep(buf, step)
		if err != nil {
			r.log.Error().Err(err).Int("step", i).Str("op", string(step.Op)).Msg("step failed")
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		r.log.Debug().
			Int("step", i).
			Str("op", string(step.Op)).
			Str("backend", backend).
			Int("width", out.Width).
			Int("height", out.Height).
			Dur("elapsed", time.Since(stepStart)).
			Msg("step done")
		buf = out
	}
	r.log.Info().
		Str("recipe", recipe.Name).
		Int("steps", len(recipe.Steps)).
		Int("width", buf.Width).
		Int("height", buf.Height).
		Dur("elapsed", time.Since(start)).
		Msg("recipe applied")
	return buf, nil
}

func (r *Runner) runStep(buf *pix.Buffer, step Params) (*pix.Buffer, string, error) {
	if r.gpu != nil {
		gf, err := r.gpu.filter(step)
		if err != nil {
			return nil, "gpu", fmt.Errorf("%s: %w", step.Op, err)
		}
		if gf != nil {
			defer gf.Cleanup()
			out, err := gf.Process(buf)
			if err != nil {
				return nil, "gpu", fmt.Errorf("%s: %w", step.Op, err)
			}
			return out, "gpu", nil
		}
	}
	out, err := Apply(buf, step)
	return out, "cpu", err
}

// ApplyFilters runs already built filters in order. It is the building
// block for callers that tune filters through their controls.
func ApplyFilters(src *pix.Buffer, fs ...pix.Filter) (*pix.Buffer, error) {
	buf := src
	for i, f := range fs {
		out, err := filters.Apply(f, buf)
		if err != nil {
			return nil, fmt.Errorf("filter %d: %w", i, err)
		}
		buf = out
	}
	if buf == src {
		return src.Clone(), nil
	}
	return buf, nil
}
