// Package renderers holds the concrete renderer strategies the orchestrator
// registers per pass: mesh, terrain and animation variants, shadows, sky,
// water, particles, the font overlay, the sun and its lens flare, and the
// debug overlays.
package renderers

import (
	"fmt"

	"github.com/gekko3d/framegraph/gpu"
	"github.com/gekko3d/framegraph/render"
)

// Options is shared by every renderer of a pass.
type Options struct {
	Device gpu.Device
	// Capacity is the number of uniform blocks per pool: draws per frame times frames in flight.
	Capacity int
	// Pass is used for pipeline labels.
	Pass render.PassKind
	// Alignment overrides the device's uniform offset alignment when non-zero.
	Alignment uint64
}

func (o Options) alignment() uint64 {
	if o.Alignment != 0 {
		return o.Alignment
	}
	return o.Device.UniformAlignment()
}

// base is the pipeline and uniform pool every renderer acquires in Init.
type base[U any] struct {
	name     string
	opts     Options
	desc     gpu.PipelineDesc
	pipeline gpu.Pipeline
	uniforms *gpu.UniformRingPool[U]
}

func newBase[U any](name string, opts Options, desc gpu.PipelineDesc) base[U] {
	desc.Label = fmt.Sprintf("%s/%s", opts.Pass, name)
	if desc.Shader == "" {
		desc.Shader = name
	}
	return base[U]{name: name, opts: opts, desc: desc}
}

func (b *base[U]) Name() string { return b.name }

func (b *base[U]) Pipeline() gpu.Pipeline { return b.pipeline }

func (b *base[U]) init() error {
	pipeline, err := b.opts.Device.CreatePipeline(b.desc)
	if err != nil {
		return fmt.Errorf("%s: create pipeline: %w", b.desc.Label, err)
	}
	b.pipeline = pipeline
	if b.uniforms, err = newPool[U](b.opts, b.desc.Label); err != nil {
		b.shutDown()
		return err
	}
	return nil
}

func newPool[U any](opts Options, label string) (*gpu.UniformRingPool[U], error) {
	pool := gpu.NewUniformRingPool[U](opts.Device, label)
	if err := pool.AdjustCapacity(opts.Capacity, opts.alignment()); err != nil {
		return nil, fmt.Errorf("%s: %w", label, err)
	}
	return pool, nil
}

// bind sets pipeline, viewport and scissor for a full target pass.
func (b *base[U]) bind(r gpu.Recorder, extent gpu.Extent) {
	r.SetPipeline(b.pipeline)
	r.SetViewport(gpu.FullViewport(extent))
	r.SetScissor(gpu.FullScissor(extent))
}

// push writes u into the next pool block and binds it at slot 0.
func (b *base[U]) push(r gpu.Recorder, u *U) {
	block := b.uniforms.GetNext()
	block.Update(u)
	r.BindUniform(0, block.Binding())
}

func (b *base[U]) shutDown() {
	if b.uniforms != nil {
		b.uniforms.Release()
		b.uniforms = nil
	}
	gpu.Release(b.pipeline)
	b.pipeline = nil
}

// hooks provides the lifecycle steps most renderers leave empty.
type hooks[D render.PassData] struct{}

func (hooks[D]) BeforeRender(render.RenderContext, D) {}
func (hooks[D]) PostRender(render.RenderContext, D)   {}
func (hooks[D]) AfterRender(render.RenderContext, D)  {}
