package wgpubackend

import (
	"errors"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/framegraph/gpu"
)

var ClearColor = wgpu.Color{R: 0.1, G: 0.1, B: 0.1, A: 1}

// Recorder encodes one frame into a wgpu command encoder. It is the primary recorder:
// secondary CommandLists recorded on workers are replayed into it by ExecuteCommands,
// so every wgpu call happens on the driving goroutine.
type Recorder struct {
	device   *Device
	encoder  *wgpu.CommandEncoder
	pass     *wgpu.RenderPassEncoder
	pipeline *Pipeline
	errs     []error
	// begun holds the targets already rendered to this frame.
	begun map[gpu.Target]struct{}
}

// BeginFrame collects finished occlusion results and opens a command encoder.
func (d *Device) BeginFrame() (*Recorder, error) {
	d.queries.collect()
	encoder, err := d.device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	return &Recorder{device: d, encoder: encoder}, nil
}

// loadOp clears a target on its first pass of the frame and keeps its contents after,
// so overlays drawn in a later pass land on the finished image.
func (r *Recorder) loadOp(target gpu.Target) wgpu.LoadOp {
	if _, ok := r.begun[target]; ok {
		return wgpu.LoadOpLoad
	}
	if r.begun == nil {
		r.begun = make(map[gpu.Target]struct{})
	}
	r.begun[target] = struct{}{}
	return wgpu.LoadOpClear
}

func (r *Recorder) fail(err error) {
	r.errs = append(r.errs, err)
}

func (r *Recorder) BeginRenderPass(target gpu.Target, extent gpu.Extent, contents gpu.SubpassContents) {
	var color, depth *wgpu.TextureView
	switch t := target.(type) {
	case *Target:
		color, depth = t.attachments()
	case *SurfaceTarget:
		color, depth = t.view, t.depth.view
	default:
		r.fail(fmt.Errorf("begin render pass: unsupported target %T", target))
		return
	}

	load := r.loadOp(target)
	desc := &wgpu.RenderPassDescriptor{
		Label: target.Label(),
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            depth,
			DepthLoadOp:     load,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: 1.0,
		},
		OcclusionQuerySet: r.device.queries.set,
	}
	if color != nil {
		desc.ColorAttachments = []wgpu.RenderPassColorAttachment{{
			View:       color,
			LoadOp:     load,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: ClearColor,
		}}
	}
	r.pass = r.encoder.BeginRenderPass(desc)
}

func (r *Recorder) EndRenderPass() {
	if r.pass == nil {
		return
	}
	if err := r.pass.End(); err != nil {
		r.fail(fmt.Errorf("end render pass: %w", err))
	}
	r.pass.Release()
	r.pass = nil
	r.pipeline = nil
}

func (r *Recorder) SetPipeline(p gpu.Pipeline) {
	wp, ok := p.(*Pipeline)
	if !ok || r.pass == nil {
		r.fail(fmt.Errorf("set pipeline %s: not recording or foreign pipeline", p.Label()))
		return
	}
	r.pipeline = wp
	r.pass.SetPipeline(wp.pipeline)
}

func (r *Recorder) SetViewport(v gpu.Viewport) {
	if r.pass != nil {
		r.pass.SetViewport(v.X, v.Y, v.Width, v.Height, v.MinDepth, v.MaxDepth)
	}
}

func (r *Recorder) SetScissor(s gpu.Scissor) {
	if r.pass != nil {
		r.pass.SetScissorRect(s.X, s.Y, s.Width, s.Height)
	}
}

func (r *Recorder) BindUniform(slot uint32, b gpu.UniformBinding) {
	if r.pipeline == nil || !r.pipeline.uses(slot) {
		return
	}
	buf, ok := b.Buffer.(*Buffer)
	if !ok {
		r.fail(fmt.Errorf("bind uniform %d: foreign buffer %T", slot, b.Buffer))
		return
	}
	bg, err := r.pipeline.uniformGroup(slot, buf.buffer, b.Offset, b.Size)
	if err != nil {
		r.fail(fmt.Errorf("bind uniform %d of %s: %w", slot, r.pipeline.Label(), err))
		return
	}
	r.pass.SetBindGroup(slot, bg, nil)
}

func (r *Recorder) BindTexture(slot uint32, t gpu.Texture) {
	if r.pipeline == nil || !r.pipeline.uses(slot) {
		return
	}
	tex, ok := t.(*Texture)
	if !ok {
		r.fail(fmt.Errorf("bind texture %d: foreign texture %T", slot, t))
		return
	}
	bg, err := r.pipeline.textureGroup(slot, tex.view)
	if err != nil {
		r.fail(fmt.Errorf("bind texture %d of %s: %w", slot, r.pipeline.Label(), err))
		return
	}
	r.pass.SetBindGroup(slot, bg, nil)
}

func (r *Recorder) Draw(d gpu.DrawCall) {
	if r.pass == nil || r.pipeline == nil {
		return
	}
	instances := max(d.InstanceCount, 1)
	if m, ok := d.Mesh.(*Mesh); ok && r.pipeline.mesh {
		r.pass.SetVertexBuffer(0, m.vertices, 0, wgpu.WholeSize)
		if d.IndexCount > 0 && m.indices != nil {
			r.pass.SetIndexBuffer(m.indices, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
			r.pass.DrawIndexed(d.IndexCount, instances, 0, 0, 0)
			return
		}
	}
	r.pass.Draw(d.VertexCount, instances, 0, 0)
}

func (r *Recorder) BeginOcclusionQuery(q gpu.OcclusionQuery) {
	wq, ok := q.(*Query)
	if !ok || r.pass == nil {
		return
	}
	r.device.queries.began(wq)
	r.pass.BeginOcclusionQuery(wq.index)
}

func (r *Recorder) EndOcclusionQuery(q gpu.OcclusionQuery) {
	if _, ok := q.(*Query); ok && r.pass != nil {
		r.pass.EndOcclusionQuery()
	}
}

// ExecuteCommands replays the lists in order. WebGPU has no secondary command buffers.
func (r *Recorder) ExecuteCommands(lists ...*gpu.CommandList) {
	for _, l := range lists {
		l.Replay(r)
	}
}

// Submit finishes the encoder, submits it and starts reading back occlusion results.
// It returns every error met while recording.
func (r *Recorder) Submit() error {
	defer r.encoder.Release()
	if r.pass != nil {
		r.EndRenderPass()
	}
	resolved := r.device.queries.encodeResolve(r.encoder)
	cmd, err := r.encoder.Finish(nil)
	if err != nil {
		r.fail(fmt.Errorf("finish encoder: %w", err))
		return errors.Join(r.errs...)
	}
	defer cmd.Release()
	r.device.queue.Submit(cmd)
	if resolved {
		r.device.queries.mapAfterSubmit()
	}
	return errors.Join(r.errs...)
}

var _ gpu.Recorder = (*Recorder)(nil)
