package wgpubackend

import (
	"fmt"
	"regexp"
	"strconv"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/framegraph/gpu"
)

// Shader is WGSL source with vs_main and fs_main entry points.
type Shader struct {
	Code string
	// MeshInput binds the Vertex layout at buffer 0. Shaders without it generate their
	// geometry from the vertex index.
	MeshInput bool
	Lines     bool
}

var groupPattern = regexp.MustCompile(`@group\((\d+)\)`)

// declaredGroups lists the bind group indices the shader uses.
func declaredGroups(code string) map[uint32]bool {
	groups := make(map[uint32]bool)
	for _, m := range groupPattern.FindAllStringSubmatch(code, -1) {
		if g, err := strconv.ParseUint(m[1], 10, 32); err == nil {
			groups[uint32(g)] = true
		}
	}
	return groups
}

// Pipeline is a render pipeline plus the bind groups created for it so far.
type Pipeline struct {
	desc     gpu.PipelineDesc
	pipeline *wgpu.RenderPipeline
	device   *Device
	groups   map[uint32]bool
	mesh     bool

	mu         sync.Mutex
	bindGroups map[bindKey]*wgpu.BindGroup
}

type bindKey struct {
	group  uint32
	buffer *wgpu.Buffer
	offset uint64
	view   *wgpu.TextureView
}

func newPipeline(d *Device, desc gpu.PipelineDesc, shader Shader) (*Pipeline, error) {
	module, err := d.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          desc.Shader,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shader.Code},
	})
	if err != nil {
		return nil, fmt.Errorf("pipeline %q: shader: %w", desc.Label, err)
	}
	defer module.Release()

	vertex := wgpu.VertexState{Module: module, EntryPoint: "vs_main"}
	if shader.MeshInput {
		vertex.Buffers = []wgpu.VertexBufferLayout{vertexLayout}
	}

	var fragment *wgpu.FragmentState
	if !desc.DepthOnly {
		target := wgpu.ColorTargetState{Format: d.format, WriteMask: wgpu.ColorWriteMaskAll}
		if desc.Blend {
			target.Blend = &wgpu.BlendState{
				Color: wgpu.BlendComponent{
					Operation: wgpu.BlendOperationAdd,
					SrcFactor: wgpu.BlendFactorSrcAlpha,
					DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				},
				Alpha: wgpu.BlendComponent{
					Operation: wgpu.BlendOperationAdd,
					SrcFactor: wgpu.BlendFactorOne,
					DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				},
			}
		}
		fragment = &wgpu.FragmentState{Module: module, EntryPoint: "fs_main", Targets: []wgpu.ColorTargetState{target}}
	}

	compare := wgpu.CompareFunctionAlways
	if desc.DepthTest {
		compare = wgpu.CompareFunctionLess
	}
	topology, cull := wgpu.PrimitiveTopologyTriangleList, wgpu.CullModeBack
	if shader.Lines {
		topology, cull = wgpu.PrimitiveTopologyLineList, wgpu.CullModeNone
	}
	if !shader.MeshInput {
		cull = wgpu.CullModeNone
	}

	rp, err := d.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:    desc.Label,
		Vertex:   vertex,
		Fragment: fragment,
		Primitive: wgpu.PrimitiveState{
			Topology:  topology,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  cull,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            DepthFormat,
			DepthWriteEnabled: desc.DepthWrite,
			DepthCompare:      compare,
			StencilFront:      wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:       wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		},
		Multisample: wgpu.MultisampleState{Count: 1, Mask: 0xFFFFFFFF},
	})
	if err != nil {
		return nil, fmt.Errorf("pipeline %q: %w", desc.Label, err)
	}
	return &Pipeline{
		desc:       desc,
		pipeline:   rp,
		device:     d,
		groups:     declaredGroups(shader.Code),
		mesh:       shader.MeshInput,
		bindGroups: make(map[bindKey]*wgpu.BindGroup),
	}, nil
}

func (p *Pipeline) Label() string { return p.desc.Label }

func (p *Pipeline) uses(group uint32) bool { return p.groups[group] }

// uniformGroup returns the bind group exposing size bytes of buffer at offset.
// Groups are cached for the pipeline's lifetime; ring pool offsets repeat every lap.
func (p *Pipeline) uniformGroup(group uint32, buffer *wgpu.Buffer, offset, size uint64) (*wgpu.BindGroup, error) {
	key := bindKey{group: group, buffer: buffer, offset: offset}
	return p.bindGroup(key, func() (*wgpu.BindGroup, error) {
		return p.device.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:   fmt.Sprintf("%s/uniform%d@%d", p.desc.Label, group, offset),
			Layout:  p.pipeline.GetBindGroupLayout(group),
			Entries: []wgpu.BindGroupEntry{{Binding: 0, Buffer: buffer, Offset: offset, Size: size}},
		})
	})
}

func (p *Pipeline) textureGroup(group uint32, view *wgpu.TextureView) (*wgpu.BindGroup, error) {
	key := bindKey{group: group, view: view}
	return p.bindGroup(key, func() (*wgpu.BindGroup, error) {
		return p.device.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:  fmt.Sprintf("%s/texture%d", p.desc.Label, group),
			Layout: p.pipeline.GetBindGroupLayout(group),
			Entries: []wgpu.BindGroupEntry{
				{Binding: 0, TextureView: view},
				{Binding: 1, Sampler: p.device.sampler},
			},
		})
	})
}

func (p *Pipeline) bindGroup(key bindKey, create func() (*wgpu.BindGroup, error)) (*wgpu.BindGroup, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if bg, ok := p.bindGroups[key]; ok {
		return bg, nil
	}
	bg, err := create()
	if err != nil {
		return nil, err
	}
	p.bindGroups[key] = bg
	return bg, nil
}

func (p *Pipeline) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for k, bg := range p.bindGroups {
		bg.Release()
		delete(p.bindGroups, k)
	}
	p.pipeline.Release()
}

var _ gpu.Pipeline = (*Pipeline)(nil)
