// Package gpu holds the contracts the frame orchestrator consumes from a graphics backend:
// command recording, render targets, uniform buffers and occlusion queries.
// It also provides host implementations used headless and in tests.
package gpu

import "fmt"

// Extent is a size in pixels.
type Extent struct {
	Width  uint32
	Height uint32
}

func (e Extent) Half() Extent {
	return Extent{Width: max(e.Width/2, 1), Height: max(e.Height/2, 1)}
}

func (e Extent) Aspect() float32 {
	if e.Height == 0 {
		return 1
	}
	return float32(e.Width) / float32(e.Height)
}

func (e Extent) String() string {
	return fmt.Sprintf("%dx%d", e.Width, e.Height)
}

// Target is a render target handle: colour and/or depth attachments a pass writes to.
type Target interface {
	Label() string
	Extent() Extent
}

// Texture is a sampled input, typically the output of an earlier pass.
type Texture interface {
	Label() string
}

// Releaser is implemented by backend objects that own GPU memory.
type Releaser interface {
	Release()
}

// Release releases v if it owns anything.
func Release(v any) {
	if r, ok := v.(Releaser); ok && r != nil {
		r.Release()
	}
}

type Pipeline interface {
	Label() string
}

// Mesh is uploaded geometry. IndexCount is zero for non-indexed meshes.
type Mesh interface {
	VertexCount() uint32
	IndexCount() uint32
}

type DrawCall struct {
	Mesh          Mesh
	VertexCount   uint32
	IndexCount    uint32
	InstanceCount uint32
}

// DrawMesh draws every vertex (or index) of mesh once.
func DrawMesh(mesh Mesh) DrawCall {
	return DrawCall{
		Mesh:          mesh,
		VertexCount:   mesh.VertexCount(),
		IndexCount:    mesh.IndexCount(),
		InstanceCount: 1,
	}
}

type Viewport struct {
	X, Y, Width, Height float32
	MinDepth, MaxDepth  float32
}

func FullViewport(e Extent) Viewport {
	return Viewport{Width: float32(e.Width), Height: float32(e.Height), MaxDepth: 1}
}

type Scissor struct {
	X, Y, Width, Height uint32
}

func FullScissor(e Extent) Scissor {
	return Scissor{Width: e.Width, Height: e.Height}
}

// SubpassContents tells BeginRenderPass whether draws follow inline or come from secondary lists.
type SubpassContents int

const (
	ContentsInline SubpassContents = iota
	ContentsSecondary
)

func (c SubpassContents) String() string {
	switch c {
	case ContentsInline:
		return "inline"
	case ContentsSecondary:
		return "secondary"
	default:
		return "unknown"
	}
}

// UniformBinding is a window into a uniform buffer bound at a slot for the next draws.
type UniformBinding struct {
	Buffer Buffer
	Offset uint64
	Size   uint64
}

// PipelineDesc describes the fixed function state of a renderer's pipeline.
type PipelineDesc struct {
	Label       string
	Shader      string
	UniformSize uint64
	DepthOnly   bool
	DepthTest   bool
	DepthWrite  bool
	Blend       bool
	ClipPlane   bool
}
