package wgpubackend

import (
	"fmt"
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/framegraph/gpu"
)

// Buffer is a uniform buffer. Writes go through the queue and land before the next submit.
type Buffer struct {
	label  string
	size   uint64
	buffer *wgpu.Buffer
	queue  *wgpu.Queue
}

func (b *Buffer) Label() string { return b.label }

func (b *Buffer) Size() uint64 { return b.size }

func (b *Buffer) Write(offset uint64, data []byte) {
	err := b.queue.WriteBuffer(b.buffer, offset, data)
	if gpu.DebugChecks && err != nil {
		panic(fmt.Sprintf("write %s at %d: %v", b.label, offset, err))
	}
}

func (b *Buffer) Release() {
	if b.buffer != nil {
		b.buffer.Release()
		b.buffer = nil
	}
}

// Texture is a sampled 2D texture.
type Texture struct {
	label   string
	texture *wgpu.Texture
	view    *wgpu.TextureView
}

func (t *Texture) Label() string { return t.label }

func (t *Texture) View() *wgpu.TextureView { return t.view }

func (t *Texture) Release() {
	t.view.Release()
	t.texture.Release()
}

// Target is an offscreen colour and depth pair. Both attachments can be sampled by later passes.
type Target struct {
	label  string
	extent gpu.Extent
	color  *Texture
	depth  *Texture
}

// NewTarget creates an offscreen target. Shadow cascades pass depthOnly.
func NewTarget(d *Device, label string, extent gpu.Extent, depthOnly bool) (*Target, error) {
	t := &Target{label: label, extent: extent}
	size := wgpu.Extent3D{Width: extent.Width, Height: extent.Height, DepthOrArrayLayers: 1}

	var err error
	if !depthOnly {
		t.color, err = newAttachment(d, label+"/color", size, d.format)
		if err != nil {
			return nil, err
		}
	}
	t.depth, err = newAttachment(d, label+"/depth", size, DepthFormat)
	if err != nil {
		if t.color != nil {
			t.color.Release()
		}
		return nil, err
	}
	return t, nil
}

func newAttachment(d *Device, label string, size wgpu.Extent3D, format wgpu.TextureFormat) (*Texture, error) {
	tex, err := d.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         label,
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding,
	})
	if err != nil {
		return nil, fmt.Errorf("attachment %q: %w", label, err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("attachment %q view: %w", label, err)
	}
	return &Texture{label: label, texture: tex, view: view}, nil
}

func (t *Target) Label() string { return t.label }

func (t *Target) Extent() gpu.Extent { return t.extent }

// ColorTexture is nil for depth only targets.
func (t *Target) ColorTexture() gpu.Texture {
	if t.color == nil {
		return nil
	}
	return t.color
}

func (t *Target) DepthTexture() gpu.Texture { return t.depth }

func (t *Target) attachments() (color, depth *wgpu.TextureView) {
	if t.color != nil {
		color = t.color.view
	}
	return color, t.depth.view
}

func (t *Target) Release() {
	if t.color != nil {
		t.color.Release()
	}
	t.depth.Release()
}

// Vertex is the interleaved layout of every mesh.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
	UV       [2]float32
}

var vertexLayout = wgpu.VertexBufferLayout{
	ArrayStride: uint64(unsafe.Sizeof(Vertex{})),
	StepMode:    wgpu.VertexStepModeVertex,
	Attributes: []wgpu.VertexAttribute{
		{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
		{Format: wgpu.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
		{Format: wgpu.VertexFormatFloat32x2, Offset: 24, ShaderLocation: 2},
	},
}

// Mesh is uploaded geometry. Index buffers are uint32.
type Mesh struct {
	label    string
	vertices *wgpu.Buffer
	indices  *wgpu.Buffer
	vcount   uint32
	icount   uint32
}

func NewMesh(d *Device, label string, vertices []Vertex, indices []uint32) (*Mesh, error) {
	if len(vertices) == 0 {
		return nil, fmt.Errorf("mesh %q: no vertices", label)
	}
	m := &Mesh{label: label, vcount: uint32(len(vertices)), icount: uint32(len(indices))}

	var err error
	m.vertices, err = d.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    label + "/vertices",
		Contents: wgpu.ToBytes(vertices),
		Usage:    wgpu.BufferUsageVertex,
	})
	if err != nil {
		return nil, fmt.Errorf("mesh %q: %w", label, err)
	}
	if len(indices) > 0 {
		m.indices, err = d.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
			Label:    label + "/indices",
			Contents: wgpu.ToBytes(indices),
			Usage:    wgpu.BufferUsageIndex,
		})
		if err != nil {
			m.vertices.Release()
			return nil, fmt.Errorf("mesh %q: %w", label, err)
		}
	}
	return m, nil
}

func (m *Mesh) VertexCount() uint32 { return m.vcount }

func (m *Mesh) IndexCount() uint32 { return m.icount }

func (m *Mesh) Release() {
	m.vertices.Release()
	if m.indices != nil {
		m.indices.Release()
	}
}

var (
	_ gpu.Buffer  = (*Buffer)(nil)
	_ gpu.Texture = (*Texture)(nil)
	_ gpu.Target  = (*Target)(nil)
	_ gpu.Mesh    = (*Mesh)(nil)
)
