package gpu

import "image"

// Device creates the pass scoped resources renderers acquire in Init.
type Device interface {
	BufferAllocator
	CreatePipeline(desc PipelineDesc) (Pipeline, error)
	CreateOcclusionQuery(label string) (OcclusionQuery, error)
	// CreateTexture uploads a static image, such as a glyph atlas.
	CreateTexture(label string, img image.Image) (Texture, error)
	// UniformAlignment is the minimum offset alignment of dynamically bound uniform blocks.
	UniformAlignment() uint64
}

// HostDevice is a Device without a GPU behind it.
type HostDevice struct {
	*HostAllocator
	Alignment uint64

	pipelines []*HostPipeline
	queries   []*HostOcclusionQuery
}

func NewHostDevice() *HostDevice {
	return &HostDevice{HostAllocator: NewHostAllocator(), Alignment: 256}
}

type HostPipeline struct {
	Desc PipelineDesc
}

func (p *HostPipeline) Label() string { return p.Desc.Label }

func (d *HostDevice) CreatePipeline(desc PipelineDesc) (Pipeline, error) {
	p := &HostPipeline{Desc: desc}
	d.mu.Lock()
	d.pipelines = append(d.pipelines, p)
	d.mu.Unlock()
	return p, nil
}

func (d *HostDevice) CreateOcclusionQuery(label string) (OcclusionQuery, error) {
	q := &HostOcclusionQuery{}
	d.mu.Lock()
	d.queries = append(d.queries, q)
	d.mu.Unlock()
	return q, nil
}

// HostTexture keeps the uploaded image in memory.
type HostTexture struct {
	Name  string
	Image image.Image
}

func (t *HostTexture) Label() string { return t.Name }

func (d *HostDevice) CreateTexture(label string, img image.Image) (Texture, error) {
	return &HostTexture{Name: label, Image: img}, nil
}

func (d *HostDevice) UniformAlignment() uint64 { return d.Alignment }

func (d *HostDevice) Pipelines() []*HostPipeline {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*HostPipeline(nil), d.pipelines...)
}

func (d *HostDevice) Queries() []*HostOcclusionQuery {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*HostOcclusionQuery(nil), d.queries...)
}

// HostTarget is a named render target with a fixed extent.
type HostTarget struct {
	Name string
	Size Extent
}

func (t *HostTarget) Label() string  { return t.Name }
func (t *HostTarget) Extent() Extent { return t.Size }

// HostMesh is geometry known only by its counts.
type HostMesh struct {
	Vertices uint32
	Indices  uint32
}

func (m HostMesh) VertexCount() uint32 { return m.Vertices }
func (m HostMesh) IndexCount() uint32  { return m.Indices }

var (
	_ Device  = (*HostDevice)(nil)
	_ Target  = (*HostTarget)(nil)
	_ Texture = (*HostTexture)(nil)
	_ Mesh    = HostMesh{}
)
