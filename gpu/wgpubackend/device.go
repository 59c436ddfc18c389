// Package wgpubackend implements the gpu contracts on WebGPU.
//
// Uniform slots map to bind groups 0 and 1, sampled texture slots to the bind group of
// the same index (texture view at binding 0, sampler at binding 1). Pipelines use the
// automatic layout of their shader, so only the groups a shader declares are bound.
package wgpubackend

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/framegraph/gpu"
)

const (
	DepthFormat = wgpu.TextureFormatDepth32Float
	// DefaultUniformAlignment is the WebGPU default minUniformBufferOffsetAlignment.
	DefaultUniformAlignment = 256
	// MaxOcclusionQueries is the size of the shared occlusion query set.
	MaxOcclusionQueries = 64
)

var (
	ErrUnknownShader  = errors.New("wgpubackend: unknown shader")
	ErrTooManyQueries = errors.New("wgpubackend: occlusion query set exhausted")
)

// Device creates buffers, pipelines, textures and queries on a wgpu device.
type Device struct {
	device    *wgpu.Device
	queue     *wgpu.Queue
	format    wgpu.TextureFormat
	shaders   map[string]Shader
	alignment uint64

	mu       sync.Mutex
	sampler  *wgpu.Sampler
	queries  *querySet
	released bool
}

type DeviceOption func(*Device)

// WithUniformAlignment overrides the dynamic offset alignment, e.g. from the adapter limits.
func WithUniformAlignment(alignment uint64) DeviceOption {
	return func(d *Device) { d.alignment = alignment }
}

func WithShaders(shaders map[string]Shader) DeviceOption {
	return func(d *Device) {
		for name, s := range shaders {
			d.shaders[name] = s
		}
	}
}

// NewDevice wraps device. format is the colour format of every target, the surface's included.
func NewDevice(device *wgpu.Device, format wgpu.TextureFormat, opts ...DeviceOption) (*Device, error) {
	d := &Device{
		device:    device,
		queue:     device.GetQueue(),
		format:    format,
		shaders:   DefaultShaders(),
		alignment: DefaultUniformAlignment,
	}
	for _, opt := range opts {
		opt(d)
	}

	sampler, err := device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "framegraph sampler",
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeLinear,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("create sampler: %w", err)
	}
	d.sampler = sampler

	queries, err := newQuerySet(device, MaxOcclusionQueries)
	if err != nil {
		sampler.Release()
		return nil, err
	}
	d.queries = queries
	return d, nil
}

func (d *Device) Format() wgpu.TextureFormat { return d.format }

func (d *Device) Raw() *wgpu.Device { return d.device }

func (d *Device) UniformAlignment() uint64 { return d.alignment }

func (d *Device) AllocateUniform(label string, size uint64) (gpu.Buffer, error) {
	if size == 0 {
		return nil, fmt.Errorf("allocate %q: %w", label, gpu.ErrZeroCapacity)
	}
	buf, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("allocate %q: %w", label, err)
	}
	return &Buffer{label: label, size: size, buffer: buf, queue: d.queue}, nil
}

func (d *Device) CreatePipeline(desc gpu.PipelineDesc) (gpu.Pipeline, error) {
	shader, ok := d.shaders[desc.Shader]
	if !ok {
		return nil, fmt.Errorf("pipeline %q: %w %q", desc.Label, ErrUnknownShader, desc.Shader)
	}
	return newPipeline(d, desc, shader)
}

func (d *Device) CreateOcclusionQuery(label string) (gpu.OcclusionQuery, error) {
	q, err := d.queries.allocate(label)
	if err != nil {
		return nil, err
	}
	return q, nil
}

// CreateTexture uploads img. *image.Alpha becomes a single channel texture, anything else RGBA8.
func (d *Device) CreateTexture(label string, img image.Image) (gpu.Texture, error) {
	b := img.Bounds()
	size := wgpu.Extent3D{Width: uint32(b.Dx()), Height: uint32(b.Dy()), DepthOrArrayLayers: 1}

	var (
		format      wgpu.TextureFormat
		pixels      []byte
		bytesPerRow uint32
	)
	switch src := img.(type) {
	case *image.Alpha:
		format, pixels, bytesPerRow = wgpu.TextureFormatR8Unorm, src.Pix, uint32(src.Stride)
	default:
		rgba, ok := img.(*image.RGBA)
		if !ok {
			rgba = image.NewRGBA(b)
			draw.Draw(rgba, b, img, b.Min, draw.Src)
		}
		format, pixels, bytesPerRow = wgpu.TextureFormatRGBA8Unorm, rgba.Pix, uint32(rgba.Stride)
	}

	tex, err := d.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         label,
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("texture %q: %w", label, err)
	}
	err = d.queue.WriteTexture(tex.AsImageCopy(), pixels, &wgpu.TextureDataLayout{
		Offset:       0,
		BytesPerRow:  bytesPerRow,
		RowsPerImage: size.Height,
	}, &size)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("upload %q: %w", label, err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("view %q: %w", label, err)
	}
	return &Texture{label: label, texture: tex, view: view}, nil
}

// Release drops the device level objects. Pipelines and buffers are released by their owners.
func (d *Device) Release() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.released {
		return
	}
	d.released = true
	d.queries.release()
	d.sampler.Release()
}

var _ gpu.Device = (*Device)(nil)
