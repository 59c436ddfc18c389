package wgpubackend

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/framegraph/gpu"
)

// SurfaceTarget is the swapchain image of the current frame plus the shared depth buffer.
type SurfaceTarget struct {
	texture *wgpu.Texture
	view    *wgpu.TextureView
	depth   *Texture
	extent  gpu.Extent
}

func (t *SurfaceTarget) Label() string { return "surface" }

func (t *SurfaceTarget) Extent() gpu.Extent { return t.extent }

// Surface presents frames to a configured wgpu surface.
type Surface struct {
	device  *Device
	adapter *wgpu.Adapter
	surface *wgpu.Surface
	config  *wgpu.SurfaceConfiguration
	depth   *Texture

	current  *SurfaceTarget
	recorder *Recorder
}

// NewSurface takes a surface already configured with config.
func NewSurface(d *Device, adapter *wgpu.Adapter, surface *wgpu.Surface, config *wgpu.SurfaceConfiguration) (*Surface, error) {
	s := &Surface{device: d, adapter: adapter, surface: surface, config: config}
	if err := s.createDepth(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Surface) createDepth() error {
	size := wgpu.Extent3D{Width: s.config.Width, Height: s.config.Height, DepthOrArrayLayers: 1}
	depth, err := newAttachment(s.device, "surface/depth", size, DepthFormat)
	if err != nil {
		return err
	}
	if s.depth != nil {
		s.depth.Release()
	}
	s.depth = depth
	return nil
}

func (s *Surface) Extent() gpu.Extent {
	return gpu.Extent{Width: s.config.Width, Height: s.config.Height}
}

// Resize reconfigures the surface. Zero sizes (a minimised window) are ignored.
func (s *Surface) Resize(width, height uint32) error {
	if width == 0 || height == 0 || (width == s.config.Width && height == s.config.Height) {
		return nil
	}
	s.config.Width, s.config.Height = width, height
	s.surface.Configure(s.adapter, s.device.device, s.config)
	return s.createDepth()
}

func (s *Surface) Acquire() (gpu.Frame, error) {
	texture, err := s.surface.GetCurrentTexture()
	if err != nil {
		return gpu.Frame{}, fmt.Errorf("acquire surface texture: %w", err)
	}
	view, err := texture.CreateView(nil)
	if err != nil {
		texture.Release()
		return gpu.Frame{}, fmt.Errorf("surface view: %w", err)
	}
	recorder, err := s.device.BeginFrame()
	if err != nil {
		view.Release()
		texture.Release()
		return gpu.Frame{}, err
	}
	s.current = &SurfaceTarget{texture: texture, view: view, depth: s.depth, extent: s.Extent()}
	s.recorder = recorder
	return gpu.Frame{Target: s.current, Recorder: recorder, Extent: s.current.extent}, nil
}

func (s *Surface) Submit() error {
	if s.recorder == nil {
		return nil
	}
	err := s.recorder.Submit()
	s.surface.Present()
	s.current.view.Release()
	s.current.texture.Release()
	s.current, s.recorder = nil, nil
	return err
}

func (s *Surface) Release() {
	if s.depth != nil {
		s.depth.Release()
		s.depth = nil
	}
	s.surface.Release()
}

var (
	_ gpu.Target      = (*SurfaceTarget)(nil)
	_ gpu.FrameSource = (*Surface)(nil)
)
