package framegraph

import (
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/gekko3d/framegraph/gpu"
	"github.com/gekko3d/framegraph/gpu/wgpubackend"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// Window is the GLFW window frames are presented to.
type Window struct {
	window  *glfw.Window
	surface *wgpubackend.Surface
	Width   int
	Height  int
}

// WindowModule opens a window and brings up WebGPU on it. It installs the Window and
// GPU resources, so it must come before PassesModule and RenderModule.
type WindowModule struct {
	Width  int
	Height int
	Title  string
	// Shaders are added to, or replace, the backend's default shaders.
	Shaders map[string]wgpubackend.Shader
	// UniformAlignment overrides the backend default when non-zero.
	UniformAlignment uint64
}

func (mod WindowModule) Install(app *App, cmd *Commands) {
	ensureSingleBackend(app, "wgpu")
	if mod.Width <= 0 {
		mod.Width = 1280
	}
	if mod.Height <= 0 {
		mod.Height = 720
	}
	if mod.Title == "" {
		mod.Title = "framegraph"
	}

	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		panic(err)
	}
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	win, err := glfw.CreateWindow(mod.Width, mod.Height, mod.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		panic(err)
	}

	g, surface, err := mod.createGPU(win)
	if err != nil {
		win.Destroy()
		glfw.Terminate()
		panic(fmt.Sprintf("window module: %v", err))
	}
	w := &Window{window: win, surface: surface, Width: mod.Width, Height: mod.Height}
	cmd.AddResources(w, g)
	cmd.OnShutdown(func() {
		surface.Release()
		gpu.Release(g.Device)
		win.Destroy()
		glfw.Terminate()
	})
	cmd.UseSystem(System(pollWindowSystem).InStage(PreUpdate))
}

func (mod WindowModule) createGPU(win *glfw.Window) (*GPU, *wgpubackend.Surface, error) {
	instance := wgpu.CreateInstance(nil)
	defer instance.Release()

	surface := instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(win))
	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		surface.Release()
		return nil, nil, fmt.Errorf("request adapter: %w", err)
	}
	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{Label: "framegraph"})
	if err != nil {
		surface.Release()
		return nil, nil, fmt.Errorf("request device: %w", err)
	}

	caps := surface.GetCapabilities(adapter)
	config := &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      caps.Formats[0],
		Width:       uint32(mod.Width),
		Height:      uint32(mod.Height),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   caps.AlphaModes[0],
	}
	surface.Configure(adapter, device, config)

	opts := []wgpubackend.DeviceOption{wgpubackend.WithShaders(mod.Shaders)}
	if mod.UniformAlignment != 0 {
		opts = append(opts, wgpubackend.WithUniformAlignment(mod.UniformAlignment))
	}
	d, err := wgpubackend.NewDevice(device, config.Format, opts...)
	if err != nil {
		surface.Release()
		return nil, nil, err
	}
	s, err := wgpubackend.NewSurface(d, adapter, surface, config)
	if err != nil {
		d.Release()
		surface.Release()
		return nil, nil, err
	}

	return &GPU{
		Device: d,
		Frames: s,
		NewTarget: func(label string, extent gpu.Extent, depthOnly bool) (gpu.Target, error) {
			return wgpubackend.NewTarget(d, label, extent, depthOnly)
		},
	}, s, nil
}

// pollWindowSystem handles window events, quits when the window is closed and follows
// framebuffer resizes.
func pollWindowSystem(w *Window, cmd *Commands) {
	glfw.PollEvents()
	if w.window.ShouldClose() {
		cmd.Quit()
		return
	}
	width, height := w.window.GetFramebufferSize()
	if width == w.Width && height == w.Height {
		return
	}
	if err := w.surface.Resize(uint32(width), uint32(height)); err != nil {
		cmd.app.Logger().Errorf("resize surface to %dx%d: %v", width, height, err)
		return
	}
	w.Width, w.Height = width, height
}
