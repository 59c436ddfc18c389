package framegraph

import (
	"errors"
	"fmt"

	"github.com/gekko3d/framegraph/gpu"
	"github.com/gekko3d/framegraph/render"
	"github.com/gekko3d/framegraph/render/master"
	"github.com/gekko3d/framegraph/scene"
)

// TargetFactory creates an offscreen render target on the active backend.
type TargetFactory func(label string, extent gpu.Extent, depthOnly bool) (gpu.Target, error)

// GPU is the active backend: the device renderers allocate from, the source of
// presentation frames and a way to create offscreen targets.
type GPU struct {
	Device    gpu.Device
	Frames    gpu.FrameSource
	NewTarget TargetFactory
}

// FrameState is the frame being recorded. It lives from PreRender to PostRender.
type FrameState struct {
	gpu.Frame
	Index              uint64
	FrameInFlightIndex int
	Acquired           bool
	Err                error
}

// HeadlessModule records frames into host command lists, without a window or GPU.
type HeadlessModule struct {
	Extent gpu.Extent
}

func (mod HeadlessModule) Install(app *App, cmd *Commands) {
	ensureSingleBackend(app, "headless")
	extent := mod.Extent
	if extent.Width == 0 || extent.Height == 0 {
		extent = gpu.Extent{Width: 1280, Height: 720}
	}
	cmd.AddResources(&GPU{
		Device: gpu.NewHostDevice(),
		Frames: gpu.NewHostFrames(extent),
		NewTarget: func(label string, extent gpu.Extent, depthOnly bool) (gpu.Target, error) {
			return &gpu.HostTarget{Name: label, Size: extent}, nil
		},
	})
}

// sampledTarget is a target whose attachments later passes can sample.
type sampledTarget interface {
	ColorTexture() gpu.Texture
	DepthTexture() gpu.Texture
}

func attachments(t gpu.Target) (color, depth gpu.Texture) {
	if s, ok := t.(sampledTarget); ok {
		return s.ColorTexture(), s.DepthTexture()
	}
	return &gpu.HostTexture{Name: t.Label() + "/color"}, &gpu.HostTexture{Name: t.Label() + "/depth"}
}

// PassesModule creates the offscreen targets of the frame: one depth target per shadow
// cascade and the colour targets of the water reflection and refraction passes. It adds
// the nodes the orchestrator looks them up by.
type PassesModule struct {
	Cascades        int
	ShadowExtent    gpu.Extent
	OffscreenExtent gpu.Extent
}

func (mod PassesModule) Install(app *App, cmd *Commands) {
	g := mustResource[GPU](app, "install a backend module before PassesModule")
	if mod.Cascades <= 0 {
		mod.Cascades = master.DefaultCascadeCount
	}
	if mod.ShadowExtent.Width == 0 {
		mod.ShadowExtent = gpu.Extent{Width: 2048, Height: 2048}
	}
	if mod.OffscreenExtent.Width == 0 {
		mod.OffscreenExtent = gpu.Extent{Width: 320, Height: 180}
	}

	var created []gpu.Target
	newTarget := func(label string, extent gpu.Extent, depthOnly bool) gpu.Target {
		t, err := g.NewTarget(label, extent, depthOnly)
		if err != nil {
			for _, c := range created {
				gpu.Release(c)
			}
			panic(fmt.Sprintf("create target %s: %v", label, err))
		}
		created = append(created, t)
		return t
	}

	shadows := &scene.Shadows{Extent: mod.ShadowExtent}
	for i := 0; i < mod.Cascades; i++ {
		t := newTarget(fmt.Sprintf("cascade%d", i), mod.ShadowExtent, true)
		shadows.Cascades = append(shadows.Cascades, scene.ShadowCascade{Target: t})
		if i == 0 {
			_, shadows.DepthTexture = attachments(t)
		}
	}
	cmd.AddNode(0, []scene.Tag{scene.TagShadows}, shadows)

	for _, pass := range []struct {
		label string
		tag   scene.Tag
	}{
		{"reflection", scene.TagWaterReflection},
		{"refraction", scene.TagWaterRefraction},
	} {
		t := newTarget(pass.label, mod.OffscreenExtent, false)
		color, depth := attachments(t)
		cmd.AddNode(0, []scene.Tag{pass.tag}, &scene.OffscreenPass{
			Target:       t,
			Extent:       mod.OffscreenExtent,
			ColorTexture: color,
			DepthTexture: depth,
		})
	}

	cmd.OnShutdown(func() {
		for _, t := range created {
			gpu.Release(t)
		}
	})
}

// RenderModule drives the frame orchestrator from the render stages: PreRender acquires
// a frame, Render records every pass and PostRender submits.
type RenderModule struct {
	// Config defaults to master.DefaultConfig when FramesInFlight is zero.
	Config  master.Config
	Options []master.Option
}

func (mod RenderModule) Install(app *App, cmd *Commands) {
	g := mustResource[GPU](app, "install a backend module before RenderModule")
	cfg := mod.Config
	if cfg.FramesInFlight == 0 {
		cfg = master.DefaultConfig()
	}
	log := app.Logger()

	opts := append([]master.Option{master.WithConfig(cfg), master.WithLogger(log)}, mod.Options...)
	m := master.New(g.Device, opts...)
	if err := m.Init(); err != nil {
		panic(fmt.Sprintf("render module: %v", err))
	}
	cmd.AddResources(m, &FrameState{})
	cmd.OnShutdown(m.ShutDown)

	cmd.UseSystem(System(acquireFrameSystem).InStage(PreRender))
	cmd.UseSystem(System(renderFrameSystem).InStage(Render))
	cmd.UseSystem(System(func(g *GPU, f *FrameState) {
		submitFrame(g, f, log)
	}).InStage(PostRender))
}

func acquireFrameSystem(g *GPU, m *master.MasterRenderer, f *FrameState) {
	frame, err := g.Frames.Acquire()
	f.Frame = frame
	f.Err = err
	f.Acquired = err == nil
	f.FrameInFlightIndex = int(f.Index % uint64(m.Config().FramesInFlight))
}

func renderFrameSystem(m *master.MasterRenderer, f *FrameState, w *scene.World) {
	if !f.Acquired {
		return
	}
	rc := render.RenderContext{
		Target:             f.Target,
		Recorder:           f.Recorder,
		FrameInFlightIndex: f.FrameInFlightIndex,
		Extent:             f.Extent,
	}
	f.Err = m.Render(rc, w)
}

// submitFrame submits even a partially recorded frame so the acquired image is returned.
func submitFrame(g *GPU, f *FrameState, log Logger) {
	switch {
	case f.Acquired:
		if err := g.Frames.Submit(); err != nil {
			log.Errorf("submit frame %d: %v", f.Index, err)
			f.Err = errors.Join(f.Err, err)
		}
	case f.Err != nil:
		log.Warnf("frame %d skipped: %v", f.Index, f.Err)
	}
	f.Acquired = false
	f.Index++
}
