package framegraph

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/gekko3d/framegraph/geom"
	"github.com/gekko3d/framegraph/gpu"
	"github.com/gekko3d/framegraph/render/master"
	"github.com/gekko3d/framegraph/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func headlessConfig() master.Config {
	cfg := master.DefaultConfig()
	cfg.CascadeCount = 2
	cfg.FramesInFlight = 2
	cfg.MaxDrawsPerFrame = 8
	return cfg
}

func populateSystem(done *bool) func(cmd *Commands) {
	return func(cmd *Commands) {
		if *done {
			return
		}
		*done = true
		cmd.AddNode(0, []scene.Tag{scene.TagMainCamera}, scene.NewCamera(mgl32.Vec3{0, 5, 10}, mgl32.Vec3{}))
		cmd.AddNode(0, []scene.Tag{scene.TagMainLight}, scene.Light{Position: mgl32.Vec3{100, 200, 50}, Color: mgl32.Vec3{1, 1, 1}})
		for i := 0; i < 3; i++ {
			cmd.AddNode(scene.FlagRender|scene.FlagCastsShadows, nil,
				scene.NewTransform(mgl32.Vec3{float32(i*2 - 2), 0, 0}),
				scene.Model{Mesh: gpu.HostMesh{Vertices: 8, Indices: 36}},
				scene.NewAABBVolume(geom.AABB{Min: mgl32.Vec3{-1, -1, -1}, Max: mgl32.Vec3{1, 1, 1}}),
			)
		}
	}
}

func newHeadlessApp(t *testing.T, logs *bytes.Buffer) *App {
	t.Helper()
	populated := false
	app := NewAppBuilder().
		UseModule(LoggingModule{Prefix: "test", Out: logs, Err: logs}).
		UseModule(SceneModule{}).
		UseModule(HeadlessModule{Extent: gpu.Extent{Width: 1280, Height: 720}}).
		UseModule(PassesModule{
			Cascades:        2,
			ShadowExtent:    gpu.Extent{Width: 1024, Height: 1024},
			OffscreenExtent: gpu.Extent{Width: 320, Height: 180},
		}).
		UseModule(BoundsModule{}).
		UseModule(RenderModule{Config: headlessConfig()}).
		Build()
	app.UseSystem(System(populateSystem(&populated)).InStage(PreUpdate))
	return app
}

func TestRenderModule_RendersEveryPassIntoTheAcquiredFrame(t *testing.T) {
	var logs bytes.Buffer
	app := newHeadlessApp(t, &logs)

	require.True(t, app.Step())

	g := mustResource[GPU](app, "")
	frames := g.Frames.(*gpu.HostFrames)
	assert.Equal(t, 1, frames.Submitted)
	assert.False(t, frames.List.Recording())

	var targets []string
	for _, c := range frames.List.Commands() {
		if begin, ok := c.(gpu.BeginRenderPassCommand); ok {
			targets = append(targets, begin.Target.Label())
		}
	}
	assert.Equal(t, []string{"cascade0", "cascade1", "reflection", "refraction", "host"}, targets)

	m := mustResource[master.MasterRenderer](app, "")
	stats := m.Stats()
	require.Len(t, stats.Passes, 5)
	assert.Equal(t, 3, stats.Passes[0].Draws)
	assert.Equal(t, 3, stats.Passes[4].Draws)
	assert.Equal(t, stats.Draws(), len(frames.List.Draws()))

	f := mustResource[FrameState](app, "")
	assert.NoError(t, f.Err)
	assert.Equal(t, uint64(1), f.Index)
	assert.NotContains(t, logs.String(), "ERROR")
}

func TestRenderModule_CyclesFramesInFlight(t *testing.T) {
	app := newHeadlessApp(t, &bytes.Buffer{})
	f := mustResource[FrameState](app, "")

	var indices []int
	app.UseSystem(System(func(f *FrameState) {
		indices = append(indices, f.FrameInFlightIndex)
	}).InStage(Render))
	app.Run(5)

	assert.Equal(t, []int{0, 1, 0, 1, 0}, indices)
	assert.Equal(t, uint64(5), f.Index)
}

func TestRenderModule_ShutdownReleasesRenderers(t *testing.T) {
	app := newHeadlessApp(t, &bytes.Buffer{})
	app.Run(2)

	m := mustResource[master.MasterRenderer](app, "")
	assert.False(t, m.Initialized())
	device := mustResource[GPU](app, "").Device.(*gpu.HostDevice)
	assert.Equal(t, 0, device.Live())
}

type failingFrames struct{ err error }

func (f failingFrames) Acquire() (gpu.Frame, error) { return gpu.Frame{}, f.err }
func (f failingFrames) Submit() error               { return errors.New("submit without acquire") }

func TestRenderModule_SkipsFramesThatCannotBeAcquired(t *testing.T) {
	var logs bytes.Buffer
	app := newHeadlessApp(t, &logs)
	g := mustResource[GPU](app, "")
	g.Frames = failingFrames{err: errors.New("surface lost")}

	require.True(t, app.Step())

	f := mustResource[FrameState](app, "")
	assert.EqualError(t, f.Err, "surface lost")
	assert.False(t, f.Acquired)
	assert.Contains(t, logs.String(), "frame 0 skipped: surface lost")
	assert.Equal(t, uint64(0), mustResource[master.MasterRenderer](app, "").Stats().Frames)
}

func TestRenderModule_RequiresBackend(t *testing.T) {
	assert.Panics(t, func() {
		NewAppBuilder().UseModule(SceneModule{}, RenderModule{}).Build()
	})
}

func TestPassesModule_CreatesOffscreenNodes(t *testing.T) {
	app := NewAppBuilder().
		UseModule(SceneModule{}, HeadlessModule{}, PassesModule{Cascades: 3}).
		Build()
	app.FlushCommands()
	w := mustResource[scene.World](app, "")

	shadows := scene.MustFindOne[scene.Shadows](w, scene.TagShadows).Component
	require.Len(t, shadows.Cascades, 3)
	assert.Equal(t, gpu.Extent{Width: 2048, Height: 2048}, shadows.Cascades[2].Target.Extent())
	assert.Equal(t, "cascade0/depth", shadows.DepthTexture.Label())

	reflection := scene.MustFindOne[scene.OffscreenPass](w, scene.TagWaterReflection).Component
	assert.Equal(t, "reflection", reflection.Target.Label())
	assert.Equal(t, "reflection/color", reflection.ColorTexture.Label())
	refraction := scene.MustFindOne[scene.OffscreenPass](w, scene.TagWaterRefraction).Component
	assert.Equal(t, gpu.Extent{Width: 320, Height: 180}, refraction.Extent)
}

func TestBoundsModule_SettlesTheWorldBeforeRendering(t *testing.T) {
	app := NewAppBuilder().
		UseModule(SceneModule{}, HeadlessModule{}, PassesModule{Cascades: 2}, BoundsModule{}).
		Build()
	populated := false
	app.UseSystem(System(populateSystem(&populated)).InStage(PreUpdate))

	var box geom.AABB
	var cascade mgl32.Mat4
	app.UseSystem(System(func(w *scene.World) {
		for _, f := range scene.FindAll[scene.BoundingVolume](w) {
			box = f.Component.WorkingAABB()
		}
		cascade = scene.MustFindOne[scene.Shadows](w, scene.TagShadows).Component.Cascades[1].View
	}).InStage(PreRender))
	app.Step()

	assert.Equal(t, mgl32.Vec3{1, -1, -1}, box.Min)
	assert.NotEqual(t, mgl32.Mat4{}, cascade)
}

func TestBackendModulesAreExclusive(t *testing.T) {
	assert.PanicsWithValue(t, "multiple backends installed: headless and headless", func() {
		NewAppBuilder().UseModule(HeadlessModule{}, HeadlessModule{}).Build()
	})
}

func TestLifecycleModule_RemovesExpiredNodes(t *testing.T) {
	app := NewAppBuilder().UseModule(SceneModule{}, LifecycleModule{}).Build()
	clock := &Time{}
	app.addResources(clock)
	cmd := app.Commands()
	short := cmd.AddNode(scene.FlagParticles, nil, Lifetime{TimeLeft: 0.5})
	long := cmd.AddNode(scene.FlagParticles, nil, Lifetime{TimeLeft: 2})
	app.FlushCommands()
	w := mustResource[scene.World](app, "")

	clock.Dt = 600 * time.Millisecond
	app.Step()
	_, ok := w.Node(short)
	assert.False(t, ok)
	_, ok = w.Node(long)
	assert.True(t, ok)

	clock.Dt = 0
	app.Step()
	_, ok = w.Node(long)
	assert.True(t, ok)
}
