package renderers

import (
	"errors"
	"image"
	"strings"
	"testing"
	"unsafe"

	"github.com/gekko3d/framegraph/geom"
	"github.com/gekko3d/framegraph/gpu"
	"github.com/gekko3d/framegraph/render"
	"github.com/gekko3d/framegraph/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testExtent = gpu.Extent{Width: 800, Height: 600}

type fixture struct {
	device *gpu.HostDevice
	opts   Options
	world  *scene.World
	list   *gpu.CommandList
	rc     render.RenderContext
	data   *render.ScenePassData
	light  *scene.Node
}

// Camera at the origin looking down -Z, main light far behind the view direction.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	device := gpu.NewHostDevice()
	w := scene.NewWorld()
	light := w.AddNode(nil, 0, scene.TagMainLight)
	require.NoError(t, w.AddComponents(light.Id(), scene.Light{
		Position: mgl32.Vec3{0, 0, -100},
		Color:    mgl32.Vec3{1, 1, 1},
	}))

	view := mgl32.LookAtV(mgl32.Vec3{}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0})
	proj := mgl32.Perspective(mgl32.DegToRad(60), testExtent.Aspect(), 0.1, 1000)
	list := gpu.NewCommandList("test")
	list.Begin()
	return &fixture{
		device: device,
		opts:   Options{Device: device, Capacity: 16, Pass: render.PassScene},
		world:  w,
		list:   list,
		rc:     render.RenderContext{Recorder: list, Extent: testExtent, World: w},
		data: &render.ScenePassData{
			Pass:       render.PassScene,
			View:       view,
			Projection: proj,
			ClipPlane:  mgl32.Vec4{0, -1, 0, 100000},
			Extent:     testExtent,
			NearFar:    mgl32.Vec2{0.1, 1000},
			Frustum:    geom.NewFrustum(proj, view),
		},
		light: light,
	}
}

func (f *fixture) addMesh(t *testing.T, flags scene.FlagSet, z float32) *scene.Node {
	t.Helper()
	n := f.world.AddNode(nil, flags)
	bv := scene.NewSphereVolume(geom.Sphere{Radius: 1})
	bv.Update(mgl32.Translate3D(0, 0, z))
	require.NoError(t, f.world.AddComponents(n.Id(),
		scene.Model{Mesh: gpu.HostMesh{Vertices: 24, Indices: 36}},
		bv,
	))
	return n
}

func runPass[D render.PassData](rc render.RenderContext, r render.Renderer[D], data D) {
	r.BeforeRender(rc, data)
	r.PreRender(rc, data)
	r.Render(rc, rc.World.Root(), data)
	r.PostRender(rc, data)
	r.AfterRender(rc, data)
}

func commandsOf[C gpu.Command](list *gpu.CommandList) []C {
	var out []C
	for _, c := range list.Commands() {
		if typed, ok := c.(C); ok {
			out = append(out, typed)
		}
	}
	return out
}

// readUniform decodes the block a BindUniform command points at.
func readUniform[T any](t *testing.T, b gpu.UniformBinding) T {
	t.Helper()
	buf, ok := b.Buffer.(*gpu.HostBuffer)
	require.True(t, ok)
	var v T
	copy(unsafe.Slice((*byte)(unsafe.Pointer(&v)), unsafe.Sizeof(v)), buf.Bytes()[b.Offset:])
	return v
}

func TestMeshRendererDrawsVisibleNodesOfItsVariant(t *testing.T) {
	f := newFixture(t)
	f.addMesh(t, scene.FlagRender, -10)
	f.addMesh(t, scene.FlagRender, 50)
	f.addMesh(t, scene.FlagTerrain, -10)

	r := NewMeshRenderer(VariantDefault, f.opts)
	require.NoError(t, r.Init())
	defer r.ShutDown()
	assert.Equal(t, "scene/default", r.Pipeline().Label())

	runPass[*render.ScenePassData](f.rc, r, f.data)

	draws := f.list.Draws()
	require.Len(t, draws, 1)
	assert.Equal(t, uint32(36), draws[0].IndexCount)

	binds := commandsOf[gpu.BindUniformCommand](f.list)
	require.Len(t, binds, 1)
	u := readUniform[SceneUniforms](t, binds[0].Binding)
	assert.Equal(t, mgl32.Vec4{0, 0, -100, 1}, u.LightPosition)
	assert.Equal(t, f.data.ClipPlane, u.ClipPlane)
}

func TestMeshRendererRequiresMainLight(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.world.RemoveNode(f.light.Id()))

	r := NewMeshRenderer(VariantDefault, f.opts)
	require.NoError(t, r.Init())
	defer r.ShutDown()
	assert.Panics(t, func() { r.BeforeRender(f.rc, f.data) })
}

func TestAnimatedVariantBindsBones(t *testing.T) {
	f := newFixture(t)
	n := f.addMesh(t, scene.FlagAnimation, -10)
	bone := mgl32.Translate3D(1, 2, 3)
	require.NoError(t, f.world.AddComponents(n.Id(), scene.Animation{Bones: []mgl32.Mat4{bone}}))

	r := NewMeshRenderer(VariantAnimation, f.opts)
	require.NoError(t, r.Init())
	defer r.ShutDown()
	runPass[*render.ScenePassData](f.rc, r, f.data)

	binds := commandsOf[gpu.BindUniformCommand](f.list)
	require.Len(t, binds, 2)
	assert.Equal(t, uint32(1), binds[1].Slot)
	bones := readUniform[BoneUniforms](t, binds[1].Binding)
	assert.Equal(t, bone, bones.Bones[0])
	assert.Equal(t, mgl32.Ident4(), bones.Bones[1])
}

func TestShadowsRendererRequiresCastsShadows(t *testing.T) {
	f := newFixture(t)
	f.addMesh(t, scene.FlagRender, -10)
	f.addMesh(t, scene.FlagRender|scene.FlagCastsShadows, -10)

	view := mgl32.LookAtV(mgl32.Vec3{0, 50, 0}, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, 1})
	proj := mgl32.Ortho(-50, 50, -50, 50, 0, 100)
	data := render.NewShadowsPassData(view, proj, 0, gpu.Extent{Width: 1024, Height: 1024})

	opts := f.opts
	opts.Pass = render.PassShadows
	r := NewShadowsRenderer(ShadowVariants[0], opts)
	require.NoError(t, r.Init())
	defer r.ShutDown()
	assert.Equal(t, "shadows/default_shadows", r.Pipeline().Label())

	runPass[*render.ShadowsPassData](f.rc, r, data)
	assert.Len(t, f.list.Draws(), 1)

	viewports := commandsOf[gpu.SetViewportCommand](f.list)
	require.Len(t, viewports, 1)
	assert.Equal(t, float32(1024), viewports[0].Viewport.Width)
}

func TestParticlesAreChunked(t *testing.T) {
	f := newFixture(t)
	n := f.world.AddNode(nil, scene.FlagParticles)
	instances := make([]scene.ParticleInstance, 150)
	require.NoError(t, f.world.AddComponents(n.Id(), scene.Particles{
		Mesh:      gpu.HostMesh{Vertices: 4, Indices: 6},
		Instances: instances,
	}))

	r := NewParticlesRenderer(f.opts)
	require.NoError(t, r.Init())
	defer r.ShutDown()
	runPass[*render.ScenePassData](f.rc, r, f.data)

	var counts []uint32
	for _, d := range f.list.Draws() {
		counts = append(counts, d.InstanceCount)
	}
	assert.Equal(t, []uint32{64, 64, 22}, counts)
}

func TestFontAtlasLayout(t *testing.T) {
	atlas := DefaultFontAtlas(16)

	quads := atlas.Layout(scene.Text{Content: "a b", Scale: 1}, testExtent)
	assert.Len(t, quads, 2, "spaces advance without a quad")

	lines := atlas.Layout(scene.Text{Content: "a\na", Scale: 1}, testExtent)
	require.Len(t, lines, 2)
	assert.Equal(t, lines[0].Rect.X(), lines[1].Rect.X())
	assert.Less(t, lines[1].Rect.Y(), lines[0].Rect.Y(), "second line is lower on screen")

	w1, h1 := atlas.Measure("ab", 1)
	w2, h2 := atlas.Measure("ab\nabcd", 2)
	assert.Greater(t, w1, float32(0))
	assert.Greater(t, w2, 2*w1)
	assert.InDelta(t, 4*h1, h2, 1e-3)
}

func TestFontRendererChunksGlyphs(t *testing.T) {
	f := newFixture(t)
	n := f.world.AddNode(nil, scene.FlagFont)
	require.NoError(t, f.world.AddComponents(n.Id(), scene.Text{
		Content: strings.Repeat("x", 200),
		Scale:   0.5,
		Color:   mgl32.Vec4{1, 1, 1, 1},
	}))

	r := NewFontRenderer(nil, f.opts)
	require.NoError(t, r.Init())
	defer r.ShutDown()
	require.NotNil(t, r.Atlas())
	runPass[*render.ScenePassData](f.rc, r, f.data)

	draws := f.list.Draws()
	require.Len(t, draws, 2)
	assert.Equal(t, uint32(128), draws[0].InstanceCount)
	assert.Equal(t, uint32(72), draws[1].InstanceCount)
	assert.Equal(t, uint32(6), draws[0].VertexCount)

	textures := commandsOf[gpu.BindTextureCommand](f.list)
	require.NotEmpty(t, textures)
	assert.Equal(t, "scene/font/atlas", textures[0].Texture.Label())
}

func TestSunVisibility(t *testing.T) {
	assert.Equal(t, float32(0), sunVisibility(0, 100))
	assert.Equal(t, float32(0.5), sunVisibility(100, 100))
	assert.Equal(t, float32(1), sunVisibility(1000, 100))
	assert.Equal(t, float32(0), sunVisibility(10, 0))
}

func TestSunRendererOcclusionQuery(t *testing.T) {
	f := newFixture(t)
	n := f.world.AddNode(nil, scene.FlagSun)
	require.NoError(t, f.world.AddComponents(n.Id(), scene.Sun{Scale: 0.1}))

	r := NewSunRenderer(f.opts)
	require.NoError(t, r.Init())
	defer r.ShutDown()
	assert.Equal(t, float32(1), r.Visibility())

	queries := f.device.Queries()
	require.Len(t, queries, 1)
	query := queries[0]

	r.BeforeRender(f.rc, f.data)
	assert.Equal(t, 1, query.Resets())
	r.PreRender(f.rc, f.data)
	r.Render(f.rc, f.world.Root(), f.data)

	var kinds []string
	for _, c := range f.list.Commands() {
		switch c.(type) {
		case gpu.BeginOcclusionQueryCommand:
			kinds = append(kinds, "begin")
		case gpu.DrawCommand:
			kinds = append(kinds, "draw")
		case gpu.EndOcclusionQueryCommand:
			kinds = append(kinds, "end")
		}
	}
	assert.Equal(t, []string{"begin", "draw", "end"}, kinds)

	binds := commandsOf[gpu.BindUniformCommand](f.list)
	require.Len(t, binds, 1)
	u := readUniform[BillboardUniforms](t, binds[0].Binding)
	assert.InDelta(t, 0, u.Translation.X(), 1e-5)
	assert.InDelta(t, 0, u.Translation.Y(), 1e-5)

	// No result yet: visibility is unchanged.
	r.AfterRender(f.rc, f.data)
	assert.Equal(t, float32(1), r.Visibility())

	// 0.1*800 x 0.1*(4/3)*600 pixels fully visible.
	query.Resolve(6400)
	r.AfterRender(f.rc, f.data)
	assert.InDelta(t, 0.5, r.Visibility(), 1e-3)
}

func TestFlarePositions(t *testing.T) {
	f := newFixture(t)

	light := mgl32.Vec3{30, 10, -100}
	ndc, ok := worldToNDC(f.data.ViewProjection(), light)
	require.True(t, ok)

	positions := FlarePositions(f.data, light, 3, 0.5)
	require.Len(t, positions, 3)
	assert.InDelta(t, ndc.X()*0.5, positions[0].X(), 1e-5)
	assert.InDelta(t, 0, positions[1].X(), 1e-5)
	assert.InDelta(t, 0, positions[1].Y(), 1e-5)
	assert.InDelta(t, -ndc.X()*0.5, positions[2].X(), 1e-5)

	behind := FlarePositions(f.data, mgl32.Vec3{0, 0, 100}, 2, 0.5)
	assert.Equal(t, []mgl32.Vec2{offscreen, offscreen}, behind)
}

type fixedVisibility float32

func (v fixedVisibility) Visibility() float32 { return float32(v) }

func TestLensFlareUsesSunVisibility(t *testing.T) {
	f := newFixture(t)
	n := f.world.AddNode(nil, scene.FlagLensFlare)
	require.NoError(t, f.world.AddComponents(n.Id(), scene.LensFlare{
		Flares:  []scene.Flare{{Scale: 0.2}, {Scale: 0.1}},
		Spacing: 0.4,
	}))
	light, ok := scene.GetComponent[scene.Light](f.world, f.light.Id())
	require.True(t, ok)
	light.Position = mgl32.Vec3{20, 10, -100}

	r := NewLensFlareRenderer(fixedVisibility(0.25), f.opts)
	require.NoError(t, r.Init())
	defer r.ShutDown()
	runPass[*render.ScenePassData](f.rc, r, f.data)

	assert.Len(t, f.list.Draws(), 2)
	for _, b := range commandsOf[gpu.BindUniformCommand](f.list) {
		u := readUniform[BillboardUniforms](t, b.Binding)
		assert.Equal(t, float32(0.25), u.Params.X())
	}
}

func TestDebugRenderers(t *testing.T) {
	f := newFixture(t)
	shadows := f.world.AddNode(nil, 0, scene.TagShadows)
	require.NoError(t, f.world.AddComponents(shadows.Id(), scene.Shadows{
		Cascades:     make([]scene.ShadowCascade, 4),
		DepthTexture: &gpu.HostTexture{Name: "shadow_depth"},
	}))

	opts := f.opts
	opts.Pass = render.PassDebug
	shadowMap := NewShadowMapDebugRenderer(opts)
	shadowMap.Cascade = -1
	texture := NewTextureDebugRenderer(scene.TagWaterReflection, opts)
	for _, r := range []render.SceneRenderer{shadowMap, texture} {
		require.NoError(t, r.Init())
		defer r.ShutDown()
		runPass(f.rc, r, f.data)
	}

	// The texture renderer has no reflection pass to show.
	require.Len(t, f.list.Draws(), 1)
	binds := commandsOf[gpu.BindUniformCommand](f.list)
	u := readUniform[DebugQuadUniforms](t, binds[0].Binding)
	assert.Equal(t, float32(3), u.Params.X())
}

func TestBoundingVolumeDebugRenderer(t *testing.T) {
	f := newFixture(t)
	f.addMesh(t, scene.FlagRender, -10)
	f.addMesh(t, scene.FlagRender, 50)

	r := NewBoundingVolumeDebugRenderer(f.opts)
	require.NoError(t, r.Init())
	defer r.ShutDown()
	runPass[*render.ScenePassData](f.rc, r, f.data)

	draws := f.list.Draws()
	require.Len(t, draws, 1)
	assert.Equal(t, uint32(boxEdges), draws[0].VertexCount)
	u := readUniform[BoxUniforms](t, commandsOf[gpu.BindUniformCommand](f.list)[0].Binding)
	assert.Equal(t, mgl32.Vec4{-1, -1, -11, 1}, u.Min)
}

func TestFactoryOrder(t *testing.T) {
	device := gpu.NewHostDevice()
	opts := Options{Device: device, Capacity: 4}

	names := func(list []render.SceneRenderer) []string {
		out := make([]string, len(list))
		for i, r := range list {
			out[i] = r.Name()
		}
		return out
	}

	main := names(SceneRenderers(opts, false))
	assert.Equal(t, []string{"skybox", "sky", "default"}, main[:3])
	assert.Equal(t, []string{"sun", "lens_flare"}, main[len(main)-2:])
	assert.Contains(t, main, "water")

	withBounds := names(SceneRenderers(opts, true))
	assert.Equal(t, "bounding_volume_debug", withBounds[len(withBounds)-3])

	reflection := names(ReflectionRenderers(opts))
	assert.NotContains(t, reflection, "water")
	assert.NotContains(t, reflection, "sun")
	assert.Equal(t, reflection, names(RefractionRenderers(opts)))
	assert.Len(t, reflection, 2+len(SceneMeshVariants)+1)

	shadows := ShadowRenderers(opts)
	require.Len(t, shadows, 6)
	for _, r := range shadows {
		require.NoError(t, r.Init())
		assert.True(t, strings.HasPrefix(r.(*ShadowsRenderer).Pipeline().Label(), "shadows/"))
		r.ShutDown()
	}
	assert.Equal(t, 0, device.Live())
}

var errDeviceFull = errors.New("device full")

type trackedPipeline struct {
	gpu.HostPipeline
	owner *faultyDevice
}

func (p *trackedPipeline) Release() { p.owner.pipelines-- }

// faultyDevice fails the failUniform-th uniform allocation, or every query or
// texture creation, and counts live pipelines.
type faultyDevice struct {
	*gpu.HostDevice
	failUniform int
	failQuery   bool
	failTexture bool

	uniforms  int
	pipelines int
}

func (d *faultyDevice) CreatePipeline(desc gpu.PipelineDesc) (gpu.Pipeline, error) {
	d.pipelines++
	return &trackedPipeline{HostPipeline: gpu.HostPipeline{Desc: desc}, owner: d}, nil
}

func (d *faultyDevice) AllocateUniform(label string, size uint64) (gpu.Buffer, error) {
	d.uniforms++
	if d.uniforms == d.failUniform {
		return nil, errDeviceFull
	}
	return d.HostDevice.AllocateUniform(label, size)
}

func (d *faultyDevice) CreateOcclusionQuery(label string) (gpu.OcclusionQuery, error) {
	if d.failQuery {
		return nil, errDeviceFull
	}
	return d.HostDevice.CreateOcclusionQuery(label)
}

func (d *faultyDevice) CreateTexture(label string, img image.Image) (gpu.Texture, error) {
	if d.failTexture {
		return nil, errDeviceFull
	}
	return d.HostDevice.CreateTexture(label, img)
}

func TestFailedInitReleasesWhatItAcquired(t *testing.T) {
	tests := []struct {
		name   string
		device *faultyDevice
		create func(Options) interface{ Init() error }
	}{
		{"uniform pool", &faultyDevice{failUniform: 1}, func(o Options) interface{ Init() error } {
			return NewMeshRenderer(VariantDefault, o)
		}},
		{"mesh bones", &faultyDevice{failUniform: 2}, func(o Options) interface{ Init() error } {
			return NewMeshRenderer(VariantAnimation, o)
		}},
		{"shadow bones", &faultyDevice{failUniform: 2}, func(o Options) interface{ Init() error } {
			return NewShadowsRenderer(ShadowVariants[4], o)
		}},
		{"sun query", &faultyDevice{failQuery: true}, func(o Options) interface{ Init() error } {
			return NewSunRenderer(o)
		}},
		{"font atlas", &faultyDevice{failTexture: true}, func(o Options) interface{ Init() error } {
			return NewFontRenderer(nil, o)
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.device.HostDevice = gpu.NewHostDevice()
			r := tc.create(Options{Device: tc.device, Capacity: 4})
			assert.ErrorIs(t, r.Init(), errDeviceFull)
			assert.Equal(t, 0, tc.device.pipelines)
			assert.Equal(t, 0, tc.device.Live())
		})
	}
}
