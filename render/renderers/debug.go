package renderers

import (
	"github.com/gekko3d/framegraph/gpu"
	"github.com/gekko3d/framegraph/render"
	"github.com/gekko3d/framegraph/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// fullRect is the whole target in NDC: min xy, max xy.
var fullRect = mgl32.Vec4{-1, -1, 1, 1}

// ShadowMapDebugRenderer shows one cascade of the shadow depth texture.
type ShadowMapDebugRenderer struct {
	base[DebugQuadUniforms]
	hooks[*render.ScenePassData]

	// Cascade is the layer shown. Out of range values wrap.
	Cascade int
}

func NewShadowMapDebugRenderer(opts Options) *ShadowMapDebugRenderer {
	return &ShadowMapDebugRenderer{base: newBase[DebugQuadUniforms]("shadow_map_debug", opts, gpu.PipelineDesc{
		Shader:      "debug_quad",
		UniformSize: sizeOf[DebugQuadUniforms](),
	})}
}

func (r *ShadowMapDebugRenderer) Init() error { return r.base.init() }

func (r *ShadowMapDebugRenderer) PreRender(rc render.RenderContext, data *render.ScenePassData) {
	r.bind(rc.Recorder, data.Extent)
}

// Render draws once per pass, on the root only.
func (r *ShadowMapDebugRenderer) Render(rc render.RenderContext, node *scene.Node, data *render.ScenePassData) {
	if node.Parent() != nil {
		return
	}
	shadows, ok := scene.FindOne[scene.Shadows](rc.World, scene.TagShadows)
	if !ok || len(shadows.Component.Cascades) == 0 {
		return
	}
	count := len(shadows.Component.Cascades)
	layer := ((r.Cascade % count) + count) % count
	u := DebugQuadUniforms{
		Rect:   fullRect,
		Params: mgl32.Vec4{float32(layer), data.NearFar.X(), data.NearFar.Y(), 0},
	}
	r.push(rc.Recorder, &u)
	bindTextures(rc.Recorder, shadows.Component.DepthTexture)
	rc.Recorder.Draw(billboardQuad)
}

func (r *ShadowMapDebugRenderer) ShutDown() { r.base.shutDown() }

// TextureDebugRenderer shows the colour output of the offscreen pass tagged Source.
type TextureDebugRenderer struct {
	base[DebugQuadUniforms]
	hooks[*render.ScenePassData]

	Source scene.Tag
}

func NewTextureDebugRenderer(source scene.Tag, opts Options) *TextureDebugRenderer {
	return &TextureDebugRenderer{
		base: newBase[DebugQuadUniforms]("texture_debug", opts, gpu.PipelineDesc{
			Shader:      "debug_quad",
			UniformSize: sizeOf[DebugQuadUniforms](),
		}),
		Source: source,
	}
}

func (r *TextureDebugRenderer) Init() error { return r.base.init() }

func (r *TextureDebugRenderer) PreRender(rc render.RenderContext, data *render.ScenePassData) {
	r.bind(rc.Recorder, data.Extent)
}

func (r *TextureDebugRenderer) Render(rc render.RenderContext, node *scene.Node, data *render.ScenePassData) {
	if node.Parent() != nil {
		return
	}
	pass, ok := scene.FindOne[scene.OffscreenPass](rc.World, r.Source)
	if !ok || pass.Component.ColorTexture == nil {
		return
	}
	u := DebugQuadUniforms{Rect: fullRect, Params: mgl32.Vec4{-1, 0, 0, 0}}
	r.push(rc.Recorder, &u)
	bindTextures(rc.Recorder, pass.Component.ColorTexture)
	rc.Recorder.Draw(billboardQuad)
}

func (r *TextureDebugRenderer) ShutDown() { r.base.shutDown() }

// boxEdges is a line list over the 8 box corners.
const boxEdges = 24

// BoundingVolumeDebugRenderer outlines the working bounding volume of every visible node.
// Spheres are drawn as their enclosing box.
type BoundingVolumeDebugRenderer struct {
	base[BoxUniforms]
	hooks[*render.ScenePassData]

	Color mgl32.Vec4
}

func NewBoundingVolumeDebugRenderer(opts Options) *BoundingVolumeDebugRenderer {
	return &BoundingVolumeDebugRenderer{
		base: newBase[BoxUniforms]("bounding_volume_debug", opts, gpu.PipelineDesc{
			Shader:      "box_lines",
			UniformSize: sizeOf[BoxUniforms](),
			DepthTest:   true,
		}),
		Color: mgl32.Vec4{0, 1, 0, 1},
	}
}

func (r *BoundingVolumeDebugRenderer) Init() error { return r.base.init() }

func (r *BoundingVolumeDebugRenderer) PreRender(rc render.RenderContext, data *render.ScenePassData) {
	r.bind(rc.Recorder, data.Extent)
}

func (r *BoundingVolumeDebugRenderer) Render(rc render.RenderContext, node *scene.Node, data *render.ScenePassData) {
	vp := data.ViewProjection()
	render.Walk(rc, node, 0, data.Frustum, func(n *scene.Node) {
		bv, ok := scene.GetComponent[scene.BoundingVolume](rc.World, n.Id())
		if !ok {
			return
		}
		u := BoxUniforms{ViewProjection: vp, Color: r.Color}
		switch bv.Kind() {
		case scene.VolumeSphere:
			s := bv.WorkingSphere()
			extent := mgl32.Vec3{s.Radius, s.Radius, s.Radius}
			u.Min = s.Center.Sub(extent).Vec4(1)
			u.Max = s.Center.Add(extent).Vec4(1)
		default:
			box := bv.WorkingAABB()
			u.Min = box.Min.Vec4(1)
			u.Max = box.Max.Vec4(1)
		}
		r.push(rc.Recorder, &u)
		rc.Recorder.Draw(gpu.DrawCall{VertexCount: boxEdges, InstanceCount: 1})
	})
}

func (r *BoundingVolumeDebugRenderer) ShutDown() { r.base.shutDown() }

var (
	_ render.SceneRenderer = (*ShadowMapDebugRenderer)(nil)
	_ render.SceneRenderer = (*TextureDebugRenderer)(nil)
	_ render.SceneRenderer = (*BoundingVolumeDebugRenderer)(nil)
)
