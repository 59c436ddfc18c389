package renderers

import (
	"github.com/gekko3d/framegraph/gpu"
	"github.com/gekko3d/framegraph/render"
	"github.com/gekko3d/framegraph/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// WaterRenderer shades water tiles from the reflection and refraction targets of the
// same frame, so it only belongs to the main pass.
type WaterRenderer struct {
	base[WaterUniforms]
	hooks[*render.ScenePassData]

	light      scene.Light
	reflection scene.OffscreenPass
	refraction scene.OffscreenPass
}

func NewWaterRenderer(opts Options) *WaterRenderer {
	return &WaterRenderer{base: newBase[WaterUniforms]("water", opts, gpu.PipelineDesc{
		UniformSize: sizeOf[WaterUniforms](),
		DepthTest:   true,
		DepthWrite:  true,
		Blend:       true,
	})}
}

func (r *WaterRenderer) Init() error { return r.base.init() }

func (r *WaterRenderer) BeforeRender(rc render.RenderContext, data *render.ScenePassData) {
	r.light = *scene.MustFindOne[scene.Light](rc.World, scene.TagMainLight).Component
	r.reflection = *scene.MustFindOne[scene.OffscreenPass](rc.World, scene.TagWaterReflection).Component
	r.refraction = *scene.MustFindOne[scene.OffscreenPass](rc.World, scene.TagWaterRefraction).Component
}

func (r *WaterRenderer) PreRender(rc render.RenderContext, data *render.ScenePassData) {
	r.bind(rc.Recorder, data.Extent)
}

func (r *WaterRenderer) Render(rc render.RenderContext, node *scene.Node, data *render.ScenePassData) {
	render.Walk(rc, node, scene.FlagWater, data.Frustum, func(n *scene.Node) {
		water, ok := scene.GetComponent[scene.Water](rc.World, n.Id())
		if !ok || water.Mesh == nil {
			return
		}
		u := WaterUniforms{
			Model:          worldMatrix(rc.World, n),
			View:           data.View,
			Projection:     data.Projection,
			CameraPosition: data.CameraPosition.Vec4(1),
			LightPosition:  r.light.Position.Vec4(1),
			LightColor:     r.light.Color.Vec4(1),
			Params:         mgl32.Vec4{water.Height, data.NearFar.X(), data.NearFar.Y(), 0},
		}
		r.push(rc.Recorder, &u)
		bindTextures(rc.Recorder, r.reflection.ColorTexture, r.refraction.ColorTexture, r.refraction.DepthTexture)
		rc.Recorder.Draw(gpu.DrawMesh(water.Mesh))
	})
}

func (r *WaterRenderer) ShutDown() { r.base.shutDown() }

var _ render.SceneRenderer = (*WaterRenderer)(nil)
