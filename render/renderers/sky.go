package renderers

import (
	"github.com/gekko3d/framegraph/gpu"
	"github.com/gekko3d/framegraph/render"
	"github.com/gekko3d/framegraph/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// fullscreenTriangle covers the viewport without a vertex buffer.
var fullscreenTriangle = gpu.DrawCall{VertexCount: 3, InstanceCount: 1}

// SkyBoxRenderer draws the skybox mesh centered on the camera, behind everything else.
type SkyBoxRenderer struct {
	base[SkyUniforms]
	hooks[*render.ScenePassData]
}

func NewSkyBoxRenderer(opts Options) *SkyBoxRenderer {
	return &SkyBoxRenderer{base: newBase[SkyUniforms]("skybox", opts, gpu.PipelineDesc{
		UniformSize: sizeOf[SkyUniforms](),
		DepthTest:   true,
		ClipPlane:   true,
	})}
}

func (r *SkyBoxRenderer) Init() error { return r.base.init() }

func (r *SkyBoxRenderer) PreRender(rc render.RenderContext, data *render.ScenePassData) {
	r.bind(rc.Recorder, data.Extent)
}

func (r *SkyBoxRenderer) Render(rc render.RenderContext, node *scene.Node, data *render.ScenePassData) {
	render.Traverse(node, func(n *scene.Node) {
		if !n.Flags().Has(scene.FlagSkyBox) {
			return
		}
		model, ok := scene.GetComponent[scene.Model](rc.World, n.Id())
		if !ok || model.Mesh == nil {
			return
		}
		// Rotation only: the box follows the camera.
		view := data.View.Mat3().Mat4()
		u := SkyUniforms{
			View:                  view,
			Projection:            data.Projection,
			InverseViewProjection: data.Projection.Mul4(view).Inv(),
			ClipPlane:             data.ClipPlane,
			CameraPosition:        data.CameraPosition.Vec4(1),
		}
		if sky, ok := scene.GetComponent[scene.Sky](rc.World, n.Id()); ok {
			u.Color = sky.Color.Vec4(1)
		}
		r.push(rc.Recorder, &u)
		rc.Recorder.Draw(gpu.DrawMesh(model.Mesh))
	})
}

func (r *SkyBoxRenderer) ShutDown() { r.base.shutDown() }

// SkyRenderer composites the procedural sky and clouds behind opaque geometry.
type SkyRenderer struct {
	base[SkyUniforms]
	hooks[*render.ScenePassData]
}

func NewSkyRenderer(opts Options) *SkyRenderer {
	return &SkyRenderer{base: newBase[SkyUniforms]("sky", opts, gpu.PipelineDesc{
		UniformSize: sizeOf[SkyUniforms](),
		Blend:       true,
	})}
}

func (r *SkyRenderer) Init() error { return r.base.init() }

func (r *SkyRenderer) PreRender(rc render.RenderContext, data *render.ScenePassData) {
	r.bind(rc.Recorder, data.Extent)
}

func (r *SkyRenderer) Render(rc render.RenderContext, node *scene.Node, data *render.ScenePassData) {
	render.Traverse(node, func(n *scene.Node) {
		if !n.Flags().Has(scene.FlagSky) {
			return
		}
		u := SkyUniforms{
			View:                  data.View,
			Projection:            data.Projection,
			InverseViewProjection: data.ViewProjection().Inv(),
			ClipPlane:             data.ClipPlane,
			CameraPosition:        data.CameraPosition.Vec4(1),
			Color:                 mgl32.Vec4{0.5, 0.7, 0.9, 1},
		}
		if sky, ok := scene.GetComponent[scene.Sky](rc.World, n.Id()); ok {
			u.Color = sky.Color.Vec4(1)
		}
		r.push(rc.Recorder, &u)
		rc.Recorder.Draw(fullscreenTriangle)
	})
}

func (r *SkyRenderer) ShutDown() { r.base.shutDown() }

var (
	_ render.SceneRenderer = (*SkyBoxRenderer)(nil)
	_ render.SceneRenderer = (*SkyRenderer)(nil)
)
