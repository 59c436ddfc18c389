package renderers

import (
	"github.com/gekko3d/framegraph/gpu"
	"github.com/gekko3d/framegraph/render"
	"github.com/gekko3d/framegraph/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// ShadowVariants lists the depth-only renderers of a cascade pass in registration order.
// Every shadow variant also requires FlagCastsShadows.
var ShadowVariants = []MeshVariant{
	{Name: "default_shadows", Required: scene.FlagRender},
	{Name: "bump_mapped_shadows", Required: scene.FlagRenderNormalMapped},
	{Name: "terrain_shadows", Required: scene.FlagTerrain},
	{Name: "terrain_bump_mapped_shadows", Required: scene.FlagTerrainNormalMapped},
	{Name: "animation_shadows", Required: scene.FlagAnimation, Animated: true},
	{Name: "animation_bump_mapped_shadows", Required: scene.FlagAnimationNormalMapped, Animated: true},
}

// ShadowsRenderer writes depth for one variant into a shadow cascade.
type ShadowsRenderer struct {
	base[ShadowUniforms]
	hooks[*render.ShadowsPassData]
	variant  MeshVariant
	required scene.FlagSet
	bones    *gpu.UniformRingPool[BoneUniforms]
}

func NewShadowsRenderer(variant MeshVariant, opts Options) *ShadowsRenderer {
	return &ShadowsRenderer{
		base: newBase[ShadowUniforms](variant.Name, opts, gpu.PipelineDesc{
			Shader:      "shadows",
			UniformSize: sizeOf[ShadowUniforms](),
			DepthOnly:   true,
			DepthTest:   true,
			DepthWrite:  true,
		}),
		variant:  variant,
		required: variant.Required | scene.FlagCastsShadows,
	}
}

func (r *ShadowsRenderer) Variant() MeshVariant { return r.variant }

func (r *ShadowsRenderer) Init() error {
	if err := r.base.init(); err != nil {
		return err
	}
	if r.variant.Animated {
		bones, err := newPool[BoneUniforms](r.opts, r.desc.Label+"/bones")
		if err != nil {
			r.base.shutDown()
			return err
		}
		r.bones = bones
	}
	return nil
}

func (r *ShadowsRenderer) PreRender(rc render.RenderContext, data *render.ShadowsPassData) {
	r.bind(rc.Recorder, data.Extent)
}

func (r *ShadowsRenderer) Render(rc render.RenderContext, node *scene.Node, data *render.ShadowsPassData) {
	render.Walk(rc, node, r.required, data.Frustum, func(n *scene.Node) {
		model, ok := scene.GetComponent[scene.Model](rc.World, n.Id())
		if !ok || model.Mesh == nil {
			return
		}
		u := ShadowUniforms{
			Model:      worldMatrix(rc.World, n),
			View:       data.View,
			Projection: data.Projection,
		}
		r.push(rc.Recorder, &u)
		if r.variant.Animated {
			var bones BoneUniforms
			for i := range bones.Bones {
				bones.Bones[i] = mgl32.Ident4()
			}
			if anim, ok := scene.GetComponent[scene.Animation](rc.World, n.Id()); ok {
				copy(bones.Bones[:], anim.Bones)
			}
			block := r.bones.GetNext()
			block.Update(&bones)
			rc.Recorder.BindUniform(1, block.Binding())
		}
		rc.Recorder.Draw(gpu.DrawMesh(model.Mesh))
	})
}

func (r *ShadowsRenderer) ShutDown() {
	if r.bones != nil {
		r.bones.Release()
		r.bones = nil
	}
	r.base.shutDown()
}

var _ render.ShadowsRenderer = (*ShadowsRenderer)(nil)
