package renderers

import (
	"fmt"

	"github.com/gekko3d/framegraph/gpu"
	"github.com/gekko3d/framegraph/render"
	"github.com/gekko3d/framegraph/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// MeshVariant is one row of the shading dispatch table.
type MeshVariant struct {
	Name     string
	Required scene.FlagSet
	Animated bool
}

var (
	VariantDefault                 = MeshVariant{Name: "default", Required: scene.FlagRender}
	VariantTextureless             = MeshVariant{Name: "textureless", Required: scene.FlagRenderTextureless}
	VariantNormalMapped            = MeshVariant{Name: "normal_mapped", Required: scene.FlagRenderNormalMapped}
	VariantParallaxMapped          = MeshVariant{Name: "parallax_mapped", Required: scene.FlagRenderParallaxMapped}
	VariantConeStepMapped          = MeshVariant{Name: "cone_step_mapped", Required: scene.FlagRenderConeStepMapped}
	VariantTerrain                 = MeshVariant{Name: "terrain", Required: scene.FlagTerrain}
	VariantTerrainNormalMapped     = MeshVariant{Name: "terrain_normal_mapped", Required: scene.FlagTerrainNormalMapped}
	VariantTerrainParallaxMapped   = MeshVariant{Name: "terrain_parallax_mapped", Required: scene.FlagTerrainParallaxMapped}
	VariantTerrainConeStepMapped   = MeshVariant{Name: "terrain_cone_step_mapped", Required: scene.FlagTerrainConeStepMapped}
	VariantAnimation               = MeshVariant{Name: "animation", Required: scene.FlagAnimation, Animated: true}
	VariantAnimationTextureless    = MeshVariant{Name: "animation_textureless", Required: scene.FlagAnimationTextureless, Animated: true}
	VariantAnimationNormalMapped   = MeshVariant{Name: "animation_normal_mapped", Required: scene.FlagAnimationNormalMapped, Animated: true}
	VariantAnimationParallaxMapped = MeshVariant{Name: "animation_parallax_mapped", Required: scene.FlagAnimationParallaxMapped, Animated: true}
	VariantAnimationConeStepMapped = MeshVariant{Name: "animation_cone_step_mapped", Required: scene.FlagAnimationConeStepMapped, Animated: true}
)

// SceneMeshVariants lists the lit geometry renderers in registration order.
var SceneMeshVariants = []MeshVariant{
	VariantDefault,
	VariantTextureless,
	VariantNormalMapped,
	VariantParallaxMapped,
	VariantConeStepMapped,
	VariantTerrain,
	VariantTerrainNormalMapped,
	VariantTerrainParallaxMapped,
	VariantTerrainConeStepMapped,
	VariantAnimation,
	VariantAnimationTextureless,
	VariantAnimationNormalMapped,
	VariantAnimationParallaxMapped,
	VariantAnimationConeStepMapped,
}

// MeshRenderer draws lit geometry for one variant in a scene-type pass.
type MeshRenderer struct {
	base[SceneUniforms]
	hooks[*render.ScenePassData]
	variant MeshVariant
	bones   *gpu.UniformRingPool[BoneUniforms]

	light       scene.Light
	cascades    [MaxCascades]mgl32.Mat4
	splits      mgl32.Vec4
	count       int
	shadowDepth gpu.Texture
}

func NewMeshRenderer(variant MeshVariant, opts Options) *MeshRenderer {
	return &MeshRenderer{
		base: newBase[SceneUniforms](variant.Name, opts, gpu.PipelineDesc{
			Shader:      "mesh",
			UniformSize: sizeOf[SceneUniforms](),
			DepthTest:   true,
			DepthWrite:  true,
			ClipPlane:   true,
		}),
		variant: variant,
	}
}

func (r *MeshRenderer) Variant() MeshVariant { return r.variant }

func (r *MeshRenderer) Init() error {
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

// BeforeRender snapshots the main light and the shadow cascades for the pass.
func (r *MeshRenderer) BeforeRender(rc render.RenderContext, data *render.ScenePassData) {
	r.light = *scene.MustFindOne[scene.Light](rc.World, scene.TagMainLight).Component
	r.count = 0
	r.shadowDepth = nil
	if shadows, ok := scene.FindOne[scene.Shadows](rc.World, scene.TagShadows); ok {
		r.shadowDepth = shadows.Component.DepthTexture
		r.count = min(len(shadows.Component.Cascades), MaxCascades)
		for i := 0; i < r.count; i++ {
			c := shadows.Component.Cascades[i]
			r.cascades[i] = c.ViewProjection()
			r.splits[i] = c.SplitDepth
		}
	}
}

func (r *MeshRenderer) PreRender(rc render.RenderContext, data *render.ScenePassData) {
	r.bind(rc.Recorder, data.Extent)
}

func (r *MeshRenderer) Render(rc render.RenderContext, node *scene.Node, data *render.ScenePassData) {
	render.Walk(rc, node, r.variant.Required, data.Frustum, func(n *scene.Node) {
		r.draw(rc, n, data)
	})
}

func (r *MeshRenderer) draw(rc render.RenderContext, n *scene.Node, data *render.ScenePassData) {
	model, ok := scene.GetComponent[scene.Model](rc.World, n.Id())
	if !ok || model.Mesh == nil {
		return
	}
	world := worldMatrix(rc.World, n)
	material := scene.DefaultMaterial()
	if m, ok := scene.GetComponent[scene.Material](rc.World, n.Id()); ok {
		material = *m
	}

	u := SceneUniforms{
		Model:                  world,
		View:                   data.View,
		Projection:             data.Projection,
		Normal:                 world.Inv().Transpose(),
		CascadeViewProjections: r.cascades,
		CascadeSplits:          r.splits,
		ClipPlane:              data.ClipPlane,
		CameraPosition:         data.CameraPosition.Vec4(1),
		LightPosition:          r.light.Position.Vec4(1),
		LightColor:             r.light.Color.Vec4(1),
		LightAttenuation:       r.light.Attenuation.Vec4(0),
		Color:                  material.Color,
		MaterialParams:         mgl32.Vec4{material.Shininess, material.Reflectivity, material.HeightScale, float32(r.count)},
	}
	r.push(rc.Recorder, &u)
	if r.variant.Animated {
		r.pushBones(rc, n)
	}
	bindTextures(rc.Recorder, r.shadowDepth, material.Texture, material.NormalTexture, material.HeightTexture)
	rc.Recorder.Draw(gpu.DrawMesh(model.Mesh))
}

func (r *MeshRenderer) pushBones(rc render.RenderContext, n *scene.Node) {
	var u BoneUniforms
	for i := range u.Bones {
		u.Bones[i] = mgl32.Ident4()
	}
	if anim, ok := scene.GetComponent[scene.Animation](rc.World, n.Id()); ok {
		copy(u.Bones[:], anim.Bones)
	}
	block := r.bones.GetNext()
	block.Update(&u)
	rc.Recorder.BindUniform(1, block.Binding())
}

func (r *MeshRenderer) ShutDown() {
	if r.bones != nil {
		r.bones.Release()
		r.bones = nil
	}
	r.base.shutDown()
}

func (r *MeshRenderer) String() string {
	return fmt.Sprintf("MeshRenderer(%s)", r.variant.Name)
}

var _ render.SceneRenderer = (*MeshRenderer)(nil)
