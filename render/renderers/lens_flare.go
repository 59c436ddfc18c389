package renderers

import (
	"github.com/gekko3d/framegraph/gpu"
	"github.com/gekko3d/framegraph/render"
	"github.com/gekko3d/framegraph/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// VisibilitySource reports how much of the sun was visible in the last resolved frame.
type VisibilitySource interface {
	Visibility() float32
}

// LensFlareRenderer draws the flare textures along the line from the sun through the
// screen center, dimmed by the sun's visibility.
type LensFlareRenderer struct {
	base[BillboardUniforms]
	hooks[*render.ScenePassData]

	sun        VisibilitySource
	visibility float32
}

// NewLensFlareRenderer reads visibility from sun. A nil source means fully visible.
func NewLensFlareRenderer(sun VisibilitySource, opts Options) *LensFlareRenderer {
	return &LensFlareRenderer{
		base: newBase[BillboardUniforms]("lens_flare", opts, gpu.PipelineDesc{
			Shader:      "billboard",
			UniformSize: sizeOf[BillboardUniforms](),
			Blend:       true,
		}),
		sun:        sun,
		visibility: 1,
	}
}

func (r *LensFlareRenderer) Init() error { return r.base.init() }

func (r *LensFlareRenderer) BeforeRender(rc render.RenderContext, data *render.ScenePassData) {
	r.visibility = 1
	if r.sun != nil {
		r.visibility = r.sun.Visibility()
	}
}

func (r *LensFlareRenderer) PreRender(rc render.RenderContext, data *render.ScenePassData) {
	r.bind(rc.Recorder, data.Extent)
}

func (r *LensFlareRenderer) Render(rc render.RenderContext, node *scene.Node, data *render.ScenePassData) {
	render.Traverse(node, func(n *scene.Node) {
		if !n.Flags().Has(scene.FlagLensFlare) {
			return
		}
		lens, ok := scene.GetComponent[scene.LensFlare](rc.World, n.Id())
		if !ok {
			return
		}
		light := scene.MustFindOne[scene.Light](rc.World, scene.TagMainLight).Component
		positions := FlarePositions(data, light.Position, len(lens.Flares), lens.Spacing)
		for i, flare := range lens.Flares {
			if positions[i] == offscreen {
				continue
			}
			xScale := flare.Scale
			u := BillboardUniforms{
				Translation: mgl32.Vec4{positions[i].X(), positions[i].Y(), flareDepth, 1},
				Scale:       mgl32.Vec4{xScale, xScale * data.Extent.Aspect(), 0, 0},
				Params:      mgl32.Vec4{r.visibility, 0, 0, 0},
			}
			r.push(rc.Recorder, &u)
			bindTextures(rc.Recorder, flare.Texture)
			rc.Recorder.Draw(billboardQuad)
		}
	})
}

// FlarePositions places count flares in NDC. Flare i sits at sun + toCenter*(i+1)*spacing.
// All flares are offscreen when the sun is behind the camera or too far from the center.
func FlarePositions(data *render.ScenePassData, light mgl32.Vec3, count int, spacing float32) []mgl32.Vec2 {
	positions := make([]mgl32.Vec2, count)
	ndc, toCenter, _, ok := sunNDC(data, light)
	for i := range positions {
		if !ok {
			positions[i] = offscreen
			continue
		}
		positions[i] = ndc.Add(toCenter.Mul(float32(i+1) * spacing))
	}
	return positions
}

func (r *LensFlareRenderer) ShutDown() { r.base.shutDown() }

var _ render.SceneRenderer = (*LensFlareRenderer)(nil)
