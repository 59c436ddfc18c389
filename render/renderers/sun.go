package renderers

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/gekko3d/framegraph/gpu"
	"github.com/gekko3d/framegraph/render"
	"github.com/gekko3d/framegraph/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// billboardQuad is two triangles expanded in the vertex shader.
var billboardQuad = gpu.DrawCall{VertexCount: 6, InstanceCount: 1}

const (
	// sunDepth keeps the sun behind all geometry so the query counts unoccluded samples only.
	sunDepth   = 0.9999
	flareDepth = 0
	// flareFadeDistance is the NDC distance from the screen center at which flares vanish.
	flareFadeDistance = 1.4
)

// offscreen is where a flare goes when the sun is behind the camera or too far off center.
var offscreen = mgl32.Vec2{-100, -100}

// sunNDC returns where the main light appears on screen. The light position is a
// direction offset from the eye, so the sun never gets closer as the camera moves.
func sunNDC(data *render.ScenePassData, light mgl32.Vec3) (ndc, toCenter mgl32.Vec2, brightness float32, ok bool) {
	ndc, ok = worldToNDC(data.ViewProjection(), data.CameraPosition.Add(light))
	if !ok {
		return offscreen, mgl32.Vec2{}, 0, false
	}
	toCenter = mgl32.Vec2{}.Sub(ndc)
	brightness = 1 - toCenter.Len()/flareFadeDistance
	if brightness <= 0 {
		return offscreen, toCenter, 0, false
	}
	return ndc, toCenter, brightness, true
}

// SunRenderer draws the sun billboard inside an occlusion query and turns the
// sample count into a visibility factor once the result is available.
type SunRenderer struct {
	base[BillboardUniforms]
	hooks[*render.ScenePassData]

	query      gpu.OcclusionQuery
	maxSamples atomic.Uint64
	visibility atomic.Uint32
}

func NewSunRenderer(opts Options) *SunRenderer {
	r := &SunRenderer{base: newBase[BillboardUniforms]("sun", opts, gpu.PipelineDesc{
		Shader:      "billboard",
		UniformSize: sizeOf[BillboardUniforms](),
		DepthTest:   true,
		Blend:       true,
	})}
	r.setVisibility(1)
	return r
}

func (r *SunRenderer) Init() error {
	if err := r.base.init(); err != nil {
		return err
	}
	query, err := r.opts.Device.CreateOcclusionQuery(r.desc.Label + "/occlusion")
	if err != nil {
		r.base.shutDown()
		return fmt.Errorf("%s: create occlusion query: %w", r.desc.Label, err)
	}
	r.query = query
	return nil
}

// Visibility is the fraction of the sun that passed the depth test, in [0, 1].
// It is 1 until the first query result arrives.
func (r *SunRenderer) Visibility() float32 {
	return math.Float32frombits(r.visibility.Load())
}

func (r *SunRenderer) setVisibility(v float32) {
	r.visibility.Store(math.Float32bits(v))
}

// BeforeRender collects a result that landed after last frame's AfterRender, then resets the query.
func (r *SunRenderer) BeforeRender(rc render.RenderContext, data *render.ScenePassData) {
	r.collect()
	r.query.Reset()
}

func (r *SunRenderer) PreRender(rc render.RenderContext, data *render.ScenePassData) {
	r.bind(rc.Recorder, data.Extent)
}

func (r *SunRenderer) Render(rc render.RenderContext, node *scene.Node, data *render.ScenePassData) {
	render.Traverse(node, func(n *scene.Node) {
		if !n.Flags().Has(scene.FlagSun) {
			return
		}
		sun, ok := scene.GetComponent[scene.Sun](rc.World, n.Id())
		if !ok {
			return
		}
		light := scene.MustFindOne[scene.Light](rc.World, scene.TagMainLight).Component

		xScale := sun.Scale
		yScale := xScale * data.Extent.Aspect()
		r.maxSamples.Store(uint64(xScale * float32(data.Extent.Width) * yScale * float32(data.Extent.Height)))

		ndc, _, _, _ := sunNDC(data, light.Position)
		u := BillboardUniforms{
			Translation: mgl32.Vec4{ndc.X(), ndc.Y(), sunDepth, 1},
			Scale:       mgl32.Vec4{xScale, yScale, 0, 0},
			Params:      mgl32.Vec4{1, 0, 0, 0},
		}
		rc.Recorder.BeginOcclusionQuery(r.query)
		r.push(rc.Recorder, &u)
		bindTextures(rc.Recorder, sun.Texture)
		rc.Recorder.Draw(billboardQuad)
		rc.Recorder.EndOcclusionQuery(r.query)
	})
}

// AfterRender reads back the query. Without a result the previous visibility stays.
func (r *SunRenderer) AfterRender(rc render.RenderContext, data *render.ScenePassData) {
	r.collect()
}

func (r *SunRenderer) collect() {
	samples, ok := r.query.Samples()
	if !ok {
		return
	}
	r.setVisibility(sunVisibility(samples, r.maxSamples.Load()))
}

func sunVisibility(samples, maxSamples uint64) float32 {
	if maxSamples == 0 {
		return 0
	}
	return clamp01(float32(samples) / float32(maxSamples) * 0.5)
}

func (r *SunRenderer) ShutDown() {
	gpu.Release(r.query)
	r.query = nil
	r.base.shutDown()
}

var _ render.SceneRenderer = (*SunRenderer)(nil)
