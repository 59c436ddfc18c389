package renderers

import (
	"github.com/gekko3d/framegraph/gpu"
	"github.com/gekko3d/framegraph/render"
	"github.com/gekko3d/framegraph/scene"
)

// ParticlesRenderer draws emitters as instanced billboards, MaxParticlesPerDraw per draw.
type ParticlesRenderer struct {
	base[ParticleUniforms]
	hooks[*render.ScenePassData]
}

func NewParticlesRenderer(opts Options) *ParticlesRenderer {
	return &ParticlesRenderer{base: newBase[ParticleUniforms]("particles", opts, gpu.PipelineDesc{
		UniformSize: sizeOf[ParticleUniforms](),
		DepthTest:   true,
		Blend:       true,
	})}
}

func (r *ParticlesRenderer) Init() error { return r.base.init() }

func (r *ParticlesRenderer) PreRender(rc render.RenderContext, data *render.ScenePassData) {
	r.bind(rc.Recorder, data.Extent)
}

func (r *ParticlesRenderer) Render(rc render.RenderContext, node *scene.Node, data *render.ScenePassData) {
	render.Walk(rc, node, scene.FlagParticles, data.Frustum, func(n *scene.Node) {
		p, ok := scene.GetComponent[scene.Particles](rc.World, n.Id())
		if !ok || p.Mesh == nil {
			return
		}
		for start := 0; start < len(p.Instances); start += MaxParticlesPerDraw {
			chunk := p.Instances[start:min(start+MaxParticlesPerDraw, len(p.Instances))]
			u := ParticleUniforms{View: data.View, Projection: data.Projection}
			for i, inst := range chunk {
				u.Instances[i] = particleInstance{
					PositionScale: inst.Position.Vec4(inst.Scale),
					Color:         inst.Color,
				}
			}
			r.push(rc.Recorder, &u)
			bindTextures(rc.Recorder, p.Texture)
			draw := gpu.DrawMesh(p.Mesh)
			draw.InstanceCount = uint32(len(chunk))
			rc.Recorder.Draw(draw)
		}
	})
}

func (r *ParticlesRenderer) ShutDown() { r.base.shutDown() }

var _ render.SceneRenderer = (*ParticlesRenderer)(nil)
