// Command framedemo opens a window and renders a small lit scene with cascaded shadows
// through the frame orchestrator.
package main

import (
	framegraph "github.com/gekko3d/framegraph"
	"github.com/gekko3d/framegraph/geom"
	"github.com/gekko3d/framegraph/gpu/wgpubackend"
	"github.com/gekko3d/framegraph/render"
	"github.com/gekko3d/framegraph/render/master"
	"github.com/gekko3d/framegraph/render/renderers"
	"github.com/gekko3d/framegraph/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// spinning marks the cubes the spin system rotates.
type spinning struct {
	Speed float32 // radians per second
}

type demoModule struct{}

func (demoModule) Install(app *framegraph.App, cmd *framegraph.Commands) {
	g, _ := framegraph.Resource[framegraph.GPU](app)
	device := g.Device.(*wgpubackend.Device)

	cube, err := wgpubackend.NewMesh(device, "cube", cubeVertices(), cubeIndices())
	if err != nil {
		panic(err)
	}
	ground, err := wgpubackend.NewMesh(device, "ground", groundVertices(40), []uint32{0, 1, 2, 0, 2, 3})
	if err != nil {
		panic(err)
	}
	cmd.OnShutdown(func() {
		cube.Release()
		ground.Release()
	})

	cmd.AddNode(0, []scene.Tag{scene.TagMainCamera},
		scene.NewCamera(mgl32.Vec3{0, 6, 14}, mgl32.Vec3{0, 0, 0}),
		&framegraph.FlyingCamera{Speed: 6},
	)
	cmd.AddNode(0, []scene.Tag{scene.TagMainLight}, scene.Light{
		Position:    mgl32.Vec3{60, 120, 40},
		Color:       mgl32.Vec3{1, 0.95, 0.9},
		Attenuation: mgl32.Vec3{1, 0, 0},
	})

	groundMaterial := scene.DefaultMaterial()
	groundMaterial.Color = mgl32.Vec4{0.35, 0.5, 0.3, 1}
	cmd.AddNode(scene.FlagRender, []scene.Tag{scene.TagTerrain},
		scene.NewTransform(mgl32.Vec3{0, -1, 0}),
		scene.Model{Mesh: ground},
		groundMaterial,
		scene.NewAABBVolume(geom.AABB{Min: mgl32.Vec3{-40, 0, -40}, Max: mgl32.Vec3{40, 0, 40}}),
	)

	for i := 0; i < 5; i++ {
		material := scene.DefaultMaterial()
		material.Color = mgl32.Vec4{0.9, 0.3 + 0.15*float32(i), 0.2, 1}
		cmd.AddNode(scene.FlagRender|scene.FlagCastsShadows, nil,
			scene.NewTransform(mgl32.Vec3{float32(i*3 - 6), 0.5, 0}),
			scene.Model{Mesh: cube},
			material,
			scene.NewAABBVolume(geom.AABB{Min: mgl32.Vec3{-1, -1, -1}, Max: mgl32.Vec3{1, 1, 1}}),
			spinning{Speed: 0.5 + 0.25*float32(i)},
		)
	}

	cmd.UseSystem(framegraph.System(spinSystem))
	cmd.UseSystem(framegraph.System(hotkeySystem))
}

// hotkeySystem reloads every renderer on R and quits on Escape.
func hotkeySystem(input *framegraph.Input, m *master.MasterRenderer, cmd *framegraph.Commands) {
	if input.JustPressed[framegraph.KeyEscape] {
		cmd.Quit()
	}
	if input.JustPressed[framegraph.KeyR] {
		if err := m.Reload(); err != nil {
			panic(err)
		}
	}
}

func spinSystem(t *framegraph.Time, w *scene.World) {
	dt := float32(t.Dt.Seconds())
	for _, f := range scene.FindAll[spinning](w) {
		tr, ok := scene.GetComponent[scene.Transform](w, f.Node.Id())
		if !ok {
			continue
		}
		tr.Rotation = mgl32.QuatRotate(f.Component.Speed*dt, mgl32.Vec3{0, 1, 0}).Mul(tr.Rotation)
	}
}

func main() {
	cfg := master.DefaultConfig()
	cfg.CascadeCount = 2
	cfg.Parallel = true
	cfg.WaterLevel = -1

	meshes := func(kind render.PassKind) master.SceneFactory {
		return func(opts renderers.Options) []render.SceneRenderer {
			opts.Pass = kind
			list := []render.SceneRenderer{renderers.NewMeshRenderer(renderers.VariantDefault, opts)}
			if kind == render.PassScene && cfg.BoundingVolumes {
				list = append(list, renderers.NewBoundingVolumeDebugRenderer(opts))
			}
			return list
		}
	}

	app := framegraph.NewAppBuilder().
		UseModule(framegraph.LoggingModule{Prefix: "framedemo"}).
		UseModule(framegraph.TimeModule{}).
		UseModule(framegraph.SceneModule{}).
		UseModule(framegraph.WindowModule{Width: 1280, Height: 720, Title: "framegraph demo"}).
		UseModule(framegraph.InputModule{}, framegraph.FlyingCameraModule{}).
		UseModule(framegraph.PassesModule{Cascades: cfg.CascadeCount}).
		UseModule(framegraph.BoundsModule{}).
		UseModule(framegraph.RenderModule{
			Config: cfg,
			Options: []master.Option{
				master.WithShadowRenderers(func(opts renderers.Options) []render.ShadowsRenderer {
					opts.Pass = render.PassShadows
					return []render.ShadowsRenderer{renderers.NewShadowsRenderer(renderers.ShadowVariants[0], opts)}
				}),
				master.WithReflectionRenderers(meshes(render.PassReflection)),
				master.WithRefractionRenderers(meshes(render.PassRefraction)),
				master.WithSceneRenderers(meshes(render.PassScene)),
			},
		}).
		UseModule(demoModule{}).
		Build()

	app.Run(0)
}

func cubeVertices() []wgpubackend.Vertex {
	faces := []struct{ normal, u, v mgl32.Vec3 }{
		{mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{0, 0, -1}, mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}},
		{mgl32.Vec3{0, -1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1}},
	}
	var out []wgpubackend.Vertex
	for _, f := range faces {
		for _, c := range [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}} {
			p := f.normal.Add(f.u.Mul(c[0])).Add(f.v.Mul(c[1]))
			out = append(out, wgpubackend.Vertex{
				Position: [3]float32(p),
				Normal:   [3]float32(f.normal),
				UV:       [2]float32{(c[0] + 1) / 2, (c[1] + 1) / 2},
			})
		}
	}
	return out
}

func cubeIndices() []uint32 {
	var out []uint32
	for face := uint32(0); face < 6; face++ {
		b := face * 4
		out = append(out, b, b+1, b+2, b, b+2, b+3)
	}
	return out
}

func groundVertices(half float32) []wgpubackend.Vertex {
	up := [3]float32{0, 1, 0}
	tiles := half / 2
	return []wgpubackend.Vertex{
		{Position: [3]float32{-half, 0, half}, Normal: up, UV: [2]float32{0, 0}},
		{Position: [3]float32{half, 0, half}, Normal: up, UV: [2]float32{tiles, 0}},
		{Position: [3]float32{half, 0, -half}, Normal: up, UV: [2]float32{tiles, tiles}},
		{Position: [3]float32{-half, 0, -half}, Normal: up, UV: [2]float32{0, tiles}},
	}
}
