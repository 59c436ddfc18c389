package framegraph

import (
	"github.com/gekko3d/framegraph/scene"
)

// SceneModule installs the scene world as a resource.
type SceneModule struct {
	// World is created when nil.
	World *scene.World
}

func (mod SceneModule) Install(app *App, cmd *Commands) {
	w := mod.World
	if w == nil {
		w = scene.NewWorld()
	}
	cmd.AddResources(w)
}

// BoundsModule settles the world at the end of the update stages: world transforms,
// working bounding volumes, then the shadow cascades around the main camera.
type BoundsModule struct{}

func (mod BoundsModule) Install(app *App, cmd *Commands) {
	cmd.UseSystem(System(updateBoundsSystem).InStage(PostUpdate))
}

func updateBoundsSystem(w *scene.World) {
	scene.UpdateTransforms(w)
	scene.UpdateBoundingVolumes(w)

	camera, ok := scene.FindOne[scene.Camera](w, scene.TagMainCamera)
	if !ok {
		return
	}
	light, ok := scene.FindOne[scene.Light](w, scene.TagMainLight)
	if !ok {
		return
	}
	if shadows, ok := scene.FindOne[scene.Shadows](w, scene.TagShadows); ok {
		shadows.Component.Update(light.Component.Direction(), *camera.Component)
	}
}
