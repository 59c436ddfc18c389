package renderers

import (
	"github.com/gekko3d/framegraph/render"
	"github.com/gekko3d/framegraph/scene"
)

func ShadowRenderers(opts Options) []render.ShadowsRenderer {
	opts.Pass = render.PassShadows
	list := make([]render.ShadowsRenderer, 0, len(ShadowVariants))
	for _, v := range ShadowVariants {
		list = append(list, NewShadowsRenderer(v, opts))
	}
	return list
}

// offscreenRenderers is the list shared by the reflection and refraction passes.
// Water, overlays and the sun are left out: they sample or follow these passes.
func offscreenRenderers(opts Options) []render.SceneRenderer {
	list := []render.SceneRenderer{
		NewSkyBoxRenderer(opts),
		NewSkyRenderer(opts),
	}
	for _, v := range SceneMeshVariants {
		list = append(list, NewMeshRenderer(v, opts))
	}
	return append(list, NewParticlesRenderer(opts))
}

func ReflectionRenderers(opts Options) []render.SceneRenderer {
	opts.Pass = render.PassReflection
	return offscreenRenderers(opts)
}

func RefractionRenderers(opts Options) []render.SceneRenderer {
	opts.Pass = render.PassRefraction
	return offscreenRenderers(opts)
}

// SceneRenderers builds the main pass list. The sun and lens flare come last so they
// composite over depth that is already written.
func SceneRenderers(opts Options, boundingVolumes bool) []render.SceneRenderer {
	opts.Pass = render.PassScene
	list := []render.SceneRenderer{
		NewSkyBoxRenderer(opts),
		NewSkyRenderer(opts),
	}
	for _, v := range SceneMeshVariants {
		list = append(list, NewMeshRenderer(v, opts))
	}
	list = append(list,
		NewWaterRenderer(opts),
		NewFontRenderer(nil, opts),
		NewParticlesRenderer(opts),
	)
	if boundingVolumes {
		list = append(list, NewBoundingVolumeDebugRenderer(opts))
	}
	sun := NewSunRenderer(opts)
	return append(list, sun, NewLensFlareRenderer(sun, opts))
}

func DebugRenderers(opts Options) []render.SceneRenderer {
	opts.Pass = render.PassDebug
	return []render.SceneRenderer{
		NewShadowMapDebugRenderer(opts),
		NewTextureDebugRenderer(scene.TagWaterReflection, opts),
	}
}
