package render

import "github.com/gekko3d/framegraph/scene"

// Renderer is one shading or pass variant. The orchestrator calls, per pass:
// BeforeRender on every renderer, then PreRender, Render and PostRender for each
// renderer in registration order (possibly on worker goroutines, one renderer per
// worker), then AfterRender on every renderer.
//
// BeforeRender and AfterRender run on the driving goroutine. A renderer never
// mutates scene state, and the pool blocks it draws from are its own.
type Renderer[D PassData] interface {
	Name() string
	// Init acquires pipelines and pools. An error is fatal.
	Init() error
	BeforeRender(rc RenderContext, data D)
	PreRender(rc RenderContext, data D)
	// Render walks the tree under node depth first.
	Render(rc RenderContext, node *scene.Node, data D)
	PostRender(rc RenderContext, data D)
	AfterRender(rc RenderContext, data D)
	ShutDown()
}

type (
	ShadowsRenderer = Renderer[*ShadowsPassData]
	SceneRenderer   = Renderer[*ScenePassData]
)
