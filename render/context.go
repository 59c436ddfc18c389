package render

import (
	"github.com/gekko3d/framegraph/gpu"
	"github.com/gekko3d/framegraph/scene"
)

// RenderContext is built fresh for every pass of every frame and never kept.
// World is read only for the whole render phase.
type RenderContext struct {
	Target             gpu.Target
	Recorder           gpu.Recorder
	FrameInFlightIndex int
	Extent             gpu.Extent
	World              *scene.World
	// DrawLists is set when the pass precomputed its visible nodes.
	DrawLists *DrawListCache
}

// WithRecorder returns a copy recording into r.
func (rc RenderContext) WithRecorder(r gpu.Recorder) RenderContext {
	rc.Recorder = r
	return rc
}
