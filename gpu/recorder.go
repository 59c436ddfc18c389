package gpu

// Recorder records GPU work for one render pass. The primary recorder of a frame
// comes from the backend; CommandList is the secondary recorder filled by workers.
type Recorder interface {
	BeginRenderPass(target Target, extent Extent, contents SubpassContents)
	EndRenderPass()
	SetPipeline(p Pipeline)
	SetViewport(v Viewport)
	SetScissor(s Scissor)
	BindUniform(slot uint32, b UniformBinding)
	// BindTexture binds a sampled input, typically an earlier pass's output.
	BindTexture(slot uint32, t Texture)
	Draw(d DrawCall)
	BeginOcclusionQuery(q OcclusionQuery)
	EndOcclusionQuery(q OcclusionQuery)
	// ExecuteCommands replays secondary lists in argument order.
	ExecuteCommands(lists ...*CommandList)
}
