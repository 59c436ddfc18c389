package gpu

import "fmt"

// CommandBufferGroup is the [frameInFlight][renderer] table of secondary lists used
// by parallel recording. It lives for the whole session.
type CommandBufferGroup struct {
	label   string
	buffers [][]*CommandList
}

func NewCommandBufferGroup(label string, framesInFlight, rendererCount int) *CommandBufferGroup {
	g := &CommandBufferGroup{label: label, buffers: make([][]*CommandList, framesInFlight)}
	for f := range g.buffers {
		row := make([]*CommandList, rendererCount)
		for r := range row {
			row[r] = NewCommandList(fmt.Sprintf("%s[%d][%d]", label, f, r))
		}
		g.buffers[f] = row
	}
	return g
}

// Buffers returns one list per renderer for the given in-flight slot.
func (g *CommandBufferGroup) Buffers(frameIndex int) []*CommandList {
	return g.buffers[frameIndex%len(g.buffers)]
}

func (g *CommandBufferGroup) FramesInFlight() int { return len(g.buffers) }

func (g *CommandBufferGroup) RendererCount() int {
	if len(g.buffers) == 0 {
		return 0
	}
	return len(g.buffers[0])
}

func (g *CommandBufferGroup) Release() {
	for _, row := range g.buffers {
		for _, l := range row {
			l.Reset()
		}
	}
	g.buffers = nil
}
