package master

import (
	"fmt"

	"github.com/gekko3d/framegraph/gpu"
	"github.com/gekko3d/framegraph/render"
	"github.com/gekko3d/framegraph/scene"
	"github.com/gekko3d/framegraph/worker"
)

// pass is one renderer list and, in parallel mode, its secondary buffers.
// Shadows keep one group per cascade since every cascade records into its own target.
type pass[D render.PassData] struct {
	kind      render.PassKind
	renderers []render.Renderer[D]
	groups    []*gpu.CommandBufferGroup

	// budget is the number of pool blocks each renderer may take per frame.
	budget     int
	frameDraws []int
}

func (p *pass[D]) init() error {
	for i, r := range p.renderers {
		if err := r.Init(); err != nil {
			// Unwind what was already acquired.
			for j := i - 1; j >= 0; j-- {
				p.renderers[j].ShutDown()
			}
			return fmt.Errorf("%s pass: init %s: %w", p.kind, r.Name(), err)
		}
	}
	return nil
}

func (p *pass[D]) createGroups(count, framesInFlight int) {
	p.groups = make([]*gpu.CommandBufferGroup, count)
	for i := range p.groups {
		label := p.kind.String()
		if count > 1 {
			label = fmt.Sprintf("%s%d", p.kind, i)
		}
		p.groups[i] = gpu.NewCommandBufferGroup(label, framesInFlight, len(p.renderers))
	}
}

func (p *pass[D]) shutDown() {
	for _, g := range p.groups {
		g.Release()
	}
	p.groups = nil
	for i := len(p.renderers) - 1; i >= 0; i-- {
		p.renderers[i].ShutDown()
	}
	p.renderers = nil
}

func (p *pass[D]) beginFrame() {
	if len(p.frameDraws) != len(p.renderers) {
		p.frameDraws = make([]int, len(p.renderers))
	}
	clear(p.frameDraws)
}

func (p *pass[D]) countDraws(draws []int) {
	for i, n := range draws {
		p.frameDraws[i] += n
	}
}

// checkBudget warns about every renderer that took more uniform blocks this frame
// than its pool holds per frame.
func (p *pass[D]) checkBudget(log Logger) {
	for i, n := range p.frameDraws {
		if n > p.budget {
			log.Warnf("%s pass: %s issued %d draws this frame, above its pool budget of %d",
				p.kind, p.renderers[i].Name(), n, p.budget)
		}
	}
}

// drive runs one pass: BeforeRender on every renderer, the recording in
// registration order (serially or on the pool), then AfterRender on every renderer.
// It returns the draws each renderer issued.
func drive[D render.PassData](pool *worker.Pool, p *pass[D], group *gpu.CommandBufferGroup, rc render.RenderContext, root *scene.Node, data D, drawLists bool) ([]int, error) {
	for _, r := range p.renderers {
		r.BeforeRender(rc, data)
	}
	if drawLists {
		rc.DrawLists = render.NewDrawListCache(rc.World, data.ViewFrustum())
	}

	var (
		draws []int
		err   error
	)
	if pool != nil && group != nil {
		draws, err = renderParallel(pool, p.renderers, group.Buffers(rc.FrameInFlightIndex), rc, root, data)
	} else {
		draws = renderSerial(p.renderers, rc, root, data)
	}

	for _, r := range p.renderers {
		r.AfterRender(rc, data)
	}
	return draws, err
}

func renderSerial[D render.PassData](renderers []render.Renderer[D], rc render.RenderContext, root *scene.Node, data D) []int {
	draws := make([]int, len(renderers))
	rc.Recorder.BeginRenderPass(rc.Target, rc.Extent, gpu.ContentsInline)
	for i, r := range renderers {
		counter := &countingRecorder{Recorder: rc.Recorder}
		local := rc.WithRecorder(counter)
		r.PreRender(local, data)
		r.Render(local, root, data)
		r.PostRender(local, data)
		draws[i] = counter.draws
	}
	rc.Recorder.EndRenderPass()
	return draws
}

// renderParallel records renderer i into buffers[i] on the pool, joins, then executes
// the buffers in registration order whatever order the tasks finished in.
func renderParallel[D render.PassData](pool *worker.Pool, renderers []render.Renderer[D], buffers []*gpu.CommandList, rc render.RenderContext, root *scene.Node, data D) ([]int, error) {
	rc.Recorder.BeginRenderPass(rc.Target, rc.Extent, gpu.ContentsSecondary)

	tasks := make([]worker.Task, len(renderers))
	for i, r := range renderers {
		buffer := buffers[i]
		tasks[i] = func() error {
			buffer.Begin()
			defer buffer.End()
			local := rc.WithRecorder(buffer)
			r.PreRender(local, data)
			r.Render(local, root, data)
			r.PostRender(local, data)
			return nil
		}
	}
	err := pool.Run(tasks...)

	draws := make([]int, len(renderers))
	for i := range renderers {
		draws[i] = len(buffers[i].Draws())
	}
	rc.Recorder.ExecuteCommands(buffers[:len(renderers)]...)
	rc.Recorder.EndRenderPass()
	return draws, err
}

// countingRecorder forwards to the frame recorder and counts the draws that reach it,
// including those inside executed secondary lists.
type countingRecorder struct {
	gpu.Recorder
	draws int
}

func (c *countingRecorder) Draw(d gpu.DrawCall) {
	c.draws++
	c.Recorder.Draw(d)
}

func (c *countingRecorder) ExecuteCommands(lists ...*gpu.CommandList) {
	for _, l := range lists {
		c.draws += len(l.Draws())
	}
	c.Recorder.ExecuteCommands(lists...)
}
