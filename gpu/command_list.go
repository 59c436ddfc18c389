package gpu

import "fmt"

// Command is one recorded call on a Recorder.
type Command interface {
	Apply(r Recorder)
}

type BeginRenderPassCommand struct {
	Target   Target
	Extent   Extent
	Contents SubpassContents
}

func (c BeginRenderPassCommand) Apply(r Recorder) { r.BeginRenderPass(c.Target, c.Extent, c.Contents) }

type EndRenderPassCommand struct{}

func (EndRenderPassCommand) Apply(r Recorder) { r.EndRenderPass() }

type SetPipelineCommand struct{ Pipeline Pipeline }

func (c SetPipelineCommand) Apply(r Recorder) { r.SetPipeline(c.Pipeline) }

type SetViewportCommand struct{ Viewport Viewport }

func (c SetViewportCommand) Apply(r Recorder) { r.SetViewport(c.Viewport) }

type SetScissorCommand struct{ Scissor Scissor }

func (c SetScissorCommand) Apply(r Recorder) { r.SetScissor(c.Scissor) }

type BindUniformCommand struct {
	Slot    uint32
	Binding UniformBinding
}

func (c BindUniformCommand) Apply(r Recorder) { r.BindUniform(c.Slot, c.Binding) }

type BindTextureCommand struct {
	Slot    uint32
	Texture Texture
}

func (c BindTextureCommand) Apply(r Recorder) { r.BindTexture(c.Slot, c.Texture) }

type DrawCommand struct{ Call DrawCall }

func (c DrawCommand) Apply(r Recorder) { r.Draw(c.Call) }

type BeginOcclusionQueryCommand struct{ Query OcclusionQuery }

func (c BeginOcclusionQueryCommand) Apply(r Recorder) { r.BeginOcclusionQuery(c.Query) }

type EndOcclusionQueryCommand struct{ Query OcclusionQuery }

func (c EndOcclusionQueryCommand) Apply(r Recorder) { r.EndOcclusionQuery(c.Query) }

type ExecuteCommandsCommand struct{ Lists []*CommandList }

func (c ExecuteCommandsCommand) Apply(r Recorder) { r.ExecuteCommands(c.Lists...) }

// CommandList is a secondary recording buffer. It records calls in memory so a
// worker can fill it off the driving thread; Replay later applies them to a
// primary Recorder. A CommandList is itself a Recorder, which makes it the
// recording double used throughout the tests.
//
// A list is not safe for concurrent use; one worker owns it between Begin and End.
type CommandList struct {
	label     string
	commands  []Command
	recording bool
}

func NewCommandList(label string) *CommandList {
	return &CommandList{label: label}
}

func (l *CommandList) Label() string { return l.label }

// Begin drops previously recorded commands and starts a new recording.
func (l *CommandList) Begin() {
	l.commands = l.commands[:0]
	l.recording = true
}

func (l *CommandList) End() {
	l.recording = false
}

func (l *CommandList) Reset() {
	l.commands = l.commands[:0]
	l.recording = false
}

func (l *CommandList) Recording() bool { return l.recording }

func (l *CommandList) Len() int { return len(l.commands) }

func (l *CommandList) Commands() []Command { return l.commands }

// Replay applies every recorded command to dst in recording order.
func (l *CommandList) Replay(dst Recorder) {
	for _, c := range l.commands {
		c.Apply(dst)
	}
}

func (l *CommandList) String() string {
	return fmt.Sprintf("CommandList(%s, %d commands)", l.label, len(l.commands))
}

func (l *CommandList) push(c Command) {
	l.commands = append(l.commands, c)
}

func (l *CommandList) BeginRenderPass(target Target, extent Extent, contents SubpassContents) {
	l.push(BeginRenderPassCommand{Target: target, Extent: extent, Contents: contents})
}

func (l *CommandList) EndRenderPass() { l.push(EndRenderPassCommand{}) }

func (l *CommandList) SetPipeline(p Pipeline) { l.push(SetPipelineCommand{Pipeline: p}) }

func (l *CommandList) SetViewport(v Viewport) { l.push(SetViewportCommand{Viewport: v}) }

func (l *CommandList) SetScissor(s Scissor) { l.push(SetScissorCommand{Scissor: s}) }

func (l *CommandList) BindUniform(slot uint32, b UniformBinding) {
	l.push(BindUniformCommand{Slot: slot, Binding: b})
}

func (l *CommandList) BindTexture(slot uint32, t Texture) {
	l.push(BindTextureCommand{Slot: slot, Texture: t})
}

func (l *CommandList) Draw(d DrawCall) { l.push(DrawCommand{Call: d}) }

func (l *CommandList) BeginOcclusionQuery(q OcclusionQuery) {
	l.push(BeginOcclusionQueryCommand{Query: q})
}

func (l *CommandList) EndOcclusionQuery(q OcclusionQuery) {
	l.push(EndOcclusionQueryCommand{Query: q})
}

// ExecuteCommands records the lists by reference; they are expanded when this list is replayed.
func (l *CommandList) ExecuteCommands(lists ...*CommandList) {
	l.push(ExecuteCommandsCommand{Lists: append([]*CommandList(nil), lists...)})
}

// Draws returns the recorded draw calls, descending into executed secondary lists.
func (l *CommandList) Draws() []DrawCall {
	var out []DrawCall
	for _, c := range l.commands {
		switch cmd := c.(type) {
		case DrawCommand:
			out = append(out, cmd.Call)
		case ExecuteCommandsCommand:
			for _, sub := range cmd.Lists {
				out = append(out, sub.Draws()...)
			}
		}
	}
	return out
}

var _ Recorder = (*CommandList)(nil)
