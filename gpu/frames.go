package gpu

// Frame is one acquired presentation image together with the primary recorder
// every pass of the frame records into.
type Frame struct {
	Target   Target
	Recorder Recorder
	Extent   Extent
}

// FrameSource hands out frames. Submit closes the frame returned by the last Acquire.
type FrameSource interface {
	Acquire() (Frame, error)
	Submit() error
}

// HostFrames records every frame into one CommandList.
type HostFrames struct {
	Target    *HostTarget
	List      *CommandList
	Submitted int
}

func NewHostFrames(extent Extent) *HostFrames {
	return &HostFrames{
		Target: &HostTarget{Name: "host", Size: extent},
		List:   NewCommandList("primary"),
	}
}

func (h *HostFrames) Acquire() (Frame, error) {
	h.List.Begin()
	return Frame{Target: h.Target, Recorder: h.List, Extent: h.Target.Size}, nil
}

func (h *HostFrames) Submit() error {
	h.List.End()
	h.Submitted++
	return nil
}

var _ FrameSource = (*HostFrames)(nil)
