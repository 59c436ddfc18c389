package wgpubackend

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/framegraph/gpu"
)

// querySet is the occlusion query set shared by every render pass. Each Query owns one slot.
// Results are resolved at submit, copied to a readback buffer and collected at the next frame.
type querySet struct {
	device   *wgpu.Device
	set      *wgpu.QuerySet
	resolve  *wgpu.Buffer
	readback *wgpu.Buffer
	size     uint64

	mu       sync.Mutex
	slots    []*Query
	recorded []*Query
	inFlight []*Query
	mapping  bool
	ready    bool
}

func newQuerySet(device *wgpu.Device, count uint32) (*querySet, error) {
	set, err := device.CreateQuerySet(&wgpu.QuerySetDescriptor{
		Label: "occlusion",
		Type:  wgpu.QueryTypeOcclusion,
		Count: count,
	})
	if err != nil {
		return nil, fmt.Errorf("occlusion query set: %w", err)
	}
	size := uint64(count) * 8
	resolve, err := device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "occlusion/resolve",
		Size:  size,
		Usage: wgpu.BufferUsageQueryResolve | wgpu.BufferUsageCopySrc,
	})
	if err != nil {
		set.Release()
		return nil, fmt.Errorf("occlusion resolve buffer: %w", err)
	}
	readback, err := device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "occlusion/readback",
		Size:  size,
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		resolve.Release()
		set.Release()
		return nil, fmt.Errorf("occlusion readback buffer: %w", err)
	}
	return &querySet{
		device:   device,
		set:      set,
		resolve:  resolve,
		readback: readback,
		size:     size,
		slots:    make([]*Query, count),
	}, nil
}

func (s *querySet) allocate(label string) (*Query, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, q := range s.slots {
		if q == nil {
			q = &Query{label: label, index: uint32(i), owner: s}
			s.slots[i] = q
			return q, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", label, ErrTooManyQueries)
}

func (s *querySet) free(q *Query) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if int(q.index) < len(s.slots) && s.slots[q.index] == q {
		s.slots[q.index] = nil
	}
}

func (s *querySet) began(q *Query) {
	s.mu.Lock()
	s.recorded = append(s.recorded, q)
	s.mu.Unlock()
}

// encodeResolve copies this frame's results towards the readback buffer, unless the
// previous copy is still being mapped.
func (s *querySet) encodeResolve(encoder *wgpu.CommandEncoder) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.recorded) == 0 || s.mapping {
		s.recorded = s.recorded[:0]
		return false
	}
	encoder.ResolveQuerySet(s.set, 0, uint32(len(s.slots)), s.resolve, 0)
	encoder.CopyBufferToBuffer(s.resolve, 0, s.readback, 0, s.size)
	s.inFlight = append(s.inFlight[:0], s.recorded...)
	s.recorded = s.recorded[:0]
	return true
}

// mapAfterSubmit starts the asynchronous readback of the copy encoded this frame.
func (s *querySet) mapAfterSubmit() {
	s.mu.Lock()
	s.mapping = true
	s.mu.Unlock()
	s.readback.MapAsync(wgpu.MapModeRead, 0, s.size, func(status wgpu.BufferMapAsyncStatus) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if status == wgpu.BufferMapAsyncStatusSuccess {
			s.ready = true
		} else {
			s.mapping = false
		}
	})
}

// collect publishes mapped results to their queries. It runs at the start of a frame.
func (s *querySet) collect() {
	s.device.Poll(false, nil)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return
	}
	data := s.readback.GetMappedRange(0, uint(s.size))
	for _, q := range s.inFlight {
		off := uint64(q.index) * 8
		q.publish(binary.LittleEndian.Uint64(data[off : off+8]))
	}
	s.readback.Unmap()
	s.inFlight = s.inFlight[:0]
	s.ready = false
	s.mapping = false
}

func (s *querySet) release() {
	s.readback.Release()
	s.resolve.Release()
	s.set.Release()
}

// Query is one slot of the shared occlusion query set.
type Query struct {
	label string
	index uint32
	owner *querySet

	mu        sync.Mutex
	samples   uint64
	available bool
}

func (q *Query) Reset() {
	q.mu.Lock()
	q.available = false
	q.mu.Unlock()
}

func (q *Query) Samples() (uint64, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.samples, q.available
}

func (q *Query) publish(samples uint64) {
	q.mu.Lock()
	q.samples = samples
	q.available = true
	q.mu.Unlock()
}

func (q *Query) Release() { q.owner.free(q) }

var _ gpu.OcclusionQuery = (*Query)(nil)
