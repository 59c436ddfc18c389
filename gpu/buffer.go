package gpu

import (
	"errors"
	"fmt"
	"sync"
)

var ErrZeroCapacity = errors.New("gpu: pool capacity must be greater than zero")

// Buffer is GPU visible memory that the host writes into.
type Buffer interface {
	Label() string
	Size() uint64
	Write(offset uint64, data []byte)
	Release()
}

type BufferAllocator interface {
	AllocateUniform(label string, size uint64) (Buffer, error)
}

// HostAllocator hands out CPU memory buffers. It backs headless runs and tests.
type HostAllocator struct {
	mu        sync.Mutex
	allocated uint64
	live      int
}

func NewHostAllocator() *HostAllocator {
	return &HostAllocator{}
}

func (a *HostAllocator) AllocateUniform(label string, size uint64) (Buffer, error) {
	if size == 0 {
		return nil, fmt.Errorf("allocate %q: %w", label, ErrZeroCapacity)
	}
	a.mu.Lock()
	a.allocated += size
	a.live++
	a.mu.Unlock()
	return &HostBuffer{label: label, data: make([]byte, size), owner: a}, nil
}

// Live returns the number of buffers not yet released.
func (a *HostAllocator) Live() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.live
}

func (a *HostAllocator) Allocated() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.allocated
}

type HostBuffer struct {
	label string
	data  []byte
	owner *HostAllocator
}

func (b *HostBuffer) Label() string { return b.label }

func (b *HostBuffer) Size() uint64 { return uint64(len(b.data)) }

func (b *HostBuffer) Write(offset uint64, data []byte) {
	copy(b.data[offset:], data)
}

// Bytes exposes the backing memory.
func (b *HostBuffer) Bytes() []byte { return b.data }

func (b *HostBuffer) Release() {
	if b.data == nil {
		return
	}
	b.data = nil
	if b.owner != nil {
		b.owner.mu.Lock()
		b.owner.live--
		b.owner.mu.Unlock()
	}
}
