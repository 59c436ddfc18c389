package gpu

import (
	"fmt"
	"sync/atomic"
	"unsafe"
)

// UniformBlock is one aligned slot of a UniformRingPool.
type UniformBlock[T any] struct {
	buffer Buffer
	offset uint64
	index  int
}

// Update copies v into the block. T must be plain data (no pointers, slices or maps).
func (b *UniformBlock[T]) Update(v *T) {
	size := unsafe.Sizeof(*v)
	b.buffer.Write(b.offset, unsafe.Slice((*byte)(unsafe.Pointer(v)), size))
}

func (b *UniformBlock[T]) Offset() uint64 { return b.offset }

func (b *UniformBlock[T]) Index() int { return b.index }

func (b *UniformBlock[T]) Binding() UniformBinding {
	var zero T
	return UniformBinding{Buffer: b.buffer, Offset: b.offset, Size: uint64(unsafe.Sizeof(zero))}
}

// UniformRingPool is a fixed capacity round-robin allocator of uniform blocks of
// layout T, all carved out of one buffer at a stride aligned to the device's
// minimum uniform offset alignment.
//
// GetNext never blocks and never checks ownership. The capacity must cover every
// draw issued against the pool within a frame times the frames in flight, otherwise
// a block still read by the GPU gets overwritten.
type UniformRingPool[T any] struct {
	allocator BufferAllocator
	label     string
	buffer    Buffer
	blocks    []UniformBlock[T]
	stride    uint64
	counter   atomic.Uint64
}

func NewUniformRingPool[T any](allocator BufferAllocator, label string) *UniformRingPool[T] {
	return &UniformRingPool[T]{allocator: allocator, label: label}
}

func alignUp(size, alignment uint64) uint64 {
	if alignment <= 1 {
		return size
	}
	return (size + alignment - 1) / alignment * alignment
}

// AdjustCapacity reallocates the pool to hold n blocks. The cursor restarts at zero.
func (p *UniformRingPool[T]) AdjustCapacity(n int, alignment uint64) error {
	if n <= 0 {
		return fmt.Errorf("uniform pool %q: %w", p.label, ErrZeroCapacity)
	}
	var zero T
	stride := alignUp(uint64(unsafe.Sizeof(zero)), alignment)
	if stride == 0 {
		stride = max(alignment, 1)
	}

	buffer, err := p.allocator.AllocateUniform(p.label, stride*uint64(n))
	if err != nil {
		return fmt.Errorf("uniform pool %q: %w", p.label, err)
	}
	p.Release()

	p.buffer = buffer
	p.stride = stride
	p.blocks = make([]UniformBlock[T], n)
	for i := range p.blocks {
		p.blocks[i] = UniformBlock[T]{buffer: buffer, offset: uint64(i) * stride, index: i}
	}
	p.counter.Store(0)
	return nil
}

// GetNext returns the block at counter mod capacity and advances the counter.
func (p *UniformRingPool[T]) GetNext() *UniformBlock[T] {
	i := (p.counter.Add(1) - 1) % uint64(len(p.blocks))
	return &p.blocks[i]
}

func (p *UniformRingPool[T]) Capacity() int { return len(p.blocks) }

func (p *UniformRingPool[T]) Stride() uint64 { return p.stride }

func (p *UniformRingPool[T]) Buffer() Buffer { return p.buffer }

func (p *UniformRingPool[T]) Release() {
	if p.buffer != nil {
		p.buffer.Release()
	}
	p.buffer = nil
	p.blocks = nil
}
