package gpu

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testUniforms struct {
	Model mgl32.Mat4
	Tint  mgl32.Vec4
}

func TestUniformRingPoolWrapsAround(t *testing.T) {
	const n = 5
	pool := NewUniformRingPool[testUniforms](NewHostAllocator(), "test")
	require.NoError(t, pool.AdjustCapacity(n, 256))

	first := pool.GetNext()
	seen := map[uint64]bool{first.Offset(): true}
	for i := 1; i < n; i++ {
		b := pool.GetNext()
		assert.False(t, seen[b.Offset()], "block %d handed out twice within one cycle", i)
		seen[b.Offset()] = true
	}
	assert.Same(t, first, pool.GetNext())
}

func TestUniformRingPoolStride(t *testing.T) {
	tests := []struct {
		alignment uint64
		stride    uint64
	}{
		{0, 80},
		{1, 80},
		{16, 80},
		{64, 128},
		{256, 256},
	}
	for _, tc := range tests {
		pool := NewUniformRingPool[testUniforms](NewHostAllocator(), "stride")
		require.NoError(t, pool.AdjustCapacity(3, tc.alignment))
		assert.Equal(t, tc.stride, pool.Stride(), "alignment %d", tc.alignment)
		assert.Equal(t, 3*tc.stride, pool.Buffer().Size())
		assert.Equal(t, 3, pool.Capacity())
	}
}

func TestUniformRingPoolZeroCapacity(t *testing.T) {
	pool := NewUniformRingPool[testUniforms](NewHostAllocator(), "empty")
	err := pool.AdjustCapacity(0, 256)
	assert.ErrorIs(t, err, ErrZeroCapacity)
}

func TestUniformRingPoolAdjustReleasesPrevious(t *testing.T) {
	alloc := NewHostAllocator()
	pool := NewUniformRingPool[testUniforms](alloc, "grow")
	require.NoError(t, pool.AdjustCapacity(2, 256))
	pool.GetNext()
	require.NoError(t, pool.AdjustCapacity(8, 256))
	assert.Equal(t, 1, alloc.Live())
	assert.Equal(t, uint64(0), pool.GetNext().Offset())

	pool.Release()
	assert.Equal(t, 0, alloc.Live())
}

func TestUniformBlockUpdateWritesAtOffset(t *testing.T) {
	pool := NewUniformRingPool[testUniforms](NewHostAllocator(), "write")
	require.NoError(t, pool.AdjustCapacity(2, 256))

	pool.GetNext()
	second := pool.GetNext()
	u := testUniforms{Model: mgl32.Ident4(), Tint: mgl32.Vec4{0.5, 1, 2, 4}}
	second.Update(&u)

	data := pool.Buffer().(*HostBuffer).Bytes()
	readFloat := func(off uint64) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(data[off:]))
	}
	assert.Equal(t, float32(0), readFloat(0))
	assert.Equal(t, float32(1), readFloat(256))
	assert.Equal(t, float32(0.5), readFloat(256+64))
	assert.Equal(t, float32(4), readFloat(256+76))

	binding := second.Binding()
	assert.Equal(t, uint64(256), binding.Offset)
	assert.Equal(t, uint64(80), binding.Size)
}
