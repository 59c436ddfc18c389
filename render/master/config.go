package master

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	DefaultCascadeCount     = 4
	DefaultFramesInFlight   = 3
	DefaultWaterClipOffset  = 0.08
	DefaultMaxDrawsPerFrame = 256
)

// DefaultClipPlane keeps everything in the main pass.
var DefaultClipPlane = mgl32.Vec4{0, -1, 0, 100000}

type Config struct {
	// CascadeCount is the number of shadow passes per frame.
	CascadeCount int
	// FramesInFlight sizes the command buffer groups and, with MaxDrawsPerFrame, every uniform pool.
	FramesInFlight int
	// Parallel records each renderer of a pass into its own command list on a worker.
	Parallel bool
	// Workers is the task pool size in parallel mode. Zero means one per CPU.
	Workers int

	WaterLevel      float32
	WaterClipOffset float32
	ClipPlane       mgl32.Vec4

	// MaxDrawsPerFrame is the largest number of draws any single renderer issues in one pass.
	// Shadow renderers get this many per cascade.
	MaxDrawsPerFrame int
	// UniformAlignment overrides the device's offset alignment when non-zero.
	UniformAlignment uint64

	// UseDrawLists builds one visible list per pass and predicate and shares it between renderers.
	UseDrawLists bool
	// DebugPass adds the half-extent shadow map and texture overlays after the main pass.
	DebugPass bool
	// BoundingVolumes outlines every visible bounding volume in the main pass.
	BoundingVolumes bool
}

func DefaultConfig() Config {
	return Config{
		CascadeCount:     DefaultCascadeCount,
		FramesInFlight:   DefaultFramesInFlight,
		WaterClipOffset:  DefaultWaterClipOffset,
		ClipPlane:        DefaultClipPlane,
		MaxDrawsPerFrame: DefaultMaxDrawsPerFrame,
		UniformAlignment: 256,
	}
}

var errInvalidConfig = errors.New("invalid config")

func (c Config) Validate() error {
	switch {
	case c.CascadeCount < 0:
		return fmt.Errorf("%w: cascade count %d", errInvalidConfig, c.CascadeCount)
	case c.FramesInFlight <= 0:
		return fmt.Errorf("%w: frames in flight %d", errInvalidConfig, c.FramesInFlight)
	case c.MaxDrawsPerFrame <= 0:
		return fmt.Errorf("%w: max draws per frame %d", errInvalidConfig, c.MaxDrawsPerFrame)
	case c.Workers < 0:
		return fmt.Errorf("%w: workers %d", errInvalidConfig, c.Workers)
	}
	return nil
}

// PoolCapacity is the block count every renderer pool needs so that no block
// is rewritten while an earlier frame may still read it.
func (c Config) PoolCapacity() int {
	return c.MaxDrawsPerFrame * c.FramesInFlight
}

// ShadowPoolCapacity is PoolCapacity for the shadow renderers, which draw once per cascade.
func (c Config) ShadowPoolCapacity() int {
	return c.PoolCapacity() * max(c.CascadeCount, 1)
}
