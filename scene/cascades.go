package scene

import (
	"math"

	"github.com/gekko3d/framegraph/geom"
	"github.com/go-gl/mathgl/mgl32"
)

// CascadeSplitLambda blends logarithmic (1) and uniform (0) cascade splits.
const CascadeSplitLambda = 0.86

// CascadeSplits returns the far end of each cascade as a fraction of the near..far range.
func CascadeSplits(count int, near, far float32) []float32 {
	minZ, maxZ := min(near, far), max(near, far)
	rng := maxZ - minZ
	ratio := float64(maxZ / minZ)

	splits := make([]float32, count)
	for i := range splits {
		p := float32(i+1) / float32(count)
		logSplit := minZ * float32(math.Pow(ratio, float64(p)))
		uniform := minZ + rng*p
		d := CascadeSplitLambda*(logSplit-uniform) + uniform
		splits[i] = (d - minZ) / rng
	}
	return splits
}

// Update fits one light space orthographic volume around each depth slice of the
// camera frustum. Targets are left untouched.
func (s *Shadows) Update(lightDirection mgl32.Vec3, camera Camera) {
	if len(s.Cascades) == 0 {
		return
	}
	dir := lightDirection.Normalize()
	up := mgl32.Vec3{0, 1, 0}
	if abs(dir.Dot(up)) > 0.99 {
		up = mgl32.Vec3{0, 0, 1}
	}

	splits := CascadeSplits(len(s.Cascades), camera.Near, camera.Far)
	rng := camera.Far - camera.Near
	view := camera.View()

	nearSplit := float32(0)
	for i := range s.Cascades {
		splitNear := camera.Near + rng*nearSplit
		splitFar := camera.Near + rng*splits[i]
		slice := geom.NewFrustum(mgl32.Perspective(camera.FovY, 1, splitNear, splitFar), view)

		center := slice.Center()
		radius := slice.Radius()
		eye := center.Sub(dir.Mul(radius))

		c := &s.Cascades[i]
		c.View = mgl32.LookAtV(eye, center, up)
		c.Projection = mgl32.Ortho(-radius, radius, -radius, radius, 0, 2*radius)
		c.SplitDepth = -splitFar
		nearSplit = splits[i]
	}
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
