package geom

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Epsilon is the tolerance used by point containment and axis overlap tests.
const Epsilon float32 = 1e-3

// Plane is Normal·P - Distance = 0. Normal is always unit length.
type Plane struct {
	Normal   mgl32.Vec3
	Distance float32
}

// NewPlane normalizes the normal and scales the distance by the same factor.
// A degenerate (zero) normal is kept as-is.
func NewPlane(normal mgl32.Vec3, distance float32) Plane {
	length := normal.Len()
	if length == 0 {
		return Plane{Normal: normal, Distance: distance}
	}
	inv := 1.0 / length
	return Plane{
		Normal:   normal.Mul(inv),
		Distance: distance * inv,
	}
}

// PlaneFromVec4 builds a plane from the (a, b, c, d) form ax + by + cz + d = 0.
func PlaneFromVec4(v mgl32.Vec4) Plane {
	return NewPlane(v.Vec3(), -v.W())
}

// SignedDistance is positive on the side the normal points to.
func (p Plane) SignedDistance(point mgl32.Vec3) float32 {
	return p.Normal.Dot(point) - p.Distance
}

// Vec4 returns the plane in (a, b, c, d) form, the layout used for clip planes on the GPU.
func (p Plane) Vec4() mgl32.Vec4 {
	return mgl32.Vec4{p.Normal.X(), p.Normal.Y(), p.Normal.Z(), -p.Distance}
}
