package geom

import (
	"github.com/go-gl/mathgl/mgl32"
)

// SphereIntersectsPlane is false only when the whole sphere is on the negative side.
func SphereIntersectsPlane(s Sphere, p Plane) bool {
	return p.SignedDistance(s.Center) > -s.Radius
}

// AABBIntersectsPlane rejects the box only when every corner is strictly on the negative side.
// Corners lying exactly on the plane keep the box.
func AABBIntersectsPlane(b AABB, p Plane) bool {
	for _, corner := range b.Points() {
		if p.SignedDistance(corner) >= 0 {
			return true
		}
	}
	return false
}

// FrustumContainsPoint tests the point against all six half-spaces.
func FrustumContainsPoint(f Frustum, point mgl32.Vec3) bool {
	for _, p := range f.Planes {
		if p.SignedDistance(point) < -Epsilon {
			return false
		}
	}
	return true
}

func FrustumIntersectsSphere(f Frustum, s Sphere) bool {
	for _, p := range f.Planes {
		if !SphereIntersectsPlane(s, p) {
			return false
		}
	}
	return true
}

// FrustumIntersectsAABB runs the plane test first, then separates on the world axes
// using the frustum corners. The second phase catches boxes that straddle planes
// near a frustum edge but never touch its body.
func FrustumIntersectsAABB(f Frustum, b AABB) bool {
	for _, p := range f.Planes {
		if !AABBIntersectsPlane(b, p) {
			return false
		}
	}
	for axis := 0; axis < 3; axis++ {
		lo, hi := f.interval(axis)
		if lo > b.Max[axis] || hi < b.Min[axis] {
			return false
		}
	}
	return true
}

func (f Frustum) Contains(point mgl32.Vec3) bool {
	return FrustumContainsPoint(f, point)
}
