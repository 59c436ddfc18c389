package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// AABB is an axis aligned box in whatever space its owner lives in.
type AABB struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// NewAABBFromPoints returns the envelope of points. An empty input yields a zero box.
func NewAABBFromPoints(points []mgl32.Vec3) AABB {
	if len(points) == 0 {
		return AABB{}
	}
	inf := float32(math.MaxFloat32)
	box := AABB{
		Min: mgl32.Vec3{inf, inf, inf},
		Max: mgl32.Vec3{-inf, -inf, -inf},
	}
	for _, p := range points {
		box = box.Extend(p)
	}
	return box
}

// Extend grows the box so it contains p.
func (b AABB) Extend(p mgl32.Vec3) AABB {
	return AABB{
		Min: mgl32.Vec3{min(b.Min.X(), p.X()), min(b.Min.Y(), p.Y()), min(b.Min.Z(), p.Z())},
		Max: mgl32.Vec3{max(b.Max.X(), p.X()), max(b.Max.Y(), p.Y()), max(b.Max.Z(), p.Z())},
	}
}

func (b AABB) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

func (b AABB) HalfSize() mgl32.Vec3 {
	return b.Max.Sub(b.Min).Mul(0.5)
}

// Points returns the 8 corners. Bit 0 of the index selects x, bit 1 y, bit 2 z.
func (b AABB) Points() [8]mgl32.Vec3 {
	var pts [8]mgl32.Vec3
	for i := range pts {
		x, y, z := b.Min.X(), b.Min.Y(), b.Min.Z()
		if i&1 != 0 {
			x = b.Max.X()
		}
		if i&2 != 0 {
			y = b.Max.Y()
		}
		if i&4 != 0 {
			z = b.Max.Z()
		}
		pts[i] = mgl32.Vec3{x, y, z}
	}
	return pts
}

// Translate moves the box by offset.
func (b AABB) Translate(offset mgl32.Vec3) AABB {
	return AABB{Min: b.Min.Add(offset), Max: b.Max.Add(offset)}
}

type Sphere struct {
	Center mgl32.Vec3
	Radius float32
}

// NewSphereFromPoints centers the sphere on the points' envelope and takes the farthest point as radius.
func NewSphereFromPoints(points []mgl32.Vec3) Sphere {
	if len(points) == 0 {
		return Sphere{}
	}
	center := NewAABBFromPoints(points).Center()
	var radius float32
	for _, p := range points {
		radius = max(radius, p.Sub(center).Len())
	}
	return Sphere{Center: center, Radius: radius}
}
