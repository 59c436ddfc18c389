package geom

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	FrustumLeft = iota
	FrustumRight
	FrustumTop
	FrustumBottom
	FrustumNear
	FrustumFar
)

// Frustum is the visible volume of a projection*view pair. Planes face inwards.
// Only test it against geometry in the space the matrices were built for.
type Frustum struct {
	Planes  [6]Plane
	Corners [8]mgl32.Vec3
}

// ndcCorners are the clip space cube vertices (OpenGL depth range, matching mgl32.Perspective/Ortho).
var ndcCorners = [8]mgl64.Vec4{
	{-1, -1, -1, 1},
	{1, -1, -1, 1},
	{-1, 1, -1, 1},
	{1, 1, -1, 1},
	{-1, -1, 1, 1},
	{1, -1, 1, 1},
	{-1, 1, 1, 1},
	{1, 1, 1, 1},
}

// NewFrustum extracts the six planes from projection*view (Gribb/Hartmann) and
// the corners from the inverse of the same matrix.
func NewFrustum(projection, view mgl32.Mat4) Frustum {
	return NewFrustumFromMatrix(projection.Mul4(view))
}

func NewFrustumFromMatrix(vp mgl32.Mat4) Frustum {
	row := func(i int) mgl32.Vec4 {
		return mgl32.Vec4{vp.At(i, 0), vp.At(i, 1), vp.At(i, 2), vp.At(i, 3)}
	}
	r0, r1, r2, r3 := row(0), row(1), row(2), row(3)

	var f Frustum
	f.Planes[FrustumLeft] = PlaneFromVec4(r3.Add(r0))
	f.Planes[FrustumRight] = PlaneFromVec4(r3.Sub(r0))
	f.Planes[FrustumTop] = PlaneFromVec4(r3.Sub(r1))
	f.Planes[FrustumBottom] = PlaneFromVec4(r3.Add(r1))
	f.Planes[FrustumNear] = PlaneFromVec4(r3.Add(r2))
	f.Planes[FrustumFar] = PlaneFromVec4(r3.Sub(r2))

	// Inverting in double precision keeps the far corners on their planes.
	var vp64 mgl64.Mat4
	for i := range vp {
		vp64[i] = float64(vp[i])
	}
	inv := vp64.Inv()
	for i, c := range ndcCorners {
		p := inv.Mul4x1(c)
		w := p.W()
		if w == 0 {
			w = 1
		}
		f.Corners[i] = mgl32.Vec3{float32(p.X() / w), float32(p.Y() / w), float32(p.Z() / w)}
	}
	return f
}

func (f Frustum) Center() mgl32.Vec3 {
	var c mgl32.Vec3
	for _, p := range f.Corners {
		c = c.Add(p)
	}
	return c.Mul(1.0 / float32(len(f.Corners)))
}

// Radius is the distance from Center to the farthest corner.
func (f Frustum) Radius() float32 {
	center := f.Center()
	var r float32
	for _, p := range f.Corners {
		r = max(r, p.Sub(center).Len())
	}
	return r
}

// interval projects the corners onto a world axis.
func (f Frustum) interval(axis int) (lo, hi float32) {
	lo, hi = f.Corners[0][axis], f.Corners[0][axis]
	for _, p := range f.Corners[1:] {
		lo = min(lo, p[axis])
		hi = max(hi, p[axis])
	}
	return lo, hi
}
