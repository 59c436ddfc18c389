package scene

import (
	"testing"

	"github.com/gekko3d/framegraph/geom"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertVec3InDelta(t *testing.T, expected, actual mgl32.Vec3) {
	t.Helper()
	for i := 0; i < 3; i++ {
		assert.InDelta(t, expected[i], actual[i], 1e-4, "component %d of %v", i, actual)
	}
}

func TestAABBVolumeUpdate(t *testing.T) {
	bv := NewAABBVolume(geom.AABB{Min: mgl32.Vec3{0, 0, 0}, Max: mgl32.Vec3{2, 1, 1}})

	// Rotate 90 degrees about Y: x -> -z, z -> x. Then move by (5, 0, 0).
	world := mgl32.Translate3D(5, 0, 0).Mul4(mgl32.HomogRotate3DY(mgl32.DegToRad(90)))
	bv.Update(world)

	box := bv.WorkingAABB()
	assertVec3InDelta(t, mgl32.Vec3{5, 0, -2}, box.Min)
	assertVec3InDelta(t, mgl32.Vec3{6, 1, 0}, box.Max)
	assert.Equal(t, mgl32.Vec3{2, 1, 1}, bv.OriginalAABB().Max)

	// Update always starts from the original shape.
	bv.Update(mgl32.Ident4())
	assertVec3InDelta(t, mgl32.Vec3{2, 1, 1}, bv.WorkingAABB().Max)
}

func TestAABBVolumeUpdateNegativeCoordinates(t *testing.T) {
	bv := NewAABBVolume(geom.AABB{Min: mgl32.Vec3{-3, -3, -3}, Max: mgl32.Vec3{-1, -1, -1}})
	bv.Update(mgl32.Ident4())
	assertVec3InDelta(t, mgl32.Vec3{-1, -1, -1}, bv.WorkingAABB().Max)
}

func TestSphereVolumeUpdateKeepsRadius(t *testing.T) {
	bv := NewSphereVolume(geom.Sphere{Center: mgl32.Vec3{1, 0, 0}, Radius: 2})
	world := mgl32.Translate3D(0, 3, 0).Mul4(mgl32.Scale3D(4, 4, 4))
	bv.Update(world)

	s := bv.WorkingSphere()
	assertVec3InDelta(t, mgl32.Vec3{4, 3, 0}, s.Center)
	assert.Equal(t, float32(2), s.Radius)
	assert.Equal(t, VolumeSphere, bv.Kind())
}

func TestBoundingVolumeIsInFrustum(t *testing.T) {
	proj := mgl32.Perspective(mgl32.DegToRad(90), 1, 1, 100)
	view := mgl32.LookAtV(mgl32.Vec3{}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0})
	f := geom.NewFrustum(proj, view)

	box := NewVolumeFromVertices(VolumeAABB, []mgl32.Vec3{{-1, -1, -1}, {1, 1, 1}})
	sphere := NewVolumeFromVertices(VolumeSphere, []mgl32.Vec3{{-1, 0, 0}, {1, 0, 0}})

	for _, bv := range []*BoundingVolume{box, sphere} {
		bv.Update(mgl32.Translate3D(0, 0, -10))
		assert.True(t, bv.IsInFrustum(f), bv.Kind().String())
		bv.Update(mgl32.Translate3D(0, 0, 10))
		assert.False(t, bv.IsInFrustum(f), bv.Kind().String())
	}
}

func TestUpdateBoundingVolumesUsesWorldTransforms(t *testing.T) {
	w := NewWorld()
	parent := w.AddNode(nil, FlagRender)
	child := w.AddNode(parent, FlagRender)
	require.NoError(t, w.AddComponents(parent.Id(), NewTransform(mgl32.Vec3{0, 10, 0})))
	require.NoError(t, w.AddComponents(child.Id(), NewSphereVolume(geom.Sphere{Radius: 1})))

	UpdateTransforms(w)
	UpdateBoundingVolumes(w)

	bv, ok := GetComponent[BoundingVolume](w, child.Id())
	require.True(t, ok)
	assertVec3InDelta(t, mgl32.Vec3{0, 10, 0}, bv.WorkingSphere().Center)
}
