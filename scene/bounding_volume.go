package scene

import (
	"fmt"
	"reflect"

	"github.com/gekko3d/framegraph/geom"
	"github.com/go-gl/mathgl/mgl32"
)

var bvType = reflect.TypeFor[BoundingVolume]()

type VolumeKind int

const (
	VolumeAABB VolumeKind = iota
	VolumeSphere
)

func (k VolumeKind) String() string {
	switch k {
	case VolumeAABB:
		return "aabb"
	case VolumeSphere:
		return "sphere"
	default:
		return fmt.Sprintf("VolumeKind(%d)", int(k))
	}
}

// BoundingVolume is a node's culling shape. The original shape comes from mesh
// geometry and never changes; the working shape follows the node's world transform
// and must be refreshed by Update before any pass culls against it.
type BoundingVolume struct {
	kind           VolumeKind
	originalBox    geom.AABB
	workingBox     geom.AABB
	originalSphere geom.Sphere
	workingSphere  geom.Sphere
}

func NewAABBVolume(box geom.AABB) *BoundingVolume {
	return &BoundingVolume{kind: VolumeAABB, originalBox: box, workingBox: box}
}

func NewSphereVolume(s geom.Sphere) *BoundingVolume {
	return &BoundingVolume{kind: VolumeSphere, originalSphere: s, workingSphere: s}
}

// NewVolumeFromVertices builds the volume from mesh positions.
func NewVolumeFromVertices(kind VolumeKind, vertices []mgl32.Vec3) *BoundingVolume {
	if kind == VolumeSphere {
		return NewSphereVolume(geom.NewSphereFromPoints(vertices))
	}
	return NewAABBVolume(geom.NewAABBFromPoints(vertices))
}

func (b *BoundingVolume) Kind() VolumeKind { return b.kind }

func (b *BoundingVolume) WorkingAABB() geom.AABB { return b.workingBox }

func (b *BoundingVolume) WorkingSphere() geom.Sphere { return b.workingSphere }

func (b *BoundingVolume) OriginalAABB() geom.AABB { return b.originalBox }

func (b *BoundingVolume) OriginalSphere() geom.Sphere { return b.originalSphere }

// Update recomputes the working shape.
//
// Boxes: the original corners go through the rotation/scale part only, the envelope
// of the result is then moved by the translation. Spheres: only the center is
// transformed, the radius keeps its original value. Both are only exact for
// unskewed, near uniformly scaled nodes.
func (b *BoundingVolume) Update(world mgl32.Mat4) {
	switch b.kind {
	case VolumeAABB:
		rs := world.Mat3()
		corners := b.originalBox.Points()
		points := make([]mgl32.Vec3, len(corners))
		for i, c := range corners {
			points[i] = rs.Mul3x1(c)
		}
		b.workingBox = geom.NewAABBFromPoints(points).Translate(world.Col(3).Vec3())
	case VolumeSphere:
		b.workingSphere = geom.Sphere{
			Center: world.Mul4x1(b.originalSphere.Center.Vec4(1)).Vec3(),
			Radius: b.originalSphere.Radius,
		}
	}
}

func (b *BoundingVolume) IsInFrustum(f geom.Frustum) bool {
	if b.kind == VolumeSphere {
		return geom.FrustumIntersectsSphere(f, b.workingSphere)
	}
	return geom.FrustumIntersectsAABB(f, b.workingBox)
}

// UpdateBoundingVolumes refreshes every working shape from its node's world matrix.
// Run it after UpdateTransforms and before the render phase.
func UpdateBoundingVolumes(w *World) {
	for id, c := range w.table(bvType) {
		bv := c.(*BoundingVolume)
		world := mgl32.Ident4()
		if t, ok := GetComponent[Transform](w, id); ok {
			world = t.world
		} else if n, ok := w.nodes[id]; ok {
			world = inheritedWorld(w, n)
		}
		bv.Update(world)
	}
}

func inheritedWorld(w *World, n *Node) mgl32.Mat4 {
	for p := n.parent; p != nil; p = p.parent {
		if t, ok := GetComponent[Transform](w, p.id); ok {
			return t.world
		}
	}
	return mgl32.Ident4()
}
