package scene

import "github.com/go-gl/mathgl/mgl32"

// Transform is a node's local placement relative to its parent. The world matrix is
// derived by UpdateTransforms during the Update phase.
type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3

	world mgl32.Mat4
}

func NewTransform(position mgl32.Vec3) Transform {
	return Transform{
		Position: position,
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
		world:    mgl32.Translate3D(position.X(), position.Y(), position.Z()),
	}
}

func (t Transform) Local() mgl32.Mat4 {
	tr := mgl32.Translate3D(t.Position.X(), t.Position.Y(), t.Position.Z())
	sc := mgl32.Scale3D(t.Scale.X(), t.Scale.Y(), t.Scale.Z())
	return tr.Mul4(t.Rotation.Normalize().Mat4()).Mul4(sc)
}

// World is the matrix computed by the last UpdateTransforms.
func (t Transform) World() mgl32.Mat4 { return t.world }

func (t Transform) WorldPosition() mgl32.Vec3 { return t.world.Col(3).Vec3() }

// UpdateTransforms recomputes every world matrix top down. Nodes without a Transform
// pass their parent's world matrix through to their children.
func UpdateTransforms(w *World) {
	updateTransforms(w, w.root, mgl32.Ident4())
}

func updateTransforms(w *World, n *Node, parent mgl32.Mat4) {
	world := parent
	if t, ok := GetComponent[Transform](w, n.id); ok {
		t.world = parent.Mul4(t.Local())
		world = t.world
	}
	for _, c := range n.children {
		updateTransforms(w, c, world)
	}
}
