package master

import (
	"github.com/gekko3d/framegraph/geom"
	"github.com/gekko3d/framegraph/gpu"
	"github.com/gekko3d/framegraph/render"
	"github.com/gekko3d/framegraph/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// ReflectionClipPlane keeps what is above the water plane in the mirrored view.
func ReflectionClipPlane(level, offset float32) mgl32.Vec4 {
	return mgl32.Vec4{0, 1, 0, -(level + offset)}
}

// RefractionClipPlane keeps what is below the water plane.
func RefractionClipPlane(level, offset float32) mgl32.Vec4 {
	return mgl32.Vec4{0, -1, 0, level + offset}
}

// reflect mirrors i about the plane with unit normal n.
func reflect(i, n mgl32.Vec3) mgl32.Vec3 {
	return i.Sub(n.Mul(2 * n.Dot(i)))
}

// ReflectionView mirrors the camera and its look-at point across the plane y = level.
func ReflectionView(c scene.Camera, level float32) (view mgl32.Mat4, position mgl32.Vec3) {
	position = c.Position
	target := c.ViewPoint()
	position[1] -= 2 * (position.Y() - level)
	target[1] -= 2 * (target.Y() - level)
	up := reflect(c.Up.Mul(-1), c.DefaultUp)
	return mgl32.LookAtV(position, target, up), position
}

func newScenePassData(kind render.PassKind, c scene.Camera, view mgl32.Mat4, position mgl32.Vec3, clip mgl32.Vec4, extent gpu.Extent) *render.ScenePassData {
	projection := c.Projection(extent)
	return &render.ScenePassData{
		Pass:           kind,
		View:           view,
		Projection:     projection,
		CameraPosition: position,
		ClipPlane:      clip,
		Extent:         extent,
		NearFar:        c.NearFar(),
		Frustum:        geom.NewFrustum(projection, view),
	}
}

func (m *MasterRenderer) reflectionData(c scene.Camera, extent gpu.Extent) *render.ScenePassData {
	view, position := ReflectionView(c, m.cfg.WaterLevel)
	clip := ReflectionClipPlane(m.cfg.WaterLevel, m.cfg.WaterClipOffset)
	return newScenePassData(render.PassReflection, c, view, position, clip, extent)
}

func (m *MasterRenderer) refractionData(c scene.Camera, extent gpu.Extent) *render.ScenePassData {
	clip := RefractionClipPlane(m.cfg.WaterLevel, m.cfg.WaterClipOffset)
	return newScenePassData(render.PassRefraction, c, c.View(), c.Position, clip, extent)
}

func (m *MasterRenderer) sceneData(kind render.PassKind, c scene.Camera, extent gpu.Extent) *render.ScenePassData {
	return newScenePassData(kind, c, c.View(), c.Position, m.cfg.ClipPlane, extent)
}
