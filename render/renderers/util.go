package renderers

import (
	"unsafe"

	"github.com/gekko3d/framegraph/gpu"
	"github.com/gekko3d/framegraph/scene"
	"github.com/go-gl/mathgl/mgl32"
)

func sizeOf[T any]() uint64 {
	var zero T
	return uint64(unsafe.Sizeof(zero))
}

// worldMatrix is the node's transform, or the nearest ancestor's, or identity.
func worldMatrix(w *scene.World, n *scene.Node) mgl32.Mat4 {
	for cur := n; cur != nil; cur = cur.Parent() {
		if t, ok := scene.GetComponent[scene.Transform](w, cur.Id()); ok {
			return t.World()
		}
	}
	return mgl32.Ident4()
}

// worldToNDC projects p. ok is false when p is behind the camera.
func worldToNDC(viewProjection mgl32.Mat4, p mgl32.Vec3) (ndc mgl32.Vec2, ok bool) {
	clip := viewProjection.Mul4x1(p.Vec4(1))
	if clip.W() <= 0 {
		return mgl32.Vec2{}, false
	}
	return mgl32.Vec2{clip.X() / clip.W(), clip.Y() / clip.W()}, true
}

func clamp01(v float32) float32 {
	return max(0, min(1, v))
}

// textureSlotBase is the first sampled binding after the uniform slots.
const textureSlotBase = 2

// bindTextures binds textures to consecutive slots, skipping nil ones but keeping their slot.
func bindTextures(r gpu.Recorder, textures ...gpu.Texture) {
	for i, t := range textures {
		if t != nil {
			r.BindTexture(uint32(textureSlotBase+i), t)
		}
	}
}
