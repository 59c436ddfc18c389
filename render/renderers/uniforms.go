package renderers

import (
	"github.com/gekko3d/framegraph/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// MaxCascades is the cascade array length of the scene uniforms.
const MaxCascades = 4

// SceneUniforms is the per-draw block of the mesh, terrain and animation renderers.
type SceneUniforms struct {
	Model                  mgl32.Mat4
	View                   mgl32.Mat4
	Projection             mgl32.Mat4
	Normal                 mgl32.Mat4
	CascadeViewProjections [MaxCascades]mgl32.Mat4
	CascadeSplits          mgl32.Vec4
	ClipPlane              mgl32.Vec4
	CameraPosition         mgl32.Vec4
	LightPosition          mgl32.Vec4
	LightColor             mgl32.Vec4
	LightAttenuation       mgl32.Vec4
	Color                  mgl32.Vec4
	// x shininess, y reflectivity, z height scale, w cascade count
	MaterialParams mgl32.Vec4
}

type ShadowUniforms struct {
	Model      mgl32.Mat4
	View       mgl32.Mat4
	Projection mgl32.Mat4
}

type BoneUniforms struct {
	Bones [scene.MaxBones]mgl32.Mat4
}

type SkyUniforms struct {
	View                  mgl32.Mat4
	Projection            mgl32.Mat4
	InverseViewProjection mgl32.Mat4
	ClipPlane             mgl32.Vec4
	CameraPosition        mgl32.Vec4
	Color                 mgl32.Vec4
}

type WaterUniforms struct {
	Model          mgl32.Mat4
	View           mgl32.Mat4
	Projection     mgl32.Mat4
	CameraPosition mgl32.Vec4
	LightPosition  mgl32.Vec4
	LightColor     mgl32.Vec4
	// x water height, y near, z far
	Params mgl32.Vec4
}

const MaxParticlesPerDraw = 64

type particleInstance struct {
	PositionScale mgl32.Vec4
	Color         mgl32.Vec4
}

type ParticleUniforms struct {
	View       mgl32.Mat4
	Projection mgl32.Mat4
	Instances  [MaxParticlesPerDraw]particleInstance
}

const MaxGlyphsPerDraw = 128

// glyphQuad is a glyph rectangle in NDC and its atlas rectangle in UV space.
type glyphQuad struct {
	Rect mgl32.Vec4
	UV   mgl32.Vec4
}

type GlyphUniforms struct {
	Color  mgl32.Vec4
	Glyphs [MaxGlyphsPerDraw]glyphQuad
}

// BillboardUniforms positions a screen space quad: xy NDC center, z depth; scale xy.
type BillboardUniforms struct {
	Translation mgl32.Vec4
	Scale       mgl32.Vec4
	// x brightness
	Params mgl32.Vec4
}

type DebugQuadUniforms struct {
	Rect mgl32.Vec4
	// x layer, y near, z far
	Params mgl32.Vec4
}

type BoxUniforms struct {
	ViewProjection mgl32.Mat4
	Min            mgl32.Vec4
	Max            mgl32.Vec4
	Color          mgl32.Vec4
}
