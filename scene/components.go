package scene

import (
	"github.com/gekko3d/framegraph/gpu"
	"github.com/go-gl/mathgl/mgl32"
)

// Camera is a perspective camera. Forward and Up are unit vectors in world space.
type Camera struct {
	Position  mgl32.Vec3
	Forward   mgl32.Vec3
	Up        mgl32.Vec3
	DefaultUp mgl32.Vec3
	FovY      float32 // radians
	Near      float32
	Far       float32
}

func NewCamera(position, target mgl32.Vec3) Camera {
	return Camera{
		Position:  position,
		Forward:   target.Sub(position).Normalize(),
		Up:        mgl32.Vec3{0, 1, 0},
		DefaultUp: mgl32.Vec3{0, 1, 0},
		FovY:      mgl32.DegToRad(60),
		Near:      0.1,
		Far:       1000,
	}
}

// ViewPoint is the point the camera looks at.
func (c Camera) ViewPoint() mgl32.Vec3 {
	return c.Position.Add(c.Forward)
}

func (c Camera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.ViewPoint(), c.Up)
}

func (c Camera) Projection(extent gpu.Extent) mgl32.Mat4 {
	return mgl32.Perspective(c.FovY, extent.Aspect(), c.Near, c.Far)
}

func (c Camera) NearFar() mgl32.Vec2 {
	return mgl32.Vec2{c.Near, c.Far}
}

type Light struct {
	Position    mgl32.Vec3
	Color       mgl32.Vec3
	Attenuation mgl32.Vec3
}

// Direction points from the light towards the origin.
func (l Light) Direction() mgl32.Vec3 {
	if l.Position.Len() == 0 {
		return mgl32.Vec3{0, -1, 0}
	}
	return l.Position.Mul(-1).Normalize()
}

// ShadowCascade is one depth range of the main camera rendered from the light.
type ShadowCascade struct {
	View       mgl32.Mat4
	Projection mgl32.Mat4
	SplitDepth float32
	Target     gpu.Target
}

func (c ShadowCascade) ViewProjection() mgl32.Mat4 {
	return c.Projection.Mul4(c.View)
}

// Shadows holds the cascades the shadow passes render and later passes sample.
type Shadows struct {
	Cascades     []ShadowCascade
	Extent       gpu.Extent
	DepthTexture gpu.Texture
}

// OffscreenPass is a colour+depth target rendered before the main pass and sampled by it.
type OffscreenPass struct {
	Target       gpu.Target
	Extent       gpu.Extent
	ColorTexture gpu.Texture
	DepthTexture gpu.Texture
}

type Model struct {
	Mesh gpu.Mesh
}

type Material struct {
	Color         mgl32.Vec4
	Shininess     float32
	Reflectivity  float32
	HeightScale   float32
	Texture       gpu.Texture
	NormalTexture gpu.Texture
	HeightTexture gpu.Texture
}

func DefaultMaterial() Material {
	return Material{Color: mgl32.Vec4{1, 1, 1, 1}, Shininess: 10, Reflectivity: 0.5, HeightScale: 0.05}
}

const MaxBones = 64

// Animation carries the current skinning palette of an animated model.
type Animation struct {
	Bones []mgl32.Mat4
}

type ParticleInstance struct {
	Position mgl32.Vec3
	Scale    float32
	Color    mgl32.Vec4
}

type Particles struct {
	Mesh      gpu.Mesh
	Texture   gpu.Texture
	Instances []ParticleInstance
}

// Text is a screen space overlay string. Position is in pixels from the top left.
type Text struct {
	Content  string
	Position mgl32.Vec2
	Scale    float32
	Color    mgl32.Vec4
}

// Sun is drawn where the main light is, as seen from the camera.
type Sun struct {
	Scale   float32
	Texture gpu.Texture
}

type Flare struct {
	Scale   float32
	Texture gpu.Texture
}

type LensFlare struct {
	Flares  []Flare
	Spacing float32
}

type Water struct {
	Height float32
	Mesh   gpu.Mesh
}

type Sky struct {
	Color   mgl32.Vec3
	Texture gpu.Texture
}
