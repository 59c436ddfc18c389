// Package render defines the renderer contract: the immutable per-pass data,
// the per-pass context and the culling walk every renderer shares.
package render

import (
	"fmt"

	"github.com/gekko3d/framegraph/geom"
	"github.com/gekko3d/framegraph/gpu"
	"github.com/go-gl/mathgl/mgl32"
)

type PassKind int

const (
	PassShadows PassKind = iota
	PassReflection
	PassRefraction
	PassScene
	PassDebug
)

func (k PassKind) String() string {
	switch k {
	case PassShadows:
		return "shadows"
	case PassReflection:
		return "reflection"
	case PassRefraction:
		return "refraction"
	case PassScene:
		return "scene"
	case PassDebug:
		return "debug"
	default:
		return fmt.Sprintf("PassKind(%d)", int(k))
	}
}

// PassData is the immutable input of one pass in one frame. It is one of
// *ShadowsPassData or *ScenePassData.
type PassData interface {
	Kind() PassKind
	ViewFrustum() geom.Frustum
	passData()
}

type ShadowsPassData struct {
	View         mgl32.Mat4
	Projection   mgl32.Mat4
	CascadeIndex int
	Frustum      geom.Frustum
	Extent       gpu.Extent
}

func (*ShadowsPassData) Kind() PassKind              { return PassShadows }
func (d *ShadowsPassData) ViewFrustum() geom.Frustum { return d.Frustum }
func (*ShadowsPassData) passData()                   {}

func NewShadowsPassData(view, projection mgl32.Mat4, cascade int, extent gpu.Extent) *ShadowsPassData {
	return &ShadowsPassData{
		View:         view,
		Projection:   projection,
		CascadeIndex: cascade,
		Frustum:      geom.NewFrustum(projection, view),
		Extent:       extent,
	}
}

// ScenePassData feeds the reflection, refraction, main and debug passes.
type ScenePassData struct {
	Pass           PassKind
	View           mgl32.Mat4
	Projection     mgl32.Mat4
	CameraPosition mgl32.Vec3
	ClipPlane      mgl32.Vec4
	Extent         gpu.Extent
	NearFar        mgl32.Vec2
	Frustum        geom.Frustum
}

func (d *ScenePassData) Kind() PassKind            { return d.Pass }
func (d *ScenePassData) ViewFrustum() geom.Frustum { return d.Frustum }
func (*ScenePassData) passData()                   {}

func (d *ScenePassData) ViewProjection() mgl32.Mat4 {
	return d.Projection.Mul4(d.View)
}

var (
	_ PassData = (*ShadowsPassData)(nil)
	_ PassData = (*ScenePassData)(nil)
)
