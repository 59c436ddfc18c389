package wgpubackend

import (
	"strings"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
)

func TestDeclaredGroups(t *testing.T) {
	code := `
@group(0) @binding(0) var<uniform> u: Uniforms;
@group(2) @binding(0) var shadow_map: texture_depth_2d;
@group(2) @binding(1) var shadow_sampler: sampler;
@group(12) @binding(0) var<uniform> bones: Bones;`

	assert.Equal(t, map[uint32]bool{0: true, 2: true, 12: true}, declaredGroups(code))
	assert.Empty(t, declaredGroups("fn vs_main() {}"))
}

func TestDefaultShadersBindOnlyTheSceneUniforms(t *testing.T) {
	for name, s := range DefaultShaders() {
		assert.Equal(t, map[uint32]bool{0: true}, declaredGroups(s.Code), name)
		assert.Contains(t, s.Code, "fn vs_main", name)
	}
	assert.NotContains(t, DefaultShaders()["shadows"].Code, "@fragment")
}

func TestDefaultShadersRemapClipDepth(t *testing.T) {
	for name, s := range DefaultShaders() {
		assert.Equal(t, 1, strings.Count(s.Code, "fn clip_depth("), name)
		vs := s.Code[strings.Index(s.Code, "fn vs_main"):]
		assert.Contains(t, vs, "clip_depth(", name)
	}
}

func TestVertexLayoutMatchesVertex(t *testing.T) {
	assert.Equal(t, uint64(32), vertexLayout.ArrayStride)
	assert.Equal(t, uintptr(32), unsafe.Sizeof(Vertex{}))
	assert.Len(t, vertexLayout.Attributes, 3)
}
