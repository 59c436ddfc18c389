package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorldTreeIsDepthFirst(t *testing.T) {
	w := NewWorld()
	a := w.AddNode(nil, FlagRender)
	a1 := w.AddNode(a, FlagRender)
	a2 := w.AddNode(a, FlagRender)
	b := w.AddNode(nil, FlagRender)
	a11 := w.AddNode(a1, FlagRender)

	var order []*Node
	w.Walk(func(n *Node) bool {
		order = append(order, n)
		return true
	})
	assert.Equal(t, []*Node{w.Root(), a, a1, a11, a2, b}, order)
	assert.Same(t, a, a1.Parent())
	assert.Equal(t, 6, w.Len())
}

func TestWorldWalkSkipsChildren(t *testing.T) {
	w := NewWorld()
	a := w.AddNode(nil, 0)
	w.AddNode(a, 0)
	b := w.AddNode(nil, 0)

	var visited []*Node
	w.Walk(func(n *Node) bool {
		visited = append(visited, n)
		return n != a
	})
	assert.Equal(t, []*Node{w.Root(), a, b}, visited)
}

func TestComponents(t *testing.T) {
	w := NewWorld()
	n := w.AddNode(nil, FlagRender)

	require.NoError(t, w.AddComponents(n.Id(), NewTransform(mgl32.Vec3{1, 2, 3}), &Material{Shininess: 4}))

	tr, ok := GetComponent[Transform](w, n.Id())
	require.True(t, ok)
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, tr.Position)

	m, ok := GetComponent[Material](w, n.Id())
	require.True(t, ok)
	m.Shininess = 8
	m2, _ := GetComponent[Material](w, n.Id())
	assert.Equal(t, float32(8), m2.Shininess)

	assert.False(t, HasComponent[Camera](w, n.Id()))
	RemoveComponent[Material](w, n.Id())
	assert.False(t, HasComponent[Material](w, n.Id()))

	err := w.AddComponents(NewNodeId(), Material{})
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestFindByTags(t *testing.T) {
	w := NewWorld()
	first := w.AddNode(nil, 0, TagMainCamera)
	second := w.AddNode(nil, 0, TagMainCamera)
	untagged := w.AddNode(nil, 0)
	require.NoError(t, w.AddComponents(first.Id(), NewCamera(mgl32.Vec3{0, 0, 5}, mgl32.Vec3{})))
	require.NoError(t, w.AddComponents(second.Id(), NewCamera(mgl32.Vec3{0, 0, 9}, mgl32.Vec3{})))
	require.NoError(t, w.AddComponents(untagged.Id(), NewCamera(mgl32.Vec3{}, mgl32.Vec3{0, 0, 1})))

	found, ok := FindOne[Camera](w, TagMainCamera)
	require.True(t, ok)
	assert.Same(t, first, found.Node)
	assert.Equal(t, float32(5), found.Component.Position.Z())

	assert.Len(t, FindAll[Camera](w, TagMainCamera), 2)
	assert.Len(t, FindAll[Camera](w), 3)
	assert.Len(t, w.NodesWithTags(TagMainCamera), 2)

	_, ok = FindOne[Light](w, TagMainLight)
	assert.False(t, ok)
	assert.Panics(t, func() { MustFindOne[Light](w, TagMainLight) })
}

func TestRemoveNodeDropsSubtree(t *testing.T) {
	w := NewWorld()
	a := w.AddNode(nil, 0)
	child := w.AddNode(a, 0)
	require.NoError(t, w.AddComponents(child.Id(), Material{}))

	require.NoError(t, w.RemoveNode(a.Id()))
	_, ok := w.Node(child.Id())
	assert.False(t, ok)
	assert.False(t, HasComponent[Material](w, child.Id()))
	assert.Empty(t, w.Root().Children())

	assert.ErrorIs(t, w.RemoveNode(a.Id()), ErrNodeNotFound)
	assert.Error(t, w.RemoveNode(w.Root().Id()))
}

func TestFlagSetHas(t *testing.T) {
	s := FlagRender | FlagCastsShadows
	assert.True(t, s.Has(FlagRender))
	assert.True(t, s.Has(FlagRender|FlagCastsShadows))
	assert.False(t, s.Has(FlagRender|FlagTerrain))
	assert.True(t, s.Has(0))
	assert.Equal(t, FlagRender, s.Without(FlagCastsShadows))
}

func TestUpdateTransformsPropagates(t *testing.T) {
	w := NewWorld()
	parent := w.AddNode(nil, 0)
	group := w.AddNode(parent, 0)
	child := w.AddNode(group, 0)

	pt := NewTransform(mgl32.Vec3{10, 0, 0})
	pt.Scale = mgl32.Vec3{2, 2, 2}
	require.NoError(t, w.AddComponents(parent.Id(), pt))
	require.NoError(t, w.AddComponents(child.Id(), NewTransform(mgl32.Vec3{1, 0, 0})))

	UpdateTransforms(w)

	ct, _ := GetComponent[Transform](w, child.Id())
	pos := ct.WorldPosition()
	assert.InDelta(t, 12, pos.X(), 1e-5)
	assert.InDelta(t, 0, pos.Y(), 1e-5)
}

func TestInsertNodeRejectsDuplicateIds(t *testing.T) {
	w := NewWorld()
	id := NewNodeId()

	n, err := w.InsertNode(id, nil, FlagRender, TagSun)
	require.NoError(t, err)
	assert.Equal(t, id, n.Id())
	assert.Same(t, w.Root(), n.Parent())

	_, err = w.InsertNode(id, nil, 0)
	assert.Error(t, err)
	assert.Equal(t, 2, w.Len())
}
