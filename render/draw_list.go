package render

import (
	"sync"

	"github.com/gekko3d/framegraph/geom"
	"github.com/gekko3d/framegraph/scene"
)

// DrawList is the visible nodes of one pass for one flag predicate, in traversal order.
type DrawList []*scene.Node

func BuildDrawList(w *scene.World, root *scene.Node, required scene.FlagSet, frustum geom.Frustum) DrawList {
	var list DrawList
	Traverse(root, func(n *scene.Node) {
		if Visible(w, n, required, frustum) {
			list = append(list, n)
		}
	})
	return list
}

type drawListKey struct {
	root     *scene.Node
	required scene.FlagSet
}

// DrawListCache builds each (root, predicate) list once per pass and shares it
// between the renderers of that pass. Safe for concurrent use.
type DrawListCache struct {
	world   *scene.World
	frustum geom.Frustum

	mu    sync.Mutex
	lists map[drawListKey]DrawList
	built int
}

func NewDrawListCache(w *scene.World, frustum geom.Frustum) *DrawListCache {
	return &DrawListCache{world: w, frustum: frustum, lists: make(map[drawListKey]DrawList)}
}

func (c *DrawListCache) Get(root *scene.Node, required scene.FlagSet) DrawList {
	key := drawListKey{root: root, required: required}
	c.mu.Lock()
	defer c.mu.Unlock()
	if list, ok := c.lists[key]; ok {
		return list
	}
	list := BuildDrawList(c.world, root, required, c.frustum)
	c.lists[key] = list
	c.built++
	return list
}

// Built returns how many distinct lists were computed.
func (c *DrawListCache) Built() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.built
}
