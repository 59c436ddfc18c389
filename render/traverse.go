package render

import (
	"github.com/gekko3d/framegraph/geom"
	"github.com/gekko3d/framegraph/scene"
)

// Traverse visits node and all of its descendants depth first.
func Traverse(node *scene.Node, fn func(n *scene.Node)) {
	fn(node)
	for _, c := range node.Children() {
		Traverse(c, fn)
	}
}

// Visible is the draw gate: the node must carry every required flag, and when it
// has a bounding volume that volume must intersect the frustum.
func Visible(w *scene.World, n *scene.Node, required scene.FlagSet, frustum geom.Frustum) bool {
	if !n.Flags().Has(required) {
		return false
	}
	if bv, ok := scene.GetComponent[scene.BoundingVolume](w, n.Id()); ok && !bv.IsInFrustum(frustum) {
		return false
	}
	return true
}

// Walk calls draw for every node under root that passes Visible, in depth first
// order. Children are always visited, whether or not their parent was drawn.
func Walk(rc RenderContext, root *scene.Node, required scene.FlagSet, frustum geom.Frustum, draw func(n *scene.Node)) {
	if rc.DrawLists != nil {
		for _, n := range rc.DrawLists.Get(root, required) {
			draw(n)
		}
		return
	}
	Traverse(root, func(n *scene.Node) {
		if Visible(rc.World, n, required, frustum) {
			draw(n)
		}
	})
}
