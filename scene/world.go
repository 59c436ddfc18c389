// Package scene is the world context handed to the render phase: a node tree with
// capability flags and tags, plus a component side-table keyed by node id.
package scene

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
)

var ErrNodeNotFound = errors.New("scene: node not found")

// World owns the node tree and the components attached to its nodes. It is mutated
// only by the Update phase; the render phase reads it without locks.
type World struct {
	root       *Node
	nodes      map[NodeId]*Node
	components map[reflect.Type]map[NodeId]any
}

func NewWorld() *World {
	w := &World{
		nodes:      make(map[NodeId]*Node),
		components: make(map[reflect.Type]map[NodeId]any),
	}
	w.root = &Node{id: NewNodeId()}
	w.nodes[w.root.id] = w.root
	return w
}

func (w *World) Root() *Node { return w.root }

func (w *World) Len() int { return len(w.nodes) }

// AddNode creates a node under parent, or under the root when parent is nil.
func (w *World) AddNode(parent *Node, flags FlagSet, tags ...Tag) *Node {
	n, _ := w.InsertNode(NewNodeId(), parent, flags, tags...)
	return n
}

// InsertNode is AddNode with a caller chosen id, used to apply deferred additions.
func (w *World) InsertNode(id NodeId, parent *Node, flags FlagSet, tags ...Tag) (*Node, error) {
	if _, ok := w.nodes[id]; ok {
		return nil, fmt.Errorf("insert %s: id already in use", id)
	}
	if parent == nil {
		parent = w.root
	}
	n := &Node{
		id:     id,
		flags:  flags,
		tags:   slices.Clone(TagSet(tags)),
		parent: parent,
	}
	parent.children = append(parent.children, n)
	w.nodes[n.id] = n
	return n, nil
}

// RemoveNode detaches the node and drops its subtree together with all components.
func (w *World) RemoveNode(id NodeId) error {
	n, ok := w.nodes[id]
	if !ok {
		return fmt.Errorf("remove %s: %w", id, ErrNodeNotFound)
	}
	if n == w.root {
		return fmt.Errorf("remove %s: root cannot be removed", id)
	}
	if p := n.parent; p != nil {
		p.children = slices.DeleteFunc(p.children, func(c *Node) bool { return c == n })
	}
	w.walk(n, func(sub *Node) bool {
		delete(w.nodes, sub.id)
		for _, table := range w.components {
			delete(table, sub.id)
		}
		return true
	})
	n.parent = nil
	return nil
}

func (w *World) Node(id NodeId) (*Node, bool) {
	n, ok := w.nodes[id]
	return n, ok
}

// AddComponents attaches components to a node, one per type. Values are stored by
// pointer; passing a value stores a pointer to a copy.
func (w *World) AddComponents(id NodeId, components ...any) error {
	if _, ok := w.nodes[id]; !ok {
		return fmt.Errorf("add components to %s: %w", id, ErrNodeNotFound)
	}
	for _, c := range components {
		v := reflect.ValueOf(c)
		if v.Kind() != reflect.Pointer {
			ptr := reflect.New(v.Type())
			ptr.Elem().Set(v)
			v = ptr
		}
		t := v.Type().Elem()
		table, ok := w.components[t]
		if !ok {
			table = make(map[NodeId]any)
			w.components[t] = table
		}
		table[id] = v.Interface()
	}
	return nil
}

func (w *World) table(t reflect.Type) map[NodeId]any {
	return w.components[t]
}

// GetComponent returns the component of type T attached to id.
func GetComponent[T any](w *World, id NodeId) (*T, bool) {
	c, ok := w.table(reflect.TypeFor[T]())[id]
	if !ok {
		return nil, false
	}
	return c.(*T), true
}

func HasComponent[T any](w *World, id NodeId) bool {
	_, ok := w.table(reflect.TypeFor[T]())[id]
	return ok
}

func RemoveComponent[T any](w *World, id NodeId) {
	delete(w.table(reflect.TypeFor[T]()), id)
}

// Walk visits the tree depth first from the root in child order. Returning false
// from fn skips the node's children.
func (w *World) Walk(fn func(n *Node) bool) {
	w.walk(w.root, fn)
}

func (w *World) walk(n *Node, fn func(n *Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.children {
		w.walk(c, fn)
	}
}

// NodesWithTags returns every node carrying all tags, in depth first order.
func (w *World) NodesWithTags(tags ...Tag) []*Node {
	var out []*Node
	w.Walk(func(n *Node) bool {
		if n.tags.HasAll(tags...) {
			out = append(out, n)
		}
		return true
	})
	return out
}

// Found pairs a node with one of its components.
type Found[T any] struct {
	Node      *Node
	Component *T
}

// FindOne returns the first node, depth first, that carries all tags and a T component.
func FindOne[T any](w *World, tags ...Tag) (Found[T], bool) {
	var found Found[T]
	ok := false
	table := w.table(reflect.TypeFor[T]())
	if len(table) == 0 {
		return found, false
	}
	w.Walk(func(n *Node) bool {
		if ok {
			return false
		}
		if !n.tags.HasAll(tags...) {
			return true
		}
		if c, has := table[n.id]; has {
			found = Found[T]{Node: n, Component: c.(*T)}
			ok = true
			return false
		}
		return true
	})
	return found, ok
}

// FindAll returns every node, depth first, that carries all tags and a T component.
func FindAll[T any](w *World, tags ...Tag) []Found[T] {
	table := w.table(reflect.TypeFor[T]())
	if len(table) == 0 {
		return nil
	}
	var out []Found[T]
	w.Walk(func(n *Node) bool {
		if c, has := table[n.id]; has && n.tags.HasAll(tags...) {
			out = append(out, Found[T]{Node: n, Component: c.(*T)})
		}
		return true
	})
	return out
}

// MustFindOne is FindOne for required singletons such as the main camera. A missing
// singleton is a caller bug and panics.
func MustFindOne[T any](w *World, tags ...Tag) Found[T] {
	f, ok := FindOne[T](w, tags...)
	if !ok {
		panic(fmt.Sprintf("scene: no %v component tagged %v", reflect.TypeFor[T](), tags))
	}
	return f
}
