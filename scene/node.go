package scene

import "github.com/google/uuid"

// NodeId is stable for the lifetime of a node.
type NodeId uuid.UUID

func NewNodeId() NodeId { return NodeId(uuid.New()) }

func (id NodeId) String() string { return uuid.UUID(id).String() }

// Node is one vertex of the scene tree. Structure is mutated through World only.
type Node struct {
	id       NodeId
	flags    FlagSet
	tags     TagSet
	parent   *Node
	children []*Node
}

func (n *Node) Id() NodeId            { return n.id }
func (n *Node) Flags() FlagSet        { return n.flags }
func (n *Node) Tags() TagSet          { return n.tags }
func (n *Node) Parent() *Node         { return n.parent }
func (n *Node) Children() []*Node     { return n.children }
func (n *Node) HasTags(t ...Tag) bool { return n.tags.HasAll(t...) }

// SetFlags replaces the node's capability set. Update phase only.
func (n *Node) SetFlags(flags FlagSet) { n.flags = flags }
