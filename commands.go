package framegraph

import "github.com/gekko3d/framegraph/scene"

// Commands queues changes from systems. Scene changes are applied when the current
// stage ends, so every system of a stage sees the same world.
type Commands struct {
	app *App
}

func (cmd *Commands) ChangeState(newState State) *Commands {
	cmd.app.changeState(newState)
	return cmd
}

func (cmd *Commands) AddResources(resources ...any) *Commands {
	cmd.app.addResources(resources...)
	return cmd
}

func (cmd *Commands) UseSystem(system systemScheduleBuilder) *Commands {
	cmd.app.UseSystem(system)
	return cmd
}

// Quit ends the app after the current frame.
func (cmd *Commands) Quit() {
	cmd.app.quit = true
}

// OnShutdown registers fn to run when the app shuts down.
func (cmd *Commands) OnShutdown(fn func()) {
	cmd.app.onShutdown(fn)
}

// AddNode queues a node under the root. The returned id is valid immediately and the
// node exists once the stage ends.
func (cmd *Commands) AddNode(flags scene.FlagSet, tags []scene.Tag, components ...any) scene.NodeId {
	return cmd.AddChild(scene.NodeId{}, flags, tags, components...)
}

// AddChild queues a node under parent, which may itself still be queued.
func (cmd *Commands) AddChild(parent scene.NodeId, flags scene.FlagSet, tags []scene.Tag, components ...any) scene.NodeId {
	id := scene.NewNodeId()
	cmd.app.pendingNodes = append(cmd.app.pendingNodes, pendingNode{
		id:         id,
		parent:     parent,
		flags:      flags,
		tags:       tags,
		components: components,
	})
	return id
}

// RemoveNode queues the removal of a node and its subtree.
func (cmd *Commands) RemoveNode(id scene.NodeId) {
	cmd.app.pendingRemovals = append(cmd.app.pendingRemovals, id)
}
