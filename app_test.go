package framegraph

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/gekko3d/framegraph/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockResource1 struct {
	name string
}
type MockResource2 struct {
	name string
}

func TestApp_changeState(t *testing.T) {
	app := newApp()
	app.stateful, app.initialState, app.state, app.finalState = true, 1, 1, 2

	app.changeState(2)
	assert.Equal(t, State(2), app.nextState)
	assert.True(t, app.stateTransitioning)

	app.executeChangeState(2)
	assert.Equal(t, State(2), app.state)
}

func TestApp_addResources(t *testing.T) {
	app := newApp()

	resource1 := &MockResource1{name: "Resource1"}
	app.addResources(resource1)
	assert.Contains(t, app.resources, reflect.TypeOf(resource1).Elem())

	require.PanicsWithValue(t, fmt.Sprintf("%s is already in resources", reflect.TypeOf(resource1)), func() {
		app.addResources(resource1)
	})
	require.Panics(t, func() { app.addResources(MockResource2{}) })

	app.addResources(&MockResource2{name: "Resource2"})
	r, ok := Resource[MockResource2](app)
	require.True(t, ok)
	assert.Equal(t, "Resource2", r.name)
}

func TestApp_StepRunsStagesInOrder(t *testing.T) {
	var calls []string
	app := NewAppBuilder().Build()
	for _, stage := range []Stage{PostRender, Update, PreUpdate, Render, PreRender, PostUpdate} {
		name := stage.Name
		app.UseSystem(System(func() { calls = append(calls, name) }).InStage(stage))
	}

	require.True(t, app.Step())
	assert.Equal(t, []string{"PreUpdate", "Update", "PostUpdate", "PreRender", "Render", "PostRender"}, calls)
	assert.Equal(t, uint64(1), app.Frame())
}

func TestApp_UseStage(t *testing.T) {
	var calls []string
	custom := Stage{Name: "Physics"}
	app := NewAppBuilder().Build()
	app.UseStage(custom, AfterStage(Update))
	app.UseSystem(System(func() { calls = append(calls, "physics") }).InStage(custom))
	app.UseSystem(System(func() { calls = append(calls, "update") }))
	app.UseSystem(System(func() { calls = append(calls, "post") }).InStage(PostUpdate))

	app.Step()
	assert.Equal(t, []string{"update", "physics", "post"}, calls)
	assert.Panics(t, func() { app.UseStage(Stage{Name: "x"}, BeforeStage(Stage{Name: "missing"})) })
	assert.Panics(t, func() { app.UseSystem(System(func() {}).InStage(Stage{Name: "missing"})) })
}

func TestApp_InjectsResourcesAndCommands(t *testing.T) {
	app := NewAppBuilder().Build()
	app.addResources(&MockResource1{name: "one"})

	var got string
	var gotCmd *Commands
	app.UseSystem(System(func(r *MockResource1, cmd *Commands) {
		got = r.name
		gotCmd = cmd
	}))
	app.Step()

	assert.Equal(t, "one", got)
	require.NotNil(t, gotCmd)
	assert.Same(t, app, gotCmd.app)
}

func TestApp_UnresolvedDependencyPanics(t *testing.T) {
	app := NewAppBuilder().Build()
	app.UseSystem(System(func(r *MockResource2) {}))

	assert.Panics(t, func() { app.Step() })
}

func TestApp_StatefulLifecycle(t *testing.T) {
	var calls []string
	record := func(s string) func() { return func() { calls = append(calls, s) } }

	app := NewAppBuilder().UseStates(0, 1).Build()
	app.UseSystem(System(record("enter0")).InState(OnEnter(0)))
	app.UseSystem(System(func(cmd *Commands) {
		calls = append(calls, "exec0")
		cmd.ChangeState(1)
	}).InState(OnExecute(0)))
	app.UseSystem(System(record("exit0")).InState(OnExit(0)))
	app.UseSystem(System(record("enter1")).InState(OnEnter(1)))
	app.UseSystem(System(record("exit1")).InState(OnExit(1)))
	app.UseSystem(System(record("always")).InState(Always()))

	app.Run(10)

	assert.Equal(t, []string{"enter0", "always", "exec0", "exit0", "enter1", "exit1"}, calls)
	assert.Equal(t, State(1), app.State())
	assert.False(t, app.Step())
}

func TestApp_StatefulSystemInStatelessAppPanics(t *testing.T) {
	app := NewAppBuilder().Build()
	assert.Panics(t, func() { app.UseSystem(System(func() {}).InState(OnEnter(0))) })
}

func TestApp_RunStopsOnQuitAndRunsShutdownHooksInReverse(t *testing.T) {
	var order []string
	frames := 0
	app := NewAppBuilder().Build()
	cmd := app.Commands()
	cmd.OnShutdown(func() { order = append(order, "first") })
	cmd.OnShutdown(func() { order = append(order, "second") })
	app.UseSystem(System(func(cmd *Commands) {
		frames++
		if frames == 3 {
			cmd.Quit()
		}
	}))

	app.Run(0)

	assert.Equal(t, 3, frames)
	assert.Equal(t, []string{"second", "first"}, order)

	app.Shutdown()
	assert.Len(t, order, 2)
}

func TestApp_RunStopsAfterFrameLimit(t *testing.T) {
	app := NewAppBuilder().Build()
	app.Run(4)
	assert.Equal(t, uint64(4), app.Frame())
}

func TestCommands_NodesAppearWhenTheStageEnds(t *testing.T) {
	app := NewAppBuilder().UseModule(SceneModule{}).Build()
	w, ok := Resource[scene.World](app)
	require.True(t, ok)

	var parent, child scene.NodeId
	var seenDuringStage bool
	app.UseSystem(System(func(cmd *Commands, w *scene.World) {
		if w.Len() > 1 {
			return
		}
		parent = cmd.AddNode(scene.FlagRender, []scene.Tag{scene.TagTerrain}, &scene.Transform{})
		child = cmd.AddChild(parent, scene.FlagRender|scene.FlagCastsShadows, nil, &scene.Material{})
		_, seenDuringStage = w.Node(parent)
	}).InStage(PreUpdate))

	var seenNextStage bool
	app.UseSystem(System(func(w *scene.World) {
		_, seenNextStage = w.Node(child)
	}))

	app.Step()

	assert.False(t, seenDuringStage)
	assert.True(t, seenNextStage)
	c, ok := w.Node(child)
	require.True(t, ok)
	assert.Equal(t, parent, c.Parent().Id())
	assert.True(t, c.Flags().Has(scene.FlagCastsShadows))
	assert.True(t, scene.HasComponent[scene.Material](w, child))
	assert.True(t, scene.HasComponent[scene.Transform](w, parent))

	app.Commands().RemoveNode(parent)
	app.FlushCommands()
	_, ok = w.Node(child)
	assert.False(t, ok)
}

func TestCommands_AddNodeWithoutWorldPanics(t *testing.T) {
	app := NewAppBuilder().Build()
	app.Commands().AddNode(scene.FlagRender, nil)
	assert.Panics(t, app.FlushCommands)
}
