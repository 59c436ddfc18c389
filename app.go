// Package framegraph is the engine frame driver. An App runs its systems stage by
// stage once per frame; modules install resources and systems, and the render module
// hands the scene world to the frame orchestrator after the update stages are done.
package framegraph

import (
	"fmt"
	"reflect"
	"runtime"
	"slices"

	"github.com/gekko3d/framegraph/scene"
)

type systemFn any

type App struct {
	stateful           bool
	stateTransitioning bool
	initialState       State
	finalState         State
	nextState          State
	state              State
	stages             []Stage
	systems            map[string]map[State]map[statePhase][]systemFn
	systemsStateless   map[string][]systemFn
	resources          map[reflect.Type]any

	pendingNodes    []pendingNode
	pendingRemovals []scene.NodeId
	shutdownHooks   []func()

	started  bool
	finished bool
	quit     bool
	frame    uint64
}

type pendingNode struct {
	id         scene.NodeId
	parent     scene.NodeId
	flags      scene.FlagSet
	tags       []scene.Tag
	components []any
}

func newApp() *App {
	app := &App{
		systems:          make(map[string]map[State]map[statePhase][]systemFn),
		systemsStateless: make(map[string][]systemFn),
		resources:        make(map[reflect.Type]any),
		stages:           slices.Clone(defaultStages),
	}
	return app
}

func (app *App) Commands() *Commands {
	return &Commands{app: app}
}

// Frame is the number of completed frames.
func (app *App) Frame() uint64 { return app.frame }

func (app *App) State() State { return app.state }

func (app *App) start() {
	if app.started {
		return
	}
	app.started = true
	for _, s := range app.stages {
		app.initStage(s)
	}
	if app.stateful {
		app.Logger().Infof("running in stateful mode from state %d", app.initialState)
		app.state = app.initialState
		app.callSystems(app.state, enter)
	} else {
		app.Logger().Infof("running in stateless mode")
	}
}

// Step runs every stage once. It returns false once the app has reached its final
// state or a system asked to quit; further calls do nothing.
func (app *App) Step() bool {
	app.start()
	if app.finished {
		return false
	}

	app.callSystems(app.state, execute)
	app.frame++

	if app.stateful {
		if app.stateTransitioning {
			app.stateTransitioning = false
			app.executeChangeState(app.nextState)
		}
		if app.state == app.finalState {
			app.callSystems(app.state, exit)
			app.finished = true
		}
	}
	if app.quit {
		app.finished = true
	}
	return !app.finished
}

// Run steps until the app finishes, or for at most frames frames when frames > 0,
// then shuts it down.
func (app *App) Run(frames int) {
	defer app.Shutdown()
	for i := 0; frames <= 0 || i < frames; i++ {
		if !app.Step() {
			return
		}
	}
}

// Shutdown runs the shutdown hooks modules registered, last registered first.
func (app *App) Shutdown() {
	hooks := app.shutdownHooks
	app.shutdownHooks = nil
	for i := len(hooks) - 1; i >= 0; i-- {
		hooks[i]()
	}
	app.finished = true
}

func (app *App) onShutdown(fn func()) {
	app.shutdownHooks = append(app.shutdownHooks, fn)
}

func (app *App) callSystems(state State, phase statePhase) {
	for _, stage := range app.stages {
		if phase == execute {
			for _, system := range app.systemsStateless[stage.Name] {
				app.callSystem(system)
			}
		}
		if app.stateful {
			for _, system := range app.systems[stage.Name][state][phase] {
				app.callSystem(system)
			}
		}
		app.FlushCommands()
	}
}

func (app *App) changeState(newState State) {
	app.nextState = newState
	app.stateTransitioning = true
}

func (app *App) executeChangeState(newState State) {
	app.callSystems(app.state, exit)
	app.state = newState
	app.callSystems(app.state, enter)
}

func (app *App) addResources(resources ...any) *App {
	for _, resource := range resources {
		resourceType := reflect.TypeOf(resource)
		if resourceType.Kind() != reflect.Pointer {
			panic(fmt.Sprintf("resource %s must be a pointer", resourceType))
		}
		if _, ok := app.resources[resourceType.Elem()]; ok {
			panic(fmt.Sprintf("%s is already in resources", resourceType))
		}
		app.resources[resourceType.Elem()] = resource
	}
	return app
}

// Resource returns the resource of type *T.
func Resource[T any](app *App) (*T, bool) {
	r, ok := app.resources[reflect.TypeOf((*T)(nil)).Elem()]
	if !ok {
		return nil, false
	}
	return r.(*T), true
}

func mustResource[T any](app *App, hint string) *T {
	r, ok := Resource[T](app)
	if !ok {
		panic(fmt.Sprintf("resource %s missing: %s", reflect.TypeOf((*T)(nil)).Elem(), hint))
	}
	return r
}

var typeOfCommands = reflect.TypeOf(Commands{})

// callSystem resolves every pointer argument of system from the resources, or passes
// *Commands, and calls it.
func (app *App) callSystem(system systemFn) {
	systemType := reflect.TypeOf(system)
	systemValue := reflect.ValueOf(system)

	args := make([]reflect.Value, systemType.NumIn())
	for i := range args {
		argType := systemType.In(i)
		if argType.Kind() != reflect.Pointer {
			panic(app.unresolved(systemValue, argType))
		}
		underlying := argType.Elem()
		if underlying == typeOfCommands {
			args[i] = reflect.ValueOf(&Commands{app: app})
		} else if resource, ok := app.resources[underlying]; ok {
			args[i] = reflect.ValueOf(resource)
		} else {
			panic(app.unresolved(systemValue, argType))
		}
	}
	systemValue.Call(args)
}

func (app *App) unresolved(system reflect.Value, dependency reflect.Type) string {
	return fmt.Sprintf("unable to resolve system dependency: system %s (%s), dependency %s",
		runtime.FuncForPC(system.Pointer()).Name(), system.Type(), dependency)
}

// FlushCommands applies the scene changes queued through Commands since the last flush:
// removals first, then additions in the order they were queued.
func (app *App) FlushCommands() {
	if len(app.pendingNodes) == 0 && len(app.pendingRemovals) == 0 {
		return
	}
	w := mustResource[scene.World](app, "install SceneModule before adding nodes")
	log := app.Logger()

	for _, id := range app.pendingRemovals {
		if err := w.RemoveNode(id); err != nil {
			log.Warnf("flush: %v", err)
		}
	}
	app.pendingRemovals = app.pendingRemovals[:0]

	for _, add := range app.pendingNodes {
		var parent *scene.Node
		if add.parent != (scene.NodeId{}) {
			p, ok := w.Node(add.parent)
			if !ok {
				log.Warnf("flush: parent %s of %s is gone", add.parent, add.id)
				continue
			}
			parent = p
		}
		if _, err := w.InsertNode(add.id, parent, add.flags, add.tags...); err != nil {
			log.Warnf("flush: %v", err)
			continue
		}
		if err := w.AddComponents(add.id, add.components...); err != nil {
			log.Warnf("flush: %v", err)
		}
	}
	app.pendingNodes = app.pendingNodes[:0]
}
