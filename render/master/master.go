// Package master is the frame orchestrator. Every frame it runs the shadow cascades,
// the water reflection and refraction passes, the main pass and optionally the
// debug overlays, in that order, each against its own renderer list.
package master

import (
	"errors"
	"fmt"
	"time"

	"github.com/gekko3d/framegraph/gpu"
	"github.com/gekko3d/framegraph/render"
	"github.com/gekko3d/framegraph/render/renderers"
	"github.com/gekko3d/framegraph/scene"
	"github.com/gekko3d/framegraph/worker"
)

var ErrNotInitialized = errors.New("master renderer is not initialized")

// Logger is the engine logger's method set.
type Logger interface {
	DebugEnabled() bool
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) DebugEnabled() bool    { return false }
func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Warnf(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}

type (
	ShadowsFactory = func(renderers.Options) []render.ShadowsRenderer
	SceneFactory   = func(renderers.Options) []render.SceneRenderer
)

type Option func(*MasterRenderer)

func WithConfig(cfg Config) Option {
	return func(m *MasterRenderer) { m.cfg = cfg }
}

func WithLogger(l Logger) Option {
	return func(m *MasterRenderer) {
		if l != nil {
			m.log = l
		}
	}
}

func WithShadowRenderers(f ShadowsFactory) Option {
	return func(m *MasterRenderer) { m.shadowsFactory = f }
}

func WithReflectionRenderers(f SceneFactory) Option {
	return func(m *MasterRenderer) { m.reflectionFactory = f }
}

func WithRefractionRenderers(f SceneFactory) Option {
	return func(m *MasterRenderer) { m.refractionFactory = f }
}

func WithSceneRenderers(f SceneFactory) Option {
	return func(m *MasterRenderer) { m.sceneFactory = f }
}

func WithDebugRenderers(f SceneFactory) Option {
	return func(m *MasterRenderer) { m.debugFactory = f }
}

// PassStats is what one pass recorded in the last frame.
type PassStats struct {
	Name      string
	Renderers int
	Draws     int
	// RendererDraws holds the draws of each renderer in registration order.
	RendererDraws []int
	Duration      time.Duration
}

type Stats struct {
	Frames uint64
	Passes []PassStats
}

// Draws sums the draws of every pass.
func (s Stats) Draws() int {
	n := 0
	for _, p := range s.Passes {
		n += p.Draws
	}
	return n
}

// MasterRenderer owns the renderer lists of every pass and drives them once per frame.
// Render, Init and ShutDown must be called from the same goroutine.
type MasterRenderer struct {
	device gpu.Device
	cfg    Config
	log    Logger

	shadowsFactory    ShadowsFactory
	reflectionFactory SceneFactory
	refractionFactory SceneFactory
	sceneFactory      SceneFactory
	debugFactory      SceneFactory

	shadows    pass[*render.ShadowsPassData]
	reflection pass[*render.ScenePassData]
	refraction pass[*render.ScenePassData]
	main       pass[*render.ScenePassData]
	debug      pass[*render.ScenePassData]

	pool        *worker.Pool
	profiler    *Profiler
	stats       Stats
	initialized bool
}

func New(device gpu.Device, opts ...Option) *MasterRenderer {
	m := &MasterRenderer{
		device:            device,
		cfg:               DefaultConfig(),
		log:               nopLogger{},
		shadowsFactory:    renderers.ShadowRenderers,
		reflectionFactory: renderers.ReflectionRenderers,
		refractionFactory: renderers.RefractionRenderers,
		debugFactory:      renderers.DebugRenderers,
		profiler:          NewProfiler(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.sceneFactory == nil {
		bounds := m.cfg.BoundingVolumes
		m.sceneFactory = func(o renderers.Options) []render.SceneRenderer {
			return renderers.SceneRenderers(o, bounds)
		}
	}
	return m
}

func (m *MasterRenderer) Config() Config { return m.cfg }

func (m *MasterRenderer) Profiler() *Profiler { return m.profiler }

// Stats returns the counters of the last rendered frame.
func (m *MasterRenderer) Stats() Stats {
	s := m.stats
	s.Passes = append([]PassStats(nil), m.stats.Passes...)
	return s
}

func (m *MasterRenderer) Initialized() bool { return m.initialized }

// Init builds every renderer list, acquires their pipelines and pools and, in
// parallel mode, the command buffer groups and the task pool. Any error is fatal;
// what was acquired before it is released again.
func (m *MasterRenderer) Init() error {
	if m.initialized {
		return nil
	}
	if err := m.cfg.Validate(); err != nil {
		return err
	}
	opts := renderers.Options{
		Device:    m.device,
		Capacity:  m.cfg.PoolCapacity(),
		Alignment: m.cfg.UniformAlignment,
	}

	m.main = pass[*render.ScenePassData]{kind: render.PassScene, renderers: m.sceneFactory(opts)}
	// Shadow renderers draw once per cascade, all from the same pools.
	shadowOpts := opts
	shadowOpts.Capacity = m.cfg.ShadowPoolCapacity()
	m.shadows = pass[*render.ShadowsPassData]{kind: render.PassShadows, renderers: m.shadowsFactory(shadowOpts)}
	m.reflection = pass[*render.ScenePassData]{kind: render.PassReflection, renderers: m.reflectionFactory(opts)}
	m.refraction = pass[*render.ScenePassData]{kind: render.PassRefraction, renderers: m.refractionFactory(opts)}
	m.debug = pass[*render.ScenePassData]{kind: render.PassDebug}
	if m.cfg.DebugPass {
		m.debug.renderers = m.debugFactory(opts)
	}
	for _, budget := range []*int{&m.main.budget, &m.reflection.budget, &m.refraction.budget, &m.debug.budget} {
		*budget = m.cfg.MaxDrawsPerFrame
	}
	m.shadows.budget = m.cfg.ShadowPoolCapacity() / m.cfg.FramesInFlight

	steps := []func() error{m.main.init, m.debug.init, m.shadows.init, m.reflection.init, m.refraction.init}
	for i, step := range steps {
		if err := step(); err != nil {
			m.unwind(i)
			m.log.Errorf("master renderer init failed: %v", err)
			return err
		}
	}

	if m.cfg.Parallel {
		m.main.createGroups(1, m.cfg.FramesInFlight)
		m.debug.createGroups(1, m.cfg.FramesInFlight)
		m.shadows.createGroups(m.cfg.CascadeCount, m.cfg.FramesInFlight)
		m.reflection.createGroups(1, m.cfg.FramesInFlight)
		m.refraction.createGroups(1, m.cfg.FramesInFlight)
		m.pool = worker.NewPool(m.cfg.Workers)
	}

	m.initialized = true
	m.log.Infof("master renderer initialized: %d shadow x%d, %d reflection, %d refraction, %d scene, %d debug renderers (parallel=%v, pool capacity %d, shadow pool capacity %d)",
		len(m.shadows.renderers), m.cfg.CascadeCount, len(m.reflection.renderers), len(m.refraction.renderers),
		len(m.main.renderers), len(m.debug.renderers), m.cfg.Parallel, m.cfg.PoolCapacity(), m.cfg.ShadowPoolCapacity())
	return nil
}

// unwind shuts down the passes initialized before step failed.
func (m *MasterRenderer) unwind(failed int) {
	done := []func(){m.main.shutDown, m.debug.shutDown, m.shadows.shutDown, m.reflection.shutDown, m.refraction.shutDown}
	for i := failed - 1; i >= 0; i-- {
		done[i]()
	}
}

// ShutDown releases everything Init acquired, passes in reverse order of creation.
func (m *MasterRenderer) ShutDown() {
	if !m.initialized {
		return
	}
	if m.pool != nil {
		m.pool.Close()
		m.pool = nil
	}
	m.refraction.shutDown()
	m.reflection.shutDown()
	m.shadows.shutDown()
	m.debug.shutDown()
	m.main.shutDown()
	m.initialized = false
	m.log.Infof("master renderer shut down")
}

// Reload rebuilds every renderer, picking up changed shaders or config.
func (m *MasterRenderer) Reload() error {
	m.ShutDown()
	return m.Init()
}

// Render records one frame into frame.Recorder. It must run after the update phase:
// transforms, bounding volumes and shadow cascades are read as they are.
//
// The main camera, main light, shadows and both water passes must exist in w.
func (m *MasterRenderer) Render(frame render.RenderContext, w *scene.World) error {
	if !m.initialized {
		return ErrNotInitialized
	}
	frame.World = w
	root := w.Root()
	camera := *scene.MustFindOne[scene.Camera](w, scene.TagMainCamera).Component

	m.profiler.Reset()
	m.stats.Passes = m.stats.Passes[:0]
	m.shadows.beginFrame()
	m.reflection.beginFrame()
	m.refraction.beginFrame()
	m.main.beginFrame()
	m.debug.beginFrame()
	var errs []error

	shadows := scene.MustFindOne[scene.Shadows](w, scene.TagShadows).Component
	if len(shadows.Cascades) < m.cfg.CascadeCount {
		panic(fmt.Sprintf("master: %d shadow cascades configured, scene has %d", m.cfg.CascadeCount, len(shadows.Cascades)))
	}
	for i := 0; i < m.cfg.CascadeCount; i++ {
		cascade := shadows.Cascades[i]
		data := render.NewShadowsPassData(cascade.View, cascade.Projection, i, shadows.Extent)
		rc := m.passContext(frame, cascade.Target, shadows.Extent)
		errs = append(errs, runPass(m, &m.shadows, i, fmt.Sprintf("shadows%d", i), rc, root, data))
	}

	reflection := scene.MustFindOne[scene.OffscreenPass](w, scene.TagWaterReflection).Component
	rc := m.passContext(frame, reflection.Target, reflection.Extent)
	errs = append(errs, runPass(m, &m.reflection, 0, "reflection", rc, root, m.reflectionData(camera, reflection.Extent)))

	refraction := scene.MustFindOne[scene.OffscreenPass](w, scene.TagWaterRefraction).Component
	rc = m.passContext(frame, refraction.Target, refraction.Extent)
	errs = append(errs, runPass(m, &m.refraction, 0, "refraction", rc, root, m.refractionData(camera, refraction.Extent)))

	rc = m.passContext(frame, frame.Target, frame.Extent)
	errs = append(errs, runPass(m, &m.main, 0, "scene", rc, root, m.sceneData(render.PassScene, camera, frame.Extent)))

	if m.cfg.DebugPass {
		half := frame.Extent.Half()
		rc = m.passContext(frame, frame.Target, half)
		errs = append(errs, runPass(m, &m.debug, 0, "debug", rc, root, m.sceneData(render.PassDebug, camera, half)))
	}

	if gpu.DebugChecks {
		m.shadows.checkBudget(m.log)
		m.reflection.checkBudget(m.log)
		m.refraction.checkBudget(m.log)
		m.main.checkBudget(m.log)
		m.debug.checkBudget(m.log)
	}

	m.stats.Frames++
	if err := errors.Join(errs...); err != nil {
		m.log.Errorf("frame %d: %v", m.stats.Frames, err)
		return err
	}
	return nil
}

func (m *MasterRenderer) passContext(frame render.RenderContext, target gpu.Target, extent gpu.Extent) render.RenderContext {
	rc := frame
	rc.Target = target
	rc.Extent = extent
	rc.DrawLists = nil
	return rc
}

// runPass drives one pass through a counting recorder and records its stats.
func runPass[D render.PassData](m *MasterRenderer, p *pass[D], groupIndex int, name string, rc render.RenderContext, root *scene.Node, data D) error {
	var group *gpu.CommandBufferGroup
	if groupIndex < len(p.groups) {
		group = p.groups[groupIndex]
	}
	counter := &countingRecorder{Recorder: rc.Recorder}
	rc.Recorder = counter

	m.profiler.BeginScope(name)
	draws, err := drive(m.pool, p, group, rc, root, data, m.cfg.UseDrawLists)
	m.profiler.EndScope(name)
	m.profiler.SetCount(name, counter.draws)
	p.countDraws(draws)

	stats := PassStats{
		Name:          name,
		Renderers:     len(p.renderers),
		Draws:         counter.draws,
		RendererDraws: draws,
		Duration:      m.profiler.Scopes[name],
	}
	m.stats.Passes = append(m.stats.Passes, stats)
	if m.log.DebugEnabled() {
		m.log.Debugf("pass %s: %d renderers, %d draws, %s", stats.Name, stats.Renderers, stats.Draws, stats.Duration)
	}
	if err != nil {
		return fmt.Errorf("%s pass: %w", name, err)
	}
	return nil
}
