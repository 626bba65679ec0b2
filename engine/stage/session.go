// Package stage runs one avatar preview: the lit stage scene, the model currently on it,
// its animation controller, the per-frame render loop and the canvas resize hookup.
package stage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"

	"github.com/Carmen-Shannon/oxy-stage/engine"
	"github.com/Carmen-Shannon/oxy-stage/engine/animator"
	"github.com/Carmen-Shannon/oxy-stage/engine/camera"
	"github.com/Carmen-Shannon/oxy-stage/engine/catalog"
	"github.com/Carmen-Shannon/oxy-stage/engine/config"
	"github.com/Carmen-Shannon/oxy-stage/engine/gate"
	"github.com/Carmen-Shannon/oxy-stage/engine/loader"
	"github.com/Carmen-Shannon/oxy-stage/engine/renderer"
	"github.com/Carmen-Shannon/oxy-stage/engine/scene"
	"github.com/Carmen-Shannon/oxy-stage/engine/tween"
	"github.com/Carmen-Shannon/oxy-stage/engine/window"
	"github.com/go-gl/mathgl/mgl32"
)

// ErrMissingCapability is returned by NewSession when a capability factory is nil.
var ErrMissingCapability = errors.New("missing capability")

const (
	// IntroSpinAngle is the yaw, in radians, a freshly loaded model swings in from.
	IntroSpinAngle float32 = 0.3 * math.Pi
	// IntroSpinDuration is the length of the intro swing in seconds.
	IntroSpinDuration float32 = 0.6
)

// ClipInfo describes one clip of the current model for display.
type ClipInfo struct {
	Name     string
	Label    string
	Duration float32
	Index    int
}

// sessionImpl implements the Session interface.
type sessionImpl struct {
	host     engine.Host
	canvas   window.Canvas
	loader   loader.Async
	tweens   tween.Engine
	renderer renderer.Renderer

	rig        *rig
	controller Controller
	loop       *renderLoop
	resize     *resizeSync

	ctx             context.Context
	quality         config.Quality
	autoRotate      bool
	rendererOptions []renderer.RendererBuilderOption

	descriptor catalog.Descriptor
	hasModel   bool
	model      *scene.Node
	asset      *loader.Asset
	spin       tween.Tween
	pending    loader.Pending
	generation uint64
	loading    bool
	disposed   bool

	onLoadState func(bool)
	onClipList  func([]ClipInfo)
	onClipIndex func(int)
	onApplied   func(*loader.Asset)
}

// Session is one live preview bound to a canvas. Every method must be called on the host loop.
type Session interface {
	// Load replaces whatever is on stage with d's model. The previous model is removed at
	// once and any load still in flight is cancelled; its result is discarded even if it
	// arrives later.
	//
	// Parameters:
	//   - d: the validated descriptor to show
	Load(d catalog.Descriptor)

	// Descriptor returns the descriptor of the latest Load.
	Descriptor() catalog.Descriptor

	// Next crossfades to the following clip.
	//
	// Returns:
	//   - int: the new clip index
	Next() int

	// Previous crossfades to the preceding clip.
	//
	// Returns:
	//   - int: the new clip index
	Previous() int

	// SelectAnimation crossfades to clip i, wrapped to the clip count.
	//
	// Parameters:
	//   - i: the clip index
	//
	// Returns:
	//   - int: the new clip index
	SelectAnimation(i int) int

	// SetAutoRotate turns idle rotation of clip-less models on or off.
	//
	// Parameters:
	//   - on: the new setting
	SetAutoRotate(on bool)

	// AutoRotate returns the current auto-rotate setting.
	AutoRotate() bool

	// State returns the controller's mode.
	State() ControllerState

	// AnimationIndex returns the current clip index.
	AnimationIndex() int

	// Clips returns display info for the current model's clips.
	Clips() []ClipInfo

	// Model returns the model root on stage, nil while loading.
	Model() *scene.Node

	// Asset returns the applied load result, nil while loading.
	Asset() *loader.Asset

	// Loading reports whether a load is in flight.
	Loading() bool

	// Generation returns the load generation, incremented by every Load.
	Generation() uint64

	// Quality returns the tier the session was created with.
	Quality() config.Quality

	// Scene returns the stage scene.
	Scene() scene.Scene

	// Camera returns the stage camera.
	Camera() camera.Camera

	// Renderer returns the renderer bound to the canvas.
	Renderer() renderer.Renderer

	// Tweens returns the session's tween engine.
	Tweens() tween.Engine

	// Controller returns the animation controller.
	Controller() Controller

	// Disposed reports whether Dispose ran.
	Disposed() bool

	// Dispose stops the render loop, detaches from the canvas, cancels the pending load,
	// stops every animation and releases the renderer. Safe to call more than once.
	Dispose()
}

var _ Session = &sessionImpl{}

// NewSession builds the stage scene on canvas using the injected capabilities.
//
// Parameters:
//   - host: the loop frames and load results run on
//   - canvas: the surface to render to
//   - caps: the renderer, tween and loader factories
//   - options: functional options for quality, callbacks and renderer settings
//
// Returns:
//   - Session: the new session, idle until Load is called
//   - error: ErrMissingCapability or the renderer factory's error
func NewSession(host engine.Host, canvas window.Canvas, caps gate.Capabilities, options ...SessionBuilderOption) (Session, error) {
	if host == nil || canvas == nil {
		panic("stage: NewSession requires a host and a canvas")
	}
	if missing := caps.Missing(); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingCapability, strings.Join(missing, ", "))
	}

	s := &sessionImpl{
		host:       host,
		canvas:     canvas,
		loader:     caps.Loader,
		ctx:        context.Background(),
		quality:    config.QualityHigh,
		autoRotate: true,
	}
	for _, opt := range options {
		opt(s)
	}

	r, err := caps.NewRenderer(canvas, s.rendererOptions...)
	if err != nil {
		return nil, fmt.Errorf("create renderer: %w", err)
	}
	s.renderer = r
	s.tweens = caps.NewTweens()
	s.rig = buildRig(s.quality)
	s.controller = NewController(s.tweens, s.autoRotate)
	s.loop = newRenderLoop(host, s.tick)
	s.resize = attachResize(canvas, s.rig.camera, r)
	return s, nil
}

func (s *sessionImpl) Load(d catalog.Descriptor) {
	if s.disposed {
		log.Printf("[Stage] load of %s ignored, session disposed", d.ID)
		return
	}
	s.generation++
	gen := s.generation
	if s.pending != nil {
		s.pending.Cancel()
		s.pending = nil
	}

	s.controller.Release()
	s.swapModel(nil)
	s.descriptor = d
	s.hasModel = false
	s.asset = nil
	s.emitClipList(nil)
	s.emitClipIndex(0)
	s.setLoading(true)

	s.pending = s.loader.Request(s.ctx, d, loader.Options{Shadows: s.quality.Shadows()}, func(asset *loader.Asset) {
		s.onLoaded(gen, asset)
	})
	s.loop.start()
}

// onLoaded applies a load result on the host loop, unless it belongs to an older Load.
func (s *sessionImpl) onLoaded(gen uint64, asset *loader.Asset) {
	if s.disposed {
		log.Printf("[Stage] result for %s dropped, session disposed", asset.Descriptor.ID)
		return
	}
	if gen != s.generation {
		log.Printf("[Stage] stale result for %s dropped (generation %d, current %d)", asset.Descriptor.ID, gen, s.generation)
		return
	}
	s.pending = nil
	s.asset = asset
	s.hasModel = true
	// The loader resolves color and asset kind for descriptors that were never validated.
	s.descriptor = asset.Descriptor

	s.swapModel(asset.Root)
	s.rig.tintGlow(s.descriptor.RGB())
	off := s.descriptor.Offset()
	s.rig.anchor.Position = mgl32.Vec3{off.X, off.Y, off.Z}
	s.controller.Bind(asset.Root, asset.Clips)

	s.emitClipList(clipInfos(asset.Clips))
	s.emitClipIndex(0)
	s.setLoading(false)

	if asset.Placeholder {
		log.Printf("[Stage] %s shown as placeholder: %v", s.descriptor.ID, asset.Err)
	} else {
		s.playIntroSpin()
	}
	if s.onApplied != nil {
		s.onApplied(asset)
	}
}

// swapModel removes the current model from the anchor before adding root. A nil root
// only clears the stage.
func (s *sessionImpl) swapModel(root *scene.Node) {
	if s.spin != nil {
		s.spin.Kill()
		s.spin = nil
	}
	s.rig.anchor.Yaw = 0
	if s.model != nil {
		s.rig.anchor.Remove(s.model)
		s.model = nil
	}
	if root == nil {
		return
	}
	s.rig.anchor.Add(root)
	s.model = root
}

func (s *sessionImpl) playIntroSpin() {
	anchor := s.rig.anchor
	anchor.Yaw = IntroSpinAngle
	s.spin = s.tweens.Add(tween.NewTween(
		tween.WithRange(IntroSpinAngle, 0),
		tween.WithDuration(IntroSpinDuration),
		tween.WithEase(tween.Power2Out),
		tween.WithSetter(func(v float32) { anchor.Yaw = v }),
		tween.WithOnComplete(func() { s.spin = nil }),
	))
}

// tick is one render loop frame: tweens, then mixers, then the draw.
func (s *sessionImpl) tick(dt float32) {
	s.tweens.Update(dt)
	s.controller.Update(dt)
	if err := s.renderer.Render(s.rig.scene, s.rig.camera); err != nil {
		log.Printf("[Stage] render %s: %v", s.descriptor.ID, err)
	}
}

func (s *sessionImpl) Descriptor() catalog.Descriptor {
	return s.descriptor
}

func (s *sessionImpl) Next() int {
	return s.emitClipIndex(s.controller.Next())
}

func (s *sessionImpl) Previous() int {
	return s.emitClipIndex(s.controller.Previous())
}

func (s *sessionImpl) SelectAnimation(i int) int {
	return s.emitClipIndex(s.controller.Select(i))
}

func (s *sessionImpl) SetAutoRotate(on bool) {
	s.autoRotate = on
	s.controller.SetAutoRotate(on)
}

func (s *sessionImpl) AutoRotate() bool {
	return s.autoRotate
}

func (s *sessionImpl) State() ControllerState {
	return s.controller.State()
}

func (s *sessionImpl) AnimationIndex() int {
	return s.controller.Index()
}

func (s *sessionImpl) Clips() []ClipInfo {
	if !s.hasModel || s.asset == nil {
		return nil
	}
	return clipInfos(s.asset.Clips)
}

func (s *sessionImpl) Model() *scene.Node {
	return s.model
}

func (s *sessionImpl) Asset() *loader.Asset {
	return s.asset
}

func (s *sessionImpl) Loading() bool {
	return s.loading
}

func (s *sessionImpl) Generation() uint64 {
	return s.generation
}

func (s *sessionImpl) Quality() config.Quality {
	return s.quality
}

func (s *sessionImpl) Scene() scene.Scene {
	return s.rig.scene
}

func (s *sessionImpl) Camera() camera.Camera {
	return s.rig.camera
}

func (s *sessionImpl) Renderer() renderer.Renderer {
	return s.renderer
}

func (s *sessionImpl) Tweens() tween.Engine {
	return s.tweens
}

func (s *sessionImpl) Controller() Controller {
	return s.controller
}

func (s *sessionImpl) Disposed() bool {
	return s.disposed
}

func (s *sessionImpl) Dispose() {
	if s.disposed {
		return
	}
	s.disposed = true

	s.loop.stop()
	s.resize.detach()
	if s.pending != nil {
		s.pending.Cancel()
		s.pending = nil
	}
	s.controller.Release()
	s.spin = nil
	s.tweens.KillAll()
	s.renderer.Dispose()
	log.Printf("[Stage] session for %q disposed after %d loads", s.descriptor.ID, s.generation)
}

func (s *sessionImpl) setLoading(on bool) {
	if s.loading == on {
		return
	}
	s.loading = on
	if s.onLoadState != nil {
		s.onLoadState(on)
	}
}

func (s *sessionImpl) emitClipList(clips []ClipInfo) {
	if s.onClipList != nil {
		if clips == nil {
			clips = []ClipInfo{}
		}
		s.onClipList(clips)
	}
}

func (s *sessionImpl) emitClipIndex(i int) int {
	if s.onClipIndex != nil {
		s.onClipIndex(i)
	}
	return i
}

func clipInfos(clips []*animator.Clip) []ClipInfo {
	out := make([]ClipInfo, 0, len(clips))
	for i, c := range clips {
		out = append(out, ClipInfo{
			Name:     c.Name,
			Label:    catalog.FormatAnimationName(c.Name),
			Duration: c.Duration,
			Index:    i,
		})
	}
	return out
}
