package stage

import (
	"log"
	"math"

	"github.com/Carmen-Shannon/oxy-stage/common"
	"github.com/Carmen-Shannon/oxy-stage/engine/animator"
	"github.com/Carmen-Shannon/oxy-stage/engine/scene"
	"github.com/Carmen-Shannon/oxy-stage/engine/tween"
)

// ControllerState is the animation mode of a session's model.
type ControllerState int

const (
	// StateInactive means nothing animates the model.
	StateInactive ControllerState = iota
	// StateIdleRotation spins a clip-less model about its vertical axis.
	StateIdleRotation
	// StateClipPlayback plays one of the model's clips through a mixer.
	StateClipPlayback
)

// String returns a short name for the state.
func (s ControllerState) String() string {
	switch s {
	case StateIdleRotation:
		return "idle-rotation"
	case StateClipPlayback:
		return "clip-playback"
	default:
		return "inactive"
	}
}

const (
	// CrossfadeDuration is the fade-out and fade-in time when switching clips, in seconds.
	CrossfadeDuration float32 = 0.3

	// IdleRotationPeriod is the time for one full idle turn, in seconds.
	IdleRotationPeriod float32 = 12
)

// controllerImpl implements the Controller interface.
type controllerImpl struct {
	tweens     tween.Engine
	autoRotate bool

	root    *scene.Node
	clips   []*animator.Clip
	mixer   animator.Mixer
	current animator.Action
	index   int

	rotation tween.Tween
	state    ControllerState
}

// Controller is the animation state machine of one session. A model with clips plays
// them through a fresh mixer; a model without clips idles in a slow spin while
// auto-rotate is on. All methods run on the host loop.
type Controller interface {
	// Bind attaches a newly loaded model, discarding any previous one. With at least one
	// clip the first clip starts immediately; otherwise the model idles if auto-rotate is on.
	//
	// Parameters:
	//   - root: the model root
	//   - clips: the model's clips, may be empty
	Bind(root *scene.Node, clips []*animator.Clip)

	// Release stops the mixer, kills the rotation tween and forgets the model.
	Release()

	// SetAutoRotate turns idle rotation on or off. Turning it off while idling kills the
	// tween; turning it on with a clip-less model starts one.
	//
	// Parameters:
	//   - on: the new setting
	SetAutoRotate(on bool)

	// AutoRotate returns the current setting.
	AutoRotate() bool

	// Next crossfades to the following clip, wrapping around.
	//
	// Returns:
	//   - int: the new clip index, 0 when there are no clips
	Next() int

	// Previous crossfades to the preceding clip, wrapping around.
	//
	// Returns:
	//   - int: the new clip index, 0 when there are no clips
	Previous() int

	// Select crossfades to clip i (wrapped), or replays it when it is already current.
	//
	// Parameters:
	//   - i: the clip index
	//
	// Returns:
	//   - int: the new clip index, 0 when there are no clips
	Select(i int) int

	// Update advances the mixer by dt seconds. Tweens are advanced by their engine.
	//
	// Parameters:
	//   - dt: elapsed time in seconds
	Update(dt float32)

	// State returns the current mode.
	State() ControllerState

	// Index returns the current clip index.
	Index() int

	// Clips returns the bound clips.
	Clips() []*animator.Clip

	// Mixer returns the current mixer, nil outside clip playback.
	Mixer() animator.Mixer

	// Current returns the action of the current clip, nil outside clip playback.
	Current() animator.Action

	// RotationTween returns the live idle rotation tween, nil outside idle rotation.
	RotationTween() tween.Tween
}

var _ Controller = &controllerImpl{}

// NewController creates an inactive controller whose idle tweens run on tweens.
//
// Parameters:
//   - tweens: the session's tween engine
//   - autoRotate: initial auto-rotate setting
//
// Returns:
//   - Controller: the new controller
func NewController(tweens tween.Engine, autoRotate bool) Controller {
	if tweens == nil {
		panic("stage: NewController requires a tween engine")
	}
	return &controllerImpl{tweens: tweens, autoRotate: autoRotate}
}

func (c *controllerImpl) Bind(root *scene.Node, clips []*animator.Clip) {
	c.Release()
	if root == nil {
		return
	}
	c.root = root
	c.clips = clips
	if len(clips) > 0 {
		c.enterClipPlayback()
		return
	}
	if c.autoRotate {
		c.enterIdleRotation()
	}
}

func (c *controllerImpl) Release() {
	c.killRotation()
	if c.mixer != nil {
		c.mixer.StopAll()
	}
	c.root = nil
	c.clips = nil
	c.mixer = nil
	c.current = nil
	c.index = 0
	c.state = StateInactive
}

func (c *controllerImpl) SetAutoRotate(on bool) {
	c.autoRotate = on
	switch {
	case !on && c.state == StateIdleRotation:
		c.killRotation()
		c.state = StateInactive
	case on && c.state == StateInactive && c.root != nil && len(c.clips) == 0:
		c.enterIdleRotation()
	}
}

func (c *controllerImpl) AutoRotate() bool {
	return c.autoRotate
}

func (c *controllerImpl) Next() int {
	return c.Select(c.index + 1)
}

func (c *controllerImpl) Previous() int {
	return c.Select(c.index - 1)
}

func (c *controllerImpl) Select(i int) int {
	if c.state != StateClipPlayback || len(c.clips) == 0 {
		return c.index
	}
	i = common.Wrap(i, len(c.clips))
	next := c.mixer.ClipAction(c.clips[i])
	if next == c.current {
		c.current.Reset().Play()
		c.index = i
		return i
	}
	c.current.FadeOut(CrossfadeDuration)
	next.Reset().FadeIn(CrossfadeDuration).Play()
	c.current = next
	c.index = i
	return i
}

func (c *controllerImpl) Update(dt float32) {
	if c.mixer != nil {
		c.mixer.Update(dt)
	}
}

func (c *controllerImpl) State() ControllerState {
	return c.state
}

func (c *controllerImpl) Index() int {
	return c.index
}

func (c *controllerImpl) Clips() []*animator.Clip {
	return c.clips
}

func (c *controllerImpl) Mixer() animator.Mixer {
	return c.mixer
}

func (c *controllerImpl) Current() animator.Action {
	return c.current
}

func (c *controllerImpl) RotationTween() tween.Tween {
	return c.rotation
}

// enterClipPlayback kills any tween and starts clip 0 on a fresh mixer.
func (c *controllerImpl) enterClipPlayback() {
	c.killRotation()
	c.mixer = animator.NewMixer(c.root)
	c.index = 0
	c.current = c.mixer.ClipAction(c.clips[0]).Reset().Play()
	c.state = StateClipPlayback
	log.Printf("[Stage] playing clip %q (%d clips)", c.clips[0].Name, len(c.clips))
}

// enterIdleRotation spins the model one full turn every IdleRotationPeriod, forever.
func (c *controllerImpl) enterIdleRotation() {
	c.killRotation()
	root := c.root
	start := root.Yaw
	c.rotation = c.tweens.Add(tween.NewTween(
		tween.WithRange(start, start+2*math.Pi),
		tween.WithDuration(IdleRotationPeriod),
		tween.WithRepeat(tween.RepeatForever),
		tween.WithEase(tween.Linear),
		tween.WithSetter(func(v float32) { root.Yaw = v }),
	))
	c.state = StateIdleRotation
}

func (c *controllerImpl) killRotation() {
	if c.rotation != nil {
		c.rotation.Kill()
		c.rotation = nil
	}
}
