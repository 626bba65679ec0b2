package tween

import "github.com/tanema/gween"

// RepeatForever makes a tween restart indefinitely.
const RepeatForever = -1

// tweenImpl implements the Tween interface.
type tweenImpl struct {
	from, to   float32
	duration   float32
	repeat     int
	ease       Ease
	setter     func(v float32)
	onComplete func()

	curve     *gween.Tween
	elapsed   float32
	iteration int
	killed    bool
	complete  bool
}

// Tween animates one float value from a start to an end value over a duration.
// Tweens are advanced by the Engine that owns them.
type Tween interface {
	// From returns the start value.
	From() float32

	// To returns the end value.
	To() float32

	// Duration returns the length of one iteration in seconds.
	Duration() float32

	// Repeat returns the repeat count, RepeatForever for infinite.
	Repeat() int

	// Progress returns un-eased progress through the current iteration in [0, 1].
	Progress() float32

	// Iteration returns the number of completed iterations.
	Iteration() int

	// Active reports whether the tween is still running.
	Active() bool

	// Kill stops the tween immediately without applying the end value or firing completion.
	Kill()

	// advance moves the tween forward by dt seconds and applies the value.
	advance(dt float32)
}

var _ Tween = &tweenImpl{}

// NewTween creates a tween. The tween does nothing until added to an Engine.
// Defaults: 0 → 1 over 1 second, no repeat, linear easing.
//
// Parameters:
//   - options: functional options applied in order
//
// Returns:
//   - Tween: the configured tween
func NewTween(options ...TweenBuilderOption) Tween {
	t := &tweenImpl{
		to:       1,
		duration: 1,
		ease:     Linear,
	}
	for _, opt := range options {
		opt(t)
	}
	t.curve = gween.New(t.from, t.to, t.duration, t.ease)
	return t
}

func (t *tweenImpl) From() float32 {
	return t.from
}

func (t *tweenImpl) To() float32 {
	return t.to
}

func (t *tweenImpl) Duration() float32 {
	return t.duration
}

func (t *tweenImpl) Repeat() int {
	return t.repeat
}

func (t *tweenImpl) Progress() float32 {
	if t.duration <= 0 {
		return 1
	}
	return t.elapsed / t.duration
}

func (t *tweenImpl) Iteration() int {
	return t.iteration
}

func (t *tweenImpl) Active() bool {
	return !t.killed && !t.complete
}

func (t *tweenImpl) Kill() {
	t.killed = true
}

func (t *tweenImpl) advance(dt float32) {
	if !t.Active() {
		return
	}
	if t.duration <= 0 {
		t.finish()
		return
	}
	t.elapsed += dt
	for t.elapsed >= t.duration {
		if t.repeat != RepeatForever && t.iteration >= t.repeat {
			t.finish()
			return
		}
		t.elapsed -= t.duration
		t.iteration++
	}
	t.apply(t.elapsed)
}

// apply samples the curve at local time within the current iteration.
func (t *tweenImpl) apply(local float32) {
	if t.setter == nil {
		return
	}
	if t.duration <= 0 {
		t.setter(t.to)
		return
	}
	value, _ := t.curve.Set(local)
	t.setter(value)
}

func (t *tweenImpl) finish() {
	t.elapsed = t.duration
	t.apply(t.duration)
	t.complete = true
	if t.onComplete != nil {
		t.onComplete()
	}
}
