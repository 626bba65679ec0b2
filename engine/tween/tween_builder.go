package tween

// TweenBuilderOption is a functional option for configuring a Tween.
// Use the With* functions to create options.
type TweenBuilderOption func(t *tweenImpl)

// WithRange sets the start and end values.
//
// Parameters:
//   - from: the start value
//   - to: the end value
//
// Returns:
//   - TweenBuilderOption: option function to apply
func WithRange(from, to float32) TweenBuilderOption {
	return func(t *tweenImpl) {
		t.from = from
		t.to = to
	}
}

// WithDuration sets the length of one iteration in seconds.
//
// Parameters:
//   - seconds: the iteration length
//
// Returns:
//   - TweenBuilderOption: option function to apply
func WithDuration(seconds float32) TweenBuilderOption {
	return func(t *tweenImpl) {
		t.duration = seconds
	}
}

// WithRepeat sets how many extra iterations run after the first; RepeatForever loops.
//
// Parameters:
//   - n: the repeat count
//
// Returns:
//   - TweenBuilderOption: option function to apply
func WithRepeat(n int) TweenBuilderOption {
	return func(t *tweenImpl) {
		t.repeat = n
	}
}

// WithEase sets the easing curve.
//
// Parameters:
//   - ease: the easing function
//
// Returns:
//   - TweenBuilderOption: option function to apply
func WithEase(ease Ease) TweenBuilderOption {
	return func(t *tweenImpl) {
		if ease != nil {
			t.ease = ease
		}
	}
}

// WithSetter sets the function receiving each interpolated value.
//
// Parameters:
//   - fn: the value sink
//
// Returns:
//   - TweenBuilderOption: option function to apply
func WithSetter(fn func(v float32)) TweenBuilderOption {
	return func(t *tweenImpl) {
		t.setter = fn
	}
}

// WithOnComplete sets a callback fired once when a finite tween finishes.
// Killed tweens never fire it.
//
// Parameters:
//   - fn: the completion callback
//
// Returns:
//   - TweenBuilderOption: option function to apply
func WithOnComplete(fn func()) TweenBuilderOption {
	return func(t *tweenImpl) {
		t.onComplete = fn
	}
}
