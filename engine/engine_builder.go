package engine

import (
	"time"

	"github.com/Carmen-Shannon/oxy-stage/engine/profiler"
	"github.com/Carmen-Shannon/oxy-stage/engine/window"
)

// EngineBuilderOption is a functional option for configuring a Host.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithFrameRate sets how often frame callbacks run.
// Values <= 0 run a frame on every Step.
//
// Parameters:
//   - fps: target frames per second
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithFrameRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			e.frameInterval = 0
			return
		}
		e.frameInterval = time.Duration(float64(time.Second) / fps)
	}
}

// WithWindow attaches a window whose events Run polls each iteration.
//
// Parameters:
//   - w: a pre-configured Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithClock replaces the wall clock. Tests use it to drive frames and timers deterministically.
//
// Parameters:
//   - now: function returning the current time
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithClock(now func() time.Time) EngineBuilderOption {
	return func(e *engine) {
		if now != nil {
			e.clock = now
		}
	}
}

// WithProfiler sets a custom profiler, for example one with a longer reporting interval.
//
// Parameters:
//   - p: the profiler
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiler(p *profiler.Profiler) EngineBuilderOption {
	return func(e *engine) {
		e.profiler = p
	}
}
