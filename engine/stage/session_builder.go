package stage

import (
	"context"

	"github.com/Carmen-Shannon/oxy-stage/engine/config"
	"github.com/Carmen-Shannon/oxy-stage/engine/loader"
	"github.com/Carmen-Shannon/oxy-stage/engine/renderer"
)

// SessionBuilderOption is a functional option for configuring a Session.
type SessionBuilderOption func(*sessionImpl)

// WithQuality sets the rendering tier. It is fixed for the session's lifetime.
//
// Parameters:
//   - q: the quality tier
//
// Returns:
//   - SessionBuilderOption: option function to apply
func WithQuality(q config.Quality) SessionBuilderOption {
	return func(s *sessionImpl) {
		s.quality = q
	}
}

// WithAutoRotate sets whether clip-less models idle in a spin. Defaults to true.
//
// Parameters:
//   - on: initial auto-rotate setting
//
// Returns:
//   - SessionBuilderOption: option function to apply
func WithAutoRotate(on bool) SessionBuilderOption {
	return func(s *sessionImpl) {
		s.autoRotate = on
	}
}

// WithOnLoadStateChanged registers a callback fired when the loading flag flips.
//
// Parameters:
//   - fn: receives the new loading flag
//
// Returns:
//   - SessionBuilderOption: option function to apply
func WithOnLoadStateChanged(fn func(loading bool)) SessionBuilderOption {
	return func(s *sessionImpl) {
		s.onLoadState = fn
	}
}

// WithOnAnimationListChanged registers a callback fired when the clip list is cleared or replaced.
//
// Parameters:
//   - fn: receives the new clip list
//
// Returns:
//   - SessionBuilderOption: option function to apply
func WithOnAnimationListChanged(fn func(clips []ClipInfo)) SessionBuilderOption {
	return func(s *sessionImpl) {
		s.onClipList = fn
	}
}

// WithOnAnimationIndexChanged registers a callback fired whenever the clip index is set.
//
// Parameters:
//   - fn: receives the clip index
//
// Returns:
//   - SessionBuilderOption: option function to apply
func WithOnAnimationIndexChanged(fn func(index int)) SessionBuilderOption {
	return func(s *sessionImpl) {
		s.onClipIndex = fn
	}
}

// WithOnModelApplied registers a callback fired after a load result has been put on stage.
//
// Parameters:
//   - fn: receives the applied asset
//
// Returns:
//   - SessionBuilderOption: option function to apply
func WithOnModelApplied(fn func(asset *loader.Asset)) SessionBuilderOption {
	return func(s *sessionImpl) {
		s.onApplied = fn
	}
}

// WithRendererOptions passes options through to the renderer factory.
//
// Parameters:
//   - options: renderer builder options
//
// Returns:
//   - SessionBuilderOption: option function to apply
func WithRendererOptions(options ...renderer.RendererBuilderOption) SessionBuilderOption {
	return func(s *sessionImpl) {
		s.rendererOptions = append(s.rendererOptions, options...)
	}
}

// WithContext sets the parent context of every load the session requests.
//
// Parameters:
//   - ctx: the parent context
//
// Returns:
//   - SessionBuilderOption: option function to apply
func WithContext(ctx context.Context) SessionBuilderOption {
	return func(s *sessionImpl) {
		if ctx != nil {
			s.ctx = ctx
		}
	}
}
