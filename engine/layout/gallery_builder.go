package layout

import (
	"github.com/Carmen-Shannon/oxy-stage/engine/config"
	"github.com/Carmen-Shannon/oxy-stage/engine/stage"
	"github.com/charmbracelet/harmonica"
)

// GalleryBuilderOption is a functional option for configuring a Gallery.
type GalleryBuilderOption func(*gallery)

// WithScrollSpring replaces the scroll spring.
//
// Parameters:
//   - fps: spring ticks per second
//   - frequency: angular frequency, higher settles faster
//   - damping: damping ratio, 1 is critical
//
// Returns:
//   - GalleryBuilderOption: option function to apply
func WithScrollSpring(fps int, frequency, damping float64) GalleryBuilderOption {
	return func(g *gallery) {
		g.spring = harmonica.NewSpring(harmonica.FPS(fps), frequency, damping)
	}
}

// WithScrollStep sets how many slots one wheel notch moves the target.
//
// Parameters:
//   - slots: slots per wheel delta
//
// Returns:
//   - GalleryBuilderOption: option function to apply
func WithScrollStep(slots float32) GalleryBuilderOption {
	return func(g *gallery) {
		if slots > 0 {
			g.step = slots
		}
	}
}

// WithGalleryQuality sets the tier of every slot session.
//
// Parameters:
//   - q: the quality tier
//
// Returns:
//   - GalleryBuilderOption: option function to apply
func WithGalleryQuality(q config.Quality) GalleryBuilderOption {
	return func(g *gallery) {
		g.quality = q
	}
}

// WithGalleryAutoRotate sets auto-rotate for every slot session.
//
// Parameters:
//   - on: whether clip-less models idle in a spin
//
// Returns:
//   - GalleryBuilderOption: option function to apply
func WithGalleryAutoRotate(on bool) GalleryBuilderOption {
	return func(g *gallery) {
		g.autoRotate = on
	}
}

// WithGallerySessionOptions passes extra options to every slot session.
//
// Parameters:
//   - options: session builder options
//
// Returns:
//   - GalleryBuilderOption: option function to apply
func WithGallerySessionOptions(options ...stage.SessionBuilderOption) GalleryBuilderOption {
	return func(g *gallery) {
		g.sessionOptions = append(g.sessionOptions, options...)
	}
}
