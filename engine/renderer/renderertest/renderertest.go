// Package renderertest provides a recording renderer backend and an in-memory canvas so
// sessions can be driven without a GPU or a window.
package renderertest

import (
	"errors"

	"github.com/Carmen-Shannon/oxy-stage/engine/renderer"
	"github.com/Carmen-Shannon/oxy-stage/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
)

// ErrDrawFailed is returned by Draw while Backend.FailDraws is set.
var ErrDrawFailed = errors.New("draw failed")

// Backend records what a renderer asks of it.
type Backend struct {
	// Configured holds every size passed to Configure, in order.
	Configured [][2]int

	// Frames counts successful Draw calls; Last is the most recent frame drawn.
	Frames int
	Last   *renderer.Frame

	// FailDraws makes Draw return ErrDrawFailed.
	FailDraws bool

	Released bool
}

var _ renderer.RendererBackend = &Backend{}

func (b *Backend) Configure(width, height int) error {
	b.Configured = append(b.Configured, [2]int{width, height})
	return nil
}

func (b *Backend) Draw(frame *renderer.Frame) error {
	if b.FailDraws {
		return ErrDrawFailed
	}
	b.Frames++
	b.Last = frame
	return nil
}

func (b *Backend) Release() {
	b.Released = true
}

// Factory returns a renderer factory whose renderers all draw through backend.
// Created renderers are appended to *created when it is non-nil.
//
// Parameters:
//   - backend: the recording backend
//   - created: optional destination for every renderer built
//
// Returns:
//   - renderer.Factory: the factory
func Factory(backend *Backend, created *[]renderer.Renderer) renderer.Factory {
	return func(canvas window.Canvas, options ...renderer.RendererBuilderOption) (renderer.Renderer, error) {
		opts := append([]renderer.RendererBuilderOption{}, options...)
		opts = append(opts, renderer.WithBackend(backend))
		r, err := renderer.NewRenderer(canvas, opts...)
		if err == nil && created != nil {
			*created = append(*created, r)
		}
		return r, err
	}
}

// Canvas is an in-memory window.Canvas.
type Canvas struct {
	window.ResizeListeners
	Width, Height int
}

var _ window.Canvas = &Canvas{}

// NewCanvas creates a canvas of the given size.
func NewCanvas(width, height int) *Canvas {
	return &Canvas{Width: width, Height: height}
}

func (c *Canvas) ClientSize() (int, int) {
	return c.Width, c.Height
}

func (c *Canvas) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return nil
}

// Resize changes the size and notifies listeners, as a window does after a resize event.
func (c *Canvas) Resize(width, height int) {
	c.Width, c.Height = width, height
	c.Notify(width, height)
}
