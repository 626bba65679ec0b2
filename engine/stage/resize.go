package stage

import (
	"github.com/Carmen-Shannon/oxy-stage/engine/camera"
	"github.com/Carmen-Shannon/oxy-stage/engine/renderer"
	"github.com/Carmen-Shannon/oxy-stage/engine/window"
)

// resizeSync keeps the camera aspect and the renderer backbuffer in step with the canvas.
type resizeSync struct {
	canvas   window.Canvas
	camera   camera.Camera
	renderer renderer.Renderer

	id       window.ListenerID
	attached bool
}

// attachResize registers the listener and applies the current size once.
func attachResize(canvas window.Canvas, cam camera.Camera, r renderer.Renderer) *resizeSync {
	rs := &resizeSync{canvas: canvas, camera: cam, renderer: r}
	rs.id = canvas.AddResizeListener(func(int, int) { rs.sync() })
	rs.attached = true
	rs.sync()
	return rs
}

// sync reads the canvas client size; zero sizes (hidden or minimized canvases) are skipped.
func (rs *resizeSync) sync() {
	w, h := rs.canvas.ClientSize()
	if w <= 0 || h <= 0 {
		return
	}
	rs.camera.SetAspect(float32(w) / float32(h))
	rs.renderer.SetSize(w, h)
}

func (rs *resizeSync) detach() {
	if !rs.attached {
		return
	}
	rs.canvas.RemoveResizeListener(rs.id)
	rs.attached = false
}
