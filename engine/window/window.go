package window

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// Canvas is a drawable region a stage session renders into. It reports its client size,
// notifies resize listeners and provides the surface the renderer presents to.
type Canvas interface {
	// ClientSize returns the current drawable size in pixels.
	//
	// Returns:
	//   - int: width in pixels
	//   - int: height in pixels
	ClientSize() (width, height int)

	// AddResizeListener registers fn to be called on the host loop after every size change.
	//
	// Parameters:
	//   - fn: function receiving the new width and height in pixels
	//
	// Returns:
	//   - ListenerID: handle for RemoveResizeListener
	AddResizeListener(fn func(width, height int)) ListenerID

	// RemoveResizeListener unregisters a listener. Removing an unknown id is a no-op.
	//
	// Parameters:
	//   - id: the handle returned by AddResizeListener
	//
	// Returns:
	//   - bool: true if a listener was removed
	RemoveResizeListener(id ListenerID) bool

	// ResizeListenerCount returns the number of registered listeners.
	ResizeListenerCount() int

	// SurfaceDescriptor returns a wgpu.SurfaceDescriptor suitable for creating a WebGPU surface.
	// The descriptor is platform-appropriate (Windows HWND, X11 Xlib, Wayland, macOS Metal, etc.)
	// and is created by the wgpuglfw bridge from the underlying GLFW window.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the platform-specific surface descriptor, or nil if not available
	SurfaceDescriptor() *wgpu.SurfaceDescriptor
}

// Window provides platform windowing and input event handling.
// A window is also the canvas stage sessions draw into.
type Window interface {
	Canvas

	// SetTitle updates the title bar text.
	//
	// Parameters:
	//   - title: the new title
	SetTitle(title string)

	// SetScrollCallback sets the callback for mouse scroll wheel events.
	//
	// Parameters:
	//   - callback: function receiving scroll delta (positive = up, negative = down)
	SetScrollCallback(callback func(delta float32))

	// SetKeyDownCallback sets the callback for key press and repeat events.
	//
	// Parameters:
	//   - callback: function receiving the virtual key code
	SetKeyDownCallback(callback func(keyCode uint32))

	// PollEvents dispatches pending platform events without blocking.
	// Must be called from the thread that created the window.
	//
	// Returns:
	//   - bool: false once the window has been asked to close
	PollEvents() bool

	// IsRunning returns true if the window is still active.
	//
	// Returns:
	//   - bool: true if window is running, false if closed
	IsRunning() bool

	// Close closes the window and releases platform resources.
	//
	// Returns:
	//   - error: error if close operation fails
	Close() error
}

// engineWindow is the implementation of the Window interface.
// Holds window configuration, GLFW state, and event callbacks.
type engineWindow struct {
	ResizeListeners

	// title is the window title displayed in the title bar.
	title string

	// minWidth and minHeight bound the window size during resize.
	minWidth, minHeight int

	// width and height are the current framebuffer size in pixels.
	width, height int

	// internalWindow holds the platform-specific window data (glfwWindow).
	internalWindow any

	// onScroll is called for mouse wheel events.
	onScroll func(delta float32)

	// onKeyDown is called when a key is pressed or repeats.
	onKeyDown func(keyCode uint32)
}

var _ Window = &engineWindow{}

// NewWindow creates and shows a platform window configured by the options.
// Must be called from the main goroutine; the OS thread is locked for GLFW.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the created window
//   - error: error if the platform window could not be created
func NewWindow(options ...WindowBuilderOption) (Window, error) {
	w := &engineWindow{
		title:     "oxy-stage",
		minWidth:  320,
		minHeight: 240,
		width:     1280,
		height:    720,
	}
	for _, opt := range options {
		opt(w)
	}
	if err := newPlatformWindow(w); err != nil {
		return nil, fmt.Errorf("failed to create platform window: %w", err)
	}
	return w, nil
}

func (w *engineWindow) ClientSize() (int, int) {
	return w.width, w.height
}

func (w *engineWindow) SetTitle(title string) {
	w.title = title
	platformSetTitle(w, title)
}

func (w *engineWindow) SetScrollCallback(callback func(delta float32)) {
	w.onScroll = callback
}

func (w *engineWindow) SetKeyDownCallback(callback func(keyCode uint32)) {
	w.onKeyDown = callback
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return platformGetSurfaceDescriptor(w)
}

func (w *engineWindow) PollEvents() bool {
	return platformProcessMessages(w)
}

func (w *engineWindow) IsRunning() bool {
	return platformIsRunningCheck(w)
}

func (w *engineWindow) Close() error {
	return platformCloseWindow(w)
}

// handleResize stores the new framebuffer size and notifies listeners.
func (w *engineWindow) handleResize(width, height int) {
	w.width = width
	w.height = height
	w.Notify(width, height)
}
