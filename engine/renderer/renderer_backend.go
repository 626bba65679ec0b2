package renderer

// RendererBackendType identifies the GPU backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based rendering backend.
	BackendTypeWGPU RendererBackendType = iota
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// MSAASampleCount controls the number of samples used for multisample anti-aliasing (MSAA).
// WebGPU guarantees support for 1 (off) and 4.
type MSAASampleCount uint32

const (
	// MSAAOff disables multisample anti-aliasing (sample count 1).
	MSAAOff MSAASampleCount = 1

	// MSAA4x enables 4× multisample anti-aliasing. This is the default.
	MSAA4x MSAASampleCount = 4
)

// RendererBackend turns a prepared Frame into pixels. The Renderer owns scene traversal,
// uniform packing and draw ordering; a backend only owns GPU resources.
type RendererBackend interface {
	// Configure (re)creates the size-dependent render targets.
	//
	// Parameters:
	//   - width: backbuffer width in pixels
	//   - height: backbuffer height in pixels
	//
	// Returns:
	//   - error: an error if the surface could not be configured
	Configure(width, height int) error

	// Draw renders and presents one frame.
	//
	// Parameters:
	//   - frame: the prepared frame; the backend must not retain it after returning
	//
	// Returns:
	//   - error: an error if the frame could not be acquired, encoded or submitted
	Draw(frame *Frame) error

	// Release frees every GPU resource. The backend is unusable afterwards.
	Release()
}
