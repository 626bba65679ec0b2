package camera

import (
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-stage/common"
)

// cameraImpl implements the Camera interface.
type cameraImpl struct {
	mu *sync.Mutex

	position [3]float32
	target   [3]float32
	up       [3]float32

	fov    float32
	aspect float32
	near   float32
	far    float32

	viewMatrix           [16]float32
	projectionMatrix     [16]float32
	viewProjectionMatrix [16]float32
}

// Camera is a fixed perspective camera looking from Position at Target.
// The stage never moves its camera; only the aspect ratio follows the canvas.
type Camera interface {
	// Position returns the eye position in world space.
	Position() [3]float32

	// Target returns the point the camera looks at.
	Target() [3]float32

	// Fov returns the vertical field of view in radians.
	Fov() float32

	// Aspect returns the viewport aspect ratio (width/height).
	Aspect() float32

	// Near returns the near clipping plane distance.
	Near() float32

	// Far returns the far clipping plane distance.
	Far() float32

	// ViewMatrix returns the world-to-view matrix.
	ViewMatrix() [16]float32

	// ProjectionMatrix returns the view-to-clip matrix.
	ProjectionMatrix() [16]float32

	// ViewProjectionMatrix returns ProjectionMatrix * ViewMatrix.
	ViewProjectionMatrix() [16]float32

	// SetAspect sets the aspect ratio and recomputes the projection.
	// Non-positive or non-finite values are ignored.
	//
	// Parameters:
	//   - aspect: width divided by height
	SetAspect(aspect float32)

	// LookAt moves the eye and target and recomputes the view.
	//
	// Parameters:
	//   - position: eye position
	//   - target: look-at point
	LookAt(position, target [3]float32)

	// UpdateProjection recomputes the projection and view-projection matrices.
	UpdateProjection()
}

var _ Camera = &cameraImpl{}

// NewCamera creates a perspective camera. Defaults: 45° fov, aspect 1, near 0.1, far 100,
// eye at (0,0,5) looking at the origin.
//
// Parameters:
//   - options: functional options applied in order
//
// Returns:
//   - Camera: the configured camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:       &sync.Mutex{},
		position: [3]float32{0, 0, 5},
		up:       [3]float32{0, 1, 0},
		fov:      45.0 * (math.Pi / 180.0),
		aspect:   1.0,
		near:     0.1,
		far:      100.0,
	}
	for _, option := range options {
		option(c)
	}
	c.updateView()
	c.updateProjection()
	return c
}

func (c *cameraImpl) Position() [3]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position
}

func (c *cameraImpl) Target() [3]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) ViewMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewMatrix
}

func (c *cameraImpl) ProjectionMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectionMatrix
}

func (c *cameraImpl) ViewProjectionMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewProjectionMatrix
}

func (c *cameraImpl) SetAspect(aspect float32) {
	if aspect <= 0 || math.IsInf(float64(aspect), 0) || math.IsNaN(float64(aspect)) {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aspect = aspect
	c.updateProjection()
}

func (c *cameraImpl) LookAt(position, target [3]float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.position = position
	c.target = target
	c.updateView()
	c.updateProjection()
}

func (c *cameraImpl) UpdateProjection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updateProjection()
}

// updateView recomputes the view matrix. Caller must hold mu.
func (c *cameraImpl) updateView() {
	common.LookAt(c.viewMatrix[:],
		c.position[0], c.position[1], c.position[2],
		c.target[0], c.target[1], c.target[2],
		c.up[0], c.up[1], c.up[2],
	)
}

// updateProjection recomputes projection and view-projection. Caller must hold mu.
func (c *cameraImpl) updateProjection() {
	common.Perspective(c.projectionMatrix[:], c.fov, c.aspect, c.near, c.far)
	common.Mul4(c.viewProjectionMatrix[:], c.projectionMatrix[:], c.viewMatrix[:])
}
