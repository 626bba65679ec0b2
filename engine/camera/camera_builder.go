package camera

import "math"

// CameraBuilderOption is a functional option for configuring a Camera.
// Use the With* functions to create options.
type CameraBuilderOption func(c *cameraImpl)

// WithFovDegrees sets the vertical field of view.
//
// Parameters:
//   - degrees: field of view in degrees
//
// Returns:
//   - CameraBuilderOption: option function to apply
func WithFovDegrees(degrees float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.fov = degrees * (math.Pi / 180.0)
	}
}

// WithAspect sets the initial aspect ratio.
//
// Parameters:
//   - aspect: width divided by height
//
// Returns:
//   - CameraBuilderOption: option function to apply
func WithAspect(aspect float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		if aspect > 0 {
			c.aspect = aspect
		}
	}
}

// WithClipPlanes sets the near and far clipping distances.
//
// Parameters:
//   - near: near plane distance (> 0)
//   - far: far plane distance (> near)
//
// Returns:
//   - CameraBuilderOption: option function to apply
func WithClipPlanes(near, far float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.near = near
		c.far = far
	}
}

// WithPosition sets the eye position.
//
// Parameters:
//   - x, y, z: eye position in world space
//
// Returns:
//   - CameraBuilderOption: option function to apply
func WithPosition(x, y, z float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.position = [3]float32{x, y, z}
	}
}

// WithTarget sets the look-at point.
//
// Parameters:
//   - x, y, z: target point in world space
//
// Returns:
//   - CameraBuilderOption: option function to apply
func WithTarget(x, y, z float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.target = [3]float32{x, y, z}
	}
}
