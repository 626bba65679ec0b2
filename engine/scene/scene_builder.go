package scene

import (
	"github.com/Carmen-Shannon/oxy-stage/common"
	"github.com/Carmen-Shannon/oxy-stage/engine/light"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithBackground sets the clear color from a packed 0xRRGGBB value.
//
// Parameters:
//   - hex: the packed color
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithBackground(hex uint32) SceneBuilderOption {
	return func(s *scene) {
		s.background = common.HexColor(hex)
	}
}

// WithFog enables linear fog.
//
// Parameters:
//   - hex: the packed fog color
//   - near: distance where fog starts
//   - far: distance where fog is opaque
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithFog(hex uint32, near, far float32) SceneBuilderOption {
	return func(s *scene) {
		s.fog = &Fog{Color: common.HexColor(hex), Near: near, Far: far}
	}
}

// WithLights appends lights to the rig.
//
// Parameters:
//   - lights: the lights to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithLights(lights ...light.Light) SceneBuilderOption {
	return func(s *scene) {
		for _, l := range lights {
			s.AddLight(l)
		}
	}
}
