package light

import (
	"math"

	"github.com/Carmen-Shannon/oxy-stage/common"
)

// LightBuilderOption is a function that configures a Light instance during construction.
type LightBuilderOption func(*lightImpl)

// WithPosition is an option builder that sets the world-space position of a directional light.
//
// Parameters:
//   - x: the x position component
//   - y: the y position component
//   - z: the z position component
//
// Returns:
//   - LightBuilderOption: a function that applies the position option to a lightImpl
func WithPosition(x, y, z float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.position = [3]float32{x, y, z}
	}
}

// WithColor is an option builder that sets the light color from a packed 0xRRGGBB value.
//
// Parameters:
//   - hex: the packed color
//
// Returns:
//   - LightBuilderOption: a function that applies the color option to a lightImpl
func WithColor(hex uint32) LightBuilderOption {
	return func(l *lightImpl) {
		l.color = common.HexColor(hex)
	}
}

// WithIntensity is an option builder that sets the scalar intensity multiplier.
//
// Parameters:
//   - intensity: the intensity value
//
// Returns:
//   - LightBuilderOption: a function that applies the intensity option to a lightImpl
func WithIntensity(intensity float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.intensity = intensity
	}
}

// WithShadows is an option builder that enables shadow casting with the given map size.
// A size <= 0 disables shadows. Ignored for non-directional lights.
//
// Parameters:
//   - mapSize: the shadow map resolution in texels
//
// Returns:
//   - LightBuilderOption: a function that applies the shadow option to a lightImpl
func WithShadows(mapSize int) LightBuilderOption {
	return func(l *lightImpl) {
		l.castsShadows = mapSize > 0
		l.shadowMapSize = mapSize
	}
}

func normalize3(x, y, z float32) [3]float32 {
	length := float32(math.Sqrt(float64(x*x + y*y + z*z)))
	if length == 0 {
		return [3]float32{0, 1, 0}
	}
	return [3]float32{x / length, y / length, z / length}
}
