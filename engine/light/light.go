package light

import "github.com/Carmen-Shannon/oxy-stage/common"

// LightType identifies the kind of light source.
type LightType int

const (
	// LightTypeAmbient lights every fragment uniformly regardless of orientation.
	LightTypeAmbient LightType = iota

	// LightTypeDirectional represents a distant source shining from Position toward the origin.
	// Only directional lights can cast shadows.
	LightTypeDirectional
)

// lightImpl is the implementation of the Light interface.
type lightImpl struct {
	lightType     LightType
	position      [3]float32
	color         common.Color
	intensity     float32
	castsShadows  bool
	shadowMapSize int
}

// Light defines the interface for a light source in a stage rig.
// Lights are configured once at construction and read by the renderer every frame.
type Light interface {
	// Type returns the kind of light source.
	//
	// Returns:
	//   - LightType: the light type
	Type() LightType

	// Position returns the world-space position of a directional light.
	// The light shines from this point toward the world origin. Meaningless for ambient lights.
	//
	// Returns:
	//   - [3]float32: position as (x, y, z)
	Position() [3]float32

	// Direction returns the normalized vector pointing from the origin toward the light.
	//
	// Returns:
	//   - [3]float32: normalized direction as (x, y, z)
	Direction() [3]float32

	// Color returns the RGB color of the light.
	Color() common.Color

	// Intensity returns the scalar intensity multiplier for the light.
	Intensity() float32

	// CastsShadows reports whether the renderer should render a shadow map for this light.
	CastsShadows() bool

	// ShadowMapSize returns the shadow map resolution in texels (0 when shadows are off).
	ShadowMapSize() int
}

var _ Light = &lightImpl{}

// NewLight creates a new Light of the given type configured by the options.
// Defaults to white at intensity 1 with no shadows.
//
// Parameters:
//   - lightType: the kind of light
//   - options: functional options applied in order
//
// Returns:
//   - Light: the configured light
func NewLight(lightType LightType, options ...LightBuilderOption) Light {
	l := &lightImpl{
		lightType: lightType,
		color:     common.Color{R: 1, G: 1, B: 1},
		intensity: 1,
	}
	for _, opt := range options {
		opt(l)
	}
	if l.lightType != LightTypeDirectional {
		l.castsShadows = false
	}
	if !l.castsShadows {
		l.shadowMapSize = 0
	}
	return l
}

func (l *lightImpl) Type() LightType {
	return l.lightType
}

func (l *lightImpl) Position() [3]float32 {
	return l.position
}

func (l *lightImpl) Direction() [3]float32 {
	return normalize3(l.position[0], l.position[1], l.position[2])
}

func (l *lightImpl) Color() common.Color {
	return l.color
}

func (l *lightImpl) Intensity() float32 {
	return l.intensity
}

func (l *lightImpl) CastsShadows() bool {
	return l.castsShadows
}

func (l *lightImpl) ShadowMapSize() int {
	return l.shadowMapSize
}
