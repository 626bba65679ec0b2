package light

// ShadowMapResolutionHigh is the shadow map size used by the key light in high quality.
const ShadowMapResolutionHigh = 2048

// ShadowMapResolutionLow is the shadow map size a renderer falls back to when a
// caster asks for shadows without a size.
const ShadowMapResolutionLow = 1024

// DefaultShadowHalfExtent is the orthographic half-extent (in world units) of the
// directional shadow frustum. The stage is a 3 unit radius disc.
const DefaultShadowHalfExtent float32 = 3.5

// DefaultShadowNear is the near plane for the directional light's orthographic shadow projection.
const DefaultShadowNear float32 = 0.1

// DefaultShadowFar is the far plane for the directional light's orthographic shadow projection.
const DefaultShadowFar float32 = 20.0

// DefaultShadowBias is the constant depth bias applied to shadow comparisons
// to reduce shadow acne artifacts.
const DefaultShadowBias float32 = 0.002
