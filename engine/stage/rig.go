package stage

import (
	"math"

	"github.com/Carmen-Shannon/oxy-stage/common"
	"github.com/Carmen-Shannon/oxy-stage/engine/camera"
	"github.com/Carmen-Shannon/oxy-stage/engine/config"
	"github.com/Carmen-Shannon/oxy-stage/engine/light"
	"github.com/Carmen-Shannon/oxy-stage/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// Stage rig constants.
const (
	backgroundColor uint32  = 0x0a0a0f
	fogNear         float32 = 5
	fogFar          float32 = 15

	cameraFovDegrees float32 = 45
	cameraNear       float32 = 0.1
	cameraFar        float32 = 100

	ambientColor     uint32  = 0x4a4a5e
	ambientIntensity float32 = 0.4
	keyColor         uint32  = 0xfff5e6
	keyIntensity     float32 = 1.2
	fillColor        uint32  = 0x88aaff
	fillIntensity    float32 = 0.6
	rimColor         uint32  = 0x5a2d91
	rimIntensity     float32 = 2.5

	groundRadius   float32 = 3
	groundSegments         = 32
	groundColor    uint32  = 0x0f0f1a
	groundY        float32 = -0.01

	glowInnerRadius float32 = 0.3
	glowOuterRadius float32 = 0.8
	glowSegments            = 32
	glowOpacity     float32 = 0.3
	glowY           float32 = 0.02
)

var (
	cameraPosition = [3]float32{0, 1.2, 3.5}
	cameraTarget   = [3]float32{0, 1, 0}
)

// rig is the fixed part of a session's scene: environment, lights, camera, floor and
// the anchor every model is parented to.
type rig struct {
	scene  scene.Scene
	camera camera.Camera

	ground *scene.Node
	glow   *scene.Node
	anchor *scene.Node

	glowMaterial *scene.Material
}

// buildRig creates the stage scene for the given quality. Shadows are only cast and
// received in high quality.
func buildRig(quality config.Quality) *rig {
	shadows := quality.Shadows()

	keyOptions := []light.LightBuilderOption{
		light.WithColor(keyColor),
		light.WithIntensity(keyIntensity),
		light.WithPosition(3, 4, 2),
	}
	if shadows {
		keyOptions = append(keyOptions, light.WithShadows(light.ShadowMapResolutionHigh))
	}

	r := &rig{
		scene: scene.NewScene(
			scene.WithBackground(backgroundColor),
			scene.WithFog(backgroundColor, fogNear, fogFar),
			scene.WithLights(
				light.NewLight(light.LightTypeAmbient, light.WithColor(ambientColor), light.WithIntensity(ambientIntensity)),
				light.NewLight(light.LightTypeDirectional, keyOptions...),
				light.NewLight(light.LightTypeDirectional, light.WithColor(fillColor), light.WithIntensity(fillIntensity), light.WithPosition(-2, 2, -1)),
				light.NewLight(light.LightTypeDirectional, light.WithColor(rimColor), light.WithIntensity(rimIntensity), light.WithPosition(0, 3, -3)),
			),
		),
		camera: camera.NewCamera(
			camera.WithFovDegrees(cameraFovDegrees),
			camera.WithClipPlanes(cameraNear, cameraFar),
			camera.WithPosition(cameraPosition[0], cameraPosition[1], cameraPosition[2]),
			camera.WithTarget(cameraTarget[0], cameraTarget[1], cameraTarget[2]),
		),
	}

	// Discs are built in the XY plane; lay them flat facing up.
	flat := mgl32.QuatRotate(-math.Pi/2, mgl32.Vec3{1, 0, 0})

	groundMaterial := scene.NewMaterial("ground")
	groundMaterial.Color = common.HexColor(groundColor)
	groundMaterial.Roughness = 0.9
	groundMaterial.Metalness = 0.1
	r.ground = scene.NewNode("ground")
	r.ground.Position = mgl32.Vec3{0, groundY, 0}
	r.ground.Rotation = flat
	r.ground.Meshes = []*scene.Mesh{{
		Name:          "ground",
		Geometry:      scene.NewCircleGeometry(groundRadius, groundSegments),
		Material:      groundMaterial,
		ReceiveShadow: shadows,
	}}

	r.glowMaterial = scene.NewMaterial("glow")
	r.glowMaterial.Opacity = glowOpacity
	r.glowMaterial.Transparent = true
	r.glowMaterial.DoubleSided = true
	r.glow = scene.NewNode("glow")
	r.glow.Position = mgl32.Vec3{0, glowY, 0}
	r.glow.Rotation = flat
	r.glow.Meshes = []*scene.Mesh{{
		Name:     "glow",
		Geometry: scene.NewRingGeometry(glowInnerRadius, glowOuterRadius, glowSegments),
		Material: r.glowMaterial,
	}}

	r.anchor = scene.NewNode("anchor")

	r.scene.Add(r.ground)
	r.scene.Add(r.glow)
	r.scene.Add(r.anchor)
	return r
}

// tintGlow recolors the glow ring, emissive included, to c.
func (r *rig) tintGlow(c common.Color) {
	r.glowMaterial.Color = c
	r.glowMaterial.Emissive = c
	r.glowMaterial.EmissiveIntensity = 1
}
