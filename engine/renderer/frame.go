package renderer

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-stage/common"
	"github.com/Carmen-Shannon/oxy-stage/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// MaxDirectionalLights is the number of directional lights the lit shader evaluates.
// Extra directional lights in a scene are ignored.
const MaxDirectionalLights = 3

// GPUFrameUniforms is the per-frame uniform block shared by every draw.
// Matches the WGSL Frame struct layout exactly (288 bytes, std140 aligned).
type GPUFrameUniforms struct {
	ViewProj      [16]float32                      // offset 0
	LightViewProj [16]float32                      // offset 64: shadow caster's view-projection
	CameraPos     [4]float32                       // offset 128: xyz eye position
	Ambient       [4]float32                       // offset 144: rgb ambient radiance
	LightDirs     [MaxDirectionalLights][4]float32 // offset 160: xyz points toward the light
	LightColors   [MaxDirectionalLights][4]float32 // offset 208: rgb color * intensity
	FogColor      [4]float32                       // offset 256: rgb fog color, w = 1 when fog is on
	Params        [4]float32                       // offset 272: fog near, fog far, shadow bias, shadows on
}

// Size returns the size of the GPUFrameUniforms struct in bytes.
func (g *GPUFrameUniforms) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the uniforms into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 288-byte buffer ready for GPU upload
func (g *GPUFrameUniforms) Marshal() []byte {
	buf := make([]byte, 0, g.Size())
	buf = putFloats(buf, g.ViewProj[:])
	buf = putFloats(buf, g.LightViewProj[:])
	buf = putFloats(buf, g.CameraPos[:])
	buf = putFloats(buf, g.Ambient[:])
	for i := range g.LightDirs {
		buf = putFloats(buf, g.LightDirs[i][:])
	}
	for i := range g.LightColors {
		buf = putFloats(buf, g.LightColors[i][:])
	}
	buf = putFloats(buf, g.FogColor[:])
	buf = putFloats(buf, g.Params[:])
	return buf
}

// GPUObjectUniforms is the per-draw uniform block.
// Matches the WGSL Object struct layout exactly (112 bytes, std140 aligned).
type GPUObjectUniforms struct {
	Model    [16]float32 // offset 0: local-to-world, identity for CPU-skinned meshes
	Color    [4]float32  // offset 64: rgb base color, a = opacity
	Emissive [4]float32  // offset 80: rgb emissive radiance, w = roughness
	Flags    [4]float32  // offset 96: receive shadow, metalness, unused, unused
}

// Size returns the size of the GPUObjectUniforms struct in bytes.
func (g *GPUObjectUniforms) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the uniforms into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 112-byte buffer ready for GPU upload
func (g *GPUObjectUniforms) Marshal() []byte {
	buf := make([]byte, 0, g.Size())
	buf = putFloats(buf, g.Model[:])
	buf = putFloats(buf, g.Color[:])
	buf = putFloats(buf, g.Emissive[:])
	buf = putFloats(buf, g.Flags[:])
	return buf
}

func putFloats(buf []byte, values []float32) []byte {
	for _, v := range values {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
	}
	return buf
}

// DrawItem is one mesh ready for the backend.
//
// Rigid meshes keep their local-space geometry on the GPU and are positioned by
// Object.Model. Skinned meshes are deformed on the CPU every frame: Positions and
// Normals then hold world-space vertices and Object.Model is the identity.
type DrawItem struct {
	Mesh        *scene.Mesh
	Object      GPUObjectUniforms
	Positions   []mgl32.Vec3
	Normals     []mgl32.Vec3
	Transparent bool
	CastShadow  bool
	DoubleSided bool

	// depth is the view-space distance used to order transparent items back to front.
	depth float32
}

// Dynamic reports whether the item carries per-frame vertices.
func (d *DrawItem) Dynamic() bool {
	return d.Positions != nil
}

// Frame is everything a backend needs to draw one image.
type Frame struct {
	Width, Height int
	Clear         common.Color
	Uniforms      GPUFrameUniforms

	// ShadowMapSize is the caster's shadow map resolution, 0 when no light casts shadows.
	ShadowMapSize int

	// Items are ordered for drawing: opaque first, then transparent back to front.
	Items []DrawItem
}

// Shadows reports whether the frame needs a shadow pass.
func (f *Frame) Shadows() bool {
	return f.ShadowMapSize > 0
}

// Casters returns the number of items drawn into the shadow map.
func (f *Frame) Casters() int {
	if !f.Shadows() {
		return 0
	}
	n := 0
	for i := range f.Items {
		if f.Items[i].CastShadow {
			n++
		}
	}
	return n
}

// InterleaveVertices packs positions and normals as position.xyz, normal.xyz per vertex.
// Missing normals are written as +Y.
//
// Parameters:
//   - positions: vertex positions
//   - normals: vertex normals, parallel to positions or empty
//
// Returns:
//   - []byte: vertex data with a 24 byte stride
func InterleaveVertices(positions, normals []mgl32.Vec3) []byte {
	buf := make([]byte, 0, len(positions)*vertexStride)
	for i, p := range positions {
		n := mgl32.Vec3{0, 1, 0}
		if i < len(normals) {
			n = normals[i]
		}
		buf = putFloats(buf, p[:])
		buf = putFloats(buf, n[:])
	}
	return buf
}

// PackIndices encodes indices as little-endian uint32.
func PackIndices(indices []uint32) []byte {
	buf := make([]byte, 0, len(indices)*4)
	for _, i := range indices {
		buf = binary.LittleEndian.AppendUint32(buf, i)
	}
	return buf
}

// vertexStride is the byte size of one interleaved vertex.
const vertexStride = 24
