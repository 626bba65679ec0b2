package scene

import (
	"github.com/Carmen-Shannon/oxy-stage/common"
	"github.com/go-gl/mathgl/mgl32"
)

// Geometry holds indexed triangle data in the owning node's local space.
type Geometry struct {
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	Indices   []uint32

	// Joints and Weights are per-vertex skin influences, parallel to Positions.
	// Empty for rigid geometry.
	Joints  [][4]uint16
	Weights [][4]float32
}

// VertexCount returns the number of vertices.
func (g *Geometry) VertexCount() int {
	return len(g.Positions)
}

// Material describes how a mesh is shaded.
type Material struct {
	Name              string
	Color             common.Color
	Opacity           float32
	Emissive          common.Color
	EmissiveIntensity float32
	Roughness         float32
	Metalness         float32
	Transparent       bool
	DoubleSided       bool
}

// NewMaterial returns an opaque white material.
func NewMaterial(name string) *Material {
	return &Material{
		Name:      name,
		Color:     common.Color{R: 1, G: 1, B: 1},
		Opacity:   1,
		Roughness: 1,
	}
}

// Skin binds a mesh to joint nodes. InverseBind is parallel to Joints.
type Skin struct {
	Joints      []*Node
	InverseBind []mgl32.Mat4
}

// Mesh is one drawable primitive attached to a node.
type Mesh struct {
	Name          string
	Geometry      *Geometry
	Material      *Material
	Skin          *Skin
	CastShadow    bool
	ReceiveShadow bool
}

// Skinned reports whether the mesh is deformed by joints.
func (m *Mesh) Skinned() bool {
	return m.Skin != nil && len(m.Skin.Joints) > 0 && len(m.Geometry.Weights) == len(m.Geometry.Positions)
}

// Deform writes world-space positions (and normals, when normalsDst is non-nil) into the
// destination slices, growing them as needed. Rigid meshes use nodeWorld; skinned meshes
// blend their joints' current world matrices.
//
// Parameters:
//   - nodeWorld: the owning node's world matrix
//   - positionsDst: reusable destination for positions
//   - normalsDst: reusable destination for normals, or nil to skip normals
//
// Returns:
//   - []mgl32.Vec3: world-space positions
//   - []mgl32.Vec3: world-space normals (nil when normalsDst was nil)
func (m *Mesh) Deform(nodeWorld mgl32.Mat4, positionsDst, normalsDst []mgl32.Vec3) ([]mgl32.Vec3, []mgl32.Vec3) {
	g := m.Geometry
	if g == nil {
		return positionsDst[:0], normalsDst
	}
	n := len(g.Positions)
	positionsDst = grow(positionsDst, n)
	withNormals := normalsDst != nil && len(g.Normals) == n
	if withNormals {
		normalsDst = grow(normalsDst, n)
	}

	if !m.Skinned() {
		for i, p := range g.Positions {
			positionsDst[i] = nodeWorld.Mul4x1(p.Vec4(1)).Vec3()
			if withNormals {
				normalsDst[i] = nodeWorld.Mul4x1(g.Normals[i].Vec4(0)).Vec3().Normalize()
			}
		}
		return positionsDst, normalsDst
	}

	jointMats := make([]mgl32.Mat4, len(m.Skin.Joints))
	for j, joint := range m.Skin.Joints {
		inv := mgl32.Ident4()
		if j < len(m.Skin.InverseBind) {
			inv = m.Skin.InverseBind[j]
		}
		jointMats[j] = joint.WorldMatrix().Mul4(inv)
	}

	for i, p := range g.Positions {
		var skin mgl32.Mat4
		var total float32
		for k := 0; k < 4; k++ {
			w := g.Weights[i][k]
			j := int(g.Joints[i][k])
			if w == 0 || j >= len(jointMats) {
				continue
			}
			total += w
			for e := 0; e < 16; e++ {
				skin[e] += jointMats[j][e] * w
			}
		}
		if total == 0 {
			skin = nodeWorld
		}
		positionsDst[i] = skin.Mul4x1(p.Vec4(1)).Vec3()
		if withNormals {
			normalsDst[i] = skin.Mul4x1(g.Normals[i].Vec4(0)).Vec3().Normalize()
		}
	}
	return positionsDst, normalsDst
}

func grow(s []mgl32.Vec3, n int) []mgl32.Vec3 {
	if cap(s) < n {
		return make([]mgl32.Vec3, n)
	}
	return s[:n]
}
