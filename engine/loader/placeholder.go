package loader

import (
	"github.com/Carmen-Shannon/oxy-stage/engine/catalog"
	"github.com/Carmen-Shannon/oxy-stage/engine/scene"
)

// Placeholder dimensions: a capsule body with a sphere head, about 1.9 units tall.
const (
	placeholderBodyRadius = 0.25
	placeholderBodyLength = 1
	placeholderBodyY      = 1
	placeholderHeadRadius = 0.18
	placeholderHeadY      = 1.7
	placeholderEmissive   = 0.8
)

// Placeholder builds the stand-in figure shown when a model cannot be loaded. It is tinted
// with the descriptor color and glows in the same color. Output is deterministic: the same
// descriptor always yields identical geometry. The figure is not normalized.
//
// Parameters:
//   - d: the descriptor the placeholder stands in for
//   - shadows: whether the body casts a shadow
//
// Returns:
//   - *scene.Node: the placeholder root
func Placeholder(d catalog.Descriptor, shadows bool) *scene.Node {
	color := d.RGB()
	newMaterial := func(name string) *scene.Material {
		mat := scene.NewMaterial(name)
		mat.Color = color
		mat.Emissive = color
		mat.EmissiveIntensity = placeholderEmissive
		mat.Roughness = 0.1
		mat.Metalness = 0.2
		return mat
	}

	root := scene.NewNode("placeholder:" + d.ID)

	body := scene.NewNode("body")
	body.Position[1] = placeholderBodyY
	body.Meshes = []*scene.Mesh{{
		Name:       "body",
		Geometry:   scene.NewCapsuleGeometry(placeholderBodyRadius, placeholderBodyLength, 8, 16),
		Material:   newMaterial("placeholder-body"),
		CastShadow: shadows,
	}}

	head := scene.NewNode("head")
	head.Position[1] = placeholderHeadY
	head.Meshes = []*scene.Mesh{{
		Name:       "head",
		Geometry:   scene.NewSphereGeometry(placeholderHeadRadius, 16, 16),
		Material:   newMaterial("placeholder-head"),
		CastShadow: shadows,
	}}

	root.Add(body)
	root.Add(head)
	return root
}
