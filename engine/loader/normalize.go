package loader

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-stage/engine/scene"
)

// TargetHeight is the height in world units every loaded model is scaled to.
const TargetHeight = 1.8

// ErrDegenerateBounds is returned when a model has no vertices or zero height.
var ErrDegenerateBounds = errors.New("model bounds are degenerate")

// Normalize scales root uniformly so its world bounding box is TargetHeight tall, then
// translates it so the box is centered on the origin horizontally and rests on y = 0.
// Scale is multiplied into root's existing scale so authored root transforms survive.
//
// Parameters:
//   - root: a detached model root
//
// Returns:
//   - error: ErrDegenerateBounds when the model cannot be measured
func Normalize(root *scene.Node) error {
	box := root.Bounds()
	size := box.Size()
	if box.IsEmpty() || size[1] < 1e-6 {
		return fmt.Errorf("%w: size %v", ErrDegenerateBounds, size)
	}

	k := TargetHeight / size[1]
	root.Scale = root.Scale.Mul(k)

	box = root.Bounds()
	center := box.Center()
	root.Position[0] -= center[0]
	root.Position[2] -= center[2]
	root.Position[1] -= box.Min[1]
	return nil
}

// applyShadows flags every mesh under root to cast and receive shadows.
func applyShadows(root *scene.Node) {
	root.Traverse(func(n *scene.Node) bool {
		for _, m := range n.Meshes {
			m.CastShadow = true
			m.ReceiveShadow = true
		}
		return true
	})
}
