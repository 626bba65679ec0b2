package scene

import (
	"github.com/Carmen-Shannon/oxy-stage/common"
	"github.com/go-gl/mathgl/mgl32"
)

// Node is one element of a scene graph: a local transform, optional meshes and children.
// Nodes are mutated from the host loop thread only.
type Node struct {
	// Name identifies the node for diagnostics and lookup. Not required to be unique.
	Name string

	// Position is the translation relative to the parent.
	Position mgl32.Vec3

	// Rotation is the orientation relative to the parent.
	Rotation mgl32.Quat

	// Scale is the per-axis scale relative to the parent.
	Scale mgl32.Vec3

	// Yaw is an extra rotation in radians about the local Y axis applied on top of Rotation.
	// Presentation tweens drive it so authored rotations stay untouched.
	Yaw float32

	// Meshes are drawn with this node's world transform.
	Meshes []*Mesh

	parent   *Node
	children []*Node
}

// NewNode creates a node with an identity transform.
//
// Parameters:
//   - name: the node name
//
// Returns:
//   - *Node: the new node
func NewNode(name string) *Node {
	return &Node{
		Name:     name,
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

// Parent returns the node's parent, or nil for a detached node.
func (n *Node) Parent() *Node {
	return n.parent
}

// Children returns a copy of the node's children.
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// Add attaches child to n, detaching it from any previous parent first.
//
// Parameters:
//   - child: the node to attach
func (n *Node) Add(child *Node) {
	if child == nil || child == n {
		return
	}
	child.RemoveFromParent()
	child.parent = n
	n.children = append(n.children, child)
}

// Remove detaches child from n.
//
// Parameters:
//   - child: the node to detach
//
// Returns:
//   - bool: true if child was a direct child of n
func (n *Node) Remove(child *Node) bool {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			child.parent = nil
			return true
		}
	}
	return false
}

// RemoveFromParent detaches n from its parent, if any.
func (n *Node) RemoveFromParent() {
	if n.parent != nil {
		n.parent.Remove(n)
	}
}

// Contains reports whether target is n or one of its descendants.
func (n *Node) Contains(target *Node) bool {
	for p := target; p != nil; p = p.parent {
		if p == n {
			return true
		}
	}
	return false
}

// Find returns the first node named name in depth-first order, or nil.
func (n *Node) Find(name string) *Node {
	var found *Node
	n.Traverse(func(c *Node) bool {
		if found == nil && c.Name == name {
			found = c
		}
		return found == nil
	})
	return found
}

// Traverse visits n and its descendants depth-first. Returning false from fn stops descent
// into that node's children.
//
// Parameters:
//   - fn: the visitor
func (n *Node) Traverse(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.children {
		c.Traverse(fn)
	}
}

// TraverseWorld visits n and its descendants with each node's world matrix.
//
// Parameters:
//   - fn: the visitor, receiving the node and its world matrix
func (n *Node) TraverseWorld(fn func(n *Node, world mgl32.Mat4)) {
	var parentWorld mgl32.Mat4
	if n.parent != nil {
		parentWorld = n.parent.WorldMatrix()
	} else {
		parentWorld = mgl32.Ident4()
	}
	n.traverseWorld(parentWorld, fn)
}

func (n *Node) traverseWorld(parentWorld mgl32.Mat4, fn func(*Node, mgl32.Mat4)) {
	world := parentWorld.Mul4(n.LocalMatrix())
	fn(n, world)
	for _, c := range n.children {
		c.traverseWorld(world, fn)
	}
}

// LocalMatrix returns T * Ry(Yaw) * R * S.
func (n *Node) LocalMatrix() mgl32.Mat4 {
	m := mgl32.Translate3D(n.Position[0], n.Position[1], n.Position[2])
	if n.Yaw != 0 {
		m = m.Mul4(mgl32.HomogRotate3DY(n.Yaw))
	}
	m = m.Mul4(n.Rotation.Normalize().Mat4())
	return m.Mul4(mgl32.Scale3D(n.Scale[0], n.Scale[1], n.Scale[2]))
}

// WorldMatrix returns the node's transform composed with every ancestor.
func (n *Node) WorldMatrix() mgl32.Mat4 {
	if n.parent == nil {
		return n.LocalMatrix()
	}
	return n.parent.WorldMatrix().Mul4(n.LocalMatrix())
}

// Bounds returns the world-space axis-aligned box around every mesh vertex under n.
// Skinned meshes are measured in their current pose.
//
// Returns:
//   - common.Box3: the bounds, empty when n holds no geometry
func (n *Node) Bounds() common.Box3 {
	box := common.EmptyBox()
	var scratch []mgl32.Vec3
	n.TraverseWorld(func(c *Node, world mgl32.Mat4) {
		for _, m := range c.Meshes {
			scratch, _ = m.Deform(world, scratch, nil)
			for _, p := range scratch {
				box.ExpandByPoint(p)
			}
		}
	})
	return box
}

// MeshCount returns the number of meshes under n.
func (n *Node) MeshCount() int {
	count := 0
	n.Traverse(func(c *Node) bool {
		count += len(c.Meshes)
		return true
	})
	return count
}
