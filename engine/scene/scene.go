package scene

import (
	"github.com/Carmen-Shannon/oxy-stage/common"
	"github.com/Carmen-Shannon/oxy-stage/engine/light"
)

// Fog blends fragments toward Color linearly between Near and Far distance from the camera.
type Fog struct {
	Color     common.Color
	Near, Far float32
}

// Scene is the root of one session's scene graph along with its environment:
// background color, fog and the light rig.
type Scene interface {
	// Root returns the top-level node every drawable hangs from.
	Root() *Node

	// Add attaches a node to the root.
	//
	// Parameters:
	//   - n: the node to attach
	Add(n *Node)

	// Remove detaches a node from the root.
	//
	// Parameters:
	//   - n: the node to detach
	//
	// Returns:
	//   - bool: true if n was attached to the root
	Remove(n *Node) bool

	// Background returns the clear color.
	Background() common.Color

	// Fog returns the fog settings, or nil when fog is disabled.
	Fog() *Fog

	// Lights returns the scene's lights in insertion order.
	Lights() []light.Light

	// AddLight appends a light to the rig.
	//
	// Parameters:
	//   - l: the light
	AddLight(l light.Light)
}

// scene implements the Scene interface.
type scene struct {
	root       *Node
	background common.Color
	fog        *Fog
	lights     []light.Light
}

var _ Scene = &scene{}

// NewScene creates an empty scene with a black background and no fog.
//
// Parameters:
//   - options: functional options applied in order
//
// Returns:
//   - Scene: the new scene
func NewScene(options ...SceneBuilderOption) Scene {
	s := &scene{root: NewNode("scene")}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *scene) Root() *Node {
	return s.root
}

func (s *scene) Add(n *Node) {
	s.root.Add(n)
}

func (s *scene) Remove(n *Node) bool {
	return s.root.Remove(n)
}

func (s *scene) Background() common.Color {
	return s.background
}

func (s *scene) Fog() *Fog {
	return s.fog
}

func (s *scene) Lights() []light.Light {
	out := make([]light.Light, len(s.lights))
	copy(out, s.lights)
	return out
}

func (s *scene) AddLight(l light.Light) {
	if l != nil {
		s.lights = append(s.lights, l)
	}
}
