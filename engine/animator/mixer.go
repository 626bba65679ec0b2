package animator

import (
	"github.com/Carmen-Shannon/oxy-stage/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// bindingKey identifies one animated property.
type bindingKey struct {
	node *scene.Node
	path TrackPath
}

// binding accumulates weighted samples for one property during an update and
// remembers the rest value to fill any weight left over.
type binding struct {
	key      bindingKey
	original [4]float32

	accVec    mgl32.Vec3
	accQuat   mgl32.Quat
	accWeight float32
}

// mixerImpl implements the Mixer interface.
type mixerImpl struct {
	root     *scene.Node
	actions  []*actionImpl
	byClip   map[*Clip]*actionImpl
	bindings []*binding
	byKey    map[bindingKey]*binding
	time     float32
	scratch  [4]float32
}

// Mixer plays clips on a model root and blends concurrent actions by weight.
// A mixer belongs to exactly one model; discard it with the model.
type Mixer interface {
	// Root returns the node the mixer animates.
	Root() *scene.Node

	// ClipAction returns the action for clip, creating and caching it on first use.
	// Tracks targeting nodes outside the root are ignored.
	//
	// Parameters:
	//   - clip: the clip to play
	//
	// Returns:
	//   - Action: the clip's action on this mixer
	ClipAction(clip *Clip) Action

	// Actions returns every cached action in creation order.
	Actions() []Action

	// Update advances running actions by dt seconds and writes blended values to the nodes.
	//
	// Parameters:
	//   - dt: elapsed time in seconds
	Update(dt float32)

	// StopAll stops every action and restores the rest pose.
	StopAll()

	// Time returns the total time the mixer has been advanced.
	Time() float32
}

var _ Mixer = &mixerImpl{}

// NewMixer creates a mixer bound to root.
//
// Parameters:
//   - root: the model root
//
// Returns:
//   - Mixer: the new mixer
func NewMixer(root *scene.Node) Mixer {
	if root == nil {
		panic("animator: NewMixer requires a root node")
	}
	return &mixerImpl{
		root:   root,
		byClip: make(map[*Clip]*actionImpl),
		byKey:  make(map[bindingKey]*binding),
	}
}

func (m *mixerImpl) Root() *scene.Node {
	return m.root
}

func (m *mixerImpl) ClipAction(clip *Clip) Action {
	if a, ok := m.byClip[clip]; ok {
		return a
	}
	for i := range clip.Tracks {
		tr := &clip.Tracks[i]
		if tr.Target == nil || !m.root.Contains(tr.Target) {
			continue
		}
		m.bind(bindingKey{node: tr.Target, path: tr.Path})
	}
	a := &actionImpl{clip: clip, weight: 1, enabled: true}
	m.byClip[clip] = a
	m.actions = append(m.actions, a)
	return a
}

func (m *mixerImpl) bind(key bindingKey) {
	if _, ok := m.byKey[key]; ok {
		return
	}
	b := &binding{key: key}
	readProperty(key, b.original[:])
	m.byKey[key] = b
	m.bindings = append(m.bindings, b)
}

func (m *mixerImpl) Actions() []Action {
	out := make([]Action, len(m.actions))
	for i, a := range m.actions {
		out[i] = a
	}
	return out
}

func (m *mixerImpl) Time() float32 {
	return m.time
}

func (m *mixerImpl) Update(dt float32) {
	m.time += dt
	for _, a := range m.actions {
		if !a.IsRunning() {
			continue
		}
		a.advance(dt)
		w := a.Weight()
		if w <= 0 {
			continue
		}
		for i := range a.clip.Tracks {
			tr := &a.clip.Tracks[i]
			b, ok := m.byKey[bindingKey{node: tr.Target, path: tr.Path}]
			if !ok || len(tr.Times) == 0 {
				continue
			}
			dst := m.scratch[:tr.Path.Components()]
			tr.sample(a.time, dst)
			b.accumulate(dst, w)
		}
	}
	for _, b := range m.bindings {
		b.apply()
	}
}

func (m *mixerImpl) StopAll() {
	for _, a := range m.actions {
		a.Stop()
	}
	for _, b := range m.bindings {
		writeProperty(b.key, b.original[:])
	}
}

func (b *binding) accumulate(v []float32, w float32) {
	if b.key.path == PathRotation {
		q := quatFrom(v)
		if b.accWeight == 0 {
			b.accQuat = q
			b.accWeight = w
			return
		}
		b.accWeight += w
		b.accQuat = slerp(b.accQuat, q, w/b.accWeight)
		return
	}
	b.accVec = b.accVec.Add(mgl32.Vec3{v[0], v[1], v[2]}.Mul(w))
	b.accWeight += w
}

// apply writes the blended value, filling weight below 1 with the rest value, and clears the accumulator.
func (b *binding) apply() {
	var out [4]float32
	switch {
	case b.key.path == PathRotation:
		q := quatFrom(b.original[:])
		if b.accWeight >= 1 {
			q = b.accQuat
		} else if b.accWeight > 0 {
			q = slerp(q, b.accQuat, b.accWeight)
		}
		quatTo(q, out[:])
	case b.accWeight == 0:
		copy(out[:], b.original[:3])
	default:
		v := b.accVec
		if b.accWeight < 1 {
			v = v.Add(mgl32.Vec3{b.original[0], b.original[1], b.original[2]}.Mul(1 - b.accWeight))
		} else if b.accWeight > 1 {
			v = v.Mul(1 / b.accWeight)
		}
		out[0], out[1], out[2] = v[0], v[1], v[2]
	}
	writeProperty(b.key, out[:])
	b.accVec = mgl32.Vec3{}
	b.accQuat = mgl32.Quat{}
	b.accWeight = 0
}

func readProperty(key bindingKey, dst []float32) {
	n := key.node
	switch key.path {
	case PathTranslation:
		dst[0], dst[1], dst[2] = n.Position[0], n.Position[1], n.Position[2]
	case PathRotation:
		quatTo(n.Rotation, dst)
	case PathScale:
		dst[0], dst[1], dst[2] = n.Scale[0], n.Scale[1], n.Scale[2]
	}
}

func writeProperty(key bindingKey, v []float32) {
	n := key.node
	switch key.path {
	case PathTranslation:
		n.Position = mgl32.Vec3{v[0], v[1], v[2]}
	case PathRotation:
		n.Rotation = quatFrom(v)
	case PathScale:
		n.Scale = mgl32.Vec3{v[0], v[1], v[2]}
	}
}
