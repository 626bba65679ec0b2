package loader

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/Carmen-Shannon/oxy-stage/common"
	"github.com/Carmen-Shannon/oxy-stage/engine/animator"
	"github.com/Carmen-Shannon/oxy-stage/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// fbxModel is one "Model" object with its scene node.
type fbxModel struct {
	node   *scene.Node
	preRot mgl32.Quat
	// lcl holds the static Lcl Translation, Rotation (degrees) and Scaling values.
	lcl [3]mgl32.Vec3
}

// fbxCurveNode groups the X/Y/Z curves animating one property of one model.
type fbxCurveNode struct {
	id       int64
	defaults [3]float64
	curves   [3]*fbxCurve
	model    int64
	property string
	layer    int64
}

type fbxCurve struct {
	times  []float32
	values []float32
}

type fbxConnection struct {
	kind     string
	child    int64
	parent   int64
	property string
}

// fbxImporter turns a parsed FBX document into a scene node tree plus animation clips.
// Skin deformers are not evaluated: skinned meshes render in their bind pose while node
// animation still moves every model.
type fbxImporter struct {
	doc *fbxDocument

	models     map[int64]*fbxModel
	modelOrder []int64
	geometries map[int64]*scene.Geometry
	materials  map[int64]*scene.Material
	stacks     []int64
	stackNames map[int64]string
	layers     map[int64]int64
	curveNodes map[int64]*fbxCurveNode
	curveOrder []int64
	curves     map[int64]*fbxCurve
	conns      []fbxConnection
}

// importFBX parses a binary FBX file and builds the model.
//
// Parameters:
//   - name: the name given to the returned root node
//   - data: the file contents
//
// Returns:
//   - *parsedModel: the model root and its clips
//   - error: error if the file is not a usable binary FBX
func importFBX(name string, data []byte) (*parsedModel, error) {
	doc, err := parseFBX(data)
	if err != nil {
		return nil, err
	}
	objects := doc.Find("Objects")
	if objects == nil {
		return nil, fmt.Errorf("fbx: no Objects section")
	}

	imp := &fbxImporter{
		doc:        doc,
		models:     make(map[int64]*fbxModel),
		geometries: make(map[int64]*scene.Geometry),
		materials:  make(map[int64]*scene.Material),
		stackNames: make(map[int64]string),
		layers:     make(map[int64]int64),
		curveNodes: make(map[int64]*fbxCurveNode),
		curves:     make(map[int64]*fbxCurve),
	}
	for _, obj := range objects.Children {
		if err := imp.readObject(obj); err != nil {
			return nil, err
		}
	}
	if c := doc.Find("Connections"); c != nil {
		for _, rec := range c.Children {
			if rec.Name != "C" {
				continue
			}
			child, ok1 := fbxInt64(rec.prop(1))
			parent, ok2 := fbxInt64(rec.prop(2))
			if !ok1 || !ok2 {
				continue
			}
			imp.conns = append(imp.conns, fbxConnection{
				kind:     fbxString(rec.prop(0)),
				child:    child,
				parent:   parent,
				property: fbxString(rec.prop(3)),
			})
		}
	}

	root := scene.NewNode(name)
	imp.link(root)
	return &parsedModel{root: root, clips: imp.buildClips()}, nil
}

// fbxObjectName strips the "\x00\x01Class" suffix and any "Class::" prefix from an object name.
func fbxObjectName(raw string) string {
	if i := strings.Index(raw, "\x00\x01"); i >= 0 {
		raw = raw[:i]
	}
	if i := strings.Index(raw, "::"); i >= 0 {
		raw = raw[i+2:]
	}
	return raw
}

func (imp *fbxImporter) readObject(obj *fbxNode) error {
	id, ok := fbxInt64(obj.prop(0))
	if !ok {
		return nil
	}
	name := fbxObjectName(fbxString(obj.prop(1)))

	switch obj.Name {
	case "Model":
		m := &fbxModel{node: scene.NewNode(name), preRot: mgl32.QuatIdent()}
		m.lcl[2] = mgl32.Vec3{1, 1, 1}
		props := fbxProperties(obj)
		if v, ok := props["Lcl Translation"]; ok {
			m.lcl[0] = v
		}
		if v, ok := props["Lcl Rotation"]; ok {
			m.lcl[1] = v
		}
		if v, ok := props["Lcl Scaling"]; ok {
			m.lcl[2] = v
		}
		if v, ok := props["PreRotation"]; ok {
			m.preRot = eulerXYZ(v)
		}
		m.node.Position = m.lcl[0]
		m.node.Rotation = m.preRot.Mul(eulerXYZ(m.lcl[1])).Normalize()
		m.node.Scale = m.lcl[2]
		imp.models[id] = m
		imp.modelOrder = append(imp.modelOrder, id)

	case "Geometry":
		if fbxString(obj.prop(2)) != "Mesh" {
			return nil
		}
		g, err := fbxGeometry(obj)
		if err != nil {
			return fmt.Errorf("fbx geometry %q: %w", name, err)
		}
		if g != nil {
			imp.geometries[id] = g
		}

	case "Material":
		mat := scene.NewMaterial(name)
		props := fbxProperties(obj)
		if c, ok := props["DiffuseColor"]; ok {
			mat.Color = common.Color{R: c[0], G: c[1], B: c[2]}
		}
		if c, ok := props["EmissiveColor"]; ok && (c[0] > 0 || c[1] > 0 || c[2] > 0) {
			mat.Emissive = common.Color{R: c[0], G: c[1], B: c[2]}
			mat.EmissiveIntensity = 1
		}
		if o, ok := props["Opacity"]; ok && o[0] < 1 {
			mat.Opacity = o[0]
			mat.Transparent = true
		}
		imp.materials[id] = mat

	case "AnimationStack":
		imp.stacks = append(imp.stacks, id)
		imp.stackNames[id] = name

	case "AnimationLayer":
		imp.layers[id] = 0

	case "AnimationCurveNode":
		cn := &fbxCurveNode{id: id}
		for k, v := range fbxScalarProperties(obj) {
			switch k {
			case "d|X":
				cn.defaults[0] = v
			case "d|Y":
				cn.defaults[1] = v
			case "d|Z":
				cn.defaults[2] = v
			}
		}
		imp.curveNodes[id] = cn
		imp.curveOrder = append(imp.curveOrder, id)

	case "AnimationCurve":
		keyTimes := fbxInts(obj.Child("KeyTime").prop(0))
		keyValues := fbxFloats(obj.Child("KeyValueFloat").prop(0))
		n := min(len(keyTimes), len(keyValues))
		c := &fbxCurve{times: make([]float32, n), values: make([]float32, n)}
		for i := 0; i < n; i++ {
			c.times[i] = float32(float64(keyTimes[i]) / fbxTicksPerSecond)
			c.values[i] = float32(keyValues[i])
		}
		imp.curves[id] = c
	}
	return nil
}

// link wires the object graph from the connection list.
func (imp *fbxImporter) link(root *scene.Node) {
	modelMats := make(map[int64]*scene.Material)
	for _, c := range imp.conns {
		switch {
		case imp.models[c.child] != nil:
			if parent := imp.models[c.parent]; parent != nil && !imp.models[c.child].node.Contains(parent.node) {
				parent.node.Add(imp.models[c.child].node)
			}
		case imp.geometries[c.child] != nil:
			if m := imp.models[c.parent]; m != nil {
				m.node.Meshes = append(m.node.Meshes, &scene.Mesh{Name: m.node.Name, Geometry: imp.geometries[c.child]})
			}
		case imp.materials[c.child] != nil:
			if _, ok := modelMats[c.parent]; !ok {
				modelMats[c.parent] = imp.materials[c.child]
			}
		case imp.curves[c.child] != nil:
			if cn := imp.curveNodes[c.parent]; cn != nil {
				switch c.property {
				case "d|X":
					cn.curves[0] = imp.curves[c.child]
				case "d|Y":
					cn.curves[1] = imp.curves[c.child]
				case "d|Z":
					cn.curves[2] = imp.curves[c.child]
				}
			}
		case imp.curveNodes[c.child] != nil:
			cn := imp.curveNodes[c.child]
			if _, ok := imp.models[c.parent]; ok && c.property != "" {
				cn.model = c.parent
				cn.property = c.property
			} else if _, ok := imp.layers[c.parent]; ok {
				cn.layer = c.parent
			}
		default:
			if _, ok := imp.layers[c.child]; ok {
				imp.layers[c.child] = c.parent
			}
		}
	}

	for _, id := range imp.modelOrder {
		m := imp.models[id]
		mat := modelMats[id]
		if mat == nil {
			mat = scene.NewMaterial("default")
		}
		for _, mesh := range m.node.Meshes {
			mesh.Material = mat
		}
		if m.node.Parent() == nil {
			root.Add(m.node)
		}
	}
}

// buildClips produces one clip per animation stack, in file order.
func (imp *fbxImporter) buildClips() []*animator.Clip {
	clips := make([]*animator.Clip, 0, len(imp.stacks))
	for _, stack := range imp.stacks {
		clip := &animator.Clip{Name: imp.stackNames[stack], Index: len(clips)}
		for _, id := range imp.curveOrder {
			cn := imp.curveNodes[id]
			if cn.layer == 0 || imp.layers[cn.layer] != stack {
				continue
			}
			if track, ok := imp.buildTrack(cn); ok {
				clip.Tracks = append(clip.Tracks, track)
			}
		}
		if clip.Name == "" {
			clip.Name = fmt.Sprintf("animation_%d", clip.Index)
		}
		clip.Duration = clip.ComputeDuration()
		clips = append(clips, clip)
	}
	return clips
}

func (imp *fbxImporter) buildTrack(cn *fbxCurveNode) (animator.Track, bool) {
	m := imp.models[cn.model]
	if m == nil {
		return animator.Track{}, false
	}
	var path animator.TrackPath
	var static mgl32.Vec3
	switch cn.property {
	case "Lcl Translation":
		path, static = animator.PathTranslation, m.lcl[0]
	case "Lcl Rotation":
		path, static = animator.PathRotation, m.lcl[1]
	case "Lcl Scaling":
		path, static = animator.PathScale, m.lcl[2]
	default:
		return animator.Track{}, false
	}

	seen := make(map[float32]struct{})
	var times []float32
	for _, c := range cn.curves {
		if c == nil {
			continue
		}
		for _, t := range c.times {
			if _, ok := seen[t]; !ok {
				seen[t] = struct{}{}
				times = append(times, t)
			}
		}
	}
	if len(times) == 0 {
		return animator.Track{}, false
	}
	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })

	track := animator.Track{
		Target:        m.node,
		Path:          path,
		Interpolation: animator.InterpolationLinear,
		Times:         times,
		Values:        make([]float32, 0, len(times)*path.Components()),
	}
	for _, t := range times {
		var v mgl32.Vec3
		for axis := 0; axis < 3; axis++ {
			switch c := cn.curves[axis]; {
			case c != nil && len(c.times) > 0:
				v[axis] = c.sample(t)
			case cn.defaults != [3]float64{}:
				v[axis] = float32(cn.defaults[axis])
			default:
				v[axis] = static[axis]
			}
		}
		if path == animator.PathRotation {
			q := m.preRot.Mul(eulerXYZ(v)).Normalize()
			track.Values = append(track.Values, q.V[0], q.V[1], q.V[2], q.W)
			continue
		}
		track.Values = append(track.Values, v[0], v[1], v[2])
	}
	return track, true
}

// sample evaluates the curve linearly at t, clamping outside the key range.
func (c *fbxCurve) sample(t float32) float32 {
	n := len(c.times)
	if t <= c.times[0] {
		return c.values[0]
	}
	if t >= c.times[n-1] {
		return c.values[n-1]
	}
	i := sort.Search(n, func(i int) bool { return c.times[i] > t }) - 1
	span := c.times[i+1] - c.times[i]
	if span <= 0 {
		return c.values[i]
	}
	u := (t - c.times[i]) / span
	return c.values[i] + (c.values[i+1]-c.values[i])*u
}

// eulerXYZ converts FBX Euler angles in degrees (X applied first, then Y, then Z) to a quaternion.
func eulerXYZ(deg mgl32.Vec3) mgl32.Quat {
	qx := mgl32.QuatRotate(mgl32.DegToRad(deg[0]), mgl32.Vec3{1, 0, 0})
	qy := mgl32.QuatRotate(mgl32.DegToRad(deg[1]), mgl32.Vec3{0, 1, 0})
	qz := mgl32.QuatRotate(mgl32.DegToRad(deg[2]), mgl32.Vec3{0, 0, 1})
	return qz.Mul(qy).Mul(qx)
}

// fbxProperties collects vector-valued Properties70 entries (P records carrying three numbers).
func fbxProperties(obj *fbxNode) map[string]mgl32.Vec3 {
	out := make(map[string]mgl32.Vec3)
	p70 := obj.Child("Properties70")
	if p70 == nil {
		return out
	}
	for _, p := range p70.Children {
		if p.Name != "P" || len(p.Properties) < 5 {
			continue
		}
		var v mgl32.Vec3
		n := 0
		for i := 4; i < len(p.Properties) && n < 3; i++ {
			f, ok := fbxFloat(p.Properties[i])
			if !ok {
				break
			}
			v[n] = float32(f)
			n++
		}
		if n == 0 {
			continue
		}
		if n == 1 {
			v[1], v[2] = v[0], v[0]
		}
		out[fbxString(p.Properties[0])] = v
	}
	return out
}

// fbxScalarProperties collects the first number of every Properties70 entry.
func fbxScalarProperties(obj *fbxNode) map[string]float64 {
	out := make(map[string]float64)
	p70 := obj.Child("Properties70")
	if p70 == nil {
		return out
	}
	for _, p := range p70.Children {
		if p.Name != "P" || len(p.Properties) < 5 {
			continue
		}
		if f, ok := fbxFloat(p.Properties[4]); ok {
			out[fbxString(p.Properties[0])] = f
		}
	}
	return out
}

// fbxGeometry reads control points and fan-triangulates the polygon index list.
// A negative index closes its polygon and encodes the real index as its bitwise complement.
func fbxGeometry(obj *fbxNode) (*scene.Geometry, error) {
	verts := fbxFloats(obj.Child("Vertices").prop(0))
	polys := fbxInts(obj.Child("PolygonVertexIndex").prop(0))
	if len(verts) < 9 || len(polys) < 3 {
		return nil, nil
	}
	count := len(verts) / 3

	g := &scene.Geometry{Positions: make([]mgl32.Vec3, count)}
	for i := range g.Positions {
		g.Positions[i] = mgl32.Vec3{float32(verts[i*3]), float32(verts[i*3+1]), float32(verts[i*3+2])}
	}

	var polygon []uint32
	for _, raw := range polys {
		end := raw < 0
		if end {
			raw = ^raw
		}
		if raw >= int64(count) || raw > math.MaxUint32 {
			return nil, fmt.Errorf("polygon index %d out of range for %d vertices", raw, count)
		}
		polygon = append(polygon, uint32(raw))
		if !end {
			continue
		}
		for k := 1; k+1 < len(polygon); k++ {
			g.Indices = append(g.Indices, polygon[0], polygon[k], polygon[k+1])
		}
		polygon = polygon[:0]
	}
	if len(g.Indices) == 0 {
		return nil, nil
	}
	g.Normals = generateNormals(g.Positions, g.Indices)
	return g, nil
}
