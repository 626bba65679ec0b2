package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-stage/common"
	"github.com/Carmen-Shannon/oxy-stage/engine/animator"
	"github.com/Carmen-Shannon/oxy-stage/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// gltfImporter turns a parsed glTF document into a scene node tree plus animation clips.
type gltfImporter struct {
	parser    *gltfParser
	doc       *gltfDocument
	nodes     []*scene.Node
	materials []*scene.Material
}

// importGLTF parses data (glTF JSON or GLB) and builds the model.
//
// Parameters:
//   - name: the name given to the returned root node
//   - data: the file contents
//   - resolve: fetches external buffers, may be nil
//
// Returns:
//   - *parsedModel: the model root and its clips
//   - error: error if parsing or extraction fails
func importGLTF(name string, data []byte, resolve bufferResolver) (*parsedModel, error) {
	parser := newGLTFParser(resolve)
	if err := parser.Parse(data); err != nil {
		return nil, err
	}

	imp := &gltfImporter{parser: parser, doc: parser.Document()}
	imp.extractMaterials()
	if err := imp.extractNodes(); err != nil {
		return nil, err
	}

	root := scene.NewNode(name)
	roots, err := imp.sceneRoots()
	if err != nil {
		return nil, err
	}
	for _, idx := range roots {
		root.Add(imp.nodes[idx])
	}

	if err := imp.extractMeshes(); err != nil {
		return nil, err
	}

	clips := make([]*animator.Clip, 0, len(imp.doc.Animations))
	for i := range imp.doc.Animations {
		clip, err := imp.extractAnimation(i)
		if err != nil {
			return nil, err
		}
		clip.Index = len(clips)
		clips = append(clips, clip)
	}

	return &parsedModel{root: root, clips: clips}, nil
}

func (imp *gltfImporter) extractMaterials() {
	imp.materials = make([]*scene.Material, len(imp.doc.Materials))
	for i, src := range imp.doc.Materials {
		name := src.Name
		if name == "" {
			name = fmt.Sprintf("material_%d", i)
		}
		mat := scene.NewMaterial(name)
		mat.Metalness = 1
		if pbr := src.PbrMetallicRoughness; pbr != nil {
			if f := pbr.BaseColorFactor; f != nil {
				mat.Color = common.Color{R: f[0], G: f[1], B: f[2]}
				mat.Opacity = f[3]
			}
			if pbr.MetallicFactor != nil {
				mat.Metalness = *pbr.MetallicFactor
			}
			if pbr.RoughnessFactor != nil {
				mat.Roughness = *pbr.RoughnessFactor
			}
		}
		if e := src.EmissiveFactor; e != nil {
			mat.Emissive = common.Color{R: e[0], G: e[1], B: e[2]}
			mat.EmissiveIntensity = 1
		}
		mat.Transparent = src.AlphaMode == "BLEND"
		mat.DoubleSided = src.DoubleSided
		imp.materials[i] = mat
	}
}

// extractNodes creates one scene node per glTF node and links the hierarchy.
func (imp *gltfImporter) extractNodes() error {
	imp.nodes = make([]*scene.Node, len(imp.doc.Nodes))
	for i := range imp.doc.Nodes {
		src := &imp.doc.Nodes[i]
		name := src.Name
		if name == "" {
			name = fmt.Sprintf("node_%d", i)
		}
		n := scene.NewNode(name)
		if src.Matrix != nil {
			n.Position, n.Rotation, n.Scale = decomposeMatrix(mgl32.Mat4(*src.Matrix))
		} else {
			if t := src.Translation; t != nil {
				n.Position = mgl32.Vec3(*t)
			}
			if r := src.Rotation; r != nil {
				n.Rotation = mgl32.Quat{W: r[3], V: mgl32.Vec3{r[0], r[1], r[2]}}.Normalize()
			}
			if s := src.Scale; s != nil {
				n.Scale = mgl32.Vec3(*s)
			}
		}
		imp.nodes[i] = n
	}

	for i := range imp.doc.Nodes {
		for _, c := range imp.doc.Nodes[i].Children {
			if c < 0 || c >= len(imp.nodes) || c == i {
				return fmt.Errorf("node %d: invalid child %d", i, c)
			}
			if imp.nodes[c].Parent() != nil || imp.nodes[c].Contains(imp.nodes[i]) {
				return fmt.Errorf("node %d: child %d already has a parent or forms a cycle", i, c)
			}
			imp.nodes[i].Add(imp.nodes[c])
		}
	}
	return nil
}

// sceneRoots returns the root node indices of the default scene, or every parentless node
// when the document declares no scenes.
func (imp *gltfImporter) sceneRoots() ([]int, error) {
	if len(imp.doc.Scenes) > 0 {
		s := 0
		if imp.doc.Scene != nil {
			s = *imp.doc.Scene
		}
		if s < 0 || s >= len(imp.doc.Scenes) {
			return nil, fmt.Errorf("scene index %d out of range", s)
		}
		for _, idx := range imp.doc.Scenes[s].Nodes {
			if idx < 0 || idx >= len(imp.nodes) {
				return nil, fmt.Errorf("scene %d: node %d out of range", s, idx)
			}
		}
		return imp.doc.Scenes[s].Nodes, nil
	}

	var roots []int
	for i, n := range imp.nodes {
		if n.Parent() == nil {
			roots = append(roots, i)
		}
	}
	return roots, nil
}

// extractMeshes attaches every node's mesh primitives, with its skin when present.
func (imp *gltfImporter) extractMeshes() error {
	for i := range imp.doc.Nodes {
		src := &imp.doc.Nodes[i]
		if src.Mesh == nil {
			continue
		}
		if *src.Mesh < 0 || *src.Mesh >= len(imp.doc.Meshes) {
			return fmt.Errorf("node %d: mesh %d out of range", i, *src.Mesh)
		}

		var skin *scene.Skin
		if src.Skin != nil {
			var err error
			if skin, err = imp.extractSkin(*src.Skin); err != nil {
				return err
			}
		}

		mesh := &imp.doc.Meshes[*src.Mesh]
		for p := range mesh.Primitives {
			m, err := imp.extractPrimitive(&mesh.Primitives[p], mesh.Name, p)
			if err != nil {
				return fmt.Errorf("mesh %d primitive %d: %w", *src.Mesh, p, err)
			}
			if m == nil {
				continue
			}
			if skin != nil && len(m.Geometry.Weights) > 0 {
				m.Skin = skin
			}
			imp.nodes[i].Meshes = append(imp.nodes[i].Meshes, m)
		}
	}
	return nil
}

// extractPrimitive reads one triangle primitive. Non-triangle primitives return nil and are skipped.
func (imp *gltfImporter) extractPrimitive(prim *gltfPrimitive, meshName string, primIndex int) (*scene.Mesh, error) {
	if prim.Mode != nil && *prim.Mode != gltfPrimitiveModeTriangles {
		return nil, nil
	}

	posAccessor, ok := prim.Attributes["POSITION"]
	if !ok {
		return nil, fmt.Errorf("primitive has no POSITION attribute")
	}
	raw, err := imp.parser.readFloats(posAccessor, gltfAccessorTypeVec3)
	if err != nil {
		return nil, fmt.Errorf("failed to read positions: %w", err)
	}
	count := len(raw) / 3
	geom := &scene.Geometry{Positions: make([]mgl32.Vec3, count)}
	for i := range geom.Positions {
		geom.Positions[i] = vec3(raw, i)
	}

	if prim.Indices != nil {
		if geom.Indices, err = imp.parser.readUints(*prim.Indices, gltfAccessorTypeScalar); err != nil {
			return nil, fmt.Errorf("failed to read indices: %w", err)
		}
		for _, idx := range geom.Indices {
			if int(idx) >= count {
				return nil, fmt.Errorf("index %d out of range for %d vertices", idx, count)
			}
		}
	} else {
		geom.Indices = sequentialIndices(count)
	}

	if normalAccessor, ok := prim.Attributes["NORMAL"]; ok {
		normals, err := imp.parser.readFloats(normalAccessor, gltfAccessorTypeVec3)
		if err != nil {
			return nil, fmt.Errorf("failed to read normals: %w", err)
		}
		if len(normals)/3 == count {
			geom.Normals = make([]mgl32.Vec3, count)
			for i := range geom.Normals {
				geom.Normals[i] = vec3(normals, i)
			}
		}
	}
	if geom.Normals == nil {
		geom.Normals = generateNormals(geom.Positions, geom.Indices)
	}

	jointsAccessor, hasJoints := prim.Attributes["JOINTS_0"]
	weightsAccessor, hasWeights := prim.Attributes["WEIGHTS_0"]
	if hasJoints && hasWeights {
		joints, err := imp.parser.readUints(jointsAccessor, gltfAccessorTypeVec4)
		if err != nil {
			return nil, fmt.Errorf("failed to read joints: %w", err)
		}
		weights, err := imp.parser.readFloats(weightsAccessor, gltfAccessorTypeVec4)
		if err != nil {
			return nil, fmt.Errorf("failed to read weights: %w", err)
		}
		if len(joints) == count*4 && len(weights) == count*4 {
			geom.Joints = make([][4]uint16, count)
			geom.Weights = make([][4]float32, count)
			for i := 0; i < count; i++ {
				for k := 0; k < 4; k++ {
					geom.Joints[i][k] = uint16(joints[i*4+k])
					geom.Weights[i][k] = weights[i*4+k]
				}
			}
		}
	}

	name := meshName
	if name == "" {
		name = "mesh"
	}
	if primIndex > 0 {
		name = fmt.Sprintf("%s_prim%d", name, primIndex)
	}

	mat := scene.NewMaterial("default")
	if prim.Material != nil {
		if *prim.Material < 0 || *prim.Material >= len(imp.materials) {
			return nil, fmt.Errorf("material %d out of range", *prim.Material)
		}
		mat = imp.materials[*prim.Material]
	}

	return &scene.Mesh{Name: name, Geometry: geom, Material: mat}, nil
}

func (imp *gltfImporter) extractSkin(index int) (*scene.Skin, error) {
	if index < 0 || index >= len(imp.doc.Skins) {
		return nil, fmt.Errorf("skin %d out of range", index)
	}
	src := &imp.doc.Skins[index]

	skin := &scene.Skin{
		Joints:      make([]*scene.Node, len(src.Joints)),
		InverseBind: make([]mgl32.Mat4, len(src.Joints)),
	}
	for j, idx := range src.Joints {
		if idx < 0 || idx >= len(imp.nodes) {
			return nil, fmt.Errorf("skin %d: joint node %d out of range", index, idx)
		}
		skin.Joints[j] = imp.nodes[idx]
		skin.InverseBind[j] = mgl32.Ident4()
	}

	if src.InverseBindMatrices != nil {
		mats, err := imp.parser.readFloats(*src.InverseBindMatrices, gltfAccessorTypeMat4)
		if err != nil {
			return nil, fmt.Errorf("skin %d: failed to read inverse bind matrices: %w", index, err)
		}
		for j := range skin.InverseBind {
			if (j+1)*16 > len(mats) {
				break
			}
			copy(skin.InverseBind[j][:], mats[j*16:(j+1)*16])
		}
	}
	return skin, nil
}

func (imp *gltfImporter) extractAnimation(index int) (*animator.Clip, error) {
	anim := &imp.doc.Animations[index]

	name := anim.Name
	if name == "" {
		name = fmt.Sprintf("animation_%d", index)
	}
	clip := &animator.Clip{Name: name}

	for i := range anim.Channels {
		ch := &anim.Channels[i]
		if ch.Target.Node == nil || ch.Target.Path == gltfAnimPathWeights {
			continue
		}
		if *ch.Target.Node < 0 || *ch.Target.Node >= len(imp.nodes) {
			return nil, fmt.Errorf("animation %q channel %d: node %d out of range", name, i, *ch.Target.Node)
		}
		if ch.Sampler < 0 || ch.Sampler >= len(anim.Samplers) {
			return nil, fmt.Errorf("animation %q channel %d: invalid sampler index %d", name, i, ch.Sampler)
		}
		sampler := &anim.Samplers[ch.Sampler]

		track := animator.Track{Target: imp.nodes[*ch.Target.Node]}
		outputType := gltfAccessorTypeVec3
		switch ch.Target.Path {
		case gltfAnimPathTranslation:
			track.Path = animator.PathTranslation
		case gltfAnimPathRotation:
			track.Path = animator.PathRotation
			outputType = gltfAccessorTypeVec4
		case gltfAnimPathScale:
			track.Path = animator.PathScale
		default:
			continue
		}

		switch sampler.Interpolation {
		case "", gltfInterpolationLinear:
			track.Interpolation = animator.InterpolationLinear
		case gltfInterpolationStep:
			track.Interpolation = animator.InterpolationStep
		case gltfInterpolationCubicSpline:
			track.Interpolation = animator.InterpolationCubicSpline
		default:
			return nil, fmt.Errorf("animation %q channel %d: unknown interpolation %q", name, i, sampler.Interpolation)
		}

		var err error
		if track.Times, err = imp.parser.readFloats(sampler.Input, gltfAccessorTypeScalar); err != nil {
			return nil, fmt.Errorf("animation %q channel %d: failed to read timestamps: %w", name, i, err)
		}
		if track.Values, err = imp.parser.readFloats(sampler.Output, outputType); err != nil {
			return nil, fmt.Errorf("animation %q channel %d: failed to read values: %w", name, i, err)
		}
		if err := track.Validate(); err != nil {
			return nil, fmt.Errorf("animation %q channel %d: %w", name, i, err)
		}
		clip.Tracks = append(clip.Tracks, track)
	}

	clip.Duration = clip.ComputeDuration()
	return clip, nil
}
