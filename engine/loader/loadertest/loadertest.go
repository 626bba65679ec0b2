// Package loadertest synthesizes small model files for tests: a glTF/GLB pyramid with
// optional animation clips and skin, and a binary FBX equivalent.
package loadertest

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"math"
)

// Model describes the fixture to generate.
type Model struct {
	// Height of the pyramid in source units. Zero means 2.
	Height float32
	// Offset moves the pyramid's base center away from the origin.
	Offset [3]float32
	// Clips is the number of animation clips; clip i lasts 1+i seconds.
	Clips int
	// ClipNames overrides the generated clip names when long enough.
	ClipNames []string
	// Skinned binds the mesh to a single joint.
	Skinned bool
}

func (m Model) height() float32 {
	if m.Height == 0 {
		return 2
	}
	return m.Height
}

// positions returns the five pyramid vertices: a unit square base and an apex.
func (m Model) positions() []float32 {
	h := m.height()
	ox, oy, oz := m.Offset[0], m.Offset[1], m.Offset[2]
	return []float32{
		ox - 0.5, oy, oz - 0.5,
		ox + 0.5, oy, oz - 0.5,
		ox + 0.5, oy, oz + 0.5,
		ox - 0.5, oy, oz + 0.5,
		ox, oy + h, oz,
	}
}

var pyramidIndices = []uint16{
	0, 2, 1, 0, 3, 2,
	0, 1, 4, 1, 2, 4, 2, 3, 4, 3, 0, 4,
}

func (m Model) clipName(i int) string {
	if i < len(m.ClipNames) {
		return m.ClipNames[i]
	}
	return []string{"mixamorig_Idle", "characterWaveHello", "Run"}[i%3]
}

type bufferBuilder struct {
	buf   bytes.Buffer
	views []map[string]any
	accs  []map[string]any
}

func (b *bufferBuilder) align() {
	for b.buf.Len()%4 != 0 {
		b.buf.WriteByte(0)
	}
}

func (b *bufferBuilder) floats(values []float32, typ string, count int, minMax bool) int {
	b.align()
	offset := b.buf.Len()
	for _, v := range values {
		_ = binary.Write(&b.buf, binary.LittleEndian, math.Float32bits(v))
	}
	b.views = append(b.views, map[string]any{"buffer": 0, "byteOffset": offset, "byteLength": len(values) * 4})
	acc := map[string]any{"bufferView": len(b.views) - 1, "componentType": 5126, "count": count, "type": typ}
	if minMax {
		acc["min"] = []float32{values[0]}
		acc["max"] = []float32{values[len(values)-1]}
	}
	b.accs = append(b.accs, acc)
	return len(b.accs) - 1
}

func (b *bufferBuilder) ushorts(values []uint16, typ string, count int) int {
	b.align()
	offset := b.buf.Len()
	for _, v := range values {
		_ = binary.Write(&b.buf, binary.LittleEndian, v)
	}
	b.views = append(b.views, map[string]any{"buffer": 0, "byteOffset": offset, "byteLength": len(values) * 2})
	b.accs = append(b.accs, map[string]any{"bufferView": len(b.views) - 1, "componentType": 5123, "count": count, "type": typ})
	return len(b.accs) - 1
}

// document builds the glTF JSON object and its binary buffer.
func (m Model) document() (map[string]any, []byte) {
	b := &bufferBuilder{}
	pos := b.floats(m.positions(), "VEC3", 5, false)
	idx := b.ushorts(pyramidIndices, "SCALAR", len(pyramidIndices))

	attributes := map[string]any{"POSITION": pos}
	if m.Skinned {
		attributes["JOINTS_0"] = b.ushorts(make([]uint16, 5*4), "VEC4", 5)
		weights := make([]float32, 0, 20)
		for i := 0; i < 5; i++ {
			weights = append(weights, 1, 0, 0, 0)
		}
		attributes["WEIGHTS_0"] = b.floats(weights, "VEC4", 5, false)
	}

	body := map[string]any{"name": "Body", "mesh": 0}
	nodes := []any{
		map[string]any{"name": "Hips", "children": []int{1}, "translation": []float32{0, 0, 0}},
		body,
	}
	doc := map[string]any{
		"asset":  map[string]any{"version": "2.0", "generator": "loadertest"},
		"scene":  0,
		"scenes": []any{map[string]any{"nodes": []int{0}}},
		"meshes": []any{map[string]any{
			"name": "Pyramid",
			"primitives": []any{map[string]any{
				"attributes": attributes,
				"indices":    idx,
				"material":   0,
			}},
		}},
		"materials": []any{map[string]any{
			"name": "Skin",
			"pbrMetallicRoughness": map[string]any{
				"baseColorFactor": []float32{0.8, 0.6, 0.4, 1},
				"metallicFactor":  0.1,
				"roughnessFactor": 0.7,
			},
		}},
	}
	if m.Skinned {
		body["skin"] = 0
		ibm := b.floats([]float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}, "MAT4", 1, false)
		doc["skins"] = []any{map[string]any{"joints": []int{0}, "inverseBindMatrices": ibm}}
	}

	var anims []any
	for i := 0; i < m.Clips; i++ {
		end := float32(1 + i)
		times := b.floats([]float32{0, end}, "SCALAR", 2, true)
		half := float32(math.Sin(math.Pi / 4))
		rot := b.floats([]float32{0, 0, 0, 1, 0, half, 0, half}, "VEC4", 2, false)
		tr := b.floats([]float32{0, 0, 0, 0, 0.1, 0}, "VEC3", 2, false)
		anims = append(anims, map[string]any{
			"name": m.clipName(i),
			"samplers": []any{
				map[string]any{"input": times, "output": rot, "interpolation": "LINEAR"},
				map[string]any{"input": times, "output": tr},
			},
			"channels": []any{
				map[string]any{"sampler": 0, "target": map[string]any{"node": 1, "path": "rotation"}},
				map[string]any{"sampler": 1, "target": map[string]any{"node": 0, "path": "translation"}},
			},
		})
	}
	if len(anims) > 0 {
		doc["animations"] = anims
	}

	doc["nodes"] = nodes
	doc["bufferViews"] = b.views
	doc["accessors"] = b.accs
	b.align()
	return doc, b.buf.Bytes()
}

// GLTF returns a .gltf JSON file with its buffer embedded as a base64 data URI.
func GLTF(m Model) []byte {
	doc, bin := m.document()
	doc["buffers"] = []any{map[string]any{
		"byteLength": len(bin),
		"uri":        "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(bin),
	}}
	out, _ := json.Marshal(doc)
	return out
}

// GLTFExternal returns a .gltf JSON file referencing its buffer at bufferURI, plus the buffer bytes.
func GLTFExternal(m Model, bufferURI string) ([]byte, []byte) {
	doc, bin := m.document()
	doc["buffers"] = []any{map[string]any{"byteLength": len(bin), "uri": bufferURI}}
	out, _ := json.Marshal(doc)
	return out, bin
}

// GLB returns the same model packed as a binary glTF container.
func GLB(m Model) []byte {
	doc, bin := m.document()
	doc["buffers"] = []any{map[string]any{"byteLength": len(bin)}}
	js, _ := json.Marshal(doc)
	for len(js)%4 != 0 {
		js = append(js, ' ')
	}

	var out bytes.Buffer
	total := 12 + 8 + len(js) + 8 + len(bin)
	_ = binary.Write(&out, binary.LittleEndian, [3]uint32{0x46546C67, 2, uint32(total)})
	_ = binary.Write(&out, binary.LittleEndian, [2]uint32{uint32(len(js)), 0x4E4F534A})
	out.Write(js)
	_ = binary.Write(&out, binary.LittleEndian, [2]uint32{uint32(len(bin)), 0x004E4942})
	out.Write(bin)
	return out.Bytes()
}

// --- FBX ---

// fbxRecord is one node of a synthesized FBX tree.
type fbxRecord struct {
	name     string
	props    []any
	children []*fbxRecord
}

func rec(name string, props []any, children ...*fbxRecord) *fbxRecord {
	return &fbxRecord{name: name, props: props, children: children}
}

// fbxCompressed marks an array property to be zlib-encoded.
type fbxCompressed struct {
	v any
}

func p70(entries ...*fbxRecord) *fbxRecord {
	return rec("Properties70", nil, entries...)
}

func pVec(name string, x, y, z float64) *fbxRecord {
	return rec("P", []any{name, name, "", "A", x, y, z})
}

// FBX returns a binary FBX 7.4 file with the pyramid under one model and m.Clips
// animation stacks, each translating the model along X.
func FBX(m Model) []byte {
	pos := m.positions()
	verts := make([]float64, len(pos))
	for i, v := range pos {
		verts[i] = float64(v)
	}
	// Square base as one quad, then four triangle sides.
	polys := []int32{0, 1, 2, ^int32(3), 0, 1, ^int32(4), 1, 2, ^int32(4), 2, 3, ^int32(4), 3, 0, ^int32(4)}

	objects := []*fbxRecord{
		rec("Model", []any{int64(100), "Body\x00\x01Model", "Mesh"},
			p70(pVec("Lcl Translation", 0, 0, 0), pVec("Lcl Rotation", 0, 0, 0), pVec("Lcl Scaling", 1, 1, 1)),
		),
		rec("Geometry", []any{int64(200), "Pyramid\x00\x01Geometry", "Mesh"},
			rec("Vertices", []any{fbxCompressed{verts}}),
			rec("PolygonVertexIndex", []any{polys}),
		),
		rec("Material", []any{int64(300), "Skin\x00\x01Material", ""},
			p70(rec("P", []any{"DiffuseColor", "Color", "", "A", 0.2, 0.4, 0.6})),
		),
	}
	conns := []*fbxRecord{
		rec("C", []any{"OO", int64(100), int64(0)}),
		rec("C", []any{"OO", int64(200), int64(100)}),
		rec("C", []any{"OO", int64(300), int64(100)}),
	}

	for i := 0; i < m.Clips; i++ {
		base := int64(1000 * (i + 1))
		end := int64(1+i) * 46186158000
		objects = append(objects,
			rec("AnimationStack", []any{base, m.clipName(i) + "\x00\x01AnimStack", ""}),
			rec("AnimationLayer", []any{base + 1, "BaseLayer\x00\x01AnimLayer", ""}),
			rec("AnimationCurveNode", []any{base + 2, "T\x00\x01AnimCurveNode", ""},
				p70(
					rec("P", []any{"d|X", "Number", "", "A", 0.0}),
					rec("P", []any{"d|Y", "Number", "", "A", 0.0}),
					rec("P", []any{"d|Z", "Number", "", "A", 0.0}),
				),
			),
			rec("AnimationCurve", []any{base + 3, "\x00\x01AnimCurve", ""},
				rec("KeyTime", []any{[]int64{0, end}}),
				rec("KeyValueFloat", []any{[]float32{0, 0.5}}),
			),
		)
		conns = append(conns,
			rec("C", []any{"OO", base + 1, base}),
			rec("C", []any{"OO", base + 2, base + 1}),
			rec("C", []any{"OP", base + 2, int64(100), "Lcl Translation"}),
			rec("C", []any{"OP", base + 3, base + 2, "d|X"}),
		)
	}

	top := []*fbxRecord{
		rec("FBXHeaderExtension", nil, rec("FBXVersion", []any{int32(7400)})),
		rec("Objects", nil, objects...),
		rec("Connections", nil, conns...),
	}

	var out bytes.Buffer
	out.WriteString("Kaydara FBX Binary  \x00")
	out.Write([]byte{0x1A, 0x00})
	_ = binary.Write(&out, binary.LittleEndian, uint32(7400))
	for _, r := range top {
		writeRecord(&out, r)
	}
	out.Write(make([]byte, 13))
	return out.Bytes()
}

// FBXASCII returns the start of an ASCII FBX file, which the loader rejects.
func FBXASCII() []byte {
	return []byte("; FBX 7.4.0 project file\nFBXHeaderExtension:  {\n}\n")
}

func writeRecord(out *bytes.Buffer, r *fbxRecord) {
	var props bytes.Buffer
	for _, p := range r.props {
		writeProperty(&props, p)
	}

	start := out.Len()
	// Placeholder end offset, patched once children are written.
	_ = binary.Write(out, binary.LittleEndian, uint32(0))
	_ = binary.Write(out, binary.LittleEndian, uint32(len(r.props)))
	_ = binary.Write(out, binary.LittleEndian, uint32(props.Len()))
	out.WriteByte(byte(len(r.name)))
	out.WriteString(r.name)
	out.Write(props.Bytes())
	if len(r.children) > 0 {
		for _, c := range r.children {
			writeRecord(out, c)
		}
		out.Write(make([]byte, 13))
	}
	binary.LittleEndian.PutUint32(out.Bytes()[start:], uint32(out.Len()))
}

func writeProperty(out *bytes.Buffer, p any) {
	compress := false
	if c, ok := p.(fbxCompressed); ok {
		compress = true
		p = c.v
	}
	switch v := p.(type) {
	case string:
		out.WriteByte('S')
		_ = binary.Write(out, binary.LittleEndian, uint32(len(v)))
		out.WriteString(v)
	case int32:
		out.WriteByte('I')
		_ = binary.Write(out, binary.LittleEndian, v)
	case int64:
		out.WriteByte('L')
		_ = binary.Write(out, binary.LittleEndian, v)
	case float64:
		out.WriteByte('D')
		_ = binary.Write(out, binary.LittleEndian, v)
	case []float64:
		writeArray(out, 'd', len(v), v, compress)
	case []float32:
		writeArray(out, 'f', len(v), v, compress)
	case []int64:
		writeArray(out, 'l', len(v), v, compress)
	case []int32:
		writeArray(out, 'i', len(v), v, compress)
	}
}

func writeArray(out *bytes.Buffer, code byte, count int, data any, compress bool) {
	var raw bytes.Buffer
	_ = binary.Write(&raw, binary.LittleEndian, data)
	payload := raw.Bytes()
	encoding := uint32(0)
	if compress {
		var z bytes.Buffer
		zw := zlib.NewWriter(&z)
		_, _ = zw.Write(payload)
		_ = zw.Close()
		payload = z.Bytes()
		encoding = 1
	}
	out.WriteByte(code)
	_ = binary.Write(out, binary.LittleEndian, uint32(count))
	_ = binary.Write(out, binary.LittleEndian, encoding)
	_ = binary.Write(out, binary.LittleEndian, uint32(len(payload)))
	out.Write(payload)
}
