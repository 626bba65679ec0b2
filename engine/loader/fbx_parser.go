package loader

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// FBX binary layout.
// Reference: https://code.blender.org/2013/08/fbx-binary-file-format-specification/
const (
	fbxMagic          = "Kaydara FBX Binary  \x00"
	fbxHeaderLen      = 27
	fbxMinVersion     = 7000
	fbxLargeRecordVer = 7500

	// fbxTicksPerSecond converts KTime values to seconds.
	fbxTicksPerSecond = 46186158000

	// maxFBXArrayBytes bounds the decoded size of one array property.
	maxFBXArrayBytes = 256 << 20

	// zlibMaxRatio is deflate's worst-case expansion of compressed bytes.
	zlibMaxRatio = 1032
)

var (
	errFBXNotBinary = errors.New("not a binary FBX file (ASCII FBX is not supported)")
	errFBXVersion   = errors.New("unsupported FBX version")
	errFBXTruncated = errors.New("truncated FBX record")
	errFBXArraySize = errors.New("FBX array size out of range")
)

// fbxNode is one record of the FBX node tree.
type fbxNode struct {
	Name       string
	Properties []any
	Children   []*fbxNode
}

// Child returns the first child named name, or nil.
func (n *fbxNode) Child(name string) *fbxNode {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// prop returns property i, or nil when out of range.
func (n *fbxNode) prop(i int) any {
	if n == nil || i < 0 || i >= len(n.Properties) {
		return nil
	}
	return n.Properties[i]
}

// fbxDocument is a parsed binary FBX file: its version and top-level records.
type fbxDocument struct {
	Version uint32
	Nodes   []*fbxNode
}

// Find returns the first top-level record named name, or nil.
func (d *fbxDocument) Find(name string) *fbxNode {
	for _, n := range d.Nodes {
		if n.Name == name {
			return n
		}
	}
	return nil
}

// fbxReader walks the binary record stream.
type fbxReader struct {
	data    []byte
	pos     int
	version uint32
}

// isFBXBinary reports whether data starts with the binary FBX magic.
func isFBXBinary(data []byte) bool {
	return len(data) >= len(fbxMagic) && string(data[:len(fbxMagic)]) == fbxMagic
}

// parseFBX decodes a binary FBX file into its node tree.
//
// Parameters:
//   - data: the complete file contents
//
// Returns:
//   - *fbxDocument: the decoded tree
//   - error: error if the file is not a supported binary FBX
func parseFBX(data []byte) (*fbxDocument, error) {
	if !isFBXBinary(data) {
		return nil, errFBXNotBinary
	}
	if len(data) < fbxHeaderLen {
		return nil, errFBXTruncated
	}
	version := binary.LittleEndian.Uint32(data[23:27])
	if version < fbxMinVersion || version >= 8000 {
		return nil, fmt.Errorf("%w: %d", errFBXVersion, version)
	}

	r := &fbxReader{data: data, pos: fbxHeaderLen, version: version}
	doc := &fbxDocument{Version: version}
	for {
		n, err := r.readNode()
		if err != nil {
			return nil, err
		}
		if n == nil {
			break
		}
		doc.Nodes = append(doc.Nodes, n)
	}
	return doc, nil
}

func (r *fbxReader) need(n int) error {
	if n < 0 || r.pos+n > len(r.data) {
		return errFBXTruncated
	}
	return nil
}

func (r *fbxReader) u8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.data[r.pos]
	r.pos++
	return v, nil
}

func (r *fbxReader) u32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *fbxReader) u64() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(r.data[r.pos:])
	r.pos += 8
	return v, nil
}

// recordField reads one of the three leading record fields: 32-bit before 7.5, 64-bit after.
func (r *fbxReader) recordField() (uint64, error) {
	if r.version >= fbxLargeRecordVer {
		return r.u64()
	}
	v, err := r.u32()
	return uint64(v), err
}

// readNode reads one record and its nested children. It returns nil at a null record
// (end of the enclosing list) or at the end of the data.
func (r *fbxReader) readNode() (*fbxNode, error) {
	if r.pos >= len(r.data) {
		return nil, nil
	}
	endOffset, err := r.recordField()
	if err != nil {
		// Trailing footer bytes shorter than a record header end the list.
		return nil, nil
	}
	numProps, err1 := r.recordField()
	_, err2 := r.recordField()
	nameLen, err3 := r.u8()
	if endOffset == 0 {
		return nil, nil
	}
	if err := errors.Join(err1, err2, err3); err != nil {
		return nil, err
	}
	if endOffset > uint64(len(r.data)) || endOffset <= uint64(r.pos) {
		return nil, fmt.Errorf("%w: end offset %d at %d", errFBXTruncated, endOffset, r.pos)
	}
	if err := r.need(int(nameLen)); err != nil {
		return nil, err
	}
	n := &fbxNode{Name: string(r.data[r.pos : r.pos+int(nameLen)])}
	r.pos += int(nameLen)

	if numProps > uint64(len(r.data)-r.pos) {
		return nil, errFBXTruncated
	}
	n.Properties = make([]any, 0, numProps)
	for i := uint64(0); i < numProps; i++ {
		p, err := r.readProperty()
		if err != nil {
			return nil, fmt.Errorf("record %q property %d: %w", n.Name, i, err)
		}
		n.Properties = append(n.Properties, p)
	}

	for uint64(r.pos) < endOffset {
		child, err := r.readNode()
		if err != nil {
			return nil, err
		}
		if child == nil {
			break
		}
		n.Children = append(n.Children, child)
	}
	r.pos = int(endOffset)
	return n, nil
}

func (r *fbxReader) readProperty() (any, error) {
	code, err := r.u8()
	if err != nil {
		return nil, err
	}
	switch code {
	case 'Y':
		if err := r.need(2); err != nil {
			return nil, err
		}
		v := int16(binary.LittleEndian.Uint16(r.data[r.pos:]))
		r.pos += 2
		return v, nil
	case 'C':
		v, err := r.u8()
		return v != 0, err
	case 'I':
		v, err := r.u32()
		return int32(v), err
	case 'F':
		v, err := r.u32()
		return math.Float32frombits(v), err
	case 'D':
		v, err := r.u64()
		return math.Float64frombits(v), err
	case 'L':
		v, err := r.u64()
		return int64(v), err
	case 'S', 'R':
		length, err := r.u32()
		if err != nil {
			return nil, err
		}
		if err := r.need(int(length)); err != nil {
			return nil, err
		}
		raw := r.data[r.pos : r.pos+int(length)]
		r.pos += int(length)
		if code == 'S' {
			return string(raw), nil
		}
		return append([]byte(nil), raw...), nil
	case 'f', 'd', 'l', 'i', 'b':
		return r.readArray(code)
	default:
		return nil, fmt.Errorf("unknown property type %q", code)
	}
}

// readArray reads a typed array property, inflating zlib-encoded payloads.
func (r *fbxReader) readArray(code byte) (any, error) {
	count, err := r.u32()
	if err != nil {
		return nil, err
	}
	encoding, err := r.u32()
	if err != nil {
		return nil, err
	}
	compressedLen, err := r.u32()
	if err != nil {
		return nil, err
	}
	if err := r.need(int(compressedLen)); err != nil {
		return nil, err
	}
	payload := r.data[r.pos : r.pos+int(compressedLen)]
	r.pos += int(compressedLen)

	elem := map[byte]int{'f': 4, 'd': 8, 'l': 8, 'i': 4, 'b': 1}[code]
	if uint64(count)*uint64(elem) > maxFBXArrayBytes {
		return nil, fmt.Errorf("array of %d elements exceeds the size limit: %w", count, errFBXArraySize)
	}
	want := int(count) * elem

	switch encoding {
	case 0:
	case 1:
		if want > int(compressedLen)*zlibMaxRatio+zlibMaxRatio {
			return nil, fmt.Errorf("array claims %d bytes from %d compressed: %w", want, compressedLen, errFBXArraySize)
		}
		zr, err := zlib.NewReader(bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("inflate array: %w", err)
		}
		inflated := make([]byte, want)
		_, err = io.ReadFull(zr, inflated)
		_ = zr.Close()
		if err != nil {
			return nil, fmt.Errorf("inflate array: %w", err)
		}
		payload = inflated
	default:
		return nil, fmt.Errorf("unknown array encoding %d", encoding)
	}
	if len(payload) < want {
		return nil, errFBXTruncated
	}

	switch code {
	case 'f':
		out := make([]float32, count)
		for i := range out {
			out[i] = math.Float32frombits(binary.LittleEndian.Uint32(payload[i*4:]))
		}
		return out, nil
	case 'd':
		out := make([]float64, count)
		for i := range out {
			out[i] = math.Float64frombits(binary.LittleEndian.Uint64(payload[i*8:]))
		}
		return out, nil
	case 'l':
		out := make([]int64, count)
		for i := range out {
			out[i] = int64(binary.LittleEndian.Uint64(payload[i*8:]))
		}
		return out, nil
	case 'i':
		out := make([]int32, count)
		for i := range out {
			out[i] = int32(binary.LittleEndian.Uint32(payload[i*4:]))
		}
		return out, nil
	default:
		out := make([]bool, count)
		for i := range out {
			out[i] = payload[i] != 0
		}
		return out, nil
	}
}

// --- Property coercion ---

func fbxInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int32:
		return int64(x), true
	case int16:
		return int64(x), true
	}
	return 0, false
}

func fbxFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int64:
		return float64(x), true
	case int32:
		return float64(x), true
	}
	return 0, false
}

func fbxString(v any) string {
	s, _ := v.(string)
	return s
}

func fbxFloats(v any) []float64 {
	switch x := v.(type) {
	case []float64:
		return x
	case []float32:
		out := make([]float64, len(x))
		for i, f := range x {
			out[i] = float64(f)
		}
		return out
	}
	return nil
}

func fbxInts(v any) []int64 {
	switch x := v.(type) {
	case []int64:
		return x
	case []int32:
		out := make([]int64, len(x))
		for i, n := range x {
			out[i] = int64(n)
		}
		return out
	}
	return nil
}
