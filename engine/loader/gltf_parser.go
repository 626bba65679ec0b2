package loader

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
)

// Parse errors. Every one of them sends the stage to the placeholder.
var (
	errInvalidGLTFVersion = errors.New("invalid glTF version: must be 2.0")
	errInvalidGLBMagic    = errors.New("invalid GLB magic number")
	errInvalidGLBVersion  = errors.New("invalid GLB version: must be 2")
	errMissingJSONChunk   = errors.New("GLB file missing JSON chunk")
	errInvalidBufferURI   = errors.New("invalid buffer URI")
	errBufferSizeMismatch = errors.New("buffer size mismatch")
	errAccessorRange      = errors.New("accessor reads past end of buffer")
)

// maxAccessorBytes bounds the decoded size of one accessor.
const maxAccessorBytes = 256 << 20

// bufferResolver fetches the bytes behind an external buffer URI relative to the asset.
type bufferResolver func(uri string) ([]byte, error)

// gltfParser decodes a glTF JSON document or GLB container and reads typed accessor data.
type gltfParser struct {
	document       *gltfDocument
	glbBinaryChunk []byte
	resolve        bufferResolver
}

// newGLTFParser creates a parser. resolve may be nil when only data URIs and GLB chunks are expected.
func newGLTFParser(resolve bufferResolver) *gltfParser {
	return &gltfParser{resolve: resolve}
}

// isGLB reports whether data starts with the GLB magic.
func isGLB(data []byte) bool {
	return len(data) >= 4 && binary.LittleEndian.Uint32(data[:4]) == gltfGLBMagic
}

// Parse decodes data, sniffing GLB by its magic number.
//
// Parameters:
//   - data: the complete file contents
//
// Returns:
//   - error: error if the data is not a valid glTF 2.0 asset
func (p *gltfParser) Parse(data []byte) error {
	if isGLB(data) {
		return p.parseGLB(data)
	}
	return p.parseGLTF(data)
}

// Document returns the decoded document, or nil before a successful Parse.
func (p *gltfParser) Document() *gltfDocument {
	return p.document
}

func (p *gltfParser) parseGLTF(data []byte) error {
	var doc gltfDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse glTF JSON: %w", err)
	}
	return p.finish(&doc)
}

func (p *gltfParser) parseGLB(data []byte) error {
	if len(data) < 12 {
		return errors.New("GLB file too small")
	}

	r := bytes.NewReader(data)

	var header gltfGLBHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("failed to read GLB header: %w", err)
	}
	if header.Magic != gltfGLBMagic {
		return errInvalidGLBMagic
	}
	if header.Version != gltfGLBVersion {
		return errInvalidGLBVersion
	}

	var jsonData []byte
	var binData []byte

	for {
		var chunkHeader gltfGLBChunkHeader
		if err := binary.Read(r, binary.LittleEndian, &chunkHeader); err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("failed to read chunk header: %w", err)
		}
		if int64(chunkHeader.ChunkLength) > int64(r.Len()) {
			return fmt.Errorf("chunk length %d exceeds remaining %d bytes", chunkHeader.ChunkLength, r.Len())
		}

		chunkData := make([]byte, chunkHeader.ChunkLength)
		if _, err := io.ReadFull(r, chunkData); err != nil {
			return fmt.Errorf("failed to read chunk data: %w", err)
		}

		switch chunkHeader.ChunkType {
		case gltfGLBChunkJSON:
			jsonData = chunkData
		case gltfGLBChunkBIN:
			binData = chunkData
		}
	}

	if jsonData == nil {
		return errMissingJSONChunk
	}
	p.glbBinaryChunk = binData

	var doc gltfDocument
	if err := json.Unmarshal(bytes.TrimRight(jsonData, " \x00"), &doc); err != nil {
		return fmt.Errorf("failed to parse glTF JSON: %w", err)
	}
	return p.finish(&doc)
}

func (p *gltfParser) finish(doc *gltfDocument) error {
	if !strings.HasPrefix(doc.Asset.Version, "2.") {
		return errInvalidGLTFVersion
	}
	if len(doc.ExtensionsRequired) > 0 {
		return fmt.Errorf("required extensions %v are not supported", doc.ExtensionsRequired)
	}
	if err := p.loadBuffers(doc); err != nil {
		return fmt.Errorf("failed to load buffers: %w", err)
	}
	p.document = doc
	return nil
}

// loadBuffers fills every buffer from the GLB chunk, a data URI or the resolver.
func (p *gltfParser) loadBuffers(doc *gltfDocument) error {
	for i := range doc.Buffers {
		buf := &doc.Buffers[i]

		switch {
		case buf.URI == "" && i == 0 && p.glbBinaryChunk != nil:
			buf.Data = p.glbBinaryChunk
		case buf.URI == "":
			return fmt.Errorf("buffer %d has no URI and no GLB binary chunk", i)
		case strings.HasPrefix(buf.URI, "data:"):
			data, err := decodeDataURI(buf.URI)
			if err != nil {
				return fmt.Errorf("buffer %d: %w", i, err)
			}
			buf.Data = data
		default:
			if p.resolve == nil {
				return fmt.Errorf("buffer %d: external URI %q with no resolver", i, buf.URI)
			}
			data, err := p.resolve(buf.URI)
			if err != nil {
				return fmt.Errorf("buffer %d: %w", i, err)
			}
			buf.Data = data
		}

		if len(buf.Data) < buf.ByteLength {
			return fmt.Errorf("buffer %d: %w", i, errBufferSizeMismatch)
		}
	}
	return nil
}

// decodeDataURI decodes a base64 data URI.
// Format: data:[<mediatype>][;base64],<data>
func decodeDataURI(uri string) ([]byte, error) {
	commaIdx := strings.Index(uri, ",")
	if commaIdx < 0 {
		return nil, errInvalidBufferURI
	}

	header := uri[5:commaIdx]
	if !strings.Contains(header, "base64") {
		return nil, fmt.Errorf("unsupported data URI encoding: %s", header)
	}

	data, err := base64.StdEncoding.DecodeString(uri[commaIdx+1:])
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64: %w", err)
	}
	return data, nil
}

// --- Accessor Data Reading ---

// accessor returns the accessor at index after bounds-checking it.
func (p *gltfParser) accessor(index int) (*gltfAccessor, error) {
	if p.document == nil {
		return nil, errors.New("no document loaded")
	}
	if index < 0 || index >= len(p.document.Accessors) {
		return nil, fmt.Errorf("accessor index %d out of range", index)
	}
	return &p.document.Accessors[index], nil
}

// readAccessorData reads tightly-packed element bytes for an accessor, honoring byteStride.
// Accessors without a bufferView read as zeros, as the format requires.
func (p *gltfParser) readAccessorData(index int) ([]byte, *gltfAccessor, error) {
	acc, err := p.accessor(index)
	if err != nil {
		return nil, nil, err
	}
	if acc.Sparse != nil {
		return nil, nil, errors.New("sparse accessors not supported")
	}

	componentSize := gltfComponentTypeSize(acc.ComponentType)
	componentCount := gltfAccessorTypeComponentCount(acc.Type)
	elementSize := componentSize * componentCount
	if elementSize == 0 {
		return nil, nil, fmt.Errorf("accessor %d: unsupported type %s/%d", index, acc.Type, acc.ComponentType)
	}

	if acc.Count < 0 || acc.ByteOffset < 0 {
		return nil, nil, fmt.Errorf("accessor %d: negative count or offset: %w", index, errAccessorRange)
	}
	if acc.Count > maxAccessorBytes/elementSize {
		return nil, nil, fmt.Errorf("accessor %d: %d elements exceed the size limit: %w", index, acc.Count, errAccessorRange)
	}
	if acc.BufferView == nil {
		return make([]byte, acc.Count*elementSize), acc, nil
	}
	if *acc.BufferView < 0 || *acc.BufferView >= len(p.document.BufferViews) {
		return nil, nil, fmt.Errorf("accessor %d: bufferView %d out of range", index, *acc.BufferView)
	}
	bv := &p.document.BufferViews[*acc.BufferView]
	if bv.Buffer < 0 || bv.Buffer >= len(p.document.Buffers) {
		return nil, nil, fmt.Errorf("bufferView %d: buffer %d out of range", *acc.BufferView, bv.Buffer)
	}
	buf := &p.document.Buffers[bv.Buffer]

	stride := elementSize
	if bv.ByteStride != nil && *bv.ByteStride > 0 {
		stride = *bv.ByteStride
	}

	// The last element must end inside both the view and the buffer.
	bufferOffset := bv.ByteOffset + acc.ByteOffset
	if bv.ByteOffset < 0 || bv.ByteLength < 0 || bv.ByteOffset+bv.ByteLength > len(buf.Data) {
		return nil, nil, fmt.Errorf("bufferView %d: %w", *acc.BufferView, errAccessorRange)
	}
	if acc.Count > 0 {
		if acc.Count-1 > (bv.ByteLength-acc.ByteOffset-elementSize)/stride || acc.ByteOffset+elementSize > bv.ByteLength {
			return nil, nil, fmt.Errorf("accessor %d: %d elements overrun bufferView %d: %w", index, acc.Count, *acc.BufferView, errAccessorRange)
		}
	}

	result := make([]byte, acc.Count*elementSize)
	for i := 0; i < acc.Count; i++ {
		src := bufferOffset + i*stride
		if src+elementSize > len(buf.Data) {
			return nil, nil, fmt.Errorf("accessor %d: %w", index, errAccessorRange)
		}
		copy(result[i*elementSize:(i+1)*elementSize], buf.Data[src:src+elementSize])
	}
	return result, acc, nil
}

// readFloats reads an accessor as float32 components, dequantizing normalized integers.
//
// Parameters:
//   - index: the accessor index
//   - wantType: the required accessor type (SCALAR, VEC3, ...)
//
// Returns:
//   - []float32: flat component data, Count*components long
//   - error: error if the accessor has the wrong shape
func (p *gltfParser) readFloats(index int, wantType string) ([]float32, error) {
	data, acc, err := p.readAccessorData(index)
	if err != nil {
		return nil, err
	}
	if acc.Type != wantType {
		return nil, fmt.Errorf("accessor %d is %s, want %s", index, acc.Type, wantType)
	}

	if acc.ComponentType != gltfComponentTypeFloat && !acc.Normalized {
		return nil, fmt.Errorf("accessor %d: integer data must be normalized", index)
	}

	n := acc.Count * gltfAccessorTypeComponentCount(acc.Type)
	out := make([]float32, n)
	switch acc.ComponentType {
	case gltfComponentTypeFloat:
		for i := range out {
			out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
		}
	case gltfComponentTypeUnsignedByte:
		for i := range out {
			out[i] = float32(data[i]) / 255
		}
	case gltfComponentTypeUnsignedShort:
		for i := range out {
			out[i] = float32(binary.LittleEndian.Uint16(data[i*2:])) / 65535
		}
	case gltfComponentTypeByte:
		for i := range out {
			out[i] = max(float32(int8(data[i]))/127, -1)
		}
	case gltfComponentTypeShort:
		for i := range out {
			out[i] = max(float32(int16(binary.LittleEndian.Uint16(data[i*2:])))/32767, -1)
		}
	default:
		return nil, fmt.Errorf("accessor %d: unsupported float component type %d", index, acc.ComponentType)
	}
	return out, nil
}

// readUints reads an integer accessor (indices or joints) widened to uint32.
func (p *gltfParser) readUints(index int, wantType string) ([]uint32, error) {
	data, acc, err := p.readAccessorData(index)
	if err != nil {
		return nil, err
	}
	if acc.Type != wantType {
		return nil, fmt.Errorf("accessor %d is %s, want %s", index, acc.Type, wantType)
	}

	n := acc.Count * gltfAccessorTypeComponentCount(acc.Type)
	out := make([]uint32, n)
	switch acc.ComponentType {
	case gltfComponentTypeUnsignedByte:
		for i := range out {
			out[i] = uint32(data[i])
		}
	case gltfComponentTypeUnsignedShort:
		for i := range out {
			out[i] = uint32(binary.LittleEndian.Uint16(data[i*2:]))
		}
	case gltfComponentTypeUnsignedInt:
		for i := range out {
			out[i] = binary.LittleEndian.Uint32(data[i*4:])
		}
	default:
		return nil, fmt.Errorf("accessor %d: unsupported integer component type %d", index, acc.ComponentType)
	}
	return out, nil
}

// --- Helper Functions ---

// gltfComponentTypeSize returns the byte size of a component type.
func gltfComponentTypeSize(componentType int) int {
	switch componentType {
	case gltfComponentTypeByte, gltfComponentTypeUnsignedByte:
		return 1
	case gltfComponentTypeShort, gltfComponentTypeUnsignedShort:
		return 2
	case gltfComponentTypeUnsignedInt, gltfComponentTypeFloat:
		return 4
	default:
		return 0
	}
}

// gltfAccessorTypeComponentCount returns the number of components for an accessor type.
func gltfAccessorTypeComponentCount(accessorType string) int {
	switch accessorType {
	case gltfAccessorTypeScalar:
		return 1
	case gltfAccessorTypeVec2:
		return 2
	case gltfAccessorTypeVec3:
		return 3
	case gltfAccessorTypeVec4, gltfAccessorTypeMat2:
		return 4
	case gltfAccessorTypeMat3:
		return 9
	case gltfAccessorTypeMat4:
		return 16
	default:
		return 0
	}
}
