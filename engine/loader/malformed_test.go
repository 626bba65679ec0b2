package loader

import (
	"bytes"
	"compress/zlib"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"io"
	"log"
	"os"
	"testing"

	"github.com/Carmen-Shannon/oxy-stage/engine"
	"github.com/Carmen-Shannon/oxy-stage/engine/catalog"
	"github.com/Carmen-Shannon/oxy-stage/engine/loader/loadertest"
)

// memoryFetcher serves one in-memory file for every uri.
type memoryFetcher struct {
	data []byte
}

func (m memoryFetcher) Fetch(context.Context, string) ([]byte, error) {
	return m.data, nil
}

func (m memoryFetcher) Resolve(uri string) string {
	return uri
}

// loadBytes runs the full Load path over data served as modelPath.
func loadBytes(t *testing.T, modelPath string, data []byte) *Asset {
	t.Helper()
	l := NewLoader(WithFetcher(memoryFetcher{data: data}))
	asset, err := l.Load(context.Background(), descriptor(t, modelPath), Options{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if asset == nil || asset.Root == nil {
		t.Fatal("load returned no asset")
	}
	return asset
}

// patchAccessor rewrites one field of the first accessor of a glTF JSON document.
func patchAccessor(t *testing.T, field string, value any) []byte {
	t.Helper()
	var doc map[string]any
	if err := json.Unmarshal(loadertest.GLTF(loadertest.Model{Clips: 1}), &doc); err != nil {
		t.Fatalf("unmarshal fixture: %v", err)
	}
	doc["accessors"].([]any)[0].(map[string]any)[field] = value
	out, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return out
}

func TestGLTFAccessorOutOfRange(t *testing.T) {
	cases := []struct {
		name  string
		field string
		value any
	}{
		{"negative count", "count", -1},
		{"huge count", "count", 1 << 40},
		{"count past view", "count", 1000},
		{"offset past view", "byteOffset", 1 << 20},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			data := patchAccessor(t, c.field, c.value)
			if _, err := importGLTF("broken", data, nil); !errors.Is(err, errAccessorRange) {
				t.Fatalf("err = %v, want errAccessorRange", err)
			}
			if a := loadBytes(t, "broken.gltf", data); !a.Placeholder || a.Err == nil {
				t.Fatalf("placeholder=%v err=%v", a.Placeholder, a.Err)
			}
		})
	}
}

// fbxArray encodes a zlib array property body claiming count elements.
func fbxArray(count uint32, payload []byte) []byte {
	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	_, _ = zw.Write(payload)
	_ = zw.Close()

	out := binary.LittleEndian.AppendUint32(nil, count)
	out = binary.LittleEndian.AppendUint32(out, 1)
	out = binary.LittleEndian.AppendUint32(out, uint32(compressed.Len()))
	return append(out, compressed.Bytes()...)
}

func TestFBXArrayCountBounded(t *testing.T) {
	for name, count := range map[string]uint32{
		"beyond ratio": 1 << 20,
		"beyond limit": 0xFFFFFFFF,
	} {
		t.Run(name, func(t *testing.T) {
			r := &fbxReader{data: fbxArray(count, make([]byte, 16))}
			if _, err := r.readArray('d'); !errors.Is(err, errFBXArraySize) {
				t.Fatalf("err = %v, want errFBXArraySize", err)
			}
		})
	}

	r := &fbxReader{data: fbxArray(4, make([]byte, 16))}
	v, err := r.readArray('f')
	if err != nil {
		t.Fatalf("valid array: %v", err)
	}
	if got := len(v.([]float32)); got != 4 {
		t.Fatalf("len = %d, want 4", got)
	}
}

// mutate returns a copy of data with a few bytes overwritten by a deterministic stream.
func mutate(data []byte, seed uint64) []byte {
	out := append([]byte(nil), data...)
	x := seed*2654435761 + 1
	next := func() uint64 {
		x ^= x << 13
		x ^= x >> 7
		x ^= x << 17
		return x
	}
	n := 1 + int(next()%4)
	for i := 0; i < n; i++ {
		pos := int(next() % uint64(len(out)))
		switch next() % 3 {
		case 0:
			out[pos] = byte(next())
		case 1:
			out[pos] = 0xFF
		default:
			out[pos] ^= 0x80
		}
	}
	return out
}

func TestCorruptFilesFallBackToPlaceholder(t *testing.T) {
	log.SetOutput(io.Discard)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	model := loadertest.Model{Clips: 2, Skinned: true}
	for _, fixture := range []struct {
		path string
		data []byte
	}{
		{"hero.fbx", loadertest.FBX(model)},
		{"hero.glb", loadertest.GLB(model)},
	} {
		t.Run(fixture.path, func(t *testing.T) {
			for cut := 0; cut < len(fixture.data); cut += 7 {
				loadBytes(t, fixture.path, fixture.data[:cut])
			}
			for seed := uint64(1); seed <= 1500; seed++ {
				a := loadBytes(t, fixture.path, mutate(fixture.data, seed))
				if a.Placeholder && a.Err == nil {
					t.Fatalf("seed %d: placeholder without a cause", seed)
				}
			}
		})
	}
}

// panicLoader stands in for a loader with a crashing importer.
type panicLoader struct{}

func (panicLoader) Load(context.Context, catalog.Descriptor, Options) (*Asset, error) {
	panic("index out of range")
}

func TestAsyncRecoversLoaderPanic(t *testing.T) {
	h := engine.NewHost(engine.WithFrameRate(0))
	a := NewAsync(h, panicLoader{}, 1)

	var got *Asset
	a.Request(context.Background(), descriptor(t, "a.glb"), Options{}, func(asset *Asset) { got = asset })
	if !stepUntil(h, func() bool { return got != nil }) {
		t.Fatal("completion never delivered")
	}
	if !got.Placeholder || !errors.Is(got.Err, ErrMalformedAsset) {
		t.Fatalf("placeholder=%v err=%v", got.Placeholder, got.Err)
	}
}
