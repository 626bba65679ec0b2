package loader

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-stage/engine/animator"
	"github.com/Carmen-Shannon/oxy-stage/engine/loader/loadertest"
)

func TestImportGLTFDataURI(t *testing.T) {
	model := loadertest.Model{Clips: 2}
	for name, data := range map[string][]byte{
		"gltf": loadertest.GLTF(model),
		"glb":  loadertest.GLB(model),
	} {
		t.Run(name, func(t *testing.T) {
			parsed, err := importGLTF("pyramid", data, nil)
			if err != nil {
				t.Fatalf("import: %v", err)
			}
			hips := parsed.root.Find("Hips")
			body := parsed.root.Find("Body")
			if hips == nil || body == nil || body.Parent() != hips {
				t.Fatalf("expected Hips > Body hierarchy")
			}
			if parsed.root.MeshCount() != 1 {
				t.Fatalf("mesh count = %d, want 1", parsed.root.MeshCount())
			}
			mesh := body.Meshes[0]
			if got := len(mesh.Geometry.Indices); got != 18 {
				t.Fatalf("indices = %d, want 18", got)
			}
			if len(mesh.Geometry.Normals) != 5 {
				t.Fatalf("normals = %d, want generated 5", len(mesh.Geometry.Normals))
			}
			if mesh.Material.Name != "Skin" || math.Abs(float64(mesh.Material.Roughness-0.7)) > 1e-6 {
				t.Fatalf("material = %+v", mesh.Material)
			}

			if len(parsed.clips) != 2 {
				t.Fatalf("clips = %d, want 2", len(parsed.clips))
			}
			for i, clip := range parsed.clips {
				if clip.Index != i {
					t.Errorf("clip %d index = %d", i, clip.Index)
				}
				if want := float32(1 + i); clip.Duration != want {
					t.Errorf("clip %d duration = %v, want %v", i, clip.Duration, want)
				}
				if len(clip.Tracks) != 2 {
					t.Fatalf("clip %d tracks = %d, want 2", i, len(clip.Tracks))
				}
				if clip.Tracks[0].Target != body || clip.Tracks[0].Path != animator.PathRotation {
					t.Errorf("clip %d first track should rotate Body", i)
				}
				if clip.Tracks[1].Target != hips || clip.Tracks[1].Path != animator.PathTranslation {
					t.Errorf("clip %d second track should translate Hips", i)
				}
			}
			if parsed.clips[0].Name != "mixamorig_Idle" {
				t.Errorf("clip 0 name = %q", parsed.clips[0].Name)
			}
		})
	}
}

func TestImportGLTFSkinned(t *testing.T) {
	parsed, err := importGLTF("pyramid", loadertest.GLB(loadertest.Model{Skinned: true}), nil)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	body := parsed.root.Find("Body")
	if !body.Meshes[0].Skinned() {
		t.Fatal("expected a skinned mesh")
	}
	if body.Meshes[0].Skin.Joints[0] != parsed.root.Find("Hips") {
		t.Fatal("skin joint should bind to Hips")
	}
}

func TestImportGLTFExternalBuffer(t *testing.T) {
	js, bin := loadertest.GLTFExternal(loadertest.Model{}, "pyramid.bin")
	var asked string
	parsed, err := importGLTF("pyramid", js, func(uri string) ([]byte, error) {
		asked = uri
		return bin, nil
	})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if asked != "pyramid.bin" {
		t.Fatalf("resolver asked for %q", asked)
	}
	if parsed.root.MeshCount() != 1 {
		t.Fatalf("mesh count = %d", parsed.root.MeshCount())
	}
}

func TestImportGLTFRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "not json", data: []byte("{")},
		{name: "wrong version", data: []byte(`{"asset":{"version":"1.0"}}`)},
		{name: "bad glb", data: []byte("glTF\x01\x00\x00\x00\x00\x00\x00\x00")},
		{name: "required extension", data: []byte(`{"asset":{"version":"2.0"},"extensionsRequired":["KHR_draco_mesh_compression"]}`)},
		{name: "external buffer without resolver", data: func() []byte {
			js, _ := loadertest.GLTFExternal(loadertest.Model{}, "x.bin")
			return js
		}()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := importGLTF("bad", tt.data, nil); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}
