package loader

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-stage/engine/animator"
	"github.com/Carmen-Shannon/oxy-stage/engine/loader/loadertest"
)

func TestParseFBXTree(t *testing.T) {
	doc, err := parseFBX(loadertest.FBX(loadertest.Model{Clips: 1}))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if doc.Version != 7400 {
		t.Fatalf("version = %d, want 7400", doc.Version)
	}
	objects := doc.Find("Objects")
	if objects == nil {
		t.Fatal("missing Objects")
	}
	geom := objects.Child("Geometry")
	if geom == nil {
		t.Fatal("missing Geometry")
	}
	if verts := fbxFloats(geom.Child("Vertices").prop(0)); len(verts) != 15 {
		t.Fatalf("inflated vertices = %d floats, want 15", len(verts))
	}
	if doc.Find("Connections") == nil {
		t.Fatal("missing Connections")
	}
}

func TestImportFBX(t *testing.T) {
	parsed, err := importFBX("pyramid.fbx", loadertest.FBX(loadertest.Model{Clips: 2}))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	body := parsed.root.Find("Body")
	if body == nil || body.Parent() != parsed.root {
		t.Fatal("expected Body under the root")
	}
	if len(body.Meshes) != 1 {
		t.Fatalf("meshes = %d, want 1", len(body.Meshes))
	}
	mesh := body.Meshes[0]
	if got := len(mesh.Geometry.Indices); got != 18 {
		t.Fatalf("indices = %d, want 18 (quad fan + 4 sides)", got)
	}
	if mesh.Material.Name != "Skin" || mesh.Material.Color.B < 0.59 {
		t.Fatalf("material = %+v", mesh.Material)
	}

	if len(parsed.clips) != 2 {
		t.Fatalf("clips = %d, want 2", len(parsed.clips))
	}
	clip := parsed.clips[1]
	if clip.Name != "characterWaveHello" || clip.Index != 1 {
		t.Fatalf("clip = %q index %d", clip.Name, clip.Index)
	}
	if clip.Duration < 1.999 || clip.Duration > 2.001 {
		t.Fatalf("duration = %v, want 2", clip.Duration)
	}
	if len(clip.Tracks) != 1 {
		t.Fatalf("tracks = %d, want 1", len(clip.Tracks))
	}
	tr := clip.Tracks[0]
	if tr.Target != body || tr.Path != animator.PathTranslation {
		t.Fatalf("track should translate Body, got %v on %q", tr.Path, tr.Target.Name)
	}
	if tr.Values[3] != 0.5 {
		t.Fatalf("last X = %v, want 0.5", tr.Values[3])
	}
	if err := tr.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestParseFBXRejectsASCII(t *testing.T) {
	if _, err := parseFBX(loadertest.FBXASCII()); !errors.Is(err, errFBXNotBinary) {
		t.Fatalf("err = %v, want errFBXNotBinary", err)
	}
}

func TestParseFBXRejectsTruncated(t *testing.T) {
	data := loadertest.FBX(loadertest.Model{})
	if _, err := parseFBX(data[:60]); err == nil {
		t.Fatal("expected truncated file to fail")
	}
}

func TestEulerXYZ(t *testing.T) {
	q := eulerXYZ([3]float32{0, 90, 0})
	v := q.Rotate([3]float32{1, 0, 0})
	if v[2] > -0.999 {
		t.Fatalf("90° about Y should map +X to -Z, got %v", v)
	}
}
