package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-stage/common"
)

func TestClassifyModelPath(t *testing.T) {
	tests := []struct {
		path string
		want AssetKind
	}{
		{"girl.glb", AssetGLTF},
		{"models/man.GLTF", AssetGLTF},
		{"https://cdn.example.com/a/hero.glb?v=3#top", AssetGLTF},
		{"file:///srv/assets/hero.gltf", AssetGLTF},
		{"dance.fbx", AssetSkeletal},
		{"https://cdn.example.com/a/hero.fbx?glb=1", AssetSkeletal},
		{"noextension", AssetSkeletal},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := ClassifyModelPath(tt.path); got != tt.want {
				t.Errorf("ClassifyModelPath(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	base := Descriptor{ID: "omen", Color: "#a855f7", ModelPath: "man.glb", Skills: map[string]int{"logic": 70}}

	v, err := Validate(base)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if v.Asset() != AssetGLTF {
		t.Errorf("asset = %v, want gltf", v.Asset())
	}
	want, _ := common.ParseHexColor("#a855f7")
	if v.RGB() != want {
		t.Errorf("color = %+v, want %+v", v.RGB(), want)
	}
	if base.Asset() != AssetUnknown {
		t.Error("Validate must not mutate its input")
	}

	tests := []struct {
		name   string
		mutate func(d *Descriptor)
		want   error
	}{
		{"missing id", func(d *Descriptor) { d.ID = " " }, ErrMissingID},
		{"missing model", func(d *Descriptor) { d.ModelPath = "" }, ErrMissingModelPath},
		{"bad color", func(d *Descriptor) { d.Color = "purple" }, common.ErrInvalidColor},
		{"skill too high", func(d *Descriptor) { d.Skills = map[string]int{"logic": 101} }, ErrSkillOutOfRange},
		{"skill negative", func(d *Descriptor) { d.Skills = map[string]int{"logic": -1} }, ErrSkillOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := base
			tt.mutate(&d)
			if _, err := Validate(d); !errors.Is(err, tt.want) {
				t.Errorf("Validate error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDefaultCatalog(t *testing.T) {
	ds := Default()
	if len(ds) != 4 {
		t.Fatalf("default catalog has %d characters, want 4", len(ds))
	}
	first := ds[0]
	if first.ID != "catherine-mercy" || !first.IsPremium || first.Price != 25 {
		t.Errorf("first descriptor = %+v", first)
	}
	if first.Skills["tracking"] != 98 {
		t.Errorf("tracking skill = %d, want 98", first.Skills["tracking"])
	}
	for _, d := range ds {
		if d.Asset() != AssetGLTF {
			t.Errorf("%s asset = %v, want gltf", d.ID, d.Asset())
		}
	}
	if Find(ds, "kairos") != 3 || Find(ds, "nobody") != -1 {
		t.Error("Find returned the wrong index")
	}
}

func TestLoadRejectsDuplicates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	doc := `characters:
  - {id: a, color: "#fff", modelPath: a.glb}
  - {id: a, color: "#000", modelPath: b.fbx}
`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("Load error = %v, want ErrDuplicateID", err)
	}
}

func TestLoadWithPosition(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	doc := `characters:
  - id: dancer
    color: "#22d3ee"
    modelPath: moves/dance.fbx
    position: {x: 0.5, y: 0, z: -1}
`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}
	ds, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ds[0].Asset() != AssetSkeletal {
		t.Errorf("asset = %v, want skeletal", ds[0].Asset())
	}
	if off := ds[0].Offset(); off.X != 0.5 || off.Z != -1 {
		t.Errorf("offset = %+v", off)
	}
}

func TestFormatAnimationName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"mixamorig_IdleBreathing", "Idle Breathing"},
		{"Character_Wave", "Wave"},
		{"walk_cycle", "Walk cycle"},
		{"runFast", "Run Fast"},
		{"", "Animation"},
		{"mixamorig_", "Animation"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := FormatAnimationName(tt.in); got != tt.want {
				t.Errorf("FormatAnimationName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
