package animator

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-stage/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

func approx(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-4
}

func translationClip(name string, target *scene.Node, x0, x1 float32) *Clip {
	c := &Clip{
		Name: name,
		Tracks: []Track{{
			Target: target,
			Path:   PathTranslation,
			Times:  []float32{0, 1},
			Values: []float32{x0, 0, 0, x1, 0, 0},
		}},
	}
	c.Duration = c.ComputeDuration()
	return c
}

func TestTrackSampleLinearAndStep(t *testing.T) {
	n := scene.NewNode("bone")
	tr := Track{Target: n, Path: PathTranslation, Times: []float32{0, 2}, Values: []float32{0, 0, 0, 4, 2, 0}}
	if err := tr.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	dst := make([]float32, 3)
	tr.sample(1, dst)
	if !approx(dst[0], 2) || !approx(dst[1], 1) {
		t.Errorf("linear sample = %v, want [2 1 0]", dst)
	}

	tr.Interpolation = InterpolationStep
	tr.sample(1.9, dst)
	if dst[0] != 0 {
		t.Errorf("step sample = %v, want first key", dst)
	}

	tr.sample(5, dst)
	if dst[0] != 4 {
		t.Errorf("sample past end = %v, want last key", dst)
	}
}

func TestTrackSampleRotationShortestArc(t *testing.T) {
	n := scene.NewNode("bone")
	a := mgl32.QuatRotate(0, mgl32.Vec3{0, 1, 0})
	b := mgl32.QuatRotate(math.Pi/2, mgl32.Vec3{0, 1, 0}).Scale(-1)
	tr := Track{
		Target: n, Path: PathRotation, Times: []float32{0, 1},
		Values: []float32{a.V[0], a.V[1], a.V[2], a.W, b.V[0], b.V[1], b.V[2], b.W},
	}
	dst := make([]float32, 4)
	tr.sample(0.5, dst)
	got := quatFrom(dst)
	want := mgl32.QuatRotate(math.Pi/4, mgl32.Vec3{0, 1, 0})
	if math.Abs(float64(got.Dot(want))) < 0.9999 {
		t.Errorf("rotation sample = %v, want ±%v", got, want)
	}
}

func TestTrackValidate(t *testing.T) {
	n := scene.NewNode("bone")
	bad := Track{Target: n, Path: PathRotation, Times: []float32{0, 1}, Values: []float32{0, 0, 0, 1}}
	if err := bad.Validate(); err == nil {
		t.Fatal("expected error for short rotation values")
	}
	if err := (&Track{Path: PathScale, Times: []float32{0}, Values: []float32{1, 1, 1}}).Validate(); err == nil {
		t.Fatal("expected error for missing target")
	}
}

func TestMixerPlaysSingleClip(t *testing.T) {
	root := scene.NewNode("root")
	bone := scene.NewNode("bone")
	root.Add(bone)
	clip := translationClip("walk", bone, 0, 10)

	m := NewMixer(root)
	m.ClipAction(clip).Play()
	m.Update(0.5)
	if !approx(bone.Position[0], 5) {
		t.Fatalf("bone x = %v, want 5", bone.Position[0])
	}

	// Loops at the clip duration.
	m.Update(0.75)
	if !approx(bone.Position[0], 2.5) {
		t.Fatalf("bone x after loop = %v, want 2.5", bone.Position[0])
	}
}

func TestMixerCrossfadeSettlesToOneWeight(t *testing.T) {
	root := scene.NewNode("root")
	bone := scene.NewNode("bone")
	root.Add(bone)
	idle := translationClip("idle", bone, 1, 1)
	wave := translationClip("wave", bone, 3, 3)

	m := NewMixer(root)
	a := m.ClipAction(idle).Play()
	m.Update(0.1)

	a.FadeOut(0.3)
	b := m.ClipAction(wave).Reset().FadeIn(0.3).Play()

	m.Update(0.15)
	if !approx(a.Weight(), 0.5) || !approx(b.Weight(), 0.5) {
		t.Fatalf("mid-fade weights = %v, %v; want 0.5, 0.5", a.Weight(), b.Weight())
	}
	if !approx(bone.Position[0], 2) {
		t.Errorf("blended x = %v, want 2", bone.Position[0])
	}

	m.Update(0.2)
	nonZero := 0
	for _, act := range m.Actions() {
		if act.Weight() > 0 {
			nonZero++
		}
	}
	if nonZero != 1 {
		t.Fatalf("actions with weight > 0 = %d, want 1", nonZero)
	}
	if b.Weight() != 1 || a.IsRunning() {
		t.Errorf("after settle: wave weight %v, idle running %v", b.Weight(), a.IsRunning())
	}
	if !approx(bone.Position[0], 3) {
		t.Errorf("settled x = %v, want 3", bone.Position[0])
	}
}

func TestMixerIgnoresForeignTracksAndRestores(t *testing.T) {
	root := scene.NewNode("root")
	bone := scene.NewNode("bone")
	bone.Position = mgl32.Vec3{7, 0, 0}
	root.Add(bone)
	stranger := scene.NewNode("elsewhere")

	clip := translationClip("walk", bone, 0, 10)
	clip.Tracks = append(clip.Tracks, Track{
		Target: stranger, Path: PathTranslation, Times: []float32{0}, Values: []float32{9, 9, 9},
	})

	m := NewMixer(root)
	m.ClipAction(clip).Play()
	m.Update(0.5)
	if stranger.Position[0] != 0 {
		t.Fatalf("mixer wrote to a node outside its root")
	}
	m.StopAll()
	if bone.Position[0] != 7 {
		t.Errorf("StopAll restored x = %v, want 7", bone.Position[0])
	}
	if m.ClipAction(clip) != m.ClipAction(clip) {
		t.Error("ClipAction must cache per clip")
	}
}

func TestResetRestoresFullWeight(t *testing.T) {
	bone := scene.NewNode("bone")
	m := NewMixer(bone)
	a := m.ClipAction(translationClip("wave", bone, 0, 1)).FadeIn(0.4).Play()
	m.Update(0.1)
	if !a.IsFading() || !approx(a.Weight(), 0.25) {
		t.Fatalf("weight = %v mid-fade, want 0.25", a.Weight())
	}

	a.Reset()
	if a.IsFading() || a.Weight() != 1 || a.Time() != 0 {
		t.Fatalf("after reset: fading %v weight %v time %v", a.IsFading(), a.Weight(), a.Time())
	}
	m.Update(1)
	if a.Weight() != 1 {
		t.Fatalf("weight drifted to %v", a.Weight())
	}
}
