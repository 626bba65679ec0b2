package stage

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-stage/engine/animator"
	"github.com/Carmen-Shannon/oxy-stage/engine/scene"
	"github.com/Carmen-Shannon/oxy-stage/engine/tween"
)

func testClips(root *scene.Node, n int) []*animator.Clip {
	clips := make([]*animator.Clip, n)
	for i := range clips {
		clips[i] = &animator.Clip{
			Name:     []string{"Idle", "Wave", "Run"}[i%3],
			Duration: 1,
			Index:    i,
			Tracks: []animator.Track{{
				Target: root,
				Path:   animator.PathTranslation,
				Times:  []float32{0, 1},
				Values: []float32{0, 0, 0, float32(i + 1), 0, 0},
			}},
		}
	}
	return clips
}

// nonZeroWeights counts the clips of c whose action currently contributes.
func nonZeroWeights(c Controller) int {
	n := 0
	for _, clip := range c.Clips() {
		if c.Mixer().ClipAction(clip).Weight() > 0 {
			n++
		}
	}
	return n
}

func TestControllerClipPlaybackStartsAtFirstClip(t *testing.T) {
	tw := tween.NewEngine()
	c := NewController(tw, true)
	root := scene.NewNode("model")
	c.Bind(root, testClips(root, 2))

	if c.State() != StateClipPlayback {
		t.Fatalf("state = %s, want clip-playback", c.State())
	}
	if c.Index() != 0 || c.Current() == nil || !c.Current().IsRunning() {
		t.Fatalf("index %d, current %v", c.Index(), c.Current())
	}
	if c.RotationTween() != nil || tw.ActiveCount() != 0 {
		t.Fatal("clip playback must not run an idle rotation")
	}
}

func TestControllerNextWrapsAndCrossfades(t *testing.T) {
	c := NewController(tween.NewEngine(), true)
	root := scene.NewNode("model")
	c.Bind(root, testClips(root, 2))

	want := []int{1, 0, 1}
	for i, w := range want {
		if got := c.Next(); got != w {
			t.Fatalf("next #%d = %d, want %d", i+1, got, w)
		}
		c.Update(CrossfadeDuration + 0.01)
		if n := nonZeroWeights(c); n != 1 {
			t.Fatalf("after crossfade #%d: %d actions with weight, want 1", i+1, n)
		}
	}
}

func TestControllerReplayDuringCrossfadeRestoresFullWeight(t *testing.T) {
	c := NewController(tween.NewEngine(), true)
	root := scene.NewNode("model")
	clips := testClips(root, 2)
	c.Bind(root, clips)

	c.Next()
	c.Update(CrossfadeDuration / 2)
	if got := c.Select(1); got != 1 {
		t.Fatalf("select = %d, want 1", got)
	}
	for i := 0; i < 20; i++ {
		c.Update(0.1)
	}

	if w := c.Mixer().ClipAction(clips[1]).Weight(); w != 1 {
		t.Fatalf("replayed clip weight = %v after settling, want 1", w)
	}
	if n := nonZeroWeights(c); n != 1 {
		t.Fatalf("%d actions with weight, want 1", n)
	}
}

func TestControllerCrossfadeMidway(t *testing.T) {
	c := NewController(tween.NewEngine(), true)
	root := scene.NewNode("model")
	clips := testClips(root, 2)
	c.Bind(root, clips)

	c.Next()
	c.Update(CrossfadeDuration / 2)
	if n := nonZeroWeights(c); n != 2 {
		t.Fatalf("mid crossfade: %d actions with weight, want 2", n)
	}
	out := c.Mixer().ClipAction(clips[0])
	if w := out.Weight(); w <= 0 || w >= 1 {
		t.Fatalf("outgoing weight = %v, want between 0 and 1", w)
	}
}

func TestControllerNextPreviousIdentity(t *testing.T) {
	for _, n := range []int{1, 2, 3, 5} {
		c := NewController(tween.NewEngine(), true)
		root := scene.NewNode("model")
		c.Bind(root, testClips(root, n))
		c.Select(n - 1)
		start := c.Index()

		c.Next()
		if got := c.Previous(); got != start {
			t.Errorf("n=%d: previous(next(%d)) = %d", n, start, got)
		}
		c.Previous()
		if got := c.Next(); got != start {
			t.Errorf("n=%d: next(previous(%d)) = %d", n, start, got)
		}
	}
}

func TestControllerSameClipReplays(t *testing.T) {
	c := NewController(tween.NewEngine(), true)
	root := scene.NewNode("model")
	c.Bind(root, testClips(root, 1))

	c.Update(0.5)
	current := c.Current()
	if got := c.Next(); got != 0 {
		t.Fatalf("next with one clip = %d", got)
	}
	if c.Current() != current || current.Time() != 0 || current.IsFading() {
		t.Fatalf("single clip should restart in place: time=%v fading=%v", current.Time(), current.IsFading())
	}
}

func TestControllerIdleRotation(t *testing.T) {
	tw := tween.NewEngine()
	c := NewController(tw, true)
	root := scene.NewNode("model")
	c.Bind(root, nil)

	if c.State() != StateIdleRotation {
		t.Fatalf("state = %s, want idle-rotation", c.State())
	}
	rot := c.RotationTween()
	if rot == nil {
		t.Fatal("no rotation tween")
	}
	if rot.Duration() != IdleRotationPeriod || rot.Repeat() != tween.RepeatForever {
		t.Fatalf("duration %v repeat %d", rot.Duration(), rot.Repeat())
	}
	if math.Abs(float64(rot.To()-rot.From()-2*math.Pi)) > 1e-5 {
		t.Fatalf("range %v..%v, want a full turn", rot.From(), rot.To())
	}

	tw.Update(IdleRotationPeriod / 4)
	if math.Abs(float64(root.Yaw-math.Pi/2)) > 1e-4 {
		t.Fatalf("yaw after a quarter period = %v", root.Yaw)
	}

	c.SetAutoRotate(false)
	if c.State() != StateInactive || rot.Active() || c.RotationTween() != nil {
		t.Fatal("disabling auto-rotate must kill the tween")
	}
	tw.Update(0)
	if tw.ActiveCount() != 0 {
		t.Fatalf("active tweens = %d", tw.ActiveCount())
	}

	c.SetAutoRotate(true)
	if c.State() != StateIdleRotation || c.RotationTween() == nil {
		t.Fatal("re-enabling auto-rotate must restart idle rotation")
	}
}

func TestControllerNoClipsNoAutoRotateStaysInactive(t *testing.T) {
	tw := tween.NewEngine()
	c := NewController(tw, false)
	c.Bind(scene.NewNode("model"), nil)
	if c.State() != StateInactive || tw.ActiveCount() != 0 {
		t.Fatalf("state %s, tweens %d", c.State(), tw.ActiveCount())
	}
	if got := c.Next(); got != 0 {
		t.Fatalf("next without clips = %d", got)
	}
}

func TestControllerRebindDiscardsPrevious(t *testing.T) {
	tw := tween.NewEngine()
	c := NewController(tw, true)
	idle := scene.NewNode("idle")
	c.Bind(idle, nil)
	rot := c.RotationTween()

	root := scene.NewNode("animated")
	c.Bind(root, testClips(root, 2))
	if rot.Active() {
		t.Fatal("rotation tween survived a rebind")
	}
	if c.State() != StateClipPlayback || c.RotationTween() != nil {
		t.Fatalf("state %s after rebind", c.State())
	}

	mixer := c.Mixer()
	c.Release()
	if c.State() != StateInactive || c.Mixer() != nil || c.Clips() != nil {
		t.Fatal("release left state behind")
	}
	for _, a := range mixer.Actions() {
		if a.IsRunning() {
			t.Fatal("release left an action running")
		}
	}
}

func TestControllerAutoRotateIgnoredDuringPlayback(t *testing.T) {
	tw := tween.NewEngine()
	c := NewController(tw, false)
	root := scene.NewNode("model")
	c.Bind(root, testClips(root, 1))
	c.SetAutoRotate(true)
	if c.State() != StateClipPlayback || tw.ActiveCount() != 0 {
		t.Fatalf("state %s, tweens %d", c.State(), tw.ActiveCount())
	}
}
