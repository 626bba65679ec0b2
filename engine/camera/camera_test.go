package camera

import (
	"math"
	"testing"
)

func TestStageCameraLooksAtTarget(t *testing.T) {
	c := NewCamera(
		WithFovDegrees(45),
		WithPosition(0, 1.2, 3.5),
		WithTarget(0, 1, 0),
		WithClipPlanes(0.1, 100),
	)
	if math.Abs(float64(c.Fov())-math.Pi/4) > 1e-6 {
		t.Fatalf("fov = %v", c.Fov())
	}

	// The target projects to the center of clip space.
	vp := c.ViewProjectionMatrix()
	x := vp[0]*0 + vp[4]*1 + vp[8]*0 + vp[12]
	y := vp[1]*0 + vp[5]*1 + vp[9]*0 + vp[13]
	w := vp[3]*0 + vp[7]*1 + vp[11]*0 + vp[15]
	if w <= 0 || math.Abs(float64(x/w)) > 1e-5 || math.Abs(float64(y/w)) > 1e-5 {
		t.Fatalf("target in NDC = (%v, %v), w %v", x/w, y/w, w)
	}
}

func TestSetAspectIgnoresInvalid(t *testing.T) {
	c := NewCamera()
	before := c.ProjectionMatrix()

	c.SetAspect(0)
	c.SetAspect(float32(math.Inf(1)))
	if c.Aspect() != 1 || c.ProjectionMatrix() != before {
		t.Fatal("invalid aspect should be ignored")
	}

	c.SetAspect(2)
	p := c.ProjectionMatrix()
	if c.Aspect() != 2 || math.Abs(float64(p[0]*2-p[5])) > 1e-5 {
		t.Fatalf("aspect %v projection x %v y %v", c.Aspect(), p[0], p[5])
	}
}

func TestLookAtUpdatesView(t *testing.T) {
	c := NewCamera()
	c.LookAt([3]float32{0, 0, 10}, [3]float32{0, 0, 0})
	if c.Position() != [3]float32{0, 0, 10} || c.Target() != [3]float32{0, 0, 0} {
		t.Fatal("LookAt did not store the eye and target")
	}
	if v := c.ViewMatrix(); math.Abs(float64(v[14]+10)) > 1e-5 {
		t.Fatalf("view translation z = %v, want -10", v[14])
	}
}
